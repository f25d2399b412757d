package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourname/healthday/internal"
)

func counter() (*int, func()) {
	n := 0
	return &n, func() { n++ }
}

func TestEditSession_SeedsDraftFromSnapshot(t *testing.T) {
	steps, bpm := int64(500), int64(71)
	metrics := internal.DayMetrics{
		TotalSteps:       &steps,
		AverageHeartRate: &bpm,
		LastSleep:        &internal.SleepDuration{Hours: 7, Minutes: 5},
	}
	s := NewEditSession(newFakeGateway(), dateA, metrics, time.UTC, nil)
	steps = 9999

	assert.Equal(t, internal.EditDraft{Date: dateA, Steps: "500", HeartRate: "71", Sleep: "7:05"}, s.Draft())
	assert.NotEmpty(t, s.ID())

	empty := NewEditSession(newFakeGateway(), dateA, internal.DayMetrics{}, time.UTC, nil)
	assert.Equal(t, internal.EditDraft{Date: dateA}, empty.Draft())
}

func TestEditSession_SettersAcceptAnyText(t *testing.T) {
	s := NewEditSession(newFakeGateway(), dateA, internal.DayMetrics{}, time.UTC, nil)
	s.SetSteps("lots")
	s.SetHeartRate("")
	s.SetSleep("8h")
	assert.Equal(t, internal.EditDraft{Date: dateA, Steps: "lots", Sleep: "8h"}, s.Draft())
}

func TestEditSession_SaveWritesManualSampleAtMidnight(t *testing.T) {
	gw := newFakeGateway()
	calls, done := counter()
	zone := time.FixedZone("UTC+3", 3*60*60)
	s := NewEditSession(gw, dateA, internal.DayMetrics{}, zone, done)
	s.SetSteps(" 1200 ")

	require.NoError(t, s.Save(context.Background()))
	assert.Equal(t, 1, *calls)
	require.Len(t, gw.inserted, 1)
	sample, ok := gw.inserted[0].(internal.StepsSample)
	require.True(t, ok)
	assert.EqualValues(t, 1200, sample.Count)
	assert.True(t, sample.Provenance.Manual)
	assert.True(t, sample.Interval.Start.Equal(time.Date(2024, 1, 9, 21, 0, 0, 0, time.UTC)))
	assert.Equal(t, ManualSampleSpan, sample.Interval.Duration())
	assert.Empty(t, gw.deleted)
}

func TestEditSession_LenientSkipsUnparseableSteps(t *testing.T) {
	for _, text := range []string{"", "abc", "12.5", "-3"} {
		gw := newFakeGateway()
		calls, done := counter()
		s := NewEditSession(gw, dateA, internal.DayMetrics{}, time.UTC, done)
		s.SetSteps(text)

		assert.NoError(t, s.Save(context.Background()), text)
		assert.Empty(t, gw.inserted, text)
		assert.Equal(t, 1, *calls, text)
	}
}

func TestEditSession_StrictReportsParseError(t *testing.T) {
	gw := newFakeGateway()
	calls, done := counter()
	s := NewEditSession(gw, dateA, internal.DayMetrics{}, time.UTC, done, WithParsePolicy(ParseStrict))
	s.SetSteps("many")

	err := s.Save(context.Background())
	var pe *internal.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "steps", pe.Field)
	assert.Equal(t, "many", pe.Input)
	assert.Empty(t, gw.inserted)
	assert.Equal(t, 1, *calls)
}

func TestEditSession_ReplaceDeletesBeforeInsert(t *testing.T) {
	gw := newFakeGateway()
	s := NewEditSession(gw, dateA, internal.DayMetrics{}, time.UTC, nil, WithCorrectionMode(CorrectionReplace))
	s.SetSteps("0")

	require.NoError(t, s.Save(context.Background()))
	assert.Equal(t, []string{"delete", "insert"}, gw.ops)
	assert.Equal(t, []internal.Interval{mustRange(dateA)}, gw.deleted)
}

func TestEditSession_WriteFailureIsReported(t *testing.T) {
	gw := newFakeGateway()
	gw.writeErr = errors.New("store rejected schema")
	calls, done := counter()
	s := NewEditSession(gw, dateA, internal.DayMetrics{}, time.UTC, done)
	s.SetSteps("10")

	err := s.Save(context.Background())
	var we *internal.WriteError
	assert.True(t, errors.As(err, &we))
	assert.Equal(t, 1, *calls)

	err = s.DeleteSteps(context.Background())
	assert.True(t, errors.As(err, &we))
	assert.Equal(t, 2, *calls)
}

func TestEditSession_DeleteStepsCoversTheDay(t *testing.T) {
	gw := newFakeGateway()
	calls, done := counter()
	s := NewEditSession(gw, dateB, internal.DayMetrics{}, time.UTC, done)

	require.NoError(t, s.DeleteSteps(context.Background()))
	assert.Equal(t, []internal.Interval{mustRange(dateB)}, gw.deleted)
	assert.Equal(t, 1, *calls)
}

func TestPolicyFromString(t *testing.T) {
	p, err := ParsePolicyFromString("strict")
	require.NoError(t, err)
	assert.Equal(t, ParseStrict, p)
	_, err = ParsePolicyFromString("loose")
	assert.Error(t, err)

	m, err := CorrectionModeFromString("")
	require.NoError(t, err)
	assert.Equal(t, CorrectionAdditive, m)
	_, err = CorrectionModeFromString("overwrite")
	assert.Error(t, err)
}
