package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourname/healthday/internal"
	"github.com/yourname/healthday/internal/storage"
)

func openFileStore(t *testing.T) *storage.FileStorage {
	t.Helper()
	s, err := storage.NewFileStorage(filepath.Join(t.TempDir(), "records.json"), internal.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEditThenReload_AddsManualCorrection(t *testing.T) {
	ctx := context.Background()
	store := openFileStore(t)
	day := mustRange(dateA)
	require.NoError(t, store.Insert(ctx, internal.StepsSample{
		Count:      500,
		Interval:   internal.Interval{Start: day.Start, End: day.Start.Add(ManualSampleSpan)},
		Provenance: internal.ManualEntry(),
	}))

	view, err := NewDayView(store, time.UTC, dateA, internal.NopLogger())
	require.NoError(t, err)
	defer view.Close()
	s := waitIdle(t, view)
	require.NotNil(t, s.Metrics.TotalSteps)
	assert.EqualValues(t, 500, *s.Metrics.TotalSteps)

	reload := func() { _, _ = view.Reload() }
	edit := NewEditSession(store, dateA, s.Metrics, time.UTC, reload)
	assert.Equal(t, "500", edit.Draft().Steps)
	edit.SetSteps("0")
	require.NoError(t, edit.Save(ctx))

	// Saving inserts another sample, it does not replace the day's total.
	s = waitIdle(t, view)
	require.NotNil(t, s.Metrics.TotalSteps)
	assert.EqualValues(t, 500, *s.Metrics.TotalSteps)

	require.NoError(t, edit.DeleteSteps(ctx))
	s = waitIdle(t, view)
	assert.Nil(t, s.Metrics.TotalSteps)
	assert.Equal(t, "0", Display(s.Metrics).Steps)
}

func TestEditThenReload_ReplaceMode(t *testing.T) {
	ctx := context.Background()
	store := openFileStore(t)
	day := mustRange(dateA)
	require.NoError(t, store.Insert(ctx,
		internal.StepsSample{Count: 500, Interval: internal.Interval{Start: day.Start, End: day.Start.Add(ManualSampleSpan)}, Provenance: internal.ManualEntry()},
		internal.StepsSample{Count: 80, Interval: internal.Interval{Start: day.Start.Add(9 * time.Hour), End: day.Start.Add(10 * time.Hour)}, Provenance: internal.AutoRecorded(internal.DeviceWatch)},
	))

	view, err := NewDayView(store, time.UTC, dateA, internal.NopLogger())
	require.NoError(t, err)
	defer view.Close()
	s := waitIdle(t, view)
	assert.EqualValues(t, 580, *s.Metrics.TotalSteps)

	edit := NewEditSession(store, dateA, s.Metrics, time.UTC, func() { _, _ = view.Reload() }, WithCorrectionMode(CorrectionReplace))
	edit.SetSteps("0")
	require.NoError(t, edit.Save(ctx))

	s = waitIdle(t, view)
	require.NotNil(t, s.Metrics.TotalSteps)
	assert.EqualValues(t, 0, *s.Metrics.TotalSteps)
}

func TestDemoRecords(t *testing.T) {
	ctx := context.Background()
	store := openFileStore(t)
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	records := DemoRecords(now)
	for _, r := range records {
		require.NoError(t, r.Validate())
	}
	require.NoError(t, store.Insert(ctx, records...))

	view, err := NewDayView(store, time.UTC, dateA, internal.NopLogger())
	require.NoError(t, err)
	defer view.Close()
	s := waitIdle(t, view)
	assert.Equal(t, DisplayMetrics{Steps: "120", HeartRate: "78", Sleep: "8h 0m"}, Display(s.Metrics))
}

func TestReplaceMode_SampleCrossingMidnight(t *testing.T) {
	ctx := context.Background()
	store := openFileStore(t)
	day := mustRange(dateA)
	require.NoError(t, store.Insert(ctx, internal.StepsSample{
		Count:      40,
		Interval:   internal.Interval{Start: day.End.Add(-10 * time.Minute), End: day.End.Add(10 * time.Minute)},
		Provenance: internal.AutoRecorded(internal.DevicePhone),
	}))

	view, err := NewDayView(store, time.UTC, dateA, internal.NopLogger())
	require.NoError(t, err)
	defer view.Close()
	s := waitIdle(t, view)
	require.NotNil(t, s.Metrics.TotalSteps)
	assert.EqualValues(t, 40, *s.Metrics.TotalSteps)

	edit := NewEditSession(store, dateA, s.Metrics, time.UTC, func() { _, _ = view.Reload() }, WithCorrectionMode(CorrectionReplace))
	edit.SetSteps("100")
	require.NoError(t, edit.Save(ctx))
	s = waitIdle(t, view)
	require.NotNil(t, s.Metrics.TotalSteps)
	assert.EqualValues(t, 100, *s.Metrics.TotalSteps)

	require.NoError(t, edit.DeleteSteps(ctx))
	s = waitIdle(t, view)
	assert.Nil(t, s.Metrics.TotalSteps)
}
