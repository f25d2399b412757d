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

var (
	dateA = internal.NewDate(2024, time.January, 10)
	dateB = internal.NewDate(2024, time.January, 11)
)

func collect() (chan LoadResult, func(LoadResult)) {
	ch := make(chan LoadResult, 8)
	return ch, func(r LoadResult) { ch <- r }
}

func TestDayLoader_PublishesReducedMetrics(t *testing.T) {
	gw := newFakeGateway()
	gw.setSteps(mustRange(dateA), 150)
	gw.setHeartRate(mustRange(dateA), 60, 70)

	l := NewDayLoader(gw, time.UTC, internal.NopLogger())
	results, publish := collect()
	token := l.Load(context.Background(), dateA, publish)

	select {
	case res := <-results:
		require.NoError(t, res.Err)
		assert.Equal(t, token, res.Token)
		assert.Equal(t, dateA, res.Date)
		require.NotNil(t, res.Metrics.TotalSteps)
		assert.EqualValues(t, 150, *res.Metrics.TotalSteps)
		require.NotNil(t, res.Metrics.AverageHeartRate)
		assert.EqualValues(t, 65, *res.Metrics.AverageHeartRate)
		assert.Nil(t, res.Metrics.LastSleep)
	case <-time.After(2 * time.Second):
		t.Fatal("no result published")
	}
}

func TestDayLoader_TokensIncrease(t *testing.T) {
	l := NewDayLoader(newFakeGateway(), time.UTC, internal.NopLogger())
	_, publish := collect()
	first := l.Load(context.Background(), dateA, publish)
	second := l.Load(context.Background(), dateA, publish)
	assert.Greater(t, second, first)
	assert.Equal(t, second, l.Current())
}

func TestDayLoader_DiscardsSupersededResult(t *testing.T) {
	gw := newFakeGateway()
	gw.setSteps(mustRange(dateA), 1)
	gw.setSteps(mustRange(dateB), 2)
	releaseA := gw.gate(mustRange(dateA))

	l := NewDayLoader(gw, time.UTC, internal.NopLogger())
	results, publish := collect()
	l.Load(context.Background(), dateA, publish)
	tokenB := l.Load(context.Background(), dateB, publish)

	res := <-results
	assert.Equal(t, tokenB, res.Token)
	assert.EqualValues(t, 2, *res.Metrics.TotalSteps)

	releaseA()
	require.Eventually(t, func() bool { return gw.completed.Load() == 6 }, 2*time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return len(results) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestDayLoader_AnyFailureFailsWholeLoad(t *testing.T) {
	gw := newFakeGateway()
	gw.setSteps(mustRange(dateA), 10)
	gw.setReadErr(errors.New("store unavailable"))

	l := NewDayLoader(gw, time.UTC, internal.NopLogger())
	results, publish := collect()
	l.Load(context.Background(), dateA, publish)

	res := <-results
	var le *internal.LoadError
	require.True(t, errors.As(res.Err, &le))
	assert.Equal(t, dateA, le.Date)
	var re *internal.ReadError
	assert.True(t, errors.As(res.Err, &re))
	assert.Equal(t, internal.DayMetrics{}, res.Metrics)
}
