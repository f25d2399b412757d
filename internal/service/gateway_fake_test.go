package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourname/healthday/internal"
)

// fakeGateway serves canned per-day data keyed by range start. Calls for a
// gated day block until the gate is released, ignoring cancellation, so tests
// control completion order.
type fakeGateway struct {
	mu        sync.Mutex
	steps     map[time.Time]int64
	hr        map[time.Time][]internal.HeartRateRecord
	sleep     map[time.Time][]internal.SleepSession
	gates     map[time.Time]chan struct{}
	readErr   error
	writeErr  error
	inserted  []internal.Record
	deleted   []internal.Interval
	ops       []string
	completed atomic.Int64
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		steps: make(map[time.Time]int64),
		hr:    make(map[time.Time][]internal.HeartRateRecord),
		sleep: make(map[time.Time][]internal.SleepSession),
		gates: make(map[time.Time]chan struct{}),
	}
}

func (f *fakeGateway) setSteps(r internal.Interval, n int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps[r.Start] = n
}

func (f *fakeGateway) setHeartRate(r internal.Interval, bpm ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := internal.HeartRateRecord{Interval: r}
	for i, b := range bpm {
		rec.Samples = append(rec.Samples, internal.HeartRateSample{Time: r.Start.Add(time.Duration(i) * time.Minute), BeatsPerMinute: b})
	}
	f.hr[r.Start] = []internal.HeartRateRecord{rec}
}

func (f *fakeGateway) gate(r internal.Interval) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[r.Start] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (f *fakeGateway) setReadErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErr = err
}

func (f *fakeGateway) wait(r internal.Interval) error {
	f.mu.Lock()
	ch := f.gates[r.Start]
	f.mu.Unlock()
	if ch != nil {
		<-ch
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readErr
}

func (f *fakeGateway) Insert(ctx context.Context, records ...internal.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "insert")
	if f.writeErr != nil {
		return internal.NewWriteError("insert", f.writeErr)
	}
	f.inserted = append(f.inserted, records...)
	return nil
}

func (f *fakeGateway) ReadHeartRate(ctx context.Context, r internal.Interval) ([]internal.HeartRateRecord, error) {
	defer f.completed.Add(1)
	if err := f.wait(r); err != nil {
		return nil, internal.NewReadError("heart rate", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hr[r.Start], nil
}

func (f *fakeGateway) ReadSleepSessions(ctx context.Context, r internal.Interval) ([]internal.SleepSession, error) {
	defer f.completed.Add(1)
	if err := f.wait(r); err != nil {
		return nil, internal.NewReadError("sleep sessions", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sleep[r.Start], nil
}

func (f *fakeGateway) AggregateStepTotal(ctx context.Context, r internal.Interval) (*int64, error) {
	defer f.completed.Add(1)
	if err := f.wait(r); err != nil {
		return nil, internal.NewReadError("steps aggregate", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.steps[r.Start]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (f *fakeGateway) DeleteSteps(ctx context.Context, r internal.Interval) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "delete")
	if f.writeErr != nil {
		return internal.NewWriteError("delete steps", f.writeErr)
	}
	f.deleted = append(f.deleted, r)
	return nil
}

func (f *fakeGateway) Close() error { return nil }

func mustRange(d internal.Date) internal.Interval {
	r, err := ResolveDay(d, time.UTC)
	if err != nil {
		panic(err)
	}
	return r
}
