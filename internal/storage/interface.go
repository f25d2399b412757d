package storage

import (
	"context"

	"github.com/yourname/healthday/internal"
)

// Gateway is the read/write/aggregate/delete surface of the health-record store.
//
// Reads and aggregates fail with *internal.ReadError, inserts and deletes with
// *internal.WriteError. An empty read is not an error.
type Gateway interface {
	Insert(ctx context.Context, records ...internal.Record) error
	ReadHeartRate(ctx context.Context, r internal.Interval) ([]internal.HeartRateRecord, error)
	ReadSleepSessions(ctx context.Context, r internal.Interval) ([]internal.SleepSession, error)
	// AggregateStepTotal returns nil when no steps sample starts inside r.
	AggregateStepTotal(ctx context.Context, r internal.Interval) (*int64, error)
	// DeleteSteps removes the steps samples AggregateStepTotal would count for r.
	DeleteSteps(ctx context.Context, r internal.Interval) error
	Close() error
}
