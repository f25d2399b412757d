package storage

import (
	"context"
	"fmt"

	"github.com/yourname/healthday/internal"
)

// GuardedGateway refuses calls whose record kind has not been granted.
// A refusal surfaces as a plain ReadError or WriteError wrapping ErrPermissionDenied.
type GuardedGateway struct {
	next    Gateway
	granted internal.PermissionSet
	logger  internal.Logger
}

func NewGuardedGateway(next Gateway, granted []internal.Permission, logger internal.Logger) *GuardedGateway {
	return &GuardedGateway{next: next, granted: internal.NewPermissionSet(granted...), logger: logger}
}

func (g *GuardedGateway) check(p internal.Permission) error {
	if g.granted.Has(p) {
		return nil
	}
	g.logger.Warnf("gateway: %s not granted", p)
	return fmt.Errorf("%s: %w", p, internal.ErrPermissionDenied)
}

func (g *GuardedGateway) Insert(ctx context.Context, records ...internal.Record) error {
	for _, r := range records {
		if err := g.check(internal.WritePermission(r.Kind())); err != nil {
			return internal.NewWriteError("insert", err)
		}
	}
	return g.next.Insert(ctx, records...)
}

func (g *GuardedGateway) ReadHeartRate(ctx context.Context, r internal.Interval) ([]internal.HeartRateRecord, error) {
	if err := g.check(internal.ReadPermission(internal.KindHeartRate)); err != nil {
		return nil, internal.NewReadError("heart rate", err)
	}
	return g.next.ReadHeartRate(ctx, r)
}

func (g *GuardedGateway) ReadSleepSessions(ctx context.Context, r internal.Interval) ([]internal.SleepSession, error) {
	if err := g.check(internal.ReadPermission(internal.KindSleep)); err != nil {
		return nil, internal.NewReadError("sleep sessions", err)
	}
	return g.next.ReadSleepSessions(ctx, r)
}

func (g *GuardedGateway) AggregateStepTotal(ctx context.Context, r internal.Interval) (*int64, error) {
	if err := g.check(internal.ReadPermission(internal.KindSteps)); err != nil {
		return nil, internal.NewReadError("steps aggregate", err)
	}
	return g.next.AggregateStepTotal(ctx, r)
}

func (g *GuardedGateway) DeleteSteps(ctx context.Context, r internal.Interval) error {
	if err := g.check(internal.WritePermission(internal.KindSteps)); err != nil {
		return internal.NewWriteError("delete steps", err)
	}
	return g.next.DeleteSteps(ctx, r)
}

func (g *GuardedGateway) Close() error { return g.next.Close() }

var _ Gateway = (*GuardedGateway)(nil)
