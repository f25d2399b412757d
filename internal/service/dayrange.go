package service

import (
	"time"

	"github.com/yourname/healthday/internal"
)

// ResolveDay returns the half-open UTC interval covering d in loc, from local
// midnight to the next local midnight. A nil loc means UTC.
func ResolveDay(d internal.Date, loc *time.Location) (internal.Interval, error) {
	if err := d.Validate(); err != nil {
		return internal.Interval{}, err
	}
	return internal.Interval{
		Start: d.Midnight(loc).UTC(),
		End:   d.AddDays(1).Midnight(loc).UTC(),
	}, nil
}

// Today returns the current calendar date in loc.
func Today(loc *time.Location) internal.Date {
	if loc == nil {
		loc = time.UTC
	}
	return internal.DateOf(time.Now().In(loc))
}
