package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/yourname/healthday/internal"
)

// DemoRecords returns a small set of records ending at now: a watch steps
// burst, one heart-rate reading and a night of manually entered sleep.
func DemoRecords(now time.Time) []internal.Record {
	now = now.UTC()
	return []internal.Record{
		internal.StepsSample{
			ID:         uuid.NewString(),
			Count:      120,
			Interval:   internal.Interval{Start: now.Add(-15 * time.Minute), End: now},
			Provenance: internal.AutoRecorded(internal.DeviceWatch),
		},
		internal.HeartRateRecord{
			ID:       uuid.NewString(),
			Interval: internal.Interval{Start: now.Add(-time.Minute), End: now},
			Samples: []internal.HeartRateSample{
				{Time: now.Add(-30 * time.Second), BeatsPerMinute: 78},
			},
			Provenance: internal.AutoRecorded(internal.DeviceWatch),
		},
		internal.SleepSession{
			ID:         uuid.NewString(),
			Interval:   internal.Interval{Start: now.Add(-8 * time.Hour), End: now},
			Provenance: internal.ManualEntry(),
		},
	}
}
