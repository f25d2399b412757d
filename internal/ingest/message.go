package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yourname/healthday/internal"
)

var validate = validator.New()

// Message is one telemetry payload published by a device.
type Message struct {
	Type    string                     `json:"type" validate:"required,oneof=steps heart_rate sleep"`
	Device  string                     `json:"device"`
	Start   time.Time                  `json:"start" validate:"required"`
	End     time.Time                  `json:"end" validate:"required"`
	Count   *int64                     `json:"count,omitempty"`
	BPM     int64                      `json:"bpm,omitempty"`
	Samples []internal.HeartRateSample `json:"samples,omitempty"`
}

// Decode parses a payload into the auto-recorded record it describes.
func Decode(payload []byte) (internal.Record, error) {
	var m Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("decode telemetry: %w", err)
	}
	if err := validate.Struct(m); err != nil {
		return nil, fmt.Errorf("invalid telemetry: %w", err)
	}
	rec, err := m.Record()
	if err != nil {
		return nil, err
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s telemetry: %w", m.Type, err)
	}
	return rec, nil
}

func (m Message) Record() (internal.Record, error) {
	interval := internal.Interval{Start: m.Start, End: m.End}
	prov := internal.AutoRecorded(m.Device)
	switch internal.RecordKind(m.Type) {
	case internal.KindSteps:
		if m.Count == nil {
			return nil, errors.New("steps telemetry without count")
		}
		return internal.StepsSample{ID: uuid.NewString(), Count: *m.Count, Interval: interval, Provenance: prov}, nil
	case internal.KindHeartRate:
		samples := m.Samples
		if len(samples) == 0 && m.BPM > 0 {
			samples = []internal.HeartRateSample{{Time: m.Start, BeatsPerMinute: m.BPM}}
		}
		return internal.HeartRateRecord{ID: uuid.NewString(), Interval: interval, Samples: samples, Provenance: prov}, nil
	case internal.KindSleep:
		return internal.SleepSession{ID: uuid.NewString(), Interval: interval, Provenance: prov}, nil
	}
	return nil, fmt.Errorf("unknown telemetry type %q", m.Type)
}
