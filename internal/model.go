package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type User struct {
	ID          string       `json:"id"`
	Token       string       `json:"token,omitempty"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// Date is a calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, &InvalidDateError{Input: s, Err: err}
	}
	return DateOf(t), nil
}

// Validate rejects dates that time.Date would normalize, such as February 30.
func (d Date) Validate() error {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return &InvalidDateError{Input: d.String(), Err: errors.New("month or day out of range")}
	}
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	if DateOf(t) != d {
		return &InvalidDateError{Input: d.String(), Err: errors.New("day out of range for month")}
	}
	return nil
}

func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// Midnight returns the start of d in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (i Interval) Duration() time.Duration { return i.End.Sub(i.Start) }

func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

func (i Interval) Overlaps(o Interval) bool {
	if o.Start.Equal(o.End) {
		return i.Contains(o.Start)
	}
	return o.Start.Before(i.End) && i.Start.Before(o.End)
}

type RecordKind string

const (
	KindSteps     RecordKind = "steps"
	KindHeartRate RecordKind = "heart_rate"
	KindSleep     RecordKind = "sleep"
)

var RecordKinds = []RecordKind{KindSteps, KindHeartRate, KindSleep}

// Record is anything the health store accepts on insert.
type Record interface {
	Kind() RecordKind
	Validate() error
}

const (
	DeviceWatch   = "watch"
	DevicePhone   = "phone"
	DeviceScale   = "scale"
	DeviceRing    = "ring"
	DeviceUnknown = "unknown"
)

// Provenance tells manual corrections apart from auto-recorded telemetry.
type Provenance struct {
	Manual     bool   `json:"manual"`
	DeviceKind string `json:"device_kind,omitempty"`
}

func ManualEntry() Provenance { return Provenance{Manual: true} }

func AutoRecorded(deviceKind string) Provenance {
	if deviceKind == "" {
		deviceKind = DeviceUnknown
	}
	return Provenance{DeviceKind: deviceKind}
}

type StepsSample struct {
	ID         string     `json:"id"`
	Count      int64      `json:"count" validate:"gte=0"`
	Interval   Interval   `json:"interval"`
	Provenance Provenance `json:"provenance"`
}

func (s StepsSample) Kind() RecordKind { return KindSteps }

func (s StepsSample) Validate() error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	return validInterval(s.Interval)
}

type HeartRateSample struct {
	Time           time.Time `json:"time" validate:"required"`
	BeatsPerMinute int64     `json:"bpm" validate:"gt=0"`
}

type HeartRateRecord struct {
	ID         string            `json:"id"`
	Interval   Interval          `json:"interval"`
	Samples    []HeartRateSample `json:"samples" validate:"required,min=1,dive"`
	Provenance Provenance        `json:"provenance"`
}

func (r HeartRateRecord) Kind() RecordKind { return KindHeartRate }

func (r HeartRateRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if err := validInterval(r.Interval); err != nil {
		return err
	}
	for i := 1; i < len(r.Samples); i++ {
		if r.Samples[i].Time.Before(r.Samples[i-1].Time) {
			return errors.New("heart rate samples must be time-ascending")
		}
	}
	return nil
}

type SleepSession struct {
	ID         string     `json:"id"`
	Interval   Interval   `json:"interval"`
	Provenance Provenance `json:"provenance"`
}

func (s SleepSession) Kind() RecordKind { return KindSleep }

func (s SleepSession) Validate() error { return validInterval(s.Interval) }

func validInterval(i Interval) error {
	if i.Start.IsZero() || i.End.IsZero() {
		return errors.New("interval start and end are required")
	}
	if i.End.Before(i.Start) {
		return errors.New("interval end is before start")
	}
	return nil
}

type SleepDuration struct {
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
}

func (d SleepDuration) String() string {
	return fmt.Sprintf("%dh %dm", d.Hours, d.Minutes)
}

// DayMetrics is derived per load and never persisted. Nil fields mean no data.
type DayMetrics struct {
	TotalSteps       *int64         `json:"total_steps,omitempty"`
	AverageHeartRate *int64         `json:"average_heart_rate,omitempty"`
	LastSleep        *SleepDuration `json:"last_sleep,omitempty"`
}

// LoadRequest identifies one day load. Token grows with every request.
type LoadRequest struct {
	Date  Date
	Token uint64
}

type EditDraft struct {
	Date      Date   `json:"date"`
	Steps     string `json:"steps"`
	HeartRate string `json:"heart_rate"`
	Sleep     string `json:"sleep"`
}
