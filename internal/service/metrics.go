package service

import (
	"fmt"
	"sort"

	"github.com/yourname/healthday/internal"
)

// SumSteps totals every sample regardless of provenance. It returns nil for
// an empty input so that "no data" stays distinct from zero steps.
func SumSteps(samples []internal.StepsSample) *int64 {
	if len(samples) == 0 {
		return nil
	}
	var total int64
	for _, s := range samples {
		total += s.Count
	}
	return &total
}

// AverageHeartRate is the truncated mean over all samples of all records.
func AverageHeartRate(records []internal.HeartRateRecord) *int64 {
	var flat []internal.HeartRateSample
	for _, r := range records {
		flat = append(flat, r.Samples...)
	}
	if len(flat) == 0 {
		return nil
	}
	sort.SliceStable(flat, func(i, j int) bool { return flat[i].Time.Before(flat[j].Time) })

	var sum int64
	for _, s := range flat {
		sum += s.BeatsPerMinute
	}
	avg := sum / int64(len(flat))
	return &avg
}

// LastSleepDuration measures the session that ends last. Ties go to the
// first such session in input order. Leftover seconds are dropped.
func LastSleepDuration(sessions []internal.SleepSession) *internal.SleepDuration {
	if len(sessions) == 0 {
		return nil
	}
	last := sessions[0]
	for _, s := range sessions[1:] {
		if s.Interval.End.After(last.Interval.End) {
			last = s
		}
	}
	mins := int64(last.Interval.Duration().Minutes())
	return &internal.SleepDuration{Hours: mins / 60, Minutes: mins % 60}
}

// Reduce builds a complete DayMetrics from one day's gateway results.
func Reduce(total *int64, hr []internal.HeartRateRecord, sleep []internal.SleepSession) internal.DayMetrics {
	return internal.DayMetrics{
		TotalSteps:       total,
		AverageHeartRate: AverageHeartRate(hr),
		LastSleep:        LastSleepDuration(sleep),
	}
}

const noValue = "—"

// DisplayMetrics is DayMetrics rendered the way the day screen shows it.
type DisplayMetrics struct {
	Steps     string `json:"steps"`
	HeartRate string `json:"heart_rate"`
	Sleep     string `json:"sleep"`
}

// Display renders m. Missing steps read as "0", other missing values as a dash.
func Display(m internal.DayMetrics) DisplayMetrics {
	d := DisplayMetrics{Steps: "0", HeartRate: noValue, Sleep: noValue}
	if m.TotalSteps != nil {
		d.Steps = fmt.Sprint(*m.TotalSteps)
	}
	if m.AverageHeartRate != nil {
		d.HeartRate = fmt.Sprint(*m.AverageHeartRate)
	}
	if m.LastSleep != nil {
		d.Sleep = m.LastSleep.String()
	}
	return d
}
