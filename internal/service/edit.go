package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yourname/healthday/internal"
	"github.com/yourname/healthday/internal/storage"
)

var validate = validator.New()

// ManualSampleSpan is the length of the synthetic interval a steps
// correction is recorded over, starting at the edited day's local midnight.
const ManualSampleSpan = 30 * time.Minute

// ParsePolicy decides what Save does with steps text that is not a number.
type ParsePolicy int

const (
	// ParseLenient skips the steps write and reports nothing.
	ParseLenient ParsePolicy = iota
	// ParseStrict fails Save with a *internal.ParseError.
	ParseStrict
)

func ParsePolicyFromString(s string) (ParsePolicy, error) {
	switch s {
	case "", "lenient":
		return ParseLenient, nil
	case "strict":
		return ParseStrict, nil
	}
	return 0, fmt.Errorf("unknown parse policy %q", s)
}

// CorrectionMode decides how a saved steps value relates to existing samples.
type CorrectionMode int

const (
	// CorrectionAdditive inserts the value as one more sample, so it adds to the day's total.
	CorrectionAdditive CorrectionMode = iota
	// CorrectionReplace deletes the day's samples before inserting.
	CorrectionReplace
)

func CorrectionModeFromString(s string) (CorrectionMode, error) {
	switch s {
	case "", "additive":
		return CorrectionAdditive, nil
	case "replace":
		return CorrectionReplace, nil
	}
	return 0, fmt.Errorf("unknown correction mode %q", s)
}

type EditOption func(*EditSession)

func WithParsePolicy(p ParsePolicy) EditOption {
	return func(s *EditSession) { s.policy = p }
}

func WithCorrectionMode(m CorrectionMode) EditOption {
	return func(s *EditSession) { s.mode = m }
}

func WithEditLogger(l internal.Logger) EditOption {
	return func(s *EditSession) { s.logger = l }
}

// EditSession holds a draft correction for one date. The draft is a copy of
// the metrics handed in at construction and is never refreshed from them.
type EditSession struct {
	id      string
	gateway storage.Gateway
	loc     *time.Location
	onDone  func()
	policy  ParsePolicy
	mode    CorrectionMode
	logger  internal.Logger

	mu    sync.Mutex
	draft internal.EditDraft
}

// NewEditSession seeds a draft for date from current. onDone runs once after
// every Save or DeleteSteps; it may be nil.
func NewEditSession(gw storage.Gateway, date internal.Date, current internal.DayMetrics, loc *time.Location, onDone func(), opts ...EditOption) *EditSession {
	s := &EditSession{
		id:      uuid.NewString(),
		gateway: gw,
		loc:     loc,
		onDone:  onDone,
		logger:  internal.NopLogger(),
		draft:   seedDraft(date, current),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func seedDraft(date internal.Date, m internal.DayMetrics) internal.EditDraft {
	d := internal.EditDraft{Date: date}
	if m.TotalSteps != nil {
		d.Steps = strconv.FormatInt(*m.TotalSteps, 10)
	}
	if m.AverageHeartRate != nil {
		d.HeartRate = strconv.FormatInt(*m.AverageHeartRate, 10)
	}
	if m.LastSleep != nil {
		d.Sleep = fmt.Sprintf("%d:%02d", m.LastSleep.Hours, m.LastSleep.Minutes)
	}
	return d
}

func (s *EditSession) ID() string { return s.id }

func (s *EditSession) Date() internal.Date {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Date
}

func (s *EditSession) Draft() internal.EditDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *EditSession) SetSteps(text string) {
	s.mu.Lock()
	s.draft.Steps = text
	s.mu.Unlock()
}

func (s *EditSession) SetHeartRate(text string) {
	s.mu.Lock()
	s.draft.HeartRate = text
	s.mu.Unlock()
}

func (s *EditSession) SetSleep(text string) {
	s.mu.Lock()
	s.draft.Sleep = text
	s.mu.Unlock()
}

// Save writes the drafted steps value as a manual sample. The completion
// callback runs once afterwards whether or not anything was written.
func (s *EditSession) Save(ctx context.Context) error {
	defer s.done()
	draft := s.Draft()

	count, err := parseSteps(draft.Steps)
	if err != nil {
		if s.policy == ParseStrict {
			return err
		}
		s.logger.Infof("edit: skipping steps for %s: %v", draft.Date, err)
		return nil
	}

	day, err := ResolveDay(draft.Date, s.loc)
	if err != nil {
		return err
	}
	sample := internal.StepsSample{
		ID:         uuid.NewString(),
		Count:      count,
		Interval:   internal.Interval{Start: day.Start, End: day.Start.Add(ManualSampleSpan)},
		Provenance: internal.ManualEntry(),
	}

	if s.mode == CorrectionReplace {
		if err := s.gateway.DeleteSteps(ctx, day); err != nil {
			s.logger.Errorf("edit: clearing steps for %s: %v", draft.Date, err)
			return internal.NewWriteError("delete steps", err)
		}
	}
	if err := s.gateway.Insert(ctx, sample); err != nil {
		s.logger.Errorf("edit: saving steps for %s: %v", draft.Date, err)
		return internal.NewWriteError("insert steps", err)
	}
	s.logger.Infof("edit: saved %d manual steps for %s", count, draft.Date)
	return nil
}

// DeleteSteps removes every steps sample of the edited day, then runs the
// completion callback.
func (s *EditSession) DeleteSteps(ctx context.Context) error {
	defer s.done()
	date := s.Date()

	day, err := ResolveDay(date, s.loc)
	if err != nil {
		return err
	}
	if err := s.gateway.DeleteSteps(ctx, day); err != nil {
		s.logger.Errorf("edit: deleting steps for %s: %v", date, err)
		return internal.NewWriteError("delete steps", err)
	}
	return nil
}

func (s *EditSession) done() {
	if s.onDone != nil {
		s.onDone()
	}
}

func parseSteps(text string) (int64, error) {
	trimmed := strings.TrimSpace(text)
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, &internal.ParseError{Field: "steps", Input: text, Err: err}
	}
	if err := validate.Var(n, "gte=0"); err != nil {
		return 0, &internal.ParseError{Field: "steps", Input: text, Err: err}
	}
	return n, nil
}
