package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourname/healthday/internal"
	"github.com/yourname/healthday/internal/storage"
)

var ErrViewClosed = errors.New("day view closed")

// DayState is an immutable snapshot of a DayView.
type DayState struct {
	SelectedDate internal.Date
	// MetricsDate is the date Metrics were loaded for. It lags SelectedDate
	// while a load is pending or after a failed load.
	MetricsDate internal.Date
	Metrics     internal.DayMetrics
	Err         error
	Loading     bool
	Token       uint64
}

type commandKind int

const (
	cmdSelect commandKind = iota
	cmdPage
	cmdReload
)

type command struct {
	kind  commandKind
	date  internal.Date
	delta int
	reply chan uint64
}

type snapshot struct {
	state   DayState
	changed chan struct{}
}

// DayView holds the selected date and the last committed metrics. A single
// goroutine owns the state; commands and load completions reach it over
// channels and readers get published snapshots.
type DayView struct {
	loader *DayLoader
	logger internal.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	cmds    chan command
	results chan LoadResult
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	snap atomic.Pointer[snapshot]

	// owned by loop
	st      DayState
	pending uint64
}

// NewDayView starts the view and issues the first load for initial.
func NewDayView(gw storage.Gateway, loc *time.Location, initial internal.Date, logger internal.Logger) (*DayView, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	v := &DayView{
		loader:  NewDayLoader(gw, loc, logger),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		cmds:    make(chan command),
		results: make(chan LoadResult),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		st:      DayState{SelectedDate: initial},
	}
	v.snap.Store(&snapshot{state: v.st, changed: make(chan struct{})})

	go v.loop()

	if _, err := v.SelectDate(initial); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

// SelectDate switches to d, clears the error and starts a load. It returns
// the token of that load.
func (v *DayView) SelectDate(d internal.Date) (uint64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	return v.send(command{kind: cmdSelect, date: d})
}

// PageBy moves the selection by days, which may be negative. Paging is unbounded.
func (v *DayView) PageBy(days int) (uint64, error) {
	return v.send(command{kind: cmdPage, delta: days})
}

func (v *DayView) PrevDay() (uint64, error) { return v.PageBy(-1) }

func (v *DayView) NextDay() (uint64, error) { return v.PageBy(1) }

// Reload loads the selected date again, e.g. after an edit was committed.
func (v *DayView) Reload() (uint64, error) {
	return v.send(command{kind: cmdReload})
}

func (v *DayView) State() DayState {
	return v.snap.Load().state
}

// WaitIdle blocks until no load is pending and returns that state.
func (v *DayView) WaitIdle(ctx context.Context) (DayState, error) {
	for {
		s := v.snap.Load()
		if !s.state.Loading {
			return s.state, nil
		}
		select {
		case <-s.changed:
		case <-v.stopped:
			return v.snap.Load().state, ErrViewClosed
		case <-ctx.Done():
			return s.state, ctx.Err()
		}
	}
}

func (v *DayView) Close() {
	v.once.Do(func() {
		close(v.done)
		<-v.stopped
		v.cancel()
		v.loader.Stop()
	})
}

func (v *DayView) send(cmd command) (uint64, error) {
	cmd.reply = make(chan uint64, 1)
	select {
	case v.cmds <- cmd:
	case <-v.done:
		return 0, ErrViewClosed
	}
	return <-cmd.reply, nil
}

func (v *DayView) deliver(res LoadResult) {
	select {
	case v.results <- res:
	case <-v.done:
	}
}

func (v *DayView) loop() {
	defer close(v.stopped)
	for {
		select {
		case cmd := <-v.cmds:
			cmd.reply <- v.handle(cmd)
		case res := <-v.results:
			v.apply(res)
		case <-v.done:
			return
		}
	}
}

func (v *DayView) handle(cmd command) uint64 {
	target := v.st.SelectedDate
	switch cmd.kind {
	case cmdSelect:
		target = cmd.date
	case cmdPage:
		target = target.AddDays(cmd.delta)
	}

	v.st.SelectedDate = target
	v.st.Err = nil
	v.st.Loading = true
	v.pending = v.loader.Load(v.ctx, target, v.deliver)
	v.st.Token = v.pending
	v.publish()
	return v.pending
}

func (v *DayView) apply(res LoadResult) {
	if res.Token != v.pending {
		v.logger.Debugf("dayview: ignoring result for %s (token %d, want %d)", res.Date, res.Token, v.pending)
		return
	}
	v.st.Loading = false
	if res.Err != nil {
		v.st.Err = res.Err
	} else {
		v.st.Metrics = res.Metrics
		v.st.MetricsDate = res.Date
	}
	v.publish()
}

func (v *DayView) publish() {
	next := &snapshot{state: v.st, changed: make(chan struct{})}
	prev := v.snap.Swap(next)
	close(prev.changed)
}
