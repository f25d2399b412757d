package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourname/healthday/internal"
	"github.com/yourname/healthday/internal/storage"
	"golang.org/x/sync/errgroup"
)

// LoadResult is the outcome of one DayLoader.Load call.
type LoadResult struct {
	internal.LoadRequest
	Metrics internal.DayMetrics
	Err     error
}

// DayLoader fetches one day's metrics per call. Every Load takes a fresh
// token and cancels the load it supersedes. A result whose token is no longer
// current when its fetch settles is dropped, but a Load issued while publish
// is running cannot recall it, so subscribers must still compare Token
// against the newest token they issued.
type DayLoader struct {
	gateway storage.Gateway
	loc     *time.Location
	logger  internal.Logger

	current atomic.Uint64
	mu      sync.Mutex
	cancel  context.CancelFunc
}

func NewDayLoader(gw storage.Gateway, loc *time.Location, logger internal.Logger) *DayLoader {
	return &DayLoader{gateway: gw, loc: loc, logger: logger}
}

// Current returns the token of the most recent Load.
func (l *DayLoader) Current() uint64 { return l.current.Load() }

// Load starts fetching date in the background and returns its token. publish
// is called at most once, from another goroutine, unless a newer Load was
// issued before the fetch settled.
func (l *DayLoader) Load(ctx context.Context, date internal.Date, publish func(LoadResult)) uint64 {
	loadCtx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	req := internal.LoadRequest{Date: date, Token: l.current.Add(1)}
	if l.cancel != nil {
		l.cancel()
	}
	l.cancel = cancel
	l.mu.Unlock()

	go func() {
		defer cancel()
		metrics, err := l.fetch(loadCtx, req.Date)
		if l.current.Load() != req.Token {
			l.logger.Debugf("loader: dropping stale result for %s (token %d)", req.Date, req.Token)
			return
		}
		res := LoadResult{LoadRequest: req}
		if err != nil {
			l.logger.Warnf("loader: load of %s failed: %v", date, err)
			res.Err = &internal.LoadError{Date: date, Err: err}
		} else {
			res.Metrics = metrics
		}
		publish(res)
	}()

	return req.Token
}

// Stop cancels the in-flight load, if any.
func (l *DayLoader) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// fetch issues the three gateway calls for date concurrently and reduces
// them once all have settled. Any failure fails the whole fetch.
func (l *DayLoader) fetch(ctx context.Context, date internal.Date) (internal.DayMetrics, error) {
	r, err := ResolveDay(date, l.loc)
	if err != nil {
		return internal.DayMetrics{}, err
	}

	var (
		total *int64
		hr    []internal.HeartRateRecord
		sleep []internal.SleepSession
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = l.gateway.AggregateStepTotal(gctx, r)
		return err
	})
	g.Go(func() error {
		var err error
		hr, err = l.gateway.ReadHeartRate(gctx, r)
		return err
	})
	g.Go(func() error {
		var err error
		sleep, err = l.gateway.ReadSleepSessions(gctx, r)
		return err
	})
	if err := g.Wait(); err != nil {
		return internal.DayMetrics{}, err
	}
	return Reduce(total, hr, sleep), nil
}
