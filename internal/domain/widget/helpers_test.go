package widget

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/yanqian/clima-widget/internal/domain/weather"
)

type fakeTimer struct {
	due     time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeClock struct {
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) afterFunc(d time.Duration, fn func()) Timer {
	t := &fakeTimer{due: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
	for _, t := range c.timers {
		if t.stopped || t.fired || t.due.After(c.now) {
			continue
		}
		t.fired = true
		t.fn()
	}
}

func (c *fakeClock) active() int {
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func newTestDisplay() (*Display, *fakeClock) {
	clock := newFakeClock()
	d := NewDisplay(3 * time.Second)
	d.afterFunc = clock.afterFunc
	d.now = func() time.Time { return clock.now }
	return d, clock
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func madridReport() weather.Report {
	return weather.Report{
		StatusCode: weather.StatusOK,
		City:       "Madrid",
		Main: weather.Conditions{
			Temp:      21.5,
			TempMin:   18,
			TempMax:   24.2,
			FeelsLike: 20.9,
			Humidity:  40,
			Pressure:  1015,
		},
	}
}

type lookupResult struct {
	report weather.Report
	err    error
}

type stubService struct {
	mu      sync.Mutex
	results map[string]lookupResult
	queries []weather.Query
}

func (s *stubService) Lookup(ctx context.Context, q weather.Query) (weather.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	res := s.results[q.City]
	return res.report, res.err
}

func (s *stubService) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

// queuedDispatcher holds jobs until the test runs them.
type queuedDispatcher struct {
	jobs []func(ctx context.Context)
}

func (q *queuedDispatcher) Dispatch(_ context.Context, job func(ctx context.Context)) {
	q.jobs = append(q.jobs, job)
}

func (q *queuedDispatcher) run(i int) {
	q.jobs[i](context.Background())
}

type syncDispatcher struct{}

func (syncDispatcher) Dispatch(ctx context.Context, job func(ctx context.Context)) {
	job(ctx)
}
