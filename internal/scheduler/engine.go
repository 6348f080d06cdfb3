package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sandeepkv93/calendard/internal/model"
	"github.com/sandeepkv93/calendard/internal/notify"
)

var (
	ErrInvalidInterval = errors.New("scheduler: invalid poll interval")
	ErrEngineStopped   = errors.New("scheduler: engine stopped")
)

// Source supplies the current event collection on every tick.
type Source interface {
	ListAll(ctx context.Context) ([]model.Event, error)
}

type SourceFunc func(ctx context.Context) ([]model.Event, error)

func (f SourceFunc) ListAll(ctx context.Context) ([]model.Event, error) { return f(ctx) }

// Clock returns the current instant. Tests inject a fixed one.
type Clock func() time.Time

type Options struct {
	Interval    time.Duration
	Buffer      int
	Clock       Clock
	Location    *time.Location
	Logger      *zap.SugaredLogger
	TickTimeout time.Duration
}

// Engine polls a Source on a fixed cadence and pushes reminders for events
// entering their lead-time window. Ticks never overlap.
type Engine struct {
	mu       sync.Mutex
	cron     *cron.Cron
	source   Source
	notifier *notify.Notifier
	now      Clock
	interval time.Duration
	timeout  time.Duration
	logger   *zap.SugaredLogger
	out      chan notify.Notification
	started  bool
	stopped  bool
	dropped  uint64
}

func NewEngine(source Source, opts Options) (*Engine, error) {
	if opts.Interval < time.Second {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, opts.Interval)
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 1
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.TickTimeout <= 0 {
		opts.TickTimeout = opts.Interval
	}
	logger := opts.Logger.Named("scheduler")
	cl := cronLogger{logger: logger}
	return &Engine{
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		source:   source,
		notifier: notify.New(opts.Location),
		now:      opts.Clock,
		interval: opts.Interval,
		timeout:  opts.TickTimeout,
		logger:   logger,
		out:      make(chan notify.Notification, opts.Buffer),
	}, nil
}

func (e *Engine) C() <-chan notify.Notification {
	return e.out
}

func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrEngineStopped
	}
	if e.started {
		return nil
	}
	schedule := "@every " + e.interval.String()
	if _, err := e.cron.AddFunc(schedule, e.run); err != nil {
		return fmt.Errorf("scheduler: register tick %q: %w", schedule, err)
	}
	e.started = true
	e.cron.Start()
	e.logger.Infow("notification polling started", "interval", e.interval.String())
	return nil
}

// Stop waits for an in-flight tick and then closes C.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.stopped = true
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.mu.Unlock()

	<-e.cron.Stop().Done()

	e.mu.Lock()
	close(e.out)
	e.mu.Unlock()
	e.logger.Infow("notification polling stopped", "dropped", e.Dropped())
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

// Reset forgets which events were already announced, so reminders still
// inside their window fire again on the next tick.
func (e *Engine) Reset() {
	e.notifier.Reset()
}

func (e *Engine) run() {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	if _, err := e.Tick(ctx); err != nil {
		e.logger.Warnw("notification tick failed", "error", err)
	}
}

// Tick performs one complete scan and returns what it delivered. An event
// is only recorded as announced once its notification is accepted by C; a
// full buffer counts a drop and leaves the event due for the next tick
// while it is still inside its window.
func (e *Engine) Tick(ctx context.Context) ([]notify.Notification, error) {
	events, err := e.source.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("scheduler: load events: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	due := e.notifier.Due(e.now(), events)
	if len(due) == 0 {
		return due, nil
	}
	if e.stopped {
		return nil, ErrEngineStopped
	}
	delivered := make([]notify.Notification, 0, len(due))
	for _, n := range due {
		select {
		case e.out <- n:
			e.notifier.Mark(n.EventID)
			delivered = append(delivered, n)
			e.logger.Debugw("notification emitted", "event_id", n.EventID)
		default:
			atomic.AddUint64(&e.dropped, 1)
			e.logger.Warnw("notification dropped", "event_id", n.EventID)
		}
	}
	return delivered, nil
}

type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
