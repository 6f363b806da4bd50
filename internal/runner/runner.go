package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-soundscape/internal/sequencer"
)

// Defaults for Options.
const (
	DefaultPollInterval = 5 * time.Millisecond
	DefaultQueueSize    = 16
	DefaultEventBuffer  = 64
	DefaultSinkTimeout  = 2 * time.Second

	// pollToDelayRatio is the minimum ratio of MinDelay to the poll interval
	// below which a timing warning is logged.
	pollToDelayRatio = 10
)

// Command runs on the loop goroutine with exclusive access to the scheduler.
type Command func(s *sequencer.Scheduler) error

// Sink receives scheduler events on the dispatch goroutine.
type Sink interface {
	HandleEvent(ctx context.Context, ev sequencer.Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev sequencer.Event) error

// HandleEvent implements Sink.
func (f SinkFunc) HandleEvent(ctx context.Context, ev sequencer.Event) error { return f(ctx, ev) }

// Logger is the subset of logging.Logger used by the runner.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures a Runner. Zero values select defaults.
type Options struct {
	PollInterval time.Duration
	QueueSize    int
	EventBuffer  int

	// SinkTimeout bounds each sink call.
	SinkTimeout time.Duration

	Sinks  []Sink
	Logger Logger
}

// Status is a point-in-time view of the scheduler, refreshed by the loop.
type Status struct {
	State       sequencer.State    `json:"state"`
	Settings    sequencer.Settings `json:"settings"`
	Initialized bool               `json:"initialized"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Stats holds loop counters.
type Stats struct {
	Polls            uint64 `json:"polls"`
	Commands         uint64 `json:"commands"`
	EventsDispatched uint64 `json:"events_dispatched"`
	EventsDropped    uint64 `json:"events_dropped"`
	SinkErrors       uint64 `json:"sink_errors"`
}

type request struct {
	cmd  Command
	done chan error
}

// Runner owns a Scheduler and serialises access to it.
//
// Thread Safety:
//   - Submit, Do, Status and Stats are safe for concurrent use.
//   - Run must be called once.
type Runner struct {
	sched  *sequencer.Scheduler
	opts   Options
	logger Logger

	requests chan request
	events   chan sequencer.Event

	// submitMu guards closing so that no request is queued after the
	// final drain. stopped is closed once every queued request has run.
	submitMu sync.RWMutex
	closing  bool
	stopped  chan struct{}
	stopOnce sync.Once

	status atomic.Pointer[Status]

	polls      atomic.Uint64
	commands   atomic.Uint64
	dispatched atomic.Uint64
	dropped    atomic.Uint64
	sinkErrors atomic.Uint64

	warnedDelay time.Duration
}

// New wraps sched. It installs the runner's event handler on sched,
// replacing any handler set before.
func New(sched *sequencer.Scheduler, opts Options) *Runner {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}
	if opts.SinkTimeout <= 0 {
		opts.SinkTimeout = DefaultSinkTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	r := &Runner{
		sched:    sched,
		opts:     opts,
		logger:   logger,
		requests: make(chan request, opts.QueueSize),
		events:   make(chan sequencer.Event, opts.EventBuffer),
		stopped:  make(chan struct{}),

		warnedDelay: -1,
	}
	sched.SetEventHandler(r.enqueue)
	r.refreshStatus()
	return r
}

// AddSink registers an extra event sink. It must be called before Run.
func (r *Runner) AddSink(sink Sink) {
	r.opts.Sinks = append(r.opts.Sinks, sink)
}

// Run polls the scheduler until ctx is cancelled, then applies queued
// commands, delivers the remaining buffered events to the sinks and
// returns. The scheduler must not be used directly after Run returns.
func (r *Runner) Run(ctx context.Context) error {
	defer r.shutdown()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.dispatch()
	}()

	r.checkPollInterval()
	r.logger.Info("scheduler loop started", "poll_interval", r.opts.PollInterval)

	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.shutdown()
			close(r.events)
			wg.Wait()
			r.logger.Info("scheduler loop stopped",
				"polls", r.polls.Load(), "events_dropped", r.dropped.Load())
			return nil

		case req := <-r.requests:
			r.apply(req)

		case <-ticker.C:
			r.sched.Update()
			r.polls.Add(1)
			r.refreshStatus()
		}
	}
}

// Submit queues cmd without waiting for it to run.
//
// Returns:
//   - error: ErrBusy if the queue is full, ErrStopped after Run returned
func (r *Runner) Submit(cmd Command) error {
	return r.submit(request{cmd: cmd})
}

// Do queues cmd and waits for its result.
//
// Returns:
//   - error: the command's error, ErrBusy, ErrStopped, or ctx.Err()
func (r *Runner) Do(ctx context.Context, cmd Command) error {
	req := request{cmd: cmd, done: make(chan error, 1)}
	if err := r.submit(req); err != nil {
		return err
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-r.stopped:
		// Every accepted request has run by the time stopped is closed.
		select {
		case err := <-req.done:
			return err
		default:
			return ErrStopped
		}
	}
}

func (r *Runner) submit(req request) error {
	r.submitMu.RLock()
	defer r.submitMu.RUnlock()
	if r.closing {
		return ErrStopped
	}

	select {
	case r.requests <- req:
		return nil
	default:
		return ErrBusy
	}
}

// Status returns the latest snapshot published by the loop.
func (r *Runner) Status() Status {
	return *r.status.Load()
}

// Stats returns the loop counters.
func (r *Runner) Stats() Stats {
	return Stats{
		Polls:            r.polls.Load(),
		Commands:         r.commands.Load(),
		EventsDispatched: r.dispatched.Load(),
		EventsDropped:    r.dropped.Load(),
		SinkErrors:       r.sinkErrors.Load(),
	}
}

func (r *Runner) apply(req request) {
	err := r.run(req.cmd)
	r.commands.Add(1)
	r.refreshStatus()
	r.checkPollInterval()
	if req.done != nil {
		req.done <- err
	}
}

func (r *Runner) run(cmd Command) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("scheduler command panic recovered", "panic", p)
			err = fmt.Errorf("runner: command panicked: %v", p)
		}
	}()
	return cmd(r.sched)
}

// shutdown refuses new requests, applies those already queued and then
// releases waiting callers. Safe to call more than once.
func (r *Runner) shutdown() {
	r.stopOnce.Do(func() {
		r.submitMu.Lock()
		r.closing = true
		r.submitMu.Unlock()

		r.drainRequests()
		close(r.stopped)
	})
}

// drainRequests applies commands queued before shutdown so that waiting
// callers get a result.
func (r *Runner) drainRequests() {
	for {
		select {
		case req := <-r.requests:
			r.apply(req)
		default:
			return
		}
	}
}

// enqueue is the scheduler's event handler. It runs on the loop goroutine
// and never blocks.
func (r *Runner) enqueue(ev sequencer.Event) {
	select {
	case r.events <- ev:
	default:
		if n := r.dropped.Add(1); n == 1 || n%100 == 0 {
			r.logger.Warn("event buffer full, dropping events", "kind", ev.Kind, "dropped", n)
		}
	}
}

func (r *Runner) dispatch() {
	for ev := range r.events {
		for _, sink := range r.opts.Sinks {
			r.deliver(sink, ev)
		}
		r.dispatched.Add(1)
	}
}

func (r *Runner) deliver(sink Sink, ev sequencer.Event) {
	defer func() {
		if p := recover(); p != nil {
			r.sinkErrors.Add(1)
			r.logger.Error("event sink panic recovered", "sink", fmt.Sprintf("%T", sink), "panic", p)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.opts.SinkTimeout)
	defer cancel()

	if err := sink.HandleEvent(ctx, ev); err != nil {
		r.sinkErrors.Add(1)
		r.logger.Warn("event sink failed",
			"sink", fmt.Sprintf("%T", sink), "kind", ev.Kind, "error", err)
	}
}

func (r *Runner) refreshStatus() {
	r.status.Store(&Status{
		State:       r.sched.Snapshot(),
		Settings:    r.sched.Settings(),
		Initialized: r.sched.IsInitialized(),
		UpdatedAt:   time.Now(),
	})
}

// checkPollInterval warns once per MinDelay value when polling is too
// coarse to honour the inter-sound delay.
func (r *Runner) checkPollInterval() {
	minDelay := r.sched.Settings().MinDelay
	if minDelay == r.warnedDelay {
		return
	}
	r.warnedDelay = minDelay
	if r.opts.PollInterval*pollToDelayRatio > minDelay {
		r.logger.Warn("poll interval is coarse relative to the minimum inter-sound delay",
			"poll_interval", r.opts.PollInterval, "min_delay", minDelay)
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
