// Package loop drives a CommandScheduler from a single goroutine at a fixed
// period and gives other goroutines a safe way to reach it.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/me/robocmd/internal/scheduler"
	"github.com/me/robocmd/pkg/model"
)

const tracerName = "github.com/me/robocmd/internal/loop"

var (
	// ErrMailboxFull is returned by Submit when the request queue is saturated.
	ErrMailboxFull = errors.New("loop: mailbox full")
	// ErrStopped is returned by Submit once Stop was called or the loop exited.
	ErrStopped = errors.New("loop: stopped")
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("loop: already started")
)

// Config holds loop configuration.
type Config struct {
	Period      time.Duration
	HaltOnFault bool
	MailboxSize int
}

// DefaultConfig returns the standard 50 Hz control loop settings.
func DefaultConfig() Config {
	return Config{
		Period:      20 * time.Millisecond,
		MailboxSize: 64,
	}
}

// CycleHook runs on the loop goroutine before or after the scheduler cycle.
type CycleHook func(ctx context.Context, sched *scheduler.CommandScheduler) error

// Request is a scheduler mutation executed on the loop goroutine.
type Request func(sched *scheduler.CommandScheduler) error

// Option configures a Loop.
type Option func(*Loop)

// WithTracer sets the tracer used for cycle spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(l *Loop) {
		l.tracer = tracer
	}
}

// WithBeforeCycle adds a hook that runs before mailbox requests are drained.
func WithBeforeCycle(h CycleHook) Option {
	return func(l *Loop) {
		l.before = append(l.before, h)
	}
}

// WithAfterCycle adds a hook that runs after the scheduler cycle.
func WithAfterCycle(h CycleHook) Option {
	return func(l *Loop) {
		l.after = append(l.after, h)
	}
}

// Loop implements Driver around a single CommandScheduler.
type Loop struct {
	sched   *scheduler.CommandScheduler
	config  Config
	logger  *slog.Logger
	tracer  trace.Tracer
	mailbox chan Request
	before  []CycleHook
	after   []CycleHook

	mu       sync.RWMutex
	snapshot model.SchedulerSnapshot
	faults   atomic.Uint64

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewLoop creates a loop around sched.
func NewLoop(sched *scheduler.CommandScheduler, cfg Config, logger *slog.Logger, opts ...Option) *Loop {
	if cfg.Period <= 0 {
		cfg.Period = DefaultConfig().Period
	}
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = DefaultConfig().MailboxSize
	}
	l := &Loop{
		sched:   sched,
		config:  cfg,
		logger:  logger.With("component", "loop"),
		mailbox: make(chan Request, cfg.MailboxSize),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.tracer == nil {
		l.tracer = otel.Tracer(tracerName)
	}
	l.snapshot = sched.Snapshot()
	return l
}

// Start runs Tick every period. Blocks until ctx is cancelled, Stop is
// called, or a fault occurs with HaltOnFault set. A loop runs at most once;
// Start returns immediately if Stop was already called.
func (l *Loop) Start(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer close(l.doneCh)

	select {
	case <-l.stopCh:
		return nil
	default:
	}

	l.logger.Info("loop started", "period", l.config.Period)
	ticker := time.NewTicker(l.config.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("loop stopping (context cancelled)")
			return ctx.Err()
		case <-l.stopCh:
			l.logger.Info("loop stopping (stop called)")
			return nil
		case <-ticker.C:
			if err := l.Tick(ctx); err != nil {
				l.logger.Error("tick error", "error", err)
				if l.config.HaltOnFault {
					return err
				}
			}
		}
	}
}

// Stop shuts down a started loop and waits for the current tick to finish.
// Stop on a loop that was never started returns immediately, and a later
// Start returns without ticking.
func (l *Loop) Stop() error {
	l.stopOnce.Do(func() { close(l.stopCh) })
	if !l.started.Load() {
		return nil
	}
	<-l.doneCh
	return nil
}

// RunCycles runs n ticks back to back. Faults are logged and counted; with
// HaltOnFault the first one is returned.
func (l *Loop) RunCycles(ctx context.Context, n int) error {
	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.Tick(ctx); err != nil {
			l.logger.Error("tick error", "error", err)
			if l.config.HaltOnFault {
				return err
			}
		}
	}
	return nil
}

// Tick runs a single cycle: before hooks, queued requests, the scheduler
// cycle, after hooks, then snapshot publication.
func (l *Loop) Tick(ctx context.Context) error {
	start := time.Now()
	ctx, span := l.tracer.Start(ctx, "robocmd.cycle")
	defer span.End()

	var errs []error
	for _, h := range l.before {
		if err := h(ctx, l.sched); err != nil {
			errs = append(errs, fmt.Errorf("before cycle: %w", err))
		}
	}

	errs = append(errs, l.drain()...)

	runErr := l.sched.Run(ctx)
	if runErr != nil {
		l.faults.Add(1)
		errs = append(errs, runErr)
		span.RecordError(runErr)
		span.SetStatus(codes.Error, "cycle fault")
	}

	for _, h := range l.after {
		if err := h(ctx, l.sched); err != nil {
			errs = append(errs, fmt.Errorf("after cycle: %w", err))
		}
	}

	snap := l.sched.Snapshot()
	l.mu.Lock()
	l.snapshot = snap
	l.mu.Unlock()

	span.SetAttributes(
		attribute.Int64("robocmd.cycle", int64(snap.Cycle)),
		attribute.Int("robocmd.scheduled", len(snap.Commands)),
		attribute.Bool("robocmd.disabled", snap.Disabled),
		attribute.Bool("robocmd.fault", runErr != nil),
	)

	if elapsed := time.Since(start); l.config.Period > 0 && elapsed > l.config.Period {
		l.logger.Warn("loop overrun", "cycle", snap.Cycle, "elapsed", elapsed, "period", l.config.Period)
	}
	return errors.Join(errs...)
}

// drain runs the requests queued when the cycle began. Requests submitted by
// those requests wait for the next tick.
func (l *Loop) drain() []error {
	var errs []error
	for range len(l.mailbox) {
		req := <-l.mailbox
		if err := l.apply(req); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (l *Loop) apply(req Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("request: panic recovered: %v", r)
		}
	}()
	if err := req(l.sched); err != nil {
		return fmt.Errorf("request: %w", err)
	}
	return nil
}

// Submit queues req for the loop goroutine. It never blocks.
func (l *Loop) Submit(req Request) error {
	select {
	case <-l.doneCh:
		return ErrStopped
	case <-l.stopCh:
		return ErrStopped
	default:
	}
	select {
	case l.mailbox <- req:
		return nil
	default:
		return ErrMailboxFull
	}
}

// Snapshot returns the scheduler state published by the last tick.
func (l *Loop) Snapshot() model.SchedulerSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot
}

// Faults returns how many cycles ended with a scheduler fault.
func (l *Loop) Faults() uint64 { return l.faults.Load() }

// Config returns the loop configuration.
func (l *Loop) Config() Config { return l.config }
