package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/me/robocmd/internal/scheduler"
	"github.com/me/robocmd/pkg/command"
	"github.com/me/robocmd/pkg/model"
)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithExecuteEvents records an EXECUTE entry for every Execute call.
func WithExecuteEvents(enabled bool) RecorderOption {
	return func(r *Recorder) {
		r.recordExecute = enabled
	}
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) RecorderOption {
	return func(r *Recorder) {
		r.sessionID = id
	}
}

// Recorder buffers lifecycle transitions reported by scheduler hooks and
// writes them to a Store in batches.
type Recorder struct {
	store         Store
	logger        *slog.Logger
	sessionID     string
	recordExecute bool
	now           func() time.Time

	mu      sync.Mutex
	sched   *scheduler.CommandScheduler
	pending []model.JournalEntry
	written int
}

// NewRecorder creates a recorder writing to st under a fresh session id.
func NewRecorder(st Store, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:     st,
		logger:    logger.With("component", "journal"),
		sessionID: "ses_" + uuid.New().String(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SessionID returns the id entries are recorded under.
func (r *Recorder) SessionID() string { return r.sessionID }

// Attach registers lifecycle hooks on sched.
func (r *Recorder) Attach(sched *scheduler.CommandScheduler) {
	r.mu.Lock()
	r.sched = sched
	r.mu.Unlock()

	sched.OnCommandInitialize(func(cmd command.Command) {
		r.record(cmd, model.LifecycleInitialize, nil)
	})
	if r.recordExecute {
		sched.OnCommandExecute(func(cmd command.Command) {
			r.record(cmd, model.LifecycleExecute, nil)
		})
	}
	sched.OnCommandFinish(func(cmd command.Command) {
		r.record(cmd, model.LifecycleFinish, nil)
	})
	sched.OnCommandInterruptCause(func(cmd, interruptor command.Command) {
		r.record(cmd, model.LifecycleInterrupt, interruptor)
	})
}

func (r *Recorder) record(cmd command.Command, kind model.LifecycleKind, interruptor command.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := model.JournalEntry{
		ID:         "jrn_" + uuid.New().String(),
		SessionID:  r.sessionID,
		Command:    cmd.Name(),
		Kind:       kind,
		RecordedAt: r.now(),
	}
	if r.sched != nil {
		entry.Cycle = r.sched.Cycle()
	}
	if interruptor != nil {
		entry.InterruptedBy = interruptor.Name()
	}
	r.pending = append(r.pending, entry)
}

// Pending returns the number of buffered entries.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Written returns the number of entries flushed so far.
func (r *Recorder) Written() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Flush writes buffered entries in one batch. On error the batch stays
// buffered for the next attempt.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	batch := r.pending
	r.pending = nil
	r.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := r.store.Append(ctx, batch); err != nil {
		r.mu.Lock()
		r.pending = append(batch, r.pending...)
		r.mu.Unlock()
		return fmt.Errorf("flush journal: %w", err)
	}

	r.mu.Lock()
	r.written += len(batch)
	r.mu.Unlock()
	r.logger.Debug("journal flushed", "session_id", r.sessionID, "entries", len(batch))
	return nil
}

// AfterCycle flushes the buffer. Its signature matches loop.CycleHook.
func (r *Recorder) AfterCycle(ctx context.Context, _ *scheduler.CommandScheduler) error {
	return r.Flush(ctx)
}
