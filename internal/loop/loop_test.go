package loop

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"

	"github.com/me/robocmd/internal/scheduler"
	"github.com/me/robocmd/pkg/command"
	"github.com/me/robocmd/pkg/command/commandtest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testSetup creates a scheduler and a loop around it with a discarding logger.
func testSetup(t *testing.T, cfg Config, opts ...Option) (*Loop, *scheduler.CommandScheduler) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := scheduler.New(scheduler.WithLogger(logger))
	t.Cleanup(func() { _ = sched.Close() })
	return NewLoop(sched, cfg, logger, opts...), sched
}

func TestTick_PublishesSnapshot(t *testing.T) {
	l, sched := testSetup(t, DefaultConfig())
	cmd := commandtest.NewMock("drive")
	if err := sched.Schedule(cmd); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if got := l.Snapshot().Cycle; got != 0 {
		t.Fatalf("initial cycle = %d, want 0", got)
	}
	if err := l.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	snap := l.Snapshot()
	if snap.Cycle != 1 || !snap.IsScheduled("drive") {
		t.Errorf("snapshot = %+v, want cycle 1 with drive scheduled", snap)
	}
	if cmd.Executed != 1 {
		t.Errorf("executed %d times, want 1", cmd.Executed)
	}
}

func TestSubmit_AppliedOnNextTick(t *testing.T) {
	l, sched := testSetup(t, DefaultConfig())
	cmd := commandtest.NewMock("queued")

	if err := l.Submit(func(s *scheduler.CommandScheduler) error { return s.Schedule(cmd) }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sched.IsScheduled(cmd) {
		t.Fatal("request applied before tick")
	}
	if err := l.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if cmd.Initialized != 1 || cmd.Executed != 1 {
		t.Errorf("init/exec = %d/%d, want 1/1", cmd.Initialized, cmd.Executed)
	}
}

func TestSubmit_MailboxFull(t *testing.T) {
	l, _ := testSetup(t, Config{MailboxSize: 1})
	noop := func(*scheduler.CommandScheduler) error { return nil }

	if err := l.Submit(noop); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if err := l.Submit(noop); !errors.Is(err, ErrMailboxFull) {
		t.Errorf("second Submit = %v, want ErrMailboxFull", err)
	}
}

func TestTick_RequestErrorsAreReturned(t *testing.T) {
	l, _ := testSetup(t, DefaultConfig())
	errBad := errors.New("bad request")
	_ = l.Submit(func(*scheduler.CommandScheduler) error { return errBad })
	_ = l.Submit(func(*scheduler.CommandScheduler) error { panic("boom") })

	err := l.Tick(context.Background())
	if !errors.Is(err, errBad) {
		t.Errorf("Tick error = %v, want errBad", err)
	}
	if l.Snapshot().Cycle != 1 {
		t.Error("scheduler cycle should still run")
	}
}

func TestTick_HookOrder(t *testing.T) {
	var order []string
	record := func(name string) CycleHook {
		return func(context.Context, *scheduler.CommandScheduler) error {
			order = append(order, name)
			return nil
		}
	}
	l, sched := testSetup(t, DefaultConfig(), WithBeforeCycle(record("before")), WithAfterCycle(record("after")))
	if err := sched.Schedule(command.Run(func() { order = append(order, "execute") })); err != nil {
		t.Fatal(err)
	}
	_ = l.Submit(func(*scheduler.CommandScheduler) error {
		order = append(order, "request")
		return nil
	})

	if err := l.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	want := []string{"before", "request", "execute", "after"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestRunCycles_FaultHandling(t *testing.T) {
	tests := []struct {
		name       string
		halt       bool
		wantErr    bool
		wantCycles uint64
	}{
		{"Continue", false, false, 5},
		{"Halt", true, true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, sched := testSetup(t, Config{HaltOnFault: tt.halt})
			calls := 0
			faulty := commandtest.NewMock("faulty")
			faulty.OnExecute = func() {
				calls++
				if calls == 2 {
					panic("motor stalled")
				}
			}
			if err := sched.Schedule(faulty); err != nil {
				t.Fatal(err)
			}

			err := l.RunCycles(context.Background(), 5)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RunCycles error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, scheduler.ErrCommandFault) {
				t.Errorf("error = %v, want command fault", err)
			}
			if got := l.Snapshot().Cycle; got != tt.wantCycles {
				t.Errorf("cycles = %d, want %d", got, tt.wantCycles)
			}
			if l.Faults() != 1 {
				t.Errorf("Faults() = %d, want 1", l.Faults())
			}
		})
	}
}

func TestTick_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	l, sched := testSetup(t, DefaultConfig(), WithTracer(provider.Tracer("test")))
	if err := sched.Schedule(commandtest.NewMock("a")); err != nil {
		t.Fatal(err)
	}
	if err := l.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "robocmd.cycle" {
		t.Fatalf("spans = %v, want one robocmd.cycle span", spans)
	}
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if attrs["robocmd.cycle"].AsInt64() != 1 || attrs["robocmd.scheduled"].AsInt64() != 1 {
		t.Errorf("span attributes = %v", spans[0].Attributes())
	}
}

func TestStartStop(t *testing.T) {
	l, _ := testSetup(t, Config{Period: time.Millisecond})

	errCh := make(chan error, 1)
	go func() { errCh <- l.Start(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for l.Snapshot().Cycle < 3 {
		if time.Now().After(deadline) {
			t.Fatal("loop did not advance")
		}
		time.Sleep(time.Millisecond)
	}

	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Errorf("Start returned %v, want nil", err)
	}
	if err := l.Submit(func(*scheduler.CommandScheduler) error { return nil }); !errors.Is(err, ErrStopped) {
		t.Errorf("Submit after stop = %v, want ErrStopped", err)
	}
}

func TestStart_ContextCancel(t *testing.T) {
	l, _ := testSetup(t, Config{Period: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- l.Start(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Start returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestStop_NotStarted(t *testing.T) {
	l, _ := testSetup(t, DefaultConfig())
	if err := l.Stop(); err != nil {
		t.Errorf("Stop on idle loop = %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- l.Start(context.Background()) }()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start after Stop = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start after Stop should return without ticking")
	}
	if got := l.Snapshot().Cycle; got != 0 {
		t.Errorf("cycle = %d, want 0", got)
	}
}

func TestStart_Twice(t *testing.T) {
	l, _ := testSetup(t, Config{Period: time.Millisecond})

	errCh := make(chan error, 1)
	go func() { errCh <- l.Start(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for l.Snapshot().Cycle < 1 {
		if time.Now().After(deadline) {
			t.Fatal("loop did not advance")
		}
		time.Sleep(time.Millisecond)
	}

	if err := l.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Errorf("Start returned %v, want nil", err)
	}
}
