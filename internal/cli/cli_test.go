package cli

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/me/robocmd/internal/config"
	"github.com/me/robocmd/internal/loop"
	"github.com/me/robocmd/internal/robot"
	"github.com/me/robocmd/internal/scheduler"
	"github.com/me/robocmd/internal/server"
	"github.com/me/robocmd/pkg/command/commandtest"
)

func exampleScenario() string {
	return filepath.Join("..", "scenario", "testdata", "intake.yaml")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

// startDashboard serves a dashboard over a loop that is ticked by the test.
func startDashboard(t *testing.T) (string, *loop.Loop, *scheduler.CommandScheduler) {
	t.Helper()
	srvLogger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	state := robot.NewState(true, srvLogger)
	sched := scheduler.New(scheduler.WithLogger(srvLogger), scheduler.WithDisabledSource(state.Disabled))
	t.Cleanup(func() { _ = sched.Close() })
	l := loop.NewLoop(sched, loop.DefaultConfig(), srvLogger)

	ts := httptest.NewServer(server.New(config.DefaultServerConfig(), l, state, srvLogger).Handler())
	t.Cleanup(ts.Close)
	return ts.URL, l, sched
}

func TestValidateCommand(t *testing.T) {
	output, err := runCLI(t, "validate", exampleScenario())
	if err != nil {
		t.Fatalf("validate error: %v\noutput: %s", err, output)
	}
	for _, want := range []string{": valid", "Scenario:   intake-demo", "Subsystems: 3"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestValidateCommand_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	src := "name: bad\ncommands:\n  a: {kind: teleport}\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := runCLI(t, "validate", path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(output, "commands.a.kind") {
		t.Errorf("expected field detail in output, got: %s", output)
	}
}

func TestSimCommand_WithJournal(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")

	output, err := runCLI(t, "sim", exampleScenario(), "--journal", db, "--cycles", "40")
	if err != nil {
		t.Fatalf("sim error: %v\noutput: %s", err, output)
	}
	for _, want := range []string{"Scenario: intake-demo", "Faults:   0", "Journal:", "Cycle: 40"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}

	output, err = runCLI(t, "journal", "sessions", "--db", db)
	if err != nil {
		t.Fatalf("journal sessions error: %v", err)
	}
	if !strings.Contains(output, "ses_") {
		t.Errorf("expected a ses_ session in output, got: %s", output)
	}

	output, err = runCLI(t, "journal", "list", "--db", db, "--kind", "interrupt")
	if err != nil {
		t.Fatalf("journal list error: %v", err)
	}
	if !strings.Contains(output, "climb-lock") {
		t.Errorf("expected climb-lock interrupt in output, got: %s", output)
	}
	if strings.Contains(output, "FINISH") {
		t.Errorf("kind filter leaked other entries: %s", output)
	}
}

func TestSimCommand_RequiresScenario(t *testing.T) {
	if _, err := runCLI(t, "sim"); err == nil {
		t.Fatal("expected error without a scenario")
	}
}

func TestJournalCommand_RequiresDB(t *testing.T) {
	if _, err := runCLI(t, "journal", "sessions"); err == nil {
		t.Fatal("expected error without --db")
	}
}

func TestStatusCommand(t *testing.T) {
	url, l, sched := startDashboard(t)
	arm := commandtest.NewSubsystem("arm")
	if err := sched.RegisterSubsystem(arm); err != nil {
		t.Fatalf("RegisterSubsystem: %v", err)
	}
	if err := sched.Schedule(commandtest.NewMock("hold", arm)); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := l.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	output, err := runCLI(t, "--server", url, "status")
	if err != nil {
		t.Fatalf("status error: %v", err)
	}
	for _, want := range []string{"Cycle: 1 (enabled)", "hold", "arm: hold"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestCancelCommand(t *testing.T) {
	url, l, sched := startDashboard(t)
	hold := commandtest.NewMock("hold")
	if err := sched.Schedule(hold); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := l.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	output, err := runCLI(t, "--server", url, "cancel", "hold")
	if err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if !strings.Contains(output, "Queued cancel hold after cycle 1") {
		t.Errorf("unexpected output: %s", output)
	}
	if err := l.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if sched.IsScheduled(hold) {
		t.Error("hold should be cancelled")
	}

	if _, err := runCLI(t, "--server", url, "cancel", "ghost"); err == nil {
		t.Error("expected not found error for ghost")
	}
	if _, err := runCLI(t, "--server", url, "cancel"); err == nil {
		t.Error("expected error without a name or --all")
	}
}

func TestModeCommand(t *testing.T) {
	url, l, _ := startDashboard(t)

	output, err := runCLI(t, "--server", url, "mode", "disable")
	if err != nil {
		t.Fatalf("mode error: %v", err)
	}
	if !strings.Contains(output, "Queued disable") {
		t.Errorf("unexpected output: %s", output)
	}
	if err := l.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !l.Snapshot().Disabled {
		t.Error("snapshot should be disabled")
	}

	if _, err := runCLI(t, "--server", url, "mode", "sideways"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestRootCmd_InvalidLogLevel(t *testing.T) {
	if _, err := runCLI(t, "--log-level", "loud", "validate", exampleScenario()); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}
