package command_test

import (
	"testing"
	"time"

	"github.com/me/robocmd/pkg/command"
	"github.com/me/robocmd/pkg/command/commandtest"
)

func TestRequirements_DedupesAndSkipsNil(t *testing.T) {
	arm := commandtest.NewSubsystem("arm")
	drive := commandtest.NewSubsystem("drive")

	reqs := command.NewRequirements(arm, nil, drive, arm)
	if reqs.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reqs.Len())
	}
	if got := reqs.String(); got != "[arm, drive]" {
		t.Errorf("String() = %q, want [arm, drive]", got)
	}

	var empty command.Requirements
	if empty.Intersects(reqs) || reqs.Intersects(empty) {
		t.Error("empty set should not intersect")
	}
	if !reqs.Intersects(command.NewRequirements(drive)) {
		t.Error("expected intersection on drive")
	}
}

func TestParseInterruptionBehavior(t *testing.T) {
	tests := []struct {
		input string
		want  command.InterruptionBehavior
		ok    bool
	}{
		{"cancel_self", command.CancelSelf, true},
		{"", command.CancelSelf, true},
		{"cancel_incoming", command.CancelIncoming, true},
		{"bogus", command.CancelSelf, false},
	}
	for _, tt := range tests {
		got, ok := command.ParseInterruptionBehavior(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseInterruptionBehavior(%q) = %v,%v, want %v,%v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestWait_FinishesAfterDuration(t *testing.T) {
	clock := command.NewManualClock(time.Unix(100, 0))
	wait := command.NewWait(2*time.Second, clock)

	wait.Initialize()
	if wait.IsFinished() {
		t.Fatal("wait finished before any time passed")
	}
	clock.Advance(1999 * time.Millisecond)
	if wait.IsFinished() {
		t.Fatal("wait finished early")
	}
	clock.Advance(time.Millisecond)
	if !wait.IsFinished() {
		t.Fatal("wait should finish once the duration elapsed")
	}
	if !wait.RunsWhenDisabled() {
		t.Error("wait should run when disabled")
	}
}

func TestFunctional_NilCallbacks(t *testing.T) {
	cmd := command.NewFunctional(nil, nil, nil, nil)
	cmd.Initialize()
	cmd.Execute()
	cmd.End(true)
	if cmd.IsFinished() {
		t.Error("nil isFinished should never finish")
	}
}

func TestStartEnd_CallsBothEnds(t *testing.T) {
	started, ended := 0, 0
	cmd := command.StartEnd(func() { started++ }, func() { ended++ })

	cmd.Initialize()
	cmd.Execute()
	cmd.End(true)

	if started != 1 || ended != 1 {
		t.Errorf("start/end = %d/%d, want 1/1", started, ended)
	}
}

func TestDecorators_OverrideAttributes(t *testing.T) {
	arm := commandtest.NewSubsystem("arm")
	inner := commandtest.NewMock("inner", arm)

	named := command.WithName(command.IgnoringDisable(
		command.WithInterruptBehavior(inner, command.CancelIncoming), true), "renamed")

	if named.Name() != "renamed" {
		t.Errorf("Name() = %q, want renamed", named.Name())
	}
	if named.InterruptionBehavior() != command.CancelIncoming {
		t.Errorf("behavior = %s, want cancel_incoming", named.InterruptionBehavior())
	}
	if !named.RunsWhenDisabled() {
		t.Error("expected runs when disabled")
	}
	if !named.Requirements().Contains(arm) {
		t.Error("wrapped command lost its requirements")
	}
	if !command.IsComposed(inner) {
		t.Error("wrapped command should be marked composed")
	}
}

func TestFinallyDo_RunsAfterEnd(t *testing.T) {
	inner := commandtest.NewMock("inner")
	var got []bool
	cmd := command.FinallyDo(inner, func(interrupted bool) {
		if inner.Ended() != 1 {
			t.Errorf("finally ran before inner End")
		}
		got = append(got, interrupted)
	})

	cmd.Initialize()
	cmd.End(true)
	if len(got) != 1 || !got[0] {
		t.Errorf("finally calls = %v, want [true]", got)
	}
}

func TestHandleInterrupt_SkipsNaturalEnd(t *testing.T) {
	calls := 0
	inner := commandtest.NewMock("inner")
	cmd := command.HandleInterrupt(inner, func() { calls++ })

	cmd.Initialize()
	cmd.End(false)
	if calls != 0 {
		t.Errorf("interrupt handler ran on natural end")
	}
}

func TestWithTimeout_InterruptsInner(t *testing.T) {
	clock := command.NewManualClock(time.Unix(0, 0))
	inner := commandtest.NewMock("slow")
	cmd := command.WithTimeout(inner, time.Second, clock)

	cmd.Initialize()
	cmd.Execute()
	clock.Advance(time.Second)
	cmd.Execute()
	if !cmd.IsFinished() {
		t.Fatal("timeout should finish the composite")
	}
	cmd.End(false)
	if inner.EndedInterrupted != 1 {
		t.Errorf("inner interrupted %d times, want 1", inner.EndedInterrupted)
	}
}

func TestUntil_StopsOnCondition(t *testing.T) {
	stop := false
	inner := commandtest.NewMock("inner")
	cmd := command.Until(inner, func() bool { return stop })

	cmd.Initialize()
	cmd.Execute()
	if cmd.IsFinished() {
		t.Fatal("finished before condition")
	}
	stop = true
	cmd.Execute()
	if !cmd.IsFinished() {
		t.Fatal("should finish once condition holds")
	}
}
