package command_test

import (
	"slices"
	"testing"

	"github.com/me/robocmd/pkg/command"
	"github.com/me/robocmd/pkg/command/commandtest"
)

// TestEither_RunsOnlySelectedBranch verifies that the unselected branch never
// receives a lifecycle call.
func TestEither_RunsOnlySelectedBranch(t *testing.T) {
	onTrue := commandtest.NewMock("on-true")
	onTrue.Finished = true
	onFalse := commandtest.NewMock("on-false")

	cond := command.Either(onTrue, onFalse, func() bool { return true })

	cond.Initialize()
	cond.Execute()
	if !cond.IsFinished() {
		t.Fatal("conditional should finish with its selected branch")
	}
	cond.End(false)

	if onTrue.Initialized != 1 || onTrue.Executed != 1 || onTrue.EndedNormally != 1 {
		t.Errorf("on-true lifecycle = init %d exec %d end %d, want 1/1/1",
			onTrue.Initialized, onTrue.Executed, onTrue.EndedNormally)
	}
	if onFalse.Initialized+onFalse.Executed+onFalse.Ended() != 0 {
		t.Errorf("on-false received lifecycle calls: %+v", onFalse)
	}
	if cond.Selected() != nil {
		t.Error("selection should be cleared after End")
	}
}

// TestEither_SelectorEvaluatedPerEpisode verifies the selector runs at each
// initialize, not at construction.
func TestEither_SelectorEvaluatedPerEpisode(t *testing.T) {
	calls := 0
	pick := true
	onTrue := commandtest.NewMock("a")
	onFalse := commandtest.NewMock("b")
	cond := command.Either(onTrue, onFalse, func() bool {
		calls++
		return pick
	})
	if calls != 0 {
		t.Fatalf("selector evaluated at construction: %d calls", calls)
	}

	cond.Initialize()
	cond.End(true)
	pick = false
	cond.Initialize()
	cond.End(true)

	if calls != 2 {
		t.Errorf("selector calls = %d, want 2", calls)
	}
	if onTrue.EndedInterrupted != 1 || onFalse.EndedInterrupted != 1 {
		t.Errorf("interrupted ends = %d/%d, want 1/1", onTrue.EndedInterrupted, onFalse.EndedInterrupted)
	}
}

func TestEither_RequirementsAreUnion(t *testing.T) {
	x := commandtest.NewSubsystem("x")
	y := commandtest.NewSubsystem("y")
	z := commandtest.NewSubsystem("z")

	cond := command.Either(
		commandtest.NewMock("a", x, y),
		commandtest.NewMock("b", z),
		func() bool { return true },
	)

	reqs := cond.Requirements()
	if reqs.Len() != 3 {
		t.Fatalf("requirements = %s, want 3 subsystems", reqs)
	}
	for _, sub := range []command.Subsystem{x, y, z} {
		if !reqs.Contains(sub) {
			t.Errorf("requirements %s missing %s", reqs, sub.Name())
		}
	}
}

func TestEither_InterruptionBehavior(t *testing.T) {
	tests := []struct {
		name   string
		first  command.InterruptionBehavior
		second command.InterruptionBehavior
		want   command.InterruptionBehavior
	}{
		{"AllCancelSelf", command.CancelSelf, command.CancelSelf, command.CancelSelf},
		{"AllCancelIncoming", command.CancelIncoming, command.CancelIncoming, command.CancelIncoming},
		{"OneCancelSelfOneIncoming", command.CancelSelf, command.CancelIncoming, command.CancelSelf},
		{"OneCancelIncomingOneSelf", command.CancelIncoming, command.CancelSelf, command.CancelSelf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := command.WithInterruptBehavior(command.WaitUntil(func() bool { return false }), tt.first)
			second := command.WithInterruptBehavior(command.WaitUntil(func() bool { return false }), tt.second)

			cond := command.Either(first, second, func() bool { return true })
			if got := cond.InterruptionBehavior(); got != tt.want {
				t.Errorf("InterruptionBehavior() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEither_RunsWhenDisabled(t *testing.T) {
	tests := []struct {
		name   string
		first  bool
		second bool
		want   bool
	}{
		{"AllFalse", false, false, false},
		{"AllTrue", true, true, true},
		{"OneTrueOneFalse", true, false, false},
		{"OneFalseOneTrue", false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := command.IgnoringDisable(command.WaitUntil(func() bool { return false }), tt.first)
			second := command.IgnoringDisable(command.WaitUntil(func() bool { return false }), tt.second)

			cond := command.Either(first, second, func() bool { return true })
			if got := cond.RunsWhenDisabled(); got != tt.want {
				t.Errorf("RunsWhenDisabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEither_ReusedBranchPanics(t *testing.T) {
	shared := commandtest.NewMock("shared")
	command.Either(shared, commandtest.NewMock("other"), func() bool { return true })

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when composing an already composed command")
		}
	}()
	command.Either(shared, commandtest.NewMock("third"), func() bool { return true })
}

func TestSelect_UnknownKeyFinishesImmediately(t *testing.T) {
	a := commandtest.NewMock("a")
	b := commandtest.NewMock("b")
	key := "missing"
	sel := command.Select(map[string]command.Command{"a": a, "b": b}, func() string { return key })

	sel.Initialize()
	sel.Execute()
	if !sel.IsFinished() {
		t.Fatal("unknown key should finish immediately")
	}
	sel.End(false)
	if a.Initialized+b.Initialized != 0 {
		t.Errorf("no branch should run for an unknown key")
	}

	key = "b"
	sel.Initialize()
	if b.Initialized != 1 {
		t.Errorf("b initialized %d times, want 1", b.Initialized)
	}
}

func TestSelect_RequirementsInKeyOrder(t *testing.T) {
	want := []string{"arm", "drive", "intake", "wrist"}
	for range 20 {
		sel := command.Select(map[string]command.Command{
			"d": commandtest.NewMock("d", commandtest.NewSubsystem("wrist")),
			"b": commandtest.NewMock("b", commandtest.NewSubsystem("drive")),
			"a": commandtest.NewMock("a", commandtest.NewSubsystem("arm")),
			"c": commandtest.NewMock("c", commandtest.NewSubsystem("intake")),
		}, func() string { return "a" })
		if got := sel.Requirements().Names(); !slices.Equal(got, want) {
			t.Fatalf("requirements = %v, want %v", got, want)
		}
	}
}
