package model

import "testing"

func TestLifecycleKind_IsTerminal(t *testing.T) {
	tests := []struct {
		kind     LifecycleKind
		terminal bool
	}{
		{LifecycleInitialize, false},
		{LifecycleExecute, false},
		{LifecycleFinish, true},
		{LifecycleInterrupt, true},
	}
	for _, tt := range tests {
		if got := tt.kind.IsTerminal(); got != tt.terminal {
			t.Errorf("LifecycleKind(%q).IsTerminal() = %v, want %v", tt.kind, got, tt.terminal)
		}
	}
}

func TestLifecycleKind_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from  LifecycleKind
		to    LifecycleKind
		valid bool
	}{
		// Valid transitions
		{LifecycleInitialize, LifecycleExecute, true},
		{LifecycleInitialize, LifecycleInterrupt, true},
		{LifecycleExecute, LifecycleExecute, true},
		{LifecycleExecute, LifecycleFinish, true},
		{LifecycleExecute, LifecycleInterrupt, true},
		{LifecycleFinish, LifecycleInitialize, true},
		{LifecycleInterrupt, LifecycleInitialize, true},

		// Invalid transitions
		{LifecycleInitialize, LifecycleInitialize, false},
		{LifecycleFinish, LifecycleExecute, false},
		{LifecycleInterrupt, LifecycleFinish, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.valid {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestLifecycleKind_IsValid(t *testing.T) {
	if !LifecycleExecute.IsValid() {
		t.Error("EXECUTE should be valid")
	}
	if LifecycleKind("RUNNING").IsValid() {
		t.Error("RUNNING should not be valid")
	}
}
