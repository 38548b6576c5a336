package command

// InterruptionBehavior governs what happens when an incoming command needs a
// subsystem this command currently holds.
type InterruptionBehavior int

const (
	// CancelSelf ends the running command so the incoming one can start.
	CancelSelf InterruptionBehavior = iota
	// CancelIncoming keeps the running command and rejects the incoming one.
	CancelIncoming
)

// String returns the string representation of the behavior.
func (b InterruptionBehavior) String() string {
	switch b {
	case CancelSelf:
		return "cancel_self"
	case CancelIncoming:
		return "cancel_incoming"
	}
	return "unknown"
}

// ParseInterruptionBehavior converts the String form back into a behavior.
func ParseInterruptionBehavior(s string) (InterruptionBehavior, bool) {
	switch s {
	case "cancel_self", "":
		return CancelSelf, true
	case "cancel_incoming":
		return CancelIncoming, true
	}
	return CancelSelf, false
}

// MergeInterruptionBehavior combines the behaviors of a composite's children.
// Any CancelSelf child makes the composite CancelSelf; otherwise the result is
// CancelIncoming, which is also the result for no children.
func MergeInterruptionBehavior(behaviors ...InterruptionBehavior) InterruptionBehavior {
	for _, b := range behaviors {
		if b == CancelSelf {
			return CancelSelf
		}
	}
	return CancelIncoming
}

// mergeChildren folds requirements, interruption behavior, and the disabled
// flag of children into b.
func (b *Base) mergeChildren(children []Command) {
	behaviors := make([]InterruptionBehavior, 0, len(children))
	runsWhenDisabled := true
	for _, child := range children {
		b.requirements = b.requirements.Union(child.Requirements())
		behaviors = append(behaviors, child.InterruptionBehavior())
		runsWhenDisabled = runsWhenDisabled && child.RunsWhenDisabled()
	}
	b.behavior = MergeInterruptionBehavior(behaviors...)
	b.runsWhenDisabled = runsWhenDisabled
}
