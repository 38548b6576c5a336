package command

import "time"

// Wrapper forwards every lifecycle call to an inner command while allowing
// its name, interruption behavior, and disabled flag to be overridden. It is
// the building block for the decorator functions below.
type Wrapper struct {
	Base
	inner Command
	onEnd func(interrupted bool)
}

func wrap(c Command) *Wrapper {
	claim("Wrap", c)
	w := &Wrapper{inner: c}
	w.SetName(c.Name())
	w.AddRequirements(c.Requirements().Slice()...)
	w.SetInterruptionBehavior(c.InterruptionBehavior())
	w.SetRunsWhenDisabled(c.RunsWhenDisabled())
	return w
}

// Inner returns the wrapped command.
func (w *Wrapper) Inner() Command { return w.inner }

func (w *Wrapper) Initialize()      { w.inner.Initialize() }
func (w *Wrapper) Execute()         { w.inner.Execute() }
func (w *Wrapper) IsFinished() bool { return w.inner.IsFinished() }

func (w *Wrapper) End(interrupted bool) {
	w.inner.End(interrupted)
	if w.onEnd != nil {
		w.onEnd(interrupted)
	}
}

// WithInterruptBehavior overrides how c reacts to conflicting commands.
func WithInterruptBehavior(c Command, behavior InterruptionBehavior) Command {
	w := wrap(c)
	w.SetInterruptionBehavior(behavior)
	return w
}

// IgnoringDisable overrides whether c runs while disabled.
func IgnoringDisable(c Command, run bool) Command {
	w := wrap(c)
	w.SetRunsWhenDisabled(run)
	return w
}

// WithName overrides the name reported by c.
func WithName(c Command, name string) Command {
	w := wrap(c)
	w.SetName(name)
	return w
}

// FinallyDo calls fn with the interrupted flag after c ends.
func FinallyDo(c Command, fn func(interrupted bool)) Command {
	w := wrap(c)
	w.onEnd = fn
	return w
}

// HandleInterrupt calls fn after c ends only when c was interrupted.
func HandleInterrupt(c Command, fn func()) Command {
	return FinallyDo(c, func(interrupted bool) {
		if interrupted && fn != nil {
			fn()
		}
	})
}

// WithTimeout interrupts c once d has elapsed on clock (nil: system clock).
func WithTimeout(c Command, d time.Duration, clock Clock) Command {
	return Race(c, NewWait(d, clock))
}

// Until interrupts c on the first cycle cond returns true.
func Until(c Command, cond func() bool) Command {
	return Race(c, WaitUntil(cond))
}

// OnlyWhile interrupts c on the first cycle cond returns false.
func OnlyWhile(c Command, cond func() bool) Command {
	return Until(c, func() bool { return !cond() })
}

// AndThen runs next after c finishes.
func AndThen(c Command, next ...Command) Command {
	return Sequence(append([]Command{c}, next...)...)
}

// BeforeStarting runs before, then c.
func BeforeStarting(c Command, before Command) Command {
	return Sequence(before, c)
}

// AlongWith runs others alongside c and finishes when all are done.
func AlongWith(c Command, others ...Command) Command {
	return Parallel(append([]Command{c}, others...)...)
}

// RaceWith runs others alongside c and finishes when any is done.
func RaceWith(c Command, others ...Command) Command {
	return Race(append([]Command{c}, others...)...)
}

// DeadlineFor runs others alongside c and finishes when c is done.
func DeadlineFor(c Command, others ...Command) Command {
	return Deadline(c, others...)
}
