package command

import (
	"fmt"
	"strings"
)

// SequentialGroup runs its commands one after another. It finishes when the
// last command finishes, and holds the union of all requirements the whole
// time it is scheduled.
type SequentialGroup struct {
	Base
	commands []Command
	index    int
}

// Sequence creates a SequentialGroup. Children may not be reused in another
// composition.
func Sequence(commands ...Command) *SequentialGroup {
	claim("Sequence", commands...)
	group := &SequentialGroup{commands: commands, index: -1}
	group.SetName("Sequence" + childNames(commands))
	group.mergeChildren(commands)
	return group
}

func (g *SequentialGroup) Initialize() {
	g.index = 0
	if len(g.commands) > 0 {
		g.commands[0].Initialize()
	}
}

func (g *SequentialGroup) Execute() {
	if g.index < 0 || g.index >= len(g.commands) {
		return
	}
	current := g.commands[g.index]
	current.Execute()
	if !current.IsFinished() {
		return
	}
	current.End(false)
	g.index++
	if g.index < len(g.commands) {
		g.commands[g.index].Initialize()
	}
}

func (g *SequentialGroup) End(interrupted bool) {
	if interrupted && g.index >= 0 && g.index < len(g.commands) {
		g.commands[g.index].End(true)
	}
	g.index = -1
}

func (g *SequentialGroup) IsFinished() bool {
	return g.index == len(g.commands)
}

// Current returns the index of the running child, or -1 outside an episode.
func (g *SequentialGroup) Current() int {
	return g.index
}

// ParallelPolicy decides when a ParallelGroup finishes.
type ParallelPolicy int

const (
	// AllFinish waits for every child.
	AllFinish ParallelPolicy = iota
	// FirstFinish stops as soon as any child finishes.
	FirstFinish
	// DeadlineFinish stops when the first child (the deadline) finishes.
	DeadlineFinish
)

// String returns the string representation of the policy.
func (p ParallelPolicy) String() string {
	switch p {
	case AllFinish:
		return "all"
	case FirstFinish:
		return "race"
	case DeadlineFinish:
		return "deadline"
	}
	return "unknown"
}

// ParallelGroup runs its commands at the same time. Children must have
// disjoint requirements.
type ParallelGroup struct {
	Base
	commands []Command
	running  []bool
	policy   ParallelPolicy
	finished bool
}

// Parallel finishes when every child has finished.
func Parallel(commands ...Command) *ParallelGroup {
	return newParallel("Parallel", AllFinish, commands)
}

// Race finishes when any child finishes; the others are interrupted.
func Race(commands ...Command) *ParallelGroup {
	return newParallel("Race", FirstFinish, commands)
}

// Deadline finishes when deadline finishes; others still running are
// interrupted. Others that finish early simply stop.
func Deadline(deadline Command, others ...Command) *ParallelGroup {
	return newParallel("Deadline", DeadlineFinish, append([]Command{deadline}, others...))
}

func newParallel(kind string, policy ParallelPolicy, commands []Command) *ParallelGroup {
	if policy == DeadlineFinish && (len(commands) == 0 || commands[0] == nil) {
		panic("command: Deadline: nil deadline")
	}
	claim(kind, commands...)

	var seen Requirements
	for _, child := range commands {
		if seen.Intersects(child.Requirements()) {
			panic(fmt.Sprintf("command: %s: %s shares requirements with another child", kind, child.Name()))
		}
		seen = seen.Union(child.Requirements())
	}

	group := &ParallelGroup{
		commands: commands,
		running:  make([]bool, len(commands)),
		policy:   policy,
	}
	group.SetName(kind + childNames(commands))
	group.mergeChildren(commands)
	return group
}

func (g *ParallelGroup) Initialize() {
	g.finished = false
	for idx, child := range g.commands {
		child.Initialize()
		g.running[idx] = true
	}
}

func (g *ParallelGroup) Execute() {
	for idx, child := range g.commands {
		if !g.running[idx] {
			continue
		}
		child.Execute()
		if !child.IsFinished() {
			continue
		}
		switch g.policy {
		case FirstFinish:
			g.finished = true
		case DeadlineFinish:
			child.End(false)
			g.running[idx] = false
			if idx == 0 {
				g.finished = true
			}
		default:
			child.End(false)
			g.running[idx] = false
		}
	}
}

func (g *ParallelGroup) End(interrupted bool) {
	for idx, child := range g.commands {
		if !g.running[idx] {
			continue
		}
		switch g.policy {
		case FirstFinish:
			child.End(!child.IsFinished())
		default:
			if interrupted || g.policy == DeadlineFinish {
				child.End(true)
			}
		}
		g.running[idx] = false
	}
}

func (g *ParallelGroup) IsFinished() bool {
	if g.policy != AllFinish {
		return g.finished
	}
	for _, running := range g.running {
		if running {
			return false
		}
	}
	return true
}

// Policy returns the group's finish policy.
func (g *ParallelGroup) Policy() ParallelPolicy {
	return g.policy
}

// RepeatCommand restarts its child every time the child finishes. It never
// finishes on its own.
type RepeatCommand struct {
	Base
	command Command
	ended   bool
}

// Repeatedly wraps c so it restarts whenever it finishes.
func Repeatedly(c Command) *RepeatCommand {
	claim("Repeatedly", c)
	cmd := &RepeatCommand{command: c}
	cmd.SetName("Repeat(" + c.Name() + ")")
	cmd.AddRequirements(c.Requirements().Slice()...)
	cmd.SetInterruptionBehavior(c.InterruptionBehavior())
	cmd.SetRunsWhenDisabled(c.RunsWhenDisabled())
	return cmd
}

func (c *RepeatCommand) Initialize() {
	c.ended = false
	c.command.Initialize()
}

func (c *RepeatCommand) Execute() {
	if c.ended {
		c.ended = false
		c.command.Initialize()
	}
	c.command.Execute()
	if c.command.IsFinished() {
		c.command.End(false)
		c.ended = true
	}
}

func (c *RepeatCommand) End(interrupted bool) {
	if !c.ended {
		c.command.End(interrupted)
		c.ended = true
	}
}

func (c *RepeatCommand) IsFinished() bool { return false }

func childNames(commands []Command) string {
	names := make([]string, 0, len(commands))
	for _, child := range commands {
		names = append(names, child.Name())
	}
	return "(" + strings.Join(names, ", ") + ")"
}
