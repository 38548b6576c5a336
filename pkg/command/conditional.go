package command

import (
	"cmp"
	"maps"
	"slices"
)

// ConditionalCommand runs one of two commands, chosen when it initializes.
//
// Requirements are the union of both branches and are fixed at
// construction, so the scheduler reserves every subsystem either branch could
// need before the selector is evaluated. The unselected branch receives no
// lifecycle calls.
type ConditionalCommand struct {
	Base
	onTrue   Command
	onFalse  Command
	selector func() bool
	selected Command
}

// Either runs onTrue when selector returns true at initialize, else onFalse.
func Either(onTrue, onFalse Command, selector func() bool) *ConditionalCommand {
	if selector == nil {
		panic("command: Either: nil selector")
	}
	claim("Either", onTrue, onFalse)

	cmd := &ConditionalCommand{
		onTrue:   onTrue,
		onFalse:  onFalse,
		selector: selector,
	}
	cmd.SetName("Either(" + onTrue.Name() + ", " + onFalse.Name() + ")")
	cmd.mergeChildren([]Command{onTrue, onFalse})
	return cmd
}

func (c *ConditionalCommand) Initialize() {
	if c.selector() {
		c.selected = c.onTrue
	} else {
		c.selected = c.onFalse
	}
	c.selected.Initialize()
}

func (c *ConditionalCommand) Execute() {
	if c.selected != nil {
		c.selected.Execute()
	}
}

func (c *ConditionalCommand) End(interrupted bool) {
	if c.selected != nil {
		c.selected.End(interrupted)
	}
	c.selected = nil
}

func (c *ConditionalCommand) IsFinished() bool {
	return c.selected == nil || c.selected.IsFinished()
}

// Selected returns the active branch, or nil outside an episode.
func (c *ConditionalCommand) Selected() Command {
	return c.selected
}

// SelectCommand runs the command keyed by the selector's result at
// initialize. Unknown keys run a command that finishes immediately.
// Requirements are merged in key order.
type SelectCommand[K cmp.Ordered] struct {
	Base
	commands map[K]Command
	selector func() K
	fallback Command
	selected Command
}

// Select creates a SelectCommand over commands.
func Select[K cmp.Ordered](commands map[K]Command, selector func() K) *SelectCommand[K] {
	if selector == nil {
		panic("command: Select: nil selector")
	}
	children := make([]Command, 0, len(commands))
	for _, key := range slices.Sorted(maps.Keys(commands)) {
		children = append(children, commands[key])
	}
	claim("Select", children...)

	cmd := &SelectCommand[K]{
		commands: commands,
		selector: selector,
		fallback: None(),
	}
	cmd.SetName("Select")
	cmd.mergeChildren(children)
	return cmd
}

func (c *SelectCommand[K]) Initialize() {
	selected, ok := c.commands[c.selector()]
	if !ok {
		selected = c.fallback
	}
	c.selected = selected
	c.selected.Initialize()
}

func (c *SelectCommand[K]) Execute() {
	if c.selected != nil {
		c.selected.Execute()
	}
}

func (c *SelectCommand[K]) End(interrupted bool) {
	if c.selected != nil {
		c.selected.End(interrupted)
	}
	c.selected = nil
}

func (c *SelectCommand[K]) IsFinished() bool {
	return c.selected == nil || c.selected.IsFinished()
}
