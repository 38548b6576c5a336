package model

// SchedulerSnapshot is a point-in-time view of the command scheduler,
// published by the loop after each cycle.
type SchedulerSnapshot struct {
	Cycle      uint64           `json:"cycle"`
	Disabled   bool             `json:"disabled"`
	Commands   []CommandState   `json:"commands"`
	Subsystems []SubsystemState `json:"subsystems"`
}

// CommandState describes one scheduled command.
type CommandState struct {
	Name                 string   `json:"name"`
	Requirements         []string `json:"requirements"`
	InterruptionBehavior string   `json:"interruption_behavior"`
	RunsWhenDisabled     bool     `json:"runs_when_disabled"`
	Paused               bool     `json:"paused"`
}

// SubsystemState describes one registered subsystem and its ownership.
type SubsystemState struct {
	Name           string `json:"name"`
	Owner          string `json:"owner,omitempty"`
	DefaultCommand string `json:"default_command,omitempty"`
}

// Owner returns the name of the command holding the named subsystem, or "".
func (s SchedulerSnapshot) Owner(subsystem string) string {
	for _, sub := range s.Subsystems {
		if sub.Name == subsystem {
			return sub.Owner
		}
	}
	return ""
}

// IsScheduled reports whether a command with the given name was scheduled.
func (s SchedulerSnapshot) IsScheduled(name string) bool {
	for _, cmd := range s.Commands {
		if cmd.Name == name {
			return true
		}
	}
	return false
}
