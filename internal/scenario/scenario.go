// Package scenario loads YAML descriptions of simulated robots: subsystems,
// named commands, and a timeline of operator actions keyed by cycle.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Command kinds.
const (
	KindInstant   = "instant"
	KindRun       = "run"
	KindCycles    = "cycles"
	KindWait      = "wait"
	KindWaitUntil = "wait_until"
	KindPrint     = "print"
	KindSequence  = "sequence"
	KindParallel  = "parallel"
	KindRace      = "race"
	KindDeadline  = "deadline"
	KindEither    = "either"
	KindRepeat    = "repeat"
)

// Timeline actions.
const (
	ActionSchedule  = "schedule"
	ActionCancel    = "cancel"
	ActionCancelAll = "cancel_all"
	ActionEnable    = "enable"
	ActionDisable   = "disable"
)

// Scenario is the parsed form of a scenario file.
type Scenario struct {
	Name       string                  `yaml:"name"`
	Period     time.Duration           `yaml:"period"`
	Cycles     int                     `yaml:"cycles"`
	Enabled    *bool                   `yaml:"enabled"`
	Subsystems []SubsystemSpec         `yaml:"subsystems"`
	Commands   map[string]*CommandSpec `yaml:"commands"`
	Timeline   []Action                `yaml:"timeline"`
}

// StartsEnabled reports whether the robot is enabled at cycle one.
func (s *Scenario) StartsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// SubsystemSpec declares a simulated subsystem.
type SubsystemSpec struct {
	Name    string `yaml:"name"`
	Default string `yaml:"default"` // Optional command name
}

// CommandSpec declares a named command. Which fields apply depends on Kind.
type CommandSpec struct {
	Kind             string        `yaml:"kind"`
	Requires         []string      `yaml:"requires"`
	Interrupt        string        `yaml:"interrupt"`
	RunsWhenDisabled *bool         `yaml:"runs_when_disabled"`
	Timeout          time.Duration `yaml:"timeout"`

	Cycles    int           `yaml:"cycles"`    // cycles
	Duration  time.Duration `yaml:"duration"`  // wait
	Condition string        `yaml:"condition"` // wait_until
	Message   string        `yaml:"message"`   // print

	// Steps names the children of sequence, parallel, race, deadline (first
	// step is the deadline), and repeat (exactly one step).
	Steps []string `yaml:"steps"`

	Selector string `yaml:"selector"` // either
	OnTrue   string `yaml:"on_true"`
	OnFalse  string `yaml:"on_false"`
}

// Action is an operator input applied before the scheduler runs cycle At.
type Action struct {
	At      uint64 `yaml:"at"`
	Do      string `yaml:"do"`
	Command string `yaml:"command"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes scenario YAML. Unknown fields are rejected.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty scenario")
		}
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	if s.Commands == nil {
		s.Commands = map[string]*CommandSpec{}
	}
	return &s, nil
}
