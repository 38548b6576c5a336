package scenario

import (
	"fmt"
	"slices"
	"sort"

	"github.com/me/robocmd/pkg/command"
	"github.com/me/robocmd/pkg/model"
)

// Validate checks semantic correctness of a scenario. Returns nil if valid,
// or a *model.APIError with FieldError details.
func Validate(s *Scenario) error {
	v := &validator{s: s, subsystems: make(map[string]bool)}

	var errs []model.FieldError
	errs = append(errs, v.validateHeader()...)
	errs = append(errs, v.validateSubsystems()...)
	errs = append(errs, v.validateCommands()...)
	graphErrs := v.validateGraph()
	errs = append(errs, graphErrs...)
	if len(graphErrs) == 0 {
		errs = append(errs, v.validateRequirements()...)
	}
	errs = append(errs, v.validateTimeline()...)

	if len(errs) == 0 {
		return nil
	}
	return model.NewValidationError("scenario validation failed", errs...)
}

type validator struct {
	s          *Scenario
	subsystems map[string]bool
}

func fieldErr(field, format string, args ...any) model.FieldError {
	return model.FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (v *validator) commandNames() []string {
	names := make([]string, 0, len(v.s.Commands))
	for name := range v.s.Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (v *validator) validateHeader() []model.FieldError {
	var errs []model.FieldError
	if v.s.Name == "" {
		errs = append(errs, fieldErr("name", "name is required"))
	}
	if v.s.Period < 0 {
		errs = append(errs, fieldErr("period", "period must not be negative"))
	}
	if v.s.Cycles < 0 {
		errs = append(errs, fieldErr("cycles", "cycles must not be negative"))
	}
	return errs
}

func (v *validator) validateSubsystems() []model.FieldError {
	var errs []model.FieldError
	for i, sub := range v.s.Subsystems {
		field := fmt.Sprintf("subsystems[%d]", i)
		if sub.Name == "" {
			errs = append(errs, fieldErr(field+".name", "subsystem name is required"))
			continue
		}
		if v.subsystems[sub.Name] {
			errs = append(errs, fieldErr(field+".name", "duplicate subsystem %q", sub.Name))
		}
		v.subsystems[sub.Name] = true
		if sub.Default != "" {
			if _, ok := v.s.Commands[sub.Default]; !ok {
				errs = append(errs, fieldErr(field+".default", "unknown command %q", sub.Default))
			}
		}
	}
	return errs
}

func (v *validator) validateCommands() []model.FieldError {
	var errs []model.FieldError
	for _, name := range v.commandNames() {
		spec := v.s.Commands[name]
		field := "commands." + name
		if spec == nil {
			errs = append(errs, fieldErr(field, "command body is required"))
			continue
		}
		for _, req := range spec.Requires {
			if !v.subsystems[req] {
				errs = append(errs, fieldErr(field+".requires", "unknown subsystem %q", req))
			}
		}
		if _, ok := command.ParseInterruptionBehavior(spec.Interrupt); !ok {
			errs = append(errs, fieldErr(field+".interrupt", "unknown interruption behavior %q", spec.Interrupt))
		}
		if spec.Timeout < 0 {
			errs = append(errs, fieldErr(field+".timeout", "timeout must not be negative"))
		}
		for _, child := range children(spec) {
			if _, ok := v.s.Commands[child]; !ok {
				errs = append(errs, fieldErr(field, "unknown child command %q", child))
			}
		}
		errs = append(errs, v.validateKind(field, spec)...)
	}
	return errs
}

func (v *validator) validateKind(field string, spec *CommandSpec) []model.FieldError {
	var errs []model.FieldError
	switch spec.Kind {
	case KindInstant, KindRun, KindSequence, KindParallel, KindRace:
	case KindPrint:
		if spec.Message == "" {
			errs = append(errs, fieldErr(field+".message", "print requires a message"))
		}
	case KindCycles:
		if spec.Cycles <= 0 {
			errs = append(errs, fieldErr(field+".cycles", "cycles must be positive"))
		}
	case KindWait:
		if spec.Duration <= 0 {
			errs = append(errs, fieldErr(field+".duration", "wait requires a positive duration"))
		}
	case KindWaitUntil:
		if spec.Condition == "" {
			errs = append(errs, fieldErr(field+".condition", "wait_until requires a condition"))
		} else if _, err := CompileExpr(spec.Condition); err != nil {
			errs = append(errs, fieldErr(field+".condition", "%v", err))
		}
	case KindDeadline:
		if len(spec.Steps) == 0 {
			errs = append(errs, fieldErr(field+".steps", "deadline requires at least one step"))
		}
	case KindRepeat:
		if len(spec.Steps) != 1 {
			errs = append(errs, fieldErr(field+".steps", "repeat requires exactly one step"))
		}
	case KindEither:
		if spec.OnTrue == "" || spec.OnFalse == "" {
			errs = append(errs, fieldErr(field, "either requires on_true and on_false"))
		}
		if spec.Selector == "" {
			errs = append(errs, fieldErr(field+".selector", "either requires a selector"))
		} else if _, err := CompileExpr(spec.Selector); err != nil {
			errs = append(errs, fieldErr(field+".selector", "%v", err))
		}
	case "":
		errs = append(errs, fieldErr(field+".kind", "kind is required"))
	default:
		errs = append(errs, fieldErr(field+".kind", "unknown kind %q", spec.Kind))
	}
	return errs
}

// validateGraph rejects commands that contain themselves.
func (v *validator) validateGraph() []model.FieldError {
	const (
		visiting = iota + 1
		done
	)
	state := make(map[string]int)
	var errs []model.FieldError

	var visit func(name string, path []string)
	visit = func(name string, path []string) {
		spec := v.s.Commands[name]
		if spec == nil {
			return
		}
		switch state[name] {
		case visiting:
			cycle := append(path[slices.Index(path, name):], name)
			errs = append(errs, fieldErr("commands."+name, "composition cycle: %v", cycle))
			return
		case done:
			return
		}
		state[name] = visiting
		for _, child := range children(spec) {
			visit(child, append(path, name))
		}
		state[name] = done
	}
	for _, name := range v.commandNames() {
		visit(name, nil)
	}
	return errs
}

// validateRequirements checks what composite constructors and the scheduler
// would otherwise reject at build time.
func (v *validator) validateRequirements() []model.FieldError {
	var errs []model.FieldError
	memo := make(map[string]map[string]bool)

	for _, name := range v.commandNames() {
		spec := v.s.Commands[name]
		if spec == nil {
			continue
		}
		switch spec.Kind {
		case KindParallel, KindRace, KindDeadline:
			seen := make(map[string]string)
			for _, child := range spec.Steps {
				for sub := range requirementsOf(v.s, child, memo) {
					if other, ok := seen[sub]; ok {
						errs = append(errs, fieldErr("commands."+name+".steps",
							"%q and %q both require %q", other, child, sub))
						continue
					}
					seen[sub] = child
				}
			}
		}
	}

	for i, sub := range v.s.Subsystems {
		if sub.Default == "" || v.s.Commands[sub.Default] == nil {
			continue
		}
		if !requirementsOf(v.s, sub.Default, memo)[sub.Name] {
			errs = append(errs, fieldErr(fmt.Sprintf("subsystems[%d].default", i),
				"default command %q must require %q", sub.Default, sub.Name))
		}
	}
	return errs
}

func (v *validator) validateTimeline() []model.FieldError {
	var errs []model.FieldError
	for i, a := range v.s.Timeline {
		field := fmt.Sprintf("timeline[%d]", i)
		if a.At < 1 {
			errs = append(errs, fieldErr(field+".at", "at must be 1 or later"))
		}
		switch a.Do {
		case ActionSchedule, ActionCancel:
			if a.Command == "" {
				errs = append(errs, fieldErr(field+".command", "%s requires a command", a.Do))
			} else if _, ok := v.s.Commands[a.Command]; !ok {
				errs = append(errs, fieldErr(field+".command", "unknown command %q", a.Command))
			}
		case ActionCancelAll, ActionEnable, ActionDisable:
		default:
			errs = append(errs, fieldErr(field+".do", "unknown action %q", a.Do))
		}
	}
	return errs
}

// children returns the command names spec composes.
func children(spec *CommandSpec) []string {
	out := slices.Clone(spec.Steps)
	if spec.OnTrue != "" {
		out = append(out, spec.OnTrue)
	}
	if spec.OnFalse != "" {
		out = append(out, spec.OnFalse)
	}
	return out
}

// requirementsOf returns the subsystems a built command would require. The
// composition graph must be acyclic.
func requirementsOf(s *Scenario, name string, memo map[string]map[string]bool) map[string]bool {
	if reqs, ok := memo[name]; ok {
		return reqs
	}
	reqs := make(map[string]bool)
	spec := s.Commands[name]
	if spec != nil {
		for _, r := range spec.Requires {
			reqs[r] = true
		}
		for _, child := range children(spec) {
			for r := range requirementsOf(s, child, memo) {
				reqs[r] = true
			}
		}
	}
	memo[name] = reqs
	return reqs
}
