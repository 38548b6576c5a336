package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/robocmd/internal/loop"
	"github.com/me/robocmd/internal/robot"
	"github.com/me/robocmd/internal/scheduler"
	"github.com/me/robocmd/pkg/command"
)

// DefaultPeriod is used when a scenario does not set one.
const DefaultPeriod = 20 * time.Millisecond

// BuildOption configures Build.
type BuildOption func(*Plan)

// WithClock drives wait commands from clock instead of the simulated clock
// that advances one period per cycle.
func WithClock(clock command.Clock) BuildOption {
	return func(p *Plan) {
		p.clock = clock
		p.manual = nil
	}
}

// WithLogger sets the logger used by print commands and timeline actions.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(p *Plan) {
		p.logger = logger
	}
}

// Plan is a built scenario: simulated subsystems and the command instances
// the timeline and default commands refer to.
type Plan struct {
	scenario   *Scenario
	subsystems []*SimSubsystem
	byName     map[string]*SimSubsystem
	roots      map[string]command.Command
	clock      command.Clock
	manual     *command.ManualClock
	eval       *Evaluator
	logger     *slog.Logger
}

// configurable is satisfied by every command embedding command.Base.
type configurable interface {
	command.Command
	SetName(name string)
	AddRequirements(subs ...command.Subsystem)
	SetInterruptionBehavior(behavior command.InterruptionBehavior)
	SetRunsWhenDisabled(run bool)
}

// Build validates s and constructs its commands.
func Build(s *Scenario, opts ...BuildOption) (*Plan, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}

	manual := command.NewManualClock(time.Unix(0, 0))
	p := &Plan{
		scenario: s,
		byName:   make(map[string]*SimSubsystem),
		roots:    make(map[string]command.Command),
		clock:    manual,
		manual:   manual,
		eval:     NewEvaluator(Env{}),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "scenario", "scenario", s.Name)

	for _, spec := range s.Subsystems {
		sub := newSimSubsystem(spec.Name, p.logger)
		p.subsystems = append(p.subsystems, sub)
		p.byName[spec.Name] = sub
	}

	for _, spec := range s.Subsystems {
		if spec.Default != "" {
			if err := p.root(spec.Default); err != nil {
				return nil, err
			}
		}
	}
	for _, a := range s.Timeline {
		if a.Command != "" {
			if err := p.root(a.Command); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

func (p *Plan) root(name string) (err error) {
	if _, ok := p.roots[name]; ok {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("build command %s: %v", name, r)
		}
	}()
	p.roots[name] = p.build(name)
	return nil
}

// build creates a fresh instance of the named command. Composites get fresh
// children, so one name may appear in several compositions.
func (p *Plan) build(name string) command.Command {
	spec := p.scenario.Commands[name]

	var c configurable
	switch spec.Kind {
	case KindInstant:
		c = command.Instant(func() { p.logger.Debug("instant command ran", "command", name) })
	case KindRun:
		c = command.Run(nil)
	case KindCycles:
		n, count := spec.Cycles, 0
		c = command.NewFunctional(
			func() { count = 0 },
			func() { count++ },
			nil,
			func() bool { return count >= n },
		)
	case KindWait:
		c = command.NewWait(spec.Duration, p.clock)
	case KindWaitUntil:
		c = command.WaitUntil(p.predicate(spec.Condition))
	case KindPrint:
		c = command.Print(p.logger, spec.Message)
	case KindSequence:
		c = command.Sequence(p.buildAll(spec.Steps)...)
	case KindParallel:
		c = command.Parallel(p.buildAll(spec.Steps)...)
	case KindRace:
		c = command.Race(p.buildAll(spec.Steps)...)
	case KindDeadline:
		steps := p.buildAll(spec.Steps)
		c = command.Deadline(steps[0], steps[1:]...)
	case KindEither:
		c = command.Either(p.build(spec.OnTrue), p.build(spec.OnFalse), p.predicate(spec.Selector))
	case KindRepeat:
		c = command.Repeatedly(p.build(spec.Steps[0]))
	default:
		panic(fmt.Sprintf("unknown kind %q", spec.Kind))
	}

	c.SetName(name)
	c.AddRequirements(p.requirements(spec.Requires)...)
	if spec.Interrupt != "" {
		behavior, _ := command.ParseInterruptionBehavior(spec.Interrupt)
		c.SetInterruptionBehavior(behavior)
	}
	if spec.RunsWhenDisabled != nil {
		c.SetRunsWhenDisabled(*spec.RunsWhenDisabled)
	}
	if spec.Timeout > 0 {
		return command.WithName(command.WithTimeout(c, spec.Timeout, p.clock), name)
	}
	return c
}

func (p *Plan) buildAll(names []string) []command.Command {
	out := make([]command.Command, 0, len(names))
	for _, name := range names {
		out = append(out, p.build(name))
	}
	return out
}

func (p *Plan) predicate(src string) func() bool {
	prog, err := CompileExpr(src)
	if err != nil {
		panic(err)
	}
	return p.eval.Predicate(src, prog)
}

func (p *Plan) requirements(names []string) []command.Subsystem {
	subs := make([]command.Subsystem, 0, len(names))
	for _, name := range names {
		subs = append(subs, p.byName[name])
	}
	return subs
}

// Name returns the scenario name.
func (p *Plan) Name() string { return p.scenario.Name }

// Period returns the scenario period, or DefaultPeriod.
func (p *Plan) Period() time.Duration {
	if p.scenario.Period > 0 {
		return p.scenario.Period
	}
	return DefaultPeriod
}

// Cycles returns how many cycles the scenario asks to simulate.
func (p *Plan) Cycles() int { return p.scenario.Cycles }

// Subsystems returns the simulated subsystems in declaration order.
func (p *Plan) Subsystems() []*SimSubsystem { return p.subsystems }

// Command returns the instance the timeline uses for name, or nil.
func (p *Plan) Command(name string) command.Command { return p.roots[name] }

// Install registers subsystems and default commands on sched, sets the
// initial robot mode, and returns the hook that applies timeline actions
// before each cycle.
func (p *Plan) Install(sched *scheduler.CommandScheduler, state *robot.State) (loop.CycleHook, error) {
	for _, sub := range p.subsystems {
		if err := sched.RegisterSubsystem(sub); err != nil {
			return nil, fmt.Errorf("install %s: %w", p.scenario.Name, err)
		}
	}
	for _, spec := range p.scenario.Subsystems {
		if spec.Default == "" {
			continue
		}
		if err := sched.SetDefaultCommand(p.byName[spec.Name], p.roots[spec.Default]); err != nil {
			return nil, fmt.Errorf("install %s: %w", p.scenario.Name, err)
		}
	}

	if p.scenario.StartsEnabled() {
		state.Enable()
	} else {
		state.Disable()
	}

	p.eval.Bind(Env{
		Cycle:   sched.Cycle,
		Enabled: state.Enabled,
		Scheduled: func(name string) bool {
			cmd, ok := p.roots[name]
			return ok && sched.IsScheduled(cmd)
		},
	})

	hook := func(ctx context.Context, s *scheduler.CommandScheduler) error {
		next := s.Cycle() + 1
		if next > 1 && p.manual != nil {
			p.manual.Advance(p.Period())
		}

		var errs []error
		for _, a := range p.scenario.Timeline {
			if a.At != next {
				continue
			}
			p.logger.InfoContext(ctx, "timeline action", "cycle", next, "do", a.Do, "command", a.Command)
			if err := p.apply(s, state, a); err != nil {
				errs = append(errs, fmt.Errorf("cycle %d %s %s: %w", next, a.Do, a.Command, err))
			}
		}
		return errors.Join(errs...)
	}
	return hook, nil
}

func (p *Plan) apply(s *scheduler.CommandScheduler, state *robot.State, a Action) error {
	switch a.Do {
	case ActionSchedule:
		return s.Schedule(p.roots[a.Command])
	case ActionCancel:
		return s.Cancel(p.roots[a.Command])
	case ActionCancelAll:
		return s.CancelAll()
	case ActionEnable:
		state.Enable()
	case ActionDisable:
		state.Disable()
	}
	return nil
}
