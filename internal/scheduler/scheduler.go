// Package scheduler runs commands against robot subsystems one cycle at a
// time. A CommandScheduler is single-threaded: every method must be called
// from the goroutine that drives Run, including from inside commands and
// hooks. internal/loop owns that goroutine in the simulator.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/me/robocmd/pkg/command"
	"github.com/me/robocmd/pkg/model"
)

// maxEvictionRounds bounds how often Schedule re-evicts holders that were
// scheduled again by the End methods of the commands it just interrupted.
const maxEvictionRounds = 8

// CommandScheduler owns the set of running commands and the subsystem
// ownership map. Commands and subsystems are tracked by identity, so both
// must be comparable values (pointers in practice).
type CommandScheduler struct {
	logger   *slog.Logger
	disabled func() bool

	subsystems     map[command.Subsystem]command.Command
	subsystemOrder []command.Subsystem

	scheduled      map[command.Command]struct{}
	scheduledOrder []command.Command
	owners         map[command.Subsystem]command.Command
	ending         map[command.Command]struct{}

	hooks hookSet

	cycle  uint64
	inRun  bool
	closed bool
}

// New creates an empty scheduler.
func New(opts ...Option) *CommandScheduler {
	o := buildOptions(opts)
	return &CommandScheduler{
		logger:     o.logger.With("component", "scheduler"),
		disabled:   o.disabled,
		subsystems: make(map[command.Subsystem]command.Command),
		scheduled:  make(map[command.Command]struct{}),
		owners:     make(map[command.Subsystem]command.Command),
		ending:     make(map[command.Command]struct{}),
	}
}

// RegisterSubsystem adds subsystems to the periodic sweep. Registering a
// subsystem twice is a no-op.
func (s *CommandScheduler) RegisterSubsystem(subs ...command.Subsystem) error {
	if s.closed {
		return fmt.Errorf("register subsystem: %w", ErrClosed)
	}
	for i, sub := range subs {
		if sub == nil {
			return fmt.Errorf("register subsystem at index %d: %w", i, ErrNilSubsystem)
		}
	}
	for _, sub := range subs {
		s.register(sub)
	}
	return nil
}

func (s *CommandScheduler) register(sub command.Subsystem) {
	if _, ok := s.subsystems[sub]; ok {
		return
	}
	s.subsystems[sub] = nil
	s.subsystemOrder = append(s.subsystemOrder, sub)
	s.logger.Debug("subsystem registered", "subsystem", sub.Name())
}

// UnregisterSubsystem removes subsystems from the periodic sweep and drops
// their default commands and ownership entries. A command currently holding
// an unregistered subsystem keeps running.
func (s *CommandScheduler) UnregisterSubsystem(subs ...command.Subsystem) {
	for _, sub := range subs {
		if sub == nil {
			continue
		}
		if _, ok := s.subsystems[sub]; !ok {
			continue
		}
		delete(s.subsystems, sub)
		delete(s.owners, sub)
		s.subsystemOrder = slices.DeleteFunc(s.subsystemOrder, func(x command.Subsystem) bool { return x == sub })
		s.logger.Debug("subsystem unregistered", "subsystem", sub.Name())
	}
}

// SetDefaultCommand installs cmd as the command scheduled for sub whenever
// nothing else holds it. The subsystem is registered if it is not already.
func (s *CommandScheduler) SetDefaultCommand(sub command.Subsystem, cmd command.Command) error {
	switch {
	case s.closed:
		return fmt.Errorf("set default command: %w", ErrClosed)
	case sub == nil:
		return fmt.Errorf("set default command: %w", ErrNilSubsystem)
	case cmd == nil:
		return fmt.Errorf("set default command for %s: %w", sub.Name(), ErrNilCommand)
	case command.IsComposed(cmd):
		return fmt.Errorf("set default command %s: %w", cmd.Name(), ErrCommandComposed)
	case !cmd.Requirements().Contains(sub):
		return fmt.Errorf("set default command %s for %s: %w", cmd.Name(), sub.Name(), ErrDefaultCommandRequirement)
	}
	if cmd.InterruptionBehavior() == command.CancelIncoming {
		s.logger.Warn("default command cancels incoming; other commands cannot take its subsystem",
			"command", cmd.Name(), "subsystem", sub.Name())
	}
	s.register(sub)
	s.subsystems[sub] = cmd
	return nil
}

// DefaultCommand returns the default command installed for sub, or nil.
func (s *CommandScheduler) DefaultCommand(sub command.Subsystem) command.Command {
	if sub == nil {
		return nil
	}
	return s.subsystems[sub]
}

// RemoveDefaultCommand clears the default command of sub. A running instance
// of it is not cancelled.
func (s *CommandScheduler) RemoveDefaultCommand(sub command.Subsystem) {
	if sub == nil {
		return
	}
	if _, ok := s.subsystems[sub]; ok {
		s.subsystems[sub] = nil
	}
}

// Schedule requests that each command start running. A command that is
// already scheduled, paused by the disabled gate, or blocked by a holder that
// cancels incoming commands is skipped without error. The returned error
// reports misuse and faults raised while evicting holders or initializing.
func (s *CommandScheduler) Schedule(cmds ...command.Command) error {
	var errs []error
	for _, cmd := range cmds {
		if err := s.schedule(cmd); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *CommandScheduler) schedule(cmd command.Command) error {
	if cmd == nil {
		return fmt.Errorf("schedule: %w", ErrNilCommand)
	}
	if s.closed {
		return fmt.Errorf("schedule %s: %w", cmd.Name(), ErrClosed)
	}
	if command.IsComposed(cmd) {
		return fmt.Errorf("schedule %s: %w", cmd.Name(), ErrCommandComposed)
	}
	if s.IsScheduled(cmd) {
		return nil
	}
	if s.isDisabled() && !cmd.RunsWhenDisabled() {
		s.logger.Debug("schedule skipped while disabled", "command", cmd.Name())
		return nil
	}

	reqs := cmd.Requirements().Slice()
	var errs []error
	for round := 0; ; round++ {
		// An evicted holder's End may have scheduled cmd already.
		if s.IsScheduled(cmd) {
			return errors.Join(errs...)
		}
		holders := s.holdersOf(reqs)
		if len(holders) == 0 {
			break
		}
		for _, holder := range holders {
			if holder.InterruptionBehavior() == command.CancelIncoming {
				s.logger.Debug("schedule rejected", "command", cmd.Name(), "holder", holder.Name())
				return errors.Join(errs...)
			}
		}
		if round == maxEvictionRounds {
			s.logger.Warn("schedule abandoned: requirements keep being reacquired", "command", cmd.Name())
			return errors.Join(errs...)
		}
		for _, holder := range holders {
			if err := s.cancel(holder, cmd); err != nil {
				errs = append(errs, err)
			}
		}
	}

	s.scheduled[cmd] = struct{}{}
	s.scheduledOrder = append(s.scheduledOrder, cmd)
	for _, req := range reqs {
		s.owners[req] = cmd
	}

	if err := runSafely(cmd.Initialize); err != nil {
		errs = append(errs, s.fault(cmd, PhaseInitialize, err))
		return errors.Join(errs...)
	}
	s.logger.Debug("command initialized", "command", cmd.Name(), "requirements", cmd.Requirements().String())
	if s.IsScheduled(cmd) {
		s.fire("initialize", s.hooks.initialize, cmd)
	}
	return errors.Join(errs...)
}

// holdersOf returns the distinct commands owning any of reqs, in
// requirement order. Commands already inside End are leaving and do not
// count as holders.
func (s *CommandScheduler) holdersOf(reqs []command.Subsystem) []command.Command {
	var holders []command.Command
	for _, req := range reqs {
		holder, ok := s.owners[req]
		if !ok || slices.Contains(holders, holder) {
			continue
		}
		if _, leaving := s.ending[holder]; leaving {
			continue
		}
		holders = append(holders, holder)
	}
	return holders
}

// Cancel interrupts each scheduled command. Commands that are not scheduled
// are ignored.
func (s *CommandScheduler) Cancel(cmds ...command.Command) error {
	var errs []error
	for _, cmd := range cmds {
		if cmd == nil {
			continue
		}
		if err := s.cancel(cmd, nil); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CancelAll interrupts every scheduled command in scheduling order.
func (s *CommandScheduler) CancelAll() error {
	return s.Cancel(slices.Clone(s.scheduledOrder)...)
}

func (s *CommandScheduler) cancel(cmd, interruptor command.Command) error {
	if !s.IsScheduled(cmd) {
		return nil
	}
	if _, ok := s.ending[cmd]; ok {
		return nil
	}

	s.ending[cmd] = struct{}{}
	endErr := runSafely(func() { cmd.End(true) })
	s.retire(cmd)
	delete(s.ending, cmd)

	attrs := []any{"command", cmd.Name()}
	if interruptor != nil {
		attrs = append(attrs, "interrupted_by", interruptor.Name())
	}
	s.logger.Debug("command interrupted", attrs...)
	s.fireInterrupt(cmd, interruptor)

	if endErr != nil {
		return s.faultError(cmd, PhaseEnd, endErr)
	}
	return nil
}

// finish ends a command that reported completion. A fault in End turns the
// finish into an interruption.
func (s *CommandScheduler) finish(cmd command.Command) error {
	s.ending[cmd] = struct{}{}
	endErr := runSafely(func() { cmd.End(false) })
	s.retire(cmd)
	delete(s.ending, cmd)

	if endErr != nil {
		s.fireInterrupt(cmd, nil)
		return s.faultError(cmd, PhaseEnd, endErr)
	}
	s.logger.Debug("command finished", "command", cmd.Name())
	s.fire("finish", s.hooks.finish, cmd)
	return nil
}

// fault retires a command whose lifecycle method panicked. End(true) is
// still attempted so the command can release hardware.
func (s *CommandScheduler) fault(cmd command.Command, phase Phase, cause error) error {
	faultErr := s.faultError(cmd, phase, cause)
	if !s.IsScheduled(cmd) {
		return faultErr
	}
	if _, ok := s.ending[cmd]; ok {
		return faultErr
	}

	s.ending[cmd] = struct{}{}
	endErr := runSafely(func() { cmd.End(true) })
	s.retire(cmd)
	delete(s.ending, cmd)
	s.fireInterrupt(cmd, nil)

	if endErr != nil {
		return errors.Join(faultErr, s.faultError(cmd, PhaseEnd, endErr))
	}
	return faultErr
}

func (s *CommandScheduler) faultError(cmd command.Command, phase Phase, cause error) error {
	s.logger.Error("command fault", "command", cmd.Name(), "phase", string(phase), "error", cause)
	return &CommandFaultError{Command: cmd.Name(), Phase: phase, Err: cause}
}

// retire removes cmd from the scheduled set and releases the subsystems it
// still owns. Entries already handed to another command are left alone.
func (s *CommandScheduler) retire(cmd command.Command) {
	if _, ok := s.scheduled[cmd]; !ok {
		return
	}
	delete(s.scheduled, cmd)
	s.scheduledOrder = slices.DeleteFunc(s.scheduledOrder, func(x command.Command) bool { return x == cmd })
	for _, req := range cmd.Requirements().Slice() {
		if s.owners[req] == cmd {
			delete(s.owners, req)
		}
	}
}

// Run executes one scheduler cycle: subsystem periodics in registration
// order, then default commands for idle subsystems, then one Execute for
// every scheduled command. A command or subsystem fault aborts the rest of
// the cycle and is returned.
func (s *CommandScheduler) Run(ctx context.Context) error {
	if s.closed {
		return fmt.Errorf("run: %w", ErrClosed)
	}
	if s.inRun {
		return fmt.Errorf("run: %w", ErrReentrantRun)
	}
	s.inRun = true
	defer func() { s.inRun = false }()

	s.cycle++
	cycle := s.cycle

	for _, sub := range slices.Clone(s.subsystemOrder) {
		if _, ok := s.subsystems[sub]; !ok {
			continue
		}
		if err := runSafely(sub.Periodic); err != nil {
			s.logger.ErrorContext(ctx, "subsystem fault", "subsystem", sub.Name(), "cycle", cycle, "error", err)
			return fmt.Errorf("run cycle %d: %w: %s periodic: %w", cycle, ErrSubsystemFault, sub.Name(), err)
		}
	}

	for _, sub := range slices.Clone(s.subsystemOrder) {
		def := s.subsystems[sub]
		if def == nil {
			continue
		}
		if _, held := s.owners[sub]; held {
			continue
		}
		if err := s.schedule(def); err != nil {
			return fmt.Errorf("run cycle %d: default command for %s: %w", cycle, sub.Name(), err)
		}
	}

	disabled := s.isDisabled()
	for _, cmd := range slices.Clone(s.scheduledOrder) {
		if !s.IsScheduled(cmd) {
			continue
		}
		if disabled && !cmd.RunsWhenDisabled() {
			continue
		}

		if err := runSafely(cmd.Execute); err != nil {
			return fmt.Errorf("run cycle %d: %w", cycle, s.fault(cmd, PhaseExecute, err))
		}
		if !s.IsScheduled(cmd) {
			continue
		}
		s.fire("execute", s.hooks.execute, cmd)
		if !s.IsScheduled(cmd) {
			continue
		}

		var finished bool
		if err := runSafely(func() { finished = cmd.IsFinished() }); err != nil {
			return fmt.Errorf("run cycle %d: %w", cycle, s.fault(cmd, PhaseIsFinished, err))
		}
		if !finished {
			continue
		}
		if err := s.finish(cmd); err != nil {
			return fmt.Errorf("run cycle %d: %w", cycle, err)
		}
	}
	return nil
}

// IsScheduled reports whether cmd is in the running set.
func (s *CommandScheduler) IsScheduled(cmd command.Command) bool {
	if cmd == nil {
		return false
	}
	_, ok := s.scheduled[cmd]
	return ok
}

// Requiring returns the command currently holding sub, or nil.
func (s *CommandScheduler) Requiring(sub command.Subsystem) command.Command {
	if sub == nil {
		return nil
	}
	return s.owners[sub]
}

// ScheduledCommands returns the running commands in scheduling order.
func (s *CommandScheduler) ScheduledCommands() []command.Command {
	return slices.Clone(s.scheduledOrder)
}

// Subsystems returns the registered subsystems in registration order.
func (s *CommandScheduler) Subsystems() []command.Subsystem {
	return slices.Clone(s.subsystemOrder)
}

// Cycle returns the number of cycles Run has started.
func (s *CommandScheduler) Cycle() uint64 { return s.cycle }

// Snapshot captures the scheduler state for reporting.
func (s *CommandScheduler) Snapshot() model.SchedulerSnapshot {
	disabled := s.isDisabled()
	snap := model.SchedulerSnapshot{
		Cycle:      s.cycle,
		Disabled:   disabled,
		Commands:   make([]model.CommandState, 0, len(s.scheduledOrder)),
		Subsystems: make([]model.SubsystemState, 0, len(s.subsystemOrder)),
	}
	for _, cmd := range s.scheduledOrder {
		snap.Commands = append(snap.Commands, model.CommandState{
			Name:                 cmd.Name(),
			Requirements:         cmd.Requirements().Names(),
			InterruptionBehavior: cmd.InterruptionBehavior().String(),
			RunsWhenDisabled:     cmd.RunsWhenDisabled(),
			Paused:               disabled && !cmd.RunsWhenDisabled(),
		})
	}
	for _, sub := range s.subsystemOrder {
		state := model.SubsystemState{Name: sub.Name()}
		if owner := s.owners[sub]; owner != nil {
			state.Owner = owner.Name()
		}
		if def := s.subsystems[sub]; def != nil {
			state.DefaultCommand = def.Name()
		}
		snap.Subsystems = append(snap.Subsystems, state)
	}
	return snap
}

// Close interrupts every scheduled command, forgets all subsystems, default
// commands, and hooks, and detaches the scheduler from Default. Schedules
// attempted from End or hooks during Close fail with ErrClosed, as does any
// later use. Close is idempotent: a second call returns nil.
func (s *CommandScheduler) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.CancelAll()

	clear(s.scheduled)
	s.scheduledOrder = nil
	clear(s.subsystems)
	s.subsystemOrder = nil
	clear(s.owners)
	s.hooks = hookSet{}
	detachDefault(s)

	s.logger.Debug("scheduler closed", "cycles", s.cycle)
	return err
}

func (s *CommandScheduler) isDisabled() bool {
	return s.disabled != nil && s.disabled()
}
