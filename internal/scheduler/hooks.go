package scheduler

import "github.com/me/robocmd/pkg/command"

// Hook observes a command lifecycle transition.
type Hook func(cmd command.Command)

// InterruptHook observes an interruption together with the command that
// caused it. interruptor is nil for explicit cancels and faults.
type InterruptHook func(cmd, interruptor command.Command)

type hookSet struct {
	initialize []Hook
	execute    []Hook
	finish     []Hook
	interrupt  []InterruptHook
}

// OnCommandInitialize registers h to run after a command initializes.
func (s *CommandScheduler) OnCommandInitialize(h Hook) {
	if h != nil {
		s.hooks.initialize = append(s.hooks.initialize, h)
	}
}

// OnCommandExecute registers h to run after every Execute call.
func (s *CommandScheduler) OnCommandExecute(h Hook) {
	if h != nil {
		s.hooks.execute = append(s.hooks.execute, h)
	}
}

// OnCommandFinish registers h to run after a command ends on its own.
func (s *CommandScheduler) OnCommandFinish(h Hook) {
	if h != nil {
		s.hooks.finish = append(s.hooks.finish, h)
	}
}

// OnCommandInterrupt registers h to run after a command is interrupted.
func (s *CommandScheduler) OnCommandInterrupt(h Hook) {
	if h != nil {
		s.hooks.interrupt = append(s.hooks.interrupt, func(cmd, _ command.Command) { h(cmd) })
	}
}

// OnCommandInterruptCause is OnCommandInterrupt with the interrupting command.
func (s *CommandScheduler) OnCommandInterruptCause(h InterruptHook) {
	if h != nil {
		s.hooks.interrupt = append(s.hooks.interrupt, h)
	}
}

func (s *CommandScheduler) fire(event string, hooks []Hook, cmd command.Command) {
	for _, h := range hooks {
		if err := runSafely(func() { h(cmd) }); err != nil {
			s.logger.Warn("hook failed", "event", event, "command", cmd.Name(), "error", err)
		}
	}
}

func (s *CommandScheduler) fireInterrupt(cmd, interruptor command.Command) {
	for _, h := range s.hooks.interrupt {
		if err := runSafely(func() { h(cmd, interruptor) }); err != nil {
			s.logger.Warn("hook failed", "event", "interrupt", "command", cmd.Name(), "error", err)
		}
	}
}
