package scenario

import "log/slog"

// SimSubsystem is a simulated mechanism. Periodic only counts calls.
type SimSubsystem struct {
	name      string
	periodics uint64
	logger    *slog.Logger
}

func newSimSubsystem(name string, logger *slog.Logger) *SimSubsystem {
	return &SimSubsystem{name: name, logger: logger}
}

func (s *SimSubsystem) Name() string { return s.name }

func (s *SimSubsystem) Periodic() {
	s.periodics++
	if s.logger != nil {
		s.logger.Debug("periodic", "subsystem", s.name, "count", s.periodics)
	}
}

// Periodics returns how many times Periodic has run.
func (s *SimSubsystem) Periodics() uint64 { return s.periodics }
