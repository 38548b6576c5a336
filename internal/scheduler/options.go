package scheduler

import "log/slog"

type options struct {
	logger   *slog.Logger
	disabled func() bool
}

// Option configures a CommandScheduler.
type Option func(*options)

// WithLogger sets the scheduler logger. Without one slog.Default is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDisabledSource sets the function consulted each cycle to decide whether
// the robot is disabled. Without one the robot is always enabled.
func WithDisabledSource(disabled func() bool) Option {
	return func(o *options) {
		o.disabled = disabled
	}
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
