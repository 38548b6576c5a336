package loop

import "context"

// Driver advances a scheduler on a fixed period.
type Driver interface {
	// Start begins the loop. Blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop shuts the loop down and waits for the current cycle to finish.
	Stop() error

	// Tick runs a single cycle. Used by simulations and tests.
	Tick(ctx context.Context) error
}

var _ Driver = (*Loop)(nil)
