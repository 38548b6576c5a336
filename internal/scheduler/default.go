package scheduler

import "sync"

var (
	defaultMu       sync.Mutex
	defaultInstance *CommandScheduler
)

// Default returns the process-wide scheduler, creating one on first use.
// The mutex guards the handle only; the returned scheduler is still
// single-threaded.
func Default() *CommandScheduler {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultInstance == nil {
		defaultInstance = New()
	}
	return defaultInstance
}

// SetDefault replaces the process-wide scheduler. Passing nil makes the next
// Default call create a fresh one.
func SetDefault(s *CommandScheduler) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultInstance = s
}

func detachDefault(s *CommandScheduler) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultInstance == s {
		defaultInstance = nil
	}
}
