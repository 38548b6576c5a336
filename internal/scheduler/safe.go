package scheduler

import "fmt"

// runSafely executes fn and converts a panic into a returned error. A
// recovered error value stays reachable through errors.Is and errors.As.
func runSafely(fn func()) (err error) {
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		if cause, ok := recovered.(error); ok {
			err = fmt.Errorf("panic recovered: %w", cause)
			return
		}
		err = fmt.Errorf("panic recovered: %v", recovered)
	}()

	fn()
	return nil
}
