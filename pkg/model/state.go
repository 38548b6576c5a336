package model

// LifecycleKind names a command lifecycle transition observed by the scheduler.
type LifecycleKind string

const (
	LifecycleInitialize LifecycleKind = "INITIALIZE"
	LifecycleExecute    LifecycleKind = "EXECUTE"
	LifecycleFinish     LifecycleKind = "FINISH"
	LifecycleInterrupt  LifecycleKind = "INTERRUPT"
)

// String returns the string representation of the lifecycle kind.
func (k LifecycleKind) String() string {
	return string(k)
}

// IsTerminal returns true if the transition ends a scheduling episode.
func (k LifecycleKind) IsTerminal() bool {
	switch k {
	case LifecycleFinish, LifecycleInterrupt:
		return true
	}
	return false
}

// IsValid reports whether k is a known lifecycle kind.
func (k LifecycleKind) IsValid() bool {
	switch k {
	case LifecycleInitialize, LifecycleExecute, LifecycleFinish, LifecycleInterrupt:
		return true
	}
	return false
}

// ValidLifecycleTransitions defines which transition may follow another within
// one episode. A terminal kind is followed only by a new INITIALIZE.
var ValidLifecycleTransitions = map[LifecycleKind][]LifecycleKind{
	LifecycleInitialize: {LifecycleExecute, LifecycleInterrupt},
	LifecycleExecute:    {LifecycleExecute, LifecycleFinish, LifecycleInterrupt},
	LifecycleFinish:     {LifecycleInitialize},
	LifecycleInterrupt:  {LifecycleInitialize},
}

// CanTransitionTo returns true if next may directly follow k.
func (k LifecycleKind) CanTransitionTo(next LifecycleKind) bool {
	for _, allowed := range ValidLifecycleTransitions[k] {
		if allowed == next {
			return true
		}
	}
	return false
}
