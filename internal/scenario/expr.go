package scenario

import (
	"fmt"

	"github.com/dop251/goja"
)

// Env supplies the values scenario expressions can read.
type Env struct {
	Cycle     func() uint64
	Enabled   func() bool
	Scheduled func(name string) bool
}

// CompileExpr checks that src is a valid JavaScript expression.
func CompileExpr(src string) (*goja.Program, error) {
	prog, err := goja.Compile("expr", src, true)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	return prog, nil
}

// Evaluator runs scenario expressions in one JavaScript runtime. It is not
// safe for concurrent use; conditions run on the loop goroutine.
type Evaluator struct {
	vm  *goja.Runtime
	env Env
}

// NewEvaluator creates an evaluator reading from env. Missing env functions
// evaluate to zero values.
func NewEvaluator(env Env) *Evaluator {
	e := &Evaluator{vm: goja.New(), env: env}
	// Set cannot fail for a plain Go func value.
	_ = e.vm.Set("scheduled", func(name string) bool {
		return e.env.Scheduled != nil && e.env.Scheduled(name)
	})
	return e
}

// Bind replaces the environment.
func (e *Evaluator) Bind(env Env) { e.env = env }

// Bool evaluates prog and converts the result with JavaScript truthiness.
func (e *Evaluator) Bool(prog *goja.Program) (bool, error) {
	var cycle uint64
	if e.env.Cycle != nil {
		cycle = e.env.Cycle()
	}
	enabled := e.env.Enabled != nil && e.env.Enabled()

	if err := e.vm.Set("cycle", cycle); err != nil {
		return false, fmt.Errorf("set cycle: %w", err)
	}
	if err := e.vm.Set("enabled", enabled); err != nil {
		return false, fmt.Errorf("set enabled: %w", err)
	}

	v, err := e.vm.RunProgram(prog)
	if err != nil {
		return false, fmt.Errorf("evaluate: %w", err)
	}
	return v.ToBoolean(), nil
}

// Predicate returns a func that evaluates prog and panics on failure. The
// scheduler reports the panic as a fault of the command that asked.
func (e *Evaluator) Predicate(src string, prog *goja.Program) func() bool {
	return func() bool {
		ok, err := e.Bool(prog)
		if err != nil {
			panic(fmt.Errorf("expression %q: %w", src, err))
		}
		return ok
	}
}
