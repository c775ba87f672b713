// Package script exposes the minimal host interface the embedded
// scripting runtime calls back into: read a register as string/int/
// float/bool, set a register, and read time since process start.
//
// No scripting-engine dependency exists anywhere in the example
// repositories this module was grounded on, and the interpreter itself
// is explicitly out of scope. Engine therefore ships a deliberately
// small statement interpreter — register get/set assignment expressions
// only — sufficient to exercise the binding contract and the
// catalogue's compile-time check.
package script

import (
	"time"
)

// Host is the binding contract an on_update script body is evaluated
// against. Get operations coerce from the stored typed value;
// impossible coercions return ok=false. Set honors the definition's
// access mode.
type Host interface {
	GetString(name string) (string, bool)
	GetInt(name string) (int64, bool)
	GetFloat(name string) (float64, bool)
	GetBool(name string) (bool, bool)
	Set(name string, value string) error
}

// TimeSource exposes C_Time to scripts: seconds/milliseconds since
// process start.
type TimeSource struct {
	start time.Time
}

func NewTimeSource(start time.Time) TimeSource { return TimeSource{start: start} }

func (t TimeSource) Get() int64   { return int64(time.Since(t.start).Seconds()) }
func (t TimeSource) GetMs() int64 { return time.Since(t.start).Milliseconds() }

// Program is a compiled on_update script, ready for repeated execution
// against a Host without re-parsing.
type Program struct {
	stmts []statement
	src   string
}

// Engine compiles and executes on_update scripts. Compile is called by
// config.BuildCatalogue at load time so a malformed script aborts startup
// rather than failing silently mid-poll.
type Engine struct {
	maxSteps int
}

// NewEngine builds an Engine that enforces an instruction budget per
// Execute call, per the design note prohibiting long-running scripts.
func NewEngine(maxSteps int) *Engine {
	if maxSteps <= 0 {
		maxSteps = 1000
	}
	return &Engine{maxSteps: maxSteps}
}

// Compile parses source into a Program, or returns a ConfigError-class
// syntax error. Called once per definition at catalogue build time.
func (e *Engine) Compile(src string) (*Program, error) {
	stmts, err := parse(src)
	if err != nil {
		return nil, err
	}
	return &Program{stmts: stmts, src: src}, nil
}

// Execute runs the compiled program once against host and clock.
// Errors are returned to the caller, which is expected to log them and
// continue — a script error never terminates the poll loop.
func (e *Engine) Execute(p *Program, host Host, clock TimeSource) error {
	vars := make(env)
	steps := 0
	for _, s := range p.stmts {
		steps++
		if steps > e.maxSteps {
			return &StepBudgetError{Limit: e.maxSteps}
		}
		if err := s.run(vars, host, clock); err != nil {
			return err
		}
	}
	return nil
}
