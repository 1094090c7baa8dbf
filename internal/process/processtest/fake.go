// Package processtest provides a scripted process.Runner for tests.
package processtest

import (
	"context"
	"strings"
	"sync"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/process"
)

// Call records one Run invocation.
type Call struct {
	Name string
	Args []string
}

// Has reports whether flag appears in the call's arguments.
func (c Call) Has(flag string) bool {
	for _, a := range c.Args {
		if a == flag {
			return true
		}
	}
	return false
}

// Value returns the argument following flag, or "".
func (c Call) Value(flag string) string {
	for i, a := range c.Args {
		if a == flag && i+1 < len(c.Args) {
			return c.Args[i+1]
		}
	}
	return ""
}

// Last returns the final argument, typically the output path.
func (c Call) Last() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[len(c.Args)-1]
}

// String renders the call as a command line.
func (c Call) String() string {
	return c.Name + " " + strings.Join(c.Args, " ")
}

// HandlerFunc scripts the outcome of a call.
type HandlerFunc func(ctx context.Context, call Call) (process.Result, error)

// Runner is a process.Runner that delegates to a handler and records calls.
type Runner struct {
	mu      sync.Mutex
	handler HandlerFunc
	calls   []Call
}

// NewRunner returns a Runner driven by handler.
func NewRunner(handler HandlerFunc) *Runner {
	return &Runner{handler: handler}
}

// Run implements process.Runner.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (process.Result, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}

	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return process.Result{ExitCode: -1}, err
	}
	return r.handler(ctx, call)
}

// Calls returns a copy of the recorded calls.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsTo returns recorded calls for the named binary.
func (r *Runner) CallsTo(name string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Exit builds a Result with the given status and stderr.
func Exit(code int, stderr string) process.Result {
	return process.Result{ExitCode: code, Stderr: stderr}
}
