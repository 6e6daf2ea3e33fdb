// Package exec walks an ast.Node tree and runs it: spawning child
// processes for Simple commands, composing them for Pipe/And/Or/Seq,
// isolating state for Subshell, and detaching for Background.
package exec

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/opal-lang/shx/ast"
	"github.com/opal-lang/shx/internal/invariant"
	"github.com/opal-lang/shx/internal/reaper"
	"github.com/opal-lang/shx/internal/state"
)

// Executor runs command trees against a single, explicit State. It is
// not safe for concurrent use by multiple goroutines against the same
// instance - construct one Executor per logical shell session.
type Executor struct {
	state  *state.State
	reaper *reaper.Reaper
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Option configures a new Executor.
type Option func(*Executor)

// WithEnv seeds additional environment variables on top of the real
// process environment.
func WithEnv(env map[string]string) Option {
	return func(e *Executor) {
		for k, v := range env {
			e.state.Env[k] = v
		}
	}
}

// WithWorkdir sets the initial working directory.
func WithWorkdir(dir string) Option {
	return func(e *Executor) {
		if err := e.state.Chdir(dir); err != nil {
			panic("exec.WithWorkdir: " + err.Error())
		}
	}
}

// WithStdio overrides the default os.Stdin/os.Stdout/os.Stderr.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(e *Executor) {
		e.stdin, e.stdout, e.stderr = stdin, stdout, stderr
	}
}

// New returns an Executor seeded from the real process environment and
// working directory.
func New(opts ...Option) *Executor {
	e := &Executor{
		state:  state.NewState(),
		reaper: reaper.New(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the executor's current state, for callers and tests
// that inspect it.
func (e *Executor) State() *state.State { return e.state }

// Execute runs node to completion and returns its exit status, updating
// the executor's "?" status as a side effect. Every call first reports
// finished background children; a nil node then runs nothing, leaves
// "?" unchanged, and returns 0.
func (e *Executor) Execute(ctx context.Context, node ast.Node) int {
	invariant.NotNil(ctx, "ctx")

	e.reaper.Poll(e.stderr)

	if node == nil {
		return 0
	}

	pio := ioContext{stdin: e.stdin, stdout: e.stdout, stderr: e.stderr}
	return e.exec(ctx, node, pio)
}

// exec is the recursive dispatcher. It always records its result on
// e.state as the side effect that keeps "?" current - the original
// executor's update_status ran at the end of every process() call,
// including the non-forking recursion for Seq/And/Or, so a sibling
// command that inspects its own environment (printenv ?) sees the
// status of whichever command last finished, not just the status of
// the outermost Execute call.
func (e *Executor) exec(ctx context.Context, node ast.Node, pio ioContext) int {
	status := e.dispatch(ctx, node, pio)
	e.state.SetStatus(status)
	return status
}

func (e *Executor) dispatch(ctx context.Context, node ast.Node, pio ioContext) int {
	switch n := node.(type) {
	case *ast.Simple:
		return e.runSimple(ctx, n, pio)
	case *ast.Pipe:
		return e.runPipe(ctx, n, pio)
	case *ast.And:
		return e.runAnd(ctx, n, pio)
	case *ast.Or:
		return e.runOr(ctx, n, pio)
	case *ast.Seq:
		return e.runSeq(ctx, n, pio)
	case *ast.Background:
		return e.runBackground(ctx, n, pio)
	case *ast.Subshell:
		return e.runSubshell(ctx, n, pio)
	default:
		fmt.Fprintf(pio.stderr, "unsupported command type: %T\n", node)
		return 1
	}
}
