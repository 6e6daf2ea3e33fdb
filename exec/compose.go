package exec

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/opal-lang/shx/ast"
)

// runAnd runs Right only if Left exits 0.
func (e *Executor) runAnd(ctx context.Context, n *ast.And, pio ioContext) int {
	if sub, ok := asImplicitSubshell(n.Stdin, n.Stdout, n.Locals, &ast.And{Left: n.Left, Right: n.Right}); ok {
		return e.runSubshell(ctx, sub, pio)
	}
	left := e.exec(ctx, n.Left, pio)
	if left != 0 {
		return left
	}
	return e.exec(ctx, n.Right, pio)
}

// runOr runs Right only if Left exits non-zero.
func (e *Executor) runOr(ctx context.Context, n *ast.Or, pio ioContext) int {
	if sub, ok := asImplicitSubshell(n.Stdin, n.Stdout, n.Locals, &ast.Or{Left: n.Left, Right: n.Right}); ok {
		return e.runSubshell(ctx, sub, pio)
	}
	left := e.exec(ctx, n.Left, pio)
	if left == 0 {
		return left
	}
	return e.exec(ctx, n.Right, pio)
}

// runSeq runs Left then Right unconditionally; the status is Right's.
func (e *Executor) runSeq(ctx context.Context, n *ast.Seq, pio ioContext) int {
	if sub, ok := asImplicitSubshell(n.Stdin, n.Stdout, n.Locals, &ast.Seq{Left: n.Left, Right: n.Right}); ok {
		return e.runSubshell(ctx, sub, pio)
	}
	e.exec(ctx, n.Left, pio)
	return e.exec(ctx, n.Right, pio)
}

// runPipe connects Left's stdout to Right's stdin over a real OS pipe
// and runs both sides concurrently, each against its own copy of
// executor state. The original executor forks a child process per side,
// so neither side's cd/pushd/popd/locals are ever visible to the other
// or to the caller; giving each goroutine a State.Copy() is the
// single-process equivalent of that fork boundary. The reported status
// is Right's.
func (e *Executor) runPipe(ctx context.Context, n *ast.Pipe, pio ioContext) int {
	if sub, ok := asImplicitSubshell(n.Stdin, n.Stdout, n.Locals, &ast.Pipe{Left: n.Left, Right: n.Right}); ok {
		return e.runSubshell(ctx, sub, pio)
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		fmt.Fprintln(pio.stderr, "pipe:", err)
		return 1
	}

	left := &Executor{state: e.state.Copy(), reaper: e.reaper, stdin: e.stdin, stdout: e.stdout, stderr: e.stderr}
	right := &Executor{state: e.state.Copy(), reaper: e.reaper, stdin: e.stdin, stdout: e.stdout, stderr: e.stderr}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer pw.Close()
		left.exec(ctx, n.Left, pio.withStdout(pw))
	}()

	rightStatus := right.exec(ctx, n.Right, pio.withStdin(pr))
	pr.Close()
	wg.Wait()
	return rightStatus
}

// runSubshell runs Body against a private copy of the executor's
// state, so any cd/pushd/popd/local bindings inside it never escape.
func (e *Executor) runSubshell(ctx context.Context, n *ast.Subshell, pio ioContext) int {
	saved := e.state
	e.state = saved.Copy()
	defer func() { e.state = saved }()

	if len(n.Locals) > 0 {
		e.state.Env = e.state.WithLocals(n.Locals)
	}

	in, closeIn, err := e.resolveStdin(n.Stdin, pio)
	if err != nil {
		fmt.Fprintln(pio.stderr, err)
		return 1
	}
	if closeIn != nil {
		defer closeIn()
	}
	out, closeOut, err := e.resolveStdout(n.Stdout, pio)
	if err != nil {
		fmt.Fprintln(pio.stderr, err)
		return 1
	}
	if closeOut != nil {
		defer closeOut()
	}

	errw := pio.stderr
	if n.Stdout != nil && n.Stdout.Kind == ast.OutErr {
		errw = out
	}
	return e.exec(ctx, n.Body, ioContext{stdin: in, stdout: out, stderr: errw})
}

// asImplicitSubshell wraps body in an ast.Subshell when redirections or
// locals are attached to a composite node: spec.md requires a composite
// with its own redirections/bindings to behave exactly as if it were
// wrapped in a Subshell.
func asImplicitSubshell(stdin, stdout *ast.Redirect, locals []ast.Binding, body ast.Node) (*ast.Subshell, bool) {
	if stdin == nil && stdout == nil && len(locals) == 0 {
		return nil, false
	}
	return &ast.Subshell{Body: body, Stdin: stdin, Stdout: stdout, Locals: locals}, true
}
