package exec

import (
	"context"
	"errors"
	"fmt"
	"io"
	osexec "os/exec"
	"runtime"
	"syscall"

	"github.com/opal-lang/shx/ast"
	"github.com/opal-lang/shx/internal/builtin"
	"github.com/opal-lang/shx/internal/invariant"
	"github.com/opal-lang/shx/internal/state"
)

// runSimple executes a Simple node: a registered builtin if argv[0]
// names one, otherwise a spawned child process.
func (e *Executor) runSimple(ctx context.Context, n *ast.Simple, pio ioContext) int {
	invariant.Precondition(len(n.Argv) > 0, "Simple.Argv must not be empty")

	// Builtins run in the executor process itself and ignore any
	// redirections attached to the node - the original handle_builtin
	// returns before execute_simple ever installs a redirection, and a
	// caller wanting a redirected builtin must wrap it in a Subshell,
	// whose own stdin/stdout resolution applies before Body executes.
	if fn, ok := builtin.Lookup(n.Argv[0]); ok {
		return fn(e.state, pio.stdout, pio.stderr, n.Argv)
	}

	stdin, closeIn, err := e.resolveStdin(n.Stdin, pio)
	if err != nil {
		fmt.Fprintf(pio.stderr, "%s: %v\n", n.Argv[0], err)
		return 1
	}
	if closeIn != nil {
		defer closeIn()
	}
	stdout, closeOut, err := e.resolveStdout(n.Stdout, pio)
	if err != nil {
		fmt.Fprintf(pio.stderr, "%s: %v\n", n.Argv[0], err)
		return 1
	}
	if closeOut != nil {
		defer closeOut()
	}

	return e.spawn(ctx, n, stdin, stdout, pio.stderr)
}

// resolveStdin picks the node's own redirection if present, else falls
// back to the surrounding ioContext's stdin (which may itself be a
// Pipe's read end). It returns a cleanup to close a file it opened.
func (e *Executor) resolveStdin(r *ast.Redirect, pio ioContext) (io.Reader, func(), error) {
	if r == nil {
		return pio.stdin, nil, nil
	}
	f, err := openStdin(r, e.state.Cwd)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// resolveStdout mirrors resolveStdin for output redirection.
func (e *Executor) resolveStdout(r *ast.Redirect, pio ioContext) (io.Writer, func(), error) {
	if r == nil {
		return pio.stdout, nil, nil
	}
	f, err := openStdout(r, e.state.Cwd)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func (e *Executor) spawn(ctx context.Context, n *ast.Simple, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := osexec.CommandContext(ctx, n.Argv[0], n.Argv[1:]...)
	cmd.Dir = e.state.Cwd
	cmd.Env = state.MapToEnv(e.state.WithLocals(n.Locals))
	configureProcessGroup(cmd)

	cmd.Stdin = stdin
	cmd.Stdout = stdout
	// An OutErr redirect sends stderr to the same *os.File as stdout;
	// every other case keeps the surrounding context's stderr, matching
	// the original executor's "no redirection means inherit the
	// caller's fds" default.
	if n.Stdout != nil && n.Stdout.Kind == ast.OutErr {
		cmd.Stderr = stdout
	} else {
		cmd.Stderr = stderr
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, osexec.ErrNotFound) {
			msg := fmt.Sprintf("%s: command not found", n.Argv[0])
			if hint := builtin.Suggest(n.Argv[0]); hint != "" {
				msg += fmt.Sprintf(" (did you mean %q?)", hint)
			}
			fmt.Fprintln(stderr, msg)
			return 127
		}
		fmt.Fprintf(stderr, "%s: %v\n", n.Argv[0], err)
		return 126
	}

	err := cmd.Wait()
	return translateExit(cmd, err)
}

func translateExit(cmd *osexec.Cmd, err error) int {
	if err == nil {
		return 0
	}
	var exitErr *osexec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
		return exitErr.ExitCode()
	}
	return 1
}

func configureProcessGroup(cmd *osexec.Cmd) {
	if runtime.GOOS == "windows" {
		return
	}
	configureProcessGroupUnix(cmd)
}
