package exec

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	osexec "os/exec"

	"github.com/opal-lang/shx/ast"
	"github.com/opal-lang/shx/internal/planfmt"
	"github.com/opal-lang/shx/internal/reaper"
	"github.com/opal-lang/shx/internal/state"
)

// ResumeFlag is the hidden argument cmd/shx recognizes before any cobra
// command parsing: when present, the process is a self-reexec'd
// background child rather than a normal invocation.
const ResumeFlag = "--shx-resume="

// selfExecutable resolves the path to re-invoke for a backgrounded
// command. It is a variable so tests can point it at a stand-in binary
// instead of the real test binary, which has no idea what ResumeFlag
// means.
var selfExecutable = os.Executable

// resumePayload is the (node, state) pair carried across a self-reexec,
// written to a temp file whose path is passed to the child; the child
// removes the file once it has read it (the parent removes it only when
// the child could not be started).
type resumePayload struct {
	Node     json.RawMessage   `json:"node"`
	Env      map[string]string `json:"env"`
	Cwd      string            `json:"cwd"`
	DirStack []string          `json:"dir_stack"`
}

// runBackground runs Left asynchronously in a re-exec'd copy of the
// current binary - the only construct that needs a genuine, independent
// OS process with its own reportable PID regardless of what Left
// contains - then, if Right is present, runs it in the foreground.
func (e *Executor) runBackground(ctx context.Context, n *ast.Background, pio ioContext) int {
	if sub, ok := asImplicitSubshell(n.Stdin, n.Stdout, n.Locals, &ast.Background{Left: n.Left, Right: n.Right}); ok {
		return e.runSubshell(ctx, sub, pio)
	}

	pid, cmd, err := e.spawnBackground(ctx, n.Left, pio)
	if err != nil {
		fmt.Fprintln(pio.stderr, "background:", err)
		return 1
	}
	fmt.Fprintf(pio.stderr, "Backgrounded: %d\n", pid)
	e.reaper.Track(cmd)

	if n.Right == nil {
		return 0
	}
	return e.exec(ctx, n.Right, pio)
}

// spawnBackground writes the (node, state) payload to a temp file,
// re-invokes the running binary with ResumeFlag pointing at it, and
// returns the child's pid once it has started.
func (e *Executor) spawnBackground(ctx context.Context, left ast.Node, pio ioContext) (int, *osexec.Cmd, error) {
	encoded, err := planfmt.Encode(left)
	if err != nil {
		return 0, nil, err
	}
	payload := resumePayload{
		Node:     encoded,
		Env:      e.state.Env,
		Cwd:      e.state.Cwd,
		DirStack: e.state.DirStack,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	f, err := os.CreateTemp("", "shx-bg-*.json")
	if err != nil {
		return 0, nil, err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return 0, nil, err
	}
	if err := f.Close(); err != nil {
		return 0, nil, err
	}

	self, err := selfExecutable()
	if err != nil {
		os.Remove(f.Name())
		return 0, nil, err
	}

	cmd := osexec.CommandContext(ctx, self, ResumeFlag+f.Name())
	cmd.Stdin = pio.stdin
	cmd.Stdout = pio.stdout
	cmd.Stderr = pio.stderr
	configureProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		os.Remove(f.Name())
		return 0, nil, err
	}
	return cmd.Process.Pid, cmd, nil
}

// ResumeBackground is called by cmd/shx's main before cobra parses any
// flags, when os.Args carries ResumeFlag. It decodes the payload at
// path, runs it to completion against a fresh Executor seeded from the
// carried-over state, and returns the exit status to report via
// os.Exit.
func ResumeBackground(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	os.Remove(path)

	var payload resumePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, err
	}
	node, err := planfmt.Decode(payload.Node)
	if err != nil {
		return 0, err
	}

	st := &state.State{
		Env:      payload.Env,
		Cwd:      payload.Cwd,
		DirStack: payload.DirStack,
	}
	e := &Executor{
		state:  st,
		reaper: reaper.New(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	return e.Execute(context.Background(), node), nil
}
