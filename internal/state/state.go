package state

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/opal-lang/shx/ast"
	"github.com/opal-lang/shx/internal/invariant"
)

// State is the mutable process-wide state a command tree executes
// against: an environment, a working directory, a directory stack for
// pushd/popd, and the last foreground exit status ("$?").
//
// State is never a package global; it is carried as a field on
// Executor and copied explicitly wherever a node (Subshell, the
// backgrounded side of Background) needs isolation, so a subshell's
// cd/pushd/popd can never leak into its caller.
type State struct {
	Env      map[string]string
	Cwd      string
	DirStack []string
	Status   int
}

// NewState returns a State seeded from the real process environment and
// working directory.
func NewState() *State {
	return &State{
		Env: envToMap(os.Environ()),
		Cwd: mustGetwd(),
	}
}

// Copy returns a deep copy, used whenever a node must execute against
// isolated state (Subshell, a backgrounded child).
func (s *State) Copy() *State {
	env := make(map[string]string, len(s.Env))
	for k, v := range s.Env {
		env[k] = v
	}
	stack := make([]string, len(s.DirStack))
	copy(stack, s.DirStack)
	return &State{
		Env:      env,
		Cwd:      s.Cwd,
		DirStack: stack,
		Status:   s.Status,
	}
}

// WithLocals returns an environment map combining s.Env with the given
// local bindings layered on top, without mutating s. With no bindings it
// returns s.Env itself; otherwise it returns a new map. Locals only ever
// live in the returned map (a single *exec.Cmd's Env, or the Env of a
// Subshell's private state copy) - they never touch s.Env itself, which
// is what keeps a command's local variable assignments from leaking
// into its siblings.
func (s *State) WithLocals(locals []ast.Binding) map[string]string {
	if len(locals) == 0 {
		return s.Env
	}
	merged := make(map[string]string, len(s.Env)+len(locals))
	for k, v := range s.Env {
		merged[k] = v
	}
	for _, b := range locals {
		merged[b.Name] = b.Value
	}
	return merged
}

// SetStatus records the last foreground exit status, keeping the "?"
// environment entry in sync the way the original C executor's
// update_status kept a real setenv("?", ...) in sync - a Simple command
// that reads its own environment observes the same value this
// executor's prose describes abstractly as "the variable ?".
func (s *State) SetStatus(status int) {
	s.Status = status
	s.Env["?"] = strconv.Itoa(status)
}

// Chdir resolves dir against Cwd if relative, verifies it is a real
// directory, and assigns it. It never calls os.Chdir: the real process
// working directory is untouched, only this State's Cwd field changes.
func (s *State) Chdir(dir string) error {
	invariant.Precondition(dir != "", "dir must not be empty")

	resolved := dir
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(s.Cwd, resolved)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &os.PathError{Op: "chdir", Path: resolved, Err: os.ErrInvalid}
	}
	s.Cwd = resolved
	return nil
}

func envToMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if idx := strings.IndexByte(kv, '='); idx > 0 {
			m[kv[:idx]] = kv[idx+1:]
		}
	}
	return m
}

// MapToEnv converts an environment map to the os/exec.Cmd.Env form.
func MapToEnv(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

func mustGetwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		panic("failed to get current working directory: " + err.Error())
	}
	return cwd
}
