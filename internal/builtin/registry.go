// Package builtin implements the executor's small set of commands that
// must run in-process rather than as a spawned child: cd, pushd, and
// popd all mutate executor state directly, which is impossible from a
// forked-and-exec'd process.
//
// Registration uses the database/sql driver pattern: a mutex-protected
// map, populated by each builtin's own init(), looked up by name.
package builtin

import (
	"io"
	"sync"

	"github.com/opal-lang/shx/internal/state"
)

// Func is a builtin's entry point. It mutates st directly and returns
// the exit status to report.
type Func func(st *state.State, stdout, stderr io.Writer, argv []string) int

type registry struct {
	mu      sync.RWMutex
	entries map[string]Func
}

var global = &registry{entries: make(map[string]Func)}

// Register adds a builtin under name. Called from each builtin file's
// init().
func Register(name string, fn Func) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.entries[name] = fn
}

// Lookup returns the builtin registered under name, if any.
func Lookup(name string) (Func, bool) {
	global.mu.RLock()
	defer global.mu.RUnlock()
	fn, ok := global.entries[name]
	return fn, ok
}

// Names returns every registered builtin name, for did-you-mean
// suggestions on the command-not-found path.
func Names() []string {
	global.mu.RLock()
	defer global.mu.RUnlock()
	names := make([]string, 0, len(global.entries))
	for name := range global.entries {
		names = append(names, name)
	}
	return names
}
