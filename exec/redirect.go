package exec

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/opal-lang/shx/ast"
)

// openStdin resolves an ast.Redirect of kind InFile or InHere into an
// open file to hand directly to *exec.Cmd.Stdin (or a builtin), letting
// os/exec dup the fd straight onto the child's stdin without an
// intermediate copy goroutine.
//
// InHere writes its literal body to a temp file and removes the path
// immediately: the still-open descriptor keeps the data alive until
// whoever holds it closes it, which is the here-document's lifetime.
// This is the Go-native form of the original executor's
// mkstemp+write+unlink sequence.
func openStdin(r *ast.Redirect, cwd string) (*os.File, error) {
	switch r.Kind {
	case ast.InFile:
		path := r.Spec
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
		return os.Open(path)
	case ast.InHere:
		f, err := os.CreateTemp("", "shx-heredoc-*")
		if err != nil {
			return nil, err
		}
		if _, err := f.WriteString(r.Spec); err != nil {
			f.Close()
			return nil, err
		}
		if _, err := f.Seek(0, 0); err != nil {
			f.Close()
			return nil, err
		}
		_ = os.Remove(f.Name())
		return f, nil
	default:
		return nil, fmt.Errorf("not an input redirection: %v", r.Kind)
	}
}

// openStdout resolves an ast.Redirect of kind OutTrunc, OutAppend, or
// OutErr. For OutErr the same *os.File is returned for both stdout and
// stderr assignment by the caller; Go/os/exec recognize the identical
// *os.File value and dup it onto both fds without double-opening.
func openStdout(r *ast.Redirect, cwd string) (*os.File, error) {
	path := r.Spec
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	switch r.Kind {
	case ast.OutTrunc, ast.OutErr:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	case ast.OutAppend:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	default:
		return nil, fmt.Errorf("not an output redirection: %v", r.Kind)
	}
}
