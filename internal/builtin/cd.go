package builtin

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/opal-lang/shx/internal/state"
)

func init() {
	Register("cd", cd)
}

// cd changes the executor's recorded working directory. With no
// arguments it goes to $HOME; with one argument it goes there; any more
// is an error. It never calls os.Chdir - only state.Cwd changes.
func cd(st *state.State, stdout, stderr io.Writer, argv []string) int {
	var target string
	switch len(argv) {
	case 1:
		home, ok := st.Env["HOME"]
		if !ok || home == "" {
			fmt.Fprintln(stderr, "cd: HOME not set")
			return 1
		}
		target = home
	case 2:
		target = argv[1]
	default:
		fmt.Fprintln(stderr, "cd: too many arguments")
		return 1
	}

	if err := st.Chdir(target); err != nil {
		fmt.Fprintf(stderr, "cd: %s\n", errMessage(err))
		return errnoOf(err)
	}
	return 0
}

func errMessage(err error) string {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}

func errnoOf(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return 1
}
