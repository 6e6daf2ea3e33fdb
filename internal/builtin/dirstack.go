package builtin

import (
	"fmt"
	"io"
	"strings"

	"github.com/opal-lang/shx/internal/state"
)

func init() {
	Register("pushd", pushd)
	Register("popd", popd)
}

// pushd changes directory to its single argument, remembering the old
// directory on top of the stack, then prints the new cwd followed by
// the stack from most- to least-recently pushed.
func pushd(st *state.State, stdout, stderr io.Writer, argv []string) int {
	if len(argv) != 2 {
		fmt.Fprintln(stderr, "pushd: wrong number of arguments")
		return 1
	}
	old := st.Cwd
	if err := st.Chdir(argv[1]); err != nil {
		fmt.Fprintf(stderr, "pushd: %s\n", errMessage(err))
		return errnoOf(err)
	}
	st.DirStack = append(st.DirStack, old)
	printDirStack(st, stdout)
	return 0
}

// popd pops the top of the directory stack and changes to it, printing
// the new cwd and remaining stack. An empty stack is an error.
func popd(st *state.State, stdout, stderr io.Writer, argv []string) int {
	if len(argv) != 1 {
		fmt.Fprintln(stderr, "popd: wrong number of arguments")
		return 1
	}
	if len(st.DirStack) == 0 {
		fmt.Fprintln(stderr, "popd: directory stack empty")
		return 1
	}
	top := st.DirStack[len(st.DirStack)-1]
	if err := st.Chdir(top); err != nil {
		fmt.Fprintf(stderr, "popd: %s\n", errMessage(err))
		return errnoOf(err)
	}
	st.DirStack = st.DirStack[:len(st.DirStack)-1]
	printDirStack(st, stdout)
	return 0
}

// printDirStack prints the cwd followed by the stack top-to-bottom
// (most recently pushed first), space-separated, matching the original
// executor's print_dir_stack layout.
func printDirStack(st *state.State, w io.Writer) {
	parts := make([]string, 0, len(st.DirStack)+1)
	parts = append(parts, st.Cwd)
	for i := len(st.DirStack) - 1; i >= 0; i-- {
		parts = append(parts, st.DirStack[i])
	}
	fmt.Fprintln(w, strings.Join(parts, " "))
}
