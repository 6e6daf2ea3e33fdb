package builtin

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/opal-lang/shx/internal/state"
)

func newTestState(t *testing.T) *state.State {
	t.Helper()
	home := t.TempDir()
	return &state.State{
		Env: map[string]string{"HOME": home},
		Cwd: home,
	}
}

func TestCdNoArgsGoesHome(t *testing.T) {
	st := newTestState(t)
	sub := filepath.Join(st.Cwd, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	st.Cwd = sub

	var stdout, stderr bytes.Buffer
	status := cd(st, &stdout, &stderr, []string{"cd"})

	if status != 0 {
		t.Fatalf("status = %d, stderr = %q", status, stderr.String())
	}
	if st.Cwd != st.Env["HOME"] {
		t.Errorf("Cwd = %q, want %q", st.Cwd, st.Env["HOME"])
	}
}

func TestCdMissingHome(t *testing.T) {
	st := newTestState(t)
	delete(st.Env, "HOME")

	var stdout, stderr bytes.Buffer
	status := cd(st, &stdout, &stderr, []string{"cd"})

	if status != 1 {
		t.Fatalf("status = %d, want 1", status)
	}
	if stderr.String() != "cd: HOME not set\n" {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestCdTooManyArgs(t *testing.T) {
	st := newTestState(t)

	var stdout, stderr bytes.Buffer
	status := cd(st, &stdout, &stderr, []string{"cd", "a", "b"})

	if status != 1 {
		t.Fatalf("status = %d, want 1", status)
	}
}

func TestCdNonexistentDir(t *testing.T) {
	st := newTestState(t)

	var stdout, stderr bytes.Buffer
	status := cd(st, &stdout, &stderr, []string{"cd", filepath.Join(st.Cwd, "does-not-exist")})

	if status == 0 {
		t.Fatal("expected a nonzero status for a missing directory")
	}
	if st.Cwd != st.Env["HOME"] {
		t.Errorf("Cwd changed on failed cd: %q", st.Cwd)
	}
}

func TestCdDoesNotTouchRealProcessCwd(t *testing.T) {
	st := newTestState(t)
	realCwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	cd(st, &stdout, &stderr, []string{"cd"})

	after, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if after != realCwd {
		t.Errorf("real process cwd changed: %q -> %q", realCwd, after)
	}
}
