package exec

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opal-lang/shx/ast"
	"github.com/opal-lang/shx/internal/exectest"
)

func simple(argv ...string) *ast.Simple { return &ast.Simple{Argv: argv} }

func TestSimpleExitStatus(t *testing.T) {
	cases := []struct {
		name string
		argv []string
		want int
	}{
		{"success", []string{"true"}, 0},
		{"failure", []string{"false"}, 1},
		{"notfound", []string{"shx-definitely-not-a-real-command"}, 127},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := exectest.NewRecordingWriter()
			e := New(WithStdio(strings.NewReader(""), out, out))
			got := e.Execute(context.Background(), simple(tc.argv...))
			if got != tc.want {
				t.Errorf("status = %d, want %d (output: %q)", got, tc.want, out.String())
			}
		})
	}
}

func TestAndShortCircuits(t *testing.T) {
	out := exectest.NewRecordingWriter()
	e := New(WithStdio(strings.NewReader(""), out, out))

	tree := &ast.And{Left: simple("false"), Right: simple("echo", "unreachable")}
	status := e.Execute(context.Background(), tree)

	if status != 1 {
		t.Fatalf("status = %d, want 1", status)
	}
	if strings.Contains(out.String(), "unreachable") {
		t.Errorf("And ran Right after Left failed: %q", out.String())
	}
}

func TestOrShortCircuits(t *testing.T) {
	out := exectest.NewRecordingWriter()
	e := New(WithStdio(strings.NewReader(""), out, out))

	tree := &ast.Or{Left: simple("true"), Right: simple("echo", "unreachable")}
	status := e.Execute(context.Background(), tree)

	if status != 0 {
		t.Fatalf("status = %d, want 0", status)
	}
	if strings.Contains(out.String(), "unreachable") {
		t.Errorf("Or ran Right after Left succeeded: %q", out.String())
	}
}

func TestSeqRunsBothUnconditionally(t *testing.T) {
	out := exectest.NewRecordingWriter()
	e := New(WithStdio(strings.NewReader(""), out, out))

	tree := &ast.Seq{Left: simple("false"), Right: simple("echo", "reached")}
	status := e.Execute(context.Background(), tree)

	if status != 0 {
		t.Fatalf("status = %d, want 0 (Right's status)", status)
	}
	if !strings.Contains(out.String(), "reached") {
		t.Errorf("Seq did not run Right after Left failed: %q", out.String())
	}
}

func TestPipeConnectsStdoutToStdin(t *testing.T) {
	out := exectest.NewRecordingWriter()
	e := New(WithStdio(strings.NewReader(""), out, out))

	tree := &ast.Pipe{
		Left:  &ast.Simple{Argv: []string{"printf", "%s", "hello"}},
		Right: &ast.Simple{Argv: []string{"cat"}},
	}
	status := e.Execute(context.Background(), tree)

	if status != 0 {
		t.Fatalf("status = %d, want 0", status)
	}
	if out.String() != "hello" {
		t.Errorf("piped output = %q, want %q", out.String(), "hello")
	}
}

func TestPipeStatusIsRights(t *testing.T) {
	out := exectest.NewRecordingWriter()
	e := New(WithStdio(strings.NewReader(""), out, out))

	tree := &ast.Pipe{
		Left:  &ast.Simple{Argv: []string{"true"}},
		Right: &ast.Simple{Argv: []string{"false"}},
	}
	status := e.Execute(context.Background(), tree)

	if status != 1 {
		t.Fatalf("status = %d, want 1 (Right's status)", status)
	}
}

func TestRedirectOutTruncThenAppend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	e := New(WithStdio(strings.NewReader(""), exectest.NewRecordingWriter(), exectest.NewRecordingWriter()))

	first := &ast.Simple{
		Argv:   []string{"printf", "%s", "one"},
		Stdout: &ast.Redirect{Kind: ast.OutTrunc, Spec: path},
	}
	if status := e.Execute(context.Background(), first); status != 0 {
		t.Fatalf("first write status = %d", status)
	}

	second := &ast.Simple{
		Argv:   []string{"printf", "%s", "two"},
		Stdout: &ast.Redirect{Kind: ast.OutAppend, Spec: path},
	}
	if status := e.Execute(context.Background(), second); status != 0 {
		t.Fatalf("second write status = %d", status)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "onetwo" {
		t.Errorf("file contents = %q, want %q", string(data), "onetwo")
	}
}

func TestRedirectInHere(t *testing.T) {
	out := exectest.NewRecordingWriter()
	e := New(WithStdio(strings.NewReader(""), out, out))

	tree := &ast.Simple{
		Argv:  []string{"cat"},
		Stdin: &ast.Redirect{Kind: ast.InHere, Spec: "here we go\n"},
	}
	status := e.Execute(context.Background(), tree)

	if status != 0 {
		t.Fatalf("status = %d, want 0", status)
	}
	if out.String() != "here we go\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestSeqSiblingSeesPrecedingStatus(t *testing.T) {
	out := exectest.NewRecordingWriter()
	e := New(WithStdio(strings.NewReader(""), out, out))

	tree := &ast.Seq{
		Left:  simple("false"),
		Right: &ast.Simple{Argv: []string{"printenv", "?"}},
	}
	status := e.Execute(context.Background(), tree)

	if status != 0 {
		t.Fatalf("status = %d, want 0 (Right's status)", status)
	}
	if !strings.Contains(out.String(), "1") {
		t.Errorf("Right did not observe Left's exit status in its \"?\" environment variable: %q", out.String())
	}
}

func TestBuiltinIgnoresOwnRedirection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	out := exectest.NewRecordingWriter()
	e := New(WithStdio(strings.NewReader(""), out, out))

	tree := &ast.Simple{
		Argv:   []string{"pushd", dir},
		Stdout: &ast.Redirect{Kind: ast.OutTrunc, Spec: path},
	}
	status := e.Execute(context.Background(), tree)

	if status != 0 {
		t.Fatalf("status = %d, want 0: %s", status, out.String())
	}
	if out.String() == "" {
		t.Errorf("pushd's output went to the redirection file instead of the ambient stdout")
	}
	if _, err := os.Stat(path); err == nil {
		t.Errorf("redirection file %q was created; builtins must ignore attached redirections", path)
	}
}

func TestSubshellIsolatesWorkdir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	out := exectest.NewRecordingWriter()
	e := New(WithWorkdir(dir), WithStdio(strings.NewReader(""), out, out))

	tree := &ast.Subshell{
		Body: &ast.Seq{
			Left:  &ast.Simple{Argv: []string{"cd", sub}},
			Right: &ast.Simple{Argv: []string{"pwd"}},
		},
	}
	status := e.Execute(context.Background(), tree)

	if status != 0 {
		t.Fatalf("status = %d, want 0: %s", status, out.String())
	}
	if e.State().Cwd != dir {
		t.Errorf("subshell cd leaked into parent state: Cwd = %q, want %q", e.State().Cwd, dir)
	}
}

func TestBackgroundReportsPidAndRunsRightInForeground(t *testing.T) {
	restore := selfExecutable
	selfExecutable = func() (string, error) { return lookPath(t, "true"), nil }
	defer func() { selfExecutable = restore }()

	out := exectest.NewRecordingWriter()
	e := New(WithStdio(strings.NewReader(""), out, out))

	tree := &ast.Background{Left: simple("true"), Right: simple("echo", "foreground-ran")}
	status := e.Execute(context.Background(), tree)

	if status != 0 {
		t.Fatalf("status = %d, want 0 (Right's status)", status)
	}
	if !strings.Contains(out.String(), "Backgrounded: ") {
		t.Errorf("expected a Backgrounded line, got %q", out.String())
	}
	if !strings.Contains(out.String(), "foreground-ran") {
		t.Errorf("expected Right to run in the foreground, got %q", out.String())
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !strings.Contains(out.String(), "Completed: ") {
		e.Execute(context.Background(), nil)
		time.Sleep(10 * time.Millisecond)
	}
	if !strings.Contains(out.String(), "Completed: ") {
		t.Errorf("background child was never reaped: %q", out.String())
	}
}

func lookPath(t *testing.T, name string) string {
	t.Helper()
	for _, dir := range []string{"/bin", "/usr/bin"} {
		p := dir + "/" + name
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	t.Skipf("%s not found", name)
	return ""
}
