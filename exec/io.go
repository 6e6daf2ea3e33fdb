package exec

import "io"

// ioContext is the stdin/stdout/stderr triple threaded through a
// recursive Execute call. It mirrors the teacher's decorator.ExecContext
// shape: a small value type copied and overridden rather than mutated in
// place, so a Pipe's two sides can each see a different stdin/stdout
// without affecting their caller's.
type ioContext struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (c ioContext) withStdin(r io.Reader) ioContext {
	c.stdin = r
	return c
}

func (c ioContext) withStdout(w io.Writer) ioContext {
	c.stdout = w
	return c
}
