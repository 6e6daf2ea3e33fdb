// Package exectest provides small test doubles for the executor test
// suite: a call-counting writer, grounded on the teacher's
// MonitoredSession/SessionStats pattern (core/decorator/testing.go),
// adapted here to observe writes instead of Session method calls.
package exectest

import (
	"bytes"
	"sync"
)

// RecordingWriter wraps a bytes.Buffer and counts Write calls, so a
// test can assert not just the bytes an executed tree produced but how
// many Write calls delivered them. It is safe for concurrent writers.
type RecordingWriter struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	Calls int
}

// NewRecordingWriter returns a ready RecordingWriter.
func NewRecordingWriter() *RecordingWriter {
	return &RecordingWriter{}
}

func (w *RecordingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Calls++
	return w.buf.Write(p)
}

// String returns everything written so far.
func (w *RecordingWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}
