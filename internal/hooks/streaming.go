package hooks

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// prefixWriter prefixes every complete line written to it. Stdout and stderr
// of one command share a mutex so their lines never interleave mid-line.
type prefixWriter struct {
	prefix string
	target io.Writer
	mu     *sync.Mutex
	buf    bytes.Buffer
}

func newPrefixWriter(prefix string, target io.Writer, mu *sync.Mutex) *prefixWriter {
	return &prefixWriter{prefix: prefix, target: target, mu: mu}
}

func (w *prefixWriter) Write(p []byte) (n int, err error) {
	n, err = w.buf.Write(p)
	if err != nil {
		return n, err
	}

	for {
		line, readErr := w.buf.ReadString('\n')
		if readErr != nil {
			if line != "" {
				w.buf.WriteString(line)
			}
			break
		}

		w.mu.Lock()
		_, writeErr := fmt.Fprintf(w.target, "%s %s", w.prefix, line)
		w.mu.Unlock()
		if writeErr != nil {
			return n, writeErr
		}
	}

	return n, nil
}

// Flush writes a trailing partial line, if any.
func (w *prefixWriter) Flush() error {
	remaining := w.buf.String()
	if remaining == "" {
		return nil
	}
	w.buf.Reset()

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintf(w.target, "%s %s\n", w.prefix, remaining)
	return err
}

// tailBuffer keeps the last max lines written to it.
type tailBuffer struct {
	max   int
	lines []string
	buf   bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf.Write(p)
	for {
		line, err := t.buf.ReadString('\n')
		if err != nil {
			t.buf.WriteString(line)
			break
		}
		t.push(line[:len(line)-1])
	}
	return len(p), nil
}

func (t *tailBuffer) push(line string) {
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *tailBuffer) String() string {
	if t.buf.Len() > 0 {
		t.push(t.buf.String())
		t.buf.Reset()
	}
	var out bytes.Buffer
	for i, line := range t.lines {
		if i > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(line)
	}
	return out.String()
}
