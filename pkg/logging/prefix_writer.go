package logging

import (
	"bytes"
	"io"
	"sync"
)

// PrefixWriter prepends a fixed prefix to every line written through it.
// Nothing is buffered: a partial line is passed on at once and the line that
// continues it is not prefixed again.
type PrefixWriter struct {
	mu      sync.Mutex
	prefix  []byte
	writer  io.Writer
	midLine bool
}

// NewPrefixWriter creates a new PrefixWriter.
func NewPrefixWriter(prefix string, w io.Writer) *PrefixWriter {
	return &PrefixWriter{
		prefix: []byte(prefix),
		writer: w,
	}
}

// Write implements io.Writer with a single write to the underlying writer.
func (pw *PrefixWriter) Write(p []byte) (int, error) {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	buf := make([]byte, 0, len(p)+len(pw.prefix))
	rest := p
	for len(rest) > 0 {
		if !pw.midLine {
			buf = append(buf, pw.prefix...)
		}
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			buf = append(buf, rest...)
			pw.midLine = true
			break
		}
		buf = append(buf, rest[:i+1]...)
		pw.midLine = false
		rest = rest[i+1:]
	}

	if _, err := pw.writer.Write(buf); err != nil {
		return 0, err
	}
	return len(p), nil
}
