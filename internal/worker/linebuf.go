package worker

import "bytes"

// maxLineBytes bounds a buffered partial line; longer lines are dropped.
const maxLineBytes = 64 * 1024

// lineSplitter reassembles newline-terminated lines from arbitrary chunks.
// Not safe for concurrent use: each stream gets its own splitter.
type lineSplitter struct {
	buf      []byte
	emit     func(string)
	overflow bool
}

func newLineSplitter(emit func(string)) *lineSplitter {
	return &lineSplitter{emit: emit}
}

func (ls *lineSplitter) Write(p []byte) (int, error) {
	ls.buf = append(ls.buf, p...)
	for {
		idx := bytes.IndexByte(ls.buf, '\n')
		if idx < 0 {
			break
		}
		line := ls.buf[:idx]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		if !ls.overflow && len(line) > 0 {
			ls.emit(string(line))
		}
		ls.overflow = false
		ls.buf = ls.buf[idx+1:]
	}
	if len(ls.buf) > maxLineBytes {
		ls.buf = ls.buf[:0]
		ls.overflow = true
	}
	return len(p), nil
}

// Flush emits a trailing unterminated line, if any.
func (ls *lineSplitter) Flush() {
	if len(ls.buf) > 0 && !ls.overflow {
		ls.emit(string(bytes.TrimRight(ls.buf, "\r")))
	}
	ls.buf = nil
	ls.overflow = false
}
