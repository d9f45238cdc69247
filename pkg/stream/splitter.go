// Package stream turns raw process output into classified lines.
//
// A Splitter cuts arbitrary chunks into newline-terminated lines, a Classifier
// decides which of those lines belong to a visible span, and an Aggregator keeps
// every line of a job for the error report shown when nothing was visible.
package stream

import (
	"iter"
	"strings"
)

// Splitter buffers chunks of text and yields complete lines.
//
// The zero value is ready to use. A Splitter is not safe for concurrent use.
type Splitter struct {
	pending string
}

// Feed appends chunk to the internal buffer and returns the complete lines now
// available, without their trailing newline. Lines are cut lazily as the
// sequence is consumed; lines left unconsumed stay buffered for the next Feed.
func (s *Splitter) Feed(chunk string) iter.Seq[string] {
	s.pending += chunk
	return func(yield func(string) bool) {
		for {
			i := strings.IndexByte(s.pending, '\n')
			if i < 0 {
				return
			}
			line := s.pending[:i]
			s.pending = s.pending[i+1:]
			if !yield(line) {
				return
			}
		}
	}
}

// Pending returns the buffered partial line.
func (s *Splitter) Pending() string {
	return s.pending
}

// Close drops any partial line. Output that never ended in a newline is not
// delivered. It returns the number of bytes dropped.
func (s *Splitter) Close() int {
	n := len(s.pending)
	s.pending = ""
	return n
}
