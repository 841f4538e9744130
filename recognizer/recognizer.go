// Package recognizer provides streaming speech-to-text sessions. A session
// reports, on every change, the complete ordered list of segments it has
// recognised so far; consumers rebuild their text from that list instead of
// appending.
package recognizer

import (
	"context"
	"strings"
)

type Segment struct {
	Text  string
	Final bool
}

type Result struct {
	Segments []Segment
}

// Transcript concatenates every segment's text in order. Segments carry
// their own leading whitespace, so no separator is inserted.
func (r Result) Transcript() string {
	var b strings.Builder
	for _, s := range r.Segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

type SessionConfig struct {
	Continuous bool   // keep listening after the first final segment
	Interim    bool   // report partial hypotheses, not only final segments
	Language   string // empty = provider default
}

type Session interface {
	// Results is closed when the session ends, whether by Stop or failure.
	Results() <-chan Result
	// Stop ends capture and releases the session. Safe to call repeatedly.
	Stop() error
	// Err reports why the session ended on its own, if it did.
	Err() error
}

type Recognizer interface {
	Name() string
	// Available probes whether the capability can be used on this host.
	Available() bool
	NewSession(ctx context.Context, cfg SessionConfig) (Session, error)
}
