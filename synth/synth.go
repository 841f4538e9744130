// Package synth reads text aloud. Utterances are spoken one at a time in
// the order they were submitted.
package synth

import (
	"context"
	"errors"
)

var ErrCancelled = errors.New("utterance cancelled")

type Utterance interface {
	ID() string
	// Done is closed when the utterance finished, failed or was cancelled.
	Done() <-chan struct{}
	// Err is nil for a completed utterance and ErrCancelled for a cancelled
	// one. Only meaningful after Done is closed.
	Err() error
}

type Synthesizer interface {
	Name() string
	Available() bool
	// Speak queues text behind any earlier utterances and returns at once.
	Speak(ctx context.Context, text string) (Utterance, error)
	// CancelAll drops every queued utterance and interrupts the one playing.
	CancelAll()
}
