// Package playback reads the transcript aloud and keeps the store's
// Speaking flag in step with the synthesizer.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"voxscript/capability"
	"voxscript/log"
	"voxscript/state"
	"voxscript/synth"
)

var ErrEmptyText = errors.New("nothing to speak")

type Controller struct {
	syn   synth.Synthesizer
	store *state.Store

	mu         sync.Mutex
	utterances int
}

func New(syn synth.Synthesizer, store *state.Store) *Controller {
	return &Controller{syn: syn, store: store}
}

// Speak queues text behind any earlier utterance and marks the store as
// speaking. Speaking clears when the most recent utterance finishes.
func (c *Controller) Speak(ctx context.Context, text string) error {
	if c.syn == nil {
		return capability.Unavailable(capability.Synthesis, "no synthesizer configured")
	}
	if !c.syn.Available() {
		return capability.Unavailable(capability.Synthesis, c.syn.Name()+" is not available")
	}
	if text == "" {
		return ErrEmptyText
	}

	u, err := c.syn.Speak(ctx, text)
	if err != nil {
		return fmt.Errorf("speak: %w", err)
	}

	c.mu.Lock()
	c.utterances++
	c.mu.Unlock()

	c.store.Dispatch(state.SpeechStarted{Utterance: u.ID()})
	go c.watch(u)
	return nil
}

func (c *Controller) watch(u synth.Utterance) {
	<-u.Done()
	if err := u.Err(); err != nil && !errors.Is(err, synth.ErrCancelled) {
		log.Errorf("utterance %s failed: %v", u.ID(), err)
	}
	c.store.Dispatch(state.SpeechEnded{Utterance: u.ID()})
}

// Stop cancels every queued and playing utterance.
func (c *Controller) Stop() {
	if c.syn != nil {
		c.syn.CancelAll()
	}
	c.store.Dispatch(state.SpeechCancelled{})
}

func (c *Controller) Speaking() bool {
	return c.store.Snapshot().Speaking
}

// Count returns how many utterances have been submitted.
func (c *Controller) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.utterances
}
