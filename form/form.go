// Package form holds the user intents of the dictation form: editing,
// toggling capture and playback, and the copy, download and reset actions.
package form

import (
	"context"
	"errors"
	"fmt"

	"voxscript/capture"
	"voxscript/clipboard"
	"voxscript/export"
	"voxscript/log"
	"voxscript/playback"
	"voxscript/state"
)

type Form struct {
	store    *state.Store
	capture  *capture.Controller
	playback *playback.Controller
	clip     clipboard.Clipboard
	saver    export.Saver
}

func New(store *state.Store, c *capture.Controller, p *playback.Controller, clip clipboard.Clipboard, saver export.Saver) *Form {
	return &Form{store: store, capture: c, playback: p, clip: clip, saver: saver}
}

func (f *Form) State() state.State { return f.store.Snapshot() }

// Edit replaces the transcript with manually typed text.
func (f *Form) Edit(text string) {
	if f.store.Snapshot().Transcript == text {
		return
	}
	f.store.Dispatch(state.Edited{Text: text})
}

// ToggleCapture stops a live capture or starts a new one, deciding from the
// state at the time of the call. started reports which way it went.
func (f *Form) ToggleCapture(ctx context.Context) (started bool, err error) {
	if f.store.Snapshot().Capturing {
		return false, f.capture.Stop()
	}
	return true, f.capture.Start(ctx)
}

// TogglePlayback speaks the transcript, or stops speaking. It does nothing
// while the transcript is empty.
func (f *Form) TogglePlayback(ctx context.Context) error {
	s := f.store.Snapshot()
	if s.Empty() {
		return nil
	}
	if s.Speaking {
		f.playback.Stop()
		return nil
	}
	return f.playback.Speak(ctx, s.Transcript)
}

// Copy puts the transcript on the clipboard. Empty transcripts are ignored.
func (f *Form) Copy() error {
	text := f.store.Snapshot().Transcript
	if text == "" {
		return nil
	}
	if f.clip == nil {
		return errors.New("copy: no clipboard")
	}
	if err := f.clip.Copy(text); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}

// Download saves the transcript and returns the saved location, or "" when
// the transcript is empty.
func (f *Form) Download() (string, error) {
	text := f.store.Snapshot().Transcript
	if text == "" {
		return "", nil
	}
	if f.saver == nil {
		return "", errors.New("download: no export target")
	}
	path, err := f.saver.Save(export.NewPayload(text))
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	log.Export(path, len(text))
	return path, nil
}

// Reset stops playback and capture, then clears the form.
func (f *Form) Reset() error {
	chars := len(f.store.Snapshot().Transcript)

	f.playback.Stop()
	err := f.capture.Stop()
	f.store.Dispatch(state.Reset{})

	log.Reset(chars)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}
