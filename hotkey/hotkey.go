// Package hotkey listens for the global Ctrl+Shift+Space combination so
// dictation can be toggled while another window has focus.
package hotkey

const Combo = "Ctrl+Shift+Space"

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}
