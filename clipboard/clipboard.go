// Package clipboard wraps the system clipboard.
package clipboard

import (
	"fmt"
	"sync"

	cb "github.com/atotto/clipboard"

	"voxscript/capability"
)

type Clipboard interface {
	Copy(text string) error
	Read() (string, error)
}

// System is the host clipboard. On Linux it needs xclip, xsel or
// wl-clipboard on PATH.
type System struct{}

func (System) Available() bool { return !cb.Unsupported }

func (s System) Copy(text string) error {
	if !s.Available() {
		return capability.Unavailable(capability.Clipboard, "no clipboard utility found")
	}
	if err := cb.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	return nil
}

func (s System) Read() (string, error) {
	if !s.Available() {
		return "", capability.Unavailable(capability.Clipboard, "no clipboard utility found")
	}
	text, err := cb.ReadAll()
	if err != nil {
		return "", fmt.Errorf("clipboard read: %w", err)
	}
	return text, nil
}

// Memory is an in-process clipboard for tests and headless runs.
type Memory struct {
	mu   sync.Mutex
	text string
	err  error
}

// FailWith makes every later Copy return err.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *Memory) Copy(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.text = text
	return nil
}

func (m *Memory) Read() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}
