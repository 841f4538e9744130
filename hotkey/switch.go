package hotkey

import (
	"context"
	"sync"
	"time"
)

type Action int

const (
	Start Action = iota
	Stop
)

func (a Action) String() string {
	if a == Start {
		return "start"
	}
	return "stop"
}

// Switch turns raw presses into capture actions. A tap starts capture and
// the next press stops it; holding the combo past longPress captures only
// until release.
type Switch struct {
	actions chan Action

	mu     sync.Mutex
	toggle bool
}

// NewSwitch reads hk until ctx is done, then closes Actions.
func NewSwitch(ctx context.Context, hk Hotkey, longPress time.Duration) *Switch {
	s := &Switch{actions: make(chan Action, 1)}
	go s.run(ctx, hk, longPress)
	return s
}

func (s *Switch) Actions() <-chan Action { return s.actions }

// isToggle reports whether the current capture was started by a tap.
func (s *Switch) isToggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toggle
}

func (s *Switch) setToggle(v bool) {
	s.mu.Lock()
	s.toggle = v
	s.mu.Unlock()
}

func (s *Switch) emit(ctx context.Context, a Action) bool {
	select {
	case s.actions <- a:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Switch) run(ctx context.Context, hk Hotkey, longPress time.Duration) {
	defer close(s.actions)

	wait := func(ch <-chan struct{}) bool {
		select {
		case <-ch:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		// any press starts at once; hold duration only decides how it stops
		if !wait(hk.Keydown()) || !s.emit(ctx, Start) {
			return
		}

		timer := time.NewTimer(longPress)
		select {
		case <-timer.C:
			if !wait(hk.Keyup()) {
				return
			}
		case <-hk.Keyup():
			timer.Stop()
			s.setToggle(true)
			if !wait(hk.Keydown()) || !wait(hk.Keyup()) {
				return
			}
		case <-ctx.Done():
			timer.Stop()
			return
		}

		s.setToggle(false)
		if !s.emit(ctx, Stop) {
			return
		}
	}
}
