package recognizer

import (
	"context"
	"sync"

	"voxscript/capability"
)

// Fake is a Recognizer whose sessions emit whatever the test tells them to.
type Fake struct {
	mu          sync.Mutex
	unavailable bool
	sessions    []*FakeSession
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) Name() string { return "fake" }

func (f *Fake) SetAvailable(ok bool) {
	f.mu.Lock()
	f.unavailable = !ok
	f.mu.Unlock()
}

func (f *Fake) Available() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.unavailable
}

func (f *Fake) NewSession(_ context.Context, cfg SessionConfig) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable {
		return nil, capability.Unavailable(capability.Recognition, "fake recognizer disabled")
	}
	s := &FakeSession{Config: cfg, results: make(chan Result, 64)}
	f.sessions = append(f.sessions, s)
	return s, nil
}

// Current returns the most recently created session, or nil.
func (f *Fake) Current() *FakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sessions) == 0 {
		return nil
	}
	return f.sessions[len(f.sessions)-1]
}

// Sessions returns every session created so far, oldest first.
func (f *Fake) Sessions() []*FakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*FakeSession, len(f.sessions))
	copy(out, f.sessions)
	return out
}

type FakeSession struct {
	Config SessionConfig

	mu      sync.Mutex
	results chan Result
	ended   bool
	stopped bool
	err     error
}

// Emit delivers one Result built from segments, in order. It reports false
// once the session has ended.
func (s *FakeSession) Emit(segments ...string) bool {
	r := Result{Segments: make([]Segment, len(segments))}
	for i, text := range segments {
		r.Segments[i] = Segment{Text: text}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false
	}
	select {
	case s.results <- r:
		return true
	default:
		return false
	}
}

// Fail ends the session as if the provider had dropped it.
func (s *FakeSession) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.err = err
	s.ended = true
	close(s.results)
}

func (s *FakeSession) Results() <-chan Result { return s.results }

func (s *FakeSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if !s.ended {
		s.ended = true
		close(s.results)
	}
	return nil
}

func (s *FakeSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *FakeSession) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
