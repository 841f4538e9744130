package synth

import (
	"context"
	"sync"

	"voxscript/capability"
)

// Fake is a Synthesizer whose utterances only complete when the test says
// so. It runs on the same Queue as the real synthesizer.
type Fake struct {
	queue *Queue

	mu          sync.Mutex
	unavailable bool
	spoken      []string
	active      string
	finish      map[string]chan error
}

func NewFake() *Fake {
	f := &Fake{finish: make(map[string]chan error)}
	f.queue = NewQueue(f.render)
	return f
}

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

func (f *Fake) Speak(ctx context.Context, text string) (Utterance, error) {
	if !f.Available() {
		return nil, capability.Unavailable(capability.Synthesis, "fake synthesizer disabled")
	}
	return f.queue.Submit(ctx, text), nil
}

func (f *Fake) CancelAll() { f.queue.CancelAll() }

func (f *Fake) Close() { f.queue.Close() }

// Finish completes utterance id, now or as soon as it starts playing.
func (f *Fake) Finish(id string) { f.complete(id, nil) }

// Fail ends utterance id with err.
func (f *Fake) Fail(id string, err error) { f.complete(id, err) }

// Active returns the id of the utterance being played, or "".
func (f *Fake) Active() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Spoken returns the texts that started playing, in order.
func (f *Fake) Spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.spoken))
	copy(out, f.spoken)
	return out
}

func (f *Fake) complete(id string, err error) {
	ch := f.channel(id)
	select {
	case ch <- err:
	default:
	}
}

func (f *Fake) channel(id string) chan error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.finish[id]
	if !ok {
		ch = make(chan error, 1)
		f.finish[id] = ch
	}
	return ch
}

func (f *Fake) render(ctx context.Context, id, text string) error {
	ch := f.channel(id)

	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.active = id
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active = ""
		delete(f.finish, id)
		f.mu.Unlock()
	}()

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
