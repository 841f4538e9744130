// Package capture drives recognition sessions and mirrors their results into
// the transcript store.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"voxscript/capability"
	"voxscript/log"
	"voxscript/recognizer"
	"voxscript/state"
)

type Config struct {
	Language string
	Device   string // for logging only
	// OnFailure is called when a session ends on its own with an error.
	OnFailure func(error)
}

type Controller struct {
	rec   recognizer.Recognizer
	store *state.Store
	cfg   Config

	mu       sync.Mutex
	live     *run
	captures int
}

// run is one recognition session owned by the controller.
type run struct {
	sess    recognizer.Session
	cancel  context.CancelFunc
	started time.Time
	text    string
}

func New(rec recognizer.Recognizer, store *state.Store, cfg Config) *Controller {
	return &Controller{rec: rec, store: store, cfg: cfg}
}

// Start opens a new session, stopping any live one first.
func (c *Controller) Start(ctx context.Context) error {
	if c.rec == nil {
		return capability.Unavailable(capability.Recognition, "no recognizer configured")
	}
	if !c.rec.Available() {
		return capability.Unavailable(capability.Recognition, c.rec.Name()+" is not available")
	}

	if err := c.Stop(); err != nil {
		log.Warnf("previous capture session: %v", err)
	}

	sctx, cancel := context.WithCancel(ctx)
	sess, err := c.rec.NewSession(sctx, recognizer.SessionConfig{
		Continuous: true,
		Interim:    true,
		Language:   c.cfg.Language,
	})
	if err != nil {
		cancel()
		return fmt.Errorf("start recognition: %w", err)
	}
	r := &run{sess: sess, cancel: cancel, started: time.Now()}

	c.mu.Lock()
	prev := c.live
	c.live = r
	c.captures++
	c.store.Dispatch(state.CaptureStarted{})
	c.mu.Unlock()

	// a concurrent Start won the race; its session is already detached
	if prev != nil {
		go c.finish(prev, "replaced")
	}

	log.CaptureStart(c.rec.Name(), c.cfg.Device, c.cfg.Language)
	go c.consume(r)
	return nil
}

// Stop ends the live session. It is a no-op when idle.
func (c *Controller) Stop() error {
	c.mu.Lock()
	r := c.live
	if r == nil {
		c.mu.Unlock()
		return nil
	}
	c.live = nil
	c.store.Dispatch(state.CaptureStopped{})
	c.mu.Unlock()

	return c.finish(r, "user")
}

func (c *Controller) Capturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live != nil
}

// Count returns how many sessions have been started.
func (c *Controller) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.captures
}

func (c *Controller) consume(r *run) {
	for res := range r.sess.Results() {
		text := res.Transcript()
		c.mu.Lock()
		if c.live == r {
			r.text = text
			c.store.Dispatch(state.Recognized{Text: text})
		}
		c.mu.Unlock()
	}

	c.mu.Lock()
	if c.live != r {
		c.mu.Unlock()
		return
	}
	c.live = nil
	c.store.Dispatch(state.CaptureStopped{})
	c.mu.Unlock()

	reason := "ended"
	if err := r.sess.Err(); err != nil {
		reason = "error"
		log.Errorf("recognition session ended: %v", err)
		if c.cfg.OnFailure != nil {
			c.cfg.OnFailure(err)
		}
	}
	c.finish(r, reason)
}

func (c *Controller) finish(r *run, reason string) error {
	r.cancel()
	err := r.sess.Stop()

	c.mu.Lock()
	text := r.text
	c.mu.Unlock()

	log.CaptureStop(reason, len(text), time.Since(r.started))
	if text != "" {
		log.TranscriptText(text)
	}
	switch {
	case err == nil, reason == "error":
		return nil
	case errors.Is(err, context.Canceled) && (reason == "user" || reason == "replaced"):
		// we cancelled the session ourselves
		return nil
	}
	return fmt.Errorf("stop recognition: %w", err)
}
