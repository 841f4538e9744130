package synth

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"voxscript/log"
)

// Render speaks one utterance and blocks until it is done or ctx ends.
type Render func(ctx context.Context, id, text string) error

// Queue runs utterances through a Render function one at a time, in FIFO
// order, on a single worker goroutine.
type Queue struct {
	render Render

	mu      sync.Mutex
	pending []*utterance
	current *utterance
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

func NewQueue(render Render) *Queue {
	q := &Queue{
		render: render,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

type utterance struct {
	id     string
	text   string
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	once sync.Once
	err  error
}

func (u *utterance) ID() string            { return u.id }
func (u *utterance) Done() <-chan struct{} { return u.done }
func (u *utterance) Err() error {
	select {
	case <-u.done:
		return u.err
	default:
		return nil
	}
}

func (u *utterance) finish(err error) {
	u.once.Do(func() {
		u.err = err
		u.cancel()
		close(u.done)
		if errors.Is(err, ErrCancelled) {
			log.UtteranceEnd(u.id, true, nil)
		} else {
			log.UtteranceEnd(u.id, false, err)
		}
	})
}

func (q *Queue) Submit(ctx context.Context, text string) Utterance {
	uctx, cancel := context.WithCancel(ctx)
	u := &utterance{
		id:     uuid.NewString(),
		text:   text,
		ctx:    uctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		u.finish(ErrCancelled)
		return u
	}
	q.pending = append(q.pending, u)
	q.mu.Unlock()

	log.UtteranceQueued(u.id, len(text))
	q.signal()
	return u
}

// CancelAll finishes every pending utterance with ErrCancelled and
// interrupts the one being rendered.
func (q *Queue) CancelAll() {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	current := q.current
	q.mu.Unlock()

	for _, u := range pending {
		u.finish(ErrCancelled)
	}
	if current != nil {
		current.cancel()
	}
}

// Close cancels everything and waits for the worker to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.CancelAll()
	q.signal()
	<-q.done
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) next() *utterance {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil
		}
		if len(q.pending) > 0 {
			u := q.pending[0]
			q.pending = q.pending[1:]
			q.current = u
			q.mu.Unlock()
			return u
		}
		q.mu.Unlock()
		<-q.wake
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		u := q.next()
		if u == nil {
			return
		}

		var err error
		if u.ctx.Err() == nil {
			err = q.render(u.ctx, u.id, u.text)
		}
		if u.ctx.Err() != nil {
			err = ErrCancelled
		}

		q.mu.Lock()
		q.current = nil
		q.mu.Unlock()
		u.finish(err)
	}
}
