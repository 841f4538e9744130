package synth

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"voxscript/capability"
)

func waitDone(t *testing.T, u Utterance) {
	t.Helper()
	select {
	case <-u.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("utterance %s never finished", u.ID())
	}
}

func waitActive(t *testing.T, f *Fake, id string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for f.Active() != id {
		if time.Now().After(deadline) {
			t.Fatalf("utterance %s never started; active = %q", id, f.Active())
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func isDone(u Utterance) bool {
	select {
	case <-u.Done():
		return true
	default:
		return false
	}
}

func speak(t *testing.T, s Synthesizer, text string) Utterance {
	t.Helper()
	u, err := s.Speak(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestQueuePlaysInOrder(t *testing.T) {
	f := NewFake()
	defer f.Close()

	first := speak(t, f, "one")
	second := speak(t, f, "two")
	if first.ID() == "" || first.ID() == second.ID() {
		t.Fatalf("ids not unique: %q %q", first.ID(), second.ID())
	}

	waitActive(t, f, first.ID())
	f.Finish(second.ID()) // not started yet; must wait its turn
	time.Sleep(20 * time.Millisecond)
	if isDone(second) {
		t.Fatal("second utterance finished before the first")
	}

	f.Finish(first.ID())
	waitDone(t, first)
	waitDone(t, second)
	if first.Err() != nil || second.Err() != nil {
		t.Errorf("errors = %v, %v", first.Err(), second.Err())
	}
	if got, want := f.Spoken(), []string{"one", "two"}; !reflect.DeepEqual(got, want) {
		t.Errorf("spoken = %v, want %v", got, want)
	}
}

func TestQueueCancelAll(t *testing.T) {
	f := NewFake()
	defer f.Close()

	playing := speak(t, f, "one")
	queued := speak(t, f, "two")
	waitActive(t, f, playing.ID())

	f.CancelAll()
	waitDone(t, playing)
	waitDone(t, queued)
	for _, u := range []Utterance{playing, queued} {
		if !errors.Is(u.Err(), ErrCancelled) {
			t.Errorf("%s: err = %v, want ErrCancelled", u.ID(), u.Err())
		}
	}
	if got := f.Spoken(); len(got) != 1 {
		t.Errorf("spoken = %v, want only the first", got)
	}

	// the queue keeps working after a cancel
	next := speak(t, f, "three")
	f.Finish(next.ID())
	waitDone(t, next)
	if next.Err() != nil {
		t.Errorf("err = %v", next.Err())
	}
}

func TestQueueRenderFailure(t *testing.T) {
	f := NewFake()
	defer f.Close()

	boom := errors.New("synthesis failed")
	u := speak(t, f, "one")
	f.Fail(u.ID(), boom)
	waitDone(t, u)
	if !errors.Is(u.Err(), boom) {
		t.Errorf("err = %v, want %v", u.Err(), boom)
	}
}

func TestQueueErrBeforeDone(t *testing.T) {
	f := NewFake()
	defer f.Close()

	u := speak(t, f, "one")
	if u.Err() != nil {
		t.Errorf("Err() before Done = %v", u.Err())
	}
	f.Finish(u.ID())
	waitDone(t, u)
}

func TestQueueClosed(t *testing.T) {
	f := NewFake()
	playing := speak(t, f, "one")
	waitActive(t, f, playing.ID())

	f.Close()
	waitDone(t, playing)
	if !errors.Is(playing.Err(), ErrCancelled) {
		t.Errorf("err = %v, want ErrCancelled", playing.Err())
	}

	late := speak(t, f, "two")
	waitDone(t, late)
	if !errors.Is(late.Err(), ErrCancelled) {
		t.Errorf("late err = %v, want ErrCancelled", late.Err())
	}
	f.Close()
}

func TestFakeUnavailable(t *testing.T) {
	f := NewFake()
	defer f.Close()
	f.SetAvailable(false)

	if f.Available() {
		t.Error("Available() = true")
	}
	if _, err := f.Speak(context.Background(), "hi"); !errors.Is(err, capability.ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}
