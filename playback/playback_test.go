package playback

import (
	"context"
	"errors"
	"testing"
	"time"

	"voxscript/capability"
	"voxscript/state"
	"voxscript/synth"
)

func waitFor(t *testing.T, store *state.Store, what string, ok func(state.State) bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !ok(store.Snapshot()) {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s; state = %+v", what, store.Snapshot())
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func notSpeaking(s state.State) bool { return !s.Speaking }

func TestSpeakThenComplete(t *testing.T) {
	store := state.NewStore()
	syn := synth.NewFake()
	defer syn.Close()
	c := New(syn, store)

	store.Dispatch(state.Edited{Text: "Hello world"})
	if err := c.Speak(context.Background(), store.Snapshot().Transcript); err != nil {
		t.Fatal(err)
	}
	s := store.Snapshot()
	if !s.Speaking || s.Utterance == "" {
		t.Fatalf("state after Speak = %+v, want speaking", s)
	}
	if !c.Speaking() || c.Count() != 1 {
		t.Errorf("Speaking() = %v, Count() = %d", c.Speaking(), c.Count())
	}

	syn.Finish(s.Utterance)
	waitFor(t, store, "completion", notSpeaking)
	if got := store.Snapshot().Transcript; got != "Hello world" {
		t.Errorf("transcript = %q, want it untouched", got)
	}
}

func TestOnlyLatestUtteranceClearsSpeaking(t *testing.T) {
	store := state.NewStore()
	syn := synth.NewFake()
	defer syn.Close()
	c := New(syn, store)

	if err := c.Speak(context.Background(), "first"); err != nil {
		t.Fatal(err)
	}
	first := store.Snapshot().Utterance
	if err := c.Speak(context.Background(), "second"); err != nil {
		t.Fatal(err)
	}
	second := store.Snapshot().Utterance
	if first == second {
		t.Fatal("utterance ids should differ")
	}

	syn.Finish(first)
	time.Sleep(30 * time.Millisecond)
	if s := store.Snapshot(); !s.Speaking || s.Utterance != second {
		t.Fatalf("after first completes: %+v, want still speaking %s", s, second)
	}

	syn.Finish(second)
	waitFor(t, store, "second completion", notSpeaking)
}

func TestFailedUtteranceClearsSpeaking(t *testing.T) {
	store := state.NewStore()
	syn := synth.NewFake()
	defer syn.Close()
	c := New(syn, store)

	if err := c.Speak(context.Background(), "text"); err != nil {
		t.Fatal(err)
	}
	syn.Fail(store.Snapshot().Utterance, errors.New("network down"))
	waitFor(t, store, "failure", notSpeaking)
}

func TestStopCancels(t *testing.T) {
	store := state.NewStore()
	syn := synth.NewFake()
	defer syn.Close()
	c := New(syn, store)

	c.Speak(context.Background(), "one")
	c.Speak(context.Background(), "two")
	c.Stop()

	if s := store.Snapshot(); s.Speaking || s.Utterance != "" {
		t.Errorf("state after Stop = %+v", s)
	}
	time.Sleep(20 * time.Millisecond)
	if store.Snapshot().Speaking {
		t.Error("cancelled utterance set Speaking again")
	}
	if got := syn.Spoken(); len(got) > 1 {
		t.Errorf("spoken = %v, queued utterance should never start", got)
	}

	c.Stop() // idle stop is harmless
	if store.Snapshot().Speaking {
		t.Error("Speaking after second Stop")
	}
}

func TestSpeakEmptyText(t *testing.T) {
	store := state.NewStore()
	syn := synth.NewFake()
	defer syn.Close()
	c := New(syn, store)

	if err := c.Speak(context.Background(), ""); !errors.Is(err, ErrEmptyText) {
		t.Errorf("err = %v, want ErrEmptyText", err)
	}
	if store.Snapshot() != (state.State{}) {
		t.Errorf("state changed: %+v", store.Snapshot())
	}
}

func TestSpeakUnavailable(t *testing.T) {
	disabled := synth.NewFake()
	defer disabled.Close()
	disabled.SetAvailable(false)

	for _, tt := range []struct {
		name string
		syn  synth.Synthesizer
	}{
		{"nil synthesizer", nil},
		{"disabled", disabled},
	} {
		t.Run(tt.name, func(t *testing.T) {
			store := state.NewStore()
			store.Dispatch(state.Edited{Text: "Hello"})
			before := store.Snapshot()

			c := New(tt.syn, store)
			err := c.Speak(context.Background(), "Hello")
			if !errors.Is(err, capability.ErrUnavailable) {
				t.Fatalf("err = %v, want ErrUnavailable", err)
			}
			if after := store.Snapshot(); after != before {
				t.Errorf("state changed: %+v -> %+v", before, after)
			}
		})
	}
}
