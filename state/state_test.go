package state

import (
	"testing"
	"time"
)

func TestApply(t *testing.T) {
	for _, tt := range []struct {
		name string
		from State
		ev   Event
		want State
	}{
		{"edit", State{}, Edited{Text: "Hello world"}, State{Transcript: "Hello world"}},
		{"recognized replaces", State{Transcript: "Hel"}, Recognized{Text: "Hello world"}, State{Transcript: "Hello world"}},
		{"capture started", State{}, CaptureStarted{}, State{Capturing: true}},
		{"capture stopped", State{Capturing: true}, CaptureStopped{}, State{}},
		{"capture stopped idle", State{}, CaptureStopped{}, State{}},
		{"speech started", State{Transcript: "a"}, SpeechStarted{Utterance: "u1"}, State{Transcript: "a", Speaking: true, Utterance: "u1"}},
		{"speech ended", State{Speaking: true, Utterance: "u1"}, SpeechEnded{Utterance: "u1"}, State{}},
		{"queued utterance ended", State{Speaking: true, Utterance: "u2"}, SpeechEnded{Utterance: "u1"}, State{Speaking: true, Utterance: "u2"}},
		{"speech cancelled", State{Speaking: true, Utterance: "u1"}, SpeechCancelled{}, State{}},
		{"speech cancelled idle", State{}, SpeechCancelled{}, State{}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := Apply(tt.from, tt.ev); got != tt.want {
				t.Errorf("Apply(%+v, %T) = %+v, want %+v", tt.from, tt.ev, got, tt.want)
			}
		})
	}
}

func TestResetFromEveryState(t *testing.T) {
	for _, capturing := range []bool{false, true} {
		for _, speaking := range []bool{false, true} {
			for _, text := range []string{"", "abc"} {
				from := State{Transcript: text, Capturing: capturing, Speaking: speaking, Utterance: "u"}
				got := Apply(from, Reset{})
				if got != (State{}) {
					t.Errorf("Apply(%+v, Reset) = %+v, want zero state", from, got)
				}
				if again := Apply(got, Reset{}); again != (State{}) {
					t.Errorf("second Reset = %+v, want zero state", again)
				}
			}
		}
	}
}

func TestApplyDoesNotMutate(t *testing.T) {
	s := State{Transcript: "keep"}
	_ = Apply(s, Edited{Text: "changed"})
	if s.Transcript != "keep" {
		t.Errorf("input state mutated: %q", s.Transcript)
	}
}

func TestStoreDispatchPublishes(t *testing.T) {
	st := NewStore()
	ch := st.Subscribe()

	if got := <-ch; got != (State{}) {
		t.Fatalf("initial snapshot = %+v, want zero", got)
	}

	st.Dispatch(Edited{Text: "a"})
	st.Dispatch(Edited{Text: "ab"})
	st.Dispatch(CaptureStarted{})

	select {
	case got := <-ch:
		want := State{Transcript: "ab", Capturing: true}
		if got != want {
			t.Errorf("latest snapshot = %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}

	select {
	case extra := <-ch:
		t.Errorf("unexpected extra snapshot %+v", extra)
	default:
	}

	if snap := st.Snapshot(); snap.Transcript != "ab" {
		t.Errorf("Snapshot().Transcript = %q, want %q", snap.Transcript, "ab")
	}
}

func TestStoreConcurrentDispatch(t *testing.T) {
	st := NewStore()
	_ = st.Subscribe()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				st.Dispatch(Recognized{Text: "Hello world"})
				st.Dispatch(CaptureStarted{})
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	want := State{Transcript: "Hello world", Capturing: true}
	if got := st.Snapshot(); got != want {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
}
