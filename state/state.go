// Package state holds the form's single state value and the pure transitions
// that move it. Controllers never mutate State directly; they dispatch events
// into a Store, which publishes snapshots to the view.
package state

type State struct {
	Transcript string
	Capturing  bool
	Speaking   bool
	Utterance  string // id of the most recently submitted utterance
}

func (s State) Empty() bool { return s.Transcript == "" }

type Event interface{ event() }

type (
	Edited          struct{ Text string }
	Recognized      struct{ Text string }
	CaptureStarted  struct{}
	CaptureStopped  struct{}
	SpeechStarted   struct{ Utterance string }
	SpeechEnded     struct{ Utterance string }
	SpeechCancelled struct{}
	Reset           struct{}
)

func (Edited) event()          {}
func (Recognized) event()      {}
func (CaptureStarted) event()  {}
func (CaptureStopped) event()  {}
func (SpeechStarted) event()   {}
func (SpeechEnded) event()     {}
func (SpeechCancelled) event() {}
func (Reset) event()           {}

// Apply returns the state that results from ev. It never mutates s.
func Apply(s State, ev Event) State {
	switch ev := ev.(type) {
	case Edited:
		s.Transcript = ev.Text
	case Recognized:
		s.Transcript = ev.Text
	case CaptureStarted:
		s.Capturing = true
	case CaptureStopped:
		s.Capturing = false
	case SpeechStarted:
		s.Speaking = true
		s.Utterance = ev.Utterance
	case SpeechEnded:
		// Earlier queued utterances finishing must not clear the flag.
		if ev.Utterance == s.Utterance {
			s.Speaking = false
			s.Utterance = ""
		}
	case SpeechCancelled:
		s.Speaking = false
		s.Utterance = ""
	case Reset:
		s = State{}
	}
	return s
}
