package recognizer

import "strings"

type streamUpdate struct {
	Results      bool // false for metadata/VAD messages
	Transcript   string
	IsFinal      bool
	SpeechFinal  bool
	FromFinalize bool
}

// segmentList accumulates finalised segments plus the latest interim
// hypothesis for a single session.
type segmentList struct {
	finals  []string
	interim string
}

// apply folds u into the list and reports whether the visible result changed.
func (l *segmentList) apply(u streamUpdate, interim bool) bool {
	if !u.Results {
		return false
	}
	text := strings.TrimSpace(u.Transcript)
	final := u.IsFinal || u.SpeechFinal || u.FromFinalize

	if !final {
		if !interim || text == l.interim {
			return false
		}
		l.interim = text
		return true
	}

	changed := l.interim != ""
	l.interim = ""
	if text != "" {
		l.finals = append(l.finals, text)
		changed = true
	}
	return changed
}

func (l *segmentList) result() Result {
	segs := make([]Segment, 0, len(l.finals)+1)
	for _, f := range l.finals {
		segs = append(segs, Segment{Text: spaced(f, len(segs)), Final: true})
	}
	if l.interim != "" {
		segs = append(segs, Segment{Text: spaced(l.interim, len(segs))})
	}
	return Result{Segments: segs}
}

func (l *segmentList) finalText() string {
	return strings.Join(l.finals, " ")
}

func spaced(text string, index int) string {
	if index == 0 {
		return text
	}
	return " " + text
}
