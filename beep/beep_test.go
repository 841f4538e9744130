package beep

import (
	"testing"
	"time"

	"voxscript/audio"
)

func reset() {
	Close()
	mu.Lock()
	disabled = false
	mu.Unlock()
}

func waitPlayed(t *testing.T, f *audio.FakeContext, n int) [][]byte {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		played := f.Played()
		if len(played) >= n {
			return played
		}
		if time.Now().After(deadline) {
			t.Fatalf("played %d cues, want %d", len(played), n)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestGenerateTick(t *testing.T) {
	s := generateTick(sampleRate, startFreq, 0.2, startVolume, startDecay)
	if want := int(sampleRate * 0.2); len(s) != want {
		t.Errorf("len = %d, want %d", len(s), want)
	}
	if s[0] != 0 {
		t.Errorf("first sample = %d, want 0", s[0])
	}
	peak := int16(0)
	for _, v := range s {
		if v > peak {
			peak = v
		}
	}
	vol := float64(startVolume)
	if limit := int16(32767 * vol); peak == 0 || peak > limit {
		t.Errorf("peak = %d, want in (0, %d]", peak, limit)
	}
}

func TestDoubleBeepLength(t *testing.T) {
	beep := generateTick(sampleRate, errorFreq, 0.08, errorVolume, errorDecay)
	gap := int(sampleRate * 0.05)
	got := generateDoubleBeep(sampleRate, errorFreq, 0.08, 0.05, errorVolume, errorDecay)
	if want := 2*len(beep) + gap; len(got) != want {
		t.Errorf("len = %d, want %d", len(got), want)
	}
}

func TestCuesPlayThroughContext(t *testing.T) {
	reset()
	defer reset()

	f := audio.NewFakeContext(nil, false)
	Init(f)
	PlayStart()
	waitPlayed(t, f, 1)
	PlayEnd()
	PlayError()
	played := waitPlayed(t, f, 3)

	lengths := map[int]bool{}
	for _, p := range played {
		lengths[len(p)] = true
	}
	if !lengths[len(startPCM)] || !lengths[len(errorPCM)] {
		t.Errorf("unexpected cue lengths %v", lengths)
	}
}

func TestDisabledCuesAreSilent(t *testing.T) {
	reset()
	defer reset()

	f := audio.NewFakeContext(nil, false)
	Init(f)
	Disable()
	PlayStart()
	PlayError()
	time.Sleep(20 * time.Millisecond)
	if n := len(f.Played()); n != 0 {
		t.Errorf("played %d cues while disabled", n)
	}
}

func TestNoContextIsSilent(t *testing.T) {
	reset()
	PlayStart() // must not panic
}
