package clipboard

import (
	"errors"
	"testing"
)

func TestMemory(t *testing.T) {
	var m Memory
	if got, _ := m.Read(); got != "" {
		t.Errorf("empty clipboard read %q", got)
	}
	if err := m.Copy("Hello world"); err != nil {
		t.Fatal(err)
	}
	if got, _ := m.Read(); got != "Hello world" {
		t.Errorf("got %q, want %q", got, "Hello world")
	}

	boom := errors.New("denied")
	m.FailWith(boom)
	if err := m.Copy("other"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
	if got, _ := m.Read(); got != "Hello world" {
		t.Errorf("failed copy changed contents to %q", got)
	}
}

func TestSystemRoundTrip(t *testing.T) {
	var s System
	if !s.Available() {
		t.Skip("no clipboard utility on this host")
	}
	prev, err := s.Read()
	if err != nil {
		t.Skipf("clipboard not readable: %v", err)
	}
	defer s.Copy(prev)

	if err := s.Copy("voxscript clipboard test"); err != nil {
		t.Skipf("clipboard not writable: %v", err)
	}
	if got, _ := s.Read(); got != "voxscript clipboard test" {
		t.Errorf("got %q", got)
	}
}
