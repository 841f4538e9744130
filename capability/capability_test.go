package capability

import (
	"errors"
	"fmt"
	"testing"
)

func TestUnavailableMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("start capture: %w", Unavailable(Recognition, "set DEEPGRAM_API_KEY"))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("errors.Is(%v, ErrUnavailable) = false", err)
	}

	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatal("errors.As did not find *UnavailableError")
	}
	if ue.Capability != Recognition {
		t.Errorf("Capability = %q, want %q", ue.Capability, Recognition)
	}
}

func TestUnavailableMessage(t *testing.T) {
	for _, tt := range []struct {
		reason, want string
	}{
		{"", "speech synthesis is not supported on this host"},
		{"set OPENAI_API_KEY", "speech synthesis is not supported on this host: set OPENAI_API_KEY"},
	} {
		t.Run(tt.want, func(t *testing.T) {
			if got := Unavailable(Synthesis, tt.reason).Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOtherErrorsDoNotMatch(t *testing.T) {
	if errors.Is(errors.New("boom"), ErrUnavailable) {
		t.Error("unrelated error matched ErrUnavailable")
	}
}
