// Package capability names the host services VoxScript depends on and the
// error reported when one of them is missing.
package capability

import (
	"errors"
	"fmt"
)

const (
	Recognition = "speech recognition"
	Synthesis   = "speech synthesis"
	Clipboard   = "clipboard"
)

// ErrUnavailable matches every UnavailableError through errors.Is.
var ErrUnavailable = errors.New("capability unavailable")

type UnavailableError struct {
	Capability string
	Reason     string
}

func (e *UnavailableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is not supported on this host", e.Capability)
	}
	return fmt.Sprintf("%s is not supported on this host: %s", e.Capability, e.Reason)
}

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

func Unavailable(name, reason string) error {
	return &UnavailableError{Capability: name, Reason: reason}
}
