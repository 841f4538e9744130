// Package shutdown reports interrupt and terminate requests.
package shutdown

import (
	"context"
	"os"
	"os/signal"
)

// Notify relays the platform's shutdown signals to ch.
func Notify(ch chan os.Signal) {
	signal.Notify(ch, signals...)
}

// Context returns a copy of parent that is cancelled on the first shutdown
// signal.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// Stop undoes Notify for ch.
func Stop(ch chan os.Signal) {
	signal.Stop(ch)
}
