//go:build !windows

package shutdown

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestContextCancelledBySignal(t *testing.T) {
	ctx, cancel := Context(context.Background())
	defer cancel()

	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatal(err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled by SIGTERM")
	}
}

func TestNotify(t *testing.T) {
	ch := make(chan os.Signal, 1)
	Notify(ch)
	defer Stop(ch)

	if err := syscall.Kill(os.Getpid(), syscall.SIGINT); err != nil {
		t.Fatal(err)
	}
	select {
	case sig := <-ch:
		if sig != os.Interrupt {
			t.Errorf("got %v, want interrupt", sig)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("signal not relayed")
	}
}
