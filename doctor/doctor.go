// Package doctor probes every capability VoxScript depends on and prints a
// PASS/FAIL line for each.
package doctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"voxscript/audio"
	"voxscript/capability"
	"voxscript/clipboard"
	"voxscript/hotkey"
	"voxscript/recognizer"
	"voxscript/shutdown"
	"voxscript/synth"
)

const (
	listenFor  = 3 * time.Second
	speakFor   = 15 * time.Second
	testPhrase = "VoxScript can read text aloud."
	clipProbe  = "voxscript-doctor-test"
)

type Config struct {
	Audio       audio.Context
	Recognizer  recognizer.Recognizer
	Synthesizer synth.Synthesizer
	Clipboard   clipboard.Clipboard
	ExportDir   string
	Language    string
	// Hotkey overrides the platform hotkey probe.
	Hotkey      func() (string, error)

	// Interactive runs a short live dictation and an audible test phrase.
	Interactive bool
	In          io.Reader
	Out         io.Writer
}

type check struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// Run executes every check and returns an exit code (0=all pass, 1=any fail).
func Run(cfg Config) int {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	ctx, cancel := shutdown.Context(context.Background())
	defer cancel()
	if cfg.Interactive {
		defer resetTerminal()
	}

	out := cfg.Out
	fmt.Fprintln(out, "voxscript doctor - capability diagnostics")
	fmt.Fprintln(out, "==========================================")

	checks := []check{
		{"Audio devices", cfg.checkAudio},
		{"Speech recognition", cfg.checkRecognition},
		{"Speech synthesis", cfg.checkSynthesis},
		{"Clipboard", cfg.checkClipboard},
		{"Export directory", cfg.checkExportDir},
		{"Global hotkey", cfg.checkHotkey},
	}

	failed := 0
	for i, c := range checks {
		fmt.Fprintf(out, "\n[%d/%d] %s\n", i+1, len(checks), c.name)
		msg, err := c.run(ctx)
		if err != nil {
			failed++
			fmt.Fprintf(out, "  FAIL: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "  PASS: %s\n", msg)
		if ctx.Err() != nil {
			fmt.Fprintln(out, "\nInterrupted")
			return 1
		}
	}

	fmt.Fprintln(out)
	if failed == 0 {
		fmt.Fprintln(out, "All checks passed!")
		return 0
	}
	fmt.Fprintf(out, "%d check(s) failed. See details above.\n", failed)
	return 1
}

func (cfg Config) checkAudio(_ context.Context) (string, error) {
	if cfg.Audio == nil {
		return "", errors.New("no audio backend")
	}
	devices, err := cfg.Audio.Devices()
	if err != nil {
		return "", fmt.Errorf("cannot list devices: %w", err)
	}
	if len(devices) == 0 {
		return "", errors.New("no capture devices found")
	}
	names := make([]string, 0, len(devices))
	for _, d := range devices {
		name := d.Name
		if audio.IsBluetooth(name) {
			name += " (bluetooth)"
		}
		names = append(names, name)
	}
	return fmt.Sprintf("%d capture device(s): %s", len(devices), strings.Join(names, ", ")), nil
}

func (cfg Config) checkRecognition(ctx context.Context) (string, error) {
	if err := probe(cfg.Recognizer, capability.Recognition); err != nil {
		return "", err
	}
	if !cfg.Interactive {
		return cfg.Recognizer.Name() + " configured", nil
	}

	fmt.Fprintf(cfg.Out, "Press Enter and speak for %d seconds...", int(listenFor.Seconds()))
	bufio.NewReader(cfg.In).ReadString('\n')

	sess, err := cfg.Recognizer.NewSession(ctx, recognizer.SessionConfig{
		Continuous: true,
		Interim:    true,
		Language:   cfg.Language,
	})
	if err != nil {
		return "", fmt.Errorf("session: %w", err)
	}

	text := ""
	timer := time.NewTimer(listenFor)
	defer timer.Stop()
listen:
	for {
		select {
		case r, ok := <-sess.Results():
			if !ok {
				break listen
			}
			text = r.Transcript()
		case <-timer.C:
			break listen
		case <-ctx.Done():
			break listen
		}
	}
	if err := sess.Stop(); err != nil {
		return "", fmt.Errorf("recognition: %w", err)
	}
	for r := range sess.Results() {
		text = r.Transcript()
	}
	if err := sess.Err(); err != nil {
		return "", fmt.Errorf("recognition: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("no speech recognised")
	}
	return fmt.Sprintf("heard %q", text), nil
}

func (cfg Config) checkSynthesis(ctx context.Context) (string, error) {
	if err := probe(cfg.Synthesizer, capability.Synthesis); err != nil {
		return "", err
	}
	if !cfg.Interactive {
		return cfg.Synthesizer.Name() + " configured", nil
	}

	u, err := cfg.Synthesizer.Speak(ctx, testPhrase)
	if err != nil {
		return "", err
	}
	select {
	case <-u.Done():
	case <-time.After(speakFor):
		cfg.Synthesizer.CancelAll()
		return "", errors.New("timed out waiting for playback")
	case <-ctx.Done():
		cfg.Synthesizer.CancelAll()
		return "", ctx.Err()
	}
	if err := u.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("spoke %q", testPhrase), nil
}

func (cfg Config) checkClipboard(_ context.Context) (string, error) {
	if cfg.Clipboard == nil {
		return "", capability.Unavailable(capability.Clipboard, "not configured")
	}
	prev, _ := cfg.Clipboard.Read()
	defer cfg.Clipboard.Copy(prev)

	if err := cfg.Clipboard.Copy(clipProbe); err != nil {
		return "", err
	}
	got, err := cfg.Clipboard.Read()
	if err != nil {
		return "", err
	}
	if got != clipProbe {
		return "", fmt.Errorf("read back %q, want %q", got, clipProbe)
	}
	return "copy and read back verified", nil
}

func (cfg Config) checkExportDir(_ context.Context) (string, error) {
	dir := cfg.ExportDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, ".voxscript-doctor-*")
	if err != nil {
		return "", fmt.Errorf("%s is not writable: %w", dir, err)
	}
	f.Close()
	os.Remove(f.Name())
	return dir + " is writable", nil
}

func (cfg Config) checkHotkey(_ context.Context) (string, error) {
	if cfg.Hotkey != nil {
		return cfg.Hotkey()
	}
	return hotkey.Diagnose()
}

type availability interface {
	Name() string
	Available() bool
}

func probe(c availability, name string) error {
	if c == nil {
		return capability.Unavailable(name, "not configured")
	}
	if !c.Available() {
		return capability.Unavailable(name, c.Name()+" is not available (missing API key?)")
	}
	return nil
}
