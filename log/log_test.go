package log

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestResolveDir(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct {
		name, flag, env, want string
	}{
		{"absolute flag", "/tmp/vox-log", "", "/tmp/vox-log"},
		{"relative flag", "logs", "", filepath.Join(wd, "logs")},
		{"flag beats env", "/tmp/flag", "/tmp/env", "/tmp/flag"},
		{"env", "", "/tmp/vox-env-log", "/tmp/vox-env-log"},
		{"relative env", "", "envlogs", filepath.Join(wd, "envlogs")},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envLogPath, tt.env)
			got, err := ResolveDir(tt.flag)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv(envLogPath, "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "voxscript") {
		t.Errorf("default dir %q should mention voxscript", got)
	}
}

func TestInitCreatesFiles(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{diagFileName, transcriptFileName} {
		if _, err := os.Stat(filepath.Join(tmp, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
}

func TestTranscriptText(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	TranscriptText("hello world")

	line := readFile(t, filepath.Join(tmp, transcriptFileName))
	if !strings.Contains(line, "hello world") {
		t.Errorf("transcript log missing text, got: %q", line)
	}
	// format: "2006-01-02 15:04:05\t[pid]\ttext\n"
	if strings.Count(line, "\t") != 2 {
		t.Errorf("expected tab-separated format, got: %q", line)
	}
}

func TestStructuredEvents(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	SessionStart("deepgram", "openai", "en")
	CaptureStart("deepgram", "fake", "en")
	CaptureStop("user", 11, 1500*time.Millisecond)
	UtteranceQueued("u-1", 11)
	UtteranceEnd("u-1", true, nil)
	UtteranceEnd("u-2", false, errors.New("tts failed"))
	Export("/tmp/voxscript-transcript.txt", 3)
	Reset(7)
	SessionEnd(1, 2)

	diag := readFile(t, filepath.Join(tmp, diagFileName))
	for _, want := range []string{
		"session_start", "recognizer=deepgram",
		"capture_start", "capture_stop", "reason=user", "chars=11",
		"utterance_queued", "utterance=u-1",
		"utterance_end", "cancelled=true", "tts failed",
		"export", "bytes=3",
		"reset", "chars=7",
		"session_end", "utterances=2",
	} {
		if !strings.Contains(diag, want) {
			t.Errorf("diagnostics log missing %q", want)
		}
	}
}

func TestLoggingBeforeInitIsNoop(t *testing.T) {
	setupLogDir(t)
	Info("ignored")
	TranscriptText("ignored")
	CaptureStop("user", 0, 0)
}

func TestCloseIdempotent(t *testing.T) {
	setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Close()
	Close() // should not panic
}
