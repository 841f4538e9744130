package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	diagFileName       = "diagnostics_log.txt"
	transcriptFileName = "transcribe_log.txt"
	envLogPath         = "VOXSCRIPT_LOG_PATH"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcriptFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: environment
	if envPath := os.Getenv(envLogPath); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: default OS-specific location
	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error
	diagFile, err = os.OpenFile(filepath.Join(dir, diagFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcriptFile, err = os.OpenFile(filepath.Join(dir, transcriptFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcriptFile != nil {
		transcriptFile.Close()
		transcriptFile = nil
	}
	logReady = false
}

func ready() bool {
	logMu.Lock()
	defer logMu.Unlock()
	return logReady
}

func Info(msg string) {
	if ready() {
		diagLog.Info().Msg(msg)
	}
}

func Warn(msg string) {
	if ready() {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if ready() {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if ready() {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if ready() {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(recognizer, synthesizer, lang string) {
	if !ready() {
		return
	}
	diagLog.Info().
		Str("recognizer", recognizer).
		Str("synthesizer", synthesizer).
		Str("lang", lang).
		Msg("session_start")
}

func SessionEnd(captures, utterances int) {
	if !ready() {
		return
	}
	diagLog.Info().
		Int("captures", captures).
		Int("utterances", utterances).
		Msg("session_end")
}

func CaptureStart(recognizer, device, lang string) {
	if !ready() {
		return
	}
	diagLog.Info().
		Str("recognizer", recognizer).
		Str("device", device).
		Str("lang", lang).
		Msg("capture_start")
}

func CaptureStop(reason string, chars int, dur time.Duration) {
	if !ready() {
		return
	}
	diagLog.Info().
		Str("reason", reason).
		Int("chars", chars).
		Float64("duration_s", dur.Seconds()).
		Msg("capture_stop")
}

func UtteranceQueued(id string, chars int) {
	if !ready() {
		return
	}
	diagLog.Info().
		Str("utterance", id).
		Int("chars", chars).
		Msg("utterance_queued")
}

func UtteranceEnd(id string, cancelled bool, err error) {
	if !ready() {
		return
	}
	ev := diagLog.Info()
	if err != nil {
		ev = diagLog.Error().Err(err)
	}
	ev.Str("utterance", id).
		Bool("cancelled", cancelled).
		Msg("utterance_end")
}

func HTTPTiming(provider string, status int, reused bool, connect, ttfb time.Duration) {
	if !ready() {
		return
	}
	diagLog.Info().
		Str("provider", provider).
		Int("status", status).
		Bool("conn_reused", reused).
		Int64("connect_ms", connect.Milliseconds()).
		Int64("ttfb_ms", ttfb.Milliseconds()).
		Msg("http_timing")
}

func Export(path string, size int) {
	if !ready() {
		return
	}
	diagLog.Info().
		Str("path", path).
		Int("bytes", size).
		Msg("export")
}

func Reset(chars int) {
	if !ready() {
		return
	}
	diagLog.Info().
		Int("chars", chars).
		Msg("reset")
}

// TranscriptText appends one tab-separated line to the transcript log.
func TranscriptText(text string) {
	logMu.Lock()
	defer logMu.Unlock()
	if !logReady || transcriptFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcriptFile.WriteString(line)
}
