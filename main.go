package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"voxscript/audio"
	"voxscript/beep"
	"voxscript/capture"
	"voxscript/clipboard"
	"voxscript/doctor"
	"voxscript/export"
	"voxscript/form"
	"voxscript/hotkey"
	"voxscript/log"
	"voxscript/playback"
	"voxscript/recognizer"
	"voxscript/shutdown"
	"voxscript/state"
	"voxscript/synth"
)

var version = "dev"

const (
	envDeepgramKey = "DEEPGRAM_API_KEY"
	envOpenAIKey   = "OPENAI_API_KEY"
)

var shutdownOnce sync.Once

func gracefulShutdown(c *capture.Controller, p *playback.Controller) {
	shutdownOnce.Do(func() {
		p.Stop()
		if err := c.Stop(); err != nil {
			log.Warnf("capture stop on exit: %v", err)
		}
		log.SessionEnd(c.Count(), p.Count())
		beep.Close()
		log.Close()
	})
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func initCrashLog() {
	dir, err := log.ResolveDir("")
	if err != nil {
		return
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return
	}
	crashFile, err := os.OpenFile(filepath.Join(dir, "crash_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

// loadEnv reads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func defaultExportDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	if dl := filepath.Join(home, "Downloads"); isDir(dl) {
		return dl
	}
	return home
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

func run() {
	langFlag := flag.String("lang", "en", "Language code for recognition (e.g., en, es, fr). Empty = auto-detect")
	voiceFlag := flag.String("voice", synth.DefaultVoice, "Synthesis voice")
	ttsModelFlag := flag.String("ttsmodel", synth.DefaultModel, "Synthesis model")
	exportDirFlag := flag.String("exportdir", "", "Directory for downloaded transcripts (default: ~/Downloads)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	hotkeyFlag := flag.Bool("hotkey", true, "Toggle recording with "+hotkey.Combo+" from any window")
	longPressFlag := flag.Duration("longpress", 350*time.Millisecond, "Hold threshold for push-to-talk vs tap (e.g., 350ms)")
	cuesFlag := flag.Bool("cues", true, "Play audible cues on record start/stop and errors")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	envFileFlag := flag.String("envfile", ".env", "Load API keys from this file if it exists")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run capability diagnostics and exit")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven, fake capabilities)")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("voxscript %s\n", version)
		os.Exit(0)
	}

	if err := loadEnv(*envFileFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	exportDir := *exportDirFlag
	if exportDir == "" {
		exportDir = defaultExportDir()
	}

	if *testFlag {
		os.Exit(runTestMode(os.Stdin, os.Stdout, testConfig{
			Language:  *langFlag,
			ExportDir: exportDir,
		}))
	}

	actx, err := audio.NewContext()
	if err != nil {
		// capture and playback report themselves unavailable
		fmt.Fprintf(os.Stderr, "Warning: audio unavailable: %v\n", err)
		actx = nil
	}
	if actx != nil {
		defer actx.Close()
	}

	var selectedDevice *audio.DeviceInfo
	if actx != nil {
		switch {
		case *deviceFlag != "":
			selectedDevice, err = audio.FindDevice(actx, *deviceFlag)
			if err != nil {
				fmt.Printf("Warning: %v, using default device\n", err)
			}
		case *setupFlag:
			selectedDevice, err = audio.SelectDevice(actx)
			if err != nil {
				fmt.Printf("Warning: device selection failed: %v\n", err)
				fmt.Println("Falling back to default device")
				selectedDevice = nil
			}
		}
	}

	rec := recognizer.NewDeepgram(os.Getenv(envDeepgramKey), actx, selectedDevice)
	tts := synth.NewOpenAI(synth.OpenAIConfig{
		APIKey: os.Getenv(envOpenAIKey),
		Model:  *ttsModelFlag,
		Voice:  *voiceFlag,
	}, actx)
	defer tts.Close()
	clip := clipboard.System{}

	if *doctorFlag {
		os.Exit(doctor.Run(doctor.Config{
			Audio:       actx,
			Recognizer:  rec,
			Synthesizer: tts,
			Clipboard:   clip,
			ExportDir:   exportDir,
			Language:    *langFlag,
			Interactive: true,
		}))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	log.SessionStart(rec.Name(), tts.Name(), *langFlag)

	if *cuesFlag && actx != nil {
		beep.Init(actx)
	} else {
		beep.Disable()
	}
	if tts.Available() {
		go tts.Warm()
	}

	deviceName := ""
	if selectedDevice != nil {
		deviceName = selectedDevice.Name
	}

	store := state.NewStore()
	captures := capture.New(rec, store, capture.Config{
		Language: *langFlag,
		Device:   deviceName,
		OnFailure: func(err error) {
			beep.PlayError()
			tuiSend(statusMsg{text: "Recording failed: " + err.Error(), err: true})
		},
	})
	speech := playback.New(tts, store)
	f := form.New(store, captures, speech, clip, export.DirSaver{Dir: exportDir})
	defer gracefulShutdown(captures, speech)

	ctx, cancel := shutdown.Context(context.Background())
	defer cancel()

	if *hotkeyFlag {
		hk := hotkey.New()
		if err := hk.Register(); err != nil {
			log.Warnf("hotkey register: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: global hotkey unavailable: %v\n", err)
		} else {
			defer hk.Unregister()
			sw := hotkey.NewSwitch(ctx, hk, *longPressFlag)
			go func() {
				for a := range sw.Actions() {
					tuiSend(hotkeyMsg{action: a})
				}
			}()
		}
	}

	tuiMu.Lock()
	tuiProgram = NewTUIProgram(newTUIModel(ctx, f, store.Subscribe(), deviceLineText(selectedDevice)))
	p := tuiProgram
	tuiMu.Unlock()

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}
