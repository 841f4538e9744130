package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"voxscript/beep"
	"voxscript/capability"
	"voxscript/capture"
	"voxscript/clipboard"
	"voxscript/export"
	"voxscript/form"
	"voxscript/log"
	"voxscript/playback"
	"voxscript/recognizer"
	"voxscript/state"
	"voxscript/synth"
)

const testWait = 2 * time.Second

type testConfig struct {
	Language  string
	ExportDir string
}

type testEnv struct {
	ctx      context.Context
	out      io.Writer
	rec      *recognizer.Fake
	syn      *synth.Fake
	clip     *clipboard.Memory
	captures *capture.Controller
	speech   *playback.Controller
	form     *form.Form
	failures chan error
}

// runTestMode drives the form from line commands on in, using fake
// capabilities, and returns the exit code.
func runTestMode(in io.Reader, out io.Writer, cfg testConfig) int {
	beep.Disable()

	if err := log.Init(); err != nil {
		fmt.Fprintf(out, "WARN logging: %v\n", err)
	}
	defer log.Close()

	env := &testEnv{
		ctx:      context.Background(),
		out:      out,
		rec:      recognizer.NewFake(),
		syn:      synth.NewFake(),
		clip:     &clipboard.Memory{},
		failures: make(chan error, 4),
	}
	defer env.syn.Close()

	log.SessionStart(env.rec.Name(), env.syn.Name(), cfg.Language)

	store := state.NewStore()
	env.captures = capture.New(env.rec, store, capture.Config{
		Language: cfg.Language,
		OnFailure: func(err error) {
			select {
			case env.failures <- err:
			default:
			}
		},
	})
	env.speech = playback.New(env.syn, store)
	env.form = form.New(store, env.captures, env.speech, env.clip, export.DirSaver{Dir: cfg.ExportDir})

	defer func() {
		env.speech.Stop()
		env.captures.Stop()
		log.SessionEnd(env.captures.Count(), env.speech.Count())
	}()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		if cmd == "QUIT" {
			return 0
		}
		env.exec(cmd, arg)
	}
	return 0
}

func (e *testEnv) exec(cmd, arg string) {
	st := e.form.State()
	switch cmd {
	case "TYPE":
		e.form.Edit(arg)
		e.reply(nil)
	case "START":
		if st.Capturing {
			e.reply(nil)
			return
		}
		_, err := e.form.ToggleCapture(e.ctx)
		e.reply(err)
	case "STOP":
		if !st.Capturing {
			e.reply(nil)
			return
		}
		_, err := e.form.ToggleCapture(e.ctx)
		e.reply(err)
	case "RESULT":
		e.reply(e.result(strings.Split(arg, "|")))
	case "FAIL":
		sess := e.rec.Current()
		if sess == nil {
			e.reply(errors.New("no recognition session"))
			return
		}
		sess.Fail(errors.New(arg))
		select {
		case err := <-e.failures:
			fmt.Fprintf(e.out, "FAILED %v\n", err)
			e.reply(nil)
		case <-time.After(testWait):
			e.reply(errors.New("failure never reported"))
		}
	case "SPEAK":
		if st.Speaking {
			e.reply(nil)
			return
		}
		if st.Empty() {
			e.reply(playback.ErrEmptyText)
			return
		}
		e.reply(e.form.TogglePlayback(e.ctx))
	case "END":
		e.reply(e.finishSpeech())
	case "HUSH":
		if !st.Speaking {
			e.reply(nil)
			return
		}
		e.reply(e.form.TogglePlayback(e.ctx))
	case "COPY":
		if err := e.form.Copy(); err != nil {
			e.reply(err)
			return
		}
		text, _ := e.clip.Read()
		fmt.Fprintf(e.out, "CLIPBOARD %q\n", text)
	case "DOWNLOAD":
		path, err := e.form.Download()
		if err != nil {
			e.reply(err)
			return
		}
		fmt.Fprintf(e.out, "SAVED %s\n", path)
	case "RESET":
		e.reply(e.form.Reset())
	case "NOREC":
		e.rec.SetAvailable(false)
		e.reply(nil)
	case "NOSYNTH":
		e.syn.SetAvailable(false)
		e.reply(nil)
	case "STATE":
		fmt.Fprintf(e.out, "STATE capturing=%t speaking=%t transcript=%q\n", st.Capturing, st.Speaking, st.Transcript)
	case "SLEEP":
		if ms, err := strconv.Atoi(arg); err == nil {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		}
		e.reply(nil)
	default:
		e.reply(fmt.Errorf("unknown command %q", cmd))
	}
}

func (e *testEnv) reply(err error) {
	switch {
	case err == nil:
		fmt.Fprintln(e.out, "OK")
	case errors.Is(err, capability.ErrUnavailable):
		fmt.Fprintf(e.out, "UNAVAILABLE %v\n", err)
	default:
		fmt.Fprintf(e.out, "ERR %v\n", err)
	}
}

// result emits one recognition result and waits for the transcript to show it.
func (e *testEnv) result(segments []string) error {
	sess := e.rec.Current()
	if sess == nil || !e.form.State().Capturing {
		return errors.New("not capturing")
	}
	if !sess.Emit(segments...) {
		return errors.New("session ended")
	}
	want := strings.Join(segments, "")
	if !waitFor(func() bool { return e.form.State().Transcript == want }) {
		return fmt.Errorf("transcript never became %q", want)
	}
	return nil
}

// finishSpeech completes utterances until speaking ends.
func (e *testEnv) finishSpeech() error {
	deadline := time.Now().Add(testWait)
	for e.form.State().Speaking {
		if time.Now().After(deadline) {
			return errors.New("still speaking")
		}
		if id := e.syn.Active(); id != "" {
			e.syn.Finish(id)
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(testWait)
	for !cond() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
	return true
}
