package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voxscript/log"
)

func runScript(t *testing.T, script ...string) (string, string) {
	t.Helper()
	log.SetDir(t.TempDir())
	exportDir := t.TempDir()

	var out bytes.Buffer
	code := runTestMode(strings.NewReader(strings.Join(script, "\n")+"\n"), &out, testConfig{ExportDir: exportDir})
	if code != 0 {
		t.Fatalf("exit code %d\n%s", code, out.String())
	}
	return out.String(), exportDir
}

func TestScriptDictation(t *testing.T) {
	out, _ := runScript(t, "START", "RESULT Hel|Hello ", "RESULT Hello world", "STOP", "STATE", "QUIT")
	want := "OK\nOK\nOK\nOK\nSTATE capturing=false speaking=false transcript=\"Hello world\"\n"
	if out != want {
		t.Errorf("output =\n%s\nwant\n%s", out, want)
	}
}

func TestScriptSpeech(t *testing.T) {
	out, _ := runScript(t, "TYPE Hello world", "SPEAK", "STATE", "END", "STATE")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[2], "speaking=true") || !strings.Contains(lines[4], "speaking=false") {
		t.Errorf("unexpected states:\n%s", out)
	}
}

func TestScriptUnavailable(t *testing.T) {
	out, _ := runScript(t, "NOSYNTH", "TYPE abc", "SPEAK", "STATE")
	if !strings.Contains(out, "UNAVAILABLE ") {
		t.Errorf("expected UNAVAILABLE:\n%s", out)
	}
	if !strings.Contains(out, "speaking=false") {
		t.Errorf("speaking changed:\n%s", out)
	}
}

func TestScriptCopyDownload(t *testing.T) {
	out, dir := runScript(t, "TYPE abc", "COPY", "DOWNLOAD")
	if !strings.Contains(out, `CLIPBOARD "abc"`) {
		t.Errorf("copy not reported:\n%s", out)
	}
	data, err := os.ReadFile(filepath.Join(dir, "voxscript-transcript.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "abc" {
		t.Errorf("saved %q", data)
	}
}

func TestScriptUnknownCommand(t *testing.T) {
	out, _ := runScript(t, "BOGUS")
	if !strings.HasPrefix(out, "ERR unknown command") {
		t.Errorf("output = %q", out)
	}
}
