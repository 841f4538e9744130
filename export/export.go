// Package export saves the transcript as a downloadable text file.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	FileName    = "voxscript-transcript.txt"
	ContentType = "text/plain"
)

type Payload struct {
	Name        string
	ContentType string
	Data        []byte
}

func NewPayload(text string) Payload {
	return Payload{Name: FileName, ContentType: ContentType, Data: []byte(text)}
}

type Saver interface {
	// Save stores p and returns where it ended up.
	Save(p Payload) (string, error)
}

// DirSaver writes payloads into Dir, replacing any earlier file of the
// same name.
type DirSaver struct {
	Dir string
}

func (d DirSaver) Save(p Payload) (string, error) {
	if p.Name == "" || filepath.Base(p.Name) != p.Name {
		return "", fmt.Errorf("export: invalid file name %q", p.Name)
	}
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+p.Name+".*")
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	_, werr := tmp.Write(p.Data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("export: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("export: %w", err)
	}

	path := filepath.Join(dir, p.Name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("export: %w", err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, nil
}

// Memory keeps the last saved payload. Used by tests and headless runs.
type Memory struct {
	Last  *Payload
	Saves int
}

func (m *Memory) Save(p Payload) (string, error) {
	cp := p
	cp.Data = append([]byte(nil), p.Data...)
	m.Last = &cp
	m.Saves++
	return "memory://" + p.Name, nil
}
