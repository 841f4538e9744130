package audio

import (
	"context"
	"os"
	"sync"
	"time"
)

const (
	fakeFrameSize     = 1024
	fakeBytesPerFrame = 2 // 16-bit mono
)

// FakeContext replays fixed PCM into every capture device it creates and
// records every buffer handed to its playback devices.
type FakeContext struct {
	pcm      []byte
	realtime bool

	mu     sync.Mutex
	played [][]byte
	hold   chan struct{}
}

func NewFakeContext(pcm []byte, realtime bool) *FakeContext {
	return &FakeContext{pcm: pcm, realtime: realtime}
}

// LoadWAV reads a 16 kHz mono PCM WAV file and strips its header.
func LoadWAV(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) > WAVHeaderSize {
		data = data[WAVHeaderSize:]
	}
	return data, nil
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.pcm, realtime: f.realtime, audioDone: make(chan struct{})}, nil
}

func (f *FakeContext) NewPlayback(_ PlaybackConfig) (PlaybackDevice, error) {
	return &fakePlayback{ctx: f}, nil
}

// Hold makes every Play block until Release is called or its context ends.
func (f *FakeContext) Hold() {
	f.mu.Lock()
	f.hold = make(chan struct{})
	f.mu.Unlock()
}

func (f *FakeContext) Release() {
	f.mu.Lock()
	if f.hold != nil {
		close(f.hold)
		f.hold = nil
	}
	f.mu.Unlock()
}

// Played returns copies of the buffers played so far, in order.
func (f *FakeContext) Played() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.played))
	copy(out, f.played)
	return out
}

type fakePlayback struct {
	ctx *FakeContext
}

func (p *fakePlayback) Play(ctx context.Context, pcm []byte) error {
	p.ctx.mu.Lock()
	buf := make([]byte, len(pcm))
	copy(buf, pcm)
	p.ctx.played = append(p.ctx.played, buf)
	hold := p.ctx.hold
	p.ctx.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return ctx.Err()
}

func (p *fakePlayback) Close() {}

type FakeCapture struct {
	pcm       []byte
	realtime  bool
	audioDone chan struct{}

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
}

// AudioDone is closed once the whole PCM buffer has been delivered.
func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) Start() error {
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})

	chunkBytes := fakeFrameSize * fakeBytesPerFrame
	interval := time.Millisecond
	if f.realtime {
		interval = time.Duration(fakeFrameSize) * time.Second / time.Duration(SampleRate)
	}

	go func(stop, done chan struct{}) {
		defer close(done)
		pos := 0
		finished := false
		silence := make([]byte, chunkBytes)
		for {
			if cb := f.callback(); cb != nil {
				if pos < len(f.pcm) {
					end := min(pos+chunkBytes, len(f.pcm))
					chunk := make([]byte, end-pos)
					copy(chunk, f.pcm[pos:end])
					cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
					pos = end
				} else {
					if !finished {
						finished = true
						close(f.audioDone)
					}
					cb(silence, fakeFrameSize)
				}
			}
			select {
			case <-stop:
				return
			case <-time.After(interval):
			}
		}
	}(f.stopCh, f.feedDone)

	return nil
}

func (f *FakeCapture) Stop() {
	if f.stopCh == nil {
		return
	}
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	<-f.feedDone
}

func (f *FakeCapture) Close() { f.Stop() }
