// Package beep plays short audible cues through the audio layer.
package beep

import (
	"context"
	"math"
	"sync"
	"time"

	"voxscript/audio"
	"voxscript/log"
)

const (
	sampleRate = 44100

	// Start: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// End: medium pitch, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// Error: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30

	playTimeout = 2 * time.Second
)

var (
	mu       sync.Mutex
	ctx      audio.Context
	device   audio.PlaybackDevice
	disabled bool

	startPCM []byte
	endPCM   []byte
	errorPCM []byte
	pcmOnce  sync.Once
)

// Init routes cues to actx. Cues are silent until Init is called.
func Init(actx audio.Context) {
	pcmOnce.Do(initSound)
	mu.Lock()
	defer mu.Unlock()
	ctx = actx
	if device != nil {
		device.Close()
		device = nil
	}
}

func Disable() {
	mu.Lock()
	disabled = true
	mu.Unlock()
}

// Close releases the playback device.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if device != nil {
		device.Close()
		device = nil
	}
	ctx = nil
}

func PlayStart() { play(startPCM) }
func PlayEnd()   { play(endPCM) }
func PlayError() { play(errorPCM) }

func initSound() {
	startPCM = audio.Int16Bytes(generateTick(sampleRate, startFreq, 0.2, startVolume, startDecay))
	endPCM = audio.Int16Bytes(generateTick(sampleRate, endFreq, 0.2, endVolume, endDecay))
	errorPCM = audio.Int16Bytes(generateDoubleBeep(sampleRate, errorFreq, 0.08, 0.05, errorVolume, errorDecay))
}

func generateTick(sampleRate int, freq, duration, volume, decay float64) []int16 {
	n := int(float64(sampleRate) * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func generateDoubleBeep(sampleRate int, freq, beepDur, gapDur, volume, decay float64) []int16 {
	beep := generateTick(sampleRate, freq, beepDur, volume, decay)
	gap := make([]int16, int(float64(sampleRate)*gapDur))
	result := make([]int16, 0, len(beep)*2+len(gap))
	result = append(result, beep...)
	result = append(result, gap...)
	result = append(result, beep...)
	return result
}

func playback() audio.PlaybackDevice {
	mu.Lock()
	defer mu.Unlock()
	if disabled || ctx == nil {
		return nil
	}
	if device == nil {
		dev, err := ctx.NewPlayback(audio.PlaybackConfig{SampleRate: sampleRate, Channels: 1})
		if err != nil {
			log.Warnf("cue playback unavailable: %v", err)
			disabled = true
			return nil
		}
		device = dev
	}
	return device
}

func play(pcm []byte) {
	pcmOnce.Do(initSound)
	dev := playback()
	if dev == nil {
		return
	}
	go func() {
		pctx, cancel := context.WithTimeout(context.Background(), playTimeout)
		defer cancel()
		dev.Play(pctx, pcm)
	}()
}
