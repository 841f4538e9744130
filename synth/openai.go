package synth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"

	"voxscript/audio"
	"voxscript/capability"
	"voxscript/log"
)

const (
	// OpenAI returns raw PCM as 24 kHz signed 16-bit little-endian mono.
	openaiSampleRate = 24000
	openaiChannels   = 1

	DefaultVoice = string(openai.VoiceAlloy)
	DefaultModel = string(openai.TTSModel1)

	openaiBaseURL = "https://api.openai.com/v1"
)

type OpenAIConfig struct {
	APIKey  string
	Model   string
	Voice   string
	BaseURL string // empty = api.openai.com
}

// OpenAI synthesises speech with the OpenAI audio API and plays it through
// the audio layer.
type OpenAI struct {
	cfg    OpenAIConfig
	audio  audio.Context
	hc     *http.Client
	client *openai.Client

	mu     sync.Mutex
	queue  *Queue
	device audio.PlaybackDevice
}

func NewOpenAI(cfg OpenAIConfig, actx audio.Context) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = openaiBaseURL
	}

	hc := newTracedClient("openai")
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = hc

	return &OpenAI{
		cfg:    cfg,
		audio:  actx,
		hc:     hc,
		client: openai.NewClientWithConfig(oc),
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Available() bool {
	return o.cfg.APIKey != "" && o.audio != nil
}

func (o *OpenAI) Speak(ctx context.Context, text string) (Utterance, error) {
	if o.cfg.APIKey == "" {
		return nil, capability.Unavailable(capability.Synthesis, "OPENAI_API_KEY is not set")
	}
	if o.audio == nil {
		return nil, capability.Unavailable(capability.Synthesis, "no audio backend")
	}

	o.mu.Lock()
	if o.queue == nil {
		o.queue = NewQueue(o.render)
	}
	q := o.queue
	o.mu.Unlock()

	return q.Submit(ctx, text), nil
}

func (o *OpenAI) CancelAll() {
	o.mu.Lock()
	q := o.queue
	o.mu.Unlock()
	if q != nil {
		q.CancelAll()
	}
}

// Warm pre-opens the API connection so the first utterance starts sooner.
func (o *OpenAI) Warm() time.Duration {
	if !o.Available() {
		return 0
	}
	return warm(o.hc, o.cfg.BaseURL)
}

func (o *OpenAI) Close() {
	o.mu.Lock()
	q := o.queue
	o.queue = nil
	dev := o.device
	o.device = nil
	o.mu.Unlock()

	if q != nil {
		q.Close()
	}
	if dev != nil {
		dev.Close()
	}
}

func (o *OpenAI) synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.cfg.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(o.cfg.Voice),
		ResponseFormat: openai.SpeechResponseFormatPcm,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("openai speech read: %w", err)
	}
	return pcm, nil
}

func (o *OpenAI) playback() (audio.PlaybackDevice, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.device != nil {
		return o.device, nil
	}
	dev, err := o.audio.NewPlayback(audio.PlaybackConfig{
		SampleRate: openaiSampleRate,
		Channels:   openaiChannels,
	})
	if err != nil {
		return nil, fmt.Errorf("open playback device: %w", err)
	}
	o.device = dev
	return dev, nil
}

func (o *OpenAI) render(ctx context.Context, id, text string) error {
	start := time.Now()
	pcm, err := o.synthesize(ctx, text)
	if err != nil {
		return err
	}
	log.Info(fmt.Sprintf("utterance %s synthesized: %d bytes in %dms", id, len(pcm), time.Since(start).Milliseconds()))

	dev, err := o.playback()
	if err != nil {
		return err
	}
	return dev.Play(ctx, pcm)
}
