package recognizer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"voxscript/audio"
	"voxscript/capability"
)

const (
	deepgramEndpoint     = "wss://api.deepgram.com/v1/listen"
	deepgramDefaultModel = "nova-3"
	deepgramWriteTimeout = 5 * time.Second
	deepgramCloseTimeout = time.Second
)

// Deepgram streams microphone audio to Deepgram's live transcription API.
type Deepgram struct {
	apiKey   string
	audio    audio.Context
	device   *audio.DeviceInfo
	model    string
	endpoint string
}

func NewDeepgram(apiKey string, actx audio.Context, device *audio.DeviceInfo) *Deepgram {
	return &Deepgram{
		apiKey:   apiKey,
		audio:    actx,
		device:   device,
		model:    deepgramDefaultModel,
		endpoint: deepgramEndpoint,
	}
}

func (d *Deepgram) Name() string { return "deepgram" }

func (d *Deepgram) Available() bool {
	return d.apiKey != "" && d.audio != nil
}

func (d *Deepgram) NewSession(ctx context.Context, cfg SessionConfig) (Session, error) {
	if d.apiKey == "" {
		return nil, capability.Unavailable(capability.Recognition, "DEEPGRAM_API_KEY is not set")
	}
	if d.audio == nil {
		return nil, capability.Unavailable(capability.Recognition, "no audio backend")
	}

	capture, err := d.audio.NewCapture(d.device, audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	})
	if err != nil {
		return nil, fmt.Errorf("open capture device: %w", err)
	}

	ss := newStreamSession(cfg, capture, func() (rawStreamSession, error) {
		ws, err := d.dial(ctx, cfg)
		if err != nil && ctx.Err() != nil {
			return nil, errDialAborted
		}
		return ws, err
	})
	if err := ss.start(); err != nil {
		return nil, fmt.Errorf("start capture: %w", err)
	}
	return ss, nil
}

func (d *Deepgram) listenURL(cfg SessionConfig) (string, error) {
	endpoint, err := url.Parse(d.endpoint)
	if err != nil {
		return "", err
	}
	q := endpoint.Query()
	q.Set("model", d.model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(audio.SampleRate))
	q.Set("channels", strconv.Itoa(audio.Channels))
	q.Set("interim_results", strconv.FormatBool(cfg.Interim))
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")
	if cfg.Language != "" {
		q.Set("language", cfg.Language)
	}
	endpoint.RawQuery = q.Encode()
	return endpoint.String(), nil
}

func (d *Deepgram) dial(ctx context.Context, cfg SessionConfig) (rawStreamSession, error) {
	endpoint, err := d.listenURL(cfg)
	if err != nil {
		return nil, err
	}
	headers := http.Header{}
	headers.Set("Authorization", "Token "+d.apiKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("deepgram dial: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("deepgram dial: %w", err)
	}
	return &deepgramStream{conn: conn}, nil
}

type deepgramStreamResponse struct {
	Type         string `json:"type"`
	IsFinal      bool   `json:"is_final"`
	SpeechFinal  bool   `json:"speech_final"`
	FromFinalize bool   `json:"from_finalize"`
	Channel      struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

type deepgramStream struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	closed  bool
}

func (s *deepgramStream) write(kind int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return websocket.ErrCloseSent
	}
	s.conn.SetWriteDeadline(time.Now().Add(deepgramWriteTimeout))
	return s.conn.WriteMessage(kind, data)
}

func (s *deepgramStream) Send(pcm []byte) error {
	return s.write(websocket.BinaryMessage, pcm)
}

func (s *deepgramStream) CloseSend() error {
	return s.write(websocket.TextMessage, []byte(`{"type":"Finalize"}`))
}

func (s *deepgramStream) Recv() (streamUpdate, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return streamUpdate{}, err
	}
	return parseDeepgramMessage(data)
}

func parseDeepgramMessage(data []byte) (streamUpdate, error) {
	var resp deepgramStreamResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return streamUpdate{}, err
	}
	if resp.Type != "" && resp.Type != "Results" {
		return streamUpdate{}, nil
	}

	transcript := ""
	if len(resp.Channel.Alternatives) > 0 {
		transcript = resp.Channel.Alternatives[0].Transcript
	}
	return streamUpdate{
		Results:      true,
		Transcript:   transcript,
		IsFinal:      resp.IsFinal,
		SpeechFinal:  resp.SpeechFinal,
		FromFinalize: resp.FromFinalize,
	}, nil
}

func (s *deepgramStream) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.conn.SetWriteDeadline(time.Now().Add(deepgramCloseTimeout))
	s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
	return s.conn.Close()
}
