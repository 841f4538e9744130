package recognizer

import (
	"errors"
	"sync"
	"time"

	"voxscript/audio"
	"voxscript/log"
)

const (
	streamChunkMs      = 200
	streamChunkBytes   = audio.SampleRate * audio.Channels * (audio.BitsPerSample / 8) * streamChunkMs / 1000
	streamQueueChunks  = 128
	streamFinalizeIdle = 200 * time.Millisecond
	streamFinalizeMax  = 1000 * time.Millisecond
	streamDrainTimeout = 2 * time.Second
)

// errDialAborted is returned by a dial func whose caller gave up before the
// stream connected. The session then ends without an error.
var errDialAborted = errors.New("dial aborted")

type rawStreamSession interface {
	Send(pcm []byte) error
	CloseSend() error
	Recv() (streamUpdate, error)
	Close() error
}

// streamSession pumps microphone PCM into a provider stream in fixed-size
// chunks and turns the provider's updates into cumulative Results.
type streamSession struct {
	cfg     SessionConfig
	capture audio.CaptureDevice
	ws      rawStreamSession

	audioCh   chan []byte
	results   chan Result
	connected chan struct{} // closed when the stream is ready (or failed)

	sendDone      chan struct{}
	recvDone      chan struct{}
	finalized     chan struct{}
	finalizedOnce sync.Once

	feedMu     sync.Mutex
	feedBuf    []byte
	feedClosed bool
	dropped    int

	mu      sync.Mutex
	segs    segmentList
	err     error
	errOnce sync.Once
	closing bool

	stopOnce sync.Once
	stopErr  error
}

func newStreamSession(cfg SessionConfig, capture audio.CaptureDevice, dial func() (rawStreamSession, error)) *streamSession {
	ss := &streamSession{
		cfg:       cfg,
		capture:   capture,
		audioCh:   make(chan []byte, streamQueueChunks),
		results:   make(chan Result, 1),
		connected: make(chan struct{}),
		sendDone:  make(chan struct{}),
		recvDone:  make(chan struct{}),
		finalized: make(chan struct{}),
	}

	go func() {
		ws, err := dial()
		if err != nil {
			if !errors.Is(err, errDialAborted) {
				ss.setErr(err)
			}
			close(ss.sendDone)
			close(ss.recvDone)
			close(ss.connected)
			return
		}
		ss.ws = ws
		close(ss.connected)
		go ss.runSender()
		go ss.runReceiver()
	}()

	go func() {
		<-ss.recvDone
		close(ss.results)
	}()

	return ss
}

// start attaches the session to its capture device. On failure the session
// is already stopped.
func (s *streamSession) start() error {
	s.capture.SetCallback(func(data []byte, _ uint32) { s.feed(data) })
	if err := s.capture.Start(); err != nil {
		s.Stop()
		return err
	}
	return nil
}

func (s *streamSession) feed(pcm []byte) {
	if s.Err() != nil {
		return
	}

	s.feedMu.Lock()
	defer s.feedMu.Unlock()
	if s.feedClosed {
		return
	}
	s.feedBuf = append(s.feedBuf, pcm...)
	for len(s.feedBuf) >= streamChunkBytes {
		chunk := make([]byte, streamChunkBytes)
		copy(chunk, s.feedBuf[:streamChunkBytes])
		s.feedBuf = s.feedBuf[streamChunkBytes:]
		select {
		case s.audioCh <- chunk:
		default:
			s.dropped++
		}
	}
}

func (s *streamSession) Results() <-chan Result { return s.results }

func (s *streamSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *streamSession) Stop() error {
	s.stopOnce.Do(func() { s.stopErr = s.stop() })
	return s.stopErr
}

func (s *streamSession) stop() error {
	s.capture.ClearCallback()
	s.capture.Stop()
	s.capture.Close()

	<-s.connected

	// no stream means nothing to finalize
	failed := s.Err() != nil || s.ws == nil

	s.feedMu.Lock()
	if !failed && len(s.feedBuf) > 0 {
		select {
		case s.audioCh <- s.feedBuf:
		default:
			s.dropped++
		}
	}
	s.feedBuf = nil
	s.feedClosed = true
	dropped := s.dropped
	close(s.audioCh)
	s.feedMu.Unlock()

	if dropped > 0 {
		log.Warnf("stream backlog full, dropped %d chunks", dropped)
	}

	<-s.sendDone

	if !failed {
		// wait for the provider to flush, then a short quiet period
		select {
		case <-s.finalized:
			time.Sleep(streamFinalizeIdle)
		case <-time.After(streamFinalizeMax):
		}
	}

	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	if s.ws != nil {
		s.ws.Close()
	}
	select {
	case <-s.recvDone:
	case <-time.After(streamDrainTimeout):
		log.Warn("stream receiver drain timeout")
	}

	return s.Err()
}

func (s *streamSession) runSender() {
	defer close(s.sendDone)
	for chunk := range s.audioCh {
		if err := s.ws.Send(chunk); err != nil {
			s.setErr(err)
			// keep draining so stop() never blocks on a full queue
			for range s.audioCh {
			}
			return
		}
	}
	if s.Err() != nil {
		return
	}
	if err := s.ws.CloseSend(); err != nil {
		s.setErr(err)
	}
}

func (s *streamSession) runReceiver() {
	defer close(s.recvDone)
	for {
		update, err := s.ws.Recv()
		if err != nil {
			s.mu.Lock()
			closing := s.closing
			s.mu.Unlock()
			if !closing {
				s.setErr(err)
			}
			return
		}

		if update.FromFinalize {
			s.finalizedOnce.Do(func() { close(s.finalized) })
		}

		s.mu.Lock()
		changed := s.segs.apply(update, s.cfg.Interim)
		r := s.segs.result()
		s.mu.Unlock()

		if changed {
			s.publish(r)
		}

		if update.SpeechFinal && !s.cfg.Continuous {
			go s.Stop()
		}
	}
}

// publish replaces any undelivered result with r. Each Result is the whole
// transcript so far, so an overwritten one is never missed.
func (s *streamSession) publish(r Result) {
	for {
		select {
		case s.results <- r:
			return
		default:
		}
		select {
		case <-s.results:
		default:
		}
	}
}

func (s *streamSession) setErr(err error) {
	if err == nil {
		return
	}
	s.errOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		if s.ws != nil {
			s.ws.Close()
		}
	})
}
