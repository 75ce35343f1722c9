package liveview

import (
	"context"
	"log"
	"net/http"
	"sync/atomic"
	"time"
)

// backoffSeconds is the retry delay sequence for transient failures,
// indexed by consecutive-failure count and clamped to the last entry.
var backoffSeconds = []int{1, 2, 4, 8, 16, 16, 16}

// Sink receives each decoded JPEG frame. FrameInfo records are
// observed but not forwarded to the fan-out per spec — only JPEG
// payloads feed the MJPEG stream.
type Sink func(jpeg []byte)

// Streamer runs one liveview task against a single device, reconnecting
// with backoff on transient failure until stopped.
type Streamer struct {
	URL string
	FPS int

	stopped atomic.Bool
}

// NewStreamer returns a Streamer targeting url, pacing frames at fps
// (default 30 if fps <= 0).
func NewStreamer(url string, fps int) *Streamer {
	if fps <= 0 {
		fps = 30
	}

	return &Streamer{URL: url, FPS: fps}
}

// Stop sets the cooperative shutdown flag; Run exits between frames.
func (s *Streamer) Stop() {
	s.stopped.Store(true)
}

// Run drives the stream until Stop is called or ctx is canceled.
// Transient failures (connection errors, short reads, malformed
// frames) are retried with backoff; the failure counter resets on any
// successful frame.
func (s *Streamer) Run(ctx context.Context, sink Sink) {
	failures := 0

	minInterval := time.Second / time.Duration(s.FPS)

	for !s.stopped.Load() {
		if ctx.Err() != nil {
			return
		}

		err := s.runOnce(ctx, sink, minInterval, &failures)
		if err == nil {
			// runOnce returns nil only after Stop or ctx cancellation;
			// the loop exits on the stopped or ctx check.
			continue
		}

		failures++

		idx := failures - 1
		if idx >= len(backoffSeconds) {
			idx = len(backoffSeconds) - 1
		}

		delay := time.Duration(backoffSeconds[idx]) * time.Second

		log.Printf("liveview: stream error (attempt %d): %v, retrying in %v", failures, err, delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// runOnce opens the stream and reads frames until a cooperative stop,
// context cancellation, or a transient error, resetting *failures to
// zero after every successfully emitted JPEG frame.
func (s *Streamer) runOnce(ctx context.Context, sink Sink, minInterval time.Duration, failures *int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var lastEmit time.Time

	for !s.stopped.Load() {
		if ctx.Err() != nil {
			return nil
		}

		frame, err := ReadFrame(resp.Body)
		if err != nil {
			return err
		}

		if frame.JPEG == nil {
			continue
		}

		if !lastEmit.IsZero() {
			if elapsed := time.Since(lastEmit); elapsed < minInterval {
				time.Sleep(minInterval - elapsed)
			}
		}

		sink(frame.JPEG)

		lastEmit = time.Now()
		*failures = 0
	}

	return nil
}
