package facade

import (
	"fmt"
	"net/http"
	"net/textproto"
	"time"

	"github.com/google/uuid"
)

const mjpegBoundary = "boundarydonotcross"

// HandleLiveviewMJPG serves `GET .../liveview.mjpg`: admission against
// the liveview-availability check and the MJPEG slot table, then a
// multipart/x-mixed-replace stream paced to the configured fps.
func (s *Server) HandleLiveviewMJPG(w http.ResponseWriter, r *http.Request) {
	if !s.liveviewAvailable(r.Context()) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusServiceUnavailable)

		return
	}

	id := uuid.New()
	if !s.table.Activate(id) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)

		return
	}
	defer s.table.Deactivate(id)

	h := w.Header()
	h.Set("Content-Type", fmt.Sprintf("multipart/x-mixed-replace;boundary=--%s", mjpegBoundary))
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, pre-check=0, post-check=0, max-age=0")
	h.Set("Pragma", "no-cache")
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)

	minInterval := time.Second / time.Duration(fpsOrDefault(s.fps))

	var lastEmit time.Time

	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		frame, err := s.table.GetFrame(id, s.frameTimeout())
		if err != nil {
			continue
		}

		if !lastEmit.IsZero() {
			if elapsed := time.Since(lastEmit); elapsed < minInterval {
				// Temporarily deactivate so AddFrame doesn't pile stale
				// frames into this slot's queue while we sleep.
				s.table.Deactivate(id)
				time.Sleep(minInterval - elapsed)

				if !s.table.Activate(id) {
					return
				}
			}
		}

		if _, err := fmt.Fprintf(w, "--%s\r\n", mjpegBoundary); err != nil {
			return
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Type", "image/jpeg")
		h.Set("Content-Length", fmt.Sprintf("%d", len(frame)))
		h.Set("X-Timestamp", fmt.Sprintf("%d", time.Now().UnixMilli()))
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate")

		if err := h.Write(w); err != nil {
			return
		}

		if _, err := fmt.Fprint(w, "\r\n"); err != nil {
			return
		}

		if _, err := w.Write(frame); err != nil {
			return
		}

		if _, err := fmt.Fprint(w, "\r\n"); err != nil {
			return
		}

		if flusher != nil {
			flusher.Flush()
		}

		lastEmit = time.Now()
	}
}

func fpsOrDefault(fps int) int {
	if fps <= 0 {
		return 30
	}

	return fps
}
