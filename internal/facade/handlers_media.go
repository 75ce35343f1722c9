package facade

import (
	"io"
	"net/http"
	"path"

	"github.com/sonyimg/gateway/internal/mediawalker"
)

// HandleMediaContent serves `GET /{image,video,audio}:content/...`: it
// locates the on-device file by matching the last path segment against
// the Media Walker's yielded uri, then streams the first original URL
// back with the kind-derived MIME type. Not-found (including no active
// device) replies 503, matching the original implementation's
// unconditional 503-on-miss behavior.
func (s *Server) HandleMediaContent(w http.ResponseWriter, r *http.Request) {
	p := s.ActiveDevice()
	if p == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	name := path.Base(r.URL.Path)

	walker := mediawalker.New(p, mediawalker.ModeFlat)

	item, err := walker.Find(r.Context(), name)
	if err != nil || item == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	url := item.OriginalURL()
	if url == "" {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", item.MIMEType())
	w.WriteHeader(http.StatusOK)
	io.Copy(w, resp.Body)
}
