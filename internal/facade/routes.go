package facade

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes wires the control plane's HTTP surface, following the
// teacher's chi.NewRouter + middleware stack convention.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware)

	r.Get("/health", s.HandleHealth)
	r.Get("/liveview.mjpg", s.HandleLiveviewMJPG)
	r.Get("/ws/events", s.HandleEvents)

	r.Get("/image:content/*", s.HandleMediaContent)
	r.Get("/video:content/*", s.HandleMediaContent)
	r.Get("/audio:content/*", s.HandleMediaContent)

	r.Post("/server", s.HandleServerControl)
	r.Post("/{endpoint}", s.HandleEndpointRPC)

	if s.staticDir != "" {
		fileServer := http.FileServer(http.Dir(s.staticDir))
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			fileServer.ServeHTTP(w, r)
		})
	}

	return r
}
