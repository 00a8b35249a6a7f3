package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter mounts the handler under /api and the status stream at /ws.
// stream may be nil when no websocket hub is running.
func NewRouter(h *Handler, allowedOrigins []string, stream http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.Status)

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Put("/mode", h.SetMode)
			r.Put("/thresholds", h.SetThresholds)
			r.Put("/credentials", h.SetCredentials)
		})

		r.Route("/detection", func(r chi.Router) {
			r.Get("/", h.GetDetection)
			r.Post("/enable", h.EnableDetection)
			r.Post("/disable", h.DisableDetection)
		})
	})

	if stream != nil {
		r.Get("/ws", stream)
	}

	return r
}

type Server struct {
	server *http.Server
}

func NewServer(port string, handler http.Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves in the background.
func (s *Server) Start() {
	log.Printf("API listening on %s", s.server.Addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("API server failed: %v", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
