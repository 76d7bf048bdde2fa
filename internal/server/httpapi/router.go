// Package httpapi exposes the backend over a JSON HTTP API plus a
// WebSocket endpoint for push notifications.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/studyhub-tz/studyhub/internal/logging"
	"github.com/studyhub-tz/studyhub/internal/server/files"
	"github.com/studyhub-tz/studyhub/internal/server/notify"
	"github.com/studyhub-tz/studyhub/internal/server/store"
	"github.com/studyhub-tz/studyhub/internal/server/users"
)

type Server struct {
	users    *users.Service
	store    store.DocumentStore
	files    *files.Service
	hub      *notify.Hub
	log      logging.Logger
	validate *validator.Validate
}

func NewServer(us *users.Service, st store.DocumentStore, fs *files.Service, hub *notify.Hub, log logging.Logger) *Server {
	return &Server{
		users:    us,
		store:    st,
		files:    fs,
		hub:      hub,
		log:      log,
		validate: validator.New(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", s.handlePing)

		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/collections/{collection}", s.handleFetchAll)
			r.Put("/collections/{collection}/{id}", s.handleUpsert)
			r.Patch("/collections/{collection}/{id}", s.handleUpdateField)

			r.Get("/papers/{id}/download", s.handlePaperDownload)
			r.Post("/papers/{id}/upload", s.handlePaperUpload)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// requestLogger logs one structured line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
