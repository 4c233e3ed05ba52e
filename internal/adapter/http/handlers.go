package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/warehouse-directory/internal/directory"
	"github.com/couchcryptid/warehouse-directory/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type listResponse struct {
	directory.Status
	Warehouses []domain.Warehouse `json:"warehouses"`
}

type errorResponse struct {
	Error string `json:"error"`
	ID    string `json:"id,omitempty"`
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	if !s.loaded() {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "directory not loaded yet"})
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Status:     s.dir.Status(),
		Warehouses: s.dir.All(),
	})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if !s.loaded() {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "directory not loaded yet"})
		return
	}
	id := chi.URLParam(r, "id")
	wh, ok := s.dir.Lookup(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "warehouse not found", ID: id})
		return
	}
	writeJSON(w, http.StatusOK, wh)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dir.Status())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.refresh.Allow() {
		w.Header().Set("Retry-After", "60")
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "refresh rate limit exceeded"})
		return
	}
	writeJSON(w, http.StatusOK, s.dir.Refresh(r.Context()))
}

func (s *Server) loaded() bool {
	return !s.dir.Status().LoadedAt.IsZero()
}

// requestLogger logs one structured line per request, tagged with chi's
// request id.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
