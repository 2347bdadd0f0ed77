package kernel

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcus/attrview/internal/view"
)

// Views loads attribute views by id.
type Views interface {
	Load(avID string) (*view.View, error)
}

// NewServer serves renderAttributeView from views. When token is set,
// requests must carry it in the Authorization header.
func NewServer(views Views, token string, logger *slog.Logger) http.Handler {
	mux := chi.NewRouter()
	mux.Use(requestID)
	mux.Use(logging(logger))
	mux.Use(recovery(logger))
	mux.Use(Metrics)

	h := &handler{views: views}
	mux.Route("/api", func(r chi.Router) {
		r.Use(auth(token))
		r.Post("/av/renderAttributeView", h.render)
	})
	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

type handler struct {
	views Views
}

func (h *handler) render(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeResult(w, -1, "invalid request", nil)
		return
	}
	v, err := h.views.Load(req.ID)
	if errors.Is(err, view.ErrNotFound) {
		writeResult(w, -1, "attribute view not found", nil)
		return
	}
	if err != nil {
		writeResult(w, -1, err.Error(), nil)
		return
	}
	if req.ViewID != "" && v.ViewID != "" && req.ViewID != v.ViewID {
		writeResult(w, -1, "view not found", nil)
		return
	}

	rv := renderedView{ID: v.ViewID, Name: v.Name}
	for _, col := range v.Columns {
		rv.Columns = append(rv.Columns, column{ID: col.ID, Name: col.Name, Type: string(col.Type), Template: col.Template})
	}
	if v.Kind == view.KindGallery {
		rv.Fields, rv.Columns = rv.Columns, nil
	}
	writeResult(w, 0, "", renderData{Name: v.Name, View: rv})
}

func writeResult(w http.ResponseWriter, code int, msg string, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"code": code, "msg": msg, "data": data})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode JSON response", "error", err)
	}
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", uuid.New().String())
		next.ServeHTTP(w, r)
	})
}

func logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start),
			)
		})
	}
}

func recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered", "error", err)
					writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func auth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("Authorization") != "Token "+token {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"code": -1, "msg": "auth failed"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
