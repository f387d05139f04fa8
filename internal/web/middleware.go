package web

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// HeaderUserID carries the owner identity set by the upstream gateway.
const HeaderUserID = "X-User-ID"

type ownerHandler func(w http.ResponseWriter, r *http.Request, owner string)

// withOwner rejects requests without an owner identity.
func (s *Server) withOwner(h ownerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if owner == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing " + HeaderUserID})
			return
		}
		h(w, r, owner)
	}
}

// logRequests logs each request with method, path, status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		level := slog.LevelInfo
		if sw.status >= 500 {
			level = slog.LevelError
		}
		s.log.LogAttrs(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", sw.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("owner", r.Header.Get(HeaderUserID)),
		)
	})
}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}
