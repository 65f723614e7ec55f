package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nahidhasan98/ghe-as3-relay/internal/errors"
	"github.com/nahidhasan98/ghe-as3-relay/internal/logger"
	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

// GitHub caps webhook payloads at 25 MB
const defaultMaxBodyBytes = 25 << 20

// Middleware represents the middleware dependencies
type Middleware struct {
	log          *logger.Logger
	maxBodyBytes int64
}

// New creates a new middleware instance
func New(log *logger.Logger) *Middleware {
	return &Middleware{
		log:          log,
		maxBodyBytes: defaultMaxBodyBytes,
	}
}

// Logging logs HTTP requests with detailed information
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a custom response writer to capture the status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		log := m.log.With("method", r.Method).
			With("path", r.URL.Path).
			With("status", rw.statusCode).
			With("duration", time.Since(start).String()).
			With("remote_addr", r.RemoteAddr)

		if id := chimw.GetReqID(r.Context()); id != "" {
			log = log.With("request_id", id)
		}
		if event := r.Header.Get("X-GitHub-Event"); event != "" {
			log = log.With("github_event", event).With("github_delivery", r.Header.Get("X-GitHub-Delivery"))
		}

		log.Infof("HTTP request completed")
	})
}

// Recovery handles panics and returns a 500 error
func (m *Middleware) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				appErr := errors.InternalError(fmt.Errorf("panic: %v", err))
				m.log.Error("Panic in HTTP handler", appErr)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(appErr.StatusCode)
				json.NewEncoder(w).Encode(models.ErrorResponse{Error: appErr.Message, Code: string(appErr.Code)})
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// BodyLimit caps request bodies
func (m *Middleware) BodyLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, m.maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// Security adds basic security headers
func (m *Middleware) Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Settings responses carry credentials
		if r.URL.Path != "/health" && r.URL.Path != "/metrics" {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter is a wrapper for http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Unwrap lets http.ResponseController reach the underlying writer
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
