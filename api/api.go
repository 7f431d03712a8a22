// Package api serves schedule queries over a loaded feed as JSON.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"tidbyt.dev/gtfslite"
	"tidbyt.dev/gtfslite/internal/logger"
)

const RequestIDHeader = "X-Request-Id"

type Options struct {
	AllowedOrigins []string
}

type ctxKey int

const requestIDKey ctxKey = 0

// Builds the router for feed. Handlers only read from the feed, so
// it may be shared with other goroutines.
func NewRouter(feed *gtfslite.Feed, opts Options) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &handler{feed: feed}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
	}))

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", h.summary)
		r.Get("/dates/{date}", h.date)
		r.Get("/dates/{date}/trips", h.dateTrips)
		r.Get("/stops/trips", h.stopTrips)
		r.Get("/stops/{stopID}/summary", h.stopSummary)
		r.Get("/routes", h.routes)
		r.Get("/routes/{routeID}/summary", h.routeSummary)
		r.Get("/service-hours", h.serviceHours)
		r.Get("/frequency", h.frequency)
		r.Get("/distribution", h.distribution)
	})

	return r
}

// Tags each request with an id, reusing the client's if provided.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		logger.Info(
			"request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", RequestID(r.Context()),
		)
	})
}
