package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"quiz-scoring-service/internal/app"
	"quiz-scoring-service/internal/metrics"
)

// RouterOptions carries the optional parts of the HTTP surface.
type RouterOptions struct {
	AllowedOrigins []string
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
}

// NewRouter mounts the attempt API, the live feed and the operational endpoints.
func NewRouter(service *app.AttemptService, opts RouterOptions) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler())
	}

	api := NewAttemptHandler(service, log)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Post("/quizzes/{quizID}/attempts", api.StartAttempt)
		r.Route("/attempts/{attemptID}", func(r chi.Router) {
			r.Post("/submit", api.SubmitAttempt)
			r.Get("/score", api.GetScore)
			r.Get("/responses", api.GetResponses)
		})
	})

	feed := NewFeedHandler(service, log)
	r.Get("/ws/quizzes/{quizID}", feed.ServeWS)
	return r
}
