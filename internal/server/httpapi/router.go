// Package httpapi is the REST surface of the task store: JSON handlers for
// the todo routes and the encryption diagnostics, mounted on a chi router.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmitrijs2005/todovault/internal/logging"
)

// RouterOptions tune the middleware stack.
type RouterOptions struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// NewRouter mounts the handlers. /tasks mirrors /todos.
func NewRouter(svc TaskService, opts RouterOptions, logger logging.Logger) http.Handler {
	logger = logger.With("module", "http")
	h := NewHandlers(svc, logger)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(securityHeaders)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.Get("/", h.Health)

	taskRoutes := func(r chi.Router) {
		r.Get("/", h.ListTasks)
		r.Post("/", h.CreateTask)
		r.Get("/{id}", h.GetTask)
		r.Patch("/{id}", h.UpdateTask)
		r.Put("/{id}", h.UpdateTask)
		r.Delete("/{id}", h.DeleteTask)
	}
	r.Route("/todos", taskRoutes)
	r.Route("/tasks", taskRoutes)

	r.Route("/encryption", func(r chi.Router) {
		r.Get("/status", h.EncryptionStatus)
		r.Post("/test", h.EncryptionTest)
	})

	return r
}
