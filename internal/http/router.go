package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"memberqa/internal/handlers"
	"memberqa/internal/rag"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	RAGEngine rag.Engine
	// RequestTimeout bounds a single question; zero means no limit.
	RequestTimeout time.Duration
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	askHandler := handlers.NewAskHandler(deps.RAGEngine)
	healthHandler := handlers.NewHealthHandler(deps.RAGEngine)
	refreshHandler := handlers.NewRefreshHandler(deps.RAGEngine)

	var ask http.Handler = askHandler
	if deps.RequestTimeout > 0 {
		ask = middleware.Timeout(deps.RequestTimeout)(askHandler)
	}

	r.Method(http.MethodGet, "/ask", ask)
	r.Method(http.MethodGet, "/health", healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/ask", ask)
		r.Method(http.MethodPost, "/refresh", refreshHandler)
	})

	return r
}
