package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"corpchat-backend/internal/handlers"
	"corpchat-backend/internal/middleware"
)

func New(
	chatHandler *handlers.ChatHandler,
	pageHandler *handlers.PageHandler,
	catalogHandler *handlers.CatalogHandler,
	usageHandler *handlers.UsageHandler,
	metricsHandler http.Handler,
	allowedOrigins []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	if len(allowedOrigins) > 0 {
		r.Use(middleware.CORS(allowedOrigins))
	}

	r.Get("/health", handlers.Health)
	r.Handle("/metrics", metricsHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/models", catalogHandler.List)
		r.Get("/usage", usageHandler.Get)
		r.Post("/chat", chatHandler.Chat)
	})

	// Everything else, including prefixed */api/chat paths and wrong methods
	// on the routes above, is resolved by path suffix.
	dispatch := handlers.Dispatch(chatHandler, pageHandler)
	r.NotFound(dispatch)
	r.MethodNotAllowed(dispatch)

	return r
}
