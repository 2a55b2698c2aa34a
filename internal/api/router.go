package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Brokerage-Holdings-Backend/internal/api/middleware"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/config"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/metrics"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/service"
)

// NewRouter creates and configures the HTTP router. System endpoints and
// /metrics are public; everything under /api/holdings requires a user
// resolved by auth.
func NewRouter(
	systemService *service.SystemService,
	holdingService *service.HoldingService,
	auth *custommiddleware.Authenticator,
	logger *zap.Logger,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/holdings", func(r chi.Router) {
			r.Use(auth.Middleware)
			holdingHandler := handlers.NewHoldingHandler(holdingService)
			r.Get("/", holdingHandler.Holdings)
			r.Get("/details", holdingHandler.Details)

			r.Route("/{accountId}/{stockCode}", func(r chi.Router) {
				r.Use(custommiddleware.ValidatePositionMiddleware)
				r.Put("/price", holdingHandler.SetPrice)
				r.Delete("/price", holdingHandler.ClearPrice)
			})
		})
	})

	return r
}
