package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/redmonkez12/car-api/internal/auth"
	"github.com/redmonkez12/car-api/internal/car"
	"github.com/redmonkez12/car-api/internal/config"
	"github.com/redmonkez12/car-api/internal/httputil"
	"github.com/redmonkez12/car-api/internal/logging"
	"github.com/redmonkez12/car-api/internal/upload"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	authHandler *auth.Handler,
	authMiddleware *auth.Middleware,
	carHandler *car.Handler,
	store upload.Store,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.TrustedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{"Content-Length"},
			MaxAge:         300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders(cfg.Storage.PublicPrefix))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(middleware.Compress(5, "application/json"))

	// Public routes
	r.Get("/health", handleHealth)

	prefix := "/" + cfg.Storage.PublicPrefix
	r.Handle(prefix+"/*", http.StripPrefix(prefix, upload.Handler(store, cfg.Storage.PublicPrefix)))

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/signin", authHandler.Signin)
		r.With(authMiddleware.RequireAuth).Get("/get-user", authHandler.GetUser)
	})

	// Protected routes (require authentication)
	r.Route("/api/cars", func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Post("/", carHandler.Create)
		r.Get("/", carHandler.List)
		r.Get("/{carId}", carHandler.Get)

		// mutations additionally require the caller to own the listing
		r.With(carHandler.RequireOwner).Put("/{carId}", carHandler.Update)
		r.With(carHandler.RequireOwner).Delete("/{carId}", carHandler.Delete)
	})

	return r
}

// handleHealth is a simple health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
