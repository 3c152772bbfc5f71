// Package app assembles the HTTP server: configuration, backends, gates and routes.
package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/api"
	"github.com/Durgesh-2001/Booze-Delivery/internal/apperror"
	"github.com/Durgesh-2001/Booze-Delivery/internal/auth"
	"github.com/Durgesh-2001/Booze-Delivery/internal/config"
	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
	"github.com/Durgesh-2001/Booze-Delivery/internal/handlers"
	"github.com/Durgesh-2001/Booze-Delivery/internal/middleware"
	"github.com/Durgesh-2001/Booze-Delivery/internal/notify"
	"github.com/Durgesh-2001/Booze-Delivery/internal/telemetry"
)

// Backend is everything the router needs from the outside world
type Backend struct {
	Stores   database.Stores
	Notifier notify.Notifier
	// Redis backs the rate limiter when set; nil selects the in-memory store.
	Redis  *redis.Client
	Checks map[string]handlers.Check
	Close  func()
}

// NewRouter builds the full request pipeline:
// recover, security headers, request logging, origin allowlist, body limits, then routing.
func NewRouter(cfg *config.Config, backend *Backend, logger *zap.Logger) (http.Handler, error) {
	errh := middleware.NewErrorHandler(logger, !cfg.IsProduction())
	allowlist := middleware.NewOriginAllowlist(middleware.ParseAllowedOrigins(cfg.AllowedOrigins))

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	adminTokens := auth.NewTokens(cfg.AdminJWTSecret, cfg.TokenTTL)
	authGate := handlers.Middleware(middleware.Auth(tokens, errh))
	adminGate := handlers.Middleware(middleware.AdminAuth(adminTokens, errh))

	rateLimit, err := middleware.RateLimit(cfg.AuthRateLimit, cfg.TrustProxy, backend.Redis, errh)
	if err != nil {
		return nil, fmt.Errorf("configure rate limiter: %w", err)
	}
	limit := handlers.Middleware(rateLimit)

	openAPI, err := handlers.NewOpenAPIHandler(api.OpenAPI)
	if err != nil {
		return nil, err
	}

	metrics := middleware.NewMetrics()

	r := mux.NewRouter()
	r.Use(metrics.Middleware)
	if cfg.OTELEnabled {
		r.Use(telemetry.Middleware())
	}

	r.HandleFunc("/", handlers.Root).Methods(http.MethodGet)
	r.HandleFunc("/healthz", handlers.NewHealthChecker(backend.Checks).HealthCheck).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	static := staticFiles(cfg.UploadDir)
	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", static)).Methods(http.MethodGet, http.MethodHead)
	r.PathPrefix("/images/").Handler(http.StripPrefix("/images/", static)).Methods(http.MethodGet, http.MethodHead)

	// Protected groups are mounted ahead of /api so their gate sees every path under the prefix.
	paymentsRouter := protected(r, "/api/payments", authGate, errh)
	handlers.NewPaymentHandler(backend.Stores.Payments, backend.Stores.Orders, backend.Notifier, logger).
		RegisterRoutes(paymentsRouter, errh)

	ordersRouter := protected(r, "/api/orders", authGate, errh)
	handlers.NewOrderHandler(backend.Stores.Orders, backend.Stores.Users, backend.Notifier, logger).
		RegisterRoutes(ordersRouter, errh)

	notificationsRouter := protected(r, "/api/notifications", authGate, errh)
	handlers.NewNotificationHandler(backend.Stores.Notifications).
		RegisterRoutes(notificationsRouter, errh)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(mux.MiddlewareFunc(middleware.ContentType(errh)))

	apiRouter.HandleFunc("/openapi.yaml", openAPI.ServeYAML).Methods(http.MethodGet)
	apiRouter.HandleFunc("/openapi.json", openAPI.ServeJSON).Methods(http.MethodGet)
	apiRouter.Handle("/disclaimer", errh.Handle(handlers.Disclaimer)).Methods(http.MethodGet)

	handlers.NewUserHandler(backend.Stores.Users, tokens, backend.Notifier, logger).
		RegisterRoutes(apiRouter.PathPrefix("/users").Subrouter(), errh, authGate, limit)

	handlers.NewProductHandler(backend.Stores.Products).
		RegisterRoutes(apiRouter.PathPrefix("/products").Subrouter(), errh)

	handlers.NewAdminHandler(backend.Stores, adminTokens, handlers.AdminConfig{
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, backend.Notifier, logger).
		RegisterRoutes(apiRouter.PathPrefix("/admin").Subrouter(), errh, adminGate, limit)

	r.NotFoundHandler = errh.Handle(handlers.NotFound)
	r.MethodNotAllowedHandler = methodNotAllowed(errh)

	var h http.Handler = r
	h = middleware.MaxRequestSize(middleware.DefaultMaxRequestSize, cfg.MaxUploadBytes, errh)(h)
	h = middleware.CORS(allowlist, errh, logger)(h)
	h = middleware.Logging(logger, cfg.TrustProxy)(h)
	h = middleware.SecurityHeaders(cfg.EnableHSTS)(h)
	h = errh.Recover(h)
	return h, nil
}

// protected mounts a route group behind gate. The gate wraps the whole prefix,
// so every method and path under it is authenticated before routing or
// Content-Type checks run. The returned router takes paths relative to prefix.
func protected(root *mux.Router, prefix string, gate handlers.Middleware, errh *middleware.ErrorHandler) *mux.Router {
	group := mux.NewRouter()
	group.NotFoundHandler = errh.Handle(handlers.NotFound)
	group.MethodNotAllowedHandler = methodNotAllowed(errh)

	root.PathPrefix(prefix).
		MatcherFunc(underPrefix(prefix)).
		Handler(gate(middleware.ContentType(errh)(group)))

	return group.PathPrefix(prefix).Subrouter()
}

// underPrefix matches prefix itself and paths below it, but not "/api/ordersx"
func underPrefix(prefix string) mux.MatcherFunc {
	return func(r *http.Request, _ *mux.RouteMatch) bool {
		return r.URL.Path == prefix || strings.HasPrefix(r.URL.Path, prefix+"/")
	}
}

func methodNotAllowed(errh *middleware.ErrorHandler) http.Handler {
	return errh.Handle(func(http.ResponseWriter, *http.Request) error {
		return apperror.New(http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// staticFiles serves uploaded images without directory listings
func staticFiles(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
