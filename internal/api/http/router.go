package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	platformhealth "github.com/shestoi/yamoney-gateway/platform/health/http"
	platformobservability "github.com/shestoi/yamoney-gateway/platform/observability"

	"github.com/shestoi/yamoney-gateway/internal/api/http/middleware"
)

// RouterConfig параметры роутера, не относящиеся к обработчикам
type RouterConfig struct {
	// Allowlist источник yamoney_ip для /yamoney/check
	Allowlist middleware.AllowlistSource
	// TrustProxy брать адрес вызывающего из X-Forwarded-For
	TrustProxy bool
	// CORSAllowedOrigins origins для API транзакций; пустой список отключает CORS
	CORSAllowedOrigins []string
	// Readiness проверка готовности для /health
	Readiness func() bool
}

// NewRouter собирает роутер шлюза.
// /yamoney/check закрыт IP allowlist, страницы возврата и API открыты.
func NewRouter(handler *Handler, cfg RouterConfig, logger *zap.Logger) chi.Router {
	router := chi.NewRouter()

	router.Use(chimiddleware.Recoverer)
	if logger != nil {
		router.Use(platformobservability.HTTPMiddleware("yamoney", logger))
	}

	router.With(middleware.IPAllowlist(cfg.Allowlist, cfg.TrustProxy, logger)).
		Post(RouteCheck, handler.Check)

	router.Get(RouteComplete, handler.Complete)
	router.Get(RouteFail, handler.Fail)
	router.HandleFunc(RouteTemp, handler.Temp)

	router.Route(RouteTransactions, func(r chi.Router) {
		if len(cfg.CORSAllowedOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: cfg.CORSAllowedOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Content-Type"},
				MaxAge:         300,
			}))
		}
		r.Post("/", handler.InitiatePayment)
		r.Get("/", handler.ListTransactions)
		r.Get("/{ymid}", handler.GetTransaction)
		r.Post("/{ymid}/processed", handler.MarkProcessed)
		r.Post("/{ymid}/fail", handler.FailTransaction)
	})

	router.Get(RouteDonate, handler.Donate)
	router.Get(RouteMethods, handler.Methods)

	router.Get("/health", platformhealth.Handler(cfg.Readiness))

	return router
}
