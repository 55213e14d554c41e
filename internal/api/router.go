package api

import (
	"log/slog"
	"net/http"
	"time"

	_ "cobro-engine/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"cobro-engine/internal/api/handler"
	mw "cobro-engine/internal/api/middleware"
	"cobro-engine/internal/config"
	"cobro-engine/internal/domain/client"
	"cobro-engine/internal/domain/credit"
	"cobro-engine/internal/domain/route"
)

func SetupRouter(creditService credit.Service, clientService client.Service, routeService route.Service, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupAuthRoutes(router, cfg, logger)
	setupCreditRoutes(router, creditService, cfg, logger)
	setupClientRoutes(router, clientService, cfg, logger)
	setupRouteRoutes(router, routeService, clientService, cfg, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	setupSwaggerEndpoint(router, logger)

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupAuthRoutes(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(*cfg, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)
	})
}

func setupCreditRoutes(router *chi.Mux, creditService credit.Service, cfg *config.Config, logger *slog.Logger) {
	creditHandler := handler.NewCreditHandler(creditService, logger)

	router.Route("/credits", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", creditHandler.CreateCredit)
		r.Get("/{creditID}", creditHandler.GetCredit)
		r.Get("/{creditID}/arrears", creditHandler.GetArrears)
		r.Post("/{creditID}/payments", creditHandler.RegisterPayment)
		r.Post("/{creditID}/writeoff", creditHandler.WriteOff)
	})
}

func setupClientRoutes(router *chi.Mux, clientService client.Service, cfg *config.Config, logger *slog.Logger) {
	clientHandler := handler.NewClientHandler(clientService, logger)

	router.Route("/clients", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", clientHandler.CreateClient)
		r.Get("/{clientID}", clientHandler.GetClient)
	})
}

func setupRouteRoutes(router *chi.Mux, routeService route.Service, clientService client.Service, cfg *config.Config, logger *slog.Logger) {
	routeHandler := handler.NewRouteHandler(routeService, logger)
	clientHandler := handler.NewClientHandler(clientService, logger)

	router.Route("/routes/{routeID}", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/", routeHandler.GetRoute)
		r.Get("/clients", clientHandler.ListClients)
		r.Get("/liquidation", routeHandler.GetLiquidation)
		r.Get("/collection-list", routeHandler.GetCollectionList)
		r.Post("/expenses", routeHandler.RegisterExpense)
		r.Post("/transactions", routeHandler.RegisterTransaction)
	})
}
