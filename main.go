package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/username/riconcilia/src/config"
	"github.com/username/riconcilia/src/database"
	"github.com/username/riconcilia/src/handlers"
	"github.com/username/riconcilia/src/logger"
	"github.com/username/riconcilia/src/processors"
	"github.com/username/riconcilia/src/services"
	"golang.org/x/time/rate"
)

func rateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Reconciliation server starting...")

	if err := config.Cfg.Validate(); err != nil {
		logger.L.Error("Configuration invalid", "error", err)
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations()

	registry := services.NewInstallationRegistry(config.Cfg.RegistryCacheTTL)
	reconciliationService := services.NewReconciliationService(
		database.DB,
		registry,
		processors.NewTheoreticalProcessor(),
		config.Cfg.HeaderScanRows,
	)

	reconciliationHandler := handlers.NewReconciliationHandler(reconciliationService, config.Cfg.InputRoot, config.Cfg.MaxRequestBytes)
	limiter := rate.NewLimiter(rate.Every(config.Cfg.RateLimitEvery), config.Cfg.RateLimitBurst)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(rateLimitMiddleware(limiter))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Reconciliation backend is running"})
	})
	r.Get("/healthz", handlers.NewHealthHandler(database.DB))

	r.Route("/api", func(r chi.Router) {
		r.Post("/reconciliations", reconciliationHandler.HandleRun)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// A run reads every feed and rewrites the report before answering.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr, "inputRoot", config.Cfg.InputRoot)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
