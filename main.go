package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/uahtax/backend/src/config"
	"github.com/username/uahtax/backend/src/database"
	"github.com/username/uahtax/backend/src/handlers"
	"github.com/username/uahtax/backend/src/logger"
	"github.com/username/uahtax/backend/src/parsers"
	"github.com/username/uahtax/backend/src/processors"
	"github.com/username/uahtax/backend/src/security"
	"github.com/username/uahtax/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match"},
		ExposedHeaders:   []string{"ETag", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("UAH tax backend server starting...")

	// Amounts go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	taxRates, err := processors.TaxRatesFromConfig(config.Cfg)
	if err != nil {
		logger.L.Error("Tax rate configuration invalid", "error", err)
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...", "ttl", config.Cfg.ReportTTL)
	reportCache := cache.New(config.Cfg.ReportTTL, services.CacheCleanupInterval)

	logger.L.Info("Initializing services and handlers...")
	statementParser, err := parsers.GetParser("ibkr")
	if err != nil {
		logger.L.Error("Failed to create statement parser", "error", err)
		os.Exit(1)
	}

	rateService := services.NewNBURateService(services.NBURateConfigFromApp(config.Cfg), database.DB)
	statementService := services.NewStatementService(
		statementParser,
		processors.NewLotMatcher(),
		processors.NewTradeTaxEngine(taxRates),
		processors.NewDividendProcessor(taxRates),
		rateService,
		reportCache,
		config.Cfg.ReportTTL,
	)

	sessionService := security.NewSessionService(config.Cfg.SessionSecret, config.Cfg.SessionTTL)
	secureCookie := true
	for _, origin := range config.Cfg.AllowedOrigins {
		if strings.HasPrefix(origin, "http://") {
			secureCookie = false
		}
	}
	sessionMiddleware := handlers.NewSessionMiddleware(sessionService, config.Cfg.SessionTTL, secureCookie)
	uploadHandler := handlers.NewUploadHandler(statementService, config.Cfg.MaxUploadSizeBytes)
	reportHandler := handlers.NewReportHandler(statementService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	handlers.RegisterRoutes(rootMux, sessionMiddleware, uploadHandler, reportHandler)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "UAH tax backend is running"})
			return
		}
		logger.L.Warn("Path not found", "method", r.Method, "path", r.URL.Path)
		http.NotFound(w, r)
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := corsMiddleware(config.Cfg.AllowedOrigins)(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:    serverAddr,
		Handler: finalHandler,
		// Rate lookups for a long statement can take a while on a cold archive.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
