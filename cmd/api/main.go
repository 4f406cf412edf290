// cmd/api/main.go
// Main entry point for the application
// This file bootstraps all components and starts the server

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/imadgeboyega/laundry-backend/internal/auth"
	"github.com/imadgeboyega/laundry-backend/internal/common/database"
	"github.com/imadgeboyega/laundry-backend/internal/common/logging"
	"github.com/imadgeboyega/laundry-backend/internal/common/utils"
	"github.com/imadgeboyega/laundry-backend/internal/config"
	"github.com/imadgeboyega/laundry-backend/internal/notification"
	"github.com/imadgeboyega/laundry-backend/internal/registration"
	"github.com/imadgeboyega/laundry-backend/internal/session"
	"github.com/imadgeboyega/laundry-backend/internal/sms"
)

var startTime = time.Now()

func main() {
	// 1. Load environment variables
	envErr := godotenv.Load()

	// 2. Load and validate configuration
	cfg := config.Load()

	logger := logging.New(cfg.Logging())
	defer func() { _ = logger.Sync() }()

	if envErr != nil {
		logger.Warn("No .env file found, using environment variables", zap.Error(envErr))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Configuration validation failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Connect to PostgreSQL
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, database.DefaultPool)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	if err := database.Migrate(ctx, db, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// 4. Connect to Redis
	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis")

	// 5. Sessions
	sessionManager := session.NewManager(session.NewRedisStore(redisClient), cfg.Session(), logger)

	// 6. SMS dispatcher
	dispatcher, err := sms.NewDispatcher(cfg.SMS(), logger.Named("sms"))
	if err != nil {
		logger.Fatal("Failed to initialize SMS dispatcher", zap.Error(err))
	}
	logger.Info("SMS dispatcher initialized", zap.String("provider", string(dispatcher.Provider())))

	// 7. Email notifications
	emailProvider, err := notification.NewProvider(cfg.Email())
	if err != nil {
		logger.Fatal("Failed to initialize email provider", zap.Error(err))
	}
	notifier := notification.NewService(emailProvider, cfg.AppName, cfg.EnableEmailNotifications, logger.Named("email"))
	logger.Info("Email provider initialized", zap.String("provider", cfg.EmailProvider))

	// 8. Auth and registration
	userRepo := auth.NewPostgresRepository(db)
	authService := auth.NewService(userRepo, logger.Named("auth"))
	authHandler := auth.NewHandler(authService)

	flow := registration.NewFlow(userRepo, dispatcher, notifier, cfg.Registration(), logger.Named("registration"))
	registrationHandler := registration.NewHandler(flow, logger.Named("registration"))

	// 9. Setup routes
	router := mux.NewRouter()
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	router.NotFoundHandler = http.HandlerFunc(notFound)

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(logger))

	router.HandleFunc("/health", healthCheck(db, redisClient)).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Everything below needs a session
	app := router.PathPrefix("/").Subrouter()
	app.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	app.Use(sessionManager.Middleware)

	authHandler.RegisterRoutes(app)
	registration.RegisterRoutes(app, registrationHandler)
	sms.RegisterRoutes(app,
		sms.NewHandler(dispatcher),
		auth.RequireRole(auth.RoleStaff, auth.RoleAdmin),
		auth.RequireRole(auth.RoleAdmin),
	)

	// 10. Create and start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * cfg.SMSTimeout, // send-bulk clears its own deadline
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.Environment),
			zap.String("base_url", cfg.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Server exited gracefully")
}

// healthCheck reports server health and backing store reachability
func healthCheck(db *sqlx.DB, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := map[string]string{"database": "ok", "redis": "ok"}
		if err := db.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}

		utils.RespondWithJSON(w, status, map[string]interface{}{
			"status":    http.StatusText(status),
			"timestamp": time.Now().Format(time.RFC3339),
			"uptime":    time.Since(startTime).String(),
			"checks":    checks,
		})
	}
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	utils.ErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	utils.ErrorResponse(w, "Not found", http.StatusNotFound)
}

// requestLogger logs all requests
func requestLogger(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
			)
		})
	}
}
