// SM Agents Consulting landing page and lead-capture chat server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/smagents/landing/internal/api"
	"github.com/smagents/landing/internal/chat"
	"github.com/smagents/landing/internal/config"
	"github.com/smagents/landing/internal/grpchealth"
	"github.com/smagents/landing/internal/identity"
	"github.com/smagents/landing/internal/lead"
	"github.com/smagents/landing/internal/middleware"
	"github.com/smagents/landing/internal/site"
	"github.com/smagents/landing/internal/store"
	"github.com/smagents/landing/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "webhook", cfg.WebhookEnabled())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	var submitter lead.Submitter
	if cfg.WebhookEnabled() {
		submitter = lead.NewWebhookSubmitter(cfg.Webhook.URL, cfg.Webhook.Timeout)
	} else {
		slog.Warn("LEAD_WEBHOOK_URL not set, leads will only be logged")
		submitter = lead.NewLogSubmitter(logger)
	}
	dispatcher := lead.NewDispatcher(repo, submitter, cfg.Webhook.Timeout)

	transcripts, err := chat.NewTranscriptLogger(chat.TranscriptLogConfig{
		Enabled:   cfg.ConversationLog.Enabled,
		Dir:       cfg.ConversationLog.Dir,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := transcripts.Close(); closeErr != nil {
			slog.Error("Failed to close conversation logger", "error", closeErr)
		}
	}()

	// Initialize services.
	chatService := chat.NewService(repo, dispatcher, transcripts, cfg.ReplyDelay)
	rateLimiter := chat.NewRateLimiter(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowDuration)
	defer rateLimiter.Stop()
	sm := chat.NewSessionManager()

	// Initialize handlers.
	chatHandler := chat.NewHandler(chatService, rateLimiter)
	chatHandler.SetNotifier(sm)
	wsHandler := chat.NewWebSocketHandler(chatService, sm, rateLimiter, cfg.FrontendURL, cfg.IsDevelopment())
	healthHandler := api.NewHealthHandler(repo, 5*time.Second)
	pageHandler := site.NewHandler(site.Contacts{
		LinkedInURL: cfg.Site.LinkedInURL,
		Phone:       cfg.Site.Phone,
		Email:       cfg.Site.Email,
		Year:        time.Now().Year(),
	})

	allowedOrigins := []string{"*"}
	if !cfg.IsDevelopment() {
		allowedOrigins = []string{cfg.FrontendURL}
	}

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(allowedOrigins, identity.SessionHeaderName))

	// Public routes.
	healthHandler.RegisterHealth(r)
	r.Handle(web.StaticPrefix+"*", web.StaticHandler())
	r.Method(http.MethodGet, "/", pageHandler)

	// Chat routes carry the visitor cookie and per-tab session.
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(repo, cfg.IsDevelopment()))
		chatHandler.RegisterRoutes(r)
		r.Get(site.ChatSocketPath, wsHandler.ServeHTTP)
	})

	// Create server.
	// WebSocket connections are long-lived, so there is no WriteTimeout.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start lead worker.
	lead.NewWorker(repo, dispatcher, lead.WorkerConfig{
		Interval:        cfg.Delivery.SweepInterval,
		MaxAttempts:     cfg.Delivery.MaxAttempts,
		BaseDelay:       cfg.Delivery.BaseDelay,
		StaleAfter:      cfg.Delivery.StaleAfter,
		ConversationTTL: cfg.ConversationTTL,
	}).Start(ctx)

	// Start gRPC health server (optional).
	if cfg.GRPCHealthPort != "" {
		healthServer := grpchealth.New(repo, 0, logger)
		go func() {
			if err := healthServer.ListenAndServe(ctx, ":"+cfg.GRPCHealthPort); err != nil {
				slog.Error("gRPC health server failed", "error", err)
			}
		}()
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	// Hijacked WebSocket connections are not tracked by Shutdown.
	sm.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
