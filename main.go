package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"matchbot-server/internal/config"
	"matchbot-server/internal/database"
	"matchbot-server/internal/handlers"
	"matchbot-server/internal/logging"
	"matchbot-server/internal/middleware"
	"matchbot-server/internal/redis"
	"matchbot-server/internal/repository"
	"matchbot-server/internal/services"
	"matchbot-server/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	// Load configuration
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		log.Debug("No .env file found")
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL, cfg.GinMode)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	store := repository.NewGormStore(db, cfg.QueryTimeout)

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()
	notifier := redis.NewEventNotifier(redisClient, cfg.EventsChannel)

	// Media storage is optional; uploads answer 503 without it
	var media services.MediaStorage
	if storage, err := services.NewStorageService(cfg); err != nil {
		log.WithError(err).Warn("Media storage disabled")
	} else if err := storage.EnsureBucket(ctx); err != nil {
		log.WithError(err).Warn("Media storage disabled")
	} else {
		media = storage
	}

	settings := services.NewSettingsService(store, cfg.AdminIDs)
	quota := services.NewQuotaTracker(store, settings, cfg.MaxDailyViews, cfg.Location(), log)
	selector := services.NewCandidateSelector(store, cfg.CandidatePoolSize, log)
	ledger := services.NewInterestLedger(store)
	subs := services.NewSubscriptionManager(store, cfg.VIPDuration, cfg.VIPPriceAmount, cfg.VIPCurrency, log)
	session := services.NewMatchSession(store, quota, selector, ledger, subs, notifier, log)
	profiles := services.NewProfileService(store, media, log)
	moderation := services.NewModerationService(store, cfg.Location(), log)

	// Initialize WebSocket hub and feed it from the events channel
	hub := websocket.NewHub(log)
	go hub.Run(ctx)
	events, err := notifier.Events(ctx, func(err error) {
		log.WithError(err).Warn("Dropping malformed event")
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to subscribe to events")
	}
	go hub.Relay(ctx, events)

	limiter := middleware.NewRateLimiter(float64(cfg.RateLimitRPS), cfg.RateLimitBurst)
	go limiter.Cleanup(ctx, time.Minute, 10*time.Minute)

	router := handlers.SetupRoutes(handlers.Handlers{
		Auth:    handlers.NewAuthHandler(cfg, log),
		User:    handlers.NewUserHandler(profiles, moderation, subs, cfg, log),
		Match:   handlers.NewMatchHandler(session, log),
		Payment: handlers.NewPaymentHandler(subs, log),
		Admin:   handlers.NewAdminHandler(moderation, subs, settings, log),
		Hub:     hub,
		Limiter: limiter,
	}, cfg, log)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	shutdown(srv, hub, log)
}

func shutdown(srv *http.Server, hub *websocket.Hub, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("Shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	// Hijacked websocket connections are not tracked by srv.Shutdown.
	hub.Wait()
}
