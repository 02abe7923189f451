package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"mondesavoir/cache"
	"mondesavoir/config"
	"mondesavoir/database"
	"mondesavoir/events"
	"mondesavoir/messaging"
	"mondesavoir/repository"
	"mondesavoir/server"
	"mondesavoir/service"

	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Run initializes the application and serves HTTP until ctx is cancelled
func Run(ctx context.Context) error {
	cfg := config.Get()
	cfg.ConfigureLogging()

	log.WithField("environment", cfg.Environment).Info("Starting Monde Savoir backend...")

	databaseURL := cfg.GetDatabaseURL()

	log.Info("Applying database migrations...")
	if err := database.RunMigrationsWithURL(databaseURL); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, databaseURL, database.WithMaxConns(cfg.DatabaseMaxConns))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	userCache, closeCache, err := newUserCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	closeForwarder, err := startEventForwarder(ctx, cfg, eventBus)
	if err != nil {
		return err
	}
	defer closeForwarder()

	userService := service.NewUserService(uowFactory, userCache)
	scoringService := service.NewScoringService(uowFactory, userCache)
	quizService := service.NewQuizService(uowFactory, userCache)

	srv := server.New(userService, scoringService, quizService, db).
		NewHTTPServer(cfg.ListenAddr(), cfg.CORSOrigins)

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	log.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}

	// Let in-flight event handlers finish before closing their clients
	eventBus.Wait()

	log.Info("Shutdown completed")
	return nil
}

// newUserCache returns a Redis cache when REDIS_URL is set and a no-op cache otherwise
func newUserCache(ctx context.Context, cfg *config.Config) (service.UserCache, func(), error) {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, user cache disabled")
		return cache.NoopUserCache{}, func() {}, nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	closeFn := func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Error("Error closing Redis client")
		}
	}
	return cache.NewRedisUserCache(client, cfg.UserCacheTTL), closeFn, nil
}

// startEventForwarder forwards committed events to NATS when NATS_URL is set
func startEventForwarder(ctx context.Context, cfg *config.Config, bus *events.Bus) (func(), error) {
	if cfg.NATSURL == "" {
		log.Info("NATS_URL not set, event forwarding disabled")
		return func() {}, nil
	}

	client := messaging.NewNATSClient(cfg.NATSURL)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	messaging.NewEventForwarder(client, cfg.NATSSubjectPrefix).Register(bus)
	log.WithField("subjectPrefix", cfg.NATSSubjectPrefix).Info("Forwarding domain events to NATS")

	return func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS client")
		}
	}, nil
}
