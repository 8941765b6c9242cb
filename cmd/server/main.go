package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dweebe/backend/internal/config"
	"github.com/dweebe/backend/internal/events"
	"github.com/dweebe/backend/internal/handlers"
	"github.com/dweebe/backend/internal/logger"
	"github.com/dweebe/backend/internal/services"
	"github.com/dweebe/backend/internal/storage"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

// run serves until a signal or a listen error. Its deferred cleanups always
// run before main exits.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("dweebe-api", false)
		log.Error().Err(err).Msg("[Config] invalid configuration")
		return err
	}
	logger.Init("dweebe-api", cfg.Debug)

	users, spawns, closeStore, err := openContainers(cfg)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.Store.Driver).Msg("[Store] failed to open containers")
		return err
	}
	defer closeStore()
	log.Info().Str("driver", cfg.Store.Driver).Msg("[Store] containers ready")

	// A nil interface, not a typed nil, keeps the service from publishing.
	var publisher services.SpawnPublisher
	if cfg.AMQP.URL != "" {
		p, err := events.NewSpawnPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.RoutingKey)
		if err != nil {
			log.Warn().Err(err).Msg("[AMQP] publisher unavailable, spawn fan-out disabled")
		} else {
			defer p.Close()
			publisher = p
		}
	}

	profileService := services.NewProfileService(users, nil)
	spawnService := services.NewSpawnService(spawns, publisher, nil)

	r := handlers.NewRouter(
		cfg.Server.CORSAllowedOrigins,
		handlers.NewProfileHandler(profileService, cfg.Server.RequestTimeout),
		handlers.NewSpawnHandler(spawnService, cfg.Server.RequestTimeout),
	)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("DWEEBE API server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		log.Error().Err(err).Msg("Server failed to start")
		return err
	case <-quit:
	}

	log.Info().Msg("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}
	return nil
}

// openContainers returns the users and spawn containers for the configured
// driver, plus a func releasing whatever client backs them.
func openContainers(cfg *config.Config) (storage.Container, storage.Container, func(), error) {
	noop := func() {}

	switch cfg.Store.Driver {
	case config.DriverCosmos:
		client, err := storage.NewCosmosClient(cfg.Cosmos.Endpoint, cfg.Cosmos.Key)
		if err != nil {
			return nil, nil, noop, err
		}
		users, err := storage.NewCosmosContainer(client, cfg.Cosmos.UsersDatabaseID, cfg.Cosmos.UsersContainerID)
		if err != nil {
			return nil, nil, noop, err
		}
		spawns, err := storage.NewCosmosContainer(client, cfg.Cosmos.SpawnDatabaseID, cfg.Cosmos.SpawnContainerID)
		if err != nil {
			return nil, nil, noop, err
		}
		return users, spawns, noop, nil

	case config.DriverMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := storage.NewMongoClient(ctx, cfg.Mongo.URI, cfg.Mongo.TLS)
		if err != nil {
			return nil, nil, noop, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				log.Warn().Err(err).Msg("[Mongo] disconnect failed")
			}
		}
		users := storage.NewMongoContainer(client, cfg.Mongo.UsersDatabase, cfg.Mongo.UsersCollection)
		spawns := storage.NewMongoContainer(client, cfg.Mongo.SpawnDatabase, cfg.Mongo.SpawnCollection)
		return users, spawns, closeFn, nil

	case config.DriverFile:
		users, err := storage.NewJSONContainer(cfg.Store.DataDir, "users.json")
		if err != nil {
			return nil, nil, noop, err
		}
		spawns, err := storage.NewJSONContainer(cfg.Store.DataDir, "dweebe.json")
		if err != nil {
			return nil, nil, noop, err
		}
		return users, spawns, noop, nil

	default:
		return storage.NewMemoryContainer(), storage.NewMemoryContainer(), noop, nil
	}
}
