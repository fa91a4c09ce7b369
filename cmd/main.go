package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"package-tracking/internal/config"
	domainShipment "package-tracking/internal/domain/shipment"
	"package-tracking/internal/infrastructure/cache"
	"package-tracking/internal/infrastructure/database/memory"
	"package-tracking/internal/infrastructure/database/mongo"
	"package-tracking/internal/infrastructure/database/postgres"
	"package-tracking/internal/ingestion"
	"package-tracking/internal/logger"
	"package-tracking/internal/routes"
	"package-tracking/internal/shipment/route"
	"package-tracking/internal/usecase/shipment"
	pkgmqtt "package-tracking/pkg/mqtt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
		zap.String("store", cfg.Store.Driver),
		zap.String("route_provider", cfg.Routing.Provider),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open record store", zap.Error(err))
	}
	defer closeStore()

	var trackingCache shipment.TrackingCache
	if cfg.Redis.URL != "" {
		c, err := cache.NewTrackingCache(ctx, cfg.Redis.URL, cfg.Redis.CacheTTL)
		if err != nil {
			logger.Fatal("Failed to configure tracking cache", zap.Error(err))
		}
		defer c.Close()
		trackingCache = c
	}

	service := shipment.NewService(repo, newRouteProvider(cfg), trackingCache, cfg.Routing.DefaultOrigin)

	if cfg.MQTT.Enabled {
		stopIngestion, err := startIngestion(cfg, service)
		if err != nil {
			logger.Fatal("Failed to start MQTT ingestion", zap.Error(err))
		}
		defer stopIngestion()
	}

	router := routes.SetupRoutes(ctx, cfg, service, repo)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

func openStore(ctx context.Context, cfg *config.Config) (domainShipment.Repository, func(), error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := postgres.NewDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return postgres.NewShipmentRepository(db), func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close database connection", zap.Error(err))
			}
		}, nil

	case "memory":
		logger.Warn("Using in-memory record store; data is lost on restart")
		return memory.NewShipmentRepository(), func() {}, nil

	default:
		db, err := mongo.NewDB(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		if err := db.EnsureIndexes(ctx); err != nil {
			_ = db.Close(context.Background())
			return nil, nil, err
		}
		return mongo.NewShipmentRepository(db), func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := db.Close(closeCtx); err != nil {
				logger.Error("Failed to close mongo connection", zap.Error(err))
			}
		}, nil
	}
}

func newRouteProvider(cfg *config.Config) route.Provider {
	static := route.NewStaticProvider()
	if cfg.Routing.Provider != "ors" {
		return static
	}

	ors := route.NewORSProvider(route.ORSConfig{
		APIKey:      cfg.Routing.ORSAPIKey,
		BaseURL:     cfg.Routing.ORSBaseURL,
		Timeout:     cfg.Routing.ORSTimeout,
		SampleCount: cfg.Routing.SampleCount,
	})
	return route.NewFallbackProvider(ors, static)
}

func startIngestion(cfg *config.Config, service *shipment.Service) (func(), error) {
	processor := ingestion.NewProcessor(service, 4, 256, 5*time.Second)
	processor.Metrics().OnChange(ingestion.DropAlert(func(dropped int64) {
		logger.Warn("MQTT ingestion queue full, dropping reports", zap.Int64("dropped", dropped))
	}))
	processor.Start()

	clientCfg := pkgmqtt.DefaultConfig(cfg.MQTT.Broker, cfg.MQTT.ClientID)
	clientCfg.Username = cfg.MQTT.Username
	clientCfg.Password = cfg.MQTT.Password

	client, err := ingestion.NewMQTTIngestionClient(&ingestion.MQTTIngestionConfig{
		ClientConfig:  clientCfg,
		LocationTopic: cfg.MQTT.Topic,
		QoS:           cfg.MQTT.QoS,
	}, processor)
	if err != nil {
		processor.Stop()
		return nil, err
	}
	if err := client.Start(); err != nil {
		processor.Stop()
		return nil, err
	}

	return func() {
		client.Stop()
		processor.Stop()
		snap := processor.Metrics().Snapshot()
		logger.Info("MQTT ingestion stopped",
			zap.Int64("received", snap.MessagesReceived),
			zap.Int64("processed", snap.MessagesProcessed),
			zap.Int64("failed", snap.MessagesFailed),
			zap.Int64("dropped", snap.MessagesDropped),
		)
	}, nil
}
