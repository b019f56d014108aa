// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/stockeasy/internal/api"
	"github.com/andresuchdata/stockeasy/internal/cache"
	"github.com/andresuchdata/stockeasy/internal/config"
	"github.com/andresuchdata/stockeasy/internal/drive"
	"github.com/andresuchdata/stockeasy/internal/forecast"
	"github.com/andresuchdata/stockeasy/internal/ingest"
	"github.com/andresuchdata/stockeasy/internal/metrics"
	"github.com/andresuchdata/stockeasy/internal/notify"
	"github.com/andresuchdata/stockeasy/internal/payment"
	"github.com/andresuchdata/stockeasy/internal/repository/postgres"
	"github.com/andresuchdata/stockeasy/internal/restock"
	"github.com/andresuchdata/stockeasy/internal/scheduler"
	"github.com/andresuchdata/stockeasy/internal/service"
	"github.com/andresuchdata/stockeasy/internal/storage"
	"github.com/andresuchdata/stockeasy/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	log := logger.With("server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	inventoryRepo := postgres.NewInventoryRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)
	txRepo := postgres.NewTransactionRepository(db)

	var redisClient *redis.Client
	restockCache := cache.NewNoopRestockCache()
	if cfg.Cache.Enabled || cfg.Notify.Redis {
		redisClient, err = cache.NewRedisClient(cfg.Cache)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer redisClient.Close()
	}
	if cfg.Cache.Enabled {
		restockCache = cache.NewRestockCache(redisClient, cache.TTL(cfg.Cache))
	}

	notifiers := notify.Multi{notify.NewLogNotifier(logger.With("notify"))}
	if cfg.Notify.Redis {
		notifiers = append(notifiers, notify.NewRedisNotifier(redisClient, cfg.Notify.Channel))
	}

	var archiver service.Archiver
	if cfg.Storage.Enabled {
		store, err := storage.NewMinioClient(storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create object storage client")
		}
		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare report bucket")
		}
		archiver = storage.NewReportArchiver(store)
	}

	source, err := inventorySource(ctx, cfg, inventoryRepo)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up inventory source")
	}

	engine := restock.NewEngine(
		source,
		forecast.NewVelocityForecaster(forecast.WithHorizon(cfg.Restock.ForecastHorizonDays)),
		catalogRepo,
		restock.WithLogger(logger.With("restock")),
	)

	var transferer payment.Transferer = payment.DemoTransferer{}
	if cfg.Payments.Live {
		log.Warn().Msg("Live payments requested but no chain transferer is configured; using demo transfers")
	}

	recorder := metrics.NewRecorder()
	restockService := service.NewRestockService(service.Deps{
		Engine:       engine,
		Configs:      postgres.NewAgentConfigRepository(db),
		Cycles:       postgres.NewCycleRepository(db),
		Transactions: txRepo,
		Cache:        restockCache,
		Archiver:     archiver,
		Notifier:     notifiers,
		Payments:     payment.NewExecutor(transferer, catalogRepo, txRepo, payment.WithMaxPerCycle(cfg.Payments.MaxPerCycle)),
		Metrics:      recorder,
		Defaults:     cfg.Restock.RestockSettings(),
		Whitelist:    cfg.Payments.Whitelist,
	})
	if err := restockService.Restore(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to restore cycle state")
	}

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(logger.Log)
		job := scheduler.NewRestockJob(scheduler.RestockJobConfig{
			Log:             logger.Log,
			Runner:          restockService,
			ExecutePayments: cfg.Scheduler.ExecutePayments,
		})
		if err := sched.AddJob(cfg.Scheduler.Spec, job); err != nil {
			log.Fatal().Err(err).Str("spec", cfg.Scheduler.Spec).Msg("Invalid scheduler spec")
		}
		sched.Start()
		defer sched.Stop()
	}

	router := api.NewRouter(&api.Services{
		RestockService: restockService,
		IngestService:  service.NewIngestService(inventoryRepo, catalogRepo, restockCache),
		Metrics:        recorder.Handler(),
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}

// inventorySource picks where cycles read the owner inventory from.
func inventorySource(ctx context.Context, cfg *config.Config, db restock.InventorySource) (restock.InventorySource, error) {
	switch cfg.App.InventorySource {
	case "file":
		return ingest.NewFileSource(cfg.App.InventoryFile), nil
	case "drive":
		creds, err := os.ReadFile(cfg.Drive.CredentialsPath)
		if err != nil {
			return nil, err
		}
		svc, err := drive.NewService(ctx, creds)
		if err != nil {
			return nil, err
		}
		return drive.NewSnapshotSource(svc, cfg.Drive.FolderID), nil
	default:
		return db, nil
	}
}
