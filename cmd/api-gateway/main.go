package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/umarmf343/vea-2025-sub003/internal/handler"
	"github.com/umarmf343/vea-2025-sub003/internal/middleware"
	"github.com/umarmf343/vea-2025-sub003/internal/repository"
	"github.com/umarmf343/vea-2025-sub003/internal/service"
	"github.com/umarmf343/vea-2025-sub003/pkg/cache"
	"github.com/umarmf343/vea-2025-sub003/pkg/config"
	"github.com/umarmf343/vea-2025-sub003/pkg/database"
	"github.com/umarmf343/vea-2025-sub003/pkg/jobs"
	"github.com/umarmf343/vea-2025-sub003/pkg/logger"
	corsmiddleware "github.com/umarmf343/vea-2025-sub003/pkg/middleware/cors"
	reqidmiddleware "github.com/umarmf343/vea-2025-sub003/pkg/middleware/requestid"
)

type storeBackend struct {
	store  repository.KeyValueStore
	locker repository.Locker
	pinger handler.Pinger
	redis  *redis.Client
	close  func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openStore(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open document store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer backend.close()

	metrics := service.NewMetricsService()
	docs := repository.NewDocumentRepository(backend.store, backend.locker, cfg.Store.KeyPrefix, metrics, logr)

	var notifier service.ChangeNotifier
	if cfg.Notify.Enabled {
		var publisher service.Publisher = service.NewLogPublisher(logr)
		if backend.redis != nil {
			publisher = repository.NewRedisPublisher(backend.redis, cfg.Notify.Channel)
		}
		worker := service.NewNotificationWorker(publisher, logr)
		queue := jobs.NewQueue("change-notifications", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Notify.Workers,
			MaxRetries: cfg.Notify.Retries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()
		notifier = service.NewNotificationService(queue, logr)
	}

	financial := service.NewFinancialAnalyticsService(docs, metrics, notifier, service.FinancialAnalyticsConfig{OnTimeDays: cfg.Analytics.OnTimeDays}, logr)
	cumulative := service.NewCumulativeReportService(docs, metrics, notifier, logr)
	ledger := service.NewExamResultService(docs, cumulative, notifier, validator.New(), logr)
	exports := service.NewExportService(financial, cumulative, service.ExportConfig{Enabled: cfg.Exports.Enabled}, logr, nil, nil)
	metricsHandler := handler.NewMetricsHandler(metrics, backend.pinger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	handler.RegisterProbes(r, metricsHandler)
	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Financial:  handler.NewFinancialAnalyticsHandler(financial, exports),
		Exams:      handler.NewExamResultHandler(ledger),
		Cumulative: handler.NewCumulativeReportHandler(cumulative, exports),
		Metrics:    metricsHandler,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*storeBackend, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory, "":
		logr.Warn("using in-memory document store; data is lost on restart")
		return &storeBackend{
			store:  repository.NewMemoryStore(),
			locker: repository.NewMemoryLocker(),
			close:  func() {},
		}, nil
	case config.StoreDriverRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		store := repository.NewRedisStore(client, logr)
		return &storeBackend{
			store:  store,
			locker: repository.NewRedisLocker(client, cfg.Store.LockTTL, cfg.Store.LockWait, logr),
			pinger: store,
			redis:  client,
			close:  func() { _ = store.Close() },
		}, nil
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		store, err := repository.NewPostgresStore(db, cfg.Database.KVTable)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &storeBackend{
			store:  store,
			locker: repository.NewPostgresLocker(db, cfg.Store.LockWait, logr),
			pinger: store,
			close:  func() { _ = db.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
