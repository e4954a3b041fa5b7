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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/pintuan-backend/api"
	"github.com/angelmondragon/pintuan-backend/api/controllers"
	"github.com/angelmondragon/pintuan-backend/api/routes"
	"github.com/angelmondragon/pintuan-backend/internal/cron"
	"github.com/angelmondragon/pintuan-backend/internal/grouporders"
	"github.com/angelmondragon/pintuan-backend/internal/notifications"
	"github.com/angelmondragon/pintuan-backend/internal/orders"
	"github.com/angelmondragon/pintuan-backend/pkg/config"
	"github.com/angelmondragon/pintuan-backend/pkg/db"
	"github.com/angelmondragon/pintuan-backend/pkg/logger"
	"github.com/angelmondragon/pintuan-backend/pkg/metrics"
	"github.com/angelmondragon/pintuan-backend/pkg/migrate"
	"github.com/angelmondragon/pintuan-backend/pkg/pubsub"
	"github.com/angelmondragon/pintuan-backend/pkg/redis"
)

const (
	serviceName     = "group-closer"
	shutdownTimeout = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceName

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "group closer stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "group closer shut down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run dev migrations: %w", err)
	}

	checks := map[string]controllers.Pinger{"db": dbClient}

	var (
		lock    cron.Lock        = cron.NewLocalLock()
		reports cron.ReportStore = cron.NewMemoryReportStore()
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		checks["redis"] = redisClient

		redisLock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cron.GroupClosingJobName), cfg.Scheduler.LockTTL)
		if err != nil {
			return fmt.Errorf("create scheduler lock: %w", err)
		}
		lock = redisLock
		reports, err = cron.NewRedisReportStore(redisClient, 0)
		if err != nil {
			return fmt.Errorf("create report store: %w", err)
		}
	} else {
		logg.Warn(ctx, "redis not configured; scheduler lock is process-local")
	}

	notifier, closeNotifier, err := buildNotifier(ctx, cfg, logg, dbClient, checks)
	if err != nil {
		return err
	}
	defer closeNotifier()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	job, err := cron.NewGroupClosingJob(cron.GroupClosingJobParams{
		Logger:       logg,
		Repo:         grouporders.NewRepository(dbClient.DB()),
		Notifier:     notifier,
		Dispatcher:   cron.NewPoolDispatcher(cfg.Scheduler.MaxConcurrency),
		Metrics:      metrics.NewSettlementMetrics(reg),
		Reports:      reports,
		GroupTimeout: cfg.Scheduler.GroupTimeout,
	})
	if err != nil {
		return fmt.Errorf("create group closing job: %w", err)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(job),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
		Interval: cfg.Scheduler.Interval,
	})
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()), notifier, logg)
	if err != nil {
		return fmt.Errorf("create orders service: %w", err)
	}

	server := api.NewServer(cfg.Admin, routes.NewRouter(cfg, logg, routes.Deps{
		Checks:    checks,
		Scheduler: service,
		Reports:   reports,
		Refunds:   orderService,
		Shipments: orderService,
		Gatherer:  reg,
	}))

	logg.Info(logg.WithFields(ctx, map[string]any{
		"interval":        cfg.Scheduler.Interval.String(),
		"max_concurrency": cfg.Scheduler.MaxConcurrency,
		"admin_addr":      server.Addr,
	}), "starting group closer")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := service.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("admin server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildNotifier fans out to every configured channel. The returned func
// flushes pending publishes.
func buildNotifier(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, checks map[string]controllers.Pinger) (notifications.Notifier, func(), error) {
	var (
		channels []notifications.Notifier
		closers  []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.Notifications.Uses("store") {
		store, err := notifications.NewStoreNotifier(notifications.NewRepository(dbClient.DB()))
		if err != nil {
			return nil, closeAll, fmt.Errorf("create store notifier: %w", err)
		}
		channels = append(channels, store)
	}

	if cfg.Notifications.Uses("pubsub") {
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, closeAll, fmt.Errorf("bootstrap pubsub: %w", err)
		}
		publisher := client.NotificationPublisher()
		closers = append(closers, func() {
			publisher.Stop()
			if err := client.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		})
		checks["pubsub"] = client

		pubsubNotifier, err := notifications.NewPubSubNotifier(publisher, cfg.PubSub.PublishTimeout)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("create pubsub notifier: %w", err)
		}
		channels = append(channels, pubsubNotifier)
	}

	multi := notifications.NewMultiNotifier(channels...)
	if multi.Len() == 0 {
		closeAll()
		return nil, func() {}, fmt.Errorf("no notification channel enabled in %s", config.EnvNotificationChannels)
	}
	return multi, closeAll, nil
}
