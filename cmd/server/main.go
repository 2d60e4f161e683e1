// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/audit"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/platform/config"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/platform/httpserver"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/platform/logger"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/platform/metrics"
	platformredis "github.com/pkwroblewski/CBCR-TP-sub001/internal/platform/redis"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/ratelimit"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/refregistry"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/reportstore"
	httpapi "github.com/pkwroblewski/CBCR-TP-sub001/internal/transport/http"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/validation"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mx := metrics.New()

	// Audit sink: Kafka when brokers are configured, otherwise in memory.
	var auditStore audit.Store
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaStore, err := audit.NewKafkaStore(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("kafka audit store init failed", "error", err)
			os.Exit(1)
		}
		defer kafkaStore.Close()
		auditStore = kafkaStore
		log.Info("audit events published to kafka", "topic", cfg.Kafka.Topic)
	} else {
		auditStore = audit.NewInMemoryStore()
	}
	// Events flow publisher -> inbox -> worker -> sink so emitting never
	// blocks request handling.
	auditInbox := make(chan audit.Event, 256)
	auditWorker := audit.NewWorker(auditStore, auditInbox)
	auditor := audit.NewPublisher(audit.NewChannelStore(auditInbox))

	var healthChecks []httpapi.Option

	// Report store: Postgres when configured, otherwise in memory.
	var store reportstore.Store
	if cfg.DatabaseURL != "" {
		pgStore, err := reportstore.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres store init failed", "error", err)
			os.Exit(1)
		}
		defer pgStore.Close()
		store = pgStore
		healthChecks = append(healthChecks, httpapi.WithHealthCheck("postgres", pgStore.Health))
		log.Info("reports persisted to postgres")
	} else {
		store = reportstore.NewInMemoryStore()
	}

	// Reference registry: Redis when configured, otherwise in memory.
	var registry refregistry.Registry
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		registry = refregistry.NewRedisRegistry(redisClient, config.RegistryTTL)
		healthChecks = append(healthChecks, httpapi.WithHealthCheck("redis", redisClient.Health))
		log.Info("ref registry backed by redis")
	} else {
		registry = refregistry.NewInMemoryRegistry(config.RegistryTTL)
	}

	service := validation.New(log,
		validation.WithMetrics(mx),
		validation.WithAuditor(auditor),
	)

	limiter := ratelimit.NewMiddleware(
		ratelimit.NewInMemoryLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window),
		log,
		ratelimit.WithMetrics(mx),
		ratelimit.WithDisabled(!cfg.RateLimit.Enabled),
	)

	handlerOpts := append([]httpapi.Option{
		httpapi.WithRegistry(registry),
		httpapi.WithAuditor(auditor),
		httpapi.WithMaxBodySize(cfg.MaxBodySize),
	}, healthChecks...)
	handler := httpapi.NewHandler(service, store, log, handlerOpts...)
	srv := httpserver.New(cfg.Addr, httpapi.NewRouter(handler, limiter))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := auditWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info("starting cbcr validation server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
