package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"custodia/internal/jwttoken"
	"custodia/internal/platform/audit"
	auditkafka "custodia/internal/platform/audit/kafka"
	auditworker "custodia/internal/platform/audit/worker"
	"custodia/internal/platform/config"
	"custodia/internal/platform/httpserver"
	"custodia/internal/platform/logger"
	"custodia/internal/platform/metrics"
	platformredis "custodia/internal/platform/redis"
	vcache "custodia/internal/purchasability/cache"
	"custodia/internal/registry"
	registryhandler "custodia/internal/registry/handler"
	"custodia/internal/supplychain"
	assethandler "custodia/internal/supplychain/handler"
	scmetrics "custodia/internal/supplychain/metrics"
	"custodia/pkg/domain"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	orchestrator, err := domain.ParseIdentity(cfg.Chain.OrchestratorIdentity)
	if err != nil {
		log.Error("invalid orchestrator identity", "error", err)
		os.Exit(1)
	}
	vendorAdmin, err := domain.ParseIdentity(cfg.Chain.VendorAdmin)
	if err != nil {
		log.Error("invalid vendor admin identity", "error", err)
		os.Exit(1)
	}
	producerAdmin, err := domain.ParseIdentity(cfg.Chain.ProducerAdmin)
	if err != nil {
		log.Error("invalid producer admin identity", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vendors := registry.New(vendorAdmin, registry.NewInMemoryStore())
	producers := registry.New(producerAdmin, registry.NewInMemoryStore())
	if err := seedVendors(ctx, vendors, vendorAdmin, cfg.Chain.SeedVendors); err != nil {
		log.Error("seeding vendor registry failed", "error", err)
		os.Exit(1)
	}

	assets, db, err := buildIndex(cfg.Postgres)
	if err != nil {
		log.Error("asset index setup failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	opts := []supplychain.Option{
		supplychain.WithLogger(log),
		supplychain.WithMetrics(scmetrics.New()),
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis setup failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, supplychain.WithVerdictCache(
			vcache.New(redisClient.Client, vcache.WithTTL(cfg.Redis.VerdictTTL)),
		))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := auditkafka.New(cfg.Kafka.Brokers, auditkafka.WithTopic(cfg.Kafka.Topic))
		if err != nil {
			log.Error("audit kafka setup failed", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()

		inbox := make(chan audit.Event, 256)
		go func() {
			if err := auditworker.New(publisher, inbox, log).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit worker stopped", "error", err)
			}
		}()
		opts = append(opts, supplychain.WithAuditor(auditworker.ChannelSink(inbox)))
	}

	chain, err := supplychain.New(orchestrator, vendors, producers, assets, opts...)
	if err != nil {
		log.Error("supply chain service setup failed", "error", err)
		os.Exit(1)
	}

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, "custodia", "custodia-api")
	validator := jwttoken.NewJWTServiceAdapter(jwtService)
	httpMetrics := metrics.New()

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	assethandler.New(chain, log, httpMetrics, validator).Register(router)
	registryhandler.New(map[string]*registry.Registry{
		"vendors":   vendors,
		"producers": producers,
	}, log, httpMetrics, validator).Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting custodia", "addr", cfg.Server.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// seedVendors registers the configured vendor identities so a fresh
// deployment accepts assets without a manual admin call.
func seedVendors(ctx context.Context, vendors *registry.Registry, admin domain.Identity, seeds []string) error {
	for _, raw := range seeds {
		identity, err := domain.ParseIdentity(raw)
		if err != nil {
			return err
		}
		if err := vendors.Register(ctx, admin, identity); err != nil {
			return err
		}
	}
	return nil
}

func buildIndex(cfg config.Postgres) (supplychain.Index, *sql.DB, error) {
	if cfg.DSN == "" {
		return supplychain.NewInMemoryIndex(), nil, nil
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return supplychain.NewPostgresIndex(db), db, nil
}
