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

	"golang.org/x/sync/errgroup"

	"caseledger/internal/access"
	accessstore "caseledger/internal/access/store"
	"caseledger/internal/audit"
	"caseledger/internal/audit/outbox"
	auditstore "caseledger/internal/audit/store"
	"caseledger/internal/gateway"
	"caseledger/internal/platform/config"
	"caseledger/internal/platform/httpserver"
	"caseledger/internal/platform/logger"
	"caseledger/internal/platform/metrics"
	"caseledger/internal/platform/middleware"
	"caseledger/internal/platform/postgres"
	platformredis "caseledger/internal/platform/redis"
	registryservice "caseledger/internal/registry/service"
	registrystore "caseledger/internal/registry/store"
	transporthttp "caseledger/internal/transport/http"
	"caseledger/internal/verification"
	verifstore "caseledger/internal/verification/store"
	"caseledger/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db); err != nil {
		return err
	}

	m := metrics.New()
	recorder := audit.NewRecorder(auditstore.NewPostgresStore(db), log, m)
	records := registrystore.NewPostgresStore(db)
	grants := accessstore.NewPostgresGrantStore(db)
	txRunner := newPostgresTx(db)

	registrySvc := registryservice.New(records, recorder, txRunner, log, m)
	engine := access.NewEngine(records, grants)
	gw := gateway.New(engine, recorder, log, m)
	grantSvc := access.NewGrantService(grants, records, recorder, txRunner)

	codes, cleanupCodes, err := buildCodeStore(cfg, log)
	if err != nil {
		return err
	}
	defer cleanupCodes()
	verifSvc := verification.New(codes, records, registrySvc, recorder, log, cfg.VerificationCodeTTL)

	handler := transporthttp.NewHandler(registrySvc, grantSvc, verifSvc, recorder, gw)
	validator := middleware.NewHMACValidator(cfg.JWTSigningKey)
	router := transporthttp.NewRouter(handler, validator, log, m)
	server := httpserver.New(cfg.Addr, router)

	var worker *outbox.Worker
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := outbox.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer publisher.Close()
		worker = outbox.NewWorker(outbox.NewPostgresSource(db), publisher, log, m)
	} else {
		log.Info("kafka brokers not configured; audit outbox publishing disabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if worker != nil {
		g.Go(func() error {
			if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

// buildCodeStore picks Redis when configured, the in-memory store otherwise.
func buildCodeStore(cfg config.Server, log *slog.Logger) (verification.CodeStore, func(), error) {
	client, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Info("redis not configured; verification codes held in memory")
		return verifstore.NewMemoryCodeStore(), func() {}, nil
	}
	return verifstore.NewRedisCodeStore(client), func() { _ = client.Close() }, nil
}
