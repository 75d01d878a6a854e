// Command server runs the marriage registration number service: HTTP API,
// duplicate-check cache, audit pipeline and metrics. Wiring only; behavior
// lives in the internal packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"

	"registrar/internal/certificate"
	"registrar/internal/dupcheck"
	httpapi "registrar/internal/http"
	"registrar/internal/platform/config"
	"registrar/internal/platform/httpserver"
	kafkaconsumer "registrar/internal/platform/kafka/consumer"
	"registrar/internal/platform/logger"
	"registrar/internal/platform/metrics"
	platformredis "registrar/internal/platform/redis"
	"registrar/internal/platform/tracing"
	registrationhandler "registrar/internal/registration/handler"
	registrationmetrics "registrar/internal/registration/metrics"
	registrationservice "registrar/internal/registration/service"
	registrationstore "registrar/internal/registration/store"
	audit "registrar/pkg/platform/audit"
	auditconsumer "registrar/pkg/platform/audit/consumer"
	auditkafka "registrar/pkg/platform/audit/kafka"
	"registrar/pkg/platform/audit/publisher"
	auditmemory "registrar/pkg/platform/audit/store/memory"
	auditpostgres "registrar/pkg/platform/audit/store/postgres"
	"registrar/pkg/platform/tx"
)

const (
	serviceName    = "registrar"
	requestTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Debug)

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Info(fmt.Sprintf(format, args...))
	})); err != nil {
		return fmt.Errorf("set GOMAXPROCS: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		flush, err := tracing.Setup(serviceName)
		if err != nil {
			return fmt.Errorf("set up tracing: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := flush(flushCtx); err != nil {
				log.Error("flush traces", "error", err)
			}
		}()
	}

	// Persistence. No database URL runs everything in memory, the local
	// development mode.
	var db *sql.DB
	if cfg.Database.URL != "" {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
	}

	var (
		regStore    registrationservice.Store
		serviceOpts []registrationservice.Option
	)
	if db != nil {
		regStore = registrationstore.NewPostgresStore(db)
		serviceOpts = append(serviceOpts, registrationservice.WithTxRunner(tx.NewRunner(db)))
	} else {
		regStore = registrationstore.NewInMemoryStore()
	}

	auditTopic := cfg.Kafka.Topic
	if auditTopic == "" {
		auditTopic = auditkafka.DefaultTopic
	}
	// Archive mode ships the durable trail through Kafka: the publisher
	// keeps a memory store locally and the consumer below materializes
	// events into Postgres.
	archive := cfg.Kafka.Archive && db != nil && len(cfg.Kafka.Brokers) > 0

	var auditStore audit.Store
	if db != nil && !archive {
		auditStore = auditpostgres.New(db)
	} else {
		auditStore = auditmemory.NewInMemoryStore()
	}

	publisherOpts := []publisher.Option{
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics()),
	}
	if cfg.Audit.AsyncBuffer > 0 {
		publisherOpts = append(publisherOpts, publisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer))
	}
	if cfg.Audit.SampleRate < 1.0 {
		publisherOpts = append(publisherOpts, publisher.WithSampler(publisher.NewSampler(cfg.Audit.SampleRate)))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := auditkafka.NewSink(ctx, auditkafka.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   auditTopic,
		})
		if err != nil {
			return fmt.Errorf("connect audit sink: %w", err)
		}
		defer sink.Close()
		publisherOpts = append(publisherOpts, publisher.WithSink(sink))
	}
	auditPublisher := publisher.NewPublisher(auditStore, publisherOpts...)
	defer auditPublisher.Close()

	// Duplicate checking reads the registration store; Redis, when
	// configured, fronts it with a cache of assigned numbers.
	var checker registrationservice.DuplicateChecker = dupcheck.NewStoreChecker(regStore)
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		checker = dupcheck.NewRedisChecker(redisClient.Client, regStore, dupcheck.WithLogger(log))
	}

	serviceOpts = append(serviceOpts,
		registrationservice.WithLogger(log),
		registrationservice.WithAuditPublisher(auditPublisher),
		registrationservice.WithMetrics(registrationmetrics.New()),
		registrationservice.WithDuplicateChecker(checker),
	)
	regService := registrationservice.New(regStore, serviceOpts...)

	certService := certificate.New(
		certificate.WithLogger(log),
		certificate.WithAuditPublisher(auditPublisher),
	)

	router := httpapi.New(log, metrics.New(), requestTimeout,
		registrationhandler.New(regService, log),
		certificate.NewHandler(certService, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", "addr", cfg.Addr, "store", storeKind(db))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownDuration())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if archive {
		archiver := auditconsumer.NewArchiver(auditpostgres.New(db), log)
		cons, err := kafkaconsumer.New(kafkaconsumer.Config{
			Brokers: cfg.Kafka.Brokers,
			Group:   cfg.Kafka.Group,
			Topics:  []string{auditTopic},
		}, archiver, log)
		if err != nil {
			return fmt.Errorf("start audit archiver: %w", err)
		}
		log.Info("audit archiver running", "topic", auditTopic, "group", cfg.Kafka.Group)
		g.Go(func() error {
			return cons.Run(gctx)
		})
		g.Go(func() error {
			<-gctx.Done()
			cons.Close()
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func storeKind(db *sql.DB) string {
	if db != nil {
		return "postgres"
	}
	return "memory"
}
