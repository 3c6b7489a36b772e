package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gobusters/ectologger"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/cache"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/logging"
	"github.com/Ramsey-B/clover/pkg/merging"
	"github.com/Ramsey-B/clover/pkg/processor"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	"github.com/Ramsey-B/clover/pkg/routes/merge"
	"github.com/Ramsey-B/clover/pkg/server"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the merge HTTP API and Kafka job consumer",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func serve(cfg config.Config) error {
	logger, syncLogs, err := logging.New(cfg.AppName, cfg.Version, cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		return err
	}
	defer func() { _ = syncLogs() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.AppName, cfg.Version, cfg.TracingEnabled, exporters.OTLPConfig{
		Endpoint: cfg.TracingEndpoint,
		Protocol: cfg.TracingProtocol,
		Insecure: cfg.TracingInsecure,
	})
	if err != nil {
		return err
	}

	checker := health.NewChecker(cfg.Version)
	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)

	var store processor.ResultStore
	var httpRequires []string
	if cfg.CacheEnabled {
		client := cache.NewClient(cache.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		resultCache := cache.NewResultCache(client, cfg.CacheTTL, logger)
		store = resultCache

		// merges still run without the cache, so redis only degrades health
		checker.AddCheck("redis", resultCache.Ping, false)
		boot.AddDependency(&startup.Func{
			Name:      "redis",
			StartFunc: client.Connect,
			StopFunc:  func(context.Context) error { return client.Close() },
		})
		httpRequires = append(httpRequires, "redis")
	}

	var emitter processor.EventEmitter
	if cfg.KafkaProducerEnabled {
		producer := kafka.NewProducer(kafka.ProducerConfigFrom(cfg), logger)
		emitter = events.NewEmitter(producer, logger)

		checker.AddCheck("kafka_producer", healthCheck("kafka producer", producer.Health), false)
		boot.AddDependency(&startup.Func{
			Name:     "kafka_producer",
			StopFunc: func(context.Context) error { return producer.Close() },
		})
		httpRequires = append(httpRequires, "kafka_producer")
	}

	engine := merging.NewEngine(logger, cfg.MergeDefaults())
	mergeProcessor := processor.NewMergeProcessor(logger, engine, store, emitter)

	if cfg.KafkaConsumerEnabled {
		consumer := kafka.NewConsumer(cfg, logger, mergeProcessor.HandleMessage)
		consumerRequires := []string{}
		if cfg.KafkaProducerEnabled {
			consumerRequires = append(consumerRequires, "kafka_producer")
		} else {
			logger.Warn("Kafka consumer enabled without producer; merge job results will not be published")
		}
		if cfg.CacheEnabled {
			consumerRequires = append(consumerRequires, "redis")
		}

		checker.AddCheck("kafka_consumer", healthCheck("kafka consumer", consumer.Health), true)
		boot.AddDependency(&startup.Func{
			Name:      "kafka_consumer",
			Requires:  consumerRequires,
			StartFunc: func(context.Context) error { return consumer.Start(ctx) },
			StopFunc:  func(context.Context) error { return consumer.Stop() },
		})
		httpRequires = append(httpRequires, "kafka_consumer")
	}

	srv := server.New(cfg, logger, checker, merge.NewHandler(mergeProcessor, cfg.Version))
	boot.AddDependency(&startup.Func{
		Name:      "http",
		Requires:  httpRequires,
		StartFunc: srv.Start,
		StopFunc:  srv.Stop,
	})

	if err := boot.Start(ctx); err != nil {
		shutdown(cfg, logger, boot, shutdownTracing)
		return err
	}
	checker.SetReady(true)
	logger.WithFields(map[string]any{
		"port":           cfg.Port,
		"cache":          cfg.CacheEnabled,
		"kafka_consumer": cfg.KafkaConsumerEnabled,
		"kafka_producer": cfg.KafkaProducerEnabled,
	}).Infof("%s started", cfg.AppName)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case runErr = <-srv.Errors():
	}

	checker.SetReady(false)
	shutdown(cfg, logger, boot, shutdownTracing)
	return runErr
}

func shutdown(cfg config.Config, logger ectologger.Logger, boot *startup.Startup, shutdownTracing func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := boot.Stop(ctx); err != nil {
		logger.WithError(err).Error("Error during shutdown")
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.WithError(err).Warn("Failed to flush traces")
	}
	logger.Info("Shutdown complete")
}

func healthCheck(name string, healthy func() bool) health.CheckFunc {
	return func(context.Context) error {
		if !healthy() {
			return errors.New(name + " is not running")
		}
		return nil
	}
}
