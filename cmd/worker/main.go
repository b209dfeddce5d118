package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ysyms/lastFrameV2/internal/i18n"
	"github.com/ysyms/lastFrameV2/internal/infra/config"
	"github.com/ysyms/lastFrameV2/internal/infra/email"
	"github.com/ysyms/lastFrameV2/internal/infra/ffmpeg"
	"github.com/ysyms/lastFrameV2/internal/infra/httpapi"
	"github.com/ysyms/lastFrameV2/internal/infra/metrics"
	miniostorage "github.com/ysyms/lastFrameV2/internal/infra/minio"
	"github.com/ysyms/lastFrameV2/internal/infra/postgres"
	"github.com/ysyms/lastFrameV2/internal/infra/rabbitmq"
	"github.com/ysyms/lastFrameV2/internal/infra/raster"
	"github.com/ysyms/lastFrameV2/internal/infra/tracing"
	"github.com/ysyms/lastFrameV2/internal/usecase"
	"github.com/ysyms/lastFrameV2/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting lastframe worker")
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if Jaeger unavailable)
	tp, err := tracing.InitTracer(ctx, "lastframe-worker", cfg.JaegerEndpoint, cfg.TraceSampleRatio)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(context.Background())
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// MinIO
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:     cfg.MinIOEndpoint,
		AccessKey:    cfg.MinIOAccessKey,
		SecretKey:    cfg.MinIOSecretKey,
		UseSSL:       cfg.MinIOUseSSL,
		UploadBucket: cfg.MinIOUploadBucket,
		FrameBucket:  cfg.MinIOFrameBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")
	defer pub.Close()

	statusPub := rabbitmq.NewStatusPublisher(pub, cfg.RabbitMQStatusRouting)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Extraction core
	compression, err := raster.ParseCompression(cfg.PNGCompression)
	fatalOnErr(err, "parse png compression")

	decoder := ffmpeg.NewDecoder(ffmpeg.DecoderConfig{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
		TempDir:     cfg.TempDir,
	}, log)
	extractor := usecase.NewLastFrameExtractor(decoder, raster.NewEncoder(compression), log,
		usecase.ExtractorConfig{
			MetadataTimeout: cfg.MetadataTimeout(),
			SeekTimeout:     cfg.SeekTimeout(),
			SeekBackoff:     cfg.SeekBackoffSeconds,
		},
	)

	repo := postgres.NewJobRepository(pool)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	uc := usecase.NewProcessExtractionUseCase(
		repo, storage, extractor,
		statusPub, dlqPub, notifier,
		log,
		usecase.ProcessExtractionConfig{
			TempDir:           cfg.TempDir,
			MaxAttempts:       cfg.MaxAttempts,
			DownloadURLExpiry: cfg.DownloadURLExpiry,
			DefaultLanguage:   i18n.Match(cfg.DefaultLanguage),
		},
	)

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, map[string]metrics.ReadinessCheck{
		"postgres": pool.Ping,
		"rabbitmq": func(context.Context) error {
			if rmqConn.IsClosed() {
				return errors.New("publisher connection closed")
			}
			return nil
		},
	}, log)

	// Job status API
	apiSrv := httpapi.StartServer(cfg.APIPort,
		httpapi.NewRouter(repo, storage, cfg.DownloadURLExpiry, log), log)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:              cfg.RabbitMQURL,
		Queue:            cfg.RabbitMQRequestQueue,
		RoutingKey:       cfg.RabbitMQRequestRouting,
		Exchange:         cfg.RabbitMQExchange,
		DLQ:              cfg.RabbitMQDLQ,
		StatusQueue:      cfg.RabbitMQStatusQueue,
		StatusRoutingKey: cfg.RabbitMQStatusRouting,
		Prefetch:         cfg.RabbitMQPrefetch,
		WorkerCount:      cfg.WorkerCount,
		BaseDelayMs:      cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("lastframe worker started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)
	apiSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("lastframe worker stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
