// Package app is the composition root: it wires Config into concrete
// Reader/Writer/Telemetry implementations and an Orchestrator, and exposes
// a single bounded Run call. Adapted from the teacher's app.New/app.Start/
// app.Shutdown lifecycle split — a one-shot batch invocation has no
// long-lived HTTP server to manage, so Start/Shutdown collapse into Run
// plus an optional admin server goroutine.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"event-shipper/internal/adminhttp"
	"event-shipper/internal/models"
	"event-shipper/internal/orchestrator"
	"event-shipper/internal/shared/configs"
	"event-shipper/internal/shared/loggers"
	"event-shipper/internal/shared/retrypolicy"
	"event-shipper/internal/sinks"
	"event-shipper/internal/sinks/localsink"
	"event-shipper/internal/sinks/s3sink"
	"event-shipper/internal/sources/dynamodbsource"
	"event-shipper/internal/telemetry"
	"event-shipper/internal/telemetry/cloudwatchtelemetry"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// App holds every wired dependency for one invocation.
type App struct {
	config       *configs.Config
	appLogger    loggers.Logger
	orchestrator *orchestrator.Orchestrator
	adminServer  *http.Server
}

// New builds an App: loads AWS credentials from the ambient environment
// (spec §6: "never from configuration"), constructs the Reader/Writer/
// Telemetry stack, and wires the Orchestrator.
func New(ctx context.Context, config *configs.Config) (*App, error) {
	appLogger, err := loggers.New(config.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger = appLogger.With().Str(loggers.FieldApp, "event-shipper").Logger()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.Source.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS credentials: %w", err)
	}

	retry := retrypolicy.New(config.Processing.RetryBaseDelayMs, config.Processing.MaxRetries)

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	reader := dynamodbsource.New(
		dynamoClient,
		config.Source.Table,
		config.Source.ParallelSegments,
		config.Source.ScanBatchSize,
		config.Source.ReadThroughputFraction,
		retry,
	)

	writer, err := newWriter(awsCfg, config, retry)
	if err != nil {
		return nil, err
	}

	cloudwatchClient := cloudwatch.NewFromConfig(awsCfg)
	tel := telemetry.New(cloudwatchtelemetry.New(cloudwatchClient))

	orch := orchestrator.New(reader, writer, tel, config)

	var adminServer *http.Server
	if config.Admin.Port != 0 {
		httpLogger := appLogger.With().Str(loggers.FieldComponent, "admin").Logger()
		adminServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", config.Admin.Port),
			Handler:           adminhttp.NewRouter(httpLogger),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return &App{
		config:       config,
		appLogger:    appLogger,
		orchestrator: orch,
		adminServer:  adminServer,
	}, nil
}

// newWriter builds the configured sinks.Writer. "local" is a dev/test
// fallback writing to the filesystem instead of S3; everything else (the
// default, "s3") writes through the AWS SDK.
func newWriter(awsCfg aws.Config, config *configs.Config, retry retrypolicy.Policy) (sinks.Writer, error) {
	switch config.Sink.Type {
	case "local":
		writer, err := localsink.New(config.Sink.LocalRootDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local sink: %w", err)
		}
		return writer, nil
	case "", "s3":
		s3Cfg := awsCfg
		if config.Sink.Region != "" {
			s3Cfg.Region = config.Sink.Region
		}
		s3Client := s3.NewFromConfig(s3Cfg)
		return s3sink.New(s3Client, config.Sink.BucketPrefix, config.Sink.ServerSideEncryption, retry), nil
	default:
		return nil, fmt.Errorf("unknown sink type %q", config.Sink.Type)
	}
}

// Run executes one scan-partition-write cycle. If an admin server is
// configured, it is started before the run and stopped after — the admin
// surface exists for ops visibility during a run, not beyond it.
func (a *App) Run(ctx context.Context) (*models.RunSummary, error) {
	a.appLogger.Info().
		Str("table", a.config.Source.Table).
		Str("bucket_prefix", a.config.Sink.BucketPrefix).
		Msg("starting run")

	if a.adminServer != nil {
		go func() {
			if err := a.adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.appLogger.Warn().Err(err).Msg("admin server stopped unexpectedly")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = a.adminServer.Shutdown(shutdownCtx)
		}()
	}

	runCtx := a.appLogger.WithContext(ctx)
	return a.orchestrator.Run(runCtx)
}
