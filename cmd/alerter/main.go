// Command alerter reads the latest model readings, evaluates the coastal
// threat rules and messages every registered recipient over WhatsApp and SMS.
//
// By default it runs a single pass and exits. With SCHEDULE_ENABLED=true it
// runs one pass per day at SCHEDULE_TIME and serves /healthz, /readyz and
// /metrics on HTTP_ADDR until interrupted.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/couchcryptid/coastal-alert-service/internal/adapter/database"
	httpadapter "github.com/couchcryptid/coastal-alert-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/coastal-alert-service/internal/adapter/kafka"
	"github.com/couchcryptid/coastal-alert-service/internal/adapter/report"
	"github.com/couchcryptid/coastal-alert-service/internal/adapter/twilio"
	"github.com/couchcryptid/coastal-alert-service/internal/config"
	"github.com/couchcryptid/coastal-alert-service/internal/observability"
	"github.com/couchcryptid/coastal-alert-service/internal/routine"
	"github.com/jonboulle/clockwork"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	connector, err := database.NewConnector(cfg, logger)
	if err != nil {
		logger.Error("invalid database config", "error", err)
		return 1
	}

	publishers := []routine.ReportPublisher{}
	if cfg.ReportPath != "" {
		publishers = append(publishers, report.NewFileWriter(cfg.ReportPath))
		logger.Info("report file enabled", "path", cfg.ReportPath)
	}
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewReportWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publishers = append(publishers, writer)
		logger.Info("report kafka publishing enabled", "topic", cfg.KafkaReportTopic)
	}

	runner := routine.New(
		routine.Connector(connector.Connect),
		twilio.NewClient(cfg, logger),
		publishers,
		logger,
		metrics,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.ScheduleEnabled {
		return runOnce(ctx, cfg, runner, logger)
	}
	runScheduled(ctx, cfg, runner, logger, metrics)
	return 0
}

// runOnce executes a single pass and pushes metrics, since the process exits
// before any scrape.
func runOnce(ctx context.Context, cfg *config.Config, runner *routine.Runner, logger *slog.Logger) int {
	passErr := runner.RunPass(ctx)

	if cfg.MetricsPushgatewayURL != "" {
		if err := observability.Push(cfg.MetricsPushgatewayURL); err != nil {
			logger.Warn("metrics push failed", "url", cfg.MetricsPushgatewayURL, "error", err)
		}
	}
	if passErr != nil {
		return 1
	}
	return 0
}

func runScheduled(ctx context.Context, cfg *config.Config, runner *routine.Runner, logger *slog.Logger, metrics *observability.Metrics) {
	scheduler := routine.NewScheduler(runner, cfg.ScheduleHour, cfg.ScheduleMinute, clockwork.NewRealClock(), logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, scheduler, logger)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := srv.Run(ctx, cfg.ShutdownTimeout); err != nil {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		defer wg.Done()
		if err := scheduler.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	wg.Wait()
	logger.Info("shutdown complete")
}
