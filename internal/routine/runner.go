// Package routine runs alert passes: fetch every metric row, evaluate the
// rule groups, and message each registered recipient on every channel.
package routine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/coastal-alert-service/internal/domain"
	"github.com/couchcryptid/coastal-alert-service/internal/observability"
	"github.com/google/uuid"
)

// RecipientDirectory resolves the phone numbers registered for a location.
type RecipientDirectory interface {
	Lookup(ctx context.Context, locationID string) ([]string, error)
}

// Session is the data access held for the duration of one pass.
type Session interface {
	RecipientDirectory
	FetchMetrics(ctx context.Context) ([]domain.MetricRow, error)
	LocationNames(ctx context.Context) (map[string]string, error)
	Close() error
}

// ConnectFunc opens a pass-scoped Session.
type ConnectFunc func(ctx context.Context) (Session, error)

// Connector adapts a concrete connect method to a ConnectFunc. A failed
// connect yields an untyped nil Session.
func Connector[S Session](connect func(context.Context) (S, error)) ConnectFunc {
	return func(ctx context.Context) (Session, error) {
		sess, err := connect(ctx)
		if err != nil {
			return nil, err
		}
		return sess, nil
	}
}

// Dispatcher delivers a message to one phone number on one channel.
type Dispatcher interface {
	Send(ctx context.Context, channel domain.Channel, phone, message string) domain.DeliveryResult
}

// ReportPublisher receives the report built at the end of each pass.
type ReportPublisher interface {
	Name() string
	Publish(ctx context.Context, r domain.Report) error
}

// Runner executes alert passes. Passes must not run concurrently.
type Runner struct {
	connect    ConnectFunc
	dispatcher Dispatcher
	publishers []ReportPublisher
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates a Runner. publishers may be empty.
func New(connect ConnectFunc, d Dispatcher, publishers []ReportPublisher, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		connect:    connect,
		dispatcher: d,
		publishers: publishers,
		logger:     logger,
		metrics:    metrics,
	}
}

// passStats tallies one pass for the completion log line.
type passStats struct {
	rows         int
	alerts       int
	sent         int
	failed       int
	skipped      int
	lookupErrors int
}

// RunPass performs one complete pass. Connect and fetch failures abort the
// pass and are returned; per-recipient failures are logged and counted only.
func (r *Runner) RunPass(ctx context.Context) error {
	logger := r.logger.With("run_id", uuid.NewString())
	start := time.Now()
	logger.Info("alert pass started")

	stats, err := r.runPass(ctx, logger)
	r.metrics.PassDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		r.metrics.Passes.WithLabelValues("failure").Inc()
		logger.Error("alert pass failed", "error", err, "rows", stats.rows)
		return err
	}

	r.metrics.Passes.WithLabelValues("success").Inc()
	r.metrics.LastSuccessTimestamp.SetToCurrentTime()
	logger.Info("alert pass complete",
		"rows", stats.rows,
		"alerts", stats.alerts,
		"sent", stats.sent,
		"failed", stats.failed,
		"skipped_numbers", stats.skipped,
		"lookup_errors", stats.lookupErrors,
		"duration", time.Since(start),
	)
	return nil
}

func (r *Runner) runPass(ctx context.Context, logger *slog.Logger) (passStats, error) {
	var stats passStats

	sess, err := r.connect(ctx)
	if err != nil {
		return stats, fmt.Errorf("connect: %w", err)
	}
	defer closeSession(sess, logger)

	rows, err := sess.FetchMetrics(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch metrics: %w", err)
	}
	logger.Info("metric rows fetched", "rows", len(rows))

	evaluated := make([][]domain.AlertEvent, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("pass interrupted after %d rows: %w", stats.rows, err)
		}
		events := domain.Evaluate(row)
		evaluated[i] = events
		stats.rows++
		r.metrics.RowsEvaluated.Inc()

		for _, ev := range events {
			stats.alerts++
			r.metrics.AlertsTriggered.WithLabelValues(string(ev.Group), string(ev.Tier)).Inc()
			logger.Info("alert triggered", "location_id", ev.LocationID, "group", ev.Group, "tier", ev.Tier)
			r.dispatchAll(ctx, logger, sess, ev, &stats)
		}
	}

	if len(r.publishers) > 0 {
		report := buildReport(ctx, logger, sess, rows, evaluated)
		r.publish(ctx, logger, report)
	}
	return stats, nil
}

// dispatchAll sends one event to every recipient of its location, on every
// channel. A lookup failure skips only this event.
func (r *Runner) dispatchAll(ctx context.Context, logger *slog.Logger, dir RecipientDirectory, ev domain.AlertEvent, stats *passStats) {
	phones, err := dir.Lookup(ctx, ev.LocationID)
	if err != nil {
		stats.lookupErrors++
		r.metrics.RecipientLookupErrors.Inc()
		logger.Error("recipient lookup failed, skipping alert",
			"location_id", ev.LocationID,
			"group", ev.Group,
			"error", err,
		)
		return
	}
	if len(phones) == 0 {
		logger.Debug("no recipients registered", "location_id", ev.LocationID)
		return
	}

	for _, raw := range phones {
		phone := domain.NormalizePhone(raw)
		if phone == "" || phone == "+" {
			stats.skipped++
			logger.Warn("phone number has no digits, skipping", "location_id", ev.LocationID)
			continue
		}
		for _, ch := range domain.Channels {
			res := r.dispatcher.Send(ctx, ch, phone, ev.Message)
			r.metrics.DispatchAttempts.WithLabelValues(string(ch), res.Outcome()).Inc()
			if !res.Succeeded() {
				stats.failed++
				logger.Warn("alert delivery failed",
					"location_id", ev.LocationID,
					"channel", ch,
					"phone", phone,
					"error", res.Err,
				)
				continue
			}
			stats.sent++
			logger.Info("alert delivered",
				"location_id", ev.LocationID,
				"channel", ch,
				"phone", phone,
				"message_id", res.MessageID,
			)
		}
	}
}

func (r *Runner) publish(ctx context.Context, logger *slog.Logger, report domain.Report) {
	for _, p := range r.publishers {
		if err := p.Publish(ctx, report); err != nil {
			r.metrics.ReportPublishErrors.WithLabelValues(p.Name()).Inc()
			logger.Error("report publish failed", "publisher", p.Name(), "error", err)
			continue
		}
		logger.Info("report published",
			"publisher", p.Name(),
			"locations", len(report.Locations),
			"alerts", report.AlertCount(),
		)
	}
}

// buildReport pairs every row with its advisories. Missing location names are
// left empty.
func buildReport(ctx context.Context, logger *slog.Logger, sess Session, rows []domain.MetricRow, evaluated [][]domain.AlertEvent) domain.Report {
	names, err := sess.LocationNames(ctx)
	if err != nil {
		logger.Warn("location names unavailable, report will omit them", "error", err)
	}

	entries := make([]domain.LocationAlerts, len(rows))
	for i, row := range rows {
		entries[i] = domain.NewLocationAlerts(row, names[row.LocationID], evaluated[i])
	}
	return domain.NewReport(entries)
}

// Preview evaluates every row and returns the report without sending
// anything.
func Preview(ctx context.Context, connect ConnectFunc, logger *slog.Logger) (domain.Report, error) {
	sess, err := connect(ctx)
	if err != nil {
		return domain.Report{}, fmt.Errorf("connect: %w", err)
	}
	defer closeSession(sess, logger)

	rows, err := sess.FetchMetrics(ctx)
	if err != nil {
		return domain.Report{}, fmt.Errorf("fetch metrics: %w", err)
	}
	evaluated := make([][]domain.AlertEvent, len(rows))
	for i, row := range rows {
		evaluated[i] = domain.Evaluate(row)
	}
	return buildReport(ctx, logger, sess, rows, evaluated), nil
}

func closeSession(sess Session, logger *slog.Logger) {
	if err := sess.Close(); err != nil {
		logger.Warn("close database session", "error", err)
	}
}
