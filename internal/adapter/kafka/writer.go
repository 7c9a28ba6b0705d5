// Package kafka publishes the per-pass alert report to a Kafka topic, one
// message per location.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/coastal-alert-service/internal/config"
	"github.com/couchcryptid/coastal-alert-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// ReportWriter produces report entries to the configured topic.
type ReportWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewReportWriter creates a Kafka producer for the report topic.
func NewReportWriter(cfg *config.Config, logger *slog.Logger) *ReportWriter {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaReportTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &ReportWriter{writer: w, logger: logger.With("component", "kafka")}
}

// Name labels this publisher in logs and metrics.
func (w *ReportWriter) Name() string { return "kafka" }

// Publish writes every location entry in a single WriteMessages call. Entries
// are keyed by location id so a location's history stays on one partition.
func (w *ReportWriter) Publish(ctx context.Context, r domain.Report) error {
	if len(r.Locations) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(r.Locations))
	for i := range r.Locations {
		msg, err := serializeToMessage(r.Locations[i], r.GeneratedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write report messages: %w", err)
	}
	w.logger.Debug("report published", "topic", w.writer.Topic, "messages", len(msgs))
	return nil
}

func (w *ReportWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one location entry into a Kafka message.
func serializeToMessage(entry domain.LocationAlerts, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report entry: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(entry.LocationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
			{Key: "alert_count", Value: []byte(strconv.Itoa(len(entry.Alerts)))},
		},
	}, nil
}
