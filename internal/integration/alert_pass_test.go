//go:build integration

package integration_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/coastal-alert-service/internal/adapter/database"
	"github.com/couchcryptid/coastal-alert-service/internal/adapter/kafka"
	"github.com/couchcryptid/coastal-alert-service/internal/adapter/twilio"
	"github.com/couchcryptid/coastal-alert-service/internal/config"
	"github.com/couchcryptid/coastal-alert-service/internal/domain"
	"github.com/couchcryptid/coastal-alert-service/internal/observability"
	"github.com/couchcryptid/coastal-alert-service/internal/routine"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testReportTopic = "test-coastal-alert-report"

// providerStub records form posts the way the Twilio Messages resource
// accepts them.
type providerStub struct {
	mu   sync.Mutex
	sent []map[string]string
}

func (p *providerStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.mu.Lock()
	p.sent = append(p.sent, map[string]string{
		"To":   r.PostForm.Get("To"),
		"From": r.PostForm.Get("From"),
		"Body": r.PostForm.Get("Body"),
	})
	n := len(p.sent)
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	fmt.Fprintf(w, `{"sid":"SM%03d","status":"queued"}`, n)
}

func seedDatabase(ctx context.Context, t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open(config.DriverSQLite, path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, database.CreateSchema(ctx, db))
	for _, stmt := range []string{
		`INSERT INTO locations VALUES ('LOC001', 'Sundarbans'), ('LOC002', 'Pichavaram')`,
		`INSERT INTO ml_data VALUES ('LOC001', 120, 0, 2, 30, 0.4), ('LOC002', 10, 0, 2, 30, 0.1)`,
		`INSERT INTO location_phones VALUES ('LOC001', '+91 98765-43210'), ('LOC001', '(022) 555-0100')`,
	} {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
}

// TestAlertPass runs a full pass against SQLite, a stub provider and a real
// Kafka broker.
func TestAlertPass(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	dbPath := filepath.Join(t.TempDir(), "coastal.db")
	seedDatabase(ctx, t, dbPath)

	provider := &providerStub{}
	srv := httptest.NewServer(provider)
	defer srv.Close()

	cfg := &config.Config{
		DBDriver:         config.DriverSQLite,
		DBURL:            dbPath,
		DBMaxOpenConns:   1,
		TwilioAccountSID: "ACtest",
		TwilioAuthToken:  "token",
		TwilioChatFrom:   "+14155238886",
		TwilioSMSFrom:    "+15005550006",
		TwilioBaseURL:    srv.URL,
		TwilioTimeout:    5 * time.Second,
		KafkaBrokers:     []string{broker},
		KafkaReportTopic: testReportTopic,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	connector, err := database.NewConnector(cfg, logger)
	require.NoError(t, err)
	writer := kafka.NewReportWriter(cfg, logger)
	defer writer.Close()

	runner := routine.New(
		routine.Connector(connector.Connect),
		twilio.NewClient(cfg, logger),
		[]routine.ReportPublisher{writer},
		logger,
		observability.NewMetricsForTesting(),
	)
	require.NoError(t, runner.RunPass(ctx))

	// LOC001 triggers the dumping stress advisory; two phones on two channels.
	require.Len(t, provider.sent, 4)
	assert.Equal(t, "whatsapp:+919876543210", provider.sent[0]["To"])
	assert.Equal(t, "+919876543210", provider.sent[1]["To"])
	assert.Equal(t, "whatsapp:0225550100", provider.sent[2]["To"])
	assert.Equal(t, "0225550100", provider.sent[3]["To"])
	for _, m := range provider.sent {
		assert.Equal(t, domain.AdvisoryStress, m["Body"])
	}

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testReportTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1e6,
	})
	defer consumer.Close()

	got := map[string]domain.LocationAlerts{}
	for range 2 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read report message")

		var entry domain.LocationAlerts
		require.NoError(t, json.Unmarshal(msg.Value, &entry))
		assert.Equal(t, entry.LocationID, string(msg.Key))
		got[entry.LocationID] = entry
	}

	assert.Equal(t, "Sundarbans", got["LOC001"].Location)
	assert.Equal(t, []string{domain.AdvisoryStress}, got["LOC001"].Alerts)
	assert.Empty(t, got["LOC002"].Alerts)
}
