package database

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"math"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/couchcryptid/coastal-alert-service/internal/config"
	"github.com/couchcryptid/coastal-alert-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var metricColumns = []string{
	"location_id", "dumping_quantity", "saffir_simpson_category",
	"sea_level_rise", "bloom_risk_score", "risk_score",
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupMockSession(t *testing.T, driver string) (*sql.DB, sqlmock.Sqlmock, *Session) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewSession(db, driver, discardLogger())
}

func TestFetchMetrics_Success(t *testing.T) {
	db, mock, sess := setupMockSession(t, config.DriverMySQL)
	defer db.Close()

	rows := sqlmock.NewRows(metricColumns).
		AddRow("LOC001", 250.0, int64(4), 25.0, 80.0, 0.91).
		AddRow("LOC002", 12.5, 2.7, 3.0, 30.0, 0.2)
	mock.ExpectQuery(regexp.QuoteMeta(metricsQuery)).WillReturnRows(rows)

	got, err := sess.FetchMetrics(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, domain.MetricRow{
		LocationID:      "LOC001",
		DumpingQuantity: 250,
		CycloneCategory: 4,
		SeaLevelRise:    25,
		BloomRiskScore:  80,
		RiskScore:       0.91,
	}, got[0])
	assert.Equal(t, "LOC002", got[1].LocationID)
	assert.Equal(t, 2, got[1].CycloneCategory, "fractional category truncates")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchMetrics_NullsReadAsZero(t *testing.T) {
	db, mock, sess := setupMockSession(t, config.DriverMySQL)
	defer db.Close()

	rows := sqlmock.NewRows(metricColumns).AddRow("LOC003", nil, nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta(metricsQuery)).WillReturnRows(rows)

	got, err := sess.FetchMetrics(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.MetricRow{LocationID: "LOC003"}, got[0])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchMetrics_CycloneCategoryClamped(t *testing.T) {
	db, mock, sess := setupMockSession(t, config.DriverMySQL)
	defer db.Close()

	rows := sqlmock.NewRows(metricColumns).
		AddRow("LOC001", 0.0, 1e300, 0.0, 30.0, 0.0).
		AddRow("LOC002", 0.0, -3.0, 0.0, 30.0, 0.0).
		AddRow("LOC003", 0.0, 5.9, 0.0, 30.0, 0.0)
	mock.ExpectQuery(regexp.QuoteMeta(metricsQuery)).WillReturnRows(rows)

	got, err := sess.FetchMetrics(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 5, got[0].CycloneCategory)
	assert.Equal(t, 0, got[1].CycloneCategory)
	assert.Equal(t, 5, got[2].CycloneCategory)

	events := domain.Evaluate(got[0])
	require.Len(t, events, 1)
	assert.Equal(t, domain.GroupCyclone, events[0].Group)
	assert.Equal(t, domain.TierSevere, events[0].Tier)
}

func TestCycloneCategory(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{2.7, 2},
		{5, 5},
		{6, 5},
		{math.Inf(1), 5},
		{math.Inf(-1), 0},
		{math.NaN(), 0},
		{-0.5, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cycloneCategory(tt.in), "input %v", tt.in)
	}
}

func TestFetchMetrics_QueryError(t *testing.T) {
	db, mock, sess := setupMockSession(t, config.DriverMySQL)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(metricsQuery)).WillReturnError(errors.New("connection reset"))

	got, err := sess.FetchMetrics(context.Background())
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "query ml_data")
	assert.Contains(t, err.Error(), "connection reset")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchMetrics_RowError(t *testing.T) {
	db, mock, sess := setupMockSession(t, config.DriverMySQL)
	defer db.Close()

	rows := sqlmock.NewRows(metricColumns).
		AddRow("LOC001", 1.0, 0, 1.0, 30.0, 0.1).
		AddRow("LOC002", 1.0, 0, 1.0, 30.0, 0.1).
		RowError(1, errors.New("broken pipe"))
	mock.ExpectQuery(regexp.QuoteMeta(metricsQuery)).WillReturnRows(rows)

	_, err := sess.FetchMetrics(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
}

func TestLookup_MySQLPlaceholder(t *testing.T) {
	db, mock, sess := setupMockSession(t, config.DriverMySQL)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"phone_number"}).
		AddRow("+1 (555) 010-0001").
		AddRow(nil).
		AddRow("+1 (555) 010-0001")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT phone_number FROM location_phones WHERE location_id = ?")).
		WithArgs("LOC001").
		WillReturnRows(rows)

	phones, err := sess.Lookup(context.Background(), "LOC001")
	require.NoError(t, err)
	assert.Equal(t, []string{"+1 (555) 010-0001", "+1 (555) 010-0001"}, phones)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLookup_PostgresPlaceholder(t *testing.T) {
	db, mock, sess := setupMockSession(t, config.DriverPostgres)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT phone_number FROM location_phones WHERE location_id = $1")).
		WithArgs("LOC009").
		WillReturnRows(sqlmock.NewRows([]string{"phone_number"}))

	phones, err := sess.Lookup(context.Background(), "LOC009")
	require.NoError(t, err)
	assert.Empty(t, phones)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLookup_QueryError(t *testing.T) {
	db, mock, sess := setupMockSession(t, config.DriverMySQL)
	defer db.Close()

	mock.ExpectQuery("SELECT phone_number").WillReturnError(sql.ErrConnDone)

	_, err := sess.Lookup(context.Background(), "LOC001")
	require.ErrorIs(t, err, sql.ErrConnDone)
	assert.Contains(t, err.Error(), "LOC001")
}

func TestLocationNames(t *testing.T) {
	db, mock, sess := setupMockSession(t, config.DriverMySQL)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"location_id", "location"}).
		AddRow("LOC001", "Sundarbans").
		AddRow("LOC002", nil)
	mock.ExpectQuery(regexp.QuoteMeta(locationsQuery)).WillReturnRows(rows)

	names, err := sess.LocationNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"LOC001": "Sundarbans", "LOC002": ""}, names)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_Close(t *testing.T) {
	_, mock, sess := setupMockSession(t, config.DriverMySQL)

	mock.ExpectClose()
	require.NoError(t, sess.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}
