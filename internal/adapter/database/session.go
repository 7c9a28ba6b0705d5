package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/coastal-alert-service/internal/config"
	"github.com/couchcryptid/coastal-alert-service/internal/domain"
)

const (
	metricsQuery   = `SELECT location_id, dumping_quantity, saffir_simpson_category, sea_level_rise, bloom_risk_score, risk_score FROM ml_data`
	locationsQuery = `SELECT location_id, location FROM locations`
)

// Session is a database handle scoped to one pass.
type Session struct {
	db              *sql.DB
	recipientsQuery string
	logger          *slog.Logger
}

// NewSession wraps an open handle. driver selects the placeholder style.
func NewSession(db *sql.DB, driver string, logger *slog.Logger) *Session {
	placeholder := "?"
	if driver == config.DriverPostgres {
		placeholder = "$1"
	}
	return &Session{
		db:              db,
		recipientsQuery: "SELECT phone_number FROM location_phones WHERE location_id = " + placeholder,
		logger:          logger,
	}
}

// FetchMetrics reads every row of ml_data in source order. NULL readings are
// returned as zero.
func (s *Session) FetchMetrics(ctx context.Context) ([]domain.MetricRow, error) {
	rows, err := s.db.QueryContext(ctx, metricsQuery)
	if err != nil {
		return nil, fmt.Errorf("query ml_data: %w", err)
	}
	defer rows.Close()

	var out []domain.MetricRow
	for rows.Next() {
		var locationID string
		var dumping, cyclone, seaLevel, bloom, risk sql.NullFloat64
		if err := rows.Scan(&locationID, &dumping, &cyclone, &seaLevel, &bloom, &risk); err != nil {
			return nil, fmt.Errorf("scan ml_data row: %w", err)
		}
		out = append(out, domain.MetricRow{
			LocationID:      locationID,
			DumpingQuantity: dumping.Float64,
			CycloneCategory: cycloneCategory(cyclone.Float64),
			SeaLevelRise:    seaLevel.Float64,
			BloomRiskScore:  bloom.Float64,
			RiskScore:       risk.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ml_data: %w", err)
	}
	return out, nil
}

// cycloneCategory truncates a stored category onto the Saffir-Simpson scale.
// Values above 5 read as 5, negatives and NaN as 0.
func cycloneCategory(v float64) int {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 5:
		return 5
	}
	return int(math.Trunc(v))
}

// Lookup returns the phone numbers registered for a location, as stored.
// Duplicates are kept and NULL numbers skipped.
func (s *Session) Lookup(ctx context.Context, locationID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.recipientsQuery, locationID)
	if err != nil {
		return nil, fmt.Errorf("query location_phones for %s: %w", locationID, err)
	}
	defer rows.Close()

	var phones []string
	for rows.Next() {
		var phone sql.NullString
		if err := rows.Scan(&phone); err != nil {
			return nil, fmt.Errorf("scan location_phones row: %w", err)
		}
		if !phone.Valid {
			s.logger.Debug("skipping null phone number", "location_id", locationID)
			continue
		}
		phones = append(phones, phone.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate location_phones: %w", err)
	}
	return phones, nil
}

// LocationNames maps location ids to their display names.
func (s *Session) LocationNames(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, locationsQuery)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id string
		var name sql.NullString
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan locations row: %w", err)
		}
		names[id] = name.String
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return names, nil
}

// Close releases the handle.
func (s *Session) Close() error {
	return s.db.Close()
}
