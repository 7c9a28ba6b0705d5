package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the tables the service reads. The statements are portable
// across the supported drivers and are used for local databases and tests;
// production tables are owned by the model jobs.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS locations (
		location_id VARCHAR(32) PRIMARY KEY,
		location    VARCHAR(255)
	)`,
	`CREATE TABLE IF NOT EXISTS ml_data (
		location_id             VARCHAR(32) PRIMARY KEY,
		dumping_quantity        DOUBLE PRECISION,
		saffir_simpson_category INTEGER,
		sea_level_rise          DOUBLE PRECISION,
		bloom_risk_score        DOUBLE PRECISION,
		risk_score              DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS location_phones (
		location_id  VARCHAR(32) NOT NULL,
		phone_number VARCHAR(32)
	)`,
}

// CreateSchema creates the locations, ml_data and location_phones tables if
// they do not exist.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
