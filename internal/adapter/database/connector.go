// Package database reads metric rows, recipients and location names from the
// relational store behind the alert service. MySQL, PostgreSQL and SQLite are
// supported through database/sql.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/couchcryptid/coastal-alert-service/internal/config"
	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"  // registers "postgres"
	_ "modernc.org/sqlite" // registers "sqlite"
)

// Connector opens pass-scoped sessions against the configured database.
type Connector struct {
	driver  string
	dsn     string
	maxOpen int
	logger  *slog.Logger
}

// NewConnector resolves the DSN for cfg.DBDriver, merging DB_USER and
// DB_PASSWORD into DB_URL. Nothing is dialed until Connect.
func NewConnector(cfg *config.Config, logger *slog.Logger) (*Connector, error) {
	dsn, err := BuildDSN(cfg.DBDriver, cfg.DBURL, cfg.DBUser, cfg.DBPassword)
	if err != nil {
		return nil, err
	}
	return &Connector{
		driver:  cfg.DBDriver,
		dsn:     dsn,
		maxOpen: cfg.DBMaxOpenConns,
		logger:  logger.With("component", "database"),
	}, nil
}

// Connect opens a handle and verifies it with a ping. The caller owns the
// returned Session and must Close it.
func (c *Connector) Connect(ctx context.Context) (*Session, error) {
	db, err := sql.Open(c.driver, c.dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", c.driver, err)
	}
	if c.maxOpen > 0 {
		db.SetMaxOpenConns(c.maxOpen)
		db.SetMaxIdleConns(c.maxOpen)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", c.driver, err)
	}
	c.logger.Debug("database connected", "driver", c.driver)
	return NewSession(db, c.driver, c.logger), nil
}

// BuildDSN returns the driver-specific data source name.
//
// MySQL URLs use the go-sql-driver DSN format, e.g. "tcp(db:3306)/coastal".
// PostgreSQL accepts either a postgres:// URL or a key=value string. SQLite
// takes a file path and ignores credentials.
func BuildDSN(driver, rawURL, user, password string) (string, error) {
	switch driver {
	case config.DriverMySQL:
		cfg, err := mysql.ParseDSN(rawURL)
		if err != nil {
			return "", fmt.Errorf("parse mysql DB_URL: %w", err)
		}
		if user != "" {
			cfg.User = user
		}
		if password != "" {
			cfg.Passwd = password
		}
		return cfg.FormatDSN(), nil

	case config.DriverPostgres:
		if strings.HasPrefix(rawURL, "postgres://") || strings.HasPrefix(rawURL, "postgresql://") {
			u, err := url.Parse(rawURL)
			if err != nil {
				return "", fmt.Errorf("parse postgres DB_URL: %w", err)
			}
			if user != "" {
				u.User = url.UserPassword(user, password)
			}
			return u.String(), nil
		}
		dsn := rawURL
		if user != "" {
			dsn += " user=" + quoteKV(user)
		}
		if password != "" {
			dsn += " password=" + quoteKV(password)
		}
		return strings.TrimSpace(dsn), nil

	case config.DriverSQLite:
		return rawURL, nil
	}
	return "", fmt.Errorf("unsupported driver %q", driver)
}

// quoteKV quotes a libpq key=value value.
func quoteKV(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
