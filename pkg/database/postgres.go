package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"frameworks/pkg/logging"
)

// PostgresConn represents a PostgreSQL database connection
type PostgresConn = *sql.DB

// ErrNoRows is returned when a query returns no rows
var ErrNoRows = sql.ErrNoRows

// Config holds database configuration
type Config struct {
	URL             string
	ApplicationName string
	// ReadOnly starts every session with default_transaction_read_only=on.
	ReadOnly        bool
	ConnectTimeout  time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns default database configuration
func DefaultConfig() Config {
	return Config{
		ReadOnly:        true,
		ConnectTimeout:  10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// dsn turns the configured URL into a lib/pq key/value connection string
// carrying the session parameters.
func (cfg Config) dsn() (string, error) {
	if cfg.URL == "" {
		return "", fmt.Errorf("database URL is required")
	}

	dsn := cfg.URL
	if strings.Contains(dsn, "://") {
		parsed, err := pq.ParseURL(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid database URL: %w", err)
		}
		dsn = parsed
	}

	opts := []string{dsn}
	if cfg.ApplicationName != "" {
		opts = append(opts, "application_name="+cfg.ApplicationName)
	}
	if cfg.ReadOnly {
		opts = append(opts, "default_transaction_read_only=on")
	}
	return strings.Join(opts, " "), nil
}

// Connect establishes a database connection with the given configuration
func Connect(cfg Config, logger logging.Logger) (PostgresConn, error) {
	dsn, err := cfg.dsn()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.WithFields(logging.Fields{
		"application_name": cfg.ApplicationName,
		"read_only":        cfg.ReadOnly,
		"max_open_conns":   cfg.MaxOpenConns,
	}).Info("Database connected")

	return db, nil
}

// MustConnect is like Connect but exits the process on error
func MustConnect(cfg Config, logger logging.Logger) PostgresConn {
	db, err := Connect(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	return db
}
