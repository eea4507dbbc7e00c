package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"frameworks/pkg/logging"
)

// ClickHouseConn represents a ClickHouse database connection using database/sql interface
type ClickHouseConn = *sql.DB

// ClickHouseConfig holds ClickHouse configuration
type ClickHouseConfig struct {
	Addr         []string
	Database     string
	Username     string
	Password     string
	DialTimeout  time.Duration
	QueryTimeout time.Duration // sent as max_execution_time
	MaxOpenConns int
	MaxIdleConns int
	Debug        bool
}

// DefaultClickHouseConfig returns default ClickHouse configuration
func DefaultClickHouseConfig() ClickHouseConfig {
	return ClickHouseConfig{
		Addr:         []string{"127.0.0.1:9000"},
		Database:     "default",
		Username:     "default",
		DialTimeout:  5 * time.Second,
		QueryTimeout: 30 * time.Second,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}
}

func (cfg ClickHouseConfig) options() *clickhouse.Options {
	opts := &clickhouse.Options{
		Addr: cfg.Addr,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: cfg.DialTimeout,
		Debug:       cfg.Debug,
	}
	if cfg.QueryTimeout > 0 {
		opts.Settings = clickhouse.Settings{
			"max_execution_time": int(cfg.QueryTimeout.Seconds()),
		}
	}
	return opts
}

// ConnectClickHouse establishes a connection to ClickHouse using database/sql interface
func ConnectClickHouse(cfg ClickHouseConfig, logger logging.Logger) (ClickHouseConn, error) {
	if len(cfg.Addr) == 0 {
		return nil, fmt.Errorf("clickhouse address is required")
	}

	conn := clickhouse.OpenDB(cfg.options())
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout+5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		logger.WithError(err).Error("Failed to ping ClickHouse")
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	logger.WithFields(logging.Fields{
		"addr":     cfg.Addr,
		"database": cfg.Database,
	}).Info("Connected to ClickHouse (SQL interface)")

	return conn, nil
}

// MustConnectClickHouse connects to ClickHouse or exits the process
func MustConnectClickHouse(cfg ClickHouseConfig, logger logging.Logger) ClickHouseConn {
	conn, err := ConnectClickHouse(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to ClickHouse")
	}
	return conn
}
