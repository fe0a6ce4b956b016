package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Import postgres driver
)

// PoolConfig mirrors the sql.DB pool knobs exposed through configuration.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

var DefaultPool = PoolConfig{
	MaxOpenConns:    25,
	MaxIdleConns:    25,
	ConnMaxLifetime: 5 * time.Minute,
}

func Connect(dsn string, timeout time.Duration, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	// Verify the connection with a timeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		pingErr := fmt.Errorf("failed to ping database within %v: %w", timeout, err)
		if closeErr := db.Close(); closeErr != nil {
			return nil, errors.Join(pingErr, fmt.Errorf("failed to close database handle: %w", closeErr))
		}
		return nil, pingErr
	}

	return db, nil
}
