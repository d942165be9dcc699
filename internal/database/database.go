package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"blogapi/internal/config"
)

type DB struct {
	*sqlx.DB
}

// DSN renders the lib/pq connection string for cfg.
func DSN(cfg config.DB) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DbHOST,
		cfg.DbPORT,
		cfg.DbUSER,
		cfg.DbPASSWORD,
		cfg.DbNAME,
		cfg.DbSSLMODE,
	)
}

func ConnectDB(ctx context.Context, cfg config.DB, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to postgres", "host", cfg.DbHOST, "dbname", cfg.DbNAME)

	db, err := sqlx.ConnectContext(ctx, "postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	conn := &DB{db}
	if err := conn.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("connected to postgres")
	return conn, nil
}

func (db *DB) CloseDB() error {
	return db.DB.Close()
}

func (db *DB) HealthCheck(ctx context.Context) error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("postgres connection is not initialized")
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres health check: %w", err)
	}

	return nil
}
