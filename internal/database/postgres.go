package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/UNO-CSCI4830/project4-logbook/internal/config"

	_ "github.com/lib/pq"
)

// NewPostgresDB 创建PostgreSQL数据库连接
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.GetDSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 设置连接池参数
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Close 关闭数据库连接
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// schemaStatements 建表语句（幂等）
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id     TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		first_name  TEXT,
		last_name   TEXT,
		email       TEXT NOT NULL UNIQUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS appliances (
		appliance_id            TEXT PRIMARY KEY,
		owner_id                TEXT NOT NULL,
		name                    TEXT NOT NULL,
		description             TEXT,
		category                TEXT,
		brand                   TEXT,
		model                   TEXT,
		serial_number           TEXT,
		purchase_date           TEXT,
		warranty_months         INTEGER,
		condition_text          TEXT,
		notes                   TEXT,
		alert_date              DATE,
		alert_status            TEXT NOT NULL DEFAULT 'ACTIVE',
		snooze_until            DATE,
		recurring_interval      TEXT NOT NULL DEFAULT 'NONE',
		recurring_interval_days INTEGER,
		fired_for               DATE,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT appliances_snooze_chk CHECK (
			(alert_status = 'SNOOZED') OR (snooze_until IS NULL)
		)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appliances_owner ON appliances (owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_appliances_alert_date ON appliances (alert_date) WHERE alert_date IS NOT NULL`,
}

// Migrate 创建表结构
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
