package postgres

import (
	"database/sql"
	"log"
)

// RunMigrations executes database migrations for the given service.
func RunMigrations(db *sql.DB, service string) error {
	migrations := getServiceMigrations(service)
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Printf("Migrations completed for service: %s", service)
	return nil
}

func getServiceMigrations(service string) []string {
	switch service {
	case "registry":
		return []string{
			`CREATE TABLE IF NOT EXISTS users (
				id VARCHAR(36) PRIMARY KEY,
				email VARCHAR(255) NOT NULL UNIQUE,
				name VARCHAR(255) NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP NOT NULL DEFAULT NOW()
			)`,
		}
	case "orders":
		return []string{
			`CREATE TABLE IF NOT EXISTS orders (
				id VARCHAR(36) PRIMARY KEY,
				user_id VARCHAR(36) NOT NULL,
				items JSONB NOT NULL DEFAULT '[]',
				total NUMERIC(12,2) NOT NULL CHECK (total >= 0),
				status VARCHAR(20) NOT NULL DEFAULT 'created',
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at DESC)`,
		}
	case "analytics":
		return []string{
			`CREATE TABLE IF NOT EXISTS idempotency_keys (
				event_id VARCHAR(36) PRIMARY KEY,
				processed_at TIMESTAMP NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE IF NOT EXISTS analytics_metrics (
				id SERIAL PRIMARY KEY,
				metric_date DATE NOT NULL,
				event_type VARCHAR(50) NOT NULL,
				count INTEGER NOT NULL DEFAULT 0,
				UNIQUE(metric_date, event_type)
			)`,
		}
	default:
		return nil
	}
}
