// internal/common/database/migrations.go
// Schema bootstrap run at startup

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// migrations are idempotent and run in order
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username VARCHAR(50) UNIQUE NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'customer',
		phone VARCHAR(20) UNIQUE NOT NULL,
		phone_verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))`,
	`CREATE INDEX IF NOT EXISTS idx_users_role ON users (role)`,
}

// Migrate creates the tables the service needs
func Migrate(ctx context.Context, db *sqlx.DB, logger *zap.Logger) error {
	for i, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			// Don't fail on objects created by a concurrent instance
			if strings.Contains(err.Error(), "already exists") {
				logger.Debug("Migration skipped", zap.Int("step", i+1))
				continue
			}
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	logger.Info("Database migrations completed", zap.Int("steps", len(migrations)))
	return nil
}
