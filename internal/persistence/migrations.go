package persistence

import (
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/migrations"
)

// RunMigrations creates the kv_store schema for the given goose dialect.
func RunMigrations(db *sql.DB, dialect string, logger *zap.Logger) error {
	if db == nil {
		return errors.New("no database handle available for migrations")
	}

	logger.Debug("applying migrations", zap.String("dialect", dialect))
	if err := migrations.Migrate(db, dialect); err != nil {
		return err
	}
	logger.Info("migrations applied", zap.String("dialect", dialect))
	return nil
}
