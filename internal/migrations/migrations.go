// Package migrations manages the ingestion_runs audit table. The ETL data
// tables are not migrated here: the loader replaces them wholesale on every
// run.
//
// Each migration lives in its own numbered file (1_*.go, 2_*.go); bun's
// migrate package derives the migration name from the registering file.
package migrations

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

// RunMigrations runs all pending migrations.
func RunMigrations(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}

	if group.IsZero() {
		logrus.Debug("no new migrations to run")
		return nil
	}

	logrus.WithField("group", group.String()).Info("migrated")
	return nil
}
