package migrations

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/omicsflow/quantdash/internal/models"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewCreateTable().
			Model((*models.IngestionRun)(nil)).
			IfNotExists().
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().
			Model((*models.IngestionRun)(nil)).
			IfExists().
			Exec(ctx)
		return err
	})
}
