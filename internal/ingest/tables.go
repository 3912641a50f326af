package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"github.com/omicsflow/quantdash/internal/tsv"
)

const insertBatchSize = 500

// quoteIdent double-quotes an SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// replaceTable drops and recreates name from the table contents. Columns get
// NUMERIC affinity so numeric-looking text (retention times, scores, m/z)
// is stored and compared as numbers. Integral values land as INTEGERs under
// that affinity; models.Float scans them back into float fields.
func replaceTable(ctx context.Context, db *bun.DB, name string, t *tsv.Table) error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s: no columns", name)
	}

	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quoteIdent(c) + " NUMERIC"
	}

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
		ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(cols, ", "))
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		return insertRows(ctx, tx, name, t)
	})
}

func insertRows(ctx context.Context, tx bun.Tx, name string, t *tsv.Table) error {
	quoted := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		quoted[i] = quoteIdent(c)
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", quoteIdent(name), strings.Join(quoted, ", "))
	rowPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ") + ")"

	for start := 0; start < len(t.Rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(t.Rows) {
			end = len(t.Rows)
		}
		batch := t.Rows[start:end]

		placeholders := make([]string, len(batch))
		args := make([]interface{}, 0, len(batch)*len(t.Columns))
		for i, row := range batch {
			placeholders[i] = rowPlaceholder
			for _, v := range row {
				args = append(args, v)
			}
		}
		if _, err := tx.ExecContext(ctx, prefix+strings.Join(placeholders, ", "), args...); err != nil {
			return fmt.Errorf("insert into %s: %w", name, err)
		}
	}
	return nil
}

// tableExists reports whether a table is present in the database.
func tableExists(ctx context.Context, db *bun.DB, name string) (bool, error) {
	var count int
	err := db.NewRaw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).
		Scan(ctx, &count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
