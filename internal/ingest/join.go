package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/omicsflow/quantdash/internal/models"
)

// scoreRenames maps each scored stage table to the qualified name its
// generic "score" column is duplicated under.
var scoreRenames = []struct {
	table  models.FileType
	column string
}{
	{models.TypeQValueFilter, "qvalue_score"},
	{models.TypeMSGF, "msgfplus_score"},
	{models.TypePercolator, "percolator_score"},
}

// disambiguateScores duplicates the generic score column of the three scored
// stage tables under a stage-qualified name, via copy-then-rename. The
// generic column stays in place.
func (l *Loader) disambiguateScores(ctx context.Context) error {
	for _, r := range scoreRenames {
		name := r.table.Table()
		exists, err := tableExists(ctx, l.db, name)
		if err != nil {
			return fmt.Errorf("check %s: %w", name, err)
		}
		if !exists {
			continue
		}

		tmp := name + "_renamed"
		stmts := []string{
			fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(tmp)),
			fmt.Sprintf("CREATE TABLE %s AS SELECT *, score AS %s FROM %s",
				quoteIdent(tmp), quoteIdent(r.column), quoteIdent(name)),
			fmt.Sprintf("DROP TABLE %s", quoteIdent(name)),
			fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteIdent(tmp), quoteIdent(name)),
		}
		for _, stmt := range stmts {
			if _, err := l.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("rename score in %s: %w", name, err)
			}
		}
		logrus.WithFields(logrus.Fields{"table": name, "column": r.column}).Info("score column qualified")
	}
	return nil
}

// joinKeyColumns are the exact-match join keys; they are also the composite
// index columns that keep the join performant.
var joinKeyColumns = []string{"sample_name", "mz", "charge", "sequence", "start", "end"}

// createJoinIndexes builds a composite index on the join keys for each of
// the three joined tables.
func (l *Loader) createJoinIndexes(ctx context.Context) error {
	quoted := make([]string, len(joinKeyColumns))
	for i, c := range joinKeyColumns {
		quoted[i] = quoteIdent(c)
	}
	keyList := strings.Join(quoted, ", ")

	indexes := []struct{ name, table string }{
		{"idx_msgf_join", models.TypeMSGF.Table()},
		{"idx_perc_join", models.TypePercolator.Table()},
		{"idx_qvalue_join", models.TypeQValueFilter.Table()},
	}
	for _, idx := range indexes {
		exists, err := tableExists(ctx, l.db, idx.table)
		if err != nil {
			return fmt.Errorf("check %s: %w", idx.table, err)
		}
		if !exists {
			continue
		}
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			quoteIdent(idx.name), quoteIdent(idx.table), keyList)
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("index %s: %w", idx.name, err)
		}
	}
	return nil
}

// combinedJoinSQL builds the combined_score materialization query. The MSGF+
// table anchors the join; the percolator and q-value tables must match it
// exactly on the categorical keys and within the retention-time tolerance.
func combinedJoinSQL() string {
	exactKeys := []string{
		"sample_name", "mz", "charge", "sequence", "start", "end",
		"aa_before", "aa_after", "protein_references", "accessions",
	}
	onClause := func(alias string) string {
		conds := make([]string, 0, len(exactKeys)+1)
		for _, k := range exactKeys {
			conds = append(conds, fmt.Sprintf("m.%[1]s = %[2]s.%[1]s", quoteIdent(k), alias))
		}
		conds = append(conds, fmt.Sprintf("ABS(m.rt - %s.rt) < ?", alias))
		return strings.Join(conds, "\n        AND ")
	}

	return fmt.Sprintf(`
CREATE TABLE combined_score AS
SELECT DISTINCT
    m.sample_name,
    m.rt,
    m.mz,
    m.charge,
    m.aa_before,
    m.aa_after,
    m.sequence,
    m."start",
    m."end",
    m.protein_references,
    m.accessions,
    m.msgfplus_score,
    p.percolator_score,
    q.qvalue_score
FROM %s m
INNER JOIN %s p
    ON %s
INNER JOIN %s q
    ON %s`,
		quoteIdent(models.TypeMSGF.Table()),
		quoteIdent(models.TypePercolator.Table()), onClause("p"),
		quoteIdent(models.TypeQValueFilter.Table()), onClause("q"))
}

// buildCombinedScore replaces combined_score with the three-way inner join
// and returns the resulting row count.
func (l *Loader) buildCombinedScore(ctx context.Context) (int, error) {
	if _, err := l.db.ExecContext(ctx, "DROP TABLE IF EXISTS combined_score"); err != nil {
		return 0, fmt.Errorf("drop combined_score: %w", err)
	}
	if _, err := l.db.ExecContext(ctx, combinedJoinSQL(), l.RTTolerance, l.RTTolerance); err != nil {
		return 0, fmt.Errorf("join: %w", err)
	}

	// Post-join sanity check: row count and column list, diagnostic only.
	var count int
	if err := l.db.NewRaw("SELECT COUNT(*) FROM combined_score").Scan(ctx, &count); err != nil {
		return 0, fmt.Errorf("count combined_score: %w", err)
	}
	cols, err := tableColumns(ctx, l.db, "combined_score")
	if err != nil {
		return count, fmt.Errorf("describe combined_score: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"rows":    count,
		"columns": strings.Join(cols, ", "),
	}).Info("combined_score created")
	return count, nil
}

// tableColumns lists a table's column names in declaration order.
func tableColumns(ctx context.Context, db *bun.DB, name string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(name)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}
