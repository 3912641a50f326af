package repositories

import (
	"context"
	"strconv"
	"strings"

	"github.com/uptrace/bun"

	"github.com/omicsflow/quantdash/internal/models"
)

// Filters holds the three optional numeric cutoffs applied to the combined
// table. A nil cutoff is a no-op.
type Filters struct {
	MinMSGFPlus   *float64
	MinPercolator *float64
	MaxQValue     *float64
}

// ParseCutoff interprets a raw cutoff value. Anything that does not parse as
// a float yields nil, which disables that filter.
func ParseCutoff(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseFilters builds Filters from the three raw cutoff strings.
func ParseFilters(msgf, percolator, qvalue string) Filters {
	return Filters{
		MinMSGFPlus:   ParseCutoff(msgf),
		MinPercolator: ParseCutoff(percolator),
		MaxQValue:     ParseCutoff(qvalue),
	}
}

// DistinctSamples returns the sample identifiers present in combined_score,
// in query order.
func DistinctSamples(ctx context.Context, db *bun.DB) ([]string, error) {
	var samples []string
	err := db.NewSelect().
		Table("combined_score").
		ColumnExpr("DISTINCT sample_name").
		Scan(ctx, &samples)
	return samples, err
}

// CombinedForSample fetches the combined rows for one sample with the
// cutoffs applied.
func CombinedForSample(ctx context.Context, db *bun.DB, sample string, f Filters) ([]*models.CombinedScore, error) {
	var rows []*models.CombinedScore
	q := db.NewSelect().
		Model(&rows).
		Where("sample_name = ?", sample)
	if f.MinMSGFPlus != nil {
		q = q.Where("msgfplus_score >= ?", *f.MinMSGFPlus)
	}
	if f.MinPercolator != nil {
		q = q.Where("percolator_score >= ?", *f.MinPercolator)
	}
	if f.MaxQValue != nil {
		q = q.Where("qvalue_score <= ?", *f.MaxQValue)
	}
	err := q.Scan(ctx)
	return rows, err
}

// MSInfoForSample fetches the MS run metadata rows for one sample.
func MSInfoForSample(ctx context.Context, db *bun.DB, sample string) ([]*models.MSInfoRow, error) {
	var rows []*models.MSInfoRow
	err := db.NewSelect().
		Model(&rows).
		Where("sample_name = ?", sample).
		Scan(ctx)
	return rows, err
}

// LatestRun returns the most recent ingestion run, or nil when none exist.
func LatestRun(ctx context.Context, db *bun.DB) (*models.IngestionRun, error) {
	run := new(models.IngestionRun)
	err := db.NewSelect().
		Model(run).
		OrderExpr("started_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return run, nil
}
