// Package ingest loads the pipeline's tab-separated exports into SQLite and
// builds the denormalized combined_score table out of the three scored
// search stages.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/omicsflow/quantdash/internal/models"
	"github.com/omicsflow/quantdash/internal/tsv"
)

// Loader runs the load-and-join ETL against one database.
type Loader struct {
	db *bun.DB

	// RTTolerance is the maximum absolute retention-time difference allowed
	// when matching rows across the joined stage tables.
	RTTolerance float64
}

// NewLoader returns a Loader with the given retention-time tolerance.
func NewLoader(db *bun.DB, rtTolerance float64) *Loader {
	return &Loader{db: db, RTTolerance: rtTolerance}
}

// Run executes the full ETL over dir: discover and classify TSV files, load
// each file type into its own table, disambiguate score columns, index the
// join keys and materialize combined_score. Per-file and per-stage failures
// are logged and counted but do not abort the run.
func (l *Loader) Run(ctx context.Context, dir string) (*models.IngestionRun, error) {
	now := time.Now()
	run := &models.IngestionRun{
		RunID:      uuid.NewString(),
		StartedAt:  now,
		CreatedAt:  now,
		Status:     models.RunStatusRunning,
		RowsLoaded: models.RowCounts{},
	}
	if _, err := l.db.NewInsert().Model(run).Exec(ctx); err != nil {
		return nil, fmt.Errorf("record ingestion run: %w", err)
	}

	byType := l.collectFiles(dir, run)

	for _, ft := range models.AllFileTypes() {
		tables := byType[ft]
		if len(tables) == 0 {
			logrus.WithField("type", ft).Info("no data found")
			continue
		}
		combined := tsv.Concat(tables)
		if err := replaceTable(ctx, l.db, ft.Table(), combined); err != nil {
			run.ErrorsCount++
			logrus.WithError(err).WithField("table", ft.Table()).Error("writing table failed")
			continue
		}
		run.RowsLoaded[ft.Table()] = len(combined.Rows)
		logrus.WithFields(logrus.Fields{
			"table": ft.Table(),
			"rows":  len(combined.Rows),
		}).Info("table loaded")
	}

	if err := l.disambiguateScores(ctx); err != nil {
		run.ErrorsCount++
		logrus.WithError(err).Error("score column disambiguation failed")
	}
	if err := l.createJoinIndexes(ctx); err != nil {
		run.ErrorsCount++
		logrus.WithError(err).Error("join index creation failed")
	}

	combinedRows, err := l.buildCombinedScore(ctx)
	if err != nil {
		run.ErrorsCount++
		logrus.WithError(err).Error("combined_score join failed")
	} else {
		run.CombinedRows = combinedRows
	}

	finished := time.Now()
	run.FinishedAt = &finished
	run.Status = models.RunStatusCompleted
	if run.ErrorsCount > 0 {
		run.Status = models.RunStatusFailed
	}
	if _, err := l.db.NewUpdate().Model(run).WherePK().Exec(ctx); err != nil {
		logrus.WithError(err).Error("updating ingestion run failed")
	}
	return run, nil
}

// collectFiles discovers, classifies and parses the TSV files in dir,
// grouped by file type in sample-processing order.
func (l *Loader) collectFiles(dir string, run *models.IngestionRun) map[models.FileType][]*tsv.Table {
	byType := make(map[models.FileType][]*tsv.Table)

	entries, err := os.ReadDir(dir)
	if err != nil {
		run.ErrorsCount++
		logrus.WithError(err).WithField("dir", dir).Error("reading data directory failed")
		return byType
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".tsv") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		ft, ok := models.ClassifyFilename(name)
		if !ok {
			run.FilesSkipped++
			logrus.WithField("file", name).Info("skipping unrecognized file type")
			continue
		}
		sample := models.SampleFromFilename(name)
		logrus.WithFields(logrus.Fields{
			"file":   name,
			"type":   ft,
			"sample": sample,
		}).Info("processing")

		table, err := tsv.ReadFile(filepath.Join(dir, name))
		if err != nil {
			run.ErrorsCount++
			logrus.WithError(err).WithField("file", name).Error("parse failed, skipping")
			continue
		}
		table.AddColumn("sample_name", sample)
		if dropped := table.Deduplicate(); dropped > 0 {
			logrus.WithFields(logrus.Fields{"file": name, "dropped": dropped}).Info("duplicates removed")
		}
		byType[ft] = append(byType[ft], table)
		run.FilesProcessed++
	}
	return byType
}
