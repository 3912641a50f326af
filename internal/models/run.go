package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// Run status values.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RowCounts stores per-table loaded row counts in SQLite as JSON.
type RowCounts map[string]int

func (r RowCounts) Value() (driver.Value, error) {
	if len(r) == 0 {
		return "{}", nil
	}
	return json.Marshal(r)
}

func (r *RowCounts) Scan(value interface{}) error {
	if value == nil {
		*r = RowCounts{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return errors.New("failed to scan RowCounts")
		}
	}

	return json.Unmarshal(bytes, r)
}

// IngestionRun tracks one loader execution and its outcome. The data tables
// themselves are replaced wholesale on every run; this audit row is what
// identifies which run produced the current snapshot.
type IngestionRun struct {
	bun.BaseModel `bun:"table:ingestion_runs,alias:ir"`

	ID             int64      `bun:"id,pk,autoincrement" json:"id"`
	RunID          string     `bun:"run_id,unique,notnull" json:"run_id"`
	StartedAt      time.Time  `bun:"started_at,notnull" json:"started_at"`
	FinishedAt     *time.Time `bun:"finished_at" json:"finished_at,omitempty"`
	Status         string     `bun:"status,notnull" json:"status"`
	FilesProcessed int        `bun:"files_processed,default:0" json:"files_processed"`
	FilesSkipped   int        `bun:"files_skipped,default:0" json:"files_skipped"`
	RowsLoaded     RowCounts  `bun:"rows_loaded,type:json" json:"rows_loaded"`
	CombinedRows   int        `bun:"combined_rows,default:0" json:"combined_rows"`
	ErrorsCount    int        `bun:"errors_count,default:0" json:"errors_count"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Succeeded reports whether the run finished without stage errors.
func (r *IngestionRun) Succeeded() bool {
	return r.Status == RunStatusCompleted && r.ErrorsCount == 0
}
