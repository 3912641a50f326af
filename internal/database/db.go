// Package database opens the SQLite file that holds both the loader-built
// data tables and the ingestion audit trail.
package database

import (
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// cacheSizeKiB sizes the page cache. Bulk TSV inserts and the three-way join
// both benefit from keeping more pages in memory than the SQLite default.
const cacheSizeKiB = 10000

// NewDB opens the database at dsn and applies the pragmas the ETL workload
// needs. With debug set, every query is logged through bundebug.
func NewDB(dsn string, debug bool) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	pragmas := []string{
		// WAL lets the dashboard read while a load is in progress.
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA cache_size = -%d", cacheSizeKiB),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	return db, nil
}
