// Package convert rewrites columnar parquet exports as tab-separated text so
// the loader can ingest them alongside the pipeline's native TSV outputs.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/omicsflow/quantdash/internal/tsv"
)

const readBatchSize = 256

// Result summarizes a directory conversion.
type Result struct {
	Converted int
	Failed    int
}

// Dir converts every *.parquet file in dir to a sibling .tsv with the same
// base name. A file that fails to parse is logged and skipped; the batch
// continues. Re-running overwrites previous output.
func Dir(ctx context.Context, dir string) (Result, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
	if err != nil {
		return Result{}, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(matches)

	var (
		mu  sync.Mutex
		res Result
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, path := range matches {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			out, err := File(path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				logrus.WithError(err).WithField("file", path).Error("conversion failed, skipping")
				return nil
			}
			res.Converted++
			logrus.WithFields(logrus.Fields{
				"file":    path,
				"output":  out,
				"elapsed": time.Since(start).Round(time.Millisecond),
			}).Info("converted")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	return res, nil
}

// File converts a single parquet file and returns the output path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	// Parse the footer up front: a map row type has no schema of its own,
	// and a malformed file surfaces here as an error instead of deeper in
	// the read loop.
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return "", fmt.Errorf("open parquet %s: %w", path, err)
	}
	schema := pf.Schema()

	reader := parquet.NewGenericReader[map[string]any](f, schema)
	defer reader.Close()

	fields := schema.Fields()
	columns := make([]string, len(fields))
	for i, field := range fields {
		columns[i] = field.Name()
	}

	table := &tsv.Table{Columns: columns}
	batch := make([]map[string]any, readBatchSize)
	for {
		for i := range batch {
			batch[i] = map[string]any{}
		}
		n, err := reader.Read(batch)
		for _, rec := range batch[:n] {
			row := make([]string, len(columns))
			for i, col := range columns {
				row[i] = formatValue(rec[col])
			}
			table.Rows = append(table.Rows, row)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}

	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".tsv"
	if err := table.WriteFile(out); err != nil {
		return "", err
	}
	return out, nil
}

// formatValue renders a parquet value as its TSV text form.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
