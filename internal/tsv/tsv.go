// Package tsv reads and writes the tab-separated exports produced by the
// quantms search pipeline.
package tsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table is an in-memory tabular file: a header and string-valued rows.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Read parses tab-separated content with a header row.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	t := &Table{Columns: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+2, err)
		}
		// Ragged rows are padded or truncated to the header width.
		if len(rec) < len(header) {
			padded := make([]string, len(header))
			copy(padded, rec)
			rec = padded
		} else if len(rec) > len(header) {
			rec = rec[:len(header)]
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// ReadFile parses a tab-separated file with a header row.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

// Write emits the table as tab-separated text with a header row.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to path, replacing any existing file.
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := t.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// AddColumn appends a constant-valued column to every row.
func (t *Table) AddColumn(name, value string) {
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], value)
	}
}

// Deduplicate removes rows that are fully identical across all columns,
// keeping first occurrences in order. Returns the number of rows dropped.
func (t *Table) Deduplicate() int {
	seen := make(map[string]struct{}, len(t.Rows))
	kept := t.Rows[:0]
	dropped := 0
	for _, row := range t.Rows {
		key := strings.Join(row, "\x1f")
		if _, ok := seen[key]; ok {
			dropped++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}
	t.Rows = kept
	return dropped
}

// ColumnIndex returns the position of a named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Concat merges tables row-wise, preserving input order. The result columns
// are the union of all input columns in first-seen order; values absent from
// a source table are empty.
func Concat(tables []*Table) *Table {
	out := &Table{}
	pos := map[string]int{}
	for _, t := range tables {
		for _, c := range t.Columns {
			if _, ok := pos[c]; !ok {
				pos[c] = len(out.Columns)
				out.Columns = append(out.Columns, c)
			}
		}
	}
	for _, t := range tables {
		idx := make([]int, len(t.Columns))
		for i, c := range t.Columns {
			idx[i] = pos[c]
		}
		for _, row := range t.Rows {
			merged := make([]string, len(out.Columns))
			for i, v := range row {
				merged[idx[i]] = v
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out
}
