package dashboard

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/omicsflow/quantdash/internal/config"
	"github.com/omicsflow/quantdash/internal/ingest"
	"github.com/omicsflow/quantdash/internal/migrations"
	"github.com/omicsflow/quantdash/internal/models"
)

// These tests run the real loader over TSV fixtures and drive the API against
// the tables it builds, so the handlers see loader-typed columns rather than
// hand-declared ones.

var etlPSMColumns = []string{
	"rt", "mz", "charge", "aa_before", "aa_after", "sequence",
	"start", "end", "protein_references", "accessions", "score",
}

func writeETLTSV(t *testing.T, dir, name string, columns []string, rows ...[]string) {
	t.Helper()
	var b strings.Builder
	b.WriteString(strings.Join(columns, "\t"))
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(b.String()), 0o644))
}

func loadedDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()
	db := emptyDB(t)
	require.NoError(t, migrations.RunMigrations(ctx, db))

	psmA := func(rt, score string) []string {
		return []string{rt, "450.2", "2", "K", "R", "PEPTIDEK", "10", "17", "unique", "sp|P12345|PROT_HUMAN", score}
	}
	psmB := func(rt, score string) []string {
		return []string{rt, "512.7", "3", "R", "K", "ACDEFGHKLM", "3", "12", "unique", "P67890", score}
	}

	dir := t.TempDir()
	writeETLTSV(t, dir, "RA_10_1_msgf.tsv", etlPSMColumns,
		psmA("5.00", "-4.5"), psmB("7.00", "-12.0"))
	writeETLTSV(t, dir, "RA_10_1_msgf_feat_perc.tsv", etlPSMColumns,
		psmA("5.05", "1.25"), psmB("7.01", "0.2"))
	writeETLTSV(t, dir, "RA_10_1_msgf_feat_perc_pep_filter.tsv", etlPSMColumns,
		psmA("5.04", "0.01"), psmB("6.99", "0.2"))
	writeETLTSV(t, dir, "RA_10_1_ms_info.tsv",
		[]string{"Retention_Time", "Base_Peak_Intensity", "Charge", "MSLevel"},
		[]string{"5.00", "1200000", "2", "1"},
		[]string{"7.00", "850000.5", "3", "1"},
	)

	run, err := ingest.NewLoader(db, 0.1).Run(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, models.RunStatusCompleted, run.Status)
	require.Equal(t, 2, run.CombinedRows)
	return db
}

func TestRefreshOverLoadedData(t *testing.T) {
	srv := NewServer(loadedDB(t), config.Default())

	var samples SamplesResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/api/samples", &samples))
	assert.Equal(t, []string{"RA_10_1"}, samples.Samples)

	var resp RefreshResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/api/refresh?sample=RA_10_1", &resp))
	assert.False(t, resp.Empty)
	assert.False(t, resp.Error)
	require.Len(t, resp.Rows, 2)
	require.Len(t, resp.MZRT, 2)
	require.Len(t, resp.RTIntensity, 2)

	// Integral retention times and intensities come back as numbers even
	// though SQLite stores them as INTEGERs in the loader-built tables.
	var ms2 *models.MSInfoRow
	for _, r := range resp.RTIntensity {
		if r.Charge == 2 {
			ms2 = r
		}
	}
	require.NotNil(t, ms2)
	assert.Equal(t, models.Float(5), ms2.RetentionTime)
	assert.Equal(t, models.Float(1200000), ms2.BasePeakIntensity)
	for _, row := range resp.Rows {
		switch row.Sequence {
		case "PEPTIDEK":
			assert.Equal(t, models.Float(450.2), row.MZ)
			assert.Equal(t, models.Float(-4.5), row.MSGFPlusScore)
			assert.Equal(t, "PROT_HUMAN", row.ProteinDisplay)
		case "ACDEFGHKLM":
			assert.Equal(t, models.Float(0.2), row.QValueScore)
		default:
			t.Fatalf("unexpected sequence %q", row.Sequence)
		}
	}
}

func TestRefreshCutoffsOverLoadedData(t *testing.T) {
	srv := NewServer(loadedDB(t), config.Default())

	var resp RefreshResponse
	getJSON(t, srv, "/api/refresh?sample=RA_10_1&qvalue=0.05", &resp)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "PEPTIDEK", resp.Rows[0].Sequence)

	getJSON(t, srv, "/api/refresh?sample=RA_10_1&msgf=0", &resp)
	assert.True(t, resp.Empty)
	assert.False(t, resp.Error)
}

func TestStatusOverLoadedData(t *testing.T) {
	srv := NewServer(loadedDB(t), config.Default())

	var resp StatusResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/api/status", &resp))
	require.NotNil(t, resp.Run)
	assert.Equal(t, models.RunStatusCompleted, resp.Run.Status)
	assert.Equal(t, 2, resp.Run.CombinedRows)
}
