package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/omicsflow/quantdash/internal/config"
	"github.com/omicsflow/quantdash/internal/database"
	"github.com/omicsflow/quantdash/internal/migrations"
	"github.com/omicsflow/quantdash/internal/models"
)

func emptyDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seededDB(t *testing.T) *bun.DB {
	t.Helper()
	db := emptyDB(t)
	ctx := context.Background()
	require.NoError(t, migrations.RunMigrations(ctx, db))

	_, err := db.ExecContext(ctx, `CREATE TABLE combined_score (
		sample_name TEXT, rt REAL, mz REAL, charge INTEGER,
		aa_before TEXT, aa_after TEXT, sequence TEXT,
		"start" NUMERIC, "end" NUMERIC,
		protein_references TEXT, accessions TEXT,
		msgfplus_score REAL, percolator_score REAL, qvalue_score REAL)`)
	require.NoError(t, err)
	for _, r := range [][]interface{}{
		{"RA_10_1", 5.0, 450.2, 2, "K", "R", "PEPTIDEK", 10, 17, "unique", "sp|P12345|PROT_HUMAN", -4.5, 1.25, 0.01},
		{"RA_10_1", 6.1, 512.7, 3, "R", "K", "ACDEFGHKLM", 3, 12, "unique", "P67890", -6.0, 0.9, 0.02},
	} {
		_, err = db.ExecContext(ctx,
			`INSERT INTO combined_score VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, r...)
		require.NoError(t, err)
	}

	_, err = db.ExecContext(ctx, `CREATE TABLE ms_info (
		sample_name TEXT, "Retention_Time" REAL, "Base_Peak_Intensity" REAL,
		"Charge" INTEGER, "MSLevel" INTEGER)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		`INSERT INTO ms_info VALUES ('RA_10_1', 5.0, 1.2e6, 2, 1)`)
	require.NoError(t, err)
	return db
}

func getJSON(t *testing.T, srv *Server, path string, out interface{}) int {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestSamplesEndpoint(t *testing.T) {
	srv := NewServer(seededDB(t), config.Default())
	var resp SamplesResponse
	code := getJSON(t, srv, "/api/samples", &resp)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"RA_10_1"}, resp.Samples)
}

func TestSamplesEndpointMissingTable(t *testing.T) {
	srv := NewServer(emptyDB(t), config.Default())
	var resp SamplesResponse
	code := getJSON(t, srv, "/api/samples", &resp)
	// Query errors surface as an empty selector, never a failed response.
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, resp.Samples)
}

func TestRefreshEndpoint(t *testing.T) {
	srv := NewServer(seededDB(t), config.Default())
	var resp RefreshResponse
	code := getJSON(t, srv, "/api/refresh?sample=RA_10_1&msgf=-10&percolator=-10&qvalue=0.05", &resp)
	require.Equal(t, http.StatusOK, code)

	assert.False(t, resp.Empty)
	assert.False(t, resp.Error)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "PROT_HUMAN", resp.Rows[0].ProteinDisplay)
	assert.Equal(t, 10, resp.Rows[0].CoverageStart)
	assert.Equal(t, 17, resp.Rows[0].CoverageEnd)
	assert.Len(t, resp.MZRT, 2)
	assert.Len(t, resp.RTIntensity, 1)
	assert.Equal(t, []int{8, 10}, resp.PeptideLengths)
	require.NotNil(t, resp.LengthStats)
	assert.Equal(t, 2, resp.LengthStats.Count)
	assert.Equal(t, 9.0, resp.LengthStats.Mean)
	assert.Equal(t, []ChargeBin{{Charge: 2, Count: 1}, {Charge: 3, Count: 1}}, resp.ChargeHist)
	assert.Equal(t, tableColumns, resp.Columns)
}

func TestRefreshCutoffsApply(t *testing.T) {
	srv := NewServer(seededDB(t), config.Default())
	var resp RefreshResponse
	getJSON(t, srv, "/api/refresh?sample=RA_10_1&msgf=-5", &resp)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "PEPTIDEK", resp.Rows[0].Sequence)
}

func TestRefreshInvalidCutoffsAreNoOps(t *testing.T) {
	srv := NewServer(seededDB(t), config.Default())
	var all, garbled RefreshResponse
	getJSON(t, srv, "/api/refresh?sample=RA_10_1", &all)
	getJSON(t, srv, "/api/refresh?sample=RA_10_1&msgf=abc&percolator=!&qvalue=zz", &garbled)
	assert.Equal(t, len(all.Rows), len(garbled.Rows))
}

func TestRefreshEmptySample(t *testing.T) {
	srv := NewServer(seededDB(t), config.Default())
	var resp RefreshResponse
	code := getJSON(t, srv, "/api/refresh?sample=NOPE_0_0", &resp)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Empty)
	assert.False(t, resp.Error)
	assert.Empty(t, resp.Rows)
	assert.Empty(t, resp.MZRT)
}

func TestRefreshQueryErrorYieldsPlaceholder(t *testing.T) {
	// No combined_score table at all: the handler logs and returns the
	// placeholder state, never a 5xx.
	srv := NewServer(emptyDB(t), config.Default())
	var resp RefreshResponse
	code := getJSON(t, srv, "/api/refresh?sample=RA_10_1", &resp)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Empty)
	assert.True(t, resp.Error)
}

func TestStatusEndpoint(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	run := &models.IngestionRun{
		RunID:      "run-1",
		Status:     models.RunStatusCompleted,
		RowsLoaded: models.RowCounts{"msgf": 2},
	}
	_, err := db.NewInsert().Model(run).Exec(ctx)
	require.NoError(t, err)

	srv := NewServer(db, config.Default())
	var resp StatusResponse
	code := getJSON(t, srv, "/api/status", &resp)
	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Run)
	assert.Equal(t, "run-1", resp.Run.RunID)
}

func TestStatusEndpointNoRuns(t *testing.T) {
	srv := NewServer(emptyDB(t), config.Default())
	var resp StatusResponse
	code := getJSON(t, srv, "/api/status", &resp)
	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, resp.Run)
}

func TestIndexPage(t *testing.T) {
	srv := NewServer(emptyDB(t), config.Default())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Proteomics Data Visualization")
}

func TestRateLimitedAPI(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerSec = 0.001
	cfg.RateLimit.Burst = 1
	srv := NewServer(seededDB(t), cfg)

	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/api/samples", nil))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/samples", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
