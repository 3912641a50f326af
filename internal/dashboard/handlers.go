package dashboard

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/omicsflow/quantdash/internal/models"
	"github.com/omicsflow/quantdash/internal/repositories"
)

// SamplesResponse lists the selectable samples; the first entry is the
// default selection.
type SamplesResponse struct {
	Samples []string `json:"samples"`
}

// StatusResponse reports the ingestion run behind the current snapshot.
type StatusResponse struct {
	Run *models.IngestionRun `json:"run"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("encoding response failed")
	}
}

// handleSamples populates the sample selector from combined_score. Errors
// surface as an empty list, never a failed response.
func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	samples, err := repositories.DistinctSamples(r.Context(), s.db)
	if err != nil {
		logrus.WithError(err).Error("loading sample names failed")
		writeJSON(w, SamplesResponse{Samples: []string{}})
		return
	}
	if samples == nil {
		samples = []string{}
	}
	writeJSON(w, SamplesResponse{Samples: samples})
}

// handleRefresh recomputes all figures and the data table for one sample and
// cutoff set. Cutoffs that do not parse as numbers are skipped. Any failure
// is logged and returned as the placeholder empty state; partial results are
// never shown.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sample := q.Get("sample")
	filters := repositories.ParseFilters(q.Get("msgf"), q.Get("percolator"), q.Get("qvalue"))

	combined, err := repositories.CombinedForSample(r.Context(), s.db, sample, filters)
	if err != nil {
		logrus.WithError(err).WithField("sample", sample).Error("refresh query failed")
		writeJSON(w, emptyRefresh(true))
		return
	}
	if len(combined) == 0 {
		writeJSON(w, emptyRefresh(false))
		return
	}

	msInfo, err := repositories.MSInfoForSample(r.Context(), s.db, sample)
	if err != nil {
		logrus.WithError(err).WithField("sample", sample).Error("ms_info query failed")
		writeJSON(w, emptyRefresh(true))
		return
	}

	writeJSON(w, buildRefresh(combined, msInfo))
}

// handleStatus reports the latest ingestion run.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	run, err := repositories.LatestRun(r.Context(), s.db)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logrus.WithError(err).Error("loading ingestion run failed")
		}
		writeJSON(w, StatusResponse{})
		return
	}
	writeJSON(w, StatusResponse{Run: run})
}
