package dashboard

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/omicsflow/quantdash/internal/models"
)

// MZRTPoint is one marker of the m/z vs retention-time scatter.
type MZRTPoint struct {
	RT            float64 `json:"rt"`
	MZ            float64 `json:"mz"`
	Charge        int64   `json:"charge"`
	Sequence      string  `json:"sequence"`
	MSGFPlusScore float64 `json:"msgfplus_score"`
}

// ChargeBin is one bar of the charge-state histogram.
type ChargeBin struct {
	Charge int64 `json:"charge"`
	Count  int   `json:"count"`
}

// LengthStats summarizes the peptide-length distribution for the violin.
type LengthStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
	StdDev float64 `json:"std_dev"`
}

// TableRow is a combined row plus the derived fields the table and sequence
// viewer need.
type TableRow struct {
	models.CombinedScore
	ProteinDisplay string `json:"protein_display"`
	CoverageStart  int    `json:"coverage_start"`
	CoverageEnd    int    `json:"coverage_end"`
	PeptideLength  int    `json:"peptide_length"`
}

// RefreshResponse is the full payload of one dashboard refresh. Empty is set
// when the filtered sample has no rows; Error additionally marks a failed
// refresh. Both render as placeholder figures client-side.
type RefreshResponse struct {
	Empty          bool                `json:"empty"`
	Error          bool                `json:"error"`
	MZRT           []MZRTPoint         `json:"mz_rt"`
	RTIntensity    []*models.MSInfoRow `json:"rt_intensity"`
	PeptideLengths []int               `json:"peptide_lengths"`
	LengthStats    *LengthStats        `json:"length_stats,omitempty"`
	ChargeHist     []ChargeBin         `json:"charge_hist"`
	Columns        []string            `json:"columns"`
	Rows           []TableRow          `json:"rows"`
}

// tableColumns is the display order of the data table.
var tableColumns = []string{
	"sample_name", "rt", "mz", "charge", "aa_before", "aa_after",
	"sequence", "start", "end", "protein_references", "accessions",
	"msgfplus_score", "percolator_score", "qvalue_score",
}

// emptyRefresh returns the placeholder payload used for both no-data and
// error states.
func emptyRefresh(isErr bool) *RefreshResponse {
	return &RefreshResponse{
		Empty:          true,
		Error:          isErr,
		MZRT:           []MZRTPoint{},
		RTIntensity:    []*models.MSInfoRow{},
		PeptideLengths: []int{},
		ChargeHist:     []ChargeBin{},
		Columns:        []string{},
		Rows:           []TableRow{},
	}
}

// buildRefresh derives the plot payloads and table rows from the filtered
// combined rows plus the sample's MS run metadata.
func buildRefresh(combined []*models.CombinedScore, msInfo []*models.MSInfoRow) *RefreshResponse {
	resp := &RefreshResponse{
		RTIntensity: msInfo,
		Columns:     tableColumns,
	}
	if resp.RTIntensity == nil {
		resp.RTIntensity = []*models.MSInfoRow{}
	}

	chargeCounts := map[int64]int{}
	lengths := make([]float64, 0, len(combined))
	for _, row := range combined {
		resp.MZRT = append(resp.MZRT, MZRTPoint{
			RT:            float64(row.RT),
			MZ:            float64(row.MZ),
			Charge:        row.Charge,
			Sequence:      row.Sequence,
			MSGFPlusScore: float64(row.MSGFPlusScore),
		})
		resp.PeptideLengths = append(resp.PeptideLengths, row.PeptideLength())
		lengths = append(lengths, float64(row.PeptideLength()))
		chargeCounts[row.Charge]++

		start, end := row.CoverageSpan()
		resp.Rows = append(resp.Rows, TableRow{
			CombinedScore:  *row,
			ProteinDisplay: row.ProteinDisplay(),
			CoverageStart:  start,
			CoverageEnd:    end,
			PeptideLength:  row.PeptideLength(),
		})
	}

	charges := make([]int64, 0, len(chargeCounts))
	for c := range chargeCounts {
		charges = append(charges, c)
	}
	sort.Slice(charges, func(i, j int) bool { return charges[i] < charges[j] })
	for _, c := range charges {
		resp.ChargeHist = append(resp.ChargeHist, ChargeBin{Charge: c, Count: chargeCounts[c]})
	}

	if len(lengths) > 0 {
		sort.Float64s(lengths)
		resp.LengthStats = &LengthStats{
			Count:  len(lengths),
			Mean:   stat.Mean(lengths, nil),
			Median: stat.Quantile(0.5, stat.Empirical, lengths, nil),
			Q1:     stat.Quantile(0.25, stat.Empirical, lengths, nil),
			Q3:     stat.Quantile(0.75, stat.Empirical, lengths, nil),
		}
		// StdDev needs at least two samples; NaN does not survive JSON.
		if len(lengths) > 1 {
			resp.LengthStats.StdDev = stat.StdDev(lengths, nil)
		}
	}
	return resp
}
