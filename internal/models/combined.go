package models

import (
	"strconv"
	"strings"

	"github.com/uptrace/bun"
)

// ProteinPlaceholder is shown when no usable accession is present.
const ProteinPlaceholder = "N/A"

// CombinedScore is one row of the denormalized combined_score table: the
// inner join of the MSGF+, percolator and q-value-filtered PSM tables,
// carrying all three scores together.
type CombinedScore struct {
	bun.BaseModel `bun:"table:combined_score,alias:cs"`

	SampleName        string `bun:"sample_name" json:"sample_name"`
	RT                Float  `bun:"rt" json:"rt"`
	MZ                Float  `bun:"mz" json:"mz"`
	Charge            int64  `bun:"charge" json:"charge"`
	AABefore          string `bun:"aa_before" json:"aa_before"`
	AAAfter           string `bun:"aa_after" json:"aa_after"`
	Sequence          string `bun:"sequence" json:"sequence"`
	Start             string `bun:"start" json:"start"`
	End               string `bun:"end" json:"end"`
	ProteinReferences string `bun:"protein_references" json:"protein_references"`
	Accessions        string `bun:"accessions" json:"accessions"`
	MSGFPlusScore     Float  `bun:"msgfplus_score" json:"msgfplus_score"`
	PercolatorScore   Float  `bun:"percolator_score" json:"percolator_score"`
	QValueScore       Float  `bun:"qvalue_score" json:"qvalue_score"`
}

// PeptideLength returns the amino-acid length of the peptide sequence.
func (c *CombinedScore) PeptideLength() int {
	return len(c.Sequence)
}

// CoverageSpan returns the start/end positions highlighted in the sequence
// viewer. Non-numeric coordinates default to 1 and the sequence length.
func (c *CombinedScore) CoverageSpan() (int, int) {
	start := 1
	if v, err := strconv.Atoi(strings.TrimSpace(c.Start)); err == nil && v > 0 {
		start = v
	}
	end := len(c.Sequence)
	if v, err := strconv.Atoi(strings.TrimSpace(c.End)); err == nil && v > 0 {
		end = v
	}
	return start, end
}

// ProteinDisplay derives a short protein identifier from the accessions
// field. The first semicolon-delimited accession is used; UniProt-style
// pipe-delimited accessions ("sp|P12345|PROT_HUMAN") reduce to the third
// segment, or the last one when fewer than three are present.
func (c *CombinedScore) ProteinDisplay() string {
	return DeriveProteinDisplay(c.Accessions)
}

// DeriveProteinDisplay implements the accession-to-display-name rule shared
// by the dashboard table and the sequence viewer.
func DeriveProteinDisplay(accessions string) string {
	protein := strings.TrimSpace(accessions)
	if protein == "" {
		return ProteinPlaceholder
	}
	if i := strings.Index(protein, ";"); i >= 0 {
		protein = strings.TrimSpace(protein[:i])
	}
	if strings.Contains(protein, "|") {
		parts := strings.Split(protein, "|")
		if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
			protein = strings.TrimSpace(parts[2])
		} else {
			protein = strings.TrimSpace(parts[len(parts)-1])
		}
	}
	if protein == "" {
		return ProteinPlaceholder
	}
	return protein
}
