package models

import (
	"path/filepath"
	"strings"
)

// FileType identifies one of the recognized search-engine export kinds.
type FileType string

const (
	TypeMSInfo        FileType = "ms_info"
	TypeMSGF          FileType = "msgf"
	TypePercolator    FileType = "msgf_feat_perc"
	TypePercolatorPEP FileType = "msgf_feat_perc_pep"
	TypeQValueFilter  FileType = "msgf_feat_perc_pep_filter"
	TypeFilteredPSM   FileType = "msgf_feat_perc_pep_filter_psm"
	TypeSpectrum      FileType = "spectrum"
)

// Table returns the database table the file type loads into.
func (t FileType) Table() string { return string(t) }

// suffixTypes maps recognized filename suffixes to their file type.
var suffixTypes = map[string]FileType{
	"ms_info.tsv":                       TypeMSInfo,
	"msgf.tsv":                          TypeMSGF,
	"msgf_feat_perc.tsv":                TypePercolator,
	"msgf_feat_perc_pep.tsv":            TypePercolatorPEP,
	"msgf_feat_perc_pep_filter.tsv":     TypeQValueFilter,
	"msgf_feat_perc_pep_filter_psm.tsv": TypeFilteredPSM,
	"spectrum_df.tsv":                   TypeSpectrum,
}

// AllFileTypes lists every recognized type in load order.
func AllFileTypes() []FileType {
	return []FileType{
		TypeMSInfo,
		TypeMSGF,
		TypePercolator,
		TypePercolatorPEP,
		TypeQValueFilter,
		TypeFilteredPSM,
		TypeSpectrum,
	}
}

// ClassifyFilename matches a filename against the recognized suffixes and
// returns its file type. The longest applicable suffix wins, so
// "x_msgf_feat_perc.tsv" is percolator output, not MSGF output.
func ClassifyFilename(name string) (FileType, bool) {
	base := filepath.Base(name)
	var (
		best    FileType
		bestLen int
		found   bool
	)
	for suffix, ft := range suffixTypes {
		if strings.HasSuffix(base, suffix) && len(suffix) > bestLen {
			best, bestLen, found = ft, len(suffix), true
		}
	}
	return best, found
}

// SampleFromFilename derives the sample identifier from a filename: the
// first three underscore-delimited tokens (e.g. "RA_10_1_msgf.tsv" ->
// "RA_10_1"). Filenames with fewer than three tokens fall back to the whole
// base name with the extension stripped.
func SampleFromFilename(name string) string {
	base := filepath.Base(name)
	tokens := strings.Split(base, "_")
	if len(tokens) < 3 {
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.Join(tokens[:3], "_")
}
