package models

import "github.com/uptrace/bun"

// MSInfoRow is one MS run metadata row, loaded verbatim from the
// *_ms_info.tsv exports. Only the columns the dashboard plots are mapped;
// the underlying table may carry more.
type MSInfoRow struct {
	bun.BaseModel `bun:"table:ms_info,alias:mi"`

	SampleName        string `bun:"sample_name" json:"sample_name"`
	RetentionTime     Float  `bun:"Retention_Time" json:"retention_time"`
	BasePeakIntensity Float  `bun:"Base_Peak_Intensity" json:"base_peak_intensity"`
	Charge            int64  `bun:"Charge" json:"charge"`
	MSLevel           int64  `bun:"MSLevel" json:"ms_level"`
}
