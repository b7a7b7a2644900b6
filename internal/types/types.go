// Package types holds the shared immutable records passed between the
// comparison pipeline and its collaborators.
package types

import "strings"

// Datum is the vertical reference level of a water-level record.
type Datum int

const (
	DatumUnknown Datum = iota
	DatumMSL
	DatumNAVD88
)

func (d Datum) String() string {
	switch d {
	case DatumMSL:
		return "MSL"
	case DatumNAVD88:
		return "NAVD88"
	default:
		return "Unknown"
	}
}

// ParseDatum maps a correspondence-table datum label to a Datum. Labels
// it does not recognize map to DatumUnknown.
func ParseDatum(s string) Datum {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MSL", "MEAN SEA LEVEL":
		return DatumMSL
	case "NAVD88", "NAVD 88", "NAVD":
		return DatumNAVD88
	default:
		return DatumUnknown
	}
}

// StationMeta identifies one monitoring station in the correspondence
// table: which gage to compare, where its processed observation data
// lives, and the datum the record is referenced to.
type StationMeta struct {
	GageID  string
	ObsPath string // observation CSV, relative to the observation data dir
	Nodes   string // optional model node selector, kept verbatim
	Storm   string
	Datum   Datum
}

// StationComparison is the pointwise agreement summary for one station,
// computed once per run.
type StationComparison struct {
	StationID string
	Datum     Datum
	Bias      float64
	RMSE      float64
	NRMSE     float64 // percent of observed range
	Corr      float64
	Skill     float64 // Willmott skill score
}

// SkippedStation records a station excluded from the aggregate summary
// and why, so failures are reported rather than silently dropped.
type SkippedStation struct {
	StationID string
	Reason    string
}
