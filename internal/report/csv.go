// Package report writes run results for downstream consumers: per-station
// and aggregate CSV tables, and a SQLite summary store. It imposes no
// format on the core; it only consumes the immutable result records.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/tidewatch/wlcompare/internal/stats"
	"github.com/tidewatch/wlcompare/internal/timeseries"
	"github.com/tidewatch/wlcompare/internal/types"
	"github.com/tidewatch/wlcompare/pkg/tide"
)

// CSVWriter writes the run's CSV artifacts into one output directory.
type CSVWriter struct {
	OutDir string
}

func NewCSVWriter(outDir string) (*CSVWriter, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &CSVWriter{OutDir: outDir}, nil
}

func (w *CSVWriter) writeCSV(name string, rows [][]string) error {
	f, err := os.Create(filepath.Join(w.OutDir, name))
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	cw.Flush()
	return cw.Error()
}

// WriteStationSeries writes one station's aligned pair as
// <station>.csv with time, model and observation columns.
func (w *CSVWriter) WriteStationSeries(stationID string, pair timeseries.AlignedPair) error {
	rows := [][]string{{"time", "model", "observation"}}
	for i, ts := range pair.Times {
		rows = append(rows, []string{
			ts.Format("2006-01-02 15:04:05"),
			formatFloat(pair.Model[i]),
			formatFloat(pair.Observation[i]),
		})
	}
	return w.writeCSV(stationID+".csv", rows)
}

// WriteDecomposition writes one channel's constituent table as
// <station>_<channel>.csv, sorted by constituent name.
func (w *CSVWriter) WriteDecomposition(d tide.Decomposition) error {
	names := make([]string, 0, len(d.Estimates))
	for name := range d.Estimates {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := [][]string{{"constituent", "speed", "amplitude", "phase"}}
	for _, name := range names {
		e := d.Estimates[name]
		rows = append(rows, []string{
			e.Name,
			formatFloat(e.Speed),
			formatFloat(e.Amplitude),
			formatFloat(e.Phase),
		})
	}

	suffix := "_model.csv"
	if d.Channel == "observation" {
		suffix = "_obs.csv"
	}
	return w.writeCSV(d.Station+suffix, rows)
}

// WriteSummary writes the pointwise summary table for all succeeding
// stations, and the skipped-station table so failures are reported
// rather than silently omitted.
func (w *CSVWriter) WriteSummary(comparisons []types.StationComparison, skipped []types.SkippedStation) error {
	rows := [][]string{{"station_id", "datum", "bias", "corr", "rmse", "nrmse", "skill"}}
	for _, c := range comparisons {
		rows = append(rows, []string{
			c.StationID,
			c.Datum.String(),
			formatFloat(c.Bias),
			formatFloat(c.Corr),
			formatFloat(c.RMSE),
			formatFloat(c.NRMSE),
			formatFloat(c.Skill),
		})
	}
	if err := w.writeCSV("summary.csv", rows); err != nil {
		return err
	}

	if len(skipped) == 0 {
		return nil
	}
	rows = [][]string{{"station_id", "reason"}}
	for _, s := range skipped {
		rows = append(rows, []string{s.StationID, s.Reason})
	}
	return w.writeCSV("skipped.csv", rows)
}

// WriteConstituentStats writes the aggregated constituent-wise error
// table as Mean_stats.csv.
func (w *CSVWriter) WriteConstituentStats(cs []stats.ConstituentStats) error {
	rows := [][]string{{"constituent", "samples", "phase_mae", "amplitude_mre", "combined_rmse"}}
	for _, c := range cs {
		rows = append(rows, []string{
			c.Name,
			strconv.Itoa(c.Samples),
			formatFloat(c.PhaseMAE),
			formatFloat(c.AmplitudeMRE),
			formatFloat(c.CombinedRMSE),
		})
	}
	return w.writeCSV("Mean_stats.csv", rows)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
