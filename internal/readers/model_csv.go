package readers

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidewatch/wlcompare/internal/timeseries"
	"github.com/tidewatch/wlcompare/internal/types"
)

// ReadModelCSV reads a model history export in wide format: a time
// column (named "time" or any accepted date header) plus one column per
// station. The named station's column becomes the model series;
// unparseable values become explicit gaps.
func ReadModelCSV(path, station string) (timeseries.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return timeseries.Series{}, fmt.Errorf("opening model file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return timeseries.Series{}, fmt.Errorf("reading model file %s: %w", path, err)
	}
	if len(records) < 2 {
		return timeseries.Series{}, fmt.Errorf("model file %s has no data rows", path)
	}

	header := records[0]
	timeCol := -1
	stationCol := -1
	for i, cell := range header {
		cell = strings.TrimSpace(cell)
		if timeCol < 0 && (strings.EqualFold(cell, "time") || isDateHeader(cell)) {
			timeCol = i
			continue
		}
		if cell == station {
			stationCol = i
		}
	}
	if timeCol < 0 {
		return timeseries.Series{}, fmt.Errorf("model file %s has no time column", path)
	}
	if stationCol < 0 {
		return timeseries.Series{}, fmt.Errorf("model file %s has no column for station %s", path, station)
	}

	s := timeseries.Series{Name: "model"}
	for _, rec := range records[1:] {
		if timeCol >= len(rec) || stationCol >= len(rec) {
			continue
		}
		ts, ok := parseNaiveTime(rec[timeCol])
		if !ok {
			continue
		}
		if n := len(s.Times); n > 0 && !ts.After(s.Times[n-1]) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[stationCol]), 64)
		if err != nil {
			v = timeseries.Missing()
		}
		s.Times = append(s.Times, ts)
		s.Values = append(s.Values, v)
	}
	return s, nil
}

func isDateHeader(cell string) bool {
	for _, cand := range possibleDates {
		if cell == cand {
			return true
		}
	}
	return false
}

// FileSources reads model and observation series from disk, one pair per
// station. It implements the pipeline's series source contract.
type FileSources struct {
	ModelPath string // wide-format model history CSV
	ObsDir    string // directory holding processed observation CSVs
}

func (fs *FileSources) Model(station types.StationMeta) (timeseries.Series, error) {
	return ReadModelCSV(fs.ModelPath, station.GageID)
}

func (fs *FileSources) Observation(station types.StationMeta) (timeseries.Series, error) {
	if station.ObsPath == "" {
		return timeseries.Series{}, fmt.Errorf("station %s has no observation file", station.GageID)
	}
	return ReadObservationCSV(filepath.Join(fs.ObsDir, station.ObsPath))
}
