package readers

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidewatch/wlcompare/internal/timeseries"
)

// Header names observed across the agency CSV dialects. A file must
// match exactly one date header and one value header to be readable.
var possibleDates = []string{
	"Date (utc)",
	"Date Time",
	"Date and Time (GMT)",
}

var possibleData = []string{
	"gage height (m)",
	"Water Level",
	"Water level (m NAVD88)",
	"Elevation ocean/est (m NAVD88)",
	"Prediction",
	"Stream water level elevation above NAVD 1988 (m)",
}

// Timestamp layouts tried in order. All series are naive: any zone
// designator is ignored and the wall-clock time kept.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	time.RFC3339,
}

// ReadObservationCSV reads one observation file, sniffing the dialect
// from its headers. Rows with unparseable timestamps are dropped;
// unparseable values become explicit gaps. The result is sorted by time
// with duplicate timestamps collapsed to the first occurrence.
func ReadObservationCSV(path string) (timeseries.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return timeseries.Series{}, fmt.Errorf("opening observation file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return timeseries.Series{}, fmt.Errorf("reading observation file %s: %w", path, err)
	}
	if len(records) < 2 {
		return timeseries.Series{}, fmt.Errorf("observation file %s has no data rows", path)
	}

	header := records[0]
	dateCol := matchColumn(header, possibleDates)
	valueCol := matchColumn(header, possibleData)
	if dateCol < 0 || valueCol < 0 {
		return timeseries.Series{}, fmt.Errorf("unknown CSV format: %s", path)
	}

	type row struct {
		t time.Time
		v float64
	}
	var rows []row
	for _, rec := range records[1:] {
		if dateCol >= len(rec) || valueCol >= len(rec) {
			continue
		}
		ts, ok := parseNaiveTime(rec[dateCol])
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[valueCol]), 64)
		if err != nil {
			v = timeseries.Missing()
		}
		rows = append(rows, row{t: ts, v: v})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].t.Before(rows[j].t) })

	s := timeseries.Series{Name: "observation"}
	for _, rw := range rows {
		if n := len(s.Times); n > 0 && !rw.t.After(s.Times[n-1]) {
			continue
		}
		s.Times = append(s.Times, rw.t)
		s.Values = append(s.Values, rw.v)
	}
	return s, nil
}

// matchColumn returns the index of the single header cell matching one
// of the candidate names after space-trimming, or -1 when none or more
// than one matches.
func matchColumn(header []string, candidates []string) int {
	found := -1
	for i, cell := range header {
		cell = strings.TrimSpace(cell)
		for _, cand := range candidates {
			if cell == cand {
				if found >= 0 {
					return -1
				}
				found = i
			}
		}
	}
	return found
}

// parseNaiveTime parses a timestamp in any accepted layout and strips
// any timezone, keeping wall-clock time.
func parseNaiveTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), true
	}
	return time.Time{}, false
}
