// Package readers supplies the file-backed series and metadata
// collaborators: observation CSVs in the several agency dialects, model
// history exports, and the station correspondence table.
package readers

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/tidewatch/wlcompare/internal/types"
)

// LoadCorrespondence reads the station correspondence table. Expected
// columns: GageID (required), ProcessedCSVLoc (required), and optional
// Nodes, Storm and Datum. When a Storm column is present and a filter is
// given, only matching rows are kept. Duplicate GageIDs are an error.
func LoadCorrespondence(path string, storms []string) ([]types.StationMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening correspondence table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading correspondence table %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("correspondence table %s is empty", path)
	}

	col := map[string]int{}
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	gageCol, ok := col["GageID"]
	if !ok {
		return nil, fmt.Errorf("correspondence table %s has no GageID column", path)
	}
	csvCol, ok := col["ProcessedCSVLoc"]
	if !ok {
		return nil, fmt.Errorf("correspondence table %s has no ProcessedCSVLoc column", path)
	}
	nodesCol, hasNodes := col["Nodes"]
	stormCol, hasStorm := col["Storm"]
	datumCol, hasDatum := col["Datum"]

	wanted := make(map[string]bool, len(storms))
	for _, s := range storms {
		wanted[strings.TrimSpace(s)] = true
	}

	var stations []types.StationMeta
	seen := make(map[string]bool)
	for _, row := range records[1:] {
		meta := types.StationMeta{
			GageID:  strings.TrimSpace(row[gageCol]),
			ObsPath: strings.TrimSpace(row[csvCol]),
		}
		if hasNodes {
			meta.Nodes = strings.TrimSpace(row[nodesCol])
		}
		if hasStorm {
			meta.Storm = strings.TrimSpace(row[stormCol])
			if len(wanted) > 0 && !wanted[meta.Storm] {
				continue
			}
		}
		if hasDatum {
			meta.Datum = types.ParseDatum(row[datumCol])
		}

		if seen[meta.GageID] {
			return nil, fmt.Errorf("correspondence table %s: GageID %s is not unique", path, meta.GageID)
		}
		seen[meta.GageID] = true
		stations = append(stations, meta)
	}
	return stations, nil
}
