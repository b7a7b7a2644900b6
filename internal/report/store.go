package report

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tidewatch/wlcompare/internal/stats"
	"github.com/tidewatch/wlcompare/internal/types"
)

// Store persists run summaries to a SQLite database so successive runs
// of the same configuration can be compared over time.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the summary database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening summary database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			stations INTEGER NOT NULL,
			skipped INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS station_summary (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			station_id TEXT NOT NULL,
			datum TEXT NOT NULL,
			bias REAL NOT NULL,
			rmse REAL NOT NULL,
			nrmse REAL NOT NULL,
			corr REAL NOT NULL,
			skill REAL NOT NULL,
			PRIMARY KEY (run_id, station_id)
		)`,
		`CREATE TABLE IF NOT EXISTS skipped_stations (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			station_id TEXT NOT NULL,
			reason TEXT NOT NULL,
			PRIMARY KEY (run_id, station_id)
		)`,
		`CREATE TABLE IF NOT EXISTS constituent_stats (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			constituent TEXT NOT NULL,
			samples INTEGER NOT NULL,
			phase_mae REAL NOT NULL,
			amplitude_mre REAL NOT NULL,
			combined_rmse REAL NOT NULL,
			PRIMARY KEY (run_id, constituent)
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrating summary database: %w", err)
		}
	}
	return nil
}

// SaveRun stores one complete run under a fresh run identifier, which is
// returned for cross-referencing with the CSV output.
func (s *Store) SaveRun(comparisons []types.StationComparison, skipped []types.SkippedStation, cs []stats.ConstituentStats) (string, error) {
	runID := uuid.New().String()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("starting summary transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (run_id, created_at, stations, skipped) VALUES (?, ?, ?, ?)`,
		runID, time.Now().UTC(), len(comparisons), len(skipped),
	); err != nil {
		return "", fmt.Errorf("inserting run record: %w", err)
	}

	for _, c := range comparisons {
		if _, err := tx.Exec(
			`INSERT INTO station_summary (run_id, station_id, datum, bias, rmse, nrmse, corr, skill)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, c.StationID, c.Datum.String(), c.Bias, c.RMSE, c.NRMSE, c.Corr, c.Skill,
		); err != nil {
			return "", fmt.Errorf("inserting summary for station %s: %w", c.StationID, err)
		}
	}

	for _, sk := range skipped {
		if _, err := tx.Exec(
			`INSERT INTO skipped_stations (run_id, station_id, reason) VALUES (?, ?, ?)`,
			runID, sk.StationID, sk.Reason,
		); err != nil {
			return "", fmt.Errorf("inserting skipped station %s: %w", sk.StationID, err)
		}
	}

	for _, c := range cs {
		if _, err := tx.Exec(
			`INSERT INTO constituent_stats (run_id, constituent, samples, phase_mae, amplitude_mre, combined_rmse)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, c.Name, c.Samples, c.PhaseMAE, c.AmplitudeMRE, c.CombinedRMSE,
		); err != nil {
			return "", fmt.Errorf("inserting stats for constituent %s: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing summary transaction: %w", err)
	}
	return runID, nil
}

// StationHistory returns the stored summaries for one station across all
// runs, newest first.
func (s *Store) StationHistory(stationID string) ([]types.StationComparison, error) {
	rows, err := s.db.Query(
		`SELECT ss.station_id, ss.datum, ss.bias, ss.rmse, ss.nrmse, ss.corr, ss.skill
		 FROM station_summary ss JOIN runs r ON r.run_id = ss.run_id
		 WHERE ss.station_id = ?
		 ORDER BY r.created_at DESC`,
		stationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.StationComparison
	for rows.Next() {
		var c types.StationComparison
		var datum string
		if err := rows.Scan(&c.StationID, &datum, &c.Bias, &c.RMSE, &c.NRMSE, &c.Corr, &c.Skill); err != nil {
			return nil, err
		}
		c.Datum = types.ParseDatum(datum)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }
