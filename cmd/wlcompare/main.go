package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/tidewatch/wlcompare/internal/log"
	"github.com/tidewatch/wlcompare/internal/pipeline"
	"github.com/tidewatch/wlcompare/internal/readers"
	"github.com/tidewatch/wlcompare/internal/report"
	"github.com/tidewatch/wlcompare/internal/types"
	"github.com/tidewatch/wlcompare/pkg/config"
	"github.com/tidewatch/wlcompare/pkg/tide"
)

const version = "1.2-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "", "Path to YAML configuration file (optional)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")

	modelPath := flag.String("model", "", "Wide-format model history CSV")
	obsDir := flag.String("obs", "", "Directory holding processed observation CSVs")
	correspondPath := flag.String("correspond", "", "Station correspondence table CSV")
	outputDir := flag.String("output", "", "Output directory for report CSVs")
	storms := flag.String("storm", "", "Comma-separated storm names to filter the correspondence table")
	tideFlag := flag.Bool("tide", false, "Solve tidal constituents for both channels")
	astroFlag := flag.Bool("astro", false, "Apply astronomical nodal corrections when solving constituents")
	biasCorrect := flag.Bool("bias-correct", false, "Remove the mean model-observation offset before computing statistics")
	warmupCut := flag.Int("cut", -1, "Model spin-up hours to trim from the head of every model series")
	workers := flag.Int("workers", 0, "Station worker pool width (0 = one per CPU)")
	constituents := flag.String("constituents", "", "Comma-separated constituent comparison set")
	summaryDB := flag.String("summary-db", "", "SQLite database receiving run summaries")
	flag.Parse()

	if *showVersion {
		fmt.Printf("wlcompare %s\n", version)
		os.Exit(0)
	}

	cfg, err := loadConfig(*cfgFile)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags override the configuration file.
	applyString(&cfg.ModelPath, *modelPath)
	applyString(&cfg.ObsDir, *obsDir)
	applyString(&cfg.CorrespondPath, *correspondPath)
	applyString(&cfg.OutputDir, *outputDir)
	applyString(&cfg.SummaryDB, *summaryDB)
	if *storms != "" {
		cfg.Storms = splitList(*storms)
	}
	if *constituents != "" {
		cfg.Constituents = splitList(*constituents)
	}
	if *tideFlag {
		cfg.Tide = true
	}
	if *biasCorrect {
		cfg.BiasCorrect = true
	}
	if *warmupCut >= 0 {
		cfg.WarmupCutHours = *warmupCut
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := initLogging(*debug, cfg.LogFile); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *astroFlag); err != nil {
		log.Errorf("Run failed: %v", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func initLogging(debug bool, logFile string) error {
	if logFile != "" {
		return log.InitWithFile(debug, logFile)
	}
	return log.Init(debug)
}

func run(ctx context.Context, cfg *config.Config, astro bool) error {
	stations, err := readers.LoadCorrespondence(cfg.CorrespondPath, cfg.Storms)
	if err != nil {
		return fmt.Errorf("loading correspondence table: %w", err)
	}
	if len(stations) == 0 {
		return fmt.Errorf("no stations matched in %s", cfg.CorrespondPath)
	}
	log.Infof("Comparing %d stations against %s", len(stations), cfg.ModelPath)

	sources := &readers.FileSources{
		ModelPath: cfg.ModelPath,
		ObsDir:    cfg.ObsDir,
	}

	opts := pipeline.Options{
		Tide:         cfg.Tide,
		BiasCorrect:  cfg.BiasCorrect,
		WarmupCut:    time.Duration(cfg.WarmupCutHours) * time.Hour,
		Workers:      cfg.Workers,
		Constituents: cfg.Constituents,
	}
	if astro {
		opts.Corrector = tide.Astronomical{}
	}

	result := pipeline.Run(ctx, sources, stations, opts, log.GetSugaredLogger())
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Infof("Compared %d stations, skipped %d", len(result.Stations), len(result.Skipped))

	if err := writeReports(cfg, result); err != nil {
		return err
	}

	if cfg.SummaryDB != "" {
		if err := saveSummary(cfg.SummaryDB, result); err != nil {
			return err
		}
	}
	return nil
}

func writeReports(cfg *config.Config, result pipeline.Result) error {
	writer, err := report.NewCSVWriter(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for _, station := range result.Stations {
		if err := writer.WriteStationSeries(station.Comparison.StationID, station.Pair); err != nil {
			return fmt.Errorf("writing series for %s: %w", station.Comparison.StationID, err)
		}
		if station.ModelTide != nil {
			if err := writer.WriteDecomposition(*station.ModelTide); err != nil {
				return fmt.Errorf("writing model constituents for %s: %w", station.Comparison.StationID, err)
			}
		}
		if station.ObsTide != nil {
			if err := writer.WriteDecomposition(*station.ObsTide); err != nil {
				return fmt.Errorf("writing observed constituents for %s: %w", station.Comparison.StationID, err)
			}
		}
	}

	if err := writer.WriteSummary(stationComparisons(result), result.Skipped); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	if len(result.ConstituentStats) > 0 {
		if err := writer.WriteConstituentStats(result.ConstituentStats); err != nil {
			return fmt.Errorf("writing constituent statistics: %w", err)
		}
	}
	log.Infof("Reports written to %s", cfg.OutputDir)
	return nil
}

func saveSummary(path string, result pipeline.Result) error {
	store, err := report.OpenStore(path)
	if err != nil {
		return fmt.Errorf("opening summary database: %w", err)
	}
	defer store.Close()

	runID, err := store.SaveRun(stationComparisons(result), result.Skipped, result.ConstituentStats)
	if err != nil {
		return fmt.Errorf("saving run summary: %w", err)
	}
	log.Infof("Run %s saved to %s", runID, path)
	return nil
}

func stationComparisons(result pipeline.Result) []types.StationComparison {
	comparisons := make([]types.StationComparison, 0, len(result.Stations))
	for _, station := range result.Stations {
		comparisons = append(comparisons, station.Comparison)
	}
	return comparisons
}

func applyString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
