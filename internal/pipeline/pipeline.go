// Package pipeline orchestrates the per-station comparison chain:
// resample the model and observation onto a common grid, compute
// pointwise agreement statistics, and optionally decompose both channels
// into tidal constituents. Stations are independent and processed by a
// worker pool; one station's failure is recorded and skipped, never
// aborting the run.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tidewatch/wlcompare/internal/stats"
	"github.com/tidewatch/wlcompare/internal/timeseries"
	"github.com/tidewatch/wlcompare/internal/types"
	"github.com/tidewatch/wlcompare/pkg/tide"
)

// Sources supplies the raw series for a station, already normalized to a
// single naive time reference.
type Sources interface {
	Model(station types.StationMeta) (timeseries.Series, error)
	Observation(station types.StationMeta) (timeseries.Series, error)
}

// Options controls a comparison run.
type Options struct {
	Tide         bool          // solve tidal constituents for both channels
	BiasCorrect  bool          // remove the mean model-observation offset first
	WarmupCut    time.Duration // model spin-up to trim from the head
	Workers      int           // station worker pool width; <=0 means NumCPU
	Constituents []string      // comparison set; nil means the principal eight
	Corrector    tide.Corrector
}

// StationResult is the immutable outcome for one successfully compared
// station.
type StationResult struct {
	Comparison types.StationComparison
	Pair       timeseries.AlignedPair
	ModelTide  *tide.Decomposition
	ObsTide    *tide.Decomposition
}

// Result collects every station outcome of a run. Skipped stations carry
// the reason they were excluded.
type Result struct {
	Stations         []StationResult
	Skipped          []types.SkippedStation
	ConstituentStats []stats.ConstituentStats
}

// Run compares every station, fanning the work out over a bounded pool.
// Station outcomes are merged only after all workers finish, sorted by
// station identifier for deterministic output.
func Run(ctx context.Context, sources Sources, stations []types.StationMeta, opts Options, logger *zap.SugaredLogger) Result {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(stations) && len(stations) > 0 {
		workers = len(stations)
	}
	corrector := opts.Corrector
	if corrector == nil {
		corrector = tide.FixedSpeed{}
	}
	comparison := opts.Constituents
	if comparison == nil {
		comparison = tide.PrincipalEight
	}

	type outcome struct {
		result  *StationResult
		skipped *types.SkippedStation
	}

	jobs := make(chan types.StationMeta)
	outcomes := make(chan outcome)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for station := range jobs {
				res, err := compareStation(sources, station, opts, corrector)
				if err != nil {
					logger.Warnw("skipping station", "station", station.GageID, "reason", err)
					outcomes <- outcome{skipped: &types.SkippedStation{StationID: station.GageID, Reason: err.Error()}}
					continue
				}
				outcomes <- outcome{result: res}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, station := range stations {
			select {
			case jobs <- station:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var result Result
	for o := range outcomes {
		if o.skipped != nil {
			result.Skipped = append(result.Skipped, *o.skipped)
			continue
		}
		result.Stations = append(result.Stations, *o.result)
	}

	sort.Slice(result.Stations, func(i, j int) bool {
		return result.Stations[i].Comparison.StationID < result.Stations[j].Comparison.StationID
	})
	sort.Slice(result.Skipped, func(i, j int) bool {
		return result.Skipped[i].StationID < result.Skipped[j].StationID
	})

	if opts.Tide {
		var samples []stats.ConstituentSample
		for _, sr := range result.Stations {
			if sr.ModelTide == nil || sr.ObsTide == nil {
				continue
			}
			samples = append(samples, stats.CollectSamples(*sr.ModelTide, *sr.ObsTide, comparison)...)
		}
		result.ConstituentStats = stats.ComputeConstituentWise(samples)
	}

	logger.Infow("comparison run complete",
		"stations", len(result.Stations), "skipped", len(result.Skipped))
	return result
}

// compareStation runs the full chain for one station.
func compareStation(sources Sources, station types.StationMeta, opts Options, corrector tide.Corrector) (*StationResult, error) {
	model, err := sources.Model(station)
	if err != nil {
		return nil, fmt.Errorf("model series: %w", err)
	}
	if model.AllMissing() {
		return nil, fmt.Errorf("model series is entirely missing")
	}
	if opts.WarmupCut > 0 && model.Len() > 0 {
		model = model.Window(model.Times[0].Add(opts.WarmupCut), model.Times[model.Len()-1])
	}

	obs, err := sources.Observation(station)
	if err != nil {
		return nil, fmt.Errorf("observation series: %w", err)
	}

	pair, err := timeseries.Align(model, obs)
	if err != nil {
		return nil, err
	}

	observed := pair.Observation
	if opts.BiasCorrect {
		observed = stats.BiasCorrect(pair.Model, pair.Observation)
		pair.Observation = observed
	}

	pw, err := stats.ComputePointwise(pair.Model, observed)
	if err != nil {
		return nil, err
	}

	res := &StationResult{
		Comparison: types.StationComparison{
			StationID: station.GageID,
			Datum:     station.Datum,
			Bias:      pw.Bias,
			RMSE:      pw.RMSE,
			NRMSE:     pw.NRMSE,
			Corr:      pw.Corr,
			Skill:     pw.Skill,
		},
		Pair: pair,
	}

	if opts.Tide {
		constituents := tide.ConstituentsFor(pair.DurationHours())
		if len(constituents) > 0 {
			epoch := pair.Times[0]

			mt, err := tide.Decompose(pair.Times, pair.Model, constituents, epoch, corrector)
			if err != nil {
				return nil, fmt.Errorf("model channel: %w", err)
			}
			mt.Station = station.GageID
			mt.Channel = "model"

			ot, err := tide.Decompose(pair.Times, observed, constituents, epoch, corrector)
			if err != nil {
				return nil, fmt.Errorf("observation channel: %w", err)
			}
			ot.Station = station.GageID
			ot.Channel = "observation"

			res.ModelTide = &mt
			res.ObsTide = &ot
		}
	}
	return res, nil
}
