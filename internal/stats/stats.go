// Package stats computes agreement statistics between a model water-level
// series and an observed one, both pointwise over an aligned pair and
// constituent-wise over two harmonic decompositions.
package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/tidewatch/wlcompare/pkg/tide"
)

// StatisticsError indicates degenerate input for which a statistic is
// undefined, such as a constant observation series.
type StatisticsError struct {
	Reason string
}

func (e *StatisticsError) Error() string {
	return fmt.Sprintf("statistics: %s", e.Reason)
}

// Pointwise holds the per-station agreement metrics between the model
// and observation channels of an aligned pair.
type Pointwise struct {
	Bias  float64
	RMSE  float64
	NRMSE float64 // percent of the observed range
	Corr  float64 // Pearson correlation coefficient
	Skill float64 // Willmott skill score, 1 for perfect agreement
}

// ComputePointwise computes the pointwise metrics over two equal-length
// gap-free channels. It fails with StatisticsError when the observation
// is constant, since correlation, skill and normalized RMSE are
// undefined for zero observed variance.
func ComputePointwise(model, obs []float64) (Pointwise, error) {
	if len(model) != len(obs) {
		return Pointwise{}, &StatisticsError{Reason: fmt.Sprintf("channel lengths differ: %d vs %d", len(model), len(obs))}
	}
	if len(model) == 0 {
		return Pointwise{}, &StatisticsError{Reason: "empty aligned pair"}
	}

	obsMin, obsMax := obs[0], obs[0]
	for _, v := range obs {
		obsMin = math.Min(obsMin, v)
		obsMax = math.Max(obsMax, v)
	}
	if obsMax == obsMin {
		return Pointwise{}, &StatisticsError{Reason: "observation is constant, zero variance"}
	}

	obsMean := stat.Mean(obs, nil)

	var bias, sqSum, skillDenom float64
	for i := range model {
		diff := model[i] - obs[i]
		bias += diff
		sqSum += diff * diff

		d := math.Abs(model[i]-obsMean) + math.Abs(obs[i]-obsMean)
		skillDenom += d * d
	}
	n := float64(len(model))
	bias /= n
	rmse := math.Sqrt(sqSum / n)

	if skillDenom == 0 {
		return Pointwise{}, &StatisticsError{Reason: "skill score denominator is zero"}
	}

	return Pointwise{
		Bias:  bias,
		RMSE:  rmse,
		NRMSE: 100 * rmse / (obsMax - obsMin),
		Corr:  stat.Correlation(model, obs, nil),
		Skill: 1 - sqSum/skillDenom,
	}, nil
}

// BiasCorrect returns a copy of the observation shifted by the mean
// model-observation difference, removing any datum offset between the
// two channels before comparison.
func BiasCorrect(model, obs []float64) []float64 {
	var shift float64
	for i := range model {
		shift += model[i] - obs[i]
	}
	shift /= float64(len(model))

	out := make([]float64, len(obs))
	for i, v := range obs {
		out[i] = v + shift
	}
	return out
}

// CircularDiff returns the wrapped phase difference to-from in degrees,
// in (-180, 180]. 359 to 1 is a difference of 2, not 358.
func CircularDiff(from, to float64) float64 {
	d := math.Mod(to-from, 360)
	if d > 180 {
		d -= 360
	}
	if d <= -180 {
		d += 360
	}
	return d
}

// ConstituentSample pairs one constituent's model and observed estimates
// at one station.
type ConstituentSample struct {
	Name       string
	ModelAmp   float64
	ObsAmp     float64
	ModelPhase float64
	ObsPhase   float64
}

// CollectSamples extracts the comparison samples for the named
// constituents from a model and an observation decomposition.
// Constituents absent from either side are skipped, not treated as zero.
func CollectSamples(model, obs tide.Decomposition, names []string) []ConstituentSample {
	var out []ConstituentSample
	for _, name := range names {
		m, mok := model.Estimates[name]
		o, ook := obs.Estimates[name]
		if !mok || !ook {
			continue
		}
		out = append(out, ConstituentSample{
			Name:       name,
			ModelAmp:   m.Amplitude,
			ObsAmp:     o.Amplitude,
			ModelPhase: m.Phase,
			ObsPhase:   o.Phase,
		})
	}
	return out
}

// ConstituentStats holds the agreement metrics for one constituent,
// aggregated over every station where both channels resolved it.
type ConstituentStats struct {
	Name         string
	Samples      int
	PhaseMAE     float64 // mean absolute circular phase difference, degrees
	AmplitudeMRE float64 // mean |model-obs|/obs amplitude error
	CombinedRMSE float64 // joint amplitude+phase vector discrepancy
}

// ComputeConstituentWise aggregates per-constituent statistics over the
// collected samples. Results come back sorted by constituent name.
func ComputeConstituentWise(samples []ConstituentSample) []ConstituentStats {
	grouped := make(map[string][]ConstituentSample)
	for _, s := range samples {
		grouped[s.Name] = append(grouped[s.Name], s)
	}

	var out []ConstituentStats
	for name, group := range grouped {
		var phaseMAE, ampMRE, combined float64
		for _, s := range group {
			dphase := CircularDiff(s.ModelPhase, s.ObsPhase)
			phaseMAE += math.Abs(dphase)
			ampMRE += math.Abs(s.ModelAmp-s.ObsAmp) / s.ObsAmp

			// Vector discrepancy of two phasors with the circularly
			// corrected phase difference.
			sq := 0.5*(s.ModelAmp*s.ModelAmp+s.ObsAmp*s.ObsAmp) -
				s.ModelAmp*s.ObsAmp*math.Cos(math.Pi*dphase/180)
			if sq < 0 { // rounding for near-identical phasors
				sq = 0
			}
			combined += math.Sqrt(sq)
		}
		n := float64(len(group))
		out = append(out, ConstituentStats{
			Name:         name,
			Samples:      len(group),
			PhaseMAE:     phaseMAE / n,
			AmplitudeMRE: ampMRE / n,
			CombinedRMSE: combined / n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
