package timeseries

import (
	"fmt"
	"time"
)

// ResamplePolicy names the direction-dependent resampling rule used to
// build an AlignedPair. Interpolation is only ever applied to the model
// channel: a smooth physical signal may be interpolated down onto
// observation timestamps, but observational detail is never fabricated.
type ResamplePolicy int

const (
	// SnapToModelGrid: the observation was the higher-resolution series
	// and was snapped onto the model's native grid without interpolation.
	SnapToModelGrid ResamplePolicy = iota
	// InterpolateToObservationGrid: the model was the higher-resolution
	// series and was linearly interpolated onto the observation's grid.
	InterpolateToObservationGrid
)

func (p ResamplePolicy) String() string {
	if p == SnapToModelGrid {
		return "snap-to-model-grid"
	}
	return "interpolate-to-observation-grid"
}

// AlignedPair is a model series and an observation series sharing one
// regular, gap-free time index.
type AlignedPair struct {
	Policy      ResamplePolicy
	Times       []time.Time
	Model       []float64
	Observation []float64
}

func (p AlignedPair) Len() int { return len(p.Times) }

// DurationHours is the span of the aligned index in hours.
func (p AlignedPair) DurationHours() float64 {
	if len(p.Times) < 2 {
		return 0
	}
	return p.Times[len(p.Times)-1].Sub(p.Times[0]).Hours()
}

// AlignmentError indicates an unreconcilable or empty time-series
// intersection.
type AlignmentError struct {
	Reason string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("alignment: %s", e.Reason)
}

// Align reconciles a model series and an observation series onto a
// common regular grid:
//
//  1. each series' native interval is the mode of its timestamp diffs;
//  2. the observation is restricted to the model's time range plus one
//     model interval at the end;
//  3. if the observation is higher resolution, it is snapped onto the
//     model's grid without interpolation (gaps stay missing);
//  4. otherwise the model is linearly interpolated onto the
//     observation's grid, never beyond the model's covered range;
//  5. the two are inner-joined on timestamps and rows missing either
//     channel are dropped.
func Align(model, obs Series) (AlignedPair, error) {
	if model.Len() < 2 {
		return AlignedPair{}, &AlignmentError{Reason: fmt.Sprintf("model series has %d samples, need at least 2", model.Len())}
	}
	if obs.Len() < 2 {
		return AlignedPair{}, &AlignmentError{Reason: fmt.Sprintf("observation series has %d samples, need at least 2", obs.Len())}
	}
	if err := model.Validate(); err != nil {
		return AlignedPair{}, &AlignmentError{Reason: err.Error()}
	}
	if err := obs.Validate(); err != nil {
		return AlignedPair{}, &AlignmentError{Reason: err.Error()}
	}

	modelIvl := model.NativeInterval()
	obsIvl := obs.NativeInterval()

	modelStart := model.Times[0]
	modelEnd := model.Times[model.Len()-1]
	obs = obs.Window(modelStart, modelEnd.Add(modelIvl))
	if obs.Len() < 2 {
		return AlignedPair{}, &AlignmentError{Reason: "observation does not overlap model time range"}
	}

	var policy ResamplePolicy
	var mTimes, oTimes []time.Time
	var mVals, oVals []float64

	if obsIvl < modelIvl {
		// Observation is the higher-resolution series: snap it onto the
		// model grid, never inferring unseen observation values.
		policy = SnapToModelGrid
		oTimes, oVals = snapToGrid(obs, modelStart, modelIvl)
		mTimes, mVals = model.Times, model.Values
	} else {
		// Model is the higher-resolution (or equal) series: interpolate
		// it onto the observation grid.
		policy = InterpolateToObservationGrid
		mTimes, mVals = interpolateToGrid(model, obs.Times[0], obsIvl)
		oTimes, oVals = snapToGrid(obs, obs.Times[0], obsIvl)
	}

	pair := innerJoin(policy, mTimes, mVals, oTimes, oVals)
	if pair.Len() == 0 {
		return AlignedPair{}, &AlignmentError{Reason: "aligned intersection is empty"}
	}
	return pair, nil
}

// snapToGrid resamples s onto the regular grid anchored at origin with
// the given step, covering s's time range. Grid points with no sample at
// exactly that timestamp are missing; no values are invented.
func snapToGrid(s Series, origin time.Time, step time.Duration) ([]time.Time, []float64) {
	byTime := make(map[int64]float64, s.Len())
	for i, t := range s.Times {
		byTime[t.UnixNano()] = s.Values[i]
	}

	first := gridCeil(origin, s.Times[0], step)
	last := s.Times[s.Len()-1]

	var times []time.Time
	var values []float64
	for g := first; !g.After(last); g = g.Add(step) {
		times = append(times, g)
		if v, ok := byTime[g.UnixNano()]; ok {
			values = append(values, v)
		} else {
			values = append(values, Missing())
		}
	}
	return times, values
}

// interpolateToGrid resamples s onto the regular grid anchored at origin
// with the given step, linearly interpolating between neighboring
// samples. The grid never extends beyond s's covered range, so no value
// is extrapolated, and a grid point whose bracketing sample is missing
// stays missing.
func interpolateToGrid(s Series, origin time.Time, step time.Duration) ([]time.Time, []float64) {
	first := gridCeil(origin, s.Times[0], step)
	last := s.Times[s.Len()-1]

	var times []time.Time
	var values []float64
	i := 0
	for g := first; !g.After(last); g = g.Add(step) {
		for i+1 < s.Len() && s.Times[i+1].Before(g) {
			i++
		}
		times = append(times, g)
		values = append(values, interpolateAt(s, i, g))
	}
	return times, values
}

// interpolateAt evaluates s at time g, where s.Times[i] is the greatest
// sample time not after g (or the nearest left neighbor).
func interpolateAt(s Series, i int, g time.Time) float64 {
	if g.Equal(s.Times[i]) {
		return s.Values[i]
	}
	if i+1 < s.Len() && g.Equal(s.Times[i+1]) {
		return s.Values[i+1]
	}
	if i+1 >= s.Len() || g.Before(s.Times[i]) || g.After(s.Times[i+1]) {
		return Missing()
	}

	v0, v1 := s.Values[i], s.Values[i+1]
	if IsMissing(v0) || IsMissing(v1) {
		return Missing()
	}
	span := s.Times[i+1].Sub(s.Times[i]).Seconds()
	frac := g.Sub(s.Times[i]).Seconds() / span
	return v0 + frac*(v1-v0)
}

// gridCeil returns the smallest grid point aligned to origin with the
// given step that is not before t.
func gridCeil(origin, t time.Time, step time.Duration) time.Time {
	d := t.Sub(origin)
	k := d / step
	if d%step > 0 {
		k++
	}
	return origin.Add(k * step)
}

// innerJoin keeps only timestamps present in both resampled channels and
// drops any row where either channel is missing.
func innerJoin(policy ResamplePolicy, mTimes []time.Time, mVals []float64, oTimes []time.Time, oVals []float64) AlignedPair {
	obsAt := make(map[int64]float64, len(oTimes))
	for i, t := range oTimes {
		obsAt[t.UnixNano()] = oVals[i]
	}

	pair := AlignedPair{Policy: policy}
	for i, t := range mTimes {
		ov, ok := obsAt[t.UnixNano()]
		if !ok || IsMissing(ov) || IsMissing(mVals[i]) {
			continue
		}
		pair.Times = append(pair.Times, t)
		pair.Model = append(pair.Model, mVals[i])
		pair.Observation = append(pair.Observation, ov)
	}
	return pair
}
