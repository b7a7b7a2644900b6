package timeseries

import (
	"errors"
	"math"
	"testing"
	"time"
)

func regular(name string, start time.Time, step time.Duration, values []float64) Series {
	s := Series{Name: name, Values: values}
	for i := range values {
		s.Times = append(s.Times, start.Add(time.Duration(i)*step))
	}
	return s
}

func TestNativeInterval(t *testing.T) {
	start := time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC)

	t.Run("regular series", func(t *testing.T) {
		s := regular("m", start, 6*time.Minute, make([]float64, 10))
		if got := s.NativeInterval(); got != 6*time.Minute {
			t.Errorf("NativeInterval = %v, want 6m", got)
		}
	})

	t.Run("gap does not skew mode", func(t *testing.T) {
		// Hourly series with one 5-hour gap: the mean diff would be
		// wrong, the mode stays hourly.
		s := Series{Name: "o"}
		for _, h := range []int{0, 1, 2, 3, 8, 9, 10, 11, 12} {
			s.Times = append(s.Times, start.Add(time.Duration(h)*time.Hour))
			s.Values = append(s.Values, 0)
		}
		if got := s.NativeInterval(); got != time.Hour {
			t.Errorf("NativeInterval = %v, want 1h", got)
		}
	})

	t.Run("tie resolves to smaller interval", func(t *testing.T) {
		s := Series{Name: "o"}
		for _, m := range []int{0, 30, 90, 120} { // diffs: 30m, 60m, 30m... and 60m
			s.Times = append(s.Times, start.Add(time.Duration(m)*time.Minute))
			s.Values = append(s.Values, 0)
		}
		// diffs are 30m, 60m, 30m: mode 30m outright; extend to a tie
		s.Times = append(s.Times, start.Add(180*time.Minute))
		s.Values = append(s.Values, 0)
		if got := s.NativeInterval(); got != 30*time.Minute {
			t.Errorf("NativeInterval = %v, want 30m on tie", got)
		}
	})
}

func TestAlignIdentity(t *testing.T) {
	start := time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC)
	model := regular("model", start, time.Hour, []float64{1.5, 2.5, 3.5, 4.5, 5.5})
	obs := regular("observation", start, time.Hour, []float64{1, 2, 3, 4, 5})

	pair, err := Align(model, obs)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}

	if pair.Len() != 5 {
		t.Fatalf("aligned length = %d, want 5", pair.Len())
	}
	for i := range pair.Times {
		if !pair.Times[i].Equal(model.Times[i]) {
			t.Errorf("time[%d] = %v, want %v", i, pair.Times[i], model.Times[i])
		}
		if pair.Model[i] != model.Values[i] {
			t.Errorf("model[%d] = %v, want %v unchanged", i, pair.Model[i], model.Values[i])
		}
		if pair.Observation[i] != obs.Values[i] {
			t.Errorf("observation[%d] = %v, want %v unchanged", i, pair.Observation[i], obs.Values[i])
		}
	}
}

func TestAlignDeterministic(t *testing.T) {
	start := time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC)
	model := regular("model", start, 6*time.Minute, sine(481, 0.1))
	obs := regular("observation", start.Add(13*time.Minute), time.Hour, sine(48, 1.0))

	first, err := Align(model, obs)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	second, err := Align(model, obs)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}

	if first.Len() != second.Len() || first.Policy != second.Policy {
		t.Fatalf("repeated Align differs: %d/%v vs %d/%v", first.Len(), first.Policy, second.Len(), second.Policy)
	}
	for i := range first.Times {
		if !first.Times[i].Equal(second.Times[i]) || first.Model[i] != second.Model[i] || first.Observation[i] != second.Observation[i] {
			t.Fatalf("repeated Align differs at row %d", i)
		}
	}
}

func sine(n int, stepHours float64) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = math.Sin(2 * math.Pi * float64(i) * stepHours / 12.42)
	}
	return vals
}

func TestAlignModelHighResolution(t *testing.T) {
	// Model every 6 minutes, observation hourly, 48 hours: the aligned
	// pair must be on the hourly observation grid, with model values
	// that are exact 6-minute-grid snaps since the hourly points land
	// on the model grid.
	start := time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC)
	modelVals := sine(481, 0.1) // 48h at 6 min
	model := regular("model", start, 6*time.Minute, modelVals)
	obs := regular("observation", start, time.Hour, sine(49, 1.0))

	pair, err := Align(model, obs)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}

	if pair.Policy != InterpolateToObservationGrid {
		t.Errorf("policy = %v, want interpolate-to-observation-grid", pair.Policy)
	}
	if pair.Len() != 49 {
		t.Errorf("aligned length = %d, want 49", pair.Len())
	}
	for i := 1; i < pair.Len(); i++ {
		if step := pair.Times[i].Sub(pair.Times[i-1]); step != time.Hour {
			t.Fatalf("aligned spacing = %v at row %d, want 1h", step, i)
		}
	}
	for i := range pair.Times {
		if pair.Model[i] != modelVals[i*10] {
			t.Errorf("model[%d] = %v, want exact grid snap %v", i, pair.Model[i], modelVals[i*10])
		}
	}
}

func TestAlignObservationHighResolution(t *testing.T) {
	// Observation every 6 minutes, model hourly: the observation must be
	// snapped onto the model grid without interpolation.
	start := time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC)
	obsVals := sine(481, 0.1)
	obs := regular("observation", start, 6*time.Minute, obsVals)
	model := regular("model", start, time.Hour, sine(49, 1.0))

	pair, err := Align(model, obs)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}

	if pair.Policy != SnapToModelGrid {
		t.Errorf("policy = %v, want snap-to-model-grid", pair.Policy)
	}
	for i := range pair.Times {
		offset := pair.Times[i].Sub(start)
		if offset%time.Hour != 0 {
			t.Errorf("time[%d] = %v not on model grid", i, pair.Times[i])
		}
		j := int(offset / (6 * time.Minute))
		if pair.Observation[i] != obsVals[j] {
			t.Errorf("observation[%d] = %v, want exact sample %v", i, pair.Observation[i], obsVals[j])
		}
	}
}

func TestAlignNoOvershootAndNoRangeEscape(t *testing.T) {
	start := time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC)
	// Irregular observation origin so interpolation actually happens.
	model := regular("model", start, 6*time.Minute, sine(481, 0.1))
	obs := regular("observation", start.Add(3*time.Minute), time.Hour, sine(48, 1.0))

	pair, err := Align(model, obs)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range model.Values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for i, v := range pair.Model {
		if v < lo || v > hi {
			t.Errorf("interpolated model[%d] = %v outside source range [%v, %v]", i, v, lo, hi)
		}
	}

	rangeStart := model.Times[0]
	if obs.Times[0].After(rangeStart) {
		rangeStart = obs.Times[0]
	}
	rangeEnd := model.Times[model.Len()-1]
	if obs.Times[obs.Len()-1].Before(rangeEnd) {
		rangeEnd = obs.Times[obs.Len()-1]
	}
	for i, ts := range pair.Times {
		if ts.Before(rangeStart) || ts.After(rangeEnd) {
			t.Errorf("time[%d] = %v outside input range intersection [%v, %v]", i, ts, rangeStart, rangeEnd)
		}
	}
}

func TestAlignPreservesGapsWhenSnapping(t *testing.T) {
	start := time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC)
	model := regular("model", start, time.Hour, []float64{1, 2, 3, 4, 5, 6})

	// 6-minute observation with a missing stretch covering hour 2.
	obs := Series{Name: "observation"}
	for i := 0; i < 60; i++ {
		ts := start.Add(time.Duration(i) * 6 * time.Minute)
		v := float64(i)
		if i >= 18 && i <= 22 { // covers the 02:00 grid point
			v = Missing()
		}
		obs.Times = append(obs.Times, ts)
		obs.Values = append(obs.Values, v)
	}

	pair, err := Align(model, obs)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	for _, ts := range pair.Times {
		if ts.Equal(start.Add(2 * time.Hour)) {
			t.Errorf("gap at %v was filled instead of dropped", ts)
		}
	}
	for _, v := range pair.Observation {
		if IsMissing(v) {
			t.Errorf("aligned pair contains missing observation value")
		}
	}
}

func TestAlignErrors(t *testing.T) {
	start := time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		model Series
		obs   Series
	}{
		{
			name:  "model too short",
			model: regular("model", start, time.Hour, []float64{1}),
			obs:   regular("observation", start, time.Hour, []float64{1, 2, 3}),
		},
		{
			name:  "observation too short",
			model: regular("model", start, time.Hour, []float64{1, 2, 3}),
			obs:   regular("observation", start, time.Hour, []float64{1}),
		},
		{
			name:  "disjoint ranges",
			model: regular("model", start, time.Hour, []float64{1, 2, 3}),
			obs:   regular("observation", start.Add(100*time.Hour), time.Hour, []float64{1, 2, 3}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Align(tt.model, tt.obs)
			var aerr *AlignmentError
			if !errors.As(err, &aerr) {
				t.Fatalf("expected AlignmentError, got %v", err)
			}
		})
	}
}

func TestWindowRestrictsRange(t *testing.T) {
	start := time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC)
	s := regular("s", start, time.Hour, []float64{0, 1, 2, 3, 4, 5})

	w := s.Window(start.Add(time.Hour), start.Add(3*time.Hour))
	if w.Len() != 3 {
		t.Fatalf("window length = %d, want 3", w.Len())
	}
	if w.Values[0] != 1 || w.Values[2] != 3 {
		t.Errorf("window values = %v, want [1 2 3]", w.Values)
	}
}
