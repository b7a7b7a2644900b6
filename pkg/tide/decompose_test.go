package tide

import (
	"errors"
	"math"
	"testing"
	"time"
)

// synthetic builds mean + sum A*cos(speed*t - phase) sampled at the given
// step over the duration, t in hours since start.
func synthetic(start time.Time, step time.Duration, duration time.Duration, mean float64, components []Estimate) ([]time.Time, []float64) {
	var times []time.Time
	var values []float64
	for ts := start; !ts.After(start.Add(duration)); ts = ts.Add(step) {
		th := ts.Sub(start).Hours()
		v := mean
		for _, c := range components {
			v += c.Amplitude * math.Cos((c.Speed*th-c.Phase)*math.Pi/180)
		}
		times = append(times, ts)
		values = append(values, v)
	}
	return times, values
}

func TestDecomposeRoundTripSingleConstituent(t *testing.T) {
	m2, _ := ByName("M2")
	start := time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		amplitude float64
		phase     float64
		mean      float64
	}{
		{"small amplitude", 0.35, 41.0, 0.0},
		{"large amplitude offset mean", 1.8, 310.25, 2.5},
		{"near zero phase", 0.9, 0.5, -1.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			times, values := synthetic(start, time.Hour, 72*time.Hour, tt.mean, []Estimate{
				{Speed: m2.NominalSpeed(), Amplitude: tt.amplitude, Phase: tt.phase},
			})

			d, err := Decompose(times, values, []Constituent{m2}, start, FixedSpeed{})
			if err != nil {
				t.Fatalf("Decompose: %v", err)
			}

			est := d.Estimates["M2"]
			if rel := math.Abs(est.Amplitude-tt.amplitude) / tt.amplitude; rel > 1e-6 {
				t.Errorf("amplitude = %.9f, want %.9f (rel err %.2e)", est.Amplitude, tt.amplitude, rel)
			}
			if diff := math.Abs(est.Phase - tt.phase); diff > 1e-3 {
				t.Errorf("phase = %.6f, want %.6f", est.Phase, tt.phase)
			}
			if math.Abs(d.Mean-tt.mean) > 1e-6 {
				t.Errorf("mean = %.9f, want %.9f", d.Mean, tt.mean)
			}
		})
	}
}

func TestDecomposeTwoConstituents(t *testing.T) {
	m2, _ := ByName("M2")
	k1, _ := ByName("K1")
	start := time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC)

	times, values := synthetic(start, 30*time.Minute, 96*time.Hour, 0.4, []Estimate{
		{Speed: m2.NominalSpeed(), Amplitude: 1.1, Phase: 120},
		{Speed: k1.NominalSpeed(), Amplitude: 0.3, Phase: 250},
	})

	d, err := Decompose(times, values, []Constituent{m2, k1}, start, FixedSpeed{})
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}

	checks := []struct {
		name      string
		amplitude float64
		phase     float64
	}{
		{"M2", 1.1, 120},
		{"K1", 0.3, 250},
	}
	for _, c := range checks {
		est := d.Estimates[c.name]
		if math.Abs(est.Amplitude-c.amplitude) > 1e-6 {
			t.Errorf("%s amplitude = %.9f, want %.9f", c.name, est.Amplitude, c.amplitude)
		}
		if math.Abs(est.Phase-c.phase) > 1e-3 {
			t.Errorf("%s phase = %.6f, want %.6f", c.name, est.Phase, c.phase)
		}
	}
}

func TestDecomposeIdempotent(t *testing.T) {
	m2, _ := ByName("M2")
	s2, _ := ByName("S2")
	start := time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC)
	times, values := synthetic(start, time.Hour, 400*time.Hour, 1.0, []Estimate{
		{Speed: m2.NominalSpeed(), Amplitude: 0.8, Phase: 33},
		{Speed: s2.NominalSpeed(), Amplitude: 0.2, Phase: 180},
	})

	first, err := Decompose(times, values, []Constituent{m2, s2}, start, Astronomical{})
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	second, err := Decompose(times, values, []Constituent{m2, s2}, start, Astronomical{})
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}

	for name, a := range first.Estimates {
		b := second.Estimates[name]
		if a != b {
			t.Errorf("%s estimate differs between identical solves: %+v vs %+v", name, a, b)
		}
	}
}

func TestDecomposeUnderDetermined(t *testing.T) {
	m2, _ := ByName("M2")
	start := time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC)
	times, values := synthetic(start, time.Hour, 1*time.Hour, 0, []Estimate{
		{Speed: m2.NominalSpeed(), Amplitude: 1, Phase: 0},
	})

	_, err := Decompose(times, values, []Constituent{m2}, start, FixedSpeed{})
	var derr *DecompositionError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DecompositionError for %d samples, got %v", len(times), err)
	}
}

func TestDecomposeMissingValue(t *testing.T) {
	m2, _ := ByName("M2")
	start := time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC)
	times, values := synthetic(start, time.Hour, 48*time.Hour, 0, []Estimate{
		{Speed: m2.NominalSpeed(), Amplitude: 1, Phase: 0},
	})
	values[7] = math.NaN()

	_, err := Decompose(times, values, []Constituent{m2}, start, FixedSpeed{})
	var derr *DecompositionError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DecompositionError for gap in series, got %v", err)
	}
}

func TestDecomposeSingularSystem(t *testing.T) {
	m2, _ := ByName("M2")
	start := time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC)
	times, values := synthetic(start, time.Hour, 48*time.Hour, 0, []Estimate{
		{Speed: m2.NominalSpeed(), Amplitude: 1, Phase: 0},
	})

	// The same constituent twice makes duplicate basis columns.
	_, err := Decompose(times, values, []Constituent{m2, m2}, start, FixedSpeed{})
	var derr *DecompositionError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DecompositionError for duplicate constituents, got %v", err)
	}
}

func TestWrap360(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{360, 0},
		{-90, 270},
		{725, 5},
		{-725, 355},
	}
	for _, tt := range tests {
		if got := wrap360(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("wrap360(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
