package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tidewatch/wlcompare/internal/timeseries"
	"github.com/tidewatch/wlcompare/internal/types"
	"github.com/tidewatch/wlcompare/pkg/tide"
)

// fakeSources serves synthetic tidal series from memory. A station
// listed in failObs has no observation file.
type fakeSources struct {
	start     time.Time
	hours     int
	modelAmp  map[string]float64
	obsAmp    map[string]float64
	failObs   map[string]bool
	modelStep time.Duration
}

func (f *fakeSources) series(name string, amp float64, step time.Duration) timeseries.Series {
	m2, _ := tide.ByName("M2")
	speed := m2.NominalSpeed()

	s := timeseries.Series{Name: name}
	for ts := f.start; !ts.After(f.start.Add(time.Duration(f.hours) * time.Hour)); ts = ts.Add(step) {
		th := ts.Sub(f.start).Hours()
		s.Times = append(s.Times, ts)
		s.Values = append(s.Values, 1.0+amp*math.Cos((speed*th-40)*math.Pi/180))
	}
	return s
}

func (f *fakeSources) Model(st types.StationMeta) (timeseries.Series, error) {
	return f.series("model", f.modelAmp[st.GageID], f.modelStep), nil
}

func (f *fakeSources) Observation(st types.StationMeta) (timeseries.Series, error) {
	if f.failObs[st.GageID] {
		return timeseries.Series{}, fmt.Errorf("observation file not found")
	}
	return f.series("observation", f.obsAmp[st.GageID], time.Hour), nil
}

func testStations(ids ...string) []types.StationMeta {
	var out []types.StationMeta
	for _, id := range ids {
		out = append(out, types.StationMeta{GageID: id, ObsPath: id + ".csv"})
	}
	return out
}

func TestRunComparesAllStations(t *testing.T) {
	src := &fakeSources{
		start:     time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC),
		hours:     96,
		modelStep: 6 * time.Minute,
		modelAmp:  map[string]float64{"A": 0.5, "B": 0.8, "C": 0.3},
		obsAmp:    map[string]float64{"A": 0.5, "B": 0.7, "C": 0.3},
	}

	res := Run(context.Background(), src, testStations("A", "B", "C"), Options{
		Tide:      true,
		Workers:   2,
		Corrector: tide.FixedSpeed{},
	}, zap.NewNop().Sugar())

	if len(res.Skipped) != 0 {
		t.Fatalf("skipped = %+v, want none", res.Skipped)
	}
	if len(res.Stations) != 3 {
		t.Fatalf("got %d station results, want 3", len(res.Stations))
	}

	// Results are sorted by station id regardless of worker order.
	for i, want := range []string{"A", "B", "C"} {
		if res.Stations[i].Comparison.StationID != want {
			t.Errorf("station[%d] = %s, want %s", i, res.Stations[i].Comparison.StationID, want)
		}
	}

	// Station A's model matches its observation exactly.
	a := res.Stations[0].Comparison
	if math.Abs(a.Skill-1) > 1e-9 || math.Abs(a.RMSE) > 1e-9 {
		t.Errorf("perfect station: skill=%v rmse=%v, want 1 and 0", a.Skill, a.RMSE)
	}

	// 96 hours resolves M2 and K1; both channels must carry estimates.
	sr := res.Stations[1]
	if sr.ModelTide == nil || sr.ObsTide == nil {
		t.Fatal("expected tidal decompositions for 96-hour record")
	}
	if _, ok := sr.ModelTide.Estimates["M2"]; !ok {
		t.Error("model decomposition missing M2")
	}
	mAmp := sr.ModelTide.Estimates["M2"].Amplitude
	if math.Abs(mAmp-0.8) > 1e-6 {
		t.Errorf("station B model M2 amplitude = %v, want 0.8", mAmp)
	}

	if len(res.ConstituentStats) == 0 {
		t.Fatal("expected constituent-wise statistics")
	}
	for _, cs := range res.ConstituentStats {
		if cs.Name == "M2" && cs.Samples != 3 {
			t.Errorf("M2 aggregated over %d stations, want 3", cs.Samples)
		}
	}
}

func TestRunSkipsFailingStationAndContinues(t *testing.T) {
	src := &fakeSources{
		start:     time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC),
		hours:     48,
		modelStep: time.Hour,
		modelAmp:  map[string]float64{"A": 0.5, "B": 0.5},
		obsAmp:    map[string]float64{"A": 0.4, "B": 0.4},
		failObs:   map[string]bool{"B": true},
	}

	res := Run(context.Background(), src, testStations("A", "B"), Options{Workers: 4}, zap.NewNop().Sugar())

	if len(res.Stations) != 1 || res.Stations[0].Comparison.StationID != "A" {
		t.Fatalf("stations = %+v, want only A", res.Stations)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].StationID != "B" {
		t.Fatalf("skipped = %+v, want only B", res.Skipped)
	}
	if !strings.Contains(res.Skipped[0].Reason, "observation") {
		t.Errorf("skip reason %q should name the cause", res.Skipped[0].Reason)
	}
}

func TestRunWarmupCut(t *testing.T) {
	src := &fakeSources{
		start:     time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC),
		hours:     72,
		modelStep: time.Hour,
		modelAmp:  map[string]float64{"A": 0.5},
		obsAmp:    map[string]float64{"A": 0.5},
	}

	res := Run(context.Background(), src, testStations("A"), Options{
		WarmupCut: 12 * time.Hour,
		Workers:   1,
	}, zap.NewNop().Sugar())

	if len(res.Stations) != 1 {
		t.Fatalf("got %d stations, want 1", len(res.Stations))
	}
	first := res.Stations[0].Pair.Times[0]
	wantStart := src.start.Add(12 * time.Hour)
	if first.Before(wantStart) {
		t.Errorf("aligned pair starts at %v, want warmup trimmed to %v", first, wantStart)
	}
}

func TestRunEmptyStationList(t *testing.T) {
	src := &fakeSources{start: time.Now(), hours: 24, modelStep: time.Hour}
	res := Run(context.Background(), src, nil, Options{}, zap.NewNop().Sugar())
	if len(res.Stations) != 0 || len(res.Skipped) != 0 {
		t.Errorf("empty run should produce no results, got %+v", res)
	}
}
