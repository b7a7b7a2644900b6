// Package timeseries provides the water-level series model and the
// resampler that reconciles a model series and an observation series
// onto a common regular grid.
package timeseries

import (
	"fmt"
	"math"
	"time"
)

// Series is one ordered channel of (timestamp, value) pairs. Timestamps
// are naive (already normalized to a single time reference), strictly
// increasing and unique. Missing values are explicit NaN entries rather
// than omitted rows so regular-grid assumptions can be checked.
type Series struct {
	Name   string
	Times  []time.Time
	Values []float64
}

// Missing is the explicit marker for a gap in a series.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v marks a gap.
func IsMissing(v float64) bool { return math.IsNaN(v) }

func (s Series) Len() int { return len(s.Times) }

// Validate checks the series invariants: matching lengths and strictly
// increasing timestamps.
func (s Series) Validate() error {
	if len(s.Times) != len(s.Values) {
		return fmt.Errorf("series %q: %d timestamps but %d values", s.Name, len(s.Times), len(s.Values))
	}
	for i := 1; i < len(s.Times); i++ {
		if !s.Times[i].After(s.Times[i-1]) {
			return fmt.Errorf("series %q: timestamps not strictly increasing at index %d (%v)", s.Name, i, s.Times[i])
		}
	}
	return nil
}

// AllMissing reports whether the series carries no real values.
func (s Series) AllMissing() bool {
	for _, v := range s.Values {
		if !IsMissing(v) {
			return false
		}
	}
	return true
}

// Window returns the sub-series with timestamps in [from, to], sharing
// the underlying storage.
func (s Series) Window(from, to time.Time) Series {
	lo := 0
	for lo < len(s.Times) && s.Times[lo].Before(from) {
		lo++
	}
	hi := len(s.Times)
	for hi > lo && s.Times[hi-1].After(to) {
		hi--
	}
	return Series{Name: s.Name, Times: s.Times[lo:hi], Values: s.Values[lo:hi]}
}

// NativeInterval returns the statistical mode of consecutive timestamp
// differences. The mode, not the mean, so occasional gaps do not skew
// the detected sampling rate. Ties resolve to the smaller interval.
// Returns zero for series with fewer than two samples.
func (s Series) NativeInterval() time.Duration {
	if len(s.Times) < 2 {
		return 0
	}
	counts := make(map[time.Duration]int)
	for i := 1; i < len(s.Times); i++ {
		counts[s.Times[i].Sub(s.Times[i-1])]++
	}

	var best time.Duration
	bestCount := 0
	for d, c := range counts {
		if c > bestCount || (c == bestCount && d < best) {
			best, bestCount = d, c
		}
	}
	return best
}

// DurationHours is the span of the series in hours.
func (s Series) DurationHours() float64 {
	if len(s.Times) < 2 {
		return 0
	}
	return s.Times[len(s.Times)-1].Sub(s.Times[0]).Hours()
}
