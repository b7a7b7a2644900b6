// Package tide provides the tidal constituent catalog, nodal corrections,
// and harmonic least-squares decomposition of water-level time series.
package tide

import (
	"sort"

	"github.com/tidewatch/wlcompare/pkg/astro"
)

// Mean rates of the tidal arguments (tau, s, h, p, N, p1) in degrees per
// hour, used for nominal constituent speeds. Epoch-specific rates come
// from the astro package.
var nominalRates = [6]float64{14.4920521, 0.5490165, 0.0410686, 0.0046418, -0.0022064, 0.0000020}

// Constituent is an immutable tidal constituent reference entry.
type Constituent struct {
	Name string

	// Coefficients of the tidal arguments (tau, s, h, p, N, p1). The
	// constituent's angular speed is the dot product of these with the
	// argument rates.
	Coefficients [6]int

	// MinHours is the minimum record duration in hours required to
	// resolve this constituent from its close neighbors (Rayleigh
	// criterion). Zero means no published threshold: the constituent is
	// only separable from its annual/solar aliases with a full year of
	// data.
	MinHours float64
}

// NominalSpeed returns the constituent's mean angular speed in degrees
// per hour.
func (c Constituent) NominalSpeed() float64 {
	return c.speed(nominalRates)
}

// SpeedAt returns the constituent's angular speed in degrees per hour
// using the argument rates at the given epoch.
func (c Constituent) SpeedAt(a astro.Arguments) float64 {
	return c.speed([6]float64{a.Rates.Tau, a.Rates.S, a.Rates.H, a.Rates.P, a.Rates.N, a.Rates.P1})
}

func (c Constituent) speed(rates [6]float64) float64 {
	var sum float64
	for i, coeff := range c.Coefficients {
		sum += float64(coeff) * rates[i]
	}
	return sum
}

// hoursPerYear gates constituents with no published resolution threshold.
const hoursPerYear = 24 * 366

// Catalog is the full set of constituents considered for analysis, with
// the published Rayleigh-criterion minimum record durations.
var Catalog = []Constituent{
	{Name: "M2", Coefficients: [6]int{2, 0, 0, 0, 0, 0}, MinHours: 12},
	{Name: "M4", Coefficients: [6]int{4, 0, 0, 0, 0, 0}, MinHours: 12},
	{Name: "M6", Coefficients: [6]int{6, 0, 0, 0, 0, 0}, MinHours: 12},
	{Name: "M8", Coefficients: [6]int{8, 0, 0, 0, 0, 0}, MinHours: 12},
	{Name: "K1", Coefficients: [6]int{1, 1, 0, 0, 0, 0}, MinHours: 27},
	{Name: "S6", Coefficients: [6]int{6, 6, -6, 0, 0, 0}, MinHours: 118},
	{Name: "2MK3", Coefficients: [6]int{3, -1, 0, 0, 0, 0}, MinHours: 329},
	{Name: "MK3", Coefficients: [6]int{3, 1, 0, 0, 0, 0}, MinHours: 329},
	{Name: "O1", Coefficients: [6]int{1, -1, 0, 0, 0, 0}, MinHours: 329},
	{Name: "OO1", Coefficients: [6]int{1, 3, 0, 0, 0, 0}, MinHours: 329},
	{Name: "2Q1", Coefficients: [6]int{1, -3, 0, 2, 0, 0}, MinHours: 332},
	{Name: "2SM2", Coefficients: [6]int{2, 4, -4, 0, 0, 0}, MinHours: 356},
	{Name: "MS4", Coefficients: [6]int{4, 2, -2, 0, 0, 0}, MinHours: 356},
	{Name: "S2", Coefficients: [6]int{2, 2, -2, 0, 0, 0}, MinHours: 356},
	{Name: "S4", Coefficients: [6]int{4, 4, -4, 0, 0, 0}, MinHours: 356},
	{Name: "M1", Coefficients: [6]int{1, 0, 0, 1, 0, 0}, MinHours: 656},
	{Name: "M3", Coefficients: [6]int{3, 0, 0, 0, 0, 0}, MinHours: 656},
	{Name: "J1", Coefficients: [6]int{1, 2, 0, -1, 0, 0}, MinHours: 663},
	{Name: "MN4", Coefficients: [6]int{4, -1, 0, 1, 0, 0}, MinHours: 663},
	{Name: "N2", Coefficients: [6]int{2, -1, 0, 1, 0, 0}, MinHours: 663},
	{Name: "Q1", Coefficients: [6]int{1, -2, 0, 1, 0, 0}, MinHours: 663},
	{Name: "L2", Coefficients: [6]int{2, 1, 0, -1, 0, 0}, MinHours: 764},
	{Name: "MM", Coefficients: [6]int{0, 1, 0, -1, 0, 0}, MinHours: 764},
	{Name: "MU2", Coefficients: [6]int{2, -2, 2, 0, 0, 0}, MinHours: 764},
	{Name: "K2", Coefficients: [6]int{2, 2, 0, 0, 0, 0}, MinHours: 4383},
	{Name: "MF", Coefficients: [6]int{0, 2, 0, 0, 0, 0}, MinHours: 4383},
	{Name: "MSF", Coefficients: [6]int{0, 2, -2, 0, 0, 0}, MinHours: 4383},
	{Name: "P1", Coefficients: [6]int{1, 1, -2, 0, 0, 0}, MinHours: 4383},
	{Name: "2N2", Coefficients: [6]int{2, -2, 0, 2, 0, 0}, MinHours: 4942},
	{Name: "LAMBDA2", Coefficients: [6]int{2, 1, -2, 1, 0, 0}, MinHours: 4942},
	{Name: "NU2", Coefficients: [6]int{2, -1, 2, -1, 0, 0}, MinHours: 4942},
	{Name: "RHO1", Coefficients: [6]int{1, -2, 2, -1, 0, 0}, MinHours: 4942},

	// No published threshold: resolvable only against a year of record.
	{Name: "S1", Coefficients: [6]int{1, 1, -1, 0, 0, 0}},
	{Name: "SA", Coefficients: [6]int{0, 0, 1, 0, 0, 0}},
	{Name: "SSA", Coefficients: [6]int{0, 0, 2, 0, 0, 0}},
	{Name: "T2", Coefficients: [6]int{2, 2, -3, 0, 0, 1}},
	{Name: "R2", Coefficients: [6]int{2, 2, -1, 0, 0, -1}},
}

// PrincipalEight is the default comparison set for constituent-wise
// model/observation statistics.
var PrincipalEight = []string{"M2", "S2", "N2", "K2", "O1", "K1", "Q1", "P1"}

// ConstituentsFor returns every catalog constituent resolvable from a
// record of the given duration. The result is sorted by name; an empty
// result is valid.
func ConstituentsFor(durationHours float64) []Constituent {
	var out []Constituent
	for _, c := range Catalog {
		switch {
		case c.MinHours > 0 && durationHours >= c.MinHours:
			out = append(out, c)
		case c.MinHours == 0 && durationHours >= hoursPerYear:
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ByName looks up a catalog constituent by its identifier.
func ByName(name string) (Constituent, bool) {
	for _, c := range Catalog {
		if c.Name == name {
			return c, true
		}
	}
	return Constituent{}, false
}
