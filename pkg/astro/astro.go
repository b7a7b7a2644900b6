// Package astro computes the mean astronomical arguments of tidal theory:
// the mean longitudes of the Moon, Sun, lunar perigee, lunar ascending node
// and solar perigee, together with their rates of change in degrees per hour.
// The polynomial series follow Meeus, Astronomical Algorithms, evaluated in
// Julian centuries since J2000.0. Accuracy is well within the tolerances
// needed for tidal constituent speeds and nodal corrections.
package astro

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// hoursPerCentury converts a rate in degrees per Julian century to
// degrees per hour.
const hoursPerCentury = 36525.0 * 24.0

// Arguments holds the mean astronomical arguments at an instant. Longitudes
// are in degrees normalized to [0, 360); rates are in degrees per hour.
type Arguments struct {
	LunarLongitude float64 // s: mean longitude of the Moon
	SolarLongitude float64 // h: mean longitude of the Sun
	LunarPerigee   float64 // p: mean longitude of the lunar perigee
	LunarNode      float64 // N: mean longitude of the ascending lunar node
	SolarPerigee   float64 // p1: mean longitude of the solar perigee

	Rates Rates
}

// Rates holds the first derivatives of the tidal arguments in degrees per
// hour. Tau is the rate of mean lunar time, 15 - ds/dt + dh/dt.
type Rates struct {
	Tau float64
	S   float64
	H   float64
	P   float64
	N   float64
	P1  float64
}

// ArgumentsAt evaluates the mean astronomical arguments at t.
func ArgumentsAt(t time.Time) Arguments {
	jd := julian.TimeToJD(t.UTC())
	T := (jd - 2451545.0) / 36525.0

	// Mean longitudes, degrees (Meeus ch. 25 and 47).
	s := poly(T, 218.3164477, 481267.88123421, -0.0015786, 1.0/538841.0, -1.0/65194000.0)
	h := poly(T, 280.46646, 36000.76983, 0.0003032, 0, 0)
	p := poly(T, 83.3532465, 4069.0137287, -0.0103200, -1.0/80053.0, 1.0/18999000.0)
	n := poly(T, 125.04452, -1934.136261, 0.0020708, 1.0/450000.0, 0)
	p1 := poly(T, 282.93768193, 1.7195269, 0.00045962, 0.000000499, 0)

	// Derivatives of the same polynomials, degrees per hour.
	ds := dpoly(T, 481267.88123421, -0.0015786, 1.0/538841.0, -1.0/65194000.0) / hoursPerCentury
	dh := dpoly(T, 36000.76983, 0.0003032, 0, 0) / hoursPerCentury
	dp := dpoly(T, 4069.0137287, -0.0103200, -1.0/80053.0, 1.0/18999000.0) / hoursPerCentury
	dn := dpoly(T, -1934.136261, 0.0020708, 1.0/450000.0, 0) / hoursPerCentury
	dp1 := dpoly(T, 1.7195269, 0.00045962, 0.000000499, 0) / hoursPerCentury

	return Arguments{
		LunarLongitude: normalize(s),
		SolarLongitude: normalize(h),
		LunarPerigee:   normalize(p),
		LunarNode:      normalize(n),
		SolarPerigee:   normalize(p1),
		Rates: Rates{
			// Mean lunar time advances at the solar rate corrected for
			// the relative motion of Moon and Sun.
			Tau: 15.0 - ds + dh,
			S:   ds,
			H:   dh,
			P:   dp,
			N:   dn,
			P1:  dp1,
		},
	}
}

// poly evaluates c0 + c1*T + c2*T^2 + c3*T^3 + c4*T^4.
func poly(T, c0, c1, c2, c3, c4 float64) float64 {
	return c0 + T*(c1+T*(c2+T*(c3+T*c4)))
}

// dpoly evaluates the derivative of poly with respect to T,
// in degrees per century.
func dpoly(T, c1, c2, c3, c4 float64) float64 {
	return c1 + T*(2*c2+T*(3*c3+T*4*c4))
}

// normalize wraps an angle to the range [0, 360).
func normalize(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	return angle
}
