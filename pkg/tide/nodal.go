package tide

import (
	"math"
	"time"

	"github.com/tidewatch/wlcompare/pkg/astro"
)

// Correction adjusts a constituent for the astronomical state at an epoch.
type Correction struct {
	Speed    float64 // effective angular speed, degrees per hour
	Factor   float64 // node factor f applied to amplitude
	Argument float64 // equilibrium argument u in degrees added to phase
}

// Corrector supplies a per-constituent nodal correction at an epoch.
// Implementations must be safe for concurrent use.
type Corrector interface {
	Correct(c Constituent, epoch time.Time) Correction
}

// FixedSpeed is a corrector that applies no nodal modulation: nominal
// speed, unit node factor, zero argument. Useful for synthetic data and
// short records where the 18.6-year modulation is negligible.
type FixedSpeed struct{}

func (FixedSpeed) Correct(c Constituent, _ time.Time) Correction {
	return Correction{Speed: c.NominalSpeed(), Factor: 1, Argument: 0}
}

// Astronomical corrects each constituent's speed to the argument rates at
// the epoch and applies Schureman's node factor f and equilibrium argument
// u, expressed in the longitude of the lunar ascending node. Constituents
// without a tabulated formula (notably M1 and the purely solar terms) are
// left unmodulated.
type Astronomical struct{}

func (Astronomical) Correct(c Constituent, epoch time.Time) Correction {
	a := astro.ArgumentsAt(epoch)
	f, u := nodeFactor(c.Name, a.LunarNode)
	return Correction{Speed: c.SpeedAt(a), Factor: f, Argument: u}
}

// nodeFactor returns Schureman's (f, u) for a constituent given the lunar
// node longitude in degrees. u is in degrees.
func nodeFactor(name string, nodeDeg float64) (f, u float64) {
	n := nodeDeg * math.Pi / 180
	cosN, sinN := math.Cos(n), math.Sin(n)
	cos2N, sin2N := math.Cos(2*n), math.Sin(2*n)
	cos3N, sin3N := math.Cos(3*n), math.Sin(3*n)

	fM2 := 1.0004 - 0.0373*cosN + 0.0002*cos2N
	uM2 := -2.14 * sinN
	fO1 := 1.0089 + 0.1871*cosN - 0.0147*cos2N + 0.0014*cos3N
	uO1 := 10.80*sinN - 1.34*sin2N + 0.19*sin3N
	fK1 := 1.0060 + 0.1150*cosN - 0.0088*cos2N + 0.0006*cos3N
	uK1 := -8.86*sinN + 0.68*sin2N - 0.07*sin3N

	switch name {
	case "M2", "N2", "2N2", "MU2", "NU2", "LAMBDA2", "L2":
		return fM2, uM2
	case "M3":
		// Exponent 3/2 of the M2 modulation.
		return math.Pow(fM2, 1.5), 1.5 * uM2
	case "M4", "MN4":
		return fM2 * fM2, 2 * uM2
	case "M6":
		return fM2 * fM2 * fM2, 3 * uM2
	case "M8":
		return fM2 * fM2 * fM2 * fM2, 4 * uM2
	case "MS4":
		return fM2, uM2
	case "MSF", "2SM2":
		return fM2, -uM2
	case "MK3":
		return fM2 * fK1, uM2 + uK1
	case "2MK3":
		return fM2 * fM2 * fK1, 2*uM2 - uK1
	case "O1", "Q1", "2Q1", "RHO1":
		return fO1, uO1
	case "K1":
		return fK1, uK1
	case "K2":
		return 1.0241 + 0.2863*cosN + 0.0083*cos2N - 0.0015*cos3N,
			-17.74*sinN + 0.68*sin2N - 0.04*sin3N
	case "J1":
		return 1.0129 + 0.1676*cosN - 0.0170*cos2N + 0.0016*cos3N,
			-12.94*sinN + 1.34*sin2N - 0.19*sin3N
	case "OO1":
		return 1.1027 + 0.6504*cosN + 0.0317*cos2N - 0.0014*cos3N,
			-36.11*sinN + 1.92*sin2N - 0.27*sin3N
	case "MM":
		return 1.0 - 0.1300*cosN + 0.0013*cos2N, 0
	case "MF":
		return 1.0429 + 0.4135*cosN - 0.0040*cos2N,
			-23.74*sinN + 2.68*sin2N - 0.38*sin3N
	default:
		return 1, 0
	}
}
