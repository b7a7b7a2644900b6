package tide

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Estimate is the solved amplitude and phase of one constituent. Phase
// follows the lag convention: the fitted signal is
// mean + sum A*cos(speed*t - phase) with t in hours since the epoch.
type Estimate struct {
	Name      string
	Speed     float64 // degrees per hour, corrected for the epoch
	Amplitude float64 // non-negative
	Phase     float64 // degrees in [0, 360)
}

// Decomposition is the result of a harmonic solve of one channel.
type Decomposition struct {
	Station   string
	Channel   string
	Epoch     time.Time
	Mean      float64
	Estimates map[string]Estimate
}

// DecompositionError indicates an under-determined or singular harmonic
// system, or an input the solver cannot accept.
type DecompositionError struct {
	Reason string
	Err    error
}

func (e *DecompositionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("harmonic decomposition: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("harmonic decomposition: %s", e.Reason)
}

func (e *DecompositionError) Unwrap() error { return e.Err }

// Decompose solves the harmonic least-squares model for one series. The
// design matrix has a constant column plus a cos/sin pair per constituent
// evaluated at hours since epoch; the corrector supplies each
// constituent's effective speed and nodal modulation. Values must be
// gap-free and times strictly increasing; the caller aligns and gap-fills
// beforehand.
func Decompose(times []time.Time, values []float64, constituents []Constituent, epoch time.Time, corrector Corrector) (Decomposition, error) {
	n := len(values)
	k := len(constituents)
	if len(times) != n {
		return Decomposition{}, &DecompositionError{Reason: fmt.Sprintf("times/values length mismatch: %d vs %d", len(times), n)}
	}
	if n < 2*k+1 {
		return Decomposition{}, &DecompositionError{Reason: fmt.Sprintf("under-determined system: %d samples for %d constituents (need %d)", n, k, 2*k+1)}
	}
	for i, v := range values {
		if math.IsNaN(v) {
			return Decomposition{}, &DecompositionError{Reason: fmt.Sprintf("missing value at sample %d", i)}
		}
	}

	corrections := make([]Correction, k)
	for j, c := range constituents {
		corrections[j] = corrector.Correct(c, epoch)
	}

	X := mat.NewDense(n, 2*k+1, nil)
	for i, t := range times {
		th := t.Sub(epoch).Hours()
		X.Set(i, 0, 1)
		for j := range constituents {
			arg := corrections[j].Speed * th * math.Pi / 180
			X.Set(i, 2*j+1, math.Cos(arg))
			X.Set(i, 2*j+2, math.Sin(arg))
		}
	}
	y := mat.NewVecDense(n, values)

	var qr mat.QR
	qr.Factorize(X)

	coeffs := mat.NewVecDense(2*k+1, nil)
	if err := qr.SolveVecTo(coeffs, false, y); err != nil {
		// Near-singular systems produce amplitudes with no physical
		// meaning; refuse rather than return them.
		return Decomposition{}, &DecompositionError{Reason: "singular or ill-conditioned system", Err: err}
	}

	d := Decomposition{
		Epoch:     epoch,
		Mean:      coeffs.AtVec(0),
		Estimates: make(map[string]Estimate, k),
	}
	for j, c := range constituents {
		cosCoeff := coeffs.AtVec(2*j + 1)
		sinCoeff := coeffs.AtVec(2*j + 2)
		corr := corrections[j]

		amplitude := math.Hypot(cosCoeff, sinCoeff) / corr.Factor
		phase := math.Atan2(sinCoeff, cosCoeff)*180/math.Pi + corr.Argument

		d.Estimates[c.Name] = Estimate{
			Name:      c.Name,
			Speed:     corr.Speed,
			Amplitude: amplitude,
			Phase:     wrap360(phase),
		}
	}
	return d, nil
}

// wrap360 normalizes a phase in degrees to [0, 360).
func wrap360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
