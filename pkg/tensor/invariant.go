package tensor

import (
	"fmt"
	"math"
	"strings"
)

// Invariant selects a scalar measure derived from a tensor's eigensystem.
type Invariant int

const (
	Linear Invariant = iota
	Planar
	Spherical
	FractionalAnisotropy
	RelativeAnisotropy
	Trace
	MaxEigenvalue
	MidEigenvalue
	MinEigenvalue
	EigenvalueDifference
	Orientation
)

var invariantNames = [...]string{
	Linear:               "Linear",
	Planar:               "Planar",
	Spherical:            "Spherical",
	FractionalAnisotropy: "FractionalAnisotropy",
	RelativeAnisotropy:   "RelativeAnisotropy",
	Trace:                "Trace",
	MaxEigenvalue:        "MaxEigenvalue",
	MidEigenvalue:        "MidEigenvalue",
	MinEigenvalue:        "MinEigenvalue",
	EigenvalueDifference: "EigenvalueDifference",
	Orientation:          "Orientation",
}

// Invariants lists every supported invariant in declaration order.
func Invariants() []Invariant {
	out := make([]Invariant, len(invariantNames))
	for i := range out {
		out[i] = Invariant(i)
	}
	return out
}

func (k Invariant) String() string {
	if k < 0 || int(k) >= len(invariantNames) {
		return fmt.Sprintf("Invariant(%d)", int(k))
	}
	return invariantNames[k]
}

// ParseInvariant resolves an invariant by name, ignoring case.
func ParseInvariant(name string) (Invariant, error) {
	for i, n := range invariantNames {
		if strings.EqualFold(n, name) {
			return Invariant(i), nil
		}
	}
	return 0, fmt.Errorf("unknown scalar invariant %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Invariant) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Invariant) UnmarshalText(b []byte) error {
	v, err := ParseInvariant(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Value evaluates the invariant for eigenvalues sorted in descending order.
//
// The shape measures are the trace-normalised Westin measures, so
// Linear+Planar+Spherical = 1 for any non-degenerate tensor. Measures whose
// denominator vanishes evaluate to 0. Orientation depends on the eigenvector,
// not the eigenvalues, and always evaluates to 0 here; use OrientationIndex.
func (k Invariant) Value(w [3]float64) float64 {
	l1, l2, l3 := w[0], w[1], w[2]
	tr := l1 + l2 + l3

	switch k {
	case Linear:
		return safeDiv(l1-l2, tr)
	case Planar:
		return safeDiv(2*(l2-l3), tr)
	case Spherical:
		return safeDiv(3*l3, tr)
	case FractionalAnisotropy:
		num := math.Sqrt((l1-l2)*(l1-l2) + (l2-l3)*(l2-l3) + (l3-l1)*(l3-l1))
		den := math.Sqrt(l1*l1 + l2*l2 + l3*l3)
		return math.Sqrt(0.5) * safeDiv(num, den)
	case RelativeAnisotropy:
		num := math.Sqrt((l1-l2)*(l1-l2) + (l2-l3)*(l2-l3) + (l3-l1)*(l3-l1))
		return safeDiv(num, math.Sqrt2*tr)
	case Trace:
		return tr
	case MaxEigenvalue:
		return l1
	case MidEigenvalue:
		return l2
	case MinEigenvalue:
		return l3
	case EigenvalueDifference:
		return l1 - l3
	}
	return 0
}

// KnownRange reports the canonical output range of an invariant, when it has one.
func (k Invariant) KnownRange() (lo, hi float64, ok bool) {
	switch k {
	case Linear, Planar, Spherical, FractionalAnisotropy, RelativeAnisotropy:
		return 0, 1, true
	case Orientation:
		return 0, HueIndexMax, true
	}
	return 0, 0, false
}

// Compute decomposes t, corrects its eigenvalues and evaluates k. For
// Orientation the raw major eigenvector is mapped through DirectionToHueIndex.
func (k Invariant) Compute(t Tensor) float64 {
	e := Decompose(t)
	if k == Orientation {
		return OrientationIndex(e.Major())
	}
	return k.Value(CorrectEigenvalues(e.Values))
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
