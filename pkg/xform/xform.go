// Package xform provides the small rigid and affine transforms used to place
// glyphs and ROI boxes.
package xform

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mat3 is a 3x3 matrix stored row-major.
type Mat3 [9]float64

// Identity returns the identity matrix.
func Identity() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Diag returns a diagonal scale matrix.
func Diag(x, y, z float64) Mat3 {
	return Mat3{x, 0, 0, 0, y, 0, 0, 0, z}
}

// FromColumns builds a matrix whose columns are a, b and c.
func FromColumns(a, b, c r3.Vec) Mat3 {
	return Mat3{
		a.X, b.X, c.X,
		a.Y, b.Y, c.Y,
		a.Z, b.Z, c.Z,
	}
}

// RotationZ returns a rotation by angle radians about the z axis.
func RotationZ(angle float64) Mat3 {
	s, c := math.Sincos(angle)
	return Mat3{c, -s, 0, s, c, 0, 0, 0, 1}
}

// RotationX returns a rotation by angle radians about the x axis.
func RotationX(angle float64) Mat3 {
	s, c := math.Sincos(angle)
	return Mat3{1, 0, 0, 0, c, -s, 0, s, c}
}

// Mul returns m × n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = m[r*3]*n[c] + m[r*3+1]*n[3+c] + m[r*3+2]*n[6+c]
		}
	}
	return out
}

// Apply returns m × v.
func (m Mat3) Apply(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		Y: m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		Z: m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// Transpose returns the transpose of m.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Inverse returns the inverse of m. ok is false for singular matrices.
func (m Mat3) Inverse() (inv Mat3, ok bool) {
	a := mat.NewDense(3, 3, append([]float64(nil), m[:]...))
	var out mat.Dense
	if err := out.Inverse(a); err != nil {
		return Identity(), false
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			inv[r*3+c] = out.At(r, c)
		}
	}
	return inv, true
}

// Affine is a linear map followed by a translation.
type Affine struct {
	Linear      Mat3
	Translation r3.Vec
}

// IdentityAffine returns the identity transform.
func IdentityAffine() Affine {
	return Affine{Linear: Identity()}
}

// Translate returns a pure translation.
func Translate(v r3.Vec) Affine {
	return Affine{Linear: Identity(), Translation: v}
}

// Apply maps point p.
func (a Affine) Apply(p r3.Vec) r3.Vec {
	return r3.Add(a.Linear.Apply(p), a.Translation)
}

// ApplyNormal maps a surface normal, using the inverse transpose of the
// linear part. Singular transforms leave the normal unchanged.
func (a Affine) ApplyNormal(n r3.Vec) r3.Vec {
	inv, ok := a.Linear.Inverse()
	if !ok {
		return n
	}
	return r3.Unit(inv.Transpose().Apply(n))
}

// Then returns the transform that applies a first and b second.
func (a Affine) Then(b Affine) Affine {
	return Affine{
		Linear:      b.Linear.Mul(a.Linear),
		Translation: b.Apply(a.Translation),
	}
}
