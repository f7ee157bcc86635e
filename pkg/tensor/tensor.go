// Package tensor implements the diffusion-tensor math used by the tract
// pipeline: symmetric eigen-decomposition, eigenvalue correction, scalar
// shape invariants and the orientation-to-hue index mapping.
package tensor

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Tensor is a 3x3 diffusion tensor stored row-major. Only the upper triangle
// is significant; off-diagonal pairs are averaged before decomposition.
type Tensor [9]float64

// NewSymmetric builds a tensor from its six independent components.
func NewSymmetric(xx, xy, xz, yy, yz, zz float64) Tensor {
	return Tensor{
		xx, xy, xz,
		xy, yy, yz,
		xz, yz, zz,
	}
}

// Diagonal builds a tensor with the given principal diffusivities along x, y, z.
func Diagonal(x, y, z float64) Tensor {
	return NewSymmetric(x, 0, 0, y, 0, z)
}

// At returns the component at row i, column j.
func (t Tensor) At(i, j int) float64 {
	return t[i*3+j]
}

// Trace returns the sum of the diagonal components.
func (t Tensor) Trace() float64 {
	return t[0] + t[4] + t[8]
}

// Column returns column j as a vector.
func (t Tensor) Column(j int) r3.Vec {
	return r3.Vec{X: t[j], Y: t[3+j], Z: t[6+j]}
}

// Eigen is the result of decomposing a tensor.
type Eigen struct {
	// Values are sorted so that Values[0] >= Values[1] >= Values[2].
	Values [3]float64

	// Vectors[i] is the unit eigenvector belonging to Values[i].
	// The three vectors are pairwise orthonormal.
	Vectors [3]r3.Vec
}

// Major returns the eigenvector of the largest eigenvalue.
func (e Eigen) Major() r3.Vec {
	return e.Vectors[0]
}

// Decompose computes the eigen-decomposition of the symmetric part of t.
//
// The sum of the returned eigenvalues equals t.Trace() to floating tolerance.
// If the factorization fails the eigenvalues are set to the diagonal and the
// eigenvectors to the coordinate axes, which still preserves the trace.
func Decompose(t Tensor) Eigen {
	sym := mat.NewSymDense(3, []float64{
		t[0], (t[1] + t[3]) / 2, (t[2] + t[6]) / 2,
		(t[1] + t[3]) / 2, t[4], (t[5] + t[7]) / 2,
		(t[2] + t[6]) / 2, (t[5] + t[7]) / 2, t[8],
	})

	var es mat.EigenSym
	if !es.Factorize(sym, true) {
		return fallbackEigen(t)
	}

	// gonum returns ascending eigenvalues; the columns of vecs follow the same order.
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	var e Eigen
	for i := 0; i < 3; i++ {
		col := 2 - i
		e.Values[i] = vals[col]
		e.Vectors[i] = r3.Unit(r3.Vec{
			X: vecs.At(0, col),
			Y: vecs.At(1, col),
			Z: vecs.At(2, col),
		})
	}
	return e
}

func fallbackEigen(t Tensor) Eigen {
	type pair struct {
		val float64
		vec r3.Vec
	}
	pairs := []pair{
		{t[0], r3.Vec{X: 1}},
		{t[4], r3.Vec{Y: 1}},
		{t[8], r3.Vec{Z: 1}},
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].val > pairs[j].val })

	var e Eigen
	for i, p := range pairs {
		e.Values[i] = p.val
		e.Vectors[i] = p.vec
	}
	return e
}

// CorrectEigenvalues clamps negative eigenvalues, which only arise from
// numerical noise in fitted tensors, to zero and returns the triple sorted in
// descending order.
func CorrectEigenvalues(w [3]float64) [3]float64 {
	for i := range w {
		if w[i] < 0 {
			w[i] = 0
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(w[:])))
	return w
}
