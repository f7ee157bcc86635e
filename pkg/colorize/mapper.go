// Package colorize derives the per-point and per-cell colour scalars of a
// tract set: tensor invariants through TensorMapper and fiber orientation
// hue indices through OrientationColorizer.
package colorize

import (
	"fibertracts/internal/models"
	"fibertracts/pkg/logging"
	"fibertracts/pkg/tensor"
)

// TensorScalarsName is the point array written by TensorMapper.
const TensorScalarsName = "TensorScalars"

// TensorMapper writes one scalar per point.
type TensorMapper struct {
	// ExtractScalar computes Invariant from each point's tensor. When false
	// the input's active point scalars are passed through.
	ExtractScalar bool

	Invariant tensor.Invariant
}

// Apply returns a shallow copy of in carrying the mapped scalars as its
// active point array. Missing inputs yield zeros.
func (m TensorMapper) Apply(in *models.Geometry) *models.Geometry {
	out := in.ShallowCopy()
	vals := make([]float64, len(in.Points))

	if m.ExtractScalar {
		if in.HasTensors() {
			for i, t := range in.Tensors {
				vals[i] = m.Invariant.Compute(t)
			}
		} else if len(in.Points) > 0 {
			logging.For("colorize").Warn("tract set has no tensors, invariant scalars set to zero")
		}
	} else {
		copy(vals, in.ActivePointScalars())
	}

	out.PointData[TensorScalarsName] = vals
	out.ActiveScalars = TensorScalarsName
	return out
}
