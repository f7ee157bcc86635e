// Package phantom builds synthetic tract sets: bundles of gently bent fibers
// carrying per-point diffusion tensors aligned with the local fiber direction.
package phantom

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"

	"fibertracts/internal/models"
	"fibertracts/pkg/tensor"
)

// ClusterIDName is the cell array holding each fiber's 1-based bundle number.
const ClusterIDName = "ClusterId"

// Params controls the generated tract set.
type Params struct {
	Bundles         int
	FibersPerBundle int
	PointsPerFiber  int
	Seed            uint64

	// Length is the extent of each fiber along its bundle axis.
	Length float64

	// Radius bounds the distance of a fiber from its bundle centre line.
	Radius float64

	// Axial and Radial are the tensor eigenvalues along and across the fiber.
	Axial, Radial float64
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() Params {
	return Params{
		Bundles:         3,
		FibersPerBundle: 200,
		PointsPerFiber:  40,
		Seed:            7,
		Length:          60,
		Radius:          4,
		Axial:           1.7,
		Radial:          0.3,
	}
}

// Generate returns a tract set of p.Bundles*p.FibersPerBundle fibers.
//
// Bundle b runs along world axis b%3, is offset from the origin along the
// next axis and bends along the third. The output is a function of p only.
func Generate(p Params) *models.Geometry {
	g := models.NewGeometry()
	if p.Bundles <= 0 || p.FibersPerBundle <= 0 || p.PointsPerFiber < 2 {
		return g
	}

	rng := rand.New(rand.NewSource(p.Seed))
	cluster := make([]float64, 0, p.Bundles*p.FibersPerBundle)

	for b := 0; b < p.Bundles; b++ {
		axis := b % 3
		offset := p.Length / 4 * float64(b/3+1) * sign(b)
		for f := 0; f < p.FibersPerBundle; f++ {
			// uniform point in the bundle cross-section
			r := p.Radius * math.Sqrt(rng.Float64())
			theta := 2 * math.Pi * rng.Float64()
			du, dv := r*math.Cos(theta), r*math.Sin(theta)
			bend := 0.1 * p.Length * (0.8 + 0.4*rng.Float64())

			line := make([]int, p.PointsPerFiber)
			for j := range line {
				s := float64(j)/float64(p.PointsPerFiber-1) - 0.5
				along := s * p.Length
				across := offset + du
				depth := dv + bend*math.Cos(math.Pi*s)
				line[j] = len(g.Points)
				g.Points = append(g.Points, place(axis, along, across, depth))
			}
			g.Lines = append(g.Lines, line)
			cluster = append(cluster, float64(b+1))

			for j := range line {
				g.Tensors = append(g.Tensors, aligned(tangent(g.Points, line, j), p.Axial, p.Radial))
			}
		}
	}
	g.CellData[ClusterIDName] = cluster
	return g
}

func sign(b int) float64 {
	if b%2 == 1 {
		return -1
	}
	return 1
}

// place maps bundle-local coordinates to world space for the given axis.
func place(axis int, along, across, depth float64) r3.Vec {
	var v [3]float64
	v[axis] = along
	v[(axis+1)%3] = across
	v[(axis+2)%3] = depth
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

func tangent(points []r3.Vec, line []int, j int) r3.Vec {
	lo, hi := max(j-1, 0), min(j+1, len(line)-1)
	return r3.Unit(r3.Sub(points[line[hi]], points[line[lo]]))
}

// aligned returns the tensor with eigenvalue axial along unit vector t and
// radial in the orthogonal plane.
func aligned(t r3.Vec, axial, radial float64) tensor.Tensor {
	d := axial - radial
	return tensor.NewSymmetric(
		radial+d*t.X*t.X, d*t.X*t.Y, d*t.X*t.Z,
		radial+d*t.Y*t.Y, d*t.Y*t.Z,
		radial+d*t.Z*t.Z,
	)
}
