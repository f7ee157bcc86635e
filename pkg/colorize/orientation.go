package colorize

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"fibertracts/internal/models"
	"fibertracts/pkg/tensor"
)

// OrientationScalarsName is the point and cell array written by
// OrientationColorizer.
const OrientationScalarsName = "FiberOrientation"

// OrientationMode selects how fiber direction is turned into colour.
type OrientationMode int

const (
	// MeanFiber colours a whole fiber by its average segment direction.
	MeanFiber OrientationMode = iota

	// PerSegment colours each point by the direction of the segment ending there.
	PerSegment
)

// OrientationColorizer maps fiber directions to hue indices.
type OrientationColorizer struct {
	Mode OrientationMode
}

// Apply returns a shallow copy of in with OrientationScalarsName as point
// and cell arrays. The cell value is always the fiber's mean orientation.
func (c OrientationColorizer) Apply(in *models.Geometry) *models.Geometry {
	out := in.ShallowCopy()
	points := make([]float64, len(in.Points))
	cells := make([]float64, in.NumberOfCells())

	for fi, line := range in.Lines {
		var sum r3.Vec
		segments := make([]float64, len(line))
		count := 0
		for j := 1; j < len(line); j++ {
			d := absUnit(r3.Sub(in.Points[line[j]], in.Points[line[j-1]]))
			if d == (r3.Vec{}) {
				segments[j] = segments[j-1]
				continue
			}
			sum = r3.Add(sum, d)
			count++
			segments[j] = tensor.DirectionToHueIndex(d.X, d.Y, d.Z)
		}

		var mean float64
		if count > 0 {
			avg := r3.Scale(1/float64(count), sum)
			mean = tensor.DirectionToHueIndex(avg.X, avg.Y, avg.Z)
		}
		cells[fi] = mean

		switch c.Mode {
		case MeanFiber:
			for _, pid := range line {
				points[pid] = mean
			}
		case PerSegment:
			if len(line) > 1 {
				// The first point has no preceding segment and takes its neighbour's value.
				segments[0] = segments[1]
			}
			for j, pid := range line {
				points[pid] = segments[j]
			}
		}
	}

	out.PointData[OrientationScalarsName] = points
	out.CellData[OrientationScalarsName] = cells
	out.ActiveScalars = OrientationScalarsName
	return out
}

// absUnit returns the unit vector of d with every component made
// non-negative, or the zero vector for a zero-length d.
func absUnit(d r3.Vec) r3.Vec {
	n := r3.Norm(d)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Vec{X: math.Abs(d.X) / n, Y: math.Abs(d.Y) / n, Z: math.Abs(d.Z) / n}
}
