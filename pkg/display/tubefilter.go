package display

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"fibertracts/internal/models"
)

// TubeFilter sweeps a polygonal cross-section along every polyline.
//
// Every input line produces exactly Sides triangle strips, emitted in line
// order, so output cell c belongs to input line c/Sides. Point arrays are
// copied from the line point each ring is built around; cell arrays are
// repeated for each strip of the line.
type TubeFilter struct {
	Radius float64
	Sides  int
}

// Apply builds the tube surface for the lines of in.
func (f TubeFilter) Apply(in *models.Geometry) *models.Geometry {
	sides := max(f.Sides, 3)
	radius := max(f.Radius, 0)

	out := models.NewGeometry()
	out.ActiveScalars = in.ActiveScalars
	var source []int // output point -> input point

	for _, line := range in.Lines {
		if len(line) == 0 {
			for k := 0; k < sides; k++ {
				out.Strips = append(out.Strips, nil)
			}
			continue
		}

		frames := transportFrames(in.Points, line)
		rings := make([][]int, len(line))
		for j, pid := range line {
			rings[j] = make([]int, sides)
			fr := frames[j]
			for k := 0; k < sides; k++ {
				theta := 2 * math.Pi * float64(k) / float64(sides)
				radial := r3.Add(r3.Scale(math.Cos(theta), fr.normal), r3.Scale(math.Sin(theta), fr.binormal))
				rings[j][k] = len(out.Points)
				out.Points = append(out.Points, r3.Add(in.Points[pid], r3.Scale(radius, radial)))
				out.Normals = append(out.Normals, radial)
				source = append(source, pid)
			}
		}

		for k := 0; k < sides; k++ {
			next := (k + 1) % sides
			strip := make([]int, 0, 2*len(line))
			for j := range line {
				strip = append(strip, rings[j][k], rings[j][next])
			}
			out.Strips = append(out.Strips, strip)
		}
	}

	for name, arr := range in.PointData {
		vals := make([]float64, len(source))
		for i, pid := range source {
			if pid < len(arr) {
				vals[i] = arr[pid]
			}
		}
		out.PointData[name] = vals
	}
	for name, arr := range in.CellData {
		vals := make([]float64, 0, len(in.Lines)*sides)
		for li := range in.Lines {
			var v float64
			if li < len(arr) {
				v = arr[li]
			}
			for k := 0; k < sides; k++ {
				vals = append(vals, v)
			}
		}
		out.CellData[name] = vals
	}
	return out
}

type frame struct {
	tangent, normal, binormal r3.Vec
}

// transportFrames returns a rotation-minimising frame at every point of line.
func transportFrames(points []r3.Vec, line []int) []frame {
	n := len(line)
	frames := make([]frame, n)

	prevTangent := r3.Vec{X: 1}
	for j := range line {
		lo, hi := max(j-1, 0), min(j+1, n-1)
		t := r3.Sub(points[line[hi]], points[line[lo]])
		if norm := r3.Norm(t); norm > 0 {
			t = r3.Scale(1/norm, t)
		} else {
			t = prevTangent
		}
		frames[j].tangent = t
		prevTangent = t
	}

	normal := perpendicular(frames[0].tangent)
	for j := range frames {
		t := frames[j].tangent
		nv := r3.Sub(normal, r3.Scale(r3.Dot(normal, t), t))
		if norm := r3.Norm(nv); norm > 1e-12 {
			normal = r3.Scale(1/norm, nv)
		} else {
			normal = perpendicular(t)
		}
		frames[j].normal = normal
		frames[j].binormal = r3.Cross(t, normal)
	}
	return frames
}

// perpendicular returns a unit vector orthogonal to unit vector t.
func perpendicular(t r3.Vec) r3.Vec {
	axis := r3.Vec{X: 1}
	switch {
	case math.Abs(t.Y) <= math.Abs(t.X) && math.Abs(t.Y) <= math.Abs(t.Z):
		axis = r3.Vec{Y: 1}
	case math.Abs(t.Z) <= math.Abs(t.X) && math.Abs(t.Z) <= math.Abs(t.Y):
		axis = r3.Vec{Z: 1}
	}
	p := r3.Cross(t, axis)
	return r3.Scale(1/r3.Norm(p), p)
}
