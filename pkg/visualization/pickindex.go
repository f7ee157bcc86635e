package visualization

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"

	"fibertracts/internal/models"
)

// screenPoint is a projected sample of a rendered primitive.
type screenPoint struct {
	X, Y float64

	owner     int
	primitive int
	depth     float64
}

// Compare implements the kdtree.Comparable interface
func (p screenPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(screenPoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p screenPoint) Dims() int { return 2 }

// Distance returns the squared pixel distance between two samples
func (p screenPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(screenPoint)
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// screenPoints is a collection of screenPoint that satisfies kdtree.Interface
type screenPoints []screenPoint

func (p screenPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p screenPoints) Len() int                              { return len(p) }
func (p screenPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p screenPoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(pointPlane{screenPoints: p, Dim: d}, kdtree.MedianOfRandoms(pointPlane{screenPoints: p, Dim: d}, 100))
}

// pointPlane implements sort.Interface and kdtree.SortSlicer for screenPoints
type pointPlane struct {
	screenPoints
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.screenPoints[i].X < p.screenPoints[j].X
	case 1:
		return p.screenPoints[i].Y < p.screenPoints[j].Y
	default:
		panic("illegal dimension")
	}
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{screenPoints: p.screenPoints[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.screenPoints[i], p.screenPoints[j] = p.screenPoints[j], p.screenPoints[i]
}

// maxEdgeSamples bounds the samples taken along one projected edge.
const maxEdgeSamples = 64

// sampleGeometry appends pixel-spaced samples along every cell edge of g,
// plus each triangle's centroid, tagged with owner and cell number.
func sampleGeometry(dst screenPoints, cam *Camera, g *models.Geometry, owner int) screenPoints {
	project := func(pid int) screenPoint {
		x, y, d := cam.Project(g.Points[pid])
		return screenPoint{X: x, Y: y, depth: d, owner: owner}
	}
	edge := func(a, b screenPoint, cell int) {
		n := int(math.Ceil(math.Hypot(b.X-a.X, b.Y-a.Y)))
		n = max(1, min(n, maxEdgeSamples))
		for k := 0; k <= n; k++ {
			f := float64(k) / float64(n)
			dst = append(dst, screenPoint{
				X:         a.X + f*(b.X-a.X),
				Y:         a.Y + f*(b.Y-a.Y),
				depth:     a.depth + f*(b.depth-a.depth),
				owner:     owner,
				primitive: cell,
			})
		}
	}

	for cell, line := range g.Lines {
		if len(line) == 1 {
			p := project(line[0])
			p.primitive = cell
			dst = append(dst, p)
		}
		for j := 1; j < len(line); j++ {
			edge(project(line[j-1]), project(line[j]), cell)
		}
	}

	tris, cells := g.Triangles()
	for i, tri := range tris {
		a, b, c := project(tri[0]), project(tri[1]), project(tri[2])
		edge(a, b, cells[i])
		edge(b, c, cells[i])
		edge(c, a, cells[i])
		dst = append(dst, screenPoint{
			X:         (a.X + b.X + c.X) / 3,
			Y:         (a.Y + b.Y + c.Y) / 3,
			depth:     (a.depth + b.depth + c.depth) / 3,
			owner:     owner,
			primitive: cells[i],
		})
	}
	return dst
}

// worldBounds merges bounding boxes.
func worldBounds(lo, hi r3.Vec, g *models.Geometry, first bool) (r3.Vec, r3.Vec) {
	glo, ghi := g.Bounds()
	if first {
		return glo, ghi
	}
	return r3.Vec{X: min(lo.X, glo.X), Y: min(lo.Y, glo.Y), Z: min(lo.Z, glo.Z)},
		r3.Vec{X: max(hi.X, ghi.X), Y: max(hi.Y, ghi.Y), Z: max(hi.Z, ghi.Z)}
}
