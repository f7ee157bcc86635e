package glyph

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"fibertracts/internal/models"
)

// Type names a built-in glyph source.
type Type string

const (
	TypeLine   Type = "line"
	TypeSphere Type = "sphere"
	TypeCube   Type = "cube"
)

// NewSource returns the built-in source for t, or nil for an unknown type.
func NewSource(t Type) *models.Geometry {
	switch t {
	case TypeLine:
		return Line()
	case TypeSphere:
		return Sphere(12, 8)
	case TypeCube:
		return Cube()
	}
	return nil
}

// Line returns a unit segment along x centred at the origin. Scaled by the
// glyph transform it spans the major eigenvalue along the major eigenvector.
func Line() *models.Geometry {
	g := models.NewGeometry()
	g.Points = []r3.Vec{{X: -0.5}, {X: 0.5}}
	g.Lines = [][]int{{0, 1}}
	return g
}

// Sphere returns a latitude/longitude sphere of diameter 1 with outward
// normals. thetaRes is the number of longitudes, phiRes the number of
// latitude bands.
func Sphere(thetaRes, phiRes int) *models.Geometry {
	thetaRes = max(thetaRes, 3)
	phiRes = max(phiRes, 2)
	const radius = 0.5

	g := models.NewGeometry()
	north := len(g.Points)
	g.Points = append(g.Points, r3.Vec{Z: radius})
	g.Normals = append(g.Normals, r3.Vec{Z: 1})

	// Interior rings.
	for j := 1; j < phiRes; j++ {
		phi := math.Pi * float64(j) / float64(phiRes)
		sp, cp := math.Sincos(phi)
		for i := 0; i < thetaRes; i++ {
			theta := 2 * math.Pi * float64(i) / float64(thetaRes)
			st, ct := math.Sincos(theta)
			n := r3.Vec{X: sp * ct, Y: sp * st, Z: cp}
			g.Points = append(g.Points, r3.Scale(radius, n))
			g.Normals = append(g.Normals, n)
		}
	}
	south := len(g.Points)
	g.Points = append(g.Points, r3.Vec{Z: -radius})
	g.Normals = append(g.Normals, r3.Vec{Z: -1})

	ring := func(j, i int) int { return 1 + (j-1)*thetaRes + i%thetaRes }

	for i := 0; i < thetaRes; i++ {
		g.Polys = append(g.Polys, []int{north, ring(1, i), ring(1, i+1)})
	}
	for j := 1; j < phiRes-1; j++ {
		for i := 0; i < thetaRes; i++ {
			g.Polys = append(g.Polys, []int{ring(j, i), ring(j+1, i), ring(j+1, i+1), ring(j, i+1)})
		}
	}
	for i := 0; i < thetaRes; i++ {
		g.Polys = append(g.Polys, []int{south, ring(phiRes-1, i+1), ring(phiRes-1, i)})
	}
	return g
}

// Cube returns a unit cube centred at the origin. Each face has its own
// four points so face normals stay flat.
func Cube() *models.Geometry {
	g := models.NewGeometry()
	faces := []struct {
		n    r3.Vec
		u, v r3.Vec
	}{
		{r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{Z: 1}},
		{r3.Vec{X: -1}, r3.Vec{Z: 1}, r3.Vec{Y: 1}},
		{r3.Vec{Y: 1}, r3.Vec{Z: 1}, r3.Vec{X: 1}},
		{r3.Vec{Y: -1}, r3.Vec{X: 1}, r3.Vec{Z: 1}},
		{r3.Vec{Z: 1}, r3.Vec{X: 1}, r3.Vec{Y: 1}},
		{r3.Vec{Z: -1}, r3.Vec{Y: 1}, r3.Vec{X: 1}},
	}
	for _, f := range faces {
		base := len(g.Points)
		c := r3.Scale(0.5, f.n)
		for _, s := range [][2]float64{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}} {
			p := r3.Add(c, r3.Add(r3.Scale(s[0], f.u), r3.Scale(s[1], f.v)))
			g.Points = append(g.Points, p)
			g.Normals = append(g.Normals, f.n)
		}
		g.Polys = append(g.Polys, []int{base, base + 1, base + 2, base + 3})
	}
	return g
}
