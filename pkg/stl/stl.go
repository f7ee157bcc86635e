// Package stl exports the surface of rendered fiber representations as
// binary STL meshes.
package stl

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"fibertracts/internal/models"
)

// ErrNoTriangles is returned when a geometry has no surface to export.
var ErrNoTriangles = errors.New("stl: geometry has no triangles")

// Triangle represents a triangle in 3D space
type Triangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
}

// FromGeometry triangulates the polygons and strips of g. Facet normals
// follow the vertex winding; degenerate facets get a zero normal.
func FromGeometry(g *models.Geometry) []Triangle {
	tris, _ := g.Triangles()
	out := make([]Triangle, 0, len(tris))
	for _, t := range tris {
		a, b, c := g.Points[t[0]], g.Points[t[1]], g.Points[t[2]]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		if norm := r3.Norm(n); norm > 0 {
			n = r3.Scale(1/norm, n)
		}
		out = append(out, Triangle{
			Normal:  vec32(n),
			Vertex1: vec32(a),
			Vertex2: vec32(b),
			Vertex3: vec32(c),
		})
	}
	return out
}

func vec32(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

// SaveGeometry writes the triangulated surface of g to filename.
func SaveGeometry(filename string, g *models.Geometry) (int, error) {
	triangles := FromGeometry(g)
	if len(triangles) == 0 {
		return 0, ErrNoTriangles
	}
	return len(triangles), SaveToSTL(filename, triangles)
}

// SaveToSTL saves triangles to a binary STL file
func SaveToSTL(filename string, triangles []Triangle) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create STL file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	// 80-byte header
	var header [80]byte
	copy(header[:], "fibertracts binary STL")
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(triangles))); err != nil {
		return err
	}

	for _, t := range triangles {
		// Normal, three vertices and a zero attribute byte count
		if err := binary.Write(w, binary.LittleEndian, t); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(0)); err != nil {
			return err
		}
	}

	return w.Flush()
}
