package stl

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"fibertracts/internal/models"
	"fibertracts/pkg/display"
)

// createTestTube builds a tube around a single straight fiber along x.
func createTestTube(sides int) *models.Geometry {
	g := models.NewGeometry()
	g.Points = []r3.Vec{{X: 0}, {X: 1}, {X: 2}}
	g.Lines = [][]int{{0, 1, 2}}
	return display.TubeFilter{Radius: 1, Sides: sides}.Apply(g)
}

// TestFromGeometry verifies tube strips are triangulated with outward normals
func TestFromGeometry(t *testing.T) {
	triangles := FromGeometry(createTestTube(6))

	// 6 strips of 3 rings give 4 triangles each
	if len(triangles) != 24 {
		t.Fatalf("Expected 24 triangles, got %d", len(triangles))
	}

	for i, tri := range triangles {
		n := tri.Normal
		mag := math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2]))
		if math.Abs(mag-1) > 1e-5 {
			t.Errorf("Triangle %d normal is not unit length: %f", i, mag)
		}

		// Radial direction from the fiber axis through the facet centre
		cy := (tri.Vertex1[1] + tri.Vertex2[1] + tri.Vertex3[1]) / 3
		cz := (tri.Vertex1[2] + tri.Vertex2[2] + tri.Vertex3[2]) / 3
		if math.Abs(float64(n[0])) > 1e-5 {
			t.Errorf("Triangle %d normal has an axial component: %v", i, n)
		}
		dot := float64(n[1]*cy + n[2]*cz)
		if math.Abs(dot) < 1e-3 {
			t.Errorf("Triangle %d normal is tangent to the tube", i)
		}
	}
}

// TestFromGeometryLinesOnly verifies polylines alone produce no surface
func TestFromGeometryLinesOnly(t *testing.T) {
	g := models.NewGeometry()
	g.Points = []r3.Vec{{X: 0}, {X: 1}}
	g.Lines = [][]int{{0, 1}}

	if tris := FromGeometry(g); len(tris) != 0 {
		t.Errorf("Expected no triangles, got %d", len(tris))
	}

	_, err := SaveGeometry(filepath.Join(t.TempDir(), "empty.stl"), g)
	if !errors.Is(err, ErrNoTriangles) {
		t.Errorf("Expected ErrNoTriangles, got %v", err)
	}
}

// TestSaveToSTL verifies that the STL file can be written
func TestSaveToSTL(t *testing.T) {
	triangles := []Triangle{
		{
			Normal:  [3]float32{0, 0, 1},
			Vertex1: [3]float32{0, 0, 0},
			Vertex2: [3]float32{1, 0, 0},
			Vertex3: [3]float32{0, 1, 0},
		},
	}

	filename := filepath.Join(t.TempDir(), "test.stl")
	if err := SaveToSTL(filename, triangles); err != nil {
		t.Fatalf("Failed to save STL: %v", err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}

	// STL header: 80 bytes
	// Number of triangles: 4 bytes
	// Triangle: 50 bytes (12 bytes per vertex, 12 bytes per normal, 2 bytes attribute)
	if len(data) != 80+4+50 {
		t.Fatalf("Expected %d bytes, got %d", 80+4+50, len(data))
	}
	if count := binary.LittleEndian.Uint32(data[80:84]); count != 1 {
		t.Errorf("Expected triangle count 1, got %d", count)
	}
	nz := math.Float32frombits(binary.LittleEndian.Uint32(data[92:96]))
	if nz != 1 {
		t.Errorf("Expected normal z of 1, got %f", nz)
	}
	vx := math.Float32frombits(binary.LittleEndian.Uint32(data[108:112]))
	if vx != 1 {
		t.Errorf("Expected second vertex x of 1, got %f", vx)
	}
}

// TestSaveGeometry verifies the file size matches the facet count
func TestSaveGeometry(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "tube.stl")
	n, err := SaveGeometry(filename, createTestTube(4))
	if err != nil {
		t.Fatalf("Failed to save geometry: %v", err)
	}
	if n != 16 {
		t.Errorf("Expected 16 triangles, got %d", n)
	}

	info, err := os.Stat(filename)
	if err != nil {
		t.Fatalf("Failed to stat output file: %v", err)
	}
	if want := int64(84 + 50*n); info.Size() != want {
		t.Errorf("Expected %d bytes, got %d", want, info.Size())
	}
}
