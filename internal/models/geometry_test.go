package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"

	"fibertracts/pkg/tensor"
)

// createTestGeometry builds three fibers of 3, 2 and 4 points. The last
// fiber starts at a point coincident with the end of the first one.
func createTestGeometry() *Geometry {
	g := NewGeometry()
	g.Points = []r3.Vec{
		{X: 0}, {X: 1}, {X: 2},
		{Y: 1}, {Y: 2},
		{X: 2}, {X: 3}, {X: 4}, {X: 5},
	}
	g.Lines = [][]int{{0, 1, 2}, {3, 4}, {5, 6, 7, 8}}
	g.Tensors = make([]tensor.Tensor, len(g.Points))
	scal := make([]float64, len(g.Points))
	for i := range g.Points {
		g.Tensors[i] = tensor.Diagonal(float64(i+1), 1, 1)
		scal[i] = float64(i)
	}
	g.PointData["index"] = scal
	g.ActiveScalars = "index"
	g.CellData["cluster"] = []float64{10, 20, 30}
	return g
}

func TestExtractLinesAndCompact(t *testing.T) {
	g := createTestGeometry()

	out := g.ExtractLines([]int{2, 0}).RemoveUnusedPoints()

	if out.NumberOfFibers() != 2 {
		t.Fatalf("Expected 2 fibers, got %d", out.NumberOfFibers())
	}
	if out.NumberOfPoints() != 7 {
		t.Errorf("Expected 7 points (coincident points must not merge), got %d", out.NumberOfPoints())
	}
	if diff := cmp.Diff([]float64{30, 10}, out.CellData["cluster"]); diff != "" {
		t.Errorf("cell data mismatch (-want +got):\n%s", diff)
	}
	if len(out.Lines[0]) != 4 || len(out.Lines[1]) != 3 {
		t.Errorf("Cell lengths changed: %v", out.Lines)
	}

	// Every remapped point keeps its coordinates, scalar and tensor.
	for fi, src := range []int{2, 0} {
		for j, pid := range out.Lines[fi] {
			orig := g.Lines[src][j]
			if out.Points[pid] != g.Points[orig] {
				t.Errorf("point mismatch at fiber %d index %d", fi, j)
			}
			if out.PointData["index"][pid] != g.PointData["index"][orig] {
				t.Errorf("scalar mismatch at fiber %d index %d", fi, j)
			}
			if out.Tensors[pid] != g.Tensors[orig] {
				t.Errorf("tensor mismatch at fiber %d index %d", fi, j)
			}
		}
	}

	// The source is untouched.
	if g.NumberOfFibers() != 3 || g.NumberOfPoints() != 9 {
		t.Errorf("source geometry was modified")
	}
}

func TestRemoveLines(t *testing.T) {
	g := createTestGeometry()
	out := g.RemoveLines([]int{1}).RemoveUnusedPoints()

	if out.NumberOfFibers() != 2 {
		t.Fatalf("Expected 2 fibers, got %d", out.NumberOfFibers())
	}
	if diff := cmp.Diff([]float64{10, 30}, out.CellData["cluster"]); diff != "" {
		t.Errorf("cell data mismatch (-want +got):\n%s", diff)
	}
	if out.NumberOfPoints() != 7 {
		t.Errorf("Expected 7 points, got %d", out.NumberOfPoints())
	}
}

func TestRemoveUnusedPointsOutOfRangeIDs(t *testing.T) {
	g := NewGeometry()
	g.Points = []r3.Vec{{X: 0}, {X: 1}, {X: 2}}
	g.Lines = [][]int{{0, 7, 2}, {-3, 2}}

	out := g.RemoveUnusedPoints()

	if out.NumberOfPoints() != 2 {
		t.Fatalf("Expected 2 points, got %d", out.NumberOfPoints())
	}
	if diff := cmp.Diff([][]int{{0, -1, 1}, {-1, 1}}, out.Lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestShallowCopyOwnsMaps(t *testing.T) {
	g := createTestGeometry()
	c := g.ShallowCopy()
	c.PointData["extra"] = []float64{1}
	if _, ok := g.PointData["extra"]; ok {
		t.Errorf("ShallowCopy shares the point data map")
	}
}

func TestDeepCopyIsIndependent(t *testing.T) {
	g := createTestGeometry()
	c := g.DeepCopy()
	c.PointData["index"][0] = 99
	c.Lines[0][0] = 5
	if g.PointData["index"][0] != 0 || g.Lines[0][0] != 0 {
		t.Errorf("DeepCopy shares storage with the source")
	}
}

func TestCellNumbering(t *testing.T) {
	g := NewGeometry()
	g.Points = make([]r3.Vec, 6)
	g.Lines = [][]int{{0, 1}}
	g.Polys = [][]int{{1, 2, 3}}
	g.Strips = [][]int{{2, 3, 4, 5}}

	if g.NumberOfCells() != 3 {
		t.Fatalf("Expected 3 cells, got %d", g.NumberOfCells())
	}
	if diff := cmp.Diff([]int{2, 3, 4, 5}, g.Cell(2)); diff != "" {
		t.Errorf("strip cell mismatch (-want +got):\n%s", diff)
	}
	if g.Cell(3) != nil {
		t.Errorf("Expected nil for out-of-range cell")
	}
}

func TestFiberLengthAndBounds(t *testing.T) {
	g := createTestGeometry()
	if l := g.FiberLength(2); l != 3 {
		t.Errorf("Expected length 3, got %f", l)
	}
	lo, hi := g.Bounds()
	if lo != (r3.Vec{}) || hi != (r3.Vec{X: 5, Y: 2}) {
		t.Errorf("Unexpected bounds %v %v", lo, hi)
	}
	owners := g.PointFibers()
	if owners[4] != 1 || owners[8] != 2 {
		t.Errorf("Unexpected point owners %v", owners)
	}
}

func TestTriangles(t *testing.T) {
	g := NewGeometry()
	g.Points = make([]r3.Vec, 6)
	g.Lines = [][]int{{0, 1}}
	g.Polys = [][]int{{0, 1, 2, 3}}
	g.Strips = [][]int{{0, 1, 2, 3, 3, 4}}

	tris, cells := g.Triangles()
	// The strip's {2, 3, 3} and {3, 3, 4} are degenerate and dropped.
	want := [][3]int{
		{0, 1, 2}, {0, 2, 3},
		{0, 1, 2}, {1, 3, 2},
	}
	if diff := cmp.Diff(want, tris); diff != "" {
		t.Errorf("triangles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 1, 2, 2}, cells); diff != "" {
		t.Errorf("cells mismatch (-want +got):\n%s", diff)
	}
}
