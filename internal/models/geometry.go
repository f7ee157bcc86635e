// Package models defines the polyline geometry shared by every stage of the
// tract pipeline.
package models

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"fibertracts/pkg/tensor"
)

// Geometry is a set of points plus cells that index into them.
//
// Cells are numbered the way renderers number primitives: all Lines first,
// then Polys, then Strips. CellData arrays are indexed by that cell number and
// PointData arrays by point index. Tensors and Normals are either empty or
// hold exactly one entry per point.
type Geometry struct {
	// Points holds the point coordinates.
	Points []r3.Vec

	// Lines holds polyline cells. For a tract set each line is one fiber.
	Lines [][]int

	// Polys holds polygon cells (glyph faces).
	Polys [][]int

	// Strips holds triangle-strip cells (tube sides).
	Strips [][]int

	// Normals is an optional per-point normal array.
	Normals []r3.Vec

	// Tensors is an optional per-point diffusion tensor array.
	Tensors []tensor.Tensor

	// PointData holds named per-point scalar arrays.
	PointData map[string][]float64

	// CellData holds named per-cell scalar arrays.
	CellData map[string][]float64

	// ActiveScalars names the PointData array used for colouring, if any.
	ActiveScalars string
}

// NewGeometry returns an empty geometry with initialised attribute maps.
func NewGeometry() *Geometry {
	return &Geometry{
		PointData: make(map[string][]float64),
		CellData:  make(map[string][]float64),
	}
}

// NumberOfPoints returns the number of points.
func (g *Geometry) NumberOfPoints() int {
	if g == nil {
		return 0
	}
	return len(g.Points)
}

// NumberOfFibers returns the number of polyline cells.
func (g *Geometry) NumberOfFibers() int {
	if g == nil {
		return 0
	}
	return len(g.Lines)
}

// NumberOfCells returns the total number of cells of every type.
func (g *Geometry) NumberOfCells() int {
	if g == nil {
		return 0
	}
	return len(g.Lines) + len(g.Polys) + len(g.Strips)
}

// Cell returns the point ids of cell i using renderer numbering.
func (g *Geometry) Cell(i int) []int {
	if i < 0 {
		return nil
	}
	if i < len(g.Lines) {
		return g.Lines[i]
	}
	i -= len(g.Lines)
	if i < len(g.Polys) {
		return g.Polys[i]
	}
	i -= len(g.Polys)
	if i < len(g.Strips) {
		return g.Strips[i]
	}
	return nil
}

// HasTensors reports whether every point carries a tensor.
func (g *Geometry) HasTensors() bool {
	return g != nil && len(g.Points) > 0 && len(g.Tensors) == len(g.Points)
}

// ActivePointScalars returns the active point array, or nil.
func (g *Geometry) ActivePointScalars() []float64 {
	if g == nil || g.ActiveScalars == "" {
		return nil
	}
	return g.PointData[g.ActiveScalars]
}

// IsEmpty reports whether the geometry has no cells.
func (g *Geometry) IsEmpty() bool {
	return g.NumberOfCells() == 0
}

// ShallowCopy returns a geometry sharing the point, cell and array slices of g
// but owning fresh attribute maps, so arrays can be added or replaced without
// touching g.
func (g *Geometry) ShallowCopy() *Geometry {
	out := &Geometry{
		Points:        g.Points,
		Lines:         g.Lines,
		Polys:         g.Polys,
		Strips:        g.Strips,
		Normals:       g.Normals,
		Tensors:       g.Tensors,
		PointData:     make(map[string][]float64, len(g.PointData)),
		CellData:      make(map[string][]float64, len(g.CellData)),
		ActiveScalars: g.ActiveScalars,
	}
	for k, v := range g.PointData {
		out.PointData[k] = v
	}
	for k, v := range g.CellData {
		out.CellData[k] = v
	}
	return out
}

// DeepCopy returns an independent copy of g.
func (g *Geometry) DeepCopy() *Geometry {
	out := &Geometry{
		Points:        append([]r3.Vec(nil), g.Points...),
		Lines:         copyCells(g.Lines),
		Polys:         copyCells(g.Polys),
		Strips:        copyCells(g.Strips),
		Normals:       append([]r3.Vec(nil), g.Normals...),
		Tensors:       append([]tensor.Tensor(nil), g.Tensors...),
		PointData:     make(map[string][]float64, len(g.PointData)),
		CellData:      make(map[string][]float64, len(g.CellData)),
		ActiveScalars: g.ActiveScalars,
	}
	for k, v := range g.PointData {
		out.PointData[k] = append([]float64(nil), v...)
	}
	for k, v := range g.CellData {
		out.CellData[k] = append([]float64(nil), v...)
	}
	return out
}

func copyCells(cells [][]int) [][]int {
	if cells == nil {
		return nil
	}
	out := make([][]int, len(cells))
	for i, c := range cells {
		out[i] = append([]int(nil), c...)
	}
	return out
}

// PointFibers returns, for every point, the index of the first line that
// references it, or -1 for points no line uses.
func (g *Geometry) PointFibers() []int {
	owner := make([]int, len(g.Points))
	for i := range owner {
		owner[i] = -1
	}
	for fiber, line := range g.Lines {
		for _, pid := range line {
			if pid >= 0 && pid < len(owner) && owner[pid] < 0 {
				owner[pid] = fiber
			}
		}
	}
	return owner
}

// ExtractLines returns a geometry holding only the lines listed in ids, in
// that order, with their cell data. Points are shared with g and left
// untouched; follow with RemoveUnusedPoints to compact them. Out-of-range ids
// are skipped.
func (g *Geometry) ExtractLines(ids []int) *Geometry {
	out := g.ShallowCopy()
	out.Polys, out.Strips = nil, nil
	out.Lines = make([][]int, 0, len(ids))

	kept := make([]int, 0, len(ids))
	for _, id := range ids {
		if id < 0 || id >= len(g.Lines) {
			continue
		}
		out.Lines = append(out.Lines, g.Lines[id])
		kept = append(kept, id)
	}
	for name, arr := range g.CellData {
		sel := make([]float64, len(kept))
		for i, id := range kept {
			if id < len(arr) {
				sel[i] = arr[id]
			}
		}
		out.CellData[name] = sel
	}
	return out
}

// RemoveLines returns a copy of g without the listed lines. Point arrays are
// not compacted.
func (g *Geometry) RemoveLines(ids []int) *Geometry {
	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	keep := make([]int, 0, len(g.Lines))
	for i := range g.Lines {
		if !drop[i] {
			keep = append(keep, i)
		}
	}
	return g.ExtractLines(keep)
}

// RemoveUnusedPoints returns a copy of g holding only points referenced by a
// cell. Point order is preserved and coincident points are never merged, so
// every cell keeps exactly its original length and type. Out-of-range point
// ids in a cell become -1.
func (g *Geometry) RemoveUnusedPoints() *Geometry {
	used := make([]bool, len(g.Points))
	mark := func(cells [][]int) {
		for _, c := range cells {
			for _, pid := range c {
				if pid >= 0 && pid < len(used) {
					used[pid] = true
				}
			}
		}
	}
	mark(g.Lines)
	mark(g.Polys)
	mark(g.Strips)

	remap := make([]int, len(g.Points))
	kept := make([]int, 0, len(g.Points))
	for pid, u := range used {
		if u {
			remap[pid] = len(kept)
			kept = append(kept, pid)
		} else {
			remap[pid] = -1
		}
	}

	out := &Geometry{
		Points:        make([]r3.Vec, len(kept)),
		PointData:     make(map[string][]float64, len(g.PointData)),
		CellData:      make(map[string][]float64, len(g.CellData)),
		ActiveScalars: g.ActiveScalars,
	}
	for i, pid := range kept {
		out.Points[i] = g.Points[pid]
	}
	if len(g.Normals) == len(g.Points) && len(g.Normals) > 0 {
		out.Normals = make([]r3.Vec, len(kept))
		for i, pid := range kept {
			out.Normals[i] = g.Normals[pid]
		}
	}
	if len(g.Tensors) == len(g.Points) && len(g.Tensors) > 0 {
		out.Tensors = make([]tensor.Tensor, len(kept))
		for i, pid := range kept {
			out.Tensors[i] = g.Tensors[pid]
		}
	}
	for name, arr := range g.PointData {
		sel := make([]float64, len(kept))
		for i, pid := range kept {
			if pid < len(arr) {
				sel[i] = arr[pid]
			}
		}
		out.PointData[name] = sel
	}
	for name, arr := range g.CellData {
		out.CellData[name] = append([]float64(nil), arr...)
	}

	remapCells := func(cells [][]int) [][]int {
		if cells == nil {
			return nil
		}
		res := make([][]int, len(cells))
		for i, c := range cells {
			nc := make([]int, len(c))
			for j, pid := range c {
				nc[j] = -1
				if pid >= 0 && pid < len(remap) {
					nc[j] = remap[pid]
				}
			}
			res[i] = nc
		}
		return res
	}
	out.Lines = remapCells(g.Lines)
	out.Polys = remapCells(g.Polys)
	out.Strips = remapCells(g.Strips)
	return out
}

// Bounds returns the axis-aligned bounding box of the points.
func (g *Geometry) Bounds() (lo, hi r3.Vec) {
	if len(g.Points) == 0 {
		return r3.Vec{}, r3.Vec{}
	}
	lo, hi = g.Points[0], g.Points[0]
	for _, p := range g.Points[1:] {
		lo = r3.Vec{X: min(lo.X, p.X), Y: min(lo.Y, p.Y), Z: min(lo.Z, p.Z)}
		hi = r3.Vec{X: max(hi.X, p.X), Y: max(hi.Y, p.Y), Z: max(hi.Z, p.Z)}
	}
	return lo, hi
}

// FiberLength returns the arc length of line i.
func (g *Geometry) FiberLength(i int) float64 {
	line := g.Lines[i]
	var length float64
	for j := 1; j < len(line); j++ {
		length += r3.Norm(r3.Sub(g.Points[line[j]], g.Points[line[j-1]]))
	}
	return length
}

// ArrayNames returns the sorted names of the point arrays.
func (g *Geometry) ArrayNames() []string {
	names := make([]string, 0, len(g.PointData))
	for k := range g.PointData {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Triangles returns the triangles of the polygon and strip cells together
// with the cell number each came from. Polygons are fanned from their first
// point; strips alternate winding so every triangle faces the same way.
// Degenerate triangles are skipped.
func (g *Geometry) Triangles() (tris [][3]int, cells []int) {
	cell := len(g.Lines)
	for _, p := range g.Polys {
		for j := 1; j+1 < len(p); j++ {
			if t := [3]int{p[0], p[j], p[j+1]}; !degenerate(t) {
				tris = append(tris, t)
				cells = append(cells, cell)
			}
		}
		cell++
	}
	for _, s := range g.Strips {
		for j := 0; j+2 < len(s); j++ {
			t := [3]int{s[j], s[j+1], s[j+2]}
			if j%2 == 1 {
				t[1], t[2] = t[2], t[1]
			}
			if !degenerate(t) {
				tris = append(tris, t)
				cells = append(cells, cell)
			}
		}
		cell++
	}
	return tris, cells
}

func degenerate(t [3]int) bool {
	return t[0] == t[1] || t[1] == t[2] || t[0] == t[2]
}
