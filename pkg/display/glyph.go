package display

import (
	"fibertracts/internal/models"
	"fibertracts/pkg/glyph"
	"fibertracts/pkg/scene"
	"fibertracts/pkg/xform"
)

// Glyph draws a tensor glyph at sampled points of each fiber.
type Glyph struct {
	base
	position *xform.Affine
	rotation *xform.Mat3
}

// NewGlyph creates a glyph representation reading from src.
func NewGlyph(id string, src Source, props *Properties) *Glyph {
	g := &Glyph{base: newBase(id, KindGlyph, src, props, ScalarInvariant)}
	g.compute = g.build
	return g
}

// SetPositionTransform maps glyph centres, e.g. from voxel to world space.
// nil clears it.
func (g *Glyph) SetPositionTransform(a *xform.Affine) {
	g.position = a
	g.mod.Modify()
}

// SetRotationTransform rotates glyph frames, e.g. from the measurement frame.
// nil clears it.
func (g *Glyph) SetRotationTransform(m *xform.Mat3) {
	g.rotation = m
	g.mod.Modify()
}

func (g *Glyph) build(in *models.Geometry) result {
	params := g.props.GlyphParams()
	params.PositionTransform = g.position
	params.RotationTransform = g.rotation

	input := in
	effective := g.mode
	if g.mode == UseCellScalars {
		if name := g.cellScalarName(in); name != "" {
			input = broadcastCellScalars(in, name)
			params.ColorByInputScalars = true
		} else {
			effective = ScalarInvariant
		}
	}

	out := glyph.NewGenerator(params).Generate(input)
	if effective == Solid {
		out.ActiveScalars = ""
	}

	pointFibers := in.PointFibers()
	owners := out.CellData[glyph.InputPointIdsName]
	cellFibers := make([]int, len(owners))
	for c, o := range owners {
		cellFibers[c] = -1
		if pid := int(o); pid >= 0 && pid < len(pointFibers) {
			cellFibers[c] = pointFibers[pid]
		}
	}

	invariant := effective == ScalarInvariant
	lo, hi := g.scalarRange(out, effective, invariant)
	g.highlightGlyphs(out, cellFibers, hi)
	return result{
		geom:       out,
		lo:         lo,
		hi:         hi,
		lut:        g.effectiveLUT(effective, invariant),
		effective:  effective,
		cellFibers: cellFibers,
	}
}

// highlightGlyphs paints the glyphs of selected fibers with hi. out is owned
// by the caller, so its array is written in place.
func (g *Glyph) highlightGlyphs(out *models.Geometry, cellFibers []int, hi float64) {
	arr := out.ActivePointScalars()
	if arr == nil {
		return
	}
	for c, cell := range cellFibers {
		if cell < 0 {
			continue
		}
		fid, ok := g.source.ActiveFiberID(cell)
		if !ok || !g.source.IsSelected(fid) {
			continue
		}
		for _, pid := range out.Cell(c) {
			arr[pid] = hi
		}
	}
}

// MapPrimitiveToFiber resolves a glyph cell to the fiber its input point
// belongs to.
func (g *Glyph) MapPrimitiveToFiber(primitive int) (int, bool) {
	r := g.pull()
	if primitive < 0 || primitive >= len(r.cellFibers) || r.cellFibers[primitive] < 0 {
		return 0, false
	}
	return r.cellFibers[primitive], true
}

// Attributes implements scene.Node.
func (g *Glyph) Attributes() scene.Attributes {
	return g.baseAttributes()
}

// SetAttributes implements scene.Node.
func (g *Glyph) SetAttributes(a scene.Attributes) error {
	return g.setBaseAttributes(a)
}
