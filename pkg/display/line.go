package display

import (
	"fibertracts/internal/models"
	"fibertracts/pkg/scene"
)

// Line draws each fiber as a polyline.
type Line struct {
	base
}

// NewLine creates a line representation reading from src.
func NewLine(id string, src Source, props *Properties) *Line {
	l := &Line{base: newBase(id, KindLine, src, props, Solid)}
	l.compute = l.build
	return l
}

func (l *Line) build(in *models.Geometry) result {
	colored, effective := l.colorLines(in)
	invariant := l.invariantScalars(in, effective)
	lo, hi := l.scalarRange(colored, effective, invariant)
	colored = l.highlightLines(colored, hi)
	return result{geom: colored, lo: lo, hi: hi, lut: l.effectiveLUT(effective, invariant), effective: effective}
}

// MapPrimitiveToFiber returns the primitive itself: line cells and active
// cells are in one-to-one correspondence.
func (l *Line) MapPrimitiveToFiber(primitive int) (int, bool) {
	g := l.RenderableGeometry()
	if primitive < 0 || primitive >= len(g.Lines) {
		return 0, false
	}
	return primitive, true
}

// Attributes implements scene.Node.
func (l *Line) Attributes() scene.Attributes {
	return l.baseAttributes()
}

// SetAttributes implements scene.Node.
func (l *Line) SetAttributes(a scene.Attributes) error {
	return l.setBaseAttributes(a)
}
