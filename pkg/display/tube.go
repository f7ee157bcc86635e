package display

import (
	"fibertracts/internal/models"
	"fibertracts/pkg/scene"
)

// Tube defaults.
const (
	DefaultTubeRadius = 0.5
	DefaultTubeSides  = 6
)

// Tube draws each fiber as a swept polygonal tube.
type Tube struct {
	base
	radius float64
	sides  int
}

// NewTube creates a tube representation reading from src.
func NewTube(id string, src Source, props *Properties) *Tube {
	t := &Tube{
		base:   newBase(id, KindTube, src, props, Solid),
		radius: DefaultTubeRadius,
		sides:  DefaultTubeSides,
	}
	t.compute = t.build
	return t
}

// TubeRadius returns the tube radius.
func (t *Tube) TubeRadius() float64 { return t.radius }

// SetTubeRadius sets the tube radius. Negative values become zero.
func (t *Tube) SetTubeRadius(r float64) {
	r = max(r, 0)
	if r != t.radius {
		t.radius = r
		t.mod.Modify()
	}
}

// TubeSides returns the cross-section side count.
func (t *Tube) TubeSides() int { return t.sides }

// SetTubeSides sets the cross-section side count, at least three.
func (t *Tube) SetTubeSides(n int) {
	n = max(n, 3)
	if n != t.sides {
		t.sides = n
		t.mod.Modify()
	}
}

func (t *Tube) build(in *models.Geometry) result {
	colored, effective := t.colorLines(in)
	invariant := t.invariantScalars(in, effective)
	lo, hi := t.scalarRange(colored, effective, invariant)
	colored = t.highlightLines(colored, hi)
	tubes := TubeFilter{Radius: t.radius, Sides: t.sides}.Apply(colored)
	return result{
		geom:      tubes,
		lo:        lo,
		hi:        hi,
		lut:       t.effectiveLUT(effective, invariant),
		effective: effective,
		sides:     t.sides,
	}
}

// MapPrimitiveToFiber divides the strip index by the side count the current
// output was built with.
func (t *Tube) MapPrimitiveToFiber(primitive int) (int, bool) {
	r := t.pull()
	if primitive < 0 || primitive >= r.geom.NumberOfCells() || r.sides == 0 {
		return 0, false
	}
	return primitive / r.sides, true
}

// Attributes implements scene.Node.
func (t *Tube) Attributes() scene.Attributes {
	a := t.baseAttributes()
	a.SetFloat("TubeRadius", t.radius)
	a.SetInt("TubeNumberOfSides", t.sides)
	return a
}

// SetAttributes implements scene.Node.
func (t *Tube) SetAttributes(a scene.Attributes) error {
	if err := t.setBaseAttributes(a); err != nil {
		return err
	}
	r, err := a.Float("TubeRadius", t.radius)
	if err != nil {
		return err
	}
	n, err := a.Int("TubeNumberOfSides", t.sides)
	if err != nil {
		return err
	}
	t.SetTubeRadius(r)
	t.SetTubeSides(n)
	return nil
}
