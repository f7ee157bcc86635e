// Package display turns the active geometry of a fiber set into coloured
// renderable geometry. Line, Tube and Glyph representations share one colour
// mode state machine and differ in how they build their output and how a
// picked primitive maps back to a fiber.
package display

import (
	"errors"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"fibertracts/internal/models"
	"fibertracts/pkg/colorize"
	"fibertracts/pkg/logging"
	"fibertracts/pkg/lut"
	"fibertracts/pkg/pipeline"
	"fibertracts/pkg/scene"
	"fibertracts/pkg/tensor"
)

// ErrUnsupportedColorMode is returned when a representation cannot use a mode.
var ErrUnsupportedColorMode = errors.New("display: color mode not supported by representation")

// DefaultTensorName is the name under which the per-point tensors are exposed.
const DefaultTensorName = "tensors"

// SelectionScalarsName is the point array a fiber set creates to hold
// selection highlights when it has no active scalars of its own.
const SelectionScalarsName = "Selection"

// Source is the upstream a representation reads from. Representations never
// modify the geometry they receive.
type Source interface {
	// ActiveGeometry returns the current filtered tract set and its stamp.
	ActiveGeometry() (*models.Geometry, pipeline.Stamp)

	// ActiveFiberID maps a cell of the active geometry to its original fiber id.
	ActiveFiberID(cell int) (int, bool)

	// IsSelected reports whether an original fiber id is selected.
	IsSelected(fiberID int) bool
}

// Representation is the behaviour shared by the Line, Tube and Glyph variants.
type Representation interface {
	scene.Node

	// Kind reports the variant.
	Kind() Kind

	// RenderableGeometry returns the coloured output, recomputing it only
	// when an upstream stage or a parameter changed.
	RenderableGeometry() *models.Geometry

	ColorMode() ColorMode
	SetColorMode(ColorMode) error

	// ScalarRange returns the range the lookup table spans.
	ScalarRange() (lo, hi float64)

	// LookupTable names the colour table in effect.
	LookupTable() string

	// MapPrimitiveToFiber maps a picked output cell to a cell of the active
	// geometry.
	MapPrimitiveToFiber(primitive int) (activeCell int, ok bool)

	Visible() bool

	sealed()
}

type result struct {
	geom      *models.Geometry
	lo, hi    float64
	lut       string
	effective ColorMode

	// sides is the tube side count the output was built with.
	sides int

	// cellFibers maps each output cell to an active geometry cell (glyphs).
	cellFibers []int
}

type base struct {
	id     string
	kind   Kind
	source Source
	props  *Properties

	mode             ColorMode
	activeScalarName string
	tensorName       string
	lut              string
	autoRange        bool
	rangeLo, rangeHi float64
	visible          bool
	twoD             bool

	mod     pipeline.Modified
	memo    pipeline.Memo[result]
	compute func(in *models.Geometry) result
}

func newBase(id string, kind Kind, src Source, props *Properties, mode ColorMode) base {
	if props == nil {
		props = NewProperties(id + "/properties")
	}
	b := base{
		id:         id,
		kind:       kind,
		source:     src,
		props:      props,
		mode:       mode,
		tensorName: DefaultTensorName,
		lut:        lut.Rainbow,
		autoRange:  true,
		rangeHi:    1,
		visible:    true,
	}
	if mode.IsOrientation() {
		b.lut = lut.FullRainbow
	}
	b.mod.Modify()
	return b
}

func (b *base) sealed() {}

// ID implements scene.Node.
func (b *base) ID() string { return b.id }

// Kind reports the variant.
func (b *base) Kind() Kind { return b.kind }

// NodeKind implements scene.Node.
func (b *base) NodeKind() string { return "FiberBundle" + b.kind.String() + "DisplayNode" }

// ColorMode returns the requested colour mode.
func (b *base) ColorMode() ColorMode { return b.mode }

// SetColorMode switches the colour mode. Orientation modes select the full
// hue lookup table.
func (b *base) SetColorMode(m ColorMode) error {
	if !b.kind.Supports(m) {
		return ErrUnsupportedColorMode
	}
	if m == b.mode {
		return nil
	}
	b.mode = m
	if m.IsOrientation() {
		b.lut = lut.FullRainbow
	}
	b.mod.Modify()
	return nil
}

// Properties returns the tensor display properties in use.
func (b *base) Properties() *Properties { return b.props }

// SetProperties attaches tensor display properties. nil restores defaults.
func (b *base) SetProperties(p *Properties) {
	if p == nil {
		p = NewProperties(b.id + "/properties")
	}
	b.props = p
	b.mod.Modify()
}

// NodeRemoved implements scene.RemovalObserver: losing the properties node
// reverts to default properties.
func (b *base) NodeRemoved(id string) {
	if b.props != nil && b.props.ID() == id {
		logging.For("display").WithField("node", id).Warn("tensor display properties removed, reverting to defaults")
		b.SetProperties(nil)
	}
}

// ActiveScalarName returns the array used by UseCellScalars and ExternalScalarData.
func (b *base) ActiveScalarName() string { return b.activeScalarName }

// SetActiveScalarName selects the array used by UseCellScalars and ExternalScalarData.
func (b *base) SetActiveScalarName(name string) {
	if b.activeScalarName != name {
		b.activeScalarName = name
		b.mod.Modify()
	}
}

// SetLookupTable selects the colour table for non-orientation modes.
func (b *base) SetLookupTable(name string) {
	if b.lut != name {
		b.lut = name
		b.mod.Modify()
	}
}

// SetAutoScalarRange toggles automatic range computation.
func (b *base) SetAutoScalarRange(auto bool) {
	if b.autoRange != auto {
		b.autoRange = auto
		b.mod.Modify()
	}
}

// SetScalarRange sets a manual range and disables automatic ranging.
func (b *base) SetScalarRange(lo, hi float64) {
	if lo > hi {
		lo, hi = hi, lo
	}
	b.rangeLo, b.rangeHi = lo, hi
	b.autoRange = false
	b.mod.Modify()
}

// Visible reports 3D visibility.
func (b *base) Visible() bool { return b.visible }

// SetVisible sets 3D visibility.
func (b *base) SetVisible(v bool) { b.visible = v }

// TwoDimensionalVisibility reports slice-view visibility.
func (b *base) TwoDimensionalVisibility() bool { return b.twoD }

// SetTwoDimensionalVisibility sets slice-view visibility.
func (b *base) SetTwoDimensionalVisibility(v bool) { b.twoD = v }

// RenderableGeometry implements Representation.
func (b *base) RenderableGeometry() *models.Geometry {
	return b.pull().geom
}

// ScalarRange implements Representation.
func (b *base) ScalarRange() (lo, hi float64) {
	r := b.pull()
	return r.lo, r.hi
}

// LookupTable implements Representation.
func (b *base) LookupTable() string {
	return b.pull().lut
}

func (b *base) pull() result {
	in, stamp := b.source.ActiveGeometry()
	upstream := pipeline.Newest(stamp, b.mod.MTime(), b.props.MTime())
	r, _ := b.memo.Get(upstream, func() result {
		if in == nil {
			in = models.NewGeometry()
		}
		r := b.compute(in)
		logging.For("display").WithFields(logrus.Fields{
			"representation": b.id,
			"mode":           r.effective.String(),
			"cells":          r.geom.NumberOfCells(),
		}).Debug("recomputed renderable geometry")
		return r
	})
	return r
}

// colorLines applies the colour mode to polyline geometry and reports the
// mode that was actually used after fallbacks.
func (b *base) colorLines(in *models.Geometry) (*models.Geometry, ColorMode) {
	inv := b.props.ColorInvariant()

	switch b.mode {
	case ScalarInvariant:
		return colorize.TensorMapper{ExtractScalar: true, Invariant: inv}.Apply(in), ScalarInvariant

	case FunctionOfScalarAlongTract:
		extract := b.extractAlongTract(in)
		return colorize.TensorMapper{ExtractScalar: extract, Invariant: inv}.Apply(in), FunctionOfScalarAlongTract

	case UseCellScalars:
		name := b.cellScalarName(in)
		if name == "" {
			return colorize.OrientationColorizer{Mode: colorize.PerSegment}.Apply(in), PerSegmentFiberOrientation
		}
		return broadcastCellScalars(in, name), UseCellScalars

	case ExternalScalarData:
		if _, ok := in.PointData[b.activeScalarName]; ok {
			out := in.ShallowCopy()
			out.ActiveScalars = b.activeScalarName
			return out, ExternalScalarData
		}
		logging.For("display").WithField("array", b.activeScalarName).Warn("external scalar array missing, drawing solid")

	case MeanFiberOrientation:
		return colorize.OrientationColorizer{Mode: colorize.MeanFiber}.Apply(in), MeanFiberOrientation

	case PerSegmentFiberOrientation:
		return colorize.OrientationColorizer{Mode: colorize.PerSegment}.Apply(in), PerSegmentFiberOrientation
	}

	out := in.ShallowCopy()
	out.ActiveScalars = ""
	return out, Solid
}

// extractAlongTract reports whether FunctionOfScalarAlongTract falls back to
// the tensor invariant. That happens when the set carries no scalar of its
// own; the selection highlight array does not count as one.
func (b *base) extractAlongTract(in *models.Geometry) bool {
	return len(in.ActivePointScalars()) == 0 || in.ActiveScalars == SelectionScalarsName
}

// invariantScalars reports whether the output scalars of a line colour mode
// are values of the colour invariant.
func (b *base) invariantScalars(in *models.Geometry, effective ColorMode) bool {
	switch effective {
	case ScalarInvariant:
		return true
	case FunctionOfScalarAlongTract:
		return b.extractAlongTract(in)
	}
	return false
}

// cellScalarName returns the cell array to colour by, or "" when the
// configured array is missing or collides with the orientation output.
func (b *base) cellScalarName(in *models.Geometry) string {
	name := b.activeScalarName
	if name == "" {
		names := make([]string, 0, len(in.CellData))
		for k := range in.CellData {
			if k != colorize.OrientationScalarsName {
				names = append(names, k)
			}
		}
		sort.Strings(names)
		if len(names) > 0 {
			name = names[0]
		}
	}
	if name == colorize.OrientationScalarsName {
		return ""
	}
	if _, ok := in.CellData[name]; !ok {
		return ""
	}
	return name
}

// broadcastCellScalars copies a line cell array onto the points of each line.
func broadcastCellScalars(in *models.Geometry, name string) *models.Geometry {
	out := in.ShallowCopy()
	cells := in.CellData[name]
	vals := make([]float64, len(in.Points))
	for i, line := range in.Lines {
		if i >= len(cells) {
			break
		}
		for _, pid := range line {
			vals[pid] = cells[i]
		}
	}
	out.PointData[name] = vals
	out.ActiveScalars = name
	return out
}

// scalarRange resolves the lookup table range for an output. invariant
// reports whether the output scalars are values of the colour invariant.
func (b *base) scalarRange(g *models.Geometry, effective ColorMode, invariant bool) (lo, hi float64) {
	if !b.autoRange {
		return b.rangeLo, b.rangeHi
	}
	switch {
	case effective.IsOrientation():
		return 0, tensor.HueIndexMax
	case invariant:
		if lo, hi, ok := b.props.ColorInvariant().KnownRange(); ok {
			return lo, hi
		}
	case effective == Solid:
		return 0, 1
	}
	arr := g.ActivePointScalars()
	if len(arr) == 0 {
		return 0, 1
	}
	return floats.Min(arr), floats.Max(arr)
}

// effectiveLUT returns the lookup table for an output mode.
func (b *base) effectiveLUT(effective ColorMode, invariant bool) string {
	if effective.IsOrientation() || (invariant && b.props.ColorInvariant() == tensor.Orientation) {
		return lut.FullRainbow
	}
	return b.lut
}

// highlightLines overwrites the active scalars of selected fibers with hi,
// on a private copy of the array.
func (b *base) highlightLines(g *models.Geometry, hi float64) *models.Geometry {
	arr := g.ActivePointScalars()
	if arr == nil {
		return g
	}
	var out []float64
	for cell, line := range g.Lines {
		fid, ok := b.source.ActiveFiberID(cell)
		if !ok || !b.source.IsSelected(fid) {
			continue
		}
		if out == nil {
			out = append([]float64(nil), arr...)
		}
		for _, pid := range line {
			out[pid] = hi
		}
	}
	if out == nil {
		return g
	}
	g.PointData[g.ActiveScalars] = out
	return g
}

func (b *base) baseAttributes() scene.Attributes {
	a := scene.Attributes{
		"ColorMode":        b.mode.String(),
		"ActiveTensorName": b.tensorName,
		"ActiveScalarName": b.activeScalarName,
		"LookupTable":      b.lut,
		"PropertiesNodeID": b.props.ID(),
	}
	a.SetBool("Visibility", b.visible)
	a.SetBool("TwoDimensionalVisibility", b.twoD)
	a.SetBool("AutoScalarRange", b.autoRange)
	a.SetFloat("ScalarRangeMin", b.rangeLo)
	a.SetFloat("ScalarRangeMax", b.rangeHi)
	return a
}

func (b *base) setBaseAttributes(a scene.Attributes) error {
	if v, ok := a["ColorMode"]; ok {
		m, err := ParseColorMode(v)
		if err != nil {
			return err
		}
		if err := b.SetColorMode(m); err != nil {
			return err
		}
	}
	if v, ok := a["ActiveTensorName"]; ok && v != "" {
		b.tensorName = v
	}
	if v, ok := a["ActiveScalarName"]; ok {
		b.SetActiveScalarName(v)
	}
	if v, ok := a["LookupTable"]; ok && v != "" {
		b.SetLookupTable(v)
	}
	vis, err := a.Bool("Visibility", b.visible)
	if err != nil {
		return err
	}
	b.visible = vis
	twoD, err := a.Bool("TwoDimensionalVisibility", b.twoD)
	if err != nil {
		return err
	}
	b.twoD = twoD
	lo, err := a.Float("ScalarRangeMin", b.rangeLo)
	if err != nil {
		return err
	}
	hi, err := a.Float("ScalarRangeMax", b.rangeHi)
	if err != nil {
		return err
	}
	auto, err := a.Bool("AutoScalarRange", b.autoRange)
	if err != nil {
		return err
	}
	if auto {
		b.rangeLo, b.rangeHi = lo, hi
		b.SetAutoScalarRange(true)
	} else {
		b.SetScalarRange(lo, hi)
	}
	return nil
}

// ActiveTensorName returns the persisted tensor array name.
func (b *base) ActiveTensorName() string { return b.tensorName }
