package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"fibertracts/internal/models"
	"fibertracts/pkg/colorize"
	"fibertracts/pkg/glyph"
	"fibertracts/pkg/lut"
	"fibertracts/pkg/pipeline"
	"fibertracts/pkg/tensor"
)

type fakeSource struct {
	g        *models.Geometry
	stamp    pipeline.Stamp
	selected map[int]bool
}

func newFakeSource(g *models.Geometry) *fakeSource {
	return &fakeSource{g: g, stamp: pipeline.Tick(), selected: map[int]bool{}}
}

func (f *fakeSource) ActiveGeometry() (*models.Geometry, pipeline.Stamp) { return f.g, f.stamp }

func (f *fakeSource) ActiveFiberID(cell int) (int, bool) {
	return cell, cell >= 0 && cell < len(f.g.Lines)
}

func (f *fakeSource) IsSelected(id int) bool { return f.selected[id] }

func (f *fakeSource) touch() { f.stamp = pipeline.Tick() }

// twoFibers returns a fiber along x and a fiber along y, three points each,
// with prolate tensors and a ClusterId cell array.
func twoFibers() *models.Geometry {
	g := models.NewGeometry()
	g.Points = []r3.Vec{
		{X: 0}, {X: 1}, {X: 2},
		{Y: 1}, {Y: 2}, {Y: 3},
	}
	g.Lines = [][]int{{0, 1, 2}, {3, 4, 5}}
	for i := 0; i < 3; i++ {
		g.Tensors = append(g.Tensors, tensor.Diagonal(3, 1, 1))
	}
	for i := 0; i < 3; i++ {
		g.Tensors = append(g.Tensors, tensor.Diagonal(1, 3, 1))
	}
	g.CellData["ClusterId"] = []float64{1, 2}
	return g
}

func TestLineSolidByDefault(t *testing.T) {
	l := NewLine("line", newFakeSource(twoFibers()), nil)

	out := l.RenderableGeometry()
	assert.Equal(t, Solid, l.ColorMode())
	assert.Equal(t, "", out.ActiveScalars)
	assert.Equal(t, 2, out.NumberOfCells())
	lo, hi := l.ScalarRange()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
}

func TestScalarInvariantUsesKnownRange(t *testing.T) {
	in := twoFibers()
	l := NewLine("line", newFakeSource(in), nil)
	require.NoError(t, l.SetColorMode(ScalarInvariant))

	out := l.RenderableGeometry()
	assert.Equal(t, colorize.TensorScalarsName, out.ActiveScalars)
	assert.Len(t, out.ActivePointScalars(), 6)
	lo, hi := l.ScalarRange()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)

	_, touched := in.PointData[colorize.TensorScalarsName]
	assert.False(t, touched, "input geometry must not be modified")
}

func TestGlyphRejectsOrientationModes(t *testing.T) {
	g := NewGlyph("glyph", newFakeSource(twoFibers()), nil)

	for _, m := range []ColorMode{MeanFiberOrientation, PerSegmentFiberOrientation, FunctionOfScalarAlongTract, ExternalScalarData} {
		assert.ErrorIs(t, g.SetColorMode(m), ErrUnsupportedColorMode, m.String())
	}
	assert.Equal(t, ScalarInvariant, g.ColorMode())
	assert.NoError(t, g.SetColorMode(Solid))
	assert.NoError(t, g.SetColorMode(UseCellScalars))
}

func TestOrientationSelectsFullRainbow(t *testing.T) {
	l := NewLine("line", newFakeSource(twoFibers()), nil)
	require.NoError(t, l.SetColorMode(MeanFiberOrientation))

	assert.Equal(t, lut.FullRainbow, l.LookupTable())
	lo, hi := l.ScalarRange()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, float64(tensor.HueIndexMax), hi)
	assert.Equal(t, colorize.OrientationScalarsName, l.RenderableGeometry().ActiveScalars)
}

func TestOrientationInvariantSelectsFullRainbow(t *testing.T) {
	props := NewProperties("props")
	g := NewGlyph("glyph", newFakeSource(twoFibers()), props)
	assert.Equal(t, lut.Rainbow, g.LookupTable())

	props.SetColorInvariant(tensor.Orientation)
	assert.Equal(t, lut.FullRainbow, g.LookupTable())
	lo, hi := g.ScalarRange()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, tensor.HueIndexMax, hi)

	l := NewLine("line", newFakeSource(twoFibers()), props)
	require.NoError(t, l.SetColorMode(FunctionOfScalarAlongTract))
	assert.Equal(t, lut.FullRainbow, l.LookupTable(), "invariant extracted along the tract")
}

func TestUseCellScalars(t *testing.T) {
	l := NewLine("line", newFakeSource(twoFibers()), nil)
	l.SetActiveScalarName("ClusterId")
	require.NoError(t, l.SetColorMode(UseCellScalars))

	out := l.RenderableGeometry()
	assert.Equal(t, []float64{1, 1, 1, 2, 2, 2}, out.ActivePointScalars())
	lo, hi := l.ScalarRange()
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 2.0, hi)
}

func TestUseCellScalarsCollisionFallsBack(t *testing.T) {
	in := twoFibers()
	in.CellData[colorize.OrientationScalarsName] = []float64{7, 7}
	l := NewLine("line", newFakeSource(in), nil)
	l.SetActiveScalarName(colorize.OrientationScalarsName)
	require.NoError(t, l.SetColorMode(UseCellScalars))

	out := l.RenderableGeometry()
	assert.Equal(t, colorize.OrientationScalarsName, out.ActiveScalars)
	assert.NotContains(t, out.ActivePointScalars(), 7.0)
	assert.Equal(t, lut.FullRainbow, l.LookupTable())
	assert.Equal(t, UseCellScalars, l.ColorMode(), "requested mode is kept")
}

func TestRenderableGeometryIsCached(t *testing.T) {
	src := newFakeSource(twoFibers())
	l := NewLine("line", src, nil)

	first := l.RenderableGeometry()
	assert.Same(t, first, l.RenderableGeometry())

	src.touch()
	assert.NotSame(t, first, l.RenderableGeometry())

	again := l.RenderableGeometry()
	l.Properties().SetColorInvariant(tensor.RelativeAnisotropy)
	assert.NotSame(t, again, l.RenderableGeometry())
}

func TestSelectedFibersAreHighlighted(t *testing.T) {
	src := newFakeSource(twoFibers())
	src.selected[1] = true
	l := NewLine("line", src, nil)
	require.NoError(t, l.SetColorMode(ScalarInvariant))

	scalars := l.RenderableGeometry().ActivePointScalars()
	_, hi := l.ScalarRange()
	for _, pid := range []int{3, 4, 5} {
		assert.Equal(t, hi, scalars[pid])
	}
	assert.Less(t, scalars[0], hi)
}

func TestTubeMapping(t *testing.T) {
	tube := NewTube("tube", newFakeSource(twoFibers()), nil)

	out := tube.RenderableGeometry()
	assert.Len(t, out.Strips, 2*DefaultTubeSides)
	for p := 0; p < 2*DefaultTubeSides; p++ {
		fiber, ok := tube.MapPrimitiveToFiber(p)
		require.True(t, ok)
		assert.Equal(t, p/DefaultTubeSides, fiber)
	}
	_, ok := tube.MapPrimitiveToFiber(2 * DefaultTubeSides)
	assert.False(t, ok)

	tube.SetTubeSides(1)
	assert.Equal(t, 3, tube.TubeSides())
	fiber, ok := tube.MapPrimitiveToFiber(4)
	require.True(t, ok)
	assert.Equal(t, 1, fiber)

	tube.SetTubeRadius(-2)
	assert.Equal(t, 0.0, tube.TubeRadius())
}

func TestTubeFilterRadius(t *testing.T) {
	out := TubeFilter{Radius: 0.25, Sides: 8}.Apply(twoFibers())

	in := twoFibers()
	assert.Len(t, out.Points, 6*8)
	for i, p := range out.Points {
		centre := in.Points[i/8]
		assert.InDelta(t, 0.25, r3.Norm(r3.Sub(p, centre)), 1e-9)
	}
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2, 2, 2}, out.CellData["ClusterId"])
}

func TestGlyphMapping(t *testing.T) {
	g := NewGlyph("glyph", newFakeSource(twoFibers()), nil)

	out := g.RenderableGeometry()
	require.Len(t, out.Lines, 6)
	for p := 0; p < 6; p++ {
		fiber, ok := g.MapPrimitiveToFiber(p)
		require.True(t, ok)
		assert.Equal(t, p/3, fiber)
	}
	_, ok := g.MapPrimitiveToFiber(6)
	assert.False(t, ok)
	assert.Equal(t, glyph.ScalarsName, out.ActiveScalars)
}

func TestRemovedPropertiesRevertToDefaults(t *testing.T) {
	props := NewProperties("props")
	props.SetColorInvariant(tensor.Trace)
	l := NewLine("line", newFakeSource(twoFibers()), props)

	l.NodeRemoved("unrelated")
	assert.Same(t, props, l.Properties())

	l.NodeRemoved("props")
	assert.NotSame(t, props, l.Properties())
	assert.Equal(t, tensor.FractionalAnisotropy, l.Properties().ColorInvariant())
}

func TestTubeAttributesRoundTrip(t *testing.T) {
	src := newFakeSource(twoFibers())
	a := NewTube("tube", src, nil)
	a.SetTubeRadius(2)
	a.SetTubeSides(8)
	a.SetScalarRange(0, 5)
	require.NoError(t, a.SetColorMode(PerSegmentFiberOrientation))

	b := NewTube("tube", src, nil)
	require.NoError(t, b.SetAttributes(a.Attributes()))
	assert.Equal(t, a.Attributes(), b.Attributes())
	assert.Equal(t, 8, b.TubeSides())
	lo, hi := b.ScalarRange()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 5.0, hi)
}
