package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"fibertracts/internal/models"
	"fibertracts/pkg/display"
	"fibertracts/pkg/fiberset"
)

type fakePicker struct {
	owner string
	prim  int
	ok    bool
	tol   float64
}

func (p *fakePicker) Pick(x, y, tol float64) (string, int, bool) {
	p.tol = tol
	return p.owner, p.prim, p.ok
}

func fibers(n int) *models.Geometry {
	g := models.NewGeometry()
	vals := make([]float64, 0, 2*n)
	for i := 0; i < n; i++ {
		g.Points = append(g.Points, r3.Vec{Y: float64(i)}, r3.Vec{X: 1, Y: float64(i)})
		g.Lines = append(g.Lines, []int{2 * i, 2*i + 1})
		vals = append(vals, -1, -1)
	}
	g.PointData["Value"] = vals
	g.ActiveScalars = "Value"
	return g
}

func newModel(id string, n int) *fiberset.Model {
	m := fiberset.New(id, fiberset.DefaultConfig())
	m.SetGeometry(fibers(n))
	return m
}

func enabledEditor(p Picker, models ...*fiberset.Model) *Editor {
	e := New(p)
	for _, m := range models {
		e.AddModel(m)
	}
	e.SetEnabled(true)
	return e
}

func TestSelectIsGated(t *testing.T) {
	m := newModel("a", 10)
	m.AddLineRepresentation()
	p := &fakePicker{owner: "a/line", prim: 0, ok: true}

	e := New(p)
	e.AddModel(m)
	assert.False(t, e.SelectAt(0, 0), "disabled")

	e.SetEnabled(true)
	e.SetInteractionMode(ModePlace)
	assert.False(t, e.HandleKey("s", 0, 0), "wrong interaction mode")
	assert.Empty(t, m.Selected())

	e.SetInteractionMode(ModeViewTransform)
	assert.True(t, e.HandleKey("s", 0, 0))
	assert.Len(t, m.Selected(), 1)
	assert.Equal(t, DefaultPickTolerance, p.tol)
}

func TestSelectThroughTubeTogglesFiber(t *testing.T) {
	m := newModel("a", 10)
	tube := m.AddTubeRepresentation()
	p := &fakePicker{owner: "a/tube", prim: 3*display.DefaultTubeSides + 2, ok: true}
	e := enabledEditor(p, m)

	want, ok := m.ActiveFiberID(3)
	require.True(t, ok)
	_, hi := tube.ScalarRange()

	require.True(t, e.SelectAt(5, 5))
	assert.Equal(t, []int{want}, m.Selected())
	line := m.Geometry().Lines[want]
	assert.Equal(t, hi, m.Geometry().PointData["Value"][line[0]])

	require.True(t, e.SelectAt(5, 5))
	assert.Empty(t, m.Selected())
	assert.Equal(t, -1.0, m.Geometry().PointData["Value"][line[0]])
}

func TestSelectingOtherModelClearsPrevious(t *testing.T) {
	a := newModel("a", 5)
	a.AddLineRepresentation()
	b := newModel("b", 5)
	b.AddLineRepresentation()
	p := &fakePicker{owner: "a/line", prim: 1, ok: true}
	e := enabledEditor(p, a, b)

	require.True(t, e.SelectAt(0, 0))
	p.prim = 2
	require.True(t, e.SelectAt(0, 0))
	assert.Len(t, a.Selected(), 2)

	p.owner, p.prim = "b/line", 0
	require.True(t, e.SelectAt(0, 0))
	assert.Empty(t, a.Selected())
	assert.Len(t, b.Selected(), 1)
}

func TestDeleteAt(t *testing.T) {
	m := newModel("a", 10)
	m.AddLineRepresentation()
	p := &fakePicker{owner: "a/line", prim: 4, ok: true}
	e := enabledEditor(p, m)

	target, _ := m.ActiveFiberID(4)
	targetY := m.Geometry().Points[m.Geometry().Lines[target][0]].Y

	require.True(t, e.HandleKey("d", 0, 0))
	g, _ := m.ActiveGeometry()
	assert.Equal(t, 9, g.NumberOfFibers())
	for _, line := range g.Lines {
		assert.NotEqual(t, targetY, g.Points[line[0]].Y)
	}
}

func TestUnresolvablePicksAreNoOps(t *testing.T) {
	m := newModel("a", 3)
	m.AddLineRepresentation()
	p := &fakePicker{}
	e := enabledEditor(p, m)

	assert.False(t, e.SelectAt(0, 0), "nothing under cursor")

	p.owner, p.prim, p.ok = "someone/else", 0, true
	assert.False(t, e.SelectAt(0, 0), "unknown owner")

	p.owner, p.prim = "a/line", 99
	assert.False(t, e.SelectAt(0, 0), "primitive out of range")
	assert.False(t, e.DeleteAt(0, 0))

	assert.Empty(t, m.Selected())
	assert.Equal(t, 3, m.NumberOfFibers())
}

func TestClearSelection(t *testing.T) {
	m := newModel("a", 4)
	m.AddLineRepresentation()
	p := &fakePicker{owner: "a/line", prim: 0, ok: true}
	e := enabledEditor(p, m)

	require.True(t, e.SelectAt(0, 0))
	p.prim = 1
	require.True(t, e.SelectAt(0, 0))

	assert.True(t, e.HandleKey("c", 0, 0))
	assert.Empty(t, m.Selected())
	assert.False(t, e.HandleKey("c", 0, 0), "nothing left to clear")
	assert.False(t, e.HandleKey("x", 0, 0), "unbound key")
}

func TestCustomKeys(t *testing.T) {
	m := newModel("a", 2)
	m.AddLineRepresentation()
	e := enabledEditor(&fakePicker{owner: "a/line", prim: 0, ok: true}, m)
	e.SetKeys(Keys{Select: "space", Delete: "Delete", Clear: "Escape"})

	assert.False(t, e.HandleKey("s", 0, 0))
	assert.True(t, e.HandleKey("space", 0, 0))
	assert.True(t, e.HandleKey("Escape", 0, 0))
}
