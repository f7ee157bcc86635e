// Package editor turns key presses over a view into fiber selection and
// deletion. A pick under the cursor is resolved to its representation, then
// to a cell of the active geometry, then to the original fiber id.
package editor

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"fibertracts/pkg/display"
	"fibertracts/pkg/fiberset"
	"fibertracts/pkg/logging"
)

// Picker finds the primitive under a screen position.
type Picker interface {
	// Pick returns the id of the representation owning the nearest primitive
	// within tolerance and the primitive's cell index in its renderable
	// geometry.
	Pick(x, y, tolerance float64) (owner string, primitive int, ok bool)
}

// InteractionMode is the application-wide mouse mode.
type InteractionMode int

const (
	ModeViewTransform InteractionMode = iota
	ModePlace
)

func (m InteractionMode) String() string {
	switch m {
	case ModeViewTransform:
		return "ViewTransform"
	case ModePlace:
		return "Place"
	}
	return fmt.Sprintf("InteractionMode(%d)", int(m))
}

// Keys binds editor actions to key names.
type Keys struct {
	Select string
	Delete string
	Clear  string
}

// DefaultKeys binds s, d and c.
func DefaultKeys() Keys {
	return Keys{Select: "s", Delete: "d", Clear: "c"}
}

// DefaultPickTolerance is the pick radius in pixels.
const DefaultPickTolerance = 2.0

// Editor applies select, delete and clear commands to registered fiber sets.
type Editor struct {
	picker    Picker
	models    []*fiberset.Model
	enabled   bool
	mode      InteractionMode
	keys      Keys
	tolerance float64

	// holder is the fiber set that currently owns selections.
	holder *fiberset.Model
}

// New creates a disabled editor in view-transform mode.
func New(p Picker) *Editor {
	return &Editor{
		picker:    p,
		mode:      ModeViewTransform,
		keys:      DefaultKeys(),
		tolerance: DefaultPickTolerance,
	}
}

// AddModel registers a fiber set whose representations can be picked.
func (e *Editor) AddModel(m *fiberset.Model) {
	for _, existing := range e.models {
		if existing == m {
			return
		}
	}
	e.models = append(e.models, m)
}

// RemoveModel unregisters a fiber set.
func (e *Editor) RemoveModel(id string) {
	for i, m := range e.models {
		if m.ID() == id {
			e.models = append(e.models[:i], e.models[i+1:]...)
			if e.holder == m {
				e.holder = nil
			}
			return
		}
	}
}

// SetEnabled turns editing on or off.
func (e *Editor) SetEnabled(enabled bool) { e.enabled = enabled }

// Enabled reports whether editing is on.
func (e *Editor) Enabled() bool { return e.enabled }

// SetInteractionMode records the current mouse mode. Edits only happen in
// view-transform mode.
func (e *Editor) SetInteractionMode(m InteractionMode) { e.mode = m }

// SetKeys rebinds the actions.
func (e *Editor) SetKeys(k Keys) { e.keys = k }

// SetPickTolerance sets the pick radius. Non-positive values restore the default.
func (e *Editor) SetPickTolerance(tol float64) {
	if tol <= 0 {
		tol = DefaultPickTolerance
	}
	e.tolerance = tol
}

func (e *Editor) active() bool {
	return e.enabled && e.mode == ModeViewTransform && e.picker != nil
}

// HandleKey runs the action bound to key at screen position (x, y). It
// reports whether the key was consumed by an action that changed something.
func (e *Editor) HandleKey(key string, x, y float64) bool {
	switch key {
	case e.keys.Select:
		return e.SelectAt(x, y)
	case e.keys.Delete:
		return e.DeleteAt(x, y)
	case e.keys.Clear:
		return e.ClearSelection()
	}
	return false
}

// target is a resolved pick.
type target struct {
	model   *fiberset.Model
	rep     display.Representation
	fiberID int
}

func (e *Editor) resolve(x, y float64) (target, bool) {
	owner, prim, ok := e.picker.Pick(x, y, e.tolerance)
	if !ok {
		return target{}, false
	}
	for _, m := range e.models {
		rep, ok := m.RepresentationByID(owner)
		if !ok {
			continue
		}
		cell, ok := rep.MapPrimitiveToFiber(prim)
		if !ok {
			return target{}, false
		}
		id, ok := m.ActiveFiberID(cell)
		if !ok {
			return target{}, false
		}
		return target{model: m, rep: rep, fiberID: id}, true
	}
	return target{}, false
}

// SelectAt toggles the selection of the fiber under (x, y). Selecting in a
// different fiber set first clears the selections of the previous one.
func (e *Editor) SelectAt(x, y float64) bool {
	if !e.active() {
		return false
	}
	t, ok := e.resolve(x, y)
	if !ok {
		return false
	}
	if e.holder != nil && e.holder != t.model {
		e.holder.ClearSelection()
	}
	e.holder = t.model

	log := logging.For("editor").WithFields(logrus.Fields{"model": t.model.ID(), "fiber": t.fiberID})
	if t.model.IsSelected(t.fiberID) {
		log.Debug("deselecting fiber")
		return t.model.Deselect(t.fiberID)
	}
	_, hi := t.rep.ScalarRange()
	log.Debug("selecting fiber")
	return t.model.Select(t.fiberID, hi)
}

// DeleteAt removes the fiber under (x, y) from its fiber set.
func (e *Editor) DeleteAt(x, y float64) bool {
	if !e.active() {
		return false
	}
	t, ok := e.resolve(x, y)
	if !ok {
		return false
	}
	logging.For("editor").WithFields(logrus.Fields{"model": t.model.ID(), "fiber": t.fiberID}).Info("deleting fiber")
	return t.model.Delete([]int{t.fiberID}) > 0
}

// ClearSelection deselects every fiber in every registered fiber set.
func (e *Editor) ClearSelection() bool {
	if !e.active() {
		return false
	}
	cleared := false
	for _, m := range e.models {
		if len(m.Selected()) > 0 {
			m.ClearSelection()
			cleared = true
		}
	}
	e.holder = nil
	return cleared
}
