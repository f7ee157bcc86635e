package fiberset

import (
	"github.com/sirupsen/logrus"

	"fibertracts/internal/models"
	"fibertracts/pkg/logging"
)

// IsSelected implements display.Source.
func (m *Model) IsSelected(fiberID int) bool {
	_, ok := m.selection[fiberID]
	return ok
}

// Selected returns the selected fiber ids in ascending order.
func (m *Model) Selected() []int {
	return sortedKeys(m.selection)
}

// Select highlights a fiber by overwriting the active point scalars of all
// its points with value. The previous values are kept for Deselect. It
// reports false when the id is out of range or already selected.
func (m *Model) Select(fiberID int, value float64) bool {
	if m.raw == nil || fiberID < 0 || fiberID >= len(m.raw.Lines) || m.IsSelected(fiberID) {
		return false
	}

	g := m.raw.ShallowCopy()
	name := g.ActiveScalars
	if name == "" || len(g.PointData[name]) != len(g.Points) {
		name = SelectionScalarsName
		g.PointData[name] = make([]float64, len(g.Points))
		g.ActiveScalars = name
		m.createdSelection = true
	}

	arr := append([]float64(nil), g.PointData[name]...)
	line := g.Lines[fiberID]
	saved := make([]float64, len(line))
	for j, pid := range line {
		saved[j] = arr[pid]
		arr[pid] = value
	}
	g.PointData[name] = arr
	m.selection[fiberID] = saved
	m.replace(g)

	logging.For("fiberset").WithFields(logrus.Fields{"model": m.id, "fiber": fiberID}).Debug("selected fiber")
	return true
}

// Deselect restores the scalars saved by Select. It reports false when the
// fiber was not selected.
func (m *Model) Deselect(fiberID int) bool {
	saved, ok := m.selection[fiberID]
	if !ok {
		return false
	}
	g := m.raw.ShallowCopy()
	m.restore(g, fiberID, saved)
	delete(m.selection, fiberID)
	m.dropSelectionArray(g)
	m.replace(g)

	logging.For("fiberset").WithFields(logrus.Fields{"model": m.id, "fiber": fiberID}).Debug("deselected fiber")
	return true
}

// ClearSelection deselects every fiber.
func (m *Model) ClearSelection() {
	if len(m.selection) == 0 {
		return
	}
	g := m.raw.ShallowCopy()
	for _, id := range m.Selected() {
		m.restore(g, id, m.selection[id])
	}
	m.selection = make(map[int][]float64)
	m.dropSelectionArray(g)
	m.replace(g)
}

func (m *Model) restore(g *models.Geometry, fiberID int, saved []float64) {
	name := g.ActiveScalars
	arr := append([]float64(nil), g.PointData[name]...)
	for j, pid := range g.Lines[fiberID] {
		if j < len(saved) && pid < len(arr) {
			arr[pid] = saved[j]
		}
	}
	g.PointData[name] = arr
}

// dropSelectionArray removes the array Select created once nothing is
// selected.
func (m *Model) dropSelectionArray(g *models.Geometry) {
	if len(m.selection) > 0 || !m.createdSelection {
		return
	}
	delete(g.PointData, SelectionScalarsName)
	if g.ActiveScalars == SelectionScalarsName {
		g.ActiveScalars = ""
	}
	m.createdSelection = false
}

// replace swaps in an edited copy of the raw geometry without touching the
// shuffle table or the ratio.
func (m *Model) replace(g *models.Geometry) {
	m.raw = g
	m.rawMod.Modify()
}

// Delete removes fibers from the tract set. The subsampling ratio is kept,
// the shuffle table keeps the surviving fibers in their current order, and
// selections move with their fibers. The active set loses exactly the
// deleted fibers that were shown and hidden fibers stay hidden. It returns
// the number of fibers removed.
func (m *Model) Delete(fiberIDs []int) int {
	if m.raw == nil {
		return 0
	}
	n := len(m.raw.Lines)
	drop := make(map[int]bool, len(fiberIDs))
	for _, id := range fiberIDs {
		if id >= 0 && id < n {
			drop[id] = true
		}
	}
	if len(drop) == 0 {
		return 0
	}

	// remap[old] is the id after deletion, or -1 for deleted fibers.
	remap := make([]int, n)
	next := 0
	for id := 0; id < n; id++ {
		if drop[id] {
			remap[id] = -1
			continue
		}
		remap[id] = next
		next++
	}

	// Surviving fibers keep their shuffled order, so the ones shown before
	// stay in front and the keep count shrinks by the deleted shown fibers.
	keep := m.keepCount()
	shuffle := make([]int, 0, next)
	pinned := 0
	for i, id := range m.shuffle {
		if remap[id] < 0 {
			continue
		}
		shuffle = append(shuffle, remap[id])
		if i < keep {
			pinned++
		}
	}
	selection := make(map[int][]float64, len(m.selection))
	for id, saved := range m.selection {
		if remap[id] >= 0 {
			selection[remap[id]] = saved
		}
	}

	ids := make([]int, 0, len(drop))
	for id := range drop {
		ids = append(ids, id)
	}
	g := m.raw.RemoveLines(ids).RemoveUnusedPoints()

	m.shuffle = shuffle
	m.pinnedKeep = pinned
	m.selection = selection
	m.dropSelectionArray(g)

	m.reshuffle = false
	m.install(g)
	m.reshuffle = true

	logging.For("fiberset").WithFields(logrus.Fields{"model": m.id, "deleted": len(drop)}).Info("deleted fibers")
	return len(drop)
}
