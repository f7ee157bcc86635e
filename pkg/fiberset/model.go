// Package fiberset owns a tract set and exposes its active subset: either a
// random subsample of the fibers or the fibers selected by a box ROI. It also
// keeps the fiber selection and performs deletions, and it is the Source every
// display representation of the set reads from.
package fiberset

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"

	"fibertracts/internal/models"
	"fibertracts/pkg/display"
	"fibertracts/pkg/logging"
	"fibertracts/pkg/pipeline"
	"fibertracts/pkg/roi"
)

// SelectionScalarsName is the point array created to hold selection
// highlights when the tract set has no active scalars of its own.
const SelectionScalarsName = display.SelectionScalarsName

// Config holds the model settings that were process-wide defaults.
type Config struct {
	// MaxDefaultDisplay caps the number of fibers shown right after
	// SetGeometry by lowering the default subsampling ratio.
	MaxDefaultDisplay int

	// Seed initialises the shuffle permutation generator.
	Seed uint64
}

// DefaultConfig returns a cap of 10000 fibers and seed 1.
func DefaultConfig() Config {
	return Config{MaxDefaultDisplay: 10000, Seed: 1}
}

type active struct {
	geom *models.Geometry

	// fibers maps each active cell to its original fiber id.
	fibers []int
}

// Model is a tract set with subsampling, ROI filtering and selection.
type Model struct {
	id  string
	cfg Config
	rng *rand.Rand

	raw     *models.Geometry
	rawMod  pipeline.Modified
	shuffle []int

	reshuffle bool
	ratio     float64
	ratioMod  pipeline.Modified

	// pinnedKeep overrides the ratio-derived keep count after a deletion so
	// the surviving active fibers stay the active set. -1 when unset.
	pinnedKeep int

	roi        roi.Provider
	roiID      string
	roiCancel  func()
	roiEnabled bool
	polarity   roi.Polarity
	roiMod     pipeline.Modified

	memo pipeline.Memo[active]

	selection        map[int][]float64
	createdSelection bool

	props *display.Properties
	line  *display.Line
	tube  *display.Tube
	glyph *display.Glyph
}

// New creates an empty model.
func New(id string, cfg Config) *Model {
	if cfg.MaxDefaultDisplay <= 0 {
		cfg.MaxDefaultDisplay = DefaultConfig().MaxDefaultDisplay
	}
	return &Model{
		id:         id,
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		reshuffle:  true,
		ratio:      1,
		pinnedKeep: -1,
		selection:  make(map[int][]float64),
		props:      display.NewProperties(id + "/properties"),
	}
}

// ID implements scene.Node.
func (m *Model) ID() string { return m.id }

// NodeKind implements scene.Node.
func (m *Model) NodeKind() string { return "FiberBundleNode" }

// Geometry returns the full, unfiltered tract set.
func (m *Model) Geometry() *models.Geometry { return m.raw }

// NumberOfFibers returns the fiber count of the full tract set.
func (m *Model) NumberOfFibers() int { return m.raw.NumberOfFibers() }

// SetGeometry installs a new tract set. The shuffle table is regenerated and
// the subsampling ratio reset to its default, and any selection is dropped.
func (m *Model) SetGeometry(g *models.Geometry) {
	m.selection = make(map[int][]float64)
	m.createdSelection = false
	m.install(g)
}

// install replaces the raw geometry. With reshuffling disabled the caller
// has already adjusted the shuffle table and the ratio is kept.
func (m *Model) install(g *models.Geometry) {
	m.raw = g

	n := g.NumberOfFibers()
	if m.reshuffle || len(m.shuffle) != n {
		m.shuffle = m.rng.Perm(n)
		m.ratio = defaultRatio(n, m.cfg.MaxDefaultDisplay)
		m.pinnedKeep = -1
		m.ratioMod.Modify()
	}
	m.rawMod.Modify()

	logging.For("fiberset").WithFields(logrus.Fields{
		"model":  m.id,
		"fibers": n,
		"ratio":  m.ratio,
	}).Debug("installed tract set")
}

func defaultRatio(n, maxDisplay int) float64 {
	if n <= maxDisplay {
		return 1
	}
	r := math.Floor(float64(maxDisplay)/float64(n)*100) / 100
	return math.Max(r, 0.01)
}

// SubsamplingRatio returns the fraction of fibers shown without an ROI.
func (m *Model) SubsamplingRatio() float64 { return m.ratio }

// SetSubsamplingRatio sets the fraction of fibers shown, clamped to [0, 1].
// NaN is ignored.
func (m *Model) SetSubsamplingRatio(r float64) {
	if math.IsNaN(r) {
		return
	}
	r = math.Max(0, math.Min(1, r))
	if r != m.ratio {
		m.ratio = r
		m.pinnedKeep = -1
		m.ratioMod.Modify()
	}
}

// keepCount returns how many shuffled fibers the ratio keeps, or the count
// pinned by the last deletion.
func (m *Model) keepCount() int {
	n := len(m.shuffle)
	if m.pinnedKeep >= 0 {
		return min(m.pinnedKeep, n)
	}
	return min(int(math.Floor(float64(n)*m.ratio+1e-9)), n)
}

// SetROI attaches an ROI provider, or detaches the current one when p is nil.
func (m *Model) SetROI(p roi.Provider) {
	if m.roiCancel != nil {
		m.roiCancel()
		m.roiCancel = nil
	}
	m.roi = p
	m.roiID = ""
	if p != nil {
		m.roiID = p.ID()
		m.roiCancel = p.OnChange(func() {
			if m.roiEnabled {
				m.roiMod.Modify()
			}
		})
	}
	m.roiMod.Modify()
}

// ROI returns the attached ROI provider, if any.
func (m *Model) ROI() roi.Provider { return m.roi }

// ROIEnabled reports whether fibers are selected by the ROI.
func (m *Model) ROIEnabled() bool { return m.roiEnabled }

// SetROIEnabled switches between ROI selection and subsampling. Without a
// provider the model keeps using the subsampling ratio.
func (m *Model) SetROIEnabled(enabled bool) {
	if enabled != m.roiEnabled {
		m.roiEnabled = enabled
		m.roiMod.Modify()
	}
}

// ROIPolarity returns whether fibers inside or outside the ROI are kept.
func (m *Model) ROIPolarity() roi.Polarity { return m.polarity }

// SetROIPolarity chooses whether fibers inside or outside the ROI are kept.
func (m *Model) SetROIPolarity(p roi.Polarity) {
	if p != m.polarity {
		m.polarity = p
		m.roiMod.Modify()
	}
}

// ActiveGeometry implements display.Source.
func (m *Model) ActiveGeometry() (*models.Geometry, pipeline.Stamp) {
	a, stamp := m.pull()
	return a.geom, stamp
}

func (m *Model) pull() (active, pipeline.Stamp) {
	upstream := pipeline.Newest(m.rawMod.MTime(), m.ratioMod.MTime(), m.roiMod.MTime())
	return m.memo.Get(upstream, m.computeActive)
}

func (m *Model) computeActive() active {
	if m.raw == nil {
		return active{geom: models.NewGeometry()}
	}

	var ids []int
	if m.roiEnabled && m.roi != nil {
		ids = m.roiFibers()
	} else {
		ids = append([]int(nil), m.shuffle[:m.keepCount()]...)
	}
	geom := m.raw.ExtractLines(ids).RemoveUnusedPoints()

	logging.For("fiberset").WithFields(logrus.Fields{
		"model":  m.id,
		"active": len(ids),
		"roi":    m.roiEnabled && m.roi != nil,
	}).Debug("recomputed active fibers")
	return active{geom: geom, fibers: ids}
}

// roiFibers returns, in shuffle order, the fibers with at least one point
// inside the ROI for Positive polarity, or none inside for Negative.
func (m *Model) roiFibers() []int {
	planes := m.roi.TransformedPlanes()
	want := m.polarity == roi.Positive

	var ids []int
	for _, fid := range m.shuffle {
		inside := false
		for _, pid := range m.raw.Lines[fid] {
			if roi.Inside(planes, m.raw.Points[pid]) {
				inside = true
				break
			}
		}
		if inside == want {
			ids = append(ids, fid)
		}
	}
	return ids
}

// OriginalFiberID maps a shuffled index to the fiber id in the full set.
func (m *Model) OriginalFiberID(shuffled int) (int, bool) {
	if shuffled < 0 || shuffled >= len(m.shuffle) {
		return 0, false
	}
	return m.shuffle[shuffled], true
}

// ActiveFiberID implements display.Source.
func (m *Model) ActiveFiberID(cell int) (int, bool) {
	a, _ := m.pull()
	if cell < 0 || cell >= len(a.fibers) {
		return 0, false
	}
	return a.fibers[cell], true
}

// Properties returns the tensor display properties shared by the
// representations of this model.
func (m *Model) Properties() *display.Properties { return m.props }

// AddLineRepresentation returns the line representation, creating it once.
func (m *Model) AddLineRepresentation() *display.Line {
	if m.line == nil {
		m.line = display.NewLine(m.id+"/line", m, m.props)
	}
	return m.line
}

// AddTubeRepresentation returns the tube representation, creating it once.
func (m *Model) AddTubeRepresentation() *display.Tube {
	if m.tube == nil {
		m.tube = display.NewTube(m.id+"/tube", m, m.props)
	}
	return m.tube
}

// AddGlyphRepresentation returns the glyph representation, creating it once.
func (m *Model) AddGlyphRepresentation() *display.Glyph {
	if m.glyph == nil {
		m.glyph = display.NewGlyph(m.id+"/glyph", m, m.props)
	}
	return m.glyph
}

// Representations returns the existing representations, lines first.
func (m *Model) Representations() []display.Representation {
	var out []display.Representation
	if m.line != nil {
		out = append(out, m.line)
	}
	if m.tube != nil {
		out = append(out, m.tube)
	}
	if m.glyph != nil {
		out = append(out, m.glyph)
	}
	return out
}

// RepresentationByID finds one of this model's representations.
func (m *Model) RepresentationByID(id string) (display.Representation, bool) {
	for _, r := range m.Representations() {
		if r.ID() == id {
			return r, true
		}
	}
	return nil, false
}

// sortedKeys returns the keys of a selection map in ascending order.
func sortedKeys(sel map[int][]float64) []int {
	ids := make([]int, 0, len(sel))
	for id := range sel {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
