package fiberset

import (
	"fmt"

	"fibertracts/pkg/display"
	"fibertracts/pkg/logging"
	"fibertracts/pkg/roi"
	"fibertracts/pkg/scene"
)

// Attributes implements scene.Node.
func (m *Model) Attributes() scene.Attributes {
	a := scene.Attributes{
		"SelectionWithAnnotationNodeMode": m.polarity.String(),
		"AnnotationNodeID":                m.roiID,
	}
	a.SetFloat("SubsamplingRatio", m.ratio)
	a.SetBool("SelectWithAnnotationNode", m.roiEnabled)
	return a
}

// SetAttributes implements scene.Node. The ROI named by AnnotationNodeID is
// attached separately through ResolveROI.
func (m *Model) SetAttributes(a scene.Attributes) error {
	ratio, err := a.Float("SubsamplingRatio", m.ratio)
	if err != nil {
		return err
	}
	enabled, err := a.Bool("SelectWithAnnotationNode", m.roiEnabled)
	if err != nil {
		return err
	}
	if v, ok := a["SelectionWithAnnotationNodeMode"]; ok {
		p, err := roi.ParsePolarity(v)
		if err != nil {
			return err
		}
		m.SetROIPolarity(p)
	}
	if v, ok := a["AnnotationNodeID"]; ok && v != m.roiID {
		m.SetROI(nil)
		m.roiID = v
	}
	m.SetSubsamplingRatio(ratio)
	m.SetROIEnabled(enabled)
	return nil
}

// AnnotationNodeID returns the id of the attached or pending ROI node.
func (m *Model) AnnotationNodeID() string { return m.roiID }

// ResolveROI attaches the ROI node named by AnnotationNodeID from s.
func (m *Model) ResolveROI(s *scene.Scene) error {
	if m.roiID == "" || (m.roi != nil && m.roi.ID() == m.roiID) {
		return nil
	}
	n, ok := s.Get(m.roiID)
	if !ok {
		return fmt.Errorf("resolve ROI %q: %w", m.roiID, scene.ErrNodeNotFound)
	}
	p, ok := n.(roi.Provider)
	if !ok {
		return fmt.Errorf("node %q is a %s, not a region of interest", m.roiID, n.NodeKind())
	}
	m.SetROI(p)
	return nil
}

// NodeRemoved implements scene.RemovalObserver. Losing the ROI detaches it
// and the model falls back to the subsampling ratio. Losing the display
// properties gives every representation a fresh default set.
func (m *Model) NodeRemoved(id string) {
	if id == "" {
		return
	}
	if id == m.roiID {
		logging.For("fiberset").WithField("node", id).Warn("ROI removed, detaching")
		m.SetROI(nil)
	}
	if id == m.props.ID() {
		logging.For("fiberset").WithField("node", id).Warn("display properties removed, reverting to defaults")
		m.props = display.NewProperties(m.id + "/properties")
		if m.line != nil {
			m.line.SetProperties(m.props)
		}
		if m.tube != nil {
			m.tube.SetProperties(m.props)
		}
		if m.glyph != nil {
			m.glyph.SetProperties(m.props)
		}
	}
}
