// Package session runs the complete tract pipeline: it builds a tract set,
// wraps it in a fiber set model, configures a display representation,
// replays editor commands and writes snapshots, an STL surface and the scene.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"fibertracts/internal/models"
	"fibertracts/internal/phantom"
	"fibertracts/pkg/config"
	"fibertracts/pkg/display"
	"fibertracts/pkg/editor"
	"fibertracts/pkg/fiberset"
	"fibertracts/pkg/glyph"
	"fibertracts/pkg/roi"
	"fibertracts/pkg/scene"
	"fibertracts/pkg/stl"
	"fibertracts/pkg/tensor"
	"fibertracts/pkg/visualization"
)

// Node ids used in the saved scene.
const (
	ModelID = "FiberBundle"
	ROIID   = "ROI"
)

// Params holds the session parameters.
type Params struct {
	// Config carries every pipeline setting. Nil means config.DefaultConfig().
	Config *config.Config

	// NumCores specifies how many CPU cores to use for metric computation.
	NumCores int

	// Edits are key presses replayed through the editor before export, in
	// order, against the main view.
	Edits []Edit
}

// Edit is one key press at a pixel of the main view.
type Edit struct {
	Key  string
	X, Y float64
}

// ParseEdit parses "key@x,y", e.g. "s@120,80".
func ParseEdit(s string) (Edit, error) {
	key, pos, ok := strings.Cut(s, "@")
	if !ok || key == "" {
		return Edit{}, fmt.Errorf("invalid edit %q (want key@x,y)", s)
	}
	xs, ys, ok := strings.Cut(pos, ",")
	if !ok {
		return Edit{}, fmt.Errorf("invalid edit position %q (want x,y)", pos)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return Edit{}, fmt.Errorf("invalid edit x: %w", err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return Edit{}, fmt.Errorf("invalid edit y: %w", err)
	}
	return Edit{Key: key, X: x, Y: y}, nil
}

// Session owns every pipeline object of one run.
type Session struct {
	params *Params
	cfg    *config.Config

	scene  *scene.Scene
	model  *fiberset.Model
	box    *roi.Box
	rep    display.Representation
	viewer *visualization.Viewer
	editor *editor.Editor

	files   []string
	metrics Metrics
}

// NewSession creates a session with the provided parameters.
func NewSession(params *Params) *Session {
	if params == nil {
		params = &Params{}
	}
	cfg := params.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if params.NumCores <= 0 {
		params.NumCores = runtime.NumCPU()
	}
	return &Session{params: params, cfg: cfg, scene: scene.New()}
}

// Process runs the complete pipeline on a generated phantom.
func (s *Session) Process() error {
	// Step 1: Generate the tract set
	fmt.Println("Step 1: Generating phantom tract set...")
	p := phantom.DefaultParams()
	p.Bundles = s.cfg.Phantom.Bundles
	p.FibersPerBundle = s.cfg.Phantom.FibersPerBundle
	p.PointsPerFiber = s.cfg.Phantom.PointsPerFiber
	p.Seed = s.cfg.Phantom.Seed
	g := phantom.Generate(p)
	fmt.Printf("Generated %d fibers with %d points\n", g.NumberOfFibers(), g.NumberOfPoints())

	return s.Run(g)
}

// Run processes an existing tract set.
func (s *Session) Run(g *models.Geometry) error {
	out := s.cfg.Output.Directory
	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Step 2: Build the model
	fmt.Println("Step 2: Building fiber set model...")
	if err := s.Setup(g); err != nil {
		return err
	}
	active, _ := s.model.ActiveGeometry()
	fmt.Printf("Displaying %d of %d fibers (ratio %.3f)\n",
		active.NumberOfFibers(), s.model.NumberOfFibers(), s.model.SubsamplingRatio())

	// Step 3: Replay edits
	if len(s.params.Edits) > 0 {
		fmt.Println("Step 3: Applying edits...")
		applied := 0
		for _, e := range s.params.Edits {
			if s.editor.HandleKey(e.Key, e.X, e.Y) {
				applied++
			} else {
				fmt.Printf("Warning: Edit %q at (%.0f, %.0f) had no effect\n", e.Key, e.X, e.Y)
			}
		}
		fmt.Printf("Applied %d of %d edits, %d fibers selected\n", applied, len(s.params.Edits), len(s.model.Selected()))
	}

	// Step 4: Render snapshots
	if s.cfg.Output.Snapshot {
		fmt.Println("Step 4: Rendering snapshots...")
		main := filepath.Join(out, "snapshot.jpg")
		if err := s.viewer.SaveSnapshot(s.viewer.Render(), main); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		s.files = append(s.files, main)

		views, err := s.viewer.SaveSnapshotSequence(filepath.Join(out, "views"))
		if err != nil {
			fmt.Printf("Warning: Failed to save axis snapshots: %v\n", err)
		}
		s.files = append(s.files, views...)
	}

	// Step 5: Export the surface
	if s.cfg.Output.STL {
		fmt.Println("Step 5: Exporting tube surface to STL...")
		path := filepath.Join(out, "fibers.stl")
		n, err := stl.SaveGeometry(path, s.surface())
		switch {
		case errors.Is(err, stl.ErrNoTriangles):
			fmt.Println("Warning: No surface to export")
		case err != nil:
			return fmt.Errorf("failed to export STL: %w", err)
		default:
			fmt.Printf("Wrote %d triangles\n", n)
			s.files = append(s.files, path)
		}
	}

	// Step 6: Save the scene
	if s.cfg.Output.Scene {
		fmt.Println("Step 6: Saving scene...")
		path := filepath.Join(out, "scene.yaml")
		if err := s.scene.Save(path); err != nil {
			return fmt.Errorf("failed to save scene: %w", err)
		}
		s.files = append(s.files, path)
	}

	// Step 7: Summary metrics
	fmt.Println("Step 7: Calculating summary metrics...")
	s.metrics = s.calculateMetrics()

	return nil
}

// Setup builds the model, representation, viewer and editor for g without
// writing anything.
func (s *Session) Setup(g *models.Geometry) error {
	s.model = fiberset.New(ModelID, fiberset.Config{
		MaxDefaultDisplay: s.cfg.Processing.MaxDefaultDisplay,
		Seed:              s.cfg.Processing.Seed,
	})
	s.model.SetGeometry(g)
	if r := s.cfg.Processing.SubsamplingRatio; r > 0 {
		s.model.SetSubsamplingRatio(r)
	}
	s.scene.Add(s.model)

	if err := s.setupROI(); err != nil {
		return err
	}
	if err := s.setupProperties(); err != nil {
		return err
	}
	if err := s.setupRepresentation(); err != nil {
		return err
	}

	viewer, err := visualization.NewViewer(s.cfg.Display.Width, s.cfg.Display.Height, s.cfg.Display.Axis)
	if err != nil {
		return fmt.Errorf("failed to create viewer: %w", err)
	}
	viewer.AddRepresentation(s.rep)
	viewer.ResetCamera()
	s.viewer = viewer

	s.editor = editor.New(viewer)
	s.editor.AddModel(s.model)
	s.editor.SetKeys(editor.Keys{
		Select: s.cfg.Editor.SelectKey,
		Delete: s.cfg.Editor.DeleteKey,
		Clear:  s.cfg.Editor.ClearKey,
	})
	s.editor.SetPickTolerance(s.cfg.Editor.PickTolerance)
	s.editor.SetEnabled(true)
	return nil
}

func (s *Session) setupROI() error {
	if !s.cfg.ROI.Enabled {
		return nil
	}
	polarity, err := roi.ParsePolarity(s.cfg.ROI.Polarity)
	if err != nil {
		return err
	}
	c, r := s.cfg.ROI.Center, s.cfg.ROI.Radius
	s.box = roi.NewBox(ROIID, r3.Vec{X: c[0], Y: c[1], Z: c[2]}, r3.Vec{X: r[0], Y: r[1], Z: r[2]})
	s.scene.Add(s.box)

	s.model.SetROI(s.box)
	s.model.SetROIPolarity(polarity)
	s.model.SetROIEnabled(true)
	return nil
}

func (s *Session) setupProperties() error {
	props := s.model.Properties()
	k, err := tensor.ParseInvariant(s.cfg.Display.Invariant)
	if err != nil {
		return err
	}
	props.SetColorInvariant(k)
	props.SetGlyphType(glyph.Type(s.cfg.Glyph.Type))
	props.SetScaleFactor(s.cfg.Glyph.ScaleFactor)
	props.SetMaxScaleFactor(s.cfg.Glyph.ClampScaling, s.cfg.Glyph.MaxScaleFactor)
	props.SetResolution(s.cfg.Glyph.Resolution)
	s.scene.Add(props)
	return nil
}

// lookupTableSetter is implemented by every representation.
type lookupTableSetter interface {
	SetLookupTable(name string)
}

func (s *Session) setupRepresentation() error {
	switch strings.ToLower(s.cfg.Display.Representation) {
	case "line":
		s.rep = s.model.AddLineRepresentation()
	case "tube", "":
		tube := s.model.AddTubeRepresentation()
		tube.SetTubeRadius(s.cfg.Display.TubeRadius)
		tube.SetTubeSides(s.cfg.Display.TubeSides)
		s.rep = tube
	case "glyph":
		s.rep = s.model.AddGlyphRepresentation()
	default:
		return fmt.Errorf("unknown representation %q (must be line, tube, or glyph)", s.cfg.Display.Representation)
	}
	s.scene.Add(s.rep)

	if lt, ok := s.rep.(lookupTableSetter); ok && s.cfg.Display.LookupTable != "" {
		lt.SetLookupTable(s.cfg.Display.LookupTable)
	}

	mode, err := display.ParseColorMode(s.cfg.Display.ColorMode)
	if err != nil {
		return err
	}
	if err := s.rep.SetColorMode(mode); err != nil {
		fmt.Printf("Warning: %v, keeping %s\n", err, s.rep.ColorMode())
	}
	return nil
}

// surface returns the geometry exported to STL: the representation's own
// triangles, or a tube swept along the active fibers for line views.
func (s *Session) surface() *models.Geometry {
	if s.rep.Kind() != display.KindLine {
		return s.rep.RenderableGeometry()
	}
	active, _ := s.model.ActiveGeometry()
	return display.TubeFilter{Radius: s.cfg.Display.TubeRadius, Sides: s.cfg.Display.TubeSides}.Apply(active)
}

// Model returns the fiber set model.
func (s *Session) Model() *fiberset.Model { return s.model }

// Representation returns the configured representation.
func (s *Session) Representation() display.Representation { return s.rep }

// Viewer returns the viewer of the main view.
func (s *Session) Viewer() *visualization.Viewer { return s.viewer }

// Editor returns the editor bound to the main view.
func (s *Session) Editor() *editor.Editor { return s.editor }

// Scene returns the scene holding every node of the session.
func (s *Session) Scene() *scene.Scene { return s.scene }

// OutputFiles returns the files written by Run.
func (s *Session) OutputFiles() []string { return s.files }

// GetMetrics returns the summary metrics of the last run.
func (s *Session) GetMetrics() Metrics { return s.metrics }
