package session

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"fibertracts/internal/models"
	"fibertracts/pkg/config"
	"fibertracts/pkg/display"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Phantom.Bundles = 2
	cfg.Phantom.FibersPerBundle = 10
	cfg.Phantom.PointsPerFiber = 10
	cfg.Display.Width = 128
	cfg.Display.Height = 128
	cfg.Output.Directory = t.TempDir()
	return cfg
}

// twoFibers returns straight fibers along x at y = 0 and y = 10.
func twoFibers() *models.Geometry {
	g := models.NewGeometry()
	for _, y := range []float64{0, 10} {
		line := make([]int, 5)
		for x := range line {
			line[x] = len(g.Points)
			g.Points = append(g.Points, r3.Vec{X: float64(x), Y: y})
		}
		g.Lines = append(g.Lines, line)
	}
	return g
}

func TestProcessWritesOutputs(t *testing.T) {
	cfg := testConfig(t)
	s := NewSession(&Params{Config: cfg, NumCores: 3})
	require.NoError(t, s.Process())

	out := cfg.Output.Directory
	for _, name := range []string{
		"snapshot.jpg",
		filepath.Join("views", "snapshot_x.jpg"),
		filepath.Join("views", "snapshot_y.jpg"),
		filepath.Join("views", "snapshot_z.jpg"),
		"fibers.stl",
		"scene.yaml",
	} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	assert.Len(t, s.OutputFiles(), 6)

	// 20 fibers of 10 points: 6 strips of 18 triangles each per fiber
	info, err := os.Stat(filepath.Join(out, "fibers.stl"))
	require.NoError(t, err)
	assert.Equal(t, int64(84+50*20*6*18), info.Size())

	m := s.GetMetrics()
	assert.Equal(t, 20, m.TotalFibers)
	assert.Equal(t, 20, m.ActiveFibers)
	assert.Equal(t, 0, m.SelectedFibers)

	// Every phantom tensor has eigenvalues 1.7, 0.3, 0.3.
	assert.InDelta(t, 1.4/math.Sqrt(3.07), m.MeanFA, 1e-9)
	assert.InDelta(t, 0, m.StdDevFA, 1e-9)
	assert.Greater(t, m.MeanLength, 60.0)
}

func TestSceneRestoresModelAttributes(t *testing.T) {
	cfg := testConfig(t)
	cfg.Processing.SubsamplingRatio = 0.5
	s := NewSession(&Params{Config: cfg})
	require.NoError(t, s.Process())

	fresh := NewSession(&Params{Config: config.DefaultConfig()})
	require.NoError(t, fresh.Setup(twoFibers()))
	require.Equal(t, 1.0, fresh.Model().SubsamplingRatio())

	require.NoError(t, fresh.Scene().Load(filepath.Join(cfg.Output.Directory, "scene.yaml")))
	assert.Equal(t, 0.5, fresh.Model().SubsamplingRatio())
}

func TestRunReplaysEdits(t *testing.T) {
	cfg := testConfig(t)
	cfg.Display.Representation = "line"
	cfg.Output.Snapshot = false

	// Same configuration gives the same fitted camera.
	probe := NewSession(&Params{Config: cfg})
	require.NoError(t, probe.Setup(twoFibers()))
	cam := probe.Viewer().Camera()
	sx, sy, _ := cam.Project(r3.Vec{X: 2, Y: 0})
	dx, dy, _ := cam.Project(r3.Vec{X: 2, Y: 10})

	s := NewSession(&Params{Config: cfg, Edits: []Edit{
		{Key: "s", X: sx, Y: sy},
		{Key: "d", X: dx, Y: dy},
	}})
	require.NoError(t, s.Run(twoFibers()))

	m := s.GetMetrics()
	assert.Equal(t, 1, m.TotalFibers)
	assert.Equal(t, 1, m.SelectedFibers)
	assert.Equal(t, 0.0, m.MeanFA, "no tensors")
	assert.InDelta(t, 4, m.MeanLength, 1e-12)

	g := s.Model().Geometry()
	assert.Equal(t, 0.0, g.Points[g.Lines[0][0]].Y)

	// A line view exports a tube swept along the active fibers.
	info, err := os.Stat(filepath.Join(cfg.Output.Directory, "fibers.stl"))
	require.NoError(t, err)
	assert.Equal(t, int64(84+50*6*8), info.Size())
}

func TestROISelectsFibers(t *testing.T) {
	cfg := testConfig(t)
	cfg.ROI.Enabled = true
	cfg.ROI.Center = [3]float64{2, 0, 0}
	cfg.ROI.Radius = [3]float64{1, 1, 1}

	s := NewSession(&Params{Config: cfg})
	require.NoError(t, s.Setup(twoFibers()))
	g, _ := s.Model().ActiveGeometry()
	assert.Equal(t, 1, g.NumberOfFibers())

	cfg.ROI.Polarity = "negative"
	s = NewSession(&Params{Config: cfg})
	require.NoError(t, s.Setup(twoFibers()))
	g, _ = s.Model().ActiveGeometry()
	require.Equal(t, 1, g.NumberOfFibers())
	assert.Equal(t, 10.0, g.Points[g.Lines[0][0]].Y)
}

func TestSetupConfiguresRepresentation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Display.Representation = "glyph"
	cfg.Display.ColorMode = "MeanFiberOrientation"

	s := NewSession(&Params{Config: cfg})
	require.NoError(t, s.Setup(twoFibers()))
	assert.Equal(t, display.KindGlyph, s.Representation().Kind())
	assert.Equal(t, display.ScalarInvariant, s.Representation().ColorMode(), "unsupported mode is not applied")

	cfg.Display.Representation = "ribbon"
	s = NewSession(&Params{Config: cfg})
	assert.Error(t, s.Setup(twoFibers()))
}

func TestParseEdit(t *testing.T) {
	e, err := ParseEdit("s@120, 80.5")
	require.NoError(t, err)
	assert.Equal(t, Edit{Key: "s", X: 120, Y: 80.5}, e)

	for _, bad := range []string{"s", "@1,2", "s@1", "s@x,2", "s@1,y"} {
		_, err := ParseEdit(bad)
		assert.Error(t, err, bad)
	}
}

func TestMeasureFibersIsIndependentOfWorkers(t *testing.T) {
	g := twoFibers()
	for i := 0; i < 7; i++ {
		g.Lines = append(g.Lines, g.Lines[i%2][:i%4+1])
	}

	_, want := measureFibers(g, 1)
	for _, workers := range []int{2, 3, 16} {
		_, got := measureFibers(g, workers)
		assert.Equal(t, want, got, "workers=%d", workers)
	}

	fa, lengths := measureFibers(models.NewGeometry(), 4)
	assert.Nil(t, fa)
	assert.Nil(t, lengths)
}
