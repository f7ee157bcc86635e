// Package visualization renders the representations of fiber sets through an
// orthographic camera, answers pick queries against what was drawn, and
// saves snapshots as JPEG images.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgimg"

	"fibertracts/internal/models"
	"fibertracts/pkg/display"
	"fibertracts/pkg/logging"
	"fibertracts/pkg/lut"
)

// Viewer draws display representations and resolves picks on them.
type Viewer struct {
	camera *Camera
	reps   []display.Representation
	luts   *lut.Registry

	// Background fills the image before drawing.
	Background color.Color

	// SolidColor is used for representations without active scalars.
	SolidColor color.Color

	// LineWidth is the stroke width of polylines in pixels.
	LineWidth float64

	// pick index and the inputs it was built from
	tree        *kdtree.Tree
	samples     screenPoints
	indexedCam  Camera
	indexedGeom []*models.Geometry
}

// NewViewer creates a viewer producing width x height images looking down axis.
func NewViewer(width, height int, axis string) (*Viewer, error) {
	cam, err := NewCamera(axis, width, height)
	if err != nil {
		return nil, err
	}
	return &Viewer{
		camera:     cam,
		luts:       lut.NewRegistry(),
		Background: color.Black,
		SolidColor: color.RGBA{R: 230, G: 230, B: 210, A: 255},
		LineWidth:  2,
	}, nil
}

// Camera returns the viewer's camera.
func (v *Viewer) Camera() *Camera { return v.camera }

// SetLookupTables replaces the registry used to resolve table names.
func (v *Viewer) SetLookupTables(r *lut.Registry) { v.luts = r }

// AddRepresentation adds a representation to the view. Adding one twice has
// no effect.
func (v *Viewer) AddRepresentation(r display.Representation) {
	for _, existing := range v.reps {
		if existing == r {
			return
		}
	}
	v.reps = append(v.reps, r)
}

// Representations returns the representations in drawing order.
func (v *Viewer) Representations() []display.Representation {
	return v.reps
}

// ResetCamera fits the camera to the visible geometry.
func (v *Viewer) ResetCamera() {
	var lo, hi r3.Vec
	first := true
	for _, r := range v.reps {
		if !r.Visible() {
			continue
		}
		g := r.RenderableGeometry()
		if g.NumberOfPoints() == 0 {
			continue
		}
		lo, hi = worldBounds(lo, hi, g, first)
		first = false
	}
	if !first {
		v.camera.Fit(lo, hi)
	}
}

// Pick returns the representation id and cell index of the primitive
// nearest to pixel (x, y) within tolerance pixels. Among equally near
// samples the one closest to the viewer wins.
func (v *Viewer) Pick(x, y, tolerance float64) (owner string, primitive int, ok bool) {
	v.updateIndex()
	if len(v.samples) == 0 || tolerance < 0 {
		return "", 0, false
	}

	keeper := kdtree.NewDistKeeper(tolerance * tolerance)
	v.tree.NearestSet(keeper, screenPoint{X: x, Y: y})

	best := screenPoint{owner: -1}
	bestDist := math.Inf(1)
	for _, item := range keeper.Heap {
		// Skip the sentinel value
		if item.Comparable == nil {
			continue
		}
		p := item.Comparable.(screenPoint)
		if item.Dist < bestDist || (item.Dist == bestDist && p.depth < best.depth) {
			best, bestDist = p, item.Dist
		}
	}
	if best.owner < 0 {
		return "", 0, false
	}
	return v.reps[best.owner].ID(), best.primitive, true
}

// updateIndex rebuilds the pick index when the camera or any renderable
// geometry changed since it was built.
func (v *Viewer) updateIndex() {
	geoms := make([]*models.Geometry, len(v.reps))
	stale := v.tree == nil || *v.camera != v.indexedCam || len(geoms) != len(v.indexedGeom)
	for i, r := range v.reps {
		if r.Visible() {
			geoms[i] = r.RenderableGeometry()
		}
		if !stale && geoms[i] != v.indexedGeom[i] {
			stale = true
		}
	}
	if !stale {
		return
	}

	var samples screenPoints
	for i, g := range geoms {
		if g != nil {
			samples = sampleGeometry(samples, v.camera, g, i)
		}
	}
	v.samples = samples
	v.tree = kdtree.New(append(screenPoints(nil), samples...), false)
	v.indexedCam = *v.camera
	v.indexedGeom = geoms

	logging.For("visualization").WithField("samples", len(samples)).Debug("rebuilt pick index")
}

// drawable is one primitive ready for painter's-order drawing.
type drawable struct {
	points []vg.Point
	fill   bool
	depth  float64
	color  color.Color
}

// Render draws every visible representation, far primitives first.
func (v *Viewer) Render() image.Image {
	w, h := v.camera.Size()
	canvas := vgimg.NewWith(
		vgimg.UseWH(vg.Length(w), vg.Length(h)),
		vgimg.UseDPI(72),
		vgimg.UseBackgroundColor(v.Background),
	)

	var items []drawable
	for _, r := range v.reps {
		if r.Visible() {
			items = v.collect(items, r)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].depth > items[j].depth })

	canvas.SetLineWidth(vg.Length(v.LineWidth))
	for _, it := range items {
		var p vg.Path
		p.Move(it.points[0])
		for _, pt := range it.points[1:] {
			p.Line(pt)
		}
		canvas.SetColor(it.color)
		if it.fill {
			p.Close()
			canvas.Fill(p)
		} else {
			canvas.Stroke(p)
		}
	}
	return canvas.Image()
}

func (v *Viewer) collect(items []drawable, r display.Representation) []drawable {
	g := r.RenderableGeometry()
	_, h := v.camera.Size()
	scalars := g.ActivePointScalars()
	lo, hi := r.ScalarRange()
	table, ok := v.luts.Lookup(r.LookupTable())
	if !ok {
		table, _ = v.luts.Lookup(lut.Rainbow)
	}

	colorOf := func(pids ...int) color.Color {
		if scalars == nil {
			return v.SolidColor
		}
		var sum float64
		for _, pid := range pids {
			sum += scalars[pid]
		}
		return table.Map(sum/float64(len(pids)), lo, hi)
	}
	vertex := func(pid int) (vg.Point, float64) {
		x, y, d := v.camera.Project(g.Points[pid])
		return vg.Point{X: vg.Length(x), Y: vg.Length(float64(h) - y)}, d
	}

	for _, line := range g.Lines {
		for j := 1; j < len(line); j++ {
			a, da := vertex(line[j-1])
			b, db := vertex(line[j])
			items = append(items, drawable{
				points: []vg.Point{a, b},
				depth:  (da + db) / 2,
				color:  colorOf(line[j-1], line[j]),
			})
		}
	}

	view := v.camera.ViewDirection()
	hasNormals := len(g.Normals) == len(g.Points) && len(g.Normals) > 0
	tris, _ := g.Triangles()
	for _, t := range tris {
		a, da := vertex(t[0])
		b, db := vertex(t[1])
		c, dc := vertex(t[2])
		col := colorOf(t[0], t[1], t[2])
		if hasNormals {
			n := r3.Add(r3.Add(g.Normals[t[0]], g.Normals[t[1]]), g.Normals[t[2]])
			if norm := r3.Norm(n); norm > 0 {
				col = shade(col, 0.35+0.65*math.Abs(r3.Dot(n, view))/norm)
			}
		}
		items = append(items, drawable{
			points: []vg.Point{a, b, c},
			fill:   true,
			depth:  (da + db + dc) / 3,
			color:  col,
		})
	}
	return items
}

func shade(c color.Color, f float64) color.Color {
	r, g, b, _ := c.RGBA()
	return color.RGBA{
		R: uint8(float64(r>>8) * f),
		G: uint8(float64(g>>8) * f),
		B: uint8(float64(b>>8) * f),
		A: 255,
	}
}

// SaveSnapshot saves a rendered image as a JPEG image
func (v *Viewer) SaveSnapshot(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSnapshotSequence renders and saves one snapshot per axis into
// outputDir. The camera is refitted for each axis and its axis restored
// afterwards.
func (v *Viewer) SaveSnapshotSequence(outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	original := v.camera.Axis()
	defer func() {
		v.camera.SetAxis(original)
		v.ResetCamera()
	}()

	var files []string
	for _, axis := range []string{"x", "y", "z"} {
		if err := v.camera.SetAxis(axis); err != nil {
			return files, err
		}
		v.ResetCamera()

		filename := filepath.Join(outputDir, fmt.Sprintf("snapshot_%s.jpg", axis))
		if err := v.SaveSnapshot(v.Render(), filename); err != nil {
			return files, err
		}
		files = append(files, filename)
	}

	return files, nil
}
