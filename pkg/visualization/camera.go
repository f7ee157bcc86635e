package visualization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is an orthographic camera looking down one world axis.
//
// Looking down x the screen shows (z, y); down y it shows (x, z); down z it
// shows (x, y). Screen y grows downwards. Depth grows away from the viewer.
type Camera struct {
	axis   string
	width  int
	height int

	// scale converts world units to pixels; offset is the world position of
	// the screen centre in (u, v) coordinates.
	scale            float64
	offsetU, offsetV float64
}

// NewCamera creates a camera for a width x height image.
func NewCamera(axis string, width, height int) (*Camera, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image size must be positive, got %dx%d", width, height)
	}
	c := &Camera{width: width, height: height, scale: 1}
	if err := c.SetAxis(axis); err != nil {
		return nil, err
	}
	return c, nil
}

// SetAxis selects the viewing axis.
func (c *Camera) SetAxis(axis string) error {
	switch axis {
	case "x", "X", "y", "Y", "z", "Z":
		c.axis = axis
		return nil
	}
	return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
}

// Axis returns the viewing axis.
func (c *Camera) Axis() string { return c.axis }

// Size returns the image size in pixels.
func (c *Camera) Size() (width, height int) { return c.width, c.height }

// planar splits p into screen-plane coordinates and the coordinate along the
// viewing axis.
func (c *Camera) planar(p r3.Vec) (u, v, w float64) {
	switch c.axis {
	case "x", "X":
		return p.Z, p.Y, p.X
	case "y", "Y":
		return p.X, p.Z, p.Y
	}
	return p.X, p.Y, p.Z
}

// Fit centres the box [lo, hi] and scales it to fill the image with a
// five percent margin.
func (c *Camera) Fit(lo, hi r3.Vec) {
	ulo, vlo, _ := c.planar(lo)
	uhi, vhi, _ := c.planar(hi)
	c.offsetU = (ulo + uhi) / 2
	c.offsetV = (vlo + vhi) / 2

	du, dv := math.Abs(uhi-ulo), math.Abs(vhi-vlo)
	if du == 0 && dv == 0 {
		c.scale = 1
		return
	}
	c.scale = 0.9 * math.Min(safeRatio(float64(c.width), du), safeRatio(float64(c.height), dv))
}

func safeRatio(n, d float64) float64 {
	if d == 0 {
		return math.Inf(1)
	}
	return n / d
}

// Project maps a world point to pixel coordinates and depth.
func (c *Camera) Project(p r3.Vec) (x, y, depth float64) {
	u, v, w := c.planar(p)
	x = float64(c.width)/2 + (u-c.offsetU)*c.scale
	y = float64(c.height)/2 - (v-c.offsetV)*c.scale
	return x, y, -w
}

// ViewDirection returns the unit world vector pointing away from the viewer.
func (c *Camera) ViewDirection() r3.Vec {
	switch c.axis {
	case "x", "X":
		return r3.Vec{X: -1}
	case "y", "Y":
		return r3.Vec{Y: -1}
	}
	return r3.Vec{Z: -1}
}
