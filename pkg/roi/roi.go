// Package roi provides the box-shaped region of interest used to filter
// fibers: six transformed half-space planes plus change notification.
package roi

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"fibertracts/pkg/scene"
	"fibertracts/pkg/xform"
)

// Plane is a half-space boundary. Points with a positive signed distance
// lie outside.
type Plane struct {
	Origin r3.Vec
	Normal r3.Vec
}

// SignedDistance returns the distance of p along the plane normal.
func (p Plane) SignedDistance(x r3.Vec) float64 {
	return r3.Dot(r3.Sub(x, p.Origin), p.Normal)
}

// Inside reports whether x lies within every plane.
func Inside(planes [6]Plane, x r3.Vec) bool {
	for _, p := range planes {
		if p.SignedDistance(x) > 0 {
			return false
		}
	}
	return true
}

// Polarity chooses whether fibers inside or outside the region are kept.
type Polarity int

const (
	Positive Polarity = iota
	Negative
)

func (p Polarity) String() string {
	if p == Negative {
		return "Negative"
	}
	return "Positive"
}

// ParsePolarity resolves a polarity by name.
func ParsePolarity(s string) (Polarity, error) {
	switch strings.ToLower(s) {
	case "positive", "":
		return Positive, nil
	case "negative":
		return Negative, nil
	}
	return Positive, fmt.Errorf("unknown ROI polarity %q", s)
}

// Provider is a region of interest that can be observed for changes.
type Provider interface {
	// ID identifies the provider in the scene.
	ID() string

	// TransformedPlanes returns the six bounding planes in world space.
	TransformedPlanes() [6]Plane

	// OnChange registers fn to run after every geometry or transform change.
	// The returned function removes the registration.
	OnChange(fn func()) (cancel func())
}

// Box is an oriented box defined by a centre, half extents and a transform
// applied on top.
type Box struct {
	id        string
	center    r3.Vec
	radius    r3.Vec
	transform xform.Affine

	nextHandle int
	observers  map[int]func()
}

// NewBox creates a box with the given centre and half extents.
func NewBox(id string, center, radius r3.Vec) *Box {
	return &Box{
		id:        id,
		center:    center,
		radius:    radius,
		transform: xform.IdentityAffine(),
		observers: make(map[int]func()),
	}
}

// ID implements Provider.
func (b *Box) ID() string { return b.id }

// Center returns the untransformed centre.
func (b *Box) Center() r3.Vec { return b.center }

// Radius returns the half extents.
func (b *Box) Radius() r3.Vec { return b.radius }

// SetCenter moves the box.
func (b *Box) SetCenter(c r3.Vec) {
	b.center = c
	b.notify()
}

// SetRadius resizes the box. Negative extents are made positive.
func (b *Box) SetRadius(r r3.Vec) {
	b.radius = r3.Vec{X: abs(r.X), Y: abs(r.Y), Z: abs(r.Z)}
	b.notify()
}

// SetTransform sets the transform applied to the box.
func (b *Box) SetTransform(t xform.Affine) {
	b.transform = t
	b.notify()
}

// TransformedPlanes implements Provider. Planes are ordered -x, +x, -y, +y,
// -z, +z in box coordinates.
func (b *Box) TransformedPlanes() [6]Plane {
	axes := [3]r3.Vec{{X: 1}, {Y: 1}, {Z: 1}}
	half := [3]float64{b.radius.X, b.radius.Y, b.radius.Z}

	var planes [6]Plane
	for i, a := range axes {
		for s, sign := range []float64{-1, 1} {
			n := r3.Scale(sign, a)
			o := r3.Add(b.center, r3.Scale(half[i], n))
			planes[2*i+s] = Plane{
				Origin: b.transform.Apply(o),
				Normal: b.transform.ApplyNormal(n),
			}
		}
	}
	return planes
}

// Contains reports whether x is inside the transformed box.
func (b *Box) Contains(x r3.Vec) bool {
	return Inside(b.TransformedPlanes(), x)
}

// OnChange implements Provider.
func (b *Box) OnChange(fn func()) (cancel func()) {
	h := b.nextHandle
	b.nextHandle++
	b.observers[h] = fn
	return func() { delete(b.observers, h) }
}

func (b *Box) notify() {
	handles := make([]int, 0, len(b.observers))
	for h := range b.observers {
		handles = append(handles, h)
	}
	sort.Ints(handles)
	for _, h := range handles {
		if fn, ok := b.observers[h]; ok {
			fn()
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// NodeKind implements scene.Node.
func (b *Box) NodeKind() string { return "AnnotationROINode" }

// Attributes implements scene.Node. The transform is not persisted.
func (b *Box) Attributes() scene.Attributes {
	a := scene.Attributes{}
	a.SetVec("Center", b.center)
	a.SetVec("Radius", b.radius)
	return a
}

// SetAttributes implements scene.Node.
func (b *Box) SetAttributes(a scene.Attributes) error {
	c, err := a.Vec("Center", b.center)
	if err != nil {
		return err
	}
	r, err := a.Vec("Radius", b.radius)
	if err != nil {
		return err
	}
	b.center = c
	b.SetRadius(r)
	return nil
}
