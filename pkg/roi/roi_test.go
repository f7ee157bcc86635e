package roi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"

	"fibertracts/pkg/xform"
)

func TestBoxContains(t *testing.T) {
	b := NewBox("roi", r3.Vec{}, r3.Vec{X: 1, Y: 2, Z: 3})

	assert.True(t, b.Contains(r3.Vec{}))
	assert.True(t, b.Contains(r3.Vec{X: 1, Y: 2, Z: 3}), "boundary counts as inside")
	assert.False(t, b.Contains(r3.Vec{X: 1.01}))
	assert.False(t, b.Contains(r3.Vec{Z: -3.5}))
}

func TestBoxTransform(t *testing.T) {
	b := NewBox("roi", r3.Vec{}, r3.Vec{X: 2, Y: 0.5, Z: 0.5})
	b.SetTransform(xform.Affine{
		Linear:      xform.RotationZ(math.Pi / 2),
		Translation: r3.Vec{X: 10},
	})

	assert.True(t, b.Contains(r3.Vec{X: 10, Y: 1.5}), "long axis now along y")
	assert.False(t, b.Contains(r3.Vec{X: 11.5}))
	assert.False(t, b.Contains(r3.Vec{}))
}

func TestBoxNotifiesObservers(t *testing.T) {
	b := NewBox("roi", r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	calls := 0
	cancel := b.OnChange(func() { calls++ })

	b.SetCenter(r3.Vec{X: 1})
	b.SetRadius(r3.Vec{X: -2, Y: 1, Z: 1})
	assert.Equal(t, 2, calls)
	assert.Equal(t, r3.Vec{X: 2, Y: 1, Z: 1}, b.Radius())

	cancel()
	b.SetTransform(xform.IdentityAffine())
	assert.Equal(t, 2, calls)
}

func TestParsePolarity(t *testing.T) {
	p, err := ParsePolarity("Negative")
	assert.NoError(t, err)
	assert.Equal(t, Negative, p)
	assert.Equal(t, "Negative", p.String())

	_, err = ParsePolarity("sideways")
	assert.Error(t, err)
}
