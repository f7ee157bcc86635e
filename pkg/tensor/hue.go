package tensor

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// HueIndexMax is the upper end of the hue index range.
const HueIndexMax = 256.0

const (
	red = iota
	green
	blue
)

// sextantOf maps a (max channel, min channel) pair to its hue wheel sextant.
var sextantOf = map[[2]int]int{
	{red, blue}:   0,
	{green, blue}: 1,
	{green, red}:  2,
	{blue, red}:   3,
	{blue, green}: 4,
	{red, green}:  5,
}

// DirectionToHueIndex maps absolute-valued vector components to a hue index
// in [0, 256]. Because the inputs are absolute values the mapping encodes
// orientation rather than direction.
//
// The minimum channel is subtracted from all channels, the result is divided
// by the new maximum, and the (max, min) channel pair picks one of six hue
// sextants of width 256/6. On ties the lower channel (R before G before B)
// keeps its min or max status.
//
// Axis-aligned inputs such as (1, 0, 0) evaluate to exactly 256: the index is
// deliberately left unclamped so callers see the same boundary value the hue
// wheel produces. Grey inputs (all channels equal) map to 0.
func DirectionToHueIndex(r, g, b float64) float64 {
	c := [3]float64{r, g, b}

	minIdx := 0
	for i := 1; i < 3; i++ {
		if c[i] < c[minIdx] {
			minIdx = i
		}
	}
	low := c[minIdx]
	for i := range c {
		c[i] -= low
	}

	maxIdx := 0
	for i := 1; i < 3; i++ {
		if c[i] > c[maxIdx] {
			maxIdx = i
		}
	}
	high := c[maxIdx]
	if high == 0 || math.IsNaN(high) {
		return 0
	}
	for i := range c {
		c[i] /= high
	}

	sextant, ok := sextantOf[[2]int{maxIdx, minIdx}]
	if !ok {
		return 0
	}

	var f float64
	switch sextant {
	case 0:
		f = c[green]
	case 1:
		f = 1 - c[red]
	case 2:
		f = c[blue]
	case 3:
		f = 1 - c[green]
	case 4:
		f = c[red]
	case 5:
		f = 1 - c[blue]
	}

	offset := HueIndexMax / 6
	return float64(sextant)*offset + f*offset
}

// OrientationIndex maps a direction vector to its hue index using the
// absolute value of each component.
func OrientationIndex(v r3.Vec) float64 {
	return DirectionToHueIndex(math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z))
}
