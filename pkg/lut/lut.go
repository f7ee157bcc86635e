// Package lut holds the named colour lookup tables representations refer to.
package lut

import (
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot/palette"
)

// Built-in table names.
const (
	Rainbow     = "rainbow"
	FullRainbow = "full rainbow"
	Heat        = "heat"
	Grey        = "grey"
)

const tableSize = 256

// Table maps scalars to colours by linear interpolation over a range.
type Table struct {
	Name   string
	Colors []color.Color
}

// Map returns the colour for v within [lo, hi]. Values outside the range are
// clamped; a degenerate range maps everything to the first colour.
func (t Table) Map(v, lo, hi float64) color.Color {
	if len(t.Colors) == 0 {
		return color.Gray{Y: 255}
	}
	if hi <= lo || math.IsNaN(v) {
		return t.Colors[0]
	}
	f := (v - lo) / (hi - lo)
	f = math.Max(0, math.Min(1, f))
	idx := int(f * float64(len(t.Colors)-1))
	return t.Colors[idx]
}

// Registry resolves tables by name.
type Registry struct {
	tables map[string]Table
}

// NewRegistry returns a registry preloaded with the built-in tables.
func NewRegistry() *Registry {
	r := &Registry{tables: make(map[string]Table)}

	// Blue to red, the classic scalar rainbow.
	r.Register(Table{Name: Rainbow, Colors: palette.Rainbow(tableSize, 2.0/3, 0, 1, 1, 1).Colors()})
	// The full hue circle, matching the orientation hue index.
	r.Register(Table{Name: FullRainbow, Colors: palette.Rainbow(tableSize, 0, 1, 1, 1, 1).Colors()})
	r.Register(Table{Name: Heat, Colors: palette.Heat(tableSize, 1).Colors()})

	grey := make([]color.Color, tableSize)
	for i := range grey {
		grey[i] = color.Gray{Y: uint8(i)}
	}
	r.Register(Table{Name: Grey, Colors: grey})
	return r
}

// Register adds or replaces a table.
func (r *Registry) Register(t Table) {
	r.tables[t.Name] = t
}

// Lookup returns the table with the given name.
func (r *Registry) Lookup(name string) (Table, bool) {
	t, ok := r.tables[name]
	return t, ok
}

// Names returns the registered table names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tables))
	for n := range r.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
