package display

import (
	"fmt"
	"strings"
)

// ColorMode selects how a representation is coloured. Modes only change by
// explicit SetColorMode calls.
type ColorMode int

const (
	Solid ColorMode = iota
	ScalarInvariant
	FunctionOfScalarAlongTract
	UseCellScalars
	ExternalScalarData
	MeanFiberOrientation
	PerSegmentFiberOrientation
)

var colorModeNames = [...]string{
	Solid:                      "Solid",
	ScalarInvariant:            "ScalarInvariant",
	FunctionOfScalarAlongTract: "FunctionOfScalarAlongTract",
	UseCellScalars:             "UseCellScalars",
	ExternalScalarData:         "ExternalScalarData",
	MeanFiberOrientation:       "MeanFiberOrientation",
	PerSegmentFiberOrientation: "PerSegmentFiberOrientation",
}

func (m ColorMode) String() string {
	if m < 0 || int(m) >= len(colorModeNames) {
		return fmt.Sprintf("ColorMode(%d)", int(m))
	}
	return colorModeNames[m]
}

// ParseColorMode resolves a colour mode by name, ignoring case.
func ParseColorMode(s string) (ColorMode, error) {
	for i, n := range colorModeNames {
		if strings.EqualFold(n, s) {
			return ColorMode(i), nil
		}
	}
	return Solid, fmt.Errorf("unknown color mode %q", s)
}

// IsOrientation reports whether the mode colours by fiber direction.
func (m ColorMode) IsOrientation() bool {
	return m == MeanFiberOrientation || m == PerSegmentFiberOrientation
}

// Kind identifies a representation variant.
type Kind int

const (
	KindLine Kind = iota
	KindTube
	KindGlyph
)

func (k Kind) String() string {
	switch k {
	case KindLine:
		return "Line"
	case KindTube:
		return "Tube"
	case KindGlyph:
		return "Glyph"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Supports reports whether a representation of kind k accepts mode m.
func (k Kind) Supports(m ColorMode) bool {
	if m < 0 || int(m) >= len(colorModeNames) {
		return false
	}
	if k == KindGlyph {
		return m == Solid || m == UseCellScalars || m == ScalarInvariant
	}
	return true
}
