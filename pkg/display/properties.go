package display

import (
	"fibertracts/pkg/glyph"
	"fibertracts/pkg/pipeline"
	"fibertracts/pkg/scene"
	"fibertracts/pkg/tensor"
)

// Properties are the tensor display settings shared by representations:
// which invariant drives colour and how glyphs are built.
type Properties struct {
	id  string
	mod pipeline.Modified

	colorInvariant     tensor.Invariant
	glyphType          glyph.Type
	scaleFactor        float64
	maxScaleFactor     float64
	clampScaling       bool
	resolution         int
	extractEigenvalues bool
}

// NewProperties returns properties with FA colouring and line glyphs.
func NewProperties(id string) *Properties {
	p := &Properties{
		id:                 id,
		colorInvariant:     tensor.FractionalAnisotropy,
		glyphType:          glyph.TypeLine,
		scaleFactor:        50,
		maxScaleFactor:     100,
		resolution:         1,
		extractEigenvalues: true,
	}
	p.mod.Modify()
	return p
}

// ID implements scene.Node.
func (p *Properties) ID() string { return p.id }

// NodeKind implements scene.Node.
func (p *Properties) NodeKind() string { return "DiffusionTensorDisplayProperties" }

// MTime returns the stamp of the last change.
func (p *Properties) MTime() pipeline.Stamp { return p.mod.MTime() }

// ColorInvariant returns the invariant used for colouring.
func (p *Properties) ColorInvariant() tensor.Invariant { return p.colorInvariant }

// SetColorInvariant selects the colouring invariant.
func (p *Properties) SetColorInvariant(k tensor.Invariant) {
	if p.colorInvariant != k {
		p.colorInvariant = k
		p.mod.Modify()
	}
}

// GlyphType returns the glyph source type.
func (p *Properties) GlyphType() glyph.Type { return p.glyphType }

// SetGlyphType selects the glyph source. Unknown types disable glyphs.
func (p *Properties) SetGlyphType(t glyph.Type) {
	if p.glyphType != t {
		p.glyphType = t
		p.mod.Modify()
	}
}

// SetScaleFactor sets the eigenvalue-to-length factor. Negative values are
// clamped to zero.
func (p *Properties) SetScaleFactor(f float64) {
	f = max(f, 0)
	if p.scaleFactor != f {
		p.scaleFactor = f
		p.mod.Modify()
	}
}

// SetMaxScaleFactor enables or disables clamping of the largest glyph axis.
func (p *Properties) SetMaxScaleFactor(clamp bool, maxScale float64) {
	maxScale = max(maxScale, 0)
	if p.clampScaling != clamp || p.maxScaleFactor != maxScale {
		p.clampScaling = clamp
		p.maxScaleFactor = maxScale
		p.mod.Modify()
	}
}

// SetResolution sets the glyph point stride. Values below 1 become 1.
func (p *Properties) SetResolution(n int) {
	n = max(n, 1)
	if p.resolution != n {
		p.resolution = n
		p.mod.Modify()
	}
}

// SetExtractEigenvalues chooses eigenvector axes (true) or raw tensor columns.
func (p *Properties) SetExtractEigenvalues(b bool) {
	if p.extractEigenvalues != b {
		p.extractEigenvalues = b
		p.mod.Modify()
	}
}

// GlyphParams converts the properties into generator parameters.
func (p *Properties) GlyphParams() glyph.Params {
	return glyph.Params{
		Source:             glyph.NewSource(p.glyphType),
		ScaleFactor:        p.scaleFactor,
		Resolution:         p.resolution,
		ClampScaling:       p.clampScaling,
		MaxScaleFactor:     p.maxScaleFactor,
		ExtractEigenvalues: p.extractEigenvalues,
		ColorInvariant:     p.colorInvariant,
	}
}

// Attributes implements scene.Node.
func (p *Properties) Attributes() scene.Attributes {
	a := scene.Attributes{
		"ColorInvariant": p.colorInvariant.String(),
		"GlyphType":      string(p.glyphType),
	}
	a.SetFloat("ScaleFactor", p.scaleFactor)
	a.SetFloat("MaxScaleFactor", p.maxScaleFactor)
	a.SetBool("ClampScaling", p.clampScaling)
	a.SetInt("Resolution", p.resolution)
	a.SetBool("ExtractEigenvalues", p.extractEigenvalues)
	return a
}

// SetAttributes implements scene.Node.
func (p *Properties) SetAttributes(a scene.Attributes) error {
	if v, ok := a["ColorInvariant"]; ok {
		k, err := tensor.ParseInvariant(v)
		if err != nil {
			return err
		}
		p.SetColorInvariant(k)
	}
	if v, ok := a["GlyphType"]; ok {
		p.SetGlyphType(glyph.Type(v))
	}
	scale, err := a.Float("ScaleFactor", p.scaleFactor)
	if err != nil {
		return err
	}
	p.SetScaleFactor(scale)
	maxScale, err := a.Float("MaxScaleFactor", p.maxScaleFactor)
	if err != nil {
		return err
	}
	clamp, err := a.Bool("ClampScaling", p.clampScaling)
	if err != nil {
		return err
	}
	p.SetMaxScaleFactor(clamp, maxScale)
	res, err := a.Int("Resolution", p.resolution)
	if err != nil {
		return err
	}
	p.SetResolution(res)
	extract, err := a.Bool("ExtractEigenvalues", p.extractEigenvalues)
	if err != nil {
		return err
	}
	p.SetExtractEigenvalues(extract)
	return nil
}
