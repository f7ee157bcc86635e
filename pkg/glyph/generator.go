// Package glyph stamps a scaled, oriented copy of a template primitive at
// sampled tensor points.
package glyph

import (
	"gonum.org/v1/gonum/spatial/r3"

	"fibertracts/internal/models"
	"fibertracts/pkg/logging"
	"fibertracts/pkg/tensor"
	"fibertracts/pkg/xform"
)

const (
	// ScalarsName is the point array holding the per-glyph colour scalar.
	ScalarsName = "GlyphScalars"

	// InputPointIdsName is the cell array recording the input point each
	// output cell was generated from.
	InputPointIdsName = "GlyphInputPointIds"
)

// Params controls glyph generation.
type Params struct {
	// Source is the template primitive. Nothing is generated when nil.
	Source *models.Geometry

	// ScaleFactor multiplies the eigenvalues to obtain the glyph axes.
	ScaleFactor float64

	// Resolution is the point stride: every Resolution-th point gets a glyph.
	Resolution int

	// Mask, when non-nil, selects the points that may receive a glyph.
	Mask []bool

	// ClampScaling limits the largest glyph axis to MaxScaleFactor while
	// preserving the axis ratios.
	ClampScaling   bool
	MaxScaleFactor float64

	// PositionTransform maps input point locations, e.g. voxel to world.
	PositionTransform *xform.Affine

	// RotationTransform rotates the tensor frame, e.g. measurement frame to world.
	RotationTransform *xform.Mat3

	// ExtractEigenvalues orients glyphs by the eigenvectors. When false the
	// raw tensor columns are used as axes.
	ExtractEigenvalues bool

	// ColorByInputScalars passes the input's active point scalars through
	// instead of computing ColorInvariant.
	ColorByInputScalars bool
	ColorInvariant      tensor.Invariant
}

// DefaultParams returns line glyphs coloured by fractional anisotropy.
func DefaultParams() Params {
	return Params{
		Source:             Line(),
		ScaleFactor:        50,
		Resolution:         1,
		MaxScaleFactor:     100,
		ExtractEigenvalues: true,
		ColorInvariant:     tensor.FractionalAnisotropy,
	}
}

// Generator produces glyph geometry from a tract set.
type Generator struct {
	Params Params
}

// NewGenerator creates a generator with the given parameters.
func NewGenerator(p Params) *Generator {
	return &Generator{Params: p}
}

// Generate builds the glyphs for in. A missing source or missing tensors
// produce an empty geometry.
func (g *Generator) Generate(in *models.Geometry) *models.Geometry {
	log := logging.For("glyph")
	out := models.NewGeometry()
	p := g.Params

	if p.Source == nil {
		log.Debug("no glyph source set, skipping glyph generation")
		return out
	}
	if !in.HasTensors() {
		log.Warn("input has no tensors, skipping glyph generation")
		return out
	}

	src := p.Source
	stride := max(p.Resolution, 1)
	inScalars := in.ActivePointScalars()
	hasNormals := len(src.Normals) == len(src.Points) && len(src.Normals) > 0

	var scalars []float64
	var lineOwner, polyOwner, stripOwner []float64

	for i := 0; i < len(in.Points); i += stride {
		t := in.Tensors[i]
		if p.Mask != nil {
			if i >= len(p.Mask) || !p.Mask[i] {
				continue
			}
		} else if t.Trace() <= 0 {
			continue
		}

		e := tensor.Decompose(t)
		w := tensor.CorrectEigenvalues(e.Values)

		var s float64
		switch {
		case p.ColorByInputScalars:
			if i < len(inScalars) {
				s = inScalars[i]
			}
		case p.ColorInvariant == tensor.Orientation:
			v := e.Major()
			if p.RotationTransform != nil {
				v = p.RotationTransform.Apply(v)
			}
			s = tensor.OrientationIndex(v)
		default:
			s = p.ColorInvariant.Value(w)
		}

		axes := e.Vectors
		if !p.ExtractEigenvalues {
			for j := 0; j < 3; j++ {
				col := t.Column(j)
				w[j] = r3.Norm(col)
				if w[j] > 0 {
					axes[j] = r3.Scale(1/w[j], col)
				} else {
					axes[j] = r3.Vec{}
				}
			}
		}

		scale := [3]float64{w[0] * p.ScaleFactor, w[1] * p.ScaleFactor, w[2] * p.ScaleFactor}
		if p.ClampScaling {
			largest := max(scale[0], scale[1], scale[2])
			if largest > p.MaxScaleFactor && largest > 0 {
				f := p.MaxScaleFactor / largest
				for j := range scale {
					scale[j] *= f
				}
			}
		}

		linear := xform.FromColumns(axes[0], axes[1], axes[2]).Mul(xform.Diag(scale[0], scale[1], scale[2]))
		if p.RotationTransform != nil {
			linear = p.RotationTransform.Mul(linear)
		}
		center := in.Points[i]
		if p.PositionTransform != nil {
			center = p.PositionTransform.Apply(center)
		}
		place := xform.Affine{Linear: linear, Translation: center}

		// Offset counts emitted points only, so skipped samples leave no gaps.
		offset := len(out.Points)
		for j, sp := range src.Points {
			out.Points = append(out.Points, place.Apply(sp))
			if hasNormals {
				out.Normals = append(out.Normals, place.ApplyNormal(src.Normals[j]))
			}
			scalars = append(scalars, s)
		}
		out.Lines = appendCells(out.Lines, src.Lines, offset)
		out.Polys = appendCells(out.Polys, src.Polys, offset)
		out.Strips = appendCells(out.Strips, src.Strips, offset)
		lineOwner = appendOwner(lineOwner, len(src.Lines), i)
		polyOwner = appendOwner(polyOwner, len(src.Polys), i)
		stripOwner = appendOwner(stripOwner, len(src.Strips), i)
	}

	if !hasNormals {
		out.Normals = nil
	}
	out.PointData[ScalarsName] = scalars
	out.ActiveScalars = ScalarsName
	owners := append(append(lineOwner, polyOwner...), stripOwner...)
	out.CellData[InputPointIdsName] = owners

	log.WithField("glyphs", len(out.Points)/max(len(src.Points), 1)).Debug("generated tensor glyphs")
	return out
}

func appendCells(dst, cells [][]int, offset int) [][]int {
	for _, c := range cells {
		nc := make([]int, len(c))
		for k, pid := range c {
			nc[k] = pid + offset
		}
		dst = append(dst, nc)
	}
	return dst
}

func appendOwner(dst []float64, n, owner int) []float64 {
	for k := 0; k < n; k++ {
		dst = append(dst, float64(owner))
	}
	return dst
}
