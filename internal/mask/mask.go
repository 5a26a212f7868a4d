/*
Package mask builds the rounded-corner vignette stencil.

The mask has three alpha bands before blurring: 0 outside the outer rounded
rectangle (the cut corners), BorderOpacity in the ring between the outer and
inner rounded rectangles, and 255 inside the inner one. A Gaussian blur of
the alpha channel then softens all band boundaries.
*/
package mask

import (
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/gift"
	"github.com/fogleman/gg"

	"github.com/drummonds/fbsnap/internal/drawing"
	"github.com/drummonds/fbsnap/internal/errors"
)

// RoundedRect is a rounded rectangle given by its top left corner and size.
type RoundedRect struct {
	X, Y, Width, Height float64
	Radius              float64
}

// Blur is a Gaussian blur. Radius bounds the kernel support in pixels and
// Sigma is the standard deviation; a Sigma of 0 means 1.0. A Radius of 0
// lets sigma decide the support. The zero Blur disables blurring.
type Blur struct {
	Radius int
	Sigma  float64
}

type Params struct {
	OuterRadius   float64
	InnerMargin   float64
	BorderOpacity float64 // 0..1
	Blur          Blur
	// SymmetricInset centres the inner rectangle inside the margin. By
	// default it starts at (margin, margin) and keeps the canvas size minus
	// one margin, so the band only shows on the top and left.
	SymmetricInset bool
}

func DefaultParams() Params {
	return Params{
		OuterRadius:   15,
		InnerMargin:   10,
		BorderOpacity: 0.5,
		Blur:          Blur{Radius: 10},
	}
}

func (p Params) validate(w, h int) error {
	switch {
	case w <= 0 || h <= 0:
		return errors.Kind(errors.ErrInvalidInput, `mask size %dx%d`, w, h)
	case p.BorderOpacity < 0 || p.BorderOpacity > 1:
		return errors.Kind(errors.ErrInvalidInput, `border opacity %v not in [0,1]`, p.BorderOpacity)
	case p.OuterRadius < 0 || p.InnerMargin < 0:
		return errors.Kind(errors.ErrInvalidInput, `negative radius %v or margin %v`, p.OuterRadius, p.InnerMargin)
	case p.Blur.Radius < 0 || p.Blur.Sigma < 0:
		return errors.Kind(errors.ErrInvalidInput, `blur %+v`, p.Blur)
	}
	inner := p.Inner(w, h)
	if inner.Width <= 0 || inner.Height <= 0 {
		return errors.Kind(errors.ErrInvalidInput, `margin %v leaves nothing of %dx%d`, p.InnerMargin, w, h)
	}
	return nil
}

func (p Params) Outer(w, h int) RoundedRect {
	return RoundedRect{Width: float64(w), Height: float64(h), Radius: p.OuterRadius}
}

func (p Params) Inner(w, h int) RoundedRect {
	m := p.InnerMargin
	if p.SymmetricInset {
		return RoundedRect{X: m, Y: m, Width: float64(w) - 2*m, Height: float64(h) - 2*m, Radius: p.OuterRadius}
	}
	return RoundedRect{X: m, Y: m, Width: float64(w) - m, Height: float64(h) - m, Radius: p.OuterRadius}
}

// Overlay renders r in black at the given opacity onto a transparent
// w x h canvas.
func (r RoundedRect) Overlay(w, h int, opacity float64) *image.RGBA {
	dc := gg.NewContext(w, h)
	radius := math.Min(r.Radius, math.Min(r.Width, r.Height)/2)
	dc.DrawRoundedRectangle(r.X, r.Y, r.Width, r.Height, radius)
	dc.SetRGBA(0, 0, 0, opacity)
	dc.Fill()
	return dc.Image().(*image.RGBA)
}

// Build returns a w x h vignette mask.
func Build(w, h int, p Params) (*image.Alpha, error) {
	if err := p.validate(w, h); err != nil {
		return nil, err
	}
	bounds := image.Rect(0, 0, w, h)

	canvas := image.NewNRGBA(bounds)
	draw.Draw(canvas, bounds, image.Black, image.Point{}, draw.Src)

	// corners cut out, BorderOpacity everywhere else
	outer := p.Outer(w, h).Overlay(w, h, p.BorderOpacity)
	if err := drawing.ReplaceAlpha(canvas, drawing.AlphaOf(outer)); err != nil {
		return nil, err
	}

	// opaque interior
	inner := image.NewNRGBA(bounds)
	draw.Draw(inner, bounds, p.Inner(w, h).Overlay(w, h, 1), image.Point{}, draw.Src)
	if err := drawing.OverBlend(canvas, inner, 0, 0); err != nil {
		return nil, err
	}

	return blurAlpha(drawing.AlphaOf(canvas), p.Blur), nil
}

func blurAlpha(m *image.Alpha, b Blur) *image.Alpha {
	if b.Radius == 0 && b.Sigma == 0 {
		return m
	}
	sigma := b.Sigma
	if sigma == 0 {
		sigma = 1
	}
	var filter gift.Filter
	if support := int(math.Ceil(3 * sigma)); b.Radius == 0 || b.Radius >= support {
		filter = gift.GaussianBlur(float32(sigma))
	} else {
		filter = gift.Convolution(gaussianKernel(b.Radius, sigma), true, false, false, 0)
	}

	// gift has no single channel alpha type; gray carries the same bytes
	src := &image.Gray{Pix: m.Pix, Stride: m.Stride, Rect: m.Rect}
	dst := image.NewGray(filter.Bounds(src.Bounds()))
	filter.Draw(dst, src, &gift.Options{Parallelization: true})
	return &image.Alpha{Pix: dst.Pix, Stride: dst.Stride, Rect: dst.Rect}
}

// gaussianKernel is a (2r+1)^2 kernel truncated at radius r.
func gaussianKernel(r int, sigma float64) []float32 {
	n := 2*r + 1
	k := make([]float32, n*n)
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			k[(y+r)*n+x+r] = float32(math.Exp(-float64(x*x+y*y) / (2 * sigma * sigma)))
		}
	}
	return k
}
