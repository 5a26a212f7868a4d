package panel

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/drummonds/fbsnap/internal/drawing"
)

// ImagePanel pastes one picture at Location. A picture the size of
// Location is copied pixel for pixel; any other is resampled into it.
type ImagePanel struct {
	img      *image.NRGBA
	Location image.Rectangle // where the panel is rendered
}

func NewImagePanel(img *image.NRGBA) *ImagePanel {
	return &ImagePanel{img: img, Location: img.Rect.Sub(img.Rect.Min)}
}

// Fit centres the picture in frame at its own size, shrinking it first if
// it does not fit.
func (p *ImagePanel) Fit(frame image.Rectangle) {
	size := p.img.Rect.Size()
	if size.X > frame.Dx() || size.Y > frame.Dy() {
		size = drawing.ScaleImageInside(p.img.Rect, frame.Dx(), frame.Dy()).Size()
	}
	p.Location = drawing.CentreIn(size, frame)
}

// Scaled reports whether Render resamples the picture.
func (p *ImagePanel) Scaled() bool { return p.Location.Size() != p.img.Rect.Size() }

// Draws the panel's picture on buffer over what is already there.
func (p *ImagePanel) Render(buffer *image.NRGBA) error {
	if p.Scaled() {
		xdraw.BiLinear.Scale(buffer, p.Location, p.img, p.img.Bounds(), draw.Over, nil)
		return nil
	}
	draw.Draw(buffer, p.Location, p.img, p.img.Rect.Min, draw.Over)
	return nil
}
