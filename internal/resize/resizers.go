package resize

import (
	"image"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
	nfnt "github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// xdrawResizer uses "golang.org/x/image/draw"
type xdrawResizer struct {
	scaler draw.Scaler
}

var _ Resizer = (*xdrawResizer)(nil)

// CatmullRom is the default, highest quality x/image scaler.
func CatmullRom() Resizer { return &xdrawResizer{scaler: draw.CatmullRom} }

// BiLinear is faster with softer edges.
func BiLinear() Resizer { return &xdrawResizer{scaler: draw.BiLinear} }

func (r *xdrawResizer) Resize(img image.Image, size image.Point) (image.Image, error) {
	dst := image.NewNRGBA(image.Rectangle{Max: size})
	r.scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, nil
}

// giftResizer uses "github.com/disintegration/gift"
type giftResizer struct{}

func (r *giftResizer) Resize(img image.Image, size image.Point) (image.Image, error) {
	m := image.NewNRGBA(image.Rectangle{Max: size})
	gift.Resize(size.X, size.Y, gift.LanczosResampling).Draw(m, img, &gift.Options{Parallelization: true})
	return m, nil
}

// imagingResizer uses "github.com/disintegration/imaging"
type imagingResizer struct{}

func (r *imagingResizer) Resize(img image.Image, size image.Point) (image.Image, error) {
	return imaging.Resize(img, size.X, size.Y, imaging.Lanczos), nil
}

// nfntResizer uses "github.com/nfnt/resize"
type nfntResizer struct{}

func (r *nfntResizer) Resize(img image.Image, size image.Point) (image.Image, error) {
	return nfnt.Resize(uint(size.X), uint(size.Y), img, nfnt.Lanczos3), nil
}

// bildResizer uses "github.com/anthonynsimon/bild/transform"
type bildResizer struct{}

func (r *bildResizer) Resize(img image.Image, size image.Point) (image.Image, error) {
	return transform.Resize(img, size.X, size.Y, transform.Lanczos), nil
}
