// Package resize magnifies source images by a fixed factor. The resampling
// library is pluggable; only the output size and colour fidelity matter to
// the rest of the pipeline.
package resize

import (
	"image"
	"image/draw"
	"math"
	"sort"

	"github.com/drummonds/fbsnap/internal/errors"
)

const DefaultFactor = 3.0

type Resizer interface {
	Resize(img image.Image, size image.Point) (image.Image, error)
}

var resizers = map[string]func() Resizer{
	`catmullrom`: CatmullRom,
	`bilinear`:   BiLinear,
	`gift`:       func() Resizer { return &giftResizer{} },
	`imaging`:    func() Resizer { return &imagingResizer{} },
	`nfnt`:       func() Resizer { return &nfntResizer{} },
	`bild`:       func() Resizer { return &bildResizer{} },
}

// ByName returns a registered resizer; "" selects the default (catmullrom).
func ByName(name string) (Resizer, error) {
	if name == `` {
		return CatmullRom(), nil
	}
	newResizer, ok := resizers[name]
	if !ok {
		return nil, errors.Kind(errors.ErrInvalidInput, `unknown resizer %q (have %v)`, name, Names())
	}
	return newResizer(), nil
}

func Names() []string {
	names := make([]string, 0, len(resizers))
	for n := range resizers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ScaledSize is round(w*factor) x round(h*factor).
func ScaledSize(size image.Point, factor float64) image.Point {
	return image.Point{
		X: int(math.Round(float64(size.X) * factor)),
		Y: int(math.Round(float64(size.Y) * factor)),
	}
}

// Scale magnifies img by factor. A nil resizer means the default.
func Scale(img image.Image, factor float64, r Resizer) (*image.NRGBA, error) {
	if img == nil {
		return nil, errors.Kind(errors.ErrInvalidInput, `nil image`)
	}
	src := img.Bounds().Size()
	if src.X == 0 || src.Y == 0 {
		return nil, errors.Kind(errors.ErrInvalidInput, `zero sized image %v`, src)
	}
	if !(factor > 0) || math.IsInf(factor, 0) {
		return nil, errors.Kind(errors.ErrInvalidInput, `scale factor %v`, factor)
	}
	size := ScaledSize(src, factor)
	if size.X == 0 || size.Y == 0 {
		return nil, errors.Kind(errors.ErrInvalidInput, `%v scaled by %v is empty`, src, factor)
	}
	if r == nil {
		r = CatmullRom()
	}
	scaled, err := r.Resize(img, size)
	if err != nil {
		return nil, err
	}
	return toNRGBA(scaled, size)
}

func toNRGBA(img image.Image, size image.Point) (*image.NRGBA, error) {
	if img.Bounds().Size() != size {
		return nil, errors.Kind(errors.ErrExternalTool, `resizer returned %v, want %v`, img.Bounds().Size(), size)
	}
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n, nil
	}
	dst := image.NewNRGBA(image.Rectangle{Max: size})
	draw.Draw(dst, dst.Rect, img, img.Bounds().Min, draw.Src)
	return dst, nil
}
