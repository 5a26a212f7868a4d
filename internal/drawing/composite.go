package drawing

import (
	"image"
	"image/color"

	"github.com/drummonds/fbsnap/internal/errors"
)

// ReplaceAlpha overwrites the alpha channel of target with m. Colours are
// left untouched. The mask must have exactly the target's size.
func ReplaceAlpha(target *image.NRGBA, m *image.Alpha) error {
	if target.Rect.Size() != m.Rect.Size() {
		return errors.Kind(errors.ErrInvalidInput, `mask %v does not match raster %v`, m.Rect.Size(), target.Rect.Size())
	}
	w, h := target.Rect.Dx(), target.Rect.Dy()
	for y := 0; y < h; y++ {
		ti := target.PixOffset(target.Rect.Min.X, target.Rect.Min.Y+y)
		mi := m.PixOffset(m.Rect.Min.X, m.Rect.Min.Y+y)
		for x := 0; x < w; x++ {
			target.Pix[ti+3] = m.Pix[mi]
			ti += 4
			mi++
		}
	}
	return nil
}

// AlphaOf extracts the alpha channel of any image into a mask with
// origin (0, 0).
func AlphaOf(img image.Image) *image.Alpha {
	b := img.Bounds()
	m := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	var pix []uint8
	var offset func(x, y int) int
	switch src := img.(type) {
	case *image.RGBA:
		pix, offset = src.Pix, src.PixOffset
	case *image.NRGBA:
		pix, offset = src.Pix, src.PixOffset
	}
	if pix != nil {
		for y := 0; y < b.Dy(); y++ {
			i := offset(b.Min.X, b.Min.Y+y)
			for x := 0; x < b.Dx(); x++ {
				m.Pix[y*m.Stride+x] = pix[i+3]
				i += 4
			}
		}
		return m
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			_, _, _, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			m.Pix[y*m.Stride+x] = uint8(a >> 8)
		}
	}
	return m
}

// OverBlend composites overlay onto base with its top left corner at
// (offX, offY) relative to base's origin, using non-premultiplied
// source-over. Where overlay is fully transparent base is left
// byte-for-byte unchanged; where it is opaque it replaces base.
func OverBlend(base, overlay *image.NRGBA, offX, offY int) error {
	r := image.Rectangle{Max: overlay.Rect.Size()}.Add(base.Rect.Min).Add(image.Pt(offX, offY))
	if !r.In(base.Rect) {
		return errors.Kind(errors.ErrOutOfBounds, `overlay %v at %d,%d outside %v`, overlay.Rect.Size(), offX, offY, base.Rect)
	}
	w, h := r.Dx(), r.Dy()
	for y := 0; y < h; y++ {
		bi := base.PixOffset(r.Min.X, r.Min.Y+y)
		oi := overlay.PixOffset(overlay.Rect.Min.X, overlay.Rect.Min.Y+y)
		for x := 0; x < w; x++ {
			s := overlay.Pix[oi : oi+4 : oi+4]
			d := base.Pix[bi : bi+4 : bi+4]
			switch s[3] {
			case 0:
			case 0xff:
				copy(d, s)
			default:
				blendOver(d, s)
			}
			bi += 4
			oi += 4
		}
	}
	return nil
}

// blendOver works in units of 255*255 to keep integer precision.
func blendOver(d, s []uint8) {
	sa := uint32(s[3])
	da := uint32(d[3]) * (0xff - sa)
	outA := sa*0xff + da
	if outA == 0 {
		d[0], d[1], d[2], d[3] = 0, 0, 0, 0
		return
	}
	for c := 0; c < 3; c++ {
		v := uint32(s[c])*sa*0xff + uint32(d[c])*da
		d[c] = uint8((v + outA/2) / outA)
	}
	d[3] = uint8((outA + 0x7f) / 0xff)
}

// Flatten resolves transparency against bg and returns an opaque copy:
// c*a/255 + bg*(255-a)/255 per channel. Flattening an opaque raster
// returns an identical raster.
func Flatten(img *image.NRGBA, bg color.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(img.Rect)
	bgc := [3]uint32{uint32(bg.R), uint32(bg.G), uint32(bg.B)}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		i := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		o := out.PixOffset(out.Rect.Min.X, out.Rect.Min.Y+y)
		for x := 0; x < w; x++ {
			s := img.Pix[i : i+4 : i+4]
			d := out.Pix[o : o+4 : o+4]
			a := uint32(s[3])
			for c := 0; c < 3; c++ {
				d[c] = uint8((uint32(s[c])*a + bgc[c]*(0xff-a) + 0x7f) / 0xff)
			}
			d[3] = 0xff
			i += 4
			o += 4
		}
	}
	return out
}
