package drawing

import (
	"bytes"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drummonds/fbsnap/internal/errors"
)

func TestReplaceAlphaKeepsColour(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	img := randomNRGBA(r, 8, 5)
	before := append([]byte(nil), img.Pix...)
	m := image.NewAlpha(image.Rect(0, 0, 8, 5))
	r.Read(m.Pix)

	require.NoError(t, ReplaceAlpha(img, m))
	for i := 0; i < len(img.Pix); i += 4 {
		assert.Equal(t, before[i:i+3], img.Pix[i:i+3])
		assert.Equal(t, m.Pix[i/4], img.Pix[i+3])
	}
}

func TestReplaceAlphaSizeMismatch(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Pix[3] = 7
	err := ReplaceAlpha(img, image.NewAlpha(image.Rect(0, 0, 4, 3)))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	assert.Equal(t, uint8(7), img.Pix[3])
}

func TestOverBlendFootprint(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for n := 0; n < 50; n++ {
		base := randomNRGBA(r, 40, 30)
		before := append([]byte(nil), base.Pix...)
		ow, oh := 1+r.Intn(20), 1+r.Intn(20)
		overlay := randomNRGBA(r, ow, oh)
		// punch transparent holes
		for i := 3; i < len(overlay.Pix); i += 4 {
			if r.Intn(3) == 0 {
				overlay.Pix[i] = 0
			}
		}
		offX, offY := r.Intn(40-ow+1), r.Intn(30-oh+1)
		require.NoError(t, OverBlend(base, overlay, offX, offY))

		for y := 0; y < 30; y++ {
			for x := 0; x < 40; x++ {
				i := base.PixOffset(x, y)
				ox, oy := x-offX, y-offY
				inside := ox >= 0 && oy >= 0 && ox < ow && oy < oh
				if !inside || overlay.NRGBAAt(ox, oy).A == 0 {
					if !bytes.Equal(before[i:i+4], base.Pix[i:i+4]) {
						t.Fatalf(`pixel %d,%d changed outside the overlay footprint`, x, y)
					}
				} else if overlay.NRGBAAt(ox, oy).A == 0xff {
					assert.Equal(t, overlay.NRGBAAt(ox, oy), base.NRGBAAt(x, y))
				}
			}
		}
	}
}

func TestOverBlendPartial(t *testing.T) {
	base := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	base.SetNRGBA(0, 0, color.NRGBA{R: 0, G: 0, B: 200, A: 0xff})
	overlay := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	overlay.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 0, B: 0, A: 0x80})
	require.NoError(t, OverBlend(base, overlay, 0, 0))
	got := base.NRGBAAt(0, 0)
	assert.Equal(t, uint8(0xff), got.A)
	assert.InDelta(t, 100, int(got.R), 1)
	assert.InDelta(t, 100, int(got.B), 1)
}

func TestOverBlendOutOfBounds(t *testing.T) {
	base := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	overlay := image.NewNRGBA(image.Rect(0, 0, 5, 5))
	for _, off := range []image.Point{{6, 0}, {0, 6}, {-1, 0}, {0, -1}} {
		err := OverBlend(base, overlay, off.X, off.Y)
		assert.True(t, errors.Is(err, errors.ErrOutOfBounds), off)
	}
	assert.NoError(t, OverBlend(base, overlay, 5, 5))
}

func TestFlattenIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	img := randomNRGBA(r, 16, 16)
	bg := color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}
	once := Flatten(img, bg)
	twice := Flatten(once, bg)
	assert.Equal(t, once.Pix, twice.Pix)
	for i := 3; i < len(once.Pix); i += 4 {
		assert.Equal(t, uint8(0xff), once.Pix[i])
	}
}

func TestFlattenArithmetic(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 0})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 0xff})
	img.SetNRGBA(2, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 0x80})
	out := Flatten(img, color.NRGBA{R: 0, G: 0, B: 0, A: 0xff})
	assert.Equal(t, color.NRGBA{A: 0xff}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 50, A: 0xff}, out.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{R: 100, G: 50, B: 25, A: 0xff}, out.NRGBAAt(2, 0))
}

func TestAlphaOf(t *testing.T) {
	src := image.NewRGBA(image.Rect(2, 2, 4, 4))
	src.SetRGBA(3, 3, color.RGBA{A: 0x40})
	m := AlphaOf(src)
	assert.Equal(t, image.Rect(0, 0, 2, 2), m.Rect)
	assert.Equal(t, uint8(0x40), m.AlphaAt(1, 1).A)
	assert.Equal(t, uint8(0), m.AlphaAt(0, 0).A)
}
