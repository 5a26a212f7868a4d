package frame

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drummonds/fbsnap/internal/panel"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

func TestBackground(t *testing.T) {
	pf := NewPictureFrame(image.Rect(0, 0, 8, 6), color.NRGBA{R: 1, G: 2, B: 3})
	require.NoError(t, pf.Render())
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 0xff}, pf.Buffer.NRGBAAt(7, 5))

	// the background is always opaque
	pf = NewPictureFrame(image.Rect(0, 0, 2, 2), color.NRGBA{R: 9, A: 0x10})
	assert.Equal(t, color.NRGBA{R: 9, A: 0xff}, pf.Buffer.NRGBAAt(0, 0))
}

func TestCentredPanel(t *testing.T) {
	red := color.NRGBA{R: 0xff, A: 0xff}
	pf := NewPictureFrame(image.Rect(0, 0, 100, 50), color.NRGBA{})
	p := panel.NewImagePanel(solid(20, 10, red))
	p.Fit(pf.Bounds)
	assert.False(t, p.Scaled())
	assert.Equal(t, image.Rect(40, 20, 60, 30), p.Location)
	pf.AddPanel(p)
	require.NoError(t, pf.Render())

	assert.Equal(t, red, pf.Buffer.NRGBAAt(40, 20))
	assert.Equal(t, red, pf.Buffer.NRGBAAt(59, 29))
	assert.Equal(t, color.NRGBA{A: 0xff}, pf.Buffer.NRGBAAt(39, 20))
	assert.Equal(t, color.NRGBA{A: 0xff}, pf.Buffer.NRGBAAt(60, 29))
}

func TestOversizedPanelShrinks(t *testing.T) {
	pf := NewPictureFrame(image.Rect(0, 0, 100, 50), color.NRGBA{})
	p := panel.NewImagePanel(solid(300, 300, color.NRGBA{G: 0xff, A: 0xff}))
	p.Fit(pf.Bounds)
	assert.True(t, p.Scaled())
	assert.Equal(t, image.Rect(25, 0, 75, 50), p.Location)
	pf.AddPanel(p)
	require.NoError(t, pf.Render())
	assert.Equal(t, uint8(0xff), pf.Buffer.NRGBAAt(50, 25).G)
	assert.Equal(t, uint8(0), pf.Buffer.NRGBAAt(10, 25).G)
}
