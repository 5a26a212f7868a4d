/*
A PictureFrame is the full-screen canvas a capture is shown on.

It has exactly the device's size and is filled with a background colour;
panels are pasted on top of it in the order they were added. The finished
buffer is opaque and ready to be encoded for the device.
*/
package frame

import (
	"image"
	"image/color"
	"image/draw"
)

type Panelled interface {
	Render(buffer *image.NRGBA) error
}

// This is the structure which holds the screen data.
type PictureFrame struct {
	Bounds   image.Rectangle
	Buffer   *image.NRGBA // what is encoded and written to the device
	BGColour color.NRGBA
	panels   []Panelled
}

// NewPictureFrame makes a canvas the size of bounds, painted bg.
func NewPictureFrame(bounds image.Rectangle, bg color.NRGBA) *PictureFrame {
	pf := &PictureFrame{
		Bounds:   bounds,
		Buffer:   image.NewNRGBA(bounds),
		panels:   make([]Panelled, 0, 2),
		BGColour: bg,
	}
	pf.BGColour.A = 0xff
	pf.RepaintBackground()
	return pf
}

func (pf *PictureFrame) RepaintBackground() {
	draw.Draw(pf.Buffer, pf.Bounds, &image.Uniform{pf.BGColour}, image.Point{}, draw.Src)
}

func (pf *PictureFrame) AddPanel(panel Panelled) {
	pf.panels = append(pf.panels, panel)
}

// Render repaints the background and then every panel.
func (pf *PictureFrame) Render() error {
	pf.RepaintBackground()
	for _, panel := range pf.panels {
		if err := panel.Render(pf.Buffer); err != nil {
			return err
		}
	}
	return nil
}
