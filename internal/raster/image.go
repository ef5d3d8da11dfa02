package raster

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/clone"
)

// FromImage copies a decoded image into a Raster.
//
// *image.Gray sources become 1-channel rasters. Every other color model is
// normalised to RGBA first and becomes a 3-channel raster; alpha is dropped,
// so translucent pixels keep their premultiplied color.
func FromImage(img image.Image) (*Raster, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: image bounds %v", ErrEmptyRaster, b)
	}

	if g, ok := img.(*image.Gray); ok {
		r, err := New(b.Dx(), b.Dy(), 1)
		if err != nil {
			return nil, err
		}
		for y := 0; y < r.Height; y++ {
			row := g.Pix[(y+b.Min.Y-g.Rect.Min.Y)*g.Stride+(b.Min.X-g.Rect.Min.X):]
			copy(r.Pix[y*r.Width:(y+1)*r.Width], row[:r.Width])
		}
		return r, nil
	}

	rgba := clone.AsRGBA(img)
	r, err := New(b.Dx(), b.Dy(), 3)
	if err != nil {
		return nil, err
	}
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			i := rgba.PixOffset(x+rgba.Rect.Min.X, y+rgba.Rect.Min.Y)
			r.SetRGB(x, y, rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2])
		}
	}
	return r, nil
}

// ToImage returns an *image.Gray for 1-channel rasters and an opaque
// *image.NRGBA for 3-channel rasters. The pixel data is copied.
func (r *Raster) ToImage() image.Image {
	rect := image.Rect(0, 0, r.Width, r.Height)
	if r.Channels == 1 {
		g := image.NewGray(rect)
		copy(g.Pix, r.Pix)
		return g
	}

	out := image.NewNRGBA(rect)
	for i, j := 0, 0; i < len(r.Pix); i, j = i+3, j+4 {
		out.Pix[j] = r.Pix[i]
		out.Pix[j+1] = r.Pix[i+1]
		out.Pix[j+2] = r.Pix[i+2]
		out.Pix[j+3] = 0xff
	}
	return out
}
