package raster

import (
	"bytes"
	"fmt"
)

// Raster is an 8-bit pixel buffer with one or three interleaved channels.
//
// Pixels are stored row-major: the value of channel c at (x, y) lives at
// Pix[(y*Width+x)*Channels+c]. The length of Pix is always
// Width*Height*Channels.
type Raster struct {
	// Width is the number of columns, always > 0.
	Width int

	// Height is the number of rows, always > 0.
	Height int

	// Channels is 1 for grayscale/label rasters and 3 for RGB rasters.
	Channels int

	// Pix holds the pixel values.
	Pix []uint8
}

// New allocates a zero-filled raster.
//
// Returns ErrEmptyRaster if width or height is not positive and
// ErrUnsupportedChannels if channels is not 1 or 3.
func New(width, height, channels int) (*Raster, error) {
	if err := validateShape(width, height, channels); err != nil {
		return nil, err
	}
	return &Raster{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}, nil
}

// FromPix wraps an existing buffer without copying it.
//
// The buffer length must equal width*height*channels. The caller gives up
// ownership of pix; mutating it afterwards breaks the immutability contract.
func FromPix(width, height, channels int, pix []uint8) (*Raster, error) {
	if err := validateShape(width, height, channels); err != nil {
		return nil, err
	}
	if len(pix) != width*height*channels {
		return nil, fmt.Errorf("%w: buffer has %d bytes, want %d",
			ErrDimensionMismatch, len(pix), width*height*channels)
	}
	return &Raster{Width: width, Height: height, Channels: channels, Pix: pix}, nil
}

func validateShape(width, height, channels int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyRaster, width, height)
	}
	if channels != 1 && channels != 3 {
		return fmt.Errorf("%w: %d", ErrUnsupportedChannels, channels)
	}
	return nil
}

// Validate checks the raster's shape invariants. Rasters built by hand
// (rather than through New or FromPix) should be validated before use.
func (r *Raster) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil raster", ErrEmptyRaster)
	}
	if err := validateShape(r.Width, r.Height, r.Channels); err != nil {
		return err
	}
	if len(r.Pix) != r.Width*r.Height*r.Channels {
		return fmt.Errorf("%w: buffer has %d bytes, want %d",
			ErrDimensionMismatch, len(r.Pix), r.Width*r.Height*r.Channels)
	}
	return nil
}

// RequireChannels validates r and checks that it has exactly the given
// channel count.
func (r *Raster) RequireChannels(channels int) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Channels != channels {
		return fmt.Errorf("%w: got %d channels, want %d", ErrUnsupportedChannels, r.Channels, channels)
	}
	return nil
}

// NewLike allocates a zero-filled raster with the same width and height as
// r and the given channel count.
func (r *Raster) NewLike(channels int) *Raster {
	return &Raster{
		Width:    r.Width,
		Height:   r.Height,
		Channels: channels,
		Pix:      make([]uint8, r.Width*r.Height*channels),
	}
}

// PixOffset returns the index of the first channel of (x, y) in Pix.
func (r *Raster) PixOffset(x, y int) int {
	return (y*r.Width + x) * r.Channels
}

// InBounds reports whether (x, y) lies in [0,Width) x [0,Height).
func (r *Raster) InBounds(x, y int) bool {
	return x >= 0 && x < r.Width && y >= 0 && y < r.Height
}

// At returns the first channel value at (x, y). For grayscale rasters this
// is the pixel value.
func (r *Raster) At(x, y int) uint8 {
	return r.Pix[r.PixOffset(x, y)]
}

// Set writes v to every channel at (x, y).
func (r *Raster) Set(x, y int, v uint8) {
	i := r.PixOffset(x, y)
	for c := 0; c < r.Channels; c++ {
		r.Pix[i+c] = v
	}
}

// RGBAt returns the three channel values at (x, y) of an RGB raster.
// For a grayscale raster the single value is returned three times.
func (r *Raster) RGBAt(x, y int) (red, green, blue uint8) {
	i := r.PixOffset(x, y)
	if r.Channels == 1 {
		return r.Pix[i], r.Pix[i], r.Pix[i]
	}
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

// SetRGB writes the three channels at (x, y) of an RGB raster.
func (r *Raster) SetRGB(x, y int, red, green, blue uint8) {
	i := r.PixOffset(x, y)
	r.Pix[i] = red
	r.Pix[i+1] = green
	r.Pix[i+2] = blue
}

// SameSize reports whether r and o have identical width and height.
func (r *Raster) SameSize(o *Raster) bool {
	return r.Width == o.Width && r.Height == o.Height
}

// Clone returns a deep copy of r.
func (r *Raster) Clone() *Raster {
	pix := make([]uint8, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Width: r.Width, Height: r.Height, Channels: r.Channels, Pix: pix}
}

// Equal reports whether r and o have the same shape and pixel values.
func (r *Raster) Equal(o *Raster) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.Width == o.Width && r.Height == o.Height &&
		r.Channels == o.Channels && bytes.Equal(r.Pix, o.Pix)
}

// Clamp limits v to the displayable 8-bit range.
func Clamp(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
