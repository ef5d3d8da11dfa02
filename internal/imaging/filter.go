package imaging

import (
	"fmt"
	"math"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// Convolve applies kernel to every channel of src.
//
// For each pixel in the interior band (offset <= x < Width-offset and
// offset <= y < Height-offset) the weighted neighbourhood sum is divided by
// the kernel divisor with truncating integer division and clamped to
// [0,255]. Pixels within offset of any edge are left at 0; the filter never
// extrapolates past the raster.
//
// Returns raster.ErrInvalidKernel for a zero-value kernel.
func Convolve(src *raster.Raster, kernel raster.Kernel) (*raster.Raster, error) {
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("convolve: %w", err)
	}
	if kernel.IsZero() {
		return nil, fmt.Errorf("%w: kernel not initialised", raster.ErrInvalidKernel)
	}

	off := kernel.Offset()
	div := kernel.Divisor()
	ch := src.Channels
	dst := src.NewLike(ch)

	for y := off; y < src.Height-off; y++ {
		for x := off; x < src.Width-off; x++ {
			for c := 0; c < ch; c++ {
				sum := 0
				for ky := -off; ky <= off; ky++ {
					row := (y + ky) * src.Width
					for kx := -off; kx <= off; kx++ {
						w := kernel.Weight(kx, ky)
						if w == 0 {
							continue
						}
						sum += int(src.Pix[(row+x+kx)*ch+c]) * w
					}
				}
				dst.Pix[(y*src.Width+x)*ch+c] = raster.Clamp(sum / div)
			}
		}
	}
	return dst, nil
}

// GradientMagnitude combines two directional responses into
// round(sqrt(a^2 + b^2)) per pixel, saturating at 255.
//
// Both inputs must be 1-channel and the same size, otherwise
// raster.ErrDimensionMismatch or raster.ErrUnsupportedChannels is returned.
func GradientMagnitude(a, b *raster.Raster) (*raster.Raster, error) {
	if err := a.RequireChannels(1); err != nil {
		return nil, fmt.Errorf("gradient magnitude: %w", err)
	}
	if err := b.RequireChannels(1); err != nil {
		return nil, fmt.Errorf("gradient magnitude: %w", err)
	}
	if !a.SameSize(b) {
		return nil, fmt.Errorf("%w: gradient inputs %dx%d and %dx%d",
			raster.ErrDimensionMismatch, a.Width, a.Height, b.Width, b.Height)
	}

	dst := a.NewLike(1)
	for i := range dst.Pix {
		av, bv := float64(a.Pix[i]), float64(b.Pix[i])
		dst.Pix[i] = raster.Clamp(int(math.Round(math.Sqrt(av*av + bv*bv))))
	}
	return dst, nil
}

// SobelResult holds the two directional Sobel responses and their
// magnitude.
type SobelResult struct {
	Vertical   *raster.Raster
	Horizontal *raster.Raster
	Magnitude  *raster.Raster
}

// Sobel runs both Sobel kernels over a 1-channel raster and combines them.
// A 3-channel input is reduced with BT601 first.
func Sobel(src *raster.Raster) (*SobelResult, error) {
	gray, err := asGray(src)
	if err != nil {
		return nil, fmt.Errorf("sobel: %w", err)
	}

	vertical, err := Convolve(gray, raster.SobelX())
	if err != nil {
		return nil, err
	}
	horizontal, err := Convolve(gray, raster.SobelY())
	if err != nil {
		return nil, err
	}
	mag, err := GradientMagnitude(vertical, horizontal)
	if err != nil {
		return nil, err
	}
	return &SobelResult{Vertical: vertical, Horizontal: horizontal, Magnitude: mag}, nil
}

// asGray returns src itself when it is 1-channel and its BT601 reduction
// otherwise.
func asGray(src *raster.Raster) (*raster.Raster, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if src.Channels == 1 {
		return src, nil
	}
	return Grayscale(src, BT601)
}
