package imaging

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// GrayscaleMethod selects how three color channels collapse into one.
type GrayscaleMethod int

const (
	// Average is floor((r+g+b)/3).
	Average GrayscaleMethod = iota
	// BT601 is the ITU-R BT.601 luma: round(0.299r + 0.587g + 0.114b).
	BT601
	// BT709 is the ITU-R BT.709 luminance: round(0.2125r + 0.7154g + 0.0721b).
	BT709
)

var grayscaleMethodNames = map[GrayscaleMethod]string{
	Average: "average",
	BT601:   "bt601",
	BT709:   "bt709",
}

// grayscaleFuncs is indexed by GrayscaleMethod.
var grayscaleFuncs = [...]func(r, g, b uint8) uint8{
	Average: averageGray,
	BT601:   bt601Gray,
	BT709:   bt709Gray,
}

func (m GrayscaleMethod) String() string {
	if name, ok := grayscaleMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("GrayscaleMethod(%d)", int(m))
}

// ParseGrayscaleMethod maps a tool argument to a method. The empty string
// selects BT601. "weighted" and "luminance" are accepted as aliases for
// BT601 and BT709.
func ParseGrayscaleMethod(s string) (GrayscaleMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "average", "mean":
		return Average, nil
	case "", "bt601", "weighted":
		return BT601, nil
	case "bt709", "luminance":
		return BT709, nil
	}
	return 0, fmt.Errorf("unknown grayscale method %q (want average, bt601 or bt709)", s)
}

func averageGray(r, g, b uint8) uint8 {
	return uint8((int(r) + int(g) + int(b)) / 3)
}

func bt601Gray(r, g, b uint8) uint8 {
	return uint8(math.Round(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)))
}

func bt709Gray(r, g, b uint8) uint8 {
	return uint8(math.Round(0.2125*float64(r) + 0.7154*float64(g) + 0.0721*float64(b)))
}

// GrayValue applies method to a single RGB triple.
func GrayValue(method GrayscaleMethod, r, g, b uint8) uint8 {
	return grayscaleFuncs[method](r, g, b)
}

// Grayscale reduces a 3-channel raster to a 1-channel raster of the same
// size.
//
// Returns raster.ErrUnsupportedChannels if src is not 3-channel, or an error
// if method is out of range.
func Grayscale(src *raster.Raster, method GrayscaleMethod) (*raster.Raster, error) {
	if err := src.RequireChannels(3); err != nil {
		return nil, fmt.Errorf("grayscale: %w", err)
	}
	if method < Average || method > BT709 {
		return nil, fmt.Errorf("grayscale: unknown method %v", method)
	}

	conv := grayscaleFuncs[method]
	dst := src.NewLike(1)
	for i, j := 0, 0; j < len(dst.Pix); i, j = i+3, j+1 {
		dst.Pix[j] = conv(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
	}
	return dst, nil
}

// Split separates a 3-channel raster into red, green and blue planes.
func Split(src *raster.Raster) (red, green, blue *raster.Raster, err error) {
	if err := src.RequireChannels(3); err != nil {
		return nil, nil, nil, fmt.Errorf("split: %w", err)
	}

	red, green, blue = src.NewLike(1), src.NewLike(1), src.NewLike(1)
	for i, j := 0, 0; j < len(red.Pix); i, j = i+3, j+1 {
		red.Pix[j] = src.Pix[i]
		green.Pix[j] = src.Pix[i+1]
		blue.Pix[j] = src.Pix[i+2]
	}
	return red, green, blue, nil
}

// Combine stacks three 1-channel planes into an RGB raster. It is the
// inverse of Split.
//
// Returns raster.ErrDimensionMismatch if the planes differ in size.
func Combine(red, green, blue *raster.Raster) (*raster.Raster, error) {
	for _, p := range []*raster.Raster{red, green, blue} {
		if err := p.RequireChannels(1); err != nil {
			return nil, fmt.Errorf("combine: %w", err)
		}
	}
	if !red.SameSize(green) || !red.SameSize(blue) {
		return nil, fmt.Errorf("%w: combine planes %dx%d, %dx%d, %dx%d", raster.ErrDimensionMismatch,
			red.Width, red.Height, green.Width, green.Height, blue.Width, blue.Height)
	}

	dst := red.NewLike(3)
	for i, j := 0, 0; j < len(red.Pix); i, j = i+3, j+1 {
		dst.Pix[i] = red.Pix[j]
		dst.Pix[i+1] = green.Pix[j]
		dst.Pix[i+2] = blue.Pix[j]
	}
	return dst, nil
}

// ToRGB replicates a 1-channel raster into three identical channels.
// A 3-channel input is returned as a copy.
func ToRGB(src *raster.Raster) (*raster.Raster, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if src.Channels == 3 {
		return src.Clone(), nil
	}
	return Combine(src, src, src)
}

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSLColor represents a color in HSL space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorResult describes a sampled pixel.
type ColorResult struct {
	X    int      `json:"x"`
	Y    int      `json:"y"`
	Hex  string   `json:"hex"`
	RGB  RGBColor `json:"rgb"`
	HSL  HSLColor `json:"hsl"`
	Gray uint8    `json:"gray"` // BT.601 luma, or the value itself for 1-channel rasters
}

// SampleColor reads the pixel at (x, y).
//
// Parameters:
//   - src: 1- or 3-channel raster.
//   - x, y: 0-based coordinates inside the raster.
//
// Returns an error if the coordinates are outside the raster.
func SampleColor(src *raster.Raster, x, y int) (*ColorResult, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if !src.InBounds(x, y) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside raster bounds %dx%d", x, y, src.Width, src.Height)
	}

	r, g, b := src.RGBAt(x, y)
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, l := c.Hsl()

	gray := src.At(x, y)
	if src.Channels == 3 {
		gray = bt601Gray(r, g, b)
	}

	return &ColorResult{
		X:    x,
		Y:    y,
		Hex:  strings.ToUpper(c.Hex()),
		RGB:  RGBColor{R: r, G: g, B: b},
		HSL:  HSLColor{H: int(math.Round(h)) % 360, S: int(math.Round(s * 100)), L: int(math.Round(l * 100))},
		Gray: gray,
	}, nil
}
