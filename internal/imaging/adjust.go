package imaging

import (
	"fmt"
	"math"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// Adjustments bundles the tonal corrections applied by Adjust. The zero
// value of Contrast, Brightness and Solarize is neutral; Saturation 1 is
// neutral.
type Adjustments struct {
	// Brightness is added to every sample, -255 to 255.
	Brightness int `json:"brightness" yaml:"brightness,omitempty"`

	// Contrast is -255 to 255; 0 leaves the raster unchanged.
	Contrast float64 `json:"contrast" yaml:"contrast,omitempty"`

	// Solarize inverts samples above this level. 255 (or nil) disables it.
	Solarize *int `json:"solarize,omitempty" yaml:"solarize,omitempty"`

	// Saturation scales chroma toward BT.709 luminance: 1 keeps the color,
	// 0 yields gray. Nil leaves the raster unchanged.
	Saturation *float64 `json:"saturation,omitempty" yaml:"saturation,omitempty"`
}

// Adjust applies brightness, contrast, solarization and desaturation in
// that order.
func Adjust(src *raster.Raster, a Adjustments) (*raster.Raster, error) {
	out, err := Brightness(src, a.Brightness)
	if err != nil {
		return nil, err
	}
	if a.Contrast != 0 {
		if out, err = Contrast(out, a.Contrast); err != nil {
			return nil, err
		}
	}
	if a.Solarize != nil {
		if out, err = Solarize(out, *a.Solarize); err != nil {
			return nil, err
		}
	}
	if a.Saturation != nil {
		if out, err = Desaturate(out, *a.Saturation); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Brightness adds delta to every sample, clamping to [0,255].
func Brightness(src *raster.Raster, delta int) (*raster.Raster, error) {
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("brightness: %w", err)
	}
	if delta < -255 || delta > 255 {
		return nil, fmt.Errorf("brightness: delta %d outside -255..255", delta)
	}

	var table [256]uint8
	for v := range table {
		table[v] = raster.Clamp(v + delta)
	}
	return applyTable(src, &table), nil
}

// Contrast scales every sample around 128 by
// 259(c+255) / (255(259-c)), clamping to [0,255].
func Contrast(src *raster.Raster, c float64) (*raster.Raster, error) {
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("contrast: %w", err)
	}
	if c < -255 || c > 255 {
		return nil, fmt.Errorf("contrast: %v outside -255..255", c)
	}

	factor := (259 * (c + 255)) / (255 * (259 - c))
	var table [256]uint8
	for v := range table {
		table[v] = raster.Clamp(int(math.Round(factor*float64(v-128) + 128)))
	}
	return applyTable(src, &table), nil
}

// Solarize inverts every sample strictly above level.
func Solarize(src *raster.Raster, level int) (*raster.Raster, error) {
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("solarize: %w", err)
	}
	if level < 0 || level > 255 {
		return nil, fmt.Errorf("solarize: level %d outside 0-255", level)
	}

	var table [256]uint8
	for v := range table {
		if v > level {
			table[v] = uint8(255 - v)
		} else {
			table[v] = uint8(v)
		}
	}
	return applyTable(src, &table), nil
}

// Desaturate moves each channel toward the pixel's BT.709 luminance Y:
// c' = round(Y + f*(c-Y)). f must be in [0,1]. A 1-channel raster is
// returned as a copy.
func Desaturate(src *raster.Raster, f float64) (*raster.Raster, error) {
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("desaturate: %w", err)
	}
	if f < 0 || f > 1 {
		return nil, fmt.Errorf("desaturate: factor %v outside 0..1", f)
	}
	if src.Channels == 1 {
		return src.Clone(), nil
	}

	dst := src.NewLike(3)
	for i := 0; i < len(src.Pix); i += 3 {
		y := float64(bt709Gray(src.Pix[i], src.Pix[i+1], src.Pix[i+2]))
		for c := 0; c < 3; c++ {
			dst.Pix[i+c] = raster.Clamp(int(math.Round(y + f*(float64(src.Pix[i+c])-y))))
		}
	}
	return dst, nil
}
