package imaging

import (
	"fmt"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// Histogram holds the count of each 8-bit value in a 1-channel raster.
type Histogram [256]int

// ComputeHistogram counts the pixel values of a 1-channel raster.
func ComputeHistogram(src *raster.Raster) (Histogram, error) {
	var h Histogram
	if err := src.RequireChannels(1); err != nil {
		return h, fmt.Errorf("histogram: %w", err)
	}
	for _, v := range src.Pix {
		h[v]++
	}
	return h, nil
}

// Total returns the number of pixels counted.
func (h Histogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// LowHigh returns the lowest and highest value with a non-zero count, or
// (0, 255) when the histogram is empty.
func (h Histogram) LowHigh() (low, high int) {
	low, high = -1, -1
	for i, c := range h {
		if c == 0 {
			continue
		}
		if low < 0 {
			low = i
		}
		high = i
	}
	if low < 0 {
		return 0, 255
	}
	return low, high
}

// Expand stretches src so its darkest value maps to 0 and its brightest to
// 255. h must be src's histogram.
func Expand(src *raster.Raster, h Histogram) (*raster.Raster, error) {
	low, high := h.LowHigh()
	return ExpandRange(src, low, high, 0, 255)
}

// ExpandRange linearly remaps [lowIn, highIn] onto [lowOut, highOut]:
//
//	v' = lowOut + (v-lowIn)*(highOut-lowOut)/(highIn-lowIn)
//
// The product is formed before the integer division so lowIn maps exactly
// to lowOut and highIn to highOut. Values outside the input range are
// clamped to the output bounds. A zero input range returns an unchanged
// copy.
func ExpandRange(src *raster.Raster, lowIn, highIn, lowOut, highOut int) (*raster.Raster, error) {
	if err := src.RequireChannels(1); err != nil {
		return nil, fmt.Errorf("expand: %w", err)
	}
	if lowIn < 0 || highIn > 255 || lowIn > highIn {
		return nil, fmt.Errorf("expand: invalid input range [%d,%d]", lowIn, highIn)
	}
	if lowOut < 0 || highOut > 255 || lowOut > highOut {
		return nil, fmt.Errorf("expand: invalid output range [%d,%d]", lowOut, highOut)
	}
	if lowIn == highIn {
		return src.Clone(), nil
	}

	var table [256]uint8
	rangeIn, rangeOut := highIn-lowIn, highOut-lowOut
	for v := range table {
		switch {
		case v <= lowIn:
			table[v] = uint8(lowOut)
		case v >= highIn:
			table[v] = uint8(highOut)
		default:
			table[v] = uint8(lowOut + (v-lowIn)*rangeOut/rangeIn)
		}
	}
	return applyTable(src, &table), nil
}

// EqualizationTable builds the cumulative-distribution lookup
// table[i] = round(255 * cum[i] / total). The table is non-decreasing.
// An empty histogram yields the identity table.
func EqualizationTable(h Histogram) [256]uint8 {
	var table [256]uint8
	total := h.Total()
	if total == 0 {
		for i := range table {
			table[i] = uint8(i)
		}
		return table
	}

	cum := 0
	for i, c := range h {
		cum += c
		table[i] = uint8((2*255*cum + total) / (2 * total))
	}
	return table
}

// Equalize remaps a 1-channel raster through its equalization table.
func Equalize(src *raster.Raster) (*raster.Raster, error) {
	h, err := ComputeHistogram(src)
	if err != nil {
		return nil, fmt.Errorf("equalize: %w", err)
	}
	table := EqualizationTable(h)
	return applyTable(src, &table), nil
}

// OtsuThreshold returns the level that maximises the between-class
// variance of h. Pixels <= level form the background class.
func OtsuThreshold(h Histogram) int {
	total := float64(h.Total())
	if total == 0 {
		return 0
	}

	var sum float64
	for i, c := range h {
		sum += float64(i) * float64(c)
	}

	var sumB, wB, maximum float64
	level := 0
	for t, c := range h {
		wB += float64(c)
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}

		sumB += float64(t) * float64(c)
		mB := sumB / wB
		mF := (sum - sumB) / wF

		between := wB * wF * (mB - mF) * (mB - mF)
		if between > maximum {
			level = t
			maximum = between
		}
	}
	return level
}

// Threshold binarises a 1-channel raster: v > level becomes 255, anything
// else 0.
func Threshold(src *raster.Raster, level int) (*raster.Raster, error) {
	if err := src.RequireChannels(1); err != nil {
		return nil, fmt.Errorf("threshold: %w", err)
	}
	if level < 0 || level > 255 {
		return nil, fmt.Errorf("threshold: level %d outside 0-255", level)
	}

	var table [256]uint8
	for v := level + 1; v < 256; v++ {
		table[v] = 255
	}
	return applyTable(src, &table), nil
}

// applyTable maps every sample of src through table into a new raster.
func applyTable(src *raster.Raster, table *[256]uint8) *raster.Raster {
	dst := src.NewLike(src.Channels)
	for i, v := range src.Pix {
		dst.Pix[i] = table[v]
	}
	return dst
}
