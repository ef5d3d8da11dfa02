package imaging

import (
	"fmt"
	"math"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// EdgeDetect performs Canny-style edge detection and returns a binary
// 1-channel raster with edges at 255.
//
// Parameters:
//   - src: 1- or 3-channel raster. Color input is reduced with BT601.
//   - thresholdLow: gradient magnitude (0-255) below which pixels are dropped.
//   - thresholdHigh: gradient magnitude (0-255) above which pixels are always
//     kept. Pixels between the two are kept only next to a strong edge.
//
// # Algorithm
//
//  1. 5x5 Gaussian blur (sigma about 1.4)
//  2. Sobel gradients; magnitude = sqrt(Gx² + Gy²), direction = atan2(Gy, Gx)
//  3. Non-maximum suppression along the gradient direction
//  4. Hysteresis with the two thresholds
//
// Unlike Convolve, the blur and gradient steps replicate edge pixels so the
// whole raster is covered. The outermost ring is never marked as an edge.
func EdgeDetect(src *raster.Raster, thresholdLow, thresholdHigh int) (*raster.Raster, error) {
	if thresholdLow < 0 || thresholdHigh > 255 || thresholdLow > thresholdHigh {
		return nil, fmt.Errorf("edge detect: thresholds must satisfy 0 <= low <= high <= 255, got %d/%d",
			thresholdLow, thresholdHigh)
	}
	gray, err := asGray(src)
	if err != nil {
		return nil, fmt.Errorf("edge detect: %w", err)
	}

	w, h := gray.Width, gray.Height
	plane := make([]float64, w*h)
	for i, v := range gray.Pix {
		plane[i] = float64(v)
	}

	blurred := gaussianBlur(plane, w, h)

	sobelX := raster.SobelX()
	sobelY := raster.SobelY()
	magnitude := make([]float64, w*h)
	direction := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := blurred[clamp(y+ky, 0, h-1)*w+clamp(x+kx, 0, w-1)]
					gx += v * float64(sobelX.Weight(kx, ky))
					// SobelY is bright-side-up; flip so +y points down the raster.
					gy -= v * float64(sobelY.Weight(kx, ky))
				}
			}
			magnitude[y*w+x] = math.Sqrt(gx*gx + gy*gy)
			direction[y*w+x] = math.Atan2(gy, gx)
		}
	}

	suppressed := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			angle := direction[i]
			mag := magnitude[i]

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1, n2 = magnitude[i-1], magnitude[i+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1, n2 = magnitude[i-w+1], magnitude[i+w-1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1, n2 = magnitude[i-w], magnitude[i+w]
			default:
				n1, n2 = magnitude[i-w-1], magnitude[i+w+1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}

	low, high := float64(thresholdLow), float64(thresholdHigh)
	dst := gray.NewLike(1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			val := suppressed[y*w+x]
			if val == 0 {
				continue
			}
			if val >= high {
				dst.Pix[y*w+x] = 255
				continue
			}
			if val < low {
				continue
			}
			strong := false
			for ky := -1; ky <= 1 && !strong; ky++ {
				for kx := -1; kx <= 1 && !strong; kx++ {
					if suppressed[clamp(y+ky, 0, h-1)*w+clamp(x+kx, 0, w-1)] >= high {
						strong = true
					}
				}
			}
			if strong {
				dst.Pix[y*w+x] = 255
			}
		}
	}
	return dst, nil
}

// gaussianBlur applies the 5x5 kernel below (sum 273) with replicated edges:
//
//	1  4  7  4  1
//	4 16 26 16  4
//	7 26 41 26  7
//	4 16 26 16  4
//	1  4  7  4  1
func gaussianBlur(plane []float64, w, h int) []float64 {
	kernel := [5][5]float64{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}
	const kernelSum = 273.0

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					sum += plane[clamp(y+ky, 0, h-1)*w+clamp(x+kx, 0, w-1)] * kernel[ky+2][kx+2]
				}
			}
			out[y*w+x] = sum / kernelSum
		}
	}
	return out
}

// clamp constrains val to [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
