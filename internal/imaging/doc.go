// Package imaging implements the pixel algorithms of the toolkit and the
// file collaborators that feed them.
//
// Every algorithm takes a *raster.Raster plus a small parameter value and
// returns a freshly allocated raster (or, for histograms, plain counts). No
// function mutates its input.
//
//   - Color conversion: Grayscale, Split, Combine, ToRGB, SampleColor
//   - Convolution: Convolve, GradientMagnitude, Sobel, EdgeDetect
//   - Binary morphology: Dilate, Erode, Open, Close, Border, FillHoles
//   - Histograms: ComputeHistogram, Expand, ExpandRange, Equalize,
//     OtsuThreshold, Threshold
//   - Tonal adjustment: Brightness, Contrast, Solarize, Desaturate
//
// # Coordinate System
//
// All pixel coordinates are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Border Policy
//
// Convolution and morphology only compute pixels whose whole window lies
// inside the raster. The outer band, as wide as the window offset, is left
// at 0. Nothing is mirrored or extrapolated.
//
// # Thread Safety
//
// The algorithms are stateless and may run concurrently. RasterCache is safe
// for concurrent use; the rasters it hands out are shared and must not be
// modified.
//
// # Error Handling
//
// Validation failures wrap the sentinel errors of package raster
// (ErrDimensionMismatch, ErrInvalidKernel, ErrInvalidStructuringElement,
// ErrEmptyRaster, ErrUnsupportedChannels). No partial output is returned on
// error.
package imaging
