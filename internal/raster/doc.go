// Package raster defines the in-memory pixel buffer and the small parameter
// grids shared by every algorithm in this module.
//
// A Raster is a contiguous 8-bit buffer with one (grayscale) or three (RGB)
// interleaved channels stored row-major. Algorithms treat a Raster as
// immutable once returned: they read their inputs and allocate a fresh
// output rather than writing in place.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner:
//   - X: horizontal position, valid range 0 to Width-1
//   - Y: vertical position, valid range 0 to Height-1
//
// At and Set do not check bounds. Callers outside this module are expected to
// stay inside the raster; algorithms inside it check every neighbour
// coordinate with InBounds before dereferencing it.
//
// # Parameter Grids
//
// StructuringElement is a square binary grid used by morphology and
// connected-component labeling. Kernel is a square signed grid plus divisor
// used by convolution. Both require an odd side length so that a centre
// pixel exists; constructors reject anything else.
//
// # Errors
//
// Validation failures are reported with the sentinel errors in errors.go,
// wrapped with context. Use errors.Is to test for a specific kind.
package raster
