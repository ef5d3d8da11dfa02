package raster

import "errors"

// Validation errors shared by every raster operation.
var (
	ErrDimensionMismatch         = errors.New("raster: dimension mismatch")
	ErrInvalidStructuringElement = errors.New("raster: invalid structuring element")
	ErrInvalidKernel             = errors.New("raster: invalid kernel")
	ErrEmptyRaster               = errors.New("raster: empty raster")
	ErrUnsupportedChannels       = errors.New("raster: unsupported channel count")
)
