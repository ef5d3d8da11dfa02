package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// RasterResult is a raster encoded as base64 PNG for transport.
type RasterResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Channels    int    `json:"channels"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodeRaster renders r as PNG. A scale other than 1 (and > 0) resizes the
// rendered image with Lanczos resampling; label rasters should be encoded
// at scale 1 so their values survive.
func EncodeRaster(r *raster.Raster, scale float64) (*RasterResult, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var img image.Image = r.ToImage()
	if scale != 1.0 && scale > 0 {
		newWidth := max(1, int(float64(r.Width)*scale))
		newHeight := max(1, int(float64(r.Height)*scale))
		img = imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode raster: %w", err)
	}

	return &RasterResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		Channels:    r.Channels,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Crop extracts the rectangle (x1,y1)-(x2,y2), x2/y2 exclusive, into a new
// raster with the same channel count.
func Crop(r *raster.Raster, x1, y1, x2, y2 int) (*raster.Raster, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if x1 < 0 || y1 < 0 || x2 > r.Width || y2 > r.Height {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside raster bounds %dx%d",
			x1, y1, x2, y2, r.Width, r.Height)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	if r.Channels == 1 {
		out, err := raster.New(x2-x1, y2-y1, 1)
		if err != nil {
			return nil, err
		}
		for y := y1; y < y2; y++ {
			copy(out.Pix[(y-y1)*out.Width:], r.Pix[y*r.Width+x1:y*r.Width+x2])
		}
		return out, nil
	}

	return raster.FromImage(imaging.Crop(r.ToImage(), image.Rect(x1, y1, x2, y2)))
}

// CropQuadrant extracts a named region: top-left, top-right, bottom-left,
// bottom-right, top-half, bottom-half, left-half, right-half or center.
func CropQuadrant(r *raster.Raster, region string) (*raster.Raster, error) {
	w, h := r.Width, r.Height
	midX, midY := w/2, h/2

	var x1, y1, x2, y2 int
	switch region {
	case "top-left":
		x1, y1, x2, y2 = 0, 0, midX, midY
	case "top-right":
		x1, y1, x2, y2 = midX, 0, w, midY
	case "bottom-left":
		x1, y1, x2, y2 = 0, midY, midX, h
	case "bottom-right":
		x1, y1, x2, y2 = midX, midY, w, h
	case "top-half":
		x1, y1, x2, y2 = 0, 0, w, midY
	case "bottom-half":
		x1, y1, x2, y2 = 0, midY, w, h
	case "left-half":
		x1, y1, x2, y2 = 0, 0, midX, h
	case "right-half":
		x1, y1, x2, y2 = midX, 0, w, h
	case "center":
		// Center 50% of the raster
		qW, qH := w/4, h/4
		x1, y1, x2, y2 = qW, qH, w-qW, h-qH
	default:
		return nil, fmt.Errorf("unknown region: %s", region)
	}

	return Crop(r, x1, y1, x2, y2)
}
