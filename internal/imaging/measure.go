package imaging

import (
	"fmt"
	"math"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// CompareResult contains pixel-wise comparison statistics of two rasters.
type CompareResult struct {
	SimilarityScore   float64 `json:"similarity_score"`
	PixelsDifferent   int     `json:"pixels_different"`
	TotalPixels       int     `json:"total_pixels"`
	AverageDiff       float64 `json:"average_diff"`
	MaxDiff           int     `json:"max_diff"`
	ForegroundAdded   int     `json:"foreground_added"`
	ForegroundRemoved int     `json:"foreground_removed"`
}

// CompareRasters compares two rasters of the same size and channel count.
//
// A pixel counts as different when its mean per-channel difference exceeds
// tolerance. ForegroundAdded and ForegroundRemoved count pixels that went
// from all-zero to non-zero and the reverse. Together they summarise
// what a morphological step did to a mask.
//
// Returns raster.ErrDimensionMismatch if the shapes differ.
func CompareRasters(a, b *raster.Raster, tolerance int) (*CompareResult, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if !a.SameSize(b) || a.Channels != b.Channels {
		return nil, fmt.Errorf("%w: compare %dx%dx%d with %dx%dx%d", raster.ErrDimensionMismatch,
			a.Width, a.Height, a.Channels, b.Width, b.Height, b.Channels)
	}

	ch := a.Channels
	total := a.Width * a.Height
	res := &CompareResult{TotalPixels: total}
	var totalDiff float64

	for i := 0; i < len(a.Pix); i += ch {
		sum := 0
		aSet, bSet := false, false
		for c := 0; c < ch; c++ {
			d := absDiff(a.Pix[i+c], b.Pix[i+c])
			sum += d
			res.MaxDiff = max(res.MaxDiff, d)
			aSet = aSet || a.Pix[i+c] != 0
			bSet = bSet || b.Pix[i+c] != 0
		}
		diff := float64(sum) / float64(ch)
		totalDiff += diff
		if diff > float64(tolerance) {
			res.PixelsDifferent++
		}
		switch {
		case !aSet && bSet:
			res.ForegroundAdded++
		case aSet && !bSet:
			res.ForegroundRemoved++
		}
	}

	res.SimilarityScore = math.Round((1.0-float64(res.PixelsDifferent)/float64(total))*1000) / 1000
	res.AverageDiff = math.Round(totalDiff/float64(total)*100) / 100
	return res, nil
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
