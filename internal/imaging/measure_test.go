package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

func TestCompareRasters_Identical(t *testing.T) {
	src := patternRGB(t, 8, 8)
	res, err := CompareRasters(src, src.Clone(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.SimilarityScore)
	assert.Equal(t, 0, res.PixelsDifferent)
	assert.Equal(t, 64, res.TotalPixels)
	assert.Equal(t, 0, res.MaxDiff)
}

func TestCompareRasters_MaskChanges(t *testing.T) {
	before := binaryFromStrings(t,
		"#...",
		"....",
	)
	after := binaryFromStrings(t,
		"....",
		".##.",
	)

	res, err := CompareRasters(before, after, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, res.PixelsDifferent)
	assert.Equal(t, 2, res.ForegroundAdded)
	assert.Equal(t, 1, res.ForegroundRemoved)
	assert.Equal(t, 255, res.MaxDiff)
	assert.Equal(t, 0.625, res.SimilarityScore)
}

func TestCompareRasters_DimensionMismatch(t *testing.T) {
	_, err := CompareRasters(uniformGray(t, 2, 2, 0), uniformGray(t, 2, 3, 0), 0)
	require.ErrorIs(t, err, raster.ErrDimensionMismatch)

	_, err = CompareRasters(uniformGray(t, 2, 2, 0), patternRGB(t, 2, 2), 0)
	require.ErrorIs(t, err, raster.ErrDimensionMismatch)
}

func TestAbsDiff(t *testing.T) {
	assert.Equal(t, 5, absDiff(10, 5))
	assert.Equal(t, 5, absDiff(5, 10))
	assert.Equal(t, 255, absDiff(0, 255))
}
