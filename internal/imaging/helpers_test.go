package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// grayFromRows builds a 1-channel raster from rows of values.
func grayFromRows(t *testing.T, rows [][]uint8) *raster.Raster {
	t.Helper()
	r, err := raster.New(len(rows[0]), len(rows), 1)
	require.NoError(t, err)
	for y, row := range rows {
		for x, v := range row {
			r.Set(x, y, v)
		}
	}
	return r
}

// uniformGray builds a width x height 1-channel raster filled with v.
func uniformGray(t *testing.T, width, height int, v uint8) *raster.Raster {
	t.Helper()
	r, err := raster.New(width, height, 1)
	require.NoError(t, err)
	for i := range r.Pix {
		r.Pix[i] = v
	}
	return r
}

// binaryFromStrings builds a mask where '#' is 255 and anything else 0.
func binaryFromStrings(t *testing.T, rows ...string) *raster.Raster {
	t.Helper()
	r, err := raster.New(len(rows[0]), len(rows), 1)
	require.NoError(t, err)
	for y, row := range rows {
		for x, c := range row {
			if c == '#' {
				r.Set(x, y, 255)
			}
		}
	}
	return r
}

// patternRGB builds a deterministic, non-uniform RGB raster.
func patternRGB(t *testing.T, width, height int) *raster.Raster {
	t.Helper()
	r, err := raster.New(width, height, 3)
	require.NoError(t, err)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r.SetRGB(x, y, uint8(x*37+y), uint8(y*53+x*3), uint8((x*y*7)%256))
		}
	}
	return r
}

// createTestImage writes a solid-color PNG into a temp dir and returns its
// path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writePNG(t, img)
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-image.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

// foregroundSubset reports whether every non-zero pixel of a is non-zero
// in b.
func foregroundSubset(a, b *raster.Raster) bool {
	for i, v := range a.Pix {
		if v != 0 && b.Pix[i] == 0 {
			return false
		}
	}
	return true
}
