package imaging

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

func TestRasterCache_Load(t *testing.T) {
	path := createTestImage(t, 20, 10, color.RGBA{255, 0, 0, 255})
	cache := NewRasterCache()

	r, err := cache.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, r.Width)
	assert.Equal(t, 10, r.Height)
	assert.Equal(t, 3, r.Channels)
	red, green, blue := r.RGBAt(5, 5)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{red, green, blue})

	again, err := cache.Load(path)
	require.NoError(t, err)
	assert.Same(t, r, again, "second load should hit the cache")
	assert.Equal(t, 1, cache.Len())
}

func TestRasterCache_LoadGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.SetGray(1, 2, color.Gray{Y: 99})
	path := writePNG(t, img)

	r, err := NewRasterCache().Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Channels)
	assert.Equal(t, uint8(99), r.At(1, 2))
}

func TestRasterCache_Load_NonExistent(t *testing.T) {
	_, err := NewRasterCache().Load("/nonexistent/path/image.png")
	require.Error(t, err)
}

func TestRasterCache_Load_InvalidImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := NewRasterCache().Load(path)
	require.Error(t, err)
}

func TestRasterCache_EvictAndClear(t *testing.T) {
	cache := NewRasterCache()
	p1 := createTestImage(t, 5, 5, color.White)
	p2 := createTestImage(t, 6, 6, color.Black)

	_, err := cache.Load(p1)
	require.NoError(t, err)
	_, err = cache.Load(p2)
	require.NoError(t, err)
	require.Equal(t, 2, cache.Len())

	cache.Evict(p1)
	assert.Equal(t, 1, cache.Len())
	cache.Evict("/not/cached.png")
	assert.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestRasterCache_SaveReplacesCachedRaster(t *testing.T) {
	cache := NewRasterCache()
	path := createTestImage(t, 4, 4, color.Black)

	before, err := cache.Load(path)
	require.NoError(t, err)
	require.Equal(t, uint8(0), before.At(1, 1))

	require.NoError(t, cache.Save(path, uniformGray(t, 4, 4, 200)))
	assert.Equal(t, 0, cache.Len())

	after, err := cache.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Channels)
	assert.Equal(t, uint8(200), after.At(1, 1))
}

func TestRasterCache_EvictOtherSpelling(t *testing.T) {
	cache := NewRasterCache()
	path := createTestImage(t, 3, 3, color.White)
	dir, name := filepath.Split(path)

	_, err := cache.Load(path)
	require.NoError(t, err)
	cache.Evict(dir + "./" + name)
	assert.Equal(t, 0, cache.Len())
}

func TestRasterCache_ConcurrentAccess(t *testing.T) {
	path := createTestImage(t, 16, 16, color.RGBA{0, 128, 255, 255})
	cache := NewRasterCache()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent load failed: %v", err)
	}
}

func TestLoadRasterInfo(t *testing.T) {
	path := createTestImage(t, 30, 20, color.White)

	info, err := LoadRasterInfo(NewRasterCache(), path)
	require.NoError(t, err)
	assert.Equal(t, 30, info.Width)
	assert.Equal(t, 20, info.Height)
	assert.Equal(t, 3, info.Channels)
	assert.Equal(t, "png", info.Format)
	assert.Greater(t, info.FileSizeBytes, int64(0))
}

func TestSaveRaster_Formats(t *testing.T) {
	src := binaryFromStrings(t,
		"....",
		".##.",
		".##.",
		"....",
	)

	for _, ext := range []string{".png", ".bmp", ".tif"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "out"+ext)
			require.NoError(t, SaveRaster(path, src))

			back, err := NewRasterCache().Load(path)
			require.NoError(t, err)
			assert.Equal(t, 4, back.Width)
			assert.Equal(t, uint8(255), back.At(1, 1))
			assert.Equal(t, uint8(0), back.At(0, 0))
		})
	}
}

func TestSaveRaster_UnknownExtension(t *testing.T) {
	src := uniformGray(t, 2, 2, 1)
	err := SaveRaster(filepath.Join(t.TempDir(), "out.xyz"), src)
	require.Error(t, err)

	err = SaveRaster(filepath.Join(t.TempDir(), "out.png"), &raster.Raster{})
	require.ErrorIs(t, err, raster.ErrEmptyRaster)
}
