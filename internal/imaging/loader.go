package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// RasterCache provides thread-safe caching of decoded rasters keyed by file
// path.
//
// Cached rasters are shared between callers and must be treated as
// read-only; every operation in this module allocates its own output.
//
// # Memory Management
//
// Cached rasters remain in memory until explicitly removed via Evict() or
// Clear(). Save() writes a raster and evicts its path in one step.
//
// # Example Usage
//
//	cache := imaging.NewRasterCache()
//	r, err := cache.Load("/path/to/image.png")
//	if err != nil {
//	    return err
//	}
//	gray, err := imaging.Grayscale(r, imaging.BT601)
type RasterCache struct {
	mu      sync.RWMutex
	rasters map[string]cachedRaster
}

type cachedRaster struct {
	raster *raster.Raster
	format string
}

// NewRasterCache creates an empty cache.
func NewRasterCache() *RasterCache {
	return &RasterCache{
		rasters: make(map[string]cachedRaster),
	}
}

// Load returns the raster for path, decoding it from disk on first use.
//
// Parameters:
//   - path: File path. Supported formats are PNG, JPEG, GIF, BMP, TIFF and
//     WebP.
//
// Returns:
//   - *raster.Raster: 1-channel for grayscale sources, 3-channel otherwise.
//   - error: Non-nil if the file cannot be opened, decoded or converted.
//
// Paths are cached by their absolute, cleaned form.
func (c *RasterCache) Load(path string) (*raster.Raster, error) {
	entry, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return entry.raster, nil
}

func (c *RasterCache) load(path string) (cachedRaster, error) {
	key := cacheKey(path)
	c.mu.RLock()
	if entry, ok := c.rasters[key]; ok {
		c.mu.RUnlock()
		return entry, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return cachedRaster{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return cachedRaster{}, fmt.Errorf("failed to decode image: %w", err)
	}

	r, err := raster.FromImage(img)
	if err != nil {
		return cachedRaster{}, fmt.Errorf("failed to convert image: %w", err)
	}

	entry := cachedRaster{raster: r, format: format}
	c.mu.Lock()
	c.rasters[key] = entry
	c.mu.Unlock()

	return entry, nil
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Clear removes all rasters from the cache.
func (c *RasterCache) Clear() {
	c.mu.Lock()
	c.rasters = make(map[string]cachedRaster)
	c.mu.Unlock()
}

// Evict removes the raster cached for path, if any.
func (c *RasterCache) Evict(path string) {
	c.mu.Lock()
	delete(c.rasters, cacheKey(path))
	c.mu.Unlock()
}

// Save writes r to path with SaveRaster and drops any cached copy of path,
// so the next Load sees the new pixels.
func (c *RasterCache) Save(path string, r *raster.Raster) error {
	if err := SaveRaster(path, r); err != nil {
		return err
	}
	c.Evict(path)
	return nil
}

// Len returns the number of cached rasters.
func (c *RasterCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rasters)
}

// RasterInfo contains metadata about a loaded image file.
type RasterInfo struct {
	// Width is the raster width in pixels.
	Width int `json:"width"`

	// Height is the raster height in pixels.
	Height int `json:"height"`

	// Channels is 1 for grayscale sources and 3 otherwise.
	Channels int `json:"channels"`

	// Format is the decoder that read the file: "png", "jpeg", "gif",
	// "bmp", "tiff" or "webp".
	Format string `json:"format"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadRasterInfo loads path into the cache (if not already cached) and
// reports its shape, decoder format and file size.
func LoadRasterInfo(cache *RasterCache, path string) (*RasterInfo, error) {
	entry, err := cache.load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &RasterInfo{
		Width:         entry.raster.Width,
		Height:        entry.raster.Height,
		Channels:      entry.raster.Channels,
		Format:        entry.format,
		FileSizeBytes: stat.Size(),
	}, nil
}

// SaveRaster encodes r to path. The format follows the file extension
// (.png, .jpg, .jpeg, .gif, .tif, .tiff, .bmp). Missing parent directories
// are created.
func SaveRaster(path string, r *raster.Raster) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := imaging.Save(r.ToImage(), path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
