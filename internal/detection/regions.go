package detection

import (
	"fmt"
	"sort"

	"github.com/ironsheep/raster-tools-mcp/internal/imaging"
	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// (X1, Y1) is the top-left corner (inclusive) and (X2, Y2) the bottom-right
// corner (exclusive), so Width = X2 - X1.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width returns X2 - X1.
func (b Bounds) Width() int { return b.X2 - b.X1 }

// Height returns Y2 - Y1.
func (b Bounds) Height() int { return b.Y2 - b.Y1 }

// Centroid is the mean pixel position of a region.
type Centroid struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Region summarises one labeled component.
type Region struct {
	// Label is the region id in the Labeling it came from.
	Label int `json:"label"`

	// Value is the source intensity shared by every pixel of the region.
	Value uint8 `json:"value"`

	// Area is the pixel count.
	Area int `json:"area"`

	// Bounds is the tight bounding box.
	Bounds Bounds `json:"bounds"`

	// Centroid is the mean of the pixel coordinates.
	Centroid Centroid `json:"centroid"`

	// FillRatio is Area divided by the bounding box area (0 to 1). A solid
	// axis-aligned rectangle scores 1.
	FillRatio float64 `json:"fill_ratio"`
}

// Regions computes per-region statistics, ordered by label id.
func (l *Labeling) Regions() []Region {
	regions := make([]Region, l.Count)
	sumX := make([]int, l.Count)
	sumY := make([]int, l.Count)
	for i := range regions {
		regions[i] = Region{
			Label:  i + 1,
			Value:  l.Values[i],
			Bounds: Bounds{X1: l.Width, Y1: l.Height, X2: 0, Y2: 0},
		}
	}

	for i, id := range l.Labels {
		if id == 0 {
			continue
		}
		x, y := i%l.Width, i/l.Width
		r := &regions[id-1]
		r.Area++
		sumX[id-1] += x
		sumY[id-1] += y
		r.Bounds.X1 = min(r.Bounds.X1, x)
		r.Bounds.Y1 = min(r.Bounds.Y1, y)
		r.Bounds.X2 = max(r.Bounds.X2, x+1)
		r.Bounds.Y2 = max(r.Bounds.Y2, y+1)
	}

	for i := range regions {
		r := &regions[i]
		if r.Area == 0 {
			continue
		}
		r.Centroid = Centroid{
			X: float64(sumX[i]) / float64(r.Area),
			Y: float64(sumY[i]) / float64(r.Area),
		}
		r.FillRatio = float64(r.Area) / float64(r.Bounds.Width()*r.Bounds.Height())
	}
	return regions
}

// FilterBySize returns a new labeling without regions smaller than
// minArea pixels. Surviving regions are renumbered 1..N in their original
// order.
func (l *Labeling) FilterBySize(minArea int) *Labeling {
	areas := make([]int, l.Count+1)
	for _, id := range l.Labels {
		areas[id]++
	}

	remap := make([]int, l.Count+1)
	out := &Labeling{Width: l.Width, Height: l.Height, Labels: make([]int, len(l.Labels))}
	for id := 1; id <= l.Count; id++ {
		if areas[id] < minArea {
			continue
		}
		out.Count++
		remap[id] = out.Count
		out.Values = append(out.Values, l.Values[id-1])
	}
	for i, id := range l.Labels {
		out.Labels[i] = remap[id]
	}
	return out
}

// Mask renders every labeled pixel as 255 and background as 0.
func (l *Labeling) Mask() *raster.Raster {
	r := &raster.Raster{Width: l.Width, Height: l.Height, Channels: 1, Pix: make([]uint8, len(l.Labels))}
	for i, id := range l.Labels {
		if id != 0 {
			r.Pix[i] = 255
		}
	}
	return r
}

// LargestFirst sorts regions by descending area, breaking ties by label.
func LargestFirst(regions []Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		if regions[i].Area != regions[j].Area {
			return regions[i].Area > regions[j].Area
		}
		return regions[i].Label < regions[j].Label
	})
}

// CropRegions cuts each region's bounding box, grown by padding pixels and
// clipped to the raster, out of src. src must have the labeling's size.
func CropRegions(src *raster.Raster, regions []Region, padding int) ([]*raster.Raster, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if padding < 0 {
		return nil, fmt.Errorf("crop regions: negative padding %d", padding)
	}

	crops := make([]*raster.Raster, 0, len(regions))
	for _, r := range regions {
		b := r.Bounds
		x1, y1 := max(0, b.X1-padding), max(0, b.Y1-padding)
		x2, y2 := min(src.Width, b.X2+padding), min(src.Height, b.Y2+padding)
		crop, err := imaging.Crop(src, x1, y1, x2, y2)
		if err != nil {
			return nil, fmt.Errorf("crop region %d: %w", r.Label, err)
		}
		crops = append(crops, crop)
	}
	return crops, nil
}
