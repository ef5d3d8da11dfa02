package detection

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// Labeling is the result of connected-component labeling.
//
// Label ids are sequential: the first region found in row-major order is 1,
// the next 2, and so on up to Count. 0 marks background. Because ids are
// plain ints they never collide, however many regions the raster holds.
// Raster() projects them onto 8 bits for display.
type Labeling struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Labels holds one id per pixel, row-major.
	Labels []int `json:"-"`

	// Count is the number of regions.
	Count int `json:"count"`

	// Values holds the source intensity of each region; Values[id-1]
	// belongs to region id.
	Values []uint8 `json:"values"`
}

// Label partitions the non-zero pixels of a 1-channel raster into maximal
// connected regions of equal intensity.
//
// The raster is scanned row-major. Each unlabeled non-zero pixel seeds a
// region that grows breadth-first through a FIFO queue: a neighbour joins
// when it lies inside the raster, is unlabeled and has exactly the seed's
// value. Neighbours are the 1 entries of se, taken as offsets from the
// pixel being expanded; the centre entry is ignored. Use raster.Cross4 or
// raster.Neighbors8 for 4- or 8-connectivity.
//
// Only one region is open at a time, so a single label counter and a single
// queue suffice.
func Label(src *raster.Raster, se raster.StructuringElement) (*Labeling, error) {
	if err := src.RequireChannels(1); err != nil {
		return nil, fmt.Errorf("label: %w", err)
	}
	if se.IsZero() {
		return nil, fmt.Errorf("label: %w: structuring element not initialised",
			raster.ErrInvalidStructuringElement)
	}

	neighbours := make([][2]int, 0, se.Weight())
	for _, o := range se.Offsets() {
		if o[0] != 0 || o[1] != 0 {
			neighbours = append(neighbours, o)
		}
	}

	w, h := src.Width, src.Height
	lab := &Labeling{Width: w, Height: h, Labels: make([]int, w*h)}
	queue := make([]int, 0, 64)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			seed := y*w + x
			value := src.Pix[seed]
			if value == 0 || lab.Labels[seed] != 0 {
				continue
			}

			lab.Count++
			id := lab.Count
			lab.Values = append(lab.Values, value)
			lab.Labels[seed] = id
			queue = append(queue[:0], seed)

			for head := 0; head < len(queue); head++ {
				px, py := queue[head]%w, queue[head]/w
				for _, o := range neighbours {
					nx, ny := px+o[0], py+o[1]
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					n := ny*w + nx
					if lab.Labels[n] != 0 || src.Pix[n] != value {
						continue
					}
					lab.Labels[n] = id
					queue = append(queue, n)
				}
			}
		}
	}
	return lab, nil
}

// At returns the label id at (x, y).
func (l *Labeling) At(x, y int) int {
	return l.Labels[y*l.Width+x]
}

// DisplayValue projects a label id onto 1..255, wrapping every 255 ids.
// Background stays 0. Distinct regions can share a display value once more
// than 255 exist; the ids in Labels stay unique.
func DisplayValue(id int) uint8 {
	if id <= 0 {
		return 0
	}
	return uint8((id-1)%255 + 1)
}

// Raster renders the labeling as a 1-channel raster of display values.
func (l *Labeling) Raster() *raster.Raster {
	r := &raster.Raster{Width: l.Width, Height: l.Height, Channels: 1, Pix: make([]uint8, len(l.Labels))}
	for i, id := range l.Labels {
		r.Pix[i] = DisplayValue(id)
	}
	return r
}

// hueStride walks the 255 hues in an order that keeps consecutive ids far
// apart on the color wheel. It must be coprime with 255.
const hueStride = 97

// LabelLUT maps display values to colors: 0 is black, 1..255 are fully
// saturated hues spaced evenly around the HSV wheel.
func LabelLUT() [256][3]uint8 {
	var lut [256][3]uint8
	for i := 1; i < 256; i++ {
		slot := ((i - 1) * hueStride) % 255
		r, g, b := colorful.Hsv(float64(slot)*360/255, 1, 1).RGB255()
		lut[i] = [3]uint8{r, g, b}
	}
	return lut
}

// Colorize renders the labeling as an RGB raster through LabelLUT.
func (l *Labeling) Colorize() *raster.Raster {
	lut := LabelLUT()
	r := &raster.Raster{Width: l.Width, Height: l.Height, Channels: 3, Pix: make([]uint8, 3*len(l.Labels))}
	for i, id := range l.Labels {
		c := lut[DisplayValue(id)]
		copy(r.Pix[3*i:3*i+3], c[:])
	}
	return r
}
