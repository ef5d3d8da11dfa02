package imaging

import (
	"fmt"
	"strings"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// Binary morphology over 1-channel rasters. Any non-zero value is
// foreground; every output is strictly 0 or 255.
//
// Dilate and Erode only visit centres whose structuring-element window fits
// inside the raster (the interior band). Centres in the outer band of width
// Offset() are never processed.

// MorphologyOp names a morphological operation.
type MorphologyOp string

const (
	OpDilate MorphologyOp = "dilate"
	OpErode  MorphologyOp = "erode"
	OpOpen   MorphologyOp = "open"
	OpClose  MorphologyOp = "close"
	OpBorder MorphologyOp = "border"
)

// MorphologyOps lists every supported operation.
var MorphologyOps = []MorphologyOp{OpDilate, OpErode, OpOpen, OpClose, OpBorder}

// ParseMorphologyOp accepts the operation names above, case-insensitively.
// "opening" and "closing" are accepted as aliases.
func ParseMorphologyOp(s string) (MorphologyOp, error) {
	switch op := MorphologyOp(strings.ToLower(strings.TrimSpace(s))); op {
	case OpDilate, OpErode, OpOpen, OpClose, OpBorder:
		return op, nil
	case "opening":
		return OpOpen, nil
	case "closing":
		return OpClose, nil
	}
	return "", fmt.Errorf("unknown morphology operation %q", s)
}

// ApplyMorphology dispatches op.
func ApplyMorphology(op MorphologyOp, src *raster.Raster, se raster.StructuringElement) (*raster.Raster, error) {
	switch op {
	case OpDilate:
		return Dilate(src, se)
	case OpErode:
		return Erode(src, se)
	case OpOpen:
		return Open(src, se)
	case OpClose:
		return Close(src, se)
	case OpBorder:
		return Border(src, se)
	}
	return nil, fmt.Errorf("unknown morphology operation %q", op)
}

func checkMorphologyInput(src *raster.Raster, se raster.StructuringElement) error {
	if err := src.RequireChannels(1); err != nil {
		return err
	}
	if se.IsZero() {
		return fmt.Errorf("%w: structuring element not initialised", raster.ErrInvalidStructuringElement)
	}
	return nil
}

// Dilate stamps se, centred on every foreground pixel of the interior band,
// onto a blank output. Stamps combine with OR, so a pixel set by one stamp
// is never cleared by another.
func Dilate(src *raster.Raster, se raster.StructuringElement) (*raster.Raster, error) {
	if err := checkMorphologyInput(src, se); err != nil {
		return nil, fmt.Errorf("dilate: %w", err)
	}

	off := se.Offset()
	offsets := se.Offsets()
	dst := src.NewLike(1)
	for y := off; y < src.Height-off; y++ {
		for x := off; x < src.Width-off; x++ {
			if src.Pix[y*src.Width+x] == 0 {
				continue
			}
			for _, o := range offsets {
				dst.Pix[(y+o[1])*src.Width+x+o[0]] = 255
			}
		}
	}
	return dst, nil
}

// Erode sets an interior pixel to 255 iff every 1 entry of se, centred on
// it, lands on foreground.
func Erode(src *raster.Raster, se raster.StructuringElement) (*raster.Raster, error) {
	if err := checkMorphologyInput(src, se); err != nil {
		return nil, fmt.Errorf("erode: %w", err)
	}

	off := se.Offset()
	offsets := se.Offsets()
	dst := src.NewLike(1)
	for y := off; y < src.Height-off; y++ {
	next:
		for x := off; x < src.Width-off; x++ {
			for _, o := range offsets {
				if src.Pix[(y+o[1])*src.Width+x+o[0]] == 0 {
					continue next
				}
			}
			dst.Pix[y*src.Width+x] = 255
		}
	}
	return dst, nil
}

// Open is erosion followed by dilation. It removes foreground specks
// smaller than se.
func Open(src *raster.Raster, se raster.StructuringElement) (*raster.Raster, error) {
	eroded, err := Erode(src, se)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return Dilate(eroded, se)
}

// Close is dilation followed by erosion. It fills background gaps smaller
// than se.
func Close(src *raster.Raster, se raster.StructuringElement) (*raster.Raster, error) {
	dilated, err := Dilate(src, se)
	if err != nil {
		return nil, fmt.Errorf("close: %w", err)
	}
	return Erode(dilated, se)
}

// Border is src minus Erode(src, se): foreground pixels that do not survive
// erosion. The subtraction saturates at 0, so the result is always a subset
// of src's foreground.
func Border(src *raster.Raster, se raster.StructuringElement) (*raster.Raster, error) {
	eroded, err := Erode(src, se)
	if err != nil {
		return nil, fmt.Errorf("border: %w", err)
	}

	dst := src.NewLike(1)
	for i, v := range src.Pix {
		if v != 0 && eroded.Pix[i] == 0 {
			dst.Pix[i] = 255
		}
	}
	return dst, nil
}

// FillHoles sets every background pixel that cannot reach the raster edge
// through 4-connected background to foreground. Existing foreground is
// written as 255.
func FillHoles(src *raster.Raster) (*raster.Raster, error) {
	if err := src.RequireChannels(1); err != nil {
		return nil, fmt.Errorf("fill holes: %w", err)
	}

	w, h := src.Width, src.Height
	outside := make([]bool, w*h)
	queue := make([]int, 0, 2*(w+h))

	seed := func(x, y int) {
		i := y*w + x
		if src.Pix[i] == 0 && !outside[i] {
			outside[i] = true
			queue = append(queue, i)
		}
	}
	for x := 0; x < w; x++ {
		seed(x, 0)
		seed(x, h-1)
	}
	for y := 0; y < h; y++ {
		seed(0, y)
		seed(w-1, y)
	}

	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		x, y := i%w, i/w
		for _, d := range [4][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}} {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			seed(nx, ny)
		}
	}

	dst := src.NewLike(1)
	for i := range dst.Pix {
		if !outside[i] {
			dst.Pix[i] = 255
		}
	}
	return dst, nil
}
