package detection

import (
	"fmt"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/raster-tools-mcp/internal/imaging"
	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// DrawRegions outlines each region's bounding box on an RGB copy of src.
//
// Parameters:
//   - src: 1- or 3-channel raster the regions were measured on.
//   - regions: boxes to draw, usually from Labeling.Regions.
//   - outlineHex: outline color as "#RRGGBB". Empty selects red.
//   - showLabels: when true, each box gets its label id in a small
//     white-on-black tag at its top-left corner.
func DrawRegions(src *raster.Raster, regions []Region, outlineHex string, showLabels bool) (*raster.Raster, error) {
	if outlineHex == "" {
		outlineHex = "#FF0000"
	}
	outline, err := colorful.Hex(outlineHex)
	if err != nil {
		return nil, fmt.Errorf("invalid outline color %q: %w", outlineHex, err)
	}
	or, og, ob := outline.RGB255()

	out, err := imaging.ToRGB(src)
	if err != nil {
		return nil, err
	}

	for _, r := range regions {
		b := r.Bounds
		for x := b.X1; x < b.X2; x++ {
			setRGBSafe(out, x, b.Y1, or, og, ob)
			setRGBSafe(out, x, b.Y2-1, or, og, ob)
		}
		for y := b.Y1; y < b.Y2; y++ {
			setRGBSafe(out, b.X1, y, or, og, ob)
			setRGBSafe(out, b.X2-1, y, or, og, ob)
		}
	}

	if showLabels {
		for _, r := range regions {
			drawLabel(out, r.Bounds.X1+1, r.Bounds.Y1+1, strconv.Itoa(r.Label))
		}
	}
	return out, nil
}

func setRGBSafe(r *raster.Raster, x, y int, red, green, blue uint8) {
	if r.InBounds(x, y) {
		r.SetRGB(x, y, red, green, blue)
	}
}

// labelGlyphs is a 3x5 pixel font for digits.
var labelGlyphs = map[rune][5]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
}

// drawLabel draws text in white on a black tag with its top-left glyph
// corner at (x, y). Pixels falling outside the raster are skipped.
func drawLabel(img *raster.Raster, x, y int, text string) {
	const charWidth = 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight-1; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setRGBSafe(img, x+dx, y+dy, 0, 0, 0)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := labelGlyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					setRGBSafe(img, cx+col, y+row, 255, 255, 255)
				}
			}
		}
		cx += charWidth
	}
}
