package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/ironsheep/raster-tools-mcp/internal/detection"
	"github.com/ironsheep/raster-tools-mcp/internal/imaging"
	"github.com/ironsheep/raster-tools-mcp/internal/recipe"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	valueColor  = color.New(color.FgGreen)
	dimColor    = color.New(color.FgHiBlack)
	barColor    = color.New(color.FgYellow)
)

func printf(c *color.Color, format string, a ...interface{}) {
	c.Fprintf(color.Output, format, a...)
}

func printSteps(steps []recipe.StepReport) {
	printf(headerColor, "%-4s %-12s %-12s %s\n", "#", "op", "size", "time")
	for _, s := range steps {
		fmt.Fprintf(color.Output, "%-4d %-12s ", s.Index, s.Op)
		printf(valueColor, "%-12s ", fmt.Sprintf("%dx%dx%d", s.Width, s.Height, s.Channels))
		printf(dimColor, "%s\n", s.Duration)
	}
}

func printRegions(regions []detection.Region, limit int) {
	printf(headerColor, "%-6s %-6s %-8s %-20s %-16s %s\n", "label", "value", "area", "bounds", "centroid", "fill")
	for i, r := range regions {
		if limit > 0 && i == limit {
			printf(dimColor, "... %d more\n", len(regions)-limit)
			break
		}
		fmt.Fprintf(color.Output, "%-6d %-6d ", r.Label, r.Value)
		printf(valueColor, "%-8d ", r.Area)
		fmt.Fprintf(color.Output, "%-20s %-16s %.2f\n",
			fmt.Sprintf("(%d,%d)-(%d,%d)", r.Bounds.X1, r.Bounds.Y1, r.Bounds.X2, r.Bounds.Y2),
			fmt.Sprintf("(%.1f,%.1f)", r.Centroid.X, r.Centroid.Y),
			r.FillRatio)
	}
}

// histogramBars groups h into bins equal ranges and returns the count of
// each.
func histogramBars(h imaging.Histogram, bins int) []int {
	width := len(h) / bins
	bars := make([]int, bins)
	for v, c := range h {
		bars[v/width] += c
	}
	return bars
}

func printHistogram(h imaging.Histogram, bins int) {
	low, high := h.LowHigh()
	total := h.Total()
	sum := 0
	for v, c := range h {
		sum += v * c
	}
	mean := 0.0
	if total > 0 {
		mean = float64(sum) / float64(total)
	}

	printf(headerColor, "pixels %d  low %d  high %d  mean %.1f  otsu %d\n",
		total, low, high, mean, imaging.OtsuThreshold(h))

	bars := histogramBars(h, bins)
	peak := 0
	for _, b := range bars {
		peak = max(peak, b)
	}
	width := 256 / bins
	for i, b := range bars {
		n := 0
		if peak > 0 {
			n = b * 50 / peak
		}
		fmt.Fprintf(color.Output, "%3d-%3d ", i*width, (i+1)*width-1)
		printf(barColor, "%-50s", strings.Repeat("#", n))
		printf(dimColor, " %d\n", b)
	}
}
