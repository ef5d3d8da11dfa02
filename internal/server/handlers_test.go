package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/raster-tools-mcp/internal/config"
	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

// writeGray writes rows as an 8-bit grayscale PNG.
func writeGray(t *testing.T, rows [][]uint8) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, len(rows[0]), len(rows)))
	for y, row := range rows {
		for x, v := range row {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return writePNG(t, img)
}

func writeUniformRGB(t *testing.T, w, h int, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return writePNG(t, img)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(&config.Config{OutputDir: t.TempDir()}, nil)
}

// callTool runs a tools/call request and decodes the JSON text content.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) map[string]interface{} {
	t.Helper()
	resp := callToolRaw(t, s, name, args)
	require.Nilf(t, resp.Error, "tool %s failed: %+v", name, resp.Error)

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	require.Len(t, content, 1)
	assert.Equal(t, "text", content[0]["type"])

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(content[0]["text"].(string)), &out))
	return out
}

func callToolRaw(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	require.NoError(t, err)
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})
	require.NotNil(t, resp)
	return resp
}

func loadOutput(t *testing.T, s *Server, out map[string]interface{}) *raster.Raster {
	t.Helper()
	path, ok := out["output_path"].(string)
	require.True(t, ok, "expected output_path in %v", out)
	r, err := s.cache.Load(path)
	require.NoError(t, err)
	return r
}

var labelScene = [][]uint8{
	{200, 0, 0, 0},
	{0, 200, 200, 0},
	{0, 200, 200, 0},
	{0, 0, 0, 0},
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := newTestServer(t)

	resp := callToolRaw(t, s, "raster_nope", map[string]interface{}{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32000, resp.Error.Code)
	assert.Contains(t, resp.Error.Data, "unknown tool")

	resp = callToolRaw(t, s, "raster_info", map[string]interface{}{"path": "/nonexistent/x.png"})
	require.NotNil(t, resp.Error)

	resp = s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: json.RawMessage(`[1]`)})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)

	resp = callToolRaw(t, s, "raster_threshold", map[string]interface{}{"path": 5})
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Data, "invalid arguments")
}

func TestRasterInfo(t *testing.T) {
	s := newTestServer(t)
	out := callTool(t, s, "raster_info", map[string]interface{}{"path": writeGray(t, labelScene)})
	assert.Equal(t, float64(4), out["width"])
	assert.Equal(t, float64(4), out["height"])
	assert.Equal(t, float64(1), out["channels"])
	assert.Equal(t, "png", out["format"])
}

func TestRasterGrayscale(t *testing.T) {
	s := newTestServer(t)
	path := writeUniformRGB(t, 3, 2, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		method string
		want   uint8
	}{
		{"average", 85},
		{"weighted", 76},
		{"luminance", 54},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			out := callTool(t, s, "raster_grayscale", map[string]interface{}{
				"path": path, "method": tt.method, "output_path": tt.method + ".png",
			})
			r := loadOutput(t, s, out)
			assert.Equal(t, 1, r.Channels)
			assert.Equal(t, tt.want, r.At(2, 1))
		})
	}
}

func TestRasterGrayscale_InlinePayload(t *testing.T) {
	s := newTestServer(t)
	out := callTool(t, s, "raster_grayscale", map[string]interface{}{
		"path":  writeUniformRGB(t, 4, 4, color.RGBA{10, 20, 30, 255}),
		"scale": 2.0,
	})
	assert.Equal(t, "image/png", out["mime_type"])
	assert.NotEmpty(t, out["image_base64"])
	assert.Equal(t, float64(8), out["width"])
	assert.NotContains(t, out, "output_path")
}

func TestRasterSplitAndCombine(t *testing.T) {
	s := newTestServer(t)
	path := writeUniformRGB(t, 3, 3, color.RGBA{10, 20, 30, 255})

	out := callTool(t, s, "raster_split", map[string]interface{}{"path": path, "output_path": "plane.png"})
	paths := make(map[string]string)
	for _, ch := range []string{"red", "green", "blue"} {
		plane := out[ch].(map[string]interface{})
		paths[ch] = plane["output_path"].(string)
		assert.FileExists(t, paths[ch])
	}
	assert.Equal(t, "plane_red.png", filepath.Base(paths["red"]))

	out = callTool(t, s, "raster_combine", map[string]interface{}{
		"red_path": paths["red"], "green_path": paths["green"], "blue_path": paths["blue"],
		"output_path": "combined.png",
	})
	r := loadOutput(t, s, out)
	red, green, blue := r.RGBAt(1, 1)
	assert.Equal(t, [3]uint8{10, 20, 30}, [3]uint8{red, green, blue})
}

func TestRasterConvolve(t *testing.T) {
	s := newTestServer(t)
	rows := make([][]uint8, 5)
	for y := range rows {
		rows[y] = []uint8{90, 90, 90, 90, 90}
	}
	path := writeGray(t, rows)

	out := callTool(t, s, "raster_convolve", map[string]interface{}{
		"path": path, "kernel": "mean", "output_path": "mean.png",
	})
	r := loadOutput(t, s, out)
	assert.Equal(t, uint8(90), r.At(2, 2))
	assert.Equal(t, uint8(0), r.At(0, 0))

	out = callTool(t, s, "raster_convolve", map[string]interface{}{
		"path": path, "weights": [][]int{{0, 0, 0}, {0, 2, 0}, {0, 0, 0}}, "output_path": "double.png",
	})
	r = loadOutput(t, s, out)
	assert.Equal(t, uint8(180), r.At(2, 2))

	resp := callToolRaw(t, s, "raster_convolve", map[string]interface{}{
		"path": path, "weights": [][]int{{1, 1}, {1, 1}},
	})
	require.NotNil(t, resp.Error)

	resp = callToolRaw(t, s, "raster_convolve", map[string]interface{}{
		"path": path, "weights": [][]int{{0, 0, 0}, {0, 1, 0}, {0, 0, 0}}, "divisor": 0,
	})
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Data, "divisor is zero")
}

func TestRasterSobelAndEdges(t *testing.T) {
	s := newTestServer(t)
	rows := make([][]uint8, 6)
	for y := range rows {
		rows[y] = []uint8{0, 0, 0, 255, 255, 255}
	}
	path := writeGray(t, rows)

	out := callTool(t, s, "raster_sobel", map[string]interface{}{"path": path, "output_path": "sobel.png"})
	r := loadOutput(t, s, out)
	assert.Equal(t, uint8(255), r.At(2, 2))
	assert.Equal(t, uint8(0), r.At(0, 2))

	resp := callToolRaw(t, s, "raster_sobel", map[string]interface{}{"path": path, "component": "diagonal"})
	require.NotNil(t, resp.Error)

	out = callTool(t, s, "raster_edges", map[string]interface{}{"path": path})
	assert.Equal(t, float64(6), out["width"])
}

func TestRasterMorphology(t *testing.T) {
	s := newTestServer(t)
	rows := make([][]uint8, 7)
	for y := range rows {
		rows[y] = make([]uint8, 7)
	}
	rows[3][3] = 255
	path := writeGray(t, rows)

	out := callTool(t, s, "raster_morphology", map[string]interface{}{
		"path": path, "operation": "dilate", "element": "cross", "output_path": "dilated.png",
	})
	r := loadOutput(t, s, out)
	assert.Equal(t, uint8(255), r.At(3, 2))
	assert.Equal(t, uint8(0), r.At(2, 2))

	out = callTool(t, s, "raster_morphology", map[string]interface{}{
		"path": path, "operation": "dilate", "cells": [][]int{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}},
		"repeat": 2, "output_path": "grown.png",
	})
	r = loadOutput(t, s, out)
	assert.Equal(t, uint8(255), r.At(1, 1))

	resp := callToolRaw(t, s, "raster_morphology", map[string]interface{}{"path": path, "operation": "thin"})
	require.NotNil(t, resp.Error)
}

func TestRasterFillHoles(t *testing.T) {
	s := newTestServer(t)
	path := writeGray(t, [][]uint8{
		{0, 0, 0, 0, 0},
		{0, 255, 255, 255, 0},
		{0, 255, 0, 255, 0},
		{0, 255, 255, 255, 0},
		{0, 0, 0, 0, 0},
	})
	out := callTool(t, s, "raster_fill_holes", map[string]interface{}{"path": path, "output_path": "filled.png"})
	r := loadOutput(t, s, out)
	assert.Equal(t, uint8(255), r.At(2, 2))
	assert.Equal(t, uint8(0), r.At(0, 0))
}

func TestRasterLabel(t *testing.T) {
	s := newTestServer(t)
	path := writeGray(t, labelScene)

	out := callTool(t, s, "raster_label", map[string]interface{}{"path": path, "output_path": "labels.png"})
	assert.Equal(t, float64(2), out["count"])

	regions := out["regions"].([]interface{})
	require.Len(t, regions, 2)
	largest := regions[0].(map[string]interface{})
	assert.Equal(t, float64(4), largest["area"])
	assert.Equal(t, float64(2), largest["label"])

	img := out["image"].(map[string]interface{})
	r := loadOutput(t, s, img)
	assert.Equal(t, uint8(1), r.At(0, 0))
	assert.Equal(t, uint8(2), r.At(2, 2))

	out = callTool(t, s, "raster_label", map[string]interface{}{"path": path, "element": "neighbors8"})
	assert.Equal(t, float64(1), out["count"])

	out = callTool(t, s, "raster_label", map[string]interface{}{"path": path, "min_area": 2, "max_regions": 1})
	assert.Equal(t, float64(1), out["count"])
	assert.Len(t, out["regions"], 1)
}

func TestRasterLabel_Renders(t *testing.T) {
	s := newTestServer(t)
	path := writeGray(t, labelScene)

	for _, render := range []string{"mask", "color", "overlay"} {
		t.Run(render, func(t *testing.T) {
			out := callTool(t, s, "raster_label", map[string]interface{}{
				"path": path, "render": render, "output_path": render + ".png",
			})
			r := loadOutput(t, s, out["image"].(map[string]interface{}))
			if render == "mask" {
				assert.Equal(t, 1, r.Channels)
				assert.Equal(t, uint8(255), r.At(0, 0))
				return
			}
			assert.Equal(t, 3, r.Channels)
		})
	}

	resp := callToolRaw(t, s, "raster_label", map[string]interface{}{"path": path, "render": "heat"})
	require.NotNil(t, resp.Error)
}

func TestRasterHistogram(t *testing.T) {
	s := newTestServer(t)
	out := callTool(t, s, "raster_histogram", map[string]interface{}{"path": writeGray(t, labelScene)})

	hist := out["histogram"].([]interface{})
	require.Len(t, hist, 256)
	assert.Equal(t, float64(11), hist[0])
	assert.Equal(t, float64(5), hist[200])
	assert.Equal(t, float64(16), out["total"])
	assert.Equal(t, float64(0), out["low"])
	assert.Equal(t, float64(200), out["high"])
	assert.Equal(t, float64(0), out["otsu_level"])
	assert.InDelta(t, 62.5, out["mean"], 1e-9)
}

func TestOutputPathOverwritesLoadedInput(t *testing.T) {
	s := newTestServer(t)
	rows := make([][]uint8, 5)
	for y := range rows {
		rows[y] = make([]uint8, 5)
	}
	rows[2][2] = 255
	path := writeGray(t, rows)

	out := callTool(t, s, "raster_histogram", map[string]interface{}{"path": path})
	assert.Equal(t, float64(1), out["histogram"].([]interface{})[255])

	callTool(t, s, "raster_morphology", map[string]interface{}{
		"path": path, "operation": "dilate", "element": "square3", "output_path": path,
	})

	out = callTool(t, s, "raster_histogram", map[string]interface{}{"path": path})
	assert.Equal(t, float64(9), out["histogram"].([]interface{})[255])
}

func TestRasterThreshold(t *testing.T) {
	s := newTestServer(t)
	path := writeGray(t, [][]uint8{{10, 10, 240, 240}})

	out := callTool(t, s, "raster_threshold", map[string]interface{}{"path": path, "output_path": "otsu.png"})
	assert.Equal(t, true, out["otsu"])
	assert.Equal(t, float64(10), out["level"])
	r := loadOutput(t, s, out["image"].(map[string]interface{}))
	assert.Equal(t, uint8(0), r.At(0, 0))
	assert.Equal(t, uint8(255), r.At(3, 0))

	out = callTool(t, s, "raster_threshold", map[string]interface{}{"path": path, "level": 250, "output_path": "fixed.png"})
	assert.Equal(t, false, out["otsu"])
	r = loadOutput(t, s, out["image"].(map[string]interface{}))
	assert.Equal(t, uint8(0), r.At(3, 0))
}

func TestRasterExpandAndEqualize(t *testing.T) {
	s := newTestServer(t)
	path := writeGray(t, [][]uint8{{50, 100, 150}})

	out := callTool(t, s, "raster_expand", map[string]interface{}{"path": path, "output_path": "expanded.png"})
	r := loadOutput(t, s, out)
	assert.Equal(t, []uint8{0, 127, 255}, r.Pix)

	out = callTool(t, s, "raster_expand", map[string]interface{}{
		"path": path, "low_in": 0, "high_in": 255, "low_out": 0, "high_out": 255, "output_path": "identity.png",
	})
	r = loadOutput(t, s, out)
	assert.Equal(t, []uint8{50, 100, 150}, r.Pix)

	out = callTool(t, s, "raster_equalize", map[string]interface{}{"path": path, "output_path": "eq.png"})
	r = loadOutput(t, s, out)
	assert.Equal(t, []uint8{85, 170, 255}, r.Pix)
}

func TestRasterAdjust(t *testing.T) {
	s := newTestServer(t)
	path := writeGray(t, [][]uint8{{100, 250}})
	out := callTool(t, s, "raster_adjust", map[string]interface{}{
		"path": path, "brightness": 10, "output_path": "bright.png",
	})
	r := loadOutput(t, s, out)
	assert.Equal(t, []uint8{110, 255}, r.Pix)
}

func TestRasterRecipe(t *testing.T) {
	s := newTestServer(t)
	path := writeGray(t, labelScene)

	out := callTool(t, s, "raster_recipe", map[string]interface{}{
		"path":        path,
		"recipe":      "name: count\nsteps:\n  - op: threshold\n    level: 100\n  - op: label\n    render: mask\n",
		"output_path": "recipe.png",
	})
	assert.Equal(t, "count", out["name"])
	assert.Equal(t, float64(2), out["count"])
	assert.Len(t, out["steps"], 2)
	assert.Len(t, out["regions"], 2)

	recipePath := filepath.Join(t.TempDir(), "r.yaml")
	require.NoError(t, os.WriteFile(recipePath, []byte("steps:\n  - op: equalize\n"), 0o644))
	out = callTool(t, s, "raster_recipe", map[string]interface{}{"path": path, "recipe_path": recipePath})
	assert.NotContains(t, out, "count")

	resp := callToolRaw(t, s, "raster_recipe", map[string]interface{}{"path": path})
	require.NotNil(t, resp.Error)
	resp = callToolRaw(t, s, "raster_recipe", map[string]interface{}{"path": path, "recipe": "steps:\n  - op: blur\n"})
	require.NotNil(t, resp.Error)
}

func TestRasterCompare(t *testing.T) {
	s := newTestServer(t)
	a := writeGray(t, [][]uint8{{0, 255}, {0, 0}})
	b := writeGray(t, [][]uint8{{0, 255}, {255, 0}})

	out := callTool(t, s, "raster_compare", map[string]interface{}{"path_a": a, "path_b": b})
	assert.Equal(t, float64(1), out["pixels_different"])
	assert.Equal(t, float64(1), out["foreground_added"])
	assert.Equal(t, float64(0), out["foreground_removed"])
}

func TestRasterCropAndSample(t *testing.T) {
	s := newTestServer(t)
	path := writeGray(t, labelScene)

	out := callTool(t, s, "raster_crop", map[string]interface{}{
		"path": path, "x1": 1, "y1": 1, "x2": 3, "y2": 3, "output_path": "crop.png",
	})
	r := loadOutput(t, s, out)
	assert.Equal(t, 2, r.Width)
	assert.Equal(t, uint8(200), r.At(0, 0))

	out = callTool(t, s, "raster_crop", map[string]interface{}{"path": path, "region": "top-left"})
	assert.Equal(t, float64(2), out["width"])

	out = callTool(t, s, "raster_sample_color", map[string]interface{}{"path": path, "x": 1, "y": 1})
	assert.Equal(t, "#C8C8C8", out["hex"])
	assert.Equal(t, float64(200), out["gray"])
}

func TestSuffixPath(t *testing.T) {
	assert.Equal(t, "/out/a_red.png", suffixPath("/out/a.png", "_red"))
	assert.Equal(t, "a_red", suffixPath("a", "_red"))
	assert.Equal(t, "", suffixPath("", "_red"))
}
