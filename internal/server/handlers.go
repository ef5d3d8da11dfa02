package server

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/raster-tools-mcp/internal/detection"
	"github.com/ironsheep/raster-tools-mcp/internal/imaging"
	"github.com/ironsheep/raster-tools-mcp/internal/raster"
	"github.com/ironsheep/raster-tools-mcp/internal/recipe"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "raster_info", "raster_label").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	start := time.Now()
	log := s.logger.WithField("tool", params.Name)
	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		log.WithError(err).Warn("Tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	log.WithField("duration", time.Since(start)).Debug("Tool executed")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads rasters from cache as needed
//  4. Calls the appropriate imaging/detection/recipe function
//  5. Saves or encodes the output raster
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Raster Information
	case "raster_info":
		return s.handleRasterInfo(args)
	case "raster_sample_color":
		return s.handleRasterSampleColor(args)
	case "raster_crop":
		return s.handleRasterCrop(args)

	// Color Conversion
	case "raster_grayscale":
		return s.handleRasterGrayscale(args)
	case "raster_split":
		return s.handleRasterSplit(args)
	case "raster_combine":
		return s.handleRasterCombine(args)

	// Convolution
	case "raster_convolve":
		return s.handleRasterConvolve(args)
	case "raster_sobel":
		return s.handleRasterSobel(args)
	case "raster_edges":
		return s.handleRasterEdges(args)

	// Morphology and Labeling
	case "raster_morphology":
		return s.handleRasterMorphology(args)
	case "raster_fill_holes":
		return s.handleRasterFillHoles(args)
	case "raster_label":
		return s.handleRasterLabel(args)

	// Histogram Operations
	case "raster_histogram":
		return s.handleRasterHistogram(args)
	case "raster_expand":
		return s.handleRasterExpand(args)
	case "raster_equalize":
		return s.handleRasterEqualize(args)
	case "raster_threshold":
		return s.handleRasterThreshold(args)
	case "raster_adjust":
		return s.handleRasterAdjust(args)

	// Pipelines and Analysis
	case "raster_recipe":
		return s.handleRasterRecipe(args)
	case "raster_compare":
		return s.handleRasterCompare(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Shared Helpers ===

// outputArgs are accepted by every tool that produces a raster.
type outputArgs struct {
	OutputPath string  `json:"output_path"`
	Scale      float64 `json:"scale"`
}

// rasterOutput is returned by tools that produce a raster. Either the
// base64 payload or output_path is set.
type rasterOutput struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Channels    int    `json:"channels"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
	OutputPath  string `json:"output_path,omitempty"`
}

// emit saves r when an output path is given and encodes it inline
// otherwise.
func (s *Server) emit(r *raster.Raster, out outputArgs) (*rasterOutput, error) {
	if out.OutputPath != "" {
		path := s.cfg.ResolveOutput(out.OutputPath)
		if err := s.cache.Save(path, r); err != nil {
			return nil, err
		}
		s.logger.WithFields(logrus.Fields{"path": path, "width": r.Width, "height": r.Height}).Info("Raster saved")
		return &rasterOutput{Width: r.Width, Height: r.Height, Channels: r.Channels, OutputPath: path}, nil
	}

	if out.Scale == 0 {
		out.Scale = 1.0
	}
	enc, err := imaging.EncodeRaster(r, out.Scale)
	if err != nil {
		return nil, err
	}
	return &rasterOutput{
		Width:       enc.Width,
		Height:      enc.Height,
		Channels:    enc.Channels,
		ImageBase64: enc.ImageBase64,
		MimeType:    enc.MimeType,
	}, nil
}

// loadGray loads path and reduces color rasters with BT.601 weights.
func (s *Server) loadGray(path string) (*raster.Raster, error) {
	r, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	if r.Channels == 1 {
		return r, nil
	}
	return imaging.Grayscale(r, imaging.BT601)
}

// suffixPath inserts suffix before the extension of path.
func suffixPath(path, suffix string) string {
	if path == "" {
		return ""
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Raster Information Handlers ===

type rasterPathArgs struct {
	Path string `json:"path"`
	outputArgs
}

func (s *Server) handleRasterInfo(args json.RawMessage) (interface{}, error) {
	var a rasterPathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadRasterInfo(s.cache, a.Path)
}

type rasterSampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleRasterSampleColor(args json.RawMessage) (interface{}, error) {
	var a rasterSampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	r, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(r, a.X, a.Y)
}

type rasterCropArgs struct {
	Path   string `json:"path"`
	Region string `json:"region"`
	X1     int    `json:"x1"`
	Y1     int    `json:"y1"`
	X2     int    `json:"x2"`
	Y2     int    `json:"y2"`
	outputArgs
}

func (s *Server) handleRasterCrop(args json.RawMessage) (interface{}, error) {
	var a rasterCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	r, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var cropped *raster.Raster
	if a.Region != "" {
		cropped, err = imaging.CropQuadrant(r, a.Region)
	} else {
		cropped, err = imaging.Crop(r, a.X1, a.Y1, a.X2, a.Y2)
	}
	if err != nil {
		return nil, err
	}
	return s.emit(cropped, a.outputArgs)
}

// === Color Conversion Handlers ===

type rasterGrayscaleArgs struct {
	Path   string `json:"path"`
	Method string `json:"method"`
	outputArgs
}

func (s *Server) handleRasterGrayscale(args json.RawMessage) (interface{}, error) {
	var a rasterGrayscaleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	method, err := imaging.ParseGrayscaleMethod(a.Method)
	if err != nil {
		return nil, err
	}
	r, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	if r.Channels == 1 {
		return s.emit(r, a.outputArgs)
	}
	gray, err := imaging.Grayscale(r, method)
	if err != nil {
		return nil, err
	}
	return s.emit(gray, a.outputArgs)
}

func (s *Server) handleRasterSplit(args json.RawMessage) (interface{}, error) {
	var a rasterPathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	r, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	red, green, blue, err := imaging.Split(r)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*rasterOutput, 3)
	for _, ch := range []struct {
		name string
		r    *raster.Raster
	}{{"red", red}, {"green", green}, {"blue", blue}} {
		out := a.outputArgs
		out.OutputPath = suffixPath(a.OutputPath, "_"+ch.name)
		if result[ch.name], err = s.emit(ch.r, out); err != nil {
			return nil, err
		}
	}
	return result, nil
}

type rasterCombineArgs struct {
	RedPath   string `json:"red_path"`
	GreenPath string `json:"green_path"`
	BluePath  string `json:"blue_path"`
	outputArgs
}

func (s *Server) handleRasterCombine(args json.RawMessage) (interface{}, error) {
	var a rasterCombineArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	var planes [3]*raster.Raster
	for i, p := range []string{a.RedPath, a.GreenPath, a.BluePath} {
		r, err := s.loadGray(p)
		if err != nil {
			return nil, err
		}
		planes[i] = r
	}
	rgb, err := imaging.Combine(planes[0], planes[1], planes[2])
	if err != nil {
		return nil, err
	}
	return s.emit(rgb, a.outputArgs)
}

// === Convolution Handlers ===

type rasterConvolveArgs struct {
	Path    string  `json:"path"`
	Kernel  string  `json:"kernel"`
	Weights [][]int `json:"weights"`
	Divisor *int    `json:"divisor"`
	Repeat  int     `json:"repeat"`
	outputArgs
}

func (s *Server) handleRasterConvolve(args json.RawMessage) (interface{}, error) {
	var a rasterConvolveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Repeat == 0 {
		a.Repeat = 1
	}

	var kernel raster.Kernel
	var err error
	if len(a.Weights) > 0 {
		kernel, err = raster.NewKernel(a.Weights, intOr(a.Divisor, 1))
	} else {
		if a.Kernel == "" {
			a.Kernel = "mean"
		}
		kernel, err = raster.KernelByName(a.Kernel)
	}
	if err != nil {
		return nil, err
	}

	out, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	for i := 0; i < a.Repeat; i++ {
		if out, err = imaging.Convolve(out, kernel); err != nil {
			return nil, err
		}
	}
	return s.emit(out, a.outputArgs)
}

type rasterSobelArgs struct {
	Path      string `json:"path"`
	Component string `json:"component"`
	outputArgs
}

func (s *Server) handleRasterSobel(args json.RawMessage) (interface{}, error) {
	var a rasterSobelArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	r, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := imaging.Sobel(r)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(a.Component) {
	case "", "magnitude":
		return s.emit(res.Magnitude, a.outputArgs)
	case "vertical":
		return s.emit(res.Vertical, a.outputArgs)
	case "horizontal":
		return s.emit(res.Horizontal, a.outputArgs)
	}
	return nil, fmt.Errorf("unknown sobel component %q (want magnitude, vertical or horizontal)", a.Component)
}

type rasterEdgesArgs struct {
	Path          string `json:"path"`
	ThresholdLow  int    `json:"threshold_low"`
	ThresholdHigh int    `json:"threshold_high"`
	outputArgs
}

func (s *Server) handleRasterEdges(args json.RawMessage) (interface{}, error) {
	var a rasterEdgesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ThresholdLow == 0 {
		a.ThresholdLow = 50
	}
	if a.ThresholdHigh == 0 {
		a.ThresholdHigh = 150
	}
	r, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	edges, err := imaging.EdgeDetect(r, a.ThresholdLow, a.ThresholdHigh)
	if err != nil {
		return nil, err
	}
	return s.emit(edges, a.outputArgs)
}

// === Morphology and Labeling Handlers ===

type rasterMorphologyArgs struct {
	Path      string  `json:"path"`
	Operation string  `json:"operation"`
	Element   string  `json:"element"`
	Cells     [][]int `json:"cells"`
	Repeat    int     `json:"repeat"`
	outputArgs
}

// element resolves a structuring element from explicit cells, a preset
// name or the fallback preset, in that order.
func element(cells [][]int, name, fallback string) (raster.StructuringElement, error) {
	if len(cells) > 0 {
		return raster.NewStructuringElement(cells)
	}
	if name == "" {
		name = fallback
	}
	return raster.StructuringElementByName(name)
}

func (s *Server) handleRasterMorphology(args json.RawMessage) (interface{}, error) {
	var a rasterMorphologyArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Repeat == 0 {
		a.Repeat = 1
	}
	op, err := imaging.ParseMorphologyOp(a.Operation)
	if err != nil {
		return nil, err
	}
	se, err := element(a.Cells, a.Element, "square3")
	if err != nil {
		return nil, err
	}

	out, err := s.loadGray(a.Path)
	if err != nil {
		return nil, err
	}
	for i := 0; i < a.Repeat; i++ {
		if out, err = imaging.ApplyMorphology(op, out, se); err != nil {
			return nil, err
		}
	}
	return s.emit(out, a.outputArgs)
}

func (s *Server) handleRasterFillHoles(args json.RawMessage) (interface{}, error) {
	var a rasterPathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	r, err := s.loadGray(a.Path)
	if err != nil {
		return nil, err
	}
	filled, err := imaging.FillHoles(r)
	if err != nil {
		return nil, err
	}
	return s.emit(filled, a.outputArgs)
}

type rasterLabelArgs struct {
	Path         string  `json:"path"`
	Element      string  `json:"element"`
	Cells        [][]int `json:"cells"`
	MinArea      int     `json:"min_area"`
	Render       string  `json:"render"`
	OutlineColor string  `json:"outline_color"`
	ShowLabels   bool    `json:"show_labels"`
	MaxRegions   int     `json:"max_regions"`
	outputArgs
}

type rasterLabelResult struct {
	Count   int                `json:"count"`
	Regions []detection.Region `json:"regions"`
	Image   *rasterOutput      `json:"image"`
}

func (s *Server) handleRasterLabel(args json.RawMessage) (interface{}, error) {
	var a rasterLabelArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.MaxRegions == 0 {
		a.MaxRegions = 100
	}
	se, err := element(a.Cells, a.Element, "cross4")
	if err != nil {
		return nil, err
	}
	src, err := s.loadGray(a.Path)
	if err != nil {
		return nil, err
	}

	lab, err := detection.Label(src, se)
	if err != nil {
		return nil, err
	}
	if a.MinArea > 0 {
		lab = lab.FilterBySize(a.MinArea)
	}
	regions := lab.Regions()

	var rendered *raster.Raster
	switch strings.ToLower(a.Render) {
	case "", "labels":
		rendered = lab.Raster()
	case "mask":
		rendered = lab.Mask()
	case "color":
		rendered = lab.Colorize()
	case "overlay":
		original, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, err
		}
		if rendered, err = detection.DrawRegions(original, regions, a.OutlineColor, a.ShowLabels); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown render mode %q (want labels, mask, color or overlay)", a.Render)
	}

	img, err := s.emit(rendered, a.outputArgs)
	if err != nil {
		return nil, err
	}

	detection.LargestFirst(regions)
	if len(regions) > a.MaxRegions {
		regions = regions[:a.MaxRegions]
	}
	return &rasterLabelResult{Count: lab.Count, Regions: regions, Image: img}, nil
}

// === Histogram Handlers ===

type rasterHistogramResult struct {
	Histogram imaging.Histogram `json:"histogram"`
	Total     int               `json:"total"`
	Low       int               `json:"low"`
	High      int               `json:"high"`
	Mean      float64           `json:"mean"`
	OtsuLevel int               `json:"otsu_level"`
}

func (s *Server) handleRasterHistogram(args json.RawMessage) (interface{}, error) {
	var a rasterPathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	r, err := s.loadGray(a.Path)
	if err != nil {
		return nil, err
	}
	h, err := imaging.ComputeHistogram(r)
	if err != nil {
		return nil, err
	}

	res := &rasterHistogramResult{Histogram: h, Total: h.Total(), OtsuLevel: imaging.OtsuThreshold(h)}
	res.Low, res.High = h.LowHigh()
	if res.Total > 0 {
		sum := 0
		for v, c := range h {
			sum += v * c
		}
		res.Mean = float64(sum) / float64(res.Total)
	}
	return res, nil
}

type rasterExpandArgs struct {
	Path    string `json:"path"`
	LowIn   *int   `json:"low_in"`
	HighIn  *int   `json:"high_in"`
	LowOut  *int   `json:"low_out"`
	HighOut *int   `json:"high_out"`
	outputArgs
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func (s *Server) handleRasterExpand(args json.RawMessage) (interface{}, error) {
	var a rasterExpandArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	r, err := s.loadGray(a.Path)
	if err != nil {
		return nil, err
	}
	h, err := imaging.ComputeHistogram(r)
	if err != nil {
		return nil, err
	}
	low, high := h.LowHigh()

	out, err := imaging.ExpandRange(r,
		intOr(a.LowIn, low), intOr(a.HighIn, high),
		intOr(a.LowOut, 0), intOr(a.HighOut, 255))
	if err != nil {
		return nil, err
	}
	return s.emit(out, a.outputArgs)
}

func (s *Server) handleRasterEqualize(args json.RawMessage) (interface{}, error) {
	var a rasterPathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	r, err := s.loadGray(a.Path)
	if err != nil {
		return nil, err
	}
	out, err := imaging.Equalize(r)
	if err != nil {
		return nil, err
	}
	return s.emit(out, a.outputArgs)
}

type rasterThresholdArgs struct {
	Path  string `json:"path"`
	Level *int   `json:"level"`
	outputArgs
}

type rasterThresholdResult struct {
	Level int           `json:"level"`
	Otsu  bool          `json:"otsu"`
	Image *rasterOutput `json:"image"`
}

func (s *Server) handleRasterThreshold(args json.RawMessage) (interface{}, error) {
	var a rasterThresholdArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	r, err := s.loadGray(a.Path)
	if err != nil {
		return nil, err
	}

	res := &rasterThresholdResult{}
	if a.Level != nil {
		res.Level = *a.Level
	} else {
		h, err := imaging.ComputeHistogram(r)
		if err != nil {
			return nil, err
		}
		res.Level = imaging.OtsuThreshold(h)
		res.Otsu = true
	}

	out, err := imaging.Threshold(r, res.Level)
	if err != nil {
		return nil, err
	}
	if res.Image, err = s.emit(out, a.outputArgs); err != nil {
		return nil, err
	}
	return res, nil
}

type rasterAdjustArgs struct {
	Path string `json:"path"`
	imaging.Adjustments
	outputArgs
}

func (s *Server) handleRasterAdjust(args json.RawMessage) (interface{}, error) {
	var a rasterAdjustArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	r, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	out, err := imaging.Adjust(r, a.Adjustments)
	if err != nil {
		return nil, err
	}
	return s.emit(out, a.outputArgs)
}

// === Pipeline and Analysis Handlers ===

type rasterRecipeArgs struct {
	Path       string `json:"path"`
	Recipe     string `json:"recipe"`
	RecipePath string `json:"recipe_path"`
	outputArgs
}

type rasterRecipeResult struct {
	Name    string              `json:"name,omitempty"`
	Steps   []recipe.StepReport `json:"steps"`
	Count   *int                `json:"count,omitempty"`
	Regions []detection.Region  `json:"regions,omitempty"`
	Image   *rasterOutput       `json:"image"`
}

func (s *Server) handleRasterRecipe(args json.RawMessage) (interface{}, error) {
	var a rasterRecipeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var rec *recipe.Recipe
	var err error
	switch {
	case a.Recipe != "":
		rec, err = recipe.Parse([]byte(a.Recipe))
	case a.RecipePath != "":
		rec, err = recipe.Load(a.RecipePath)
	default:
		return nil, fmt.Errorf("either recipe or recipe_path is required")
	}
	if err != nil {
		return nil, err
	}

	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := s.runner.Run(rec, src)
	if err != nil {
		return nil, err
	}

	out := &rasterRecipeResult{Name: rec.Name, Steps: res.Steps, Regions: res.Regions}
	if res.Labeling != nil {
		out.Count = &res.Labeling.Count
	}
	if out.Image, err = s.emit(res.Raster, a.outputArgs); err != nil {
		return nil, err
	}
	return out, nil
}

type rasterCompareArgs struct {
	PathA     string `json:"path_a"`
	PathB     string `json:"path_b"`
	Tolerance int    `json:"tolerance"`
}

func (s *Server) handleRasterCompare(args json.RawMessage) (interface{}, error) {
	var a rasterCompareArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	ra, err := s.cache.Load(a.PathA)
	if err != nil {
		return nil, err
	}
	rb, err := s.cache.Load(a.PathB)
	if err != nil {
		return nil, err
	}
	return imaging.CompareRasters(ra, rb, a.Tolerance)
}
