package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

type props map[string]interface{}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

func propDefault(typ, description string, def interface{}) map[string]interface{} {
	p := prop(typ, description)
	p["default"] = def
	return p
}

func propEnum(description string, values ...string) map[string]interface{} {
	p := prop("string", description)
	p["enum"] = values
	return p
}

func grid(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "integer"},
		},
	}
}

// schema builds an object schema. Every raster-producing tool also gets
// output_path and scale.
func schema(p props, withOutput bool, required ...string) map[string]interface{} {
	if withOutput {
		p["output_path"] = prop("string", "Optional file to write the result to (format by extension). Relative paths resolve against RASTER_TOOLS_OUTPUT_DIR. When omitted the result is returned as base64 PNG")
		p["scale"] = propDefault("number", "Scale factor for the returned PNG preview", 1.0)
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}(p),
		"required":   required,
	}
}

func pathProp() map[string]interface{} {
	return prop("string", "Absolute path to the image file")
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Raster Information
		{
			Name:        "raster_info",
			Description: "Load an image file and return its width, height, channel count (1 for grayscale, 3 for color), decoder format and file size.",
			InputSchema: schema(props{"path": pathProp()}, false, "path"),
		},
		{
			Name:        "raster_sample_color",
			Description: "Get the color of a single pixel as hex, RGB, HSL and gray value.",
			InputSchema: schema(props{
				"path": pathProp(),
				"x":    prop("integer", "X coordinate (0-based)"),
				"y":    prop("integer", "Y coordinate (0-based)"),
			}, false, "path", "x", "y"),
		},
		{
			Name:        "raster_crop",
			Description: "Crop a rectangle (x2/y2 exclusive) or a named region from an image. Use it to inspect a labeled region up close.",
			InputSchema: schema(props{
				"path": pathProp(),
				"region": propEnum("Named region; overrides the coordinates",
					"top-left", "top-right", "bottom-left", "bottom-right",
					"top-half", "bottom-half", "left-half", "right-half", "center"),
				"x1": prop("integer", "Left edge X coordinate (0-based)"),
				"y1": prop("integer", "Top edge Y coordinate (0-based)"),
				"x2": prop("integer", "Right edge X coordinate (exclusive)"),
				"y2": prop("integer", "Bottom edge Y coordinate (exclusive)"),
			}, true, "path"),
		},

		// Color Conversion
		{
			Name:        "raster_grayscale",
			Description: "Convert a color image to 8-bit grayscale. Grayscale input is returned unchanged.",
			InputSchema: schema(props{
				"path":   pathProp(),
				"method": propEnum("average = (R+G+B)/3, weighted = BT.601 luma, luminance = BT.709 luminance", "average", "weighted", "luminance"),
			}, true, "path"),
		},
		{
			Name:        "raster_split",
			Description: "Split a color image into red, green and blue grayscale planes. With output_path, the planes are written to <name>_red, <name>_green and <name>_blue.",
			InputSchema: schema(props{"path": pathProp()}, true, "path"),
		},
		{
			Name:        "raster_combine",
			Description: "Combine three grayscale images of equal size into one color image.",
			InputSchema: schema(props{
				"red_path":   prop("string", "Image used as the red plane"),
				"green_path": prop("string", "Image used as the green plane"),
				"blue_path":  prop("string", "Image used as the blue plane"),
			}, true, "red_path", "green_path", "blue_path"),
		},

		// Convolution
		{
			Name:        "raster_convolve",
			Description: "Convolve each channel with a square kernel. Results are divided by the kernel divisor and clamped to 0-255. Pixels whose window leaves the image are set to 0.",
			InputSchema: schema(props{
				"path":    pathProp(),
				"kernel":  propEnum("Preset kernel, used when weights is empty", "mean", "high_pass", "border_south", "sobel_x", "sobel_y"),
				"weights": grid("Custom odd-sized square kernel"),
				"divisor": propDefault("integer", "Divisor for custom weights", 1),
				"repeat":  propDefault("integer", "Number of passes", 1),
			}, true, "path"),
		},
		{
			Name:        "raster_sobel",
			Description: "Sobel gradient of an image (color input is reduced to BT.601 gray first). Returns the gradient magnitude or one directional component.",
			InputSchema: schema(props{
				"path":      pathProp(),
				"component": propEnum("Which result to return", "magnitude", "vertical", "horizontal"),
			}, true, "path"),
		},
		{
			Name:        "raster_edges",
			Description: "Canny edge detection. Returns a binary edge map.",
			InputSchema: schema(props{
				"path":           pathProp(),
				"threshold_low":  propDefault("integer", "Lower hysteresis threshold", 50),
				"threshold_high": propDefault("integer", "Upper hysteresis threshold", 150),
			}, true, "path"),
		},

		// Morphology and Labeling
		{
			Name:        "raster_morphology",
			Description: "Binary morphology. Any non-zero pixel is foreground and the output is 0/255. Color input is reduced to BT.601 gray first.",
			InputSchema: schema(props{
				"path":      pathProp(),
				"operation": propEnum("Operation to apply", "dilate", "erode", "open", "close", "border"),
				"element":   propEnum("Preset structuring element, used when cells is empty", "cross4", "neighbors8", "cross", "square3", "square5"),
				"cells":     grid("Custom odd-sized square structuring element of 0/1 entries"),
				"repeat":    propDefault("integer", "Number of passes", 1),
			}, true, "path", "operation"),
		},
		{
			Name:        "raster_fill_holes",
			Description: "Fill background areas of a binary mask that are not 4-connected to the image edge.",
			InputSchema: schema(props{"path": pathProp()}, true, "path"),
		},
		{
			Name:        "raster_label",
			Description: "Label connected regions of equal non-zero intensity and report area, bounding box, centroid and fill ratio per region (largest first). Render as wrapped label values, a mask, a color map or an outline overlay.",
			InputSchema: schema(props{
				"path":          pathProp(),
				"element":       propEnum("Adjacency", "cross4", "neighbors8"),
				"cells":         grid("Custom adjacency element; the centre is ignored"),
				"min_area":      prop("integer", "Drop regions smaller than this many pixels"),
				"render":        propEnum("Returned image", "labels", "mask", "color", "overlay"),
				"outline_color": propDefault("string", "Overlay outline color (hex)", "#FF0000"),
				"show_labels":   prop("boolean", "Draw region numbers on the overlay"),
				"max_regions":   propDefault("integer", "Maximum number of regions listed", 100),
			}, true, "path"),
		},

		// Histogram Operations
		{
			Name:        "raster_histogram",
			Description: "Histogram of the gray values with low/high bounds, mean and the Otsu threshold level.",
			InputSchema: schema(props{"path": pathProp()}, false, "path"),
		},
		{
			Name:        "raster_expand",
			Description: "Linearly stretch gray values. By default the darkest value maps to 0 and the brightest to 255.",
			InputSchema: schema(props{
				"path":     pathProp(),
				"low_in":   prop("integer", "Input value mapped to low_out (default: darkest value)"),
				"high_in":  prop("integer", "Input value mapped to high_out (default: brightest value)"),
				"low_out":  propDefault("integer", "Output lower bound", 0),
				"high_out": propDefault("integer", "Output upper bound", 255),
			}, true, "path"),
		},
		{
			Name:        "raster_equalize",
			Description: "Histogram equalization of the gray values.",
			InputSchema: schema(props{"path": pathProp()}, true, "path"),
		},
		{
			Name:        "raster_threshold",
			Description: "Binarize: values above level become 255, the rest 0. Without level the Otsu threshold is used.",
			InputSchema: schema(props{
				"path":  pathProp(),
				"level": prop("integer", "Threshold level 0-255"),
			}, true, "path"),
		},
		{
			Name:        "raster_adjust",
			Description: "Tonal adjustments applied in order: brightness, contrast, solarize, saturation.",
			InputSchema: schema(props{
				"path":       pathProp(),
				"brightness": prop("integer", "Added to every sample, -255 to 255"),
				"contrast":   prop("number", "-255 to 255"),
				"solarize":   prop("integer", "Invert samples above this level"),
				"saturation": prop("number", "0 = gray, 1 = unchanged"),
			}, true, "path"),
		},

		// Pipelines and Analysis
		{
			Name:        "raster_recipe",
			Description: "Run a YAML recipe (ordered steps such as grayscale, threshold, morphology, fill_holes, label) over an image. Returns per-step reports, any labeled regions and the final raster.",
			InputSchema: schema(props{
				"path":        pathProp(),
				"recipe":      prop("string", "Recipe YAML text"),
				"recipe_path": prop("string", "Recipe YAML file, used when recipe is empty"),
			}, true, "path"),
		},
		{
			Name:        "raster_compare",
			Description: "Compare two images of equal size pixel by pixel. Reports similarity, differing pixels and foreground added/removed.",
			InputSchema: schema(props{
				"path_a":    prop("string", "First image"),
				"path_b":    prop("string", "Second image"),
				"tolerance": prop("integer", "Mean channel difference tolerated per pixel"),
			}, false, "path_a", "path_b"),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
