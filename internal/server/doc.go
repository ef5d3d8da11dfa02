// Package server implements the MCP (Model Context Protocol) server for the
// raster tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the raster
// algorithms of packages imaging, detection and recipe through the MCP
// protocol.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//   - Logs: logrus on stderr, never stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Raster Information:
//   - raster_info, raster_sample_color, raster_crop
//
// Color Conversion:
//   - raster_grayscale, raster_split, raster_combine
//
// Convolution:
//   - raster_convolve, raster_sobel, raster_edges
//
// Morphology and Labeling:
//   - raster_morphology, raster_fill_holes, raster_label
//
// Histogram Operations:
//   - raster_histogram, raster_expand, raster_equalize, raster_threshold,
//     raster_adjust
//
// Pipelines and Analysis:
//   - raster_recipe, raster_compare
//
// Tools that operate on gray values reduce color input with BT.601 weights
// first. Tools that produce a raster either write it to output_path or
// return it inline as base64 PNG.
//
// # Raster Caching
//
// Decoded rasters are cached by path for the lifetime of the server
// process and shared between tool calls. Tools never modify a cached
// raster.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
package server
