package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()
	require.NotEmpty(t, tools)

	expectedTools := []string{
		"raster_info",
		"raster_sample_color",
		"raster_crop",
		"raster_grayscale",
		"raster_split",
		"raster_combine",
		"raster_convolve",
		"raster_sobel",
		"raster_edges",
		"raster_morphology",
		"raster_fill_holes",
		"raster_label",
		"raster_histogram",
		"raster_expand",
		"raster_equalize",
		"raster_threshold",
		"raster_adjust",
		"raster_recipe",
		"raster_compare",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		_, dup := toolMap[tool.Name]
		assert.Falsef(t, dup, "duplicate tool %s", tool.Name)
		toolMap[tool.Name] = tool
	}
	for _, name := range expectedTools {
		assert.Containsf(t, toolMap, name, "expected tool %s", name)
	}
	assert.Len(t, tools, len(expectedTools))
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			assert.NotEmpty(t, tool.Description)
			require.NotNil(t, tool.InputSchema)
			assert.Equal(t, "object", tool.InputSchema["type"])

			properties, ok := tool.InputSchema["properties"].(map[string]interface{})
			require.True(t, ok, "properties should be a map")

			required, ok := tool.InputSchema["required"].([]string)
			require.True(t, ok, "required should be []string")
			require.NotEmpty(t, required)
			for _, name := range required {
				assert.Containsf(t, properties, name, "required property %s is not defined", name)
			}

			for name, p := range properties {
				pm, ok := p.(map[string]interface{})
				require.Truef(t, ok, "property %s", name)
				assert.Containsf(t, pm, "type", "property %s has no type", name)
			}
		})
	}
}

func TestToolDefinitions_DispatchableAndSerializable(t *testing.T) {
	s := New(nil, nil)
	for _, tool := range GetToolDefinitions() {
		_, err := s.executeTool(tool.Name, json.RawMessage(`{}`))
		if err != nil {
			assert.NotContainsf(t, err.Error(), "unknown tool", "tool %s has no handler", tool.Name)
		}
	}

	data, err := json.Marshal(GetToolDefinitions())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"inputSchema"`)
}

func TestHandleToolsList(t *testing.T) {
	resp := New(nil, nil).handleToolsList(&MCPRequest{ID: 3})
	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]interface{})
	assert.Len(t, result["tools"], len(GetToolDefinitions()))
}
