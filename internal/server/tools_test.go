package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"box_measure",
		"box_contours",
		"box_edge_map",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("Tool count: got %d, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want object", tool.InputSchema["type"])
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("properties should be a map")
			}
			// Every tool accepts both image sources.
			for _, name := range []string{"path", "image_base64"} {
				if _, ok := props[name]; !ok {
					t.Errorf("missing %s property", name)
				}
			}
		})
	}
}

func TestToolDefinitions_OptionalDefaults(t *testing.T) {
	tests := []struct {
		tool  string
		param string
		want  interface{}
	}{
		{"box_measure", "marker_width_cm", 5.0},
		{"box_contours", "annotate", false},
		{"box_edge_map", "threshold_low", 50},
		{"box_edge_map", "threshold_high", 150},
		{"box_edge_map", "kernel_size", 5},
		{"box_edge_map", "close_gaps", true},
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for _, tt := range tests {
		t.Run(tt.tool+"/"+tt.param, func(t *testing.T) {
			props := toolMap[tt.tool].InputSchema["properties"].(map[string]interface{})
			param, ok := props[tt.param].(map[string]interface{})
			if !ok {
				t.Fatalf("param %s not found", tt.param)
			}
			if param["default"] != tt.want {
				t.Errorf("default: got %v, want %v", param["default"], tt.want)
			}
		})
	}
}

func TestHandleToolsList(t *testing.T) {
	s := New()
	resp := s.handleToolsList(&MCPRequest{JSONRPC: "2.0", ID: 1})

	if resp == nil {
		t.Fatal("handleToolsList returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}

	expected := GetToolDefinitions()
	if len(toolsList) != len(expected) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(expected))
	}
}
