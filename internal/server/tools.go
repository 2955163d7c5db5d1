package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// imageSourceProperties are accepted by every tool. Exactly one of path or
// image_base64 must be given.
func imageSourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the image file",
		},
		"image_base64": map[string]interface{}{
			"type":        "string",
			"description": "Image bytes, base64-encoded. Used when path is omitted.",
		},
	}
}

func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

var markerWidthProperty = map[string]interface{}{
	"type":        "number",
	"description": "Real width of the square reference marker in centimeters. Default 5.0",
	"default":     5.0,
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name: "box_measure",
			Description: "Estimate length, width and height in centimeters of the box in a photo. " +
				"The photo must contain a flat square reference marker of known width. " +
				"Height is an estimate: half the smaller of length and width.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(imageSourceProperties(), map[string]interface{}{
					"marker_width_cm": markerWidthProperty,
				}),
			},
		},
		{
			Name: "box_contours",
			Description: "List the external contours found in a photo with their bounding boxes and areas, " +
				"and which ones were picked as marker and box. Optionally returns an annotated PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(imageSourceProperties(), map[string]interface{}{
					"marker_width_cm": markerWidthProperty,
					"annotate": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a base64 PNG with contours, marker (green) and box (red) drawn. Default false",
						"default":     false,
					},
				}),
			},
		},
		{
			Name:        "box_edge_map",
			Description: "Return the binary edge map the contour search runs on, as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(imageSourceProperties(), map[string]interface{}{
					"threshold_low": map[string]interface{}{
						"type":        "number",
						"description": "Canny low threshold, non-negative (default 50)",
						"minimum":     0,
						"default":     50,
					},
					"threshold_high": map[string]interface{}{
						"type":        "number",
						"description": "Canny high threshold, non-negative, at least threshold_low (default 150)",
						"minimum":     0,
						"default":     150,
					},
					"kernel_size": map[string]interface{}{
						"type":        "integer",
						"description": "Gaussian kernel size: odd, 3 to 31, or 0/1 to skip smoothing (default 5)",
						"minimum":     0,
						"maximum":     31,
						"default":     5,
					},
					"close_gaps": map[string]interface{}{
						"type":        "boolean",
						"description": "Bridge small breaks in edges (default true)",
						"default":     true,
					},
				}),
			},
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
