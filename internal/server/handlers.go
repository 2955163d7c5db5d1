package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ironsheep/box-measure/internal/detection"
	"github.com/ironsheep/box-measure/internal/imaging"
	"github.com/ironsheep/box-measure/internal/log"
	"github.com/ironsheep/box-measure/internal/measure"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "box_measure").
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
// A panic inside a tool becomes an internal error (-32603) and the server
// keeps running.
func (s *Server) handleToolsCall(req *MCPRequest) (resp *MCPResponse) {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(log.Fields{"tool": params.Name, "panic": r}).Error("Tool panicked")
			resp = s.errorResponse(req.ID, -32603, "Internal error", fmt.Sprint(r))
		}
	}()

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.WithField("tool", params.Name).WithError(err).Debug("Tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "box_measure":
		return s.handleBoxMeasure(args)
	case "box_contours":
		return s.handleBoxContours(args)
	case "box_edge_map":
		return s.handleBoxEdgeMap(args)
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

var errNoImage = errors.New("one of path or image_base64 is required")

// imageSource is embedded by every tool's arguments.
type imageSource struct {
	Path        string `json:"path"`
	ImageBase64 string `json:"image_base64"`
}

// bytes returns the raw image file, read from disk or decoded from base64.
func (src imageSource) bytes() ([]byte, error) {
	switch {
	case src.Path != "":
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open image: %w", err)
		}
		return data, nil
	case src.ImageBase64 != "":
		encoded := strings.TrimSpace(src.ImageBase64)
		if i := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && i >= 0 {
			encoded = encoded[i+1:]
		}
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(encoded)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid base64: %w", measure.ErrDecode, err)
		}
		return data, nil
	default:
		return nil, errNoImage
	}
}

func (s *Server) markerWidth(v *float64) float64 {
	if v == nil {
		return s.markerWidthCM
	}
	return *v
}

// === Measurement Handlers ===

type boxMeasureArgs struct {
	imageSource
	MarkerWidthCM *float64 `json:"marker_width_cm"`
}

func (s *Server) handleBoxMeasure(args json.RawMessage) (interface{}, error) {
	var a boxMeasureArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := a.bytes()
	if err != nil {
		return nil, err
	}
	return s.measurer.Measure(data, s.markerWidth(a.MarkerWidthCM))
}

// ContourInfo describes one external contour in a box_contours result.
type ContourInfo struct {
	Index           int            `json:"index"`
	Bounds          detection.Rect `json:"bounds"`
	Area            float64        `json:"area"`
	AspectRatio     float64        `json:"aspect_ratio"`
	Points          int            `json:"points"`
	MarkerCandidate bool           `json:"marker_candidate"`
	IsMarker        bool           `json:"is_marker"`
	IsBox           bool           `json:"is_box"`
}

// ContoursResult is the box_contours output. Error is set when the pipeline
// stopped early; the stages before the failure are still reported.
type ContoursResult struct {
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	Contours    []ContourInfo   `json:"contours"`
	Measurement *measure.Result `json:"measurement,omitempty"`
	Error       string          `json:"error,omitempty"`
	ImageBase64 string          `json:"image_base64,omitempty"`
	MimeType    string          `json:"mime_type,omitempty"`
}

type boxContoursArgs struct {
	imageSource
	MarkerWidthCM *float64 `json:"marker_width_cm"`
	Annotate      bool     `json:"annotate"`
}

func (s *Server) handleBoxContours(args json.RawMessage) (interface{}, error) {
	var a boxContoursArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := a.bytes()
	if err != nil {
		return nil, err
	}

	analysis, err := s.measurer.Inspect(data, s.markerWidth(a.MarkerWidthCM))
	if err != nil {
		return nil, err
	}

	bounds := analysis.Image.Bounds()
	result := &ContoursResult{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Contours:    make([]ContourInfo, len(analysis.Contours)),
		Measurement: analysis.Result,
	}
	if analysis.Err != nil {
		result.Error = analysis.Err.Error()
	}

	criteria := s.measurer.MarkerOptions().Criteria
	for i, c := range analysis.Contours {
		result.Contours[i] = ContourInfo{
			Index:           i,
			Bounds:          c.Bounds,
			Area:            c.Area,
			AspectRatio:     c.AspectRatio(),
			Points:          len(c.Points),
			MarkerCandidate: criteria.Accepts(c),
			IsMarker:        analysis.Marker != nil && analysis.Marker.Index == i,
			IsBox:           analysis.Box != nil && analysis.Box.Index == i,
		}
	}

	if a.Annotate {
		encoded, err := imaging.EncodePNGBase64(measure.Annotate(analysis))
		if err != nil {
			return nil, fmt.Errorf("failed to encode annotated image: %w", err)
		}
		result.ImageBase64 = encoded
		result.MimeType = "image/png"
	}

	return result, nil
}

type boxEdgeMapArgs struct {
	imageSource
	ThresholdLow  *float64 `json:"threshold_low"`
	ThresholdHigh *float64 `json:"threshold_high"`
	KernelSize    *int     `json:"kernel_size"`
	CloseGaps     *bool    `json:"close_gaps"`
}

func (s *Server) handleBoxEdgeMap(args json.RawMessage) (interface{}, error) {
	var a boxEdgeMapArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	opts := imaging.DefaultEdgeOptions()
	if a.ThresholdLow != nil {
		opts.LowThreshold = *a.ThresholdLow
	}
	if a.ThresholdHigh != nil {
		opts.HighThreshold = *a.ThresholdHigh
	}
	if a.KernelSize != nil {
		opts.KernelSize = *a.KernelSize
	}
	if a.CloseGaps != nil {
		opts.CloseGaps = *a.CloseGaps
	}
	// Checked before touching the image: a huge kernel would stall the
	// stdio loop.
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	data, err := a.bytes()
	if err != nil {
		return nil, err
	}
	img, err := measure.Decode(data)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(img, opts)
}
