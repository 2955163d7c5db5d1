// Package server implements the MCP (Model Context Protocol) server for box
// measurement.
//
// The server exposes the same pipeline as the HTTP API as MCP tools, so an
// MCP-compatible client can measure boxes in photos and look at the
// intermediate stages when a photo fails.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - box_measure: Length, width and estimated height in centimeters
//   - box_contours: External contours with marker and box picks, optional
//     annotated PNG
//   - box_edge_map: The binary edge map the contour search runs on
//
// Every tool takes either path (a file readable by the server) or
// image_base64.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Logs go to the configured logger and never to stdout, which carries the
// protocol.
//
// # Usage
//
//	srv := server.New(server.WithMeasurer(m), server.WithLogger(logger))
//	if err := srv.Run(); err != nil {
//	    logger.Fatal(err)
//	}
package server
