// Package mcp contains the protocol data types and constants exchanged by the
// server. It mirrors the wire representation of the Model Context Protocol
// subset this server speaks (initialize, tools and resources) while keeping
// the surface Go-friendly: exported structs with json tags and string
// constants for method names.
//
// The package is free of transport logic. The stdio transport and the
// dispatcher import these types but implement their own framing and routing;
// capability code (see mcpservice) builds results from these concrete types
// and hands them to the dispatcher for JSON-RPC serialization.
//
// # Method Names
//
// JSON-RPC method names are enumerated as Method constants (e.g.
// ToolsListMethod). Using the constants avoids typographical mistakes and
// keeps a single point of truth for the routing table.
//
// Example (tool result construction):
//
//	res := &mcp.CallToolResult{
//	    Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: "hello"}},
//	}
//
// # Compatibility
//
// ProtocolVersion is the protocol date advertised in initialize results. The
// server does not negotiate; it always answers with this value.
package mcp
