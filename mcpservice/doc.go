// Package mcpservice provides the building blocks behind the server's
// capabilities: the immutable capability Registry (tool and resource
// descriptors), the ToolExecutor and ResourceReader contracts consumed by the
// dispatcher, and static implementations of both.
//
// Quick start:
//
//	type EchoArgs struct {
//	    Message string `json:"message" jsonschema:"description=Text to echo"`
//	}
//	type EchoResult struct {
//	    Echo string `json:"echo"`
//	}
//	echo := mcpservice.NewTool("echo", func(ctx context.Context, a EchoArgs) (EchoResult, error) {
//	    return EchoResult{Echo: a.Message}, nil
//	}, mcpservice.WithToolDescription("Echo a message back to the caller"))
//
//	docs := []mcp.Resource{{URI: "file://readme.txt", Name: "Readme", MimeType: "text/plain"}}
//	reg, err := mcpservice.NewRegistry(mcpservice.ToolDescriptors(echo), docs)
//	if err != nil { ... }
//
//	srv := mcpservice.NewServer(
//	    mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "example", Version: "1.0.0"}),
//	    mcpservice.WithRegistry(reg),
//	    mcpservice.WithToolExecutor(mcpservice.NewToolExecutor(reg, echo)),
//	    mcpservice.WithResourceReader(mcpservice.NewResourceReader(reg, mcpservice.NewFileLoader("."))),
//	)
//
// Conventions used throughout this package:
//   - Descriptors are fixed at construction. Listing order is the order the
//     descriptors were supplied and is stable for the process lifetime.
//   - Lookups are exact, case-sensitive string matches.
//   - Every failure surfaced by an executor or reader is an *ExecutionError or
//     *ReadError whose message is what the caller sees.
package mcpservice
