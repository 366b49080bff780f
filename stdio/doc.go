// Package stdio implements the line-oriented transport loop of the server over
// stdin/stdout. It is intended for embedding servers as subprocesses, local
// development, and environments where spawning a child process and piping JSON
// is simpler than running an HTTP server.
//
// Characteristics
//
//	Connection model : 1 process <-> 1 client
//	Framing          : one JSON document per line, newline terminated
//	Ordering         : strictly sequential; the next line is read only after
//	                   the previous response was written and flushed
//	Shutdown         : clean on end-of-stream or context cancellation
//
// Options allow supplying alternate io.Reader / io.Writer, a custom logger or
// a different line size limit.
//
// Example:
//
//	eng := engine.NewEngine(srv)
//	h := stdio.NewHandler(eng)
//	if err := h.Serve(ctx); err != nil { log.Fatal(err) }
package stdio
