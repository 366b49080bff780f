package stdio

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/light-autom8/mcp-server-go/internal/logctx"
)

// DefaultMaxLineSize is the default inbound line limit.
const DefaultMaxLineSize = 1 << 20

// LineHandler turns one request line into exactly one response line (without
// the trailing newline). *engine.Engine implements it.
type LineHandler interface {
	HandleLine(ctx context.Context, line []byte) []byte
}

// Handler is a single-connection stdio transport that reads newline-delimited
// JSON-RPC messages from an io.Reader and writes responses to an io.Writer. By
// default, it uses os.Stdin and os.Stdout.
//
// The handler is transport-only; it delegates all protocol semantics to the
// provided LineHandler.
type Handler struct {
	h       LineHandler
	r       io.Reader
	w       io.Writer
	l       *slog.Logger
	maxLine int
}

// NewHandler constructs a stdio Handler with defaults and applies options.
func NewHandler(h LineHandler, opts ...Option) *Handler {
	s := &Handler{
		h:       h,
		r:       os.Stdin,
		w:       os.Stdout,
		l:       slog.Default(),
		maxLine: DefaultMaxLineSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type readResult struct {
	line      []byte
	truncated bool
	err       error
}

// Serve runs the stdio loop until EOF on the reader or the context is
// canceled. It is safe to call at most once per Handler.
//
// Lines are processed strictly one at a time: the next line is only read once
// the response to the current one has been written and flushed. Blank lines
// are skipped without a response. EOF ends the loop with a nil error; context
// cancellation returns ctx.Err().
func (h *Handler) Serve(ctx context.Context) error {
	br := bufio.NewReader(h.r)
	bw := bufio.NewWriter(h.w)

	next := make(chan struct{})
	results := make(chan readResult)
	done := make(chan struct{})
	defer close(done)

	// The reader only ever reads when asked to, so at most one line is in
	// flight and nothing is consumed from the input ahead of its turn.
	go func() {
		for {
			select {
			case <-done:
				return
			case <-next:
			}
			line, truncated, err := readLine(br, h.maxLine)
			select {
			case results <- readResult{line: line, truncated: truncated, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	h.l.DebugContext(ctx, "stdio.serve.start")

	var seq int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case next <- struct{}{}:
		}

		var res readResult
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res = <-results:
		}

		if len(res.line) > 0 || res.truncated {
			seq++
			if err := h.handle(ctx, bw, seq, res); err != nil {
				return err
			}
		}

		if res.err != nil {
			if errors.Is(res.err, io.EOF) {
				h.l.DebugContext(ctx, "stdio.serve.eof", slog.Int64("lines", seq))
				return nil
			}
			return fmt.Errorf("stdio: read: %w", res.err)
		}
	}
}

func (h *Handler) handle(ctx context.Context, bw *bufio.Writer, seq int64, res readResult) error {
	line := bytes.TrimSpace(res.line)
	if len(line) == 0 && !res.truncated {
		return nil
	}
	ctx = logctx.WithLineData(ctx, &logctx.LineData{Seq: seq, Bytes: len(res.line)})

	if res.truncated {
		h.l.WarnContext(ctx, "stdio.line.too_long", slog.Int("max_bytes", h.maxLine))
		line = nil
	}

	out := h.h.HandleLine(ctx, line)

	if _, err := bw.Write(out); err != nil {
		return fmt.Errorf("stdio: write response: %w", err)
	}
	if err := bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("stdio: write response: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("stdio: flush response: %w", err)
	}
	return nil
}

// readLine reads up to and including the next newline. A line whose content,
// excluding its \n or \r\n terminator, exceeds max bytes is discarded and
// reported through truncated. The returned line excludes the terminator. A final unterminated line is returned together with io.EOF.
func readLine(br *bufio.Reader, max int) (line []byte, truncated bool, err error) {
	var buf []byte
	for {
		chunk, err := br.ReadSlice('\n')
		if !truncated {
			if len(buf)+len(chunk) > max+2 { // allow for \r\n
				truncated = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if truncated {
			return nil, true, err
		}
		buf = bytes.TrimSuffix(buf, []byte("\n"))
		buf = bytes.TrimSuffix(buf, []byte("\r"))
		if len(buf) > max {
			return nil, true, err
		}
		return buf, false, err
	}
}
