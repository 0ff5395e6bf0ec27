// Package sse reassembles Server-Sent-Events data frames from an
// arbitrarily chunked byte stream.
//
// The same parser serves both halves of the relay: the upstream reader
// splits on single newlines, the client-side consumer splits on blank-line
// event boundaries. Keeping one implementation means the two sides cannot
// drift apart on escaping or boundary conventions.
package sse

import (
	"encoding/json"
	"log/slog"
	"strings"
)

const dataPrefix = "data:"

// Frame is the raw JSON payload of one complete data frame.
type Frame []byte

// Parser accumulates stream chunks and extracts complete frames. Buffering
// state is a plain value handed to the pure consume step, so framing is
// testable without any transport behind it.
type Parser struct {
	boundary string
	retry    bool
	buf      string
	held     string
}

// NewLineParser returns a parser for the upstream wire format: frames are
// single "data: " lines separated by newlines. A data line whose JSON is
// syntactically incomplete is pushed back onto the buffer and retried when
// the next chunk arrives, since the split may have landed mid-object.
func NewLineParser() *Parser {
	return &Parser{boundary: "\n", retry: true}
}

// NewEventParser returns a parser for the relay's outbound format: events
// are separated by blank lines and always carry exactly one JSON object
// per frame. A payload that fails to parse indicates a lost or malformed
// frame, not a chunk-boundary artifact, so it is skipped rather than
// retried.
func NewEventParser() *Parser {
	return &Parser{boundary: "\n\n"}
}

// Feed appends a chunk to the pending buffer and returns the frames this
// chunk completed. A frame is returned at most once; content that has been
// flushed is removed from the buffer.
func (p *Parser) Feed(chunk []byte) []Frame {
	frames, buf, held := consume(p.buf+string(chunk), p.held, p.boundary, p.retry, false)
	p.buf, p.held = buf, held
	return frames
}

// Flush signals end of stream. Residual buffered content gets one final
// parse attempt; whatever still fails to parse is dropped with a warning,
// since no further chunks can complete it.
func (p *Parser) Flush() []Frame {
	frames, buf, held := consume(p.buf, p.held, p.boundary, p.retry, true)
	p.buf, p.held = buf, held
	return frames
}

// consume extracts every complete frame from buf and returns the remaining
// buffer state. All framing behavior lives in this pure function.
func consume(buf, held, boundary string, retry, final bool) ([]Frame, string, string) {
	var frames []Frame

	for {
		idx := strings.Index(buf, boundary)
		if idx < 0 {
			break
		}
		block := buf[:idx]
		rest := buf[idx+len(boundary):]

		pushedBack := false
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, dataPrefix) {
				// Empty lines and non-data fields are ignored.
				continue
			}
			payload := strings.TrimSpace(line[len(dataPrefix):])
			if payload == "" {
				continue
			}
			if json.Valid([]byte(payload)) {
				frames = append(frames, Frame(payload))
				held = ""
				continue
			}
			if retry && !final && line != held {
				// The boundary we saw may have been split out of the middle
				// of the payload. Hold the line and retry once more data has
				// arrived; if it is unchanged by then the frame is genuinely
				// malformed and gets dropped.
				held = line
				pushedBack = true
				break
			}
			slog.Warn("sse: dropping malformed frame", "line", line)
			held = ""
		}
		if pushedBack {
			return frames, buf, held
		}
		buf = rest
	}

	if final {
		if residual := strings.TrimSpace(buf); residual != "" {
			for _, line := range strings.Split(residual, "\n") {
				line = strings.TrimSpace(line)
				if !strings.HasPrefix(line, dataPrefix) {
					continue
				}
				payload := strings.TrimSpace(line[len(dataPrefix):])
				if payload == "" {
					continue
				}
				if json.Valid([]byte(payload)) {
					frames = append(frames, Frame(payload))
				} else {
					slog.Warn("sse: dropping incomplete frame at end of stream", "line", line)
				}
			}
		}
		buf, held = "", ""
	}

	return frames, buf, held
}
