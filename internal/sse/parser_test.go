package sse

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(p *Parser, chunks ...string) []string {
	var out []string
	for _, c := range chunks {
		for _, f := range p.Feed([]byte(c)) {
			out = append(out, string(f))
		}
	}
	for _, f := range p.Flush() {
		out = append(out, string(f))
	}
	return out
}

func TestLineParserChunkBoundaryInvariance(t *testing.T) {
	payload := "data: {\"event\":\"message\",\"answer\":\"Hi\"}\n" +
		"data: {\"event\":\"node_finished\",\"data\":{\"node_type\":\"knowledge-retrieval\",\"title\":\"kb\",\"outputs\":{\"result\":[{\"content\":\"doc\",\"score\":0.95}]}}}\n" +
		"\n" +
		"data: {\"event\":\"message_end\",\"metadata\":{}}\n"

	want := collect(NewLineParser(), payload)
	require.Len(t, want, 3)

	for i := 0; i <= len(payload); i++ {
		t.Run(fmt.Sprintf("split_%d", i), func(t *testing.T) {
			got := collect(NewLineParser(), payload[:i], payload[i:])
			assert.Equal(t, want, got)
		})
	}
}

func TestLineParserByteByByte(t *testing.T) {
	payload := "data: {\"event\":\"message\",\"answer\":\"你好\"}\n" +
		"data: {\"event\":\"message_end\",\"metadata\":{}}\n"

	want := collect(NewLineParser(), payload)
	require.Len(t, want, 2)

	p := NewLineParser()
	var got []string
	for i := 0; i < len(payload); i++ {
		for _, f := range p.Feed([]byte(payload[i : i+1])) {
			got = append(got, string(f))
		}
	}
	for _, f := range p.Flush() {
		got = append(got, string(f))
	}
	assert.Equal(t, want, got)
}

func TestLineParserDoesNotReemitFlushedFrames(t *testing.T) {
	p := NewLineParser()

	frames := p.Feed([]byte("data: {\"a\":1}\n"))
	require.Len(t, frames, 1)

	// Subsequent chunks must not replay already-flushed content.
	assert.Empty(t, p.Feed([]byte("\n")))
	assert.Empty(t, p.Feed([]byte("event: ping\n")))
	assert.Empty(t, p.Flush())
}

func TestLineParserHoldsTruncatedJSONUntilCompleted(t *testing.T) {
	p := NewLineParser()

	// Chunk ends mid-object: nothing may be emitted yet.
	assert.Empty(t, p.Feed([]byte("data: {\"event\":\"node_finished\",\"data\":{\"node_ty")))

	frames := p.Feed([]byte("pe\":\"knowledge-retrieval\"}}\n"))
	require.Len(t, frames, 1)
	assert.JSONEq(t, `{"event":"node_finished","data":{"node_type":"knowledge-retrieval"}}`, string(frames[0]))
}

func TestLineParserIgnoresNonDataLines(t *testing.T) {
	p := NewLineParser()

	frames := p.Feed([]byte("event: ping\n\n: comment\nid: 7\ndata: {\"ok\":true}\n"))
	require.Len(t, frames, 1)
	assert.Equal(t, `{"ok":true}`, string(frames[0]))
}

func TestLineParserFlushParsesResidual(t *testing.T) {
	p := NewLineParser()

	// Final frame arrives without a trailing newline.
	assert.Empty(t, p.Feed([]byte("data: {\"end\":true}")))

	frames := p.Flush()
	require.Len(t, frames, 1)
	assert.Equal(t, `{"end":true}`, string(frames[0]))
}

func TestLineParserFlushDropsIncompleteResidual(t *testing.T) {
	p := NewLineParser()

	assert.Empty(t, p.Feed([]byte("data: {\"never\":")))
	assert.Empty(t, p.Flush())
}

func TestLineParserDropsMalformedLineAfterRetry(t *testing.T) {
	p := NewLineParser()

	// A complete line with broken JSON is pushed back first...
	assert.Empty(t, p.Feed([]byte("data: {broken\n")))

	// ...and dropped once new data shows it will never parse. The frame
	// behind it must still come through.
	frames := p.Feed([]byte("data: {\"ok\":true}\n"))
	require.Len(t, frames, 1)
	assert.Equal(t, `{"ok":true}`, string(frames[0]))
}

func TestEventParserChunkBoundaryInvariance(t *testing.T) {
	payload := "data: {\"content\":\"Hel\",\"isMarkdown\":true}\n\n" +
		"data: {\"knowledgeSources\":[{\"content\":\"doc\"}],\"nodeTitle\":\"kb\"}\n\n" +
		"data: {\"end\":true,\"metadata\":{}}\n\n"

	want := collect(NewEventParser(), payload)
	require.Len(t, want, 3)

	for i := 0; i <= len(payload); i++ {
		got := collect(NewEventParser(), payload[:i], payload[i:])
		require.Equalf(t, want, got, "split at offset %d", i)
	}
}

func TestEventParserRetainsTrailingPartialEvent(t *testing.T) {
	p := NewEventParser()

	frames := p.Feed([]byte("data: {\"x\":1}\n\nda"))
	require.Len(t, frames, 1)

	frames = p.Feed([]byte("ta: {\"y\":2}\n\n"))
	require.Len(t, frames, 1)
	assert.Equal(t, `{"y":2}`, string(frames[0]))
}

func TestEventParserSkipsMalformedFrameWithoutStalling(t *testing.T) {
	p := NewEventParser()

	// Outbound frames are emitter-aligned, so a broken payload means a lost
	// frame; the consumer skips it rather than waiting for more bytes.
	frames := p.Feed([]byte("data: {torn\n\ndata: {\"content\":\"hi\",\"isMarkdown\":true}\n\n"))
	require.Len(t, frames, 1)
	assert.Equal(t, `{"content":"hi","isMarkdown":true}`, string(frames[0]))
}

func TestEventParserMultipleDataLinesInOneEvent(t *testing.T) {
	p := NewEventParser()

	frames := p.Feed([]byte("data: {\"a\":1}\ndata: {\"b\":2}\n\n"))
	require.Len(t, frames, 2)
	assert.Equal(t, `{"a":1}`, string(frames[0]))
	assert.Equal(t, `{"b":2}`, string(frames[1]))
}
