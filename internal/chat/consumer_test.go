package chat

import (
	"strings"
	"testing"
	"testing/iotest"

	"github.com/Davy-hou/dify-relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startedConversation returns a conversation mid-turn, ready to receive
// stream frames.
func startedConversation(q string) *Conversation {
	c := NewConversation()
	c.AppendUser(q, "")
	c.BeginAssistant()
	return c
}

func TestConsumerContentThenEnd(t *testing.T) {
	conv := startedConversation("hello")
	updates := 0
	consumer := NewConsumer(conv, func() { updates++ }, nil)

	stream := "data: {\"content\":\"Hi\",\"isMarkdown\":true}\n\n" +
		"data: {\"end\":true,\"metadata\":{}}\n\n"
	require.NoError(t, consumer.Run(strings.NewReader(stream)))

	m := conv.Messages()[1]
	assert.Equal(t, "Hi", m.Content)
	assert.True(t, m.IsMarkdown)
	assert.False(t, m.IsStreaming)
	assert.Equal(t, 2, updates)
}

func TestConsumerAccumulatesDeltas(t *testing.T) {
	conv := startedConversation("hello")
	consumer := NewConsumer(conv, nil, nil)

	stream := "data: {\"content\":\"Hel\",\"isMarkdown\":true}\n\n" +
		"data: {\"content\":\"lo!\",\"isMarkdown\":true}\n\n" +
		"data: {\"end\":true,\"metadata\":{}}\n\n"
	require.NoError(t, consumer.Run(strings.NewReader(stream)))

	assert.Equal(t, "Hello!", conv.Messages()[1].Content)
}

func TestConsumerKnowledgeSources(t *testing.T) {
	conv := startedConversation("search")
	consumer := NewConsumer(conv, nil, nil)

	stream := "data: {\"knowledgeSources\":[{\"content\":\"doc\",\"score\":0.9}],\"nodeTitle\":\"知识检索\"}\n\n" +
		"data: {\"content\":\"answer\",\"isMarkdown\":true}\n\n" +
		"data: {\"end\":true,\"metadata\":{}}\n\n"
	require.NoError(t, consumer.Run(strings.NewReader(stream)))

	m := conv.Messages()[1]
	require.Len(t, m.KnowledgeSources, 1)
	assert.Equal(t, "doc", m.KnowledgeSources[0].Content)
	assert.Equal(t, "answer", m.Content)
}

func TestConsumerErrorFrame(t *testing.T) {
	conv := startedConversation("hello")
	var notified string
	consumer := NewConsumer(conv, nil, func(msg string) { notified = msg })

	stream := "data: {\"content\":\"par\",\"isMarkdown\":true}\n\n" +
		"data: {\"error\":\"quota exceeded\"}\n\n" +
		"data: {\"content\":\"late\",\"isMarkdown\":true}\n\n"
	require.NoError(t, consumer.Run(strings.NewReader(stream)))

	assert.Equal(t, "quota exceeded", notified)
	m := conv.Messages()[1]
	assert.Equal(t, domain.ErrorPrefix+"quota exceeded", m.Content)
}

func TestConsumerSkipsMalformedFrame(t *testing.T) {
	conv := startedConversation("hello")
	consumer := NewConsumer(conv, nil, nil)

	stream := "data: {\"content\":\"ok\",\"isMarkdown\":true}\n\n" +
		"data: not json\n\n" +
		"data: {\"end\":true,\"metadata\":{}}\n\n"
	require.NoError(t, consumer.Run(strings.NewReader(stream)))

	m := conv.Messages()[1]
	assert.Equal(t, "ok", m.Content)
	assert.True(t, m.IsMarkdown)
}

func TestConsumerByteByByteStream(t *testing.T) {
	conv := startedConversation("hello")
	consumer := NewConsumer(conv, nil, nil)

	stream := "data: {\"content\":\"Hi\",\"isMarkdown\":true}\n\n" +
		"data: {\"end\":true,\"metadata\":{}}\n\n"
	require.NoError(t, consumer.Run(iotest.OneByteReader(strings.NewReader(stream))))

	m := conv.Messages()[1]
	assert.Equal(t, "Hi", m.Content)
	assert.True(t, m.IsMarkdown)
}
