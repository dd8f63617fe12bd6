package gateway

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws/protocol/eventstream"
	"github.com/stretchr/testify/assert"
)

func eventTypeHeader(eventType string) eventstream.Header {
	return eventstream.Header{Name: ":event-type", Value: eventstream.StringValue(eventType)}
}

func TestBedrockSSEReader_ContentBlockDelta(t *testing.T) {
	r := newBedrockSSEReader(nil, "amazon.titan-text-premier-v1:0", "bedrock-fp-1")

	msg := eventstream.Message{
		Headers: eventstream.Headers{eventTypeHeader("contentBlockDelta")},
		Payload: []byte(`{"delta":{"text":"hello"}}`),
	}

	out := string(r.translateMessage(msg))
	assert.Contains(t, out, "data: ")
	assert.Contains(t, out, `"content":"hello"`)
	assert.Contains(t, out, `"role":"assistant"`)
	assert.Contains(t, out, `"object":"chat.completion.chunk"`)
}

func TestBedrockSSEReader_FirstChunkHasRoleOnce(t *testing.T) {
	r := newBedrockSSEReader(nil, "m", "fp")

	first := string(r.translateMessage(eventstream.Message{
		Headers: eventstream.Headers{eventTypeHeader("contentBlockDelta")},
		Payload: []byte(`{"delta":{"text":"a"}}`),
	}))
	second := string(r.translateMessage(eventstream.Message{
		Headers: eventstream.Headers{eventTypeHeader("contentBlockDelta")},
		Payload: []byte(`{"delta":{"text":"b"}}`),
	}))

	assert.Contains(t, first, `"role":"assistant"`)
	assert.NotContains(t, second, `"role"`)
}

func TestBedrockSSEReader_MetadataEmitsDone(t *testing.T) {
	r := newBedrockSSEReader(nil, "m", "fp")

	msg := eventstream.Message{
		Headers: eventstream.Headers{eventTypeHeader("metadata")},
		Payload: []byte(`{"usage":{"inputTokens":2,"outputTokens":1,"totalTokens":3}}`),
	}

	out := string(r.translateMessage(msg))
	assert.Contains(t, out, `"finish_reason":"stop"`)
	assert.Contains(t, out, `"total_tokens":3`)
	assert.Contains(t, out, "data: [DONE]\n\n")
}

func TestBedrockSSEReader_UnknownEventTypeIsSkipped(t *testing.T) {
	r := newBedrockSSEReader(nil, "m", "fp")

	out := r.translateMessage(eventstream.Message{
		Headers: eventstream.Headers{eventTypeHeader("messageStart")},
		Payload: []byte(`{}`),
	})
	assert.Nil(t, out)
}
