package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputText(t *testing.T) {
	assert.Equal(t, "hello", OutputText(TextOutput{Text: "hello"}))
	assert.Equal(t, "[image: /tmp/out.png]", OutputText(ImageRefOutput{Path: "/tmp/out.png"}))
	assert.Equal(t, "[image: https://example.com/a.png]", OutputText(ImageRefOutput{URI: "https://example.com/a.png"}))
	assert.Equal(t, "[inline image]", OutputText(ImageRefOutput{Base64: "data:image/png;base64,QQ=="}))
}

func TestOutputTextStructuredIsStable(t *testing.T) {
	structured := StructuredOutput{Data: map[string]any{
		"text_content":       "answer",
		"grounding_sources":  []any{map[string]any{"title": "T", "uri": "u"}},
		"search_suggestions": []any{"more"},
	}}

	first := OutputText(structured)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, OutputText(structured))
	}
	assert.Contains(t, first, `"text_content": "answer"`)
	// Keys render sorted.
	assert.Less(t, indexOf(first, "grounding_sources"), indexOf(first, "text_content"))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
