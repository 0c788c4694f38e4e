package model

import (
	"context"

	"github.com/hupe1980/planmesh/core"
)

// Message is a single conversational message in a model request. Images are
// carried separately from text so providers can build proper multi-part
// payloads for vision-capable models.
type Message struct {
	Role   string           `json:"role"` // user, assistant, system
	Text   string           `json:"text"`
	Images []core.ImagePart `json:"images,omitempty"`
}

// Request captures the normalized model input.
type Request struct {
	Instructions string    `json:"instructions"` // system prompt
	Messages     []Message `json:"messages"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed model output. The control loop is strictly
// sequential per turn, so the boundary is synchronous; streaming, if a
// provider supports it, is an adapter-internal concern.
type Response struct {
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Model is the minimal provider contract.
type Model interface {
	// Generate produces a completion for the request. Implementations must
	// honor context cancellation and return errors rather than panicking.
	Generate(ctx context.Context, req Request) (*Response, error)
}

// UserText is a convenience constructor for a single-message request.
func UserText(instructions, text string) Request {
	return Request{
		Instructions: instructions,
		Messages:     []Message{{Role: "user", Text: text}},
	}
}
