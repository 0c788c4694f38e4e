package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/planmesh/core"
)

// Canonical capability names. The planning agent binds steps to exactly
// these names; the registry rejects duplicates but not additions, so
// deployments may register further tools under their own names.
const (
	AnalyzeImage      = "analyze_image"
	GroundedSearch    = "grounded_search"
	GenerateImage     = "generate_image"
	AnalyzeMultimodal = "analyze_multimodal"
)

// CapabilityNames returns the fixed capability set in declaration order.
func CapabilityNames() []string {
	return []string{AnalyzeImage, GroundedSearch, GenerateImage, AnalyzeMultimodal}
}

// Tool defines a single capability invocable by the execution agent.
//
// Implementations should:
//   - Provide clear, descriptive names (snake_case) and descriptions
//   - Define a proper JSON schema for arguments
//   - Honor context cancellation; an invocation may be abandoned on timeout
//   - Be safe for concurrent use across independent turns
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool. On failure it returns a *ToolError (or a plain
	// error which the registry normalizes into one); it never panics across
	// this boundary.
	Call(ctx context.Context, args map[string]any) (core.Output, error)
}

// ToolError represents a recoverable tool failure. Kind follows the closed
// core.FailureKind taxonomy so the planning agent can reason about retries
// without inspecting messages.
type ToolError struct {
	Tool    string           `json:"tool"`
	Kind    core.FailureKind `json:"kind"`
	Message string           `json:"message"`
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	return fmt.Sprintf("tool error [%s] in %s: %s", e.Kind, e.Tool, e.Message)
}

// Failure converts the error into the record stored in step results.
func (e *ToolError) Failure() *core.Failure {
	return &core.Failure{Kind: e.Kind, Message: e.Message}
}

// NewToolError creates a ToolError with the specified details.
func NewToolError(tool string, kind core.FailureKind, format string, args ...any) *ToolError {
	return &ToolError{Tool: tool, Kind: kind, Message: fmt.Sprintf(format, args...)}
}
