package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/planmesh/core"
)

// -------------------- FunctionTool Tests --------------------

func echoTool() *FunctionTool {
	return NewFunctionTool(
		"echo",
		"Echo the provided text back",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
			"required": []string{"text"},
		},
		func(ctx context.Context, args map[string]any) (core.Output, error) {
			return core.TextOutput{Text: args["text"].(string)}, nil
		},
	)
}

func TestFunctionToolCall(t *testing.T) {
	output, err := echoTool().Call(context.Background(), map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, core.TextOutput{Text: "hi"}, output)
}

func TestFunctionToolValidationFailure(t *testing.T) {
	_, err := echoTool().Call(context.Background(), map[string]any{})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, core.FailureInvalidInput, toolErr.Kind)
}

func TestFunctionToolExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := echoTool().Call(ctx, map[string]any{"text": "hi"})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, core.FailureTimeout, toolErr.Kind)
}

// -------------------- Registry Tests --------------------

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(echoTool()))
	assert.Error(t, registry.Register(echoTool()))
	assert.True(t, registry.Has("echo"))
	assert.Equal(t, []string{"echo"}, registry.Names())
}

func TestRegistryInvokeUnknownToolIsStructural(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Invoke(context.Background(), "missing", nil)

	var structural *core.StructuralError
	assert.ErrorAs(t, err, &structural)
}

func TestRegistryInvokeTimeout(t *testing.T) {
	registry := NewRegistry(func(o *RegistryOptions) {
		o.Timeout = 20 * time.Millisecond
	})
	slow := NewFunctionTool("slow", "Never finishes in time", map[string]any{"type": "object"},
		func(ctx context.Context, args map[string]any) (core.Output, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
				return core.TextOutput{Text: "too late"}, nil
			}
		})
	registry.MustRegister(slow)

	_, err := registry.Invoke(context.Background(), "slow", map[string]any{})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, core.FailureTimeout, toolErr.Kind)
}

func TestRegistryInvokeNormalizesPlainErrors(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(NewFunctionTool("broken", "Always fails", map[string]any{"type": "object"},
		func(ctx context.Context, args map[string]any) (core.Output, error) {
			return nil, errors.New("backend exploded")
		}))

	_, err := registry.Invoke(context.Background(), "broken", map[string]any{})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, core.FailureUpstream, toolErr.Kind)
}

func TestRegistryInvokeRecoversPanics(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(NewFunctionTool("panicky", "Panics on call", map[string]any{"type": "object"},
		func(ctx context.Context, args map[string]any) (core.Output, error) {
			panic("boom")
		}))

	_, err := registry.Invoke(context.Background(), "panicky", map[string]any{})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, core.FailureUpstream, toolErr.Kind)
	assert.Contains(t, toolErr.Message, "boom")
}

func TestRegistryInvokePassesToolErrorsThrough(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(NewFunctionTool("picky", "Rejects everything", map[string]any{"type": "object"},
		func(ctx context.Context, args map[string]any) (core.Output, error) {
			return nil, NewToolError("picky", core.FailureInvalidInput, "bad vibes")
		}))

	_, err := registry.Invoke(context.Background(), "picky", map[string]any{})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, core.FailureInvalidInput, toolErr.Kind)
	assert.Equal(t, "bad vibes", toolErr.Message)
}

// -------------------- Schema Derivation --------------------

type analyzeArgs struct {
	Prompt string `json:"prompt" description:"What to determine"`
	Image  string `json:"image,omitempty" description:"Optional image reference"`
}

func TestNewFunctionToolFromStruct(t *testing.T) {
	ft := NewFunctionToolFromStruct("analyze", "Analyze something", analyzeArgs{},
		func(ctx context.Context, args map[string]any) (core.Output, error) {
			return core.TextOutput{Text: "ok"}, nil
		})

	props, ok := ft.Parameters()["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "prompt")
	assert.Contains(t, props, "image")

	_, err := ft.Call(context.Background(), map[string]any{})
	assert.Error(t, err) // prompt is required

	_, err = ft.Call(context.Background(), map[string]any{"prompt": "x"})
	assert.NoError(t, err)
}

func TestCapabilityNames(t *testing.T) {
	assert.Equal(t, []string{AnalyzeImage, GroundedSearch, GenerateImage, AnalyzeMultimodal}, CapabilityNames())
}
