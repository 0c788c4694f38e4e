package planmesh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/tool"
)

func stubSearch() tool.Tool {
	return tool.NewFunctionTool(tool.GroundedSearch, "stub search",
		map[string]any{"type": "object"},
		func(ctx context.Context, args map[string]any) (core.Output, error) {
			return core.StructuredOutput{Data: map[string]any{
				"text_content":       "stubbed findings",
				"grounding_sources":  []any{},
				"search_suggestions": []any{},
			}}, nil
		})
}

func TestNewWithDefaults(t *testing.T) {
	orch, err := New()
	require.NoError(t, err)
	require.NotNil(t, orch)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(func(o *Options) {
		o.Config.MaxLoopIterations = 0
	})
	assert.Error(t, err)
}

func TestNewRejectsDuplicateTools(t *testing.T) {
	_, err := New(func(o *Options) {
		o.Tools = []tool.Tool{stubSearch(), stubSearch()}
	})
	assert.Error(t, err)
}

func TestRunTurnTextEndToEnd(t *testing.T) {
	orch, err := New(func(o *Options) {
		o.Tools = []tool.Tool{stubSearch()}
	})
	require.NoError(t, err)

	answer, err := orch.RunTurnText(context.Background(), "session-1", "search for the latest release")
	require.NoError(t, err)

	assert.Contains(t, answer.Text, "stubbed findings")
	assert.False(t, answer.Degraded)

	history := orch.History("session-1")
	require.Len(t, history, 1)
	assert.Equal(t, "search for the latest release", history[0].Request.Text())
}

func TestRunTurnGeneratesSessionID(t *testing.T) {
	orch, err := New(func(o *Options) {
		o.Tools = []tool.Tool{stubSearch()}
		o.DisableLongTerm = true
	})
	require.NoError(t, err)

	answer, err := orch.RunTurn(context.Background(), "", core.NewUserRequest("search for something"))
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Text)
}

func TestRegisterToolAfterConstruction(t *testing.T) {
	orch, err := New()
	require.NoError(t, err)

	require.NoError(t, orch.RegisterTool(stubSearch()))
	assert.Error(t, orch.RegisterTool(stubSearch()))
}
