package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/tool"
)

func newRegistry(t *testing.T, tools ...tool.Tool) *tool.Registry {
	t.Helper()
	registry := tool.NewRegistry()
	for _, tl := range tools {
		require.NoError(t, registry.Register(tl))
	}
	return registry
}

func searchStub(output core.Output, err error) *tool.FunctionTool {
	return tool.NewFunctionTool(tool.GroundedSearch, "stub search",
		map[string]any{"type": "object"},
		func(ctx context.Context, args map[string]any) (core.Output, error) {
			return output, err
		})
}

func stateWithStep(text string, step *core.PlanStep) *core.ConversationState {
	state := core.NewConversationState("s1", core.NewUserRequest(text))
	state.Plan = []*core.PlanStep{step}
	return state
}

func TestExecuteStepSuccess(t *testing.T) {
	agent := New(newRegistry(t, searchStub(core.TextOutput{Text: "found it"}, nil)))
	step := core.NewPlanStep("search the web", tool.GroundedSearch)
	state := stateWithStep("look up go generics", step)

	outcome, err := agent.ExecuteStep(context.Background(), state)
	require.NoError(t, err)

	assert.True(t, outcome.OK())
	assert.Equal(t, step.ID, outcome.StepID)
	assert.Equal(t, core.StepDone, step.Status)

	result, ok := state.Result(step.ID)
	require.True(t, ok)
	assert.Equal(t, 1, result.Attempts)
	assert.NoError(t, state.Check())
}

func TestExecuteStepFailureIsData(t *testing.T) {
	agent := New(newRegistry(t, searchStub(nil,
		tool.NewToolError(tool.GroundedSearch, core.FailureUpstream, "503 from backend"))))
	step := core.NewPlanStep("search the web", tool.GroundedSearch)
	state := stateWithStep("look up something", step)

	outcome, err := agent.ExecuteStep(context.Background(), state)
	require.NoError(t, err)

	assert.False(t, outcome.OK())
	assert.Equal(t, core.FailureUpstream, outcome.Failure.Kind)
	assert.Equal(t, core.StepFailed, step.Status)
	assert.NoError(t, state.Check())
}

func TestExecuteStepToolLessIsNoOp(t *testing.T) {
	agent := New(newRegistry(t))
	step := core.NewPlanStep("answer directly", "")
	state := stateWithStep("why is the sky blue?", step)

	outcome, err := agent.ExecuteStep(context.Background(), state)
	require.NoError(t, err)

	assert.True(t, outcome.OK())
	assert.Equal(t, core.StepDone, step.Status)
}

func TestExecuteStepRejectsNonPendingStep(t *testing.T) {
	agent := New(newRegistry(t))
	step := core.NewPlanStep("already running", "")
	step.Status = core.StepInProgress
	state := stateWithStep("hello", step)

	_, err := agent.ExecuteStep(context.Background(), state)

	var structural *core.StructuralError
	assert.ErrorAs(t, err, &structural)
}

func TestExecuteStepUnregisteredToolIsStructural(t *testing.T) {
	agent := New(newRegistry(t))
	step := core.NewPlanStep("search", tool.GroundedSearch)
	state := stateWithStep("look up something", step)

	_, err := agent.ExecuteStep(context.Background(), state)

	var structural *core.StructuralError
	assert.ErrorAs(t, err, &structural)
}

func TestExecuteStepEmptyPlanIsStructural(t *testing.T) {
	agent := New(newRegistry(t))
	state := core.NewConversationState("s1", core.NewUserRequest("hello"))

	_, err := agent.ExecuteStep(context.Background(), state)

	var structural *core.StructuralError
	assert.ErrorAs(t, err, &structural)
}

func TestExecuteStepAttemptCountsFollowRetries(t *testing.T) {
	agent := New(newRegistry(t, searchStub(core.TextOutput{Text: "ok"}, nil)))
	step := core.NewPlanStep("search", tool.GroundedSearch)
	step.Retries = 2
	state := stateWithStep("look up something", step)

	_, err := agent.ExecuteStep(context.Background(), state)
	require.NoError(t, err)

	result, _ := state.Result(step.ID)
	assert.Equal(t, 3, result.Attempts)
}

func TestBuildArgsPerCapability(t *testing.T) {
	var captured map[string]any
	capture := func(name string) *tool.FunctionTool {
		return tool.NewFunctionTool(name, "capture args", map[string]any{"type": "object"},
			func(ctx context.Context, args map[string]any) (core.Output, error) {
				captured = args
				return core.TextOutput{Text: "ok"}, nil
			})
	}

	t.Run("grounded_search carries query and prior context", func(t *testing.T) {
		agent := New(newRegistry(t, capture(tool.GroundedSearch)))
		prior := core.NewPlanStep("analyze", "")
		prior.Status = core.StepDone
		search := core.NewPlanStep("search for related info", tool.GroundedSearch)
		state := core.NewConversationState("s1", core.NewUserRequest("find related info"))
		state.Plan = []*core.PlanStep{prior, search}
		state.RecordResult(prior.ID, core.StepResult{Output: core.TextOutput{Text: "a red bicycle"}, Attempts: 1})
		state.CurrentStep = 1

		_, err := agent.ExecuteStep(context.Background(), state)
		require.NoError(t, err)
		assert.Equal(t, "find related info", captured["query"])
		assert.Equal(t, "a red bicycle", captured["context"])
	})

	t.Run("analyze_image carries first image", func(t *testing.T) {
		agent := New(newRegistry(t, capture(tool.AnalyzeImage)))
		step := core.NewPlanStep("describe the attachment", tool.AnalyzeImage)
		state := core.NewConversationState("s1", core.NewUserRequest("what is this?",
			core.ImagePart{Base64: "data:image/png;base64,QQ=="},
			core.ImagePart{URI: "https://example.com/b.png"}))
		state.Plan = []*core.PlanStep{step}

		_, err := agent.ExecuteStep(context.Background(), state)
		require.NoError(t, err)
		assert.Equal(t, "describe the attachment", captured["prompt"])
		assert.Equal(t, "data:image/png;base64,QQ==", captured["image"])
	})

	t.Run("analyze_multimodal carries all images", func(t *testing.T) {
		agent := New(newRegistry(t, capture(tool.AnalyzeMultimodal)))
		step := core.NewPlanStep("compare the attachments", tool.AnalyzeMultimodal)
		state := core.NewConversationState("s1", core.NewUserRequest("compare",
			core.ImagePart{URI: "https://example.com/a.png"},
			core.ImagePart{URI: "https://example.com/b.png"}))
		state.Plan = []*core.PlanStep{step}

		_, err := agent.ExecuteStep(context.Background(), state)
		require.NoError(t, err)
		assert.Len(t, captured["images"], 2)
	})

	t.Run("generate_image carries prompt", func(t *testing.T) {
		agent := New(newRegistry(t, capture(tool.GenerateImage)))
		step := core.NewPlanStep("generate the requested image", tool.GenerateImage)
		state := stateWithStep("draw a lighthouse", step)

		_, err := agent.ExecuteStep(context.Background(), state)
		require.NoError(t, err)
		assert.Equal(t, "generate the requested image", captured["prompt"])
	})
}
