package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/memory"
	"github.com/hupe1980/planmesh/model"
	"github.com/hupe1980/planmesh/tool"
)

// stubModel returns a canned completion, recording the last request.
type stubModel struct {
	text    string
	err     error
	lastReq model.Request
}

func (m *stubModel) Generate(_ context.Context, req model.Request) (*model.Response, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &model.Response{Text: m.text}, nil
}

func decompose(t *testing.T, request core.Content) []*core.PlanStep {
	t.Helper()
	steps, err := RuleDecomposer{}.Decompose(context.Background(), DecomposeInput{
		Request:      core.NormalizeRequest(request),
		Capabilities: tool.CapabilityNames(),
	})
	require.NoError(t, err)
	return steps
}

func stepTools(steps []*core.PlanStep) []string {
	tools := make([]string, len(steps))
	for i, s := range steps {
		tools[i] = s.Tool
	}
	return tools
}

func TestRuleDecomposerSearchIntent(t *testing.T) {
	steps := decompose(t, core.NewUserRequest("search for the latest quantum computing news"))
	assert.Equal(t, []string{tool.GroundedSearch}, stepTools(steps))
}

func TestRuleDecomposerImageThenSearch(t *testing.T) {
	steps := decompose(t, core.NewUserRequest(
		"what is this and find related info data:image/png;base64,QQ=="))

	require.Len(t, steps, 2)
	assert.Equal(t, []string{tool.AnalyzeImage, tool.GroundedSearch}, stepTools(steps))
	for _, step := range steps {
		assert.Equal(t, core.StepPending, step.Status)
		assert.NotEmpty(t, step.ID)
	}
}

func TestRuleDecomposerDocumentBeatsImage(t *testing.T) {
	steps := decompose(t, core.NewUserRequest(
		"summarize this document data:image/png;base64,QQ=="))
	assert.Equal(t, []string{tool.AnalyzeMultimodal}, stepTools(steps))
}

func TestRuleDecomposerGenerateIntent(t *testing.T) {
	steps := decompose(t, core.NewUserRequest("draw a lighthouse at dusk"))
	assert.Equal(t, []string{tool.GenerateImage}, stepTools(steps))
}

func TestRuleDecomposerBareQuestionGetsReasoningStep(t *testing.T) {
	steps := decompose(t, core.NewUserRequest("why is the sky blue?"))
	require.Len(t, steps, 1)
	assert.Empty(t, steps[0].Tool)
}

func TestRuleDecomposerEmptyRequest(t *testing.T) {
	steps := decompose(t, core.Content{})
	assert.Empty(t, steps)
}

func TestModelDecomposerParsesPlan(t *testing.T) {
	m := &stubModel{text: `1. grounded_search - find recent small language model papers
2. none - summarize the findings
3. teleport - not a real tool
garbage line without separator`}

	steps, err := ModelDecomposer{Model: m}.Decompose(context.Background(), DecomposeInput{
		Request:      core.NewUserRequest("research task"),
		Capabilities: tool.CapabilityNames(),
	})
	require.NoError(t, err)

	require.Len(t, steps, 2)
	assert.Equal(t, tool.GroundedSearch, steps[0].Tool)
	assert.Equal(t, "find recent small language model papers", steps[0].Description)
	assert.Empty(t, steps[1].Tool)
	assert.Contains(t, m.lastReq.Instructions, tool.GroundedSearch)
}

func TestModelDecomposerPropagatesError(t *testing.T) {
	m := &stubModel{err: errors.New("rate limited")}

	_, err := ModelDecomposer{Model: m}.Decompose(context.Background(), DecomposeInput{
		Request: core.NewUserRequest("anything"),
	})
	assert.Error(t, err)
}

func TestModelDecomposerIncludesHistory(t *testing.T) {
	m := &stubModel{text: "none - answer"}

	_, err := ModelDecomposer{Model: m}.Decompose(context.Background(), DecomposeInput{
		Request: core.NewUserRequest("follow-up"),
		History: []memory.TurnRecord{{
			Request:     core.NewUserRequest("earlier question"),
			FinalAnswer: core.Answer{Text: "earlier answer"},
		}},
	})
	require.NoError(t, err)
	require.Len(t, m.lastReq.Messages, 3)
	assert.Equal(t, "earlier question", m.lastReq.Messages[0].Text)
	assert.Equal(t, "assistant", m.lastReq.Messages[1].Role)
}
