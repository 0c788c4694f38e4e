package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversationStateNormalizes(t *testing.T) {
	state := NewConversationState("s1", NewUserRequest("look at data:image/png;base64,QQ=="))

	assert.Equal(t, "s1", state.SessionID)
	assert.Len(t, state.Request.Images(), 1)
	assert.NotNil(t, state.StepResults)
	assert.False(t, state.Finalized())
}

func TestCurrentAndExhausted(t *testing.T) {
	state := NewConversationState("s1", NewUserRequest("hi"))
	state.Plan = []*PlanStep{NewPlanStep("one", ""), NewPlanStep("two", "")}

	step, err := state.Current()
	require.NoError(t, err)
	assert.Equal(t, "one", step.Description)
	assert.False(t, state.Exhausted())

	state.CurrentStep = 2
	assert.True(t, state.Exhausted())
	_, err = state.Current()
	var structural *StructuralError
	assert.ErrorAs(t, err, &structural)
}

func TestRecordAndClearResult(t *testing.T) {
	state := NewConversationState("s1", NewUserRequest("hi"))
	step := NewPlanStep("work", "")
	state.Plan = []*PlanStep{step}

	state.RecordResult(step.ID, StepResult{Output: TextOutput{Text: "done"}, Attempts: 1})
	res, ok := state.Result(step.ID)
	require.True(t, ok)
	assert.True(t, res.OK())

	state.ClearResult(step.ID)
	_, ok = state.Result(step.ID)
	assert.False(t, ok)
}

func TestCheckInvariants(t *testing.T) {
	valid := func() *ConversationState {
		state := NewConversationState("s1", NewUserRequest("hi"))
		done := NewPlanStep("a", "")
		done.Status = StepDone
		pending := NewPlanStep("b", "")
		state.Plan = []*PlanStep{done, pending}
		state.CurrentStep = 1
		state.RecordResult(done.ID, StepResult{Output: TextOutput{Text: "ok"}, Attempts: 1})
		return state
	}

	assert.NoError(t, valid().Check())

	t.Run("pointer out of range", func(t *testing.T) {
		state := valid()
		state.CurrentStep = 5
		assert.Error(t, state.Check())
	})

	t.Run("duplicate step id", func(t *testing.T) {
		state := valid()
		state.Plan[1].ID = state.Plan[0].ID
		assert.Error(t, state.Check())
	})

	t.Run("more than one step in progress", func(t *testing.T) {
		state := valid()
		state.Plan[0].Status = StepInProgress
		state.Plan[1].Status = StepInProgress
		// First violation reported is the stored result on a non-terminal step.
		assert.Error(t, state.Check())
	})

	t.Run("result stored for pending step", func(t *testing.T) {
		state := valid()
		state.RecordResult(state.Plan[1].ID, StepResult{Output: TextOutput{Text: "early"}})
		assert.Error(t, state.Check())
	})

	t.Run("orphan result", func(t *testing.T) {
		state := valid()
		state.RecordResult("not-a-step", StepResult{Output: TextOutput{Text: "x"}})
		assert.Error(t, state.Check())
	})
}
