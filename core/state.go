package core

import (
	"fmt"

	"github.com/google/uuid"
)

// StepStatus is the lifecycle state of a single plan step.
type StepStatus string

const (
	// StepPending marks a step that has not been dispatched yet.
	StepPending StepStatus = "pending"
	// StepInProgress marks the step currently being executed. At most one
	// step is in progress at any time.
	StepInProgress StepStatus = "in_progress"
	// StepDone marks a step whose result was stored successfully.
	StepDone StepStatus = "done"
	// StepFailed marks a step that exhausted its retry budget.
	StepFailed StepStatus = "failed"
)

// PlanStep is a single unit of plan execution, optionally bound to one tool.
// Steps are mutated only by the planning agent.
type PlanStep struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Tool        string     `json:"tool,omitempty"` // registry tool name; empty for pure reasoning steps
	Status      StepStatus `json:"status"`
	Retries     int        `json:"retries"`               // dispatch attempts beyond the first
	Substituted bool       `json:"substituted,omitempty"` // tool was rebound to a fallback after persistent failure
}

// NewPlanStep creates a pending step with a fresh id.
func NewPlanStep(description, tool string) *PlanStep {
	return &PlanStep{
		ID:          uuid.NewString(),
		Description: description,
		Tool:        tool,
		Status:      StepPending,
	}
}

// StepResult is the stored outcome of a step attempt: either a normalized
// output or a failure record, never both. It is overwritten only on retry.
type StepResult struct {
	Output   Output   `json:"output,omitempty"`
	Failure  *Failure `json:"failure,omitempty"`
	Attempts int      `json:"attempts"`
}

// OK reports whether the result carries a usable output.
func (r StepResult) OK() bool { return r.Failure == nil }

// Answer is the terminal product of a turn.
type Answer struct {
	Text      string   `json:"text"`
	Outputs   []Output `json:"outputs,omitempty"` // artifacts worth surfacing (e.g. generated images)
	Truncated bool     `json:"truncated"`         // iteration or timeout cap reached; best-effort partial
	Degraded  bool     `json:"degraded"`          // at least one step was dropped or substituted
}

// ConversationState is the unit of control-loop execution. It is created at
// request arrival, mutated across loop iterations by whichever agent holds
// control, and dropped once the final answer is delivered.
type ConversationState struct {
	SessionID   string                `json:"session_id"`
	Request     Content               `json:"request"` // immutable once set
	Plan        []*PlanStep           `json:"plan"`
	CurrentStep int                   `json:"current_step"` // 0 <= CurrentStep <= len(Plan)
	StepResults map[string]StepResult `json:"step_results"`
	FinalAnswer *Answer               `json:"final_answer,omitempty"`
	Iterations  int                   `json:"iterations"` // completed loop iterations
}

// NewConversationState builds the initial state for a turn. The request is
// normalized so inline image payloads become structured parts.
func NewConversationState(sessionID string, request Content) *ConversationState {
	return &ConversationState{
		SessionID:   sessionID,
		Request:     NormalizeRequest(request),
		StepResults: make(map[string]StepResult),
	}
}

// Current returns the step at the current pointer. A pointer outside the plan
// is a structural error, not a lookup miss.
func (s *ConversationState) Current() (*PlanStep, error) {
	if s.CurrentStep < 0 || s.CurrentStep >= len(s.Plan) {
		return nil, NewStructuralError("step pointer %d outside plan of %d steps", s.CurrentStep, len(s.Plan))
	}
	return s.Plan[s.CurrentStep], nil
}

// Exhausted reports whether the step pointer has advanced past the last step.
func (s *ConversationState) Exhausted() bool { return s.CurrentStep >= len(s.Plan) }

// Finalized reports whether a final answer has been set. Once finalized the
// state must not be mutated further.
func (s *ConversationState) Finalized() bool { return s.FinalAnswer != nil }

// RecordResult stores the outcome of a step attempt, overwriting a previous
// attempt's record on retry.
func (s *ConversationState) RecordResult(stepID string, result StepResult) {
	s.StepResults[stepID] = result
}

// ClearResult removes a stored result ahead of a retry; the next attempt
// writes a fresh record.
func (s *ConversationState) ClearResult(stepID string) {
	delete(s.StepResults, stepID)
}

// Result returns the stored result for a step id.
func (s *ConversationState) Result(stepID string) (StepResult, bool) {
	r, ok := s.StepResults[stepID]
	return r, ok
}

// Check validates the structural invariants of the state. A violation
// indicates a control-loop bug and is fatal to the turn.
func (s *ConversationState) Check() error {
	if s.CurrentStep < 0 || s.CurrentStep > len(s.Plan) {
		return NewStructuralError("step pointer %d outside [0, %d]", s.CurrentStep, len(s.Plan))
	}
	inProgress := 0
	seen := make(map[string]bool, len(s.Plan))
	for i, step := range s.Plan {
		if step == nil {
			return NewStructuralError("nil step at index %d", i)
		}
		if seen[step.ID] {
			return NewStructuralError("duplicate step id %s", step.ID)
		}
		seen[step.ID] = true
		if step.Status == StepInProgress {
			inProgress++
		}
		if _, ok := s.StepResults[step.ID]; ok && step.Status != StepDone && step.Status != StepFailed {
			return NewStructuralError("result stored for step %s in status %s", step.ID, step.Status)
		}
	}
	if inProgress > 1 {
		return NewStructuralError("%d steps in progress, want at most 1", inProgress)
	}
	for id := range s.StepResults {
		if !seen[id] {
			return NewStructuralError("result stored for unknown step %s", id)
		}
	}
	return nil
}

// String returns a compact single-line summary for logging.
func (s *ConversationState) String() string {
	return fmt.Sprintf("state{session=%s steps=%d current=%d results=%d finalized=%t}",
		s.SessionID, len(s.Plan), s.CurrentStep, len(s.StepResults), s.Finalized())
}
