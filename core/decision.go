package core

// DecisionKind enumerates the planning agent's verdicts. The should_use_tools
// edge consumes exactly this enum; no other signal influences routing.
type DecisionKind string

const (
	// DecisionContinue advances execution to the current step.
	DecisionContinue DecisionKind = "continue"
	// DecisionRetry re-dispatches the current step after a recoverable failure.
	DecisionRetry DecisionKind = "retry"
	// DecisionDegrade proceeds with reduced scope after the retry budget is
	// spent: the failed step is dropped or substituted per policy.
	DecisionDegrade DecisionKind = "degrade"
	// DecisionFinalize terminates the turn with a synthesized answer.
	DecisionFinalize DecisionKind = "finalize"
)

// PlanningDecision is the planning agent's output for one loop iteration.
// Answer is present exactly when Kind is DecisionFinalize; StepID names the
// step to execute for the action kinds.
type PlanningDecision struct {
	Kind   DecisionKind `json:"kind"`
	StepID string       `json:"step_id,omitempty"`
	Answer *Answer      `json:"answer,omitempty"`
	Reason string       `json:"reason,omitempty"` // short diagnostic, logged not shown
}

// RequiresExecution reports whether the decision routes to the execution agent.
func (d PlanningDecision) RequiresExecution() bool {
	return d.Kind == DecisionContinue || d.Kind == DecisionRetry || d.Kind == DecisionDegrade
}

// StepOutcome is the execution agent's normalized report for a single
// dispatch attempt. Failure is data, not a raised error; exactly one of
// Output / Failure is set.
type StepOutcome struct {
	StepID  string   `json:"step_id"`
	Output  Output   `json:"output,omitempty"`
	Failure *Failure `json:"failure,omitempty"`
}

// OK reports whether the dispatch produced a usable output.
func (o StepOutcome) OK() bool { return o.Failure == nil }
