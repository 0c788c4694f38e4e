package planner

import (
	"context"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/logging"
	"github.com/hupe1980/planmesh/memory"
	"github.com/hupe1980/planmesh/tool"
)

// Options configures the planning agent.
type Options struct {
	// MaxRetries bounds re-dispatches of a failed step.
	MaxRetries int
	// DegradePolicy selects drop vs substitute once the retry budget is spent.
	DegradePolicy core.DegradePolicy
	// Substitutes maps a tool name to its fallback for DegradeSubstitute.
	Substitutes map[string]string
	// Capabilities is the declared tool set steps may bind to.
	Capabilities []string
	// Decomposer produces the initial plan. Defaults to RuleDecomposer.
	Decomposer Decomposer
	// Synthesizer integrates results into the final answer. Defaults to
	// TemplateSynthesizer, which is also the fallback on synthesis failure.
	Synthesizer Synthesizer
	// Relevance gates long-term recall. Defaults to KeywordRelevance.
	Relevance memory.Relevance
	// RecallTopK bounds the long-term similarity query.
	RecallTopK int
	// Logger receives planner.decision events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// DefaultSubstitutes returns the built-in fallback bindings: the two image
// analysis capabilities cover for each other.
func DefaultSubstitutes() map[string]string {
	return map[string]string{
		tool.AnalyzeImage:      tool.AnalyzeMultimodal,
		tool.AnalyzeMultimodal: tool.AnalyzeImage,
	}
}

// Agent is the planning agent. It owns all plan mutation and all
// continuation / termination policy; the execution agent never decides
// anything beyond a single dispatch.
type Agent struct {
	maxRetries    int
	degradePolicy core.DegradePolicy
	substitutes   map[string]string
	capabilities  []string
	decomposer    Decomposer
	synthesizer   Synthesizer
	relevance     memory.Relevance
	recallTopK    int
	shortTerm     *memory.ShortTermStore
	longTerm      memory.LongTermStore
	logger        logging.Logger
}

// New constructs a planning agent over the two memory tiers. longTerm may be
// nil, disabling recall.
func New(shortTerm *memory.ShortTermStore, longTerm memory.LongTermStore, optFns ...func(o *Options)) *Agent {
	opts := Options{
		MaxRetries:    2,
		DegradePolicy: core.DegradeDrop,
		Substitutes:   DefaultSubstitutes(),
		Capabilities:  tool.CapabilityNames(),
		Decomposer:    RuleDecomposer{},
		Synthesizer:   TemplateSynthesizer{},
		Relevance:     memory.NewKeywordRelevance(),
		RecallTopK:    3,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Agent{
		maxRetries:    opts.MaxRetries,
		degradePolicy: opts.DegradePolicy,
		substitutes:   opts.Substitutes,
		capabilities:  opts.Capabilities,
		decomposer:    opts.Decomposer,
		synthesizer:   opts.Synthesizer,
		relevance:     opts.Relevance,
		recallTopK:    opts.RecallTopK,
		shortTerm:     shortTerm,
		longTerm:      longTerm,
		logger:        logging.OrNoOp(opts.Logger),
	}
}

// PlanOrRevise is the planning agent's single operation: on the first call
// for a turn it decomposes the request into a plan; on later calls it
// inspects the latest step result and decides how the turn proceeds.
func (a *Agent) PlanOrRevise(ctx context.Context, state *core.ConversationState) (core.PlanningDecision, error) {
	if state.Finalized() {
		return core.PlanningDecision{}, core.NewStructuralError("planning invoked after finalize")
	}
	if len(state.Plan) == 0 {
		return a.initialPlan(ctx, state)
	}
	return a.revise(ctx, state)
}

// BestEffortAnswer synthesizes a truncated partial answer from whatever
// results exist. The control loop calls it when the iteration cap fires.
func (a *Agent) BestEffortAnswer(ctx context.Context, state *core.ConversationState) *core.Answer {
	decision := a.finalize(ctx, state, true)
	return decision.Answer
}

// initialPlan handles the first invocation for a request.
func (a *Agent) initialPlan(ctx context.Context, state *core.ConversationState) (core.PlanningDecision, error) {
	if state.Request.Empty() {
		a.logger.Info("planner.decision", "kind", "finalize", "reason", "empty_request")
		return core.PlanningDecision{
			Kind:   core.DecisionFinalize,
			Reason: "empty_request",
			Answer: &core.Answer{Text: "I could not find anything to act on in this request. Please provide some text or an attachment."},
		}, nil
	}

	in := DecomposeInput{
		Request:      state.Request,
		History:      a.history(state),
		Memories:     a.recall(ctx, state),
		Capabilities: a.capabilities,
	}
	steps, err := a.decomposer.Decompose(ctx, in)
	if err != nil {
		// A planning error is terminal for the turn, not fatal: surface an
		// explanatory answer instead of entering the loop.
		a.logger.Warn("planner.decompose_failed", "error", err.Error())
		return core.PlanningDecision{
			Kind:   core.DecisionFinalize,
			Reason: "decompose_failed",
			Answer: &core.Answer{Text: "I was not able to work out a plan for this request, so I cannot proceed with it."},
		}, nil
	}
	if len(steps) == 0 {
		a.logger.Info("planner.decision", "kind", "finalize", "reason", "unplannable_request")
		return core.PlanningDecision{
			Kind:   core.DecisionFinalize,
			Reason: "unplannable_request",
			Answer: &core.Answer{Text: "I could not derive any actionable steps from this request. Could you rephrase it?"},
		}, nil
	}

	state.Plan = steps
	state.CurrentStep = 0
	a.logger.Info("planner.decision", "kind", "continue", "steps", len(steps), "first_tool", steps[0].Tool)
	return core.PlanningDecision{Kind: core.DecisionContinue, StepID: steps[0].ID, Reason: "plan_created"}, nil
}

// revise handles every invocation after a plan exists.
func (a *Agent) revise(ctx context.Context, state *core.ConversationState) (core.PlanningDecision, error) {
	if state.Exhausted() {
		return a.finalize(ctx, state, false), nil
	}

	step, err := state.Current()
	if err != nil {
		return core.PlanningDecision{}, err
	}

	result, ok := state.Result(step.ID)
	if !ok {
		if step.Status == core.StepPending {
			// Reached after a degrade advanced the pointer: the next step has
			// not been dispatched yet.
			return core.PlanningDecision{Kind: core.DecisionContinue, StepID: step.ID, Reason: "resume_pending_step"}, nil
		}
		return core.PlanningDecision{}, core.NewStructuralError("step %s in status %s has no result", step.ID, step.Status)
	}

	if result.OK() {
		state.CurrentStep++
		if state.Exhausted() {
			return a.finalize(ctx, state, false), nil
		}
		next := state.Plan[state.CurrentStep]
		a.logger.Info("planner.decision", "kind", "continue", "step", next.ID, "tool", next.Tool)
		return core.PlanningDecision{Kind: core.DecisionContinue, StepID: next.ID, Reason: "step_completed"}, nil
	}

	if step.Retries < a.maxRetries {
		step.Retries++
		step.Status = core.StepPending
		state.ClearResult(step.ID) // overwritten by the next attempt
		a.logger.Info("planner.decision", "kind", "retry", "step", step.ID, "attempt", step.Retries+1, "failure", string(result.Failure.Kind))
		return core.PlanningDecision{Kind: core.DecisionRetry, StepID: step.ID, Reason: "recoverable_failure"}, nil
	}

	return a.degrade(ctx, state, step)
}

// degrade applies the configured policy once a step's retry budget is spent.
func (a *Agent) degrade(ctx context.Context, state *core.ConversationState, step *core.PlanStep) (core.PlanningDecision, error) {
	if a.degradePolicy == core.DegradeSubstitute && !step.Substituted {
		if fallback := a.substitutes[step.Tool]; fallback != "" {
			a.logger.Warn("planner.decision", "kind", "degrade", "step", step.ID, "substitute", fallback)
			step.Tool = fallback
			step.Substituted = true
			step.Retries = 0
			step.Status = core.StepPending
			state.ClearResult(step.ID)
			return core.PlanningDecision{Kind: core.DecisionDegrade, StepID: step.ID, Reason: "substituted_tool"}, nil
		}
	}

	// Drop: the step stays failed and the plan continues past it.
	a.logger.Warn("planner.decision", "kind", "degrade", "step", step.ID, "action", "drop")
	state.CurrentStep++
	if state.Exhausted() {
		return a.finalize(ctx, state, false), nil
	}
	next := state.Plan[state.CurrentStep]
	return core.PlanningDecision{Kind: core.DecisionDegrade, StepID: next.ID, Reason: "dropped_failed_step"}, nil
}

// finalize synthesizes the final answer from all stored results.
func (a *Agent) finalize(ctx context.Context, state *core.ConversationState, truncated bool) core.PlanningDecision {
	degraded := false
	for _, step := range state.Plan {
		if step.Status == core.StepFailed || step.Substituted {
			degraded = true
			break
		}
	}

	in := SynthesisInput{
		Request:   state.Request,
		Steps:     state.Plan,
		Results:   state.StepResults,
		History:   a.history(state),
		Memories:  a.recall(ctx, state),
		Degraded:  degraded,
		Truncated: truncated,
	}
	text, err := a.synthesizer.Synthesize(ctx, in)
	if err != nil {
		// A turn always ends with an answer: fall back to the deterministic
		// synthesizer rather than surfacing a synthesis error.
		a.logger.Warn("planner.synthesize_failed", "error", err.Error())
		text, _ = TemplateSynthesizer{}.Synthesize(ctx, in)
	}

	answer := &core.Answer{
		Text:      text,
		Outputs:   collectArtifacts(state),
		Truncated: truncated,
		Degraded:  degraded,
	}
	a.logger.Info("planner.decision", "kind", "finalize", "degraded", degraded, "truncated", truncated)
	return core.PlanningDecision{Kind: core.DecisionFinalize, Answer: answer, Reason: "plan_exhausted"}
}

// history returns the session window, or nil when short-term memory is off.
func (a *Agent) history(state *core.ConversationState) []memory.TurnRecord {
	if a.shortTerm == nil {
		return nil
	}
	return a.shortTerm.History(state.SessionID)
}

// recall runs the gated long-term similarity query seeded from the request.
func (a *Agent) recall(ctx context.Context, state *core.ConversationState) []memory.SearchResult {
	if a.longTerm == nil || a.recallTopK <= 0 || !a.relevance.ShouldRecall(state.Request) {
		return nil
	}
	results, err := a.longTerm.Query(ctx, state.Request.Text(), a.recallTopK)
	if err != nil {
		// Recall is best-effort; a failed lookup never fails the turn.
		a.logger.Warn("planner.recall_failed", "error", err.Error())
		return nil
	}
	return results
}

// collectArtifacts gathers image outputs worth surfacing with the answer.
func collectArtifacts(state *core.ConversationState) []core.Output {
	var outputs []core.Output
	for _, step := range state.Plan {
		res, ok := state.StepResults[step.ID]
		if !ok || !res.OK() {
			continue
		}
		if img, ok := res.Output.(core.ImageRefOutput); ok {
			outputs = append(outputs, img)
		}
	}
	return outputs
}
