package loop

import "github.com/hupe1980/planmesh/core"

// shouldUseTools is the conditional edge out of Planning. A Finalize decision
// terminates the turn with the planner's answer; every action decision
// (continue, retry, degrade-with-step) routes to the execution agent.
func shouldUseTools(decision core.PlanningDecision) State {
	if decision.Kind == core.DecisionFinalize {
		return StateFinalized
	}
	return StateExecuting
}

// shouldContinueOrIntegrate is the conditional edge out of Executing. It
// routes back to Planning unconditionally: the planning agent alone decides
// continuation, replanning or termination on its next turn, keeping all
// branching policy in one place.
func shouldContinueOrIntegrate(core.StepOutcome) State {
	return StatePlanning
}
