// Package core provides the foundational domain types shared by the planning
// and execution agents. It defines:
//
//   - Content / Part (multimodal request payloads as a closed tagged union)
//   - Output (normalized tool results: text, image reference, structured)
//   - ConversationState, Plan and PlanStep (the unit of control-loop execution)
//   - PlanningDecision / StepOutcome (the contracts exchanged across the
//     loop's conditional edges)
//   - Config (the per-turn configuration object, never ambient)
//   - The error taxonomy separating recoverable tool failures from fatal
//     structural violations
//
// Nothing in this package performs I/O or holds control logic. The control
// loop is deterministic given a ConversationState plus the tool outputs fed
// into it; no hidden state outside these structures drives transitions.
package core
