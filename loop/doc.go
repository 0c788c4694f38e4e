// Package loop implements the control core: a finite-state machine wiring
// the planning agent and the execution agent via two conditional edges.
//
// The state set is {Planning, Routing, Executing, Finalized}; Planning is
// initial and Finalized terminal. Transitions live in two pure decision
// functions (edges.go) rather than ad hoc control flow, so the loop is
// deterministic given a ConversationState plus tool outputs. A hard cap on
// loop iterations guards against plans that never converge, independent of
// per-step retries.
//
// A turn is strictly sequential: the agents never run concurrently for one
// ConversationState and at most one step is in progress at a time. Distinct
// sessions may run turns concurrently, sharing only the long-term memory
// store.
package loop
