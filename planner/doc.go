// Package planner implements the planning agent: it decomposes a request
// into an ordered plan, re-evaluates progress after every tool result and
// decides whether execution continues, retries, degrades or terminates with
// a synthesized answer. It is the only component that mutates the plan and
// it never invokes tools directly.
//
// Plan decomposition and answer synthesis are pluggable (Decomposer /
// Synthesizer); rule-based defaults work offline and model-backed
// implementations delegate to the model package.
package planner
