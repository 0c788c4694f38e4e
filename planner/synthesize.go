package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/memory"
	"github.com/hupe1980/planmesh/model"
)

// SynthesisInput carries everything needed to build a final answer: the
// request, the plan with its stored results, recalled memories and the
// degradation/truncation flags the answer must disclose.
type SynthesisInput struct {
	Request   core.Content
	Steps     []*core.PlanStep
	Results   map[string]core.StepResult
	History   []memory.TurnRecord
	Memories  []memory.SearchResult
	Degraded  bool
	Truncated bool
}

// Synthesizer integrates step results into the final answer text.
type Synthesizer interface {
	Synthesize(ctx context.Context, in SynthesisInput) (string, error)
}

// TemplateSynthesizer builds the answer deterministically from step results.
// It is the offline default and the fallback when a model-backed synthesizer
// fails: a turn always ends with an answer, never with a synthesis error.
type TemplateSynthesizer struct{}

// Synthesize implements the Synthesizer interface.
func (TemplateSynthesizer) Synthesize(_ context.Context, in SynthesisInput) (string, error) {
	var b strings.Builder

	completed := 0
	for _, step := range in.Steps {
		res, ok := in.Results[step.ID]
		if !ok || !res.OK() {
			continue
		}
		if completed == 0 {
			b.WriteString("Here is what I found:\n")
		}
		completed++
		fmt.Fprintf(&b, "- %s: %s\n", step.Description, core.OutputText(res.Output))
	}

	if completed == 0 {
		b.WriteString("I was unable to complete any of the planned work for this request.")
	}

	if in.Degraded {
		b.WriteString("\nNote: some steps could not be completed, so this answer covers only part of the request.")
	}
	if in.Truncated {
		b.WriteString("\nNote: processing was cut short; this is a best-effort partial answer.")
	}
	if len(in.Memories) > 0 {
		b.WriteString("\nRelevant context from earlier conversations:\n")
		for _, m := range in.Memories {
			fmt.Fprintf(&b, "- %s\n", m.SourceText)
		}
	}

	return strings.TrimSpace(b.String()), nil
}

// ModelSynthesizer asks a language model to integrate the step results into
// a coherent answer.
type ModelSynthesizer struct {
	Model model.Model
}

const synthesizeInstructions = `You are a result integration agent. Combine the executed step results below into one complete answer to the user's request.
Never ignore a step result. If the context notes degraded or truncated processing, say so plainly in the answer.`

// Synthesize implements the Synthesizer interface.
func (s ModelSynthesizer) Synthesize(ctx context.Context, in SynthesisInput) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Request: %s\n\nStep results:\n", in.Request.Text())
	for _, step := range in.Steps {
		res, ok := in.Results[step.ID]
		switch {
		case !ok:
			fmt.Fprintf(&b, "- %s: (not executed)\n", step.Description)
		case res.OK():
			fmt.Fprintf(&b, "- %s: %s\n", step.Description, core.OutputText(res.Output))
		default:
			fmt.Fprintf(&b, "- %s: failed (%s)\n", step.Description, res.Failure.Message)
		}
	}
	if in.Degraded {
		b.WriteString("\nContext: some steps failed permanently; the answer must disclose partial coverage.\n")
	}
	if in.Truncated {
		b.WriteString("\nContext: processing hit its iteration limit; the answer must disclose truncation.\n")
	}
	for _, m := range in.Memories {
		fmt.Fprintf(&b, "\nRemembered about this user: %s", m.SourceText)
	}

	req := model.Request{
		Instructions: synthesizeInstructions,
		Messages:     append(historyMessages(in.History), model.Message{Role: "user", Text: b.String()}),
	}
	resp, err := s.Model.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("synthesize: empty model response")
	}
	return resp.Text, nil
}
