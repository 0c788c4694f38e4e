package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/memory"
	"github.com/hupe1980/planmesh/model"
	"github.com/hupe1980/planmesh/tool"
)

// DecomposeInput carries everything a decomposer may consult: the normalized
// request, the session window, recalled long-term memories and the declared
// capability set.
type DecomposeInput struct {
	Request      core.Content
	History      []memory.TurnRecord
	Memories     []memory.SearchResult
	Capabilities []string
}

// Decomposer turns a request into an ordered plan of 1..N steps, each
// optionally bound to a declared capability. Returning an empty plan means no
// tool work is needed and the turn finalizes immediately.
type Decomposer interface {
	Decompose(ctx context.Context, in DecomposeInput) ([]*core.PlanStep, error)
}

// RuleDecomposer derives a plan from intent keywords and attached media. It
// needs no network access and yields deterministic plans, which also makes it
// the test decomposer of choice. Step order is fixed: analysis before search
// before generation, so later steps can build on earlier results.
type RuleDecomposer struct{}

var (
	searchMarkers   = []string{"search", "look up", "lookup", "find", "latest", "news", "related info", "current"}
	generateMarkers = []string{"generate", "draw", "create an image", "create a picture", "make an image", "render"}
	documentMarkers = []string{"document", "pdf", "video", "audio", "multimodal"}
)

// Decompose implements the Decomposer interface.
func (RuleDecomposer) Decompose(_ context.Context, in DecomposeInput) ([]*core.PlanStep, error) {
	text := strings.ToLower(in.Request.Text())
	images := in.Request.Images()

	var steps []*core.PlanStep

	switch {
	case containsAny(text, documentMarkers):
		steps = append(steps, core.NewPlanStep("analyze the attached content", tool.AnalyzeMultimodal))
	case len(images) > 0:
		steps = append(steps, core.NewPlanStep("analyze the attached image", tool.AnalyzeImage))
	}

	if containsAny(text, searchMarkers) {
		steps = append(steps, core.NewPlanStep("search for information relevant to the request", tool.GroundedSearch))
	}

	if containsAny(text, generateMarkers) {
		steps = append(steps, core.NewPlanStep("generate the requested image", tool.GenerateImage))
	}

	// A bare question without tool intent gets a single pure reasoning step
	// so the synthesized answer still flows through the normal path.
	if len(steps) == 0 && strings.TrimSpace(text) != "" {
		steps = append(steps, core.NewPlanStep("answer the request directly", ""))
	}

	return steps, nil
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// ModelDecomposer asks a language model to emit the plan, one step per line
// in the form "tool_name - description" (or "none - description" for pure
// reasoning steps), and parses the reply. Unknown tool names invalidate the
// step rather than the whole plan.
type ModelDecomposer struct {
	Model model.Model
}

const decomposeInstructions = `You are a task planning agent. Decompose the user request into an ordered plan of executable steps.
Reply with one step per line, formatted exactly as: tool_name - description
Available tools: %s
Use "none" as the tool name for steps that need no tool. Reply with an empty message if the request is uninterpretable.`

// Decompose implements the Decomposer interface.
func (d ModelDecomposer) Decompose(ctx context.Context, in DecomposeInput) ([]*core.PlanStep, error) {
	req := model.Request{
		Instructions: fmt.Sprintf(decomposeInstructions, strings.Join(in.Capabilities, ", ")),
		Messages:     historyMessages(in.History),
	}
	req.Messages = append(req.Messages, model.Message{
		Role:   "user",
		Text:   in.Request.Text(),
		Images: in.Request.Images(),
	})

	resp, err := d.Model.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("decompose: %w", err)
	}

	allowed := make(map[string]bool, len(in.Capabilities))
	for _, name := range in.Capabilities {
		allowed[name] = true
	}

	var steps []*core.PlanStep
	for _, line := range strings.Split(resp.Text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "0123456789.)- "))
		name, description, found := strings.Cut(line, " - ")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		description = strings.TrimSpace(description)
		if description == "" {
			continue
		}
		if name == "none" {
			steps = append(steps, core.NewPlanStep(description, ""))
			continue
		}
		if allowed[name] {
			steps = append(steps, core.NewPlanStep(description, name))
		}
	}
	return steps, nil
}

// historyMessages converts the session window into alternating messages.
func historyMessages(history []memory.TurnRecord) []model.Message {
	var messages []model.Message
	for _, turn := range history {
		messages = append(messages,
			model.Message{Role: "user", Text: turn.Request.Text()},
			model.Message{Role: "assistant", Text: turn.FinalAnswer.Text},
		)
	}
	return messages
}
