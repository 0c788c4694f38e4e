// Package executor implements the execution agent: it dispatches exactly the
// step the plan pointer names, exactly once per attempt, and normalizes the
// outcome. Retry policy lives upstream in the planning agent so retry
// semantics stay centralized; this agent never re-dispatches on its own.
package executor

import (
	"context"
	"errors"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/logging"
	"github.com/hupe1980/planmesh/tool"
)

// Options configures the execution agent.
type Options struct {
	// Logger receives executor.step events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Agent is the execution agent. It owns argument derivation and single
// dispatch; tool failures are returned as data in the outcome, never raised.
type Agent struct {
	registry *tool.Registry
	logger   logging.Logger
}

// New constructs an execution agent over the given registry.
func New(registry *tool.Registry, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Agent{registry: registry, logger: logging.OrNoOp(opts.Logger)}
}

// ExecuteStep dispatches the step at the current pointer. The step must be
// pending; anything else is a contract violation fatal to the turn. Tool-less
// steps complete immediately as no-op successes.
func (a *Agent) ExecuteStep(ctx context.Context, state *core.ConversationState) (core.StepOutcome, error) {
	step, err := state.Current()
	if err != nil {
		return core.StepOutcome{}, err
	}
	if step.Status != core.StepPending {
		return core.StepOutcome{}, core.NewStructuralError("step %s dispatched in status %s, want %s", step.ID, step.Status, core.StepPending)
	}

	step.Status = core.StepInProgress
	attempts := step.Retries + 1

	if step.Tool == "" {
		// Pure reasoning/integration step: succeeds immediately, the
		// planning agent does the actual work at synthesis time.
		step.Status = core.StepDone
		output := core.TextOutput{Text: step.Description}
		state.RecordResult(step.ID, core.StepResult{Output: output, Attempts: attempts})
		a.logger.Debug("executor.step.noop", "step", step.ID)
		return core.StepOutcome{StepID: step.ID, Output: output}, nil
	}

	if !a.registry.Has(step.Tool) {
		return core.StepOutcome{}, core.NewStructuralError("step %s bound to unregistered tool %q", step.ID, step.Tool)
	}

	args := buildArgs(state, step)
	a.logger.Info("executor.step.dispatch", "step", step.ID, "tool", step.Tool, "attempt", attempts)

	output, err := a.registry.Invoke(ctx, step.Tool, args)
	if err != nil {
		var toolErr *tool.ToolError
		if !errors.As(err, &toolErr) {
			// Anything the registry did not normalize is structural.
			return core.StepOutcome{}, err
		}
		step.Status = core.StepFailed
		failure := toolErr.Failure()
		state.RecordResult(step.ID, core.StepResult{Failure: failure, Attempts: attempts})
		return core.StepOutcome{StepID: step.ID, Failure: failure}, nil
	}

	step.Status = core.StepDone
	state.RecordResult(step.ID, core.StepResult{Output: output, Attempts: attempts})
	return core.StepOutcome{StepID: step.ID, Output: output}, nil
}

// buildArgs derives tool arguments from the request and prior results. The
// step description doubles as the prompt/query; attached images are threaded
// to the analysis capabilities; the latest successful output is offered as
// context so later steps can build on earlier ones.
func buildArgs(state *core.ConversationState, step *core.PlanStep) map[string]any {
	prompt := step.Description
	if prompt == "" {
		prompt = state.Request.Text()
	}

	args := map[string]any{}
	switch step.Tool {
	case tool.GroundedSearch:
		query := state.Request.Text()
		if query == "" {
			query = prompt
		}
		args["query"] = query
		if ctxText := latestOutputText(state); ctxText != "" {
			args["context"] = ctxText
		}
	case tool.AnalyzeImage:
		args["prompt"] = prompt
		if images := state.Request.Images(); len(images) > 0 {
			args["image"] = imageRef(images[0])
		}
	case tool.AnalyzeMultimodal:
		args["prompt"] = prompt
		images := state.Request.Images()
		refs := make([]any, 0, len(images))
		for _, img := range images {
			refs = append(refs, imageRef(img))
		}
		args["images"] = refs
	case tool.GenerateImage:
		args["prompt"] = prompt
		if ctxText := latestOutputText(state); ctxText != "" {
			args["context"] = ctxText
		}
	default:
		args["prompt"] = prompt
		args["request"] = state.Request.Text()
	}
	return args
}

// imageRef prefers the inline payload over the URI.
func imageRef(img core.ImagePart) string {
	if img.Base64 != "" {
		return img.Base64
	}
	return img.URI
}

// latestOutputText returns the text of the most recent successful step, or "".
func latestOutputText(state *core.ConversationState) string {
	for i := state.CurrentStep - 1; i >= 0; i-- {
		step := state.Plan[i]
		if res, ok := state.StepResults[step.ID]; ok && res.OK() {
			return core.OutputText(res.Output)
		}
	}
	return ""
}
