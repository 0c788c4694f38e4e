package loop

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/executor"
	"github.com/hupe1980/planmesh/logging"
	"github.com/hupe1980/planmesh/memory"
	"github.com/hupe1980/planmesh/planner"
)

// State enumerates the control-loop states.
type State int

const (
	// StatePlanning runs the planning agent.
	StatePlanning State = iota
	// StateRouting evaluates the planner's decision (the should_use_tools edge).
	StateRouting
	// StateExecuting runs the execution agent on the current step.
	StateExecuting
	// StateFinalized is terminal; the final answer is set.
	StateFinalized
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StatePlanning:
		return "planning"
	case StateRouting:
		return "routing"
	case StateExecuting:
		return "executing"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures the control loop.
type Options struct {
	// Config is the per-turn configuration object.
	Config core.Config
	// ShortTerm is the session window store. Nil disables the window.
	ShortTerm *memory.ShortTermStore
	// LongTerm is the shared semantic store. Nil disables persistence.
	LongTerm memory.LongTermStore
	// Relevance gates long-term persistence of finished answers.
	Relevance memory.Relevance
	// Logger receives loop.* events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Loop drives one turn at a time through the FSM. It is safe for concurrent
// use across sessions; per-session turns are expected to run one at a time.
type Loop struct {
	planner   *planner.Agent
	executor  *executor.Agent
	cfg       core.Config
	shortTerm *memory.ShortTermStore
	longTerm  memory.LongTermStore
	relevance memory.Relevance
	logger    logging.Logger
}

// New constructs a control loop around the two agents.
func New(planningAgent *planner.Agent, executionAgent *executor.Agent, optFns ...func(o *Options)) (*Loop, error) {
	opts := Options{
		Config:    core.DefaultConfig(),
		Relevance: memory.NewKeywordRelevance(),
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Loop{
		planner:   planningAgent,
		executor:  executionAgent,
		cfg:       opts.Config,
		shortTerm: opts.ShortTerm,
		longTerm:  opts.LongTerm,
		relevance: opts.Relevance,
		logger:    logging.OrNoOp(opts.Logger),
	}, nil
}

// RunTurn is the single entry point surrounding orchestration calls: one full
// request-to-answer cycle. It returns the final answer, or an error only for
// fatal conditions (cancellation between iterations, structural violations);
// tool and planning failures always resolve into an answer.
func (l *Loop) RunTurn(ctx context.Context, sessionID string, request core.Content) (*core.Answer, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	state := core.NewConversationState(sessionID, request)
	logger := l.logger

	start := time.Now()
	logger.Info("loop.turn.start", "session", sessionID)

	var decision core.PlanningDecision
	var outcome core.StepOutcome

	current := StatePlanning
	for current != StateFinalized {
		// Cancellation is honored between loop iterations; an in-flight tool
		// call is bounded separately by the registry timeout.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("turn cancelled: %w", err)
		}

		switch current {
		case StatePlanning:
			state.Iterations++
			if state.Iterations > l.cfg.MaxLoopIterations {
				logger.Warn("loop.iteration_cap", "session", sessionID, "iterations", state.Iterations-1)
				state.FinalAnswer = l.planner.BestEffortAnswer(ctx, state)
				current = StateFinalized
				continue
			}
			var err error
			decision, err = l.planner.PlanOrRevise(ctx, state)
			if err != nil {
				return nil, l.fatal(sessionID, err)
			}
			logger.Debug("loop.transition", "from", StatePlanning.String(), "decision", string(decision.Kind))
			current = StateRouting

		case StateRouting:
			next := shouldUseTools(decision)
			if next == StateFinalized {
				state.FinalAnswer = decision.Answer
			}
			current = next

		case StateExecuting:
			var err error
			outcome, err = l.executor.ExecuteStep(ctx, state)
			if err != nil {
				return nil, l.fatal(sessionID, err)
			}
			logger.Debug("loop.transition", "from", StateExecuting.String(), "step", outcome.StepID, "ok", outcome.OK())
			current = shouldContinueOrIntegrate(outcome)
		}
	}

	if err := state.Check(); err != nil {
		return nil, l.fatal(sessionID, err)
	}
	answer := state.FinalAnswer
	if answer == nil {
		return nil, l.fatal(sessionID, core.NewStructuralError("finalized without an answer"))
	}

	l.persist(ctx, state, answer)
	logger.Info("loop.turn.done", "session", sessionID, "iterations", state.Iterations,
		"truncated", answer.Truncated, "degraded", answer.Degraded, "duration_ms", time.Since(start).Milliseconds())
	return answer, nil
}

// persist appends the completed turn to the session window and, when the
// relevance policy agrees, writes a long-term record. Persistence is
// best-effort: a memory failure never fails a finished turn.
func (l *Loop) persist(ctx context.Context, state *core.ConversationState, answer *core.Answer) {
	if l.shortTerm != nil {
		l.shortTerm.Append(state.SessionID, memory.TurnRecord{
			Request:     state.Request,
			FinalAnswer: *answer,
			At:          time.Now().UTC(),
		})
	}
	if l.longTerm == nil || !l.relevance.ShouldRemember(*answer) {
		return
	}
	err := l.longTerm.Write(ctx, memory.Record{
		SourceText: answer.Text,
		Metadata: map[string]string{
			"session": state.SessionID,
			"kind":    "interaction",
		},
	})
	if err != nil {
		l.logger.Warn("loop.memory_write_failed", "session", state.SessionID, "error", err.Error())
	}
}

// fatal logs and wraps a structural failure; the turn aborts with a
// diagnosable error rather than a silent continuation.
func (l *Loop) fatal(sessionID string, err error) error {
	l.logger.Error("loop.turn.fatal", "session", sessionID, "error", err.Error())
	return fmt.Errorf("turn aborted: %w", err)
}
