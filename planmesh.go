// Package planmesh provides a high-level façade over the plan-and-execute
// control loop: a planning agent that decomposes a request into tool-bound
// steps and a separate execution agent that dispatches them one at a time.
// Most applications interact with this package by:
//  1. Creating an Orchestrator via New() (optionally overriding the default
//     in-memory stores, decomposer and synthesizer)
//  2. Registering the capability tools (see the capability package)
//  3. Calling RunTurn for each request
//
// The façade delegates orchestration to loop.Loop while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply model-backed planning
// components, a persistent long-term store and a structured logger.
package planmesh

import (
	"context"
	"fmt"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/executor"
	"github.com/hupe1980/planmesh/logging"
	"github.com/hupe1980/planmesh/loop"
	"github.com/hupe1980/planmesh/memory"
	"github.com/hupe1980/planmesh/planner"
	"github.com/hupe1980/planmesh/tool"
)

// Options configures the Orchestrator.
type Options struct {
	// Config holds the turn-level knobs: retries, iteration cap, tool
	// timeout, memory window and degrade policy.
	Config core.Config

	// Tools are registered into the registry at construction. Deployments
	// usually pass the four capability tools plus any custom additions.
	Tools []tool.Tool

	// Decomposer produces plans. Defaults to the deterministic RuleDecomposer;
	// supply a planner.ModelDecomposer for model-backed planning.
	Decomposer planner.Decomposer

	// Synthesizer integrates step results into the final answer. Defaults to
	// the deterministic TemplateSynthesizer.
	Synthesizer planner.Synthesizer

	// Relevance gates long-term memory recall and persistence. Defaults to
	// KeywordRelevance.
	Relevance memory.Relevance

	// LongTerm overrides the default in-memory vector store. Set to nil
	// explicitly via DisableLongTerm to turn persistence off.
	LongTerm memory.LongTermStore

	// DisableLongTerm turns off the long-term tier entirely.
	DisableLongTerm bool

	// Embedder backs the default long-term store when LongTerm is unset.
	// Defaults to the deterministic HashEmbedder; supply an OpenAIEmbedder
	// for semantic similarity.
	Embedder memory.Embedder

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Orchestrator is the high-level façade aggregating the two agents, the tool
// registry, both memory tiers and the control loop.
type Orchestrator struct {
	registry  *tool.Registry
	shortTerm *memory.ShortTermStore
	longTerm  memory.LongTermStore
	loop      *loop.Loop
}

// New creates an Orchestrator with optional overrides. Any unset component is
// initialized with a deterministic in-memory implementation.
func New(optFns ...func(o *Options)) (*Orchestrator, error) {
	opts := Options{
		Config:      core.DefaultConfig(),
		Decomposer:  planner.RuleDecomposer{},
		Synthesizer: planner.TemplateSynthesizer{},
		Relevance:   memory.NewKeywordRelevance(),
		Embedder:    memory.NewHashEmbedder(0),
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := logging.OrNoOp(opts.Logger)

	registry := tool.NewRegistry(func(o *tool.RegistryOptions) {
		o.Timeout = opts.Config.ToolTimeout
		o.Logger = logger
	})
	for _, t := range opts.Tools {
		if err := registry.Register(t); err != nil {
			return nil, fmt.Errorf("register tool: %w", err)
		}
	}

	shortTerm := memory.NewShortTermStore(opts.Config.MemoryWindow)

	longTerm := opts.LongTerm
	if longTerm == nil && !opts.DisableLongTerm {
		store, err := memory.NewChromemStore(opts.Embedder)
		if err != nil {
			return nil, fmt.Errorf("create long-term store: %w", err)
		}
		longTerm = store
	}

	planningAgent := planner.New(shortTerm, longTerm, func(o *planner.Options) {
		o.MaxRetries = opts.Config.MaxRetries
		o.DegradePolicy = opts.Config.DegradePolicy
		o.Decomposer = opts.Decomposer
		o.Synthesizer = opts.Synthesizer
		o.Relevance = opts.Relevance
		o.Logger = logger
	})
	executionAgent := executor.New(registry, func(o *executor.Options) {
		o.Logger = logger
	})

	controlLoop, err := loop.New(planningAgent, executionAgent, func(o *loop.Options) {
		o.Config = opts.Config
		o.ShortTerm = shortTerm
		o.LongTerm = longTerm
		o.Relevance = opts.Relevance
		o.Logger = logger
	})
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		registry:  registry,
		shortTerm: shortTerm,
		longTerm:  longTerm,
		loop:      controlLoop,
	}, nil
}

// RegisterTool adds a tool to the registry after construction.
func (o *Orchestrator) RegisterTool(t tool.Tool) error { return o.registry.Register(t) }

// RunTurn runs one full request-to-answer cycle for the given session. A
// session accumulates short-term history across turns; an empty sessionID
// starts a fresh one-off session.
func (o *Orchestrator) RunTurn(ctx context.Context, sessionID string, request core.Content) (*core.Answer, error) {
	return o.loop.RunTurn(ctx, sessionID, request)
}

// RunTurnText is a convenience wrapper for plain text requests. Inline data
// URL image payloads in the text are extracted into structured parts before
// planning.
func (o *Orchestrator) RunTurnText(ctx context.Context, sessionID, text string) (*core.Answer, error) {
	return o.loop.RunTurn(ctx, sessionID, core.NewUserRequest(text))
}

// History returns the session's short-term window, oldest first.
func (o *Orchestrator) History(sessionID string) []memory.TurnRecord {
	return o.shortTerm.History(sessionID)
}
