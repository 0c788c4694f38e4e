package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/planmesh/core"
	"github.com/hupe1980/planmesh/logging"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// Timeout bounds each invocation. Zero disables the registry-level
	// deadline (the caller's context still applies).
	Timeout time.Duration
	// Logger receives tool.call.* events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Registry holds the registered capability set and exposes the uniform
// invoke(name, args) contract the control core depends on. It is safe for
// concurrent use; registration normally happens once at startup.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	timeout time.Duration
	logger  logging.Logger
}

// NewRegistry constructs an empty registry with optional overrides.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{
		Timeout: 30 * time.Second,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		tools:   make(map[string]Tool),
		timeout: opts.Timeout,
		logger:  logging.OrNoOp(opts.Logger),
	}
}

// Register adds a tool, rejecting duplicate names.
func (r *Registry) Register(t Tool) error {
	if t == nil || t.Name() == "" {
		return errors.New("tool must have a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// MustRegister registers a tool and panics on error. Intended for static
// startup wiring where a duplicate name is a programming mistake.
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Has reports whether a tool name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Get returns the registered tool for a name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names sorted for stable iteration.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke dispatches a single tool call, enforcing the per-invocation timeout
// and normalizing every failure into a *ToolError. An unregistered name is a
// *core.StructuralError: the planning agent only binds declared capabilities,
// so a miss here indicates a control-loop bug, not a tool fault.
//
// The call runs in its own goroutine so an unresponsive tool cannot wedge the
// loop past its deadline; an abandoned call's result is discarded.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (core.Output, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, core.NewStructuralError("tool %q not registered", name)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	r.logger.Debug("tool.call.start", "tool", name)

	type callResult struct {
		output core.Output
		err    error
	}
	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- callResult{err: NewToolError(name, core.FailureUpstream, "tool panicked: %v", rec)}
			}
		}()
		output, err := t.Call(ctx, args)
		done <- callResult{output: output, err: err}
	}()

	var res callResult
	select {
	case <-ctx.Done():
		res = callResult{err: NewToolError(name, core.FailureTimeout, "invocation cancelled: %v", ctx.Err())}
	case res = <-done:
	}

	if res.err != nil {
		toolErr := normalizeError(name, res.err)
		r.logger.Warn("tool.call.failed", "tool", name, "kind", string(toolErr.Kind), "error", toolErr.Message, "duration_ms", time.Since(start).Milliseconds())
		return nil, toolErr
	}

	r.logger.Info("tool.call.success", "tool", name, "duration_ms", time.Since(start).Milliseconds())
	return res.output, nil
}

// normalizeError maps arbitrary tool errors onto the closed taxonomy.
func normalizeError(name string, err error) *ToolError {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewToolError(name, core.FailureTimeout, "%v", err)
	}
	return NewToolError(name, core.FailureUpstream, "%v", err)
}
