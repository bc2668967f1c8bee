package task

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// ProgressReporter records progress for the job a body is executing.
// Each call is persisted before it returns.
type ProgressReporter interface {
	Report(ctx context.Context, current, total int) error
}

// ReporterFunc adapts a function to the ProgressReporter interface.
type ReporterFunc func(ctx context.Context, current, total int) error

// Report implements ProgressReporter.
func (f ReporterFunc) Report(ctx context.Context, current, total int) error {
	return f(ctx, current, total)
}

// Executor is a task body. The returned value is marshalled to JSON and
// stored as the job's result; a returned error marks the job FAILURE.
type Executor interface {
	Execute(ctx context.Context, payload json.RawMessage, progress ProgressReporter) (any, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, payload json.RawMessage, progress ProgressReporter) (any, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, payload json.RawMessage, progress ProgressReporter) (any, error) {
	return f(ctx, payload, progress)
}

// Registration is an executor and its per-kind options.
type Registration struct {
	Executor Executor

	// IgnoreResult drops the outcome payload when the job finishes.
	IgnoreResult bool
}

// RegisterOption configures a Registration.
type RegisterOption func(*Registration)

// WithIgnoreResult sets whether jobs of the kind keep their result or error.
func WithIgnoreResult(ignore bool) RegisterOption {
	return func(r *Registration) {
		r.IgnoreResult = ignore
	}
}

// Registry maps job kinds to their executors.
type Registry struct {
	mu      sync.RWMutex
	entries map[Kind]Registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Kind]Registration)}
}

// Register binds an executor to a kind. A kind can only be registered once.
func (r *Registry) Register(kind Kind, executor Executor, opts ...RegisterOption) error {
	if kind == "" {
		return fmt.Errorf("%w: empty kind", ErrUnknownKind)
	}
	if executor == nil {
		return fmt.Errorf("nil executor for kind %q", kind)
	}

	reg := Registration{Executor: executor}
	for _, opt := range opts {
		opt(&reg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[kind]; exists {
		return fmt.Errorf("kind %q already registered", kind)
	}
	r.entries[kind] = reg
	return nil
}

// Lookup returns the registration for kind.
func (r *Registry) Lookup(kind Kind) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.entries[kind]
	return reg, ok
}
