package agents

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/leadflow-dev/leadflow/pkg/schema"
)

// Factory builds an agent instance on first resolution.
type Factory func() Agent

// Registry is a thread-safe name→agent registry with lazy, cached
// instantiation. An unknown agent name never fails dispatch: resolution
// falls back to a shared pass-through agent with a warning, so a typo in
// a definition degrades one step instead of killing the run.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	instances map[string]Agent
	fallback  Agent
	logger    *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factories: make(map[string]Factory),
		instances: make(map[string]Agent),
		fallback:  &Passthrough{},
		logger:    logger,
	}
}

// Register adds an agent factory. Returns error on duplicate name.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return schema.NewError(schema.ErrCodeValidation, "agent name is empty")
	}
	if factory == nil {
		return schema.NewError(schema.ErrCodeValidation, "agent factory is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return schema.NewErrorf(schema.ErrCodeConflict, "agent %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Resolve returns the cached instance for name, building it on first
// use. Unknown names resolve to the pass-through fallback.
func (r *Registry) Resolve(ctx context.Context, name string) Agent {
	r.mu.RLock()
	if agent, ok := r.instances[name]; ok {
		r.mu.RUnlock()
		return agent
	}
	factory, known := r.factories[name]
	r.mu.RUnlock()

	if !known {
		r.logger.WarnContext(ctx, "unknown agent, using pass-through fallback",
			slog.String("agent", name))
		return r.fallback
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock.
	if agent, ok := r.instances[name]; ok {
		return agent
	}
	agent := factory()
	r.instances[name] = agent
	return agent
}

// Has checks if an agent is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered agent names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
