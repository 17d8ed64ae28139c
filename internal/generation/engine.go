// Package generation talks to external image-generation providers.
//
// Every provider implements Engine. Engines are stateless with respect to
// projects: they take text and reference bytes and return JPEG bytes.
package generation

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// Engine names.
const (
	EngineGemini     = "gemini"
	EngineVolcengine = "volcengine"
	EngineNanoBanana = "nano_banana"
)

// DefaultEngine is used when a project names no engine or an unknown one.
const DefaultEngine = EngineVolcengine

// StyleCandidateCount is how many style candidates one request produces.
const StyleCandidateCount = 2

// Engine generates slide artwork.
type Engine interface {
	// Name returns the engine identifier stored on projects.
	Name() string

	// Available reports whether the engine has the credentials it needs.
	Available() bool

	// GenerateStyleImages produces count independent style backgrounds concurrently.
	// Failed requests are dropped; it errors only when none succeed.
	GenerateStyleImages(ctx context.Context, prompt string, count int) ([][]byte, error)

	// GenerateSlideImage renders slide content in the style of the reference image.
	GenerateSlideImage(ctx context.Context, content string, styleImage []byte, stylePrompt string) ([]byte, error)
}

// Limiter paces outbound provider calls per key.
type Limiter interface {
	Wait(ctx context.Context, key string) error
}

type noLimit struct{}

func (noLimit) Wait(context.Context, string) error { return nil }

// Registry maps engine names to engines.
type Registry struct {
	mu       sync.RWMutex
	engines  map[string]Engine
	fallback string
	logger   *slog.Logger
}

// NewRegistry creates a registry whose unknown names resolve to fallback.
func NewRegistry(fallback string, logger *slog.Logger) *Registry {
	if fallback == "" {
		fallback = DefaultEngine
	}
	return &Registry{
		engines:  make(map[string]Engine),
		fallback: fallback,
		logger:   logger,
	}
}

// Register adds or replaces an engine under its name.
func (r *Registry) Register(e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[e.Name()] = e
}

// Resolve returns the engine for name. Empty and unknown names fall back to the
// default engine. Resolve returns nil only when nothing is registered.
func (r *Registry) Resolve(name string) Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.engines[name]; ok {
		return e
	}
	if name != "" {
		r.logger.Warn("unknown image engine, using default", "engine", name, "default", r.fallback)
	}
	if e, ok := r.engines[r.fallback]; ok {
		return e
	}
	for _, e := range r.engines {
		return e
	}
	return nil
}

// Has reports whether name is a registered engine.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.engines[name]
	return ok
}

// Default returns the fallback engine name.
func (r *Registry) Default() string {
	return r.fallback
}

// Status reports availability per registered engine.
func (r *Registry) Status() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool, len(r.engines))
	for name, e := range r.engines {
		out[name] = e.Available()
	}
	return out
}

// Names returns the registered engine names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
