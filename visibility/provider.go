package visibility

import (
	"context"
	"fmt"
	"sync"
)

// TextProvider answers a natural-language prompt on behalf of a platform.
type TextProvider interface {
	Query(ctx context.Context, prompt string, platform Platform, company string) (string, error)
}

// ProviderFunc adapts a function to TextProvider.
type ProviderFunc func(ctx context.Context, prompt string, platform Platform, company string) (string, error)

func (f ProviderFunc) Query(ctx context.Context, prompt string, platform Platform, company string) (string, error) {
	return f(ctx, prompt, platform, company)
}

// ProviderError reports a failed provider call for one platform and methodology.
type ProviderError struct {
	Platform    Platform
	Methodology Methodology
	Err         error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider failed for %s: %v", e.Platform, e.Methodology, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Registry maps each platform to the provider that serves it.
type Registry struct {
	mu        sync.RWMutex
	providers map[Platform]TextProvider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[Platform]TextProvider)}
}

// Register binds provider to platforms, replacing any earlier binding.
func (r *Registry) Register(provider TextProvider, platforms ...Platform) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range platforms {
		if _, err := ParsePlatform(string(p)); err != nil {
			return err
		}
		r.providers[p] = provider
	}
	return nil
}

// Provider returns the provider bound to platform.
func (r *Registry) Provider(platform Platform) (TextProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[platform]
	if !ok {
		return nil, fmt.Errorf("%w: no provider registered for %q", ErrUnknownPlatform, platform)
	}
	return provider, nil
}

// Validate checks that every platform has a provider.
func (r *Registry) Validate() error {
	for _, p := range Platforms {
		if _, err := r.Provider(p); err != nil {
			return err
		}
	}
	return nil
}
