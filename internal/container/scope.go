package container

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Scope is a per-request child of a Container. It caches scoped instances
// and values provided directly with Provide. A Scope is never shared between
// requests.
type Scope struct {
	id        string
	root      *Container
	mu        sync.Mutex
	instances map[string]any
	group     singleflight.Group
}

// ID identifies the scope in logs.
func (s *Scope) ID() string {
	return s.id
}

// Provide stores a value in this scope only. It shadows any registration with
// the same name for resolutions made through this scope.
func (s *Scope) Provide(name string, value any) {
	s.mu.Lock()
	s.instances[name] = value
	s.mu.Unlock()
}

// Resolve returns the named dependency.
func (s *Scope) Resolve(name string) (any, error) {
	if v, ok := s.cached(name); ok {
		return v, nil
	}

	reg, ok := s.root.lookup(name)
	if !ok {
		return nil, MissingDependencyError{Name: name}
	}

	switch reg.lifetime {
	case Singleton:
		return s.root.resolveSingleton(name, reg)
	case Transient:
		return build(name, reg, s)
	}

	v, err, _ := s.group.Do(name, func() (any, error) {
		if v, ok := s.cached(name); ok {
			return v, nil
		}

		v, err := build(name, reg, s)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.instances[name] = v
		s.mu.Unlock()
		return v, nil
	})
	return v, err
}

func (s *Scope) cached(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.instances[name]
	return v, ok
}

type scopeContextKey struct{}

// WithScope returns a copy of ctx carrying scope.
func WithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// ScopeFromContext returns the scope stored by WithScope, if any.
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(scopeContextKey{}).(*Scope)
	return scope, ok && scope != nil
}
