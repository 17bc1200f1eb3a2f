// Package container is the dependency container behind request scopes.
//
// A Container lives for the whole process and holds named registrations.
// Each request gets its own Scope from CreateScope; scoped registrations are
// built at most once per scope, singletons at most once per container, and
// transients on every resolve.
//
// Wiring stays explicit: providers are plain functions that resolve what they
// need by name. There is no reflection-based injection.
package container

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Lifetime decides how often a registration's provider runs.
type Lifetime int

const (
	// Singleton providers run once per Container.
	Singleton Lifetime = iota

	// Scoped providers run once per Scope.
	Scoped

	// Transient providers run on every Resolve.
	Transient
)

func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Scoped:
		return "scoped"
	case Transient:
		return "transient"
	default:
		return "lifetime(" + strconv.Itoa(int(l)) + ")"
	}
}

// Resolver looks up dependencies by name. Both *Container and *Scope implement it.
type Resolver interface {
	Resolve(name string) (any, error)
}

// Provider builds a dependency. r is the resolver the dependency is being
// built for: the root container for singletons, the scope for scoped and
// transient registrations resolved from a scope.
type Provider func(r Resolver) (any, error)

type registration struct {
	lifetime Lifetime
	provide  Provider
}

// Container holds registrations and singleton instances.
// All methods are safe for concurrent use.
type Container struct {
	mu            sync.RWMutex
	registrations map[string]registration
	singletons    map[string]any
	group         singleflight.Group
}

// New creates an empty Container.
func New() *Container {
	return &Container{
		registrations: make(map[string]registration),
		singletons:    make(map[string]any),
	}
}

// Register adds a named provider. Names are unique per container.
func (c *Container) Register(name string, lifetime Lifetime, provide Provider) error {
	if provide == nil {
		return NilProviderError{Name: name}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.registrations[name]; exists {
		return DuplicateKeyError{Name: name}
	}
	c.registrations[name] = registration{lifetime: lifetime, provide: provide}
	return nil
}

// RegisterValue registers an already-built singleton.
func (c *Container) RegisterValue(name string, value any) error {
	if err := c.Register(name, Singleton, func(Resolver) (any, error) { return value, nil }); err != nil {
		return err
	}

	c.mu.Lock()
	c.singletons[name] = value
	c.mu.Unlock()
	return nil
}

// MustRegister is Register that panics on error. Meant for composition roots.
func (c *Container) MustRegister(name string, lifetime Lifetime, provide Provider) {
	if err := c.Register(name, lifetime, provide); err != nil {
		panic(err)
	}
}

// Has reports whether name is registered.
func (c *Container) Has(name string) bool {
	_, ok := c.lookup(name)
	return ok
}

// CreateScope returns a new, empty child scope.
func (c *Container) CreateScope() *Scope {
	return &Scope{
		id:        uuid.NewString(),
		root:      c,
		instances: make(map[string]any),
	}
}

// Resolve resolves a singleton or transient registration from the root.
// Scoped registrations need a Scope and return ScopeRequiredError.
func (c *Container) Resolve(name string) (any, error) {
	reg, ok := c.lookup(name)
	if !ok {
		return nil, MissingDependencyError{Name: name}
	}

	switch reg.lifetime {
	case Singleton:
		return c.resolveSingleton(name, reg)
	case Transient:
		return build(name, reg, c)
	default:
		return nil, ScopeRequiredError{Name: name}
	}
}

func (c *Container) lookup(name string) (registration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reg, ok := c.registrations[name]
	return reg, ok
}

func (c *Container) resolveSingleton(name string, reg registration) (any, error) {
	c.mu.RLock()
	v, ok := c.singletons[name]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	v, err, _ := c.group.Do(name, func() (any, error) {
		c.mu.RLock()
		v, ok := c.singletons[name]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}

		v, err := build(name, reg, c)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.singletons[name] = v
		c.mu.Unlock()
		return v, nil
	})
	return v, err
}

func build(name string, reg registration, r Resolver) (any, error) {
	v, err := reg.provide(r)
	if err != nil {
		return nil, ProviderError{Name: name, Err: err}
	}
	return v, nil
}
