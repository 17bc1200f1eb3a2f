package container

import (
	"strconv"
)

// DuplicateKeyError is returned when a name is registered twice.
type DuplicateKeyError struct{ Name string }

func (e DuplicateKeyError) Error() string {
	return "container: duplicate registration " + strconv.Quote(e.Name)
}

// MissingDependencyError is returned when nothing is registered under a name.
type MissingDependencyError struct{ Name string }

func (e MissingDependencyError) Error() string {
	return "container: dependency " + strconv.Quote(e.Name) + " missing"
}

// WrongTypeDependencyError is returned by Resolve[T] when the stored value is not a T.
type WrongTypeDependencyError struct {
	Name    string
	GotType string
}

func (e WrongTypeDependencyError) Error() string {
	return "container: dependency " + strconv.Quote(e.Name) + " has wrong type (" + e.GotType + ")"
}

// ScopeRequiredError is returned when a scoped registration is resolved from the root.
type ScopeRequiredError struct{ Name string }

func (e ScopeRequiredError) Error() string {
	return "container: dependency " + strconv.Quote(e.Name) + " is scoped and needs a scope"
}

// NilProviderError is returned when Register is given a nil provider.
type NilProviderError struct{ Name string }

func (e NilProviderError) Error() string {
	return "container: nil provider for " + strconv.Quote(e.Name)
}

// ProviderError wraps a failure returned by a provider.
type ProviderError struct {
	Name string
	Err  error
}

func (e ProviderError) Error() string {
	return "container: building " + strconv.Quote(e.Name) + ": " + e.Err.Error()
}

func (e ProviderError) Unwrap() error {
	return e.Err
}
