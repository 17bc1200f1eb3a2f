package container

import "reflect"

// Resolve resolves name from r and asserts it to T.
func Resolve[T any](r Resolver, name string) (T, error) {
	var zero T

	raw, err := r.Resolve(name)
	if err != nil {
		return zero, err
	}

	v, ok := raw.(T)
	if !ok {
		got := "<nil>"
		if raw != nil {
			got = reflect.TypeOf(raw).String()
		}
		return zero, WrongTypeDependencyError{Name: name, GotType: got}
	}
	return v, nil
}

// MustResolve is Resolve that panics on error.
func MustResolve[T any](r Resolver, name string) T {
	v, err := Resolve[T](r, name)
	if err != nil {
		panic(err)
	}
	return v
}
