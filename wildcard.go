package fluo

import "fmt"

// Wildcard wraps a state or event value with an explicit "any" tag.
// The zero value is a concrete zero T, not Any.
type Wildcard[T comparable] struct {
	value T
	isAny bool
}

// Concrete wraps a specific value
func Concrete[T comparable](value T) Wildcard[T] {
	return Wildcard[T]{value: value}
}

// Any returns the wildcard that matches every value of T
func Any[T comparable]() Wildcard[T] {
	return Wildcard[T]{isAny: true}
}

// IsAny reports whether w is the wildcard
func (w Wildcard[T]) IsAny() bool {
	return w.isAny
}

// Value returns the wrapped value and false when w is Any
func (w Wildcard[T]) Value() (T, bool) {
	if w.isAny {
		var zero T
		return zero, false
	}
	return w.value, true
}

// Matches reports whether value is accepted by w.
// Unlike ==, Any matches every value.
func (w Wildcard[T]) Matches(value T) bool {
	return w.isAny || w.value == value
}

// String returns "*" for Any, otherwise the formatted value
func (w Wildcard[T]) String() string {
	if w.isAny {
		return "*"
	}
	return fmt.Sprint(w.value)
}
