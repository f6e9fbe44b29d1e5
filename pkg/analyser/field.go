package analyser

import "fmt"

// Field holds a metadata value that may be unknown because the post payload
// lacked it or carried something malformed.
type Field[T any] struct {
	value T
	known bool
}

// Known wraps a present value
func Known[T any](v T) Field[T] {
	return Field[T]{value: v, known: true}
}

// Unknown returns a field with no value
func Unknown[T any]() Field[T] {
	return Field[T]{}
}

// Get returns the value and whether it is known
func (f Field[T]) Get() (T, bool) {
	return f.value, f.known
}

// IsKnown reports whether the field carries a value
func (f Field[T]) IsKnown() bool {
	return f.known
}

// Or returns the value, or def when unknown
func (f Field[T]) Or(def T) T {
	if !f.known {
		return def
	}
	return f.value
}

func (f Field[T]) String() string {
	if !f.known {
		return "unknown"
	}
	return fmt.Sprint(f.value)
}
