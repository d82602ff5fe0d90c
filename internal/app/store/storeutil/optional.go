// internal/app/store/storeutil/optional.go
package storeutil

// Optional is the result of a lookup that may legitimately find nothing.
// A missing document is not an error; the caller decides what to show.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some wraps a found value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None is the empty result.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it was present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// Present reports whether a value was found.
func (o Optional[T]) Present() bool {
	return o.ok
}

// Or returns the value, or def when nothing was found.
func (o Optional[T]) Or(def T) T {
	if o.ok {
		return o.value
	}
	return def
}
