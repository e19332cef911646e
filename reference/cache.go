package reference

import "reflect"

// Cache memoizes a reference's last observed value and the revision it was
// observed at. Value computation happens once per change of the reference's
// own tag, never because the cache was asked twice.
type Cache[T comparable] struct {
	ref          Reference[T]
	tag          Tag
	lastValue    T
	lastRevision Revision
	initialized  bool
}

// NewCache wraps ref.
func NewCache[T comparable](ref Reference[T]) *Cache[T] {
	return &Cache[T]{ref: ref, tag: ref.Tag()}
}

// Tag returns the tag of the wrapped reference.
func (c *Cache[T]) Tag() Tag {
	return c.tag
}

// Peek returns the cached value, computing it on first use.
func (c *Cache[T]) Peek() T {
	if !c.initialized {
		return c.initialize()
	}
	return c.lastValue
}

// Revision returns the revision captured with the cached value.
func (c *Cache[T]) Revision() Revision {
	return c.lastRevision
}

// Revalidate re-reads the reference if its tag was invalidated since the
// last read. changed is true only when the recomputed value differs from the
// cached one; a tag that moved without changing the value is not a change.
func (c *Cache[T]) Revalidate() (value T, changed bool) {
	if !c.initialized {
		return c.initialize(), true
	}
	if Validate(c.tag, c.lastRevision) {
		return c.lastValue, false
	}
	c.lastRevision = Value(c.tag)
	v := c.ref.Value()
	if Same(v, c.lastValue) {
		return v, false
	}
	c.lastValue = v
	return v, true
}

func (c *Cache[T]) initialize() T {
	c.lastRevision = Value(c.tag)
	c.lastValue = c.ref.Value()
	c.initialized = true
	return c.lastValue
}

// Same reports whether a and b hold equal values. Values that cannot be
// compared with ==, such as slices and maps or structs holding them, are
// never the same, so callers treat them as changed.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}
