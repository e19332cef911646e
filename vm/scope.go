package vm

import "github.com/chazu/filament/reference"

// Scope maps names to references. The self scope of a render is one.
type Scope map[string]reference.Reference[any]

// Lookup returns the reference bound to name, or Undefined.
func (s Scope) Lookup(name string) reference.Reference[any] {
	if ref, ok := s[name]; ok && ref != nil {
		return ref
	}
	return reference.Undefined
}

// DynamicScope is a chain of name bindings visible to everything rendered
// beneath the point where they were bound.
type DynamicScope struct {
	parent   *DynamicScope
	bindings map[string]reference.Reference[any]
}

// NewDynamicScope creates a root scope.
func NewDynamicScope() *DynamicScope {
	return &DynamicScope{}
}

// Child returns a new scope that falls back to s.
func (s *DynamicScope) Child() *DynamicScope {
	return &DynamicScope{parent: s}
}

// Parent returns the enclosing scope, or nil for a root.
func (s *DynamicScope) Parent() *DynamicScope {
	return s.parent
}

// Set binds name in this scope, shadowing any outer binding.
func (s *DynamicScope) Set(name string, ref reference.Reference[any]) {
	if s.bindings == nil {
		s.bindings = make(map[string]reference.Reference[any])
	}
	s.bindings[name] = ref
}

// Get resolves name through the chain, returning Undefined when unbound.
func (s *DynamicScope) Get(name string) reference.Reference[any] {
	for cur := s; cur != nil; cur = cur.parent {
		if ref, ok := cur.bindings[name]; ok {
			return ref
		}
	}
	return reference.Undefined
}
