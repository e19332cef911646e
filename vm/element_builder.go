package vm

import "github.com/chazu/filament/dom"

// ElementBuilder is the output-tree builder the append VM drives. The VM owns
// the builder for the duration of a pass; every method must leave it in a
// well-defined state on all exit paths.
type ElementBuilder interface {
	AppendText(text string) *dom.Text
	AppendComment(text string) *dom.Comment

	// OpenElement starts an element. Attribute and modifier calls apply to
	// it until FlushElement finalizes the open tag.
	OpenElement(tag string) *dom.Element
	FlushElement(modifiers []ModifierPair)
	// CloseElement closes the current element and returns the modifiers
	// handed to its FlushElement, if any.
	CloseElement() []ModifierPair

	// PushRemoteElement redirects output into element, before nextSibling
	// (nil appends at the end). guid correlates the block across renders.
	PushRemoteElement(element *dom.Element, guid string, nextSibling dom.Node)
	PopRemoteElement()

	SetStaticAttribute(name, value, namespace string)
	SetDynamicAttribute(name string, value any, trusting bool, namespace string) DynamicAttribute

	// Constructing returns the element whose open tag is still being built,
	// or nil outside an open tag.
	Constructing() *dom.Element
	// TreeOperations returns the raw tree operations handed to modifiers.
	TreeOperations() TreeOperations
}

// DynamicAttribute is a handle to an attribute whose value is bound to a
// reference. The builder picks the strategy (attribute, property, boolean).
type DynamicAttribute interface {
	Update(value any, env Environment)
}

// TreeOperations are the low-level tree mutations available to modifier
// managers.
type TreeOperations interface {
	CreateElement(tag string, namespace string) *dom.Element
	CreateText(text string) *dom.Text
	InsertBefore(parent *dom.Element, node, reference dom.Node)
}
