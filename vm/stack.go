package vm

import (
	"fmt"

	"github.com/chazu/filament/dom"
	"github.com/chazu/filament/reference"
)

// ---------------------------------------------------------------------------
// Stack values
// ---------------------------------------------------------------------------

// ValueKind tags the variants an operand stack slot can hold.
type ValueKind int

const (
	KindString ValueKind = iota + 1
	KindElement
	KindNode
	KindReference
	KindArguments
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindElement:
		return "element"
	case KindNode:
		return "node"
	case KindReference:
		return "reference"
	case KindArguments:
		return "arguments"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// StackValue is one operand stack slot. The set of variants is closed.
type StackValue interface {
	Kind() ValueKind
	stackValue()
}

// StringValue is a raw string operand.
type StringValue string

// ElementValue is an element operand.
type ElementValue struct{ Element *dom.Element }

// NodeValue is an optional node operand; Node may be nil.
type NodeValue struct{ Node dom.Node }

// ReferenceValue is a reference operand.
type ReferenceValue struct{ Ref reference.Reference[any] }

func (StringValue) Kind() ValueKind    { return KindString }
func (ElementValue) Kind() ValueKind   { return KindElement }
func (NodeValue) Kind() ValueKind      { return KindNode }
func (ReferenceValue) Kind() ValueKind { return KindReference }
func (*Arguments) Kind() ValueKind     { return KindArguments }

func (StringValue) stackValue()    {}
func (ElementValue) stackValue()   {}
func (NodeValue) stackValue()      {}
func (ReferenceValue) stackValue() {}
func (*Arguments) stackValue()     {}

// Ref wraps a reference for the stack.
func Ref[T any](r reference.Reference[T]) ReferenceValue {
	return ReferenceValue{Ref: reference.Erase(r)}
}

// ---------------------------------------------------------------------------
// Arguments
// ---------------------------------------------------------------------------

// Arguments is a captured list of positional argument references.
type Arguments struct {
	Positional []reference.Reference[any]
}

// NewArguments wraps refs.
func NewArguments(refs ...reference.Reference[any]) *Arguments {
	return &Arguments{Positional: refs}
}

// Len returns the number of positional arguments.
func (a *Arguments) Len() int {
	return len(a.Positional)
}

// At returns the i-th argument, or Undefined when out of range.
func (a *Arguments) At(i int) reference.Reference[any] {
	if i < 0 || i >= len(a.Positional) {
		return reference.Undefined
	}
	return a.Positional[i]
}

// Tag combines the tags of every argument.
func (a *Arguments) Tag() reference.Tag {
	tags := make([]reference.Tag, len(a.Positional))
	for i, ref := range a.Positional {
		tags[i] = ref.Tag()
	}
	return reference.Combine(tags...)
}

// Value evaluates every argument.
func (a *Arguments) Value() []any {
	out := make([]any, len(a.Positional))
	for i, ref := range a.Positional {
		out[i] = ref.Value()
	}
	return out
}

// ---------------------------------------------------------------------------
// OperandStack
// ---------------------------------------------------------------------------

// OperandStack is the append VM's value stack.
type OperandStack struct {
	values []StackValue
}

// Push pushes v.
func (s *OperandStack) Push(v StackValue) {
	s.values = append(s.values, v)
}

// Pop pops the top value. Popping an empty stack is a stack imbalance.
func (s *OperandStack) Pop(op string) StackValue {
	n := len(s.values)
	if n == 0 {
		Fatalf(StackImbalance, op, "pop from empty operand stack")
	}
	v := s.values[n-1]
	s.values[n-1] = nil
	s.values = s.values[:n-1]
	return v
}

// PopN pops count values and returns them in push order.
func (s *OperandStack) PopN(op string, count int) []StackValue {
	if count > len(s.values) {
		Fatalf(StackImbalance, op, "pop %d from operand stack of depth %d", count, len(s.values))
	}
	start := len(s.values) - count
	out := make([]StackValue, count)
	copy(out, s.values[start:])
	clear(s.values[start:])
	s.values = s.values[:start]
	return out
}

// Peek returns the top value without popping it.
func (s *OperandStack) Peek(op string) StackValue {
	if len(s.values) == 0 {
		Fatalf(StackImbalance, op, "peek at empty operand stack")
	}
	return s.values[len(s.values)-1]
}

// Len returns the stack depth.
func (s *OperandStack) Len() int {
	return len(s.values)
}

// ---------------------------------------------------------------------------
// Operand checks
// ---------------------------------------------------------------------------

func operandType(op string, want ValueKind, got StackValue) {
	if got == nil {
		Fatalf(OperandType, op, "expected %s, got nil", want)
	}
	Fatalf(OperandType, op, "expected %s, got %s", want, got.Kind())
}

func checkReference(op string, v StackValue) reference.Reference[any] {
	r, ok := v.(ReferenceValue)
	if !ok || r.Ref == nil {
		operandType(op, KindReference, v)
	}
	return r.Ref
}

func checkString(op string, v StackValue) string {
	s, ok := v.(StringValue)
	if !ok {
		operandType(op, KindString, v)
	}
	return string(s)
}

func checkElement(op string, v StackValue) *dom.Element {
	e, ok := v.(ElementValue)
	if !ok || e.Element == nil {
		operandType(op, KindElement, v)
	}
	return e.Element
}

func checkArguments(op string, v StackValue) *Arguments {
	a, ok := v.(*Arguments)
	if !ok || a == nil {
		operandType(op, KindArguments, v)
	}
	return a
}

// checkOptionElement accepts an element or nil.
func checkOptionElement(op string, v any) *dom.Element {
	switch e := v.(type) {
	case nil:
		return nil
	case *dom.Element:
		return e
	default:
		Fatalf(OperandType, op, "expected element or nil, got %T", v)
		return nil
	}
}

// checkOptionNode accepts a node or nil.
func checkOptionNode(op string, v any) dom.Node {
	switch n := v.(type) {
	case nil:
		return nil
	case dom.Node:
		return n
	default:
		Fatalf(OperandType, op, "expected node or nil, got %T", v)
		return nil
	}
}

func checkGUID(op string, v any) string {
	s, ok := v.(string)
	if !ok {
		Fatalf(OperandType, op, "expected string guid, got %T", v)
	}
	return s
}
