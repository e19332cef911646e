package vm

import (
	"strings"

	"github.com/chazu/filament/dom"
	"github.com/chazu/filament/reference"
)

// ModifierInstance is the opaque state a manager produces for one modifier
// bound to one element.
type ModifierInstance = any

// ModifierManager owns the lifecycle of a family of modifiers.
//
// A modifier moves through created (Create), pending install (buffered on
// the element's operations), installed (Install, after the element closes),
// updating (Update, once per pass in which Tag changed) and destroyed (the
// destructor runs when the owning block is torn down).
type ModifierManager interface {
	Create(element *dom.Element, state any, args *Arguments, scope *DynamicScope, ops TreeOperations) ModifierInstance
	Tag(instance ModifierInstance) reference.Tag
	Install(instance ModifierInstance)
	Update(instance ModifierInstance)
	// Destructor returns nil when the instance needs no teardown.
	Destructor(instance ModifierInstance) Destroyable
}

// ModifierDefinition is what a Modifier opcode's handle resolves to.
type ModifierDefinition struct {
	Manager ModifierManager
	State   any
}

// ModifierPair is a created modifier together with its manager.
type ModifierPair struct {
	Manager  ModifierManager
	Instance ModifierInstance
}

// Destroyable is anything torn down with its owning block.
type Destroyable interface {
	Destroy()
}

// DestroyFunc adapts a function to Destroyable.
type DestroyFunc func()

func (f DestroyFunc) Destroy() { f() }

// ---------------------------------------------------------------------------
// ComponentElementOperations
// ---------------------------------------------------------------------------

type deferredAttribute struct {
	name      string
	namespace string
	trusting  bool
	refs      []reference.Reference[any]
}

// ComponentElementOperations buffers attribute and modifier additions for
// the element being opened until its open tag is flushed. It is flushed
// exactly once.
type ComponentElementOperations struct {
	attributes []*deferredAttribute
	index      map[string]*deferredAttribute
	modifiers  []ModifierPair
	flushed    bool
}

// NewComponentElementOperations returns an empty buffer.
func NewComponentElementOperations() *ComponentElementOperations {
	return &ComponentElementOperations{index: make(map[string]*deferredAttribute)}
}

// SetAttribute defers an attribute. Later values for the same name replace
// earlier ones, except class, whose values are merged.
func (o *ComponentElementOperations) SetAttribute(name string, ref reference.Reference[any], trusting bool, namespace string) {
	key := namespace + "\x00" + name
	if attr, ok := o.index[key]; ok {
		if name == "class" {
			attr.refs = append(attr.refs, ref)
		} else {
			attr.refs = []reference.Reference[any]{ref}
		}
		attr.trusting = trusting
		return
	}
	attr := &deferredAttribute{
		name:      name,
		namespace: namespace,
		trusting:  trusting,
		refs:      []reference.Reference[any]{ref},
	}
	o.attributes = append(o.attributes, attr)
	o.index[key] = attr
}

// AddModifier buffers a created modifier for installation at close.
func (o *ComponentElementOperations) AddModifier(manager ModifierManager, instance ModifierInstance) {
	o.modifiers = append(o.modifiers, ModifierPair{Manager: manager, Instance: instance})
}

// Flush applies the deferred attributes through the VM's builder, records
// updating work for the non-const ones and returns the buffered modifiers.
// The type attribute is applied first so value-like properties see it.
func (o *ComponentElementOperations) Flush(v *VM) []ModifierPair {
	if o.flushed {
		Fatalf(InvariantViolation, "FlushElement", "component element operations flushed twice")
	}
	o.flushed = true

	if attr, ok := o.index["\x00type"]; ok {
		o.apply(v, attr)
	}
	for _, attr := range o.attributes {
		if attr.name == "type" && attr.namespace == "" {
			continue
		}
		o.apply(v, attr)
	}
	return o.modifiers
}

func (o *ComponentElementOperations) apply(v *VM, attr *deferredAttribute) {
	ref := attr.refs[0]
	if len(attr.refs) > 1 {
		ref = mergeClasses(attr.refs)
	}
	handle := v.builder.SetDynamicAttribute(attr.name, ref.Value(), attr.trusting, attr.namespace)
	if !reference.IsConst(ref) {
		v.updateWith(NewUpdateDynamicAttributeOpcode(ref, handle))
	}
}

// mergeClasses joins several class references with spaces, skipping nil and
// empty values.
func mergeClasses(refs []reference.Reference[any]) reference.Reference[any] {
	tags := make([]reference.Tag, len(refs))
	for i, ref := range refs {
		tags[i] = ref.Tag()
	}
	return reference.Func(reference.Combine(tags...), func() any {
		parts := make([]string, 0, len(refs))
		for _, ref := range refs {
			s := stringify(ref.Value())
			if s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return nil
		}
		return strings.Join(parts, " ")
	})
}
