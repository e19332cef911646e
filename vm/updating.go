package vm

import (
	"fmt"

	"github.com/chazu/filament/reference"
)

// UpdatingOpcode is one recorded re-check-and-correct operation. The set of
// variants is closed: *UpdateDynamicAttributeOpcode, *UpdateModifierOpcode,
// *AssertOpcode and *UpdatingBlock. UpdatingVM.Evaluate dispatches on them.
type UpdatingOpcode interface {
	// Type names the variant for tracing.
	Type() string
	updatingOpcode()
}

// ---------------------------------------------------------------------------
// Variants
// ---------------------------------------------------------------------------

// UpdateDynamicAttributeOpcode re-applies a dynamic attribute when its
// reference changes. Patches are applied synchronously during the pass.
type UpdateDynamicAttributeOpcode struct {
	ref          reference.Reference[any]
	attribute    DynamicAttribute
	tag          reference.Tag
	lastRevision reference.Revision
}

// NewUpdateDynamicAttributeOpcode captures ref's current revision.
func NewUpdateDynamicAttributeOpcode(ref reference.Reference[any], attribute DynamicAttribute) *UpdateDynamicAttributeOpcode {
	tag := ref.Tag()
	return &UpdateDynamicAttributeOpcode{
		ref:          ref,
		attribute:    attribute,
		tag:          tag,
		lastRevision: reference.Value(tag),
	}
}

func (*UpdateDynamicAttributeOpcode) Type() string  { return "patch-element" }
func (*UpdateDynamicAttributeOpcode) updatingOpcode() {}

func (op *UpdateDynamicAttributeOpcode) evaluate(u *UpdatingVM) {
	if reference.Validate(op.tag, op.lastRevision) {
		return
	}
	op.lastRevision = reference.Value(op.tag)
	op.attribute.Update(op.ref.Value(), u.env)
	u.stats.AttributeUpdates++
}

// UpdateModifierOpcode schedules a modifier update when the modifier's tag
// changes. The update itself runs when the environment commits.
type UpdateModifierOpcode struct {
	tag         reference.Tag
	manager     ModifierManager
	instance    ModifierInstance
	lastUpdated reference.Revision
}

// NewUpdateModifierOpcode captures tag's current revision.
func NewUpdateModifierOpcode(tag reference.Tag, manager ModifierManager, instance ModifierInstance) *UpdateModifierOpcode {
	return &UpdateModifierOpcode{
		tag:         tag,
		manager:     manager,
		instance:    instance,
		lastUpdated: reference.Value(tag),
	}
}

func (*UpdateModifierOpcode) Type() string  { return "update-modifier" }
func (*UpdateModifierOpcode) updatingOpcode() {}

func (op *UpdateModifierOpcode) evaluate(u *UpdatingVM) {
	if reference.Validate(op.tag, op.lastUpdated) {
		return
	}
	u.env.ScheduleUpdateModifier(op.instance, op.manager)
	op.lastUpdated = reference.Value(op.tag)
	u.stats.ModifierUpdates++
}

// AssertOpcode guards a value that was read once and must stay put for the
// lifetime of its block, such as a remote element target.
type AssertOpcode struct {
	cache *reference.Cache[any]
}

// NewAssertOpcode wraps cache. The cache must already have been peeked.
func NewAssertOpcode(cache *reference.Cache[any]) *AssertOpcode {
	return &AssertOpcode{cache: cache}
}

func (*AssertOpcode) Type() string  { return "assert" }
func (*AssertOpcode) updatingOpcode() {}

func (op *AssertOpcode) evaluate(u *UpdatingVM) {
	before := op.cache.Peek()
	if after, changed := op.cache.Revalidate(); changed {
		Fatalf(InvariantViolation, "Assert", "stable value changed from %v to %v", before, after)
	}
	u.stats.Asserts++
}

// ---------------------------------------------------------------------------
// UpdatingBlock
// ---------------------------------------------------------------------------

// UpdatingBlock is an updating scope: the ordered opcodes recorded while it
// was open plus the destructors of everything it owns. A nested block is
// itself an opcode of its parent.
type UpdatingBlock struct {
	opcodes     []UpdatingOpcode
	destructors []Destroyable
	destroyed   bool
}

// NewUpdatingBlock returns an empty block.
func NewUpdatingBlock() *UpdatingBlock {
	return &UpdatingBlock{}
}

func (*UpdatingBlock) Type() string  { return "block" }
func (*UpdatingBlock) updatingOpcode() {}

// Append records op at the end of the block.
func (b *UpdatingBlock) Append(op UpdatingOpcode) {
	b.opcodes = append(b.opcodes, op)
}

// AddDestructor registers d to run when the block is destroyed.
func (b *UpdatingBlock) AddDestructor(d Destroyable) {
	b.destructors = append(b.destructors, d)
}

// Opcodes returns the recorded opcodes in registration order.
func (b *UpdatingBlock) Opcodes() []UpdatingOpcode {
	return b.opcodes
}

// Count returns the number of opcodes in the block and all nested blocks,
// not counting the nested blocks themselves.
func (b *UpdatingBlock) Count() int {
	n := 0
	for _, op := range b.opcodes {
		if child, ok := op.(*UpdatingBlock); ok {
			n += child.Count()
			continue
		}
		n++
	}
	return n
}

// Destroyed reports whether Destroy ran.
func (b *UpdatingBlock) Destroyed() bool {
	return b.destroyed
}

// Destroy discards the block and runs its destructors in reverse
// registration order. Calling it again is a no-op.
func (b *UpdatingBlock) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	for i := len(b.destructors) - 1; i >= 0; i-- {
		b.destructors[i].Destroy()
	}
	b.destructors = nil
	b.opcodes = nil
}

// ---------------------------------------------------------------------------
// UpdatingVM: the revalidation driver
// ---------------------------------------------------------------------------

// PassStats counts what one revalidation pass did.
type PassStats struct {
	Evaluated        int
	AttributeUpdates int
	ModifierUpdates  int
	Asserts          int
}

// UpdatingVM runs recorded opcodes. It performs no reordering, batching or
// deduplication.
type UpdatingVM struct {
	env   Environment
	stats PassStats
}

// NewUpdatingVM creates a driver that schedules modifier work on env.
func NewUpdatingVM(env Environment) *UpdatingVM {
	return &UpdatingVM{env: env}
}

// Env returns the environment of the pass.
func (u *UpdatingVM) Env() Environment {
	return u.env
}

// Execute evaluates every opcode of block once, in registration order, and
// returns the pass statistics.
func (u *UpdatingVM) Execute(block *UpdatingBlock) PassStats {
	if block.destroyed {
		Fatalf(InvariantViolation, "UpdatingVM", "revalidating a destroyed block")
	}
	u.stats = PassStats{}
	u.Evaluate(block)
	log.Debugf("revalidation: %d opcodes evaluated, %d attribute patches, %d modifier updates",
		u.stats.Evaluated, u.stats.AttributeUpdates, u.stats.ModifierUpdates)
	return u.stats
}

// Evaluate runs a single opcode.
func (u *UpdatingVM) Evaluate(op UpdatingOpcode) {
	switch op := op.(type) {
	case *UpdatingBlock:
		for _, child := range op.opcodes {
			u.Evaluate(child)
		}
		return
	case *UpdateDynamicAttributeOpcode:
		op.evaluate(u)
	case *UpdateModifierOpcode:
		op.evaluate(u)
	case *AssertOpcode:
		op.evaluate(u)
	default:
		panic(fmt.Sprintf("unknown updating opcode %T", op))
	}
	u.stats.Evaluated++
}
