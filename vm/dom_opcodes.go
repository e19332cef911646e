package vm

import (
	"github.com/chazu/filament/dom"
	"github.com/chazu/filament/reference"
)

func registerDOMOpcodes(r *opcodeRegistry) {
	r.add(OpText, func(v *VM, in Instruction) {
		v.builder.AppendText(v.str(in.Op1))
	})

	r.add(OpComment, func(v *VM, in Instruction) {
		v.builder.AppendComment(v.str(in.Op1))
	})

	r.add(OpOpenElement, func(v *VM, in Instruction) {
		v.builder.OpenElement(v.str(in.Op1))
	})

	r.add(OpOpenDynamicElement, func(v *VM, in Instruction) {
		const op = "OpenDynamicElement"
		var tag any
		switch operand := v.stack.Pop(op).(type) {
		case StringValue:
			tag = checkString(op, operand)
		default:
			tag = checkReference(op, operand).Value()
		}
		name, ok := tag.(string)
		if !ok || name == "" {
			Fatalf(OperandType, op, "tag name must be a non-empty string, got %T", tag)
		}
		v.builder.OpenElement(name)
	})

	r.add(OpPushRemoteElement, pushRemoteElement)

	r.add(OpPopRemoteElement, func(v *VM, in Instruction) {
		v.builder.PopRemoteElement()
	})

	r.add(OpFlushElement, func(v *VM, in Instruction) {
		var modifiers []ModifierPair
		if operations := pendingOperations(v, "FlushElement"); operations != nil {
			modifiers = operations.Flush(v)
			v.loadValue(RegT0, nil)
		}
		v.builder.FlushElement(modifiers)
	})

	r.add(OpCloseElement, func(v *VM, in Instruction) {
		for _, m := range v.builder.CloseElement() {
			v.env.ScheduleInstallModifier(m.Instance, m.Manager)
			if d := m.Manager.Destructor(m.Instance); d != nil {
				v.newDestroyable(d)
			}
		}
		v.expectStackChange(0, "CloseElement")
	})

	r.add(OpModifier, func(v *VM, in Instruction) {
		def := resolveModifier(v, int(in.Op1))
		args := checkArguments("Modifier", v.stack.Pop("Modifier"))
		constructing := expect(v.builder.Constructing(), "Modifier",
			"modifier could not find the element it applies to")
		instance := def.Manager.Create(constructing, def.State, args, v.DynamicScope(), v.builder.TreeOperations())

		operations := expect(pendingOperations(v, "Modifier"), "Modifier",
			"modifier could not find operations to append to")
		operations.AddModifier(def.Manager, instance)

		if tag := def.Manager.Tag(instance); !reference.IsConstTag(tag) {
			v.updateWith(NewUpdateModifierOpcode(tag, def.Manager, instance))
		}
	})

	r.add(OpStaticAttr, func(v *VM, in Instruction) {
		v.builder.SetStaticAttribute(v.str(in.Op1), v.str(in.Op2), v.optionalStr(in.Op3))
	})

	r.add(OpDynamicAttr, func(v *VM, in Instruction) {
		name := v.str(in.Op1)
		ref := checkReference("DynamicAttr", v.stack.Pop("DynamicAttr"))
		namespace := v.optionalStr(in.Op3)

		attribute := v.builder.SetDynamicAttribute(name, ref.Value(), in.Op2 != 0, namespace)
		if !reference.IsConst(ref) {
			v.updateWith(NewUpdateDynamicAttributeOpcode(ref, attribute))
		}
	})
}

// pushRemoteElement pops the element, the next sibling and the guid, in that
// order. Each operand is either already resolved (ElementValue, NodeValue,
// StringValue) or a reference. Non-const element and sibling references are
// read through a cache and guarded by an assert for the lifetime of the
// block; the guid is read once.
func pushRemoteElement(v *VM, in Instruction) {
	const op = "PushRemoteElement"
	elementOperand := v.stack.Pop(op)
	nextSiblingOperand := v.stack.Pop(op)
	guidOperand := v.stack.Pop(op)

	var guid string
	switch g := guidOperand.(type) {
	case StringValue:
		guid = checkString(op, g)
	default:
		guid = checkGUID(op, checkReference(op, g).Value())
	}

	var element *dom.Element
	switch e := elementOperand.(type) {
	case ElementValue:
		element = checkElement(op, e)
	default:
		element = checkOptionElement(op, stableValue(v, checkReference(op, e)))
	}
	if element == nil {
		Fatalf(OperandType, op, "remote element must not be nil")
	}

	var nextSibling dom.Node
	switch n := nextSiblingOperand.(type) {
	case NodeValue:
		nextSibling = n.Node
	case ElementValue:
		nextSibling = checkElement(op, n)
	default:
		nextSibling = checkOptionNode(op, stableValue(v, checkReference(op, n)))
	}

	v.builder.PushRemoteElement(element, guid, nextSibling)
}

// stableValue reads ref once. A non-const ref is cached and an assert is
// recorded so a later change is caught on revalidation.
func stableValue(v *VM, ref reference.Reference[any]) any {
	if reference.IsConst(ref) {
		return ref.Value()
	}
	cache := reference.NewCache(ref)
	value := cache.Peek()
	v.updateWith(NewAssertOpcode(cache))
	return value
}

func resolveModifier(v *VM, handle int) ModifierDefinition {
	var def ModifierDefinition
	switch d := v.constants.ResolveHandle(handle).(type) {
	case ModifierDefinition:
		def = d
	case *ModifierDefinition:
		if d != nil {
			def = *d
		}
	}
	if def.Manager == nil {
		Fatalf(OperandType, "Modifier", "handle %d does not resolve to a modifier definition", handle)
	}
	return def
}

// pendingOperations reads register t0, which holds either nothing or the
// open element's operations buffer.
func pendingOperations(v *VM, op string) *ComponentElementOperations {
	switch ops := v.fetchValue(RegT0).(type) {
	case nil:
		return nil
	case *ComponentElementOperations:
		return ops
	default:
		Fatalf(OperandType, op, "register t0 holds %T, want component element operations", ops)
		return nil
	}
}
