package vm

import (
	"fmt"

	"github.com/chazu/filament/reference"
)

func registerStackOpcodes(r *opcodeRegistry) {
	r.add(OpNop, func(v *VM, in Instruction) {})

	r.add(OpPrimitiveReference, func(v *VM, in Instruction) {
		v.stack.Push(constRef(v.str(in.Op1)))
	})

	r.add(OpPrimitiveString, func(v *VM, in Instruction) {
		v.stack.Push(StringValue(v.str(in.Op1)))
	})

	r.add(OpPushNull, func(v *VM, in Instruction) {
		v.stack.Push(ReferenceValue{Ref: reference.Undefined})
	})

	r.add(OpGetVariable, func(v *VM, in Instruction) {
		v.stack.Push(ReferenceValue{Ref: v.self.Lookup(v.str(in.Op1))})
	})

	r.add(OpPushArgs, func(v *VM, in Instruction) {
		values := v.stack.PopN("PushArgs", int(in.Op1))
		refs := make([]reference.Reference[any], len(values))
		for i, value := range values {
			refs[i] = checkReference("PushArgs", value)
		}
		v.stack.Push(NewArguments(refs...))
	})

	r.add(OpPop, func(v *VM, in Instruction) {
		v.stack.PopN("Pop", int(in.Op1))
	})

	// Scopes

	r.add(OpPushDynamicScope, func(v *VM, in Instruction) {
		v.scopes = append(v.scopes, v.DynamicScope().Child())
	})

	r.add(OpPopDynamicScope, func(v *VM, in Instruction) {
		if len(v.scopes) == 1 {
			Fatalf(StackImbalance, "PopDynamicScope", "pop of the root dynamic scope")
		}
		v.scopes = v.scopes[:len(v.scopes)-1]
	})

	r.add(OpBindDynamicScope, func(v *VM, in Instruction) {
		ref := checkReference("BindDynamicScope", v.stack.Pop("BindDynamicScope"))
		v.DynamicScope().Set(v.str(in.Op1), ref)
	})

	r.add(OpEnter, func(v *VM, in Instruction) {
		v.enter()
	})

	r.add(OpExit, func(v *VM, in Instruction) {
		v.exit("Exit")
	})

	// Component element operations

	r.add(OpPutComponentOperations, func(v *VM, in Instruction) {
		v.loadValue(RegT0, NewComponentElementOperations())
	})

	r.add(OpComponentAttr, func(v *VM, in Instruction) {
		ref := checkReference("ComponentAttr", v.stack.Pop("ComponentAttr"))
		operations := expect(pendingOperations(v, "ComponentAttr"), "ComponentAttr",
			"component attribute outside of component element operations")
		operations.SetAttribute(v.str(in.Op1), ref, in.Op2 != 0, v.optionalStr(in.Op3))
	})
}

// stringify renders a reference value as attribute text. nil and false
// render as the empty string.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if !v {
			return ""
		}
		return "true"
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
