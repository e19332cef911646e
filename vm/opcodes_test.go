package vm

import (
	"strings"
	"testing"
)

func TestEveryOpcodeHasAHandler(t *testing.T) {
	for _, op := range AllOpcodes() {
		if !Handlers().Has(op) {
			t.Errorf("%s has metadata but no handler", op)
		}
	}
	for i := 0; i < 256; i++ {
		op := Opcode(i)
		if Handlers().Has(op) && !op.Known() {
			t.Errorf("handler registered for 0x%02X without metadata", i)
		}
	}
}

func TestOpcodeInfo(t *testing.T) {
	tests := []struct {
		in     Instruction
		change int
		length int
	}{
		{Instruction{Op: OpNop}, 0, 1},
		{Instruction{Op: OpPrimitiveReference}, 1, 3},
		{Instruction{Op: OpPrimitiveString}, 1, 3},
		{Instruction{Op: OpPushArgs, Op1: 3}, -2, 3},
		{Instruction{Op: OpPushArgs, Op1: 0}, 1, 3},
		{Instruction{Op: OpPop, Op1: 2}, -2, 3},
		{Instruction{Op: OpPushRemoteElement}, -3, 1},
		{Instruction{Op: OpCloseElement}, 0, 1},
		{Instruction{Op: OpDynamicAttr}, -1, 7},
		{Instruction{Op: OpStaticAttr}, 0, 7},
		{Instruction{Op: OpModifier}, -1, 3},
	}
	for _, tt := range tests {
		if got := tt.in.StackChange(); got != tt.change {
			t.Errorf("%s StackChange = %d, want %d", tt.in.Op, got, tt.change)
		}
		if got := tt.in.Op.InstructionLen(); got != tt.length {
			t.Errorf("%s InstructionLen = %d, want %d", tt.in.Op, got, tt.length)
		}
	}

	if name := Opcode(0xEE).String(); !strings.HasPrefix(name, "UNKNOWN") {
		t.Errorf("unknown opcode name = %q", name)
	}
	if !OpText.IsDOM() || OpEnter.IsDOM() {
		t.Error("IsDOM misclassifies opcodes")
	}
}

func expectPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	fn()
}

func TestOpcodeRegistry(t *testing.T) {
	noop := func(v *VM, in Instruction) {}

	t.Run("duplicate", func(t *testing.T) {
		r := &opcodeRegistry{}
		r.add(OpNop, noop)
		expectPanic(t, func() { r.add(OpNop, noop) })
	})
	t.Run("after freeze", func(t *testing.T) {
		r := &opcodeRegistry{}
		table := r.freeze()
		expectPanic(t, func() { r.add(OpText, noop) })
		if table.Has(OpText) {
			t.Error("frozen table changed")
		}
	})
	t.Run("unknown opcode", func(t *testing.T) {
		r := &opcodeRegistry{}
		expectPanic(t, func() { r.add(Opcode(0xEE), noop) })
	})
}
