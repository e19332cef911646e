package vm

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// ProgramBuilder: Helper for constructing instruction streams
// ---------------------------------------------------------------------------

// ProgramBuilder encodes instruction streams. It is the low-level encoder
// used by tests and tooling; it does no template compilation.
type ProgramBuilder struct {
	code      []byte
	constants *Constants
}

// NewProgramBuilder creates an empty builder.
func NewProgramBuilder() *ProgramBuilder {
	return &ProgramBuilder{
		code:      make([]byte, 0, 64),
		constants: NewConstants(),
	}
}

// Len returns the current code length.
func (b *ProgramBuilder) Len() int {
	return len(b.code)
}

// Emit appends op with its operands. It panics if the operand count does not
// match the opcode's metadata.
func (b *ProgramBuilder) Emit(op Opcode, operands ...uint16) *ProgramBuilder {
	info := GetOpcodeInfo(op)
	if !op.Known() {
		panic(fmt.Sprintf("emit: unknown opcode 0x%02X", byte(op)))
	}
	if len(operands) != info.Operands {
		panic(fmt.Sprintf("emit %s: got %d operands, want %d", op, len(operands), info.Operands))
	}
	b.code = append(b.code, byte(op))
	for _, operand := range operands {
		b.code = binary.LittleEndian.AppendUint16(b.code, operand)
	}
	return b
}

// EmitRaw appends raw bytes. Useful for building malformed streams in tests.
func (b *ProgramBuilder) EmitRaw(data ...byte) *ProgramBuilder {
	b.code = append(b.code, data...)
	return b
}

// Str interns s in the constant pool.
func (b *ProgramBuilder) Str(s string) uint16 {
	return b.constants.AddString(s)
}

// Build seals the pool and returns the program.
func (b *ProgramBuilder) Build(resolver HandleResolver) *Program {
	code := make([]byte, len(b.code))
	copy(code, b.code)
	return NewProgram(code, b.constants, resolver)
}

func boolOperand(v bool) uint16 {
	if v {
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// Operand stack and scopes
// ---------------------------------------------------------------------------

func (b *ProgramBuilder) Nop() *ProgramBuilder { return b.Emit(OpNop) }

// PrimitiveReference pushes a const reference to s.
func (b *ProgramBuilder) PrimitiveReference(s string) *ProgramBuilder {
	return b.Emit(OpPrimitiveReference, b.Str(s))
}

// PrimitiveString pushes s as a raw string operand.
func (b *ProgramBuilder) PrimitiveString(s string) *ProgramBuilder {
	return b.Emit(OpPrimitiveString, b.Str(s))
}

// RemoteBlockGUID mints a fresh remote-block id, pushes it as a raw string
// and returns it.
func (b *ProgramBuilder) RemoteBlockGUID() string {
	guid := uuid.NewString()
	b.PrimitiveString(guid)
	return guid
}

// PushNull pushes a const nil reference.
func (b *ProgramBuilder) PushNull() *ProgramBuilder { return b.Emit(OpPushNull) }

// GetVariable pushes the self-scope reference bound to name.
func (b *ProgramBuilder) GetVariable(name string) *ProgramBuilder {
	return b.Emit(OpGetVariable, b.Str(name))
}

// PushArgs collects count references into an argument list.
func (b *ProgramBuilder) PushArgs(count int) *ProgramBuilder {
	return b.Emit(OpPushArgs, uint16(count))
}

// Pop discards count values.
func (b *ProgramBuilder) Pop(count int) *ProgramBuilder {
	return b.Emit(OpPop, uint16(count))
}

func (b *ProgramBuilder) PushDynamicScope() *ProgramBuilder { return b.Emit(OpPushDynamicScope) }
func (b *ProgramBuilder) PopDynamicScope() *ProgramBuilder  { return b.Emit(OpPopDynamicScope) }

// BindDynamicScope pops a reference and binds it as name.
func (b *ProgramBuilder) BindDynamicScope(name string) *ProgramBuilder {
	return b.Emit(OpBindDynamicScope, b.Str(name))
}

func (b *ProgramBuilder) Enter() *ProgramBuilder { return b.Emit(OpEnter) }
func (b *ProgramBuilder) Exit() *ProgramBuilder  { return b.Emit(OpExit) }

// ---------------------------------------------------------------------------
// DOM
// ---------------------------------------------------------------------------

func (b *ProgramBuilder) Text(s string) *ProgramBuilder    { return b.Emit(OpText, b.Str(s)) }
func (b *ProgramBuilder) Comment(s string) *ProgramBuilder { return b.Emit(OpComment, b.Str(s)) }

func (b *ProgramBuilder) OpenElement(tag string) *ProgramBuilder {
	return b.Emit(OpOpenElement, b.Str(tag))
}

func (b *ProgramBuilder) OpenDynamicElement() *ProgramBuilder { return b.Emit(OpOpenDynamicElement) }
func (b *ProgramBuilder) PushRemoteElement() *ProgramBuilder  { return b.Emit(OpPushRemoteElement) }
func (b *ProgramBuilder) PopRemoteElement() *ProgramBuilder   { return b.Emit(OpPopRemoteElement) }
func (b *ProgramBuilder) FlushElement() *ProgramBuilder       { return b.Emit(OpFlushElement) }
func (b *ProgramBuilder) CloseElement() *ProgramBuilder       { return b.Emit(OpCloseElement) }

// Modifier pops an argument list and creates the modifier behind handle.
func (b *ProgramBuilder) Modifier(handle int) *ProgramBuilder {
	return b.Emit(OpModifier, uint16(handle))
}

// StaticAttr sets a constant attribute. An empty namespace means none.
func (b *ProgramBuilder) StaticAttr(name, value, namespace string) *ProgramBuilder {
	return b.Emit(OpStaticAttr, b.Str(name), b.Str(value), b.Str(namespace))
}

// DynamicAttr pops a reference and binds it to an attribute.
func (b *ProgramBuilder) DynamicAttr(name string, trusting bool, namespace string) *ProgramBuilder {
	return b.Emit(OpDynamicAttr, b.Str(name), boolOperand(trusting), b.Str(namespace))
}

// ---------------------------------------------------------------------------
// Component element operations
// ---------------------------------------------------------------------------

func (b *ProgramBuilder) PutComponentOperations() *ProgramBuilder {
	return b.Emit(OpPutComponentOperations)
}

// ComponentAttr pops a reference and defers it into the operations buffer.
func (b *ProgramBuilder) ComponentAttr(name string, trusting bool, namespace string) *ProgramBuilder {
	return b.Emit(OpComponentAttr, b.Str(name), boolOperand(trusting), b.Str(namespace))
}
