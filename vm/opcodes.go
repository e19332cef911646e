package vm

import "fmt"

// Opcode identifies an append instruction.
// Opcodes are organized into ranges by category.
type Opcode byte

const (
	// ========================================================================
	// Misc (0x00-0x0F)
	// ========================================================================

	OpNop Opcode = 0x00 // No operation

	// ========================================================================
	// Operand stack (0x10-0x1F)
	// ========================================================================

	OpPrimitiveReference Opcode = 0x10 // Push const reference to a pooled string: <str:u16>
	OpPushNull           Opcode = 0x11 // Push const reference to nil
	OpGetVariable        Opcode = 0x12 // Push self-scope reference: <name:u16>
	OpPushArgs           Opcode = 0x13 // Pop <count:u16> references, push an argument list
	OpPop                Opcode = 0x14 // Discard <count:u16> values
	OpPrimitiveString    Opcode = 0x15 // Push a raw pooled string: <str:u16>

	// ========================================================================
	// Scopes (0x20-0x2F)
	// ========================================================================

	OpPushDynamicScope Opcode = 0x20 // Enter a child dynamic scope
	OpPopDynamicScope  Opcode = 0x21 // Leave the current dynamic scope
	OpBindDynamicScope Opcode = 0x22 // Pop a reference, bind it as <name:u16>
	OpEnter            Opcode = 0x23 // Open a nested updating block
	OpExit             Opcode = 0x24 // Close the current updating block

	// ========================================================================
	// DOM (0x30-0x4F)
	// ========================================================================

	OpText               Opcode = 0x30 // Append text: <str:u16>
	OpComment            Opcode = 0x31 // Append comment: <str:u16>
	OpOpenElement        Opcode = 0x32 // Open element: <tag:u16>
	OpOpenDynamicElement Opcode = 0x33 // Pop tag-name reference, open element
	OpPushRemoteElement  Opcode = 0x34 // Pop element, next sibling, guid; redirect output
	OpPopRemoteElement   Opcode = 0x35 // Restore the previous insertion point
	OpFlushElement       Opcode = 0x36 // Finalize the open tag
	OpCloseElement       Opcode = 0x37 // Close the element, schedule modifier installs
	OpModifier           Opcode = 0x38 // Pop args, create modifier: <handle:u16>
	OpStaticAttr         Opcode = 0x39 // <name:u16> <value:u16> <ns:u16>
	OpDynamicAttr        Opcode = 0x3A // Pop reference: <name:u16> <trusting:u16> <ns:u16>

	// ========================================================================
	// Component element operations (0x50-0x5F)
	// ========================================================================

	OpPutComponentOperations Opcode = 0x50 // Load a fresh operations buffer into t0
	OpComponentAttr          Opcode = 0x51 // Pop reference, defer attribute: <name:u16> <trusting:u16> <ns:u16>
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name      string // Human-readable name
	StackPop  int    // Values popped (-1 = taken from the first operand)
	StackPush int    // Values pushed
	Operands  int    // Number of u16 operands following the opcode
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpNop: {"NOP", 0, 0, 0},

	// Operand stack
	OpPrimitiveReference: {"PRIMITIVE_REFERENCE", 0, 1, 1},
	OpPushNull:           {"PUSH_NULL", 0, 1, 0},
	OpGetVariable:        {"GET_VARIABLE", 0, 1, 1},
	OpPushArgs:           {"PUSH_ARGS", -1, 1, 1},
	OpPop:                {"POP", -1, 0, 1},
	OpPrimitiveString:    {"PRIMITIVE_STRING", 0, 1, 1},

	// Scopes
	OpPushDynamicScope: {"PUSH_DYNAMIC_SCOPE", 0, 0, 0},
	OpPopDynamicScope:  {"POP_DYNAMIC_SCOPE", 0, 0, 0},
	OpBindDynamicScope: {"BIND_DYNAMIC_SCOPE", 1, 0, 1},
	OpEnter:            {"ENTER", 0, 0, 0},
	OpExit:             {"EXIT", 0, 0, 0},

	// DOM
	OpText:               {"TEXT", 0, 0, 1},
	OpComment:            {"COMMENT", 0, 0, 1},
	OpOpenElement:        {"OPEN_ELEMENT", 0, 0, 1},
	OpOpenDynamicElement: {"OPEN_DYNAMIC_ELEMENT", 1, 0, 0},
	OpPushRemoteElement:  {"PUSH_REMOTE_ELEMENT", 3, 0, 0},
	OpPopRemoteElement:   {"POP_REMOTE_ELEMENT", 0, 0, 0},
	OpFlushElement:       {"FLUSH_ELEMENT", 0, 0, 0},
	OpCloseElement:       {"CLOSE_ELEMENT", 0, 0, 0},
	OpModifier:           {"MODIFIER", 1, 0, 1},
	OpStaticAttr:         {"STATIC_ATTR", 0, 0, 3},
	OpDynamicAttr:        {"DYNAMIC_ATTR", 1, 0, 3},

	// Component element operations
	OpPutComponentOperations: {"PUT_COMPONENT_OPERATIONS", 0, 0, 0},
	OpComponentAttr:          {"COMPONENT_ATTR", 1, 0, 3},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// Known reports whether op has metadata.
func (op Opcode) Known() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// InstructionLen returns the encoded length of an instruction.
func (op Opcode) InstructionLen() int {
	return 1 + 2*GetOpcodeInfo(op).Operands
}

// IsDOM reports whether op manipulates the output tree.
func (op Opcode) IsDOM() bool {
	return op >= OpText && op <= OpDynamicAttr
}

// AllOpcodes returns a slice of all defined opcodes.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// ---------------------------------------------------------------------------
// Instruction
// ---------------------------------------------------------------------------

// Instruction is a decoded opcode with its operands.
type Instruction struct {
	Op     Opcode
	Op1    uint16
	Op2    uint16
	Op3    uint16
	Offset int // byte offset in the program
}

// StackChange returns the documented net stack effect of the instruction.
func (in Instruction) StackChange() int {
	info := GetOpcodeInfo(in.Op)
	pop := info.StackPop
	if pop < 0 {
		pop = int(in.Op1)
	}
	return info.StackPush - pop
}

// Pops returns how many values the instruction consumes.
func (in Instruction) Pops() int {
	pop := GetOpcodeInfo(in.Op).StackPop
	if pop < 0 {
		return int(in.Op1)
	}
	return pop
}
