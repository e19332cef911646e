package vm

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ProgramVersion is the current program format version.
// Increment when making incompatible changes to the encoding.
const ProgramVersion uint16 = 1

// HandleResolver turns a definition handle from the instruction stream into
// the resolved definition, e.g. a ModifierDefinition.
type HandleResolver interface {
	Resolve(handle int) any
}

// ---------------------------------------------------------------------------
// Constants: the constant pool
// ---------------------------------------------------------------------------

// Constants is the read-only constant pool of a program. Index 0 always holds
// the empty string, so a zero string operand doubles as "none".
type Constants struct {
	strings  []string
	index    map[string]uint16
	resolver HandleResolver
	sealed   bool
}

// NewConstants creates an empty pool.
func NewConstants() *Constants {
	c := &Constants{index: make(map[string]uint16)}
	c.AddString("")
	return c
}

// MaxConstants is the largest number of strings a pool can hold; string
// operands are u16.
const MaxConstants = math.MaxUint16 + 1

// AddString interns s and returns its index. If the string already exists,
// returns the existing index. A full pool is a BadOperand fatal.
func (c *Constants) AddString(s string) uint16 {
	if idx, ok := c.index[s]; ok {
		return idx
	}
	if c.sealed {
		Fatalf(BadOperand, "Constants", "pool is read-only after program load")
	}
	if len(c.strings) >= MaxConstants {
		Fatalf(BadOperand, "Constants", "constant pool full (%d strings)", len(c.strings))
	}
	idx := uint16(len(c.strings))
	c.strings = append(c.strings, s)
	c.index[s] = idx
	return idx
}

// String returns the interned string at index.
func (c *Constants) String(index uint16) string {
	if int(index) >= len(c.strings) {
		Fatalf(BadOperand, "Constants", "string index %d out of range (pool has %d)", index, len(c.strings))
	}
	return c.strings[index]
}

// OptionalString returns the string at index, with index 0 meaning none.
func (c *Constants) OptionalString(index uint16) string {
	if index == 0 {
		return ""
	}
	return c.String(index)
}

// Len returns the number of interned strings.
func (c *Constants) Len() int {
	return len(c.strings)
}

// Strings returns a copy of the string table.
func (c *Constants) Strings() []string {
	out := make([]string, len(c.strings))
	copy(out, c.strings)
	return out
}

// ResolveHandle resolves a definition handle through the program's resolver.
func (c *Constants) ResolveHandle(handle int) any {
	if c.resolver == nil {
		Fatalf(MissingContext, "Constants", "no resolver installed to resolve handle %d", handle)
	}
	return c.resolver.Resolve(handle)
}

func (c *Constants) seal() {
	c.sealed = true
}

// ---------------------------------------------------------------------------
// Program
// ---------------------------------------------------------------------------

// Program is an encoded instruction stream plus its constant pool.
//
// Each instruction is one opcode byte followed by the opcode's u16 operands
// in little-endian order.
type Program struct {
	Version   uint16
	Code      []byte
	Constants *Constants
}

// NewProgram seals constants and wraps code.
func NewProgram(code []byte, constants *Constants, resolver HandleResolver) *Program {
	constants.resolver = resolver
	constants.seal()
	return &Program{Version: ProgramVersion, Code: code, Constants: constants}
}

// SetResolver installs the resolver used for definition handles.
func (p *Program) SetResolver(r HandleResolver) {
	p.Constants.resolver = r
}

// Decode decodes the instruction at offset and returns it with the offset of
// the next instruction.
func (p *Program) Decode(offset int) (Instruction, int, error) {
	return decodeInstruction(p.Code, offset)
}

// Instructions decodes the whole stream.
func (p *Program) Instructions() ([]Instruction, error) {
	var out []Instruction
	for pos := 0; pos < len(p.Code); {
		in, next, err := decodeInstruction(p.Code, pos)
		if err != nil {
			return out, err
		}
		out = append(out, in)
		pos = next
	}
	return out, nil
}

func decodeInstruction(code []byte, pos int) (Instruction, int, error) {
	if pos >= len(code) {
		return Instruction{}, pos, fmt.Errorf("offset %d past end of program (%d bytes)", pos, len(code))
	}
	op := Opcode(code[pos])
	if !op.Known() {
		return Instruction{Op: op, Offset: pos}, pos + 1, fmt.Errorf("unknown opcode 0x%02X at offset %d", byte(op), pos)
	}
	in := Instruction{Op: op, Offset: pos}
	n := GetOpcodeInfo(op).Operands
	end := pos + 1 + 2*n
	if end > len(code) {
		return in, len(code), fmt.Errorf("truncated %s at offset %d: need %d operand bytes", op, pos, 2*n)
	}
	operands := [3]uint16{}
	for i := 0; i < n; i++ {
		operands[i] = binary.LittleEndian.Uint16(code[pos+1+2*i:])
	}
	in.Op1, in.Op2, in.Op3 = operands[0], operands[1], operands[2]
	return in, end, nil
}
