package vm

import "fmt"

// appendHandler executes one decoded instruction.
type appendHandler func(v *VM, in Instruction)

// opcodeRegistry collects handlers at startup. Once frozen it cannot be
// changed.
type opcodeRegistry struct {
	handlers [256]appendHandler
	frozen   bool
}

func (r *opcodeRegistry) add(op Opcode, h appendHandler) {
	if r.frozen {
		panic(fmt.Sprintf("opcode registry: add %s after freeze", op))
	}
	if !op.Known() {
		panic(fmt.Sprintf("opcode registry: no metadata for opcode 0x%02X", byte(op)))
	}
	if r.handlers[op] != nil {
		panic(fmt.Sprintf("opcode registry: duplicate handler for %s", op))
	}
	r.handlers[op] = h
}

func (r *opcodeRegistry) freeze() *AppendOpcodes {
	r.frozen = true
	return &AppendOpcodes{handlers: r.handlers}
}

// AppendOpcodes is the frozen dispatch table of the append VM.
type AppendOpcodes struct {
	handlers [256]appendHandler
}

// Has reports whether op has a handler.
func (a *AppendOpcodes) Has(op Opcode) bool {
	return a.handlers[op] != nil
}

func (a *AppendOpcodes) evaluate(v *VM, in Instruction) {
	handler := a.handlers[in.Op]
	if handler == nil {
		Fatalf(UnknownOpcode, in.Op.String(), "no handler at offset %d", in.Offset)
	}
	if v.opts.Trace {
		log.Debugf("%s  [stack %d]", FormatInstruction(in, v.constants), v.stack.Len())
	}
	v.opStart = v.stack.Len()
	handler(v, in)
	if v.opts.DebugChecks {
		v.expectStackChange(in.StackChange(), in.Op.String())
	}
}

var appendOpcodes = buildAppendOpcodes()

func buildAppendOpcodes() *AppendOpcodes {
	r := &opcodeRegistry{}
	registerStackOpcodes(r)
	registerDOMOpcodes(r)
	return r.freeze()
}

// Handlers returns the frozen dispatch table.
func Handlers() *AppendOpcodes {
	return appendOpcodes
}
