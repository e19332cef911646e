package vm

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/filament/reference"
)

var log = commonlog.GetLogger("filament.vm")

// ---------------------------------------------------------------------------
// Registers
// ---------------------------------------------------------------------------

// Register names a scratch slot of the register file.
type Register int

const (
	RegT0 Register = iota // pending component element operations
	RegT1
	RegS0
	RegS1

	registerCount
)

func (r Register) String() string {
	switch r {
	case RegT0:
		return "t0"
	case RegT1:
		return "t1"
	case RegS0:
		return "s0"
	case RegS1:
		return "s1"
	default:
		return "r?"
	}
}

// ---------------------------------------------------------------------------
// VM: the append interpreter
// ---------------------------------------------------------------------------

// Options tune a render.
type Options struct {
	// DebugChecks asserts every opcode's documented stack effect.
	DebugChecks bool
	// Trace logs every executed instruction at debug level.
	Trace bool
}

// VM executes one append pass. It is single-use and not safe for concurrent
// use; it exclusively owns its stack, registers and builder for the pass.
type VM struct {
	program   *Program
	constants *Constants
	stack     OperandStack
	registers [registerCount]any

	builder ElementBuilder
	env     Environment
	self    Scope
	scopes  []*DynamicScope
	blocks  []*UpdatingBlock

	opts    Options
	pc      int
	opStart int // stack depth before the current instruction
}

// New prepares a VM for program p.
func New(p *Program, builder ElementBuilder, env Environment, self Scope, opts Options) *VM {
	if self == nil {
		self = Scope{}
	}
	return &VM{
		program:   p,
		constants: p.Constants,
		builder:   builder,
		env:       env,
		self:      self,
		scopes:    []*DynamicScope{NewDynamicScope()},
		blocks:    []*UpdatingBlock{NewUpdatingBlock()},
		opts:      opts,
	}
}

// Render runs the append pass of p inside one environment transaction and
// returns the handle for later revalidation.
func Render(p *Program, builder ElementBuilder, env Environment, self Scope, opts Options) *RenderResult {
	return New(p, builder, env, self, opts).Render()
}

// Render runs the append pass inside one environment transaction. Values the
// host pushed onto Stack beforehand are the program's initial operands, e.g.
// an already resolved remote target.
func (v *VM) Render() *RenderResult {
	v.env.Begin()
	defer abortOnPanic(v.env)
	v.Execute()
	v.env.Commit()
	return &RenderResult{
		block:    v.blocks[0],
		env:      v.env,
		updating: NewUpdatingVM(v.env),
	}
}

// Execute runs the instruction stream to the end.
func (v *VM) Execute() {
	code := v.program.Code
	for v.pc < len(code) {
		op := Opcode(code[v.pc])
		in, next, err := decodeInstruction(code, v.pc)
		if err != nil {
			if !op.Known() {
				Fatalf(UnknownOpcode, op.String(), "no handler at offset %d", v.pc)
			}
			Fatalf(BadOperand, op.String(), "%v", err)
		}
		v.pc = next
		appendOpcodes.evaluate(v, in)
	}

	if n := v.stack.Len(); n != 0 {
		stackImbalance("end of program", 0, n)
	}
	if len(v.blocks) != 1 {
		Fatalf(StackImbalance, "end of program", "%d updating blocks left open", len(v.blocks)-1)
	}
	if len(v.scopes) != 1 {
		Fatalf(StackImbalance, "end of program", "%d dynamic scopes left open", len(v.scopes)-1)
	}
	log.Debugf("append: %d bytes, %d updating opcodes recorded", len(code), v.blocks[0].Count())
}

// Stack returns the operand stack.
func (v *VM) Stack() *OperandStack {
	return &v.stack
}

// Elements returns the element builder of the pass.
func (v *VM) Elements() ElementBuilder {
	return v.builder
}

// Env returns the environment of the pass.
func (v *VM) Env() Environment {
	return v.env
}

// DynamicScope returns the innermost dynamic scope.
func (v *VM) DynamicScope() *DynamicScope {
	return v.scopes[len(v.scopes)-1]
}

func (v *VM) fetchValue(r Register) any {
	return v.registers[r]
}

func (v *VM) loadValue(r Register, value any) {
	v.registers[r] = value
}

func (v *VM) currentBlock() *UpdatingBlock {
	return v.blocks[len(v.blocks)-1]
}

// updateWith records op in the innermost updating block.
func (v *VM) updateWith(op UpdatingOpcode) {
	v.currentBlock().Append(op)
}

// newDestroyable ties d to the innermost updating block.
func (v *VM) newDestroyable(d Destroyable) {
	v.currentBlock().AddDestructor(d)
}

func (v *VM) enter() {
	block := NewUpdatingBlock()
	v.updateWith(block)
	v.newDestroyable(block)
	v.blocks = append(v.blocks, block)
}

func (v *VM) exit(op string) {
	if len(v.blocks) == 1 {
		Fatalf(StackImbalance, op, "exit without matching enter")
	}
	v.blocks = v.blocks[:len(v.blocks)-1]
}

// expectStackChange asserts the net stack change of the current
// instruction.
func (v *VM) expectStackChange(expected int, op string) {
	if actual := v.stack.Len() - v.opStart; actual != expected {
		stackImbalance(op, expected, actual)
	}
}

func (v *VM) str(index uint16) string {
	return v.constants.String(index)
}

func (v *VM) optionalStr(index uint16) string {
	return v.constants.OptionalString(index)
}

// ---------------------------------------------------------------------------
// RenderResult
// ---------------------------------------------------------------------------

// RenderResult is the outcome of an append pass: the root updating block
// and the means to revalidate or tear it down.
type RenderResult struct {
	block    *UpdatingBlock
	env      Environment
	updating *UpdatingVM
}

// Rerender runs one revalidation pass inside its own environment
// transaction.
func (r *RenderResult) Rerender() PassStats {
	r.env.Begin()
	defer abortOnPanic(r.env)
	stats := r.updating.Execute(r.block)
	r.env.Commit()
	return stats
}

// abortOnPanic ends env's open transaction when a pass dies, so the
// environment can serve the next cycle, then resumes the panic.
func abortOnPanic(env Environment) {
	if r := recover(); r != nil {
		env.Abort()
		panic(r)
	}
}

// Destroy tears the render down, running every registered destructor.
func (r *RenderResult) Destroy() {
	r.block.Destroy()
}

// Block returns the root updating block.
func (r *RenderResult) Block() *UpdatingBlock {
	return r.block
}

// Opcodes returns the root block's recorded opcodes.
func (r *RenderResult) Opcodes() []UpdatingOpcode {
	return r.block.Opcodes()
}

// OpcodeCount returns the number of recorded opcodes, nested blocks included.
func (r *RenderResult) OpcodeCount() int {
	return r.block.Count()
}

// constRef is used by opcodes that push values known at encode time.
func constRef(v any) ReferenceValue {
	return ReferenceValue{Ref: reference.Const(v)}
}
