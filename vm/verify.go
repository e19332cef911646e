package vm

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Verify statically checks p's stack discipline without executing it: every
// opcode is known, string operands are in range, the operand stack never
// underflows and ends empty, and every scoped open has a matching close.
// All violations found are reported together.
func Verify(p *Program) error {
	var result *multierror.Error

	var (
		depth    int
		elements int
		remotes  int
		blocks   int
		scopes   int
	)

	strOperand := func(in Instruction, index uint16) {
		if int(index) >= p.Constants.Len() {
			result = multierror.Append(result, fmt.Errorf("%04X %s: string operand %d out of range (pool has %d)",
				in.Offset, in.Op, index, p.Constants.Len()))
		}
	}
	unbalanced := func(in Instruction, what string) {
		result = multierror.Append(result, fmt.Errorf("%04X %s: no open %s to close", in.Offset, in.Op, what))
	}

	for offset := 0; offset < len(p.Code); {
		in, next, err := decodeInstruction(p.Code, offset)
		if err != nil {
			result = multierror.Append(result, err)
			break
		}
		offset = next

		switch in.Op {
		case OpPrimitiveReference, OpPrimitiveString, OpGetVariable, OpBindDynamicScope, OpText, OpComment, OpOpenElement:
			strOperand(in, in.Op1)
		case OpStaticAttr:
			strOperand(in, in.Op1)
			strOperand(in, in.Op2)
			strOperand(in, in.Op3)
		case OpDynamicAttr, OpComponentAttr:
			strOperand(in, in.Op1)
			strOperand(in, in.Op3)
		}

		if pops := in.Pops(); pops > depth {
			result = multierror.Append(result, fmt.Errorf("%04X %s: pops %d with stack depth %d",
				in.Offset, in.Op, pops, depth))
			depth = 0
		} else {
			depth -= pops
		}
		depth += GetOpcodeInfo(in.Op).StackPush

		switch in.Op {
		case OpOpenElement, OpOpenDynamicElement:
			elements++
		case OpCloseElement:
			if elements == 0 {
				unbalanced(in, "element")
			} else {
				elements--
			}
		case OpPushRemoteElement:
			remotes++
		case OpPopRemoteElement:
			if remotes == 0 {
				unbalanced(in, "remote element")
			} else {
				remotes--
			}
		case OpEnter:
			blocks++
		case OpExit:
			if blocks == 0 {
				unbalanced(in, "updating block")
			} else {
				blocks--
			}
		case OpPushDynamicScope:
			scopes++
		case OpPopDynamicScope:
			if scopes == 0 {
				unbalanced(in, "dynamic scope")
			} else {
				scopes--
			}
		}
	}

	if depth != 0 {
		result = multierror.Append(result, fmt.Errorf("end of program: operand stack depth %d, want 0", depth))
	}
	for _, open := range []struct {
		what string
		n    int
	}{
		{"element", elements},
		{"remote element", remotes},
		{"updating block", blocks},
		{"dynamic scope", scopes},
	} {
		if open.n != 0 {
			result = multierror.Append(result, fmt.Errorf("end of program: %d unclosed %s", open.n, open.what))
		}
	}
	return result.ErrorOrNil()
}
