package vm

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Disassemble returns a human-readable listing of the program.
func (p *Program) Disassemble() string {
	return p.DisassembleWithName("")
}

// DisassembleWithName returns a listing with a name header.
func (p *Program) DisassembleWithName(name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; Filament Program v%d\n\n", p.Version))

	if p.Constants.Len() > 1 {
		sb.WriteString("; Constants:\n")
		for i, s := range p.Constants.Strings() {
			if i == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf(";   [%3d] %q\n", i, truncate(s)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("; Code:\n")
	for offset := 0; offset < len(p.Code); {
		in, next, err := decodeInstruction(p.Code, offset)
		if err != nil {
			sb.WriteString(fmt.Sprintf("%04X  <%v>\n", offset, err))
			break
		}
		sb.WriteString(FormatInstruction(in, p.Constants))
		sb.WriteString("\n")
		offset = next
	}
	return sb.String()
}

// FormatInstruction renders one instruction with its operands resolved
// against constants.
func FormatInstruction(in Instruction, constants *Constants) string {
	str := func(i uint16) string {
		if constants == nil || int(i) >= constants.Len() {
			return fmt.Sprintf("#%d", i)
		}
		return fmt.Sprintf("%q", truncate(constants.String(i)))
	}

	var operands string
	switch in.Op {
	case OpPrimitiveReference, OpPrimitiveString, OpGetVariable, OpBindDynamicScope, OpText, OpComment, OpOpenElement:
		operands = str(in.Op1)
	case OpPushArgs, OpPop:
		operands = fmt.Sprintf("%d", in.Op1)
	case OpModifier:
		operands = fmt.Sprintf("handle=%d", in.Op1)
	case OpStaticAttr:
		operands = fmt.Sprintf("%s=%s", str(in.Op1), str(in.Op2))
		if in.Op3 != 0 {
			operands += " ns=" + str(in.Op3)
		}
	case OpDynamicAttr, OpComponentAttr:
		operands = str(in.Op1)
		if in.Op2 != 0 {
			operands += " trusting"
		}
		if in.Op3 != 0 {
			operands += " ns=" + str(in.Op3)
		}
	}

	line := fmt.Sprintf("%04X  %-24s", in.Offset, in.Op)
	if operands != "" {
		line += " " + operands
	}
	return strings.TrimRight(line, " ")
}

// truncate shortens s to 40 runes for display.
func truncate(s string) string {
	if utf8.RuneCountInString(s) <= 40 {
		return s
	}
	return string([]rune(s)[:37]) + "..."
}
