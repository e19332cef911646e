package vm

import "fmt"

// FatalKind classifies contract violations. None of them are recoverable:
// each means the instruction stream, the builder or an external party broke
// a documented contract.
type FatalKind int

const (
	// StackImbalance: an opcode left the operand stack at a depth other
	// than its documented effect, or a scoped open/close pair is unmatched.
	StackImbalance FatalKind = iota + 1
	// OperandType: a popped or resolved operand has the wrong kind.
	OperandType
	// InvariantViolation: a value assumed stable for a block's lifetime
	// changed behind the runtime's back.
	InvariantViolation
	// MissingContext: an opcode ran outside the context it requires, such
	// as a Modifier outside an open element.
	MissingContext
	// UnknownOpcode: no handler is registered for the opcode.
	UnknownOpcode
	// BadOperand: an operand is out of range or the stream is truncated.
	BadOperand
)

func (k FatalKind) String() string {
	switch k {
	case StackImbalance:
		return "stack imbalance"
	case OperandType:
		return "operand type"
	case InvariantViolation:
		return "invariant violation"
	case MissingContext:
		return "missing context"
	case UnknownOpcode:
		return "unknown opcode"
	case BadOperand:
		return "bad operand"
	default:
		return fmt.Sprintf("FatalKind(%d)", int(k))
	}
}

// FatalError is the panic payload of every contract violation.
type FatalError struct {
	Kind    FatalKind
	Op      string // opcode or component that detected the violation
	Message string

	// Expected and Actual are set for stack imbalances.
	Expected int
	Actual   int
}

func (e *FatalError) Error() string {
	if e.Kind == StackImbalance && e.Expected != e.Actual {
		return fmt.Sprintf("%s in %s: %s (expected stack change %d, got %d)",
			e.Kind, e.Op, e.Message, e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s in %s: %s", e.Kind, e.Op, e.Message)
}

// Fatalf aborts the current pass with a FatalError. Builders and managers
// outside this package use it to report contract violations through the
// same channel as the interpreter.
func Fatalf(kind FatalKind, op string, format string, args ...any) {
	panic(&FatalError{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)})
}

// IsFatal classifies a value obtained from recover.
func IsFatal(recovered any) (*FatalError, bool) {
	err, ok := recovered.(*FatalError)
	return err, ok
}

func stackImbalance(op string, expected, actual int) {
	panic(&FatalError{
		Kind:     StackImbalance,
		Op:       op,
		Message:  "operand stack out of balance",
		Expected: expected,
		Actual:   actual,
	})
}

// expect returns v, aborting with MissingContext when it is the zero value.
func expect[T comparable](v T, op, message string) T {
	var zero T
	if v == zero {
		Fatalf(MissingContext, op, "%s", message)
	}
	return v
}
