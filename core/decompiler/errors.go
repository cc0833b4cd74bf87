package decompiler

import (
	"fmt"

	"github.com/pkg/errors"
)

// Causes of decode inconsistencies. Match them with errors.Is.
var (
	ErrStackUnderflow      = errors.New("operand stack underflow")
	ErrStackMismatch       = errors.New("operand stack depth differs at join")
	ErrUnknownBranchTarget = errors.New("branch target is not a block start")
	ErrBadOperand          = errors.New("bad operand")
	ErrUnsupportedOpcode   = errors.New("unsupported opcode")
	ErrBadBlockBoundary    = errors.New("bad block boundary")

	// ErrPlaceholderLeak is reported by pass verification when stack
	// placeholders survive unstacking.
	ErrPlaceholderLeak = errors.New("stack placeholders left in tree")
)

// DecodeError reports an instruction whose operand or stack assumptions do
// not hold.
type DecodeError struct {
	Method string
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decompile %s at IL_%04x: %v", e.Method, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// InvariantError is returned when pass verification finds a broken tree.
type InvariantError struct {
	Pass string
	Err  error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("after %s: %v", e.Pass, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }
