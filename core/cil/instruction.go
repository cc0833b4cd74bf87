// Package cil models an already parsed method body: the instruction stream,
// its exception regions and optional lexical scope hints.
package cil

import (
	"fmt"

	"github.com/bnb-chain/ildecompiler/core/metadata"
)

// Location is a source position attached to an instruction.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l *Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Prefix holds the prefix instructions decoded in front of an instruction.
type Prefix struct {
	Constrained *metadata.Type
	Unaligned   uint8
	Volatile    bool
	Tail        bool
	Readonly    bool
}

func (p Prefix) size() int {
	n := 0
	if p.Constrained != nil {
		n += 6
	}
	if p.Unaligned != 0 {
		n += 3
	}
	if p.Volatile {
		n += 2
	}
	if p.Tail {
		n += 2
	}
	if p.Readonly {
		n += 2
	}
	return n
}

// Instruction is one decoded instruction. Instructions are immutable once
// handed to the decompiler.
type Instruction struct {
	Offset   int
	Op       OpCode
	Operand  any
	Prefix   Prefix
	Location *Location
}

// Size is the encoded size in bytes, prefixes included.
func (in *Instruction) Size() int {
	info, ok := opInfos[in.Op]
	if !ok {
		return 1
	}
	n := 1
	if info.long {
		n = 2
	}
	switch info.operand {
	case operandVar:
		n += 2
	case operandI4, operandR4, operandToken, operandTarget:
		n += 4
	case operandI8, operandR8:
		n += 8
	case operandSwitch:
		targets, _ := in.Operand.([]int)
		n += 4 + 4*len(targets)
	}
	return n + in.Prefix.size()
}

// Next is the offset of the instruction that follows in.
func (in *Instruction) Next() int { return in.Offset + in.Size() }

// Targets returns the branch targets of in, in table order.
func (in *Instruction) Targets() []int {
	switch t := in.Operand.(type) {
	case int:
		if in.Op.IsBranch() {
			return []int{t}
		}
	case []int:
		return t
	}
	return nil
}

func (in *Instruction) String() string {
	if in.Operand == nil {
		return fmt.Sprintf("IL_%04x: %v", in.Offset, in.Op)
	}
	if in.Op.IsBranch() {
		if t, ok := in.Operand.(int); ok {
			return fmt.Sprintf("IL_%04x: %v IL_%04x", in.Offset, in.Op, t)
		}
	}
	return fmt.Sprintf("IL_%04x: %v %v", in.Offset, in.Op, in.Operand)
}

// Operand helpers. They report false when the operand has another type.

func (in *Instruction) Int() (int, bool) { return operand[int](in) }
func (in *Instruction) Type() (*metadata.Type, bool) { return operand[*metadata.Type](in) }
func (in *Instruction) Method() (*metadata.Method, bool) { return operand[*metadata.Method](in) }
func (in *Instruction) Field() (*metadata.Field, bool) { return operand[*metadata.Field](in) }

func operand[T any](in *Instruction) (T, bool) {
	v, ok := in.Operand.(T)
	return v, ok
}
