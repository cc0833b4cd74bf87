package cil

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/bnb-chain/ildecompiler/core/metadata"
)

// RegionKind is the handler kind of an exception region.
type RegionKind uint8

const (
	RegionCatch RegionKind = iota
	RegionFilter
	RegionFinally
	RegionFault
)

func (k RegionKind) String() string {
	switch k {
	case RegionCatch:
		return "catch"
	case RegionFilter:
		return "filter"
	case RegionFinally:
		return "finally"
	case RegionFault:
		return "fault"
	}
	return "unknown"
}

// ExceptionRegion is one entry of the exception handling table. End offsets
// are exclusive. FilterStart is only meaningful for filter regions and
// CatchType only for catch regions.
type ExceptionRegion struct {
	Kind         RegionKind
	TryStart     int
	TryEnd       int
	HandlerStart int
	HandlerEnd   int
	FilterStart  int
	CatchType    *metadata.Type
}

// HandlerEntry is the offset where control enters the region's handler
// code: the filter for filter regions, the handler otherwise.
func (r *ExceptionRegion) HandlerEntry() int {
	if r.Kind == RegionFilter {
		return r.FilterStart
	}
	return r.HandlerStart
}

// LocalScope is a lexical scope hint: the locals declared in [Start, End).
type LocalScope struct {
	Start  int
	End    int
	Locals []*metadata.Local
}

// MethodBody is the complete input of one decompilation.
type MethodBody struct {
	Method       *metadata.Method
	Locals       []*metadata.Local
	Instructions []*Instruction
	Regions      []*ExceptionRegion
	Scopes       []*LocalScope
}

// CodeSize is the offset just past the last instruction.
func (b *MethodBody) CodeSize() int {
	if len(b.Instructions) == 0 {
		return 0
	}
	return b.Instructions[len(b.Instructions)-1].Next()
}

// At returns the index of the instruction starting at offset, or -1.
func (b *MethodBody) At(offset int) int {
	i, found := slices.BinarySearchFunc(b.Instructions, offset, func(in *Instruction, off int) int {
		return in.Offset - off
	})
	if !found {
		return -1
	}
	return i
}

// ErrBranchTarget is reported for a branch whose target does not start an
// instruction.
var ErrBranchTarget = errors.New("branch target is not an instruction boundary")

// InstructionError is a Validate failure located at one instruction.
type InstructionError struct {
	Offset int
	Err    error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("IL_%04x: %v", e.Offset, e.Err)
}

func (e *InstructionError) Unwrap() error { return e.Err }

// Validate checks the structural assumptions the decompiler relies on:
// strictly increasing offsets, defined opcodes, branch targets and region
// bounds on instruction boundaries, and well formed regions.
func (b *MethodBody) Validate() error {
	if b.Method == nil {
		return errors.New("method body without method")
	}
	for i, in := range b.Instructions {
		if !in.Op.Valid() {
			return &InstructionError{Offset: in.Offset, Err: errors.Errorf("%v", in.Op)}
		}
		if i > 0 && in.Offset <= b.Instructions[i-1].Offset {
			return &InstructionError{Offset: in.Offset, Err: errors.New("offsets not increasing")}
		}
		for _, t := range in.Targets() {
			if b.At(t) < 0 {
				return &InstructionError{Offset: in.Offset, Err: errors.Wrapf(ErrBranchTarget, "%v to IL_%04x", in.Op, t)}
			}
		}
	}
	end := b.CodeSize()
	boundary := func(off int) bool { return off == end || b.At(off) >= 0 }
	for _, r := range b.Regions {
		if r.TryStart >= r.TryEnd || r.HandlerStart >= r.HandlerEnd {
			return errors.Errorf("empty %v region at IL_%04x", r.Kind, r.TryStart)
		}
		offs := []int{r.TryStart, r.TryEnd, r.HandlerStart, r.HandlerEnd}
		if r.Kind == RegionFilter {
			if r.FilterStart >= r.HandlerStart {
				return errors.Errorf("filter at IL_%04x does not precede its handler", r.FilterStart)
			}
			offs = append(offs, r.FilterStart)
		}
		for _, off := range offs {
			if !boundary(off) {
				return errors.Errorf("%v region bound IL_%04x is not an instruction boundary", r.Kind, off)
			}
		}
	}
	for _, s := range b.Scopes {
		if s.Start > s.End {
			return errors.Errorf("scope IL_%04x-IL_%04x is inverted", s.Start, s.End)
		}
	}
	return nil
}
