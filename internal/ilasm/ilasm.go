// Package ilasm assembles method bodies from mnemonic calls so that tests can
// be written as IL listings. Offsets are computed from the encoded size of
// each instruction and symbolic labels are resolved when the body is built.
package ilasm

import (
	"github.com/pkg/errors"

	"github.com/bnb-chain/ildecompiler/core/cil"
	"github.com/bnb-chain/ildecompiler/core/metadata"
)

type fixup struct {
	in     *cil.Instruction
	labels []string
}

type region struct {
	kind                                            cil.RegionKind
	tryStart, tryEnd, handlerStart, handlerEnd, flt string
	catchType                                       *metadata.Type
}

type scope struct {
	start, end string
	locals     []*metadata.Local
}

// Assembler accumulates the instructions of one method body.
type Assembler struct {
	method  *metadata.Method
	locals  []*metadata.Local
	insts   []*cil.Instruction
	fixups  []fixup
	labels  map[string]int
	offset  int
	prefix  cil.Prefix
	loc     *cil.Location
	regions []region
	scopes  []scope
	err     error
}

// New starts a body for m.
func New(m *metadata.Method) *Assembler {
	return &Assembler{method: m, labels: make(map[string]int)}
}

// Local declares the next local slot.
func (a *Assembler) Local(name string, t *metadata.Type) *metadata.Local {
	l := &metadata.Local{Index: len(a.locals), Name: name, Type: t}
	a.locals = append(a.locals, l)
	return l
}

// TempLocal declares a compiler generated local slot.
func (a *Assembler) TempLocal(t *metadata.Type) *metadata.Local {
	l := &metadata.Local{Index: len(a.locals), Type: t, CompilerGenerated: true}
	a.locals = append(a.locals, l)
	return l
}

// Label binds name to the offset of the next instruction.
func (a *Assembler) Label(name string) *Assembler {
	if _, dup := a.labels[name]; dup && a.err == nil {
		a.err = errors.Errorf("label %q defined twice", name)
	}
	a.labels[name] = a.offset
	return a
}

// Line attaches a source line to the instructions that follow; zero clears it.
func (a *Assembler) Line(line int) *Assembler {
	if line == 0 {
		a.loc = nil
	} else {
		a.loc = &cil.Location{File: a.method.Name + ".cs", Line: line}
	}
	return a
}

// Tail and Constrained set prefixes on the next instruction.
func (a *Assembler) Tail() *Assembler {
	a.prefix.Tail = true
	return a
}

func (a *Assembler) Constrained(t *metadata.Type) *Assembler {
	a.prefix.Constrained = t
	return a
}

// Op emits an instruction with a literal operand.
func (a *Assembler) Op(op cil.OpCode, operand any) *Assembler {
	in := &cil.Instruction{Offset: a.offset, Op: op, Operand: operand, Prefix: a.prefix, Location: a.loc}
	a.prefix = cil.Prefix{}
	a.insts = append(a.insts, in)
	a.offset = in.Next()
	return a
}

// Branch emits a branch to label.
func (a *Assembler) Branch(op cil.OpCode, label string) *Assembler {
	a.Op(op, 0)
	a.fixups = append(a.fixups, fixup{in: a.insts[len(a.insts)-1], labels: []string{label}})
	return a
}

// Switch emits a branch table.
func (a *Assembler) Switch(labels ...string) *Assembler {
	a.Op(cil.Switch, make([]int, len(labels)))
	a.fixups = append(a.fixups, fixup{in: a.insts[len(a.insts)-1], labels: labels})
	return a
}

// Catch declares a typed handler for the try range [tryStart, tryEnd).
func (a *Assembler) Catch(tryStart, tryEnd, handlerStart, handlerEnd string, t *metadata.Type) *Assembler {
	a.regions = append(a.regions, region{cil.RegionCatch, tryStart, tryEnd, handlerStart, handlerEnd, "", t})
	return a
}

// Filter declares a filtered handler whose filter code starts at filter.
func (a *Assembler) Filter(tryStart, tryEnd, filter, handlerStart, handlerEnd string) *Assembler {
	a.regions = append(a.regions, region{cil.RegionFilter, tryStart, tryEnd, handlerStart, handlerEnd, filter, nil})
	return a
}

func (a *Assembler) Finally(tryStart, tryEnd, handlerStart, handlerEnd string) *Assembler {
	a.regions = append(a.regions, region{cil.RegionFinally, tryStart, tryEnd, handlerStart, handlerEnd, "", nil})
	return a
}

func (a *Assembler) Fault(tryStart, tryEnd, handlerStart, handlerEnd string) *Assembler {
	a.regions = append(a.regions, region{cil.RegionFault, tryStart, tryEnd, handlerStart, handlerEnd, "", nil})
	return a
}

// Scope declares a lexical scope hint.
func (a *Assembler) Scope(start, end string, locals ...*metadata.Local) *Assembler {
	a.scopes = append(a.scopes, scope{start, end, locals})
	return a
}

func (a *Assembler) resolve(name string) int {
	off, ok := a.labels[name]
	if !ok && a.err == nil {
		a.err = errors.Errorf("undefined label %q", name)
	}
	return off
}

// Body resolves labels and returns the assembled method body.
func (a *Assembler) Body() (*cil.MethodBody, error) {
	for _, f := range a.fixups {
		if f.in.Op == cil.Switch {
			targets := f.in.Operand.([]int)
			for i, l := range f.labels {
				targets[i] = a.resolve(l)
			}
			continue
		}
		f.in.Operand = a.resolve(f.labels[0])
	}
	body := &cil.MethodBody{Method: a.method, Locals: a.locals, Instructions: a.insts}
	for _, r := range a.regions {
		er := &cil.ExceptionRegion{
			Kind:         r.kind,
			TryStart:     a.resolve(r.tryStart),
			TryEnd:       a.resolve(r.tryEnd),
			HandlerStart: a.resolve(r.handlerStart),
			HandlerEnd:   a.resolve(r.handlerEnd),
			CatchType:    r.catchType,
		}
		if r.kind == cil.RegionFilter {
			er.FilterStart = a.resolve(r.flt)
		}
		body.Regions = append(body.Regions, er)
	}
	for _, s := range a.scopes {
		body.Scopes = append(body.Scopes, &cil.LocalScope{Start: a.resolve(s.start), End: a.resolve(s.end), Locals: s.locals})
	}
	if a.err != nil {
		return nil, a.err
	}
	return body, body.Validate()
}

// MustBody is Body for tests: it panics on error.
func (a *Assembler) MustBody() *cil.MethodBody {
	body, err := a.Body()
	if err != nil {
		panic(err)
	}
	return body
}
