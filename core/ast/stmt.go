package ast

import (
	"github.com/bnb-chain/ildecompiler/core/cil"
	"github.com/bnb-chain/ildecompiler/core/metadata"
)

// NoEnd marks a block without an end offset.
const NoEnd = -1

// Block is a statement container. After block graph construction each basic
// block is nested as the last statement of the block that precedes it; a
// block that is a branch target starts with a Labeled statement.
type Block struct {
	Pos
	Stmts []Stmt
	Start int
	End   int

	// Region is set on blocks starting a handler or filter of the region.
	// HandlerEntry marks the one receiving the exception object.
	Region       *cil.ExceptionRegion
	HandlerEntry bool

	// TryCount is the number of try regions starting at this block.
	TryCount int

	// Locals scoped to this block.
	Locals []*metadata.Local
}

// NewBlock returns an empty block starting at offset.
func NewBlock(start int) *Block {
	return &Block{Pos: Pos{Offset: start}, Start: start, End: NoEnd}
}

// Append adds statements to the end of b.
func (b *Block) Append(s ...Stmt) { b.Stmts = append(b.Stmts, s...) }

// Label returns the label b starts with, if any.
func (b *Block) Label() *Label {
	if len(b.Stmts) == 0 {
		return nil
	}
	if l, ok := b.Stmts[0].(*Labeled); ok {
		return l.Label
	}
	return nil
}

// Last returns the final statement of b or nil.
func (b *Block) Last() Stmt {
	if len(b.Stmts) == 0 {
		return nil
	}
	return b.Stmts[len(b.Stmts)-1]
}

// ExprStmt evaluates X for its side effects.
type ExprStmt struct {
	Pos
	X Expr
}

// Push leaves X on the operand stack for a later PopValue.
type Push struct {
	Pos
	X Expr
}

// Labeled marks a branch target.
type Labeled struct {
	Pos
	Label *Label
}

type Goto struct {
	Pos
	Target *Label
}

// If runs Then when Cond holds and Else otherwise. Either branch may be an
// empty block, never nil.
type If struct {
	Pos
	Cond Expr
	Then *Block
	Else *Block
}

// SwitchTable is the unstructured multi-way branch: control goes to
// Targets[Value] or falls through when Value is out of range.
type SwitchTable struct {
	Pos
	Value   Expr
	Targets []*Goto
}

type Switch struct {
	Pos
	Value Expr
	Cases []*Case
}

// Case is one arm of a Switch. An empty body falls through to the next case.
type Case struct {
	Default bool
	Value   int64
	Body    *Block
}

type Try struct {
	Pos
	Body    *Block
	Catches []*Catch
	Finally *Block
	Fault   *Block
}

// Catch is a typed or filtered handler. Var, when set, receives the
// exception object. A filtered handler evaluates FilterBody then Filter.
type Catch struct {
	Type       *metadata.Type
	Var        metadata.Definition
	Filter     Expr
	FilterBody *Block
	Body       *Block
}

type LocalDecl struct {
	Pos
	Var  metadata.Definition
	Init Expr
}

type Return struct {
	Pos
	Value Expr
}

type Throw struct {
	Pos
	Value Expr
}

type Rethrow struct {
	Pos
}

type EndFilter struct {
	Pos
	Value Expr
}

type EndFinally struct {
	Pos
}

type Empty struct {
	Pos
}

type DebuggerBreak struct {
	Pos
}

type While struct {
	Pos
	Cond Expr
	Body *Block
}

type DoWhile struct {
	Pos
	Body *Block
	Cond Expr
}

type For struct {
	Pos
	Init Stmt
	Cond Expr
	Incr Stmt
	Body *Block
}

func (*Block) node()         {}
func (*ExprStmt) node()      {}
func (*Push) node()          {}
func (*Labeled) node()       {}
func (*Goto) node()          {}
func (*If) node()            {}
func (*SwitchTable) node()   {}
func (*Switch) node()        {}
func (*Try) node()           {}
func (*LocalDecl) node()     {}
func (*Return) node()        {}
func (*Throw) node()         {}
func (*Rethrow) node()       {}
func (*EndFilter) node()     {}
func (*EndFinally) node()    {}
func (*Empty) node()         {}
func (*DebuggerBreak) node() {}
func (*While) node()         {}
func (*DoWhile) node()       {}
func (*For) node()           {}

func (*Block) stmtNode()         {}
func (*ExprStmt) stmtNode()      {}
func (*Push) stmtNode()          {}
func (*Labeled) stmtNode()       {}
func (*Goto) stmtNode()          {}
func (*If) stmtNode()            {}
func (*SwitchTable) stmtNode()   {}
func (*Switch) stmtNode()        {}
func (*Try) stmtNode()           {}
func (*LocalDecl) stmtNode()     {}
func (*Return) stmtNode()        {}
func (*Throw) stmtNode()         {}
func (*Rethrow) stmtNode()       {}
func (*EndFilter) stmtNode()     {}
func (*EndFinally) stmtNode()    {}
func (*Empty) stmtNode()         {}
func (*DebuggerBreak) stmtNode() {}
func (*While) stmtNode()         {}
func (*DoWhile) stmtNode()       {}
func (*For) stmtNode()           {}

// CondGoto reports whether s is a conditional branch, returning the condition
// under which the branch is taken and the goto. Both encodings are accepted:
// if (c) goto L and if (c) {} else goto L.
func CondGoto(s Stmt) (Expr, *Goto, bool) {
	x, ok := s.(*If)
	if !ok {
		return nil, nil, false
	}
	if g, ok := onlyGoto(x.Then); ok && len(x.Else.Stmts) == 0 {
		return x.Cond, g, true
	}
	if g, ok := onlyGoto(x.Else); ok && len(x.Then.Stmts) == 0 {
		return Not(x.Cond), g, true
	}
	return nil, nil, false
}

func onlyGoto(b *Block) (*Goto, bool) {
	if b == nil || len(b.Stmts) != 1 {
		return nil, false
	}
	g, ok := b.Stmts[0].(*Goto)
	return g, ok
}

// NewCondGoto builds if (cond) goto g.
func NewCondGoto(pos Pos, cond Expr, g *Goto) *If {
	then := NewBlock(pos.Offset)
	then.Append(g)
	return &If{Pos: pos, Cond: cond, Then: then, Else: NewBlock(pos.Offset)}
}

// IsExit reports whether control never continues past s.
func IsExit(s Stmt) bool {
	switch s.(type) {
	case *Return, *Throw, *Rethrow, *Goto, *EndFinally, *EndFilter:
		return true
	}
	return false
}
