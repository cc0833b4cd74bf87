// Package ast defines the statement and expression trees produced by the
// decompiler, the label and temporary identities they refer to, and the
// predecessor map the structuring passes maintain.
//
// Both Expr and Stmt are closed sum types: every implementation lives in this
// package and passes switch over them exhaustively.
package ast

import (
	"github.com/bnb-chain/ildecompiler/core/cil"
	"github.com/bnb-chain/ildecompiler/core/metadata"
)

// Node is an Expr or a Stmt.
type Node interface {
	node()
}

// Expr is an expression node. Every expression carries a result type which
// may be metadata.TypeUnknown until type inference has run.
type Expr interface {
	Node
	Type() *metadata.Type
	SetType(*metadata.Type)
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	Position() *Pos
	stmtNode()
}

// TypeInfo is embedded by every expression.
type TypeInfo struct {
	T *metadata.Type
}

func (t *TypeInfo) Type() *metadata.Type {
	if t.T == nil {
		return metadata.TypeUnknown
	}
	return t.T
}

func (t *TypeInfo) SetType(ty *metadata.Type) { t.T = ty }

// Pos is embedded by every statement: the offset of the first instruction the
// statement came from and the source locations gathered from all of them.
type Pos struct {
	Offset int
	Locs   []*cil.Location
}

func (p *Pos) Position() *Pos { return p }

// HasLocation reports whether the statement maps to source.
func (p *Pos) HasLocation() bool { return len(p.Locs) > 0 }

// AddLocs appends the locations of other, keeping order and skipping
// duplicates.
func (p *Pos) AddLocs(other *Pos) {
	if other == nil {
		return
	}
	for _, l := range other.Locs {
		dup := false
		for _, have := range p.Locs {
			if have == l {
				dup = true
				break
			}
		}
		if !dup {
			p.Locs = append(p.Locs, l)
		}
	}
}

// At returns a Pos for offset carrying loc when it is not nil.
func At(offset int, loc *cil.Location) Pos {
	if loc == nil {
		return Pos{Offset: offset}
	}
	return Pos{Offset: offset, Locs: []*cil.Location{loc}}
}
