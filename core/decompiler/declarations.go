package decompiler

import (
	"golang.org/x/exp/slices"

	"github.com/bnb-chain/ildecompiler/core/ast"
	"github.com/bnb-chain/ildecompiler/core/metadata"
)

// scopeTree records, for every block of a statement tree, the block
// enclosing it and whether it is a loop body.
type scopeTree struct {
	parent map[*ast.Block]*ast.Block
	depth  map[*ast.Block]int
	loop   map[*ast.Block]bool
}

func newScopeTree(root *ast.Block) *scopeTree {
	t := &scopeTree{
		parent: make(map[*ast.Block]*ast.Block),
		depth:  make(map[*ast.Block]int),
		loop:   make(map[*ast.Block]bool),
	}
	var visit func(b *ast.Block, d int)
	visit = func(b *ast.Block, d int) {
		t.depth[b] = d
		for _, s := range b.Stmts {
			switch x := s.(type) {
			case *ast.While:
				t.loop[x.Body] = true
			case *ast.DoWhile:
				t.loop[x.Body] = true
			case *ast.For:
				t.loop[x.Body] = true
			}
			children := ast.ChildBlocks(s)
			if nb, ok := s.(*ast.Block); ok {
				children = []*ast.Block{nb}
			}
			for _, child := range children {
				t.parent[child] = b
				visit(child, d+1)
			}
		}
	}
	visit(root, 0)
	return t
}

// common returns the innermost block enclosing both a and b.
func (t *scopeTree) common(a, b *ast.Block) *ast.Block {
	for t.depth[a] > t.depth[b] {
		a = t.parent[a]
	}
	for t.depth[b] > t.depth[a] {
		b = t.parent[b]
	}
	for a != b {
		a, b = t.parent[a], t.parent[b]
	}
	return a
}

// encloses reports whether outer is inner or one of its ancestors.
func (t *scopeTree) encloses(outer, inner *ast.Block) bool {
	for b := inner; b != nil; b = t.parent[b] {
		if b == outer {
			return true
		}
	}
	return false
}

// varUses is where a variable occurs: the blocks whose statements mention it,
// in order of first appearance.
type varUses struct {
	v      metadata.Definition
	blocks []*ast.Block
}

// insertDeclarations declares every local and temp the tree uses. A variable
// is declared in its scope block when all of its uses are inside it, and in
// the innermost block enclosing every use otherwise. The first plain store
// to a variable not yet read in that block becomes its declaration with an
// initializer; the others get a bare declaration at the top of the block, in
// order of first use.
func (c *context) insertDeclarations(root *ast.Block) {
	nameTemps(root)
	tree := newScopeTree(root)
	scope := make(map[*metadata.Local]*ast.Block)
	for b := range tree.depth {
		for _, l := range b.Locals {
			scope[l] = b
		}
	}
	catchVars := make(map[metadata.Definition]bool)
	var order []*varUses
	index := make(map[metadata.Definition]*varUses)

	var visit func(b *ast.Block)
	visit = func(b *ast.Block) {
		for _, s := range b.Stmts {
			if x, ok := s.(*ast.Try); ok {
				for _, cc := range x.Catches {
					if cc.Var != nil {
						catchVars[cc.Var] = true
					}
				}
			}
			// Only the expressions owned by s count as uses in b; nested
			// blocks record their own.
			note := func(n ast.Node) bool {
				if _, ok := n.(*ast.Block); ok {
					return false
				}
				bd, ok := n.(*ast.Bound)
				if !ok {
					return true
				}
				switch bd.Def.(type) {
				case *ast.Temp, *metadata.Local:
				default:
					return true
				}
				u, ok := index[bd.Def]
				if !ok {
					u = &varUses{v: bd.Def}
					index[bd.Def] = u
					order = append(order, u)
				}
				if !slices.Contains(u.blocks, b) {
					u.blocks = append(u.blocks, b)
				}
				return true
			}
			switch x := s.(type) {
			case *ast.For:
				for _, part := range []ast.Node{x.Init, x.Cond, x.Incr} {
					if part != nil {
						ast.Inspect(part, note)
					}
				}
			case *ast.Try:
				for _, cc := range x.Catches {
					if cc.Filter != nil {
						ast.Inspect(cc.Filter, note)
					}
				}
			case *ast.Block:
			default:
				for _, p := range ast.ExprSlots(s) {
					ast.Inspect(*p, note)
				}
			}
			children := ast.ChildBlocks(s)
			if nb, ok := s.(*ast.Block); ok {
				children = []*ast.Block{nb}
			}
			for _, child := range children {
				visit(child)
			}
		}
	}
	visit(root)

	bare := make(map[*ast.Block][]*ast.LocalDecl)
	firstUse := make(map[*ast.LocalDecl]int)
	for _, u := range order {
		if catchVars[u.v] {
			continue
		}
		home := u.blocks[0]
		for _, b := range u.blocks[1:] {
			home = tree.common(home, b)
		}
		if l, ok := u.v.(*metadata.Local); ok {
			if sb, ok := scope[l]; ok && tree.encloses(sb, home) {
				home = sb
			}
		}
		if decl, at := declareIn(home, u.v); decl != nil {
			if !tree.loop[home] {
				bare[home] = append(bare[home], decl)
				firstUse[decl] = at
				continue
			}
			// A bare declaration inside a loop body would reset the variable
			// on every iteration.
			for tree.loop[home] {
				home = tree.parent[home]
			}
			bare[home] = append(bare[home], decl)
			firstUse[decl] = firstMention(home, u.v)
		}
	}
	for b, decls := range bare {
		slices.SortStableFunc(decls, func(x, y *ast.LocalDecl) int {
			return firstUse[x] - firstUse[y]
		})
		stmts := make([]ast.Stmt, 0, len(decls)+len(b.Stmts))
		for _, d := range decls {
			stmts = append(stmts, d)
		}
		b.Stmts = append(stmts, b.Stmts...)
	}
	c.debug("Inserted declarations", "vars", len(order))
}

// declareIn turns the first store to v among the statements of b into its
// declaration. When that is not possible it returns a bare declaration for
// the caller to place, with the index of the first statement mentioning v.
func declareIn(b *ast.Block, v metadata.Definition) (*ast.LocalDecl, int) {
	at := firstMention(b, v)
	if at < 0 {
		return &ast.LocalDecl{Var: v}, 0
	}
	s := b.Stmts[at]
	if storedVar(s) == v {
		src := s.(*ast.ExprStmt).X.(*ast.Assignment).Source
		if !ast.References(src, v) {
			b.Stmts[at] = &ast.LocalDecl{Pos: *s.Position(), Var: v, Init: src}
			return nil, at
		}
	}
	if f, ok := s.(*ast.For); ok && storedVar(f.Init) == v && onlyMention(b, v, at) {
		src := f.Init.(*ast.ExprStmt).X.(*ast.Assignment).Source
		if !ast.References(src, v) {
			f.Init = &ast.LocalDecl{Pos: *f.Init.Position(), Var: v, Init: src}
			return nil, at
		}
	}
	return &ast.LocalDecl{Pos: ast.Pos{Offset: s.Position().Offset}, Var: v}, at
}

func firstMention(b *ast.Block, v metadata.Definition) int {
	for i, s := range b.Stmts {
		if ast.References(s, v) {
			return i
		}
	}
	return -1
}

// onlyMention reports whether statement i is the only one of b using v.
func onlyMention(b *ast.Block, v metadata.Definition, i int) bool {
	for j, s := range b.Stmts {
		if j != i && ast.References(s, v) {
			return false
		}
	}
	return true
}

// nameTemps names each temp whose value is copied into exactly one named
// local after that local.
func nameTemps(root *ast.Block) {
	into := make(map[*ast.Temp]*metadata.Local)
	ambiguous := make(map[*ast.Temp]bool)
	ast.Inspect(root, func(n ast.Node) bool {
		es, ok := n.(*ast.ExprStmt)
		if !ok {
			return true
		}
		l, ok := storedVar(es).(*metadata.Local)
		if !ok || l.Unnamed() {
			return true
		}
		bd, ok := es.X.(*ast.Assignment).Source.(*ast.Bound)
		if !ok || bd.Instance != nil {
			return true
		}
		t, ok := bd.Def.(*ast.Temp)
		if !ok {
			return true
		}
		if prev, seen := into[t]; seen && prev != l {
			ambiguous[t] = true
		}
		into[t] = l
		return true
	})
	for t, l := range into {
		if !ambiguous[t] {
			t.Hint = l.Name
		}
	}
}
