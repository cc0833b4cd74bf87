package decompiler

import (
	"github.com/bnb-chain/ildecompiler/core/ast"
	"github.com/bnb-chain/ildecompiler/core/metadata"
)

// flatten inlines every block nested directly in a statement list into that
// list. Locals scoped to an inlined block move to the enclosing one.
func flatten(b *ast.Block) {
	out := make([]ast.Stmt, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		if nb, ok := s.(*ast.Block); ok {
			flatten(nb)
			b.Locals = append(b.Locals, nb.Locals...)
			if nb.End > b.End {
				b.End = nb.End
			}
			out = append(out, nb.Stmts...)
			continue
		}
		for _, child := range ast.ChildBlocks(s) {
			flatten(child)
		}
		out = append(out, s)
	}
	b.Stmts = out
}

// useCount is the number of reads and plain stores of a variable.
type useCount struct {
	refs, assigns int
}

// countUses counts the reads and stores of every local and temp in root. A
// store is an assignment statement or declaration of the variable; every
// other occurrence is a read. Temps get their Refs and Assigns updated.
func (c *context) countUses(root *ast.Block) map[metadata.Definition]*useCount {
	uses := make(map[metadata.Definition]*useCount)
	get := func(d metadata.Definition) *useCount {
		u, ok := uses[d]
		if !ok {
			u = new(useCount)
			uses[d] = u
		}
		return u
	}
	var visit func(n ast.Node) bool
	visit = func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.ExprStmt:
			if v := storedVar(x); v != nil {
				get(v).assigns++
				a := x.X.(*ast.Assignment)
				ast.Inspect(a.Source, visit)
				return false
			}
		case *ast.LocalDecl:
			if x.Init != nil {
				get(x.Var).assigns++
			}
		case *ast.Bound:
			switch x.Def.(type) {
			case *ast.Temp, *metadata.Local:
				get(x.Def).refs++
			}
		}
		return true
	}
	ast.Inspect(root, visit)
	for _, t := range c.temps {
		t.Refs, t.Assigns = 0, 0
		if u, ok := uses[t]; ok {
			t.Refs, t.Assigns = u.refs, u.assigns
		}
	}
	return uses
}

// storedVar returns the local or temp s assigns when s is a plain store.
func storedVar(s ast.Stmt) metadata.Definition {
	es, ok := s.(*ast.ExprStmt)
	if !ok {
		return nil
	}
	a, ok := es.X.(*ast.Assignment)
	if !ok {
		return nil
	}
	bd, ok := a.Target.(*ast.Bound)
	if !ok || bd.Instance != nil {
		return nil
	}
	switch bd.Def.(type) {
	case *ast.Temp, *metadata.Local:
		return bd.Def
	}
	return nil
}

// sideEffectFree reports whether e and its operands can be dropped.
func sideEffectFree(e ast.Expr) bool {
	ok := true
	ast.Inspect(e, func(n ast.Node) bool {
		if x, isExpr := n.(ast.Expr); isExpr && !pureNode(x) {
			ok = false
		}
		return ok
	})
	return ok
}

// effects strips the negations and comparisons with side effect free
// operands around e, which leave nothing to evaluate once the result is
// discarded: Get() != 0 is reduced to Get().
func effects(e ast.Expr) ast.Expr {
	switch x := e.(type) {
	case *ast.Unary:
		if x.Op == ast.LogicalNot {
			return effects(x.Operand)
		}
	case *ast.Binary:
		if !x.Op.IsComparison() {
			break
		}
		if sideEffectFree(x.Right) {
			return effects(x.Left)
		}
		if sideEffectFree(x.Left) {
			return effects(x.Right)
		}
	}
	return e
}

// cleanup removes dead labels, redundant gotos, empty statements and
// unused temps until the tree stops changing.
func (c *context) cleanup(root *ast.Block) bool {
	changed := false
	for {
		uses := c.countUses(root)
		round := false
		forEachBlock(root, func(b *ast.Block) {
			if c.cleanBlock(b, uses) {
				round = true
			}
		})
		if c.dropCatchVars(root) {
			round = true
		}
		if !round {
			return changed
		}
		changed = true
	}
}

// cleanBlock applies the statement level cleanups to b. Use counts go stale
// as soon as one statement is removed, so at most one rewrite based on them
// is made per call.
func (c *context) cleanBlock(b *ast.Block, uses map[metadata.Definition]*useCount) bool {
	changed := false
	counted := false
	for i := 0; i < len(b.Stmts); i++ {
		s := b.Stmts[i]
		if i > 0 && ast.IsExit(b.Stmts[i-1]) && c.dropUnreachable(s) {
			b.Stmts = splice(b.Stmts, i, i+1)
			i--
			changed = true
			continue
		}
		switch x := s.(type) {
		case *ast.Labeled:
			if c.preds.Count(x.Label) == 0 {
				b.Stmts = splice(b.Stmts, i, i+1)
				i--
				changed = true
				continue
			}
			if i > 0 && c.stripTrailing(b.Stmts[i-1], x.Label) {
				changed = true
			}
		case *ast.Empty:
			if !x.HasLocation() {
				b.Stmts = splice(b.Stmts, i, i+1)
				i--
				changed = true
				continue
			}
		case *ast.Goto:
			if i+1 < len(b.Stmts) {
				if l, ok := b.Stmts[i+1].(*ast.Labeled); ok && l.Label == x.Target {
					c.dropGoto(x)
					b.Stmts = splice(b.Stmts, i, i+1)
					i--
					changed = true
					continue
				}
			}
		case *ast.ExprStmt:
			if sideEffectFree(x.X) {
				b.Stmts = splice(b.Stmts, i, i+1)
				i--
				changed = true
				continue
			}
		case *ast.Switch:
			if c.inlineCases(b, i) {
				changed = true
			}
		case *ast.If:
			if r, ok := normalizeIf(x); ok {
				b.Stmts = splice(b.Stmts, i, i+1, r...)
				i--
				changed = true
				continue
			}
		}
		if counted {
			continue
		}
		if c.deadStore(b, i, uses) || c.substitute(b, i, uses) || c.mergeReturn(b, i, uses) {
			counted = true
			changed = true
			i--
		}
	}
	return changed
}

// dropUnreachable unregisters the gotos of s, a statement following an exit,
// and reports whether s can be removed. Statements that define a label or
// declare a variable stay.
func (c *context) dropUnreachable(s ast.Stmt) bool {
	switch s.(type) {
	case *ast.Labeled, *ast.LocalDecl, *ast.Block:
		return false
	}
	labeled := false
	ast.Inspect(s, func(n ast.Node) bool {
		if _, ok := n.(*ast.Labeled); ok {
			labeled = true
		}
		return !labeled
	})
	if labeled {
		return false
	}
	c.dropGotos(s)
	return true
}

// normalizeIf drops branches that do nothing and turns if (c) {} else {...}
// into if (!c) {...}.
func normalizeIf(x *ast.If) ([]ast.Stmt, bool) {
	then, els := len(x.Then.Stmts) == 0, len(x.Else.Stmts) == 0
	switch {
	case then && els:
		if sideEffectFree(x.Cond) {
			return nil, true
		}
		return []ast.Stmt{&ast.ExprStmt{Pos: x.Pos, X: effects(x.Cond)}}, true
	case then:
		x.Cond = ast.Not(x.Cond)
		x.Then, x.Else = x.Else, x.Then
		return []ast.Stmt{x}, true
	}
	return nil, false
}

// stripTrailing removes goto l from the end of the branches of s when l is
// the statement right after s: falling off the branch already gets there.
func (c *context) stripTrailing(s ast.Stmt, l *ast.Label) bool {
	var bodies []*ast.Block
	switch x := s.(type) {
	case *ast.If:
		bodies = []*ast.Block{x.Then, x.Else}
	case *ast.Try:
		bodies = []*ast.Block{x.Body}
		for _, cc := range x.Catches {
			bodies = append(bodies, cc.Body)
		}
	default:
		return false
	}
	stripped := false
	for _, body := range bodies {
		switch last := body.Last().(type) {
		case *ast.Goto:
			if last.Target == l {
				c.dropGoto(last)
				body.Stmts = body.Stmts[:len(body.Stmts)-1]
				stripped = true
			}
		case *ast.If, *ast.Try:
			if c.stripTrailing(last, l) {
				stripped = true
			}
		}
	}
	return stripped
}

// deadStore drops a store to a temp that is never read, keeping the value
// as a statement when computing it has effects.
func (c *context) deadStore(b *ast.Block, i int, uses map[metadata.Definition]*useCount) bool {
	t, ok := storedVar(b.Stmts[i]).(*ast.Temp)
	if !ok || uses[t].refs > 0 {
		return false
	}
	es := b.Stmts[i].(*ast.ExprStmt)
	src := es.X.(*ast.Assignment).Source
	if sideEffectFree(src) {
		b.Stmts = splice(b.Stmts, i, i+1)
	} else {
		b.Stmts[i] = &ast.ExprStmt{Pos: es.Pos, X: src}
	}
	return true
}

// substitute replaces the only read of a temp assigned once by its value
// when that read is in the next statement and nothing with side effects is
// evaluated before it there. Loop conditions are evaluated repeatedly and
// never receive a value.
func (c *context) substitute(b *ast.Block, i int, uses map[metadata.Definition]*useCount) bool {
	t, ok := storedVar(b.Stmts[i]).(*ast.Temp)
	if !ok || i+1 >= len(b.Stmts) {
		return false
	}
	if u := uses[t]; u.refs != 1 || u.assigns != 1 {
		return false
	}
	next := b.Stmts[i+1]
	switch next.(type) {
	case *ast.While, *ast.DoWhile, *ast.For:
		return false
	}
	slot := readSlot(next, t)
	if slot == nil {
		return false
	}
	src := b.Stmts[i].(*ast.ExprStmt).X.(*ast.Assignment).Source
	*slot = src
	mergePos(next.Position(), b.Stmts[i])
	b.Stmts = splice(b.Stmts, i, i+1)
	return true
}

// readSlot finds the read of t among the expressions of s, provided every
// operation evaluated before it is free of side effects.
func readSlot(s ast.Stmt, t *ast.Temp) *ast.Expr {
	var (
		found *ast.Expr
		clean = true
	)
	var walk func(p *ast.Expr)
	walk = func(p *ast.Expr) {
		if found != nil || !clean {
			return
		}
		e := *p
		if a, ok := e.(*ast.Assignment); ok {
			for _, cp := range ast.ChildSlots(a.Target) {
				walk(cp)
			}
			walk(&a.Source)
			clean = false
			return
		}
		for _, cp := range ast.ChildSlots(e) {
			walk(cp)
		}
		if found != nil || !clean {
			return
		}
		if bd, ok := e.(*ast.Bound); ok && bd.Instance == nil && bd.Def == metadata.Definition(t) {
			found = p
			return
		}
		if !pureNode(e) {
			clean = false
		}
	}
	for _, p := range ast.ExprSlots(s) {
		walk(p)
	}
	return found
}

// mergeReturn turns
//
//	v = x; return v;
//
// into return x when v is a compiler generated local used nowhere else.
func (c *context) mergeReturn(b *ast.Block, i int, uses map[metadata.Definition]*useCount) bool {
	l, ok := storedVar(b.Stmts[i]).(*metadata.Local)
	if !ok || !l.Unnamed() || i+1 >= len(b.Stmts) {
		return false
	}
	if u := uses[l]; u.refs != 1 || u.assigns != 1 {
		return false
	}
	ret, ok := b.Stmts[i+1].(*ast.Return)
	if !ok {
		return false
	}
	bd, ok := ret.Value.(*ast.Bound)
	if !ok || bd.Def != metadata.Definition(l) {
		return false
	}
	ret.Value = b.Stmts[i].(*ast.ExprStmt).X.(*ast.Assignment).Source
	mergePos(&ret.Pos, b.Stmts[i])
	b.Stmts = splice(b.Stmts, i, i+1)
	return true
}

// dropCatchVars removes catch variables no statement reads.
func (c *context) dropCatchVars(root *ast.Block) bool {
	changed := false
	ast.Inspect(root, func(n ast.Node) bool {
		x, ok := n.(*ast.Try)
		if !ok {
			return true
		}
		for _, cc := range x.Catches {
			t, ok := cc.Var.(*ast.Temp)
			if !ok {
				continue
			}
			used := (cc.Filter != nil && ast.References(cc.Filter, t)) ||
				(cc.FilterBody != nil && ast.References(cc.FilterBody, t)) ||
				ast.References(cc.Body, t)
			if !used {
				cc.Var = nil
				changed = true
			}
		}
		return true
	})
	return changed
}
