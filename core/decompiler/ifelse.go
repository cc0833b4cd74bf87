package decompiler

import (
	"github.com/bnb-chain/ildecompiler/core/ast"
)

// structureIfs folds conditional branches over forward code into if and
// if/else statements until no more match.
func (c *context) structureIfs(root *ast.Block) bool {
	changed := false
	for {
		round := false
		forEachBlock(root, func(b *ast.Block) {
			for i := 0; i < len(b.Stmts); i++ {
				for i < len(b.Stmts) && c.ifAt(b, i) {
					round = true
				}
			}
		})
		if !round {
			return changed
		}
		changed = true
	}
}

// ifAt recognizes
//
//	if (c) goto L1; then...; L1: ...
//
// at index i of b and rewrites it to if (!c) { then... } L1: ..., taking an
// else branch when the then part ends by jumping over the code at L1 or
// when neither path falls through.
func (c *context) ifAt(b *ast.Block, i int) bool {
	cond, g, ok := ast.CondGoto(b.Stmts[i])
	if !ok {
		return false
	}
	parent, target := findForward(b, g.Target)
	if target == nil {
		return false
	}
	if parent == b && i == len(b.Stmts)-2 {
		// Nothing between the branch and its target.
		c.dropGoto(g)
		if sideEffectFree(cond) {
			b.Stmts = splice(b.Stmts, i, i+1)
		} else {
			b.Stmts[i] = &ast.ExprStmt{Pos: *b.Stmts[i].Position(), X: effects(cond)}
		}
		ifCounter.Inc(1)
		return true
	}

	detachTail(parent)
	thenStmts := b.Stmts[i+1:]
	_, lone := thenStmts[0].(*ast.Goto)
	if (len(thenStmts) == 1 && lone) || hasRegion(thenStmts) || !c.closed(thenStmts) {
		parent.Append(target)
		return false
	}
	c.dropGoto(g)

	pos := *b.Stmts[i].Position()
	then := &ast.Block{Pos: pos, Stmts: append([]ast.Stmt(nil), thenStmts...), Start: pos.Offset, End: target.Start}
	x := &ast.If{Pos: pos, Cond: ast.Not(cond), Then: then, Else: ast.NewBlock(target.Start)}
	rest := []ast.Stmt{target}

	if c.preds.Count(g.Target) == 0 && target.Region == nil && target.TryCount == 0 {
		_, last := lastStmt(then.Stmts)
		if jump, ok := last.(*ast.Goto); ok && jump.Target != g.Target {
			// Case 1: then ends with goto L2 and L2 follows the else part.
			if p2, join := findForward(target, jump.Target); join != nil {
				detachTail(p2)
				if !hasRegion(target.Stmts) && c.closed(target.Stmts) {
					c.dropGoto(jump)
					d, _ := lastStmt(then.Stmts)
					if d == nil {
						then.Stmts = then.Stmts[:len(then.Stmts)-1]
					} else {
						d.Stmts = d.Stmts[:len(d.Stmts)-1]
					}
					x.Else = target
					rest = []ast.Stmt{join}
				} else {
					p2.Append(join)
				}
			}
		}
		if x.Else != target && last != nil && ast.IsExit(last) && !c.liveLabels(target) && !hasRegion(target.Stmts) {
			// Case 2: neither branch falls through.
			if _, end := lastStmt(target.Stmts); end != nil && ast.IsExit(end) {
				x.Else = target
				rest = nil
			}
		}
	}

	b.Stmts = append(append(b.Stmts[:i:i], x), rest...)
	c.structureIfs(then)
	if x.Else == target {
		c.structureIfs(target)
	}
	ifCounter.Inc(1)
	return true
}
