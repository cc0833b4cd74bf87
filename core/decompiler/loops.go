package decompiler

import (
	"github.com/bnb-chain/ildecompiler/core/ast"
	"github.com/bnb-chain/ildecompiler/core/metadata"
)

// structureLoops turns backward branches into while and do-while loops and,
// when enabled, promotes counted while loops to for loops.
func (c *context) structureLoops(root *ast.Block) bool {
	changed := false
	for {
		round := false
		forEachBlock(root, func(b *ast.Block) {
			if c.pretestLoop(b) || c.guardedLoop(b) || c.backLoop(b) {
				round = true
			}
		})
		if !round {
			break
		}
		changed = true
	}
	if c.cfg.EnableForLoops && c.promoteFors(root) {
		changed = true
	}
	return changed
}

// header returns the label b starts with when it is the target of exactly
// one goto. Loops reached by a second back edge keep their gotos.
func (c *context) header(b *ast.Block) *ast.Label {
	l := b.Label()
	if l == nil || c.preds.Count(l) != 1 || c.pinnedLoop(b) {
		return nil
	}
	return l
}

func (c *context) pinnedLoop(b *ast.Block) bool {
	return b.Region != nil || b.TryCount > 0 || b.HandlerEntry
}

// pretestLoop recognizes the layout compilers use for while loops:
//
//	goto Lc; Lh: body; Lc: if (c) goto Lh; rest
//
// where b ends with the goto and the block labeled Lh.
func (c *context) pretestLoop(b *ast.Block) bool {
	n := len(b.Stmts)
	if n < 2 {
		return false
	}
	entry, ok := b.Stmts[n-2].(*ast.Goto)
	if !ok {
		return false
	}
	head, ok := b.Stmts[n-1].(*ast.Block)
	if !ok {
		return false
	}
	lh := c.header(head)
	if lh == nil || c.preds.Count(entry.Target) != 1 {
		return false
	}
	parent, test := findForward(head, entry.Target)
	if test == nil || len(test.Stmts) < 2 || c.pinnedLoop(test) {
		return false
	}
	cond, back, ok := ast.CondGoto(test.Stmts[1])
	if !ok || back.Target != lh {
		return false
	}
	detachTail(parent)
	if hasRegion(head.Stmts[1:]) || !c.closed(head.Stmts[1:]) {
		parent.Append(test)
		return false
	}
	c.dropGoto(entry)
	c.dropGoto(back)

	head.Stmts = head.Stmts[1:]
	w := &ast.While{Pos: entry.Pos, Cond: cond, Body: head}
	mergePos(&w.Pos, test.Stmts[1])
	b.Stmts = append(b.Stmts[:n-2:n-2], w)
	if rest := test.Stmts[2:]; len(rest) > 0 {
		b.Stmts = append(b.Stmts, rest...)
	}
	loopCounter.Inc(1)
	c.debug("Structured while loop", "header", lh)
	return true
}

// guardedLoop recognizes a loop whose exit test was already structured as
// an if:
//
//	Lh: if (c) { body; goto Lh } else { ... }
func (c *context) guardedLoop(b *ast.Block) bool {
	lh := c.header(b)
	if lh == nil || len(b.Stmts) < 2 {
		return false
	}
	x, ok := b.Stmts[1].(*ast.If)
	if !ok || len(x.Then.Stmts) == 0 {
		return false
	}
	d, last := lastStmt(x.Then.Stmts)
	back, ok := last.(*ast.Goto)
	if !ok || back.Target != lh {
		return false
	}
	if hasRegion(x.Then.Stmts) || !c.closed(x.Then.Stmts) {
		return false
	}
	c.dropGoto(back)
	if d == nil {
		x.Then.Stmts = x.Then.Stmts[:len(x.Then.Stmts)-1]
	} else {
		d.Stmts = d.Stmts[:len(d.Stmts)-1]
	}
	w := &ast.While{Pos: x.Pos, Cond: x.Cond, Body: x.Then}
	mergePos(&w.Pos, b.Stmts[0])
	stmts := []ast.Stmt{w}
	if len(x.Else.Stmts) > 0 {
		stmts = append(stmts, x.Else)
	}
	b.Stmts = append(stmts, b.Stmts[2:]...)
	loopCounter.Inc(1)
	c.debug("Structured while loop", "header", lh)
	return true
}

// backLoop recognizes a loop closed by a branch back to the header label at
// the end of the code below it:
//
//	Lh: body; goto Lh         => while (true) { body }
//	Lh: body; if (c) goto Lh  => do { body } while (c)
func (c *context) backLoop(b *ast.Block) bool {
	lh := c.header(b)
	if lh == nil {
		return false
	}
	back := c.preds.Gotos(lh)[0]
	// Locate the branch among the direct statements of the chain below b.
	var owner *ast.Block
	k := -1
	for d := b; d != nil && owner == nil; d = tailBlock(d) {
		for j, s := range d.Stmts {
			if s == ast.Stmt(back) {
				owner, k = d, j
				break
			}
			if _, g, ok := ast.CondGoto(s); ok && g == back {
				owner, k = d, j
				break
			}
		}
	}
	if owner == nil {
		return false
	}
	rest := owner.Stmts[k+1:]
	branch := owner.Stmts[k]
	owner.Stmts = owner.Stmts[:k:k]
	body := b.Stmts[1:]
	if hasRegion(body) || !c.closed(body) {
		owner.Stmts = append(append(owner.Stmts, branch), rest...)
		return false
	}
	c.dropGoto(back)

	blk := &ast.Block{Pos: b.Pos, Stmts: append([]ast.Stmt(nil), body...), Start: b.Start, End: b.End, Locals: b.Locals}
	b.Locals = nil
	var loop ast.Stmt
	if cond, _, ok := ast.CondGoto(branch); ok {
		loop = &ast.DoWhile{Pos: *branch.Position(), Body: blk, Cond: cond}
	} else {
		loop = &ast.While{Pos: *branch.Position(), Cond: ast.Bool(true), Body: blk}
	}
	b.Stmts = append([]ast.Stmt{loop}, rest...)
	loopCounter.Inc(1)
	c.debug("Structured loop", "header", lh)
	return true
}

// promoteFors rewrites
//
//	x = init; while (cond(x)) { body; x = next }
//
// into for (x = init; cond(x); x = next) { body }.
func (c *context) promoteFors(root *ast.Block) bool {
	changed := false
	forEachBlock(root, func(b *ast.Block) {
		for j := 1; j < len(b.Stmts); j++ {
			w, ok := b.Stmts[j].(*ast.While)
			if !ok {
				continue
			}
			x := assignedLocal(b.Stmts[j-1])
			if x == nil || !ast.References(w.Cond, x) || len(w.Body.Stmts) == 0 {
				continue
			}
			d, last := lastStmt(w.Body.Stmts)
			if last == nil || assignedLocal(last) != x {
				continue
			}
			if d == nil {
				w.Body.Stmts = w.Body.Stmts[:len(w.Body.Stmts)-1]
			} else {
				d.Stmts = d.Stmts[:len(d.Stmts)-1]
			}
			f := &ast.For{Pos: *b.Stmts[j-1].Position(), Init: b.Stmts[j-1], Cond: w.Cond, Incr: last, Body: w.Body}
			b.Stmts = splice(b.Stmts, j-1, j+1, f)
			j--
			loopCounter.Inc(1)
			changed = true
		}
	})
	return changed
}

// assignedLocal returns the local s stores to when s is a plain local
// assignment.
func assignedLocal(s ast.Stmt) *metadata.Local {
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
	l, _ := bd.Def.(*metadata.Local)
	return l
}
