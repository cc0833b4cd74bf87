package decompiler

import (
	"github.com/bnb-chain/ildecompiler/core/ast"
)

// structureSwitches replaces every branch table by a switch statement.
func (c *context) structureSwitches(root *ast.Block) bool {
	changed := false
	forEachBlock(root, func(b *ast.Block) {
		for i := 0; i < len(b.Stmts); i++ {
			if c.switchAt(b, i) {
				changed = true
			}
		}
	})
	return changed
}

// switchAt rewrites
//
//	switch (v) goto L0, L1, ...; goto D
//
// at index i of b into a switch with one case per table entry and a default
// case taking the fallthrough goto. Entries sharing a target with the entry
// after them become empty cases falling through to it.
func (c *context) switchAt(b *ast.Block, i int) bool {
	st, ok := b.Stmts[i].(*ast.SwitchTable)
	if !ok {
		return false
	}
	value, bias := switchValue(st.Value)
	sw := &ast.Switch{Pos: st.Pos, Value: value}
	for j, g := range st.Targets {
		body := ast.NewBlock(g.Offset)
		if j+1 < len(st.Targets) && st.Targets[j+1].Target == g.Target {
			c.dropGoto(g)
		} else {
			body.Append(g)
		}
		sw.Cases = append(sw.Cases, &ast.Case{Value: int64(j) + bias, Body: body})
	}
	end := i + 1
	if i+1 < len(b.Stmts) {
		if g, ok := b.Stmts[i+1].(*ast.Goto); ok {
			body := ast.NewBlock(g.Offset)
			body.Append(g)
			sw.Cases = append(sw.Cases, &ast.Case{Default: true, Body: body})
			mergePos(&sw.Pos, g)
			end = i + 2
		}
	}
	b.Stmts = splice(b.Stmts, i, end, sw)
	switchCounter.Inc(1)
	c.debug("Structured switch", "offset", st.Offset, "cases", len(sw.Cases))
	return true
}

// switchValue strips a constant bias from a switch operand: a table indexed
// by x - k dispatches on x with case values starting at k.
func switchValue(v ast.Expr) (ast.Expr, int64) {
	bin, ok := v.(*ast.Binary)
	if !ok || bin.Op != ast.Sub || bin.Checked {
		return v, 0
	}
	k, ok := bin.Right.(*ast.Constant)
	if !ok {
		return v, 0
	}
	n, ok := k.IntValue()
	if !ok {
		return v, 0
	}
	return bin.Left, n
}

// inlineCases moves the code of a case reached only through its goto into
// the case body. The code must sit later in the same statement list, be
// entered by nothing but that goto and end in a jump or return:
//
//	switch (v) { case 0: goto L0 } ...; return; L0: s; return
//
// becomes switch (v) { case 0: s; return } ...; return.
func (c *context) inlineCases(b *ast.Block, i int) bool {
	sw := b.Stmts[i].(*ast.Switch)
	changed := false
	for _, cs := range sw.Cases {
		if len(cs.Body.Stmts) != 1 {
			continue
		}
		g, ok := cs.Body.Stmts[0].(*ast.Goto)
		if !ok || c.preds.Count(g.Target) != 1 {
			continue
		}
		j := -1
		for k := i + 1; k < len(b.Stmts); k++ {
			if l, ok := b.Stmts[k].(*ast.Labeled); ok && l.Label == g.Target {
				j = k
				break
			}
		}
		if j < 0 || !(ast.IsExit(b.Stmts[j-1]) || j-1 == i && switchExits(sw)) {
			continue
		}
		k := j + 1
		for k < len(b.Stmts) {
			if _, ok := b.Stmts[k].(*ast.Labeled); ok {
				break
			}
			k++
		}
		if k == j+1 || !ast.IsExit(b.Stmts[k-1]) {
			continue
		}
		seg := append([]ast.Stmt(nil), b.Stmts[j+1:k]...)
		c.dropGoto(g)
		cs.Body.Stmts = seg
		b.Stmts = splice(b.Stmts, j, k)
		changed = true
	}
	return changed
}

// switchExits reports whether control never falls out of sw: it has a
// default case and every case either falls into the next one or ends in a
// jump or return.
func switchExits(sw *ast.Switch) bool {
	hasDefault := false
	for k, cs := range sw.Cases {
		if cs.Default {
			hasDefault = true
		}
		last := cs.Body.Last()
		if last == nil && k+1 < len(sw.Cases) {
			continue
		}
		if !ast.IsExit(last) {
			return false
		}
	}
	return hasDefault
}
