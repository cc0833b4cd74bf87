package decompiler

import (
	"github.com/bnb-chain/ildecompiler/core/ast"
	"github.com/bnb-chain/ildecompiler/core/metadata"
)

// patternRule tries one local rewrite at index i of b.
type patternRule func(c *context, b *ast.Block, i int) bool

var patternRules = []patternRule{
	(*context).deadGoto,
	(*context).shortCircuit,
	(*context).fuseSameTarget,
	(*context).fuseConditions,
	(*context).foldArrayInit,
	(*context).telescope,
}

// runPatterns applies the peephole rewrites to every block, innermost
// first, until none of them matches any more.
func (c *context) runPatterns(root *ast.Block) bool {
	changed := false
	for {
		round := false
		forEachBlock(root, func(b *ast.Block) {
			for i := len(b.Stmts) - 1; i >= 0; i-- {
				for c.applyPatterns(b, i) {
					round = true
					if i >= len(b.Stmts) {
						i = len(b.Stmts) - 1
					}
					if i < 0 {
						break
					}
				}
			}
		})
		if !round {
			return changed
		}
		changed = true
	}
}

func (c *context) applyPatterns(b *ast.Block, i int) bool {
	for _, rule := range patternRules {
		if rule(c, b, i) {
			return true
		}
	}
	return false
}

// deadGoto removes goto L directly followed by the block labeled L.
func (c *context) deadGoto(b *ast.Block, i int) bool {
	g, ok := b.Stmts[i].(*ast.Goto)
	if !ok || i+1 >= len(b.Stmts) {
		return false
	}
	next, ok := b.Stmts[i+1].(*ast.Block)
	if !ok || next.Label() != g.Target {
		return false
	}
	c.dropGoto(g)
	b.Stmts = splice(b.Stmts, i, i+1)
	c.mergeTail(b)
	return true
}

// shortCircuit folds the value-producing branch diamond
//
//	if (c) goto L1; push x; goto L2; L1: push y; L2: ...
//
// into push (c ? y : x). L1 may also end in goto L2 when L2 was laid out
// before it, as the inner diamond of a && (b || c) is.
func (c *context) shortCircuit(b *ast.Block, i int) bool {
	if i+3 != len(b.Stmts)-1 {
		return false
	}
	cond, g1, ok := ast.CondGoto(b.Stmts[i])
	if !ok {
		return false
	}
	px, ok := b.Stmts[i+1].(*ast.Push)
	if !ok {
		return false
	}
	g2, ok := b.Stmts[i+2].(*ast.Goto)
	if !ok {
		return false
	}
	l1, ok := b.Stmts[i+3].(*ast.Block)
	if !ok || l1.Label() != g1.Target || len(l1.Stmts) < 3 || c.pinned(l1) {
		return false
	}
	py, ok := l1.Stmts[1].(*ast.Push)
	if !ok {
		return false
	}
	var g3 *ast.Goto
	switch x := l1.Stmts[2].(type) {
	case *ast.Block:
		if len(l1.Stmts) != 3 || x.Label() != g2.Target {
			return false
		}
	case *ast.Goto:
		if x.Target != g2.Target {
			return false
		}
		g3 = x
	default:
		return false
	}
	if ast.ContainsPlaceholder(px.X) || ast.ContainsPlaceholder(py.X) {
		return false
	}
	single := c.preds.Count(g1.Target) == 1
	if !single && !isConstant(py.X) {
		return false
	}

	push := &ast.Push{Pos: *b.Stmts[i].Position(), X: conditional(cond, py.X, px.X)}
	mergePos(&push.Pos, px)
	c.dropGoto(g1)
	shortCircuitCounter.Inc(1)
	if !single {
		// L1 keeps its other predecessors; y is a constant so it may be
		// evaluated on both paths.
		b.Stmts = splice(b.Stmts, i, i+2, push)
		return true
	}
	mergePos(&push.Pos, l1.Stmts[0], py)
	if g3 != nil {
		c.dropGoto(g3)
		b.Stmts = append(append(b.Stmts[:i], push, g2), l1.Stmts[3:]...)
		return true
	}
	mergePos(&push.Pos, g2)
	c.dropGoto(g2)
	b.Stmts = append(b.Stmts[:i], push, l1.Stmts[2])
	c.mergeTail(b)
	return true
}

// fuseSameTarget folds
//
//	if (p) goto L; if (q) goto L;
//
// into if (p || q) goto L.
func (c *context) fuseSameTarget(b *ast.Block, i int) bool {
	if i+1 >= len(b.Stmts) {
		return false
	}
	p, g1, ok := ast.CondGoto(b.Stmts[i])
	if !ok {
		return false
	}
	q, g2, ok := ast.CondGoto(b.Stmts[i+1])
	if !ok || g2.Target != g1.Target {
		return false
	}
	if ast.ContainsPlaceholder(p) || ast.ContainsPlaceholder(q) {
		return false
	}
	pos := *b.Stmts[i].Position()
	mergePos(&pos, b.Stmts[i+1])
	c.dropGoto(g2)
	b.Stmts = splice(b.Stmts, i, i+2, ast.NewCondGoto(pos, ast.NewBinary(ast.LogicalOr, p, q), g1))
	shortCircuitCounter.Inc(1)
	return true
}

// fuseConditions folds
//
//	if (p) goto L1; if (q) goto L2; L1: ...
//
// with L1 reached only from the first branch into if (!p && q) goto L2.
func (c *context) fuseConditions(b *ast.Block, i int) bool {
	if i+2 != len(b.Stmts)-1 {
		return false
	}
	p, g1, ok := ast.CondGoto(b.Stmts[i])
	if !ok {
		return false
	}
	q, g2, ok := ast.CondGoto(b.Stmts[i+1])
	if !ok || g2.Target == g1.Target {
		return false
	}
	l1, ok := b.Stmts[i+2].(*ast.Block)
	if !ok || l1.Label() != g1.Target || c.preds.Count(g1.Target) != 1 || c.pinned(l1) {
		return false
	}
	cond := conditional(ast.Not(p), q, ast.Bool(false))
	pos := *b.Stmts[i].Position()
	mergePos(&pos, b.Stmts[i+1], l1.Stmts[0])
	c.dropGoto(g1)
	l1.Stmts = l1.Stmts[1:]
	b.Stmts = splice(b.Stmts, i, i+2, ast.NewCondGoto(pos, cond, g2))
	c.mergeTail(b)
	shortCircuitCounter.Inc(1)
	return true
}

// telescope substitutes the value of push e into the statement that
// follows it, replacing the pop that receives e.
func (c *context) telescope(b *ast.Block, i int) bool {
	if i+1 >= len(b.Stmts) {
		return false
	}
	push, ok := b.Stmts[i].(*ast.Push)
	if !ok {
		return false
	}
	next := b.Stmts[i+1]
	if _, ok := next.(*ast.Block); ok {
		return false
	}
	slot := receivingPop(next)
	if slot == nil {
		return false
	}
	v := push.X
	if (*slot).Type().Code == metadata.Boolean && v.Type().Code != metadata.Boolean {
		v = asCondition(v)
	}
	*slot = v
	mergePos(next.Position(), push)
	b.Stmts = splice(b.Stmts, i, i+1)
	telescopeCounter.Inc(1)
	return true
}

// receivingPop finds the pop that takes the value on top of the stack when
// s runs: the last one in evaluation order. It returns nil when s peeks at
// the stack or when an operation with side effects is evaluated before that
// pop, since moving the pushed expression past it would reorder effects.
func receivingPop(s ast.Stmt) *ast.Expr {
	var (
		last  *ast.Expr
		clean = true
		dup   bool
	)
	var walk func(p *ast.Expr)
	walk = func(p *ast.Expr) {
		e := *p
		if a, ok := e.(*ast.Assignment); ok {
			// The target itself is written, not evaluated.
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
		switch e.(type) {
		case *ast.PopValue:
			if clean {
				last = p
			} else {
				last = nil
			}
		case *ast.DupValue:
			dup = true
		default:
			if !pureNode(e) {
				clean = false
			}
		}
	}
	for _, p := range ast.ExprSlots(s) {
		walk(p)
	}
	if dup {
		return nil
	}
	return last
}

// pureNode reports whether evaluating e itself, its operands aside, has no
// side effects and cannot throw.
func pureNode(e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.PopValue, *ast.Conditional:
		return true
	case *ast.Unary:
		return true
	case *ast.Binary:
		return !x.Checked && x.Op != ast.Div && x.Op != ast.Rem
	case *ast.Conversion:
		return x.Kind == ast.Convert && !x.Checked || x.Kind == ast.BoxValue
	}
	return ast.IsPure(e)
}

func isConstant(e ast.Expr) bool {
	_, ok := e.(*ast.Constant)
	return ok
}

// conditional builds c ? t : f. A negated condition is flipped and integer
// 0 and 1 paired with a boolean become false and true.
func conditional(c, t, f ast.Expr) ast.Expr {
	if u, ok := c.(*ast.Unary); ok && u.Op == ast.LogicalNot {
		c, t, f = u.Operand, f, t
	}
	switch {
	case t.Type().Code == metadata.Boolean:
		f = coerce(f, metadata.TypeBoolean)
	case f.Type().Code == metadata.Boolean:
		t = coerce(t, metadata.TypeBoolean)
	}
	ty := t.Type()
	if m := metadata.Merge(t.Type(), f.Type()); m.IsResolved() {
		ty = m
	}
	return &ast.Conditional{TypeInfo: ast.TypeInfo{T: ty}, Cond: c, True: t, False: f}
}
