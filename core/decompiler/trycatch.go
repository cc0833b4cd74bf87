package decompiler

import (
	"golang.org/x/exp/slices"

	"github.com/bnb-chain/ildecompiler/core/ast"
	"github.com/bnb-chain/ildecompiler/core/cil"
	"github.com/bnb-chain/ildecompiler/core/metadata"
)

// findStart looks for the block starting at offset among the blocks chained
// below b.
func findStart(b *ast.Block, offset int) (parent, blk *ast.Block) {
	parent = b
	for next := tailBlock(b); next != nil; parent, next = next, tailBlock(next) {
		if next.Start == offset {
			return parent, next
		}
	}
	return nil, nil
}

// structureTries turns every block opening try regions into try statements.
func (c *context) structureTries(root *ast.Block) bool {
	changed := false
	forEachBlock(root, func(b *ast.Block) {
		for b.TryCount > 0 {
			group := c.innermostGroup(b)
			if group == nil || !c.buildTry(b, group) {
				return
			}
			changed = true
		}
	})
	return changed
}

// innermostGroup returns the regions protecting the smallest range that
// starts at b, in handler order. Regions sharing a protected range are the
// handlers of one try statement.
func (c *context) innermostGroup(b *ast.Block) []*cil.ExceptionRegion {
	var group []*cil.ExceptionRegion
	for _, r := range c.body.Regions {
		if r.TryStart != b.Start || c.done[r] {
			continue
		}
		if len(group) > 0 && r.TryEnd > group[0].TryEnd {
			continue
		}
		if len(group) > 0 && r.TryEnd < group[0].TryEnd {
			group = group[:0]
		}
		group = append(group, r)
	}
	slices.SortFunc(group, func(a, b *cil.ExceptionRegion) int {
		return a.HandlerEntry() - b.HandlerEntry()
	})
	return group
}

// segmentBounds lists the block starts that split the chain below a try
// block: the entry of every handler (and its filter), then the continuation.
func segmentBounds(group []*cil.ExceptionRegion) []int {
	var offs []int
	for _, r := range group {
		if r.Kind == cil.RegionFilter {
			offs = append(offs, r.FilterStart)
		}
		offs = append(offs, r.HandlerStart)
	}
	return append(offs, group[len(group)-1].HandlerEnd)
}

// buildTry replaces the chain below b by try { body } handlers..., followed
// by the continuation block.
func (c *context) buildTry(b *ast.Block, group []*cil.ExceptionRegion) bool {
	bounds := segmentBounds(group)
	// Every handler segment must follow the protected code in the chain;
	// the continuation may be missing when no code follows the handlers.
	segments := make([]*ast.Block, len(bounds))
	cur := b
	for i, off := range bounds {
		_, next := findStart(cur, off)
		if next == nil {
			if i < len(bounds)-1 {
				return false
			}
			break
		}
		segments[i] = next
		cur = next
	}
	// Cut the chain at every bound, from the last one back.
	for i := len(bounds) - 1; i >= 0; i-- {
		if segments[i] == nil {
			continue
		}
		prev := b
		if i > 0 {
			prev = segments[i-1]
		}
		parent, _ := findStart(prev, bounds[i])
		detachTail(parent)
	}

	// A label branched to from outside the protected code stays in front
	// of the try statement.
	k := 0
	if l := b.Label(); l != nil && c.preds.Count(l) != gotosTo(b.Stmts[1:], l) {
		k = 1
	}
	body := &ast.Block{Pos: b.Pos, Stmts: append([]ast.Stmt(nil), b.Stmts[k:]...), Start: b.Start, End: group[0].TryEnd}
	try := &ast.Try{Pos: ast.Pos{Offset: b.Start}, Body: body}
	cont := segments[len(segments)-1]

	seg := 0
	for _, r := range group {
		var filter *ast.Block
		if r.Kind == cil.RegionFilter {
			filter = segments[seg]
			seg++
		}
		handler := segments[seg]
		seg++
		clearRegion(handler)
		switch r.Kind {
		case cil.RegionCatch, cil.RegionFilter:
			catch := &ast.Catch{Body: handler}
			if r.Kind == cil.RegionCatch {
				catch.Type = r.CatchType
				if catch.Type == nil {
					catch.Type = metadata.TypeException
				}
			}
			if filter != nil {
				clearRegion(filter)
				catch.Var = c.catchVar(filter)
				catch.Filter = takeEndFilter(filter)
				if len(filter.Stmts) > 0 {
					catch.FilterBody = filter
				}
				if v := c.catchVar(handler); v != nil && catch.Var == nil {
					catch.Var = v
				} else if v != nil && v != catch.Var {
					assign := &ast.ExprStmt{Pos: handler.Pos, X: ast.Assign(ast.Ref(v), ast.Ref(catch.Var))}
					handler.Stmts = splice(handler.Stmts, 0, 0, assign)
				}
			} else {
				catch.Var = c.catchVar(handler)
			}
			try.Catches = append(try.Catches, catch)
		case cil.RegionFinally:
			dropEndFinally(handler)
			try.Finally = handler
		case cil.RegionFault:
			dropEndFinally(handler)
			try.Fault = handler
		}
		c.done[r] = true
	}
	b.TryCount--

	if cont != nil {
		if l := cont.Label(); l != nil {
			c.stripLeave(body, l)
			for _, cc := range try.Catches {
				c.stripLeave(cc.Body, l)
			}
		}
	}

	// try { try { ... } catch { ... } } finally { ... } is one statement.
	if len(body.Stmts) == 1 && len(try.Catches) == 0 {
		if inner, ok := body.Stmts[0].(*ast.Try); ok && inner.Finally == nil && inner.Fault == nil {
			inner.Finally, inner.Fault = try.Finally, try.Fault
			try = inner
		}
	}

	stmts := append([]ast.Stmt(nil), b.Stmts[:k]...)
	stmts = append(stmts, try)
	if cont != nil {
		stmts = append(stmts, cont)
	}
	b.Stmts = stmts
	tryCounter.Inc(1)
	c.debug("Structured try", "offset", b.Start, "handlers", len(group))
	return true
}

func clearRegion(b *ast.Block) {
	b.Region = nil
	b.HandlerEntry = false
}

// catchVar takes the exception object captured at the start of a handler.
// A store to a variable makes that variable the catch variable, a discarded
// exception yields none, and any other use is routed through a new temp.
func (c *context) catchVar(b *ast.Block) metadata.Definition {
	i := 0
	if b.Label() != nil {
		i = 1
	}
	if i >= len(b.Stmts) {
		return nil
	}
	if es, ok := b.Stmts[i].(*ast.ExprStmt); ok {
		switch x := es.X.(type) {
		case *ast.CaughtException:
			b.Stmts = splice(b.Stmts, i, i+1)
			return nil
		case *ast.Assignment:
			if _, ok := x.Source.(*ast.CaughtException); ok {
				if bd, ok := x.Target.(*ast.Bound); ok && bd.Instance == nil {
					b.Stmts = splice(b.Stmts, i, i+1)
					return bd.Def
				}
			}
		}
	}
	var t *ast.Temp
	for _, p := range ast.ExprSlots(b.Stmts[i]) {
		*p = ast.RewriteExpr(*p, func(e ast.Expr) ast.Expr {
			if ce, ok := e.(*ast.CaughtException); ok {
				if t == nil {
					t = c.newTemp(ce.Type())
				}
				return ast.Ref(t)
			}
			return e
		})
	}
	if t == nil {
		return nil
	}
	return t
}

// takeEndFilter removes the trailing endfilter of a filter block and
// returns its condition.
func takeEndFilter(b *ast.Block) ast.Expr {
	d := deepest(b)
	if ef, ok := d.Last().(*ast.EndFilter); ok {
		d.Stmts = d.Stmts[:len(d.Stmts)-1]
		return ef.Value
	}
	return nil
}

func dropEndFinally(b *ast.Block) {
	d := deepest(b)
	if _, ok := d.Last().(*ast.EndFinally); ok {
		d.Stmts = d.Stmts[:len(d.Stmts)-1]
	}
}

// stripLeave removes the trailing goto to the statement after a try from a
// protected or handler body, looking into a trailing nested try.
func (c *context) stripLeave(b *ast.Block, l *ast.Label) {
	d := deepest(b)
	switch x := d.Last().(type) {
	case *ast.Goto:
		if x.Target == l {
			c.dropGoto(x)
			d.Stmts = d.Stmts[:len(d.Stmts)-1]
		}
	case *ast.Try:
		c.stripLeave(x.Body, l)
		for _, cc := range x.Catches {
			c.stripLeave(cc.Body, l)
		}
	}
}
