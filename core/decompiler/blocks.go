package decompiler

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/bnb-chain/ildecompiler/core/ast"
)

// tailBlock returns the basic block nested as the last statement of b.
func tailBlock(b *ast.Block) *ast.Block {
	nb, _ := b.Last().(*ast.Block)
	return nb
}

// findForward looks for the block labeled l among the blocks chained below
// b. It returns the block and the block it is nested in.
func findForward(b *ast.Block, l *ast.Label) (parent, blk *ast.Block) {
	parent = b
	for next := tailBlock(b); next != nil; parent, next = next, tailBlock(next) {
		if next.Label() == l {
			return parent, next
		}
	}
	return nil, nil
}

// detachTail removes the trailing block of parent.
func detachTail(parent *ast.Block) {
	parent.Stmts = parent.Stmts[:len(parent.Stmts)-1]
}

// deepest returns the innermost block of the chain starting at b.
func deepest(b *ast.Block) *ast.Block {
	for next := tailBlock(b); next != nil; next = tailBlock(next) {
		b = next
	}
	return b
}

// lastStmt is the statement control reaches last when running stmts and
// every block chained below them.
func lastStmt(stmts []ast.Stmt) (*ast.Block, ast.Stmt) {
	if len(stmts) == 0 {
		return nil, nil
	}
	if b, ok := stmts[len(stmts)-1].(*ast.Block); ok {
		d := deepest(b)
		if len(d.Stmts) == 0 {
			return d, nil
		}
		return d, d.Last()
	}
	return nil, stmts[len(stmts)-1]
}

// pinned reports whether b must stay a separate block: it carries region or
// scope data the later passes look for.
func (c *context) pinned(b *ast.Block) bool {
	return b.Region != nil || b.TryCount > 0 || len(b.Locals) > 0 || b.HandlerEntry ||
		c.bounds.Test(uint(b.Start))
}

// mergeTail inlines the trailing block of b when nothing branches to it.
func (c *context) mergeTail(b *ast.Block) bool {
	nb := tailBlock(b)
	if nb == nil || c.pinned(nb) {
		return false
	}
	stmts := nb.Stmts
	if l := nb.Label(); l != nil {
		if c.preds.Count(l) > 0 {
			return false
		}
		stmts = stmts[1:]
	}
	b.Stmts = append(b.Stmts[:len(b.Stmts)-1], stmts...)
	return true
}

// closed reports whether every label defined in stmts is only branched to
// from within stmts, so they can move into a nested statement.
func (c *context) closed(stmts []ast.Stmt) bool {
	defined := mapset.NewThreadUnsafeSet[*ast.Label]()
	inside := make(map[int]int)
	for _, s := range stmts {
		ast.Inspect(s, func(n ast.Node) bool {
			switch x := n.(type) {
			case *ast.Goto:
				inside[x.Target.ID]++
			case *ast.Labeled:
				defined.Add(x.Label)
			}
			return true
		})
	}
	ok := true
	defined.Each(func(l *ast.Label) bool {
		if c.preds.Count(l) != inside[l.ID] {
			ok = false
		}
		return !ok
	})
	return ok
}

// gotosTo counts the gotos to l within stmts.
func gotosTo(stmts []ast.Stmt, l *ast.Label) int {
	n := 0
	for _, s := range stmts {
		n += ast.CountGotos(s)[l.ID]
	}
	return n
}

// hasRegion reports whether a block inside stmts still carries exception
// region data.
func hasRegion(stmts []ast.Stmt) bool {
	found := false
	for _, s := range stmts {
		ast.Inspect(s, func(n ast.Node) bool {
			if b, ok := n.(*ast.Block); ok && (b.Region != nil || b.TryCount > 0) {
				found = true
			}
			return !found
		})
	}
	return found
}

// liveLabels reports whether a label with predecessors is defined in n.
func (c *context) liveLabels(n ast.Node) bool {
	live := false
	ast.Inspect(n, func(n ast.Node) bool {
		if l, ok := n.(*ast.Labeled); ok && c.preds.Count(l.Label) > 0 {
			live = true
		}
		return !live
	})
	return live
}

// forEachBlock calls f for every block of the tree, children before parents.
func forEachBlock(root *ast.Block, f func(*ast.Block)) {
	var visit func(b *ast.Block)
	visit = func(b *ast.Block) {
		for _, s := range b.Stmts {
			if nb, ok := s.(*ast.Block); ok {
				visit(nb)
				continue
			}
			for _, child := range ast.ChildBlocks(s) {
				visit(child)
			}
		}
		f(b)
	}
	visit(root)
}

func mergePos(dst *ast.Pos, src ...ast.Stmt) {
	for _, s := range src {
		merge(dst, s.Position())
	}
}

// splice replaces stmts[i:j] with repl.
func splice(stmts []ast.Stmt, i, j int, repl ...ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(stmts)-(j-i)+len(repl))
	out = append(out, stmts[:i]...)
	out = append(out, repl...)
	return append(out, stmts[j:]...)
}
