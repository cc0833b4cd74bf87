package ast

import (
	"github.com/pkg/errors"
)

// CountGotos counts the gotos present in root per label ID, including the
// arms of switch tables.
func CountGotos(root Node) map[int]int {
	counts := make(map[int]int)
	Inspect(root, func(n Node) bool {
		if g, ok := n.(*Goto); ok {
			counts[g.Target.ID]++
		}
		return true
	})
	return counts
}

// CheckPredecessors verifies that preds records exactly the gotos present in
// root.
func CheckPredecessors(root Node, preds *PredMap) error {
	present := make(map[*Goto]bool)
	Inspect(root, func(n Node) bool {
		if g, ok := n.(*Goto); ok {
			present[g] = true
		}
		return true
	})
	recorded := 0
	for _, id := range preds.Labels() {
		for _, g := range preds.gotos[id] {
			if g.Target.ID != id {
				return errors.Errorf("goto to %v recorded under label %d", g.Target, id)
			}
			if !present[g] {
				return errors.Errorf("recorded goto to %v is not in the tree", g.Target)
			}
			recorded++
		}
	}
	if recorded != len(present) {
		return errors.Errorf("%d gotos in the tree, %d recorded", len(present), recorded)
	}
	return nil
}

// FindPlaceholders returns the stack placeholder nodes left in root: pops,
// dups and pushes.
func FindPlaceholders(root Node) []Node {
	var found []Node
	Inspect(root, func(n Node) bool {
		switch n.(type) {
		case *PopValue, *DupValue, *Push:
			found = append(found, n)
		}
		return true
	})
	return found
}
