package decompiler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/bnb-chain/ildecompiler/core/ast"
)

// WriteLabelTable renders the labels still present in root with the number
// of gotos found in the tree and recorded in preds. The two counts differ
// only when a pass broke predecessor bookkeeping.
func WriteLabelTable(w io.Writer, root *ast.Block, preds *ast.PredMap) {
	labels := make(map[int]*ast.Label)
	ast.Inspect(root, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.Labeled:
			labels[x.Label.ID] = x.Label
		case *ast.Goto:
			if _, ok := labels[x.Target.ID]; !ok {
				labels[x.Target.ID] = x.Target
			}
		}
		return true
	})
	counts := ast.CountGotos(root)
	ids := maps.Keys(labels)
	slices.Sort(ids)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Label", "Offset", "Gotos", "Recorded"})
	for _, id := range ids {
		l := labels[id]
		table.Append([]string{
			l.String(),
			fmt.Sprintf("0x%04x", l.Offset),
			strconv.Itoa(counts[id]),
			strconv.Itoa(preds.Count(l)),
		})
	}
	table.Render()
}
