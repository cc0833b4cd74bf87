package decompiler

import (
	"github.com/willf/bitset"

	"github.com/bnb-chain/ildecompiler/core/ast"
	"github.com/bnb-chain/ildecompiler/core/cil"
	"github.com/bnb-chain/ildecompiler/core/metadata"
)

// preScanBlocks marks every offset that starts a basic block: branch targets,
// exception region bounds and scope bounds. It creates the blocks, their
// labels and handler entry placeholders, and returns them keyed by offset.
func (c *context) preScanBlocks() (*bitset.BitSet, map[int]*ast.Block, error) {
	body := c.body
	size := body.CodeSize()
	starts := bitset.New(uint(size + 1))
	blocks := make(map[int]*ast.Block)

	get := func(off int) (*ast.Block, error) {
		if off < 0 || off > size || (off < size && body.At(off) < 0) {
			return nil, c.decodeErrorf(off, ErrBadBlockBoundary, "offset IL_%04x", off)
		}
		starts.Set(uint(off))
		b, ok := blocks[off]
		if !ok {
			b = ast.NewBlock(off)
			blocks[off] = b
		}
		return b, nil
	}
	if _, err := get(0); err != nil && size > 0 {
		return nil, nil, err
	}
	for _, in := range body.Instructions {
		for _, t := range in.Targets() {
			if _, err := get(t); err != nil {
				return nil, nil, err
			}
			c.labelAt(t)
		}
	}
	for _, r := range body.Regions {
		for _, off := range []int{r.TryStart, r.TryEnd, r.HandlerStart, r.HandlerEnd} {
			c.bounds.Set(uint(off))
		}
		if r.Kind == cil.RegionFilter {
			c.bounds.Set(uint(r.FilterStart))
		}
		try, err := get(r.TryStart)
		if err != nil {
			return nil, nil, err
		}
		try.TryCount++
		handler, err := get(r.HandlerStart)
		if err != nil {
			return nil, nil, err
		}
		handler.Region = r
		handler.End = r.HandlerEnd
		handler.HandlerEntry = r.Kind == cil.RegionCatch || r.Kind == cil.RegionFilter
		if r.Kind == cil.RegionFilter {
			filter, err := get(r.FilterStart)
			if err != nil {
				return nil, nil, err
			}
			filter.Region = r
			filter.End = r.HandlerStart
			filter.HandlerEntry = true
		}
		for _, off := range []int{r.TryEnd, r.HandlerEnd} {
			if _, err := get(off); err != nil {
				return nil, nil, err
			}
		}
	}
	for _, s := range body.Scopes {
		start, err := get(s.Start)
		if err != nil {
			return nil, nil, err
		}
		start.Locals = append(start.Locals, s.Locals...)
		if start.End == ast.NoEnd || s.End < start.End {
			start.End = s.End
		}
		if _, err := get(s.End); err != nil {
			return nil, nil, err
		}
	}

	for off, b := range blocks {
		if l, ok := c.labels[off]; ok {
			b.Append(&ast.Labeled{Pos: ast.Pos{Offset: off}, Label: l})
		}
		if b.HandlerEntry {
			t := b.Region.CatchType
			if t == nil {
				t = metadata.TypeException
			}
			pop := &ast.PopValue{TypeInfo: ast.TypeInfo{T: t}, CaughtException: true}
			b.Append(&ast.Push{Pos: ast.Pos{Offset: off}, X: pop})
		}
	}
	return starts, blocks, nil
}

// buildBlocks turns the instruction stream into the nested block tree,
// translating instructions as it goes. Each new basic block becomes the last
// statement of the block before it.
func (c *context) buildBlocks() (*ast.Block, error) {
	starts, blocks, err := c.preScanBlocks()
	if err != nil {
		return nil, err
	}
	root, ok := blocks[0]
	if !ok {
		root = ast.NewBlock(0)
	}
	tr := newTranslator(c, root)
	for _, in := range c.body.Instructions {
		if in.Offset != 0 && starts.Test(uint(in.Offset)) {
			tr.flush(ast.Pos{Offset: in.Offset})
			next := blocks[in.Offset]
			tr.blk.Append(next)
			tr.blk = next
		}
		if err := tr.translate(in); err != nil {
			return nil, err
		}
	}
	tr.flush(ast.Pos{Offset: c.body.CodeSize()})
	c.debug("Built block tree", "instructions", len(c.body.Instructions), "blocks", starts.Count(), "labels", len(c.labels))
	return root, nil
}
