package ast

import "github.com/bnb-chain/ildecompiler/core/metadata"

// ExprSlots returns pointers to the expressions owned directly by s, in
// evaluation order. Nested blocks are not included.
func ExprSlots(s Stmt) []*Expr {
	switch x := s.(type) {
	case *ExprStmt:
		return []*Expr{&x.X}
	case *Push:
		return []*Expr{&x.X}
	case *If:
		return []*Expr{&x.Cond}
	case *SwitchTable:
		return []*Expr{&x.Value}
	case *Switch:
		return []*Expr{&x.Value}
	case *While:
		return []*Expr{&x.Cond}
	case *DoWhile:
		return []*Expr{&x.Cond}
	case *For:
		if x.Cond != nil {
			return []*Expr{&x.Cond}
		}
	case *LocalDecl:
		if x.Init != nil {
			return []*Expr{&x.Init}
		}
	case *Return:
		if x.Value != nil {
			return []*Expr{&x.Value}
		}
	case *Throw:
		if x.Value != nil {
			return []*Expr{&x.Value}
		}
	case *EndFilter:
		if x.Value != nil {
			return []*Expr{&x.Value}
		}
	}
	return nil
}

// ChildSlots returns pointers to the operands of e, in evaluation order.
func ChildSlots(e Expr) []*Expr {
	var slots []*Expr
	add := func(p *Expr) {
		if *p != nil {
			slots = append(slots, p)
		}
	}
	addAll := func(list []Expr) {
		for i := range list {
			add(&list[i])
		}
	}
	switch x := e.(type) {
	case *Bound:
		add(&x.Instance)
	case *ArrayIndexer:
		add(&x.Array)
		addAll(x.Indices)
	case *Unary:
		add(&x.Operand)
	case *Binary:
		add(&x.Left)
		add(&x.Right)
	case *Conversion:
		add(&x.Operand)
	case *Call:
		add(&x.Instance)
		addAll(x.Args)
	case *PointerCall:
		addAll(x.Args)
		add(&x.Pointer)
	case *NewObject:
		addAll(x.Args)
	case *NewArray:
		addAll(x.Sizes)
		addAll(x.Initializers)
	case *Length:
		add(&x.Array)
	case *AddressOf:
		add(&x.Operand)
	case *Deref:
		add(&x.Operand)
	case *Conditional:
		add(&x.Cond)
		add(&x.True)
		add(&x.False)
	case *MethodPointer:
		add(&x.Instance)
	case *StackAlloc:
		add(&x.Size)
	case *Assignment:
		add(&x.Target)
		add(&x.Source)
	case *Intrinsic:
		addAll(x.Args)
	}
	return slots
}

// ChildBlocks returns the blocks nested directly in s.
func ChildBlocks(s Stmt) []*Block {
	var blocks []*Block
	add := func(b *Block) {
		if b != nil {
			blocks = append(blocks, b)
		}
	}
	switch x := s.(type) {
	case *Block:
		for _, st := range x.Stmts {
			if b, ok := st.(*Block); ok {
				blocks = append(blocks, b)
			}
		}
	case *If:
		add(x.Then)
		add(x.Else)
	case *Switch:
		for _, c := range x.Cases {
			add(c.Body)
		}
	case *Try:
		add(x.Body)
		for _, c := range x.Catches {
			add(c.FilterBody)
			add(c.Body)
		}
		add(x.Finally)
		add(x.Fault)
	case *While:
		add(x.Body)
	case *DoWhile:
		add(x.Body)
	case *For:
		add(x.Body)
	}
	return blocks
}

// Inspect traverses n in depth-first order, calling f for every node. When f
// returns false the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch x := n.(type) {
	case *Block:
		for _, s := range x.Stmts {
			Inspect(s, f)
		}
		return
	case *SwitchTable:
		Inspect(x.Value, f)
		for _, g := range x.Targets {
			Inspect(g, f)
		}
		return
	case *For:
		if x.Init != nil {
			Inspect(x.Init, f)
		}
		if x.Cond != nil {
			Inspect(x.Cond, f)
		}
		if x.Incr != nil {
			Inspect(x.Incr, f)
		}
		Inspect(x.Body, f)
		return
	case *Try:
		Inspect(x.Body, f)
		for _, c := range x.Catches {
			if c.FilterBody != nil {
				Inspect(c.FilterBody, f)
			}
			if c.Filter != nil {
				Inspect(c.Filter, f)
			}
			Inspect(c.Body, f)
		}
		if x.Finally != nil {
			Inspect(x.Finally, f)
		}
		if x.Fault != nil {
			Inspect(x.Fault, f)
		}
		return
	case Stmt:
		for _, p := range ExprSlots(x) {
			Inspect(*p, f)
		}
		for _, b := range ChildBlocks(x) {
			Inspect(b, f)
		}
	case Expr:
		for _, p := range ChildSlots(x) {
			Inspect(*p, f)
		}
	}
}

// RewriteExpr replaces every node of e, children first, by f's result.
func RewriteExpr(e Expr, f func(Expr) Expr) Expr {
	if e == nil {
		return nil
	}
	for _, p := range ChildSlots(e) {
		*p = RewriteExpr(*p, f)
	}
	return f(e)
}

// ContainsPlaceholder reports whether a PopValue or DupValue occurs in e.
func ContainsPlaceholder(e Expr) bool {
	found := false
	Inspect(e, func(n Node) bool {
		if x, ok := n.(Expr); ok && IsPlaceholder(x) {
			found = true
		}
		return !found
	})
	return found
}

// References reports whether e reads or writes def.
func References(e Node, def metadata.Definition) bool {
	found := false
	Inspect(e, func(n Node) bool {
		if b, ok := n.(*Bound); ok && b.Def == def {
			found = true
		}
		return !found
	})
	return found
}

// IsPure reports whether evaluating e has no side effects and cannot throw.
func IsPure(e Expr) bool {
	switch x := e.(type) {
	case *Constant, *This, *TypeOf, *SizeOf, *TokenOf, *DefaultValue:
		return true
	case *Bound:
		if x.Instance != nil {
			return false
		}
		switch x.Def.(type) {
		case *Temp, *metadata.Local, *metadata.Parameter:
			return true
		}
	}
	return false
}
