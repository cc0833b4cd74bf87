package ast

// CloneExpr returns a deep copy of e. Definitions, types and methods are
// identities and are shared.
func CloneExpr(e Expr) Expr {
	if e == nil {
		return nil
	}
	var c Expr
	switch x := e.(type) {
	case *Constant:
		n := *x
		c = &n
	case *This:
		n := *x
		c = &n
	case *Bound:
		n := *x
		c = &n
	case *ArrayIndexer:
		n := *x
		n.Indices = cloneList(x.Indices)
		c = &n
	case *Unary:
		n := *x
		c = &n
	case *Binary:
		n := *x
		c = &n
	case *Conversion:
		n := *x
		c = &n
	case *Call:
		n := *x
		n.Args = cloneList(x.Args)
		c = &n
	case *PointerCall:
		n := *x
		n.Args = cloneList(x.Args)
		c = &n
	case *NewObject:
		n := *x
		n.Args = cloneList(x.Args)
		c = &n
	case *NewArray:
		n := *x
		n.Sizes = cloneList(x.Sizes)
		n.Initializers = cloneList(x.Initializers)
		c = &n
	case *Length:
		n := *x
		c = &n
	case *AddressOf:
		n := *x
		c = &n
	case *Deref:
		n := *x
		c = &n
	case *Conditional:
		n := *x
		c = &n
	case *PopValue:
		n := *x
		c = &n
	case *DupValue:
		n := *x
		c = &n
	case *CaughtException:
		n := *x
		c = &n
	case *TypeOf:
		n := *x
		c = &n
	case *SizeOf:
		n := *x
		c = &n
	case *TokenOf:
		n := *x
		c = &n
	case *MethodPointer:
		n := *x
		c = &n
	case *StackAlloc:
		n := *x
		c = &n
	case *DefaultValue:
		n := *x
		c = &n
	case *Assignment:
		n := *x
		c = &n
	case *Intrinsic:
		n := *x
		n.Args = cloneList(x.Args)
		c = &n
	default:
		panic("ast: unknown expression")
	}
	for _, p := range ChildSlots(c) {
		*p = CloneExpr(*p)
	}
	return c
}

func cloneList(list []Expr) []Expr {
	if list == nil {
		return nil
	}
	return append([]Expr(nil), list...)
}
