package decompiler

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/bnb-chain/ildecompiler/core/ast"
	"github.com/bnb-chain/ildecompiler/core/metadata"
)

// maxInferRounds bounds the propagation of temp types through assignments.
const maxInferRounds = 4

// inferTypes recomputes the result type of every expression, operands
// first. Temps whose type is still unknown take the type of the values
// stored to them, which may resolve further expressions, so the walk is
// repeated while that happens.
func (c *context) inferTypes(root *ast.Block) {
	c.boolResults(root)
	for round := 0; round < maxInferRounds; round++ {
		forEachExpr(root, func(p *ast.Expr) { inferExpr(*p) })
		if !c.retypeTemps(root) {
			return
		}
	}
}

// forEachExpr calls f for every top level expression of the statements in
// root, catch filters included.
func forEachExpr(root *ast.Block, f func(*ast.Expr)) {
	ast.Inspect(root, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.Try:
			for _, cc := range x.Catches {
				if cc.Filter != nil {
					f(&cc.Filter)
				}
			}
		case ast.Stmt:
			for _, p := range ast.ExprSlots(x) {
				f(p)
			}
		case ast.Expr:
			return false
		}
		return true
	})
}

// retypeTemps gives unresolved temps the merged type of their sources.
func (c *context) retypeTemps(root *ast.Block) bool {
	found := make(map[*ast.Temp]*metadata.Type)
	note := func(v metadata.Definition, src ast.Expr) {
		t, ok := v.(*ast.Temp)
		if !ok || t.Ty.IsResolved() || !src.Type().IsResolved() {
			return
		}
		if prev, ok := found[t]; ok {
			found[t] = metadata.Merge(prev, src.Type())
		} else {
			found[t] = src.Type()
		}
	}
	ast.Inspect(root, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.ExprStmt:
			if v := storedVar(x); v != nil {
				note(v, x.X.(*ast.Assignment).Source)
			}
		case *ast.LocalDecl:
			if x.Init != nil {
				note(x.Var, x.Init)
			}
		}
		return true
	})
	changed := false
	for t, ty := range found {
		if ty.IsResolved() {
			t.Ty = ty
			changed = true
		}
	}
	return changed
}

// inferExpr types e from its operands.
func inferExpr(e ast.Expr) {
	for _, p := range ast.ChildSlots(e) {
		inferExpr(*p)
	}
	switch x := e.(type) {
	case *ast.Bound:
		if t := x.Def.DefinitionType(); t.IsResolved() {
			x.T = t
		}
	case *ast.Binary:
		switch {
		case x.Op.IsComparison(), x.Op.IsLogical():
			x.T = metadata.TypeBoolean
		case x.Op == ast.Shl || x.Op == ast.Shr:
			if l := x.Left.Type(); l.IsResolved() {
				x.T = metadata.StackType(l)
			}
		default:
			if t := metadata.PromoteBinary(x.Left.Type(), x.Right.Type()); t.IsResolved() {
				x.T = t
			}
		}
	case *ast.Unary:
		if x.Op == ast.LogicalNot {
			x.T = metadata.TypeBoolean
		} else if t := x.Operand.Type(); t.IsResolved() {
			x.T = metadata.StackType(t)
		}
	case *ast.Conversion:
		switch x.Kind {
		case ast.Convert, ast.Cast, ast.As, ast.UnboxCopy:
			x.T = x.Target
		case ast.UnboxPtr:
			x.T = metadata.ByRefTo(x.Target)
		case ast.BoxValue:
			if !x.T.IsResolved() {
				x.T = metadata.TypeObject
			}
		}
	case *ast.Call:
		if x.Method.ReturnType != nil {
			x.T = x.Method.ReturnType
		}
	case *ast.PointerCall:
		if x.Signature.ReturnType != nil {
			x.T = x.Signature.ReturnType
		}
	case *ast.NewObject:
		x.T = x.Ctor.DeclaringType
	case *ast.Deref:
		if !x.Type().IsResolved() {
			x.T = elemOf(x.Operand.Type())
		}
	case *ast.ArrayIndexer:
		if !x.Type().IsResolved() {
			x.T = elemOf(x.Array.Type())
		}
	case *ast.AddressOf:
		if t := x.Operand.Type(); t.IsResolved() {
			x.T = metadata.ByRefTo(t)
		}
	case *ast.Conditional:
		if t := x.True.Type(); t.IsResolved() {
			x.T = t
		} else if t := x.False.Type(); t.IsResolved() {
			x.T = t
		}
	case *ast.Assignment:
		if t := x.Target.Type(); t.IsResolved() {
			x.T = t
		}
	case *ast.Length:
		x.T = metadata.TypeInt32
	}
}

// boolResults retypes as bool the temps of a bool method that only carry a
// value to a return, directly or through other such temps, when every value
// stored to them is a bool or the constant 0 or 1. The constants become
// false and true.
func (c *context) boolResults(root *ast.Block) bool {
	if c.method == nil || c.method.ReturnType == nil || c.method.ReturnType.Code != metadata.Boolean {
		return false
	}
	var (
		returned = mapset.NewThreadUnsafeSet[*ast.Temp]()
		escaped  = mapset.NewThreadUnsafeSet[*ast.Temp]()
		flows    = make(map[*ast.Temp][]*ast.Temp)
		stores   = make(map[*ast.Temp][]*ast.Expr)
	)
	tempOf := func(e ast.Expr) *ast.Temp {
		if bd, ok := e.(*ast.Bound); ok && bd.Instance == nil {
			t, _ := bd.Def.(*ast.Temp)
			return t
		}
		return nil
	}
	var visit func(n ast.Node) bool
	store := func(t *ast.Temp, src *ast.Expr) {
		stores[t] = append(stores[t], src)
		if u := tempOf(*src); u != nil {
			flows[u] = append(flows[u], t)
			return
		}
		ast.Inspect(*src, visit)
	}
	visit = func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.Return:
			if t := tempOf(x.Value); t != nil {
				returned.Add(t)
				return false
			}
		case *ast.ExprStmt:
			if t, ok := storedVar(x).(*ast.Temp); ok {
				store(t, &x.X.(*ast.Assignment).Source)
				return false
			}
		case *ast.LocalDecl:
			if t, ok := x.Var.(*ast.Temp); ok && x.Init != nil {
				store(t, &x.Init)
				return false
			}
		case *ast.Bound:
			if t := tempOf(x); t != nil {
				escaped.Add(t)
			}
		}
		return true
	}
	ast.Inspect(root, visit)

	// Candidates are the temps whose value reaches a return and nothing else.
	cand := returned.Clone()
	for grown := true; grown; {
		grown = false
		for u, ts := range flows {
			for _, t := range ts {
				if cand.Contains(t) && !cand.Contains(u) {
					cand.Add(u)
					grown = true
				}
			}
		}
	}
	var fits func(e ast.Expr) bool
	fits = func(e ast.Expr) bool {
		switch x := e.(type) {
		case *ast.Constant:
			if v, ok := x.IntValue(); ok {
				return v == 0 || v == 1
			}
		case *ast.Conditional:
			return fits(x.True) && fits(x.False)
		}
		if t := tempOf(e); t != nil {
			return cand.Contains(t)
		}
		return e.Type().IsResolved() && metadata.IsAssignableTo(e.Type(), metadata.TypeBoolean)
	}
	for pruned := true; pruned; {
		pruned = false
		for _, t := range cand.ToSlice() {
			ok := !escaped.Contains(t)
			for _, u := range flows[t] {
				ok = ok && cand.Contains(u)
			}
			for _, src := range stores[t] {
				ok = ok && fits(*src)
			}
			if !ok {
				cand.Remove(t)
				pruned = true
			}
		}
	}
	changed := false
	cand.Each(func(t *ast.Temp) bool {
		for _, src := range stores[t] {
			*src = coerce(*src, metadata.TypeBoolean)
		}
		if t.Ty != metadata.TypeBoolean {
			t.Ty = metadata.TypeBoolean
			changed = true
		}
		return false
	})
	return changed
}
