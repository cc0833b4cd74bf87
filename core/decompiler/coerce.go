package decompiler

import (
	"github.com/bnb-chain/ildecompiler/core/ast"
	"github.com/bnb-chain/ildecompiler/core/metadata"
)

// zeroOf returns the literal a value of type t is compared with to test it.
func zeroOf(t *metadata.Type) ast.Expr {
	switch {
	case t.IsReference():
		return ast.Null()
	case t.Code == metadata.Int64 || t.Code == metadata.UInt64:
		return ast.NewConstant(int64(0), t)
	case t.IsInteger() && t.Size() <= 4, t.Code == metadata.Char:
		return ast.Int32(0)
	case t.Code == metadata.Float32:
		return ast.NewConstant(float32(0), t)
	case t.Code == metadata.Float64:
		return ast.NewConstant(float64(0), t)
	}
	return ast.Default(t)
}

// asCondition turns a branch operand into a boolean: integers become x != 0,
// references x != null. A stack placeholder is typed bool so that the
// unstacker applies the same rule to the temp it resolves to.
func asCondition(e ast.Expr) ast.Expr {
	switch x := e.(type) {
	case *ast.PopValue:
		x.SetType(metadata.TypeBoolean)
		return x
	case *ast.Constant:
		switch x.Value.(type) {
		case bool:
			return x
		case nil:
			return ast.Bool(false)
		case int32, int64:
			return ast.Bool(!x.IsZero())
		case string:
			return ast.Bool(true)
		}
	}
	t := e.Type()
	if t.Code == metadata.Boolean || !t.IsResolved() && t.Code != metadata.Null {
		return e
	}
	return ast.NewBinary(ast.Ne, e, zeroOf(t))
}

// coerce adapts e to a destination of type target. Integer literals stored
// into booleans become true or false, the only adaptation the bytecode
// leaves implicit.
func coerce(e ast.Expr, target *metadata.Type) ast.Expr {
	if target == nil || target.Code != metadata.Boolean {
		return e
	}
	switch x := e.(type) {
	case *ast.Constant:
		if _, ok := x.IntValue(); ok {
			return ast.Bool(!x.IsZero())
		}
	case *ast.Conditional:
		x.True = coerce(x.True, target)
		x.False = coerce(x.False, target)
		x.SetType(target)
	}
	return e
}

// compare builds a comparison, folding the boolean idioms compilers emit:
// b == 0 becomes !b, b != 0 becomes b, and cgt.un x, null becomes x != null.
func compare(op ast.BinaryOp, a, b ast.Expr, unsigned bool) ast.Expr {
	if op == ast.Gt && unsigned {
		if c, ok := b.(*ast.Constant); ok && c.Value == nil {
			op = ast.Ne
		}
	}
	if a.Type().Code == metadata.Boolean {
		b = coerce(b, metadata.TypeBoolean)
	} else if b.Type().Code == metadata.Boolean {
		a = coerce(a, metadata.TypeBoolean)
	}
	if c, ok := b.(*ast.Constant); ok && a.Type().Code == metadata.Boolean {
		if v, isBool := c.Value.(bool); isBool {
			switch {
			case op == ast.Eq && !v, op == ast.Ne && v:
				return ast.Not(a)
			case op == ast.Ne && !v, op == ast.Eq && v:
				return a
			}
		}
	}
	cmp := ast.NewBinary(op, a, b)
	cmp.Unsigned = unsigned
	return cmp
}
