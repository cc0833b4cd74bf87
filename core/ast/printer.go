package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bnb-chain/ildecompiler/core/metadata"
)

// Format renders n as a C#-like listing. Chain blocks are printed inline,
// so the output does not depend on how basic blocks are nested.
func Format(n Node) string {
	p := &printer{}
	switch x := n.(type) {
	case Stmt:
		p.stmt(x)
	case Expr:
		p.WriteString(FormatExpr(x))
	}
	return p.String()
}

// FormatExpr renders one expression.
func FormatExpr(e Expr) string {
	switch x := e.(type) {
	case nil:
		return "<nil>"
	case *Constant:
		return formatConstant(x)
	case *This:
		return "this"
	case *Bound:
		name := x.Def.DefinitionName()
		if x.Instance != nil {
			return operand(x.Instance) + "." + name
		}
		if f, ok := x.Def.(*metadata.Field); ok && f.DeclaringType != nil {
			return f.DeclaringType.String() + "." + name
		}
		return name
	case *ArrayIndexer:
		return operand(x.Array) + "[" + exprList(x.Indices) + "]"
	case *Unary:
		ops := [...]string{Neg: "-", Complement: "~", LogicalNot: "!"}
		return ops[x.Op] + operand(x.Operand)
	case *Binary:
		return operand(x.Left) + " " + x.Op.String() + " " + operand(x.Right)
	case *Conversion:
		switch x.Kind {
		case As:
			return operand(x.Operand) + " as " + x.Target.String()
		case BoxValue:
			return "(object)" + operand(x.Operand)
		case UnboxPtr:
			return "unbox<" + x.Target.String() + ">(" + FormatExpr(x.Operand) + ")"
		}
		return "(" + x.Target.String() + ")" + operand(x.Operand)
	case *Call:
		recv := ""
		switch {
		case x.Instance != nil:
			recv = operand(x.Instance) + "."
		case x.Method.DeclaringType != nil:
			recv = x.Method.DeclaringType.String() + "."
		}
		return recv + x.Method.Name + "(" + exprList(x.Args) + ")"
	case *PointerCall:
		return "(*" + FormatExpr(x.Pointer) + ")(" + exprList(x.Args) + ")"
	case *NewObject:
		return "new " + x.Ctor.DeclaringType.String() + "(" + exprList(x.Args) + ")"
	case *NewArray:
		if x.Initializers != nil {
			return "new " + x.Elem.String() + "[] { " + exprList(x.Initializers) + " }"
		}
		return "new " + x.Elem.String() + "[" + exprList(x.Sizes) + "]"
	case *Length:
		return operand(x.Array) + ".Length"
	case *AddressOf:
		return "&" + operand(x.Operand)
	case *Deref:
		return "*" + operand(x.Operand)
	case *Conditional:
		return operand(x.Cond) + " ? " + operand(x.True) + " : " + operand(x.False)
	case *PopValue:
		return "<pop>"
	case *DupValue:
		return "<dup>"
	case *CaughtException:
		return "<exception>"
	case *TypeOf:
		return "typeof(" + x.Operand.String() + ")"
	case *SizeOf:
		return "sizeof(" + x.Operand.String() + ")"
	case *TokenOf:
		return fmt.Sprintf("tokenof(%v)", x.Token)
	case *MethodPointer:
		return "&" + x.Method.String()
	case *StackAlloc:
		return "stackalloc byte[" + FormatExpr(x.Size) + "]"
	case *DefaultValue:
		return "default(" + x.Type().String() + ")"
	case *Assignment:
		return FormatExpr(x.Target) + " = " + FormatExpr(x.Source)
	case *Intrinsic:
		return "__" + x.Name + "(" + exprList(x.Args) + ")"
	}
	return fmt.Sprintf("<%T>", e)
}

func operand(e Expr) string {
	switch e.(type) {
	case *Binary, *Conditional, *Assignment, *Conversion:
		return "(" + FormatExpr(e) + ")"
	}
	return FormatExpr(e)
}

func exprList(list []Expr) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = FormatExpr(e)
	}
	return strings.Join(parts, ", ")
}

func formatConstant(c *Constant) string {
	v := c.Value
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		switch c.Type().Code {
		case metadata.UInt64:
			return strconv.FormatUint(uint64(x), 10) + "UL"
		case metadata.UInt32:
			return strconv.FormatInt(x, 10) + "U"
		}
		return strconv.FormatInt(x, 10) + "L"
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32) + "f"
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return strconv.Quote(x)
	}
	return fmt.Sprint(v)
}

type printer struct {
	strings.Builder
	depth int
}

func (p *printer) line(format string, args ...any) {
	p.WriteString(strings.Repeat("    ", p.depth))
	fmt.Fprintf(p, format, args...)
	p.WriteByte('\n')
}

func (p *printer) body(b *Block) {
	p.depth++
	if b != nil {
		p.stmt(b)
	}
	p.depth--
}

func (p *printer) stmt(s Stmt) {
	switch x := s.(type) {
	case *Block:
		for _, st := range x.Stmts {
			p.stmt(st)
		}
	case *ExprStmt:
		p.line("%s;", FormatExpr(x.X))
	case *Push:
		p.line("push %s;", FormatExpr(x.X))
	case *Labeled:
		p.line("%v:", x.Label)
	case *Goto:
		p.line("goto %v;", x.Target)
	case *If:
		p.line("if (%s) {", FormatExpr(x.Cond))
		p.body(x.Then)
		if x.Else != nil && len(x.Else.Stmts) > 0 {
			p.line("} else {")
			p.body(x.Else)
		}
		p.line("}")
	case *SwitchTable:
		targets := make([]string, len(x.Targets))
		for i, g := range x.Targets {
			targets[i] = g.Target.String()
		}
		p.line("switch (%s) goto %s;", FormatExpr(x.Value), strings.Join(targets, ", "))
	case *Switch:
		p.line("switch (%s) {", FormatExpr(x.Value))
		for _, c := range x.Cases {
			if c.Default {
				p.line("default:")
			} else {
				p.line("case %d:", c.Value)
			}
			p.body(c.Body)
		}
		p.line("}")
	case *Try:
		p.line("try {")
		p.body(x.Body)
		for _, c := range x.Catches {
			head := "catch"
			switch {
			case c.Type != nil && c.Var != nil:
				head += " (" + c.Type.String() + " " + c.Var.DefinitionName() + ")"
			case c.Type != nil:
				head += " (" + c.Type.String() + ")"
			case c.Var != nil:
				head += " (" + c.Var.DefinitionName() + ")"
			}
			if c.Filter != nil {
				if c.FilterBody != nil && len(c.FilterBody.Stmts) > 0 {
					p.line("} filter {")
					p.body(c.FilterBody)
				}
				head += " when (" + FormatExpr(c.Filter) + ")"
			}
			p.line("} %s {", head)
			p.body(c.Body)
		}
		if x.Finally != nil {
			p.line("} finally {")
			p.body(x.Finally)
		}
		if x.Fault != nil {
			p.line("} fault {")
			p.body(x.Fault)
		}
		p.line("}")
	case *LocalDecl:
		decl := x.Var.DefinitionType().String() + " " + x.Var.DefinitionName()
		if x.Init != nil {
			decl += " = " + FormatExpr(x.Init)
		}
		p.line("%s;", decl)
	case *Return:
		if x.Value == nil {
			p.line("return;")
		} else {
			p.line("return %s;", FormatExpr(x.Value))
		}
	case *Throw:
		p.line("throw %s;", FormatExpr(x.Value))
	case *Rethrow:
		p.line("throw;")
	case *EndFilter:
		p.line("endfilter %s;", FormatExpr(x.Value))
	case *EndFinally:
		p.line("endfinally;")
	case *Empty:
		p.line(";")
	case *DebuggerBreak:
		p.line("Debugger.Break();")
	case *While:
		p.line("while (%s) {", FormatExpr(x.Cond))
		p.body(x.Body)
		p.line("}")
	case *DoWhile:
		p.line("do {")
		p.body(x.Body)
		p.line("} while (%s);", FormatExpr(x.Cond))
	case *For:
		p.line("for (%s; %s; %s) {", inline(x.Init), FormatExpr(x.Cond), inline(x.Incr))
		p.body(x.Body)
		p.line("}")
	default:
		p.line("<%T>", s)
	}
}

func inline(s Stmt) string {
	if s == nil {
		return ""
	}
	return strings.TrimSuffix(strings.TrimSpace(Format(s)), ";")
}
