package ast

import (
	"github.com/bnb-chain/ildecompiler/core/metadata"
)

// UnaryOp is the operator of a Unary expression.
type UnaryOp uint8

const (
	Neg        UnaryOp = iota // -x
	Complement                // ~x
	LogicalNot                // !x
)

// BinaryOp is the operator of a Binary expression.
type BinaryOp uint8

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Rem
	And
	Or
	Xor
	Shl
	Shr
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	LogicalAnd
	LogicalOr
)

var binaryOpText = [...]string{
	Add: "+", Sub: "-", Mul: "*", Div: "/", Rem: "%",
	And: "&", Or: "|", Xor: "^", Shl: "<<", Shr: ">>",
	Eq: "==", Ne: "!=", Lt: "<", Le: "<=", Gt: ">", Ge: ">=",
	LogicalAnd: "&&", LogicalOr: "||",
}

func (op BinaryOp) String() string { return binaryOpText[op] }

// IsComparison reports whether op yields a boolean from two operands.
func (op BinaryOp) IsComparison() bool { return op >= Eq && op <= Ge }

// IsLogical reports whether op is a short-circuit boolean operator.
func (op BinaryOp) IsLogical() bool { return op == LogicalAnd || op == LogicalOr }

// Negate returns the comparison testing the opposite outcome. Ordered
// comparisons of floating point values are not exactly negatable and the
// caller is expected to know its operands.
func (op BinaryOp) Negate() (BinaryOp, bool) {
	switch op {
	case Eq:
		return Ne, true
	case Ne:
		return Eq, true
	case Lt:
		return Ge, true
	case Le:
		return Gt, true
	case Gt:
		return Le, true
	case Ge:
		return Lt, true
	}
	return op, false
}

// ConvKind distinguishes the conversion forms.
type ConvKind uint8

const (
	Convert   ConvKind = iota // numeric conversion
	Cast                      // checked reference cast
	As                        // isinst
	BoxValue                  // box
	UnboxPtr                  // unbox, yields a managed pointer
	UnboxCopy                 // unbox.any
)

// Constant is a literal. Value is nil (null), bool, int32, int64, float32,
// float64 or string.
type Constant struct {
	TypeInfo
	Value any
}

// This is the implicit instance argument.
type This struct {
	TypeInfo
}

// Bound is a reference to a definition: a parameter, local, field or temp.
// Instance is set for instance fields.
type Bound struct {
	TypeInfo
	Def      metadata.Definition
	Instance Expr
}

// ArrayIndexer is array[indices...].
type ArrayIndexer struct {
	TypeInfo
	Array   Expr
	Indices []Expr
}

type Unary struct {
	TypeInfo
	Op      UnaryOp
	Operand Expr
}

type Binary struct {
	TypeInfo
	Op       BinaryOp
	Left     Expr
	Right    Expr
	Unsigned bool
	Checked  bool
}

// Conversion converts Operand to Target.
type Conversion struct {
	TypeInfo
	Kind     ConvKind
	Operand  Expr
	Target   *metadata.Type
	Checked  bool
	Unsigned bool
}

type Call struct {
	TypeInfo
	Method      *metadata.Method
	Instance    Expr
	Args        []Expr
	Virtual     bool
	Tail        bool
	Constrained *metadata.Type
}

// PointerCall is an indirect call through a function pointer.
type PointerCall struct {
	TypeInfo
	Signature *metadata.Method
	Pointer   Expr
	Args      []Expr
}

type NewObject struct {
	TypeInfo
	Ctor *metadata.Method
	Args []Expr
}

// NewArray creates an array of Elem. Initializers, when present, are the
// folded element values of an array initializer.
type NewArray struct {
	TypeInfo
	Elem         *metadata.Type
	Sizes        []Expr
	Initializers []Expr
}

type Length struct {
	TypeInfo
	Array Expr
}

type AddressOf struct {
	TypeInfo
	Operand Expr
}

// Deref reads or, as an assignment target, writes through a pointer.
type Deref struct {
	TypeInfo
	Operand  Expr
	Volatile bool
}

type Conditional struct {
	TypeInfo
	Cond  Expr
	True  Expr
	False Expr
}

// PopValue stands for the value on top of the operand stack. When
// CaughtException is set the pop may also be satisfied by the exception
// object delivered to a handler on an empty stack.
type PopValue struct {
	TypeInfo
	CaughtException bool
}

// DupValue stands for the value on top of the operand stack without
// consuming it.
type DupValue struct {
	TypeInfo
}

// CaughtException is the exception object delivered to a handler.
type CaughtException struct {
	TypeInfo
}

// TypeOf is typeof(Operand), the source form of ldtoken on a type.
type TypeOf struct {
	TypeInfo
	Operand *metadata.Type
}

type SizeOf struct {
	TypeInfo
	Operand *metadata.Type
}

// TokenOf is a runtime handle of a field or method.
type TokenOf struct {
	TypeInfo
	Token any
}

// MethodPointer is the address of a method (ldftn, ldvirtftn).
type MethodPointer struct {
	TypeInfo
	Method   *metadata.Method
	Instance Expr
}

type StackAlloc struct {
	TypeInfo
	Size Expr
}

// DefaultValue is default(T) for T its own type.
type DefaultValue struct {
	TypeInfo
}

// Assignment stores Source into Target. Target is a Bound, ArrayIndexer or
// Deref.
type Assignment struct {
	TypeInfo
	Target Expr
	Source Expr
}

// Intrinsic covers the operations with no source form (cpblk, initblk,
// arglist, mkrefany, refanyval, refanytype, ckfinite).
type Intrinsic struct {
	TypeInfo
	Name string
	Args []Expr
}

func (*Constant) node()        {}
func (*This) node()            {}
func (*Bound) node()           {}
func (*ArrayIndexer) node()    {}
func (*Unary) node()           {}
func (*Binary) node()          {}
func (*Conversion) node()      {}
func (*Call) node()            {}
func (*PointerCall) node()     {}
func (*NewObject) node()       {}
func (*NewArray) node()        {}
func (*Length) node()          {}
func (*AddressOf) node()       {}
func (*Deref) node()           {}
func (*Conditional) node()     {}
func (*PopValue) node()        {}
func (*DupValue) node()        {}
func (*CaughtException) node() {}
func (*TypeOf) node()          {}
func (*SizeOf) node()          {}
func (*TokenOf) node()         {}
func (*MethodPointer) node()   {}
func (*StackAlloc) node()      {}
func (*DefaultValue) node()    {}
func (*Assignment) node()      {}
func (*Intrinsic) node()       {}

func (*Constant) exprNode()        {}
func (*This) exprNode()            {}
func (*Bound) exprNode()           {}
func (*ArrayIndexer) exprNode()    {}
func (*Unary) exprNode()           {}
func (*Binary) exprNode()          {}
func (*Conversion) exprNode()      {}
func (*Call) exprNode()            {}
func (*PointerCall) exprNode()     {}
func (*NewObject) exprNode()       {}
func (*NewArray) exprNode()        {}
func (*Length) exprNode()          {}
func (*AddressOf) exprNode()       {}
func (*Deref) exprNode()           {}
func (*Conditional) exprNode()     {}
func (*PopValue) exprNode()        {}
func (*DupValue) exprNode()        {}
func (*CaughtException) exprNode() {}
func (*TypeOf) exprNode()          {}
func (*SizeOf) exprNode()          {}
func (*TokenOf) exprNode()         {}
func (*MethodPointer) exprNode()   {}
func (*StackAlloc) exprNode()      {}
func (*DefaultValue) exprNode()    {}
func (*Assignment) exprNode()      {}
func (*Intrinsic) exprNode()       {}

// Constructors for the common shapes.

func NewConstant(v any, t *metadata.Type) *Constant {
	return &Constant{TypeInfo: TypeInfo{T: t}, Value: v}
}

func Null() *Constant { return NewConstant(nil, metadata.TypeNull) }

func Bool(v bool) *Constant { return NewConstant(v, metadata.TypeBoolean) }

func Int32(v int32) *Constant { return NewConstant(v, metadata.TypeInt32) }

func Ref(def metadata.Definition) *Bound {
	return &Bound{TypeInfo: TypeInfo{T: def.DefinitionType()}, Def: def}
}

func Assign(target, source Expr) *Assignment {
	return &Assignment{TypeInfo: TypeInfo{T: target.Type()}, Target: target, Source: source}
}

func NewBinary(op BinaryOp, l, r Expr) *Binary {
	b := &Binary{Op: op, Left: l, Right: r}
	if op.IsComparison() || op.IsLogical() {
		b.T = metadata.TypeBoolean
	}
	return b
}

func Default(t *metadata.Type) *DefaultValue {
	return &DefaultValue{TypeInfo: TypeInfo{T: t}}
}

// IntValue returns the integral value of a constant.
func (c *Constant) IntValue() (int64, bool) {
	switch v := c.Value.(type) {
	case int32:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

// IsZero reports whether c is the constant 0, false or null.
func (c *Constant) IsZero() bool {
	switch v := c.Value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case int32:
		return v == 0
	case int64:
		return v == 0
	}
	return false
}

// Not returns the logical negation of a boolean expression. Double negation,
// constants and comparisons fold; && and || are negated operand by operand.
func Not(e Expr) Expr {
	switch x := e.(type) {
	case *Unary:
		if x.Op == LogicalNot {
			return x.Operand
		}
	case *Constant:
		if b, ok := x.Value.(bool); ok {
			return Bool(!b)
		}
	case *Binary:
		switch x.Op {
		case LogicalAnd:
			return NewBinary(LogicalOr, Not(x.Left), Not(x.Right))
		case LogicalOr:
			return NewBinary(LogicalAnd, Not(x.Left), Not(x.Right))
		}
		if neg, ok := x.Op.Negate(); ok && !x.Left.Type().IsFloat() {
			return &Binary{TypeInfo: TypeInfo{T: metadata.TypeBoolean}, Op: neg, Left: x.Left, Right: x.Right, Unsigned: x.Unsigned}
		}
	}
	return &Unary{TypeInfo: TypeInfo{T: metadata.TypeBoolean}, Op: LogicalNot, Operand: e}
}

// IsPlaceholder reports whether e is a stack placeholder.
func IsPlaceholder(e Expr) bool {
	switch e.(type) {
	case *PopValue, *DupValue:
		return true
	}
	return false
}
