// Package metadata holds the read-only type, method, field and local identities
// the decompiler consumes. Values in this package are created once by the host
// (or interned here) and never mutated afterwards, so they are safe to share
// between concurrently decompiled method bodies.
package metadata

import (
	"fmt"
	"strings"
	"sync"
)

// TypeCode classifies a type.
type TypeCode uint8

const (
	Unknown TypeCode = iota // not yet inferred
	Void
	Boolean
	Char
	Int8
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Int64
	UInt64
	IntPtr
	UIntPtr
	Float32
	Float64
	String
	Object
	TypedReference
	Class
	ValueType
	Pointer
	ByRef
	Array
	Null        // the type of the null literal
	Polymorphic // two unresolved stack slots merged at a join
)

var typeCodeNames = map[TypeCode]string{
	Unknown:        "?",
	Void:           "void",
	Boolean:        "bool",
	Char:           "char",
	Int8:           "sbyte",
	UInt8:          "byte",
	Int16:          "short",
	UInt16:         "ushort",
	Int32:          "int",
	UInt32:         "uint",
	Int64:          "long",
	UInt64:         "ulong",
	IntPtr:         "nint",
	UIntPtr:        "nuint",
	Float32:        "float",
	Float64:        "double",
	String:         "string",
	Object:         "object",
	TypedReference: "TypedReference",
	Null:           "null",
	Polymorphic:    "var",
}

// String returns the short source name of a primitive code.
func (c TypeCode) String() string {
	if name, ok := typeCodeNames[c]; ok {
		return name
	}
	switch c {
	case Class:
		return "class"
	case ValueType:
		return "struct"
	case Pointer:
		return "pointer"
	case ByRef:
		return "byref"
	case Array:
		return "array"
	}
	return fmt.Sprintf("TypeCode(%d)", uint8(c))
}

// Type is a type identity. Primitive types are singletons; constructed types
// (pointers, by-refs, arrays) are interned so that pointer equality holds for
// structurally equal types built through this package.
type Type struct {
	Code TypeCode
	Name string // full name for named types
	Elem *Type  // element of pointers, by-refs and arrays
	Rank int    // array rank, 1 for vectors
	Base *Type  // base class, optional
}

var (
	TypeUnknown        = &Type{Code: Unknown}
	TypeVoid           = &Type{Code: Void, Name: "System.Void"}
	TypeBoolean        = &Type{Code: Boolean, Name: "System.Boolean"}
	TypeChar           = &Type{Code: Char, Name: "System.Char"}
	TypeInt8           = &Type{Code: Int8, Name: "System.SByte"}
	TypeUInt8          = &Type{Code: UInt8, Name: "System.Byte"}
	TypeInt16          = &Type{Code: Int16, Name: "System.Int16"}
	TypeUInt16         = &Type{Code: UInt16, Name: "System.UInt16"}
	TypeInt32          = &Type{Code: Int32, Name: "System.Int32"}
	TypeUInt32         = &Type{Code: UInt32, Name: "System.UInt32"}
	TypeInt64          = &Type{Code: Int64, Name: "System.Int64"}
	TypeUInt64         = &Type{Code: UInt64, Name: "System.UInt64"}
	TypeIntPtr         = &Type{Code: IntPtr, Name: "System.IntPtr"}
	TypeUIntPtr        = &Type{Code: UIntPtr, Name: "System.UIntPtr"}
	TypeFloat32        = &Type{Code: Float32, Name: "System.Single"}
	TypeFloat64        = &Type{Code: Float64, Name: "System.Double"}
	TypeString         = &Type{Code: String, Name: "System.String"}
	TypeObject         = &Type{Code: Object, Name: "System.Object"}
	TypeTypedReference = &Type{Code: TypedReference, Name: "System.TypedReference"}
	TypeNull           = &Type{Code: Null}
	TypePolymorphic    = &Type{Code: Polymorphic}

	// Well-known reference types used by the translator.
	TypeSystemType          = &Type{Code: Class, Name: "System.Type", Base: TypeObject}
	TypeException           = &Type{Code: Class, Name: "System.Exception", Base: TypeObject}
	TypeRuntimeFieldHandle  = &Type{Code: ValueType, Name: "System.RuntimeFieldHandle"}
	TypeRuntimeTypeHandle   = &Type{Code: ValueType, Name: "System.RuntimeTypeHandle"}
	TypeRuntimeMethodHandle = &Type{Code: ValueType, Name: "System.RuntimeMethodHandle"}
)

// NewClass declares a reference type. A nil base defaults to System.Object.
func NewClass(name string, base *Type) *Type {
	if base == nil {
		base = TypeObject
	}
	return &Type{Code: Class, Name: name, Base: base}
}

// NewValueType declares a value type.
func NewValueType(name string) *Type {
	return &Type{Code: ValueType, Name: name}
}

type constructedKey struct {
	code TypeCode
	elem *Type
	rank int
}

var constructed sync.Map // constructedKey -> *Type

func intern(code TypeCode, elem *Type, rank int) *Type {
	key := constructedKey{code: code, elem: elem, rank: rank}
	if t, ok := constructed.Load(key); ok {
		return t.(*Type)
	}
	t, _ := constructed.LoadOrStore(key, &Type{Code: code, Elem: elem, Rank: rank})
	return t.(*Type)
}

// PointerTo returns the unmanaged pointer type to elem.
func PointerTo(elem *Type) *Type { return intern(Pointer, elem, 0) }

// ByRefTo returns the managed pointer type to elem.
func ByRefTo(elem *Type) *Type { return intern(ByRef, elem, 0) }

// ArrayOf returns the array type with the given element and rank.
func ArrayOf(elem *Type, rank int) *Type {
	if rank < 1 {
		rank = 1
	}
	return intern(Array, elem, rank)
}

// Equal reports whether two types denote the same type.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Code != b.Code {
		return false
	}
	switch a.Code {
	case Pointer, ByRef:
		return Equal(a.Elem, b.Elem)
	case Array:
		return a.Rank == b.Rank && Equal(a.Elem, b.Elem)
	case Class, ValueType:
		return a.Name == b.Name
	}
	return true
}

// IsResolved reports whether t carries usable type information.
func (t *Type) IsResolved() bool {
	return t != nil && t.Code != Unknown && t.Code != Null && t.Code != Polymorphic
}

// IsInteger reports whether t is an integral primitive (char and bool excluded).
func (t *Type) IsInteger() bool {
	if t == nil {
		return false
	}
	switch t.Code {
	case Int8, UInt8, Int16, UInt16, Int32, UInt32, Int64, UInt64, IntPtr, UIntPtr:
		return true
	}
	return false
}

// IsUnsigned reports whether t is an unsigned integral type. Char is unsigned.
func (t *Type) IsUnsigned() bool {
	if t == nil {
		return false
	}
	switch t.Code {
	case UInt8, UInt16, UInt32, UInt64, UIntPtr, Char, Boolean:
		return true
	}
	return false
}

// IsFloat reports whether t is a floating point type.
func (t *Type) IsFloat() bool {
	return t != nil && (t.Code == Float32 || t.Code == Float64)
}

// IsNumeric reports whether t takes part in arithmetic promotion.
func (t *Type) IsNumeric() bool {
	return t.IsInteger() || t.IsFloat() || (t != nil && (t.Code == Char || t.Code == Boolean))
}

// IsReference reports whether values of t are object references.
func (t *Type) IsReference() bool {
	if t == nil {
		return false
	}
	switch t.Code {
	case String, Object, Class, Array, Null:
		return true
	}
	return false
}

// IsPointer reports whether t is a managed or unmanaged pointer.
func (t *Type) IsPointer() bool {
	return t != nil && (t.Code == Pointer || t.Code == ByRef)
}

// Size returns the storage size in bytes of a primitive, or 0 when unknown.
func (t *Type) Size() int {
	if t == nil {
		return 0
	}
	switch t.Code {
	case Boolean, Int8, UInt8:
		return 1
	case Char, Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Int64, UInt64, Float64:
		return 8
	case IntPtr, UIntPtr, Pointer, ByRef:
		return 8
	}
	return 0
}

// String renders t in C# syntax.
func (t *Type) String() string {
	if t == nil {
		return "?"
	}
	switch t.Code {
	case Class, ValueType:
		return t.Name
	case Pointer:
		return t.Elem.String() + "*"
	case ByRef:
		return "ref " + t.Elem.String()
	case Array:
		return t.Elem.String() + "[" + strings.Repeat(",", t.Rank-1) + "]"
	}
	return t.Code.String()
}
