package metadata

// rank orders integral codes by width; signedness is handled separately.
func rank(t *Type) int {
	switch t.Code {
	case Boolean, Int8, UInt8:
		return 1
	case Char, Int16, UInt16:
		return 2
	case Int32, UInt32:
		return 4
	case IntPtr, UIntPtr:
		return 6
	case Int64, UInt64:
		return 8
	}
	return 0
}

// PromoteBinary returns the result type of an arithmetic or bitwise operator
// over operands of type a and b:
//
//	floats dominate integers, the wider float winning;
//	64-bit and pointer-sized operands dominate 32-bit ones;
//	a signed operand makes the result signed;
//	pairs of small unsigned operands promote to uint.
//
// Unresolved operands yield the other operand's type.
func PromoteBinary(a, b *Type) *Type {
	switch {
	case !a.IsResolved() && !b.IsResolved():
		return TypeUnknown
	case !a.IsResolved():
		return b
	case !b.IsResolved():
		return a
	}
	if a.Code == Boolean && b.Code == Boolean {
		return TypeBoolean
	}
	if a.IsPointer() {
		return a
	}
	if b.IsPointer() {
		return b
	}
	if a.IsFloat() || b.IsFloat() {
		if a.Code == Float64 || b.Code == Float64 {
			return TypeFloat64
		}
		return TypeFloat32
	}
	if !a.IsNumeric() || !b.IsNumeric() {
		return a
	}
	ra, rb := rank(a), rank(b)
	signed := !a.IsUnsigned() || !b.IsUnsigned()
	width := ra
	if rb > width {
		width = rb
	}
	switch {
	case width == 8:
		if signed {
			return TypeInt64
		}
		return TypeUInt64
	case width == 6:
		if signed {
			return TypeIntPtr
		}
		return TypeUIntPtr
	case signed:
		return TypeInt32
	}
	return TypeUInt32
}

// Merge returns the least upper bound of two stack slot types meeting at a
// join. Unresolved sides and null against a value type give Polymorphic;
// null against a reference type gives the reference type.
func Merge(a, b *Type) *Type {
	if Equal(a, b) {
		if a == nil {
			return TypePolymorphic
		}
		return a
	}
	if a == nil || b == nil || a.Code == Unknown || b.Code == Unknown ||
		a.Code == Polymorphic || b.Code == Polymorphic {
		return TypePolymorphic
	}
	switch {
	case a.Code == Null && b.IsReference():
		return b
	case b.Code == Null && a.IsReference():
		return a
	case a.Code == Null || b.Code == Null:
		return TypePolymorphic
	}
	if a.IsReference() && b.IsReference() {
		return CommonBase(a, b)
	}
	if a.IsNumeric() && b.IsNumeric() {
		return PromoteBinary(a, b)
	}
	return TypePolymorphic
}

// CommonBase walks the Base chains of two reference types and returns the
// most derived type both inherit from, or object.
func CommonBase(a, b *Type) *Type {
	for x := a; x != nil; x = x.Base {
		for y := b; y != nil; y = y.Base {
			if Equal(x, y) {
				return x
			}
		}
	}
	return TypeObject
}

// IsAssignableTo reports whether a value of type from is implicitly usable
// where to is expected.
func IsAssignableTo(from, to *Type) bool {
	if Equal(from, to) || !to.IsResolved() {
		return true
	}
	if from.Code == Null {
		return to.IsReference() || to.IsPointer()
	}
	if to.Code == Object {
		return from.IsReference()
	}
	if from.IsReference() && to.IsReference() {
		for x := from.Base; x != nil; x = x.Base {
			if Equal(x, to) {
				return true
			}
		}
	}
	return false
}

// StackType returns the evaluation stack type of t: bool, char and the
// integers narrower than 32 bits, signed or not, widen to int.
func StackType(t *Type) *Type {
	if t == nil {
		return TypeUnknown
	}
	switch t.Code {
	case Boolean, Char, Int8, UInt8, Int16, UInt16:
		return TypeInt32
	}
	return t
}
