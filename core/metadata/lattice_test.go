package metadata

import (
	"sync"
	"testing"
)

func TestPromoteBinary(t *testing.T) {
	tests := []struct {
		a, b *Type
		want *Type
	}{
		{TypeUInt8, TypeUInt16, TypeUInt32},
		{TypeUInt8, TypeInt16, TypeInt32},
		{TypeInt32, TypeUInt32, TypeInt32},
		{TypeUInt32, TypeUInt32, TypeUInt32},
		{TypeInt32, TypeInt64, TypeInt64},
		{TypeUInt64, TypeUInt32, TypeUInt64},
		{TypeUInt64, TypeInt32, TypeInt64},
		{TypeIntPtr, TypeInt32, TypeIntPtr},
		{TypeInt64, TypeFloat32, TypeFloat32},
		{TypeFloat32, TypeFloat64, TypeFloat64},
		{TypeBoolean, TypeBoolean, TypeBoolean},
		{TypeUnknown, TypeInt16, TypeInt16},
		{TypeInt16, TypeUnknown, TypeInt16},
	}
	for i, tt := range tests {
		if got := PromoteBinary(tt.a, tt.b); !Equal(got, tt.want) {
			t.Errorf("test %d: PromoteBinary(%v, %v) = %v, want %v", i, tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMerge(t *testing.T) {
	animal := NewClass("Zoo.Animal", nil)
	dog := NewClass("Zoo.Dog", animal)
	cat := NewClass("Zoo.Cat", animal)
	point := NewValueType("Geo.Point")

	tests := []struct {
		name string
		a, b *Type
		want *Type
	}{
		{"equal", TypeInt32, TypeInt32, TypeInt32},
		{"null-ref", TypeNull, TypeString, TypeString},
		{"ref-null", dog, TypeNull, dog},
		{"null-null", TypeNull, TypeNull, TypeNull},
		{"null-value", TypeNull, point, TypePolymorphic},
		{"unknown", TypeUnknown, TypeInt32, TypePolymorphic},
		{"siblings", dog, cat, animal},
		{"unrelated", dog, TypeString, TypeObject},
		{"numeric", TypeInt32, TypeInt64, TypeInt64},
	}
	for _, tt := range tests {
		if got := Merge(tt.a, tt.b); !Equal(got, tt.want) {
			t.Errorf("%s: Merge(%v, %v) = %v, want %v", tt.name, tt.a, tt.b, got, tt.want)
		}
	}
}

func TestConstructedTypesInterned(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]*Type, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = ArrayOf(PointerTo(TypeInt32), 2)
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatalf("ArrayOf returned distinct instances %p and %p", results[0], results[i])
		}
	}
	if got := results[0].String(); got != "int*[,]" {
		t.Errorf("String() = %q, want %q", got, "int*[,]")
	}
	if ByRefTo(TypeInt32) == PointerTo(TypeInt32) {
		t.Errorf("by-ref and pointer types must differ")
	}
}

func TestIsAssignableTo(t *testing.T) {
	animal := NewClass("Zoo.Animal", nil)
	dog := NewClass("Zoo.Dog", animal)
	if !IsAssignableTo(dog, animal) {
		t.Errorf("Dog should be assignable to Animal")
	}
	if IsAssignableTo(animal, dog) {
		t.Errorf("Animal should not be assignable to Dog")
	}
	if !IsAssignableTo(TypeNull, TypeString) {
		t.Errorf("null should be assignable to string")
	}
	if IsAssignableTo(TypeNull, TypeInt32) {
		t.Errorf("null should not be assignable to int")
	}
}

func TestMethodShape(t *testing.T) {
	point := NewValueType("Geo.Point")
	m := &Method{
		Name:          "Offset",
		DeclaringType: point,
		Params:        []*Parameter{{Index: 0, Name: "dx", Type: TypeInt32}},
		ReturnType:    TypeVoid,
	}
	if m.Returns() {
		t.Errorf("void method reports a return value")
	}
	if m.ArgCount() != 2 {
		t.Errorf("ArgCount = %d, want 2", m.ArgCount())
	}
	if !Equal(m.ThisType(), ByRefTo(point)) {
		t.Errorf("ThisType = %v, want ref Geo.Point", m.ThisType())
	}
	if got := m.String(); got != "Geo.Point::Offset" {
		t.Errorf("String() = %q", got)
	}
}
