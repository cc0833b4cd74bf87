package metadata

import "fmt"

// Definition is anything an expression can bind to: parameters, locals,
// fields and synthesized temporaries.
type Definition interface {
	DefinitionName() string
	DefinitionType() *Type
}

// Parameter is a declared method parameter. Index 0 of an instance method is
// the first declared parameter, "this" is modelled separately.
type Parameter struct {
	Index int
	Name  string
	Type  *Type
}

func (p *Parameter) DefinitionName() string {
	if p.Name == "" {
		return fmt.Sprintf("arg%d", p.Index)
	}
	return p.Name
}

func (p *Parameter) DefinitionType() *Type { return p.Type }

// Local is a declared local variable slot of a method body.
type Local struct {
	Index             int
	Name              string
	Type              *Type
	CompilerGenerated bool
	Pinned            bool
}

func (l *Local) DefinitionName() string {
	if l.Name == "" {
		return fmt.Sprintf("V_%d", l.Index)
	}
	return l.Name
}

func (l *Local) DefinitionType() *Type { return l.Type }

// Unnamed reports whether the local has no source name.
func (l *Local) Unnamed() bool { return l.Name == "" || l.CompilerGenerated }

// Field is a field identity. InitialValue carries the raw data blob of
// fields mapped to an initialized data section (array initializers).
type Field struct {
	Name          string
	DeclaringType *Type
	Type          *Type
	IsStatic      bool
	InitialValue  []byte
}

func (f *Field) DefinitionName() string { return f.Name }

func (f *Field) DefinitionType() *Type { return f.Type }

func (f *Field) String() string {
	if f.DeclaringType == nil {
		return f.Name
	}
	return f.DeclaringType.String() + "::" + f.Name
}

// Method is a method signature together with its declaring type.
type Method struct {
	Name          string
	DeclaringType *Type
	Params        []*Parameter
	ReturnType    *Type
	IsStatic      bool
	IsVirtual     bool
	IsConstructor bool
}

// Returns reports whether calls to m produce a value.
func (m *Method) Returns() bool {
	return m.ReturnType != nil && m.ReturnType.Code != Void
}

// ThisType is the static type of "this" inside m. Value types see a by-ref.
func (m *Method) ThisType() *Type {
	if m.IsStatic || m.DeclaringType == nil {
		return nil
	}
	if m.DeclaringType.Code == ValueType {
		return ByRefTo(m.DeclaringType)
	}
	return m.DeclaringType
}

// ArgCount is the number of stack operands a call consumes, this included.
func (m *Method) ArgCount() int {
	n := len(m.Params)
	if !m.IsStatic {
		n++
	}
	return n
}

func (m *Method) String() string {
	if m.DeclaringType == nil {
		return m.Name
	}
	return m.DeclaringType.String() + "::" + m.Name
}
