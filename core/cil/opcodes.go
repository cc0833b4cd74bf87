package cil

import "fmt"

// OpCode is a normalized CIL opcode. Short and macro forms (ldarg.0,
// ldc.i4.s, br.s, ldind.i4, ...) are folded into their general form, the
// folded detail travelling in the instruction operand.
type OpCode uint16

// Base instructions.
const (
	Nop OpCode = iota
	Break
	Ldarg  // operand: int, 0 is "this" for instance methods
	Ldarga // operand: int
	Starg  // operand: int
	Ldloc  // operand: int
	Ldloca // operand: int
	Stloc  // operand: int
	Ldnull
	LdcI4 // operand: int32
	LdcI8 // operand: int64
	LdcR4 // operand: float32
	LdcR8 // operand: float64
	Ldstr // operand: string
	Dup
	Pop
	Jmp
	Call     // operand: *metadata.Method
	Callvirt // operand: *metadata.Method
	Calli    // operand: *metadata.Method, the call site signature
	Ret
)

// Branches. Operands are absolute target offsets.
const (
	Br OpCode = iota + 0x20
	Brfalse
	Brtrue
	Beq
	Bge
	Bgt
	Ble
	Blt
	BneUn
	BgeUn
	BgtUn
	BleUn
	BltUn
	Switch // operand: []int
	Leave
)

// Arithmetic, bitwise and conversion.
const (
	Add OpCode = iota + 0x40
	AddOvf
	AddOvfUn
	Sub
	SubOvf
	SubOvfUn
	Mul
	MulOvf
	MulOvfUn
	Div
	DivUn
	Rem
	RemUn
	And
	Or
	Xor
	Shl
	Shr
	ShrUn
	Neg
	Not
	Conv      // operand: *metadata.Type
	ConvOvf   // operand: *metadata.Type
	ConvOvfUn // operand: *metadata.Type
	ConvRUn
	Ckfinite
)

// Comparisons.
const (
	Ceq OpCode = iota + 0x60
	Cgt
	CgtUn
	Clt
	CltUn
)

// Object model. Type operands are *metadata.Type, field operands
// *metadata.Field.
const (
	Ldind OpCode = iota + 0x70
	Stind
	Ldobj
	Stobj
	Cpobj
	Initobj
	Newobj // operand: *metadata.Method
	Castclass
	Isinst
	Box
	Unbox
	UnboxAny
	Throw
	Rethrow
	Ldfld
	Ldflda
	Stfld
	Ldsfld
	Ldsflda
	Stsfld
	Newarr
	Ldlen
	Ldelem // nil operand for ldelem.ref
	Ldelema
	Stelem    // nil operand for stelem.ref
	Ldtoken   // operand: *metadata.Type, *metadata.Field or *metadata.Method
	Ldftn     // operand: *metadata.Method
	Ldvirtftn // operand: *metadata.Method
	Sizeof
	Localloc
	Cpblk
	Initblk
	Arglist
	Mkrefany
	Refanyval
	Refanytype
	Endfinally
	Endfilter
)

type operandKind uint8

const (
	operandNone operandKind = iota
	operandVar
	operandI4
	operandI8
	operandR4
	operandR8
	operandToken
	operandTarget
	operandSwitch
)

type opInfo struct {
	name    string
	long    bool // two byte encoding
	operand operandKind
}

var opInfos = map[OpCode]opInfo{
	Nop:        {"nop", false, operandNone},
	Break:      {"break", false, operandNone},
	Ldarg:      {"ldarg", true, operandVar},
	Ldarga:     {"ldarga", true, operandVar},
	Starg:      {"starg", true, operandVar},
	Ldloc:      {"ldloc", true, operandVar},
	Ldloca:     {"ldloca", true, operandVar},
	Stloc:      {"stloc", true, operandVar},
	Ldnull:     {"ldnull", false, operandNone},
	LdcI4:      {"ldc.i4", false, operandI4},
	LdcI8:      {"ldc.i8", false, operandI8},
	LdcR4:      {"ldc.r4", false, operandR4},
	LdcR8:      {"ldc.r8", false, operandR8},
	Ldstr:      {"ldstr", false, operandToken},
	Dup:        {"dup", false, operandNone},
	Pop:        {"pop", false, operandNone},
	Jmp:        {"jmp", false, operandToken},
	Call:       {"call", false, operandToken},
	Callvirt:   {"callvirt", false, operandToken},
	Calli:      {"calli", false, operandToken},
	Ret:        {"ret", false, operandNone},
	Br:         {"br", false, operandTarget},
	Brfalse:    {"brfalse", false, operandTarget},
	Brtrue:     {"brtrue", false, operandTarget},
	Beq:        {"beq", false, operandTarget},
	Bge:        {"bge", false, operandTarget},
	Bgt:        {"bgt", false, operandTarget},
	Ble:        {"ble", false, operandTarget},
	Blt:        {"blt", false, operandTarget},
	BneUn:      {"bne.un", false, operandTarget},
	BgeUn:      {"bge.un", false, operandTarget},
	BgtUn:      {"bgt.un", false, operandTarget},
	BleUn:      {"ble.un", false, operandTarget},
	BltUn:      {"blt.un", false, operandTarget},
	Switch:     {"switch", false, operandSwitch},
	Leave:      {"leave", false, operandTarget},
	Add:        {"add", false, operandNone},
	AddOvf:     {"add.ovf", false, operandNone},
	AddOvfUn:   {"add.ovf.un", false, operandNone},
	Sub:        {"sub", false, operandNone},
	SubOvf:     {"sub.ovf", false, operandNone},
	SubOvfUn:   {"sub.ovf.un", false, operandNone},
	Mul:        {"mul", false, operandNone},
	MulOvf:     {"mul.ovf", false, operandNone},
	MulOvfUn:   {"mul.ovf.un", false, operandNone},
	Div:        {"div", false, operandNone},
	DivUn:      {"div.un", false, operandNone},
	Rem:        {"rem", false, operandNone},
	RemUn:      {"rem.un", false, operandNone},
	And:        {"and", false, operandNone},
	Or:         {"or", false, operandNone},
	Xor:        {"xor", false, operandNone},
	Shl:        {"shl", false, operandNone},
	Shr:        {"shr", false, operandNone},
	ShrUn:      {"shr.un", false, operandNone},
	Neg:        {"neg", false, operandNone},
	Not:        {"not", false, operandNone},
	Conv:       {"conv", false, operandNone},
	ConvOvf:    {"conv.ovf", false, operandNone},
	ConvOvfUn:  {"conv.ovf.un", false, operandNone},
	ConvRUn:    {"conv.r.un", false, operandNone},
	Ckfinite:   {"ckfinite", false, operandNone},
	Ceq:        {"ceq", true, operandNone},
	Cgt:        {"cgt", true, operandNone},
	CgtUn:      {"cgt.un", true, operandNone},
	Clt:        {"clt", true, operandNone},
	CltUn:      {"clt.un", true, operandNone},
	Ldind:      {"ldind", false, operandNone},
	Stind:      {"stind", false, operandNone},
	Ldobj:      {"ldobj", false, operandToken},
	Stobj:      {"stobj", false, operandToken},
	Cpobj:      {"cpobj", false, operandToken},
	Initobj:    {"initobj", true, operandToken},
	Newobj:     {"newobj", false, operandToken},
	Castclass:  {"castclass", false, operandToken},
	Isinst:     {"isinst", false, operandToken},
	Box:        {"box", false, operandToken},
	Unbox:      {"unbox", false, operandToken},
	UnboxAny:   {"unbox.any", false, operandToken},
	Throw:      {"throw", false, operandNone},
	Rethrow:    {"rethrow", true, operandNone},
	Ldfld:      {"ldfld", false, operandToken},
	Ldflda:     {"ldflda", false, operandToken},
	Stfld:      {"stfld", false, operandToken},
	Ldsfld:     {"ldsfld", false, operandToken},
	Ldsflda:    {"ldsflda", false, operandToken},
	Stsfld:     {"stsfld", false, operandToken},
	Newarr:     {"newarr", false, operandToken},
	Ldlen:      {"ldlen", false, operandNone},
	Ldelem:     {"ldelem", false, operandToken},
	Ldelema:    {"ldelema", false, operandToken},
	Stelem:     {"stelem", false, operandToken},
	Ldtoken:    {"ldtoken", false, operandToken},
	Ldftn:      {"ldftn", true, operandToken},
	Ldvirtftn:  {"ldvirtftn", true, operandToken},
	Sizeof:     {"sizeof", true, operandToken},
	Localloc:   {"localloc", true, operandNone},
	Cpblk:      {"cpblk", true, operandNone},
	Initblk:    {"initblk", true, operandNone},
	Arglist:    {"arglist", true, operandNone},
	Mkrefany:   {"mkrefany", false, operandToken},
	Refanyval:  {"refanyval", false, operandToken},
	Refanytype: {"refanytype", true, operandNone},
	Endfinally: {"endfinally", false, operandNone},
	Endfilter:  {"endfilter", true, operandNone},
}

func (op OpCode) String() string {
	if info, ok := opInfos[op]; ok {
		return info.name
	}
	return fmt.Sprintf("opcode 0x%x not defined", uint16(op))
}

// Valid reports whether op is a defined opcode.
func (op OpCode) Valid() bool {
	_, ok := opInfos[op]
	return ok
}

// FlowControl describes how an instruction transfers control.
type FlowControl uint8

const (
	FlowNext FlowControl = iota
	FlowBranch
	FlowCondBranch
	FlowReturn
	FlowThrow
	FlowCall
	FlowMeta
)

// Flow classifies op.
func (op OpCode) Flow() FlowControl {
	switch op {
	case Br, Leave:
		return FlowBranch
	case Brfalse, Brtrue, Beq, Bge, Bgt, Ble, Blt, BneUn, BgeUn, BgtUn, BleUn, BltUn, Switch:
		return FlowCondBranch
	case Ret, Jmp, Endfinally, Endfilter:
		return FlowReturn
	case Throw, Rethrow:
		return FlowThrow
	case Call, Callvirt, Calli, Newobj:
		return FlowCall
	case Break:
		return FlowMeta
	}
	return FlowNext
}

// IsBranch reports whether op carries branch targets.
func (op OpCode) IsBranch() bool {
	f := op.Flow()
	return f == FlowBranch || f == FlowCondBranch
}

// Terminates reports whether control never falls through op.
func (op OpCode) Terminates() bool {
	switch op.Flow() {
	case FlowBranch, FlowReturn, FlowThrow:
		return true
	}
	return false
}
