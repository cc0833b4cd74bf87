package ilasm

import (
	"github.com/bnb-chain/ildecompiler/core/cil"
	"github.com/bnb-chain/ildecompiler/core/metadata"
)

func (a *Assembler) Nop() *Assembler { return a.Op(cil.Nop, nil) }
func (a *Assembler) Ldarg(i int) *Assembler { return a.Op(cil.Ldarg, i) }
func (a *Assembler) Ldarga(i int) *Assembler { return a.Op(cil.Ldarga, i) }
func (a *Assembler) Starg(i int) *Assembler { return a.Op(cil.Starg, i) }
func (a *Assembler) Ldloc(i int) *Assembler { return a.Op(cil.Ldloc, i) }
func (a *Assembler) Ldloca(i int) *Assembler { return a.Op(cil.Ldloca, i) }
func (a *Assembler) Stloc(i int) *Assembler { return a.Op(cil.Stloc, i) }
func (a *Assembler) Ldnull() *Assembler { return a.Op(cil.Ldnull, nil) }
func (a *Assembler) LdcI4(v int32) *Assembler { return a.Op(cil.LdcI4, v) }
func (a *Assembler) LdcI8(v int64) *Assembler { return a.Op(cil.LdcI8, v) }
func (a *Assembler) LdcR8(v float64) *Assembler { return a.Op(cil.LdcR8, v) }
func (a *Assembler) Ldstr(s string) *Assembler { return a.Op(cil.Ldstr, s) }
func (a *Assembler) Dup() *Assembler { return a.Op(cil.Dup, nil) }
func (a *Assembler) Pop() *Assembler { return a.Op(cil.Pop, nil) }
func (a *Assembler) Ret() *Assembler { return a.Op(cil.Ret, nil) }
func (a *Assembler) Throw() *Assembler { return a.Op(cil.Throw, nil) }
func (a *Assembler) Rethrow() *Assembler { return a.Op(cil.Rethrow, nil) }
func (a *Assembler) Endfinally() *Assembler { return a.Op(cil.Endfinally, nil) }
func (a *Assembler) Endfilter() *Assembler { return a.Op(cil.Endfilter, nil) }
func (a *Assembler) Add() *Assembler { return a.Op(cil.Add, nil) }
func (a *Assembler) Sub() *Assembler { return a.Op(cil.Sub, nil) }
func (a *Assembler) Mul() *Assembler { return a.Op(cil.Mul, nil) }
func (a *Assembler) Ceq() *Assembler { return a.Op(cil.Ceq, nil) }
func (a *Assembler) Cgt() *Assembler { return a.Op(cil.Cgt, nil) }
func (a *Assembler) CgtUn() *Assembler { return a.Op(cil.CgtUn, nil) }
func (a *Assembler) Clt() *Assembler { return a.Op(cil.Clt, nil) }
func (a *Assembler) Ldlen() *Assembler { return a.Op(cil.Ldlen, nil) }
func (a *Assembler) Conv(t *metadata.Type) *Assembler { return a.Op(cil.Conv, t) }
func (a *Assembler) Box(t *metadata.Type) *Assembler { return a.Op(cil.Box, t) }

func (a *Assembler) Isinst(t *metadata.Type) *Assembler { return a.Op(cil.Isinst, t) }
func (a *Assembler) Newarr(t *metadata.Type) *Assembler { return a.Op(cil.Newarr, t) }
func (a *Assembler) Ldelem(t *metadata.Type) *Assembler { return a.Op(cil.Ldelem, t) }
func (a *Assembler) Stelem(t *metadata.Type) *Assembler { return a.Op(cil.Stelem, t) }
func (a *Assembler) Ldfld(f *metadata.Field) *Assembler { return a.Op(cil.Ldfld, f) }
func (a *Assembler) Stfld(f *metadata.Field) *Assembler { return a.Op(cil.Stfld, f) }
func (a *Assembler) Ldsfld(f *metadata.Field) *Assembler { return a.Op(cil.Ldsfld, f) }
func (a *Assembler) Stsfld(f *metadata.Field) *Assembler { return a.Op(cil.Stsfld, f) }
func (a *Assembler) Ldtoken(token any) *Assembler { return a.Op(cil.Ldtoken, token) }
func (a *Assembler) Call(m *metadata.Method) *Assembler { return a.Op(cil.Call, m) }
func (a *Assembler) Callvirt(m *metadata.Method) *Assembler { return a.Op(cil.Callvirt, m) }
func (a *Assembler) Newobj(m *metadata.Method) *Assembler { return a.Op(cil.Newobj, m) }

func (a *Assembler) Br(l string) *Assembler { return a.Branch(cil.Br, l) }
func (a *Assembler) Leave(l string) *Assembler { return a.Branch(cil.Leave, l) }
func (a *Assembler) Brfalse(l string) *Assembler { return a.Branch(cil.Brfalse, l) }
func (a *Assembler) Brtrue(l string) *Assembler { return a.Branch(cil.Brtrue, l) }
func (a *Assembler) Beq(l string) *Assembler { return a.Branch(cil.Beq, l) }
func (a *Assembler) BneUn(l string) *Assembler { return a.Branch(cil.BneUn, l) }
func (a *Assembler) Bge(l string) *Assembler { return a.Branch(cil.Bge, l) }
func (a *Assembler) Bgt(l string) *Assembler { return a.Branch(cil.Bgt, l) }
func (a *Assembler) Ble(l string) *Assembler { return a.Branch(cil.Ble, l) }
func (a *Assembler) Blt(l string) *Assembler { return a.Branch(cil.Blt, l) }
