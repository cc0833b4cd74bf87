package cil_test

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/bnb-chain/ildecompiler/core/cil"
	"github.com/bnb-chain/ildecompiler/core/metadata"
	"github.com/bnb-chain/ildecompiler/internal/ilasm"
)

func testMethod() *metadata.Method {
	return &metadata.Method{
		Name:       "Sign",
		IsStatic:   true,
		Params:     []*metadata.Parameter{{Index: 0, Name: "x", Type: metadata.TypeInt32}},
		ReturnType: metadata.TypeInt32,
	}
}

func TestInstructionSizes(t *testing.T) {
	tests := []struct {
		in   cil.Instruction
		want int
	}{
		{cil.Instruction{Op: cil.Nop}, 1},
		{cil.Instruction{Op: cil.Ldarg, Operand: 0}, 4},
		{cil.Instruction{Op: cil.LdcI4, Operand: int32(7)}, 5},
		{cil.Instruction{Op: cil.LdcR8, Operand: 1.5}, 9},
		{cil.Instruction{Op: cil.Br, Operand: 0}, 5},
		{cil.Instruction{Op: cil.Switch, Operand: []int{1, 2, 3}}, 17},
		{cil.Instruction{Op: cil.Ceq}, 2},
		{cil.Instruction{Op: cil.Callvirt, Prefix: cil.Prefix{Tail: true}}, 7},
	}
	for i, tt := range tests {
		if got := tt.in.Size(); got != tt.want {
			t.Errorf("test %d (%v): size %d, want %d", i, tt.in.Op, got, tt.want)
		}
	}
}

func TestFlowControl(t *testing.T) {
	if !cil.Br.Terminates() || !cil.Ret.Terminates() || !cil.Throw.Terminates() {
		t.Errorf("br/ret/throw must terminate")
	}
	if cil.Brtrue.Terminates() || !cil.Brtrue.IsBranch() {
		t.Errorf("brtrue is a conditional branch")
	}
	if cil.Call.IsBranch() {
		t.Errorf("call is not a branch")
	}
	if cil.OpCode(0xfff).Valid() {
		t.Errorf("undefined opcode reported valid")
	}
}

func TestAssembledBody(t *testing.T) {
	body := ilasm.New(testMethod()).
		Ldarg(0).LdcI4(0).Ble("neg").
		LdcI4(1).Ret().
		Label("neg").
		LdcI4(-1).Ret().
		MustBody()

	if n := len(body.Instructions); n != 7 {
		t.Fatalf("%d instructions, want 7", n)
	}
	ble := body.Instructions[2]
	targets := ble.Targets()
	if len(targets) != 1 || body.At(targets[0]) != 5 {
		t.Fatalf("ble target %v does not resolve to instruction 5", targets)
	}
	if body.CodeSize() != body.Instructions[6].Next() {
		t.Fatalf("CodeSize mismatch")
	}
	if body.At(1) != -1 {
		t.Fatalf("offset 1 is inside ldarg")
	}
}

func TestValidate(t *testing.T) {
	body := ilasm.New(testMethod()).Ldarg(0).Ret().MustBody()
	body.Instructions = append(body.Instructions, &cil.Instruction{Offset: 1, Op: cil.Nop})
	if err := body.Validate(); err == nil {
		t.Fatalf("non-increasing offsets accepted")
	}

	body = ilasm.New(testMethod()).Ldarg(0).Ret().MustBody()
	body.Instructions[1] = &cil.Instruction{Offset: body.Instructions[1].Offset, Op: cil.Br, Operand: 2}
	err := body.Validate()
	var ie *cil.InstructionError
	if !errors.As(err, &ie) || !errors.Is(err, cil.ErrBranchTarget) {
		t.Fatalf("branch into an instruction: got %v", err)
	}
	if ie.Offset != body.Instructions[1].Offset {
		t.Fatalf("error at IL_%04x, want the branch at IL_%04x", ie.Offset, body.Instructions[1].Offset)
	}

	body = ilasm.New(testMethod()).Ldarg(0).Ret().MustBody()
	body.Regions = []*cil.ExceptionRegion{{Kind: cil.RegionFinally, TryStart: 0, TryEnd: 0, HandlerStart: 0, HandlerEnd: 4}}
	if err := body.Validate(); err == nil {
		t.Fatalf("empty try range accepted")
	}
}
