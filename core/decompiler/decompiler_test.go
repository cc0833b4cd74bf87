package decompiler

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/ildecompiler/core/ast"
	"github.com/bnb-chain/ildecompiler/core/cil"
	"github.com/bnb-chain/ildecompiler/core/metadata"
	"github.com/bnb-chain/ildecompiler/internal/ilasm"
)

var testType = metadata.NewClass("Tests.Sample", nil)

func staticMethod(name string, ret *metadata.Type, params ...*metadata.Parameter) *metadata.Method {
	for i, p := range params {
		p.Index = i
	}
	return &metadata.Method{Name: name, DeclaringType: testType, Params: params, ReturnType: ret, IsStatic: true}
}

func param(name string, t *metadata.Type) *metadata.Parameter {
	return &metadata.Parameter{Name: name, Type: t}
}

func testConfig() *Config {
	cfg := Defaults
	cfg.VerifyPasses = true
	return &cfg
}

func decompileBody(t *testing.T, cfg *Config, body *cil.MethodBody) *ast.Block {
	t.Helper()
	root, err := New(cfg).Decompile(body)
	require.NoError(t, err)
	require.NotNil(t, root)
	return root
}

// jumps returns the gotos and labels left in root.
func jumps(root *ast.Block) []ast.Node {
	var left []ast.Node
	ast.Inspect(root, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.Goto, *ast.Labeled:
			left = append(left, n)
		}
		return true
	})
	return left
}

func find[T ast.Node](root ast.Node) []T {
	var out []T
	ast.Inspect(root, func(n ast.Node) bool {
		if x, ok := n.(T); ok {
			out = append(out, x)
		}
		return true
	})
	return out
}

func requireStructured(t *testing.T, root *ast.Block) {
	t.Helper()
	if left := jumps(root); len(left) > 0 {
		t.Fatalf("unstructured jumps left:\n%s\n%s", ast.Format(root), spew.Sdump(left))
	}
}

func TestIfElse(t *testing.T) {
	m := staticMethod("Sign", metadata.TypeInt32, param("x", metadata.TypeInt32))
	body := ilasm.New(m).
		Ldarg(0).LdcI4(0).Ble("else").
		LdcI4(1).Ret().
		Label("else").LdcI4(2).Ret().
		MustBody()

	root := decompileBody(t, testConfig(), body)
	requireStructured(t, root)
	require.Len(t, root.Stmts, 1, ast.Format(root))

	x, ok := root.Stmts[0].(*ast.If)
	require.True(t, ok, "got %T", root.Stmts[0])
	cond, ok := x.Cond.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Gt, cond.Op)
	assert.Equal(t, "return 1;\n", ast.Format(x.Then))
	assert.Equal(t, "return 2;\n", ast.Format(x.Else))
}

func TestShortCircuit(t *testing.T) {
	a, b := param("a", metadata.TypeBoolean), param("b", metadata.TypeBoolean)
	m := staticMethod("And", metadata.TypeBoolean, a, b)
	body := ilasm.New(m).
		Ldarg(0).Brfalse("false").
		Ldarg(1).Br("done").
		Label("false").LdcI4(0).
		Label("done").Ret().
		MustBody()

	root := decompileBody(t, testConfig(), body)
	requireStructured(t, root)
	require.Len(t, root.Stmts, 1, ast.Format(root))

	ret, ok := root.Stmts[0].(*ast.Return)
	require.True(t, ok, "got %T", root.Stmts[0])
	cond, ok := ret.Value.(*ast.Conditional)
	require.True(t, ok, "got %s", ast.FormatExpr(ret.Value))
	bd, ok := cond.Cond.(*ast.Bound)
	require.True(t, ok)
	assert.Equal(t, metadata.Definition(a), bd.Def)
	assert.Equal(t, metadata.TypeBoolean, ret.Value.Type())
}

func TestJoinWithoutPatterns(t *testing.T) {
	cfg := testConfig()
	cfg.EnablePatterns = false
	m := staticMethod("Pick", metadata.TypeInt32, param("a", metadata.TypeBoolean))
	body := ilasm.New(m).
		Ldarg(0).Brtrue("one").
		LdcI4(2).Br("done").
		Label("one").LdcI4(1).
		Label("done").Ret().
		MustBody()

	root := decompileBody(t, cfg, body)
	requireStructured(t, root)

	ret, ok := root.Last().(*ast.Return)
	require.True(t, ok, ast.Format(root))
	bd, ok := ret.Value.(*ast.Bound)
	require.True(t, ok, ast.Format(root))
	tmp, ok := bd.Def.(*ast.Temp)
	require.True(t, ok)

	// Both arms store to the temp the return reads.
	ifs := find[*ast.If](root)
	require.Len(t, ifs, 1)
	for _, arm := range []*ast.Block{ifs[0].Then, ifs[0].Else} {
		require.Len(t, arm.Stmts, 1, ast.Format(root))
		assert.Equal(t, metadata.Definition(tmp), storedVar(arm.Stmts[0]))
	}
	assert.Equal(t, metadata.TypeInt32, tmp.Ty)
}

func TestSwitch(t *testing.T) {
	m := staticMethod("Lookup", metadata.TypeInt32, param("k", metadata.TypeInt32))
	body := ilasm.New(m).
		Ldarg(0).Switch("c0", "c1", "c2").
		Br("def").
		Label("c0").LdcI4(10).Ret().
		Label("c1").LdcI4(11).Ret().
		Label("c2").LdcI4(12).Ret().
		Label("def").LdcI4(-1).Ret().
		MustBody()

	root := decompileBody(t, testConfig(), body)
	requireStructured(t, root)
	require.Len(t, root.Stmts, 1, ast.Format(root))

	sw, ok := root.Stmts[0].(*ast.Switch)
	require.True(t, ok, "got %T", root.Stmts[0])
	require.Len(t, sw.Cases, 4)
	for i, want := range []string{"return 10;\n", "return 11;\n", "return 12;\n"} {
		assert.False(t, sw.Cases[i].Default)
		assert.Equal(t, int64(i), sw.Cases[i].Value)
		assert.Equal(t, want, ast.Format(sw.Cases[i].Body))
	}
	assert.True(t, sw.Cases[3].Default)
	assert.Equal(t, "return -1;\n", ast.Format(sw.Cases[3].Body))
}

func TestSwitchSharedTargets(t *testing.T) {
	m := staticMethod("Kind", metadata.TypeInt32, param("k", metadata.TypeInt32))
	body := ilasm.New(m).
		Ldarg(0).LdcI4(3).Sub().Switch("low", "low", "high").
		Br("def").
		Label("low").LdcI4(1).Ret().
		Label("high").LdcI4(2).Ret().
		Label("def").LdcI4(0).Ret().
		MustBody()

	root := decompileBody(t, testConfig(), body)
	sws := find[*ast.Switch](root)
	require.Len(t, sws, 1, ast.Format(root))
	sw := sws[0]

	bd, ok := sw.Value.(*ast.Bound)
	require.True(t, ok, "bias not stripped: %s", ast.FormatExpr(sw.Value))
	assert.Equal(t, "k", bd.Def.DefinitionName())
	require.Len(t, sw.Cases, 4)
	assert.Equal(t, []int64{3, 4, 5}, []int64{sw.Cases[0].Value, sw.Cases[1].Value, sw.Cases[2].Value})
	assert.Empty(t, sw.Cases[0].Body.Stmts, "entry sharing a target falls through")
}

func TestTryCatchFinally(t *testing.T) {
	foo := staticMethod("Foo", metadata.TypeVoid)
	bar := staticMethod("Bar", metadata.TypeVoid)
	m := staticMethod("Guarded", metadata.TypeVoid)
	body := ilasm.New(m).
		Label("try").Call(foo).Leave("end").
		Label("catch").Pop().Leave("end").
		Label("finally").Call(bar).Endfinally().
		Label("end").Ret().
		Catch("try", "catch", "catch", "finally", metadata.TypeException).
		Finally("try", "finally", "finally", "end").
		MustBody()

	root := decompileBody(t, testConfig(), body)
	requireStructured(t, root)

	tries := find[*ast.Try](root)
	require.NotEmpty(t, tries, ast.Format(root))
	outer := tries[0]
	require.NotNil(t, outer.Finally, ast.Format(root))
	assert.Equal(t, "Tests.Sample.Bar();\n", ast.Format(outer.Finally))

	var catches []*ast.Catch
	for _, x := range tries {
		catches = append(catches, x.Catches...)
	}
	require.Len(t, catches, 1, ast.Format(root))
	assert.Equal(t, metadata.TypeException, catches[0].Type)
	assert.Nil(t, catches[0].Var, "unused exception variable kept")
	assert.Empty(t, catches[0].Body.Stmts)
	assert.Contains(t, ast.Format(root), "Tests.Sample.Foo();")

	_, ok := root.Last().(*ast.Return)
	assert.True(t, ok, ast.Format(root))
}

func TestForLoop(t *testing.T) {
	m := staticMethod("Sum", metadata.TypeInt32, param("n", metadata.TypeInt32))
	a := ilasm.New(m)
	s := a.Local("s", metadata.TypeInt32)
	i := a.Local("i", metadata.TypeInt32)
	body := a.
		LdcI4(0).Stloc(s.Index).
		LdcI4(0).Stloc(i.Index).
		Br("cond").
		Label("head").
		Ldloc(s.Index).Ldloc(i.Index).Add().Stloc(s.Index).
		Ldloc(i.Index).LdcI4(1).Add().Stloc(i.Index).
		Label("cond").
		Ldloc(i.Index).Ldarg(0).Blt("head").
		Ldloc(s.Index).Ret().
		MustBody()

	root := decompileBody(t, testConfig(), body)
	requireStructured(t, root)

	fors := find[*ast.For](root)
	require.Len(t, fors, 1, ast.Format(root))
	f := fors[0]
	decl, ok := f.Init.(*ast.LocalDecl)
	require.True(t, ok, "init %T", f.Init)
	assert.Equal(t, metadata.Definition(i), decl.Var)
	assert.Equal(t, metadata.Definition(i), assignedLocal(f.Incr))
	assert.Equal(t, "i < n", ast.FormatExpr(f.Cond))
	assert.Equal(t, "s = s + i;\n", ast.Format(f.Body))

	first, ok := root.Stmts[0].(*ast.LocalDecl)
	require.True(t, ok, ast.Format(root))
	assert.Equal(t, metadata.Definition(s), first.Var)
	assert.Equal(t, "return s;\n", ast.Format(root.Last()))
}

func TestForLoopsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.EnableForLoops = false
	m := staticMethod("Count", metadata.TypeVoid, param("n", metadata.TypeInt32))
	a := ilasm.New(m)
	i := a.Local("i", metadata.TypeInt32)
	body := a.
		LdcI4(0).Stloc(i.Index).
		Br("cond").
		Label("head").
		Ldloc(i.Index).LdcI4(1).Add().Stloc(i.Index).
		Label("cond").
		Ldloc(i.Index).Ldarg(0).Blt("head").
		Ret().
		MustBody()

	root := decompileBody(t, cfg, body)
	requireStructured(t, root)
	assert.Empty(t, find[*ast.For](root))
	assert.Len(t, find[*ast.While](root), 1, ast.Format(root))
}

func TestDoWhile(t *testing.T) {
	m := staticMethod("Spin", metadata.TypeVoid, param("n", metadata.TypeInt32))
	a := ilasm.New(m)
	i := a.Local("i", metadata.TypeInt32)
	body := a.
		LdcI4(0).Stloc(i.Index).
		Label("head").
		Ldloc(i.Index).LdcI4(1).Add().Stloc(i.Index).
		Ldloc(i.Index).Ldarg(0).Blt("head").
		Ret().
		MustBody()

	root := decompileBody(t, testConfig(), body)
	requireStructured(t, root)

	loops := find[*ast.DoWhile](root)
	require.Len(t, loops, 1, ast.Format(root))
	assert.Equal(t, "i < n", ast.FormatExpr(loops[0].Cond))
	_, ok := root.Last().(*ast.Return)
	assert.True(t, ok, ast.Format(root))
}

func TestLoopsDisabledKeepGotos(t *testing.T) {
	cfg := testConfig()
	cfg.EnableLoops = false
	m := staticMethod("Spin", metadata.TypeVoid, param("n", metadata.TypeInt32))
	a := ilasm.New(m)
	i := a.Local("i", metadata.TypeInt32)
	body := a.
		LdcI4(0).Stloc(i.Index).
		Label("head").
		Ldloc(i.Index).LdcI4(1).Add().Stloc(i.Index).
		Ldloc(i.Index).Ldarg(0).Blt("head").
		Ret().
		MustBody()

	root := decompileBody(t, cfg, body)
	assert.Empty(t, find[*ast.DoWhile](root))
	assert.NotEmpty(t, jumps(root), "back edge must stay a goto")
}

func TestArrayInitializer(t *testing.T) {
	helpers := metadata.NewClass("System.Runtime.CompilerServices.RuntimeHelpers", nil)
	initArray := &metadata.Method{
		Name:          "InitializeArray",
		DeclaringType: helpers,
		IsStatic:      true,
		Params: []*metadata.Parameter{
			{Index: 0, Name: "array", Type: metadata.NewClass("System.Array", nil)},
			{Index: 1, Name: "fldHandle", Type: metadata.TypeRuntimeFieldHandle},
		},
		ReturnType: metadata.TypeVoid,
	}
	data := make([]byte, 12)
	for k, v := range []uint32{1, 2, 3} {
		binary.LittleEndian.PutUint32(data[4*k:], v)
	}
	field := &metadata.Field{Name: "__data", DeclaringType: testType, IsStatic: true, InitialValue: data}

	m := staticMethod("Table", metadata.ArrayOf(metadata.TypeInt32, 1))
	a := ilasm.New(m)
	arr := a.Local("arr", metadata.ArrayOf(metadata.TypeInt32, 1))
	body := a.
		LdcI4(3).Newarr(metadata.TypeInt32).
		Dup().Ldtoken(field).Call(initArray).
		Stloc(arr.Index).
		Ldloc(arr.Index).Ret().
		MustBody()

	root := decompileBody(t, testConfig(), body)
	arrays := find[*ast.NewArray](root)
	require.Len(t, arrays, 1, ast.Format(root))
	require.Len(t, arrays[0].Initializers, 3)
	for k, e := range arrays[0].Initializers {
		c, ok := e.(*ast.Constant)
		require.True(t, ok)
		assert.Equal(t, int32(k+1), c.Value)
	}
	assert.Empty(t, find[*ast.Call](root), "InitializeArray call left in tree")
}

func TestDecodeErrors(t *testing.T) {
	m := staticMethod("Broken", metadata.TypeVoid)

	_, err := New(testConfig()).Decompile(ilasm.New(m).Pop().Ret().MustBody())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStackUnderflow), "got %v", err)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "Tests.Sample::Broken", de.Method)

	_, err = New(testConfig()).Decompile(ilasm.New(m).Op(cil.Jmp, m).MustBody())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedOpcode), "got %v", err)
}

func TestDecompileLeavesNoPlaceholders(t *testing.T) {
	m := staticMethod("Mix", metadata.TypeInt32, param("a", metadata.TypeInt32), param("b", metadata.TypeInt32))
	body := ilasm.New(m).
		Ldarg(0).Ldarg(1).Add().Dup().Mul().
		Ldarg(0).LdcI4(0).Bgt("pos").
		LdcI4(-1).Mul().
		Label("pos").Ret().
		MustBody()

	root := decompileBody(t, testConfig(), body)
	assert.Empty(t, ast.FindPlaceholders(root), ast.Format(root))
	_, ok := root.Last().(*ast.Return)
	assert.True(t, ok, ast.Format(root))
}

func TestWriteLabelTable(t *testing.T) {
	m := staticMethod("Spin", metadata.TypeVoid)
	cfg := testConfig()
	cfg.EnableLoops = false
	body := ilasm.New(m).Label("head").Nop().Br("head").MustBody()

	c := newContext(cfg, body)
	root, err := c.buildBlocks()
	require.NoError(t, err)

	var sb strings.Builder
	WriteLabelTable(&sb, root, c.preds)
	out := sb.String()
	assert.Contains(t, out, "IL_0000")
	assert.Contains(t, out, "0x0000")
}

func TestUnsignedArrayElements(t *testing.T) {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint64(data, 1)
	binary.LittleEndian.PutUint64(data[8:], ^uint64(0))

	values, ok := decodeElements(metadata.TypeUInt64, data, 2)
	require.True(t, ok)
	got := []string{ast.FormatExpr(values[0]), ast.FormatExpr(values[1])}
	assert.Equal(t, []string{"1UL", "18446744073709551615UL"}, got)
}

// temps returns the temps referenced in root.
func temps(root *ast.Block) []*ast.Temp {
	var out []*ast.Temp
	for _, bd := range find[*ast.Bound](root) {
		if tmp, ok := bd.Def.(*ast.Temp); ok {
			out = append(out, tmp)
		}
	}
	return out
}

func TestSameTargetConditions(t *testing.T) {
	foo := staticMethod("Foo", metadata.TypeVoid)
	bar := staticMethod("Bar", metadata.TypeVoid)
	m := staticMethod("Both", metadata.TypeVoid, param("a", metadata.TypeBoolean), param("b", metadata.TypeBoolean))
	body := ilasm.New(m).
		Ldarg(0).Brfalse("else").
		Ldarg(1).Brfalse("else").
		Call(foo).Br("end").
		Label("else").Call(bar).
		Label("end").Ret().
		MustBody()

	root := decompileBody(t, testConfig(), body)
	requireStructured(t, root)

	ifs := find[*ast.If](root)
	require.Len(t, ifs, 1, ast.Format(root))
	assert.Equal(t, "a && b", ast.FormatExpr(ifs[0].Cond))
	assert.Equal(t, "Tests.Sample.Foo();\n", ast.Format(ifs[0].Then))
	assert.Equal(t, "Tests.Sample.Bar();\n", ast.Format(ifs[0].Else))
}

func TestNestedShortCircuitReturn(t *testing.T) {
	m := staticMethod("AndOr", metadata.TypeBoolean,
		param("a", metadata.TypeBoolean), param("b", metadata.TypeBoolean), param("c", metadata.TypeBoolean))
	body := ilasm.New(m).
		Ldarg(0).Brfalse("false").
		Ldarg(1).Brtrue("true").
		Ldarg(2).Br("done").
		Label("true").LdcI4(1).Br("done").
		Label("false").LdcI4(0).
		Label("done").Ret().
		MustBody()

	root := decompileBody(t, testConfig(), body)
	requireStructured(t, root)
	require.Len(t, root.Stmts, 1, ast.Format(root))

	ret, ok := root.Stmts[0].(*ast.Return)
	require.True(t, ok, ast.Format(root))
	assert.Equal(t, metadata.TypeBoolean, ret.Value.Type(), ast.FormatExpr(ret.Value))
	assert.Empty(t, temps(root), ast.Format(root))
	for _, c := range find[*ast.Constant](root) {
		_, isBool := c.Value.(bool)
		assert.True(t, isBool, "integer constant in %s", ast.FormatExpr(ret.Value))
	}
}

func TestBoolJoinWithoutPatterns(t *testing.T) {
	cfg := testConfig()
	cfg.EnablePatterns = false
	m := staticMethod("All", metadata.TypeBoolean,
		param("a", metadata.TypeBoolean), param("b", metadata.TypeBoolean), param("c", metadata.TypeBoolean))
	body := ilasm.New(m).
		Ldarg(0).Brfalse("false").
		Ldarg(1).Brfalse("false").
		Ldarg(2).Br("done").
		Label("false").LdcI4(0).
		Label("done").Ret().
		MustBody()

	root := decompileBody(t, cfg, body)
	tmps := temps(root)
	require.NotEmpty(t, tmps, ast.Format(root))
	for _, tmp := range tmps {
		assert.Equal(t, metadata.TypeBoolean, tmp.Ty, ast.Format(root))
	}
	for _, c := range find[*ast.Constant](root) {
		_, isBool := c.Value.(bool)
		assert.True(t, isBool, "integer constant stored:\n%s", ast.Format(root))
	}
}

func TestBranchIntoInstruction(t *testing.T) {
	m := staticMethod("Mid", metadata.TypeVoid)
	body, err := ilasm.New(m).Nop().Nop().Op(cil.Br, 3).Ret().Body()
	require.Error(t, err)
	require.NotNil(t, body)

	_, err = New(testConfig()).Decompile(body)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownBranchTarget), "got %v", err)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 2, de.Offset)
	assert.Equal(t, "Tests.Sample::Mid", de.Method)
}

func TestDecodeErrorOffset(t *testing.T) {
	m := staticMethod("Late", metadata.TypeVoid)
	_, err := New(testConfig()).Decompile(ilasm.New(m).Nop().Pop().Ret().MustBody())
	require.Error(t, err)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 1, de.Offset)
	assert.True(t, errors.Is(err, ErrStackUnderflow), "got %v", err)
}

func TestFilterCatch(t *testing.T) {
	foo := staticMethod("Foo", metadata.TypeVoid)
	bar := staticMethod("Bar", metadata.TypeVoid)
	isIO := staticMethod("IsIO", metadata.TypeBoolean, param("e", metadata.TypeException))
	m := staticMethod("Filtered", metadata.TypeVoid)
	body := ilasm.New(m).
		Label("try").Call(foo).Leave("end").
		Label("filter").Call(isIO).Endfilter().
		Label("handler").Pop().Call(bar).Leave("end").
		Label("end").Ret().
		Filter("try", "filter", "filter", "handler", "end").
		MustBody()

	root := decompileBody(t, testConfig(), body)
	requireStructured(t, root)

	tries := find[*ast.Try](root)
	require.Len(t, tries, 1, ast.Format(root))
	require.Len(t, tries[0].Catches, 1)
	cc := tries[0].Catches[0]
	assert.Nil(t, cc.Type)
	require.NotNil(t, cc.Var, ast.Format(root))
	require.NotNil(t, cc.Filter, ast.Format(root))

	name := cc.Var.DefinitionName()
	assert.Equal(t, "Tests.Sample.IsIO("+name+")", ast.FormatExpr(cc.Filter))
	assert.Contains(t, ast.Format(root), "catch ("+name+") when (")
	assert.Equal(t, "Tests.Sample.Bar();\n", ast.Format(cc.Body))
}

func TestFaultHandler(t *testing.T) {
	foo := staticMethod("Foo", metadata.TypeVoid)
	bar := staticMethod("Bar", metadata.TypeVoid)
	m := staticMethod("Faulting", metadata.TypeVoid)
	body := ilasm.New(m).
		Label("try").Call(foo).Leave("end").
		Label("fault").Call(bar).Endfinally().
		Label("end").Ret().
		Fault("try", "fault", "fault", "end").
		MustBody()

	root := decompileBody(t, testConfig(), body)
	requireStructured(t, root)

	tries := find[*ast.Try](root)
	require.Len(t, tries, 1, ast.Format(root))
	x := tries[0]
	assert.Empty(t, x.Catches)
	assert.Nil(t, x.Finally)
	require.NotNil(t, x.Fault, ast.Format(root))
	assert.Equal(t, "Tests.Sample.Bar();\n", ast.Format(x.Fault))
	assert.Equal(t, "Tests.Sample.Foo();\n", ast.Format(x.Body))
}

func TestNestedTry(t *testing.T) {
	foo := staticMethod("Foo", metadata.TypeVoid)
	bar := staticMethod("Bar", metadata.TypeVoid)
	baz := staticMethod("Baz", metadata.TypeVoid)
	ioError := metadata.NewClass("System.IO.IOException", metadata.TypeException)
	m := staticMethod("Nested", metadata.TypeVoid)
	body := ilasm.New(m).
		Label("outer").Call(baz).
		Label("inner").Call(foo).Leave("innerEnd").
		Label("innerCatch").Pop().Leave("innerEnd").
		Label("innerEnd").Call(bar).Leave("end").
		Label("outerCatch").Pop().Leave("end").
		Label("end").Ret().
		Catch("inner", "innerCatch", "innerCatch", "innerEnd", ioError).
		Catch("outer", "outerCatch", "outerCatch", "end", metadata.TypeException).
		MustBody()

	root := decompileBody(t, testConfig(), body)
	requireStructured(t, root)

	tries := find[*ast.Try](root)
	require.Len(t, tries, 2, ast.Format(root))
	outer, inner := tries[0], tries[1]
	require.Len(t, outer.Catches, 1)
	assert.Equal(t, metadata.TypeException, outer.Catches[0].Type)
	require.Len(t, inner.Catches, 1)
	assert.Equal(t, ioError, inner.Catches[0].Type)

	nested := find[*ast.Try](outer.Body)
	require.Len(t, nested, 1, "inner try is not inside the outer body:\n%s", ast.Format(root))
	assert.Same(t, inner, nested[0])
	outerText := ast.Format(outer.Body)
	assert.Contains(t, outerText, "Tests.Sample.Baz();")
	assert.Contains(t, outerText, "Tests.Sample.Bar();")
}

func TestUnreachableAfterReturn(t *testing.T) {
	m := staticMethod("Twice", metadata.TypeInt32)
	body := ilasm.New(m).LdcI4(1).Ret().LdcI4(2).Ret().MustBody()

	root := decompileBody(t, testConfig(), body)
	assert.Equal(t, "return 1;\n", ast.Format(root))
}

func TestBranchToNextInstruction(t *testing.T) {
	get := staticMethod("Get", metadata.TypeInt32)
	m := staticMethod("Poll", metadata.TypeVoid)
	body := ilasm.New(m).
		Call(get).Brtrue("next").
		Label("next").Ret().
		MustBody()

	root := decompileBody(t, testConfig(), body)
	requireStructured(t, root)

	stmts := find[*ast.ExprStmt](root)
	require.Len(t, stmts, 1, ast.Format(root))
	assert.Equal(t, "Tests.Sample.Get()", ast.FormatExpr(stmts[0].X))
}

func TestReturnOfCompilerLocal(t *testing.T) {
	m := staticMethod("Echo", metadata.TypeInt32, param("x", metadata.TypeInt32))
	a := ilasm.New(m)
	v := a.TempLocal(metadata.TypeInt32)
	body := a.Ldarg(0).Stloc(v.Index).Ldloc(v.Index).Ret().MustBody()

	root := decompileBody(t, testConfig(), body)
	assert.Equal(t, "return x;\n", ast.Format(root))
}

func TestTempNamedAfterLocal(t *testing.T) {
	cfg := testConfig()
	cfg.EnablePatterns = false
	m := staticMethod("Pick", metadata.TypeInt32, param("a", metadata.TypeBoolean))
	a := ilasm.New(m)
	x := a.Local("count", metadata.TypeInt32)
	body := a.
		Ldarg(0).Brtrue("one").
		LdcI4(2).Br("done").
		Label("one").LdcI4(1).
		Label("done").Stloc(x.Index).
		Ldloc(x.Index).Ret().
		MustBody()

	root := decompileBody(t, cfg, body)
	var named []string
	ast.Inspect(root, func(n ast.Node) bool {
		es, ok := n.(*ast.ExprStmt)
		if !ok || storedVar(es) != metadata.Definition(x) {
			return true
		}
		if bd, ok := es.X.(*ast.Assignment).Source.(*ast.Bound); ok {
			if tmp, ok := bd.Def.(*ast.Temp); ok {
				named = append(named, tmp.DefinitionName())
			}
		}
		return true
	})
	require.NotEmpty(t, named, ast.Format(root))
	for _, name := range named {
		assert.True(t, strings.HasPrefix(name, "count_"), "temp %s stored into count", name)
	}
}
