package decompiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/ildecompiler/core/ast"
	"github.com/bnb-chain/ildecompiler/core/cil"
	"github.com/bnb-chain/ildecompiler/core/metadata"
	"github.com/bnb-chain/ildecompiler/internal/ilasm"
)

// runPipeline builds body and runs every enabled pass, returning the context
// so that passes can be applied again.
func runPipeline(t *testing.T, cfg *Config, body *cil.MethodBody) (*context, *ast.Block) {
	t.Helper()
	c := newContext(cfg, body)
	root, err := c.buildBlocks()
	require.NoError(t, err)
	for _, p := range c.passes() {
		if p.enabled {
			require.NoError(t, p.run(root), p.name)
		}
	}
	return c, root
}

func TestStructuringIsIdempotent(t *testing.T) {
	m := staticMethod("Sum", metadata.TypeInt32, param("n", metadata.TypeInt32))
	foo := staticMethod("Foo", metadata.TypeVoid)
	bar := staticMethod("Bar", metadata.TypeVoid)
	isIO := staticMethod("IsIO", metadata.TypeBoolean, param("e", metadata.TypeException))
	a := ilasm.New(m)
	s := a.Local("s", metadata.TypeInt32)
	i := a.Local("i", metadata.TypeInt32)
	bodies := map[string]*cil.MethodBody{
		"loop": a.
			LdcI4(0).Stloc(s.Index).
			LdcI4(0).Stloc(i.Index).
			Br("cond").
			Label("head").
			Ldloc(s.Index).Ldloc(i.Index).Add().Stloc(s.Index).
			Ldloc(i.Index).LdcI4(1).Add().Stloc(i.Index).
			Label("cond").
			Ldloc(i.Index).Ldarg(0).Blt("head").
			Ldloc(s.Index).Ret().
			MustBody(),
		"switch": ilasm.New(m).
			Ldarg(0).Switch("c0", "c1").
			Br("def").
			Label("c0").LdcI4(10).Ret().
			Label("c1").LdcI4(11).Ret().
			Label("def").LdcI4(0).Ret().
			MustBody(),
		"if": ilasm.New(m).
			Ldarg(0).LdcI4(0).Ble("else").
			LdcI4(1).Ret().
			Label("else").LdcI4(2).Ret().
			MustBody(),
		"try": ilasm.New(m).
			Label("try").Call(foo).Leave("end").
			Label("catch").Pop().Leave("end").
			Label("finally").Call(bar).Endfinally().
			Label("end").LdcI4(0).Ret().
			Catch("try", "catch", "catch", "finally", metadata.TypeException).
			Finally("try", "finally", "finally", "end").
			MustBody(),
		"filter": ilasm.New(m).
			Label("try").Call(foo).Leave("end").
			Label("filter").Call(isIO).Endfilter().
			Label("handler").Pop().Call(bar).Leave("end").
			Label("end").Ldarg(0).Ret().
			Filter("try", "filter", "filter", "handler", "end").
			MustBody(),
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c, root := runPipeline(t, testConfig(), body)
			before := ast.Format(root)

			assert.False(t, c.structureTries(root))
			assert.False(t, c.structureIfs(root))
			assert.False(t, c.structureSwitches(root))
			assert.False(t, c.structureLoops(root))
			assert.False(t, c.cleanup(root))
			assert.Equal(t, before, ast.Format(root))
			assert.NoError(t, ast.CheckPredecessors(root, c.preds))
		})
	}
}

func TestFlatten(t *testing.T) {
	l := &metadata.Local{Index: 0, Name: "x", Type: metadata.TypeInt32}
	inner := ast.NewBlock(4)
	inner.End = 12
	inner.Locals = []*metadata.Local{l}
	inner.Append(&ast.Return{Value: ast.Ref(l)})
	mid := ast.NewBlock(2)
	mid.Append(&ast.ExprStmt{X: ast.Assign(ast.Ref(l), ast.Int32(1))}, inner)
	root := ast.NewBlock(0)
	root.Append(mid)

	flatten(root)
	require.Len(t, root.Stmts, 2)
	assert.Equal(t, []*metadata.Local{l}, root.Locals)
	assert.Equal(t, 12, root.End)
	assert.Equal(t, "x = 1;\nreturn x;\n", ast.Format(root))
}

func TestNormalizeIf(t *testing.T) {
	x := ast.Ref(&metadata.Parameter{Name: "x", Type: metadata.TypeBoolean})

	empty := &ast.If{Cond: x, Then: ast.NewBlock(0), Else: ast.NewBlock(0)}
	out, ok := normalizeIf(empty)
	require.True(t, ok)
	assert.Empty(t, out, "pure condition with empty branches is dropped")

	els := ast.NewBlock(0)
	els.Append(&ast.Return{})
	swapped := &ast.If{Cond: x, Then: ast.NewBlock(0), Else: els}
	out, ok = normalizeIf(swapped)
	require.True(t, ok)
	require.Len(t, out, 1)
	assert.Equal(t, "if (!x) {\n    return;\n}\n", ast.Format(out[0]))

	_, ok = normalizeIf(out[0].(*ast.If))
	assert.False(t, ok)
}

func TestSwitchValueBias(t *testing.T) {
	k := ast.Ref(&metadata.Parameter{Name: "k", Type: metadata.TypeInt32})

	v, bias := switchValue(ast.NewBinary(ast.Sub, k, ast.Int32(5)))
	assert.Same(t, k, v)
	assert.Equal(t, int64(5), bias)

	checked := ast.NewBinary(ast.Sub, k, ast.Int32(5))
	checked.Checked = true
	v, bias = switchValue(checked)
	assert.Same(t, checked, v)
	assert.Zero(t, bias)
}

func TestScopeTree(t *testing.T) {
	root := ast.NewBlock(0)
	body := ast.NewBlock(1)
	then := ast.NewBlock(2)
	els := ast.NewBlock(3)
	body.Append(&ast.If{Cond: ast.Bool(true), Then: then, Else: els})
	root.Append(&ast.While{Cond: ast.Bool(true), Body: body})

	tree := newScopeTree(root)
	assert.Same(t, body, tree.common(then, els))
	assert.Same(t, root, tree.common(root, els))
	assert.True(t, tree.encloses(root, then))
	assert.False(t, tree.encloses(then, els))
	assert.True(t, tree.loop[body])
	assert.False(t, tree.loop[then])
}
