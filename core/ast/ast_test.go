package ast

import (
	"strings"
	"testing"

	"github.com/bnb-chain/ildecompiler/core/metadata"
)

func TestPredMap(t *testing.T) {
	preds := NewPredMap()
	l1 := &Label{ID: 1, Offset: 0x10}
	l2 := &Label{ID: 2, Offset: 0x20}
	g1 := &Goto{Target: l1}
	g2 := &Goto{Target: l1}
	preds.Add(g1)
	preds.Add(g2)
	if preds.Count(l1) != 2 || preds.Total() != 2 {
		t.Fatalf("count = %d, total = %d", preds.Count(l1), preds.Total())
	}
	preds.Retarget(g2, l2)
	if preds.Count(l1) != 1 || preds.Count(l2) != 1 {
		t.Fatalf("after retarget: l1 %d, l2 %d", preds.Count(l1), preds.Count(l2))
	}
	if g2.Target != l2 {
		t.Fatalf("goto not retargeted")
	}
	if !preds.Remove(g1) || preds.Remove(g1) {
		t.Fatalf("remove should succeed exactly once")
	}
	if got := preds.Labels(); len(got) != 1 || got[0] != 2 {
		t.Fatalf("labels = %v", got)
	}
}

func TestCheckPredecessors(t *testing.T) {
	preds := NewPredMap()
	l := &Label{ID: 7}
	g := &Goto{Target: l}
	root := NewBlock(0)
	root.Append(NewCondGoto(Pos{}, Bool(true), g), &Labeled{Label: l})
	if err := CheckPredecessors(root, preds); err == nil {
		t.Fatalf("unrecorded goto not reported")
	}
	preds.Add(g)
	if err := CheckPredecessors(root, preds); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts := CountGotos(root); counts[7] != 1 {
		t.Fatalf("CountGotos = %v", counts)
	}
	preds.Add(&Goto{Target: l})
	if err := CheckPredecessors(root, preds); err == nil {
		t.Fatalf("stale goto not reported")
	}
}

func TestCondGoto(t *testing.T) {
	x := Ref(&metadata.Parameter{Name: "x", Type: metadata.TypeInt32})
	cond := NewBinary(Gt, x, Int32(0))
	g := &Goto{Target: &Label{ID: 1}}

	direct := NewCondGoto(Pos{}, cond, g)
	c, got, ok := CondGoto(direct)
	if !ok || got != g || c != Expr(cond) {
		t.Fatalf("direct form not recognized")
	}

	inverted := &If{Cond: cond, Then: NewBlock(0), Else: NewBlock(0)}
	inverted.Else.Append(g)
	c, got, ok = CondGoto(inverted)
	if !ok || got != g {
		t.Fatalf("inverted form not recognized")
	}
	if s := FormatExpr(c); s != "x <= 0" {
		t.Fatalf("inverted condition = %q", s)
	}

	full := NewCondGoto(Pos{}, cond, g)
	full.Else.Append(&Return{})
	if _, _, ok := CondGoto(full); ok {
		t.Fatalf("if with both branches is not a conditional goto")
	}
}

func TestNotFolding(t *testing.T) {
	f := Ref(&metadata.Local{Name: "f", Type: metadata.TypeFloat64})
	a := Ref(&metadata.Local{Name: "a", Type: metadata.TypeBoolean})
	b := Ref(&metadata.Local{Name: "b", Type: metadata.TypeBoolean})
	tests := []struct {
		in   Expr
		want string
	}{
		{Bool(true), "false"},
		{Not(Ref(&metadata.Local{Name: "b", Type: metadata.TypeBoolean})), "b"},
		{NewBinary(Eq, Ref(&metadata.Local{Name: "i", Type: metadata.TypeInt32}), Int32(3)), "i != 3"},
		{NewBinary(Lt, f, f), "!(f < f)"},
		{NewBinary(LogicalOr, Not(a), Not(b)), "a && b"},
		{NewBinary(LogicalAnd, a, NewBinary(Eq, f, f)), "!a || !(f == f)"},
	}
	for i, tt := range tests {
		if got := FormatExpr(Not(tt.in)); got != tt.want {
			t.Errorf("test %d: Not = %q, want %q", i, got, tt.want)
		}
	}
}

func TestCloneExprIsDeep(t *testing.T) {
	arr := Ref(&metadata.Local{Name: "a", Type: metadata.ArrayOf(metadata.TypeInt32, 1)})
	orig := &ArrayIndexer{Array: arr, Indices: []Expr{NewBinary(Add, Int32(1), Int32(2))}}
	c := CloneExpr(orig).(*ArrayIndexer)
	if c == orig || c.Array == Expr(arr) || c.Indices[0] == orig.Indices[0] {
		t.Fatalf("clone shares nodes with the original")
	}
	c.Indices[0].(*Binary).Op = Sub
	if FormatExpr(orig) != "a[1 + 2]" || FormatExpr(c) != "a[1 - 2]" {
		t.Fatalf("original %q, clone %q", FormatExpr(orig), FormatExpr(c))
	}
}

func TestPlaceholders(t *testing.T) {
	root := NewBlock(0)
	root.Append(&Push{X: Int32(1)}, &ExprStmt{X: NewBinary(Add, &PopValue{}, &DupValue{})})
	if n := len(FindPlaceholders(root)); n != 3 {
		t.Fatalf("found %d placeholders, want 3", n)
	}
	if !ContainsPlaceholder(root.Stmts[1].(*ExprStmt).X) {
		t.Fatalf("ContainsPlaceholder missed a pop")
	}
}

func TestFormat(t *testing.T) {
	x := &metadata.Parameter{Name: "x", Type: metadata.TypeInt32}
	then := NewBlock(0)
	then.Append(&Return{Value: Int32(1)})
	els := NewBlock(0)
	els.Append(&Return{Value: Int32(2)})
	root := NewBlock(0)
	root.Append(&If{Cond: NewBinary(Gt, Ref(x), Int32(0)), Then: then, Else: els})

	want := strings.Join([]string{
		"if (x > 0) {",
		"    return 1;",
		"} else {",
		"    return 2;",
		"}",
		"",
	}, "\n")
	if got := Format(root); got != want {
		t.Fatalf("Format:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatFilterCatchVariable(t *testing.T) {
	e := &metadata.Local{Name: "e", Type: metadata.TypeException}
	body := NewBlock(0)
	body.Append(&Rethrow{})
	x := &Try{Body: NewBlock(0), Catches: []*Catch{{
		Var:    e,
		Filter: NewBinary(Ne, Ref(e), Null()),
		Body:   body,
	}}}
	root := NewBlock(0)
	root.Append(x)

	if got := Format(root); !strings.Contains(got, "} catch (e) when (e != null) {") {
		t.Fatalf("filter catch lost its variable:\n%s", got)
	}
}

func TestFormatUnsignedConstants(t *testing.T) {
	tests := []struct {
		in   Expr
		want string
	}{
		{NewConstant(int64(-1), metadata.TypeUInt64), "18446744073709551615UL"},
		{NewConstant(int64(4294967295), metadata.TypeUInt32), "4294967295U"},
		{NewConstant(int64(-1), metadata.TypeInt64), "-1L"},
	}
	for i, tt := range tests {
		if got := FormatExpr(tt.in); got != tt.want {
			t.Errorf("test %d: got %q, want %q", i, got, tt.want)
		}
	}
}
