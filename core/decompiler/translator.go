package decompiler

import (
	"github.com/bnb-chain/ildecompiler/core/ast"
	"github.com/bnb-chain/ildecompiler/core/cil"
	"github.com/bnb-chain/ildecompiler/core/metadata"
)

var (
	typeArgumentHandle = metadata.NewValueType("System.RuntimeArgumentHandle")
	typeBytePtr        = metadata.PointerTo(metadata.TypeUInt8)
)

// slot is one entry of the simulated operand stack: an expression together
// with the position of the instructions that produced it.
type slot struct {
	e   ast.Expr
	pos ast.Pos
}

// translator turns instructions into statements of the current block. Values
// stay on a simulated stack and are folded into the expressions that consume
// them; whatever is left when a statement is emitted or the block ends is
// spilled as Push statements and picked up later by the unstacker.
type translator struct {
	c     *context
	blk   *ast.Block
	stack Stack[slot]
	in    *cil.Instruction
}

func newTranslator(c *context, blk *ast.Block) *translator {
	return &translator{c: c, blk: blk}
}

// here is the position of the instruction being translated.
func (t *translator) here() ast.Pos {
	return ast.At(t.in.Offset, t.in.Location)
}

func merge(pos *ast.Pos, other *ast.Pos) {
	if other.Offset < pos.Offset {
		pos.Offset = other.Offset
	}
	pos.AddLocs(other)
}

// pop takes the top operand, or a placeholder when the simulated stack is
// empty. The operand's position is merged into pos.
func (t *translator) pop(pos *ast.Pos) ast.Expr {
	s, ok := t.stack.pop()
	if !ok {
		return &ast.PopValue{}
	}
	merge(pos, &s.pos)
	return s.e
}

// popN pops n operands and returns them in push order.
func (t *translator) popN(n int, pos *ast.Pos) []ast.Expr {
	args := make([]ast.Expr, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = t.pop(pos)
	}
	return args
}

func (t *translator) push(e ast.Expr, pos ast.Pos) {
	t.stack.push(slot{e: e, pos: pos})
}

// flush spills the simulated stack. Bare placeholders at the bottom stand for
// values the stack already holds and are dropped.
func (t *translator) flush(ast.Pos) {
	i := 0
	for ; i < t.stack.size(); i++ {
		if p, ok := t.stack.at(i).e.(*ast.PopValue); !ok || p.CaughtException {
			break
		}
	}
	for ; i < t.stack.size(); i++ {
		s := t.stack.at(i)
		t.blk.Append(&ast.Push{Pos: s.pos, X: s.e})
	}
	t.stack.clear()
}

// emit appends s after spilling the values still on the stack: they were
// pushed before s executes.
func (t *translator) emit(s ast.Stmt) {
	t.flush(*s.Position())
	t.blk.Append(s)
}

func (t *translator) emitExpr(e ast.Expr, pos ast.Pos) {
	t.emit(&ast.ExprStmt{Pos: pos, X: e})
}

func (t *translator) badOperand() error {
	return t.c.decodeErrorf(t.in.Offset, ErrBadOperand, "%v operand %v", t.in.Op, t.in.Operand)
}

// arg resolves an argument index. Index 0 of an instance method is this.
func (t *translator) arg(i int) (ast.Expr, error) {
	m := t.c.method
	if !m.IsStatic {
		if i == 0 {
			return &ast.This{TypeInfo: ast.TypeInfo{T: m.ThisType()}}, nil
		}
		i--
	}
	if i < 0 || i >= len(m.Params) {
		return nil, t.badOperand()
	}
	return ast.Ref(m.Params[i]), nil
}

func (t *translator) local(i int) (*metadata.Local, error) {
	if i < 0 || i >= len(t.c.body.Locals) {
		return nil, t.badOperand()
	}
	return t.c.body.Locals[i], nil
}

func (t *translator) target(off int) (*ast.Goto, error) {
	l, ok := t.c.labels[off]
	if !ok {
		return nil, t.c.decodeErrorf(t.in.Offset, ErrUnknownBranchTarget, "IL_%04x", off)
	}
	return t.c.newGoto(t.here(), l), nil
}

func (t *translator) branch(cond ast.Expr, pos ast.Pos) error {
	off, ok := t.in.Int()
	if !ok {
		return t.badOperand()
	}
	g, err := t.target(off)
	if err != nil {
		return err
	}
	t.emit(ast.NewCondGoto(pos, cond, g))
	return nil
}

var arithmetic = map[cil.OpCode]struct {
	op                ast.BinaryOp
	checked, unsigned bool
}{
	cil.Add: {ast.Add, false, false}, cil.AddOvf: {ast.Add, true, false}, cil.AddOvfUn: {ast.Add, true, true},
	cil.Sub: {ast.Sub, false, false}, cil.SubOvf: {ast.Sub, true, false}, cil.SubOvfUn: {ast.Sub, true, true},
	cil.Mul: {ast.Mul, false, false}, cil.MulOvf: {ast.Mul, true, false}, cil.MulOvfUn: {ast.Mul, true, true},
	cil.Div: {ast.Div, false, false}, cil.DivUn: {ast.Div, false, true},
	cil.Rem: {ast.Rem, false, false}, cil.RemUn: {ast.Rem, false, true},
	cil.And: {ast.And, false, false}, cil.Or: {ast.Or, false, false}, cil.Xor: {ast.Xor, false, false},
	cil.Shl: {ast.Shl, false, false}, cil.Shr: {ast.Shr, false, false}, cil.ShrUn: {ast.Shr, false, true},
}

var comparisons = map[cil.OpCode]struct {
	op       ast.BinaryOp
	unsigned bool
}{
	cil.Beq: {ast.Eq, false}, cil.Bge: {ast.Ge, false}, cil.Bgt: {ast.Gt, false},
	cil.Ble: {ast.Le, false}, cil.Blt: {ast.Lt, false}, cil.BneUn: {ast.Ne, true},
	cil.BgeUn: {ast.Ge, true}, cil.BgtUn: {ast.Gt, true}, cil.BleUn: {ast.Le, true},
	cil.BltUn: {ast.Lt, true},
	cil.Ceq: {ast.Eq, false}, cil.Cgt: {ast.Gt, false}, cil.CgtUn: {ast.Gt, true},
	cil.Clt: {ast.Lt, false}, cil.CltUn: {ast.Lt, true},
}

// translate appends the effect of one instruction to the current block.
func (t *translator) translate(in *cil.Instruction) error {
	t.in = in
	pos := t.here()

	if a, ok := arithmetic[in.Op]; ok {
		r := t.pop(&pos)
		l := t.pop(&pos)
		b := ast.NewBinary(a.op, l, r)
		b.Checked, b.Unsigned = a.checked, a.unsigned
		if a.op == ast.Shl || a.op == ast.Shr {
			b.T = l.Type()
		} else {
			b.T = metadata.PromoteBinary(l.Type(), r.Type())
		}
		t.push(b, pos)
		return nil
	}
	if c, ok := comparisons[in.Op]; ok {
		r := t.pop(&pos)
		l := t.pop(&pos)
		cmp := compare(c.op, l, r, c.unsigned)
		if in.Op.IsBranch() {
			return t.branch(cmp, pos)
		}
		t.push(cmp, pos)
		return nil
	}

	switch in.Op {
	case cil.Nop:
		// No flush: a nop does not observe the stack.
		t.blk.Append(&ast.Empty{Pos: pos})
	case cil.Break:
		t.emit(&ast.DebuggerBreak{Pos: pos})

	case cil.Ldarg, cil.Ldarga, cil.Starg:
		i, ok := in.Int()
		if !ok {
			return t.badOperand()
		}
		a, err := t.arg(i)
		if err != nil {
			return err
		}
		switch in.Op {
		case cil.Ldarg:
			t.push(a, pos)
		case cil.Ldarga:
			t.push(&ast.AddressOf{TypeInfo: ast.TypeInfo{T: metadata.ByRefTo(a.Type())}, Operand: a}, pos)
		default:
			v := coerce(t.pop(&pos), a.Type())
			t.emitExpr(ast.Assign(a, v), pos)
		}

	case cil.Ldloc, cil.Ldloca, cil.Stloc:
		i, ok := in.Int()
		if !ok {
			return t.badOperand()
		}
		l, err := t.local(i)
		if err != nil {
			return err
		}
		switch in.Op {
		case cil.Ldloc:
			t.push(ast.Ref(l), pos)
		case cil.Ldloca:
			t.push(&ast.AddressOf{TypeInfo: ast.TypeInfo{T: metadata.ByRefTo(l.Type)}, Operand: ast.Ref(l)}, pos)
		default:
			v := coerce(t.pop(&pos), l.Type)
			t.emitExpr(ast.Assign(ast.Ref(l), v), pos)
		}

	case cil.Ldnull:
		t.push(ast.Null(), pos)
	case cil.LdcI4:
		switch v := in.Operand.(type) {
		case int32:
			t.push(ast.Int32(v), pos)
		case int:
			t.push(ast.Int32(int32(v)), pos)
		default:
			return t.badOperand()
		}
	case cil.LdcI8:
		switch v := in.Operand.(type) {
		case int64:
			t.push(ast.NewConstant(v, metadata.TypeInt64), pos)
		case int:
			t.push(ast.NewConstant(int64(v), metadata.TypeInt64), pos)
		default:
			return t.badOperand()
		}
	case cil.LdcR4:
		switch v := in.Operand.(type) {
		case float32:
			t.push(ast.NewConstant(v, metadata.TypeFloat32), pos)
		case float64:
			t.push(ast.NewConstant(float32(v), metadata.TypeFloat32), pos)
		default:
			return t.badOperand()
		}
	case cil.LdcR8:
		v, ok := in.Operand.(float64)
		if !ok {
			return t.badOperand()
		}
		t.push(ast.NewConstant(v, metadata.TypeFloat64), pos)
	case cil.Ldstr:
		s, ok := in.Operand.(string)
		if !ok {
			return t.badOperand()
		}
		t.push(ast.NewConstant(s, metadata.TypeString), pos)

	case cil.Dup:
		t.dup(pos)
	case cil.Pop:
		t.emitExpr(t.pop(&pos), pos)
	case cil.Jmp:
		return t.c.decodeErrorf(in.Offset, ErrUnsupportedOpcode, "%v", in.Op)

	case cil.Call, cil.Callvirt:
		m, ok := in.Method()
		if !ok {
			return t.badOperand()
		}
		t.call(m, in.Op == cil.Callvirt, pos)
	case cil.Calli:
		sig, ok := in.Method()
		if !ok {
			return t.badOperand()
		}
		ptr := t.pop(&pos)
		args := t.popN(sig.ArgCount(), &pos)
		pc := &ast.PointerCall{TypeInfo: ast.TypeInfo{T: sig.ReturnType}, Signature: sig, Pointer: ptr, Args: args}
		t.result(pc, sig.Returns(), pos)
	case cil.Newobj:
		m, ok := in.Method()
		if !ok {
			return t.badOperand()
		}
		args := t.popN(len(m.Params), &pos)
		for i, p := range m.Params {
			args[i] = coerce(args[i], p.Type)
		}
		t.push(&ast.NewObject{TypeInfo: ast.TypeInfo{T: m.DeclaringType}, Ctor: m, Args: args}, pos)

	case cil.Ret:
		r := &ast.Return{Pos: pos}
		if t.c.method.Returns() {
			r.Value = coerce(t.pop(&r.Pos), t.c.method.ReturnType)
		}
		t.emit(r)
	case cil.Br, cil.Leave:
		off, ok := in.Int()
		if !ok {
			return t.badOperand()
		}
		g, err := t.target(off)
		if err != nil {
			return err
		}
		t.emit(g)
	case cil.Brtrue:
		return t.branch(asCondition(t.pop(&pos)), pos)
	case cil.Brfalse:
		return t.branch(ast.Not(asCondition(t.pop(&pos))), pos)
	case cil.Switch:
		offs, ok := in.Operand.([]int)
		if !ok {
			return t.badOperand()
		}
		st := &ast.SwitchTable{Pos: pos}
		st.Value = t.pop(&st.Pos)
		for _, off := range offs {
			g, err := t.target(off)
			if err != nil {
				return err
			}
			st.Targets = append(st.Targets, g)
		}
		t.emit(st)

	case cil.Neg, cil.Not:
		v := t.pop(&pos)
		op := ast.Neg
		if in.Op == cil.Not {
			op = ast.Complement
		}
		t.push(&ast.Unary{TypeInfo: ast.TypeInfo{T: v.Type()}, Op: op, Operand: v}, pos)
	case cil.Conv, cil.ConvOvf, cil.ConvOvfUn, cil.ConvRUn:
		ty, ok := in.Type()
		if in.Op == cil.ConvRUn {
			ty, ok = metadata.TypeFloat64, true
		}
		if !ok {
			return t.badOperand()
		}
		cv := &ast.Conversion{
			TypeInfo: ast.TypeInfo{T: ty},
			Kind:     ast.Convert,
			Operand:  t.pop(&pos),
			Target:   ty,
			Checked:  in.Op == cil.ConvOvf || in.Op == cil.ConvOvfUn,
			Unsigned: in.Op == cil.ConvOvfUn || in.Op == cil.ConvRUn,
		}
		t.push(cv, pos)
	case cil.Ckfinite:
		v := t.pop(&pos)
		t.push(&ast.Intrinsic{TypeInfo: ast.TypeInfo{T: v.Type()}, Name: "ckfinite", Args: []ast.Expr{v}}, pos)

	case cil.Ldind, cil.Ldobj:
		ptr := t.pop(&pos)
		ty, ok := in.Type()
		if !ok || ty == nil {
			ty = elemOf(ptr.Type())
		}
		t.push(&ast.Deref{TypeInfo: ast.TypeInfo{T: ty}, Operand: ptr, Volatile: in.Prefix.Volatile}, pos)
	case cil.Stind, cil.Stobj:
		v := t.pop(&pos)
		ptr := t.pop(&pos)
		ty, ok := in.Type()
		if !ok || ty == nil {
			ty = elemOf(ptr.Type())
		}
		dst := &ast.Deref{TypeInfo: ast.TypeInfo{T: ty}, Operand: ptr, Volatile: in.Prefix.Volatile}
		t.emitExpr(ast.Assign(dst, coerce(v, ty)), pos)
	case cil.Cpobj:
		ty, _ := in.Type()
		src := t.pop(&pos)
		dst := t.pop(&pos)
		t.emitExpr(ast.Assign(
			&ast.Deref{TypeInfo: ast.TypeInfo{T: ty}, Operand: dst},
			&ast.Deref{TypeInfo: ast.TypeInfo{T: ty}, Operand: src}), pos)
	case cil.Initobj:
		ty, ok := in.Type()
		if !ok {
			return t.badOperand()
		}
		dst := &ast.Deref{TypeInfo: ast.TypeInfo{T: ty}, Operand: t.pop(&pos)}
		t.emitExpr(ast.Assign(dst, ast.Default(ty)), pos)

	case cil.Castclass, cil.Isinst, cil.Box, cil.Unbox, cil.UnboxAny:
		ty, ok := in.Type()
		if !ok {
			return t.badOperand()
		}
		cv := &ast.Conversion{Operand: t.pop(&pos), Target: ty}
		switch in.Op {
		case cil.Castclass:
			cv.Kind, cv.T = ast.Cast, ty
		case cil.Isinst:
			cv.Kind, cv.T = ast.As, ty
		case cil.Box:
			cv.Kind, cv.T = ast.BoxValue, metadata.TypeObject
		case cil.Unbox:
			cv.Kind, cv.T = ast.UnboxPtr, metadata.ByRefTo(ty)
		default:
			cv.Kind, cv.T = ast.UnboxCopy, ty
		}
		t.push(cv, pos)

	case cil.Throw:
		th := &ast.Throw{Pos: pos}
		th.Value = t.pop(&th.Pos)
		t.emit(th)
	case cil.Rethrow:
		t.emit(&ast.Rethrow{Pos: pos})
	case cil.Endfinally:
		t.emit(&ast.EndFinally{Pos: pos})
	case cil.Endfilter:
		ef := &ast.EndFilter{Pos: pos}
		ef.Value = asCondition(t.pop(&ef.Pos))
		t.emit(ef)

	case cil.Ldfld, cil.Ldflda, cil.Stfld, cil.Ldsfld, cil.Ldsflda, cil.Stsfld:
		f, ok := in.Field()
		if !ok {
			return t.badOperand()
		}
		t.field(f, pos)

	case cil.Newarr:
		ty, ok := in.Type()
		if !ok {
			return t.badOperand()
		}
		n := t.pop(&pos)
		t.push(&ast.NewArray{TypeInfo: ast.TypeInfo{T: metadata.ArrayOf(ty, 1)}, Elem: ty, Sizes: []ast.Expr{n}}, pos)
	case cil.Ldlen:
		arr := t.pop(&pos)
		t.push(&ast.Length{TypeInfo: ast.TypeInfo{T: metadata.TypeInt32}, Array: arr}, pos)
	case cil.Ldelem, cil.Ldelema:
		idx := t.pop(&pos)
		arr := t.pop(&pos)
		ty, ok := in.Type()
		if !ok || ty == nil {
			ty = elemOf(arr.Type())
		}
		el := &ast.ArrayIndexer{TypeInfo: ast.TypeInfo{T: ty}, Array: arr, Indices: []ast.Expr{idx}}
		if in.Op == cil.Ldelema {
			t.push(&ast.AddressOf{TypeInfo: ast.TypeInfo{T: metadata.ByRefTo(ty)}, Operand: el}, pos)
		} else {
			t.push(el, pos)
		}
	case cil.Stelem:
		v := t.pop(&pos)
		idx := t.pop(&pos)
		arr := t.pop(&pos)
		ty, ok := in.Type()
		if !ok || ty == nil {
			ty = elemOf(arr.Type())
		}
		el := &ast.ArrayIndexer{TypeInfo: ast.TypeInfo{T: ty}, Array: arr, Indices: []ast.Expr{idx}}
		t.emitExpr(ast.Assign(el, coerce(v, ty)), pos)

	case cil.Ldtoken:
		switch tok := in.Operand.(type) {
		case *metadata.Type:
			t.push(&ast.TypeOf{TypeInfo: ast.TypeInfo{T: metadata.TypeRuntimeTypeHandle}, Operand: tok}, pos)
		case *metadata.Field:
			t.push(&ast.TokenOf{TypeInfo: ast.TypeInfo{T: metadata.TypeRuntimeFieldHandle}, Token: tok}, pos)
		case *metadata.Method:
			t.push(&ast.TokenOf{TypeInfo: ast.TypeInfo{T: metadata.TypeRuntimeMethodHandle}, Token: tok}, pos)
		default:
			return t.badOperand()
		}
	case cil.Ldftn, cil.Ldvirtftn:
		m, ok := in.Method()
		if !ok {
			return t.badOperand()
		}
		mp := &ast.MethodPointer{TypeInfo: ast.TypeInfo{T: metadata.TypeIntPtr}, Method: m}
		if in.Op == cil.Ldvirtftn {
			mp.Instance = t.pop(&pos)
		}
		t.push(mp, pos)
	case cil.Sizeof:
		ty, ok := in.Type()
		if !ok {
			return t.badOperand()
		}
		t.push(&ast.SizeOf{TypeInfo: ast.TypeInfo{T: metadata.TypeInt32}, Operand: ty}, pos)
	case cil.Localloc:
		n := t.pop(&pos)
		t.push(&ast.StackAlloc{TypeInfo: ast.TypeInfo{T: typeBytePtr}, Size: n}, pos)

	case cil.Cpblk, cil.Initblk:
		args := t.popN(3, &pos)
		name := "cpblk"
		if in.Op == cil.Initblk {
			name = "initblk"
		}
		t.emitExpr(&ast.Intrinsic{TypeInfo: ast.TypeInfo{T: metadata.TypeVoid}, Name: name, Args: args}, pos)
	case cil.Arglist:
		t.push(&ast.Intrinsic{TypeInfo: ast.TypeInfo{T: typeArgumentHandle}, Name: "arglist"}, pos)
	case cil.Mkrefany:
		v := t.pop(&pos)
		t.push(&ast.Intrinsic{TypeInfo: ast.TypeInfo{T: metadata.TypeTypedReference}, Name: "mkrefany", Args: []ast.Expr{v}}, pos)
	case cil.Refanyval:
		ty, ok := in.Type()
		if !ok {
			return t.badOperand()
		}
		v := t.pop(&pos)
		t.push(&ast.Intrinsic{TypeInfo: ast.TypeInfo{T: metadata.ByRefTo(ty)}, Name: "refanyval", Args: []ast.Expr{v}}, pos)
	case cil.Refanytype:
		v := t.pop(&pos)
		t.push(&ast.Intrinsic{TypeInfo: ast.TypeInfo{T: metadata.TypeRuntimeTypeHandle}, Name: "refanytype", Args: []ast.Expr{v}}, pos)

	default:
		return t.c.decodeErrorf(in.Offset, ErrUnsupportedOpcode, "%v", in.Op)
	}
	return nil
}

// dup clones simple values. Anything else is spilled so the unstacker can
// hold it in a temp read twice.
func (t *translator) dup(pos ast.Pos) {
	if top := t.stack.peek(0); top != nil {
		if ast.IsPure(top.e) {
			merge(&pos, &top.pos)
			t.push(ast.CloneExpr(top.e), pos)
			return
		}
		if _, ok := top.e.(*ast.DupValue); ok {
			t.push(&ast.DupValue{}, pos)
			return
		}
	}
	t.flush(pos)
	t.push(&ast.PopValue{}, pos)
	t.push(&ast.DupValue{}, pos)
}

func (t *translator) call(m *metadata.Method, virtual bool, pos ast.Pos) {
	args := t.popN(len(m.Params), &pos)
	for i, p := range m.Params {
		args[i] = coerce(args[i], p.Type)
	}
	var inst ast.Expr
	if !m.IsStatic {
		inst = t.pop(&pos)
	}
	if m.Name == "GetTypeFromHandle" && len(args) == 1 {
		if tok, ok := args[0].(*ast.TypeOf); ok {
			tok.T = metadata.TypeSystemType
			t.push(tok, pos)
			return
		}
	}
	call := &ast.Call{
		TypeInfo:    ast.TypeInfo{T: m.ReturnType},
		Method:      m,
		Instance:    inst,
		Args:        args,
		Virtual:     virtual,
		Tail:        t.in.Prefix.Tail,
		Constrained: t.in.Prefix.Constrained,
	}
	t.result(call, m.Returns(), pos)
}

// result pushes a value producing call or emits it as a statement.
func (t *translator) result(e ast.Expr, returns bool, pos ast.Pos) {
	if returns {
		t.push(e, pos)
	} else {
		t.emitExpr(e, pos)
	}
}

func (t *translator) field(f *metadata.Field, pos ast.Pos) {
	ref := &ast.Bound{TypeInfo: ast.TypeInfo{T: f.Type}, Def: f}
	switch t.in.Op {
	case cil.Ldfld:
		ref.Instance = t.pop(&pos)
		t.push(ref, pos)
	case cil.Ldflda:
		ref.Instance = t.pop(&pos)
		t.push(&ast.AddressOf{TypeInfo: ast.TypeInfo{T: metadata.ByRefTo(f.Type)}, Operand: ref}, pos)
	case cil.Stfld:
		v := t.pop(&pos)
		ref.Instance = t.pop(&pos)
		t.emitExpr(ast.Assign(ref, coerce(v, f.Type)), pos)
	case cil.Ldsfld:
		t.push(ref, pos)
	case cil.Ldsflda:
		t.push(&ast.AddressOf{TypeInfo: ast.TypeInfo{T: metadata.ByRefTo(f.Type)}, Operand: ref}, pos)
	case cil.Stsfld:
		v := t.pop(&pos)
		t.emitExpr(ast.Assign(ref, coerce(v, f.Type)), pos)
	}
}

// elemOf is the element type of an array or pointer type, or unknown.
func elemOf(t *metadata.Type) *metadata.Type {
	if t != nil && t.Elem != nil {
		return t.Elem
	}
	return metadata.TypeUnknown
}
