package decompiler

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/bnb-chain/ildecompiler/core/ast"
	"github.com/bnb-chain/ildecompiler/core/metadata"
)

// blockState is the operand stack recorded for a block the first time
// control reached it.
type blockState struct {
	stack     *Stack[*ast.Temp]
	processed bool
}

// unstacker replaces Push statements by assignments to temps and stack
// placeholders by references to those temps. Stacks meeting at a label are
// reconciled by copying into the temps recorded first.
type unstacker struct {
	c       *context
	states  map[*ast.Block]*blockState
	byLabel map[int]*ast.Block
	queue   []*ast.Block
	visited mapset.Set[ast.Stmt]
	dead    bool
}

func (c *context) unstack(root *ast.Block) error {
	u := &unstacker{
		c:       c,
		states:  make(map[*ast.Block]*blockState),
		byLabel: make(map[int]*ast.Block),
		visited: mapset.NewThreadUnsafeSet[ast.Stmt](),
	}
	var handlers []*ast.Block
	forEachBlock(root, func(b *ast.Block) {
		if l := b.Label(); l != nil {
			u.byLabel[l.ID] = b
		}
		if b.Region != nil {
			handlers = append(handlers, b)
		}
	})
	// Handlers and filters are entered by the runtime with an empty stack.
	for _, h := range handlers {
		u.states[h] = &blockState{stack: &Stack[*ast.Temp]{}}
		u.queue = append(u.queue, h)
	}
	u.states[root] = &blockState{stack: &Stack[*ast.Temp]{}, processed: true}
	if err := u.run(root, &Stack[*ast.Temp]{}); err != nil {
		return err
	}
	for len(u.queue) > 0 {
		b := u.queue[0]
		u.queue = u.queue[1:]
		st := u.states[b]
		if st.processed {
			continue
		}
		st.processed = true
		if err := u.run(b, st.stack.clone()); err != nil {
			return err
		}
	}
	u.sweep(root)
	c.debug("Unstacked", "temps", len(c.temps), "blocks", len(u.states))
	return nil
}

// run executes b from its first statement with stack st.
func (u *unstacker) run(b *ast.Block, st *Stack[*ast.Temp]) error {
	for i := 0; i < len(b.Stmts); i++ {
		s := b.Stmts[i]
		u.visited.Add(s)
		switch x := s.(type) {
		case *ast.Block:
			bridge, next, err := u.enter(x, st)
			if err != nil {
				return err
			}
			b.Stmts = splice(b.Stmts, i, i, bridge...)
			if next == nil {
				return nil
			}
			return u.run(x, next)

		case *ast.Goto:
			bridge, err := u.jump(x, st)
			if err != nil {
				return err
			}
			b.Stmts = splice(b.Stmts, i, i, bridge...)
			return nil

		case *ast.If:
			if err := u.resolve(x, st); err != nil {
				return err
			}
			for _, body := range []*ast.Block{x.Then, x.Else} {
				if err := u.branches(body, st); err != nil {
					return err
				}
			}

		case *ast.SwitchTable:
			if err := u.resolve(x, st); err != nil {
				return err
			}
			var bridges []ast.Stmt
			for _, g := range x.Targets {
				bridge, err := u.jump(g, st)
				if err != nil {
					return err
				}
				bridges = append(bridges, bridge...)
			}
			b.Stmts = splice(b.Stmts, i, i, bridges...)
			i += len(bridges)

		case *ast.Push:
			if err := u.resolve(x, st); err != nil {
				return err
			}
			b.Stmts[i] = u.materialize(x, st)
			u.visited.Add(b.Stmts[i])

		case *ast.Return, *ast.Throw, *ast.Rethrow, *ast.EndFinally, *ast.EndFilter:
			return u.resolve(s, st)

		default:
			if err := u.resolve(s, st); err != nil {
				return err
			}
		}
	}
	return nil
}

// branches handles the gotos of a conditional branch body.
func (u *unstacker) branches(body *ast.Block, st *Stack[*ast.Temp]) error {
	for i := 0; i < len(body.Stmts); i++ {
		s := body.Stmts[i]
		u.visited.Add(s)
		g, ok := s.(*ast.Goto)
		if !ok {
			if err := u.resolve(s, st.clone()); err != nil {
				return err
			}
			continue
		}
		bridge, err := u.jump(g, st)
		if err != nil {
			return err
		}
		body.Stmts = splice(body.Stmts, i, i, bridge...)
		i += len(bridge)
	}
	return nil
}

// materialize turns push x into t = x and pushes t.
func (u *unstacker) materialize(p *ast.Push, st *Stack[*ast.Temp]) ast.Stmt {
	t := u.c.newTemp(p.X.Type())
	t.IsReference = p.X.Type().Code == metadata.ByRef
	st.push(t)
	return &ast.ExprStmt{Pos: p.Pos, X: ast.Assign(ast.Ref(t), p.X)}
}

// enter is fallthrough into the nested block nb. It returns the bridging
// assignments to place before nb and the stack to run nb with, or nil when
// nb has already been run.
func (u *unstacker) enter(nb *ast.Block, st *Stack[*ast.Temp]) ([]ast.Stmt, *Stack[*ast.Temp], error) {
	rec, ok := u.states[nb]
	if !ok {
		u.states[nb] = &blockState{stack: st.clone(), processed: true}
		return nil, st, nil
	}
	bridge, err := u.reconcile(st, rec.stack, nb.Start)
	if err != nil || rec.processed {
		return bridge, nil, err
	}
	rec.processed = true
	return bridge, rec.stack.clone(), nil
}

// jump records the stack at a goto. The first arrival at a label fixes its
// stack and queues the target; later ones are bridged into it.
func (u *unstacker) jump(g *ast.Goto, st *Stack[*ast.Temp]) ([]ast.Stmt, error) {
	u.visited.Add(g)
	tb, ok := u.byLabel[g.Target.ID]
	if !ok {
		if u.dead {
			return nil, nil
		}
		return nil, u.c.decodeErrorf(g.Offset, ErrUnknownBranchTarget, "%v", g.Target)
	}
	rec, ok := u.states[tb]
	if !ok {
		u.states[tb] = &blockState{stack: st.clone()}
		u.queue = append(u.queue, tb)
		return nil, nil
	}
	return u.reconcile(st, rec.stack, g.Offset)
}

// reconcile makes the temps of cur flow into the temps recorded in rec. The
// copies are parallel: when a recorded temp is also a source, every source
// is first saved into a fresh temp.
func (u *unstacker) reconcile(cur, rec *Stack[*ast.Temp], offset int) ([]ast.Stmt, error) {
	if cur.size() != rec.size() {
		if u.dead {
			return nil, nil
		}
		return nil, u.c.decodeErrorf(offset, ErrStackMismatch, "depth %d meets depth %d", cur.size(), rec.size())
	}
	var dst, src []*ast.Temp
	for i := 0; i < cur.size(); i++ {
		a, r := cur.at(i), rec.at(i)
		if a == r {
			continue
		}
		r.Ty = metadata.Merge(r.Ty, a.Ty)
		r.IsReference = r.IsReference || a.IsReference
		dst = append(dst, r)
		src = append(src, a)
	}
	if len(dst) == 0 {
		return nil, nil
	}
	pos := ast.Pos{Offset: offset}
	var out []ast.Stmt
	sources := mapset.NewThreadUnsafeSet(src...)
	conflict := false
	for _, r := range dst {
		if sources.Contains(r) {
			conflict = true
			break
		}
	}
	if conflict {
		for i, a := range src {
			f := u.c.newTemp(a.Ty)
			f.IsReference = a.IsReference
			out = append(out, &ast.ExprStmt{Pos: pos, X: ast.Assign(ast.Ref(f), ast.Ref(a))})
			src[i] = f
		}
	}
	for i, r := range dst {
		out = append(out, &ast.ExprStmt{Pos: pos, X: ast.Assign(ast.Ref(r), ast.Ref(src[i]))})
	}
	return out, nil
}

// resolve replaces the placeholders of s. They are resolved against the
// stack in reverse evaluation order: the last pop evaluated takes the top.
func (u *unstacker) resolve(s ast.Stmt, st *Stack[*ast.Temp]) error {
	var holes []*ast.Expr
	var collect func(p *ast.Expr)
	collect = func(p *ast.Expr) {
		for _, cp := range ast.ChildSlots(*p) {
			collect(cp)
		}
		if ast.IsPlaceholder(*p) {
			holes = append(holes, p)
		}
	}
	for _, p := range ast.ExprSlots(s) {
		collect(p)
	}
	for i := len(holes) - 1; i >= 0; i-- {
		p := holes[i]
		switch x := (*p).(type) {
		case *ast.PopValue:
			t, ok := st.pop()
			switch {
			case ok:
				*p = popRef(t, x)
			case x.CaughtException:
				*p = &ast.CaughtException{TypeInfo: ast.TypeInfo{T: x.Type()}}
			case u.dead:
				*p = ast.Ref(u.c.newTemp(x.Type()))
			default:
				return u.c.decodeErrorf(s.Position().Offset, ErrStackUnderflow, "pop")
			}
		case *ast.DupValue:
			top := st.peek(0)
			switch {
			case top != nil:
				*p = ast.Ref(*top)
			case u.dead:
				*p = ast.Ref(u.c.newTemp(nil))
			default:
				return u.c.decodeErrorf(s.Position().Offset, ErrStackUnderflow, "dup")
			}
		}
	}
	return nil
}

// popRef is the expression a pop of t resolves to. A pop consumed as a
// condition tests t against its zero value when t is not a boolean.
func popRef(t *ast.Temp, pop *ast.PopValue) ast.Expr {
	ref := ast.Ref(t)
	if pop.Type().Code != metadata.Boolean || t.Ty.Code == metadata.Boolean {
		return ref
	}
	if !t.Ty.IsResolved() {
		return ast.NewBinary(ast.Ne, ref, ast.Default(t.Ty))
	}
	return asCondition(ref)
}

// sweep resolves statements control never reached. They keep a stack of
// their own and never fail: unreachable code is not required to balance.
func (u *unstacker) sweep(root *ast.Block) {
	u.dead = true
	forEachBlock(root, func(b *ast.Block) {
		st := &Stack[*ast.Temp]{}
		for i, s := range b.Stmts {
			if u.visited.Contains(s) {
				continue
			}
			u.visited.Add(s)
			switch x := s.(type) {
			case *ast.Block, *ast.Goto:
			case *ast.Push:
				u.resolve(x, st)
				b.Stmts[i] = u.materialize(x, st)
			default:
				u.resolve(s, st)
			}
		}
	})
}
