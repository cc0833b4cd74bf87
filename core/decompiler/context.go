package decompiler

import (
	"github.com/pkg/errors"
	"github.com/willf/bitset"

	"github.com/bnb-chain/ildecompiler/core/ast"
	"github.com/bnb-chain/ildecompiler/core/cil"
	"github.com/bnb-chain/ildecompiler/core/metadata"
	"github.com/bnb-chain/ildecompiler/log"
)

// context is the state of one decompilation. It owns the tree, the label
// and temp counters and the predecessor map; nothing in it is shared
// between method bodies.
type context struct {
	cfg    *Config
	body   *cil.MethodBody
	method *metadata.Method
	logger log.Logger

	preds     *ast.PredMap
	labels    map[int]*ast.Label // by offset
	bounds    *bitset.BitSet     // exception region bound offsets
	done      map[*cil.ExceptionRegion]bool
	nextLabel int
	nextTemp  int
	temps     []*ast.Temp
}

func newContext(cfg *Config, body *cil.MethodBody) *context {
	return &context{
		cfg:    cfg,
		body:   body,
		method: body.Method,
		logger: log.New("method", body.Method.String()),
		preds:  ast.NewPredMap(),
		labels: make(map[int]*ast.Label),
		bounds: bitset.New(0),
		done:   make(map[*cil.ExceptionRegion]bool),
	}
}

// labelAt returns the label for offset, creating it on first use.
func (c *context) labelAt(offset int) *ast.Label {
	if l, ok := c.labels[offset]; ok {
		return l
	}
	c.nextLabel++
	l := &ast.Label{ID: c.nextLabel, Offset: offset}
	c.labels[offset] = l
	return l
}

// newGoto creates a goto to l and registers it as a predecessor.
func (c *context) newGoto(pos ast.Pos, l *ast.Label) *ast.Goto {
	g := &ast.Goto{Pos: pos, Target: l}
	c.preds.Add(g)
	return g
}

// dropGoto unregisters g; the caller removes it from the tree.
func (c *context) dropGoto(g *ast.Goto) {
	c.preds.Remove(g)
}

// dropGotos unregisters every goto found in n.
func (c *context) dropGotos(n ast.Node) {
	ast.Inspect(n, func(n ast.Node) bool {
		if g, ok := n.(*ast.Goto); ok {
			c.preds.Remove(g)
		}
		return true
	})
}

func (c *context) newTemp(t *metadata.Type) *ast.Temp {
	if t == nil {
		t = metadata.TypeUnknown
	}
	c.nextTemp++
	tmp := &ast.Temp{ID: c.nextTemp, Ty: t}
	c.temps = append(c.temps, tmp)
	return tmp
}

func (c *context) decodeError(offset int, err error) error {
	return &DecodeError{Method: c.method.String(), Offset: offset, Err: err}
}

func (c *context) decodeErrorf(offset int, cause error, format string, args ...interface{}) error {
	return c.decodeError(offset, errors.Wrapf(cause, format, args...))
}

func (c *context) debug(msg string, ctx ...interface{}) {
	if log.DebugLogsEnabled() {
		c.logger.Debug(msg, ctx...)
	}
}
