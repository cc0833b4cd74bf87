// Package decompiler turns stack bytecode method bodies into structured
// statement trees.
//
// A body goes through a fixed sequence of passes: the block graph builder
// and instruction translator produce a tree of nested basic blocks holding
// statements with stack placeholders; the pattern decompiler folds common
// idioms while pushes and pops are still visible; the unstacker replaces the
// placeholders by temps; the structuring passes turn goto/label idioms into
// try, if, switch and loop statements; the cleanup passes flatten blocks,
// drop dead code and declare variables; type inference runs last.
package decompiler

import (
	"bytes"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/pkg/errors"

	"github.com/bnb-chain/ildecompiler/core/ast"
	"github.com/bnb-chain/ildecompiler/core/cil"
	"github.com/bnb-chain/ildecompiler/log"
)

// Decompiler runs the pass pipeline. It is safe for concurrent use; every
// call works on its own tree.
type Decompiler struct {
	cfg      Config
	failures *lru.Cache[common.Hash, error]
	warnings *log.EveryN
}

// New creates a decompiler. A nil cfg selects Defaults.
func New(cfg *Config) *Decompiler {
	d := &Decompiler{cfg: Defaults}
	if cfg != nil {
		d.cfg = *cfg
	}
	d.warnings = &log.EveryN{N: d.cfg.WarnEvery}
	if d.cfg.FailureCacheSize > 0 {
		d.failures = lru.NewCache[common.Hash, error](d.cfg.FailureCacheSize)
	}
	return d
}

// Config returns the settings in use.
func (d *Decompiler) Config() Config { return d.cfg }

// pass is one step of the pipeline.
type pass struct {
	name    string
	run     func(root *ast.Block) error
	enabled bool
}

func changes(f func(*ast.Block) bool) func(*ast.Block) error {
	return func(root *ast.Block) error {
		f(root)
		return nil
	}
}

// passes lists the pipeline after the block tree is built. The order is
// fixed: every pass expects the shapes its predecessors leave behind.
func (c *context) passes() []pass {
	return []pass{
		{"patterns", changes(c.runPatterns), c.cfg.EnablePatterns},
		{"unstack", c.unstack, true},
		{"types", func(root *ast.Block) error { c.inferTypes(root); return nil }, true},
		{"try", changes(c.structureTries), true},
		{"if", changes(c.structureIfs), true},
		{"switch", changes(c.structureSwitches), true},
		{"loops", changes(c.structureLoopsAndIfs), c.cfg.EnableLoops},
		{"flatten", func(root *ast.Block) error { flatten(root); return nil }, true},
		{"cleanup", changes(c.cleanup), true},
		{"declarations", func(root *ast.Block) error { c.insertDeclarations(root); return nil }, true},
		{"types", func(root *ast.Block) error { c.inferTypes(root); return nil }, true},
	}
}

// structureLoopsAndIfs alternates loop and if structuring: removing a back
// edge can expose if shapes and the other way round.
func (c *context) structureLoopsAndIfs(root *ast.Block) bool {
	changed := false
	for c.structureLoops(root) {
		changed = true
		if !c.structureIfs(root) {
			break
		}
	}
	return changed
}

// validationError locates a Validate failure at its instruction. Branches
// into the middle of an instruction report ErrUnknownBranchTarget.
func validationError(body *cil.MethodBody, err error) *DecodeError {
	de := &DecodeError{Method: methodName(body), Err: err}
	var ie *cil.InstructionError
	if errors.As(err, &ie) {
		de.Offset = ie.Offset
		if errors.Is(ie.Err, cil.ErrBranchTarget) {
			de.Err = errors.Wrap(ErrUnknownBranchTarget, ie.Err.Error())
		}
	}
	return de
}

// Decompile turns one method body into its structured statement tree.
// Patterns that do not match leave gotos and labels in place, which is a
// valid result; inconsistent bytecode yields a *DecodeError.
func (d *Decompiler) Decompile(body *cil.MethodBody) (*ast.Block, error) {
	start := time.Now()
	defer methodTimer.UpdateSince(start)

	root, err := d.decompile(body)
	if err != nil {
		failedCounter.Inc(1)
		return nil, err
	}
	decompiledCounter.Inc(1)
	return root, nil
}

func (d *Decompiler) decompile(body *cil.MethodBody) (*ast.Block, error) {
	if err := body.Validate(); err != nil {
		return nil, validationError(body, err)
	}
	c := newContext(&d.cfg, body)
	root, err := c.buildBlocks()
	if err != nil {
		return nil, err
	}
	if err := c.verify("build", root, false); err != nil {
		return nil, err
	}
	unstacked := false
	for _, p := range c.passes() {
		if !p.enabled {
			continue
		}
		if err := p.run(root); err != nil {
			return nil, err
		}
		if p.name == "unstack" {
			unstacked = true
		}
		if err := c.verify(p.name, root, unstacked); err != nil {
			return nil, err
		}
	}
	if c.cfg.TraceLabels {
		c.traceLabels(root)
	}
	c.debug("Decompiled", "gotos", c.preds.Total(), "temps", len(c.temps))
	return root, nil
}

// verify checks the tree invariants after a pass when enabled.
func (c *context) verify(name string, root *ast.Block, unstacked bool) error {
	if !c.cfg.VerifyPasses {
		return nil
	}
	if err := ast.CheckPredecessors(root, c.preds); err != nil {
		return &InvariantError{Pass: name, Err: err}
	}
	if unstacked {
		if left := ast.FindPlaceholders(root); len(left) > 0 {
			return &InvariantError{Pass: name, Err: errors.Wrapf(ErrPlaceholderLeak, "%d nodes", len(left))}
		}
	}
	return nil
}

func (c *context) traceLabels(root *ast.Block) {
	var buf bytes.Buffer
	WriteLabelTable(&buf, root, c.preds)
	c.logger.Write(log.LevelDebug, "Label table", "labels", "\n"+buf.String())
}

func methodName(body *cil.MethodBody) string {
	if body.Method == nil {
		return "<nil>"
	}
	return body.Method.String()
}
