package decompiler

import (
	gocontext "context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/bnb-chain/ildecompiler/common/gopool"
	"github.com/bnb-chain/ildecompiler/core/ast"
	"github.com/bnb-chain/ildecompiler/core/cil"
	"github.com/bnb-chain/ildecompiler/log"
)

// Result is the outcome of one method of a batch. Exactly one of Tree and
// Err is set.
type Result struct {
	Body *cil.MethodBody
	Tree *ast.Block
	Err  error

	// Cached is set when Err was remembered from an earlier failure of an
	// identical body and the pipeline did not run.
	Cached bool
}

// DecompileAll decompiles bodies concurrently on a bounded worker pool and
// returns one result per body, in input order. A failing method never
// aborts the batch: its error, or a panic converted to one, is logged and
// recorded in its result. Cancelling ctx skips the methods not started yet;
// a method already running is finished.
func (d *Decompiler) DecompileAll(ctx gocontext.Context, bodies []*cil.MethodBody) []Result {
	results := make([]Result, len(bodies))
	tasks := make([]func(), len(bodies))
	for i, body := range bodies {
		i, body := i, body
		tasks[i] = func() { results[i] = d.decompileOne(ctx, body) }
	}
	workers := d.cfg.Workers
	if workers <= 0 {
		workers = gopool.Threads(len(bodies))
	}
	pool, err := gopool.New(workers)
	if err != nil {
		log.Warn("Worker pool unavailable, decompiling sequentially", "err", err)
		for _, task := range tasks {
			task()
		}
	} else {
		log.DebugBy(log.Debugging, "Decompiling batch", "methods", len(bodies), "workers", pool.Cap())
		pool.Run(tasks)
		pool.Release()
	}
	log.WarnIf(ctx.Err() != nil, "Batch interrupted", "methods", len(bodies), "err", ctx.Err())
	return results
}

func (d *Decompiler) decompileOne(ctx gocontext.Context, body *cil.MethodBody) Result {
	res := Result{Body: body}
	if err := ctx.Err(); err != nil {
		skippedCounter.Inc(1)
		res.Err = err
		return res
	}
	var hash common.Hash
	if d.failures != nil {
		hash = bodyHash(body)
		if err, ok := d.failures.Get(hash); ok {
			skippedCounter.Inc(1)
			log.DebugBy(log.Debugging, "Skipping known bad method", "method", methodName(body), "hash", hash)
			res.Err, res.Cached = err, true
			return res
		}
	}
	start := time.Now()
	res.Tree, res.Err = d.safeDecompile(body)
	if res.Err != nil {
		if d.failures != nil {
			d.failures.Add(hash, res.Err)
		}
		log.WarnBy(d.warnings, "Skipping method", "method", methodName(body), "err", res.Err)
		return res
	}
	log.DebugBy(log.Debugging, "Decompiled method", "method", methodName(body), "elapsed", common.PrettyDuration(time.Since(start)))
	return res
}

// safeDecompile runs Decompile, turning a panic into an error.
func (d *Decompiler) safeDecompile(body *cil.MethodBody) (tree *ast.Block, err error) {
	defer func() {
		if r := recover(); r != nil {
			failedCounter.Inc(1)
			tree, err = nil, errors.Errorf("decompile %s: panic: %v", methodName(body), r)
		}
	}()
	return d.Decompile(body)
}

// bodyHash identifies a method body by the keccak hash of its signature,
// locals and listing.
func bodyHash(body *cil.MethodBody) common.Hash {
	var sb strings.Builder
	sb.WriteString(methodName(body))
	sb.WriteByte('\n')
	if m := body.Method; m != nil {
		fmt.Fprintf(&sb, "static=%v %v(", m.IsStatic, m.ReturnType)
		for _, p := range m.Params {
			fmt.Fprintf(&sb, "%v,", p.Type)
		}
		sb.WriteString(")\n")
	}
	for _, l := range body.Locals {
		fmt.Fprintf(&sb, "local %d %v\n", l.Index, l.Type)
	}
	for _, in := range body.Instructions {
		sb.WriteString(in.String())
		sb.WriteByte('\n')
	}
	for _, r := range body.Regions {
		fmt.Fprintf(&sb, "%v %d %d %d %d %d %v\n", r.Kind, r.TryStart, r.TryEnd, r.HandlerStart, r.HandlerEnd, r.FilterStart, r.CatchType)
	}
	for _, s := range body.Scopes {
		fmt.Fprintf(&sb, "scope %d %d %d\n", s.Start, s.End, len(s.Locals))
	}
	return crypto.Keccak256Hash([]byte(sb.String()))
}
