// Package pipeline wires every other component into the single per-compile
// control flow spec.md describes only as a sequence of component
// operations: build IR for every program method, desugar and optimize it
// wave by wave under internal/wave's scheduler, assemble the DEX indices
// once every method has its final shape, then lower each method's IR into
// concrete classdef.DexCode. Grounded on the teacher's CompileModule driver
// (frontend.go): one function that walks the whole unit in fixed phases,
// threading a single Reporter and a single interning Pool through all of
// them, rather than a generic plugin/visitor registry.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/config"
	"github.com/corvid-dex/core/internal/desugar"
	"github.com/corvid-dex/core/internal/diag"
	"github.com/corvid-dex/core/internal/index"
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/ir/build"
	"github.com/corvid-dex/core/internal/item"
	"github.com/corvid-dex/core/internal/lens"
	"github.com/corvid-dex/core/internal/lower"
	"github.com/corvid-dex/core/internal/optimize"
	"github.com/corvid-dex/core/internal/wave"
)

// Driver owns the state a single compilation run threads through every
// phase: the interning pool, the class graph (already populated by the
// out-of-scope reader per spec.md §1), a structured-logging Reporter, and
// the method bodies carried between waves (spec.md §4.5's own "per-wave
// IRCode-by-method" bookkeeping, reused here rather than reinvented).
type Driver struct {
	Pool     *item.Pool
	Graph    *classdef.Graph
	Reporter *diag.Reporter
	Options  *config.Options

	bodies map[*classdef.EncodedMethod]*ir.IRCode
}

// NewDriver constructs a Driver ready to run Compile. log may be nil
// (diag.NewReporter substitutes a no-op logger).
func NewDriver(pool *item.Pool, graph *classdef.Graph, opts *config.Options, log *zap.Logger) *Driver {
	return &Driver{
		Pool:     pool,
		Graph:    graph,
		Reporter: diag.NewReporter(log),
		Options:  opts,
		bodies:   map[*classdef.EncodedMethod]*ir.IRCode{},
	}
}

// Result is everything a caller needs after a successful Compile: the final
// index tables (for the out-of-scope container writer to walk) and the
// per-class lowered code, already attached back onto each EncodedMethod's
// Code field.
type Result struct {
	Tables *index.Tables
}

// Compile runs the whole per-method/per-wave pipeline spec.md §2 names as
// separate components: build, desugar+optimize under the wave scheduler,
// assemble indices, lower to concrete bytecode. Returns the first fatal
// diagnostic raised by config validation or index assembly; per-method
// failures never abort the run (optimize.Run already degrades those to
// always-throwing stubs, spec.md §4.3).
func (d *Driver) Compile(ctx context.Context) (*Result, *diag.Diagnostic) {
	if d.Options != nil {
		if dg := d.Options.Validate(); dg != nil {
			d.Reporter.FatalError(dg)
			return nil, dg
		}
	}

	methods := d.programMethods()
	if err := d.buildBodies(methods); err != nil {
		d.Reporter.FatalError(err)
		return nil, err
	}

	callGraph := d.buildCallGraph(methods)
	waves, broken := wave.Partition(methods, callGraph)
	for _, b := range broken {
		d.Reporter.Info("broke call-graph cycle", zap.String("caller", b.Caller.Ref.QualifiedName()), zap.String("callee", b.Callee.Ref.QualifiedName()))
	}

	scheduler := wave.NewScheduler(wave.ErrgroupExecutor{})
	names := desugar.NewNameGenerator()
	bodyReg := desugar.NewBodyRegistry()
	collection := desugar.NewCollection()
	lensBuilder := lens.NewBuilder(nil)
	var runLens *lens.Lens = lens.Identity()

	processErr := scheduler.Process(ctx, waves, func(_ context.Context, m *classdef.EncodedMethod) error {
		return d.processMethod(m, runLens, lensBuilder, names, bodyReg, collection, scheduler)
	})
	if processErr != nil {
		dg := diag.New(diag.KindInvariantViolation, "wave processing aborted", processErr)
		d.Reporter.FatalError(dg)
		return nil, dg
	}
	runLens = lensBuilder.Build()
	d.resolveBodyReferences(runLens)

	tables, dg := index.Assemble(d.Pool, d.Graph)
	if dg != nil {
		d.Reporter.FatalError(dg)
		return nil, dg
	}

	// Range over d.bodies directly, not methods: a desugaring-synthesized
	// method (interface companion, lambda class, ...) never appears in
	// programMethods' original scan, only gets its body filled in later by
	// enqueueSynthesized, so methods alone would silently leave it unlowered.
	for m, code := range d.bodies {
		m.Code = classdef.NewDexCode(lower.Lower(code, tables, d.Pool))
	}

	return &Result{Tables: tables}, nil
}

// programMethods flattens every program class's methods in class-graph
// order; callers downstream (Partition, index assembly) re-derive any
// ordering they need themselves, so the only requirement here is that the
// same method never appears twice.
func (d *Driver) programMethods() []*classdef.EncodedMethod {
	var out []*classdef.EncodedMethod
	for _, c := range d.Graph.ProgramClasses() {
		for _, m := range c.AllMethods() {
			if m.HasBody() {
				out = append(out, m)
			}
		}
	}
	return out
}

// buildBodies converts every program method's input Code payload to IR
// once, up front, so the call graph (built from IR invoke instructions) and
// the wave scheduler both see the same IRCode instances later mutated in
// place by desugar/optimize.
func (d *Driver) buildBodies(methods []*classdef.EncodedMethod) *diag.Diagnostic {
	for _, m := range methods {
		code, err := build.Build(d.Pool, d.Graph, m)
		if err != nil {
			return diag.New(diag.KindMalformedInput, "building IR for "+m.Ref.QualifiedName(), err)
		}
		if code != nil {
			d.bodies[m] = code
		}
	}
	return nil
}

// buildCallGraph walks each method's already-built IR for invoke
// instructions resolving to another method in this same compilation unit,
// matching spec.md §4.5's "call graph over ... methods processed this run"
// — a call to a classpath/library method (no EncodedMethod of our own)
// simply isn't an edge, since there's nothing to schedule relative to it.
func (d *Driver) buildCallGraph(methods []*classdef.EncodedMethod) *wave.CallGraph {
	byRef := make(map[*item.DexMethod]*classdef.EncodedMethod, len(methods))
	for _, m := range methods {
		byRef[m.Ref] = m
	}
	g := wave.NewCallGraph()
	for _, m := range methods {
		code := d.bodies[m]
		if code == nil {
			continue
		}
		for _, b := range code.Blocks {
			for _, inst := range b.Instructions {
				if inst.Method == nil {
					continue
				}
				if callee, ok := byRef[inst.Method]; ok {
					g.AddEdge(m, callee)
				}
			}
		}
	}
	return g
}

// processMethod runs one method's desugar-then-optimize step (spec.md
// §4.4/§4.3 run back to back per method, since desugaring output must
// itself satisfy the same IR invariants the optimizer assumes) and commits
// any class a desugaring transformation synthesizes.
func (d *Driver) processMethod(m *classdef.EncodedMethod, runLens *lens.Lens, lensBuilder *lens.Builder, names *desugar.NameGenerator, bodyReg *desugar.BodyRegistry, collection *desugar.Collection, scheduler *wave.Scheduler) error {
	code := d.bodies[m]
	if code == nil {
		return nil
	}
	owner := d.Graph.DefinitionFor(m.Ref.Holder)

	if d.Options == nil || d.Options.Desugar {
		dctx := &desugar.Context{
			Pool: d.Pool, Graph: d.Graph, Builder: lensBuilder,
			Names: names, Bodies: bodyReg, Owner: owner, Method: m, Code: code,
		}
		if collection.NeedsDesugaring(dctx) {
			if err := collection.Desugar(dctx, func(synth *classdef.Class) {
				d.Graph.Add(synth)
				scheduler.RegisterWaveDoneCallback(func() {
					d.enqueueSynthesized(synth, bodyReg)
				})
			}); err != nil {
				return err
			}
		}
	}

	octx := &optimize.Context{
		Pool: d.Pool, Graph: d.Graph, Lens: runLens, Builder: lensBuilder,
		Owner: owner, Method: m, Code: code,
	}
	return optimize.Run(octx)
}

// enqueueSynthesized claims the IR body a desugaring transformation stashed
// in the shared BodyRegistry for each of synth's methods (a freshly
// synthesized method has no classdef.Code of its own yet — see
// desugar.InterfaceCompanionSynthesis's own ctx.Bodies.Store call — so
// build.Build has nothing to build from) and folds it into the body map so
// lowering later picks it up. spec.md §4.4 event consumers receive the
// class so the scheduler can process it in a following wave; since this
// core runs desugar+optimize per method inline rather than as two global
// phases, a synthesized method is simply optimized once, synchronously, the
// moment its wave-done callback fires (still strictly after every wave-k
// method that might reference it has run, satisfying the ordering spec.md
// requires).
func (d *Driver) enqueueSynthesized(synth *classdef.Class, bodyReg *desugar.BodyRegistry) {
	for _, m := range synth.AllMethods() {
		code, ok := bodyReg.Take(m.Ref)
		if !ok {
			continue
		}
		d.bodies[m] = code
		octx := &optimize.Context{Pool: d.Pool, Graph: d.Graph, Lens: lens.Identity(), Owner: synth, Method: m, Code: code}
		_ = optimize.Run(octx)
	}
}

// resolveBodyReferences re-points every remaining IR invoke/field
// instruction through the run's final lens, so a method built before a
// later wave renamed its callee still calls the right target once lowering
// reads inst.Method/inst.Field directly (spec.md §4.6 "every later wave
// resolves references through the lens before reading them").
func (d *Driver) resolveBodyReferences(l *lens.Lens) {
	for _, code := range d.bodies {
		for _, b := range code.Blocks {
			for _, inst := range b.Instructions {
				if inst.Method != nil {
					inst.Method = l.LookupMethod(inst.Method)
				}
				if inst.Field != nil {
					inst.Field = l.LookupField(inst.Field)
				}
				if inst.Type != nil {
					inst.Type = l.LookupType(inst.Type)
				}
			}
		}
	}
}
