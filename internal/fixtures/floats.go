package fixtures

import (
	"context"
	"sync"

	"github.com/wippyai/canonabi/call"
	"github.com/wippyai/canonabi/errors"
	"github.com/wippyai/canonabi/linker"
	"github.com/wippyai/canonabi/resource"
	"github.com/wippyai/canonabi/types"
)

// Function names of the float interface.
const (
	FloatNew  = "[constructor]float"
	FloatGet  = "[method]float.get"
	FloatAdd  = "[static]float.add"
	FloatLeak = "[method]float.leak"
)

// FloatsInterface is the interface path the intermediate imports the leaf
// under and the runner imports the intermediate under.
const FloatsInterface = "test:resource-floats/test@0.1.0"

// Float is the representation of a float resource.
type Float struct {
	Value float64
}

// FloatsSig holds the float resource and the signatures of its interface,
// declared once per graph.
type FloatsSig struct {
	Graph    *types.Graph
	Resource types.ResourceID
	Own      types.TypeID
	Borrow   types.TypeID
	New      *types.FuncType
	Get      *types.FuncType
	Add      *types.FuncType
	Leak     *types.FuncType
}

// DeclareFloats declares the float resource and its functions in g.
func DeclareFloats(g *types.Graph) (*FloatsSig, error) {
	s := &FloatsSig{Graph: g, Resource: g.DeclareResource("float")}
	s.Own = g.Own(s.Resource)
	s.Borrow = g.Borrow(s.Resource)
	f64 := g.Prim(types.KindF64)
	if err := g.Err(); err != nil {
		return nil, err
	}

	s.New = &types.FuncType{
		Name:    FloatNew,
		Params:  []types.Param{{Name: "v", Type: f64}},
		Results: []types.TypeID{s.Own},
	}
	s.Get = &types.FuncType{
		Name:    FloatGet,
		Params:  []types.Param{{Name: "self", Type: s.Borrow}},
		Results: []types.TypeID{f64},
	}
	s.Add = &types.FuncType{
		Name:    FloatAdd,
		Params:  []types.Param{{Name: "a", Type: s.Borrow}, {Name: "b", Type: s.Borrow}},
		Results: []types.TypeID{s.Own},
	}
	s.Leak = &types.FuncType{
		Name:   FloatLeak,
		Params: []types.Param{{Name: "self", Type: s.Borrow}},
	}
	return s, nil
}

// Funcs returns the interface functions in declaration order.
func (s *FloatsSig) Funcs() []*types.FuncType {
	return []*types.FuncType{s.New, s.Get, s.Add, s.Leak}
}

// qualified returns fn renamed to its import path under FloatsInterface.
func qualified(fn *types.FuncType) *types.FuncType {
	q := *fn
	q.Name = FloatsInterface + "#" + fn.Name
	return &q
}

// Leaf implements the float interface directly. Its leak method stores the
// borrowed handle past the call.
type Leaf struct {
	*FloatsSig
	World    *types.World
	Instance *call.Instance

	New, Get, Add, Leak *call.Export

	mu      sync.Mutex
	created []*Float
	seen    *resource.Instance
	kept    []resource.Handle
	dropped int
}

// NewLeaf binds the float interface to inst.
func NewLeaf(s *FloatsSig, inst *call.Instance) (*Leaf, error) {
	l := &Leaf{FloatsSig: s, Instance: inst, World: types.NewWorld("leaf")}
	var err error
	if l.New, err = call.NewExport(s.Graph, s.New, inst, l.construct); err != nil {
		return nil, err
	}
	if l.Get, err = call.NewExport(s.Graph, s.Get, inst, l.get); err != nil {
		return nil, err
	}
	if l.Add, err = call.NewExport(s.Graph, s.Add, inst, l.add); err != nil {
		return nil, err
	}
	if l.Leak, err = call.NewExport(s.Graph, s.Leak, inst, l.leak); err != nil {
		return nil, err
	}
	for _, fn := range s.Funcs() {
		l.World.Export(fn)
	}
	return l, nil
}

func (l *Leaf) newFloat(inst *call.Instance, v float64) resource.Handle {
	f := &Float{Value: v}
	l.mu.Lock()
	l.created = append(l.created, f)
	l.mu.Unlock()
	return inst.Store.New(l.Resource, resource.NewInstance(f, func(any) {
		l.mu.Lock()
		l.dropped++
		l.mu.Unlock()
	}))
}

func (l *Leaf) resolve(inst *call.Instance, v any) (*resource.Instance, *Float, error) {
	h, ok := v.(resource.Handle)
	if !ok {
		return nil, nil, errors.TypeMismatch(errors.PhaseCall, nil, "", "resource.Handle")
	}
	ri, err := inst.Store.Get(h)
	if err != nil {
		return nil, nil, err
	}
	l.mu.Lock()
	l.seen = ri
	l.mu.Unlock()
	return ri, ri.Rep().(*Float), nil
}

func (l *Leaf) construct(_ context.Context, inst *call.Instance, args []any) ([]any, error) {
	return []any{l.newFloat(inst, args[0].(float64))}, nil
}

func (l *Leaf) get(_ context.Context, inst *call.Instance, args []any) ([]any, error) {
	_, f, err := l.resolve(inst, args[0])
	if err != nil {
		return nil, err
	}
	return []any{f.Value}, nil
}

func (l *Leaf) add(_ context.Context, inst *call.Instance, args []any) ([]any, error) {
	_, a, err := l.resolve(inst, args[0])
	if err != nil {
		return nil, err
	}
	_, b, err := l.resolve(inst, args[1])
	if err != nil {
		return nil, err
	}
	return []any{l.newFloat(inst, a.Value+b.Value)}, nil
}

func (l *Leaf) leak(_ context.Context, inst *call.Instance, args []any) ([]any, error) {
	h := args[0].(resource.Handle)
	if err := inst.Store.Table(l.Resource).Retain(h); err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.kept = append(l.kept, h)
	l.mu.Unlock()
	return nil, nil
}

// Created returns the representations the leaf constructed, in order.
func (l *Leaf) Created() []*Float {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Float(nil), l.created...)
}

// LastSeen returns the instance behind the most recent handle the leaf
// resolved.
func (l *Leaf) LastSeen() *resource.Instance {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seen
}

// Kept returns the borrowed handles leak stored.
func (l *Leaf) Kept() []resource.Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]resource.Handle(nil), l.kept...)
}

// Dropped returns how many floats were destroyed.
func (l *Leaf) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Intermediate imports the float interface and re-exports it, forwarding
// every call through the import table.
type Intermediate struct {
	*FloatsSig
	World    *types.World
	Instance *call.Instance

	New, Get, Add, Leak *call.Export

	imports *linker.ImportTable
	adapter *call.Adapter
}

// NewIntermediate binds the re-exports to inst. Calls go out through imports
// under the "intermediate" world using a.
func NewIntermediate(s *FloatsSig, inst *call.Instance, imports *linker.ImportTable, a *call.Adapter) (*Intermediate, error) {
	m := &Intermediate{
		FloatsSig: s,
		World:     types.NewWorld("intermediate"),
		Instance:  inst,
		imports:   imports,
		adapter:   a,
	}
	for _, fn := range s.Funcs() {
		m.World.Import(qualified(fn))
		m.World.Export(fn)
	}

	var err error
	if m.New, err = call.NewExport(s.Graph, s.New, inst, m.forward(FloatNew)); err != nil {
		return nil, err
	}
	if m.Get, err = call.NewExport(s.Graph, s.Get, inst, m.forward(FloatGet)); err != nil {
		return nil, err
	}
	if m.Add, err = call.NewExport(s.Graph, s.Add, inst, m.forward(FloatAdd)); err != nil {
		return nil, err
	}
	if m.Leak, err = call.NewExport(s.Graph, s.Leak, inst, m.forward(FloatLeak)); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Intermediate) forward(name string) call.HostFunc {
	return func(ctx context.Context, inst *call.Instance, args []any) ([]any, error) {
		return m.imports.Call(ctx, m.adapter, inst, m.World.Name, FloatsInterface+"#"+name, args...)
	}
}

// Chain is a runner that imports the float interface from an intermediate,
// which in turn imports it from a leaf.
type Chain struct {
	*FloatsSig
	Adapter      *call.Adapter
	Imports      *linker.ImportTable
	Runner       *call.Instance
	RunnerWorld  *types.World
	Leaf         *Leaf
	Intermediate *Intermediate
}

// NewChain wires runner → intermediate → leaf over g. All three share one
// adapter, so nested calls stack their frames.
func NewChain(g *types.Graph, runner, middle, leaf *call.Instance, opts ...call.Option) (*Chain, error) {
	s, err := DeclareFloats(g)
	if err != nil {
		return nil, err
	}
	c := &Chain{
		FloatsSig:   s,
		Adapter:     call.NewAdapter(g, opts...),
		Imports:     linker.NewImportTable(),
		Runner:      runner,
		RunnerWorld: types.NewWorld("runner"),
	}
	if c.Leaf, err = NewLeaf(s, leaf); err != nil {
		return nil, err
	}
	if c.Intermediate, err = NewIntermediate(s, middle, c.Imports, c.Adapter); err != nil {
		return nil, err
	}

	for _, fn := range s.Funcs() {
		c.RunnerWorld.Import(qualified(fn))
	}
	bind := func(world string, exps ...*call.Export) {
		for _, e := range exps {
			c.Imports.Define(world, FloatsInterface+"#"+e.Func().Name, e)
		}
	}
	bind(c.Intermediate.World.Name, c.Leaf.New, c.Leaf.Get, c.Leaf.Add, c.Leaf.Leak)
	bind(c.RunnerWorld.Name, c.Intermediate.New, c.Intermediate.Get, c.Intermediate.Add, c.Intermediate.Leak)

	if err := c.Imports.Check(g, c.Intermediate.World); err != nil {
		return nil, err
	}
	if err := c.Imports.Check(g, c.RunnerWorld); err != nil {
		return nil, err
	}
	return c, nil
}

// Call invokes the float function name from the runner.
func (c *Chain) Call(ctx context.Context, name string, args ...any) ([]any, error) {
	return c.Imports.Call(ctx, c.Adapter, c.Runner, c.RunnerWorld.Name, FloatsInterface+"#"+name, args...)
}

// Direct invokes the leaf's export name from the runner, skipping the
// intermediate.
func (c *Chain) Direct(ctx context.Context, name string, args ...any) ([]any, error) {
	var target *call.Export
	switch name {
	case FloatNew:
		target = c.Leaf.New
	case FloatGet:
		target = c.Leaf.Get
	case FloatAdd:
		target = c.Leaf.Add
	case FloatLeak:
		target = c.Leaf.Leak
	default:
		return nil, errors.NotFound(errors.PhaseCall, "export", name)
	}
	return c.Adapter.Call(ctx, c.Runner, target, args)
}
