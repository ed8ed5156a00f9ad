package call

import (
	"context"

	"github.com/wippyai/canonabi/errors"
	"github.com/wippyai/canonabi/resource"
	"github.com/wippyai/canonabi/transcoder"
	"github.com/wippyai/canonabi/types"
)

// Target is anything a call can be dispatched to: an export implemented in
// Go, or an entry resolved through an import table.
type Target interface {
	Func() *types.FuncType
	Instance() *Instance
	Invoke(ctx context.Context, inv *Invocation) (transcoder.FlatRepr, error)
}

// Invocation is what a target receives: the lowered arguments, living in the
// target instance's memory, and the edges to move handles across.
type Invocation struct {
	Frame  *resource.Frame
	Caller *Instance
	// Params moves handles from the caller to the target.
	Params *resource.Boundary
	// Results moves handles from the target back to the caller.
	Results *resource.Boundary
	// Allocs collects allocations in the target's memory, freed after the
	// caller has lifted the results.
	Allocs     *transcoder.AllocationList
	Args       transcoder.FlatRepr
	MaxParams  int
	MaxResults int
}

// HostFunc implements an exported function in Go. inst is the instance the
// export belongs to; its store holds the handles found in args.
type HostFunc func(ctx context.Context, inst *Instance, args []any) ([]any, error)

// Export binds a Go implementation to a function signature and an instance.
// Parameters are lifted in the instance's context and results lowered into
// its memory, indirect above the result limit.
type Export struct {
	fn   *types.FuncType
	inst *Instance
	impl HostFunc
	enc  *transcoder.Encoder
	dec  *transcoder.Decoder
}

// NewExport creates an export of fn on inst. Borrowed handles cannot be
// returned, so a signature with borrow in its results is rejected.
func NewExport(g *types.Graph, fn *types.FuncType, inst *Instance, impl HostFunc) (*Export, error) {
	if fn == nil || inst == nil || impl == nil {
		return nil, errors.InvalidInput(errors.PhaseCall, "export needs a signature, an instance and an implementation")
	}
	for _, r := range fn.Results {
		if containsBorrow(g, r) {
			return nil, errors.New(errors.PhaseCall, errors.KindUnsupported).
				WitType(g.Describe(r)).
				Detail("%s returns a borrowed handle", fn.Name).
				Build()
		}
	}
	lc := transcoder.NewLayoutCalculator(g)
	return &Export{
		fn:   fn,
		inst: inst,
		impl: impl,
		enc:  transcoder.NewEncoder(lc),
		dec:  transcoder.NewDecoder(lc),
	}, nil
}

// MustExport is like NewExport but panics on error.
func MustExport(g *types.Graph, fn *types.FuncType, inst *Instance, impl HostFunc) *Export {
	e, err := NewExport(g, fn, inst, impl)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Export) Func() *types.FuncType {
	return e.fn
}

func (e *Export) Instance() *Instance {
	return e.inst
}

func (e *Export) Invoke(ctx context.Context, inv *Invocation) (transcoder.FlatRepr, error) {
	args, err := e.dec.Lift(&transcoder.LiftContext{
		Memory:  e.inst.Memory,
		Handles: inv.Params,
		Limit:   inv.MaxParams,
	}, e.fn.ParamTypes(), inv.Args)
	if err != nil {
		return transcoder.FlatRepr{}, err
	}

	results, err := e.impl(ctx, e.inst, args)
	if err != nil {
		return transcoder.FlatRepr{}, err
	}
	if len(results) != len(e.fn.Results) {
		return transcoder.FlatRepr{}, errors.New(errors.PhaseCall, errors.KindInvalidData).
			Detail("%s returned %d values, signature declares %d", e.fn.Name, len(results), len(e.fn.Results)).
			Build()
	}

	return e.enc.Lower(&transcoder.LowerContext{
		Memory:    e.inst.Memory,
		Allocator: e.inst.Allocator,
		Allocs:    inv.Allocs,
		Handles:   inv.Results,
	}, e.fn.Results, results, inv.MaxResults)
}

func containsBorrow(g *types.Graph, id types.TypeID) bool {
	t, ok := g.Type(id)
	if !ok {
		return false
	}
	switch t.Kind {
	case types.KindBorrow:
		return true
	case types.KindList, types.KindOption:
		return containsBorrow(g, t.Elem)
	case types.KindResult:
		return (t.OK != 0 && containsBorrow(g, t.OK)) || (t.Err != 0 && containsBorrow(g, t.Err))
	case types.KindTuple:
		for _, e := range t.Elems {
			if containsBorrow(g, e) {
				return true
			}
		}
	case types.KindRecord:
		for _, f := range t.Fields {
			if containsBorrow(g, f.Type) {
				return true
			}
		}
	case types.KindVariant:
		for _, c := range t.Cases {
			if c.Type != 0 && containsBorrow(g, c.Type) {
				return true
			}
		}
	}
	return false
}
