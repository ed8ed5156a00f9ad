package call

import (
	"context"
	"sync/atomic"

	"github.com/wippyai/canonabi/errors"
	"github.com/wippyai/canonabi/resource"
	"github.com/wippyai/canonabi/transcoder"
	"github.com/wippyai/canonabi/types"
	"go.uber.org/zap"
)

// Adapter runs cross-boundary calls over one type graph:
//
//	Open → Lowering → Invoking → Lifting → Closed
//	  └──────────┴──────────┴──────────┴──→ Faulted
//
// Nested calls made from inside a target push onto the same frame stack.
// An adapter is not safe for concurrent calls.
type Adapter struct {
	graph      *types.Graph
	enc        *transcoder.Encoder
	dec        *transcoder.Decoder
	frames     *resource.FrameStack
	logger     *zap.Logger
	maxParams  int
	maxResults int
	state      atomic.Uint32
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLimits overrides the flat slot limits for parameters and results.
func WithLimits(maxParams, maxResults int) Option {
	return func(a *Adapter) {
		a.maxParams = maxParams
		a.maxResults = maxResults
	}
}

// WithLogger sets the logger used for state transitions.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

// WithFrameStack shares a frame stack between adapters.
func WithFrameStack(s *resource.FrameStack) Option {
	return func(a *Adapter) {
		a.frames = s
	}
}

func NewAdapter(g *types.Graph, opts ...Option) *Adapter {
	lc := transcoder.NewLayoutCalculator(g)
	a := &Adapter{
		graph:      g,
		enc:        transcoder.NewEncoder(lc),
		dec:        transcoder.NewDecoder(lc),
		frames:     resource.NewFrameStack(),
		logger:     Logger(),
		maxParams:  transcoder.MaxFlatParams,
		maxResults: transcoder.MaxFlatResults,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

// Graph returns the type graph signatures are resolved against.
func (a *Adapter) Graph() *types.Graph {
	return a.graph
}

// Frames returns the adapter's call frame stack.
func (a *Adapter) Frames() *resource.FrameStack {
	return a.frames
}

// State returns the state of the most recent call; after Call returns it is
// Closed or Faulted.
func (a *Adapter) State() State {
	return State(a.state.Load())
}

// enter moves one call's state to to and publishes it as the latest.
func (a *Adapter) enter(fn string, cur *State, to State) {
	from := *cur
	if !from.next(to) {
		a.logger.Warn("unexpected call transition",
			zap.String("func", fn),
			zap.Stringer("from", from),
			zap.Stringer("to", to))
	}
	*cur = to
	a.state.Store(uint32(to))
	a.logger.Debug("call transition",
		zap.String("func", fn),
		zap.Stringer("from", from),
		zap.Stringer("to", to))
}

// Call invokes target with args on behalf of caller and returns the lifted
// results. The call frame is torn down on every exit path: borrows minted
// for the call end, own handles still in flight return to the table they
// left, and allocations in the target's memory are freed. Any fault is
// returned wrapped as a call failure; errors.Is still matches the fault.
func (a *Adapter) Call(ctx context.Context, caller *Instance, target Target, args []any) (results []any, err error) {
	if target == nil || target.Func() == nil || target.Instance() == nil {
		return nil, errors.InvalidInput(errors.PhaseCall, "call target has no signature or instance")
	}
	if caller == nil {
		return nil, errors.InvalidInput(errors.PhaseCall, "call has no caller instance")
	}
	fn := target.Func()
	callee := target.Instance()

	var state State
	a.enter(fn.Name, &state, StateOpen)
	frame := a.frames.Push()
	allocs := transcoder.NewAllocationList()
	a.logger.Debug("frame pushed",
		zap.String("func", fn.Name),
		zap.Stringer("caller", caller),
		zap.Stringer("callee", callee),
		zap.Uint64("frame", frame.Seq()),
		zap.Int("depth", frame.Depth()))

	params := &resource.Boundary{From: caller.Store, To: callee.Store, Frame: frame}
	returns := &resource.Boundary{From: callee.Store, To: caller.Store, Frame: frame}

	defer func() {
		allocs.FreeAndRelease(callee.Allocator)
		if perr := a.frames.Pop(frame); perr != nil && err == nil {
			err = perr
		}
		a.logger.Debug("frame popped", zap.String("func", fn.Name), zap.Uint64("frame", frame.Seq()))
		if err != nil {
			// results are discarded; owns already lifted go back to the callee
			returns.Unwind()
			results = nil
			a.enter(fn.Name, &state, StateFaulted)
			a.logger.Warn("call faulted", zap.String("func", fn.Name), zap.Error(err))
			err = errors.CallFailed(fn.Name, err)
			return
		}
		a.enter(fn.Name, &state, StateClosed)
	}()

	a.enter(fn.Name, &state, StateLowering)
	if len(args) != len(fn.Params) {
		return nil, errors.New(errors.PhaseCall, errors.KindInvalidData).
			Detail("%s takes %d arguments, got %d", fn.Name, len(fn.Params), len(args)).
			Build()
	}
	argRepr, err := a.enc.Lower(&transcoder.LowerContext{
		Memory:    callee.Memory,
		Allocator: callee.Allocator,
		Allocs:    allocs,
		Handles:   params,
	}, fn.ParamTypes(), args, a.maxParams)
	if err != nil {
		return nil, err
	}

	a.enter(fn.Name, &state, StateInvoking)
	out, err := target.Invoke(ctx, &Invocation{
		Frame:      frame,
		Caller:     caller,
		Params:     params,
		Results:    returns,
		Allocs:     allocs,
		Args:       argRepr,
		MaxParams:  a.maxParams,
		MaxResults: a.maxResults,
	})
	if err != nil {
		return nil, err
	}

	a.enter(fn.Name, &state, StateLifting)
	return a.dec.Lift(&transcoder.LiftContext{
		Memory:  callee.Memory,
		Handles: returns,
		Limit:   a.maxResults,
	}, fn.Results, out)
}
