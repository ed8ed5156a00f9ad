package transcoder

import (
	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/canonabi/transcoder/internal/abi"
	"github.com/wippyai/canonabi/transcoder/internal/layout"
	"github.com/wippyai/canonabi/types"
)

// LayoutInfo is the memory layout of a type: size, alignment and, for records
// and tuples, the offset of each field in declaration order.
type LayoutInfo = layout.Info

// LayoutCalculator computes layouts and flattenings over one type graph.
// Results are memoized per TypeID; it is not safe for concurrent use.
type LayoutCalculator struct {
	graph *types.Graph
	calc  *layout.Calculator
	flat  map[types.TypeID][]api.ValueType
}

func NewLayoutCalculator(g *types.Graph) *LayoutCalculator {
	return &LayoutCalculator{
		graph: g,
		calc:  layout.NewCalculator(g),
		flat:  make(map[types.TypeID][]api.ValueType),
	}
}

// Graph returns the type graph the calculator works on.
func (lc *LayoutCalculator) Graph() *types.Graph {
	return lc.graph
}

// Calculate returns the memory layout of id.
func (lc *LayoutCalculator) Calculate(id types.TypeID) LayoutInfo {
	return lc.calc.Calculate(id)
}

// TupleLayout lays out a list of types as an anonymous tuple, the shape used
// when a parameter or result list is passed through memory.
func (lc *LayoutCalculator) TupleLayout(ids []types.TypeID) LayoutInfo {
	offs := make([]uint32, len(ids))
	maxAlign := uint32(1)
	offset := uint32(0)
	for i, id := range ids {
		el := lc.Calculate(id)
		offset = abi.AlignTo(offset, el.Align)
		offs[i] = offset
		if el.Align > maxAlign {
			maxAlign = el.Align
		}
		offset += el.Size
	}
	return LayoutInfo{
		Size:      abi.AlignTo(offset, maxAlign),
		Align:     maxAlign,
		FieldOffs: offs,
	}
}
