package layout

import (
	"github.com/wippyai/canonabi/transcoder/internal/abi"
	"github.com/wippyai/canonabi/types"
)

// Info is the memory layout of one type.
type Info struct {
	// FieldOffs holds the byte offset of each record field or tuple element,
	// in declaration order.
	FieldOffs []uint32
	Size      uint32
	Align     uint32
	// DiscSize is the discriminant width for variant, option, result and enum.
	DiscSize uint32
	// PayloadOff is the offset of the case payload for variant, option and result.
	PayloadOff uint32
}

// Calculator computes layouts over a type graph, memoized by id.
type Calculator struct {
	graph *types.Graph
	cache map[types.TypeID]Info
}

func NewCalculator(g *types.Graph) *Calculator {
	return &Calculator{
		graph: g,
		cache: make(map[types.TypeID]Info),
	}
}

// Calculate returns the layout of id. Unknown ids yield a zero-sized layout.
func (c *Calculator) Calculate(id types.TypeID) Info {
	if cached, ok := c.cache[id]; ok {
		return cached
	}
	t, ok := c.graph.Type(id)
	if !ok {
		return Info{Size: 0, Align: 1}
	}

	var info Info
	switch t.Kind {
	case types.KindBool, types.KindU8, types.KindS8:
		info = Info{Size: 1, Align: 1}
	case types.KindU16, types.KindS16:
		info = Info{Size: 2, Align: 2}
	case types.KindU32, types.KindS32, types.KindF32, types.KindChar:
		info = Info{Size: 4, Align: 4}
	case types.KindU64, types.KindS64, types.KindF64:
		info = Info{Size: 8, Align: 8}
	case types.KindString, types.KindList:
		info = Info{Size: 8, Align: 4} // [ptr: u32, len: u32]
	case types.KindOwn, types.KindBorrow:
		info = Info{Size: 4, Align: 4}
	case types.KindRecord:
		elems := make([]types.TypeID, len(t.Fields))
		for i, f := range t.Fields {
			elems[i] = f.Type
		}
		info = c.sequence(elems)
	case types.KindTuple:
		info = c.sequence(t.Elems)
	case types.KindVariant:
		payloads := make([]types.TypeID, len(t.Cases))
		for i, cs := range t.Cases {
			payloads[i] = cs.Type
		}
		info = c.variant(payloads)
	case types.KindOption:
		info = c.variant([]types.TypeID{0, t.Elem})
	case types.KindResult:
		info = c.variant([]types.TypeID{t.OK, t.Err})
	case types.KindEnum:
		size := abi.DiscriminantSize(len(t.Labels))
		info = Info{Size: size, Align: size, DiscSize: size}
	case types.KindFlags:
		size, align := abi.FlagsSize(len(t.Labels))
		info = Info{Size: size, Align: align}
	default:
		info = Info{Size: 0, Align: 1}
	}

	c.cache[id] = info
	return info
}

// sequence lays out elements one after another, each at its own alignment.
func (c *Calculator) sequence(elems []types.TypeID) Info {
	offs := make([]uint32, len(elems))
	maxAlign := uint32(1)
	offset := uint32(0)

	for i, e := range elems {
		el := c.Calculate(e)
		offset = abi.AlignTo(offset, el.Align)
		offs[i] = offset
		if el.Align > maxAlign {
			maxAlign = el.Align
		}
		offset += el.Size
	}

	return Info{
		Size:      abi.AlignTo(offset, maxAlign),
		Align:     maxAlign,
		FieldOffs: offs,
	}
}

// variant lays out a discriminant followed by the largest payload. A zero id
// is a case without payload.
func (c *Calculator) variant(payloads []types.TypeID) Info {
	discSize := abi.DiscriminantSize(len(payloads))
	maxAlign := discSize
	maxCaseAlign := uint32(1)
	maxSize := uint32(0)

	for _, p := range payloads {
		if p == 0 {
			continue
		}
		pl := c.Calculate(p)
		if pl.Align > maxCaseAlign {
			maxCaseAlign = pl.Align
		}
		if pl.Size > maxSize {
			maxSize = pl.Size
		}
	}
	if maxCaseAlign > maxAlign {
		maxAlign = maxCaseAlign
	}

	payloadOff := abi.AlignTo(discSize, maxCaseAlign)
	return Info{
		Size:       abi.AlignTo(payloadOff+maxSize, maxAlign),
		Align:      maxAlign,
		DiscSize:   discSize,
		PayloadOff: payloadOff,
	}
}
