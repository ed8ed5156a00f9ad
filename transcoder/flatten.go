package transcoder

import (
	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/canonabi/transcoder/internal/abi"
	"github.com/wippyai/canonabi/types"
)

// Flattening limits of the canonical ABI. A parameter list whose flat form
// needs more slots than MaxFlatParams is passed through memory, as is a result
// list above MaxFlatResults.
const (
	MaxFlatParams  = 16
	MaxFlatResults = 1
)

// FlatRepr is the core representation of a value list: one raw bit pattern
// per slot, 32-bit kinds zero-extended. When Indirect is set the only slot is
// an i32 pointer to the values stored as a tuple in linear memory.
type FlatRepr struct {
	Slots    []uint64
	Types    []api.ValueType
	Indirect bool
}

// Len returns the number of slots.
func (r FlatRepr) Len() int {
	return len(r.Slots)
}

// Flat returns the core value types id flattens to.
// The returned slice must not be modified.
func (lc *LayoutCalculator) Flat(id types.TypeID) []api.ValueType {
	if cached, ok := lc.flat[id]; ok {
		return cached
	}
	t, ok := lc.graph.Type(id)
	if !ok {
		return nil
	}

	var out []api.ValueType
	switch t.Kind {
	case types.KindBool, types.KindU8, types.KindS8, types.KindU16, types.KindS16,
		types.KindU32, types.KindS32, types.KindChar, types.KindEnum,
		types.KindOwn, types.KindBorrow:
		out = []api.ValueType{api.ValueTypeI32}
	case types.KindU64, types.KindS64:
		out = []api.ValueType{api.ValueTypeI64}
	case types.KindF32:
		out = []api.ValueType{api.ValueTypeF32}
	case types.KindF64:
		out = []api.ValueType{api.ValueTypeF64}
	case types.KindString, types.KindList:
		out = []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
	case types.KindRecord:
		for _, f := range t.Fields {
			out = append(out, lc.Flat(f.Type)...)
		}
	case types.KindTuple:
		for _, e := range t.Elems {
			out = append(out, lc.Flat(e)...)
		}
	case types.KindFlags:
		for i := uint32(0); i < abi.FlagWords(len(t.Labels)); i++ {
			out = append(out, api.ValueTypeI32)
		}
	case types.KindVariant:
		payloads := make([]types.TypeID, len(t.Cases))
		for i, c := range t.Cases {
			payloads[i] = c.Type
		}
		out = lc.flatVariant(payloads)
	case types.KindOption:
		out = lc.flatVariant([]types.TypeID{0, t.Elem})
	case types.KindResult:
		out = lc.flatVariant([]types.TypeID{t.OK, t.Err})
	}

	lc.flat[id] = out
	return out
}

// flatVariant is the discriminant followed by the slot-wise join of every
// case payload.
func (lc *LayoutCalculator) flatVariant(payloads []types.TypeID) []api.ValueType {
	var joined []api.ValueType
	for _, p := range payloads {
		if p == 0 {
			continue
		}
		for i, ft := range lc.Flat(p) {
			if i < len(joined) {
				joined[i] = join(joined[i], ft)
			} else {
				joined = append(joined, ft)
			}
		}
	}
	return append([]api.ValueType{api.ValueTypeI32}, joined...)
}

// join picks a slot type able to carry both a and b.
func join(a, b api.ValueType) api.ValueType {
	if a == b {
		return a
	}
	if (a == api.ValueTypeI32 && b == api.ValueTypeF32) || (a == api.ValueTypeF32 && b == api.ValueTypeI32) {
		return api.ValueTypeI32
	}
	return api.ValueTypeI64
}

// FlatCount returns the number of slots id flattens to.
func (lc *LayoutCalculator) FlatCount(id types.TypeID) int {
	return len(lc.Flat(id))
}

// FlatList concatenates the flattening of each type in ids.
func (lc *LayoutCalculator) FlatList(ids []types.TypeID) []api.ValueType {
	var out []api.ValueType
	for _, id := range ids {
		out = append(out, lc.Flat(id)...)
	}
	return out
}

// Signature returns the core parameter and result types of a function with the
// given parameter and result lists after applying the flattening limits.
// An indirect result list becomes a single i32 pointer result.
func (lc *LayoutCalculator) Signature(params, results []types.TypeID, maxParams, maxResults int) (in, out []api.ValueType) {
	in = lc.FlatList(params)
	if len(in) > maxParams {
		in = []api.ValueType{api.ValueTypeI32}
	}
	out = lc.FlatList(results)
	if len(out) > maxResults {
		out = []api.ValueType{api.ValueTypeI32}
	}
	return in, out
}

// ValueTypeName returns the text-format name of a slot type.
func ValueTypeName(vt api.ValueType) string {
	return api.ValueTypeName(vt)
}
