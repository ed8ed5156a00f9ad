// Package fixtures provides in-process component worlds used by tests and
// the canonabi demo: a lists world that checks every argument it receives,
// and a resource-floats world with a leaf, an intermediate re-exporter and a
// runner.
package fixtures

import (
	"context"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/wippyai/canonabi/call"
	"github.com/wippyai/canonabi/errors"
	"github.com/wippyai/canonabi/types"
)

// LargeListLen is the element count list_param_large expects.
const LargeListLen = 1000

// LargeItem is element i of the list passed to list_param_large.
func LargeItem(i int) string {
	return "item-" + strconv.Itoa(i)
}

// LargeList returns the argument list_param_large expects.
func LargeList() []string {
	out := make([]string, LargeListLen)
	for i := range out {
		out[i] = LargeItem(i)
	}
	return out
}

// Lists is the lists world bound to one instance. Parameter functions fail
// with InvalidData when their argument differs from the fixed expectation.
type Lists struct {
	Graph    *types.Graph
	World    *types.World
	Instance *call.Instance
	exports  map[string]*call.Export
}

type listsTypes struct {
	u8, s8, u16, s16, u32, s32, u64, s64, f32, f64, str types.TypeID
}

// NewLists declares the lists world in g and binds its exports to inst.
func NewLists(g *types.Graph, inst *call.Instance) (*Lists, error) {
	lt := listsTypes{
		u8:  g.Prim(types.KindU8),
		s8:  g.Prim(types.KindS8),
		u16: g.Prim(types.KindU16),
		s16: g.Prim(types.KindS16),
		u32: g.Prim(types.KindU32),
		s32: g.Prim(types.KindS32),
		u64: g.Prim(types.KindU64),
		s64: g.Prim(types.KindS64),
		f32: g.Prim(types.KindF32),
		f64: g.Prim(types.KindF64),
		str: g.Prim(types.KindString),
	}
	bytes := g.List(lt.u8)
	strs := g.List(lt.str)
	l := &Lists{
		Graph:    g,
		World:    types.NewWorld("lists"),
		Instance: inst,
		exports:  make(map[string]*call.Export),
	}

	type def struct {
		name    string
		params  []types.TypeID
		results []types.TypeID
		impl    call.HostFunc
	}
	defs := []def{
		{"empty_list_param", []types.TypeID{bytes}, nil, expect([]any{})},
		{"empty_string_param", []types.TypeID{lt.str}, nil, expect("")},
		{"empty_list_result", nil, []types.TypeID{bytes}, returns([]byte{})},
		{"empty_string_result", nil, []types.TypeID{lt.str}, returns("")},

		{"list_param", []types.TypeID{bytes}, nil,
			expect([]any{uint8(1), uint8(2), uint8(3), uint8(4)})},
		{"list_param2", []types.TypeID{lt.str}, nil, expect("foo")},
		{"list_param3", []types.TypeID{strs}, nil,
			expect([]any{"foo", "bar", "baz"})},
		{"list_param4", []types.TypeID{g.List(strs)}, nil,
			expect([]any{[]any{"foo", "bar"}, []any{"baz"}})},
		{"list_param5", []types.TypeID{g.List(g.Tuple(lt.u8, lt.u32, lt.u8))}, nil,
			expect([]any{
				[]any{uint8(1), uint32(2), uint8(3)},
				[]any{uint8(4), uint32(5), uint8(6)},
			})},
		{"list_param_large", []types.TypeID{strs}, nil, expectLarge},

		{"list_result", nil, []types.TypeID{bytes}, returns([]byte{1, 2, 3, 4, 5})},
		{"list_result2", nil, []types.TypeID{lt.str}, returns("hello!")},
		{"list_result3", nil, []types.TypeID{strs}, returns([]string{"hello,", "world!"})},

		{"list_roundtrip", []types.TypeID{bytes}, []types.TypeID{bytes}, echo},
		{"string_roundtrip", []types.TypeID{lt.str}, []types.TypeID{lt.str}, echo},
	}
	for _, pair := range [][2]types.TypeID{
		{lt.u8, lt.s8}, {lt.u16, lt.s16}, {lt.u32, lt.s32}, {lt.u64, lt.s64}, {lt.f32, lt.f64},
	} {
		a, b := g.List(pair[0]), g.List(pair[1])
		defs = append(defs, def{
			name:    minmaxName(g, pair[0]),
			params:  []types.TypeID{a, b},
			results: []types.TypeID{g.Tuple(a, b)},
			impl:    echoTuple,
		})
	}
	if err := g.Err(); err != nil {
		return nil, err
	}

	for _, d := range defs {
		fn := &types.FuncType{Name: d.name, Results: d.results}
		for i, p := range d.params {
			fn.Params = append(fn.Params, types.Param{Name: string(rune('a' + i)), Type: p})
		}
		exp, err := call.NewExport(g, fn, inst, d.impl)
		if err != nil {
			return nil, err
		}
		l.World.Export(fn)
		l.exports[d.name] = exp
	}
	return l, nil
}

func minmaxName(g *types.Graph, unsigned types.TypeID) string {
	switch g.MustType(unsigned).Kind {
	case types.KindU8:
		return "list_minmax8"
	case types.KindU16:
		return "list_minmax16"
	case types.KindU32:
		return "list_minmax32"
	case types.KindU64:
		return "list_minmax64"
	default:
		return "list_minmax_float"
	}
}

// Export returns the export named name, or nil.
func (l *Lists) Export(name string) *call.Export {
	return l.exports[name]
}

// Names returns the export names sorted.
func (l *Lists) Names() []string {
	out := make([]string, 0, len(l.exports))
	for name := range l.exports {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// MinMaxArgs returns the extreme values list_minmax<bits> is exercised with,
// as the unsigned and signed lists to pass. bits 0 selects the float pair.
func MinMaxArgs(bits int) (any, any) {
	switch bits {
	case 8:
		return []uint8{0, math.MaxUint8}, []int8{math.MinInt8, -1, 0, math.MaxInt8}
	case 16:
		return []uint16{0, math.MaxUint16}, []int16{math.MinInt16, -1, 0, math.MaxInt16}
	case 32:
		return []uint32{0, math.MaxUint32}, []int32{math.MinInt32, -1, 0, math.MaxInt32}
	case 64:
		return []uint64{0, math.MaxUint64}, []int64{math.MinInt64, -1, 0, math.MaxInt64}
	default:
		return []float32{-math.MaxFloat32, -math.SmallestNonzeroFloat32, math.SmallestNonzeroFloat32, math.MaxFloat32, float32(math.Inf(-1)), float32(math.Inf(1))},
			[]float64{-math.MaxFloat64, -math.SmallestNonzeroFloat64, math.SmallestNonzeroFloat64, math.MaxFloat64, math.Inf(-1), math.Inf(1)}
	}
}

func expect(want any) call.HostFunc {
	return func(_ context.Context, _ *call.Instance, args []any) ([]any, error) {
		if !reflect.DeepEqual(args[0], want) {
			return nil, mismatch(args[0], want)
		}
		return nil, nil
	}
}

func expectLarge(_ context.Context, _ *call.Instance, args []any) ([]any, error) {
	got, ok := args[0].([]any)
	if !ok || len(got) != LargeListLen {
		return nil, errors.New(errors.PhaseCall, errors.KindInvalidData).
			Detail("list_param_large: got %d elements, want %d", len(got), LargeListLen).
			Build()
	}
	for i, v := range got {
		if v != LargeItem(i) {
			return nil, mismatch(v, LargeItem(i))
		}
	}
	return nil, nil
}

func returns(v any) call.HostFunc {
	return func(context.Context, *call.Instance, []any) ([]any, error) {
		return []any{v}, nil
	}
}

func echo(_ context.Context, _ *call.Instance, args []any) ([]any, error) {
	return args, nil
}

func echoTuple(_ context.Context, _ *call.Instance, args []any) ([]any, error) {
	return []any{[]any{args[0], args[1]}}, nil
}

func mismatch(got, want any) error {
	return errors.New(errors.PhaseCall, errors.KindInvalidData).
		Value(got).
		Detail("unexpected argument %v, want %v", got, want).
		Build()
}
