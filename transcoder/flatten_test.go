package transcoder

import (
	"reflect"
	"testing"

	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/canonabi/types"
)

const (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
	f32 = api.ValueTypeF32
	f64 = api.ValueTypeF64
)

func TestFlat(t *testing.T) {
	g := types.NewGraph()
	u32 := g.Prim(types.KindU32)
	u64 := g.Prim(types.KindU64)
	fl32 := g.Prim(types.KindF32)
	fl64 := g.Prim(types.KindF64)
	str := g.Prim(types.KindString)
	res := g.DeclareResource("float")

	labels := make([]string, 40)
	for i := range labels {
		labels[i] = "f" + string(rune('a'+i%26)) + string(rune('a'+i/26))
	}

	tests := []struct {
		name string
		id   types.TypeID
		want []api.ValueType
	}{
		{"bool", g.Prim(types.KindBool), []api.ValueType{i32}},
		{"s8", g.Prim(types.KindS8), []api.ValueType{i32}},
		{"u64", u64, []api.ValueType{i64}},
		{"f32", fl32, []api.ValueType{f32}},
		{"f64", fl64, []api.ValueType{f64}},
		{"char", g.Prim(types.KindChar), []api.ValueType{i32}},
		{"string", str, []api.ValueType{i32, i32}},
		{"list", g.List(u32), []api.ValueType{i32, i32}},
		{"record", g.Record("point", types.Field{Name: "x", Type: fl64}, types.Field{Name: "name", Type: str}),
			[]api.ValueType{f64, i32, i32}},
		{"tuple", g.Tuple(u32, fl32), []api.ValueType{i32, f32}},
		{"option f32", g.Option(fl32), []api.ValueType{i32, f32}},
		{"result u32 f32", g.Result(u32, fl32), []api.ValueType{i32, i32}},
		{"result f64 u32", g.Result(fl64, u32), []api.ValueType{i32, i64}},
		{"result empty", g.Result(0, 0), []api.ValueType{i32}},
		{"variant join", g.Variant("v",
			types.Case{Name: "a", Type: fl32},
			types.Case{Name: "b", Type: g.Tuple(u32, u64)},
			types.Case{Name: "c"}),
			[]api.ValueType{i32, i32, i64}},
		{"enum", g.Enum("e", "x", "y"), []api.ValueType{i32}},
		{"flags none", g.Flags("none"), nil},
		{"flags 40", g.Flags("many", labels...), []api.ValueType{i32, i32}},
		{"own", g.Own(res), []api.ValueType{i32}},
		{"borrow", g.Borrow(res), []api.ValueType{i32}},
	}
	if err := g.Err(); err != nil {
		t.Fatal(err)
	}

	lc := NewLayoutCalculator(g)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lc.Flat(tt.id)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Flat = %v, want %v", names(got), names(tt.want))
			}
			if lc.FlatCount(tt.id) != len(tt.want) {
				t.Errorf("FlatCount = %d", lc.FlatCount(tt.id))
			}
		})
	}
}

func names(vts []api.ValueType) []string {
	out := make([]string, len(vts))
	for i, vt := range vts {
		out[i] = ValueTypeName(vt)
	}
	return out
}

func TestJoin(t *testing.T) {
	tests := []struct {
		a, b, want api.ValueType
	}{
		{i32, i32, i32},
		{i32, f32, i32},
		{f32, i32, i32},
		{f32, f32, f32},
		{i32, i64, i64},
		{f32, f64, i64},
		{f64, f64, f64},
		{i64, f64, i64},
	}
	for _, tt := range tests {
		if got := join(tt.a, tt.b); got != tt.want {
			t.Errorf("join(%s, %s) = %s, want %s", ValueTypeName(tt.a), ValueTypeName(tt.b), ValueTypeName(got), ValueTypeName(tt.want))
		}
	}
}

func TestSignature(t *testing.T) {
	g := types.NewGraph()
	u32 := g.Prim(types.KindU32)
	str := g.Prim(types.KindString)
	lc := NewLayoutCalculator(g)

	in, out := lc.Signature([]types.TypeID{u32, u32}, []types.TypeID{u32}, MaxFlatParams, MaxFlatResults)
	if len(in) != 2 || len(out) != 1 {
		t.Errorf("small signature = %v -> %v", names(in), names(out))
	}

	many := make([]types.TypeID, 17)
	for i := range many {
		many[i] = u32
	}
	in, out = lc.Signature(many, []types.TypeID{str}, MaxFlatParams, MaxFlatResults)
	if !reflect.DeepEqual(in, []api.ValueType{i32}) {
		t.Errorf("17 params should pass indirectly, got %v", names(in))
	}
	if !reflect.DeepEqual(out, []api.ValueType{i32}) {
		t.Errorf("string result should return a pointer, got %v", names(out))
	}
}

func TestTupleLayout(t *testing.T) {
	g := types.NewGraph()
	u8 := g.Prim(types.KindU8)
	u64 := g.Prim(types.KindU64)
	str := g.Prim(types.KindString)
	lc := NewLayoutCalculator(g)

	info := lc.TupleLayout([]types.TypeID{u8, u64, str})
	if !reflect.DeepEqual(info.FieldOffs, []uint32{0, 8, 16}) {
		t.Errorf("FieldOffs = %v", info.FieldOffs)
	}
	if info.Size != 24 || info.Align != 8 {
		t.Errorf("size/align = %d/%d, want 24/8", info.Size, info.Align)
	}
}
