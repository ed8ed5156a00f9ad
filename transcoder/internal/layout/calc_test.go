package layout

import (
	"testing"

	"github.com/wippyai/canonabi/types"
)

func TestCalculatePrimitives(t *testing.T) {
	g := types.NewGraph()
	c := NewCalculator(g)

	tests := []struct {
		kind  types.Kind
		size  uint32
		align uint32
	}{
		{types.KindBool, 1, 1},
		{types.KindU8, 1, 1},
		{types.KindS8, 1, 1},
		{types.KindU16, 2, 2},
		{types.KindS16, 2, 2},
		{types.KindU32, 4, 4},
		{types.KindS32, 4, 4},
		{types.KindU64, 8, 8},
		{types.KindS64, 8, 8},
		{types.KindF32, 4, 4},
		{types.KindF64, 8, 8},
		{types.KindChar, 4, 4},
		{types.KindString, 8, 4},
	}

	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			info := c.Calculate(g.Prim(tc.kind))
			if info.Size != tc.size {
				t.Errorf("size: got %d, want %d", info.Size, tc.size)
			}
			if info.Align != tc.align {
				t.Errorf("align: got %d, want %d", info.Align, tc.align)
			}
		})
	}
}

func TestCalculateComposites(t *testing.T) {
	g := types.NewGraph()
	u8 := g.Prim(types.KindU8)
	u16 := g.Prim(types.KindU16)
	u32 := g.Prim(types.KindU32)
	u64 := g.Prim(types.KindU64)
	str := g.Prim(types.KindString)
	f64 := g.Prim(types.KindF64)
	res := g.DeclareResource("float")

	cases := make([]string, 300)
	for i := range cases {
		cases[i] = "c" + string(rune('a'+i%26)) + string(rune('a'+i/26))
	}

	tests := []struct {
		name       string
		id         types.TypeID
		size       uint32
		align      uint32
		payloadOff uint32
	}{
		{"empty record", g.Record("empty"), 0, 1, 0},
		{"record u8 u32", g.Record("r1", types.Field{Name: "a", Type: u8}, types.Field{Name: "b", Type: u32}), 8, 4, 0},
		{"record u32 u8", g.Record("r2", types.Field{Name: "a", Type: u32}, types.Field{Name: "b", Type: u8}), 8, 4, 0},
		{"record u8 u64 u8", g.Record("r3", types.Field{Name: "a", Type: u8}, types.Field{Name: "b", Type: u64}, types.Field{Name: "c", Type: u8}), 24, 8, 0},
		{"tuple u8 u16", g.Tuple(u8, u16), 4, 2, 0},
		{"tuple string u32", g.Tuple(str, u32), 12, 4, 0},
		{"list", g.List(u64), 8, 4, 0},
		{"option u8", g.Option(u8), 2, 1, 1},
		{"option u32", g.Option(u32), 8, 4, 4},
		{"option f64", g.Option(f64), 16, 8, 8},
		{"option string", g.Option(str), 12, 4, 4},
		{"result u32 string", g.Result(u32, str), 12, 4, 4},
		{"result empty", g.Result(0, 0), 1, 1, 1},
		{"result _ u8", g.Result(0, u8), 2, 1, 1},
		{"variant mixed", g.Variant("v", types.Case{Name: "a"}, types.Case{Name: "b", Type: u8}, types.Case{Name: "c", Type: u64}), 16, 8, 8},
		{"enum small", g.Enum("e1", "x", "y"), 1, 1, 0},
		{"enum wide", g.Enum("e2", cases...), 2, 2, 0},
		{"flags 3", g.Flags("f3", "a", "b", "c"), 1, 1, 0},
		{"own", g.Own(res), 4, 4, 0},
		{"borrow", g.Borrow(res), 4, 4, 0},
	}

	c := NewCalculator(g)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := c.Calculate(tc.id)
			if info.Size != tc.size || info.Align != tc.align {
				t.Errorf("layout = %d/%d, want %d/%d", info.Size, info.Align, tc.size, tc.align)
			}
			if info.PayloadOff != tc.payloadOff {
				t.Errorf("payload offset = %d, want %d", info.PayloadOff, tc.payloadOff)
			}
		})
	}
	if err := g.Err(); err != nil {
		t.Fatalf("graph: %v", err)
	}
}

func TestCalculateFieldOffsets(t *testing.T) {
	g := types.NewGraph()
	rec := g.Record("point3",
		types.Field{Name: "tag", Type: g.Prim(types.KindU8)},
		types.Field{Name: "x", Type: g.Prim(types.KindF64)},
		types.Field{Name: "y", Type: g.Prim(types.KindU16)},
		types.Field{Name: "name", Type: g.Prim(types.KindString)},
	)
	info := NewCalculator(g).Calculate(rec)
	want := []uint32{0, 8, 16, 20}
	if len(info.FieldOffs) != len(want) {
		t.Fatalf("FieldOffs = %v", info.FieldOffs)
	}
	for i := range want {
		if info.FieldOffs[i] != want[i] {
			t.Errorf("FieldOffs[%d] = %d, want %d", i, info.FieldOffs[i], want[i])
		}
	}
	if info.Size != 32 || info.Align != 8 {
		t.Errorf("layout = %d/%d, want 32/8", info.Size, info.Align)
	}
}

func TestCalculateMemoized(t *testing.T) {
	g := types.NewGraph()
	list := g.List(g.Prim(types.KindString))
	c := NewCalculator(g)
	_ = c.Calculate(list)
	if _, ok := c.cache[list]; !ok {
		t.Error("layout should be cached by id")
	}
	if info := c.Calculate(999); info.Size != 0 || info.Align != 1 {
		t.Errorf("unknown id layout = %+v", info)
	}
}
