package types

import (
	"testing"

	"go.bytecodealliance.org/wit"
)

func strPtr(s string) *string { return &s }

func TestImporter_Primitives(t *testing.T) {
	g := NewGraph()
	im := NewImporter(g)

	tests := []struct {
		typ  wit.Type
		kind Kind
	}{
		{wit.Bool{}, KindBool},
		{wit.U8{}, KindU8},
		{wit.S16{}, KindS16},
		{wit.U32{}, KindU32},
		{wit.S64{}, KindS64},
		{wit.F32{}, KindF32},
		{wit.F64{}, KindF64},
		{wit.Char{}, KindChar},
		{wit.String{}, KindString},
	}
	for _, tt := range tests {
		id, err := im.Import(tt.typ)
		if err != nil {
			t.Fatalf("Import(%T): %v", tt.typ, err)
		}
		if got := g.MustType(id).Kind; got != tt.kind {
			t.Errorf("Import(%T) kind = %s, want %s", tt.typ, got, tt.kind)
		}
	}
}

func TestImporter_Composites(t *testing.T) {
	g := NewGraph()
	im := NewImporter(g)

	point := &wit.TypeDef{
		Name: strPtr("point"),
		Kind: &wit.Record{Fields: []wit.Field{
			{Name: "x", Type: wit.F32{}},
			{Name: "y", Type: wit.F32{}},
		}},
	}
	list := &wit.TypeDef{Kind: &wit.List{Type: point}}
	shape := &wit.TypeDef{
		Name: strPtr("shape"),
		Kind: &wit.Variant{Cases: []wit.Case{
			{Name: "empty"},
			{Name: "path", Type: list},
		}},
	}

	id, err := im.Import(shape)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got := g.Describe(id); got != "variant shape { empty, path(list<point>) }" {
		t.Errorf("Describe = %q", got)
	}

	again, err := im.Import(shape)
	if err != nil || again != id {
		t.Errorf("re-import = %d, %v; want memoized %d", again, err, id)
	}

	misc := []struct {
		def  *wit.TypeDef
		want string
	}{
		{&wit.TypeDef{Kind: &wit.Option{Type: wit.U32{}}}, "option<u32>"},
		{&wit.TypeDef{Kind: &wit.Result{OK: wit.U32{}, Err: wit.String{}}}, "result<u32, string>"},
		{&wit.TypeDef{Kind: &wit.Result{}}, "result"},
		{&wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U8{}, wit.S8{}}}}, "tuple<u8, s8>"},
		{&wit.TypeDef{Name: strPtr("mode"), Kind: &wit.Enum{Cases: []wit.EnumCase{{Name: "fast"}, {Name: "slow"}}}}, "enum mode { fast, slow }"},
		{&wit.TypeDef{Name: strPtr("bits"), Kind: &wit.Flags{Flags: []wit.Flag{{Name: "a"}, {Name: "b"}}}}, "flags bits { a, b }"},
	}
	for _, tt := range misc {
		id, err := im.Import(tt.def)
		if err != nil {
			t.Fatalf("Import(%s): %v", tt.want, err)
		}
		if got := g.Describe(id); got != tt.want {
			t.Errorf("Describe = %q, want %q", got, tt.want)
		}
	}
}

func TestImporter_Resources(t *testing.T) {
	g := NewGraph()
	im := NewImporter(g)

	float := &wit.TypeDef{Name: strPtr("float"), Kind: &wit.Resource{}}
	own := &wit.TypeDef{Kind: &wit.Own{Type: float}}
	borrow := &wit.TypeDef{Kind: &wit.Borrow{Type: float}}

	ownID, err := im.Import(own)
	if err != nil {
		t.Fatalf("Import own: %v", err)
	}
	borrowID, err := im.Import(borrow)
	if err != nil {
		t.Fatalf("Import borrow: %v", err)
	}
	if g.MustType(ownID).Resource != g.MustType(borrowID).Resource {
		t.Error("own and borrow of the same resource must share a ResourceID")
	}
	if got := g.Describe(borrowID); got != "borrow<float>" {
		t.Errorf("Describe = %q", got)
	}

	if _, err := im.Import(&wit.TypeDef{Kind: &wit.Own{}}); err == nil {
		t.Error("own without resource should fail")
	}
}

func TestImporter_Resolve(t *testing.T) {
	float := &wit.TypeDef{Name: strPtr("float"), Kind: &wit.Resource{}}
	point := &wit.TypeDef{
		Name: strPtr("point"),
		Kind: &wit.Record{Fields: []wit.Field{{Name: "x", Type: wit.S32{}}}},
	}
	alias := &wit.TypeDef{Name: strPtr("coord"), Kind: point}
	res := &wit.Resolve{TypeDefs: []*wit.TypeDef{
		float,
		point,
		alias,
		{Kind: &wit.List{Type: wit.U8{}}},
	}}

	g := NewGraph()
	names, err := NewImporter(g).ImportResolve(res)
	if err != nil {
		t.Fatalf("ImportResolve: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("names = %v, want point and coord", names)
	}
	if names["coord"] != names["point"] {
		t.Error("alias should share its target id")
	}
	if id, ok := g.Lookup("coord"); !ok || id != names["point"] {
		t.Errorf("Lookup(coord) = %d, %v", id, ok)
	}
	if _, ok := g.Resource(1); !ok {
		t.Error("resource float should be declared")
	}
}
