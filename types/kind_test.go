package types

import "testing"

func TestKind_String(t *testing.T) {
	tests := []struct {
		want string
		kind Kind
	}{
		{"bool", KindBool},
		{"s64", KindS64},
		{"char", KindChar},
		{"string", KindString},
		{"flags", KindFlags},
		{"borrow", KindBorrow},
		{"unknown", Kind(200)},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestKind_Predicates(t *testing.T) {
	for k := KindBool; k <= KindChar; k++ {
		if !k.IsPrimitive() {
			t.Errorf("%s should be primitive", k)
		}
	}
	for _, k := range []Kind{KindString, KindList, KindRecord, KindOwn} {
		if k.IsPrimitive() {
			t.Errorf("%s should not be primitive", k)
		}
	}
	if !KindOwn.IsHandle() || !KindBorrow.IsHandle() {
		t.Error("own and borrow are handles")
	}
	if KindU32.IsHandle() {
		t.Error("u32 is not a handle")
	}
}
