package linker

import (
	"context"
	"testing"

	"github.com/wippyai/canonabi/call"
	"github.com/wippyai/canonabi/transcoder"
	"github.com/wippyai/canonabi/types"
)

type stubTarget struct {
	fn *types.FuncType
}

func (s *stubTarget) Func() *types.FuncType { return s.fn }
func (s *stubTarget) Instance() *call.Instance { return nil }
func (s *stubTarget) Invoke(context.Context, *call.Invocation) (transcoder.FlatRepr, error) {
	return transcoder.FlatRepr{}, nil
}

func stub(name string) *stubTarget {
	return &stubTarget{fn: &types.FuncType{Name: name}}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input  string
		want   Version
		wantOk bool
	}{
		{"0.2.0", Version{0, 2, 0}, true},
		{"1.0.0", Version{1, 0, 0}, true},
		{"0.2", Version{0, 2, 0}, true},
		{"1", Version{1, 0, 0}, true},
		{"10.20.30", Version{10, 20, 30}, true},
		{"4294967295", Version{4294967295, 0, 0}, true},
		{"4294967296", Version{}, false},
		{"", Version{}, false},
		{"abc", Version{}, false},
		{"1.2.3.4", Version{}, false},
		{"1.a.0", Version{}, false},
		{"1..0", Version{}, false},
		{".1.0", Version{}, false},
		{"1.0.", Version{}, false},
		{"+1.0", Version{}, false},
	}

	for _, tt := range tests {
		v, ok := ParseVersion(tt.input)
		if ok != tt.wantOk {
			t.Errorf("ParseVersion(%q) ok = %v, want %v", tt.input, ok, tt.wantOk)
		}
		if ok && v != tt.want {
			t.Errorf("ParseVersion(%q) = %v, want %v", tt.input, v, tt.want)
		}
	}
}

func TestVersionCompatible(t *testing.T) {
	tests := []struct {
		have   Version
		want   Version
		compat bool
	}{
		{Version{0, 2, 0}, Version{0, 2, 0}, true},
		{Version{0, 2, 1}, Version{0, 2, 0}, true},
		{Version{0, 3, 0}, Version{0, 2, 5}, true},
		{Version{0, 1, 0}, Version{0, 2, 0}, false},
		{Version{1, 0, 0}, Version{0, 2, 0}, false},
		{Version{0, 2, 0}, Version{0, 2, 1}, false},
	}

	for _, tt := range tests {
		if got := tt.have.Compatible(tt.want); got != tt.compat {
			t.Errorf("%v.Compatible(%v) = %v, want %v", tt.have, tt.want, got, tt.compat)
		}
	}
}

func TestVersionString(t *testing.T) {
	if s := (Version{1, 2, 3}).String(); s != "1.2.3" {
		t.Errorf("String() = %q, want %q", s, "1.2.3")
	}
}

func TestNamespaceInstance(t *testing.T) {
	ns := NewNamespace()

	child := ns.Instance("test:lists")
	if child.Name() != "test:lists" {
		t.Errorf("Name() = %q, want %q", child.Name(), "test:lists")
	}
	if ns.Instance("test:lists") != child {
		t.Error("Instance didn't return same child for same name")
	}
}

func TestNamespaceInstanceVersioned(t *testing.T) {
	ns := NewNamespace()

	v1 := ns.Instance("test@0.2.0")
	v2 := ns.Instance("test@0.2.1")
	if v1 == v2 {
		t.Fatal("different versions returned the same namespace")
	}
	if ns.Instance("test@0.2.0") != v1 {
		t.Error("second call returned a different namespace")
	}
	if v1.Name() != "test" {
		t.Errorf("Name() = %q, want %q", v1.Name(), "test")
	}
	if v := v2.Version(); v == nil || *v != (Version{0, 2, 1}) {
		t.Errorf("Version() = %v, want 0.2.1", v)
	}
}

func TestNamespaceInstance_InvalidVersion(t *testing.T) {
	ns := NewNamespace()

	child := ns.Instance("test@abc")
	if child.Name() != "test@abc" {
		t.Errorf("Name() = %q, want %q", child.Name(), "test@abc")
	}
	if child.Version() != nil {
		t.Error("Version() should be nil for an unparsable version")
	}
}

func TestNamespaceDefine(t *testing.T) {
	ns := NewNamespace()
	a, b := stub("get"), stub("get")

	ns.Define("get", a)
	if ns.Target("get") != a {
		t.Fatal("Target did not return the defined target")
	}
	ns.Define("get", b)
	if ns.Target("get") != b {
		t.Error("Define did not replace the earlier binding")
	}
	if ns.Target("missing") != nil {
		t.Error("Target should return nil for an unknown name")
	}
}

func TestNamespaceResolve(t *testing.T) {
	ns := NewNamespace()
	get := stub("get")
	ns.Instance("test:floats").Instance("test@0.1.1").Define("get", get)

	tests := []struct {
		path  string
		exact bool
		want  call.Target
	}{
		{"test:floats/test@0.1.1#get", true, get},
		{"test:floats/test@0.1.0#get", false, get},
		{"test:floats/test@0.1.0#get", true, nil},
		{"test:floats/test@0.2.0#get", false, nil},
		{"test:floats/test@0.1.1#put", false, nil},
		{"nonexistent#get", false, nil},
		{"no-hash", false, nil},
	}

	for _, tt := range tests {
		var got call.Target
		if tt.exact {
			got = ns.ResolveExact(tt.path)
		} else {
			got = ns.Resolve(tt.path)
		}
		if got != tt.want {
			t.Errorf("resolve %q (exact=%v) = %v, want %v", tt.path, tt.exact, got, tt.want)
		}
	}
}

func TestNamespaceResolvePicksNewest(t *testing.T) {
	ns := NewNamespace()
	iface := ns.Instance("test:floats")
	old, newer := stub("get"), stub("get")
	iface.Instance("test@0.1.2").Define("get", old)
	iface.Instance("test@0.3.0").Define("get", newer)
	iface.Instance("test@1.0.0").Define("get", stub("get"))

	if got := ns.Resolve("test:floats/test@0.1.0#get"); got != newer {
		t.Errorf("Resolve picked %v, want the 0.3.0 binding", got)
	}
}

func TestNamespaceFullPath(t *testing.T) {
	root := NewNamespace()
	pkg := root.Instance("test:lists")

	tests := []struct {
		ns   *Namespace
		want string
	}{
		{root, ""},
		{pkg, "test:lists"},
		{pkg.Instance("test@0.1.0"), "test:lists/test@0.1.0"},
		{pkg.Instance("test"), "test:lists/test"},
		{root.Instance("child@1.0.0"), "child@1.0.0"},
	}
	for _, tt := range tests {
		if got := tt.ns.FullPath(); got != tt.want {
			t.Errorf("FullPath() = %q, want %q", got, tt.want)
		}
	}
}

func TestNamespaceNamesAndChildren(t *testing.T) {
	ns := NewNamespace()
	ns.Define("b", stub("b"))
	ns.Define("a", stub("a"))
	child := ns.Instance("c@1.0")

	names := ns.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v, want [a b]", names)
	}
	children := ns.Children()
	if len(children) != 1 || children["c@1.0.0"] != child {
		t.Errorf("Children() = %v", children)
	}
	if _, ok := children["c"]; ok {
		t.Error("versioned child keyed without its version")
	}
}
