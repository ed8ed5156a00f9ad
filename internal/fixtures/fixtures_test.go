package fixtures

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/wippyai/canonabi/call"
	"github.com/wippyai/canonabi/config"
	werrors "github.com/wippyai/canonabi/errors"
	"github.com/wippyai/canonabi/memory"
	"github.com/wippyai/canonabi/resource"
	"github.com/wippyai/canonabi/types"
)

type listsEnv struct {
	lists   *Lists
	adapter *call.Adapter
	caller  *call.Instance
	alloc   *memory.Bump
}

// forEachBackend runs fn once per memory backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, env *listsEnv)) {
	for _, backend := range []string{config.BackendSlice, config.BackendWazero} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := config.Default()
			cfg.MemoryBackend = backend
			b, err := cfg.NewMemory(ctx)
			if err != nil {
				t.Fatal(err)
			}
			defer b.Close(ctx)

			g := types.NewGraph()
			leaf := call.NewInstance("lists", resource.NewStore(g), b.Memory, b.Allocator)
			lists, err := NewLists(g, leaf)
			if err != nil {
				t.Fatal(err)
			}
			fn(t, &listsEnv{
				lists:   lists,
				adapter: call.NewAdapter(g, cfg.AdapterOptions()...),
				caller:  call.NewInstance("runner", nil, nil, nil),
				alloc:   b.Allocator,
			})
		})
	}
}

func (env *listsEnv) call(t *testing.T, name string, args ...any) []any {
	t.Helper()
	exp := env.lists.Export(name)
	if exp == nil {
		t.Fatalf("no export %q", name)
	}
	out, err := env.adapter.Call(context.Background(), env.caller, exp, args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return out
}

func toAny(slice any) []any {
	rv := reflect.ValueOf(slice)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func TestListsWorld(t *testing.T) {
	g := types.NewGraph()
	lists, err := NewLists(g, call.NewInstance("lists", nil, nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"empty_list_param", "empty_list_result", "empty_string_param", "empty_string_result",
		"list_minmax16", "list_minmax32", "list_minmax64", "list_minmax8", "list_minmax_float",
		"list_param", "list_param2", "list_param3", "list_param4", "list_param5", "list_param_large",
		"list_result", "list_result2", "list_result3", "list_roundtrip", "string_roundtrip",
	}
	if got := lists.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v", got)
	}
	if got := lists.World.ExportNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("world exports = %v", got)
	}
}

func TestListsParams(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *listsEnv) {
		tests := []struct {
			name string
			arg  any
		}{
			{"empty_list_param", []byte{}},
			{"empty_string_param", ""},
			{"list_param", []byte{1, 2, 3, 4}},
			{"list_param2", "foo"},
			{"list_param3", []string{"foo", "bar", "baz"}},
			{"list_param4", [][]string{{"foo", "bar"}, {"baz"}}},
			{"list_param5", []any{
				[]any{uint8(1), uint32(2), uint8(3)},
				[]any{4, 5, 6},
			}},
		}
		for _, tt := range tests {
			if out := env.call(t, tt.name, tt.arg); len(out) != 0 {
				t.Errorf("%s returned %v", tt.name, out)
			}
		}
	})
}

func TestListsParamMismatch(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *listsEnv) {
		tests := []struct {
			name string
			arg  any
		}{
			{"list_param", []byte{1, 2, 3}},
			{"list_param4", [][]string{{"foo"}, {"bar", "baz"}}},
			{"list_param5", []any{[]any{1, 2, 3}}},
			{"empty_string_param", "x"},
		}
		for _, tt := range tests {
			_, err := env.adapter.Call(context.Background(), env.caller, env.lists.Export(tt.name), []any{tt.arg})
			if !errors.Is(err, werrors.ErrInvalidData) {
				t.Errorf("%s err = %v, want invalid data", tt.name, err)
			}
		}
	})
}

func TestListsResults(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *listsEnv) {
		tests := []struct {
			name string
			want any
		}{
			{"empty_list_result", []any{}},
			{"empty_string_result", ""},
			{"list_result", []any{uint8(1), uint8(2), uint8(3), uint8(4), uint8(5)}},
			{"list_result2", "hello!"},
			{"list_result3", []any{"hello,", "world!"}},
		}
		for _, tt := range tests {
			out := env.call(t, tt.name)
			if len(out) != 1 || !reflect.DeepEqual(out[0], tt.want) {
				t.Errorf("%s = %#v, want %#v", tt.name, out, tt.want)
			}
		}

		empty := env.call(t, "empty_list_result")[0].([]any)
		if empty == nil || len(empty) != 0 {
			t.Errorf("empty_list_result = %#v, want a non-nil empty list", empty)
		}
		if st := env.alloc.Stats(); st.Live != 0 {
			t.Errorf("live bytes after results = %d", st.Live)
		}
	})
}

func TestListsRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *listsEnv) {
		for _, s := range []string{"", "x", "hello, world", "héllo wörld ✓", "\x00nul"} {
			if out := env.call(t, "string_roundtrip", s); out[0] != s {
				t.Errorf("string_roundtrip(%q) = %q", s, out[0])
			}
		}

		for _, list := range [][]byte{{}, {1, 2, 3, 4, 5}, {0, 0xff}} {
			out := env.call(t, "list_roundtrip", list)
			if !reflect.DeepEqual(out[0], toAny(list)) {
				t.Errorf("list_roundtrip(%v) = %#v", list, out[0])
			}
		}
	})
}

func TestListsMinMax(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *listsEnv) {
		tests := []struct {
			name string
			bits int
		}{
			{"list_minmax8", 8},
			{"list_minmax16", 16},
			{"list_minmax32", 32},
			{"list_minmax64", 64},
			{"list_minmax_float", 0},
		}
		for _, tt := range tests {
			a, b := MinMaxArgs(tt.bits)
			out := env.call(t, tt.name, a, b)
			want := []any{toAny(a), toAny(b)}
			if len(out) != 1 || !reflect.DeepEqual(out[0], want) {
				t.Errorf("%s = %#v, want %#v", tt.name, out, want)
			}
		}
	})
}

func TestListsLargeParam(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *listsEnv) {
		env.call(t, "list_param_large", LargeList())

		st := env.alloc.Stats()
		// one block for the list plus one per element
		if st.Allocs != LargeListLen+1 {
			t.Errorf("allocations = %d, want %d", st.Allocs, LargeListLen+1)
		}
		if st.Live != 0 || st.Frees != st.Allocs {
			t.Errorf("stats after call = %+v, want everything freed", st)
		}

		reversed := LargeList()
		reversed[0], reversed[1] = reversed[1], reversed[0]
		_, err := env.adapter.Call(context.Background(), env.caller, env.lists.Export("list_param_large"), []any{reversed})
		if !errors.Is(err, werrors.ErrInvalidData) {
			t.Errorf("reordered list err = %v, want invalid data", err)
		}
		if _, err := env.adapter.Call(context.Background(), env.caller, env.lists.Export("list_param_large"), []any{reversed[:999]}); !errors.Is(err, werrors.ErrInvalidData) {
			t.Errorf("short list err = %v, want invalid data", err)
		}
	})
}

func newChain(t *testing.T) *Chain {
	t.Helper()
	g := types.NewGraph()
	inst := func(name string) *call.Instance {
		mem := memory.NewLinear(1)
		return call.NewInstance(name, resource.NewStore(g), mem, memory.NewBump(mem))
	}
	c, err := NewChain(g, inst("runner"), inst("intermediate"), inst("leaf"))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

type invoker func(ctx context.Context, name string, args ...any) ([]any, error)

func (c *Chain) routes() map[string]invoker {
	return map[string]invoker{"direct": c.Direct, "intermediate": c.Call}
}

func mustCall(t *testing.T, invoke invoker, name string, args ...any) []any {
	t.Helper()
	out, err := invoke(context.Background(), name, args...)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return out
}

func TestFloatsLifecycle(t *testing.T) {
	for _, route := range []string{"direct", "intermediate"} {
		t.Run(route, func(t *testing.T) {
			c := newChain(t)
			invoke := c.routes()[route]

			a := mustCall(t, invoke, FloatNew, 3.0)[0].(resource.Handle)
			if v := mustCall(t, invoke, FloatGet, a)[0]; v != 3.0 {
				t.Fatalf("get = %v, want 3", v)
			}

			b := mustCall(t, invoke, FloatNew, 4.0)[0].(resource.Handle)
			sum := mustCall(t, invoke, FloatAdd, a, b)[0].(resource.Handle)
			if v := mustCall(t, invoke, FloatGet, sum)[0]; v != 7.0 {
				t.Errorf("get(add(a, b)) = %v, want 7", v)
			}

			// borrowing did not consume the operands
			if v := mustCall(t, invoke, FloatGet, a)[0]; v != 3.0 {
				t.Errorf("get(a) after add = %v", v)
			}
			if v := mustCall(t, invoke, FloatGet, b)[0]; v != 4.0 {
				t.Errorf("get(b) after add = %v", v)
			}

			if n := c.Runner.Store.Len(); n != 3 {
				t.Errorf("runner holds %d handles, want 3", n)
			}
			if n := c.Intermediate.Instance.Store.Len() + c.Leaf.Instance.Store.Len(); n != 0 {
				t.Errorf("%d entries left behind the runner", n)
			}
			if d := c.Adapter.Frames().Depth(); d != 0 {
				t.Errorf("frame depth = %d", d)
			}

			for _, h := range []resource.Handle{a, b, sum} {
				if err := c.Runner.Store.Drop(h); err != nil {
					t.Fatal(err)
				}
			}
			if n := c.Leaf.Dropped(); n != 3 {
				t.Errorf("destroyed %d floats, want 3", n)
			}
			if err := c.Runner.Store.Drop(a); !errors.Is(err, werrors.ErrUseAfterDrop) {
				t.Errorf("double drop err = %v", err)
			}
		})
	}
}

func TestFloatsIdentityAcrossIntermediate(t *testing.T) {
	c := newChain(t)

	h := mustCall(t, c.Call, FloatNew, 1.25)[0].(resource.Handle)
	held, err := c.Runner.Store.Get(h)
	if err != nil {
		t.Fatal(err)
	}
	created := c.Leaf.Created()
	if len(created) != 1 || held.Rep() != created[0] {
		t.Fatalf("runner holds %v, leaf created %v", held.Rep(), created)
	}

	mustCall(t, c.Call, FloatGet, h)
	if c.Leaf.LastSeen() != held {
		t.Error("leaf resolved a different instance than the runner holds")
	}

	// mutations on the leaf side are visible to the runner
	created[0].Value = 2.5
	if v := mustCall(t, c.Call, FloatGet, h)[0]; v != 2.5 {
		t.Errorf("get = %v after mutation, want 2.5", v)
	}
}

func TestFloatsBorrowLeak(t *testing.T) {
	for _, route := range []string{"direct", "intermediate"} {
		t.Run(route, func(t *testing.T) {
			c := newChain(t)
			invoke := c.routes()[route]
			h := mustCall(t, invoke, FloatNew, 5.0)[0].(resource.Handle)

			out, err := invoke(context.Background(), FloatLeak, h)
			if !errors.Is(err, werrors.ErrBorrowLeaked) {
				t.Fatalf("leak err = %v, want borrow leaked", err)
			}
			if !errors.Is(err, werrors.ErrCallFailed) || out != nil {
				t.Errorf("leak = %v, %v", out, err)
			}
			if len(c.Leaf.Kept()) != 1 {
				t.Fatalf("leaf kept %d handles", len(c.Leaf.Kept()))
			}
			if _, err := c.Leaf.Instance.Store.Get(c.Leaf.Kept()[0]); err == nil {
				t.Error("leaked borrow still resolves after the call")
			}

			if d := c.Adapter.Frames().Depth(); d != 0 {
				t.Errorf("frame depth = %d after leak", d)
			}
			if v := mustCall(t, invoke, FloatGet, h)[0]; v != 5.0 {
				t.Errorf("get after leak = %v", v)
			}
			if err := c.Runner.Store.Drop(h); err != nil {
				t.Errorf("drop after leak: %v", err)
			}
			if c.Leaf.Dropped() != 1 {
				t.Errorf("destroyed %d floats, want 1", c.Leaf.Dropped())
			}
		})
	}
}

func TestChainImports(t *testing.T) {
	c := newChain(t)
	if got := c.RunnerWorld.ImportNames(); len(got) != 4 || got[0] != FloatsInterface+"#"+FloatNew {
		t.Errorf("runner imports = %v", got)
	}
	if err := c.Imports.Check(c.Graph, c.RunnerWorld); err != nil {
		t.Error(err)
	}

	// a runner asking for an older compatible version still resolves
	if _, err := c.Imports.Resolve("runner", "test:resource-floats/test@0.1#"+FloatGet); err != nil {
		t.Errorf("semver resolve: %v", err)
	}
	if _, err := c.Direct(context.Background(), "missing"); !errors.Is(err, werrors.ErrNotFound) {
		t.Errorf("Direct(missing) err = %v", err)
	}
}
