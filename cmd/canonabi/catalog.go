package main

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/canonabi/call"
	"github.com/wippyai/canonabi/config"
	"github.com/wippyai/canonabi/internal/fixtures"
	"github.com/wippyai/canonabi/resource"
	"github.com/wippyai/canonabi/transcoder"
	"github.com/wippyai/canonabi/types"
)

// catalog holds the fixture worlds over one type graph, each callee backed
// by its own memory from the configured backend.
type catalog struct {
	cfg      config.Config
	graph    *types.Graph
	layout   *transcoder.LayoutCalculator
	lists    *fixtures.Lists
	chain    *fixtures.Chain
	adapter  *call.Adapter
	host     *call.Instance
	backings []*config.Backing
}

func newCatalog(ctx context.Context, cfg config.Config, log *zap.Logger) (*catalog, error) {
	c := &catalog{cfg: cfg, graph: types.NewGraph()}

	inst := func(name string) (*call.Instance, error) {
		b, err := cfg.NewMemory(ctx)
		if err != nil {
			return nil, err
		}
		c.backings = append(c.backings, b)
		store := resource.NewStore(c.graph)
		store.Subscribe(resource.NewLogObserver(log.Named(name)))
		return call.NewInstance(name, store, b.Memory, b.Allocator), nil
	}

	var insts [4]*call.Instance
	for i, name := range []string{"lists", "runner", "intermediate", "leaf"} {
		in, err := inst(name)
		if err != nil {
			c.Close(ctx)
			return nil, err
		}
		insts[i] = in
	}

	var err error
	if c.lists, err = fixtures.NewLists(c.graph, insts[0]); err != nil {
		c.Close(ctx)
		return nil, err
	}
	if c.chain, err = fixtures.NewChain(c.graph, insts[1], insts[2], insts[3], cfg.AdapterOptions()...); err != nil {
		c.Close(ctx)
		return nil, err
	}
	c.adapter = call.NewAdapter(c.graph, cfg.AdapterOptions()...)
	c.host = call.NewInstance("host", nil, nil, nil)
	c.layout = transcoder.NewLayoutCalculator(c.graph)
	return c, nil
}

// Close releases every backing memory.
func (c *catalog) Close(ctx context.Context) {
	for _, b := range c.backings {
		_ = b.Close(ctx)
	}
	c.backings = nil
}

// worlds returns the fixture worlds in display order.
func (c *catalog) worlds() []*types.World {
	return []*types.World{
		c.lists.World,
		c.chain.Leaf.World,
		c.chain.Intermediate.World,
		c.chain.RunnerWorld,
	}
}

// funcEntry is one import or export of a fixture world.
type funcEntry struct {
	world  string
	fn     *types.FuncType
	export bool
}

func (e funcEntry) direction() string {
	if e.export {
		return "export"
	}
	return "import"
}

// funcs returns every import and export, optionally restricted to one world
// and to names containing filter.
func (c *catalog) funcs(world, filter string) []funcEntry {
	var out []funcEntry
	for _, w := range c.worlds() {
		if world != "" && w.Name != world {
			continue
		}
		for _, name := range w.ImportNames() {
			if strings.Contains(name, filter) {
				out = append(out, funcEntry{world: w.Name, fn: w.Imports[name]})
			}
		}
		for _, name := range w.ExportNames() {
			if strings.Contains(name, filter) {
				out = append(out, funcEntry{world: w.Name, fn: w.Exports[name], export: true})
			}
		}
	}
	return out
}

// coreSignature renders the core function type of e. An export returns an
// indirect result list through an i32 pointer result; an import receives
// the pointer as a trailing parameter instead.
func (c *catalog) coreSignature(e funcEntry) string {
	in, out := c.layout.Signature(e.fn.ParamTypes(), e.fn.Results, c.cfg.MaxFlatParams, c.cfg.MaxFlatResults)
	if !e.export && len(c.layout.FlatList(e.fn.Results)) > c.cfg.MaxFlatResults {
		in = append(in, out...)
		out = nil
	}

	var b strings.Builder
	b.WriteString("(func")
	if len(in) > 0 {
		b.WriteString(" (param")
		for _, vt := range in {
			b.WriteByte(' ')
			b.WriteString(transcoder.ValueTypeName(vt))
		}
		b.WriteByte(')')
	}
	if len(out) > 0 {
		b.WriteString(" (result")
		for _, vt := range out {
			b.WriteByte(' ')
			b.WriteString(transcoder.ValueTypeName(vt))
		}
		b.WriteByte(')')
	}
	b.WriteByte(')')
	return b.String()
}

// indirect reports which sides of e's signature go through memory.
func (c *catalog) indirect(e funcEntry) string {
	var parts []string
	if len(c.layout.FlatList(e.fn.ParamTypes())) > c.cfg.MaxFlatParams {
		parts = append(parts, "params")
	}
	if len(c.layout.FlatList(e.fn.Results)) > c.cfg.MaxFlatResults {
		parts = append(parts, "results")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "+")
}

// namedType is a catalog type shown by the layout command.
type namedType struct {
	label string
	id    types.TypeID
}

// shapes declares a spread of type shapes in the graph and returns them
// together with the distinct parameter and result types of the fixtures.
func (c *catalog) shapes() ([]namedType, error) {
	g := c.graph
	u8, u16, u32, u64 := g.Prim(types.KindU8), g.Prim(types.KindU16), g.Prim(types.KindU32), g.Prim(types.KindU64)
	str := g.Prim(types.KindString)

	out := []namedType{}
	for _, k := range []types.Kind{
		types.KindBool, types.KindU8, types.KindS8, types.KindU16, types.KindS16,
		types.KindU32, types.KindS32, types.KindU64, types.KindS64,
		types.KindF32, types.KindF64, types.KindChar, types.KindString,
	} {
		out = append(out, namedType{id: g.Prim(k)})
	}

	labels := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = "f" + strconv.Itoa(i)
		}
		return out
	}
	out = append(out,
		namedType{id: g.List(u8)},
		namedType{id: g.Tuple(u8, u32, u8)},
		namedType{id: g.Tuple(u8, u64)},
		namedType{id: g.Option(u16)},
		namedType{id: g.Option(str)},
		namedType{id: g.Result(str, u8)},
		namedType{id: g.Result(0, 0)},
		namedType{label: "point", id: g.Record("point",
			types.Field{Name: "x", Type: g.Prim(types.KindF32)},
			types.Field{Name: "y", Type: g.Prim(types.KindF64)},
			types.Field{Name: "tag", Type: u8},
		)},
		namedType{label: "shape", id: g.Variant("shape",
			types.Case{Name: "none"},
			types.Case{Name: "circle", Type: g.Prim(types.KindF32)},
			types.Case{Name: "span", Type: u64},
		)},
		namedType{label: "color", id: g.Enum("color", "red", "green", "blue")},
		namedType{label: "perms", id: g.Flags("perms", "read", "write", "exec")},
		namedType{label: "wide", id: g.Flags("wide", labels(40)...)},
		namedType{id: c.chain.Own},
		namedType{id: c.chain.Borrow},
	)
	if err := g.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].label == "" {
			out[i].label = g.Describe(out[i].id)
		}
	}

	// structurally equal types get distinct ids, so dedupe on the rendering
	seen := make(map[string]bool, len(out))
	for _, nt := range out {
		seen[nt.label] = true
	}
	for _, e := range c.funcs("", "") {
		for _, id := range append(e.fn.ParamTypes(), e.fn.Results...) {
			label := g.Describe(id)
			if !seen[label] {
				seen[label] = true
				out = append(out, namedType{label: label, id: id})
			}
		}
	}
	return out, nil
}

// flatNames renders the flat slot types of id.
func (c *catalog) flatNames(id types.TypeID) string {
	flat := c.layout.Flat(id)
	if len(flat) == 0 {
		return "-"
	}
	names := make([]string, len(flat))
	for i, vt := range flat {
		names[i] = transcoder.ValueTypeName(vt)
	}
	return strings.Join(names, " ")
}
