package linker

import (
	"context"
	"sort"
	"sync"

	"github.com/wippyai/canonabi/call"
	"github.com/wippyai/canonabi/errors"
	"github.com/wippyai/canonabi/types"
	"go.uber.org/zap"
)

// ImportTable maps (importing world, import name) to the call target that
// satisfies it. Names containing '#' are resolved through the world's
// namespace tree ("pkg:name/iface@1.0#func") with semver matching; plain
// names live at the world's root.
type ImportTable struct {
	worlds map[string]*Namespace
	mu     sync.RWMutex
}

func NewImportTable() *ImportTable {
	return &ImportTable{worlds: make(map[string]*Namespace)}
}

// World returns the namespace root for world, creating it if needed.
func (it *ImportTable) World(world string) *Namespace {
	it.mu.Lock()
	defer it.mu.Unlock()
	ns, ok := it.worlds[world]
	if !ok {
		ns = NewNamespace()
		it.worlds[world] = ns
	}
	return ns
}

// Worlds returns the worlds that have at least one namespace, sorted.
func (it *ImportTable) Worlds() []string {
	it.mu.RLock()
	defer it.mu.RUnlock()
	out := make([]string, 0, len(it.worlds))
	for w := range it.worlds {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Define binds name in world to t.
func (it *ImportTable) Define(world, name string, t call.Target) {
	ns := it.World(world)
	iface, fn := splitImport(name)
	if iface != "" {
		for _, seg := range splitPath(iface) {
			key := seg.name
			if seg.version != nil {
				key += "@" + seg.version.String()
			}
			ns = ns.Instance(key)
		}
	}
	ns.Define(fn, t)
	Logger().Debug("import defined", zap.String("world", world), zap.String("name", name))
}

// Resolve returns the target bound to name in world.
func (it *ImportTable) Resolve(world, name string) (call.Target, error) {
	it.mu.RLock()
	ns, ok := it.worlds[world]
	it.mu.RUnlock()
	if ok {
		var t call.Target
		if iface, _ := splitImport(name); iface != "" {
			t = ns.Resolve(name)
		} else {
			t = ns.Target(name)
		}
		if t != nil {
			return t, nil
		}
	}
	return nil, errors.NotFound(errors.PhaseLinking, "import", world+"#"+name)
}

// Check verifies that every import of w is bound and that each binding's
// parameter and result types match the declared ones, compared as rendered
// against g.
func (it *ImportTable) Check(g *types.Graph, w *types.World) error {
	var missing []string
	for _, name := range w.ImportNames() {
		t, err := it.Resolve(w.Name, name)
		if err != nil {
			missing = append(missing, w.Name+"#"+name)
			continue
		}
		want := w.Imports[name]
		if got := t.Func(); !sameShape(g, want, got) {
			return errors.New(errors.PhaseLinking, errors.KindTypeMismatch).
				Path(name).
				WitType(want.Signature(g)).
				Detail("import %s#%s bound to %s", w.Name, name, got.Signature(g)).
				Build()
		}
	}
	if len(missing) > 0 {
		Logger().Warn("unresolved imports", zap.String("world", w.Name), zap.Strings("imports", missing))
		return errors.NewMissingImportsError(missing)
	}
	return nil
}

// Call resolves name in caller's world and invokes it through a.
func (it *ImportTable) Call(ctx context.Context, a *call.Adapter, caller *call.Instance, world, name string, args ...any) ([]any, error) {
	t, err := it.Resolve(world, name)
	if err != nil {
		return nil, err
	}
	return a.Call(ctx, caller, t, args)
}

func splitImport(name string) (iface, fn string) {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '#' {
			return name[:i], name[i+1:]
		}
	}
	return "", name
}

func sameShape(g *types.Graph, a, b *types.FuncType) bool {
	if len(a.Params) != len(b.Params) || len(a.Results) != len(b.Results) {
		return false
	}
	for i := range a.Params {
		if g.Describe(a.Params[i].Type) != g.Describe(b.Params[i].Type) {
			return false
		}
	}
	for i := range a.Results {
		if g.Describe(a.Results[i]) != g.Describe(b.Results[i]) {
			return false
		}
	}
	return true
}
