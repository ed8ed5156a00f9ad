package types

import (
	"sort"
	"strings"
)

// Param is a named function parameter.
type Param struct {
	Name string
	Type TypeID
}

// FuncType is a resolved function signature.
type FuncType struct {
	Name    string
	Params  []Param
	Results []TypeID
}

// ParamTypes returns the parameter types in declaration order.
func (f *FuncType) ParamTypes() []TypeID {
	out := make([]TypeID, len(f.Params))
	for i, p := range f.Params {
		out[i] = p.Type
	}
	return out
}

// Signature renders the function in WIT syntax.
func (f *FuncType) Signature(g *Graph) string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteString(": func(")
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(g.Describe(p.Type))
	}
	b.WriteByte(')')
	switch len(f.Results) {
	case 0:
	case 1:
		b.WriteString(" -> ")
		b.WriteString(g.Describe(f.Results[0]))
	default:
		b.WriteString(" -> (")
		for i, r := range f.Results {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(g.Describe(r))
		}
		b.WriteByte(')')
	}
	return b.String()
}

// World is a named set of imported and exported functions.
type World struct {
	Name    string
	Imports map[string]*FuncType
	Exports map[string]*FuncType
}

// NewWorld creates an empty world.
func NewWorld(name string) *World {
	return &World{
		Name:    name,
		Imports: make(map[string]*FuncType),
		Exports: make(map[string]*FuncType),
	}
}

// Import registers an imported function under its own name.
func (w *World) Import(f *FuncType) *World {
	w.Imports[f.Name] = f
	return w
}

// Export registers an exported function under its own name.
func (w *World) Export(f *FuncType) *World {
	w.Exports[f.Name] = f
	return w
}

// ImportNames returns the import names sorted.
func (w *World) ImportNames() []string {
	return sortedKeys(w.Imports)
}

// ExportNames returns the export names sorted.
func (w *World) ExportNames() []string {
	return sortedKeys(w.Exports)
}

func sortedKeys(m map[string]*FuncType) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
