package types

import (
	"strconv"
	"strings"

	"github.com/wippyai/canonabi/errors"
)

// TypeID identifies a type node in a Graph. Zero is never a valid id.
type TypeID uint32

// ResourceID identifies a resource type declared in a Graph. Zero is never valid.
type ResourceID uint32

// Type is one immutable node of the type graph. Children are referenced by id.
type Type struct {
	Name     string
	Fields   []Field    // record
	Cases    []Case     // variant
	Labels   []string   // enum cases, flag labels
	Elems    []TypeID   // tuple
	Elem     TypeID     // list, option
	OK       TypeID     // result ok arm, 0 when absent
	Err      TypeID     // result err arm, 0 when absent
	Resource ResourceID // own, borrow
	Kind     Kind
}

// Field is a named record field.
type Field struct {
	Name string
	Type TypeID
}

// Case is a variant case. Type is 0 for payload-less cases.
type Case struct {
	Name string
	Type TypeID
}

// Resource is a declared resource type.
type Resource struct {
	Name string
	ID   ResourceID
}

// Graph is an arena of type nodes addressed by id.
//
// Nodes may only reference ids that already exist, so the value graph is acyclic
// by construction; resource references go through ResourceID and may be
// mutually referential.
type Graph struct {
	types     []Type
	resources []Resource
	prims     map[Kind]TypeID
	byName    map[string]TypeID
	err       error
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		prims:  make(map[Kind]TypeID),
		byName: make(map[string]TypeID),
	}
}

// Len returns the number of type nodes.
func (g *Graph) Len() int {
	return len(g.types)
}

// Type returns the node for id.
func (g *Graph) Type(id TypeID) (*Type, bool) {
	if id == 0 || int(id) > len(g.types) {
		return nil, false
	}
	return &g.types[id-1], true
}

// MustType returns the node for id and panics when it does not exist.
func (g *Graph) MustType(id TypeID) *Type {
	t, ok := g.Type(id)
	if !ok {
		panic("types: unknown type id " + strconv.FormatUint(uint64(id), 10))
	}
	return t
}

// Lookup returns the id registered under a type name.
func (g *Graph) Lookup(name string) (TypeID, bool) {
	id, ok := g.byName[name]
	return id, ok
}

// Names returns every registered type name in definition order.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.byName))
	for i := range g.types {
		if n := g.types[i].Name; n != "" {
			if id, ok := g.byName[n]; ok && id == TypeID(i+1) {
				names = append(names, n)
			}
		}
	}
	return names
}

// Resource returns the declaration for id.
func (g *Graph) Resource(id ResourceID) (Resource, bool) {
	if id == 0 || int(id) > len(g.resources) {
		return Resource{}, false
	}
	return g.resources[id-1], true
}

// ResourceName returns the declared name of a resource, or "resource#N".
func (g *Graph) ResourceName(id ResourceID) string {
	if r, ok := g.Resource(id); ok && r.Name != "" {
		return r.Name
	}
	return "resource#" + strconv.FormatUint(uint64(id), 10)
}

// Err returns the first construction error recorded by the builder helpers.
func (g *Graph) Err() error {
	return g.err
}

// Add validates t and appends it, returning its id.
func (g *Graph) Add(t Type) (TypeID, error) {
	if err := g.check(t); err != nil {
		if g.err == nil {
			g.err = err
		}
		return 0, err
	}
	g.types = append(g.types, t)
	id := TypeID(len(g.types))
	if t.Name != "" {
		if _, exists := g.byName[t.Name]; !exists {
			g.byName[t.Name] = id
		}
	}
	return id, nil
}

func (g *Graph) add(t Type) TypeID {
	id, _ := g.Add(t)
	return id
}

func (g *Graph) check(t Type) error {
	ref := func(id TypeID, what string) error {
		if id == 0 || int(id) > len(g.types) {
			return errors.New(errors.PhaseGraph, errors.KindNotFound).
				WitType(t.Kind.String()).
				Detail("%s references unknown type id %d", what, id).
				Build()
		}
		return nil
	}

	switch t.Kind {
	case KindList:
		return ref(t.Elem, "list element")
	case KindOption:
		return ref(t.Elem, "option payload")
	case KindResult:
		if t.OK != 0 {
			if err := ref(t.OK, "result ok"); err != nil {
				return err
			}
		}
		if t.Err != 0 {
			return ref(t.Err, "result err")
		}
	case KindTuple:
		for i, e := range t.Elems {
			if err := ref(e, "tuple element "+strconv.Itoa(i)); err != nil {
				return err
			}
		}
	case KindRecord:
		seen := make(map[string]bool, len(t.Fields))
		for _, f := range t.Fields {
			if seen[f.Name] {
				return errors.InvalidInput(errors.PhaseGraph, "duplicate record field "+strconv.Quote(f.Name))
			}
			seen[f.Name] = true
			if err := ref(f.Type, "field "+f.Name); err != nil {
				return err
			}
		}
	case KindVariant:
		if len(t.Cases) == 0 {
			return errors.InvalidInput(errors.PhaseGraph, "variant must have at least one case")
		}
		for _, c := range t.Cases {
			if c.Type != 0 {
				if err := ref(c.Type, "case "+c.Name); err != nil {
					return err
				}
			}
		}
	case KindEnum:
		if len(t.Labels) == 0 {
			return errors.InvalidInput(errors.PhaseGraph, "enum must have at least one case")
		}
	case KindOwn, KindBorrow:
		if t.Resource == 0 || int(t.Resource) > len(g.resources) {
			return errors.New(errors.PhaseGraph, errors.KindNotFound).
				WitType(t.Kind.String()).
				Detail("unknown resource id %d", t.Resource).
				Build()
		}
	default:
		if t.Kind > KindBorrow {
			return errors.Unsupported(errors.PhaseGraph, "type kind "+t.Kind.String())
		}
	}
	return nil
}

// Prim returns the interned id of a primitive or string kind.
func (g *Graph) Prim(k Kind) TypeID {
	if id, ok := g.prims[k]; ok {
		return id
	}
	if !k.IsPrimitive() && k != KindString {
		if g.err == nil {
			g.err = errors.InvalidInput(errors.PhaseGraph, k.String()+" is not a primitive kind")
		}
		return 0
	}
	id := g.add(Type{Kind: k})
	g.prims[k] = id
	return id
}

// List declares list<elem>.
func (g *Graph) List(elem TypeID) TypeID {
	return g.add(Type{Kind: KindList, Elem: elem})
}

// Option declares option<t>.
func (g *Graph) Option(t TypeID) TypeID {
	return g.add(Type{Kind: KindOption, Elem: t})
}

// Result declares result<ok, err>; either arm may be 0.
func (g *Graph) Result(ok, err TypeID) TypeID {
	return g.add(Type{Kind: KindResult, OK: ok, Err: err})
}

// Tuple declares tuple<elems...>.
func (g *Graph) Tuple(elems ...TypeID) TypeID {
	return g.add(Type{Kind: KindTuple, Elems: elems})
}

// Record declares a named record.
func (g *Graph) Record(name string, fields ...Field) TypeID {
	return g.add(Type{Kind: KindRecord, Name: name, Fields: fields})
}

// Variant declares a named variant.
func (g *Graph) Variant(name string, cases ...Case) TypeID {
	return g.add(Type{Kind: KindVariant, Name: name, Cases: cases})
}

// Enum declares a named enum.
func (g *Graph) Enum(name string, cases ...string) TypeID {
	return g.add(Type{Kind: KindEnum, Name: name, Labels: cases})
}

// Flags declares a named flags type.
func (g *Graph) Flags(name string, labels ...string) TypeID {
	return g.add(Type{Kind: KindFlags, Name: name, Labels: labels})
}

// DeclareResource declares a resource type.
func (g *Graph) DeclareResource(name string) ResourceID {
	id := ResourceID(len(g.resources) + 1)
	g.resources = append(g.resources, Resource{ID: id, Name: name})
	return id
}

// Own declares own<r>.
func (g *Graph) Own(r ResourceID) TypeID {
	return g.add(Type{Kind: KindOwn, Resource: r})
}

// Borrow declares borrow<r>.
func (g *Graph) Borrow(r ResourceID) TypeID {
	return g.add(Type{Kind: KindBorrow, Resource: r})
}

// Describe renders id in WIT syntax, using declared names where available.
func (g *Graph) Describe(id TypeID) string {
	var b strings.Builder
	g.describe(&b, id, true)
	return b.String()
}

func (g *Graph) describe(b *strings.Builder, id TypeID, top bool) {
	t, ok := g.Type(id)
	if !ok {
		b.WriteString("<invalid>")
		return
	}
	if t.Name != "" && !top {
		b.WriteString(t.Name)
		return
	}

	switch t.Kind {
	case KindList:
		b.WriteString("list<")
		g.describe(b, t.Elem, false)
		b.WriteByte('>')
	case KindOption:
		b.WriteString("option<")
		g.describe(b, t.Elem, false)
		b.WriteByte('>')
	case KindResult:
		b.WriteString("result")
		if t.OK == 0 && t.Err == 0 {
			return
		}
		b.WriteByte('<')
		if t.OK != 0 {
			g.describe(b, t.OK, false)
		} else {
			b.WriteByte('_')
		}
		if t.Err != 0 {
			b.WriteString(", ")
			g.describe(b, t.Err, false)
		}
		b.WriteByte('>')
	case KindTuple:
		b.WriteString("tuple<")
		for i, e := range t.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			g.describe(b, e, false)
		}
		b.WriteByte('>')
	case KindRecord:
		b.WriteString("record ")
		b.WriteString(t.Name)
		b.WriteString(" { ")
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			g.describe(b, f.Type, false)
		}
		b.WriteString(" }")
	case KindVariant:
		b.WriteString("variant ")
		b.WriteString(t.Name)
		b.WriteString(" { ")
		for i, c := range t.Cases {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Name)
			if c.Type != 0 {
				b.WriteByte('(')
				g.describe(b, c.Type, false)
				b.WriteByte(')')
			}
		}
		b.WriteString(" }")
	case KindEnum, KindFlags:
		b.WriteString(t.Kind.String())
		b.WriteByte(' ')
		b.WriteString(t.Name)
		b.WriteString(" { ")
		b.WriteString(strings.Join(t.Labels, ", "))
		b.WriteString(" }")
	case KindOwn:
		b.WriteString("own<")
		b.WriteString(g.ResourceName(t.Resource))
		b.WriteByte('>')
	case KindBorrow:
		b.WriteString("borrow<")
		b.WriteString(g.ResourceName(t.Resource))
		b.WriteByte('>')
	default:
		b.WriteString(t.Kind.String())
	}
}

// Validate reports the first recorded construction error.
// Every node is checked again so graphs assembled through Add stay consistent.
func (g *Graph) Validate() error {
	if g.err != nil {
		return g.err
	}
	for i := range g.types {
		t := g.types[i]
		if err := g.check(t); err != nil {
			return err
		}
		for _, child := range children(t) {
			if child >= TypeID(i+1) {
				return errors.New(errors.PhaseGraph, errors.KindInvalidData).
					Detail("type %d references later type %d", i+1, child).
					Build()
			}
		}
	}
	return nil
}

func children(t Type) []TypeID {
	var out []TypeID
	switch t.Kind {
	case KindList, KindOption:
		out = append(out, t.Elem)
	case KindResult:
		if t.OK != 0 {
			out = append(out, t.OK)
		}
		if t.Err != 0 {
			out = append(out, t.Err)
		}
	case KindTuple:
		out = append(out, t.Elems...)
	case KindRecord:
		for _, f := range t.Fields {
			out = append(out, f.Type)
		}
	case KindVariant:
		for _, c := range t.Cases {
			if c.Type != 0 {
				out = append(out, c.Type)
			}
		}
	}
	return out
}
