package types

import (
	"github.com/wippyai/canonabi/errors"
	"go.bytecodealliance.org/wit"
)

// Importer converts nodes of a resolved WIT graph into a Graph.
// Each *wit.TypeDef is imported once; resources become ResourceIDs.
type Importer struct {
	graph     *Graph
	typedefs  map[*wit.TypeDef]TypeID
	resources map[*wit.TypeDef]ResourceID
}

// NewImporter creates an importer writing into g.
func NewImporter(g *Graph) *Importer {
	return &Importer{
		graph:     g,
		typedefs:  make(map[*wit.TypeDef]TypeID),
		resources: make(map[*wit.TypeDef]ResourceID),
	}
}

// Graph returns the destination graph.
func (im *Importer) Graph() *Graph {
	return im.graph
}

// ImportResolve imports every named non-resource type definition of r.
// The returned map is keyed by type name; on name collisions the first wins.
func (im *Importer) ImportResolve(r *wit.Resolve) (map[string]TypeID, error) {
	out := make(map[string]TypeID)
	for _, td := range r.TypeDefs {
		if td == nil || td.Name == nil {
			continue
		}
		if _, isResource := td.Kind.(*wit.Resource); isResource {
			im.resource(td)
			continue
		}
		id, err := im.Import(td)
		if err != nil {
			return nil, err
		}
		if _, exists := out[*td.Name]; !exists {
			out[*td.Name] = id
		}
	}
	return out, nil
}

// Import converts t and returns its id.
func (im *Importer) Import(t wit.Type) (TypeID, error) {
	g := im.graph
	switch typ := t.(type) {
	case wit.Bool:
		return g.Prim(KindBool), nil
	case wit.U8:
		return g.Prim(KindU8), nil
	case wit.S8:
		return g.Prim(KindS8), nil
	case wit.U16:
		return g.Prim(KindU16), nil
	case wit.S16:
		return g.Prim(KindS16), nil
	case wit.U32:
		return g.Prim(KindU32), nil
	case wit.S32:
		return g.Prim(KindS32), nil
	case wit.U64:
		return g.Prim(KindU64), nil
	case wit.S64:
		return g.Prim(KindS64), nil
	case wit.F32:
		return g.Prim(KindF32), nil
	case wit.F64:
		return g.Prim(KindF64), nil
	case wit.Char:
		return g.Prim(KindChar), nil
	case wit.String:
		return g.Prim(KindString), nil
	case *wit.TypeDef:
		return im.importTypeDef(typ)
	default:
		return 0, errors.New(errors.PhaseGraph, errors.KindUnsupported).
			Detail("unsupported WIT type: %T", t).
			Build()
	}
}

func (im *Importer) importTypeDef(td *wit.TypeDef) (TypeID, error) {
	if id, ok := im.typedefs[td]; ok {
		return id, nil
	}

	name := ""
	if td.Name != nil {
		name = *td.Name
	}

	var (
		t   Type
		err error
	)
	switch kind := td.Kind.(type) {
	case *wit.Record:
		t = Type{Kind: KindRecord, Name: name}
		for _, f := range kind.Fields {
			ft, ferr := im.Import(f.Type)
			if ferr != nil {
				return 0, ferr
			}
			t.Fields = append(t.Fields, Field{Name: f.Name, Type: ft})
		}
	case *wit.Variant:
		t = Type{Kind: KindVariant, Name: name}
		for _, c := range kind.Cases {
			var ct TypeID
			if c.Type != nil {
				if ct, err = im.Import(c.Type); err != nil {
					return 0, err
				}
			}
			t.Cases = append(t.Cases, Case{Name: c.Name, Type: ct})
		}
	case *wit.Enum:
		t = Type{Kind: KindEnum, Name: name}
		for _, c := range kind.Cases {
			t.Labels = append(t.Labels, c.Name)
		}
	case *wit.Flags:
		t = Type{Kind: KindFlags, Name: name}
		for _, f := range kind.Flags {
			t.Labels = append(t.Labels, f.Name)
		}
	case *wit.List:
		t = Type{Kind: KindList, Name: name}
		if t.Elem, err = im.Import(kind.Type); err != nil {
			return 0, err
		}
	case *wit.Option:
		t = Type{Kind: KindOption, Name: name}
		if t.Elem, err = im.Import(kind.Type); err != nil {
			return 0, err
		}
	case *wit.Result:
		t = Type{Kind: KindResult, Name: name}
		if kind.OK != nil {
			if t.OK, err = im.Import(kind.OK); err != nil {
				return 0, err
			}
		}
		if kind.Err != nil {
			if t.Err, err = im.Import(kind.Err); err != nil {
				return 0, err
			}
		}
	case *wit.Tuple:
		t = Type{Kind: KindTuple, Name: name}
		for _, e := range kind.Types {
			et, eerr := im.Import(e)
			if eerr != nil {
				return 0, eerr
			}
			t.Elems = append(t.Elems, et)
		}
	case *wit.Own:
		if kind.Type == nil {
			return 0, errors.InvalidInput(errors.PhaseGraph, "own without resource")
		}
		t = Type{Kind: KindOwn, Name: name, Resource: im.resource(kind.Type)}
	case *wit.Borrow:
		if kind.Type == nil {
			return 0, errors.InvalidInput(errors.PhaseGraph, "borrow without resource")
		}
		t = Type{Kind: KindBorrow, Name: name, Resource: im.resource(kind.Type)}
	case wit.Type:
		// alias: share the target's id
		id, aerr := im.Import(kind)
		if aerr != nil {
			return 0, aerr
		}
		im.typedefs[td] = id
		if name != "" {
			if _, exists := im.graph.byName[name]; !exists {
				im.graph.byName[name] = id
			}
		}
		return id, nil
	default:
		return 0, errors.New(errors.PhaseGraph, errors.KindUnsupported).
			Path(name).
			Detail("unsupported TypeDef kind: %T", kind).
			Build()
	}

	id, err := im.graph.Add(t)
	if err != nil {
		return 0, err
	}
	im.typedefs[td] = id
	return id, nil
}

func (im *Importer) resource(td *wit.TypeDef) ResourceID {
	if id, ok := im.resources[td]; ok {
		return id
	}
	name := ""
	if td.Name != nil {
		name = *td.Name
	}
	id := im.graph.DeclareResource(name)
	im.resources[td] = id
	return id
}
