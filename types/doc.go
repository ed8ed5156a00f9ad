// Package types holds the resolved WIT type graph consumed by the ABI core.
//
// A Graph is an arena of immutable Type nodes addressed by TypeID. Composite
// nodes reference their children by id and a child must exist before its parent
// is added, so value types cannot form cycles. Resources are declared separately
// (ResourceID) and referenced from own/borrow nodes.
//
// Graphs are built either through the builder helpers:
//
//	g := types.NewGraph()
//	point := g.Record("point",
//		types.Field{Name: "x", Type: g.Prim(types.KindF32)},
//		types.Field{Name: "y", Type: g.Prim(types.KindF32)},
//	)
//
// or imported from a resolver-produced wit.Resolve with an Importer.
package types
