// Package canonabi implements the core of the WebAssembly Component Model
// Canonical ABI: memory layout of WIT types, lowering and lifting of values
// across a call boundary, the flattening policy, resource handle tables with
// own/borrow discipline, and the per-call adapter that ties them together.
//
// # Architecture Overview
//
//	canonabi/            Root package with the Memory and Allocator contracts
//	├── types/           Resolved WIT type graph and wit.Resolve importer
//	├── transcoder/      Layout, flattening, lowering and lifting
//	├── resource/        Per-type handle tables, call frames, instances
//	├── call/            Call adapter state machine and callable targets
//	├── linker/          Import table resolving (world, name) to a target
//	├── memory/          Slice and wazero backed linear memory, bump allocator
//	├── config/          TOML configuration
//	├── errors/          Structured fault taxonomy
//	└── cmd/canonabi/    Inspector CLI
//
// # Quick Start
//
//	g := types.NewGraph()
//	strs := g.List(g.Prim(types.KindString))
//
//	mem := memory.NewLinear(1)
//	callee := call.NewInstance("lists", resource.NewStore(g), mem, memory.NewBump(mem))
//	caller := call.NewInstance("host", nil, nil, nil)
//
//	target := call.MustExport(g, &types.FuncType{
//		Name:    "list-roundtrip",
//		Params:  []types.Param{{Name: "a", Type: strs}},
//		Results: []types.TypeID{strs},
//	}, callee, func(ctx context.Context, inst *call.Instance, args []any) ([]any, error) {
//		return args, nil
//	})
//
//	out, err := call.NewAdapter(g).Call(ctx, caller, target, []any{[]string{"a", "b"}})
//
// # Execution Model
//
// Calls are synchronous. Each call pushes a frame that scopes the borrows it
// creates; frames close in LIFO order and every borrow minted in a frame is
// gone once it closes. Instances are not safe for concurrent calls.
package canonabi
