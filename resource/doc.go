// Package resource implements per-instance resource handle tables with
// own/borrow discipline.
//
// # Tables and Stores
//
// A Store belongs to one component instance and holds one Table per resource
// type. Each entry refers to a shared *Instance; moving ownership moves that
// pointer between tables, the value is never copied.
//
//	store := resource.NewStore(graph)
//	floats := store.Table(floatID)
//
//	h := floats.New(resource.NewInstance(3.0, nil))
//	inst, err := floats.Get(h)
//	err = floats.Drop(h) // destructor runs exactly once
//
// Handle ids start at 1, grow monotonically and are never reused, so using a
// dropped id reports UseAfterDrop instead of reaching a newer entry.
//
// # Call Frames
//
// A Frame scopes the borrows minted during one call. Frames live on a
// FrameStack and close in LIFO order:
//
//	stack := resource.NewFrameStack()
//	f := stack.Push()
//	b, err := floats.Borrow(h, f)
//	err = stack.Pop(f) // b is gone
//
// Closing a frame ends its borrows. A borrow marked with Retain, meaning it
// was stored somewhere that outlives the call, makes the close fail with
// BorrowLeaked. Own handles lowered but never lifted go back to the table they
// left under their original id.
//
// # Boundaries
//
// Boundary implements handle lowering and lifting for one direction of a
// call: own handles move between stores through the frame, borrows are
// minted in the destination store.
//
// # Observers
//
// Tables report lifecycle events (created, dropped, borrowed,
// borrow-returned, transferred, restored) to subscribed observers.
package resource
