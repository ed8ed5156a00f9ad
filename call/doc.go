// Package call runs typed calls across a component boundary.
//
// An Adapter drives one call through its states:
//
//	Open       push a frame on the adapter's frame stack
//	Lowering   lower the arguments into the target instance's memory;
//	           own handles leave the caller's table, borrows are minted
//	           in the target's table scoped to the frame
//	Invoking   run the target
//	Lifting    lift the results; own handles become fresh entries in the
//	           caller's table
//	Closed     pop the frame
//
// A fault in any state moves the call to Faulted. The frame is popped on
// every path: borrows it minted end, own handles that left a table but were
// never claimed go back under their original id, and memory allocated in the
// target for the call is freed. A borrow still retained by the target when
// the frame closes fails the call with BorrowLeaked and its results are
// discarded.
//
// # Targets
//
// Export binds a HostFunc to a signature and an Instance. Targets resolved
// through a linker.ImportTable are invoked the same way, so an export can
// call onward through its own imports; nested calls share the frame stack.
//
// # Errors
//
// Faults are returned wrapped with errors.CallFailed. errors.Is and
// errors.KindOf still see the original kind:
//
//	_, err := adapter.Call(ctx, runner, leak, []any{h})
//	errors.Is(err, errors.ErrBorrowLeaked) // true
package call
