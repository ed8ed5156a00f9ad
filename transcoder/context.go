package transcoder

import (
	"github.com/wippyai/canonabi/resource"
	"github.com/wippyai/canonabi/types"
)

// HandleLowerer moves resource handles out of the lowering side of a call.
// LowerOwn gives up ownership of h and returns the id it travels under;
// LowerBorrow lends h for the current call and returns the borrow id.
type HandleLowerer interface {
	LowerOwn(r types.ResourceID, h resource.Handle) (uint32, error)
	LowerBorrow(r types.ResourceID, h resource.Handle) (uint32, error)
}

// HandleLifter turns handle ids received from the other side of a call into
// handles valid on the lifting side.
type HandleLifter interface {
	LiftOwn(r types.ResourceID, id uint32) (resource.Handle, error)
	LiftBorrow(r types.ResourceID, id uint32) (resource.Handle, error)
}

// LowerContext carries what lowering needs beyond the value: the memory that
// receives strings, lists and indirect values, the allocator for that memory,
// and the handle bridge. Allocs, when set, records every allocation.
type LowerContext struct {
	Memory    Memory
	Allocator Allocator
	Allocs    *AllocationList
	Handles   HandleLowerer
}

// LiftContext carries what lifting needs: the memory holding indirect data
// and the handle bridge. Limit, when positive, is the flat slot count above
// which a value list must arrive indirectly.
type LiftContext struct {
	Memory  Memory
	Handles HandleLifter
	Limit   int
}

var (
	_ HandleLowerer = (*resource.Boundary)(nil)
	_ HandleLifter  = (*resource.Boundary)(nil)
)
