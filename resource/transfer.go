package resource

import (
	"github.com/wippyai/canonabi/errors"
	"github.com/wippyai/canonabi/types"
)

// Boundary moves handles across one direction of a call edge: lowering reads
// the From store, lifting writes the To store, and both record into Frame.
// For arguments From is the caller and To the callee; for results the
// roles swap.
type Boundary struct {
	From    *Store
	To      *Store
	Frame   *Frame
	claimed []claimRef
}

// claimRef is an own handle lifted into to, which left from under fromID.
type claimRef struct {
	from   *Table
	to     *Table
	h      Handle
	fromID uint32
}

// LowerOwn moves h out of the source table and returns the id it travels
// under. The instance stays in flight on the frame until lifted.
func (b *Boundary) LowerOwn(r types.ResourceID, h Handle) (uint32, error) {
	src := b.From.Table(r)
	if h.Resource != r {
		return 0, errors.HandleTypeMismatch(errors.PhaseLower, src.name, src.resourceName(h.Resource), h.ID)
	}
	inst, err := src.Take(h)
	if err != nil {
		return 0, err
	}
	b.Frame.addTransfer(src, h.ID, inst)
	return h.ID, nil
}

// LowerBorrow mints a frame-scoped borrow of h in the destination table and
// returns its id. The source handle is left in place.
func (b *Boundary) LowerBorrow(r types.ResourceID, h Handle) (uint32, error) {
	src := b.From.Table(r)
	if h.Resource != r {
		return 0, errors.HandleTypeMismatch(errors.PhaseLower, src.name, src.resourceName(h.Resource), h.ID)
	}
	bh, err := src.lendTo(b.To.Table(r), h, b.Frame)
	if err != nil {
		return 0, err
	}
	return bh.ID, nil
}

// LiftOwn claims the instance transferred under id into a fresh own handle of
// the destination table.
func (b *Boundary) LiftOwn(r types.ResourceID, id uint32) (Handle, error) {
	src := b.From.Table(r)
	inst, err := b.Frame.claim(src, id)
	if err != nil {
		return Handle{}, err
	}
	dst := b.To.Table(r)
	h := dst.New(inst)
	if h.ID == 0 {
		// destination closed; return the instance to its source
		if err := src.Restore(id, inst); err != nil {
			inst.destroy()
		}
		return Handle{}, errors.InvalidState(errors.PhaseLift, "table "+dst.name+" is closed")
	}
	b.claimed = append(b.claimed, claimRef{from: src, to: dst, h: h, fromID: id})
	return h, nil
}

// Unwind takes every own handle lifted through b back out of the destination
// and restores it to the table it left, newest first. An instance whose
// source table no longer accepts it is destroyed. Used when the lifted values
// are discarded.
func (b *Boundary) Unwind() {
	for i := len(b.claimed) - 1; i >= 0; i-- {
		c := b.claimed[i]
		inst, err := c.to.Take(c.h)
		if err != nil {
			continue
		}
		if err := c.from.Restore(c.fromID, inst); err != nil {
			inst.destroy()
		}
	}
	b.claimed = nil
}

// LiftBorrow checks that id names a borrow minted by the current frame in the
// destination table.
func (b *Boundary) LiftBorrow(r types.ResourceID, id uint32) (Handle, error) {
	return b.To.Table(r).borrowInFrame(id, b.Frame)
}
