package resource

import (
	"sync"

	"github.com/wippyai/canonabi/errors"
)

// Frame is the resource context of one call. It records the borrows minted
// during the call and the own handles in flight between two tables.
type Frame struct {
	transfers map[transferKey]*Instance
	borrows   []borrowRef
	order     []transferKey
	seq       uint64
	depth     int
	mu        sync.Mutex
	closed    bool
}

type borrowRef struct {
	table *Table
	id    uint32
}

// transferKey names an own handle by the table it left and its id there.
type transferKey struct {
	table *Table
	id    uint32
}

// Seq returns the frame's sequence number, unique per stack.
func (f *Frame) Seq() uint64 {
	return f.seq
}

// Depth returns the number of frames below this one.
func (f *Frame) Depth() int {
	return f.depth
}

// Closed reports whether the frame has been torn down.
func (f *Frame) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Borrows returns the number of borrows minted in the frame.
func (f *Frame) Borrows() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.borrows)
}

// Pending returns the number of own transfers not yet claimed.
func (f *Frame) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transfers)
}

func (f *Frame) addBorrow(t *Table, id uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.borrows = append(f.borrows, borrowRef{table: t, id: id})
}

func (f *Frame) addTransfer(from *Table, id uint32, inst *Instance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transfers == nil {
		f.transfers = make(map[transferKey]*Instance)
	}
	key := transferKey{table: from, id: id}
	f.transfers[key] = inst
	f.order = append(f.order, key)
}

// claim hands the in-flight instance that left from under id to the caller.
func (f *Frame) claim(from *Table, id uint32) (*Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := transferKey{table: from, id: id}
	inst, ok := f.transfers[key]
	if !ok {
		return nil, errors.New(errors.PhaseLift, errors.KindUnknownHandle).
			WitType(from.name).
			Value(id).
			Detail("handle %d was not transferred in this call", id).
			Build()
	}
	delete(f.transfers, key)
	return inst, nil
}

// close ends every borrow minted in the frame and returns unclaimed own
// transfers to the table they left. Borrows still retained fail the frame with
// BorrowLeaked; they are removed either way.
func (f *Frame) close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	borrows := f.borrows
	order := f.order
	transfers := f.transfers
	f.borrows, f.order, f.transfers = nil, nil, nil
	f.mu.Unlock()

	var leaks []errors.LeakedBorrows
	var at map[*Table]int
	for _, b := range borrows {
		if !b.table.endBorrow(b.id) {
			continue
		}
		if at == nil {
			at = make(map[*Table]int)
		}
		i, ok := at[b.table]
		if !ok {
			i = len(leaks)
			at[b.table] = i
			leaks = append(leaks, errors.LeakedBorrows{Resource: b.table.name})
		}
		leaks[i].IDs = append(leaks[i].IDs, b.id)
	}

	for _, key := range order {
		inst, ok := transfers[key]
		if !ok {
			continue
		}
		if err := key.table.Restore(key.id, inst); err != nil {
			// source table is gone; the instance has no owner left
			inst.destroy()
		}
	}

	if len(leaks) > 0 {
		return errors.BorrowsLeaked(leaks)
	}
	return nil
}

// FrameStack keeps call frames in LIFO order.
type FrameStack struct {
	frames []*Frame
	seq    uint64
	mu     sync.Mutex
}

func NewFrameStack() *FrameStack {
	return &FrameStack{}
}

// Push opens a new frame on top of the stack.
func (s *FrameStack) Push() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	f := &Frame{seq: s.seq, depth: len(s.frames)}
	s.frames = append(s.frames, f)
	return f
}

// Pop closes f, which must be the top frame.
func (s *FrameStack) Pop(f *Frame) error {
	s.mu.Lock()
	n := len(s.frames)
	if n == 0 || s.frames[n-1] != f {
		s.mu.Unlock()
		return errors.InvalidState(errors.PhaseResource, "call frame closed out of order")
	}
	s.frames[n-1] = nil
	s.frames = s.frames[:n-1]
	s.mu.Unlock()
	return f.close()
}

// Top returns the innermost open frame, or nil.
func (s *FrameStack) Top() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Depth returns the number of open frames.
func (s *FrameStack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}
