package resource

import (
	"strconv"
	"sync"

	"github.com/wippyai/canonabi/errors"
	"github.com/wippyai/canonabi/types"
)

// Table holds the handles of one resource type inside one component instance.
type Table struct {
	names     Namer
	name      string
	slab      slab
	observers []Observer
	resource  types.ResourceID
	mu        sync.Mutex
	obsMu     sync.RWMutex
	closed    bool
}

// NewTable creates an empty table for resource r. names may be nil.
func NewTable(r types.ResourceID, names Namer) *Table {
	t := &Table{resource: r, names: names}
	t.name = t.resourceName(r)
	return t
}

// Resource returns the resource type the table holds.
func (t *Table) Resource() types.ResourceID {
	return t.resource
}

// Name returns the resource name used in errors.
func (t *Table) Name() string {
	return t.name
}

func (t *Table) resourceName(r types.ResourceID) string {
	if t.names != nil {
		return t.names.ResourceName(r)
	}
	return "resource#" + strconv.FormatUint(uint64(r), 10)
}

// New stores inst under a fresh Own handle. A closed table returns the zero
// handle.
func (t *Table) New(inst *Instance) Handle {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return Handle{}
	}
	id := t.slab.insert(&entry{inst: inst, own: Own})
	t.mu.Unlock()

	h := Handle{Resource: t.resource, ID: id}
	t.notify(Event{Type: EventCreated, Handle: h, Value: inst.rep})
	return h
}

// lookup validates h against the table. Callers hold t.mu.
func (t *Table) lookup(phase errors.Phase, h Handle) (*entry, error) {
	if h.Resource != t.resource {
		return nil, errors.HandleTypeMismatch(phase, t.name, t.resourceName(h.Resource), h.ID)
	}
	e, _ := t.slab.get(h.ID)
	if e == nil {
		return nil, errors.UnknownHandle(phase, t.name, h.ID)
	}
	return e, nil
}

// Get returns the instance h refers to.
func (t *Table) Get(h Handle) (*Instance, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, err := t.lookup(errors.PhaseResource, h)
	if err != nil {
		return nil, err
	}
	return e.inst, nil
}

// Rep returns the representation of the instance h refers to.
func (t *Table) Rep(h Handle) (any, error) {
	inst, err := t.Get(h)
	if err != nil {
		return nil, err
	}
	return inst.rep, nil
}

// Ownership reports whether h is an own or a borrow handle.
func (t *Table) Ownership(h Handle) (Ownership, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, err := t.lookup(errors.PhaseResource, h)
	if err != nil {
		return 0, err
	}
	return e.own, nil
}

// Borrow mints a borrow of h in this table, scoped to frame f.
func (t *Table) Borrow(h Handle, f *Frame) (Handle, error) {
	return t.lendTo(t, h, f)
}

// lendTo mints a borrow of h in dst, scoped to frame f.
func (t *Table) lendTo(dst *Table, h Handle, f *Frame) (Handle, error) {
	if f == nil || f.Closed() {
		return Handle{}, errors.InvalidState(errors.PhaseResource, "borrow requires an open call frame")
	}

	t.mu.Lock()
	e, err := t.lookup(errors.PhaseResource, h)
	if err != nil {
		t.mu.Unlock()
		return Handle{}, err
	}
	e.lent++
	inst := e.inst
	t.mu.Unlock()

	dst.mu.Lock()
	if dst.closed {
		dst.mu.Unlock()
		t.unlend(h.ID)
		return Handle{}, errors.InvalidState(errors.PhaseResource, "table "+dst.name+" is closed")
	}
	id := dst.slab.insert(&entry{
		inst:     inst,
		own:      Borrow,
		frame:    f,
		lender:   t,
		lenderID: h.ID,
	})
	dst.mu.Unlock()

	bh := Handle{Resource: dst.resource, ID: id}
	f.addBorrow(dst, id)
	dst.notify(Event{Type: EventBorrowed, Handle: bh, Value: inst.rep})
	return bh, nil
}

func (t *Table) unlend(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, _ := t.slab.get(id); e != nil && e.lent > 0 {
		e.lent--
	}
}

// borrowInFrame returns the borrow entry id if it was minted by frame f.
func (t *Table) borrowInFrame(id uint32, f *Frame) (Handle, error) {
	h := Handle{Resource: t.resource, ID: id}
	t.mu.Lock()
	defer t.mu.Unlock()
	e, err := t.lookup(errors.PhaseLift, h)
	if err != nil {
		return Handle{}, err
	}
	if e.own != Borrow || e.frame != f {
		return Handle{}, errors.New(errors.PhaseLift, errors.KindUnknownHandle).
			WitType(t.name).
			Value(id).
			Detail("handle %d is not a borrow of the current call", id).
			Build()
	}
	return h, nil
}

// Drop removes h. For an own handle the instance destructor runs exactly once;
// for a borrow handle the borrow ends.
func (t *Table) Drop(h Handle) error {
	t.mu.Lock()
	if h.Resource != t.resource {
		t.mu.Unlock()
		return errors.HandleTypeMismatch(errors.PhaseResource, t.name, t.resourceName(h.Resource), h.ID)
	}
	e, issued := t.slab.get(h.ID)
	if e == nil {
		t.mu.Unlock()
		if issued {
			return errors.UseAfterDrop(errors.PhaseResource, t.name, h.ID)
		}
		return errors.UnknownHandle(errors.PhaseResource, t.name, h.ID)
	}
	if e.own == Own && e.lent > 0 {
		t.mu.Unlock()
		return errors.New(errors.PhaseResource, errors.KindInvalidState).
			WitType(t.name).
			Value(h.ID).
			Detail("handle %d has %d outstanding borrow(s)", h.ID, e.lent).
			Build()
	}
	t.slab.remove(h.ID)
	t.mu.Unlock()

	if e.own == Borrow {
		if e.lender != nil {
			e.lender.unlend(e.lenderID)
		}
		t.notify(Event{Type: EventBorrowReturned, Handle: h, Value: e.inst.rep})
		return nil
	}
	e.inst.destroy()
	t.notify(Event{Type: EventDropped, Handle: h, Value: e.inst.rep})
	return nil
}

// Retain marks h as stored in state that outlives the current call.
// A retained borrow makes its frame fail with BorrowLeaked on close.
func (t *Table) Retain(h Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, err := t.lookup(errors.PhaseResource, h)
	if err != nil {
		return err
	}
	e.retained++
	return nil
}

// Release undoes one Retain.
func (t *Table) Release(h Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, err := t.lookup(errors.PhaseResource, h)
	if err != nil {
		return err
	}
	if e.retained == 0 {
		return errors.InvalidState(errors.PhaseResource, "release without retain")
	}
	e.retained--
	return nil
}

// Take removes an own handle without running the destructor and returns its
// instance. The caller becomes responsible for the instance.
func (t *Table) Take(h Handle) (*Instance, error) {
	t.mu.Lock()
	e, err := t.lookup(errors.PhaseLower, h)
	if err != nil {
		t.mu.Unlock()
		return nil, err
	}
	if e.own != Own {
		t.mu.Unlock()
		return nil, errors.New(errors.PhaseLower, errors.KindInvalidState).
			WitType(t.name).
			Value(h.ID).
			Detail("handle %d is a borrow and cannot transfer ownership", h.ID).
			Build()
	}
	if e.lent > 0 {
		t.mu.Unlock()
		return nil, errors.New(errors.PhaseLower, errors.KindInvalidState).
			WitType(t.name).
			Value(h.ID).
			Detail("handle %d has %d outstanding borrow(s)", h.ID, e.lent).
			Build()
	}
	t.slab.remove(h.ID)
	t.mu.Unlock()

	t.notify(Event{Type: EventTransferred, Handle: h, Value: e.inst.rep})
	return e.inst, nil
}

// Restore reinstates inst as an own handle under an id previously removed by Take.
func (t *Table) Restore(id uint32, inst *Instance) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return errors.InvalidState(errors.PhaseResource, "table "+t.name+" is closed")
	}
	if !t.slab.put(id, &entry{inst: inst, own: Own}) {
		t.mu.Unlock()
		return errors.New(errors.PhaseResource, errors.KindInvalidState).
			WitType(t.name).
			Value(id).
			Detail("handle %d cannot be restored", id).
			Build()
	}
	t.mu.Unlock()

	t.notify(Event{Type: EventRestored, Handle: Handle{Resource: t.resource, ID: id}, Value: inst.rep})
	return nil
}

// endBorrow removes a borrow entry minted by a frame and reports whether it
// was still retained. Entries already dropped are skipped.
func (t *Table) endBorrow(id uint32) (retained bool) {
	t.mu.Lock()
	e, _ := t.slab.get(id)
	if e == nil || e.own != Borrow {
		t.mu.Unlock()
		return false
	}
	t.slab.remove(id)
	t.mu.Unlock()

	if e.lender != nil {
		e.lender.unlend(e.lenderID)
	}
	t.notify(Event{Type: EventBorrowReturned, Handle: Handle{Resource: t.resource, ID: id}, Value: e.inst.rep})
	return e.retained > 0
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.slab.live
}

// Each calls fn for every live entry in id order until fn returns false.
func (t *Table) Each(fn func(h Handle, own Ownership, inst *Instance) bool) {
	type item struct {
		inst *Instance
		id   uint32
		own  Ownership
	}
	var items []item
	t.mu.Lock()
	t.slab.each(func(id uint32, e *entry) bool {
		items = append(items, item{id: id, own: e.own, inst: e.inst})
		return true
	})
	t.mu.Unlock()

	for _, it := range items {
		if !fn(Handle{Resource: t.resource, ID: it.id}, it.own, it.inst) {
			return
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Close drops every live own entry, discards borrows and stops accepting
// new entries.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	var owned, ids []uint32
	var insts []*Instance
	t.slab.each(func(id uint32, e *entry) bool {
		ids = append(ids, id)
		if e.own == Own {
			owned = append(owned, id)
			insts = append(insts, e.inst)
		}
		return true
	})
	for _, id := range ids {
		t.slab.remove(id)
	}
	t.mu.Unlock()

	for i, inst := range insts {
		if inst.destroy() {
			t.notify(Event{Type: EventDropped, Handle: Handle{Resource: t.resource, ID: owned[i]}, Value: inst.rep})
		}
	}
	return nil
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
