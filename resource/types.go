package resource

import (
	"strconv"
	"sync"

	"github.com/wippyai/canonabi/types"
)

// Handle refers to an entry of the table for Resource. ID 0 is reserved and
// always invalid.
type Handle struct {
	Resource types.ResourceID
	ID       uint32
}

func (h Handle) String() string {
	return "handle(" + strconv.FormatUint(uint64(h.Resource), 10) + ":" + strconv.FormatUint(uint64(h.ID), 10) + ")"
}

// Ownership is the mode of a table entry.
type Ownership uint8

const (
	Own Ownership = iota
	Borrow
)

func (o Ownership) String() string {
	if o == Borrow {
		return "borrow"
	}
	return "own"
}

// Dropper is optionally implemented by resource representations that need
// cleanup and have no explicit destructor.
type Dropper interface {
	Drop()
}

// Instance is one resource value. Table entries hold a pointer to it, so
// moving ownership moves the pointer and never copies the value.
type Instance struct {
	rep       any
	dtor      func(rep any)
	mu        sync.Mutex
	destroyed bool
}

// NewInstance creates an instance with representation rep. dtor runs exactly
// once when the owning handle is dropped; it may be nil.
func NewInstance(rep any, dtor func(rep any)) *Instance {
	return &Instance{rep: rep, dtor: dtor}
}

// Rep returns the representation value.
func (i *Instance) Rep() any {
	return i.rep
}

// Destroyed reports whether the destructor has run.
func (i *Instance) Destroyed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.destroyed
}

// destroy runs the destructor unless it already ran.
func (i *Instance) destroy() bool {
	i.mu.Lock()
	if i.destroyed {
		i.mu.Unlock()
		return false
	}
	i.destroyed = true
	i.mu.Unlock()

	if i.dtor != nil {
		i.dtor(i.rep)
	} else if d, ok := i.rep.(Dropper); ok {
		d.Drop()
	}
	return true
}

// EventType identifies a resource lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventBorrowed
	EventBorrowReturned
	EventTransferred
	EventRestored
)

var eventNames = [...]string{
	EventCreated:        "created",
	EventDropped:        "dropped",
	EventBorrowed:       "borrowed",
	EventBorrowReturned: "borrow-returned",
	EventTransferred:    "transferred",
	EventRestored:       "restored",
}

func (e EventType) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "unknown"
}

// Event is a resource lifecycle notification.
type Event struct {
	Value  any
	Handle Handle
	Type   EventType
}

// Observer receives resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Namer resolves resource names for error messages. *types.Graph implements it.
type Namer interface {
	ResourceName(types.ResourceID) string
}
