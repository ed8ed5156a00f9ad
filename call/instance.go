package call

import (
	"github.com/google/uuid"
	"github.com/wippyai/canonabi/resource"
	"github.com/wippyai/canonabi/transcoder"
)

// Instance is one component instance as seen by the adapter: its resource
// tables, its linear memory and the allocator for that memory.
type Instance struct {
	Store     *resource.Store
	Memory    transcoder.Memory
	Allocator transcoder.Allocator
	Name      string
	ID        uuid.UUID
}

// NewInstance creates an instance with a fresh id. store may be nil, in
// which case an empty store without resource names is created.
func NewInstance(name string, store *resource.Store, mem transcoder.Memory, alloc transcoder.Allocator) *Instance {
	if store == nil {
		store = resource.NewStore(nil)
	}
	return &Instance{
		ID:        uuid.New(),
		Name:      name,
		Store:     store,
		Memory:    mem,
		Allocator: alloc,
	}
}

func (i *Instance) String() string {
	if i == nil {
		return "<nil>"
	}
	return i.Name + "/" + i.ID.String()[:8]
}
