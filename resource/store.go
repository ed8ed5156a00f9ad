package resource

import (
	"sort"
	"sync"

	"github.com/wippyai/canonabi/types"
)

// Store holds the resource tables of one component instance, one per
// resource type, created on first use.
type Store struct {
	tables    map[types.ResourceID]*Table
	names     Namer
	observers []Observer
	mu        sync.Mutex
}

// NewStore creates an empty store. names resolves resource names for errors
// and may be nil.
func NewStore(names Namer) *Store {
	return &Store{
		tables: make(map[types.ResourceID]*Table),
		names:  names,
	}
}

// Table returns the table for r, creating it if needed.
func (s *Store) Table(r types.ResourceID) *Table {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tables[r]; ok {
		return t
	}
	t := NewTable(r, s.names)
	for _, o := range s.observers {
		t.Subscribe(o)
	}
	s.tables[r] = t
	return t
}

// New stores inst under a fresh own handle of resource r.
func (s *Store) New(r types.ResourceID, inst *Instance) Handle {
	return s.Table(r).New(inst)
}

// Get resolves h in the table of its resource.
func (s *Store) Get(h Handle) (*Instance, error) {
	return s.Table(h.Resource).Get(h)
}

// Drop drops h in the table of its resource.
func (s *Store) Drop(h Handle) error {
	return s.Table(h.Resource).Drop(h)
}

// Subscribe adds an observer to every current and future table.
func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
	for _, t := range s.tables {
		t.Subscribe(o)
	}
}

// Resources returns the ids of the resources that have a table, sorted.
func (s *Store) Resources() []types.ResourceID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ResourceID, 0, len(s.tables))
	for r := range s.tables {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of live entries across all tables.
func (s *Store) Len() int {
	n := 0
	for _, r := range s.Resources() {
		n += s.Table(r).Len()
	}
	return n
}

// Close closes every table, running destructors of owned instances.
func (s *Store) Close() error {
	for _, r := range s.Resources() {
		if err := s.Table(r).Close(); err != nil {
			return err
		}
	}
	return nil
}
