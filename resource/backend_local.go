package resource

// slab stores table entries indexed by id. Ids are handed out monotonically
// from 1 and never reused; a removed slot stays nil so a later access can be
// told apart from an id that never existed.
type slab struct {
	entries []*entry
	live    int
}

type entry struct {
	inst *Instance
	// frame that minted a borrow entry; nil for own entries
	frame *Frame
	// lender is the table and id a borrow was minted from
	lender   *Table
	lenderID uint32
	own      Ownership
	lent     int // outstanding borrows minted from this entry
	retained int // Retain count
}

// next returns the id the next insert will receive.
func (s *slab) next() uint32 {
	return uint32(len(s.entries)) + 1
}

func (s *slab) insert(e *entry) uint32 {
	id := s.next()
	s.entries = append(s.entries, e)
	s.live++
	return id
}

// put reinstates e under a previously issued id.
func (s *slab) put(id uint32, e *entry) bool {
	if id == 0 || int(id) > len(s.entries) || s.entries[id-1] != nil {
		return false
	}
	s.entries[id-1] = e
	s.live++
	return true
}

// get returns the entry for id and whether the id was ever issued.
func (s *slab) get(id uint32) (*entry, bool) {
	if id == 0 || int(id) > len(s.entries) {
		return nil, false
	}
	return s.entries[id-1], true
}

func (s *slab) remove(id uint32) *entry {
	if id == 0 || int(id) > len(s.entries) {
		return nil
	}
	e := s.entries[id-1]
	if e != nil {
		s.entries[id-1] = nil
		s.live--
	}
	return e
}

func (s *slab) each(fn func(id uint32, e *entry) bool) {
	for i, e := range s.entries {
		if e != nil {
			if !fn(uint32(i+1), e) {
				return
			}
		}
	}
}
