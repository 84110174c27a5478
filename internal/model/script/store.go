package script

// Store exposes script retrieval for handlers and the engine.
type Store interface {
	List() []Script
	FindByID(id string) (Script, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Script
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied scripts.
func NewMemoryStore(items []Script) *MemoryStore {
	return &MemoryStore{items: append([]Script(nil), items...)}
}

// List returns the registered scripts.
func (s *MemoryStore) List() []Script {
	return append([]Script(nil), s.items...)
}

// FindByID looks up a script by identifier.
func (s *MemoryStore) FindByID(id string) (Script, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Script{}, false
}

// Replace swaps the script with the same ID, appending it when absent.
func (s *MemoryStore) Replace(sc Script) {
	for i, item := range s.items {
		if item.ID == sc.ID {
			s.items[i] = sc
			return
		}
	}
	s.items = append(s.items, sc)
}
