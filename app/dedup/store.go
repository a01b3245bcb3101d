package dedup

import (
	"sync"
)

// Store tracks which post ids have been delivered for each monitored source.
// Marking the same id seen twice is a no-op; once seen, an id stays seen for
// the lifetime of the store.
type Store interface {
	IsNew(key, id string) (bool, error)
	MarkSeen(key, id string) error
	// MarkSeenIfNew atomically records the id and reports whether it was new.
	// The pipeline relies on this single check-and-set so that two cycles can
	// never both observe an id as new.
	MarkSeenIfNew(key, id string) (bool, error)
	Counts() (map[string]int, error)
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps seen ids for the lifetime of the process. Entries never
// expire; restart clears them, which is acceptable for a single-process bot.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seen: make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) IsNew(key, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.seen[key]
	if !ok {
		return true, nil
	}
	_, found := ids[id]
	return !found, nil
}

func (s *MemoryStore) MarkSeen(key, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.markLocked(key, id)
	return nil
}

func (s *MemoryStore) MarkSeenIfNew(key, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ids, ok := s.seen[key]; ok {
		if _, found := ids[id]; found {
			return false, nil
		}
	}
	s.markLocked(key, id)
	return true, nil
}

func (s *MemoryStore) Counts() (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int, len(s.seen))
	for key, ids := range s.seen {
		counts[key] = len(ids)
	}
	return counts, nil
}

func (s *MemoryStore) markLocked(key, id string) {
	ids, ok := s.seen[key]
	if !ok {
		ids = make(map[string]struct{})
		s.seen[key] = ids
	}
	ids[id] = struct{}{}
}
