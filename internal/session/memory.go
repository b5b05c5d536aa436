package session

import "sync"

// InMemoryStore is the in-process Store used by a single-node deployment.
// One mutex guards the whole map, which also serializes concurrent appends
// against the same session id and so preserves append order.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string][]Turn)}
}

func (s *InMemoryStore) Create(sid string, turns []Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sid] = append([]Turn(nil), turns...)
	return nil
}

func (s *InMemoryStore) Append(sid string, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns, ok := s.sessions[sid]
	if !ok {
		return ErrNotFound
	}
	s.sessions[sid] = append(turns, turn)
	return nil
}

func (s *InMemoryStore) Read(sid string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns, ok := s.sessions[sid]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *InMemoryStore) Reset(sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sid]; !ok {
		return ErrNotFound
	}
	s.sessions[sid] = nil
	return nil
}

func (s *InMemoryStore) Delete(sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sid]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, sid)
	return nil
}

// Count reports the number of live sessions, for the active-sessions gauge.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
