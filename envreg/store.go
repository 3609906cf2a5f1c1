package envreg

import "sync"

// Store persists one override record per Module.
//
// Implementations are synchronous and blocking; callers on latency sensitive
// paths should offload registry calls that hit the store.
type Store interface {
	// Read returns the persisted override for m, linked to m.
	// It returns ErrNoRecord when nothing is persisted.
	Read(m *Module) (*Environment, error)

	// Write replaces the persisted override of env's Module.
	Write(env *Environment) error

	// Delete removes the override for m. A missing record is not an error.
	Delete(m *Module) error

	// Clear removes every persisted override.
	Clear() error
}

// record is the persisted form of an Environment.
type record struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Alias string `json:"alias"`
}

func recordOf(env *Environment) record {
	return record{Name: env.name, Value: env.value, Alias: env.alias}
}

func (r record) link(m *Module) *Environment {
	return NewEnvironment(m, r.Name, r.Value, r.Alias)
}

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]record{}}
}

func (s *MemoryStore) Read(m *Module) (*Environment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[m.Name()]
	if !ok {
		return nil, ErrNoRecord
	}
	return r.link(m), nil
}

func (s *MemoryStore) Write(env *Environment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[env.Module().Name()] = recordOf(env)
	return nil
}

func (s *MemoryStore) Delete(m *Module) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, m.Name())
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = map[string]record{}
	return nil
}

// Len returns the number of persisted records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
