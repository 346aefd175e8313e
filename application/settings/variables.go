package settings

import "sort"

// VariableSink receives flushed variables.
type VariableSink interface {
	SetVariable(key, value string)
}

// VariableStore buffers setVariable writes for one tick. Writing a key twice
// keeps the last value; Flush forwards every key written since the previous
// flush in key order.
type VariableStore struct {
	pending map[string]string
	current map[string]string
}

// NewVariableStore returns an empty store.
func NewVariableStore() *VariableStore {
	return &VariableStore{
		pending: make(map[string]string),
		current: make(map[string]string),
	}
}

// Set records a write.
func (s *VariableStore) Set(key, value string) {
	s.pending[key] = value
}

// Get returns the latest value of key, flushed or not.
func (s *VariableStore) Get(key string) (string, bool) {
	if v, ok := s.pending[key]; ok {
		return v, true
	}
	v, ok := s.current[key]
	return v, ok
}

// Pending returns the number of keys awaiting a flush.
func (s *VariableStore) Pending() int {
	return len(s.pending)
}

// Checkpoint captures the unflushed writes.
type Checkpoint struct {
	pending map[string]string
}

// Checkpoint returns the current unflushed state.
func (s *VariableStore) Checkpoint() Checkpoint {
	cp := make(map[string]string, len(s.pending))
	for k, v := range s.pending {
		cp[k] = v
	}
	return Checkpoint{pending: cp}
}

// Rollback discards writes made after cp.
func (s *VariableStore) Rollback(cp Checkpoint) {
	s.pending = cp.pending
	if s.pending == nil {
		s.pending = make(map[string]string)
	}
}

// Flush forwards pending writes to sink and returns how many were sent.
func (s *VariableStore) Flush(sink VariableSink) int {
	if len(s.pending) == 0 {
		return 0
	}
	keys := make([]string, 0, len(s.pending))
	for k := range s.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := s.pending[k]
		sink.SetVariable(k, v)
		s.current[k] = v
	}
	s.pending = make(map[string]string)
	return len(keys)
}
