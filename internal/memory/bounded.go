package memory

import "sync"

// DefaultCapacity is used when no capacity is configured.
const DefaultCapacity = 200

// BoundedStore is a fixed-capacity, FIFO-evicting log of records.
// After every append the store holds at most its capacity, discarding the
// oldest records first. Reads never mutate state.
type BoundedStore struct {
	mu       sync.RWMutex
	capacity int
	records  []Record
}

// NewBoundedStore creates a store with the given capacity.
// Non-positive capacities fall back to DefaultCapacity.
func NewBoundedStore(capacity int) *BoundedStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &BoundedStore{capacity: capacity}
}

// Append adds a record, evicting from the front when over capacity.
func (s *BoundedStore) Append(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	if excess := len(s.records) - s.capacity; excess > 0 {
		s.records = append([]Record(nil), s.records[excess:]...)
	}
}

// Recent returns the last min(n, size) records in insertion order.
func (s *BoundedStore) Recent(n int) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	if n > len(s.records) {
		n = len(s.records)
	}
	out := make([]Record, n)
	copy(out, s.records[len(s.records)-n:])
	return out
}

// All returns every record in insertion order.
func (s *BoundedStore) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Clear removes all records.
func (s *BoundedStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

// Len returns the current number of records.
func (s *BoundedStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Capacity returns the configured capacity.
func (s *BoundedStore) Capacity() int {
	return s.capacity
}
