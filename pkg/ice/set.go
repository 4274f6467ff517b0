package ice

import "sync"

// Set is a priority-ordered collection of remote candidates. Candidates are
// kept in descending priority order; equal priorities keep insertion order.
// Candidates are never removed.
type Set struct {
	mu         sync.RWMutex
	candidates []Candidate
}

// NewSet creates an empty candidate set.
func NewSet() *Set {
	return &Set{}
}

// Push inserts a candidate, keeping the descending priority order stable.
func (s *Set) Push(address string, port int, priority uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := Candidate{Address: address, Port: port, Priority: priority}
	at := len(s.candidates)
	for i, existing := range s.candidates {
		if priority > existing.Priority {
			at = i
			break
		}
	}
	s.candidates = append(s.candidates, Candidate{})
	copy(s.candidates[at+1:], s.candidates[at:])
	s.candidates[at] = c
}

// Len returns the number of candidates.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.candidates)
}

// Primary returns the highest-priority candidate.
// Returns ErrEmptySet when no candidate has been pushed yet.
func (s *Set) Primary() (Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.candidates) == 0 {
		return Candidate{}, ErrEmptySet
	}
	return s.candidates[0], nil
}
