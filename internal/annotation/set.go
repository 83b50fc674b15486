package annotation

import "github.com/quadforest/quadforest/qferr"

// entry is one (Kind, Payload, generation token) slot.
type entry struct {
	kind  Kind
	token uint32
	value any
}

// Set is the annotation bag attached to a quad-tree node: at most one entry
// per non-repeatable Kind, appended lazily. A zero Set is ready to use —
// it plays the role of both the "single TypedPointer" and "tuple of
// TypedPointers" cases from the original design; Go's slice already
// behaves like a tuple of 0, 1, or many entries, so no separate
// promote-to-tuple step is needed.
type Set struct {
	entries []entry
}

func (s *Set) find(kind Kind) int {
	for i := range s.entries {
		if s.entries[i].kind == kind {
			return i
		}
	}
	return -1
}

// HasType reports whether the set holds an entry of the given kind.
func (s *Set) HasType(kind Kind) bool {
	return s.find(kind) >= 0
}

// Token returns the generation token of the entry of the given kind, or 0
// if absent.
func (s *Set) Token(kind Kind) uint32 {
	if i := s.find(kind); i >= 0 {
		return s.entries[i].token
	}
	return 0
}

// SetToken updates the generation token of the entry of the given kind, if
// present.
func (s *Set) SetToken(kind Kind, token uint32) {
	if i := s.find(kind); i >= 0 {
		s.entries[i].token = token
	}
}

// EnsureHas returns the existing payload of the given kind, allocating and
// appending a zero-valued *T when absent. Callers compare the returned
// entry's token (via Token) against the current parsing round and
// reinitialize the payload themselves when it is stale — EnsureHas never
// clears an existing payload.
func EnsureHas[T any](s *Set, kind Kind) *T {
	if i := s.find(kind); i >= 0 {
		if v, ok := s.entries[i].value.(*T); ok {
			return v
		}
	}
	v := new(T)
	s.entries = append(s.entries, entry{kind: kind, value: v})
	return v
}

// EnsureIs replaces the current value with a fresh zero *T if the existing
// entry is absent or not of the requested concrete type, then returns it.
func EnsureIs[T any](s *Set, kind Kind) *T {
	if i := s.find(kind); i >= 0 {
		if v, ok := s.entries[i].value.(*T); ok {
			return v
		}
		v := new(T)
		s.entries[i] = entry{kind: kind, value: v}
		return v
	}
	v := new(T)
	s.entries = append(s.entries, entry{kind: kind, value: v})
	return v
}

// Delete removes the entry of the given kind, if present. A no-op
// otherwise.
func (s *Set) Delete(kind Kind) {
	if i := s.find(kind); i >= 0 {
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
	}
}

// Get returns the payload of the given kind without allocating, and
// whether it was found.
func Get[T any](s *Set, kind Kind) (*T, bool) {
	if i := s.find(kind); i >= 0 {
		v, ok := s.entries[i].value.(*T)
		return v, ok
	}
	return nil, false
}

// Expect returns the payload of the given kind, or a BadType error if it
// is absent or of the wrong concrete type.
func Expect[T any](s *Set, kind Kind, op string) (*T, error) {
	v, ok := Get[T](s, kind)
	if !ok {
		return nil, qferr.Errorf(qferr.BadType, op, "annotation kind %s not present or wrong payload type", kind)
	}
	return v, nil
}
