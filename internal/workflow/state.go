// Package workflow implements the document approval state machine.
//
// A document moves through a fixed, ordered lifecycle:
//
//	Draft -> Review -> Approved -> Archived
//
// The only legal transition is to the immediate successor of the current state.
// Every attempt, accepted or not, yields exactly one audit entry.
package workflow

// State is a named stage in the document lifecycle.
type State string

// Lifecycle states, in order.
const (
	StateDraft    State = "Draft"
	StateReview   State = "Review"
	StateApproved State = "Approved"
	StateArchived State = "Archived"
)

// sequence is the fixed lifecycle order. Never mutate.
var sequence = []State{StateDraft, StateReview, StateApproved, StateArchived}

// States returns the lifecycle in order.
func States() []State {
	out := make([]State, len(sequence))
	copy(out, sequence)
	return out
}

// Index returns the position of s in the lifecycle, or -1 if s is not a lifecycle state.
func (s State) Index() int {
	for i, st := range sequence {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a lifecycle state.
func (s State) Valid() bool {
	return s.Index() >= 0
}

// Next returns the successor of s. ok is false for Archived and for unknown states.
func (s State) Next() (next State, ok bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(sequence) {
		return "", false
	}
	return sequence[i+1], true
}

// Terminal reports whether s has no successor.
func (s State) Terminal() bool {
	_, ok := s.Next()
	return s.Valid() && !ok
}

// String implements fmt.Stringer.
func (s State) String() string {
	return string(s)
}

// CanTransition reports whether target is the immediate successor of from.
func CanTransition(from, target State) bool {
	fi, ti := from.Index(), target.Index()
	return fi >= 0 && ti >= 0 && ti == fi+1
}
