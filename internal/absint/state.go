package absint

import "anteater/internal/ir"

// State is one block's analysis state: a map from variable to abstract
// value. Per spec.md §4.5, a variable absent from the map is ⊥, never ⊤ —
// using ⊤ as the default would let join settle before every path has
// actually been accounted for.
type State struct {
	vars map[ir.Variable]Lattice
}

// NewState returns the empty state (every variable implicitly ⊥).
func NewState() State { return State{vars: make(map[ir.Variable]Lattice)} }

// Get returns v's value, or Domain.Bottom() if v has never been recorded.
func (s State) Get(v ir.Variable, d Domain) Lattice {
	if val, ok := s.vars[v]; ok {
		return val
	}
	return d.Bottom()
}

// Set returns a state identical to s but with v updated to val. s is
// mutated in place; callers that need the old state must Clone first.
func (s State) Set(v ir.Variable, val Lattice) State {
	s.vars[v] = val
	return s
}

// Clone returns an independent copy of s.
func (s State) Clone() State {
	out := make(map[ir.Variable]Lattice, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return State{vars: out}
}

// Join merges s and other variable-wise, missing-means-⊥ on both sides.
func (s State) Join(other State) State {
	out := make(map[ir.Variable]Lattice, len(s.vars)+len(other.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	for k, v := range other.vars {
		if existing, ok := out[k]; ok {
			out[k] = existing.Join(v)
		} else {
			out[k] = v
		}
	}
	return State{vars: out}
}

// Widen applies Lattice.Widen variable-wise over the union of both states'
// keys, treating an absent key as ⊥ (Widen(⊥, x) = x, per each domain's own
// bottom handling).
func (s State) Widen(new State, d Domain) State {
	out := make(map[ir.Variable]Lattice, len(s.vars)+len(new.vars))
	for k := range unionKeys(s, new) {
		out[k] = s.Get(k, d).Widen(new.Get(k, d))
	}
	return State{vars: out}
}

// Narrow applies Lattice.Narrow variable-wise over the union of both states'
// keys.
func (s State) Narrow(new State, d Domain) State {
	out := make(map[ir.Variable]Lattice, len(s.vars)+len(new.vars))
	for k := range unionKeys(s, new) {
		out[k] = s.Get(k, d).Narrow(new.Get(k, d))
	}
	return State{vars: out}
}

// Equal reports whether s and other agree on every variable either records.
func (s State) Equal(other State) bool {
	if len(s.vars) != len(other.vars) {
		return false
	}
	for k, v := range s.vars {
		ov, ok := other.vars[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func unionKeys(a, b State) map[ir.Variable]struct{} {
	out := make(map[ir.Variable]struct{}, len(a.vars)+len(b.vars))
	for k := range a.vars {
		out[k] = struct{}{}
	}
	for k := range b.vars {
		out[k] = struct{}{}
	}
	return out
}
