// Package datalog implements the stratified naive fixed-point engine
// of spec.md §4.4: load EDB facts, run a stratified rule set to a fixed
// point, query any relation (EDB ∪ IDB).
package datalog

import "fmt"

// Tuple is one fact: a relation name plus its ordered arguments. Arguments
// are ints (canonicalized variable/heap/offset ids) or strings (method
// names, field names, taint labels) per spec.md §4.3's "stable integers or
// strings" requirement.
type Tuple struct {
	Relation string
	Args     []any
}

// key is the tuple's identity for equality-by-value dedup (spec.md §4.4:
// "fact identity is by tuple-equality... an implementation may use
// per-relation hash sets keyed by a tuple-hash").
func (t Tuple) key() string {
	s := t.Relation
	for _, a := range t.Args {
		s += fmt.Sprintf("\x1f%v", a)
	}
	return s
}

// NewTuple builds a fact for relation with the given arguments.
func NewTuple(relation string, args ...any) Tuple {
	return Tuple{Relation: relation, Args: append([]any(nil), args...)}
}
