// Package absint implements the forward worklist abstract interpreter of
// spec.md §4.5: generic over any lattice domain (Interval, Nullability, their
// product), with widening/narrowing to force termination over domains with
// infinite ascending chains.
package absint

import "anteater/internal/ir"

// Lattice is one abstract value. Every domain's concrete value type
// implements this against itself; Join/Meet/Widen/Narrow take and return the
// same concrete type (a type assertion failure here is a caller bug, not a
// recoverable condition).
type Lattice interface {
	Join(Lattice) Lattice
	Meet(Lattice) Lattice
	Widen(Lattice) Lattice
	Narrow(Lattice) Lattice
	Equal(Lattice) bool

	// ApplyNonNullConstraint narrows a value given a runtime non-null
	// assertion (spec.md §4.5's NullCheck transfer). Domains with no
	// nullability concept of their own return the receiver unchanged.
	ApplyNonNullConstraint() Lattice
}

// Domain is the factory side of a lattice: the operations that don't take an
// existing Lattice value to start from.
type Domain interface {
	Bottom() Lattice
	Top() Lattice
	OfLiteral(lit ir.Literal) Lattice
	OfNewObject() Lattice
	// ApplyBinary dispatches a BinaryOp's operator over two operand values.
	// Per spec.md §4.5's failure semantics, an operator or operand shape the
	// domain can't model yields Top rather than failing.
	ApplyBinary(op string, a, b Lattice) Lattice
}
