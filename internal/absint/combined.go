package absint

import "anteater/internal/ir"

// Combined is the product of Interval × Nullability of spec.md §4.5:
// operations apply pointwise to each component.
type Combined struct {
	Interval Interval
	Null     Nullability
}

func (c Combined) Join(otherL Lattice) Lattice {
	other := otherL.(Combined)
	return Combined{
		Interval: c.Interval.Join(other.Interval).(Interval),
		Null:     c.Null.Join(other.Null).(Nullability),
	}
}

func (c Combined) Meet(otherL Lattice) Lattice {
	other := otherL.(Combined)
	return Combined{
		Interval: c.Interval.Meet(other.Interval).(Interval),
		Null:     c.Null.Meet(other.Null).(Nullability),
	}
}

func (c Combined) Widen(otherL Lattice) Lattice {
	other := otherL.(Combined)
	return Combined{
		Interval: c.Interval.Widen(other.Interval).(Interval),
		Null:     c.Null.Widen(other.Null).(Nullability),
	}
}

func (c Combined) Narrow(otherL Lattice) Lattice {
	other := otherL.(Combined)
	return Combined{
		Interval: c.Interval.Narrow(other.Interval).(Interval),
		Null:     c.Null.Narrow(other.Null).(Nullability),
	}
}

func (c Combined) Equal(otherL Lattice) bool {
	other, ok := otherL.(Combined)
	return ok && c.Interval.Equal(other.Interval) && c.Null.Equal(other.Null)
}

func (c Combined) ApplyNonNullConstraint() Lattice {
	return Combined{Interval: c.Interval, Null: c.Null.ApplyNonNullConstraint().(Nullability)}
}

// CombinedDomain is the Domain implementation backing Combined values.
type CombinedDomain struct{}

func (CombinedDomain) Bottom() Lattice {
	return Combined{Interval: BottomInterval(), Null: NullBottom}
}

func (CombinedDomain) Top() Lattice {
	return Combined{Interval: TopInterval(), Null: NullTop}
}

func (CombinedDomain) OfLiteral(lit ir.Literal) Lattice {
	return Combined{
		Interval: IntervalDomain{}.OfLiteral(lit).(Interval),
		Null:     NullabilityDomain{}.OfLiteral(lit).(Nullability),
	}
}

func (CombinedDomain) OfNewObject() Lattice {
	return Combined{Interval: TopInterval(), Null: DefinitelyNonNull}
}

func (CombinedDomain) ApplyBinary(op string, a, b Lattice) Lattice {
	av, aok := a.(Combined)
	bv, bok := b.(Combined)
	if !aok || !bok {
		return CombinedDomain{}.Top()
	}
	return Combined{
		Interval: IntervalDomain{}.ApplyBinary(op, av.Interval, bv.Interval).(Interval),
		Null:     DefinitelyNonNull,
	}
}
