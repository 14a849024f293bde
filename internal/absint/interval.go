package absint

import "anteater/internal/ir"

// Interval is the value of spec.md §4.5's IntervalDomain: ⊥, or [lo, hi]
// with lo, hi ∈ ℤ ∪ {±∞}. Infinities are tracked as explicit flags rather
// than sentinel integers so a genuinely large finite bound can never be
// confused with ±∞.
type Interval struct {
	bottom     bool
	loInf      bool // true: lo = -∞, Lo is meaningless
	hiInf      bool // true: hi = +∞, Hi is meaningless
	Lo, Hi     int64
}

// BottomInterval is the empty interval, the identity element of Join.
func BottomInterval() Interval { return Interval{bottom: true} }

// TopInterval is [-∞, +∞].
func TopInterval() Interval { return Interval{loInf: true, hiInf: true} }

// Finite builds a bounded, fully-known interval [lo, hi].
func Finite(lo, hi int64) Interval { return Interval{Lo: lo, Hi: hi} }

// IsBottom reports whether iv is the empty interval.
func (iv Interval) IsBottom() bool { return iv.bottom }

func (iv Interval) loBound() (val int64, inf bool) { return iv.Lo, iv.loInf }
func (iv Interval) hiBound() (val int64, inf bool) { return iv.Hi, iv.hiInf }

func (iv Interval) Join(otherL Lattice) Lattice {
	other := otherL.(Interval)
	if iv.bottom {
		return other
	}
	if other.bottom {
		return iv
	}
	loV, loInf := minBound(iv.Lo, iv.loInf, other.Lo, other.loInf)
	hiV, hiInf := maxBound(iv.Hi, iv.hiInf, other.Hi, other.hiInf)
	return Interval{Lo: loV, loInf: loInf, Hi: hiV, hiInf: hiInf}
}

func (iv Interval) Meet(otherL Lattice) Lattice {
	other := otherL.(Interval)
	if iv.bottom || other.bottom {
		return BottomInterval()
	}
	loV, loInf := maxBound(iv.Lo, iv.loInf, other.Lo, other.loInf)
	hiV, hiInf := minBound(iv.Hi, iv.hiInf, other.Hi, other.hiInf)
	if !loInf && !hiInf && loV > hiV {
		return BottomInterval()
	}
	return Interval{Lo: loV, loInf: loInf, Hi: hiV, hiInf: hiInf}
}

// Widen implements classic Cousot widening: for each bound, if the new value
// has grown past the old one, jump straight to infinity in that direction.
func (iv Interval) Widen(newL Lattice) Lattice {
	n := newL.(Interval)
	if iv.bottom {
		return n
	}
	if n.bottom {
		return iv
	}
	loInf := iv.loInf
	if !loInf && (n.loInf || n.Lo < iv.Lo) {
		loInf = true
	}
	hiInf := iv.hiInf
	if !hiInf && (n.hiInf || n.Hi > iv.Hi) {
		hiInf = true
	}
	return Interval{Lo: iv.Lo, loInf: loInf, Hi: iv.Hi, hiInf: hiInf}
}

// Narrow tightens a bound that was previously widened to infinity, if the
// freshly-transferred value offers a finite replacement.
func (iv Interval) Narrow(newL Lattice) Lattice {
	n := newL.(Interval)
	if iv.bottom || n.bottom {
		return BottomInterval()
	}
	lo, loInf := iv.Lo, iv.loInf
	if iv.loInf && !n.loInf {
		lo, loInf = n.Lo, false
	}
	hi, hiInf := iv.Hi, iv.hiInf
	if iv.hiInf && !n.hiInf {
		hi, hiInf = n.Hi, false
	}
	return Interval{Lo: lo, loInf: loInf, Hi: hi, hiInf: hiInf}
}

func (iv Interval) Equal(otherL Lattice) bool {
	other, ok := otherL.(Interval)
	if !ok {
		return false
	}
	if iv.bottom != other.bottom {
		return false
	}
	if iv.bottom {
		return true
	}
	if iv.loInf != other.loInf || iv.hiInf != other.hiInf {
		return false
	}
	if !iv.loInf && iv.Lo != other.Lo {
		return false
	}
	if !iv.hiInf && iv.Hi != other.Hi {
		return false
	}
	return true
}

// ApplyNonNullConstraint: Interval alone has no nullability concept, so a
// non-null assertion leaves the numeric range untouched.
func (iv Interval) ApplyNonNullConstraint() Lattice { return iv }

func minBound(aVal int64, aInf bool, bVal int64, bInf bool) (int64, bool) {
	if aInf || bInf {
		return 0, true
	}
	if aVal < bVal {
		return aVal, false
	}
	return bVal, false
}

func maxBound(aVal int64, aInf bool, bVal int64, bInf bool) (int64, bool) {
	if aInf || bInf {
		return 0, true
	}
	if aVal > bVal {
		return aVal, false
	}
	return bVal, false
}

func containsZero(iv Interval) bool {
	loLE0 := iv.loInf || iv.Lo <= 0
	hiGE0 := iv.hiInf || iv.Hi >= 0
	return loLE0 && hiGE0
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// Add computes a + b with saturating ±∞ propagation.
func (iv Interval) Add(otherL Lattice) Lattice {
	other := otherL.(Interval)
	if iv.bottom || other.bottom {
		return BottomInterval()
	}
	loInf := iv.loInf || other.loInf
	hiInf := iv.hiInf || other.hiInf
	var lo, hi int64
	if !loInf {
		lo = iv.Lo + other.Lo
	}
	if !hiInf {
		hi = iv.Hi + other.Hi
	}
	return Interval{Lo: lo, loInf: loInf, Hi: hi, hiInf: hiInf}
}

// Subtract computes a - b with saturating ±∞ propagation.
func (iv Interval) Subtract(otherL Lattice) Lattice {
	other := otherL.(Interval)
	if iv.bottom || other.bottom {
		return BottomInterval()
	}
	loInf := iv.loInf || other.hiInf
	hiInf := iv.hiInf || other.loInf
	var lo, hi int64
	if !loInf {
		lo = iv.Lo - other.Hi
	}
	if !hiInf {
		hi = iv.Hi - other.Lo
	}
	return Interval{Lo: lo, loInf: loInf, Hi: hi, hiInf: hiInf}
}

// Multiply computes a * b over endpoint combinations when both operands are
// fully finite; an unbounded operand yields Top (sound, if coarse).
func (iv Interval) Multiply(otherL Lattice) Lattice {
	other := otherL.(Interval)
	if iv.bottom || other.bottom {
		return BottomInterval()
	}
	if iv.loInf || iv.hiInf || other.loInf || other.hiInf {
		return TopInterval()
	}
	products := [4]int64{iv.Lo * other.Lo, iv.Lo * other.Hi, iv.Hi * other.Lo, iv.Hi * other.Hi}
	lo, hi := products[0], products[0]
	for _, p := range products[1:] {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	return Interval{Lo: lo, Hi: hi}
}

// Divide computes a / b, yielding Top if the divisor's interval contains
// zero or either operand is unbounded (spec.md §4.5).
func (iv Interval) Divide(otherL Lattice) Lattice {
	other := otherL.(Interval)
	if iv.bottom || other.bottom {
		return BottomInterval()
	}
	if containsZero(other) {
		return TopInterval()
	}
	if iv.loInf || iv.hiInf || other.loInf || other.hiInf {
		return TopInterval()
	}
	quotients := [4]int64{iv.Lo / other.Lo, iv.Lo / other.Hi, iv.Hi / other.Lo, iv.Hi / other.Hi}
	lo, hi := quotients[0], quotients[0]
	for _, q := range quotients[1:] {
		if q < lo {
			lo = q
		}
		if q > hi {
			hi = q
		}
	}
	return Interval{Lo: lo, Hi: hi}
}

// Modulo bounds the result to [0, |d|-1] by divisor magnitude alone, yielding
// Top if the divisor's interval contains zero or is unbounded.
func (iv Interval) Modulo(otherL Lattice) Lattice {
	other := otherL.(Interval)
	if iv.bottom || other.bottom {
		return BottomInterval()
	}
	if containsZero(other) || other.loInf || other.hiInf {
		return TopInterval()
	}
	maxAbs := abs64(other.Lo)
	if a := abs64(other.Hi); a > maxAbs {
		maxAbs = a
	}
	return Interval{Lo: 0, Hi: maxAbs - 1}
}

// IntervalDomain is the Domain implementation backing Interval values.
type IntervalDomain struct{}

func (IntervalDomain) Bottom() Lattice { return BottomInterval() }
func (IntervalDomain) Top() Lattice    { return TopInterval() }

func (IntervalDomain) OfLiteral(lit ir.Literal) Lattice {
	if lit.Kind == ir.LiteralInt {
		return Finite(lit.Int, lit.Int)
	}
	// Non-integer literals (string/bool/float/null) carry no interval
	// information in this domain.
	return TopInterval()
}

func (IntervalDomain) OfNewObject() Lattice { return TopInterval() }

func (IntervalDomain) ApplyBinary(op string, a, b Lattice) Lattice {
	av, aok := a.(Interval)
	bv, bok := b.(Interval)
	if !aok || !bok {
		return TopInterval()
	}
	switch op {
	case "+":
		return av.Add(bv)
	case "-":
		return av.Subtract(bv)
	case "*":
		return av.Multiply(bv)
	case "/", "~/":
		return av.Divide(bv)
	case "%":
		return av.Modulo(bv)
	default:
		return TopInterval()
	}
}
