package ssa

import (
	"reflect"

	"anteater/internal/ir"
)

// phiNode is the builder's working representation of a φ during
// construction; only the ones that survive tryRemoveTrivialPhi become a
// real ir.PhiInstr (spec.md §4.2 step 7).
type phiNode struct {
	target     ir.Variable
	block      ir.BlockID
	operands   map[ir.BlockID]ir.Value
	eliminated bool
}

// resolveSubstitution follows a single Value through the substitution chain
// if it is a VariableRef; any other Value passes through unchanged.
func (b *builder) resolveSubstitution(v ir.Value) ir.Value {
	vr, ok := v.(ir.VariableRef)
	if !ok {
		return v
	}
	return b.resolveVar(vr.Var)
}

// resolveVar follows substitutions[v] until it bottoms out at a
// non-eliminated variable or a non-variable value, guarded by a visited set
// against the cycle spec.md §9's open question flags (a substitution chain
// that resolves back to its own start). On a cycle we stop and surface a
// CyclicSubstitutionWarning rather than looping forever.
func (b *builder) resolveVar(v ir.Variable) ir.Value {
	visited := map[ir.Variable]struct{}{}
	cur := v
	for {
		if _, seen := visited[cur]; seen {
			b.warnings = append(b.warnings, ir.Warning{
				Kind:    "cyclic-substitution",
				Message: "substitution chain for " + cur.Name + " cycled back on itself; keeping as a live phi reference",
			})
			return ir.VariableRef{Var: cur}
		}
		visited[cur] = struct{}{}
		sub, ok := b.substitutions[cur]
		if !ok {
			return ir.VariableRef{Var: cur}
		}
		vr, ok := sub.(ir.VariableRef)
		if !ok {
			return sub
		}
		cur = vr.Var
	}
}

// tryRemoveTrivialPhi implements spec.md §4.2 step 6: if every non-self
// operand of phi resolves to the same value, the phi is redundant; record
// the substitution and return the shared value. Otherwise the phi stays and
// its own VariableRef is returned.
func (b *builder) tryRemoveTrivialPhi(phi *phiNode) ir.Value {
	var unique ir.Value
	trivial := true
	for _, op := range phi.operands {
		resolved := b.resolveSubstitution(op)
		if vr, ok := resolved.(ir.VariableRef); ok && vr.Var == phi.target {
			continue // self-reference: ignored per spec.md §4.2 step 6
		}
		if unique == nil {
			unique = resolved
			continue
		}
		if !reflect.DeepEqual(unique, resolved) {
			trivial = false
			break
		}
	}

	if !trivial || unique == nil {
		return ir.VariableRef{Var: phi.target}
	}

	b.substitutions[phi.target] = unique
	phi.eliminated = true
	return unique
}
