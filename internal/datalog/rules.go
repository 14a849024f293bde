package datalog

// Rule is the evaluation contract of spec.md §4.4 and §9: "a trait/interface
// with one method evaluate, or a first-class function value". Evaluate reads
// whatever it needs from db (itself the lazy EDB∪IDB union) and returns the
// tuples it derives; the engine is responsible for dedup and iteration.
type Rule interface {
	Name() string
	Stratum() int
	Evaluate(db *Database) []Tuple
}

func asInt(a any) (int, bool) {
	v, ok := a.(int)
	return v, ok
}

func asString(a any) (string, bool) {
	v, ok := a.(string)
	return v, ok
}

// AllocRule: VarPointsTo(v,h) ⟸ Assign(v,e), Alloc(e,h).
type AllocRule struct{}

func (AllocRule) Name() string    { return "AllocRule" }
func (AllocRule) Stratum() int    { return 0 }
func (AllocRule) Evaluate(db *Database) []Tuple {
	var out []Tuple
	for _, assign := range db.Query("Assign") {
		v, ok := asInt(assign.Args[0])
		if !ok {
			continue
		}
		e := assign.Args[1]
		for _, alloc := range db.Query("Alloc") {
			if alloc.Args[0] != e {
				continue
			}
			h, ok := asString(alloc.Args[1])
			if !ok {
				continue
			}
			out = append(out, NewTuple("VarPointsTo", v, h))
		}
	}
	return out
}

// CopyRule: VarPointsTo(v1,h) ⟸ Assign(v1,v2), VarPointsTo(v2,h).
type CopyRule struct{}

func (CopyRule) Name() string { return "CopyRule" }
func (CopyRule) Stratum() int { return 0 }
func (CopyRule) Evaluate(db *Database) []Tuple {
	var out []Tuple
	for _, assign := range db.Query("Assign") {
		v1, ok := asInt(assign.Args[0])
		if !ok {
			continue
		}
		v2 := assign.Args[1]
		for _, pt := range db.Query("VarPointsTo") {
			if pt.Args[0] != v2 {
				continue
			}
			h, ok := asString(pt.Args[1])
			if !ok {
				continue
			}
			out = append(out, NewTuple("VarPointsTo", v1, h))
		}
	}
	return out
}

// StoreFieldRule: HeapPointsTo(b,f,h) ⟸ StoreField(b,f,s), VarPointsTo(b,hb), VarPointsTo(s,h).
type StoreFieldRule struct{}

func (StoreFieldRule) Name() string { return "StoreFieldRule" }
func (StoreFieldRule) Stratum() int { return 0 }
func (StoreFieldRule) Evaluate(db *Database) []Tuple {
	var out []Tuple
	pointsTo := db.Query("VarPointsTo")
	for _, store := range db.Query("StoreField") {
		baseVar := store.Args[0]
		field, ok := asString(store.Args[1])
		if !ok {
			continue
		}
		storedVar := store.Args[2]
		for _, hb := range pointsTo {
			if hb.Args[0] != baseVar {
				continue
			}
			heapBase, ok := asString(hb.Args[1])
			if !ok {
				continue
			}
			for _, hs := range pointsTo {
				if hs.Args[0] != storedVar {
					continue
				}
				h, ok := asString(hs.Args[1])
				if !ok {
					continue
				}
				out = append(out, NewTuple("HeapPointsTo", heapBase, field, h))
			}
		}
	}
	return out
}

// LoadFieldRule: VarPointsTo(t,h) ⟸ LoadField(b,f,t), VarPointsTo(b,hb), HeapPointsTo(hb,f,h).
type LoadFieldRule struct{}

func (LoadFieldRule) Name() string { return "LoadFieldRule" }
func (LoadFieldRule) Stratum() int { return 0 }
func (LoadFieldRule) Evaluate(db *Database) []Tuple {
	var out []Tuple
	heapPointsTo := db.Query("HeapPointsTo")
	for _, load := range db.Query("LoadField") {
		baseVar := load.Args[0]
		field, ok := asString(load.Args[1])
		if !ok {
			continue
		}
		target, ok := asInt(load.Args[2])
		if !ok {
			continue
		}
		for _, hb := range db.Query("VarPointsTo") {
			if hb.Args[0] != baseVar {
				continue
			}
			heapBase, ok := asString(hb.Args[1])
			if !ok {
				continue
			}
			for _, hpt := range heapPointsTo {
				hptBase, ok := asString(hpt.Args[0])
				if !ok || hptBase != heapBase {
					continue
				}
				hptField, ok := asString(hpt.Args[1])
				if !ok || hptField != field {
					continue
				}
				h, ok := asString(hpt.Args[2])
				if !ok {
					continue
				}
				out = append(out, NewTuple("VarPointsTo", target, h))
			}
		}
	}
	return out
}

// ReachabilityRule: Reachable(to) ⟸ Reachable(from), Flow(from,to).
type ReachabilityRule struct{}

func (ReachabilityRule) Name() string { return "ReachabilityRule" }
func (ReachabilityRule) Stratum() int { return 0 }
func (ReachabilityRule) Evaluate(db *Database) []Tuple {
	var out []Tuple
	reachable := db.Query("Reachable")
	for _, flow := range db.Query("Flow") {
		from := flow.Args[0]
		to := flow.Args[1]
		for _, r := range reachable {
			if r.Args[0] != from {
				continue
			}
			out = append(out, NewTuple("Reachable", to))
			break
		}
	}
	return out
}

// MutabilityRule: Mutable(h) ⟸ StoreField(b,_,_), VarPointsTo(b,h).
type MutabilityRule struct{}

func (MutabilityRule) Name() string { return "MutabilityRule" }
func (MutabilityRule) Stratum() int { return 0 }
func (MutabilityRule) Evaluate(db *Database) []Tuple {
	var out []Tuple
	stores := db.Query("StoreField")
	for _, pt := range db.Query("VarPointsTo") {
		baseVar := pt.Args[0]
		h, ok := asString(pt.Args[1])
		if !ok {
			continue
		}
		for _, store := range stores {
			if store.Args[0] != baseVar {
				continue
			}
			out = append(out, NewTuple("Mutable", h))
			break
		}
	}
	return out
}

// TransitiveMutabilityRule: Mutable(h) ⟸ HeapPointsTo(h,_,h'), Mutable(h').
type TransitiveMutabilityRule struct{}

func (TransitiveMutabilityRule) Name() string { return "TransitiveMutabilityRule" }
func (TransitiveMutabilityRule) Stratum() int { return 0 }
func (TransitiveMutabilityRule) Evaluate(db *Database) []Tuple {
	var out []Tuple
	mutable := db.Query("Mutable")
	for _, hpt := range db.Query("HeapPointsTo") {
		h, ok := asString(hpt.Args[0])
		if !ok {
			continue
		}
		hPrime, ok := asString(hpt.Args[2])
		if !ok {
			continue
		}
		for _, m := range mutable {
			mh, ok := asString(m.Args[0])
			if ok && mh == hPrime {
				out = append(out, NewTuple("Mutable", h))
				break
			}
		}
	}
	return out
}

// CallGraphRule: CallGraph(site,m) ⟸ Call(site,r,m,_), VarPointsTo(r,_); plus
// Call(site,-1,m,_) ⇒ CallGraph(site,m) since a static call (no receiver)
// always resolves.
type CallGraphRule struct{}

func (CallGraphRule) Name() string { return "CallGraphRule" }
func (CallGraphRule) Stratum() int { return 0 }
func (CallGraphRule) Evaluate(db *Database) []Tuple {
	var out []Tuple
	pointsTo := db.Query("VarPointsTo")
	for _, call := range db.Query("Call") {
		site := call.Args[0]
		receiver := call.Args[1]
		method, ok := asString(call.Args[2])
		if !ok {
			continue
		}
		if r, ok := asInt(receiver); ok && r == -1 {
			out = append(out, NewTuple("CallGraph", site, method))
			continue
		}
		for _, pt := range pointsTo {
			if pt.Args[0] != receiver {
				continue
			}
			out = append(out, NewTuple("CallGraph", site, method))
			break
		}
	}
	return out
}

// ImmutabilityRule: DeepImmutable(h) ⟸ Alloc(_,h), ¬Mutable(h). Runs at
// stratum 1: Mutable must be fully derived (stratum 0 complete) before this
// negation is safe to evaluate, per spec.md §4.4 point 3.
type ImmutabilityRule struct{}

func (ImmutabilityRule) Name() string { return "ImmutabilityRule" }
func (ImmutabilityRule) Stratum() int { return 1 }
func (ImmutabilityRule) Evaluate(db *Database) []Tuple {
	mutable := make(map[string]bool)
	for _, m := range db.Query("Mutable") {
		if h, ok := asString(m.Args[0]); ok {
			mutable[h] = true
		}
	}
	var out []Tuple
	seen := make(map[string]bool)
	for _, alloc := range db.Query("Alloc") {
		h, ok := asString(alloc.Args[1])
		if !ok || mutable[h] || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, NewTuple("DeepImmutable", h))
	}
	return out
}

// TaintSeedRule: TaintedVar(v,v,ℓ) ⟸ TaintSource(v,ℓ).
type TaintSeedRule struct{}

func (TaintSeedRule) Name() string { return "TaintSeedRule" }
func (TaintSeedRule) Stratum() int { return 0 }
func (TaintSeedRule) Evaluate(db *Database) []Tuple {
	var out []Tuple
	for _, src := range db.Query("TaintSource") {
		v := src.Args[0]
		label := src.Args[1]
		out = append(out, NewTuple("TaintedVar", v, v, label))
	}
	return out
}

// TaintCopyRule: TaintedVar(t,s,ℓ) ⟸ Assign(t,f), TaintedVar(f,s,ℓ).
type TaintCopyRule struct{}

func (TaintCopyRule) Name() string { return "TaintCopyRule" }
func (TaintCopyRule) Stratum() int { return 0 }
func (TaintCopyRule) Evaluate(db *Database) []Tuple {
	var out []Tuple
	for _, assign := range db.Query("Assign") {
		t := assign.Args[0]
		f := assign.Args[1]
		for _, tv := range db.Query("TaintedVar") {
			if tv.Args[0] != f {
				continue
			}
			out = append(out, NewTuple("TaintedVar", t, tv.Args[1], tv.Args[2]))
		}
	}
	return out
}

// TaintStoreRule: TaintedHeap(hb,f,s,ℓ) ⟸ StoreField(b,f,sv), VarPointsTo(b,hb), TaintedVar(sv,s,ℓ).
type TaintStoreRule struct{}

func (TaintStoreRule) Name() string { return "TaintStoreRule" }
func (TaintStoreRule) Stratum() int { return 0 }
func (TaintStoreRule) Evaluate(db *Database) []Tuple {
	var out []Tuple
	pointsTo := db.Query("VarPointsTo")
	taintedVars := db.Query("TaintedVar")
	for _, store := range db.Query("StoreField") {
		baseVar := store.Args[0]
		field, ok := asString(store.Args[1])
		if !ok {
			continue
		}
		storedVar := store.Args[2]
		for _, pt := range pointsTo {
			if pt.Args[0] != baseVar {
				continue
			}
			hb, ok := asString(pt.Args[1])
			if !ok {
				continue
			}
			for _, tv := range taintedVars {
				if tv.Args[0] != storedVar {
					continue
				}
				out = append(out, NewTuple("TaintedHeap", hb, field, tv.Args[1], tv.Args[2]))
			}
		}
	}
	return out
}

// TaintLoadRule: TaintedVar(t,s,ℓ) ⟸ LoadField(b,f,t), VarPointsTo(b,hb), TaintedHeap(hb,f,s,ℓ).
type TaintLoadRule struct{}

func (TaintLoadRule) Name() string { return "TaintLoadRule" }
func (TaintLoadRule) Stratum() int { return 0 }
func (TaintLoadRule) Evaluate(db *Database) []Tuple {
	var out []Tuple
	pointsTo := db.Query("VarPointsTo")
	taintedHeap := db.Query("TaintedHeap")
	for _, load := range db.Query("LoadField") {
		baseVar := load.Args[0]
		field, ok := asString(load.Args[1])
		if !ok {
			continue
		}
		target := load.Args[2]
		for _, pt := range pointsTo {
			if pt.Args[0] != baseVar {
				continue
			}
			hb, ok := asString(pt.Args[1])
			if !ok {
				continue
			}
			for _, th := range taintedHeap {
				thHeap, ok := asString(th.Args[0])
				if !ok || thHeap != hb {
					continue
				}
				thField, ok := asString(th.Args[1])
				if !ok || thField != field {
					continue
				}
				out = append(out, NewTuple("TaintedVar", target, th.Args[2], th.Args[3]))
			}
		}
	}
	return out
}

// TaintViolationRule: TaintViolation(sink,src,ℓt,ℓs) ⟸ TaintSink(sink,ℓs), TaintedVar(sink,src,ℓt).
type TaintViolationRule struct{}

func (TaintViolationRule) Name() string { return "TaintViolationRule" }
func (TaintViolationRule) Stratum() int { return 0 }
func (TaintViolationRule) Evaluate(db *Database) []Tuple {
	var out []Tuple
	taintedVars := db.Query("TaintedVar")
	for _, sink := range db.Query("TaintSink") {
		sinkVar := sink.Args[0]
		labelSink := sink.Args[1]
		for _, tv := range taintedVars {
			if tv.Args[0] != sinkVar {
				continue
			}
			out = append(out, NewTuple("TaintViolation", sinkVar, tv.Args[1], tv.Args[2], labelSink))
		}
	}
	return out
}

// BuiltinRules returns the full rule set of spec.md §4.4, in no particular
// order: the engine partitions by Stratum() itself.
func BuiltinRules() []Rule {
	return []Rule{
		AllocRule{},
		CopyRule{},
		StoreFieldRule{},
		LoadFieldRule{},
		ReachabilityRule{},
		MutabilityRule{},
		TransitiveMutabilityRule{},
		CallGraphRule{},
		ImmutabilityRule{},
		TaintSeedRule{},
		TaintCopyRule{},
		TaintStoreRule{},
		TaintLoadRule{},
		TaintViolationRule{},
	}
}
