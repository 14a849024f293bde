package datalog

import "anteater/internal/logging"

// defaultMaxIterations is the global iteration cap of spec.md §4.4 point 4.
const defaultMaxIterations = 100000

// Stats reports how a Run concluded.
type Stats struct {
	TotalIterations      int
	ReachedMaxIterations bool
}

// Engine is an in-memory Datalog evaluator parameterized by a rule set
// (spec.md §4.4): load EDB facts, run every rule to a per-stratum fixed
// point, then query any relation for the combined EDB ∪ IDB result.
type Engine struct {
	db            *Database
	rules         []Rule
	maxIterations int
}

// NewEngine returns an Engine over rules with the default iteration cap.
func NewEngine(rules []Rule) *Engine {
	return &Engine{db: NewDatabase(), rules: rules, maxIterations: defaultMaxIterations}
}

// SetMaxIterations overrides the default 100 000-iteration global cap.
func (e *Engine) SetMaxIterations(n int) {
	e.maxIterations = n
}

// AddFacts loads EDB tuples into the database before Run.
func (e *Engine) AddFacts(tuples ...Tuple) {
	e.db.AddAll(tuples)
}

// Query returns every fact held for relation, EDB and IDB alike.
func (e *Engine) Query(relation string) []Tuple {
	return e.db.Query(relation)
}

// Clear resets both EDB and IDB, per spec.md §4.4's "clear() resets both EDB
// and IDB".
func (e *Engine) Clear() {
	e.db.Clear()
}

// Run evaluates every rule to a stratified fixed point (spec.md §4.4):
// rules are partitioned by Stratum, evaluated ascending, and a stratum is
// only considered complete once a full pass over its rules derives nothing
// new — which is what makes a higher stratum's negation (ImmutabilityRule)
// safe to evaluate against a fully-settled Mutable relation.
func (e *Engine) Run() Stats {
	log := logging.Get(logging.CategoryDatalog)
	strataOf := make(map[int][]Rule)
	maxStratum := 0
	for _, r := range e.rules {
		s := r.Stratum()
		strataOf[s] = append(strataOf[s], r)
		if s > maxStratum {
			maxStratum = s
		}
	}

	total := 0
	for stratum := 0; stratum <= maxStratum; stratum++ {
		rules := strataOf[stratum]
		if len(rules) == 0 {
			continue
		}
		for {
			if total >= e.maxIterations {
				log.Warn("datalog: reached max iterations (%d) before stratum %d settled", e.maxIterations, stratum)
				return Stats{TotalIterations: total, ReachedMaxIterations: true}
			}
			total++
			addedThisPass := 0
			for _, r := range rules {
				addedThisPass += e.db.AddAll(r.Evaluate(e.db))
			}
			if addedThisPass == 0 {
				break
			}
		}
		log.Debug("datalog: stratum %d settled after contributing to %d total iterations", stratum, total)
	}
	return Stats{TotalIterations: total}
}
