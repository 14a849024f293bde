package datalog

// Database holds every tuple asserted so far, EDB and IDB alike, indexed by
// relation and deduplicated by tuple identity. Storing both in one table is
// what gives Query its "EDB ∪ IDB" contract for free (spec.md §4.4) instead
// of requiring callers to union two separate stores.
type Database struct {
	facts map[string]map[string]Tuple
}

// NewDatabase returns an empty fact store.
func NewDatabase() *Database {
	return &Database{facts: make(map[string]map[string]Tuple)}
}

// Add inserts t if no tuple-equal fact is already present, reporting whether
// it was newly added. Used both for loading EDB facts and for rule-derived
// IDB tuples, so a rule re-deriving an existing fact is a no-op by construction.
func (d *Database) Add(t Tuple) bool {
	bucket, ok := d.facts[t.Relation]
	if !ok {
		bucket = make(map[string]Tuple)
		d.facts[t.Relation] = bucket
	}
	k := t.key()
	if _, exists := bucket[k]; exists {
		return false
	}
	bucket[k] = t
	return true
}

// AddAll inserts every tuple in ts, returning how many were newly added.
func (d *Database) AddAll(ts []Tuple) int {
	added := 0
	for _, t := range ts {
		if d.Add(t) {
			added++
		}
	}
	return added
}

// Query returns every fact currently held for relation, EDB and IDB alike.
func (d *Database) Query(relation string) []Tuple {
	bucket := d.facts[relation]
	out := make([]Tuple, 0, len(bucket))
	for _, t := range bucket {
		out = append(out, t)
	}
	return out
}

// Len reports the total number of facts across every relation.
func (d *Database) Len() int {
	n := 0
	for _, bucket := range d.facts {
		n += len(bucket)
	}
	return n
}

// Clear discards every fact, resetting both EDB and IDB.
func (d *Database) Clear() {
	d.facts = make(map[string]map[string]Tuple)
}
