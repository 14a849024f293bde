package datalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTupleDedupOnInsert(t *testing.T) {
	db := NewDatabase()
	require.True(t, db.Add(NewTuple("Flow", 1, 2)))
	require.False(t, db.Add(NewTuple("Flow", 1, 2)), "identical tuple must not be re-added")
	require.Equal(t, 1, db.Len())
}

// Points-to scenario: EDB = {Assign(0,100), Alloc(100,"L#0"), Assign(1,0)} ⇒
// IDB contains VarPointsTo(0,"L#0") and VarPointsTo(1,"L#0") and no other
// VarPointsTo tuples.
func TestPointsToScenario(t *testing.T) {
	e := NewEngine(BuiltinRules())
	e.AddFacts(
		NewTuple("Assign", 0, 100),
		NewTuple("Alloc", 100, "L#0"),
		NewTuple("Assign", 1, 0),
	)
	stats := e.Run()
	require.False(t, stats.ReachedMaxIterations)

	pointsTo := e.Query("VarPointsTo")
	require.Len(t, pointsTo, 2)
	require.True(t, hasTuple(pointsTo, "VarPointsTo", 0, "L#0"))
	require.True(t, hasTuple(pointsTo, "VarPointsTo", 1, "L#0"))
}

// Deep-immutability scenario, per spec.md's concrete acceptance example: an
// outer→inner→leaf store chain plus a store into leaf.value marks all three
// Mutable, while an allocated-but-never-stored-into object is DeepImmutable.
func TestDeepImmutabilityScenario(t *testing.T) {
	e := NewEngine(BuiltinRules())
	e.AddFacts(
		NewTuple("Assign", 0, 1000), NewTuple("Alloc", 1000, "Outer#0"),
		NewTuple("Assign", 1, 1001), NewTuple("Alloc", 1001, "Inner#0"),
		NewTuple("Assign", 2, 1002), NewTuple("Alloc", 1002, "Leaf#0"),
		NewTuple("Assign", 3, 1003), NewTuple("Alloc", 1003, "Immutable#0"),

		NewTuple("StoreField", 0, "inner", 1), // outer.inner = inner
		NewTuple("StoreField", 1, "leaf", 2),  // inner.leaf = leaf
		NewTuple("StoreField", 2, "value", 5), // leaf.value = <scalar>
	)
	stats := e.Run()
	require.False(t, stats.ReachedMaxIterations)

	mutable := make(map[string]bool)
	for _, m := range e.Query("Mutable") {
		mutable[m.Args[0].(string)] = true
	}
	require.True(t, mutable["Outer#0"])
	require.True(t, mutable["Inner#0"])
	require.True(t, mutable["Leaf#0"])

	deepImmutable := make(map[string]bool)
	for _, di := range e.Query("DeepImmutable") {
		deepImmutable[di.Args[0].(string)] = true
	}
	require.True(t, deepImmutable["Immutable#0"])
	require.False(t, deepImmutable["Outer#0"])
	require.False(t, deepImmutable["Inner#0"])
	require.False(t, deepImmutable["Leaf#0"])
}

// Taint scenario: source var 0 labeled "user_input", copy chain
// Assign(1,0), Assign(2,1), sink var 2 labeled "sql_query" ⇒ exactly one
// TaintViolation(2, 0, "user_input", "sql_query").
func TestTaintScenario(t *testing.T) {
	e := NewEngine(BuiltinRules())
	e.AddFacts(
		NewTuple("TaintSource", 0, "user_input"),
		NewTuple("Assign", 1, 0),
		NewTuple("Assign", 2, 1),
		NewTuple("TaintSink", 2, "sql_query"),
	)
	stats := e.Run()
	require.False(t, stats.ReachedMaxIterations)

	violations := e.Query("TaintViolation")
	require.Len(t, violations, 1)
	require.True(t, hasTuple(violations, "TaintViolation", 2, 0, "user_input", "sql_query"))
}

func TestReachabilityScenario(t *testing.T) {
	e := NewEngine(BuiltinRules())
	e.AddFacts(
		NewTuple("Reachable", 0),
		NewTuple("Flow", 0, 1),
		NewTuple("Flow", 1, 2),
		NewTuple("Flow", 2, 3),
	)
	e.Run()
	reachable := make(map[int]bool)
	for _, r := range e.Query("Reachable") {
		reachable[r.Args[0].(int)] = true
	}
	require.True(t, reachable[0])
	require.True(t, reachable[1])
	require.True(t, reachable[2])
	require.True(t, reachable[3])
}

func TestCallGraphStaticCallAlwaysResolves(t *testing.T) {
	e := NewEngine(BuiltinRules())
	e.AddFacts(NewTuple("Call", 10, -1, "staticFn", -1))
	e.Run()
	cg := e.Query("CallGraph")
	require.True(t, hasTuple(cg, "CallGraph", 10, "staticFn"))
}

func TestCallGraphResolvesThroughPointsTo(t *testing.T) {
	e := NewEngine(BuiltinRules())
	e.AddFacts(
		NewTuple("Assign", 0, 100), NewTuple("Alloc", 100, "Widget#0"),
		NewTuple("Call", 10, 0, "doThing", -1),
	)
	e.Run()
	cg := e.Query("CallGraph")
	require.True(t, hasTuple(cg, "CallGraph", 10, "doThing"))
}

func TestClearResetsEDBAndIDB(t *testing.T) {
	e := NewEngine(BuiltinRules())
	e.AddFacts(NewTuple("Reachable", 0), NewTuple("Flow", 0, 1))
	e.Run()
	require.NotEmpty(t, e.Query("Reachable"))
	e.Clear()
	require.Empty(t, e.Query("Reachable"))
	require.Empty(t, e.Query("Flow"))
}

type everGrowingRule struct{ n *int }

func (everGrowingRule) Name() string { return "everGrowingRule" }
func (everGrowingRule) Stratum() int { return 0 }
func (r everGrowingRule) Evaluate(db *Database) []Tuple {
	*r.n++
	return []Tuple{NewTuple("Ever", *r.n)}
}

func TestMaxIterationsCapStopsNonTerminatingRuleSet(t *testing.T) {
	n := 0
	e := NewEngine([]Rule{everGrowingRule{n: &n}})
	e.SetMaxIterations(5)
	stats := e.Run()
	require.True(t, stats.ReachedMaxIterations)
	require.Equal(t, 5, stats.TotalIterations)
}

func hasTuple(tuples []Tuple, relation string, args ...any) bool {
	for _, t := range tuples {
		if t.Relation != relation || len(t.Args) != len(args) {
			continue
		}
		match := true
		for i := range args {
			if t.Args[i] != args[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
