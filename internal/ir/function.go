package ir

// Warning records a non-fatal anomaly surfaced during IR construction, per
// spec.md §7 ("every recovery path produces either a violation, an error
// flag, or a logged diagnostic"). Consumed by internal/pipeline.
type Warning struct {
	Kind    string
	Message string
	Offset  int
}

// FunctionIr is a fully-lowered function, method, or constructor: its SSA
// CFG plus the bookkeeping metrics/debt/datalog all need (spec.md §3).
type FunctionIr struct {
	QualifiedName string
	CFG           *ControlFlowGraph // nil for an empty body (spec.md §9 open question)
	Parameters    []Variable        // versioned 0, live-in to entry
	SourceFile    string
	StartOffset   int
	EndOffset     int
	Skipped       bool // true for an empty body: nothing to lower, not an error
	Warnings      []Warning
}

// ClassIr models a class, mixin, extension, or enum-with-methods (spec.md
// §3: "Mixins, extensions, and enum-with-methods are modeled as ClassIrs").
type ClassIr struct {
	Name       string
	Kind       string // "class" | "mixin" | "extension" | "enum"
	Methods    []*FunctionIr
	Fields     []string
	SourceFile string
}

// FileIr is everything lowered from one source file.
type FileIr struct {
	Path      string
	Functions []*FunctionIr
	Classes   []*ClassIr
}

// AllFunctions returns every FunctionIr in the file: top-level functions
// plus every class's methods.
func (f *FileIr) AllFunctions() []*FunctionIr {
	out := append([]*FunctionIr(nil), f.Functions...)
	for _, c := range f.Classes {
		out = append(out, c.Methods...)
	}
	return out
}
