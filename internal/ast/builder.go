package ast

// Builder constructs an in-memory Node tree without depending on any
// concrete parser. Used by tests across the frontend packages (cfgbuild,
// ssa, facts) to exercise constructs spec.md §4.1 enumerates, and usable by
// any adapter that wants a cheap intermediate representation before handing
// nodes to the CFG builder.
type Builder struct {
	kind     string
	text     string
	offset   int
	typ      string
	nullable bool
	name     string
	children []Node
}

// New starts a node of the given kind at the given source offset.
func New(kind string, offset int) *Builder {
	return &Builder{kind: kind, offset: offset}
}

// Text sets the node's literal source text (identifier, literal value).
func (b *Builder) Text(t string) *Builder { b.text = t; return b }

// Name sets the node's declaration name (for Named).
func (b *Builder) Name(n string) *Builder { b.name = n; return b }

// Type sets the node's declared static type (for Typed).
func (b *Builder) Type(t string, nullable bool) *Builder {
	b.typ, b.nullable = t, nullable
	return b
}

// Add appends children in source order and returns the receiver.
func (b *Builder) Add(children ...Node) *Builder {
	b.children = append(b.children, children...)
	return b
}

// Build finalizes the node. Builder is reusable after Build.
func (b *Builder) Build() Node {
	return &node{
		kind: b.kind, text: b.text, offset: b.offset,
		typ: b.typ, nullable: b.nullable, name: b.name,
		children: append([]Node(nil), b.children...),
	}
}

type node struct {
	kind     string
	text     string
	offset   int
	typ      string
	nullable bool
	name     string
	children []Node
}

func (n *node) Kind() string       { return n.kind }
func (n *node) Children() []Node   { return n.children }
func (n *node) Offset() int        { return n.offset }
func (n *node) Text() string       { return n.text }
func (n *node) DeclaredType() string { return n.typ }
func (n *node) Nullable() bool     { return n.nullable }
func (n *node) Name() string {
	if n.name != "" {
		return n.name
	}
	return n.text
}
