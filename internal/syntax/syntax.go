// Package syntax is the contract between the schema frontend and the core:
// a forest of declarations with markers already decoded into tagged values,
// type expressions as a small closed set of nodes, and a Symbols service for
// capability queries.
//
// Nothing in this package depends on go/ast or go/types; tests build forests
// by hand.
package syntax

import "slices"

// Forest is every schema file of one compilation, in a stable order.
type Forest struct {
	Files []*File
}

// File holds the declarations parsed from one schema source file.
type File struct {
	Path  string
	Decls []*Decl
}

// MarkedDecls returns the declarations carrying the message marker, in source order.
func (f *File) MarkedDecls() []*Decl {
	var out []*Decl

	for _, d := range f.Decls {
		if d.Marker != nil {
			out = append(out, d)
		}
	}

	return out
}

// Decl is a struct declaration.
type Decl struct {
	Name      string
	Namespace string // dotted package path, e.g. "game.packets"
	Exported  bool
	// Marker is nil when the declaration is not annotated.
	Marker *Marker
	// Bases are embedded declarations, in embedding order. Unmarked bases are kept
	// so the extractor can tell "no base" from "base without marker".
	Bases  []*Decl
	Fields []*Field
	Pos    string
}

// Modifier returns the visibility keyword emitted for the declaration.
func (d *Decl) Modifier() string {
	if d.Exported {
		return "public"
	}

	return "internal"
}

// Marker is the decoded message directive. Arg is nil for the bare form.
type Marker struct {
	Arg *string
}

// HasArg reports whether the marker carries an explicit argument.
func (m *Marker) HasArg() bool {
	return m != nil && m.Arg != nil
}

// SizeMarker is the decoded length-prefix width of a collection field.
type SizeMarker struct {
	Value string
}

// Field is one declared field. Its identity is the pointer: the same Field
// reached twice through inheritance is emitted once.
type Field struct {
	Name string
	Type Node
	Size *SizeMarker
	Pos  string
}

// Node is a type expression.
type Node interface {
	// Text returns the expression as written in source.
	Text() string
	node()
}

// Ident is a non-generic type name.
type Ident struct {
	Name      string
	Namespace string // empty for universe types
}

// Generic is an instantiated generic type.
type Generic struct {
	Head Ident
	Args []Node
	// Source is the expression as written, e.g. "packetdef.List[packetdef.List[int32]]".
	Source string
	// Interfaces lists the qualified names of every known interface the
	// instantiated type implements, sorted.
	Interfaces []string
}

// Nullable is an optional wrapper around Elem.
type Nullable struct {
	Elem Node
}

// Unsupported is a type expression the schema language does not accept.
type Unsupported struct {
	Source string
	Reason string
}

func (n *Ident) Text() string {
	if n.Namespace == "" {
		return n.Name
	}

	return n.Namespace + "." + n.Name
}

func (n *Generic) Text() string     { return n.Source }
func (n *Nullable) Text() string    { return "*" + n.Elem.Text() }
func (n *Unsupported) Text() string { return n.Source }

func (*Ident) node()       {}
func (*Generic) node()     {}
func (*Nullable) node()    {}
func (*Unsupported) node() {}

// Symbols answers the symbol queries the core needs.
type Symbols interface {
	// LookupInterface reports whether an interface with the qualified name was resolved.
	LookupInterface(qualified string) bool
	// Implements reports whether the instantiated generic implements the interface.
	Implements(g *Generic, qualified string) bool
}

// StaticSymbols is a Symbols backed by a fixed interface set. The frontend
// returns one; tests construct them directly.
type StaticSymbols struct {
	Interfaces map[string]bool
}

// NewStaticSymbols creates StaticSymbols knowing the given interfaces.
func NewStaticSymbols(interfaces ...string) *StaticSymbols {
	s := &StaticSymbols{Interfaces: make(map[string]bool, len(interfaces))}
	for _, name := range interfaces {
		s.Interfaces[name] = true
	}

	return s
}

func (s *StaticSymbols) LookupInterface(qualified string) bool {
	return s.Interfaces[qualified]
}

func (s *StaticSymbols) Implements(g *Generic, qualified string) bool {
	return s.Interfaces[qualified] && slices.Contains(g.Interfaces, qualified)
}
