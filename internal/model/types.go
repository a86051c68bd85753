package model

import "packet-generator/internal/common"

// TypeReference is the resolved, language-agnostic description of a field type.
type TypeReference struct {
	Kind Kind `json:"kind" yaml:"kind"`
	// Source is the canonical source spelling, e.g. "int32" or "packetdef.List[int32]".
	Source string `json:"source" yaml:"source"`
	// Target is the fully parameterized target-language name, e.g. "std::vector<int32_t>".
	Target string `json:"target" yaml:"target"`
	// Head is Target without type arguments, e.g. "std::vector".
	Head string `json:"head" yaml:"head"`
	// Args are the resolved type arguments of a generic, in declaration order.
	Args []*TypeReference `json:"args,omitempty" yaml:"args,omitempty"`
	// ID is the 32-bit type identifier shared with the runtime library.
	ID uint32 `json:"id" yaml:"id"`
	// FixedString is set for the reserved fixed-length string type.
	FixedString bool `json:"fixed_string,omitempty" yaml:"fixed_string,omitempty"`
	// SizeWidth is the byte width of the length prefix (collections and maps only).
	SizeWidth uint8 `json:"size_width,omitempty" yaml:"size_width,omitempty"`
	// SizeType is the target integer type holding the length prefix.
	SizeType string `json:"size_type,omitempty" yaml:"size_type,omitempty"`
}

// IsCollection reports whether the type is encoded behind a length prefix.
func (t *TypeReference) IsCollection() bool {
	return t.Kind.IsSized()
}

// IsMap reports whether the type is a key/value container.
func (t *TypeReference) IsMap() bool {
	return t.Kind == KindMap
}

// Elem returns the element type of a collection, or nil.
func (t *TypeReference) Elem() *TypeReference {
	if t.Kind != KindCollection || len(t.Args) == 0 {
		return nil
	}

	return t.Args[0]
}

// Key returns the key type of a map, or nil.
func (t *TypeReference) Key() *TypeReference {
	if t.Kind != KindMap || len(t.Args) < 2 {
		return nil
	}

	return t.Args[0]
}

// Value returns the value type of a map, or nil.
func (t *TypeReference) Value() *TypeReference {
	if t.Kind != KindMap || len(t.Args) < 2 {
		return nil
	}

	return t.Args[1]
}

// Walk calls fn for t and then for every type argument, depth first.
func (t *TypeReference) Walk(fn func(*TypeReference)) {
	if t == nil {
		return
	}

	fn(t)

	for _, arg := range t.Args {
		arg.Walk(fn)
	}
}

// FieldDescriptor describes one serialized field.
type FieldDescriptor struct {
	Name       string         `json:"name" yaml:"name"`
	TargetName string         `json:"target_name" yaml:"target_name"`
	Type       *TypeReference `json:"type" yaml:"type"`
	// Optional marks a nullable field; the output declares an absent representation.
	Optional bool `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Direction is the originating side of a packet.
type Direction int

const (
	ClientToServer Direction = iota
	ServerToClient
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	switch d {
	case ClientToServer:
		return "ClientToServer"
	case ServerToClient:
		return "ServerToClient"
	default:
		return common.UnknownStr
	}
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// MessageDescriptor is a reusable, non top-level structure.
type MessageDescriptor struct {
	Name      string `json:"name" yaml:"name"`
	Namespace string `json:"namespace" yaml:"namespace"`
	Modifier  string `json:"modifier" yaml:"modifier"`
	// Fields holds own fields first, then inherited ones in base declaration order.
	Fields []FieldDescriptor `json:"fields" yaml:"fields"`
	// Position is the declaration site, for diagnostics only.
	Position string `json:"-" yaml:"-" msgpack:"-"`
}

// HasOptional reports whether any field is nullable.
func (m *MessageDescriptor) HasOptional() bool {
	for _, f := range m.Fields {
		if f.Optional {
			return true
		}
	}

	return false
}

// PacketDescriptor is a top-level protocol message.
type PacketDescriptor struct {
	MessageDescriptor `yaml:",inline"`

	// SourceName is the declared name including the direction prefix.
	SourceName string    `json:"source_name" yaml:"source_name"`
	Prefix     string    `json:"prefix" yaml:"prefix"`
	ProtocolID uint32    `json:"protocol_id" yaml:"protocol_id"`
	Direction  Direction `json:"direction" yaml:"direction"`
}

// IsFromClient reports whether the packet is client-originated.
func (p *PacketDescriptor) IsFromClient() bool {
	return p.Direction == ClientToServer
}

// SchemaGraph is the complete output of extraction for one run.
type SchemaGraph struct {
	Packets  []*PacketDescriptor  `json:"packets" yaml:"packets"`
	Messages []*MessageDescriptor `json:"messages" yaml:"messages"`
	Includes []string             `json:"includes" yaml:"includes"`
}

// Walk calls fn for every field type in the graph, packets first.
func (g *SchemaGraph) Walk(fn func(owner string, field *FieldDescriptor)) {
	for _, p := range g.Packets {
		for i := range p.Fields {
			fn(p.SourceName, &p.Fields[i])
		}
	}

	for _, m := range g.Messages {
		for i := range m.Fields {
			fn(m.Name, &m.Fields[i])
		}
	}
}
