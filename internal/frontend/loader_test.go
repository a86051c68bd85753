package frontend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"packet-generator/internal/diagnostic"
	"packet-generator/internal/syntax"
)

const packetdefSource = `package packetdef

type Collection interface{ Count() int }

type Map interface {
	Collection
	Keyed()
}

type List[T any] struct{ items []T }

func (l *List[T]) Count() int { return len(l.items) }

type Dictionary[K comparable, V any] struct{ items map[K]V }

func (d *Dictionary[K, V]) Count() int { return len(d.items) }
func (d *Dictionary[K, V]) Keyed()     {}

type Tuple[A, B any] struct {
	First  A
	Second B
}

type FixedSizeString struct {
	Size  int
	Value string
}
`

// writeTree creates files below a temporary root and returns the root.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	return root
}

// loadSchema loads a single schema file against the test definitions library.
func loadSchema(t *testing.T, schema string) (*Program, error) {
	t.Helper()

	root := writeTree(t, map[string]string{
		"defs/packetdef/packetdef.go": packetdefSource,
		"schema/schema.go":            schema,
	})

	return NewLoader(Options{
		SchemaDir:    filepath.Join(root, "schema"),
		ReferenceDir: filepath.Join(root, "defs"),
		Directive:    "packet:message",
		TagKey:       "packet",
	}).Load(context.Background())
}

func mustLoadSchema(t *testing.T, schema string) *Program {
	t.Helper()

	prog, err := loadSchema(t, schema)
	require.NoError(t, err)
	require.Len(t, prog.Forest.Files, 1)

	return prog
}

func declByName(t *testing.T, prog *Program, name string) *syntax.Decl {
	t.Helper()

	for _, f := range prog.Forest.Files {
		for _, d := range f.Decls {
			if d.Name == name {
				return d
			}
		}
	}

	require.Failf(t, "declaration not found", "%s in %s", name, spew.Sdump(prog.Forest))

	return nil
}

func fieldNames(d *syntax.Decl) []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}

	return names
}

func TestLoader_RoomSchema(t *testing.T) {
	prog, err := NewLoader(Options{
		SchemaDir:    filepath.Join("..", "..", "testdata", "room", "packets"),
		ReferenceDir: filepath.Join("..", "..", "testdata", "room", "definitions"),
		Directive:    "packet:message",
		TagKey:       "packet",
	}).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"packetdef", "packets"}, prog.Packages)
	assert.True(t, prog.Symbols.LookupInterface("packetdef.Collection"))
	assert.True(t, prog.Symbols.LookupInterface("packetdef.Map"))

	require.Len(t, prog.Forest.Files, 1)
	marked := prog.Forest.Files[0].MarkedDecls()
	require.Len(t, marked, 13)

	room := declByName(t, prog, "Room")
	assert.False(t, room.Marker.HasArg())
	assert.Equal(t, "packets", room.Namespace)
	assert.Equal(t, []string{"Id", "Name", "Users"}, fieldNames(room))

	users := room.Fields[2]
	require.NotNil(t, users.Size)
	assert.Equal(t, "1", users.Size.Value)

	g, ok := users.Type.(*syntax.Generic)
	require.True(t, ok, spew.Sdump(users.Type))
	assert.Equal(t, "packetdef.List[packetdef.FixedSizeString]", g.Source)
	assert.Equal(t, syntax.Ident{Name: "List", Namespace: "packetdef"}, g.Head)
	assert.Equal(t, []string{"packetdef.Collection"}, g.Interfaces)

	create := declByName(t, prog, "ScRoomCreate")
	require.True(t, create.Marker.HasArg())
	assert.Equal(t, "6", *create.Marker.Arg)
	assert.Equal(t, &syntax.Ident{Name: "byte"}, create.Fields[0].Type)
	assert.Equal(t, &syntax.Ident{Name: "int"}, create.Fields[1].Type)
}

func TestLoader_NullableAndNestedGenerics(t *testing.T) {
	prog := mustLoadSchema(t, `package schema

import "packetdef"

//packet:message 8
type ScRoomEnterRes struct {
	Id    *int
	Users *packetdef.List[packetdef.Tuple[packetdef.FixedSizeString, int]] `+"`packet:\"size=1\"`"+`
	Grid  packetdef.List[packetdef.List[int32]]
	Index packetdef.Dictionary[string, packetdef.List[int64]]
}
`)

	d := declByName(t, prog, "ScRoomEnterRes")
	require.Len(t, d.Fields, 4)

	id, ok := d.Fields[0].Type.(*syntax.Nullable)
	require.True(t, ok)
	assert.Equal(t, &syntax.Ident{Name: "int"}, id.Elem)

	users, ok := d.Fields[1].Type.(*syntax.Nullable)
	require.True(t, ok)
	list := users.Elem.(*syntax.Generic)
	assert.Equal(t, "packetdef.List[packetdef.Tuple[packetdef.FixedSizeString, int]]", list.Source)

	tuple := list.Args[0].(*syntax.Generic)
	assert.Equal(t, "Tuple", tuple.Head.Name)
	assert.Empty(t, tuple.Interfaces)
	assert.Equal(t, &syntax.Ident{Name: "FixedSizeString", Namespace: "packetdef"}, tuple.Args[0])

	grid := d.Fields[2].Type.(*syntax.Generic)
	assert.Equal(t, "packetdef.List[packetdef.List[int32]]", grid.Source)
	assert.Equal(t, "packetdef.List[int32]", grid.Args[0].Text())

	index := d.Fields[3].Type.(*syntax.Generic)
	assert.Equal(t, []string{"packetdef.Collection", "packetdef.Map"}, index.Interfaces)
	require.Len(t, index.Args, 2)
}

func TestLoader_Inheritance(t *testing.T) {
	prog := mustLoadSchema(t, `package schema

//packet:message
type Base struct {
	C int32
	D int32
}

type Plain struct {
	P int32
}

//packet:message 1
type CsDerived struct {
	Base
	*Plain
	A int32
	B int32
}
`)

	derived := declByName(t, prog, "CsDerived")
	assert.Equal(t, []string{"A", "B"}, fieldNames(derived))
	require.Len(t, derived.Bases, 2)

	assert.Same(t, declByName(t, prog, "Base"), derived.Bases[0])
	assert.Same(t, declByName(t, prog, "Plain"), derived.Bases[1])
	assert.Nil(t, derived.Bases[1].Marker)
}

func TestLoader_FieldSelection(t *testing.T) {
	prog := mustLoadSchema(t, `package schema

//packet:message
type Room struct {
	Id       int32
	secret   int32
	Cache    int32 `+"`packet:\"-\"`"+`
	Tagged   int32 `+"`json:\"tagged\"`"+`
	X, y, Z  int32
}
`)

	room := declByName(t, prog, "Room")
	assert.Equal(t, []string{"Id", "Tagged", "X", "Z"}, fieldNames(room))
	assert.Nil(t, room.Fields[1].Size)
	assert.Contains(t, room.Fields[0].Pos, "schema.go:")
}

func TestLoader_Markers(t *testing.T) {
	prog := mustLoadSchema(t, `package schema

//packet:messages
type Other struct{}

// Documented carries a regular comment before the directive.
//
//packet:message 0x10
type Documented struct{}

type (
	//packet:message
	Grouped struct{}

	Unmarked struct{}
)

type unexported struct{}

func helper() {
	//packet:message
	type Local struct{}

	_ = Local{}
}
`)

	decls := prog.Forest.Files[0].Decls
	names := make([]string, len(decls))
	for i, d := range decls {
		names[i] = d.Name
	}

	assert.Equal(t, []string{"Other", "Documented", "Grouped", "Unmarked", "unexported"}, names)

	assert.Nil(t, declByName(t, prog, "Other").Marker)
	assert.Equal(t, "0x10", *declByName(t, prog, "Documented").Marker.Arg)
	assert.NotNil(t, declByName(t, prog, "Grouped").Marker)
	assert.Nil(t, declByName(t, prog, "Unmarked").Marker)
	assert.False(t, declByName(t, prog, "unexported").Exported)
	assert.Equal(t, "internal", declByName(t, prog, "unexported").Modifier())
}

func TestLoader_UnsupportedTypes(t *testing.T) {
	prog := mustLoadSchema(t, `package schema

//packet:message
type Room struct {
	Slice []int32
	Array [4]int32
	Table map[string]int32
	Twice **int32
	Any   any
}
`)

	room := declByName(t, prog, "Room")
	require.Len(t, room.Fields, 5)

	for _, f := range room.Fields {
		_, ok := f.Type.(*syntax.Unsupported)
		assert.True(t, ok, "%s: %s", f.Name, spew.Sdump(f.Type))
	}

	assert.Equal(t, "[]int32", room.Fields[0].Type.Text())
}

func TestLoader_Aliases(t *testing.T) {
	prog := mustLoadSchema(t, `package schema

import "packetdef"

type (
	Ids    = packetdef.List[int]
	Text   = string
	Pairs  = packetdef.Dictionary[Text, Ids]
	Raw    = []int32
	Lobby  = Room
	MaybeN = *int32
)

//packet:message
type Room struct {
	Id int32
}

//packet:message 1
type CsAliases struct {
	Items Ids `+"`packet:\"size=1\"`"+`
	Name  Text
	Index Pairs
	Bytes Raw
	Room  Lobby
	Count MaybeN
	Names packetdef.List[Text]
}
`)

	d := declByName(t, prog, "CsAliases")
	require.Len(t, d.Fields, 7)

	items, ok := d.Fields[0].Type.(*syntax.Generic)
	require.True(t, ok, spew.Sdump(d.Fields[0].Type))
	assert.Equal(t, syntax.Ident{Name: "List", Namespace: "packetdef"}, items.Head)
	assert.Equal(t, "packetdef.List[int]", items.Source)
	assert.Equal(t, []string{"packetdef.Collection"}, items.Interfaces)
	assert.Equal(t, []syntax.Node{&syntax.Ident{Name: "int"}}, items.Args)
	require.NotNil(t, d.Fields[0].Size)
	assert.Equal(t, "1", d.Fields[0].Size.Value)

	assert.Equal(t, &syntax.Ident{Name: "string"}, d.Fields[1].Type)

	index, ok := d.Fields[2].Type.(*syntax.Generic)
	require.True(t, ok, spew.Sdump(d.Fields[2].Type))
	assert.Equal(t, "packetdef.Dictionary[string, packetdef.List[int]]", index.Source)
	assert.Equal(t, []string{"packetdef.Collection", "packetdef.Map"}, index.Interfaces)
	assert.Equal(t, []string{"packetdef.Collection"}, index.Args[1].(*syntax.Generic).Interfaces)

	_, ok = d.Fields[3].Type.(*syntax.Unsupported)
	assert.True(t, ok, spew.Sdump(d.Fields[3].Type))

	assert.Equal(t, &syntax.Ident{Name: "Room", Namespace: "schema"}, d.Fields[4].Type)
	assert.Equal(t, &syntax.Nullable{Elem: &syntax.Ident{Name: "int32"}}, d.Fields[5].Type)

	names, ok := d.Fields[6].Type.(*syntax.Generic)
	require.True(t, ok, spew.Sdump(d.Fields[6].Type))
	assert.Equal(t, "packetdef.List[Text]", names.Source)
	assert.Equal(t, []syntax.Node{&syntax.Ident{Name: "string"}}, names.Args)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		code   diagnostic.Code
	}{
		{
			name:   "syntax error",
			schema: "package schema\n\ntype Room struct {",
			code:   diagnostic.CodeLoadFailure,
		},
		{
			name:   "type error",
			schema: "package schema\n\n//packet:message\ntype Room struct {\n\tId Missing\n}\n",
			code:   diagnostic.CodeLoadFailure,
		},
		{
			name:   "unknown import",
			schema: "package schema\n\nimport \"nowhere/defs\"\n\ntype Room struct {\n\tId defs.Id\n}\n",
			code:   diagnostic.CodeLoadFailure,
		},
		{
			name:   "marked non-struct",
			schema: "package schema\n\n//packet:message\ntype Id int32\n",
			code:   diagnostic.CodeInvalidMarker,
		},
		{
			name:   "marked generic",
			schema: "package schema\n\n//packet:message\ntype Box[T any] struct {\n\tV T\n}\n",
			code:   diagnostic.CodeInvalidMarker,
		},
		{
			name:   "unknown field option",
			schema: "package schema\n\n//packet:message\ntype Room struct {\n\tId int32 `packet:\"width=2\"`\n}\n",
			code:   diagnostic.CodeInvalidMarker,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadSchema(t, tt.schema)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.code)
		})
	}
}

func TestLoader_MissingDirectory(t *testing.T) {
	root := writeTree(t, map[string]string{"defs/packetdef/packetdef.go": packetdefSource})

	tests := []struct {
		name   string
		schema string
		ref    string
	}{
		{"schema", filepath.Join(root, "missing"), filepath.Join(root, "defs")},
		{"reference", filepath.Join(root, "defs"), filepath.Join(root, "missing")},
		{"file", filepath.Join(root, "defs", "packetdef", "packetdef.go"), filepath.Join(root, "defs")},
		{"empty", "", filepath.Join(root, "defs")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(Options{SchemaDir: tt.schema, ReferenceDir: tt.ref}).Load(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, diagnostic.CodeMissingInputDirectory)
		})
	}
}

func TestLoader_Discovery(t *testing.T) {
	root := writeTree(t, map[string]string{
		"defs/packetdef/packetdef.go":  packetdefSource,
		"schema/game/chat.go":          "package game\n\n//packet:message 9\ntype CsChatReq struct {\n\tMessage string\n}\n",
		"schema/game/chat_test.go":     "package game\n\nthis is not go\n",
		"schema/testdata/broken.go":    "not go either",
		"schema/_scratch/broken.go":    "not go either",
		"schema/game/lobby/lobby.go":   "package lobby\n\n//packet:message 10\ntype ScLobby struct{}\n",
		"schema/README.md":             "# schema",
		"defs/packetdef/packetdef.txt": "ignored",
	})

	prog, err := NewLoader(Options{
		SchemaDir:    filepath.Join(root, "schema"),
		ReferenceDir: filepath.Join(root, "defs"),
		Directive:    "packet:message",
		TagKey:       "packet",
		Jobs:         2,
	}).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"game", "game/lobby", "packetdef"}, prog.Packages)
	require.Len(t, prog.Forest.Files, 2)
	assert.Equal(t, "game.lobby", declByName(t, prog, "ScLobby").Namespace)
	assert.Equal(t, "game", declByName(t, prog, "CsChatReq").Namespace)
}

func TestLoader_CustomDirective(t *testing.T) {
	root := writeTree(t, map[string]string{
		"defs/packetdef/packetdef.go": packetdefSource,
		"schema/schema.go":            "package schema\n\n//wire:msg 3\ntype CsPing struct {\n\tSeq uint32 `wire:\"-\"`\n\tAt  uint32\n}\n",
	})

	prog, err := NewLoader(Options{
		SchemaDir:    filepath.Join(root, "schema"),
		ReferenceDir: filepath.Join(root, "defs"),
		Directive:    "wire:msg",
		TagKey:       "wire",
	}).Load(context.Background())
	require.NoError(t, err)

	ping := declByName(t, prog, "CsPing")
	require.True(t, ping.Marker.HasArg())
	assert.Equal(t, "3", *ping.Marker.Arg)
	assert.Equal(t, []string{"At"}, fieldNames(ping))
}

func TestLoader_Cancelled(t *testing.T) {
	root := writeTree(t, map[string]string{
		"defs/packetdef/packetdef.go": packetdefSource,
		"schema/schema.go":            "package schema\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(Options{
		SchemaDir:    filepath.Join(root, "schema"),
		ReferenceDir: filepath.Join(root, "defs"),
	}).Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestImportPath(t *testing.T) {
	root := filepath.Join("tmp", "schema")

	assert.Equal(t, "schema", importPath(root, root))
	assert.Equal(t, "game", importPath(root, filepath.Join(root, "game")))
	assert.Equal(t, "game/lobby", importPath(root, filepath.Join(root, "game", "lobby")))
}
