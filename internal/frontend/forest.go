package frontend

import (
	"go/ast"
	"go/types"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/inspector"

	"packet-generator/internal/common"
	"packet-generator/internal/diagnostic"
	"packet-generator/internal/syntax"
)

// builder converts type-checked packages into the syntax contract.
type builder struct {
	l          *Loader
	decls      map[*types.TypeName]*syntax.Decl
	pending    []pendingDecl
	ifaces     map[string]*types.Interface
	ifaceNames []string
}

type pendingDecl struct {
	decl *syntax.Decl
	st   *ast.StructType
}

func (l *Loader) build(paths []string) (*Program, error) {
	b := &builder{
		l:      l,
		decls:  make(map[*types.TypeName]*syntax.Decl),
		ifaces: make(map[string]*types.Interface),
	}

	for _, path := range paths {
		b.collectInterfaces(l.pkgs[path].types)
	}

	slices.Sort(b.ifaceNames)

	forest := &syntax.Forest{}

	// Declarations of every package are registered first so that bases
	// declared in another file or package resolve to the same Decl.
	for _, path := range paths {
		pkg := l.pkgs[path]

		for i, f := range pkg.files {
			decls, err := b.declare(pkg, f)
			if err != nil {
				return nil, err
			}

			if pkg.schema {
				forest.Files = append(forest.Files, &syntax.File{Path: pkg.filenames[i], Decls: decls})
			}
		}
	}

	for _, p := range b.pending {
		if err := b.fill(p.decl, p.st); err != nil {
			return nil, err
		}
	}

	return &Program{
		Forest:   forest,
		Symbols:  syntax.NewStaticSymbols(b.ifaceNames...),
		Packages: paths,
	}, nil
}

// collectInterfaces records every named non-generic interface of pkg.
func (b *builder) collectInterfaces(pkg *types.Package) {
	scope := pkg.Scope()

	for _, name := range scope.Names() {
		obj, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || obj.IsAlias() {
			continue
		}

		named, ok := obj.Type().(*types.Named)
		if !ok || named.TypeParams().Len() > 0 {
			continue
		}

		iface, ok := named.Underlying().(*types.Interface)
		if !ok {
			continue
		}

		qualified := common.Qualify(common.Namespace(pkg.Path()), name)
		b.ifaces[qualified] = iface
		b.ifaceNames = append(b.ifaceNames, qualified)
	}
}

// declare registers the top-level struct declarations of f in source order.
func (b *builder) declare(pkg *pkgSource, f *ast.File) ([]*syntax.Decl, error) {
	var (
		decls []*syntax.Decl
		err   error
	)

	in := inspector.New([]*ast.File{f})

	in.WithStack([]ast.Node{(*ast.TypeSpec)(nil)}, func(n ast.Node, push bool, stack []ast.Node) bool {
		// Only top-level specs: File, GenDecl, TypeSpec.
		if !push || err != nil || len(stack) != 3 {
			return false
		}

		ts := n.(*ast.TypeSpec)
		gd := stack[1].(*ast.GenDecl)

		doc := ts.Doc
		if doc == nil && !gd.Lparen.IsValid() {
			doc = gd.Doc
		}

		marker, ok := b.marker(doc)

		st, isStruct := ts.Type.(*ast.StructType)

		switch {
		case ok && !isStruct:
			err = diagnostic.Errorf(diagnostic.CodeInvalidMarker, "only struct declarations can be marked").
				In(ts.Name.Name, "").
				At(b.l.position(ts.Pos()))
			return false
		case ok && ts.TypeParams != nil:
			err = diagnostic.Errorf(diagnostic.CodeInvalidMarker, "generic declarations cannot be marked").
				In(ts.Name.Name, "").
				At(b.l.position(ts.Pos()))
			return false
		case !isStruct || ts.TypeParams != nil:
			return false
		}

		obj, _ := b.l.info.Defs[ts.Name].(*types.TypeName)
		if obj == nil {
			return false
		}

		d := &syntax.Decl{
			Name:      ts.Name.Name,
			Namespace: common.Namespace(pkg.path),
			Exported:  ts.Name.IsExported(),
			Marker:    marker,
			Pos:       b.l.position(ts.Pos()),
		}

		b.decls[obj] = d
		b.pending = append(b.pending, pendingDecl{decl: d, st: st})
		decls = append(decls, d)

		return false
	})

	return decls, err
}

// marker decodes the declaration directive from a doc comment.
func (b *builder) marker(doc *ast.CommentGroup) (*syntax.Marker, bool) {
	if doc == nil {
		return nil, false
	}

	prefix := "//" + b.l.opts.Directive

	for _, c := range doc.List {
		rest, ok := strings.CutPrefix(c.Text, prefix)
		if !ok {
			continue
		}

		if rest == "" {
			return &syntax.Marker{}, true
		}

		// "//packet:messages" is a different directive.
		if rest[0] != ' ' && rest[0] != '\t' {
			continue
		}

		arg := strings.TrimSpace(rest)
		if arg == "" {
			return &syntax.Marker{}, true
		}

		return &syntax.Marker{Arg: &arg}, true
	}

	return nil, false
}

// fill converts the struct body of d into fields and bases.
func (b *builder) fill(d *syntax.Decl, st *ast.StructType) error {
	for _, af := range st.Fields.List {
		opts, derr := b.tagOptions(af)
		if derr != nil {
			return derr.In(d.Name, fieldName(af)).At(b.l.position(af.Pos()))
		}

		if opts.skip {
			continue
		}

		if len(af.Names) == 0 {
			if base := b.base(af.Type); base != nil {
				d.Bases = append(d.Bases, base)
			}

			continue
		}

		node := b.node(af.Type)

		for _, name := range af.Names {
			if !name.IsExported() {
				continue
			}

			d.Fields = append(d.Fields, &syntax.Field{
				Name: name.Name,
				Type: node,
				Size: opts.size,
				Pos:  b.l.position(name.Pos()),
			})
		}
	}

	return nil
}

type fieldOptions struct {
	skip bool
	size *syntax.SizeMarker
}

// tagOptions parses the struct tag: `packet:"-"` or `packet:"size=1"`.
func (b *builder) tagOptions(af *ast.Field) (fieldOptions, *diagnostic.Diagnostic) {
	var opts fieldOptions

	if af.Tag == nil {
		return opts, nil
	}

	raw, err := strconv.Unquote(af.Tag.Value)
	if err != nil {
		return opts, diagnostic.Wrap(diagnostic.CodeInvalidMarker, err, "malformed struct tag %s", af.Tag.Value)
	}

	value, ok := reflect.StructTag(raw).Lookup(b.l.opts.TagKey)
	if !ok {
		return opts, nil
	}

	if value == "-" {
		opts.skip = true
		return opts, nil
	}

	for _, part := range strings.Split(value, ",") {
		key, val, _ := strings.Cut(strings.TrimSpace(part), "=")

		switch key {
		case "":
		case "size":
			opts.size = &syntax.SizeMarker{Value: val}
		default:
			return opts, diagnostic.Errorf(diagnostic.CodeInvalidMarker, "unknown field option %q", key)
		}
	}

	return opts, nil
}

func fieldName(af *ast.Field) string {
	if len(af.Names) > 0 {
		return af.Names[0].Name
	}

	return types.ExprString(af.Type)
}

// base returns the declaration of an embedded struct. Embedded types declared
// outside the loaded packages get an unmarked placeholder.
func (b *builder) base(expr ast.Expr) *syntax.Decl {
	t := b.l.info.TypeOf(expr)
	if t == nil {
		return nil
	}

	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}

	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return nil
	}

	obj := named.Origin().Obj()
	if d, ok := b.decls[obj]; ok {
		return d
	}

	var namespace string
	if obj.Pkg() != nil {
		namespace = common.Namespace(obj.Pkg().Path())
	}

	d := &syntax.Decl{Name: obj.Name(), Namespace: namespace, Exported: obj.Exported()}
	b.decls[obj] = d

	return d
}

// node converts a field type expression into a syntax node.
func (b *builder) node(expr ast.Expr) syntax.Node {
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return b.node(e.X)
	case *ast.StarExpr:
		if _, ok := ast.Unparen(e.X).(*ast.StarExpr); ok {
			return unsupported(expr, "pointer to pointer")
		}

		return &syntax.Nullable{Elem: b.node(e.X)}
	case *ast.Ident, *ast.SelectorExpr:
		if t := b.l.info.TypeOf(expr); t != nil && types.IsInterface(t) {
			return unsupported(expr, "interface types cannot be serialized")
		}

		if t, ok := b.alias(expr); ok {
			return b.aliased(t)
		}

		ident, ok := b.ident(expr)
		if !ok {
			return unsupported(expr, "not a type name")
		}

		return ident
	case *ast.IndexExpr:
		return b.generic(expr, e.X, []ast.Expr{e.Index})
	case *ast.IndexListExpr:
		return b.generic(expr, e.X, e.Indices)
	case *ast.ArrayType:
		if e.Len == nil {
			return unsupported(expr, "slices are not supported, use a collection type")
		}

		return unsupported(expr, "arrays are not supported, use a collection type")
	case *ast.MapType:
		return unsupported(expr, "maps are not supported, use a map type")
	case *ast.StructType:
		return unsupported(expr, "anonymous structs are not supported")
	default:
		return unsupported(expr, "unsupported type expression")
	}
}

func unsupported(expr ast.Expr, reason string) *syntax.Unsupported {
	return &syntax.Unsupported{Source: types.ExprString(expr), Reason: reason}
}

// ident resolves a type name to its declaring namespace. Universe types have none.
func (b *builder) ident(expr ast.Expr) (*syntax.Ident, bool) {
	var id *ast.Ident

	switch e := expr.(type) {
	case *ast.Ident:
		id = e
	case *ast.SelectorExpr:
		id = e.Sel
	default:
		return nil, false
	}

	obj, ok := b.l.info.Uses[id].(*types.TypeName)
	if !ok {
		return nil, false
	}

	out := &syntax.Ident{Name: obj.Name()}
	if obj.Pkg() != nil {
		out.Namespace = common.Namespace(obj.Pkg().Path())
	}

	return out, true
}

func (b *builder) generic(expr, head ast.Expr, args []ast.Expr) syntax.Node {
	if _, ok := b.alias(head); ok {
		if t := b.l.info.TypeOf(expr); t != nil {
			return b.aliased(t)
		}
	}

	h, ok := b.ident(head)
	if !ok {
		return unsupported(expr, "generic head is not a type name")
	}

	g := &syntax.Generic{
		Head:   *h,
		Args:   make([]syntax.Node, len(args)),
		Source: types.ExprString(expr),
	}

	for i, arg := range args {
		g.Args[i] = b.node(arg)
	}

	if t := b.l.info.TypeOf(expr); t != nil {
		g.Interfaces = b.interfaces(t)
	}

	return g
}

// interfaces lists the known interfaces t or *t implements.
func (b *builder) interfaces(t types.Type) []string {
	var out []string

	for _, name := range b.ifaceNames {
		iface := b.ifaces[name]
		if types.Implements(t, iface) || types.Implements(types.NewPointer(t), iface) {
			out = append(out, name)
		}
	}

	return out
}

// alias returns the type behind expr when expr names a declared alias.
// Universe aliases such as byte and any are left to ident.
func (b *builder) alias(expr ast.Expr) (types.Type, bool) {
	var id *ast.Ident

	switch e := ast.Unparen(expr).(type) {
	case *ast.Ident:
		id = e
	case *ast.SelectorExpr:
		id = e.Sel
	default:
		return nil, false
	}

	obj, ok := b.l.info.Uses[id].(*types.TypeName)
	if !ok || !obj.IsAlias() || obj.Pkg() == nil {
		return nil, false
	}

	return obj.Type(), true
}

// aliased converts a type reached through an alias into a syntax node, so
// the alias resolves exactly like the type it stands for.
func (b *builder) aliased(t types.Type) syntax.Node {
	switch t := types.Unalias(t).(type) {
	case *types.Basic:
		return &syntax.Ident{Name: t.Name()}
	case *types.Pointer:
		return &syntax.Nullable{Elem: b.aliased(t.Elem())}
	case *types.Named:
		if types.IsInterface(t) {
			return &syntax.Unsupported{
				Source: types.TypeString(t, qualifier),
				Reason: "interface types cannot be serialized",
			}
		}

		obj := t.Obj()

		head := syntax.Ident{Name: obj.Name()}
		if obj.Pkg() != nil {
			head.Namespace = common.Namespace(obj.Pkg().Path())
		}

		targs := t.TypeArgs()
		if targs.Len() == 0 {
			return &head
		}

		g := &syntax.Generic{
			Head:       head,
			Args:       make([]syntax.Node, targs.Len()),
			Interfaces: b.interfaces(t),
		}

		texts := make([]string, targs.Len())
		for i := range targs.Len() {
			g.Args[i] = b.aliased(targs.At(i))
			texts[i] = g.Args[i].Text()
		}

		g.Source = head.Text() + "[" + strings.Join(texts, ", ") + "]"

		return g
	default:
		return &syntax.Unsupported{
			Source: types.TypeString(t, qualifier),
			Reason: "aliased type is not supported, use a collection type",
		}
	}
}

// qualifier writes packages by their dotted namespace.
func qualifier(pkg *types.Package) string {
	return common.Namespace(pkg.Path())
}
