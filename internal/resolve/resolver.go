package resolve

import (
	"errors"
	"strings"

	"packet-generator/internal/common"
	"packet-generator/internal/diagnostic"
	"packet-generator/internal/model"
	"packet-generator/internal/syntax"
)

// Options configures a Resolver.
type Options struct {
	// TypeNames maps simple source names and generic heads to target names.
	// Names missing from the table pass through unchanged.
	TypeNames map[string]string
	// FixedString is the reserved fixed-length string type name.
	FixedString string
	// Collection and Map are the qualified capability interface names.
	Collection string
	Map        string
}

// Resolver resolves type expressions against static tables and a Symbols service.
type Resolver struct {
	symbols syntax.Symbols
	opts    Options
}

// New creates a Resolver.
func New(symbols syntax.Symbols, opts Options) *Resolver {
	return &Resolver{symbols: symbols, opts: opts}
}

// Resolution is a resolved field type. Optional is reported by a nullable
// wrapper and is not part of the TypeReference itself.
type Resolution struct {
	Type     *model.TypeReference
	Optional bool
}

// ResolveField resolves a declared field into a FieldDescriptor.
func (r *Resolver) ResolveField(f *syntax.Field) (model.FieldDescriptor, error) {
	res, err := r.Resolve(f.Type, f.Size)
	if err != nil {
		var d *diagnostic.Diagnostic
		if errors.As(err, &d) {
			if d.Field == "" {
				d.Field = f.Name
			}

			if d.Position == "" {
				d.Position = f.Pos
			}
		}

		return model.FieldDescriptor{}, err
	}

	return model.FieldDescriptor{
		Name:       f.Name,
		TargetName: common.Snake(f.Name),
		Type:       res.Type,
		Optional:   res.Optional,
	}, nil
}

// Resolve resolves a field-level type expression. size is the field's
// length-prefix marker and only applies to the outermost collection.
func (r *Resolver) Resolve(n syntax.Node, size *syntax.SizeMarker) (Resolution, error) {
	var res Resolution

	if nullable, ok := n.(*syntax.Nullable); ok {
		res.Optional = true
		n = nullable.Elem
	}

	t, err := r.resolveType(n, size)
	if err != nil {
		return Resolution{}, err
	}

	if size != nil && !t.IsCollection() {
		return Resolution{}, diagnostic.Errorf(diagnostic.CodeInvalidMarker,
			"length-prefix width given for non-collection type %s", n.Text())
	}

	res.Type = t

	return res, nil
}

func (r *Resolver) resolveType(n syntax.Node, size *syntax.SizeMarker) (*model.TypeReference, error) {
	switch n := n.(type) {
	case *syntax.Ident:
		return r.resolveIdent(n), nil
	case *syntax.Generic:
		return r.resolveGeneric(n, size)
	case *syntax.Nullable:
		return nil, diagnostic.Errorf(diagnostic.CodeUnsupportedType,
			"nullable type %s is only allowed as a field type", n.Text())
	case *syntax.Unsupported:
		return nil, diagnostic.Errorf(diagnostic.CodeUnsupportedType,
			"unsupported type %s: %s", n.Source, n.Reason)
	default:
		return nil, diagnostic.Errorf(diagnostic.CodeUnsupportedType, "unsupported type node %T", n)
	}
}

func (r *Resolver) resolveIdent(n *syntax.Ident) *model.TypeReference {
	kind := model.KindNamed
	if n.Namespace == "" {
		kind = model.KindPrimitive
	}

	source := n.Text()
	target := r.targetName(n.Name)

	return &model.TypeReference{
		Kind:        kind,
		Source:      source,
		Target:      target,
		Head:        target,
		ID:          TypeID(source),
		FixedString: n.Name == r.opts.FixedString,
	}
}

func (r *Resolver) resolveGeneric(n *syntax.Generic, size *syntax.SizeMarker) (*model.TypeReference, error) {
	args := make([]*model.TypeReference, len(n.Args))
	argNames := make([]string, len(n.Args))

	for i, arg := range n.Args {
		// Nested collections carry no marker of their own and get the default width.
		t, err := r.resolveType(arg, nil)
		if err != nil {
			return nil, err
		}

		args[i] = t
		argNames[i] = t.Target
	}

	head := r.targetName(n.Head.Name)
	t := &model.TypeReference{
		Kind:   r.classify(n, len(args)),
		Source: n.Source,
		Target: head + "<" + strings.Join(argNames, ", ") + ">",
		Head:   head,
		Args:   args,
		// Keyed by the source spelling so distinct instantiations never share an id.
		ID: TypeID(n.Source),
	}

	if t.Kind == model.KindMap && len(args) != 2 {
		return nil, diagnostic.Errorf(diagnostic.CodeUnsupportedType,
			"map type %s must have exactly two type arguments", n.Source)
	}

	if t.Kind.IsSized() {
		width, sizeType, err := sizeWidth(size)
		if err != nil {
			return nil, err
		}

		t.SizeWidth = width
		t.SizeType = sizeType
	}

	return t, nil
}

// classify inspects the capabilities of the instantiated type. Maps are
// checked first: a map is also a collection.
func (r *Resolver) classify(n *syntax.Generic, arity int) model.Kind {
	switch {
	case r.symbols.Implements(n, r.opts.Map):
		return model.KindMap
	case r.symbols.Implements(n, r.opts.Collection):
		return model.KindCollection
	case arity == 2:
		return model.KindPair
	default:
		return model.KindNamed
	}
}

func (r *Resolver) targetName(name string) string {
	if target, ok := r.opts.TypeNames[name]; ok {
		return target
	}

	return name
}
