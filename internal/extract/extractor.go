package extract

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"packet-generator/internal/config"
	"packet-generator/internal/diagnostic"
	"packet-generator/internal/include"
	"packet-generator/internal/model"
	"packet-generator/internal/resolve"
	"packet-generator/internal/syntax"
)

// Extractor turns a syntax forest into a model.SchemaGraph.
type Extractor struct {
	cfg  config.Config
	jobs int
}

// New creates an Extractor using up to GOMAXPROCS workers.
func New(cfg config.Config) *Extractor {
	return &Extractor{cfg: cfg, jobs: runtime.GOMAXPROCS(0)}
}

// WithJobs limits the number of files extracted concurrently.
func (e *Extractor) WithJobs(jobs int) *Extractor {
	if jobs > 0 {
		e.jobs = jobs
	}

	return e
}

// Result is the outcome of a successful extraction.
type Result struct {
	Graph    *model.SchemaGraph
	Warnings diagnostic.Diagnostics
}

type fileResult struct {
	packets  []*model.PacketDescriptor
	messages []*model.MessageDescriptor
	warnings diagnostic.Diagnostics
}

// Extract resolves every marked declaration of forest.
func (e *Extractor) Extract(ctx context.Context, forest *syntax.Forest, symbols syntax.Symbols) (*Result, error) {
	if err := e.checkCapabilities(symbols); err != nil {
		return nil, err
	}

	resolver := resolve.New(symbols, resolve.Options{
		TypeNames:   e.cfg.TypeNames(),
		FixedString: e.cfg.FixedString,
		Collection:  e.cfg.Capabilities.Collection,
		Map:         e.cfg.Capabilities.Map,
	})

	results := make([]fileResult, len(forest.Files))

	if len(forest.Files) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(min(e.jobs, len(forest.Files)))

		for i, file := range forest.Files {
			g.Go(func() error {
				res, err := e.extractFile(gctx, file, resolver)
				if err != nil {
					return err
				}

				// Indices are unique per goroutine, no locking needed.
				results[i] = res

				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	res := &Result{Graph: &model.SchemaGraph{}}
	for _, r := range results {
		res.Graph.Packets = append(res.Graph.Packets, r.packets...)
		res.Graph.Messages = append(res.Graph.Messages, r.messages...)
		res.Warnings.Merge(r.warnings)
	}

	if err := validate(res.Graph); err != nil {
		return nil, err
	}

	res.Graph.Includes = include.New(e.cfg.Includes, e.cfg.OptionalInclude).Includes(res.Graph)

	return res, nil
}

func (e *Extractor) checkCapabilities(symbols syntax.Symbols) error {
	var ds diagnostic.Diagnostics

	for _, iface := range []string{e.cfg.Capabilities.Collection, e.cfg.Capabilities.Map} {
		if !symbols.LookupInterface(iface) {
			ds.AddError(diagnostic.Errorf(diagnostic.CodeMissingCapabilitySymbol,
				"capability interface %s cannot be resolved from the reference packages", iface))
		}
	}

	return ds.Err()
}

func (e *Extractor) extractFile(ctx context.Context, file *syntax.File, resolver *resolve.Resolver) (fileResult, error) {
	var res fileResult

	for _, d := range file.MarkedDecls() {
		if err := ctx.Err(); err != nil {
			return fileResult{}, err
		}

		// The fixed-length string type may be declared with the schema; it is
		// provided by the runtime library and never emitted.
		if !d.Marker.HasArg() && d.Name == e.cfg.FixedString {
			continue
		}

		msg, err := e.message(d, resolver, &res.warnings)
		if err != nil {
			return fileResult{}, annotate(err, d)
		}

		if !d.Marker.HasArg() {
			res.messages = append(res.messages, msg)
			continue
		}

		packet, err := e.packet(d, msg)
		if err != nil {
			return fileResult{}, annotate(err, d)
		}

		res.packets = append(res.packets, packet)
	}

	return res, nil
}

func (e *Extractor) message(d *syntax.Decl, resolver *resolve.Resolver, warnings *diagnostic.Diagnostics) (*model.MessageDescriptor, error) {
	fields := flatten(d, warnings)

	msg := &model.MessageDescriptor{
		Name:      d.Name,
		Namespace: d.Namespace,
		Modifier:  d.Modifier(),
		Fields:    make([]model.FieldDescriptor, 0, len(fields)),
		Position:  d.Pos,
	}

	for _, f := range fields {
		fd, err := resolver.ResolveField(f)
		if err != nil {
			return nil, err
		}

		msg.Fields = append(msg.Fields, fd)
	}

	return msg, nil
}

func (e *Extractor) packet(d *syntax.Decl, msg *model.MessageDescriptor) (*model.PacketDescriptor, error) {
	raw := strings.TrimSpace(*d.Marker.Arg)

	// Decimal unless spelled 0x; a leading zero is not octal.
	base, digits := 10, raw
	if rest, ok := strings.CutPrefix(strings.ToLower(raw), "0x"); ok {
		base, digits = 16, rest
	}

	v, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		return nil, diagnostic.Errorf(diagnostic.CodeInvalidMarker, "protocol id %q is not an integer", raw)
	}

	id, err := safecast.Conv[uint32](v)
	if err != nil {
		return nil, diagnostic.Wrap(diagnostic.CodeInvalidMarker, err, "protocol id %d is out of range", v)
	}

	prefix, direction, err := e.direction(d.Name)
	if err != nil {
		return nil, err
	}

	public := *msg
	public.Name = strings.TrimPrefix(d.Name, prefix)

	return &model.PacketDescriptor{
		MessageDescriptor: public,
		SourceName:        d.Name,
		Prefix:            prefix,
		ProtocolID:        id,
		Direction:         direction,
	}, nil
}

func (e *Extractor) direction(name string) (string, model.Direction, error) {
	if len(name) > 2 {
		switch prefix := name[:2]; prefix {
		case e.cfg.Prefixes.Client:
			return prefix, model.ClientToServer, nil
		case e.cfg.Prefixes.Server:
			return prefix, model.ServerToClient, nil
		}
	}

	return "", 0, diagnostic.Errorf(diagnostic.CodeInvalidPacketName,
		"packet name %s must start with %q (client to server) or %q (server to client) followed by a name",
		name, e.cfg.Prefixes.Client, e.cfg.Prefixes.Server)
}

// flatten returns the declaration's own fields followed by the fields of its
// marked bases, depth first in embedding order. A field reached twice through
// different bases is kept once; fields are never merged by name.
func flatten(d *syntax.Decl, warnings *diagnostic.Diagnostics) []*syntax.Field {
	var out []*syntax.Field

	seenFields := make(map[*syntax.Field]bool)
	seenDecls := make(map[*syntax.Decl]bool)

	var visit func(cur *syntax.Decl)
	visit = func(cur *syntax.Decl) {
		if seenDecls[cur] {
			return
		}

		seenDecls[cur] = true

		for _, f := range cur.Fields {
			if !seenFields[f] {
				seenFields[f] = true
				out = append(out, f)
			}
		}

		for _, base := range cur.Bases {
			if base.Marker == nil {
				warnings.AddWarning(diagnostic.CodeIgnoredEmbedding,
					fmt.Sprintf("embedded type %s has no marker, its fields are not inherited", base.Name),
					d.Name, "")

				continue
			}

			visit(base)
		}
	}

	visit(d)

	return out
}

func annotate(err error, d *syntax.Decl) error {
	var diag *diagnostic.Diagnostic
	if errors.As(err, &diag) {
		if diag.Decl == "" {
			diag.Decl = d.Name
		}

		if diag.Position == "" {
			diag.Position = d.Pos
		}
	}

	return err
}
