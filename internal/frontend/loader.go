package frontend

import (
	"context"
	"errors"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"packet-generator/internal/diagnostic"
	"packet-generator/internal/syntax"
)

// maxReportedErrors caps the type errors reported per package.
const maxReportedErrors = 10

// Options configures a Loader.
type Options struct {
	// SchemaDir holds the marked declarations.
	SchemaDir string
	// ReferenceDir holds the definitions library imported by the schema.
	ReferenceDir string
	// Directive is the comment directive marking a declaration, without "//".
	Directive string
	// TagKey is the struct tag key carrying field options.
	TagKey string
	// Jobs limits concurrent parsing. Zero means GOMAXPROCS.
	Jobs int
}

// Program is a loaded and type-checked schema.
type Program struct {
	Forest  *syntax.Forest
	Symbols *syntax.StaticSymbols
	// Packages lists the import paths of every local package, sorted.
	Packages []string
}

// Loader loads schema and reference packages.
type Loader struct {
	opts     Options
	fset     *token.FileSet
	pkgs     map[string]*pkgSource
	info     *types.Info
	fallback types.Importer
}

type pkgSource struct {
	path      string
	dir       string
	schema    bool
	filenames []string
	files     []*ast.File
	types     *types.Package
	checking  bool
}

// NewLoader creates a Loader.
func NewLoader(opts Options) *Loader {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}

	return &Loader{
		opts: opts,
		fset: token.NewFileSet(),
		pkgs: make(map[string]*pkgSource),
		info: &types.Info{
			Types: make(map[ast.Expr]types.TypeAndValue),
			Defs:  make(map[*ast.Ident]types.Object),
			Uses:  make(map[*ast.Ident]types.Object),
		},
	}
}

// Load discovers, parses and type-checks both directory trees and builds the
// syntax forest of the schema packages.
func (l *Loader) Load(ctx context.Context) (*Program, error) {
	for _, dir := range []string{l.opts.SchemaDir, l.opts.ReferenceDir} {
		if err := requireDir(dir); err != nil {
			return nil, err
		}
	}

	if err := l.discover(l.opts.ReferenceDir, false); err != nil {
		return nil, err
	}

	if err := l.discover(l.opts.SchemaDir, true); err != nil {
		return nil, err
	}

	if err := l.parse(ctx); err != nil {
		return nil, err
	}

	paths := l.paths()
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if _, err := l.check(l.pkgs[path]); err != nil {
			return nil, err
		}
	}

	return l.build(paths)
}

func requireDir(dir string) error {
	if dir == "" {
		return diagnostic.Errorf(diagnostic.CodeMissingInputDirectory, "directory path is empty")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return diagnostic.Wrap(diagnostic.CodeMissingInputDirectory, err, "directory %s does not exist", dir)
	}

	if !info.IsDir() {
		return diagnostic.Errorf(diagnostic.CodeMissingInputDirectory, "%s is not a directory", dir)
	}

	return nil
}

// discover registers every package below root.
func (l *Loader) discover(root string, schema bool) error {
	root = filepath.Clean(root)

	byDir := make(map[string][]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		name := d.Name()
		if strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") {
			dir := filepath.Dir(path)
			byDir[dir] = append(byDir[dir], path)
		}

		return nil
	})
	if err != nil {
		return diagnostic.Wrap(diagnostic.CodeLoadFailure, err, "scanning %s", root)
	}

	for dir, files := range byDir {
		path := importPath(root, dir)

		if prev, ok := l.pkgs[path]; ok {
			if prev.dir != dir {
				return diagnostic.Errorf(diagnostic.CodeLoadFailure,
					"package %s is defined in both %s and %s", path, prev.dir, dir)
			}

			prev.schema = prev.schema || schema

			continue
		}

		slices.Sort(files)
		l.pkgs[path] = &pkgSource{path: path, dir: dir, schema: schema, filenames: files}
	}

	return nil
}

func skipDir(name string) bool {
	return name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// importPath is dir relative to root. Files directly in root form a package
// named after root itself.
func importPath(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return filepath.Base(root)
	}

	return filepath.ToSlash(rel)
}

func (l *Loader) paths() []string {
	paths := make([]string, 0, len(l.pkgs))
	for path := range l.pkgs {
		paths = append(paths, path)
	}

	slices.Sort(paths)

	return paths
}

// parse parses every discovered file concurrently.
func (l *Loader) parse(ctx context.Context) error {
	type job struct {
		pkg   *pkgSource
		index int
	}

	var jobs []job

	for _, path := range l.paths() {
		pkg := l.pkgs[path]
		pkg.files = make([]*ast.File, len(pkg.filenames))

		for i := range pkg.filenames {
			jobs = append(jobs, job{pkg: pkg, index: i})
		}
	}

	if len(jobs) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(l.opts.Jobs, len(jobs)))

	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			filename := j.pkg.filenames[j.index]

			f, err := parser.ParseFile(l.fset, filename, nil, parser.ParseComments|parser.SkipObjectResolution)
			if err != nil {
				return diagnostic.Wrap(diagnostic.CodeLoadFailure, err, "parsing %s", filename)
			}

			// Each job owns its slot.
			j.pkg.files[j.index] = f

			return nil
		})
	}

	return g.Wait()
}

// Import implements types.Importer. Local packages are type-checked on
// demand; anything else is imported from source through the standard importer.
func (l *Loader) Import(path string) (*types.Package, error) {
	if src, ok := l.pkgs[path]; ok {
		return l.check(src)
	}

	if l.fallback == nil {
		l.fallback = importer.ForCompiler(l.fset, "source", nil)
	}

	return l.fallback.Import(path)
}

func (l *Loader) check(src *pkgSource) (*types.Package, error) {
	if src.types != nil {
		return src.types, nil
	}

	if src.checking {
		return nil, diagnostic.Errorf(diagnostic.CodeLoadFailure, "import cycle through package %s", src.path)
	}

	src.checking = true
	defer func() { src.checking = false }()

	var errs []error

	conf := types.Config{
		Importer: l,
		Error: func(err error) {
			if len(errs) < maxReportedErrors {
				errs = append(errs, err)
			}
		},
	}

	pkg, _ := conf.Check(src.path, l.fset, src.files, l.info)
	if len(errs) > 0 {
		return nil, diagnostic.Wrap(diagnostic.CodeLoadFailure, errors.Join(errs...),
			"type-checking package %s", src.path)
	}

	src.types = pkg

	return pkg, nil
}

func (l *Loader) position(pos token.Pos) string {
	if !pos.IsValid() {
		return ""
	}

	return l.fset.Position(pos).String()
}
