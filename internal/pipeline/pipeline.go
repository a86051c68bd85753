// Package pipeline wires the generator stages together: configuration,
// loading, extraction, rendering and writing.
package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"packet-generator/internal/config"
	"packet-generator/internal/diagnostic"
	"packet-generator/internal/extract"
	"packet-generator/internal/frontend"
	"packet-generator/internal/model"
	"packet-generator/internal/render"
)

// Options configures one generator run.
type Options struct {
	// SchemaDir holds the marked schema sources.
	SchemaDir string
	// ReferenceDir holds the definitions library.
	ReferenceDir string
	// OutputDir receives the generated files.
	OutputDir string
	// TemplateDir holds the definitions and dispatch templates.
	TemplateDir string
	// ConfigPath is an explicit config file. When empty, packetgen.toml in
	// SchemaDir is used if present.
	ConfigPath string
	// WideString forces the wide string representation.
	WideString bool
	// Jobs limits parallelism. Zero means GOMAXPROCS.
	Jobs int
	// Logger receives progress output. Nil discards it.
	Logger *slog.Logger
}

// Analysis is the outcome of loading and extracting a schema.
type Analysis struct {
	Config   config.Config
	Graph    *model.SchemaGraph
	Warnings diagnostic.Diagnostics
}

// Result is the outcome of a successful Run.
type Result struct {
	Analysis
	// Files are the paths of the written artifacts.
	Files []string
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return o.Logger
}

// LoadConfig resolves the configuration for opts.
func LoadConfig(opts Options) (config.Config, error) {
	log := opts.logger()

	path := opts.ConfigPath
	if path == "" && opts.SchemaDir != "" {
		candidate := filepath.Join(opts.SchemaDir, config.DefaultFileName)

		_, err := os.Stat(candidate)

		switch {
		case err == nil:
			path = candidate
		case !errors.Is(err, fs.ErrNotExist):
			return config.Config{}, diagnostic.Wrap(diagnostic.CodeInvalidConfig, err, "checking %s", candidate)
		}
	}

	cfg := config.Default()

	if path != "" {
		var err error

		cfg, err = config.LoadFile(path)
		if err != nil {
			return config.Config{}, err
		}

		log.Debug("loaded config", "path", path)
	}

	if opts.WideString {
		cfg.WideString = true
	}

	return cfg, nil
}

// Analyze loads the schema and extracts its graph. Nothing is rendered.
func Analyze(ctx context.Context, opts Options) (*Analysis, error) {
	log := opts.logger()

	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	prog, err := frontend.NewLoader(frontend.Options{
		SchemaDir:    opts.SchemaDir,
		ReferenceDir: opts.ReferenceDir,
		Directive:    cfg.Marker.Directive,
		TagKey:       cfg.Marker.TagKey,
		Jobs:         opts.Jobs,
	}).Load(ctx)
	if err != nil {
		return nil, err
	}

	log.Debug("loaded sources",
		"packages", len(prog.Packages),
		"files", len(prog.Forest.Files),
		"elapsed", time.Since(start))

	res, err := extract.New(cfg).WithJobs(opts.Jobs).Extract(ctx, prog.Forest, prog.Symbols)
	if err != nil {
		return nil, err
	}

	graph := render.Order(res.Graph)

	log.Info("extracted schema",
		"packets", len(graph.Packets),
		"messages", len(graph.Messages),
		"includes", len(graph.Includes))

	return &Analysis{Config: cfg, Graph: graph, Warnings: res.Warnings}, nil
}

// Run executes the whole pipeline. On any failure no output file is written.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := opts.logger()

	if opts.OutputDir == "" {
		return nil, diagnostic.Errorf(diagnostic.CodeMissingInputDirectory, "output directory is required")
	}

	if err := requireDir(opts.TemplateDir); err != nil {
		return nil, err
	}

	analysis, err := Analyze(ctx, opts)
	if err != nil {
		return nil, err
	}

	r, err := render.New(render.Options{
		TemplateDir: opts.TemplateDir,
		Templates:   analysis.Config.Templates,
		Output:      analysis.Config.Output,
		UseWide:     analysis.Config.WideString,
	})
	if err != nil {
		return nil, err
	}

	artifacts, err := r.Render(analysis.Graph)
	if err != nil {
		return nil, err
	}

	if err := artifacts.Write(opts.OutputDir); err != nil {
		return nil, err
	}

	res := &Result{Analysis: *analysis}
	for _, f := range artifacts.Files {
		path := filepath.Join(opts.OutputDir, f.Filename)
		res.Files = append(res.Files, path)
		log.Info("wrote file", "path", path, "bytes", len(f.Content))
	}

	return res, nil
}

func requireDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return diagnostic.Wrap(diagnostic.CodeMissingInputDirectory, err, "template directory %s does not exist", dir)
	}

	if !info.IsDir() {
		return diagnostic.Errorf(diagnostic.CodeMissingInputDirectory, "template directory %s is not a directory", dir)
	}

	return nil
}
