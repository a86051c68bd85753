package render

import (
	"bytes"
	"path/filepath"
	"text/template"

	"packet-generator/internal/config"
	"packet-generator/internal/diagnostic"
	"packet-generator/internal/model"
)

// Options configures a Renderer.
type Options struct {
	// TemplateDir holds the template files named by Templates.
	TemplateDir string
	Templates   config.FilePair
	// Output names the generated files.
	Output config.FilePair
	// UseWide is passed to templates for the wide string representation.
	UseWide bool
}

// Renderer executes the definitions and dispatch templates.
type Renderer struct {
	opts        Options
	definitions *template.Template
	dispatch    *template.Template
}

// Data is the value templates are executed with.
type Data struct {
	Packets  []*model.PacketDescriptor
	Messages []*model.MessageDescriptor
	// Declarations holds Messages reordered so that used messages come first.
	Declarations []*model.MessageDescriptor
	Includes     []string
	UseWide      bool
}

// GeneratedFile is one rendered artifact.
type GeneratedFile struct {
	// Filename is the name of the file inside the output directory.
	Filename string
	Content  []byte
}

// Artifacts are the files produced by one Render call.
type Artifacts struct {
	Files []GeneratedFile
}

// New parses both templates.
func New(opts Options) (*Renderer, error) {
	definitions, err := parse(opts.TemplateDir, opts.Templates.Definitions)
	if err != nil {
		return nil, err
	}

	dispatch, err := parse(opts.TemplateDir, opts.Templates.Dispatch)
	if err != nil {
		return nil, err
	}

	return &Renderer{opts: opts, definitions: definitions, dispatch: dispatch}, nil
}

func parse(dir, name string) (*template.Template, error) {
	path := filepath.Join(dir, name)

	tmpl, err := template.New(filepath.Base(name)).
		Option("missingkey=error").
		Funcs(funcs()).
		ParseFiles(path)
	if err != nil {
		return nil, diagnostic.Wrap(diagnostic.CodeRenderFailure, err, "parsing template %s", path)
	}

	return tmpl, nil
}

// Render orders g and executes both templates. Nothing is written.
func (r *Renderer) Render(g *model.SchemaGraph) (*Artifacts, error) {
	ordered := Order(g)

	declarations, err := declarationOrder(ordered.Messages)
	if err != nil {
		return nil, err
	}

	data := &Data{
		Packets:      ordered.Packets,
		Messages:     ordered.Messages,
		Declarations: declarations,
		Includes:     ordered.Includes,
		UseWide:      r.opts.UseWide,
	}

	jobs := []struct {
		tmpl     *template.Template
		filename string
	}{
		{r.definitions, r.opts.Output.Definitions},
		{r.dispatch, r.opts.Output.Dispatch},
	}

	out := &Artifacts{Files: make([]GeneratedFile, 0, len(jobs))}

	for _, job := range jobs {
		var buf bytes.Buffer
		if err := job.tmpl.Execute(&buf, data); err != nil {
			return nil, diagnostic.Wrap(diagnostic.CodeRenderFailure, err, "executing template %s", job.tmpl.Name())
		}

		out.Files = append(out.Files, GeneratedFile{Filename: job.filename, Content: buf.Bytes()})
	}

	return out, nil
}
