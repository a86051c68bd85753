package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"packet-generator/internal/diagnostic"
	"packet-generator/internal/pipeline"
)

type generateOptions struct {
	path     string
	assembly string
	output   string
	template string
	config   string
	wide     bool
}

func (o *generateOptions) pipeline(cmd *cobra.Command) pipeline.Options {
	return pipeline.Options{
		SchemaDir:    o.path,
		ReferenceDir: o.assembly,
		OutputDir:    o.output,
		TemplateDir:  o.template,
		ConfigPath:   o.config,
		WideString:   o.wide,
		Logger:       newLogger(cmd),
	}
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	res, err := pipeline.Run(cmd.Context(), opts.pipeline(cmd))
	if err != nil {
		return err
	}

	diagnostic.FprintWarnings(cmd.ErrOrStderr(), res.Warnings)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Packets: %d\n", len(res.Graph.Packets))
	fmt.Fprintf(out, "Messages: %d\n", len(res.Graph.Messages))

	for _, f := range res.Files {
		fmt.Fprintf(out, "Wrote %s\n", f)
	}

	return nil
}
