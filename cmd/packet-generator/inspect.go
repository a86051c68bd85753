package main

import (
	"github.com/spf13/cobra"

	"packet-generator/internal/diagnostic"
	"packet-generator/internal/dump"
	"packet-generator/internal/pipeline"
)

func newInspectCmd(opts *generateOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the resolved schema graph without rendering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := dump.ParseFormat(format)
			if err != nil {
				return err
			}

			analysis, err := pipeline.Analyze(cmd.Context(), opts.pipeline(cmd))
			if err != nil {
				return err
			}

			diagnostic.FprintWarnings(cmd.ErrOrStderr(), analysis.Warnings)

			return dump.Encode(cmd.OutOrStdout(), analysis.Graph, f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(dump.FormatJSON), "output format (json|yaml|msgpack)")

	return cmd
}
