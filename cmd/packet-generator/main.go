// Package main provides the CLI entrypoint for packet-generator.
//
// packet-generator compiles annotated Go schema declarations into typed
// packet definitions and a protocol dispatch skeleton:
//   - Loads and type-checks the schema and its definitions library
//   - Resolves every field type, including nested generic containers
//   - Renders both output files through user-supplied templates
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"packet-generator/internal/diagnostic"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd := newRootCmd()

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		diagnostic.Fprint(cmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &generateOptions{}

	root := &cobra.Command{
		Use:   "packet-generator",
		Short: "Generate packet definitions and a dispatch skeleton from Go schemas",
		Long: `packet-generator reads struct declarations marked with //packet:message,
resolves their field types and renders two files through text/templates:
the packet definitions and the packet handler skeleton.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupColor(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}

	root.PersistentFlags().StringVarP(&opts.path, "path", "p", "", "schema source directory (required)")
	root.PersistentFlags().StringVarP(&opts.assembly, "assembly", "a", "", "definitions library directory (required)")
	root.PersistentFlags().StringVar(&opts.config, "config", "", "config file (default: packetgen.toml in the schema directory)")
	root.PersistentFlags().BoolVar(&opts.wide, "use-wide-string", false, "represent strings as std::wstring")
	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	root.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (required)")
	root.Flags().StringVarP(&opts.template, "template", "t", "", "template directory (required)")

	for _, name := range []string{"path", "assembly"} {
		_ = root.MarkPersistentFlagRequired(name)
	}

	for _, name := range []string{"output", "template"} {
		_ = root.MarkFlagRequired(name)
	}

	root.AddCommand(newInspectCmd(opts))

	return root
}

func setupColor(cmd *cobra.Command) error {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "", "auto":
		color.NoColor = !isTerminal(cmd.ErrOrStderr())
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}

	return nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
