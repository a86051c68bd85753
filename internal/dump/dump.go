// Package dump encodes a resolved schema graph for inspection.
package dump

import (
	"fmt"
	"io"
	"slices"
	"strings"

	j "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"packet-generator/internal/model"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatMsgpack}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Formats, f) {
		return "", fmt.Errorf("unknown format %q (want json, yaml or msgpack)", s)
	}

	return f, nil
}

// Encode writes g to w in format f.
func Encode(w io.Writer, g *model.SchemaGraph, f Format) error {
	switch f {
	case FormatJSON:
		enc := j.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(g)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(g); err != nil {
			return err
		}

		return enc.Close()
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		// Same field names as the JSON and YAML dumps.
		enc.SetCustomStructTag("json")

		return enc.Encode(g)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}
