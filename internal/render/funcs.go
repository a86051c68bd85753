package render

import (
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"packet-generator/internal/common"
)

// funcs returns the helper functions available to templates.
func funcs() template.FuncMap {
	return template.FuncMap{
		"snake": common.Snake,
		"upper": func(s string) string { return cases.Upper(language.Und).String(s) },
		"lower": func(s string) string { return cases.Lower(language.Und).String(s) },
		"join":  func(elems []string, sep string) string { return strings.Join(elems, sep) },
		// "game.packets" -> "game::packets"
		"namespace": func(ns string) string { return strings.ReplaceAll(ns, ".", "::") },
		"hex":       func(v uint32) string { return fmt.Sprintf("0x%04X", v) },
	}
}
