// Package include derives the target-language dependencies implied by a
// resolved schema graph.
//
// Matching uses the exact resolved container head of every type node, type
// arguments included, so a user type whose name merely contains a container
// name never pulls in an unrelated dependency.
package include

import (
	"slices"

	"packet-generator/internal/model"
)

// Aggregator maps resolved heads to dependency declarations.
type Aggregator struct {
	table    map[string]string
	optional string
}

// New creates an Aggregator. optional is added once when any field is nullable.
func New(table map[string]string, optional string) *Aggregator {
	return &Aggregator{table: table, optional: optional}
}

// Includes returns the sorted, de-duplicated dependency set of g.
func (a *Aggregator) Includes(g *model.SchemaGraph) []string {
	set := make(map[string]struct{})

	g.Walk(func(_ string, f *model.FieldDescriptor) {
		a.addField(set, f)
	})

	return sortedKeys(set)
}

func (a *Aggregator) addField(set map[string]struct{}, f *model.FieldDescriptor) {
	if f.Optional && a.optional != "" {
		set[a.optional] = struct{}{}
	}

	f.Type.Walk(func(t *model.TypeReference) {
		if dep, ok := a.table[t.Head]; ok {
			set[dep] = struct{}{}
		}
	})
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}

	slices.Sort(out)

	return out
}
