package render

import (
	"cmp"
	"slices"

	"packet-generator/internal/model"
)

// Order returns a copy of g with packets ascending by protocol id, messages
// by name and includes sorted. g is not modified.
func Order(g *model.SchemaGraph) *model.SchemaGraph {
	out := &model.SchemaGraph{
		Packets:  slices.Clone(g.Packets),
		Messages: slices.Clone(g.Messages),
		Includes: slices.Clone(g.Includes),
	}

	slices.SortStableFunc(out.Packets, func(a, b *model.PacketDescriptor) int {
		return cmp.Compare(a.ProtocolID, b.ProtocolID)
	})

	slices.SortStableFunc(out.Messages, func(a, b *model.MessageDescriptor) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Namespace, b.Namespace))
	})

	slices.Sort(out.Includes)

	return out
}
