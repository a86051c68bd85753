package extract

import (
	"packet-generator/internal/common"
	"packet-generator/internal/diagnostic"
	"packet-generator/internal/model"
)

// validate checks the invariants that span files: unique protocol ids,
// unique emitted names and collision-free type ids.
func validate(g *model.SchemaGraph) error {
	var ds diagnostic.Diagnostics

	checkProtocolIDs(g, &ds)
	checkNames(g, &ds)
	checkTypeIDs(g, &ds)

	return ds.Err()
}

func checkProtocolIDs(g *model.SchemaGraph, ds *diagnostic.Diagnostics) {
	seen := make(map[uint32]*model.PacketDescriptor, len(g.Packets))

	for _, p := range g.Packets {
		if prev, ok := seen[p.ProtocolID]; ok {
			ds.AddError(diagnostic.Errorf(diagnostic.CodeDuplicateProtocolID,
				"protocol id %d is already used by %s", p.ProtocolID, prev.SourceName).
				In(p.SourceName, "").
				At(p.Position))

			continue
		}

		seen[p.ProtocolID] = p
	}
}

func checkNames(g *model.SchemaGraph, ds *diagnostic.Diagnostics) {
	seen := make(map[string]string)

	check := func(namespace, name, declared, pos string) {
		key := common.Qualify(namespace, name)
		if prev, ok := seen[key]; ok {
			ds.AddError(diagnostic.Errorf(diagnostic.CodeDuplicateDeclaration,
				"%s emits %s, which is already emitted by %s", declared, key, prev).
				In(declared, "").
				At(pos))

			return
		}

		seen[key] = declared
	}

	for _, p := range g.Packets {
		check(p.Namespace, p.Name, p.SourceName, p.Position)
	}

	for _, m := range g.Messages {
		check(m.Namespace, m.Name, m.Name, m.Position)
	}
}

// checkTypeIDs fails loudly when two different source types hash to the same id.
func checkTypeIDs(g *model.SchemaGraph, ds *diagnostic.Diagnostics) {
	seen := make(map[uint32]string)
	reported := make(map[uint32]bool)

	g.Walk(func(owner string, f *model.FieldDescriptor) {
		f.Type.Walk(func(t *model.TypeReference) {
			prev, ok := seen[t.ID]
			if !ok {
				seen[t.ID] = t.Source
				return
			}

			if prev != t.Source && !reported[t.ID] {
				reported[t.ID] = true
				ds.AddError(diagnostic.Errorf(diagnostic.CodeTypeIDCollision,
					"type id %#08x of %s collides with %s", t.ID, t.Source, prev).
					In(owner, f.Name))
			}
		})
	})
}
