package render

import (
	"errors"
	"fmt"
	"slices"

	"packet-generator/internal/common"
	"packet-generator/internal/diagnostic"
	"packet-generator/internal/model"
)

// declarationOrder returns messages ordered so that every message comes after
// the messages its fields use. Ties keep the input order. A message using
// itself is not a dependency; a longer cycle is a RenderFailure.
func declarationOrder(messages []*model.MessageDescriptor) ([]*model.MessageDescriptor, error) {
	index := make(map[string]int, len(messages))
	for i, m := range messages {
		index[common.Qualify(m.Namespace, m.Name)] = i
	}

	order, err := topoSort(len(messages), func(i int) []int {
		seen := make(map[int]bool)

		var deps []int

		for _, f := range messages[i].Fields {
			f.Type.Walk(func(t *model.TypeReference) {
				j, ok := index[t.Source]
				if t.Kind != model.KindNamed || !ok || j == i || seen[j] {
					return
				}

				seen[j] = true
				deps = append(deps, j)
			})
		}

		return deps
	})
	if err != nil {
		return nil, diagnostic.Wrap(diagnostic.CodeRenderFailure, err, "ordering message declarations")
	}

	out := make([]*model.MessageDescriptor, len(order))
	for i, j := range order {
		out[i] = messages[j]
	}

	return out, nil
}

// topoSort orders the nodes 0..n-1 so that every node follows the nodes
// deps(i) names. Among nodes whose dependencies are all placed, the lowest
// index goes next, so callers control tie order through their input order.
func topoSort(n int, deps func(i int) []int) ([]int, error) {
	if n <= 0 {
		return nil, nil
	}

	waiting := make([]int, n) // unplaced dependencies per node
	users := make([][]int, n) // nodes depending on each node

	for i := range n {
		for _, d := range deps(i) {
			if d < 0 || d >= n {
				return nil, fmt.Errorf("node %d depends on unknown node %d", i, d)
			}

			waiting[i]++
			users[d] = append(users[d], i)
		}
	}

	var free []int

	for i, w := range waiting {
		if w == 0 {
			free = append(free, i)
		}
	}

	order := make([]int, 0, n)

	for len(free) > 0 {
		next := free[0]
		free = free[1:]
		order = append(order, next)

		for _, u := range users[next] {
			if waiting[u]--; waiting[u] == 0 {
				at, _ := slices.BinarySearch(free, u)
				free = slices.Insert(free, at, u)
			}
		}
	}

	if len(order) != n {
		return nil, errors.New("declarations reference each other in a cycle")
	}

	return order, nil
}
