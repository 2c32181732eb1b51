package depgraph

import "github.com/Dicklesworthstone/roadmap_viewer/pkg/model"

// ResolveChain returns focusID together with every visible ancestor (what it
// depends on, transitively) and every visible descendant (what depends on
// it, transitively). An empty focusID, or one that is not visible, yields an
// empty set, meaning "no highlighting".
func ResolveChain(focusID string, tasks []model.Task) Set {
	return NewIndex(tasks).Chain(focusID)
}

// DirectNeighbors returns focusID with its immediate visible predecessors
// and successors only.
func DirectNeighbors(focusID string, tasks []model.Task) Set {
	return NewIndex(tasks).Neighbors(focusID)
}

// Chain is ResolveChain over a prebuilt index.
func (ix *Index) Chain(focusID string) Set {
	if focusID == "" || !ix.Has(focusID) {
		return Set{}
	}
	chain := NewSet(focusID)
	ix.walk(focusID, ix.Preds, chain)
	ix.walk(focusID, ix.Succs, chain)
	return chain
}

// Ancestors returns everything focusID transitively depends on, excluding
// focusID itself unless a cycle leads back to it.
func (ix *Index) Ancestors(focusID string) Set {
	out := Set{}
	ix.walk(focusID, ix.Preds, out)
	return out
}

// Descendants returns everything that transitively depends on focusID.
func (ix *Index) Descendants(focusID string) Set {
	out := Set{}
	ix.walk(focusID, ix.Succs, out)
	return out
}

// walk adds every id reachable from start along adj to seen. Each id is
// expanded at most once, so cycles terminate.
func (ix *Index) walk(start string, adj map[string][]string, seen Set) {
	stack := []string{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range adj[id] {
			if seen.Has(next) {
				continue
			}
			seen[next] = struct{}{}
			stack = append(stack, next)
		}
	}
}

// Neighbors is DirectNeighbors over a prebuilt index.
func (ix *Index) Neighbors(focusID string) Set {
	if focusID == "" || !ix.Has(focusID) {
		return Set{}
	}
	out := NewSet(focusID)
	for _, id := range ix.Preds[focusID] {
		out[id] = struct{}{}
	}
	for _, id := range ix.Succs[focusID] {
		out[id] = struct{}{}
	}
	return out
}
