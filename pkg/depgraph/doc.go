// Package depgraph lays out roadmap tasks as a left-to-right dependency map.
//
// Every function here is a pure function of its inputs: the task slice is
// never mutated, and nothing is cached between calls. Only predecessors that
// are present in the given (visible) task slice count; references to other
// ids are ignored everywhere, so filtering the task list prunes the graph.
// Cycles in BlockedBy are tolerated: traversals terminate and the column
// assigner ignores the edge that closes a cycle.
package depgraph
