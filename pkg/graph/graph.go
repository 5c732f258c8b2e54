// Package graph holds the in-memory adjacency index over the entity tables.
// It is a simple undirected graph: no duplicate edges, no self loops.
package graph

import "sync"

// Graph is guarded by a single reader-writer lock. Traversals take the read
// side and run in parallel; structural mutations take the write side.
type Graph struct {
	mu  sync.RWMutex
	adj map[Node]map[Node]struct{}
}

func New() *Graph {
	return &Graph{
		adj: make(map[Node]map[Node]struct{}),
	}
}

// AddNode registers n with no edges. Adding an existing node is a no-op.
func (g *Graph) AddNode(n Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensure(n)
}

// PutEdge connects n1 and n2, registering either node as needed.
// Self loops are ignored.
func (g *Graph) PutEdge(n1, n2 Node) {
	if n1 == n2 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensure(n1)[n2] = struct{}{}
	g.ensure(n2)[n1] = struct{}{}
}

func (g *Graph) RemoveEdge(n1, n2 Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if peers, ok := g.adj[n1]; ok {
		delete(peers, n2)
	}
	if peers, ok := g.adj[n2]; ok {
		delete(peers, n1)
	}
}

// RemoveNode drops n and every edge incident to it.
func (g *Graph) RemoveNode(n Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for peer := range g.adj[n] {
		delete(g.adj[peer], n)
	}
	delete(g.adj, n)
}

// AdjacentNodes returns a copy of the nodes connected to n.
func (g *Graph) AdjacentNodes(n Node) []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	peers := g.adj[n]
	out := make([]Node, 0, len(peers))
	for peer := range peers {
		out = append(out, peer)
	}
	return out
}

func (g *Graph) HasEdgeConnecting(n1, n2 Node) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.adj[n1][n2]
	return ok
}

func (g *Graph) HasNode(n Node) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.adj[n]
	return ok
}

// Detach atomically removes every edge of n and returns the nodes that were
// connected to it. n itself stays registered. This is the primitive behind
// the new-entries outbox: one call drains the whole staging set.
func (g *Graph) Detach(n Node) []Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	peers := g.adj[n]
	out := make([]Node, 0, len(peers))
	for peer := range peers {
		delete(g.adj[peer], n)
		out = append(out, peer)
	}
	g.adj[n] = make(map[Node]struct{})
	return out
}

// Degree returns the number of edges incident to n.
func (g *Graph) Degree(n Node) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.adj[n])
}

func (g *Graph) ensure(n Node) map[Node]struct{} {
	peers, ok := g.adj[n]
	if !ok {
		peers = make(map[Node]struct{})
		g.adj[n] = peers
	}
	return peers
}
