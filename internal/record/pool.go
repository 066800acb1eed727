package record

import (
	"sort"
	"strings"
)

// Pool is the set of nodes still available for combination. Membership is
// structural: two equal nodes occupy one slot. A Pool is never modified in
// place; Combine returns a successor so callers can backtrack freely.
type Pool struct {
	nodes []Node
	keys  map[string]struct{}
}

// NewPool returns a pool of the given nodes in first-occurrence order with
// structural duplicates and nils removed.
func NewPool(nodes ...Node) Pool {
	p := Pool{
		nodes: make([]Node, 0, len(nodes)),
		keys:  make(map[string]struct{}, len(nodes)),
	}
	for _, n := range nodes {
		p.add(n)
	}
	return p
}

func (p *Pool) add(n Node) {
	if n == nil {
		return
	}
	k := n.Key()
	if _, dup := p.keys[k]; dup {
		return
	}
	p.keys[k] = struct{}{}
	p.nodes = append(p.nodes, n)
}

// Len returns the number of nodes in the pool.
func (p Pool) Len() int { return len(p.nodes) }

// At returns the i-th node in pool order.
func (p Pool) At(i int) Node { return p.nodes[i] }

// Nodes returns a copy of the pool's nodes in pool order.
func (p Pool) Nodes() []Node {
	out := make([]Node, len(p.nodes))
	copy(out, p.nodes)
	return out
}

// Contains reports whether a node structurally equal to n is in the pool.
func (p Pool) Contains(n Node) bool {
	if n == nil {
		return false
	}
	_, ok := p.keys[n.Key()]
	return ok
}

// Combine returns the pool that results from removing consumed and adding
// produced. The produced node is appended after the surviving nodes.
func (p Pool) Combine(consumed []Node, produced Node) Pool {
	drop := make(map[string]struct{}, len(consumed))
	for _, n := range consumed {
		drop[n.Key()] = struct{}{}
	}
	next := Pool{
		nodes: make([]Node, 0, len(p.nodes)),
		keys:  make(map[string]struct{}, len(p.nodes)),
	}
	for _, n := range p.nodes {
		if _, ok := drop[n.Key()]; ok {
			continue
		}
		next.add(n)
	}
	next.add(produced)
	return next
}

// Key identifies the pool's membership independent of order.
func (p Pool) Key() string {
	keys := make([]string, 0, len(p.keys))
	for k := range p.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, "\n")
}
