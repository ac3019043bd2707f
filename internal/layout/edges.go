package layout

import (
	"github.com/kurobon/gitgraph/internal/history"
)

// Edge is a directed link from a commit (Source) to one of its parents
// (Target), or from the head commit to the working-tree pseudo-node.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Dashed bool   `json:"dashed,omitempty"`
}

// EdgeBuilder derives edges from loaded commits only. Each commit's parent
// list is scanned once, when the commit is added. A parent that is not
// loaded yet is parked and linked when a later page brings it in.
type EdgeBuilder struct {
	edges []Edge
	// refs resolves short and full shas of materialized commits to ids.
	refs    map[string]string
	emitted map[Edge]bool
	// pending holds, per missing parent sha, the children waiting for it.
	pending map[string][]string
}

// NewEdgeBuilder returns an empty builder.
func NewEdgeBuilder() *EdgeBuilder {
	return &EdgeBuilder{
		refs:    make(map[string]string),
		emitted: make(map[Edge]bool),
		pending: make(map[string][]string),
	}
}

// Add materializes commits and returns the edges created by this call.
func (b *EdgeBuilder) Add(commits []history.CommitRecord) []Edge {
	start := len(b.edges)

	fresh := make([]history.CommitRecord, 0, len(commits))
	for _, c := range commits {
		id := c.ID()
		if _, ok := b.refs[id]; ok {
			continue
		}
		b.refs[id] = id
		if c.Sha != "" {
			b.refs[c.Sha] = id
		}
		fresh = append(fresh, c)
	}

	for _, c := range fresh {
		id := c.ID()
		for _, key := range []string{id, c.Sha} {
			if key == "" {
				continue
			}
			for _, child := range b.pending[key] {
				b.emit(Edge{Source: child, Target: id})
			}
			delete(b.pending, key)
		}
		for _, parent := range c.Parents {
			if target, ok := b.refs[parent]; ok {
				b.emit(Edge{Source: id, Target: target})
				continue
			}
			b.pending[parent] = append(b.pending[parent], id)
		}
	}
	return b.edges[start:len(b.edges):len(b.edges)]
}

func (b *EdgeBuilder) emit(e Edge) {
	if b.emitted[e] {
		return
	}
	b.emitted[e] = true
	b.edges = append(b.edges, e)
}

// Edges returns all edges emitted so far, in emission order.
func (b *EdgeBuilder) Edges() []Edge {
	out := make([]Edge, len(b.edges))
	copy(out, b.edges)
	return out
}

// Pending reports how many parent links are waiting for their parent to load.
func (b *EdgeBuilder) Pending() int {
	n := 0
	for _, p := range b.pending {
		n += len(p)
	}
	return n
}

// BuildEdges derives the edge set of a single sequence.
func BuildEdges(commits []history.CommitRecord) []Edge {
	b := NewEdgeBuilder()
	b.Add(commits)
	return b.Edges()
}
