package layout

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

var (
	ErrDuplicateNode = errors.New("duplicate node")
	ErrDanglingEdge  = errors.New("edge references unknown node")
	ErrCycle         = errors.New("graph contains a cycle")
)

// Validate checks the structural invariants of a layout: node ids are
// unique, every edge endpoint is a node, and the graph is acyclic.
// A failure here is a bug in the engine, not bad input.
func Validate(r Result) error {
	ids := make(map[string]int64, len(r.Nodes))
	g := simple.NewDirectedGraph()
	for i, n := range r.Nodes {
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		ids[n.ID] = int64(i)
		g.AddNode(simple.Node(i))
	}

	for _, e := range r.Edges {
		from, ok := ids[e.Source]
		if !ok {
			return fmt.Errorf("%w: %s -> %s (missing source)", ErrDanglingEdge, e.Source, e.Target)
		}
		to, ok := ids[e.Target]
		if !ok {
			return fmt.Errorf("%w: %s -> %s (missing target)", ErrDanglingEdge, e.Source, e.Target)
		}
		if from == to {
			return fmt.Errorf("%w: self edge on %s", ErrCycle, e.Source)
		}
		g.SetEdge(g.NewEdge(simple.Node(from), simple.Node(to)))
	}

	if _, err := topo.Sort(g); err != nil {
		return fmt.Errorf("%w: %v", ErrCycle, err)
	}
	return nil
}

// MustValidate panics if Validate fails.
func MustValidate(r Result) {
	if err := Validate(r); err != nil {
		panic(fmt.Sprintf("layout: invariant violated: %v", err))
	}
}
