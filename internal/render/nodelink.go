package render

import (
	"github.com/kurobon/gitgraph/internal/layout"
)

// Surface is a node-link drawing target such as a browser canvas.
// Coordinates arrive already computed.
type Surface interface {
	SetNodes(nodes []layout.Node)
	SetEdges(edges []layout.Edge)
}

// Draw hands the positioned nodes and edges to s unchanged.
func Draw(s Surface, result layout.Result) {
	s.SetNodes(result.Nodes)
	s.SetEdges(result.Edges)
}

// Scene is a Surface that keeps what it was given, for serialization.
type Scene struct {
	Nodes []layout.Node `json:"nodes"`
	Edges []layout.Edge `json:"edges"`
}

func (s *Scene) SetNodes(nodes []layout.Node) {
	s.Nodes = append(s.Nodes[:0], nodes...)
}

func (s *Scene) SetEdges(edges []layout.Edge) {
	s.Edges = append(s.Edges[:0], edges...)
}
