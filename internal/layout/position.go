package layout

import (
	"github.com/kurobon/gitgraph/internal/history"
)

// WorkingTreeID is the id of the pseudo-node standing for uncommitted changes.
const WorkingTreeID = "working-tree"

// NodeKind distinguishes real commits from synthesized nodes.
type NodeKind string

const (
	KindCommit      NodeKind = "commit"
	KindWorkingTree NodeKind = "working-tree"
)

// Node is a positioned vertex of the graph.
type Node struct {
	ID    string   `json:"id"`
	Kind  NodeKind `json:"kind"`
	Lane  int      `json:"lane"`
	Row   int      `json:"row"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Ahead bool     `json:"ahead,omitempty"`

	Commit      *history.CommitRecord      `json:"commit,omitempty"`
	WorkingTree *history.WorkingTreeStatus `json:"workingTree,omitempty"`
}

// Spacing holds the distance between adjacent lanes and rows.
type Spacing struct {
	Lane float64 `json:"lane" yaml:"lane"`
	Row  float64 `json:"row" yaml:"row"`
}

// DefaultSpacing is used when no spacing is configured.
var DefaultSpacing = Spacing{Lane: 40, Row: 60}

// PositionCalculator turns lanes and sequence indices into coordinates.
type PositionCalculator struct {
	Spacing Spacing
}

// Place positions commits in sequence order. The whole set is shifted left by
// half of the widest lane offset; lanes only grow to the right, so lane 0 ends
// up left of center once other lanes exist.
//
// When status is dirty and the head commit is among commits, a working-tree
// node is placed one row above the head in the head's lane, together with a
// dashed edge from the head to it.
func (p PositionCalculator) Place(commits []history.CommitRecord, lanes LaneAssignment, status *history.WorkingTreeStatus) ([]Node, []Edge) {
	spacing := p.Spacing
	if spacing.Lane <= 0 || spacing.Row <= 0 {
		spacing = DefaultSpacing
	}

	nodes := make([]Node, 0, len(commits)+1)
	maxLane := 0
	head := -1
	for i := range commits {
		c := &commits[i]
		lane := lanes[c.ID()]
		maxLane = max(maxLane, lane)
		if c.IsHead && head < 0 {
			head = i
		}
		nodes = append(nodes, Node{
			ID:     c.ID(),
			Kind:   KindCommit,
			Lane:   lane,
			Row:    i,
			Commit: c,
		})
	}

	var extra []Edge
	if status != nil && status.Dirty() && head >= 0 {
		ws := *status
		nodes = append(nodes, Node{
			ID:          WorkingTreeID,
			Kind:        KindWorkingTree,
			Lane:        nodes[head].Lane,
			Row:         head - 1,
			WorkingTree: &ws,
		})
		extra = append(extra, Edge{Source: nodes[head].ID, Target: WorkingTreeID, Dashed: true})
	}

	offset := -float64(maxLane) * spacing.Lane / 2
	for i := range nodes {
		nodes[i].X = float64(nodes[i].Lane)*spacing.Lane + offset
		nodes[i].Y = float64(nodes[i].Row) * spacing.Row
	}
	return nodes, extra
}
