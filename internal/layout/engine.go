package layout

import (
	"github.com/kurobon/gitgraph/internal/history"
)

// Result is a complete, positioned graph ready for rendering.
type Result struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node returns the node with the given id.
func (r Result) Node(id string) (Node, bool) {
	for _, n := range r.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Commits returns the commit nodes in sequence order.
func (r Result) Commits() []Node {
	out := make([]Node, 0, len(r.Nodes))
	for _, n := range r.Nodes {
		if n.Kind == KindCommit {
			out = append(out, n)
		}
	}
	return out
}

// MaxLane returns the highest lane used by any node.
func (r Result) MaxLane() int {
	highest := 0
	for _, n := range r.Nodes {
		highest = max(highest, n.Lane)
	}
	return highest
}

// Engine holds the layout state of the loaded commit window.
// It is not safe for concurrent use.
type Engine struct {
	calc    PositionCalculator
	records []history.CommitRecord
	lanes   *LaneAssigner
	edges   *EdgeBuilder
	status  *history.WorkingTreeStatus
	remote  string
}

// NewEngine returns an empty engine using the given spacing.
func NewEngine(spacing Spacing) *Engine {
	return &Engine{
		calc:  PositionCalculator{Spacing: spacing},
		lanes: NewLaneAssigner(nil),
		edges: NewEdgeBuilder(),
	}
}

// Replace recomputes the layout from records. Commit lanes and edges are
// rebuilt from scratch; the branch table is kept so a branch stays in its
// lane across refreshes.
func (e *Engine) Replace(records []history.CommitRecord) {
	e.lanes = NewLaneAssigner(e.lanes.Branches())
	e.edges = NewEdgeBuilder()
	e.records = nil
	e.Append(records)
}

// Reset forgets everything, including the branch table.
func (e *Engine) Reset() {
	e.lanes = NewLaneAssigner(nil)
	e.edges = NewEdgeBuilder()
	e.records = nil
	e.status = nil
	e.remote = ""
}

// Append extends the layout with older records. Lanes and edges of commits
// already loaded are left untouched; records already loaded are skipped.
func (e *Engine) Append(records []history.CommitRecord) int {
	fresh := make([]history.CommitRecord, 0, len(records))
	for _, r := range records {
		if _, loaded := e.lanes.Lane(r.ID()); loaded {
			continue
		}
		fresh = append(fresh, r)
	}
	e.lanes.Assign(fresh)
	e.edges.Add(fresh)
	e.records = append(e.records, fresh...)
	return len(fresh)
}

// SetWorkingTree records the latest working-tree snapshot. nil clears it.
func (e *Engine) SetWorkingTree(status *history.WorkingTreeStatus) {
	if status == nil {
		e.status = nil
		return
	}
	s := *status
	e.status = &s
}

// SetRemoteHead records the remote-tracking sha used for ahead marking.
func (e *Engine) SetRemoteHead(sha string) {
	e.remote = sha
}

// Len returns the number of loaded commits.
func (e *Engine) Len() int {
	return len(e.records)
}

// Records returns a copy of the loaded records in sequence order.
func (e *Engine) Records() []history.CommitRecord {
	out := make([]history.CommitRecord, len(e.records))
	copy(out, e.records)
	return out
}

// Branches returns a copy of the branch table.
func (e *Engine) Branches() BranchLaneTable {
	return e.lanes.Branches()
}

// Lanes returns a copy of the current lane assignment.
func (e *Engine) Lanes() LaneAssignment {
	return e.lanes.Assignment()
}

// Layout positions the loaded commits.
func (e *Engine) Layout() Result {
	records := e.Records()
	nodes, extra := e.calc.Place(records, e.lanes.lanes, e.status)

	ahead := AheadCount(records, e.remote)
	for i := range nodes {
		if nodes[i].Kind == KindCommit && nodes[i].Row < ahead {
			nodes[i].Ahead = true
		}
	}

	edges := e.edges.Edges()
	edges = append(edges, extra...)
	return Result{Nodes: nodes, Edges: edges}
}

// AheadCount returns how many leading records are newer than the first
// occurrence of remote. If remote is empty or not loaded, nothing is ahead.
func AheadCount(records []history.CommitRecord, remote string) int {
	if remote == "" {
		return 0
	}
	for i, r := range records {
		if r.FullSha == remote || r.Sha == remote {
			return i
		}
	}
	return 0
}
