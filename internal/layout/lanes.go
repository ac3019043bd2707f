package layout

import (
	"github.com/kurobon/gitgraph/internal/history"
)

// BranchLaneTable maps branch names to lanes. Entries are only ever added;
// an existing branch keeps its lane for the lifetime of the table.
type BranchLaneTable map[string]int

// NewBranchLaneTable returns a table with main and master bound to lane 0.
func NewBranchLaneTable() BranchLaneTable {
	return BranchLaneTable{"main": 0, "master": 0}
}

// Clone returns an independent copy.
func (t BranchLaneTable) Clone() BranchLaneTable {
	out := make(BranchLaneTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func (t BranchLaneTable) maxLane() int {
	highest := 0
	for _, lane := range t {
		highest = max(highest, lane)
	}
	return highest
}

// LaneAssignment maps commit ids to lanes.
type LaneAssignment map[string]int

// LaneAssigner places commits in lanes one page at a time.
//
// A commit with branch labels takes the lane of its first label, allocating
// the next unused lane for an unknown branch. An unlabelled commit takes the
// lane of its nearest already-processed child, then the lane of its first
// parent if that parent was processed, and lane 0 otherwise. Commits are
// never reassigned, so feeding further pages keeps earlier lanes intact.
type LaneAssigner struct {
	branches BranchLaneTable
	lanes    LaneAssignment
	// refs resolves both short and full shas to commit ids.
	refs map[string]string
	// childLane holds, per parent id, the lane of the most recently processed child.
	childLane map[string]int
	next      int
}

// NewLaneAssigner starts an assigner. seed may be nil; when given, its
// entries are kept and new branches are allocated after its highest lane.
func NewLaneAssigner(seed BranchLaneTable) *LaneAssigner {
	branches := NewBranchLaneTable()
	for name, lane := range seed {
		if _, primary := branches[name]; primary {
			continue
		}
		branches[name] = lane
	}
	return &LaneAssigner{
		branches:  branches,
		lanes:     make(LaneAssignment),
		refs:      make(map[string]string),
		childLane: make(map[string]int),
		next:      branches.maxLane() + 1,
	}
}

// Assign processes commits in order and returns how many were new.
// Commits already assigned by an earlier call keep their lane.
func (a *LaneAssigner) Assign(commits []history.CommitRecord) int {
	added := 0
	for _, c := range commits {
		id := c.ID()
		if _, seen := a.lanes[id]; seen {
			continue
		}
		lane := a.laneFor(c)
		a.lanes[id] = lane
		a.refs[id] = id
		if c.Sha != "" {
			a.refs[c.Sha] = id
		}
		for _, p := range c.Parents {
			a.childLane[p] = lane
		}
		added++
	}
	return added
}

func (a *LaneAssigner) laneFor(c history.CommitRecord) int {
	if len(c.Branches) > 0 {
		name := c.Branches[0]
		if lane, ok := a.branches[name]; ok {
			return lane
		}
		lane := a.next
		a.next++
		a.branches[name] = lane
		return lane
	}
	if lane, ok := a.childLane[c.ID()]; ok {
		return lane
	}
	if lane, ok := a.childLane[c.Sha]; ok {
		return lane
	}
	if len(c.Parents) > 0 {
		if id, ok := a.refs[c.Parents[0]]; ok {
			return a.lanes[id]
		}
	}
	return 0
}

// Lane returns the lane of a processed commit.
func (a *LaneAssigner) Lane(id string) (int, bool) {
	lane, ok := a.lanes[id]
	return lane, ok
}

// Assignment returns a copy of all lanes assigned so far.
func (a *LaneAssigner) Assignment() LaneAssignment {
	out := make(LaneAssignment, len(a.lanes))
	for k, v := range a.lanes {
		out[k] = v
	}
	return out
}

// Branches returns a copy of the branch table, suitable as a seed.
func (a *LaneAssigner) Branches() BranchLaneTable {
	return a.branches.Clone()
}

// AssignLanes runs a fresh assigner over commits.
func AssignLanes(commits []history.CommitRecord, seed BranchLaneTable) (LaneAssignment, BranchLaneTable) {
	a := NewLaneAssigner(seed)
	a.Assign(commits)
	return a.Assignment(), a.Branches()
}
