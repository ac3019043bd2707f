package history

import (
	"context"
	"time"
)

// ShortShaLen is the length of the abbreviated sha shown in the graph.
const ShortShaLen = 7

// CommitRecord is one commit as delivered by a Source.
// Records are treated as immutable once handed to the layout engine.
type CommitRecord struct {
	Sha       string    `json:"sha"`
	FullSha   string    `json:"fullSha"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	Age       string    `json:"age"`
	Timestamp time.Time `json:"timestamp"`
	Parents   []string  `json:"parents"`  // full shas, first parent first
	Branches  []string  `json:"branches"` // first label decides the lane
	Tags      []string  `json:"tags,omitempty"`
	IsHead    bool      `json:"isHead"`
	HasStash  bool      `json:"hasStash"`
	HasNotes  bool      `json:"hasNotes"`
}

// ID returns the identifier used for graph nodes.
func (c CommitRecord) ID() string {
	if c.FullSha != "" {
		return c.FullSha
	}
	return c.Sha
}

// Page is one window of the newest-first commit sequence.
type Page struct {
	Commits []CommitRecord `json:"commits"`
	Offset  int            `json:"offset"`
	Limit   int            `json:"limit"`
	Total   int            `json:"total"`
	HasMore bool           `json:"hasMore"`
}

// WorkingTreeStatus is a snapshot of uncommitted changes.
type WorkingTreeStatus struct {
	Clean     bool `json:"clean"`
	Staged    int  `json:"staged"`
	Modified  int  `json:"modified"`
	Untracked int  `json:"untracked"`
}

// Dirty reports whether there is anything worth drawing a pseudo-node for.
func (s WorkingTreeStatus) Dirty() bool {
	return !s.Clean || s.Staged > 0 || s.Modified > 0 || s.Untracked > 0
}

// Source supplies commit history and repository state to the layout engine.
type Source interface {
	// Commits returns up to limit records starting at offset, newest first.
	Commits(ctx context.Context, offset, limit int) (*Page, error)
	// WorkingTree returns the current working-tree status.
	WorkingTree(ctx context.Context) (WorkingTreeStatus, error)
	// RemoteHead returns the sha of the remote-tracking branch of HEAD.
	// ok is false when HEAD has no upstream.
	RemoteHead(ctx context.Context) (sha string, ok bool, err error)
}

// ShortSha abbreviates a full sha.
func ShortSha(full string) string {
	if len(full) <= ShortShaLen {
		return full
	}
	return full[:ShortShaLen]
}
