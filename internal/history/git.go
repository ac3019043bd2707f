package history

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// DefaultMaxWalk caps how many commits a single walk collects.
const DefaultMaxWalk = 20000

const (
	stashRef = plumbing.ReferenceName("refs/stash")
	notesRef = plumbing.ReferenceName("refs/notes/commits")
)

// ErrNoRepository is returned when the path holds no git repository.
var ErrNoRepository = errors.New("not a git repository")

// GitSource reads commit history from a go-git repository.
type GitSource struct {
	repo *gogit.Repository

	// MaxWalk bounds the number of commits reachable from refs that are collected.
	MaxWalk int
	// Now is used to compute relative ages. Defaults to time.Now.
	Now func() time.Time

	mu sync.Mutex
}

// NewGitSource wraps an already opened repository.
func NewGitSource(repo *gogit.Repository) *GitSource {
	return &GitSource{
		repo:    repo,
		MaxWalk: DefaultMaxWalk,
		Now:     time.Now,
	}
}

// Open opens the repository containing path.
func Open(path string) (*GitSource, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNoRepository, path)
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return NewGitSource(repo), nil
}

// OpenFilesystem opens a repository whose worktree is fs and whose
// metadata lives in fs/.git.
func OpenFilesystem(fs billy.Filesystem) (*GitSource, error) {
	if _, err := fs.Stat(gogit.GitDirName); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoRepository, fs.Root())
	}
	dotGit, err := fs.Chroot(gogit.GitDirName)
	if err != nil {
		return nil, fmt.Errorf("failed to chroot into %s: %w", gogit.GitDirName, err)
	}
	st := filesystem.NewStorage(dotGit, cache.NewObjectLRUDefault())
	repo, err := gogit.Open(st, fs)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNoRepository, fs.Root())
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return NewGitSource(repo), nil
}

// Commits implements Source.
func (s *GitSource) Commits(ctx context.Context, offset, limit int) (*Page, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ordered, err := s.walk(ctx)
	if err != nil {
		return nil, err
	}

	page := &Page{
		Commits: []CommitRecord{},
		Offset:  offset,
		Limit:   limit,
		Total:   len(ordered),
	}
	if offset >= len(ordered) {
		return page, nil
	}
	end := offset + limit
	if end > len(ordered) {
		end = len(ordered)
	}
	page.HasMore = end < len(ordered)

	labels, err := s.branchLabels()
	if err != nil {
		return nil, err
	}
	tags, err := s.tagLabels()
	if err != nil {
		return nil, err
	}
	head := s.headHash()
	stashBase := s.stashBase()
	notes := s.annotated()
	now := s.now()

	for _, c := range ordered[offset:end] {
		parents := make([]string, 0, len(c.ParentHashes))
		for _, p := range c.ParentHashes {
			parents = append(parents, p.String())
		}
		full := c.Hash.String()
		page.Commits = append(page.Commits, CommitRecord{
			Sha:       ShortSha(full),
			FullSha:   full,
			Message:   strings.TrimSpace(c.Message),
			Author:    c.Author.Name,
			Age:       humanize.RelTime(c.Committer.When, now, "ago", "from now"),
			Timestamp: c.Committer.When,
			Parents:   parents,
			Branches:  labels[c.Hash],
			Tags:      tags[c.Hash],
			IsHead:    c.Hash == head,
			HasStash:  c.Hash == stashBase,
			HasNotes:  notes[c.Hash],
		})
	}
	return page, nil
}

// WorkingTree implements Source.
func (s *GitSource) WorkingTree(ctx context.Context) (WorkingTreeStatus, error) {
	if err := ctx.Err(); err != nil {
		return WorkingTreeStatus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.repo.Worktree()
	if err != nil {
		if errors.Is(err, gogit.ErrIsBareRepository) {
			return WorkingTreeStatus{Clean: true}, nil
		}
		return WorkingTreeStatus{}, fmt.Errorf("failed to open worktree: %w", err)
	}
	status, err := w.Status()
	if err != nil {
		return WorkingTreeStatus{}, fmt.Errorf("failed to read worktree status: %w", err)
	}

	ws := WorkingTreeStatus{Clean: status.IsClean()}
	for _, fs := range status {
		if fs.Staging == gogit.Untracked {
			ws.Untracked++
			continue
		}
		if fs.Worktree != gogit.Unmodified {
			ws.Modified++
		}
		if fs.Staging != gogit.Unmodified {
			ws.Staged++
		}
	}
	return ws, nil
}

// RemoteHead implements Source. The upstream configured for the current
// branch wins; otherwise origin/<branch> is tried.
func (s *GitSource) RemoteHead(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	head, err := s.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", false, nil
	}

	branch := head.Name().Short()
	remote, merge := "origin", branch
	if cfg, err := s.repo.Config(); err == nil {
		if b, ok := cfg.Branches[branch]; ok && b.Remote != "" {
			remote = b.Remote
			if b.Merge != "" {
				merge = b.Merge.Short()
			}
		}
	}

	ref, err := s.repo.Reference(plumbing.NewRemoteReferenceName(remote, merge), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to resolve %s/%s: %w", remote, merge, err)
	}
	return ref.Hash().String(), true, nil
}

func (s *GitSource) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// walk collects commits reachable from HEAD, branches, remote branches and
// tags, then puts them in date order.
func (s *GitSource) walk(ctx context.Context) ([]*object.Commit, error) {
	var queue []plumbing.Hash

	if h, err := s.repo.Head(); err == nil {
		queue = append(queue, h.Hash())
	}

	refs, err := s.repo.References()
	if err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}
	err = refs.ForEach(func(r *plumbing.Reference) error {
		if r.Type() != plumbing.HashReference {
			return nil
		}
		switch {
		case r.Name().IsBranch(), r.Name().IsRemote():
			queue = append(queue, r.Hash())
		case r.Name().IsTag():
			queue = append(queue, s.peel(r.Hash()))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read references: %w", err)
	}

	limit := s.MaxWalk
	if limit <= 0 {
		limit = DefaultMaxWalk
	}

	seen := make(map[plumbing.Hash]bool)
	var collected []*object.Commit
	for len(queue) > 0 && len(collected) < limit {
		if len(collected)%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		current := queue[0]
		queue = queue[1:]
		if seen[current] {
			continue
		}
		seen[current] = true

		c, err := s.repo.CommitObject(current)
		if err != nil {
			// Tags may point at trees or blobs.
			continue
		}
		collected = append(collected, c)
		queue = append(queue, c.ParentHashes...)
	}

	return dateOrder(collected), nil
}

// branchLabels maps commit hash to the local branches pointing at it.
// main and master come first, the rest alphabetically.
func (s *GitSource) branchLabels() (map[plumbing.Hash][]string, error) {
	labels := make(map[plumbing.Hash][]string)
	iter, err := s.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	err = iter.ForEach(func(r *plumbing.Reference) error {
		labels[r.Hash()] = append(labels[r.Hash()], r.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read branches: %w", err)
	}
	for h, names := range labels {
		sort.Slice(names, func(i, j int) bool {
			pi, pj := isPrimaryBranch(names[i]), isPrimaryBranch(names[j])
			if pi != pj {
				return pi
			}
			return names[i] < names[j]
		})
		labels[h] = names
	}
	return labels, nil
}

// tagLabels maps commit hash to the tags pointing at it, sorted by name.
// Annotated tags are peeled to the commit they tag.
func (s *GitSource) tagLabels() (map[plumbing.Hash][]string, error) {
	labels := make(map[plumbing.Hash][]string)
	iter, err := s.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	err = iter.ForEach(func(r *plumbing.Reference) error {
		h := s.peel(r.Hash())
		labels[h] = append(labels[h], r.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}
	for _, names := range labels {
		sort.Strings(names)
	}
	return labels, nil
}

// peel follows annotated tag objects, including tags of tags, to their target.
func (s *GitSource) peel(h plumbing.Hash) plumbing.Hash {
	for range 8 {
		tag, err := s.repo.TagObject(h)
		if err != nil {
			return h
		}
		h = tag.Target
	}
	return h
}

func isPrimaryBranch(name string) bool {
	return name == "main" || name == "master"
}

func (s *GitSource) headHash() plumbing.Hash {
	ref, err := s.repo.Head()
	if err != nil {
		return plumbing.ZeroHash
	}
	return ref.Hash()
}

// stashBase returns the commit the newest stash entry was taken on.
func (s *GitSource) stashBase() plumbing.Hash {
	ref, err := s.repo.Reference(stashRef, true)
	if err != nil {
		return plumbing.ZeroHash
	}
	c, err := s.repo.CommitObject(ref.Hash())
	if err != nil || len(c.ParentHashes) == 0 {
		return plumbing.ZeroHash
	}
	return c.ParentHashes[0]
}

// annotated returns the set of commits carrying a note in refs/notes/commits.
// Note trees may fan out (ab/cdef...), so path separators are dropped.
func (s *GitSource) annotated() map[plumbing.Hash]bool {
	notes := make(map[plumbing.Hash]bool)
	ref, err := s.repo.Reference(notesRef, true)
	if err != nil {
		return notes
	}
	c, err := s.repo.CommitObject(ref.Hash())
	if err != nil {
		log.Printf("GitSource: unreadable notes ref %s: %v", ref.Hash(), err)
		return notes
	}
	tree, err := c.Tree()
	if err != nil {
		log.Printf("GitSource: unreadable notes tree: %v", err)
		return notes
	}
	err = tree.Files().ForEach(func(f *object.File) error {
		name := strings.ReplaceAll(f.Name, "/", "")
		if plumbing.IsHash(name) {
			notes[plumbing.NewHash(name)] = true
		}
		return nil
	})
	if err != nil {
		log.Printf("GitSource: incomplete notes tree: %v", err)
	}
	return notes
}
