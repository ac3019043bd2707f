// Package refresh keeps a layout in step with a history source.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kurobon/gitgraph/internal/history"
	"github.com/kurobon/gitgraph/internal/layout"
	"github.com/kurobon/gitgraph/internal/navigation"
	"github.com/kurobon/gitgraph/internal/render"
)

// DefaultPageSize is the number of commits requested per page.
const DefaultPageSize = 100

var (
	// ErrFetch wraps a source failure. The previous layout is kept and the
	// call can be retried.
	ErrFetch = errors.New("fetch failed")
	// ErrStale is returned when a newer fetch completed first, or an append
	// no longer lines up with what is loaded. The result was discarded.
	ErrStale = errors.New("stale fetch discarded")
)

// State describes the loaded window.
type State struct {
	Loaded   int       `json:"loaded"`
	Total    int       `json:"total"`
	HasMore  bool      `json:"hasMore"`
	Selected string    `json:"selected,omitempty"`
	Index    int       `json:"index"`
	Updated  time.Time `json:"updated"`
}

// Session owns the layout engine and navigation for one repository.
// All methods are safe for concurrent use.
type Session struct {
	Source   history.Source
	PageSize int

	mu        sync.Mutex
	engine    *layout.Engine
	nav       *navigation.Controller
	result    layout.Result
	total     int
	hasMore   bool
	updated   time.Time
	issued    uint64
	completed uint64
}

// NewSession creates a session with nothing loaded. Call Reload to fetch
// the first page.
func NewSession(src history.Source, pageSize int, spacing layout.Spacing) *Session {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Session{
		Source:   src,
		PageSize: pageSize,
		engine:   layout.NewEngine(spacing),
		nav:      navigation.NewController(),
	}
}

func (s *Session) nextSeq() uint64 {
	s.issued++
	return s.issued
}

// Reload refetches the newest commits and rebuilds the layout from them.
// At least as many commits as are loaded now are requested, so pages
// brought in by LoadMore survive a refresh. Branch lanes survive too.
func (s *Session) Reload(ctx context.Context) (layout.Result, error) {
	s.mu.Lock()
	seq := s.nextSeq()
	limit := max(s.PageSize, s.engine.Len())
	s.mu.Unlock()

	page, err := s.Source.Commits(ctx, 0, limit)
	if err != nil {
		log.Printf("Session: reload #%d failed: %v", seq, err)
		return s.Layout(), fmt.Errorf("%w: %w", ErrFetch, err)
	}
	status := s.workingTree(ctx)
	remote := s.remoteHead(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.completed {
		log.Printf("Session: discarding reload #%d, #%d already applied", seq, s.completed)
		return s.result, ErrStale
	}
	s.completed = seq
	s.engine.Replace(page.Commits)
	s.engine.SetWorkingTree(status)
	s.engine.SetRemoteHead(remote)
	s.total, s.hasMore = page.Total, page.HasMore
	s.relayout()
	return s.result, nil
}

// LoadMore appends the next page of older commits. It is a no-op when the
// source reported nothing more.
func (s *Session) LoadMore(ctx context.Context) (layout.Result, error) {
	s.mu.Lock()
	if !s.hasMore {
		res := s.result
		s.mu.Unlock()
		return res, nil
	}
	seq := s.nextSeq()
	offset := s.engine.Len()
	limit := s.PageSize
	s.mu.Unlock()

	page, err := s.Source.Commits(ctx, offset, limit)
	if err != nil {
		log.Printf("Session: load more #%d at offset %d failed: %v", seq, offset, err)
		return s.Layout(), fmt.Errorf("%w: %w", ErrFetch, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.completed || s.engine.Len() != offset {
		log.Printf("Session: discarding page #%d at offset %d, %d commits loaded", seq, offset, s.engine.Len())
		return s.result, ErrStale
	}
	s.completed = seq
	s.engine.Append(page.Commits)
	s.total, s.hasMore = page.Total, page.HasMore
	s.relayout()
	return s.result, nil
}

func (s *Session) workingTree(ctx context.Context) *history.WorkingTreeStatus {
	status, err := s.Source.WorkingTree(ctx)
	if err != nil {
		log.Printf("Session: working tree status unavailable: %v", err)
		return nil
	}
	return &status
}

func (s *Session) remoteHead(ctx context.Context) string {
	sha, ok, err := s.Source.RemoteHead(ctx)
	if err != nil {
		log.Printf("Session: remote head unavailable: %v", err)
		return ""
	}
	if !ok {
		return ""
	}
	return sha
}

// relayout must be called with mu held.
func (s *Session) relayout() {
	s.result = s.engine.Layout()
	s.updated = time.Now()

	commits := s.result.Commits()
	nodes := make([]navigation.Node, 0, len(commits))
	for _, n := range commits {
		nodes = append(nodes, navigation.Node{ID: n.ID, Sha: n.Commit.Sha})
	}
	s.nav.SetNodes(nodes)
}

// Layout returns the last good layout.
func (s *Session) Layout() layout.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Text renders the last good layout as text lines.
func (s *Session) Text(opts render.Options) []string {
	return render.Lines(s.Layout(), opts)
}

// State reports what is loaded and selected.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Loaded:  s.engine.Len(),
		Total:   s.total,
		HasMore: s.hasMore,
		Index:   s.nav.Index(),
		Updated: s.updated,
	}
	if cur, ok := s.nav.Current(); ok {
		st.Selected = cur.ID
	}
	return st
}

// Navigate runs a navigation key and returns the centering commands it
// produced, in order. Commands are handed out once.
func (s *Session) Navigate(key string) ([]navigation.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := navigation.Dispatch(s.nav, key); err != nil {
		return nil, err
	}
	return s.nav.Drain(), nil
}

// Poll reloads every interval until ctx is done. Failed reloads are logged
// and retried on the next tick.
func (s *Session) Poll(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", interval)
	}
	log.Printf("Session: polling every %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Session: polling stopped: %v", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Reload(ctx); err != nil && !errors.Is(err, ErrStale) {
				log.Printf("Session: poll reload failed: %v", err)
			}
		}
	}
}
