// Package render turns a layout.Result into something a person can look at.
package render

import (
	"fmt"
	"iter"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kurobon/gitgraph/internal/history"
	"github.com/kurobon/gitgraph/internal/layout"
)

const (
	glyphCommit      = "●"
	glyphHead        = "◉"
	glyphWorkingTree = "◌"
	glyphLine        = "│"
	glyphDashed      = "┆"

	// DefaultWidth is used when Options.Width is not positive.
	DefaultWidth = 80

	messageLimit = 60
	emptyText    = "No commits yet"
)

// Row is one line of text output. NodeID is empty for connector rows.
type Row struct {
	NodeID string `json:"nodeId,omitempty"`
	Graph  string `json:"graph"`
	Info   string `json:"info,omitempty"`
}

// String joins the graph and info parts.
func (r Row) String() string {
	if r.Info == "" {
		return r.Graph
	}
	return r.Graph + "  " + r.Info
}

// Style colors the glyph column. Lanes cycle through Palette.
type Style struct {
	Palette []lipgloss.Style
	Head    lipgloss.Style
}

// DefaultStyle returns the terminal palette used by the text view.
func DefaultStyle() *Style {
	colors := []string{"2", "4", "5", "6", "3", "1"}
	s := &Style{Head: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))}
	for _, c := range colors {
		s.Palette = append(s.Palette, lipgloss.NewStyle().Foreground(lipgloss.Color(c)))
	}
	return s
}

func (s *Style) lane(lane int, glyph string) string {
	if s == nil || len(s.Palette) == 0 {
		return glyph
	}
	return s.Palette[lane%len(s.Palette)].Render(glyph)
}

// Options controls the text output.
type Options struct {
	Width int
	Style *Style // nil renders plain text
}

type span struct{ first, last int }

// Rows yields one row per node plus a connector row between consecutive
// nodes. The working-tree node is emitted directly above the head commit.
// The sequence is computed on demand and can be ranged over repeatedly.
func Rows(result layout.Result, opts Options) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		commits := result.Commits()
		if len(commits) == 0 {
			yield(Row{Graph: emptyText})
			return
		}
		t := newTextLayout(result, commits, opts)

		for i, n := range commits {
			if t.pseudo != nil && n.Row == t.pseudo.Row+1 {
				if !yield(t.pseudoRow(i)) {
					return
				}
				if !yield(t.connector(i-1, i, n.Lane, glyphDashed)) {
					return
				}
			}
			if !yield(t.commitRow(n)) {
				return
			}
			if i < len(commits)-1 {
				if !yield(t.connector(i, i+1, -1, "")) {
					return
				}
			}
		}
	}
}

// Lines collects Rows into plain strings.
func Lines(result layout.Result, opts Options) []string {
	var out []string
	for r := range Rows(result, opts) {
		out = append(out, r.String())
	}
	return out
}

type textLayout struct {
	opts    Options
	maxLane int
	spans   map[int]span
	pseudo  *layout.Node
}

func newTextLayout(result layout.Result, commits []layout.Node, opts Options) *textLayout {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	t := &textLayout{opts: opts, maxLane: result.MaxLane(), spans: make(map[int]span)}
	for _, n := range commits {
		s, ok := t.spans[n.Lane]
		if !ok {
			s = span{first: n.Row, last: n.Row}
		}
		s.first = min(s.first, n.Row)
		s.last = max(s.last, n.Row)
		t.spans[n.Lane] = s
	}
	if n, ok := result.Node(layout.WorkingTreeID); ok {
		t.pseudo = &n
	}
	return t
}

// open reports whether lane has nodes at or above row a and at or below row b.
func (t *textLayout) open(lane, a, b int) bool {
	s, ok := t.spans[lane]
	return ok && s.first <= a && s.last >= b
}

func (t *textLayout) columns(fill func(lane int) string) string {
	parts := make([]string, 0, t.maxLane+1)
	for lane := 0; lane <= t.maxLane; lane++ {
		parts = append(parts, fill(lane))
	}
	return strings.TrimRight(strings.Join(parts, " "), " ")
}

func (t *textLayout) glyph(lane int, g string) string {
	return t.opts.Style.lane(lane, g)
}

func (t *textLayout) commitRow(n layout.Node) Row {
	graph := t.columns(func(lane int) string {
		switch {
		case lane == n.Lane && n.Commit != nil && n.Commit.IsHead:
			if t.opts.Style != nil {
				return t.opts.Style.Head.Render(glyphHead)
			}
			return glyphHead
		case lane == n.Lane:
			return t.glyph(lane, glyphCommit)
		case t.open(lane, n.Row, n.Row):
			return t.glyph(lane, glyphLine)
		}
		return " "
	})
	return Row{NodeID: n.ID, Graph: graph, Info: truncate(commitInfo(n), t.width())}
}

func (t *textLayout) pseudoRow(head int) Row {
	p := t.pseudo
	graph := t.columns(func(lane int) string {
		switch {
		case lane == p.Lane:
			return t.glyph(lane, glyphWorkingTree)
		case t.open(lane, head-1, head):
			return t.glyph(lane, glyphLine)
		}
		return " "
	})
	return Row{NodeID: p.ID, Graph: graph, Info: truncate(workingTreeInfo(p.WorkingTree), t.width())}
}

// connector draws the gap between rows a and b. A lane >= 0 is drawn with
// g regardless of whether it is open.
func (t *textLayout) connector(a, b, lane int, g string) Row {
	return Row{Graph: t.columns(func(l int) string {
		switch {
		case l == lane:
			return t.glyph(l, g)
		case t.open(l, a, b):
			return t.glyph(l, glyphLine)
		}
		return " "
	})}
}

// width is the room left for the info part after the widest glyph column.
func (t *textLayout) width() int {
	return t.opts.Width - (2*t.maxLane + 1) - 2
}

func truncate(s string, limit int) string {
	r := []rune(s)
	switch {
	case limit <= 0:
		return ""
	case len(r) <= limit:
		return s
	case limit <= 3:
		return string(r[:limit])
	}
	return string(r[:limit-3]) + "..."
}

func commitInfo(n layout.Node) string {
	c := n.Commit
	if c == nil {
		return n.ID
	}
	parts := []string{fmt.Sprintf("[%s]", c.Sha)}
	if n.Ahead {
		parts = append(parts, "↑")
	}
	for _, b := range c.Branches {
		parts = append(parts, fmt.Sprintf("(%s)", b))
	}
	for _, tag := range c.Tags {
		parts = append(parts, fmt.Sprintf("<%s>", tag))
	}
	if c.HasStash {
		parts = append(parts, "{stash}")
	}
	if c.HasNotes {
		parts = append(parts, "{notes}")
	}
	msg, _, _ := strings.Cut(c.Message, "\n")
	if r := []rune(msg); len(r) > messageLimit {
		msg = string(r[:messageLimit])
	}
	parts = append(parts, msg)
	parts = append(parts, strings.TrimSpace(fmt.Sprintf("- %s %s", c.Author, c.Age)))
	return strings.Join(parts, " ")
}

func workingTreeInfo(s *history.WorkingTreeStatus) string {
	if s == nil {
		return "Working tree"
	}
	return fmt.Sprintf("Working tree: %d staged, %d modified, %d untracked", s.Staged, s.Modified, s.Untracked)
}
