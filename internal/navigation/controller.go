// Package navigation tracks the selected commit and tells the viewport
// which node to center on.
package navigation

import (
	"strings"
)

// Command asks the viewport to center on a node. Seq increases by one for
// every command issued by a controller.
type Command struct {
	Seq    uint64 `json:"seq"`
	NodeID string `json:"nodeId"`
}

// Viewport consumes centering commands.
type Viewport interface {
	Center(nodeID string)
}

// Node is what the controller needs to know about a commit.
type Node struct {
	ID  string // full sha
	Sha string // abbreviated sha
}

// Controller holds the current index into the ordered commit sequence and a
// FIFO of pending viewport commands. It has a single consumer and is not
// safe for concurrent use.
type Controller struct {
	nodes []Node
	index int
	queue []Command
	seq   uint64
}

// NewController returns a controller over an empty sequence.
func NewController() *Controller {
	return &Controller{}
}

// SetNodes replaces the sequence after a refresh. The current commit stays
// selected if it is still loaded; otherwise the index is clamped.
// No command is issued.
func (c *Controller) SetNodes(nodes []Node) {
	current, hadCurrent := c.Current()
	c.nodes = append(c.nodes[:0:0], nodes...)
	if hadCurrent {
		for i, n := range c.nodes {
			if n.ID == current.ID {
				c.index = i
				return
			}
		}
	}
	c.index = clamp(c.index, len(c.nodes))
}

// Len returns the number of navigable commits.
func (c *Controller) Len() int {
	return len(c.nodes)
}

// Index returns the current index.
func (c *Controller) Index() int {
	return c.index
}

// Current returns the selected node.
func (c *Controller) Current() (Node, bool) {
	if c.index < 0 || c.index >= len(c.nodes) {
		return Node{}, false
	}
	return c.nodes[c.index], true
}

// Top selects the newest commit.
func (c *Controller) Top() bool {
	return c.moveTo(0)
}

// Bottom selects the oldest loaded commit.
func (c *Controller) Bottom() bool {
	return c.moveTo(len(c.nodes) - 1)
}

// Step moves by delta, clamped to the loaded range. It reports false, and
// issues nothing, when the index does not change.
func (c *Controller) Step(delta int) bool {
	if len(c.nodes) == 0 {
		return false
	}
	target := clamp(c.index+delta, len(c.nodes))
	if target == c.index {
		return false
	}
	return c.moveTo(target)
}

// JumpToPrefix selects the first commit whose sha is a prefix of text or
// has text as a prefix. Not finding one is normal when the commit lives on
// a page that is not loaded yet.
func (c *Controller) JumpToPrefix(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return false
	}
	for i, n := range c.nodes {
		if matchesPrefix(n, text) {
			return c.moveTo(i)
		}
	}
	return false
}

func matchesPrefix(n Node, text string) bool {
	for _, sha := range []string{n.ID, n.Sha} {
		if sha == "" {
			continue
		}
		sha = strings.ToLower(sha)
		if strings.HasPrefix(sha, text) || strings.HasPrefix(text, sha) {
			return true
		}
	}
	return false
}

func (c *Controller) moveTo(i int) bool {
	if i < 0 || i >= len(c.nodes) {
		return false
	}
	c.index = i
	c.seq++
	c.queue = append(c.queue, Command{Seq: c.seq, NodeID: c.nodes[i].ID})
	return true
}

// Pending returns the number of queued commands.
func (c *Controller) Pending() int {
	return len(c.queue)
}

// Next dequeues the oldest command.
func (c *Controller) Next() (Command, bool) {
	if len(c.queue) == 0 {
		return Command{}, false
	}
	cmd := c.queue[0]
	c.queue = c.queue[1:]
	return cmd, true
}

// Drain dequeues every pending command in FIFO order.
func (c *Controller) Drain() []Command {
	out := c.queue
	c.queue = nil
	return out
}

// Apply drains the queue into v and returns how many commands were applied.
// Each command is handed to the viewport exactly once.
func (c *Controller) Apply(v Viewport) int {
	n := 0
	for {
		cmd, ok := c.Next()
		if !ok {
			return n
		}
		v.Center(cmd.NodeID)
		n++
	}
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
