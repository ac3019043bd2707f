package history

import (
	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/emirpasic/gods/utils"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// newestFirst compares commits by committer time, newest first.
// Equal timestamps fall back to the hash so the order is stable.
var newestFirst utils.Comparator = func(a, b interface{}) int {
	ca := a.(*object.Commit)
	cb := b.(*object.Commit)
	ta, tb := ca.Committer.When, cb.Committer.When
	switch {
	case ta.After(tb):
		return -1
	case tb.After(ta):
		return 1
	}
	ha, hb := ca.Hash.String(), cb.Hash.String()
	switch {
	case ha > hb:
		return -1
	case ha < hb:
		return 1
	}
	return 0
}

// dateOrder sorts commits like `git log --date-order`: newest first, but a
// commit is never emitted before all of its loaded children.
func dateOrder(commits []*object.Commit) []*object.Commit {
	loaded := make(map[plumbing.Hash]*object.Commit, len(commits))
	for _, c := range commits {
		loaded[c.Hash] = c
	}

	pending := make(map[plumbing.Hash]int, len(commits))
	for _, c := range commits {
		for _, p := range c.ParentHashes {
			if _, ok := loaded[p]; ok {
				pending[p]++
			}
		}
	}

	heap := binaryheap.NewWith(newestFirst)
	for _, c := range commits {
		if pending[c.Hash] == 0 {
			heap.Push(c)
		}
	}

	ordered := make([]*object.Commit, 0, len(commits))
	for !heap.Empty() {
		v, _ := heap.Pop()
		c := v.(*object.Commit)
		ordered = append(ordered, c)
		for _, p := range c.ParentHashes {
			parent, ok := loaded[p]
			if !ok {
				continue
			}
			pending[p]--
			if pending[p] == 0 {
				heap.Push(parent)
			}
		}
	}
	return ordered
}
