package layout

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kurobon/gitgraph/internal/history"
)

func TestBuildEdges_LinearHistory(t *testing.T) {
	edges := BuildEdges([]history.CommitRecord{
		rec("C3", []string{"C2"}),
		rec("C2", []string{"C1"}, "main"),
		rec("C1", nil, "main"),
	})

	assert.Equal(t, []Edge{
		{Source: "C3", Target: "C2"},
		{Source: "C2", Target: "C1"},
	}, edges)
}

func TestBuildEdges_SkipsUnloadedParents(t *testing.T) {
	edges := BuildEdges([]history.CommitRecord{
		rec("M", []string{"L", "elsewhere"}),
		rec("L", []string{"beyond-page"}),
	})

	assert.Equal(t, []Edge{{Source: "M", Target: "L"}}, edges)
}

func TestEdgeBuilder_AppendScansOnlyNewCommits(t *testing.T) {
	b := NewEdgeBuilder()
	first := b.Add([]history.CommitRecord{
		rec("D", []string{"B"}, "feature"),
		rec("B", []string{"A"}, "main"),
		rec("A", nil),
	})
	assert.Equal(t, []Edge{{Source: "D", Target: "B"}, {Source: "B", Target: "A"}}, first)

	second := b.Add([]history.CommitRecord{rec("E", []string{"D"})})
	assert.Equal(t, []Edge{{Source: "E", Target: "D"}}, second)

	// Re-adding a loaded commit creates nothing.
	assert.Empty(t, b.Add([]history.CommitRecord{rec("B", []string{"A"}, "main")}))
	assert.Len(t, b.Edges(), 3)
}

func TestEdgeBuilder_PendingParentLinkedOnLaterPage(t *testing.T) {
	b := NewEdgeBuilder()
	b.Add([]history.CommitRecord{rec("tip", []string{"older"})})
	assert.Empty(t, b.Edges())
	assert.Equal(t, 1, b.Pending())

	added := b.Add([]history.CommitRecord{rec("older", nil)})
	assert.Equal(t, []Edge{{Source: "tip", Target: "older"}}, added)
	assert.Equal(t, 0, b.Pending())
}

func TestEdgeBuilder_ResolvesShortParentReferences(t *testing.T) {
	full := "b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c1"
	edges := BuildEdges([]history.CommitRecord{
		{Sha: "aaaaaaa", FullSha: "aaaaaaa0000000000000000000000000000000000", Parents: []string{"b2c3d4e"}},
		{Sha: "b2c3d4e", FullSha: full},
	})

	assert.Equal(t, []Edge{{Source: "aaaaaaa0000000000000000000000000000000000", Target: full}}, edges)
}

func TestEdgeBuilder_AppendMatchesReplace(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	seq := randomHistory(rng, 80)

	whole := BuildEdges(seq)

	b := NewEdgeBuilder()
	for start := 0; start < len(seq); start += 17 {
		b.Add(seq[start:min(start+17, len(seq))])
	}

	assert.ElementsMatch(t, whole, b.Edges())
}
