package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []Node {
	return []Node{
		{ID: "a1b2c3d4e5f60718293a4b5c6d7e8f9001122334", Sha: "a1b2c3d"},
		{ID: "b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8091a2b", Sha: "b2c3d4e"},
		{ID: "c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8091a2b3c", Sha: "c3d4e5f"},
		{ID: "d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8091a2b3c4d", Sha: "d4e5f6a"},
	}
}

func newLoaded() *Controller {
	c := NewController()
	c.SetNodes(sample())
	return c
}

func TestTopAndBottom(t *testing.T) {
	c := newLoaded()

	require.True(t, c.Bottom())
	assert.Equal(t, 3, c.Index())
	require.True(t, c.Top())
	assert.Equal(t, 0, c.Index())

	cmds := c.Drain()
	require.Len(t, cmds, 2)
	assert.Equal(t, sample()[3].ID, cmds[0].NodeID)
	assert.Equal(t, sample()[0].ID, cmds[1].NodeID)
	assert.Less(t, cmds[0].Seq, cmds[1].Seq)
}

func TestStepClampsAtBothEnds(t *testing.T) {
	c := newLoaded()

	assert.False(t, c.Step(-1), "already at the top")
	assert.Equal(t, 0, c.Index())
	assert.Equal(t, 0, c.Pending())

	assert.True(t, c.Step(2))
	assert.Equal(t, 2, c.Index())

	assert.True(t, c.Step(10))
	assert.Equal(t, 3, c.Index())
	assert.False(t, c.Step(1))
	assert.Equal(t, 3, c.Index())

	assert.Equal(t, 2, c.Pending())
}

func TestJumpToPrefix(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		found bool
		index int
	}{
		{"short sha", "b2c3d4e", true, 1},
		{"longer than short sha", "c3d4e5f6a7", true, 2},
		{"full sha", sample()[3].ID, true, 3},
		{"upper case", "B2C3", true, 1},
		{"surrounding space", "  d4e5 ", true, 3},
		{"text is a prefix of the short sha", "a1b", true, 0},
		{"not loaded", "ffffff", false, 0},
		{"empty", "", false, 0},
		{"blank", "   ", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newLoaded()
			assert.Equal(t, tt.found, c.JumpToPrefix(tt.text))
			assert.Equal(t, tt.index, c.Index())
			if tt.found {
				assert.Equal(t, 1, c.Pending())
			} else {
				assert.Equal(t, 0, c.Pending())
			}
		})
	}
}

func TestJumpMatchesShaThatIsPrefixOfText(t *testing.T) {
	c := NewController()
	c.SetNodes([]Node{{ID: "0000"}, {ID: "b2c3d4e", Sha: "b2c3d4e"}})

	require.True(t, c.JumpToPrefix("b2c3d4e5f6a7b8c9"))
	assert.Equal(t, 1, c.Index())
}

func TestEmptySequence(t *testing.T) {
	c := NewController()

	assert.False(t, c.Top())
	assert.False(t, c.Bottom())
	assert.False(t, c.Step(1))
	assert.False(t, c.JumpToPrefix("abc"))
	_, ok := c.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, c.Pending())
}

func TestCommandsAreConsumedOnce(t *testing.T) {
	c := newLoaded()
	c.Step(1)
	c.Step(1)

	first, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, sample()[1].ID, first.NodeID)

	rest := c.Drain()
	require.Len(t, rest, 1)
	assert.Equal(t, sample()[2].ID, rest[0].NodeID)

	_, ok = c.Next()
	assert.False(t, ok)
	assert.Empty(t, c.Drain())
}

type recordingViewport struct {
	centered []string
}

func (v *recordingViewport) Center(id string) {
	v.centered = append(v.centered, id)
}

func TestApplyHandsEachCommandToViewportOnce(t *testing.T) {
	c := newLoaded()
	c.Bottom()
	c.Top()

	v := &recordingViewport{}
	assert.Equal(t, 2, c.Apply(v))
	assert.Equal(t, 0, c.Apply(v))
	assert.Equal(t, []string{sample()[3].ID, sample()[0].ID}, v.centered)
}

func TestSetNodesKeepsSelection(t *testing.T) {
	c := newLoaded()
	c.Step(2)
	c.Drain()

	// A refresh brings in a new tip; the selected commit moves down a row.
	nodes := append([]Node{{ID: "eeee", Sha: "eeee"}}, sample()...)
	c.SetNodes(nodes)

	assert.Equal(t, 3, c.Index())
	cur, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, sample()[2].ID, cur.ID)
	assert.Equal(t, 0, c.Pending(), "refresh issues no command")
}

func TestSetNodesClampsWhenSelectionDisappears(t *testing.T) {
	c := newLoaded()
	c.Bottom()

	c.SetNodes(sample()[:2])
	assert.Equal(t, 1, c.Index())

	c.SetNodes(nil)
	assert.Equal(t, 0, c.Index())
	_, ok := c.Current()
	assert.False(t, ok)
}
