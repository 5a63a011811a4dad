package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndRender(t *testing.T) {
	t.Parallel()
	doc, err := Parse("---\ntitle: May\nhours: 3\n---\n\n# Notes\n")
	require.NoError(t, err)
	assert.Equal(t, "May", doc.Meta["title"])
	assert.Equal(t, 3, doc.Meta["hours"])
	assert.Equal(t, "\n# Notes\n", doc.Body)

	out, err := doc.Render()
	require.NoError(t, err)
	assert.Equal(t, "---\nhours: 3\ntitle: May\n---\n\n# Notes\n", out)
}

func TestParseWithoutFrontmatter(t *testing.T) {
	t.Parallel()
	doc, err := Parse("just text\n")
	require.NoError(t, err)
	assert.Empty(t, doc.Meta)
	assert.Equal(t, "just text\n", doc.Body)

	out, err := doc.Render()
	require.NoError(t, err)
	assert.Equal(t, "just text\n", out)
}

func TestParseRejectsUnclosedFrontmatter(t *testing.T) {
	t.Parallel()
	_, err := Parse("---\ntitle: x\n")
	assert.Error(t, err)
}

func TestSetBlockReplacesInPlace(t *testing.T) {
	t.Parallel()
	doc := Document{Body: "intro\n"}
	doc.SetBlock("tally", "first")
	assert.Equal(t, "intro\n\n<!-- tally:start -->\nfirst\n<!-- tally:end -->\n", doc.Body)

	doc.Body += "outro\n"
	doc.SetBlock("tally", "second\n")
	assert.Equal(t, "intro\n\n<!-- tally:start -->\nsecond\n<!-- tally:end -->\noutro\n", doc.Body)

	got, ok := doc.Block("tally")
	require.True(t, ok)
	assert.Equal(t, "second", got)
	_, ok = doc.Block("other")
	assert.False(t, ok)
}

func TestSetBlockOnEmptyBody(t *testing.T) {
	t.Parallel()
	doc := Document{}
	doc.SetBlock("tally", "x")
	assert.Equal(t, "<!-- tally:start -->\nx\n<!-- tally:end -->\n", doc.Body)
}
