package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_InsertMovesExisting(t *testing.T) {
	tree := NewTree()
	tree.Append("a", RootID)
	tree.Append("b", RootID)
	tree.Append("c", "a")

	tree.Insert("c", "b", 0)
	tree.Insert("c", "b", 0)

	assert.Equal(t, []string{"a", "b"}, tree.Roots)
	assert.Empty(t, tree.Items["a"].Children)
	assert.Equal(t, []string{"c"}, tree.Items["b"].Children)
}

func TestTree_UnknownParentFallsBackToRoot(t *testing.T) {
	tree := NewTree()
	tree.Append("a", "ghost")
	tree.Append("b", "ghost")

	assert.Equal(t, []string{"a", "b"}, tree.Roots)
	assert.Equal(t, RootID, tree.Items["a"].ParentId)
}

func TestTree_AppendKeepsPositionForSameParent(t *testing.T) {
	tree := NewTree()
	tree.Append("a", RootID)
	tree.Append("b", RootID)
	tree.Append("a", RootID)

	assert.Equal(t, []string{"b", "a"}, tree.Roots)
}

func TestTree_RemoveReparentsChildren(t *testing.T) {
	tree := NewTree()
	tree.Append("a", RootID)
	tree.Append("b", RootID)
	tree.Append("x", "a")
	tree.Append("y", "a")

	assert.True(t, tree.Remove("a"))
	assert.False(t, tree.Remove("a"))

	assert.Equal(t, []string{"x", "y", "b"}, tree.Roots)
	assert.Equal(t, RootID, tree.Items["x"].ParentId)
	assert.False(t, tree.Contains("a"))
}

func TestTree_CloneIsDeep(t *testing.T) {
	tree := NewTree()
	tree.Append("a", RootID)
	tree.Append("b", "a")

	clone := tree.Clone()
	clone.Remove("b")

	assert.Equal(t, []string{"b"}, tree.Items["a"].Children)
}

func TestTree_JSONShape(t *testing.T) {
	tree := NewTree()
	tree.Append("a", RootID)

	data, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":{"a":{"id":"a","parentId":"root","children":[]}},"roots":["a"]}`, string(data))

	var back Tree
	require.NoError(t, json.Unmarshal([]byte(`{"items":{"a":{"id":"a"}}}`), &back))
	back.Normalize()
	assert.Equal(t, RootID, back.Items["a"].ParentId)
	assert.NotNil(t, back.Roots)
}
