package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjection_Rebuild_ResolvesTree(t *testing.T) {
	now := time.Now()
	folder := testFolder("folder", now)
	s1 := testSite("s1", strptr("folder"), now)
	s2 := testSite("s2", strptr("folder"), now)
	b := testSite("b", nil, now)

	idx := NewIndex()
	require.NoError(t, idx.InsertRoot("folder", -1))
	require.NoError(t, idx.InsertChild("folder", "s1", -1))
	require.NoError(t, idx.InsertChild("folder", "s2", -1))
	require.NoError(t, idx.InsertRoot("b", -1))

	p := NewProjection()
	dropped := p.Rebuild([]Item{folder, s1, s2, b}, idx)
	assert.Empty(t, dropped)

	roots := p.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, "folder", roots[0].Meta().ID)
	assert.Equal(t, "b", roots[1].Meta().ID)

	children := p.ChildrenOf("folder")
	require.Len(t, children, 2)
	assert.Equal(t, "s1", children[0].ID)
	assert.Equal(t, "s2", children[1].ID)

	got, ok := p.Get("s2")
	require.True(t, ok)
	assert.Equal(t, ItemTypeSite, got.Type())
	assert.Equal(t, 4, p.Len())
}

func TestProjection_Rebuild_DropsDanglingIDs(t *testing.T) {
	now := time.Now()
	folder := testFolder("folder", now)
	s1 := testSite("s1", strptr("folder"), now)

	idx := NewIndex()
	require.NoError(t, idx.InsertRoot("folder", -1))
	require.NoError(t, idx.InsertChild("folder", "s1", -1))
	require.NoError(t, idx.InsertChild("folder", "ghost-child", -1))
	require.NoError(t, idx.InsertRoot("ghost-root", -1))

	p := NewProjection()
	dropped := p.Rebuild([]Item{folder, s1}, idx)

	assert.ElementsMatch(t, []string{"ghost-child", "ghost-root"}, dropped)
	require.Len(t, p.Roots(), 1)
	require.Len(t, p.ChildrenOf("folder"), 1)
}

func TestProjection_ChildrenOf_UnknownID(t *testing.T) {
	p := NewProjection()
	assert.Nil(t, p.ChildrenOf("nope"))
}

func TestProjection_Folders_RootOrder(t *testing.T) {
	now := time.Now()
	f1 := testFolder("f1", now)
	f2 := testFolder("f2", now)
	s := testSite("s", nil, now)

	idx := NewIndex()
	require.NoError(t, idx.InsertRoot("f2", -1))
	require.NoError(t, idx.InsertRoot("s", -1))
	require.NoError(t, idx.InsertRoot("f1", -1))

	p := NewProjection()
	p.Rebuild([]Item{f1, f2, s}, idx)

	folders := p.Folders()
	require.Len(t, folders, 2)
	assert.Equal(t, "f2", folders[0].ID)
	assert.Equal(t, "f1", folders[1].ID)
}
