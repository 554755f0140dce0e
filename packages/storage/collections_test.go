package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

func TestSaveCollectionLinksParent(t *testing.T) {
	s := newTestStore(t)

	root, err := s.SaveCollection(model.Collection{Name: "root"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(root.ID, "col_"))

	child, err := s.SaveCollection(model.Collection{Name: "child", ParentID: root.ID})
	require.NoError(t, err)

	got, err := s.GetCollection(root.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{child.ID}, got.Collections)

	_, err = s.SaveCollection(model.Collection{Name: "orphan", ParentID: "col_missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCollectionCascades(t *testing.T) {
	s := newTestStore(t)

	root, err := s.SaveCollection(model.Collection{Name: "root"})
	require.NoError(t, err)
	child, err := s.SaveCollection(model.Collection{Name: "child", ParentID: root.ID})
	require.NoError(t, err)
	grandchild, err := s.SaveCollection(model.Collection{Name: "grandchild", ParentID: child.ID})
	require.NoError(t, err)
	sibling, err := s.SaveCollection(model.Collection{Name: "sibling", ParentID: root.ID})
	require.NoError(t, err)

	_, err = s.SaveRequest(model.SavedRequest{Name: "in child", Method: "GET", URL: "u", CollectionID: child.ID})
	require.NoError(t, err)
	_, err = s.SaveRequest(model.SavedRequest{Name: "in grandchild", Method: "GET", URL: "u", CollectionID: grandchild.ID})
	require.NoError(t, err)
	keep, err := s.SaveRequest(model.SavedRequest{Name: "in sibling", Method: "GET", URL: "u", CollectionID: sibling.ID})
	require.NoError(t, err)

	_, err = s.SaveEnvironment(model.Environment{Name: "child env", CollectionID: grandchild.ID, IsActive: true})
	require.NoError(t, err)
	keepEnv, err := s.SaveEnvironment(model.Environment{Name: "root env", CollectionID: root.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteCollection(child.ID))

	cols, err := s.LoadCollections()
	require.NoError(t, err)
	var ids []string
	for _, c := range cols {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{root.ID, sibling.ID}, ids)

	gotRoot, err := s.GetCollection(root.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{sibling.ID}, gotRoot.Collections)

	reqs, err := s.LoadRequests()
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, keep.ID, reqs[0].ID)

	envs, err := s.LoadEnvironments()
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, keepEnv.ID, envs[0].ID)

	active, err := s.ActiveEnvironment()
	require.NoError(t, err)
	assert.Nil(t, active)

	assert.ErrorIs(t, s.DeleteCollection(child.ID), ErrNotFound)
}

func TestCollectionAuth(t *testing.T) {
	s := newTestStore(t)
	bearer := &model.RequestAuth{Type: model.AuthBearer, Bearer: []model.AuthVariable{{Key: "token", Value: "{{api_token}}"}}}

	col, err := s.SaveCollection(model.Collection{Name: "api", Auth: bearer})
	require.NoError(t, err)

	got, err := s.CollectionAuth(col.ID)
	require.NoError(t, err)
	assert.Equal(t, bearer, got)

	got, err = s.CollectionAuth("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = s.CollectionAuth("col_missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// a child does not inherit its parent's auth
	child, err := s.SaveCollection(model.Collection{Name: "child", ParentID: col.ID})
	require.NoError(t, err)
	got, err = s.CollectionAuth(child.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateCollection(t *testing.T) {
	s := newTestStore(t)
	col, err := s.SaveCollection(model.Collection{Name: "api"})
	require.NoError(t, err)

	basic := &model.RequestAuth{Type: model.AuthBasic, Basic: []model.AuthVariable{{Key: "username", Value: "u"}}}
	updated, err := s.UpdateCollection(col.ID, CollectionUpdate{Name: ptr("API"), Auth: basic})
	require.NoError(t, err)
	assert.Equal(t, "API", updated.Name)
	assert.Equal(t, basic, updated.Auth)

	// the stored copy does not alias the argument
	basic.Basic[0].Value = "changed"
	got, err := s.GetCollection(col.ID)
	require.NoError(t, err)
	assert.Equal(t, "u", got.Auth.Basic[0].Value)

	updated, err = s.UpdateCollection(col.ID, CollectionUpdate{ClearAuth: true})
	require.NoError(t, err)
	assert.Nil(t, updated.Auth)

	_, err = s.UpdateCollection("col_missing", CollectionUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindCollection(t *testing.T) {
	s := newTestStore(t)
	col, err := s.SaveCollection(model.Collection{Name: "Users API"})
	require.NoError(t, err)

	got, err := s.FindCollection("users api")
	require.NoError(t, err)
	assert.Equal(t, col.ID, got.ID)

	_, err = s.FindCollection("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubtreeToleratesCycles(t *testing.T) {
	cols := []model.Collection{
		{ID: "a", Collections: []string{"b"}},
		{ID: "b", ParentID: "a", Collections: []string{"a"}},
		{ID: "c"},
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, subtree(cols, "a"))
}
