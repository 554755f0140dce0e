package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

func TestSaveRequest(t *testing.T) {
	s := newTestStore(t)
	col, err := s.SaveCollection(model.Collection{Name: "api"})
	require.NoError(t, err)

	req, err := s.SaveRequest(model.SavedRequest{
		Name:         "list users",
		Method:       "GET",
		URL:          "{{host}}/users",
		Headers:      []model.Header{{Key: "Accept", Value: "application/json"}},
		CollectionID: col.ID,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(req.ID, "req_"))

	got, err := s.GetRequest(req.ID)
	require.NoError(t, err)
	assert.Equal(t, req, got)

	_, err = s.SaveRequest(model.SavedRequest{Name: "x", Method: "GET", CollectionID: "col_missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestsByCollection(t *testing.T) {
	s := newTestStore(t)
	col, err := s.SaveCollection(model.Collection{Name: "api"})
	require.NoError(t, err)

	_, err = s.SaveRequest(model.SavedRequest{Name: "filed", Method: "GET", CollectionID: col.ID})
	require.NoError(t, err)
	_, err = s.SaveRequest(model.SavedRequest{Name: "loose", Method: "GET"})
	require.NoError(t, err)

	filed, err := s.RequestsByCollection(col.ID)
	require.NoError(t, err)
	require.Len(t, filed, 1)
	assert.Equal(t, "filed", filed[0].Name)

	loose, err := s.RequestsByCollection("")
	require.NoError(t, err)
	require.Len(t, loose, 1)
	assert.Equal(t, "loose", loose[0].Name)
}

func TestUpdateAndDeleteRequest(t *testing.T) {
	s := newTestStore(t)
	req, err := s.SaveRequest(model.SavedRequest{
		Name:   "create",
		Method: "POST",
		URL:    "/a",
		Auth:   &model.RequestAuth{Type: model.AuthNoAuth},
	})
	require.NoError(t, err)

	updated, err := s.UpdateRequest(req.ID, RequestUpdate{URL: ptr("/b"), ClearAuth: true})
	require.NoError(t, err)
	assert.Equal(t, "/b", updated.URL)
	assert.Equal(t, "POST", updated.Method)
	assert.Nil(t, updated.Auth)

	_, err = s.UpdateRequest(req.ID, RequestUpdate{CollectionID: ptr("col_missing")})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.FindRequest("CREATE")
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)

	require.NoError(t, s.DeleteRequest(req.ID))
	assert.ErrorIs(t, s.DeleteRequest(req.ID), ErrNotFound)
}
