// ABOUTME: Tests for the tag endpoints
// ABOUTME: Covers defaults, per-user uniqueness, ordering and cross-user isolation

package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) createTag(t *testing.T, cookie *http.Cookie, name string) tagResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/tags", map[string]string{"name": name}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[tagResponse](t, rec)
}

func TestCreateTag(t *testing.T) {
	env := setupTestServer(t, Options{})
	cookie := env.login(t, "ada@example.com")

	tag := env.createTag(t, cookie, "Friends")
	assert.NotZero(t, tag.ID)
	assert.Equal(t, "Friends", tag.Name)
	assert.Equal(t, "#3490dc", tag.Color)

	rec := env.do(t, http.MethodPost, "/api/tags", map[string]string{"name": "Work", "color": "#ff0000"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "#ff0000", decodeBody[tagResponse](t, rec).Color)
}

func TestCreateTag_Errors(t *testing.T) {
	env := setupTestServer(t, Options{})
	cookie := env.login(t, "ada@example.com")
	env.createTag(t, cookie, "Friends")

	tests := []struct {
		name string
		body any
		want string
	}{
		{"no body", nil, "No data provided"},
		{"missing name", map[string]string{"color": "#000"}, "Name is required"},
		{"empty name", map[string]string{"name": ""}, "Name is required"},
		{"duplicate", map[string]string{"name": "Friends"}, "Tag with this name already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/tags", tt.body, cookie)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, errorMessage(t, rec))
		})
	}
}

func TestListTags_SortedAndIsolated(t *testing.T) {
	env := setupTestServer(t, Options{})
	ada := env.login(t, "ada@example.com")
	grace := env.login(t, "grace@example.com")

	for _, name := range []string{"Work", "Family", "Gym"} {
		env.createTag(t, ada, name)
	}
	// Same name under another user is allowed.
	env.createTag(t, grace, "Work")

	rec := env.do(t, http.MethodGet, "/api/tags", nil, ada)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string][]tagResponse](t, rec)
	var names []string
	for _, tag := range body["tags"] {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"Family", "Gym", "Work"}, names)

	rec = env.do(t, http.MethodGet, "/api/tags", nil, env.login(t, "new@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tags":[]}`, rec.Body.String())
}

func TestUpdateTag(t *testing.T) {
	env := setupTestServer(t, Options{})
	ada := env.login(t, "ada@example.com")
	grace := env.login(t, "grace@example.com")
	tag := env.createTag(t, ada, "Friends")
	env.createTag(t, ada, "Work")
	path := fmt.Sprintf("/api/tags/%d", tag.ID)

	rec := env.do(t, http.MethodPut, path, map[string]string{"color": "#00ff00"}, ada)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tag updated successfully", decodeBody[map[string]string](t, rec)["message"])

	rec = env.do(t, http.MethodPut, path, map[string]string{"color": ""}, ada)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, path, map[string]string{"color": "#00ff00"}, ada)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, path, map[string]string{"name": "Work"}, ada)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Tag with this name already exists", errorMessage(t, rec))

	rec = env.do(t, http.MethodPut, path, map[string]string{"name": "Stolen"}, grace)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Tag not found", errorMessage(t, rec))

	rec = env.do(t, http.MethodPut, path, map[string]string{}, ada)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/tags/abc", map[string]string{"name": "x"}, ada)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/tags", nil, ada)
	body := decodeBody[map[string][]tagResponse](t, rec)
	require.Len(t, body["tags"], 2)
	assert.Equal(t, "Friends", body["tags"][0].Name)
	assert.Equal(t, "#00ff00", body["tags"][0].Color)
}

func TestDeleteTag(t *testing.T) {
	env := setupTestServer(t, Options{})
	ada := env.login(t, "ada@example.com")
	grace := env.login(t, "grace@example.com")
	tag := env.createTag(t, ada, "Friends")
	path := fmt.Sprintf("/api/tags/%d", tag.ID)

	rec := env.do(t, http.MethodDelete, path, nil, grace)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, path, nil, ada)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tag deleted successfully", decodeBody[map[string]string](t, rec)["message"])

	rec = env.do(t, http.MethodDelete, path, nil, ada)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Tag not found", errorMessage(t, rec))
}
