// ABOUTME: Tests for the contact endpoints
// ABOUTME: Covers tagging, sparse updates, search, pagination, notes rendering and isolation

package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) createContact(t *testing.T, cookie *http.Cookie, body map[string]any) contactResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/contacts", body, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[contactResponse](t, rec)
}

func tagNames(c contactResponse) []string {
	names := make([]string, 0, len(c.Tags))
	for _, tag := range c.Tags {
		names = append(names, tag.Name)
	}
	return names
}

func TestCreateContact(t *testing.T) {
	env := setupTestServer(t, Options{})
	cookie := env.login(t, "ada@example.com")
	work := env.createTag(t, cookie, "Work")
	friends := env.createTag(t, cookie, "Friends")

	c := env.createContact(t, cookie, map[string]any{
		"name":            "Charles Babbage",
		"email":           "charles@example.com",
		"country_code":    "+44",
		"whatsapp_number": "7700900123",
		"notes":           "Met at **the Society**",
		"tag_ids":         []int64{work.ID, friends.ID},
	})

	assert.NotZero(t, c.ID)
	assert.Equal(t, "Charles Babbage", c.Name)
	require.NotNil(t, c.Email)
	assert.Equal(t, "charles@example.com", *c.Email)
	assert.Nil(t, c.Phone)
	assert.Equal(t, []string{"Friends", "Work"}, tagNames(c))
	require.NotNil(t, c.NotesHTML)
	assert.Contains(t, *c.NotesHTML, "<strong>the Society</strong>")
	assert.False(t, c.CreatedAt.IsZero())
}

func TestCreateContact_NoTags(t *testing.T) {
	env := setupTestServer(t, Options{})
	cookie := env.login(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/contacts", map[string]any{"name": "Solo"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, []any{}, body["tags"])
	assert.Nil(t, body["notes_html"])
}

func TestCreateContact_NotesRawHTMLNotRendered(t *testing.T) {
	env := setupTestServer(t, Options{})
	cookie := env.login(t, "ada@example.com")

	c := env.createContact(t, cookie, map[string]any{
		"name":  "Mallory",
		"notes": "<script>alert(1)</script>",
	})

	require.NotNil(t, c.NotesHTML)
	assert.NotContains(t, *c.NotesHTML, "<script>")
	require.NotNil(t, c.Notes)
	assert.Equal(t, "<script>alert(1)</script>", *c.Notes)
}

func TestCreateContact_Errors(t *testing.T) {
	env := setupTestServer(t, Options{})
	ada := env.login(t, "ada@example.com")
	grace := env.login(t, "grace@example.com")
	graceTag := env.createTag(t, grace, "Secret")

	tests := []struct {
		name string
		body any
		want string
	}{
		{"no body", nil, "No data provided"},
		{"missing name", map[string]any{"email": "x@example.com"}, "Name is required"},
		{"blank name", map[string]any{"name": "  "}, "Name is required"},
		{"whatsapp without country", map[string]any{"name": "X", "whatsapp_number": "123"}, "Country code is required for WhatsApp number"},
		{"foreign tag", map[string]any{"name": "X", "tag_ids": []int64{graceTag.ID}}, fmt.Sprintf("unknown tag ids: %d", graceTag.ID)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/contacts", tt.body, ada)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, errorMessage(t, rec))
		})
	}

	rec := env.do(t, http.MethodGet, "/api/contacts", nil, ada)
	assert.Zero(t, decodeBody[contactListResponse](t, rec).Total)
}

func TestGetContact_Isolation(t *testing.T) {
	env := setupTestServer(t, Options{})
	ada := env.login(t, "ada@example.com")
	grace := env.login(t, "grace@example.com")
	c := env.createContact(t, ada, map[string]any{"name": "Charles"})
	path := fmt.Sprintf("/api/contacts/%d", c.ID)

	rec := env.do(t, http.MethodGet, path, nil, ada)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Charles", decodeBody[contactResponse](t, rec).Name)

	rec = env.do(t, http.MethodGet, path, nil, grace)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Contact not found", errorMessage(t, rec))
}

func TestListContacts_Pagination(t *testing.T) {
	env := setupTestServer(t, Options{})
	cookie := env.login(t, "ada@example.com")
	for i := 0; i < 25; i++ {
		env.createContact(t, cookie, map[string]any{"name": fmt.Sprintf("Contact %02d", i)})
	}

	rec := env.do(t, http.MethodGet, "/api/contacts?page=3&per_page=10", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	page := decodeBody[contactListResponse](t, rec)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 10, page.PerPage)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Contacts, 5)
	assert.Equal(t, "Contact 20", page.Contacts[0].Name)

	rec = env.do(t, http.MethodGet, "/api/contacts", nil, cookie)
	page = decodeBody[contactListResponse](t, rec)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PerPage)
	assert.Len(t, page.Contacts, 20)

	rec = env.do(t, http.MethodGet, "/api/contacts?page=bogus&per_page=1000", nil, cookie)
	page = decodeBody[contactListResponse](t, rec)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PerPage)
}

func TestListContacts_Empty(t *testing.T) {
	env := setupTestServer(t, Options{})
	cookie := env.login(t, "ada@example.com")

	rec := env.do(t, http.MethodGet, "/api/contacts", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"contacts":[],"total":0,"page":1,"per_page":20,"total_pages":0}`, rec.Body.String())
}

func TestListContacts_SearchAndTagFilter(t *testing.T) {
	env := setupTestServer(t, Options{})
	ada := env.login(t, "ada@example.com")
	grace := env.login(t, "grace@example.com")
	work := env.createTag(t, ada, "Work")
	graceTag := env.createTag(t, grace, "Work")

	env.createContact(t, ada, map[string]any{"name": "Charles", "company": "Analytical Engines", "tag_ids": []int64{work.ID}})
	env.createContact(t, ada, map[string]any{"name": "Mary", "email": "mary@engines.example"})
	env.createContact(t, ada, map[string]any{"name": "Percy"})
	env.createContact(t, grace, map[string]any{"name": "Engine Grace", "tag_ids": []int64{graceTag.ID}})

	rec := env.do(t, http.MethodGet, "/api/contacts?search=engine", nil, ada)
	page := decodeBody[contactListResponse](t, rec)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, "Charles", page.Contacts[0].Name)
	assert.Equal(t, "Mary", page.Contacts[1].Name)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/contacts?tag_id=%d", work.ID), nil, ada)
	page = decodeBody[contactListResponse](t, rec)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "Charles", page.Contacts[0].Name)
	assert.Equal(t, []string{"Work"}, tagNames(page.Contacts[0]))

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/contacts?tag_id=%d", graceTag.ID), nil, ada)
	assert.Zero(t, decodeBody[contactListResponse](t, rec).Total)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/contacts?search=mary&tag_id=%d", work.ID), nil, ada)
	assert.Zero(t, decodeBody[contactListResponse](t, rec).Total)
}

func TestUpdateContact(t *testing.T) {
	env := setupTestServer(t, Options{})
	cookie := env.login(t, "ada@example.com")
	work := env.createTag(t, cookie, "Work")
	friends := env.createTag(t, cookie, "Friends")
	c := env.createContact(t, cookie, map[string]any{
		"name":    "Charles",
		"email":   "charles@example.com",
		"phone":   "555-0100",
		"tag_ids": []int64{work.ID},
	})
	path := fmt.Sprintf("/api/contacts/%d", c.ID)

	// Absent keys are untouched, explicit null clears, tag_ids absent keeps tags.
	rec := env.do(t, http.MethodPut, path, `{"company":"Engines Ltd","phone":null}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[contactResponse](t, rec)
	assert.Equal(t, "Charles", got.Name)
	require.NotNil(t, got.Email)
	assert.Equal(t, "charles@example.com", *got.Email)
	assert.Nil(t, got.Phone)
	require.NotNil(t, got.Company)
	assert.Equal(t, "Engines Ltd", *got.Company)
	assert.Equal(t, []string{"Work"}, tagNames(got))

	rec = env.do(t, http.MethodPut, path, map[string]any{"tag_ids": []int64{friends.ID}}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Friends"}, tagNames(decodeBody[contactResponse](t, rec)))

	rec = env.do(t, http.MethodPut, path, map[string]any{"tag_ids": []int64{}}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[contactResponse](t, rec).Tags)
}

func TestUpdateContact_Errors(t *testing.T) {
	env := setupTestServer(t, Options{})
	ada := env.login(t, "ada@example.com")
	grace := env.login(t, "grace@example.com")
	c := env.createContact(t, ada, map[string]any{"name": "Charles"})
	path := fmt.Sprintf("/api/contacts/%d", c.ID)

	rec := env.do(t, http.MethodPut, path, nil, ada)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No data provided", errorMessage(t, rec))

	rec = env.do(t, http.MethodPut, path, map[string]any{"whatsapp_number": "123"}, ada)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Country code is required for WhatsApp number", errorMessage(t, rec))

	rec = env.do(t, http.MethodPut, path, `{"whatsapp_number":"123","country_code":null}`, ada)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, path, map[string]any{"whatsapp_number": "123", "country_code": "+1"}, ada)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, path, map[string]any{"name": "   "}, ada)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Name is required", errorMessage(t, rec))

	rec = env.do(t, http.MethodPut, path, `{"name":null}`, ada)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Name is required", errorMessage(t, rec))

	rec = env.do(t, http.MethodPut, path, map[string]any{"name": "Stolen"}, grace)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Contact not found", errorMessage(t, rec))

	rec = env.do(t, http.MethodGet, path, nil, ada)
	assert.Equal(t, "Charles", decodeBody[contactResponse](t, rec).Name)
}

func TestUpdateContact_TrimsName(t *testing.T) {
	env := setupTestServer(t, Options{})
	cookie := env.login(t, "ada@example.com")
	c := env.createContact(t, cookie, map[string]any{"name": "  Charles  "})
	assert.Equal(t, "Charles", c.Name)

	rec := env.do(t, http.MethodPut, fmt.Sprintf("/api/contacts/%d", c.ID), map[string]any{"name": "  Babbage "}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Babbage", decodeBody[contactResponse](t, rec).Name)
}

func TestListContacts_HugePage(t *testing.T) {
	env := setupTestServer(t, Options{})
	cookie := env.login(t, "ada@example.com")
	env.createContact(t, cookie, map[string]any{"name": "Charles"})

	rec := env.do(t, http.MethodGet, "/api/contacts?page=9223372036854775807&per_page=100", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	page := decodeBody[contactListResponse](t, rec)
	assert.Equal(t, 1, page.Total)
	assert.Empty(t, page.Contacts)
}

func TestDeleteContact(t *testing.T) {
	env := setupTestServer(t, Options{})
	ada := env.login(t, "ada@example.com")
	grace := env.login(t, "grace@example.com")
	c := env.createContact(t, ada, map[string]any{"name": "Charles"})
	path := fmt.Sprintf("/api/contacts/%d", c.ID)

	rec := env.do(t, http.MethodDelete, path, nil, grace)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, path, nil, ada)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Contact deleted successfully", decodeBody[map[string]string](t, rec)["message"])

	rec = env.do(t, http.MethodGet, path, nil, ada)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
