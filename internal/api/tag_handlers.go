// ABOUTME: HTTP handlers for per-user tag CRUD
// ABOUTME: Every operation is scoped to the authenticated caller

package api

import (
	"net/http"

	"github.com/2389/coven-contacts/internal/auth"
	"github.com/2389/coven-contacts/internal/store"
)

type tagResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type tagRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func toTagResponse(t *store.Tag) tagResponse {
	return tagResponse{ID: t.ID, Name: t.Name, Color: t.Color}
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())

	tags, err := s.store.ListTags(r.Context(), id.UserID)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}

	out := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, toTagResponse(t))
	}
	s.sendJSON(w, http.StatusOK, map[string]any{"tags": out})
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())

	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "No data provided")
		return
	}
	if req.Name == nil || *req.Name == "" {
		s.sendJSONError(w, http.StatusBadRequest, "Name is required")
		return
	}

	tag, err := s.store.CreateTag(r.Context(), id.UserID, *req.Name, req.Color)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}

	s.sendJSON(w, http.StatusCreated, toTagResponse(tag))
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())

	tagID, ok := pathID(r)
	if !ok {
		s.sendJSONError(w, http.StatusNotFound, "Tag not found")
		return
	}

	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "No data provided")
		return
	}

	updated, err := s.store.UpdateTag(r.Context(), tagID, id.UserID, req.Name, req.Color)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}
	if !updated {
		s.sendJSONError(w, http.StatusNotFound, "Tag not found")
		return
	}

	s.sendJSON(w, http.StatusOK, map[string]string{"message": "Tag updated successfully"})
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())

	tagID, ok := pathID(r)
	if !ok {
		s.sendJSONError(w, http.StatusNotFound, "Tag not found")
		return
	}

	deleted, err := s.store.DeleteTag(r.Context(), tagID, id.UserID)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}
	if !deleted {
		s.sendJSONError(w, http.StatusNotFound, "Tag not found")
		return
	}

	s.sendJSON(w, http.StatusOK, map[string]string{"message": "Tag deleted successfully"})
}
