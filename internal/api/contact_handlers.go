// ABOUTME: HTTP handlers for contact CRUD, search and pagination
// ABOUTME: Renders contact notes from Markdown into notes_html with goldmark

package api

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/2389/coven-contacts/internal/auth"
	"github.com/2389/coven-contacts/internal/store"
)

type contactResponse struct {
	ID             int64              `json:"id"`
	Name           string             `json:"name"`
	Email          *string            `json:"email"`
	Phone          *string            `json:"phone"`
	CountryCode    *string            `json:"country_code"`
	WhatsappNumber *string            `json:"whatsapp_number"`
	Company        *string            `json:"company"`
	AvatarURL      *string            `json:"avatar_url"`
	Notes          *string            `json:"notes"`
	NotesHTML      *string            `json:"notes_html"`
	Tags           []store.ContactTag `json:"tags"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

type contactListResponse struct {
	Contacts   []contactResponse `json:"contacts"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
}

type createContactRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	CountryCode    *string `json:"country_code"`
	WhatsappNumber *string `json:"whatsapp_number"`
	Company        *string `json:"company"`
	AvatarURL      *string `json:"avatar_url"`
	Notes          *string `json:"notes"`
	TagIDs         []int64 `json:"tag_ids"`
}

// updateContactRequest distinguishes absent keys from explicit nulls.
// TagIDs nil means keep the current tags; a present array replaces them.
type updateContactRequest struct {
	Name           store.Optional `json:"name"`
	Email          store.Optional `json:"email"`
	Phone          store.Optional `json:"phone"`
	CountryCode    store.Optional `json:"country_code"`
	WhatsappNumber store.Optional `json:"whatsapp_number"`
	Company        store.Optional `json:"company"`
	AvatarURL      store.Optional `json:"avatar_url"`
	Notes          store.Optional `json:"notes"`
	TagIDs         *[]int64       `json:"tag_ids"`
}

// patch converts the request into a store patch. A supplied name is trimmed
// the same way as on create.
func (req updateContactRequest) patch() store.ContactPatch {
	name := req.Name
	if name.Set && name.Value != nil {
		name = store.Some(strings.TrimSpace(*name.Value))
	}
	return store.ContactPatch{
		Name:           name,
		Email:          req.Email,
		Phone:          req.Phone,
		CountryCode:    req.CountryCode,
		WhatsappNumber: req.WhatsappNumber,
		Company:        req.Company,
		AvatarURL:      req.AvatarURL,
		Notes:          req.Notes,
	}
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// renderNotes converts Markdown notes to HTML. Rendering failures leave
// notes_html null rather than failing the request.
func (s *Server) renderNotes(notes *string) *string {
	if isBlank(notes) {
		return nil
	}
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(*notes), &buf); err != nil {
		s.logger.Warn("failed to render notes", "error", err)
		return nil
	}
	html := buf.String()
	return &html
}

func (s *Server) toContactResponse(c *store.Contact) contactResponse {
	tags := c.Tags
	if tags == nil {
		tags = []store.ContactTag{}
	}
	return contactResponse{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		CountryCode:    c.CountryCode,
		WhatsappNumber: c.WhatsappNumber,
		Company:        c.Company,
		AvatarURL:      c.AvatarURL,
		Notes:          c.Notes,
		NotesHTML:      s.renderNotes(c.Notes),
		Tags:           tags,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())

	params := store.ListContactsParams{
		OwnerID: id.UserID,
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", store.DefaultPerPage),
		Search:  strings.TrimSpace(r.URL.Query().Get("search")),
		TagID:   int64(queryInt(r, "tag_id", 0)),
	}

	page, err := s.store.ListContacts(r.Context(), params)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}

	resp := contactListResponse{
		Contacts:   make([]contactResponse, 0, len(page.Contacts)),
		Total:      page.Total,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: page.TotalPages,
	}
	for _, c := range page.Contacts {
		resp.Contacts = append(resp.Contacts, s.toContactResponse(c))
	}
	s.sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())

	contactID, ok := pathID(r)
	if !ok {
		s.sendJSONError(w, http.StatusNotFound, "Contact not found")
		return
	}

	contact, err := s.store.GetContact(r.Context(), contactID, id.UserID)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}

	s.sendJSON(w, http.StatusOK, s.toContactResponse(contact))
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())

	var req createContactRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "No data provided")
		return
	}
	if isBlank(req.Name) {
		s.sendJSONError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if !isBlank(req.WhatsappNumber) && isBlank(req.CountryCode) {
		s.sendJSONError(w, http.StatusBadRequest, "Country code is required for WhatsApp number")
		return
	}

	fields := store.ContactFields{
		Name:           strings.TrimSpace(*req.Name),
		Email:          req.Email,
		Phone:          req.Phone,
		CountryCode:    req.CountryCode,
		WhatsappNumber: req.WhatsappNumber,
		Company:        req.Company,
		AvatarURL:      req.AvatarURL,
		Notes:          req.Notes,
	}
	tagIDs := req.TagIDs
	if tagIDs == nil {
		tagIDs = []int64{}
	}

	contact, err := s.store.CreateContact(r.Context(), id.UserID, fields, tagIDs)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}

	s.sendJSON(w, http.StatusCreated, s.toContactResponse(contact))
}

func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())

	contactID, ok := pathID(r)
	if !ok {
		s.sendJSONError(w, http.StatusNotFound, "Contact not found")
		return
	}

	var req updateContactRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "No data provided")
		return
	}
	if req.WhatsappNumber.Set && !isBlank(req.WhatsappNumber.Value) && isBlank(req.CountryCode.Value) {
		s.sendJSONError(w, http.StatusBadRequest, "Country code is required for WhatsApp number")
		return
	}

	contact, err := s.store.UpdateContact(r.Context(), contactID, id.UserID, req.patch(), req.TagIDs)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}

	s.sendJSON(w, http.StatusOK, s.toContactResponse(contact))
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())

	contactID, ok := pathID(r)
	if !ok {
		s.sendJSONError(w, http.StatusNotFound, "Contact not found")
		return
	}

	deleted, err := s.store.DeleteContact(r.Context(), contactID, id.UserID)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}
	if !deleted {
		s.sendJSONError(w, http.StatusNotFound, "Contact not found")
		return
	}

	s.sendJSON(w, http.StatusOK, map[string]string{"message": "Contact deleted successfully"})
}
