package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/highdesertlabs/porchlight/internal/pages"
)

func (h *Handler) createPage(w http.ResponseWriter, r *http.Request) {
	var req pages.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	page, err := h.pages.CreateFromTemplate(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, page)
}

func (h *Handler) listPages(w http.ResponseWriter, r *http.Request) {
	var domainID *uuid.UUID
	if raw := r.URL.Query().Get("domainId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid domain ID")
			return
		}
		domainID = &id
	}

	list, err := h.pages.List(r.Context(), domainID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) getPage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}

	page, err := h.pages.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// getPageGraph serves the page's blocks as the editor's node graph document.
func (h *Handler) getPageGraph(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}

	graph, err := h.pages.EditorGraph(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, graph)
}

func (h *Handler) updatePage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}

	var req pages.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	page, err := h.pages.Update(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handler) deletePage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page ID")
		return
	}

	if err := h.pages.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) duplicatePage(w http.ResponseWriter, r *http.Request) {
	var req pages.DuplicateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	page, err := h.pages.Duplicate(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, page)
}
