package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/highdesertlabs/porchlight/internal/leads"
)

// submitLead handles the public lead form POST. The body is the raw form
// field map; routing fields are pulled out and the rest is stored verbatim.
func (h *Handler) submitLead(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	hostname, _ := body["hostname"].(string)
	if hostname == "" {
		hostname = h.requestHostname(r)
	}
	slug, _ := body["slug"].(string)
	leadType, _ := body["type"].(string)
	delete(body, "hostname")
	delete(body, "slug")
	delete(body, "type")

	result, err := h.leads.Submit(r.Context(), leads.Submission{
		Hostname: hostname,
		Slug:     slug,
		Type:     leadType,
		FormData: body,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := map[string]interface{}{"ok": true}
	if result.Stored {
		resp["leadId"] = result.LeadID.String()
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) listLeads(w http.ResponseWriter, r *http.Request) {
	var domainID *uuid.UUID
	if raw := r.URL.Query().Get("domainId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid domain ID")
			return
		}
		domainID = &id
	}

	list, err := h.leads.List(r.Context(), domainID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}
