package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/highdesertlabs/porchlight/internal/db/models"
)

type webhookRequest struct {
	Name     string          `json:"name" validate:"required"`
	URL      string          `json:"url" validate:"required,url"`
	Method   string          `json:"method" validate:"omitempty,oneof=POST PUT PATCH"`
	Headers  json.RawMessage `json:"headers"`
	IsActive *bool           `json:"isActive"`
}

func (h *Handler) createWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	hook := models.WebhookConfig{
		Name:     req.Name,
		URL:      req.URL,
		Method:   req.Method,
		IsActive: true,
	}
	if hook.Method == "" {
		hook.Method = http.MethodPost
	}
	if req.Headers != nil {
		hook.Headers = datatypes.JSON(req.Headers)
	}
	if req.IsActive != nil {
		hook.IsActive = *req.IsActive
	}

	if err := h.db.WithContext(r.Context()).Create(&hook).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, hook)
}

func (h *Handler) listWebhooks(w http.ResponseWriter, r *http.Request) {
	var hooks []models.WebhookConfig
	if err := h.db.WithContext(r.Context()).Order("created_at ASC").Find(&hooks).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, hooks)
}

func (h *Handler) updateWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid webhook ID")
		return
	}

	var hook models.WebhookConfig
	if err := h.db.WithContext(r.Context()).First(&hook, "id = ?", id).Error; err != nil {
		respondError(w, http.StatusNotFound, "Webhook not found")
		return
	}

	var req struct {
		Name     *string         `json:"name"`
		URL      *string         `json:"url"`
		Method   *string         `json:"method"`
		Headers  json.RawMessage `json:"headers"`
		IsActive *bool           `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	applyOptional(&hook.Name, req.Name)
	applyOptional(&hook.URL, req.URL)
	applyOptional(&hook.Method, req.Method)
	if req.Headers != nil {
		hook.Headers = datatypes.JSON(req.Headers)
	}
	if req.IsActive != nil {
		hook.IsActive = *req.IsActive
	}

	if err := h.db.WithContext(r.Context()).Save(&hook).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, hook)
}

func (h *Handler) deleteWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid webhook ID")
		return
	}

	result := h.db.WithContext(r.Context()).Delete(&models.WebhookConfig{}, "id = ?", id)
	if result.Error != nil {
		respondServiceError(w, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, "Webhook not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
