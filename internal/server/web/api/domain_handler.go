package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/highdesertlabs/porchlight/internal/db/models"
	"github.com/highdesertlabs/porchlight/pkg/utils"
)

type domainRequest struct {
	Hostname     string `json:"hostname" validate:"required,hostname_rfc1123"`
	DisplayName  string `json:"displayName" validate:"required"`
	LogoURL      string `json:"logoUrl" validate:"omitempty,url"`
	AgentPhoto   string `json:"agentPhoto" validate:"omitempty,url"`
	PrimaryColor string `json:"primaryColor" validate:"omitempty,hexcolor"`
	AccentColor  string `json:"accentColor" validate:"omitempty,hexcolor"`
	GA4ID        string `json:"ga4Id"`
	MetaPixelID  string `json:"metaPixelId"`
	NotifyEmail  string `json:"notifyEmail" validate:"omitempty,email"`
	NotifySMS    string `json:"notifySms" validate:"omitempty,e164"`
	IsActive     *bool  `json:"isActive"`
}

func (h *Handler) createDomain(w http.ResponseWriter, r *http.Request) {
	var req domainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Hostname = utils.NormalizeHostname(req.Hostname)
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	domain := models.Domain{
		Hostname:     req.Hostname,
		DisplayName:  req.DisplayName,
		LogoURL:      req.LogoURL,
		AgentPhoto:   req.AgentPhoto,
		GA4ID:        req.GA4ID,
		MetaPixelID:  req.MetaPixelID,
		NotifyEmail:  req.NotifyEmail,
		NotifySMS:    req.NotifySMS,
		IsActive:     true,
	}
	if req.PrimaryColor != "" {
		domain.PrimaryColor = req.PrimaryColor
	}
	if req.AccentColor != "" {
		domain.AccentColor = req.AccentColor
	}
	if req.IsActive != nil {
		domain.IsActive = *req.IsActive
	}

	if err := h.db.WithContext(r.Context()).Create(&domain).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondError(w, http.StatusConflict, "Hostname already registered")
			return
		}
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, domain)
}

func (h *Handler) listDomains(w http.ResponseWriter, r *http.Request) {
	var domains []models.Domain
	if err := h.db.WithContext(r.Context()).Order("hostname ASC").Find(&domains).Error; err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, domains)
}

func (h *Handler) getDomain(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid domain ID")
		return
	}

	var domain models.Domain
	if err := h.db.WithContext(r.Context()).First(&domain, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Domain not found")
			return
		}
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, domain)
}

func (h *Handler) updateDomain(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid domain ID")
		return
	}

	var domain models.Domain
	if err := h.db.WithContext(r.Context()).First(&domain, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Domain not found")
			return
		}
		respondServiceError(w, err)
		return
	}

	// Partial update: absent fields keep their current values.
	var req struct {
		Hostname     *string `json:"hostname"`
		DisplayName  *string `json:"displayName"`
		LogoURL      *string `json:"logoUrl"`
		AgentPhoto   *string `json:"agentPhoto"`
		PrimaryColor *string `json:"primaryColor"`
		AccentColor  *string `json:"accentColor"`
		GA4ID        *string `json:"ga4Id"`
		MetaPixelID  *string `json:"metaPixelId"`
		NotifyEmail  *string `json:"notifyEmail"`
		NotifySMS    *string `json:"notifySms"`
		IsActive     *bool   `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Hostname != nil {
		hostname := utils.NormalizeHostname(*req.Hostname)
		if hostname == "" {
			respondError(w, http.StatusBadRequest, "Hostname cannot be empty")
			return
		}
		domain.Hostname = hostname
	}
	applyOptional(&domain.DisplayName, req.DisplayName)
	applyOptional(&domain.LogoURL, req.LogoURL)
	applyOptional(&domain.AgentPhoto, req.AgentPhoto)
	applyOptional(&domain.PrimaryColor, req.PrimaryColor)
	applyOptional(&domain.AccentColor, req.AccentColor)
	applyOptional(&domain.GA4ID, req.GA4ID)
	applyOptional(&domain.MetaPixelID, req.MetaPixelID)
	applyOptional(&domain.NotifyEmail, req.NotifyEmail)
	applyOptional(&domain.NotifySMS, req.NotifySMS)
	if req.IsActive != nil {
		domain.IsActive = *req.IsActive
	}

	if err := h.db.WithContext(r.Context()).Save(&domain).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondError(w, http.StatusConflict, "Hostname already registered")
			return
		}
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, domain)
}

func (h *Handler) deleteDomain(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid domain ID")
		return
	}

	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var pageIDs []uuid.UUID
		if err := tx.Model(&models.LandingPage{}).Where("domain_id = ?", id).Pluck("id", &pageIDs).Error; err != nil {
			return err
		}
		if len(pageIDs) > 0 {
			if err := tx.Where("page_id IN ?", pageIDs).Delete(&models.PageLayout{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("domain_id = ?", id).Delete(&models.Lead{}).Error; err != nil {
			return err
		}
		if err := tx.Where("domain_id = ?", id).Delete(&models.LandingPage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Domain{}, "id = ?", id).Error
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	h.cache.Purge()
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func applyOptional(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
