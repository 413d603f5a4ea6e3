package leads

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/highdesertlabs/porchlight/internal/captcha"
	"github.com/highdesertlabs/porchlight/internal/db/models"
	apperrors "github.com/highdesertlabs/porchlight/pkg/errors"
	"github.com/highdesertlabs/porchlight/pkg/logger"
	"github.com/highdesertlabs/porchlight/pkg/utils"
)

// Honeypot field name. Bots fill it; humans never see it.
const honeypotField = "website"

// Dispatcher receives persisted lead IDs for downstream fan-out. The HTTP
// response never waits for it.
type Dispatcher interface {
	Dispatch(leadID uuid.UUID)
}

// Submission is one public lead form POST.
type Submission struct {
	Hostname string                 `json:"hostname"`
	Slug     string                 `json:"slug"`
	Type     string                 `json:"type"`
	FormData map[string]interface{} `json:"formData"`
}

// Result reports what happened to a submission. Stored is false for honeypot
// hits, which are accepted without leaving a trace.
type Result struct {
	LeadID uuid.UUID
	Stored bool
}

// Service validates and persists lead submissions, then hands them to the
// dispatcher for fan-out.
type Service struct {
	db         *gorm.DB
	verifier   *captcha.Verifier
	dispatcher Dispatcher
}

func NewService(db *gorm.DB, verifier *captcha.Verifier, dispatcher Dispatcher) *Service {
	return &Service{db: db, verifier: verifier, dispatcher: dispatcher}
}

// Submit processes one lead submission: honeypot check, required-field and
// captcha validation, domain and page resolution, multistep merge, UTM
// extraction, persistence, fan-out.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Result, error) {
	formData := sub.FormData
	if formData == nil {
		formData = map[string]interface{}{}
	}

	// Bots that fill the honeypot get a success response and nothing else.
	if value, _ := formData[honeypotField].(string); value != "" {
		logger.DebugEvent().Str("hostname", sub.Hostname).Str("slug", sub.Slug).Msg("Honeypot tripped, dropping submission")
		return &Result{Stored: false}, nil
	}

	hostname := utils.NormalizeHostname(sub.Hostname)
	slug := strings.TrimSpace(sub.Slug)
	leadType := strings.TrimSpace(sub.Type)
	if hostname == "" || slug == "" || leadType == "" {
		return nil, apperrors.ErrMissingLeadFields
	}
	if !models.PageType(leadType).IsValid() {
		return nil, apperrors.ErrInvalidPageType
	}

	token, _ := formData["recaptchaToken"].(string)
	verification := s.verifier.Verify(ctx, token)
	if !verification.OK {
		return nil, apperrors.ErrCaptchaFailed
	}
	if !verification.Skipped {
		logger.DebugEvent().Float64("score", verification.Score).Msg("Captcha verified")
	}

	var domain models.Domain
	err := s.db.WithContext(ctx).
		Where("hostname = ? AND is_active = ?", hostname, true).
		First(&domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDomainNotFound
		}
		return nil, err
	}

	var page models.LandingPage
	err = s.db.WithContext(ctx).
		Where("domain_id = ? AND slug = ? AND status = ?", domain.ID, slug, models.PageStatusPublished).
		First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPageNotFound
		}
		return nil, err
	}

	mergeMultistepData(formData)
	utmSource := popString(formData, "utm_source")
	utmMedium := popString(formData, "utm_medium")
	utmCampaign := popString(formData, "utm_campaign")

	raw, err := json.Marshal(formData)
	if err != nil {
		return nil, err
	}

	lead := &models.Lead{
		DomainID:    domain.ID,
		PageID:      page.ID,
		Type:        leadType,
		FormData:    raw,
		UtmSource:   utmSource,
		UtmMedium:   utmMedium,
		UtmCampaign: utmCampaign,
		Status:      models.LeadStatusNew,
	}
	if err := s.db.WithContext(ctx).Create(lead).Error; err != nil {
		return nil, err
	}

	logger.InfoEvent().
		Str("lead_id", lead.ID.String()).
		Str("hostname", hostname).
		Str("slug", slug).
		Str("type", leadType).
		Msg("Lead captured")

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(lead.ID)
	}
	return &Result{LeadID: lead.ID, Stored: true}, nil
}

// List returns leads newest first, optionally filtered to one domain.
func (s *Service) List(ctx context.Context, domainID *uuid.UUID) ([]models.Lead, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if domainID != nil {
		q = q.Where("domain_id = ?", *domainID)
	}
	var leads []models.Lead
	if err := q.Find(&leads).Error; err != nil {
		return nil, err
	}
	return leads, nil
}

// mergeMultistepData folds the _multistepData JSON string, sent by multistep
// funnels as one flat field, into the form data proper.
func mergeMultistepData(formData map[string]interface{}) {
	raw, ok := formData["_multistepData"].(string)
	delete(formData, "_multistepData")
	if !ok || raw == "" {
		return
	}
	var steps map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		logger.WarnEvent().Err(err).Msg("Ignoring malformed multistep data")
		return
	}
	for key, value := range steps {
		formData[key] = value
	}
}

func popString(formData map[string]interface{}, key string) string {
	value, _ := formData[key].(string)
	delete(formData, key)
	return value
}
