package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/highdesertlabs/porchlight/internal/config"
	"github.com/highdesertlabs/porchlight/internal/db/models"
	apperrors "github.com/highdesertlabs/porchlight/pkg/errors"
	"github.com/highdesertlabs/porchlight/pkg/logger"
)

const defaultTimeout = 15 * time.Second

// Payload is the JSON document delivered to every webhook target.
type Payload struct {
	ID        string                 `json:"id"`
	CreatedAt time.Time              `json:"createdAt"`
	Type      string                 `json:"type"`
	Status    models.LeadStatus      `json:"status"`
	FormData  map[string]interface{} `json:"formData"`
	Utm       PayloadUtm             `json:"utm"`
	Domain    PayloadDomain          `json:"domain"`
	Page      PayloadPage            `json:"page"`
	Meta      PayloadMeta            `json:"meta"`
}

type PayloadUtm struct {
	Source   string `json:"source,omitempty"`
	Medium   string `json:"medium,omitempty"`
	Campaign string `json:"campaign,omitempty"`
}

type PayloadDomain struct {
	Hostname    string `json:"hostname"`
	DisplayName string `json:"displayName"`
}

type PayloadPage struct {
	Slug     string          `json:"slug"`
	Headline string          `json:"headline"`
	Type     models.PageType `json:"type"`
}

type PayloadMeta struct {
	IsMultistep bool `json:"isMultistep"`
	StepsCount  int  `json:"stepsCount"`
}

// target is one resolved delivery destination.
type target struct {
	Name    string
	URL     string
	Method  string
	Headers map[string]string
}

// Dispatcher delivers lead payloads to all configured webhook targets.
// Delivery is at-most-once: failures are logged and never retried.
type Dispatcher struct {
	db        *gorm.DB
	zapierURL string
	client    *http.Client
}

func NewDispatcher(db *gorm.DB, cfg config.WebhooksConfig) *Dispatcher {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Dispatcher{
		db:        db,
		zapierURL: cfg.ZapierURL,
		client:    &http.Client{Timeout: timeout},
	}
}

// DispatchLead builds the payload for a stored lead and posts it to every
// active webhook config plus the static Zapier URL, concurrently. A target
// failure never affects the other targets.
func (d *Dispatcher) DispatchLead(ctx context.Context, leadID uuid.UUID) error {
	payload, err := d.buildPayload(ctx, leadID)
	if err != nil {
		return err
	}

	targets, err := d.loadTargets(ctx)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, t := range targets {
		wg.Add(1)
		go func(t target) {
			defer wg.Done()
			d.deliver(ctx, t, body, payload.ID)
		}(t)
	}
	wg.Wait()
	return nil
}

func (d *Dispatcher) buildPayload(ctx context.Context, leadID uuid.UUID) (*Payload, error) {
	var lead models.Lead
	err := d.db.WithContext(ctx).
		Preload("Domain").
		Preload("Page").
		First(&lead, "id = ?", leadID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLeadNotFound
		}
		return nil, err
	}

	return &Payload{
		ID:        lead.ID.String(),
		CreatedAt: lead.CreatedAt,
		Type:      lead.Type,
		Status:    lead.Status,
		FormData:  lead.FormDataMap(),
		Utm: PayloadUtm{
			Source:   lead.UtmSource,
			Medium:   lead.UtmMedium,
			Campaign: lead.UtmCampaign,
		},
		Domain: PayloadDomain{
			Hostname:    lead.Domain.Hostname,
			DisplayName: lead.Domain.DisplayName,
		},
		Page: PayloadPage{
			Slug:     lead.Page.Slug,
			Headline: lead.Page.Headline,
			Type:     lead.Page.Type,
		},
		Meta: PayloadMeta{
			IsMultistep: lead.IsMultistep(),
			StepsCount:  lead.StepCount(),
		},
	}, nil
}

func (d *Dispatcher) loadTargets(ctx context.Context) ([]target, error) {
	var configs []models.WebhookConfig
	err := d.db.WithContext(ctx).Where("is_active = ?", true).Find(&configs).Error
	if err != nil {
		return nil, err
	}

	targets := make([]target, 0, len(configs)+1)
	for _, c := range configs {
		targets = append(targets, target{
			Name:    c.Name,
			URL:     c.URL,
			Method:  c.Method,
			Headers: c.HeaderMap(),
		})
	}
	if d.zapierURL != "" {
		targets = append(targets, target{Name: "zapier", URL: d.zapierURL, Method: http.MethodPost})
	}
	return targets, nil
}

func (d *Dispatcher) deliver(ctx context.Context, t target, body []byte, leadID string) {
	method := t.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, t.URL, bytes.NewReader(body))
	if err != nil {
		logger.WarnEvent().Err(err).Str("webhook", t.Name).Str("lead_id", leadID).Msg("Could not build webhook request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		logger.WarnEvent().Err(err).Str("webhook", t.Name).Str("lead_id", leadID).Msg("Webhook delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		logger.WarnEvent().
			Str("webhook", t.Name).
			Str("lead_id", leadID).
			Int("status", resp.StatusCode).
			Msg("Webhook delivery rejected")
		return
	}
	logger.DebugEvent().Str("webhook", t.Name).Str("lead_id", leadID).Msg("Webhook delivered")
}
