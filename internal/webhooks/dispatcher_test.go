package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/highdesertlabs/porchlight/internal/config"
	"github.com/highdesertlabs/porchlight/internal/db/models"
	apperrors "github.com/highdesertlabs/porchlight/pkg/errors"
)

func setupWebhookTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Domain{},
		&models.LandingPage{},
		&models.Lead{},
		&models.WebhookConfig{},
	))
	return db
}

func seedLead(t *testing.T, db *gorm.DB, formData string) *models.Lead {
	t.Helper()
	domain := &models.Domain{
		Hostname:    "bendhomes.us",
		DisplayName: "Bend Homes",
		IsActive:    true,
	}
	require.NoError(t, db.Create(domain).Error)

	page := &models.LandingPage{
		DomainID: domain.ID,
		Slug:     "cash-offer",
		Type:     models.PageTypeBuyer,
		Status:   models.PageStatusPublished,
		Headline: "Find Your Dream Home",
	}
	require.NoError(t, db.Create(page).Error)

	lead := &models.Lead{
		DomainID:    domain.ID,
		PageID:      page.ID,
		Type:        "buyer",
		FormData:    []byte(formData),
		UtmSource:   "google",
		UtmMedium:   "cpc",
		UtmCampaign: "spring",
		Status:      models.LeadStatusNew,
	}
	require.NoError(t, db.Create(lead).Error)
	return lead
}

type capture struct {
	mu      sync.Mutex
	bodies  []Payload
	headers []http.Header
	methods []string
}

func captureServer(t *testing.T, c *capture, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var p Payload
		require.NoError(t, json.Unmarshal(raw, &p))
		c.mu.Lock()
		c.bodies = append(c.bodies, p)
		c.headers = append(c.headers, r.Header.Clone())
		c.methods = append(c.methods, r.Method)
		c.mu.Unlock()
		w.WriteHeader(status)
	}))
}

func TestDispatchLead_PayloadShape(t *testing.T) {
	db := setupWebhookTestDB(t)
	lead := seedLead(t, db, `{"email":"jane@example.com","step1":{"q":"a"},"step2":{"q":"b"}}`)

	var c capture
	srv := captureServer(t, &c, http.StatusOK)
	defer srv.Close()

	require.NoError(t, db.Create(&models.WebhookConfig{
		Name:     "crm",
		URL:      srv.URL,
		IsActive: true,
	}).Error)

	d := NewDispatcher(db, config.WebhooksConfig{Timeout: "5s"})
	require.NoError(t, d.DispatchLead(context.Background(), lead.ID))

	require.Len(t, c.bodies, 1)
	p := c.bodies[0]
	assert.Equal(t, lead.ID.String(), p.ID)
	assert.Equal(t, "buyer", p.Type)
	assert.Equal(t, models.LeadStatusNew, p.Status)
	assert.Equal(t, "jane@example.com", p.FormData["email"])
	assert.Equal(t, "google", p.Utm.Source)
	assert.Equal(t, "cpc", p.Utm.Medium)
	assert.Equal(t, "spring", p.Utm.Campaign)
	assert.Equal(t, "bendhomes.us", p.Domain.Hostname)
	assert.Equal(t, "Bend Homes", p.Domain.DisplayName)
	assert.Equal(t, "cash-offer", p.Page.Slug)
	assert.Equal(t, "Find Your Dream Home", p.Page.Headline)
	assert.True(t, p.Meta.IsMultistep)
	assert.Equal(t, 2, p.Meta.StepsCount)
}

func TestDispatchLead_SingleStepMeta(t *testing.T) {
	db := setupWebhookTestDB(t)
	lead := seedLead(t, db, `{"email":"jane@example.com"}`)

	var c capture
	srv := captureServer(t, &c, http.StatusOK)
	defer srv.Close()

	require.NoError(t, db.Create(&models.WebhookConfig{Name: "crm", URL: srv.URL, IsActive: true}).Error)

	d := NewDispatcher(db, config.WebhooksConfig{Timeout: "5s"})
	require.NoError(t, d.DispatchLead(context.Background(), lead.ID))

	require.Len(t, c.bodies, 1)
	assert.False(t, c.bodies[0].Meta.IsMultistep)
	assert.Zero(t, c.bodies[0].Meta.StepsCount)
}

func TestDispatchLead_MethodAndHeaders(t *testing.T) {
	db := setupWebhookTestDB(t)
	lead := seedLead(t, db, `{"email":"jane@example.com"}`)

	var c capture
	srv := captureServer(t, &c, http.StatusOK)
	defer srv.Close()

	require.NoError(t, db.Create(&models.WebhookConfig{
		Name:     "crm",
		URL:      srv.URL,
		Method:   http.MethodPut,
		Headers:  []byte(`{"X-Api-Key":"secret-key"}`),
		IsActive: true,
	}).Error)

	d := NewDispatcher(db, config.WebhooksConfig{Timeout: "5s"})
	require.NoError(t, d.DispatchLead(context.Background(), lead.ID))

	require.Len(t, c.methods, 1)
	assert.Equal(t, http.MethodPut, c.methods[0])
	assert.Equal(t, "secret-key", c.headers[0].Get("X-Api-Key"))
	assert.Equal(t, "application/json", c.headers[0].Get("Content-Type"))
}

func TestDispatchLead_FanOutWithIsolation(t *testing.T) {
	db := setupWebhookTestDB(t)
	lead := seedLead(t, db, `{"email":"jane@example.com"}`)

	var good, zapier capture
	goodSrv := captureServer(t, &good, http.StatusOK)
	defer goodSrv.Close()
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()
	zapierSrv := captureServer(t, &zapier, http.StatusOK)
	defer zapierSrv.Close()

	require.NoError(t, db.Create(&models.WebhookConfig{Name: "good", URL: goodSrv.URL, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.WebhookConfig{Name: "failing", URL: failing.URL, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.WebhookConfig{Name: "disabled", URL: goodSrv.URL, IsActive: false}).Error)

	d := NewDispatcher(db, config.WebhooksConfig{ZapierURL: zapierSrv.URL, Timeout: "5s"})
	require.NoError(t, d.DispatchLead(context.Background(), lead.ID))

	// One delivery to the healthy hook and one to Zapier despite the failure;
	// the inactive hook is skipped.
	assert.Len(t, good.bodies, 1)
	assert.Len(t, zapier.bodies, 1)
}

func TestDispatchLead_UnknownLead(t *testing.T) {
	db := setupWebhookTestDB(t)
	d := NewDispatcher(db, config.WebhooksConfig{Timeout: "5s"})
	err := d.DispatchLead(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrLeadNotFound)
}

func TestDispatchLead_NoTargets(t *testing.T) {
	db := setupWebhookTestDB(t)
	lead := seedLead(t, db, `{"email":"jane@example.com"}`)

	d := NewDispatcher(db, config.WebhooksConfig{Timeout: "5s"})
	assert.NoError(t, d.DispatchLead(context.Background(), lead.ID))
}
