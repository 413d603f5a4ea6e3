package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/highdesertlabs/porchlight/internal/config"
	"github.com/highdesertlabs/porchlight/internal/db/models"
	"github.com/highdesertlabs/porchlight/pkg/utils"
)

type recordingDispatcher struct {
	leadIDs []uuid.UUID
}

func (d *recordingDispatcher) Dispatch(leadID uuid.UUID) {
	d.leadIDs = append(d.leadIDs, leadID)
}

type apiTestEnv struct {
	handler    *Handler
	mux        *http.ServeMux
	db         *gorm.DB
	dispatcher *recordingDispatcher
}

func setupAPITest(t *testing.T) *apiTestEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.AdminUser{},
		&models.Domain{},
		&models.MasterTemplate{},
		&models.LandingPage{},
		&models.PageLayout{},
		&models.Lead{},
		&models.WebhookConfig{},
	))

	cfg := &config.Config{}
	cfg.Server.DefaultHostname = "bendhomes.us"
	cfg.Auth.JWTSecret = "test-secret"

	dispatcher := &recordingDispatcher{}
	handler := NewHandler(db, cfg, dispatcher)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	return &apiTestEnv{handler: handler, mux: mux, db: db, dispatcher: dispatcher}
}

func (env *apiTestEnv) seedAdmin(t *testing.T) string {
	t.Helper()
	hash, err := utils.HashPassword("hunter2")
	require.NoError(t, err)
	require.NoError(t, env.db.Create(&models.AdminUser{
		Email:        "admin@example.com",
		PasswordHash: hash,
		Name:         "Administrator",
	}).Error)

	token, err := env.handler.authMW.GenerateToken(uuid.NewString(), "admin@example.com")
	require.NoError(t, err)
	return token
}

func (env *apiTestEnv) seedDomainWithPage(t *testing.T, hostname, slug string) (*models.Domain, *models.LandingPage) {
	t.Helper()
	domain := &models.Domain{
		Hostname:     hostname,
		DisplayName:  "Bend Homes",
		PrimaryColor: "#0f172a",
		AccentColor:  "#2563eb",
		IsActive:     true,
	}
	require.NoError(t, env.db.Create(domain).Error)

	page := &models.LandingPage{
		DomainID:       domain.ID,
		Slug:           slug,
		Type:           models.PageTypeBuyer,
		Status:         models.PageStatusPublished,
		Headline:       "Find Your Dream Home",
		CTAText:        "Get Access",
		SuccessMessage: "Thank you! We'll be in touch shortly.",
		Sections:       []byte(`[{"id":"section-abc","kind":"hero","props":{}}]`),
	}
	require.NoError(t, env.db.Create(page).Error)
	return domain, page
}

func (env *apiTestEnv) request(method, path, host, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if host != "" {
		req.Host = host
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	env := setupAPITest(t)
	rec := env.request(http.MethodGet, "/health", "", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestLogin(t *testing.T) {
	env := setupAPITest(t)
	env.seedAdmin(t)

	rec := env.request(http.MethodPost, "/api/auth/login", "", "", map[string]string{
		"email": "admin@example.com", "password": "hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin@example.com", resp.Email)

	// The issued token opens protected routes.
	rec = env.request(http.MethodGet, "/api/admin/domains", "", resp.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := setupAPITest(t)
	env.seedAdmin(t)

	rec := env.request(http.MethodPost, "/api/auth/login", "", "", map[string]string{
		"email": "admin@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.request(http.MethodPost, "/api/auth/login", "", "", map[string]string{
		"email": "ghost@example.com", "password": "hunter2",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	env := setupAPITest(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/admin/domains"},
		{http.MethodGet, "/api/admin/pages"},
		{http.MethodGet, "/api/admin/leads"},
		{http.MethodGet, "/api/admin/webhooks"},
		{http.MethodPost, "/api/admin/revalidate"},
	}
	for _, p := range paths {
		rec := env.request(p.method, p.path, "", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestResolvePage(t *testing.T) {
	env := setupAPITest(t)
	env.seedDomainWithPage(t, "bendhomes.us", "cash-offer")

	rec := env.request(http.MethodGet, "/p/cash-offer", "bendhomes.us", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var content map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &content))
	assert.Equal(t, "cash-offer", content["slug"])
	assert.Equal(t, "Find Your Dream Home", content["headline"])
}

func TestResolvePage_NotFound(t *testing.T) {
	env := setupAPITest(t)
	env.seedDomainWithPage(t, "bendhomes.us", "cash-offer")

	rec := env.request(http.MethodGet, "/p/missing", "bendhomes.us", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolvePage_RedirectsFunnelStep(t *testing.T) {
	env := setupAPITest(t)
	domain, _ := env.seedDomainWithPage(t, "bendhomes.us", "market-report")
	require.NoError(t, env.db.Create(&models.LandingPage{
		DomainID: domain.ID,
		Slug:     "market-report-2",
		Type:     models.PageTypeBuyer,
		Status:   models.PageStatusPublished,
		Headline: "Step 2",
	}).Error)

	rec := env.request(http.MethodGet, "/p/market-report-2", "bendhomes.us", "", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/p/market-report", rec.Header().Get("Location"))
}

func TestResolvePage_ServesFromCache(t *testing.T) {
	env := setupAPITest(t)
	_, page := env.seedDomainWithPage(t, "bendhomes.us", "cash-offer")

	rec := env.request(http.MethodGet, "/p/cash-offer", "bendhomes.us", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Remove the row; the cached content still answers.
	require.NoError(t, env.db.Delete(page).Error)
	rec = env.request(http.MethodGet, "/p/cash-offer", "bendhomes.us", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResolvePage_MasterSlugFallback(t *testing.T) {
	env := setupAPITest(t)
	env.seedDomainWithPage(t, "deschuteshomes.com", models.MasterBuyerSlug)

	// A master slug on the default hostname falls back to any active domain.
	rec := env.request(http.MethodGet, "/p/"+models.MasterBuyerSlug, "bendhomes.us", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// An unregistered hostname never falls back, master slug or not.
	rec = env.request(http.MethodGet, "/p/"+models.MasterBuyerSlug, "sistershomes.com", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolvePage_DefaultHostnameFallback(t *testing.T) {
	env := setupAPITest(t)
	env.seedDomainWithPage(t, "deschuteshomes.com", "cash-offer")

	// The default hostname reaches published pages on any active domain.
	rec := env.request(http.MethodGet, "/p/cash-offer", "bendhomes.us", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var content map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &content))
	assert.Equal(t, "cash-offer", content["slug"])

	// Other tenant hostnames only serve their own pages.
	env.seedDomainWithPage(t, "sistershomes.com", "neighborhood-guide")
	rec = env.request(http.MethodGet, "/p/cash-offer", "sistershomes.com", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolvePage_LocalhostMapsToDefaultHostname(t *testing.T) {
	env := setupAPITest(t)
	env.seedDomainWithPage(t, "bendhomes.us", "cash-offer")

	for _, host := range []string{"localhost:3000", "127.0.0.1:8080"} {
		rec := env.request(http.MethodGet, "/p/cash-offer", host, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, "host %s", host)
	}
}

func TestRevalidate(t *testing.T) {
	env := setupAPITest(t)
	token := env.seedAdmin(t)
	_, page := env.seedDomainWithPage(t, "bendhomes.us", "cash-offer")

	rec := env.request(http.MethodGet, "/p/cash-offer", "bendhomes.us", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, env.db.Delete(page).Error)

	rec = env.request(http.MethodPost, "/api/admin/revalidate", "", token, map[string]string{
		"domain": "bendhomes.us", "slug": "cash-offer",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// The cache entry is gone, so the deleted page now 404s.
	rec = env.request(http.MethodGet, "/p/cash-offer", "bendhomes.us", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateDomain(t *testing.T) {
	env := setupAPITest(t)
	token := env.seedAdmin(t)

	rec := env.request(http.MethodPost, "/api/admin/domains", "", token, map[string]interface{}{
		"hostname":    "NewTown.example.COM",
		"displayName": "New Town Homes",
		"notifyEmail": "agent@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var domain models.Domain
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &domain))
	assert.Equal(t, "newtown.example.com", domain.Hostname)
	assert.True(t, domain.IsActive)

	// Duplicate hostname conflicts.
	rec = env.request(http.MethodPost, "/api/admin/domains", "", token, map[string]interface{}{
		"hostname":    "newtown.example.com",
		"displayName": "Duplicate",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Validation failures are 400s.
	rec = env.request(http.MethodPost, "/api/admin/domains", "", token, map[string]interface{}{
		"hostname":    "valid.example.com",
		"displayName": "X",
		"notifyEmail": "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPageLifecycleViaAPI(t *testing.T) {
	env := setupAPITest(t)
	token := env.seedAdmin(t)
	domain, _ := env.seedDomainWithPage(t, "bendhomes.us", "existing")
	require.NoError(t, env.db.Create(&models.MasterTemplate{
		Type:     models.PageTypeBuyer,
		Name:     "Buyer Master",
		Sections: []byte(`[{"id":"section-tpl","kind":"hero","props":{}}]`),
	}).Error)

	// Create
	rec := env.request(http.MethodPost, "/api/admin/pages", "", token, map[string]interface{}{
		"domainId": domain.ID,
		"slug":     "cash-offer",
		"type":     "buyer",
		"headline": "H",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.LandingPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// Conflict on the same slug
	rec = env.request(http.MethodPost, "/api/admin/pages", "", token, map[string]interface{}{
		"domainId": domain.ID,
		"slug":     "cash-offer",
		"type":     "buyer",
		"headline": "H",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Update and publish
	rec = env.request(http.MethodPatch, "/api/admin/pages/"+created.ID.String(), "", token, map[string]interface{}{
		"status":   "published",
		"headline": "Updated",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Duplicate
	rec = env.request(http.MethodPost, "/api/admin/pages/duplicate", "", token, map[string]interface{}{
		"pageId": created.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var dup models.LandingPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dup))
	assert.Equal(t, "cash-offer-copy", dup.Slug)

	// List
	rec = env.request(http.MethodGet, "/api/admin/pages?domainId="+domain.ID.String(), "", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.LandingPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 3)

	// Delete
	rec = env.request(http.MethodDelete, "/api/admin/pages/"+dup.ID.String(), "", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.request(http.MethodDelete, "/api/admin/pages/"+dup.ID.String(), "", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitLeadEndpoint(t *testing.T) {
	env := setupAPITest(t)
	env.seedDomainWithPage(t, "bendhomes.us", "cash-offer")

	rec := env.request(http.MethodPost, "/api/leads", "bendhomes.us", "", map[string]interface{}{
		"slug":  "cash-offer",
		"type":  "buyer",
		"email": "jane@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])
	assert.NotEmpty(t, resp["leadId"])
	assert.Len(t, env.dispatcher.leadIDs, 1)
}

func TestSubmitLeadEndpoint_Honeypot(t *testing.T) {
	env := setupAPITest(t)
	env.seedDomainWithPage(t, "bendhomes.us", "cash-offer")

	rec := env.request(http.MethodPost, "/api/leads", "bendhomes.us", "", map[string]interface{}{
		"slug":    "cash-offer",
		"type":    "buyer",
		"website": "https://spam.example",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])
	assert.Nil(t, resp["leadId"])

	var count int64
	env.db.Model(&models.Lead{}).Count(&count)
	assert.Zero(t, count)
}

func TestSubmitLeadEndpoint_MissingFields(t *testing.T) {
	env := setupAPITest(t)
	env.seedDomainWithPage(t, "bendhomes.us", "cash-offer")

	rec := env.request(http.MethodPost, "/api/leads", "bendhomes.us", "", map[string]interface{}{
		"email": "jane@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookCRUD(t *testing.T) {
	env := setupAPITest(t)
	token := env.seedAdmin(t)

	rec := env.request(http.MethodPost, "/api/admin/webhooks", "", token, map[string]interface{}{
		"name":    "crm",
		"url":     "https://crm.example.com/hooks/leads",
		"headers": map[string]string{"X-Api-Key": "secret"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var hook models.WebhookConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hook))
	assert.Equal(t, http.MethodPost, hook.Method)
	assert.True(t, hook.IsActive)

	rec = env.request(http.MethodPatch, "/api/admin/webhooks/"+hook.ID.String(), "", token, map[string]interface{}{
		"isActive": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(http.MethodGet, "/api/admin/webhooks", "", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hooks []models.WebhookConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hooks))
	require.Len(t, hooks, 1)
	assert.False(t, hooks[0].IsActive)

	rec = env.request(http.MethodDelete, "/api/admin/webhooks/"+hook.ID.String(), "", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Invalid URL rejected up front.
	rec = env.request(http.MethodPost, "/api/admin/webhooks", "", token, map[string]interface{}{
		"name": "bad", "url": "not-a-url",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncMasterTemplatesEndpoint(t *testing.T) {
	env := setupAPITest(t)
	token := env.seedAdmin(t)
	domain, _ := env.seedDomainWithPage(t, "bendhomes.us", models.MasterBuyerSlug)
	require.NoError(t, env.db.Create(&models.MasterTemplate{
		Type:     models.PageTypeBuyer,
		Name:     "Buyer Master",
		Sections: []byte(`[]`),
	}).Error)
	_ = domain

	rec := env.request(http.MethodPost, "/api/admin/master-templates/sync-from-pages", "", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":1}`, rec.Body.String())
}

func TestPageGraphEndpoint(t *testing.T) {
	env := setupAPITest(t)
	token := env.seedAdmin(t)
	_, page := env.seedDomainWithPage(t, "bendhomes.us", "cash-offer")

	rec := env.request(http.MethodGet, "/api/admin/pages/"+page.ID.String()+"/graph", "", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var graph map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &graph))
	assert.Contains(t, graph, "ROOT")
	assert.Greater(t, len(graph), 1)

	// Unknown page ids 404.
	rec = env.request(http.MethodGet, "/api/admin/pages/"+uuid.NewString()+"/graph", "", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
