package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/highdesertlabs/porchlight/internal/captcha"
	"github.com/highdesertlabs/porchlight/internal/config"
	"github.com/highdesertlabs/porchlight/internal/db/models"
	"github.com/highdesertlabs/porchlight/internal/leads"
	"github.com/highdesertlabs/porchlight/internal/pages"
	"github.com/highdesertlabs/porchlight/internal/resolver"
	"github.com/highdesertlabs/porchlight/internal/server/web/middleware"
	apperrors "github.com/highdesertlabs/porchlight/pkg/errors"
	"github.com/highdesertlabs/porchlight/pkg/logger"
	"github.com/highdesertlabs/porchlight/pkg/utils"
)

// Handler handles all public and admin API requests
type Handler struct {
	db       *gorm.DB
	config   *config.Config
	authMW   *middleware.AuthMiddleware
	validate *validator.Validate

	resolver *resolver.Resolver
	pages    *pages.Service
	leads    *leads.Service
	cache    *pages.ContentCache
}

// NewHandler wires the API handler and its services
func NewHandler(db *gorm.DB, cfg *config.Config, dispatcher leads.Dispatcher) *Handler {
	cache := pages.NewContentCache()
	verifier := captcha.NewVerifier(cfg.Captcha)

	return &Handler{
		db:       db,
		config:   cfg,
		authMW:   middleware.NewAuthMiddleware(cfg.Auth.JWTSecret),
		validate: validator.New(),
		resolver: resolver.New(db, cfg.Server.DefaultHostname),
		pages:    pages.NewService(db, cache),
		leads:    leads.NewService(db, verifier, dispatcher),
		cache:    cache,
	}
}

// CORSMiddleware adds CORS headers so the admin SPA can be hosted separately
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Public routes
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("GET /p/{slug}", h.resolvePage)

	// Lead submission is the one anonymous write endpoint, so it gets its
	// own limiter: sustained 1 req/2s per IP with a burst of 5.
	leadLimiter := middleware.NewRateLimiter(rate.Limit(0.5), 5)
	mux.Handle("POST /api/leads", leadLimiter.Limit(http.HandlerFunc(h.submitLead)))

	// Admin routes (protected)
	mux.Handle("POST /api/admin/domains", h.authMW.Protect(http.HandlerFunc(h.createDomain)))
	mux.Handle("GET /api/admin/domains", h.authMW.Protect(http.HandlerFunc(h.listDomains)))
	mux.Handle("GET /api/admin/domains/{id}", h.authMW.Protect(http.HandlerFunc(h.getDomain)))
	mux.Handle("PATCH /api/admin/domains/{id}", h.authMW.Protect(http.HandlerFunc(h.updateDomain)))
	mux.Handle("DELETE /api/admin/domains/{id}", h.authMW.Protect(http.HandlerFunc(h.deleteDomain)))

	mux.Handle("POST /api/admin/pages", h.authMW.Protect(http.HandlerFunc(h.createPage)))
	mux.Handle("GET /api/admin/pages", h.authMW.Protect(http.HandlerFunc(h.listPages)))
	mux.Handle("GET /api/admin/pages/{id}", h.authMW.Protect(http.HandlerFunc(h.getPage)))
	mux.Handle("GET /api/admin/pages/{id}/graph", h.authMW.Protect(http.HandlerFunc(h.getPageGraph)))
	mux.Handle("PATCH /api/admin/pages/{id}", h.authMW.Protect(http.HandlerFunc(h.updatePage)))
	mux.Handle("DELETE /api/admin/pages/{id}", h.authMW.Protect(http.HandlerFunc(h.deletePage)))
	mux.Handle("POST /api/admin/pages/duplicate", h.authMW.Protect(http.HandlerFunc(h.duplicatePage)))

	mux.Handle("POST /api/admin/webhooks", h.authMW.Protect(http.HandlerFunc(h.createWebhook)))
	mux.Handle("GET /api/admin/webhooks", h.authMW.Protect(http.HandlerFunc(h.listWebhooks)))
	mux.Handle("PATCH /api/admin/webhooks/{id}", h.authMW.Protect(http.HandlerFunc(h.updateWebhook)))
	mux.Handle("DELETE /api/admin/webhooks/{id}", h.authMW.Protect(http.HandlerFunc(h.deleteWebhook)))

	mux.Handle("GET /api/admin/leads", h.authMW.Protect(http.HandlerFunc(h.listLeads)))

	mux.Handle("POST /api/admin/master-templates/sync-from-pages", h.authMW.Protect(http.HandlerFunc(h.syncMasterTemplates)))
	mux.Handle("POST /api/admin/revalidate", h.authMW.Protect(http.HandlerFunc(h.revalidate)))
}

// requestHostname normalizes the request's Host header. Local development
// hosts map to the configured default hostname so any tenant's pages are
// reachable without DNS.
func (h *Handler) requestHostname(r *http.Request) string {
	hostname := utils.NormalizeHostname(r.Host)
	if hostname == "localhost" || hostname == "127.0.0.1" {
		return utils.NormalizeHostname(h.config.Server.DefaultHostname)
	}
	return hostname
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	var user models.AdminUser
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !utils.ComparePassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.authMW.GenerateToken(user.ID.String(), user.Email)
	if err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to generate token")
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{Token: token, Email: user.Email})
}

type revalidateRequest struct {
	Domain string `json:"domain"`
	Slug   string `json:"slug"`
}

func (h *Handler) revalidate(w http.ResponseWriter, r *http.Request) {
	var req revalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Domain == "" || req.Slug == "" {
		respondError(w, http.StatusBadRequest, "Domain and slug are required")
		return
	}

	h.cache.Revalidate(utils.NormalizeHostname(req.Domain), req.Slug)
	respondJSON(w, http.StatusOK, map[string]bool{"revalidated": true})
}

func (h *Handler) syncMasterTemplates(w http.ResponseWriter, r *http.Request) {
	updated, err := h.pages.SyncMasterTemplates(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors to HTTP responses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrDomainNotFound),
		errors.Is(err, apperrors.ErrPageNotFound),
		errors.Is(err, apperrors.ErrTemplateNotFound),
		errors.Is(err, apperrors.ErrLeadNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrSlugTaken):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrEmptySlug),
		errors.Is(err, apperrors.ErrInvalidSlug),
		errors.Is(err, apperrors.ErrInvalidPageType),
		errors.Is(err, apperrors.ErrInvalidBlockGraph),
		errors.Is(err, apperrors.ErrMissingLeadFields),
		errors.Is(err, apperrors.ErrCaptchaFailed):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		logger.ErrorEvent().Err(err).Msg("Unhandled service error")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
