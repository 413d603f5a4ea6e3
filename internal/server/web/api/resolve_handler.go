package api

import (
	"net/http"

	"github.com/highdesertlabs/porchlight/internal/db/models"
	"github.com/highdesertlabs/porchlight/internal/resolver"
	"github.com/highdesertlabs/porchlight/pkg/utils"
)

// resolvePage serves assembled page content for the requesting hostname.
// Funnel step slugs answer with a 307 to their entry page.
func (h *Handler) resolvePage(w http.ResponseWriter, r *http.Request) {
	hostname := h.requestHostname(r)
	slug := r.PathValue("slug")

	if content, ok := h.cache.Get(hostname, slug); ok {
		respondJSON(w, http.StatusOK, content)
		return
	}

	// Master pages are previewable from anywhere, and requests on the default
	// hostname may fall back to any active domain's published pages.
	isMasterSlug := slug == models.MasterBuyerSlug || slug == models.MasterSellerSlug
	opts := resolver.Options{
		AllowFallbackToAnyDomain: isMasterSlug || hostname == utils.NormalizeHostname(h.config.Server.DefaultHostname),
	}

	res, err := h.resolver.Resolve(r.Context(), hostname, slug, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if res.Redirect != "" {
		http.Redirect(w, r, "/p/"+res.Redirect, http.StatusTemporaryRedirect)
		return
	}

	h.cache.Set(hostname, slug, res.Page)
	respondJSON(w, http.StatusOK, res.Page)
}
