package resolver

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/highdesertlabs/porchlight/internal/content/gridlayout"
	"github.com/highdesertlabs/porchlight/internal/db/models"
	apperrors "github.com/highdesertlabs/porchlight/pkg/errors"
	"github.com/highdesertlabs/porchlight/pkg/logger"
	"github.com/highdesertlabs/porchlight/pkg/utils"
)

// legacyFunnels maps funnel entry slugs to their conventional step slugs, in
// step order. Pages created before explicit step lists existed rely on this.
var legacyFunnels = map[string][]string{
	"market-report":  {"market-report-2", "market-report-3"},
	"home-valuation": {"home-valuation-2", "home-valuation-3"},
}

// LegacyEntryFor returns the funnel entry slug that the given slug is a
// conventional step of, or "" when it is not a legacy step slug.
func LegacyEntryFor(slug string) string {
	for entry, steps := range legacyFunnels {
		for _, s := range steps {
			if s == slug {
				return entry
			}
		}
	}
	return ""
}

// Options control a single resolution.
type Options struct {
	// AllowFallbackToAnyDomain retries the slug lookup across all active
	// domains when the hostname lookup misses. Only honored for the
	// configured default hostname, so local development can reach any
	// tenant's pages.
	AllowFallbackToAnyDomain bool
}

// Resolution is the outcome of resolving a hostname/slug pair: either a
// redirect to another slug on the same host, or fully assembled page content.
type Resolution struct {
	Redirect string
	Page     *LandingPageContent
}

// Resolver turns (hostname, slug) pairs into render-ready page content.
type Resolver struct {
	db              *gorm.DB
	defaultHostname string
}

func New(db *gorm.DB, defaultHostname string) *Resolver {
	return &Resolver{db: db, defaultHostname: utils.NormalizeHostname(defaultHostname)}
}

// Resolve looks up the published page for slug on the domain identified by
// hostname and assembles its content, including multistep funnel steps. It
// returns a redirect when the slug is a funnel step whose entry page should
// be visited first.
func (r *Resolver) Resolve(ctx context.Context, hostname, slug string, opts Options) (*Resolution, error) {
	hostname = utils.NormalizeHostname(hostname)

	// Legacy step slugs bounce to their funnel entry when the entry page
	// is live on this domain, so deep links into old funnels restart them.
	if entry := LegacyEntryFor(slug); entry != "" {
		if domain, err := r.findDomain(ctx, hostname); err == nil {
			if _, err := r.findPublished(ctx, domain.ID, entry); err == nil {
				return &Resolution{Redirect: entry}, nil
			}
		}
	}

	page, err := r.findPublishedByHostname(ctx, hostname, slug)
	if err != nil {
		miss := errors.Is(err, apperrors.ErrPageNotFound) || errors.Is(err, apperrors.ErrDomainNotFound)
		if !miss {
			return nil, err
		}
		if !opts.AllowFallbackToAnyDomain || hostname != r.defaultHostname {
			return nil, apperrors.ErrPageNotFound
		}
		page, err = r.findPublishedAnyDomain(ctx, slug)
		if err != nil {
			return nil, err
		}
	}

	stepSlugs := r.stepSlugsFor(ctx, page)

	// A request for a slug that some other page declares as a funnel step
	// should land on that funnel's entry instead.
	if !containsSlug(stepSlugs, page.Slug) {
		if owner, err := r.findStepOwner(ctx, page.DomainID, page.Slug); err == nil && owner != "" {
			return &Resolution{Redirect: owner}, nil
		}
	}

	content := assembleContent(page, r.loadLayout(ctx, page))
	content.MultistepStepSlugs = stepSlugs
	for _, stepSlug := range stepSlugs {
		step, err := r.findPublished(ctx, page.DomainID, stepSlug)
		if err != nil {
			logger.DebugEvent().
				Str("hostname", hostname).
				Str("slug", stepSlug).
				Msg("Skipping unavailable funnel step")
			continue
		}
		step.Domain = page.Domain
		content.MultistepSteps = append(content.MultistepSteps, assembleContent(step, r.loadLayout(ctx, step)))
	}

	return &Resolution{Page: &content}, nil
}

// stepSlugsFor returns the page's explicit step list, or infers one for
// legacy funnel entries by probing which conventional step pages are live.
func (r *Resolver) stepSlugsFor(ctx context.Context, page *models.LandingPage) []string {
	if slugs := page.StepSlugs(); slugs != nil {
		return slugs
	}
	candidates, ok := legacyFunnels[page.Slug]
	if !ok {
		return nil
	}
	var live []string
	for _, candidate := range candidates {
		if _, err := r.findPublished(ctx, page.DomainID, candidate); err == nil {
			live = append(live, candidate)
		}
	}
	return live
}

// findStepOwner scans published pages on the domain for one that declares
// slug as a funnel step, returning the owner's slug.
func (r *Resolver) findStepOwner(ctx context.Context, domainID uuid.UUID, slug string) (string, error) {
	var pages []models.LandingPage
	err := r.db.WithContext(ctx).
		Where("domain_id = ? AND status = ? AND multistep_step_slugs IS NOT NULL", domainID, models.PageStatusPublished).
		Find(&pages).Error
	if err != nil {
		return "", err
	}
	for i := range pages {
		if pages[i].Slug == slug {
			continue
		}
		if pages[i].DeclaresStep(slug) {
			return pages[i].Slug, nil
		}
	}
	return "", nil
}

// loadLayout fetches the saved grid layout for a page. Layouts are optional
// and non-critical, so any failure degrades to the default layout.
func (r *Resolver) loadLayout(ctx context.Context, page *models.LandingPage) []gridlayout.Item {
	var layout models.PageLayout
	err := r.db.WithContext(ctx).Where("page_id = ?", page.ID).First(&layout).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnEvent().Err(err).Str("page_id", page.ID.String()).Msg("Could not load page layout")
		}
		return nil
	}
	items, err := gridlayout.Parse(layout.LayoutData)
	if err != nil {
		logger.WarnEvent().Err(err).Str("page_id", page.ID.String()).Msg("Ignoring malformed page layout")
		return nil
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

func (r *Resolver) findDomain(ctx context.Context, hostname string) (*models.Domain, error) {
	var domain models.Domain
	err := r.db.WithContext(ctx).
		Where("hostname = ? AND is_active = ?", hostname, true).
		First(&domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDomainNotFound
		}
		return nil, err
	}
	return &domain, nil
}

func (r *Resolver) findPublishedByHostname(ctx context.Context, hostname, slug string) (*models.LandingPage, error) {
	domain, err := r.findDomain(ctx, hostname)
	if err != nil {
		return nil, err
	}
	page, err := r.findPublished(ctx, domain.ID, slug)
	if err != nil {
		return nil, err
	}
	page.Domain = *domain
	return page, nil
}

func (r *Resolver) findPublishedAnyDomain(ctx context.Context, slug string) (*models.LandingPage, error) {
	activeDomains := r.db.WithContext(ctx).Model(&models.Domain{}).Select("id").Where("is_active = ?", true)
	var page models.LandingPage
	err := r.db.WithContext(ctx).
		Preload("Domain").
		Where("slug = ? AND status = ? AND domain_id IN (?)", slug, models.PageStatusPublished, activeDomains).
		Order("created_at ASC").
		First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

func (r *Resolver) findPublished(ctx context.Context, domainID uuid.UUID, slug string) (*models.LandingPage, error) {
	var page models.LandingPage
	err := r.db.WithContext(ctx).
		Where("domain_id = ? AND slug = ? AND status = ?", domainID, slug, models.PageStatusPublished).
		First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

func containsSlug(slugs []string, slug string) bool {
	for _, s := range slugs {
		if s == slug {
			return true
		}
	}
	return false
}
