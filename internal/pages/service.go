package pages

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/highdesertlabs/porchlight/internal/content/blocks"
	"github.com/highdesertlabs/porchlight/internal/db/models"
	"github.com/highdesertlabs/porchlight/internal/resolver"
	apperrors "github.com/highdesertlabs/porchlight/pkg/errors"
	"github.com/highdesertlabs/porchlight/pkg/logger"
	"github.com/highdesertlabs/porchlight/pkg/utils"
)

// Content defaults applied when a new page does not specify them.
const (
	DefaultCTAText        = "Get Access"
	DefaultSuccessMessage = "Thank you! We'll be in touch shortly."
)

// Service implements the admin-facing page lifecycle: creation from master
// templates, duplication, partial updates, deletion and master template sync.
type Service struct {
	db    *gorm.DB
	cache *ContentCache
}

func NewService(db *gorm.DB, cache *ContentCache) *Service {
	return &Service{db: db, cache: cache}
}

// CreateInput carries the fields needed to create a page from a template.
type CreateInput struct {
	DomainID    uuid.UUID       `json:"domainId"`
	Slug        string          `json:"slug"`
	Type        models.PageType `json:"type"`
	Headline    string          `json:"headline"`
	Subheadline string          `json:"subheadline"`
}

// CreateFromTemplate creates a draft page seeded from the master template for
// the requested type. When the template carries no sections yet, the
// most-recently-updated sibling page built on the same template is used as
// the seed instead, so new tenants inherit a worked example.
func (s *Service) CreateFromTemplate(ctx context.Context, in CreateInput) (*models.LandingPage, error) {
	slug, err := validateSlug(in.Slug)
	if err != nil {
		return nil, err
	}
	if !in.Type.IsValid() {
		return nil, apperrors.ErrInvalidPageType
	}

	var domain models.Domain
	if err := s.db.WithContext(ctx).First(&domain, "id = ?", in.DomainID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDomainNotFound
		}
		return nil, err
	}

	var template models.MasterTemplate
	if err := s.db.WithContext(ctx).First(&template, "type = ?", in.Type).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTemplateNotFound
		}
		return nil, err
	}

	page := &models.LandingPage{
		DomainID:         domain.ID,
		MasterTemplateID: &template.ID,
		Slug:             slug,
		Type:             in.Type,
		Status:           models.PageStatusDraft,
		Headline:         in.Headline,
		Subheadline:      in.Subheadline,
		CTAText:          DefaultCTAText,
		SuccessMessage:   DefaultSuccessMessage,
		Sections:         template.Sections,
		FormSchema:       template.FormSchema,
	}

	if emptyJSON(template.Sections) {
		var sibling models.LandingPage
		err := s.db.WithContext(ctx).
			Where("master_template_id = ?", template.ID).
			Order("updated_at DESC").
			First(&sibling).Error
		if err == nil {
			page.Sections = sibling.Sections
			page.Blocks = sibling.Blocks
			page.FormSchema = sibling.FormSchema
			page.HeroImageURL = sibling.HeroImageURL
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if emptyJSON(page.Blocks) {
		defaults, err := json.Marshal(blocks.DefaultBlocks())
		if err != nil {
			return nil, err
		}
		page.Blocks = datatypes.JSON(defaults)
	}

	if err := s.db.WithContext(ctx).Create(page).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrSlugTaken
		}
		return nil, err
	}
	return page, nil
}

// DuplicateInput selects the source page and optional new placement.
type DuplicateInput struct {
	PageID         uuid.UUID  `json:"pageId"`
	TargetDomainID *uuid.UUID `json:"targetDomainId,omitempty"`
	TargetSlug     string     `json:"targetSlug,omitempty"`
}

// Duplicate copies a page, its content and its saved layout into a new draft.
// The copy lands on the source domain under "<slug>-copy" unless a target is
// given.
func (s *Service) Duplicate(ctx context.Context, in DuplicateInput) (*models.LandingPage, error) {
	var source models.LandingPage
	if err := s.db.WithContext(ctx).First(&source, "id = ?", in.PageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPageNotFound
		}
		return nil, err
	}

	slug := in.TargetSlug
	if slug == "" {
		slug = source.Slug + "-copy"
	}
	slug, err := validateSlug(slug)
	if err != nil {
		return nil, err
	}

	domainID := source.DomainID
	if in.TargetDomainID != nil {
		domainID = *in.TargetDomainID
	}

	dup := source
	dup.ID = uuid.Nil
	dup.DomainID = domainID
	dup.Slug = slug
	dup.Status = models.PageStatusDraft
	dup.CreatedAt = time.Time{}
	dup.UpdatedAt = time.Time{}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dup).Error; err != nil {
			return err
		}
		var layout models.PageLayout
		err := tx.Where("page_id = ?", source.ID).First(&layout).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Create(&models.PageLayout{
			PageID:     dup.ID,
			LayoutData: layout.LayoutData,
		}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrSlugTaken
		}
		return nil, err
	}
	return &dup, nil
}

// UpdateInput is a partial page update. Nil pointers and nil raw JSON leave
// the current value untouched.
type UpdateInput struct {
	Slug           *string            `json:"slug,omitempty"`
	Status         *models.PageStatus `json:"status,omitempty"`
	Headline       *string            `json:"headline,omitempty"`
	Subheadline    *string            `json:"subheadline,omitempty"`
	HeroImageURL   *string            `json:"heroImageUrl,omitempty"`
	CTAText        *string            `json:"ctaText,omitempty"`
	SuccessMessage *string            `json:"successMessage,omitempty"`

	Sections           json.RawMessage `json:"sections,omitempty"`
	Blocks             json.RawMessage `json:"blocks,omitempty"`
	FormSchema         json.RawMessage `json:"formSchema,omitempty"`
	MultistepStepSlugs json.RawMessage `json:"multistepStepSlugs,omitempty"`

	// BlocksGraph is the editor's serialized node graph; when set it is
	// flattened and persisted as the Blocks column, taking precedence over
	// Blocks.
	BlocksGraph json.RawMessage `json:"blocksGraph,omitempty"`

	SeoTitle       *string         `json:"seoTitle,omitempty"`
	SeoDescription *string         `json:"seoDescription,omitempty"`
	SeoKeywords    json.RawMessage `json:"seoKeywords,omitempty"`
	OgImageURL     *string         `json:"ogImageUrl,omitempty"`
	OgType         *string         `json:"ogType,omitempty"`
	TwitterCard    *string         `json:"twitterCard,omitempty"`
	CanonicalURL   *string         `json:"canonicalUrl,omitempty"`
	NoIndex        *bool           `json:"noIndex,omitempty"`
	SchemaMarkup   json.RawMessage `json:"schemaMarkup,omitempty"`
	CustomHeadTags json.RawMessage `json:"customHeadTags,omitempty"`

	// LayoutData upserts the page's PageLayout row
	LayoutData json.RawMessage `json:"layoutData,omitempty"`
}

// Update applies a partial update. When the page is or becomes published, the
// content cache entries for the old and new slug are revalidated.
func (s *Service) Update(ctx context.Context, pageID uuid.UUID, in UpdateInput) (*models.LandingPage, error) {
	var page models.LandingPage
	err := s.db.WithContext(ctx).Preload("Domain").First(&page, "id = ?", pageID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPageNotFound
		}
		return nil, err
	}

	oldSlug := page.Slug
	wasPublished := page.IsPublished()

	if in.Slug != nil {
		slug, err := validateSlug(*in.Slug)
		if err != nil {
			return nil, err
		}
		page.Slug = slug
	}
	if in.Status != nil {
		page.Status = *in.Status
	}
	applyString(&page.Headline, in.Headline)
	applyString(&page.Subheadline, in.Subheadline)
	applyString(&page.HeroImageURL, in.HeroImageURL)
	applyString(&page.CTAText, in.CTAText)
	applyString(&page.SuccessMessage, in.SuccessMessage)
	applyJSON(&page.Sections, in.Sections)
	applyJSON(&page.Blocks, in.Blocks)
	if len(in.BlocksGraph) > 0 {
		flat, err := flattenBlocksGraph(in.BlocksGraph)
		if err != nil {
			return nil, err
		}
		page.Blocks = flat
	}
	applyJSON(&page.FormSchema, in.FormSchema)
	applyJSON(&page.MultistepStepSlugs, in.MultistepStepSlugs)
	applyString(&page.SeoTitle, in.SeoTitle)
	applyString(&page.SeoDescription, in.SeoDescription)
	applyJSON(&page.SeoKeywords, in.SeoKeywords)
	applyString(&page.OgImageURL, in.OgImageURL)
	applyString(&page.OgType, in.OgType)
	applyString(&page.TwitterCard, in.TwitterCard)
	applyString(&page.CanonicalURL, in.CanonicalURL)
	if in.NoIndex != nil {
		page.NoIndex = *in.NoIndex
	}
	applyJSON(&page.SchemaMarkup, in.SchemaMarkup)
	applyJSON(&page.CustomHeadTags, in.CustomHeadTags)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&page).Error; err != nil {
			return err
		}
		if in.LayoutData == nil {
			return nil
		}
		var layout models.PageLayout
		err := tx.Where("page_id = ?", page.ID).First(&layout).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.PageLayout{
				PageID:     page.ID,
				LayoutData: datatypes.JSON(in.LayoutData),
			}).Error
		}
		if err != nil {
			return err
		}
		layout.LayoutData = datatypes.JSON(in.LayoutData)
		return tx.Save(&layout).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrSlugTaken
		}
		return nil, err
	}

	if s.cache != nil && (wasPublished || page.IsPublished()) {
		s.cache.Revalidate(page.Domain.Hostname, oldSlug)
		s.cache.Revalidate(page.Domain.Hostname, page.Slug)
		s.revalidateFunnelOwners(ctx, page.DomainID, page.Domain.Hostname, oldSlug, page.Slug)
		logger.DebugEvent().
			Str("hostname", page.Domain.Hostname).
			Str("slug", page.Slug).
			Msg("Revalidated page content cache")
	}
	return &page, nil
}

// Delete removes a page together with its leads and saved layout.
func (s *Service) Delete(ctx context.Context, pageID uuid.UUID) error {
	var page models.LandingPage
	err := s.db.WithContext(ctx).Preload("Domain").First(&page, "id = ?", pageID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrPageNotFound
		}
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("page_id = ?", page.ID).Delete(&models.Lead{}).Error; err != nil {
			return err
		}
		if err := tx.Where("page_id = ?", page.ID).Delete(&models.PageLayout{}).Error; err != nil {
			return err
		}
		return tx.Delete(&page).Error
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Revalidate(page.Domain.Hostname, page.Slug)
		s.revalidateFunnelOwners(ctx, page.DomainID, page.Domain.Hostname, page.Slug)
	}
	return nil
}

// revalidateFunnelOwners drops cached entry pages that embed any of the given
// slugs as assembled funnel steps, so their composite content is rebuilt on
// the next request.
func (s *Service) revalidateFunnelOwners(ctx context.Context, domainID uuid.UUID, hostname string, slugs ...string) {
	var owners []models.LandingPage
	err := s.db.WithContext(ctx).
		Where("domain_id = ? AND multistep_step_slugs IS NOT NULL", domainID).
		Find(&owners).Error
	if err != nil {
		logger.WarnEvent().Err(err).Msg("Could not scan funnel owners for cache revalidation")
		return
	}

	for _, slug := range slugs {
		for i := range owners {
			if owners[i].Slug != slug && owners[i].DeclaresStep(slug) {
				s.cache.Revalidate(hostname, owners[i].Slug)
			}
		}
		if entry := resolver.LegacyEntryFor(slug); entry != "" {
			s.cache.Revalidate(hostname, entry)
		}
	}
}

// EditorGraph returns a page's blocks as the editor's serialized node graph.
// Pages with no usable saved blocks get the default block list, so the editor
// always has something to load.
func (s *Service) EditorGraph(ctx context.Context, pageID uuid.UUID) (blocks.Graph, error) {
	page, err := s.Get(ctx, pageID)
	if err != nil {
		return nil, err
	}

	if !emptyJSON(page.Blocks) {
		var saved []blocks.BlockConfig
		if err := json.Unmarshal(page.Blocks, &saved); err == nil {
			return blocks.BlocksToGraph(saved), nil
		}
		// Old rows stored the graph document itself.
		if g, err := blocks.ParseGraph(page.Blocks); err == nil {
			return g, nil
		}
		logger.WarnEvent().
			Str("page_id", page.ID.String()).
			Msg("Unreadable blocks column, serving default block graph")
	}
	return blocks.BlocksToGraph(blocks.DefaultBlocks()), nil
}

// Get loads one page by id.
func (s *Service) Get(ctx context.Context, pageID uuid.UUID) (*models.LandingPage, error) {
	var page models.LandingPage
	err := s.db.WithContext(ctx).Preload("Domain").First(&page, "id = ?", pageID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// List returns pages, optionally filtered to one domain, newest first.
func (s *Service) List(ctx context.Context, domainID *uuid.UUID) ([]models.LandingPage, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if domainID != nil {
		q = q.Where("domain_id = ?", *domainID)
	}
	var pages []models.LandingPage
	if err := q.Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

// SyncMasterTemplates overwrites each master template's content with the
// current content of its designated master page. Returns how many templates
// were updated.
func (s *Service) SyncMasterTemplates(ctx context.Context) (int, error) {
	masters := map[string]models.PageType{
		models.MasterBuyerSlug:  models.PageTypeBuyer,
		models.MasterSellerSlug: models.PageTypeSeller,
	}

	updated := 0
	for slug, pageType := range masters {
		var page models.LandingPage
		err := s.db.WithContext(ctx).
			Where("slug = ?", slug).
			Order("updated_at DESC").
			First(&page).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return updated, err
		}

		result := s.db.WithContext(ctx).
			Model(&models.MasterTemplate{}).
			Where("type = ?", pageType).
			Updates(map[string]interface{}{
				"sections":    page.Sections,
				"form_schema": page.FormSchema,
			})
		if result.Error != nil {
			return updated, result.Error
		}
		if result.RowsAffected > 0 {
			updated++
			logger.InfoEvent().
				Str("slug", slug).
				Str("type", string(pageType)).
				Msg("Synced master template from page")
		}
	}
	return updated, nil
}

// flattenBlocksGraph converts an editor graph document into the persisted
// flat block list.
func flattenBlocksGraph(raw json.RawMessage) (datatypes.JSON, error) {
	g, err := blocks.ParseGraph(raw)
	if err != nil {
		return nil, apperrors.ErrInvalidBlockGraph
	}
	flat, err := json.Marshal(blocks.GraphToBlocks(g))
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(flat), nil
}

func validateSlug(raw string) (string, error) {
	slug := utils.NormalizeSlug(strings.TrimSpace(raw))
	if slug == "" {
		return "", apperrors.ErrEmptySlug
	}
	if !utils.IsValidSlug(slug) {
		return "", apperrors.ErrInvalidSlug
	}
	return slug, nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func applyJSON(dst *datatypes.JSON, src json.RawMessage) {
	if src != nil {
		*dst = datatypes.JSON(src)
	}
}

// emptyJSON treats nil, empty and JSON null/[]/{} as having no content
func emptyJSON(raw datatypes.JSON) bool {
	trimmed := strings.TrimSpace(string(raw))
	switch trimmed {
	case "", "null", "[]", "{}":
		return true
	}
	return false
}
