package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PageStatus enumerates landing page lifecycle states
type PageStatus string

const (
	PageStatusDraft     PageStatus = "draft"
	PageStatusPublished PageStatus = "published"
)

// Master page slugs. The template sync operation reads these, and public
// resolution allows them to fall back to any active domain for previewing.
const (
	MasterBuyerSlug  = "master-buyer"
	MasterSellerSlug = "master-seller"
)

// LandingPage is a tenant-specific, sluggable, publishable page
type LandingPage struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DomainID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_pages_domain_slug,priority:1" json:"domainId"`
	MasterTemplateID *uuid.UUID `gorm:"type:uuid;index" json:"masterTemplateId,omitempty"`

	Slug   string     `gorm:"not null;uniqueIndex:idx_pages_domain_slug,priority:2" json:"slug"`
	Type   PageType   `gorm:"not null" json:"type"`
	Status PageStatus `gorm:"default:'draft'" json:"status"`

	// Hero content
	Headline       string `gorm:"not null" json:"headline"`
	Subheadline    string `json:"subheadline,omitempty"`
	HeroImageURL   string `json:"heroImageUrl,omitempty"`
	CTAText        string `json:"ctaText"`
	SuccessMessage string `json:"successMessage"`

	// Layout documents. Sections is the legacy tree (currently a single hero
	// section); Blocks is the ordered list used by the newer visual editor.
	Sections   datatypes.JSON `gorm:"type:json" json:"sections"`
	Blocks     datatypes.JSON `gorm:"type:json" json:"blocks,omitempty"`
	FormSchema datatypes.JSON `gorm:"type:json" json:"formSchema,omitempty"`

	// MultistepStepSlugs declares an ordered funnel of sibling page slugs
	MultistepStepSlugs datatypes.JSON `gorm:"type:json" json:"multistepStepSlugs,omitempty"`

	// SEO
	SeoTitle       string         `json:"seoTitle,omitempty"`
	SeoDescription string         `json:"seoDescription,omitempty"`
	SeoKeywords    datatypes.JSON `gorm:"type:json" json:"seoKeywords,omitempty"`
	OgImageURL     string         `json:"ogImageUrl,omitempty"`
	OgType         string         `json:"ogType,omitempty"`
	TwitterCard    string         `json:"twitterCard,omitempty"`
	CanonicalURL   string         `json:"canonicalUrl,omitempty"`
	NoIndex        bool           `gorm:"default:false" json:"noIndex"`
	SchemaMarkup   datatypes.JSON `gorm:"type:json" json:"schemaMarkup,omitempty"`
	CustomHeadTags datatypes.JSON `gorm:"type:json" json:"customHeadTags,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relationships
	Domain         Domain          `gorm:"foreignKey:DomainID" json:"-"`
	MasterTemplate *MasterTemplate `gorm:"foreignKey:MasterTemplateID" json:"-"`
}

// BeforeCreate sets UUID if not already set
func (p *LandingPage) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name
func (LandingPage) TableName() string {
	return "landing_pages"
}

// StepSlugs decodes MultistepStepSlugs into an ordered slug list.
// Returns nil when the column is empty or malformed.
func (p *LandingPage) StepSlugs() []string {
	if len(p.MultistepStepSlugs) == 0 {
		return nil
	}
	var slugs []string
	if err := json.Unmarshal(p.MultistepStepSlugs, &slugs); err != nil {
		return nil
	}
	if len(slugs) == 0 {
		return nil
	}
	return slugs
}

// DeclaresStep reports whether slug appears in the page's own step list.
func (p *LandingPage) DeclaresStep(slug string) bool {
	for _, s := range p.StepSlugs() {
		if s == slug {
			return true
		}
	}
	return false
}

// IsPublished reports whether the page is publicly servable
func (p *LandingPage) IsPublished() bool {
	return p.Status == PageStatusPublished
}
