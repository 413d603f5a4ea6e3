package resolver

import (
	"encoding/json"

	"github.com/highdesertlabs/porchlight/internal/content/blocks"
	"github.com/highdesertlabs/porchlight/internal/content/gridlayout"
	"github.com/highdesertlabs/porchlight/internal/content/sanitize"
	"github.com/highdesertlabs/porchlight/internal/db/models"
	"github.com/highdesertlabs/porchlight/pkg/logger"
)

// Props keys that hold admin-authored HTML and must be sanitized before the
// content leaves the resolver.
var richTextPropKeys = []string{"html", "richText"}

// DomainBranding is the tenant branding block attached to resolved content
type DomainBranding struct {
	Hostname     string `json:"hostname"`
	DisplayName  string `json:"displayName"`
	LogoURL      string `json:"logoUrl,omitempty"`
	RightLogoURL string `json:"rightLogoUrl,omitempty"`
	PrimaryColor string `json:"primaryColor"`
	AccentColor  string `json:"accentColor"`
	GA4ID        string `json:"ga4Id,omitempty"`
	MetaPixelID  string `json:"metaPixelId,omitempty"`
}

// SEO is the metadata block attached to resolved content
type SEO struct {
	Title          string          `json:"title,omitempty"`
	Description    string          `json:"description,omitempty"`
	Keywords       json.RawMessage `json:"keywords,omitempty"`
	OgImageURL     string          `json:"ogImageUrl,omitempty"`
	OgType         string          `json:"ogType,omitempty"`
	TwitterCard    string          `json:"twitterCard,omitempty"`
	CanonicalURL   string          `json:"canonicalUrl,omitempty"`
	NoIndex        bool            `json:"noIndex"`
	SchemaMarkup   json.RawMessage `json:"schemaMarkup,omitempty"`
	CustomHeadTags json.RawMessage `json:"customHeadTags,omitempty"`
}

// LandingPageContent is the fully assembled render payload for one page
type LandingPageContent struct {
	ID             string                 `json:"id"`
	Slug           string                 `json:"slug"`
	Type           models.PageType        `json:"type"`
	Headline       string                 `json:"headline"`
	Subheadline    string                 `json:"subheadline,omitempty"`
	HeroImageURL   string                 `json:"heroImageUrl,omitempty"`
	CTAText        string                 `json:"ctaText"`
	SuccessMessage string                 `json:"successMessage"`
	Sections       []blocks.SectionConfig `json:"sections"`
	Blocks         []blocks.BlockConfig   `json:"blocks,omitempty"`
	FormSchema     json.RawMessage        `json:"formSchema,omitempty"`

	// HeroElements is set when the blocks column holds an editor graph with a
	// hero layout; hidden elements are already projected out.
	HeroElements *blocks.HeroElementsByColumn `json:"heroElements,omitempty"`
	Domain         DomainBranding         `json:"domain"`
	SEO            SEO                    `json:"seo"`

	// LayoutData is the saved grid override; nil means default responsive layout
	LayoutData []gridlayout.Item `json:"layoutData,omitempty"`

	MultistepStepSlugs []string             `json:"multistepStepSlugs,omitempty"`
	MultistepSteps     []LandingPageContent `json:"multistepSteps,omitempty"`
}

// assembleContent merges page fields, domain branding, SEO and the optional
// saved layout into one render payload. Step pages are attached by the caller.
func assembleContent(page *models.LandingPage, layout []gridlayout.Item) LandingPageContent {
	blockList, heroElements := decodeBlockColumn(page.Blocks)
	return LandingPageContent{
		ID:             page.ID.String(),
		Slug:           page.Slug,
		Type:           page.Type,
		Headline:       page.Headline,
		Subheadline:    page.Subheadline,
		HeroImageURL:   page.HeroImageURL,
		CTAText:        page.CTAText,
		SuccessMessage: page.SuccessMessage,
		Sections:       decodeSections(page.Sections),
		Blocks:         blockList,
		HeroElements:   heroElements,
		FormSchema:     rawJSON(page.FormSchema),
		Domain: DomainBranding{
			Hostname:     page.Domain.Hostname,
			DisplayName:  page.Domain.DisplayName,
			LogoURL:      page.Domain.LogoURL,
			RightLogoURL: page.Domain.AgentPhoto,
			PrimaryColor: page.Domain.PrimaryColor,
			AccentColor:  page.Domain.AccentColor,
			GA4ID:        page.Domain.GA4ID,
			MetaPixelID:  page.Domain.MetaPixelID,
		},
		SEO: SEO{
			Title:          page.SeoTitle,
			Description:    page.SeoDescription,
			Keywords:       rawJSON(page.SeoKeywords),
			OgImageURL:     page.OgImageURL,
			OgType:         page.OgType,
			TwitterCard:    page.TwitterCard,
			CanonicalURL:   page.CanonicalURL,
			NoIndex:        page.NoIndex,
			SchemaMarkup:   rawJSON(page.SchemaMarkup),
			CustomHeadTags: rawJSON(page.CustomHeadTags),
		},
		LayoutData: layout,
	}
}

// decodeSections tolerates the historical non-array encodings of the sections
// column; anything that is not a JSON array yields an empty list.
func decodeSections(raw []byte) []blocks.SectionConfig {
	sections := []blocks.SectionConfig{}
	if len(raw) == 0 {
		return sections
	}
	if err := json.Unmarshal(raw, &sections); err != nil {
		return []blocks.SectionConfig{}
	}
	for i := range sections {
		sections[i].Props = sanitize.RichTextProps(sections[i].Props, richTextPropKeys...)
	}
	return sections
}

// decodeBlockColumn accepts both persisted encodings of the blocks column: a
// flat block list, or the editor's serialized node graph. Graph documents are
// flattened in root order and their hero layout columns extracted. Hidden
// blocks and elements are projected out before the content leaves the
// resolver.
func decodeBlockColumn(raw []byte) ([]blocks.BlockConfig, *blocks.HeroElementsByColumn) {
	if len(raw) == 0 {
		return nil, nil
	}

	var list []blocks.BlockConfig
	if err := json.Unmarshal(raw, &list); err == nil {
		return projectBlocks(list), nil
	}

	g, err := blocks.ParseGraph(raw)
	if err != nil {
		logger.WarnEvent().Err(err).Msg("Ignoring malformed blocks column")
		return nil, nil
	}

	hero := blocks.ExtractHeroElements(g)
	if hero != nil {
		hero.Left = projectHeroElements(hero.Left)
		hero.Right = projectHeroElements(hero.Right)
	}
	return projectBlocks(blocks.GraphToBlocks(g)), hero
}

func projectBlocks(list []blocks.BlockConfig) []blocks.BlockConfig {
	visible := blocks.VisibleBlocks(list)
	for i := range visible {
		visible[i].Props = sanitize.RichTextProps(visible[i].Props, richTextPropKeys...)
	}
	if len(visible) == 0 {
		return nil
	}
	return visible
}

func projectHeroElements(elements []blocks.HeroElementConfig) []blocks.HeroElementConfig {
	visible := blocks.VisibleElements(elements)
	for i := range visible {
		visible[i].Props = sanitize.RichTextProps(visible[i].Props, richTextPropKeys...)
	}
	return visible
}

func rawJSON(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	return json.RawMessage(raw)
}
