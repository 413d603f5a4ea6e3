package blocks

import (
	"github.com/highdesertlabs/porchlight/pkg/utils"
)

// BlockKind identifies one of the closed set of page block types
type BlockKind string

const (
	KindHeader           BlockKind = "header"
	KindHeroLayout       BlockKind = "heroLayout"
	KindHeroHeadline     BlockKind = "heroHeadline"
	KindHeroSubheadline  BlockKind = "heroSubheadline"
	KindHeroLeftRichText BlockKind = "heroLeftRichText"
	KindHeroForm         BlockKind = "heroForm"
	KindHeroTrustRow     BlockKind = "heroTrustRow"
	KindHeroBadgeStrip   BlockKind = "heroBadgeStrip"
)

// Column tags a hero element with its hero column placement
type Column string

const (
	ColumnLeft  Column = "left"
	ColumnRight Column = "right"
)

// BlockConfig is the editor-agnostic persisted form of one page block
type BlockConfig struct {
	ID     string                 `json:"id"`
	Kind   BlockKind              `json:"kind"`
	Props  map[string]interface{} `json:"props"`
	Hidden bool                   `json:"hidden,omitempty"`
}

// HeroElementConfig is a block nested inside the hero layout's columns
type HeroElementConfig struct {
	ID     string                 `json:"id"`
	Kind   BlockKind              `json:"kind"`
	Column Column                 `json:"column"`
	Props  map[string]interface{} `json:"props,omitempty"`
	Hidden bool                   `json:"hidden,omitempty"`
}

// HeroElementsByColumn groups hero elements by their column canvas
type HeroElementsByColumn struct {
	Left  []HeroElementConfig `json:"left"`
	Right []HeroElementConfig `json:"right"`
}

// kindToNodeName maps each block kind to its editor node type name.
// Must stay a bijection over the closed kind set; nodeNameToKind is its
// inverse and both sides are verified by tests.
var kindToNodeName = map[BlockKind]string{
	KindHeader:           "HeaderBlock",
	KindHeroLayout:       "HeroLayoutBlock",
	KindHeroHeadline:     "HeroHeadlineBlock",
	KindHeroSubheadline:  "HeroSubheadlineBlock",
	KindHeroLeftRichText: "HeroLeftRichTextBlock",
	KindHeroForm:         "HeroFormBlock",
	KindHeroTrustRow:     "HeroTrustRowBlock",
	KindHeroBadgeStrip:   "HeroBadgeStripBlock",
}

var nodeNameToKind = func() map[string]BlockKind {
	inverse := make(map[string]BlockKind, len(kindToNodeName))
	for kind, name := range kindToNodeName {
		inverse[name] = kind
	}
	return inverse
}()

// heroKinds are the block kinds allowed inside hero column canvases
var heroKinds = map[BlockKind]bool{
	KindHeroHeadline:     true,
	KindHeroSubheadline:  true,
	KindHeroLeftRichText: true,
	KindHeroForm:         true,
	KindHeroTrustRow:     true,
	KindHeroBadgeStrip:   true,
}

// NodeName returns the editor node type name for a kind, or "" when unknown
func NodeName(kind BlockKind) string {
	return kindToNodeName[kind]
}

// KindForNodeName reverse-maps an editor node type name to its block kind
func KindForNodeName(name string) (BlockKind, bool) {
	kind, ok := nodeNameToKind[name]
	return kind, ok
}

// IsHeroKind reports whether a kind may appear inside a hero column
func IsHeroKind(kind BlockKind) bool {
	return heroKinds[kind]
}

// NewBlockID generates a fresh block node id
func NewBlockID() string {
	return "block-" + utils.RandomID(9)
}

// DefaultBlocks returns the block list used for pages with no saved blocks
func DefaultBlocks() []BlockConfig {
	return []BlockConfig{
		{ID: "block-header", Kind: KindHeader, Props: map[string]interface{}{}},
		{ID: "block-hero-headline", Kind: KindHeroHeadline, Props: map[string]interface{}{}},
		{ID: "block-hero-subheadline", Kind: KindHeroSubheadline, Props: map[string]interface{}{}},
		{ID: "block-hero-left", Kind: KindHeroLeftRichText, Props: map[string]interface{}{}},
		{ID: "block-hero-form", Kind: KindHeroForm, Props: map[string]interface{}{}},
	}
}
