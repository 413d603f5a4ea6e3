package blocks

import (
	"strings"

	"github.com/highdesertlabs/porchlight/pkg/utils"
)

// SectionKind identifies a legacy top-level page section
type SectionKind string

// The section tree currently only carries a hero section
const SectionHero SectionKind = "hero"

// SectionConfig is one entry of a page's legacy sections tree
type SectionConfig struct {
	ID    string                 `json:"id"`
	Kind  SectionKind            `json:"kind"`
	Props map[string]interface{} `json:"props"`
}

var sectionKindToNodeName = map[SectionKind]string{
	SectionHero: "HeroBlock",
}

var nodeNameToSectionKind = map[string]SectionKind{
	"HeroBlock": SectionHero,
}

// NewSectionID generates a fresh section node id
func NewSectionID() string {
	return "section-" + utils.RandomID(9)
}

// SectionsToGraph serializes the legacy section list into an editor graph
func SectionsToGraph(sections []SectionConfig) Graph {
	g := Graph{}
	rootChildIDs := make([]string, 0, len(sections))
	root := RootID

	for _, section := range sections {
		nodeID := section.ID
		if !strings.HasPrefix(nodeID, "section-") {
			nodeID = NewSectionID()
		}
		rootChildIDs = append(rootChildIDs, nodeID)

		name := sectionKindToNodeName[section.Kind]
		if name == "" {
			name = sectionKindToNodeName[SectionHero]
		}

		props := section.Props
		if props == nil {
			props = map[string]interface{}{}
		}

		g[nodeID] = &Node{
			Type: NodeType{ResolvedName: name},
			Props: map[string]interface{}{
				"id":    section.ID,
				"kind":  string(section.Kind),
				"props": props,
			},
			Parent:      &root,
			DisplayName: name,
			Custom:      map[string]interface{}{},
			Nodes:       []string{},
		}
	}

	g[RootID] = &Node{
		Type:        NodeType{Plain: "div"},
		IsCanvas:    true,
		Props:       map[string]interface{}{},
		Parent:      nil,
		DisplayName: "div",
		Custom:      map[string]interface{}{},
		Nodes:       rootChildIDs,
	}

	return g
}

// GraphToSections reconstructs the legacy section list from an editor graph.
// Unlike block deserialization, unknown section names degrade to hero: the
// section set predates the kind registry and old documents may carry stale
// names.
func GraphToSections(g Graph) []SectionConfig {
	root := g[RootID]
	if root == nil {
		return []SectionConfig{}
	}

	sections := make([]SectionConfig, 0, len(root.Nodes))

	for _, nodeID := range root.Nodes {
		node := g[nodeID]
		if node == nil {
			continue
		}

		kind := SectionHero
		if mapped, ok := nodeNameToSectionKind[resolvedName(node)]; ok {
			kind = mapped
		}

		sections = append(sections, SectionConfig{
			ID:    nodePropString(node, "id", NewSectionID),
			Kind:  kind,
			Props: nodePropMap(node, "props"),
		})
	}

	return sections
}
