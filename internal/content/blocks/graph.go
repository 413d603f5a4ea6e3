package blocks

import (
	"encoding/json"
	"strings"

	"github.com/highdesertlabs/porchlight/pkg/logger"
)

// RootID is the synthetic root node every graph is rooted at
const RootID = "ROOT"

// NodeType is the tagged type of a graph node: either a plain element name
// (the root canvas is a "div") or a resolved block component name.
type NodeType struct {
	Plain        string
	ResolvedName string
}

// MarshalJSON encodes the plain form as a JSON string and the resolved form
// as {"resolvedName": ...}, matching the editor's serialized state.
func (t NodeType) MarshalJSON() ([]byte, error) {
	if t.ResolvedName != "" {
		return json.Marshal(struct {
			ResolvedName string `json:"resolvedName"`
		}{ResolvedName: t.ResolvedName})
	}
	return json.Marshal(t.Plain)
}

// UnmarshalJSON accepts both encodings
func (t *NodeType) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		return json.Unmarshal(data, &t.Plain)
	}
	var obj struct {
		ResolvedName string `json:"resolvedName"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	t.ResolvedName = obj.ResolvedName
	return nil
}

// Node is one entry of the editor's serialized node graph
type Node struct {
	Type        NodeType               `json:"type"`
	IsCanvas    bool                   `json:"isCanvas,omitempty"`
	Props       map[string]interface{} `json:"props"`
	Parent      *string                `json:"parent"`
	DisplayName string                 `json:"displayName"`
	Custom      map[string]interface{} `json:"custom"`
	Nodes       []string               `json:"nodes"`
}

// Graph is a serialized node graph keyed by node id
type Graph map[string]*Node

// ParseGraph decodes a serialized graph document
func ParseGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, err
	}
	return g, nil
}

// resolvedName extracts a node's resolved component name, or "" for plain nodes
func resolvedName(node *Node) string {
	if node == nil {
		return ""
	}
	return node.Type.ResolvedName
}

// BlocksToGraph serializes an ordered block list into a node graph rooted at
// a synthetic ROOT canvas, one child node per block.
func BlocksToGraph(list []BlockConfig) Graph {
	g := Graph{}
	rootChildIDs := make([]string, 0, len(list))
	root := RootID

	for _, block := range list {
		nodeID := block.ID
		if !strings.HasPrefix(nodeID, "block-") {
			nodeID = NewBlockID()
		}
		rootChildIDs = append(rootChildIDs, nodeID)

		name := NodeName(block.Kind)
		if name == "" {
			name = NodeName(KindHeroHeadline)
		}

		props := block.Props
		if props == nil {
			props = map[string]interface{}{}
		}

		g[nodeID] = &Node{
			Type: NodeType{ResolvedName: name},
			Props: map[string]interface{}{
				"id":     block.ID,
				"kind":   string(block.Kind),
				"props":  props,
				"hidden": block.Hidden,
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

// GraphToBlocks walks ROOT's children in order and reconstructs the block
// list. Nodes with unmapped type names are skipped with a warning so that
// schema drift surfaces in logs instead of silently losing content.
func GraphToBlocks(g Graph) []BlockConfig {
	root := g[RootID]
	if root == nil {
		return []BlockConfig{}
	}

	list := make([]BlockConfig, 0, len(root.Nodes))

	for _, nodeID := range root.Nodes {
		node := g[nodeID]
		if node == nil {
			continue
		}

		name := resolvedName(node)
		kind, ok := KindForNodeName(name)
		if !ok {
			logger.WarnEvent().
				Str("node_id", nodeID).
				Str("type_name", name).
				Msg("Skipping graph node with unmapped type name")
			continue
		}

		list = append(list, BlockConfig{
			ID:     nodePropString(node, "id", NewBlockID),
			Kind:   kind,
			Props:  nodePropMap(node, "props"),
			Hidden: nodePropBool(node, "hidden"),
		})
	}

	return list
}

func nodePropString(node *Node, key string, fallback func() string) string {
	if v, ok := node.Props[key].(string); ok {
		return v
	}
	return fallback()
}

func nodePropMap(node *Node, key string) map[string]interface{} {
	if v, ok := node.Props[key].(map[string]interface{}); ok {
		return v
	}
	return map[string]interface{}{}
}

func nodePropBool(node *Node, key string) bool {
	v, ok := node.Props[key].(bool)
	return ok && v
}
