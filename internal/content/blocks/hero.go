package blocks

// ExtractHeroElements locates the single heroLayout node directly under ROOT
// and reads its first child as the left column canvas and its second child as
// the right column canvas. Returns nil when no heroLayout node is present,
// in which case callers fall back to flat block rendering.
func ExtractHeroElements(g Graph) *HeroElementsByColumn {
	root := g[RootID]
	if root == nil {
		return nil
	}

	var layoutNode *Node
	for _, nodeID := range root.Nodes {
		node := g[nodeID]
		if node == nil {
			continue
		}
		if kind, ok := KindForNodeName(resolvedName(node)); ok && kind == KindHeroLayout {
			layoutNode = node
			break
		}
	}
	if layoutNode == nil {
		return nil
	}

	var leftCanvasID, rightCanvasID string
	if len(layoutNode.Nodes) > 0 {
		leftCanvasID = layoutNode.Nodes[0]
	}
	if len(layoutNode.Nodes) > 1 {
		rightCanvasID = layoutNode.Nodes[1]
	}

	return &HeroElementsByColumn{
		Left:  canvasElements(g, leftCanvasID, ColumnLeft),
		Right: canvasElements(g, rightCanvasID, ColumnRight),
	}
}

func canvasElements(g Graph, canvasID string, column Column) []HeroElementConfig {
	result := []HeroElementConfig{}
	if canvasID == "" {
		return result
	}
	canvas := g[canvasID]
	if canvas == nil {
		return result
	}

	for _, nodeID := range canvas.Nodes {
		node := g[nodeID]
		if node == nil {
			continue
		}

		kind, ok := KindForNodeName(resolvedName(node))
		if !ok || !IsHeroKind(kind) {
			continue
		}

		result = append(result, HeroElementConfig{
			ID:     nodePropString(node, "id", func() string { return nodeID }),
			Kind:   kind,
			Column: column,
			Props:  nodePropMap(node, "props"),
			Hidden: nodePropBool(node, "hidden"),
		})
	}

	return result
}
