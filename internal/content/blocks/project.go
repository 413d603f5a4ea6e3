package blocks

// VisibleElements projects hero elements for rendering: array order is
// preserved and hidden elements are dropped.
func VisibleElements(elements []HeroElementConfig) []HeroElementConfig {
	visible := make([]HeroElementConfig, 0, len(elements))
	for _, el := range elements {
		if el.Hidden {
			continue
		}
		visible = append(visible, el)
	}
	return visible
}

// VisibleBlocks projects a flat block list for rendering, dropping hidden blocks.
func VisibleBlocks(list []BlockConfig) []BlockConfig {
	visible := make([]BlockConfig, 0, len(list))
	for _, block := range list {
		if block.Hidden {
			continue
		}
		visible = append(visible, block)
	}
	return visible
}
