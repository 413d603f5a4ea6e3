package gridlayout

import (
	"encoding/json"
	"fmt"
)

// Region identifiers for the four fixed layout regions
const (
	RegionHeader = "header-bar"
	RegionFooter = "footer-bar"
	RegionText   = "text-container"
	RegionForm   = "form-container"
)

// Grid geometry constants. The grid is 12 columns wide; the header and footer
// bars pin to fixed rows and the two content containers live between them.
const (
	Columns         = 12
	headerRow       = 0
	headerHeight    = 1
	contentRowStart = 1
	footerRow       = 7
	footerHeight    = 1
)

// Item is one region's saved grid placement
type Item struct {
	I      string `json:"i"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	W      int    `json:"w"`
	H      int    `json:"h"`
	MinW   *int   `json:"minW,omitempty"`
	MinH   *int   `json:"minH,omitempty"`
	Static *bool  `json:"static,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
}

// Visible reports whether the region should render
func (it Item) Visible() bool {
	return !it.Hidden
}

// GridColumn returns the explicit CSS grid-column placement for the item
func (it Item) GridColumn() string {
	return fmt.Sprintf("%d / span %d", it.X+1, it.W)
}

// GridRow returns the explicit CSS grid-row placement for the item
func (it Item) GridRow() string {
	return fmt.Sprintf("%d / span %d", it.Y+1, it.H)
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

// DefaultHeader returns the default header bar placement
func DefaultHeader() Item {
	return Item{I: RegionHeader, X: 0, Y: headerRow, W: Columns, H: headerHeight, Static: boolPtr(true)}
}

// DefaultFooter returns the default footer bar placement
func DefaultFooter() Item {
	return Item{I: RegionFooter, X: 0, Y: footerRow, W: Columns, H: footerHeight, Static: boolPtr(true)}
}

// DefaultText returns the default text container placement
func DefaultText() Item {
	return Item{I: RegionText, X: 0, Y: contentRowStart, W: 8, H: 5, MinW: intPtr(4), MinH: intPtr(3)}
}

// DefaultForm returns the default form container placement
func DefaultForm() Item {
	return Item{I: RegionForm, X: 8, Y: contentRowStart, W: 4, H: 5, MinW: intPtr(4), MinH: intPtr(3)}
}

// Defaults returns the four regions in canonical order
func Defaults() []Item {
	return []Item{DefaultHeader(), DefaultFooter(), DefaultText(), DefaultForm()}
}

// Parse decodes a saved layoutData document. A nil or empty document is valid
// and yields an empty item list.
func Parse(data []byte) ([]Item, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Merge overlays saved items onto the positional defaults. Each of the four
// regions resolves independently: a region missing from the saved array falls
// back wholly to its default, and a saved region only overrides the fields it
// carries geometry for. Hiding one region never perturbs another's geometry.
func Merge(saved []Item) []Item {
	find := func(id string) *Item {
		for i := range saved {
			if saved[i].I == id {
				return &saved[i]
			}
		}
		return nil
	}

	merged := make([]Item, 0, 4)
	for _, def := range Defaults() {
		item := find(def.I)
		if item == nil {
			merged = append(merged, def)
			continue
		}

		out := *item
		out.I = def.I
		if out.MinW == nil {
			out.MinW = def.MinW
		}
		if out.MinH == nil {
			out.MinH = def.MinH
		}
		if out.Static == nil {
			out.Static = def.Static
		}
		merged = append(merged, out)
	}
	return merged
}

// Find returns the item for a region id, or nil
func Find(items []Item, id string) *Item {
	for i := range items {
		if items[i].I == id {
			return &items[i]
		}
	}
	return nil
}

// UseExplicitPlacement reports whether the renderer should switch from the
// default responsive split to explicit grid placement: both content
// containers must be present and visible.
func UseExplicitPlacement(items []Item) bool {
	text := Find(items, RegionText)
	form := Find(items, RegionForm)
	return text != nil && text.Visible() && form != nil && form.Visible()
}
