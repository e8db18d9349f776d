package widget

// DefaultCompactWidth is the viewport width (in columns) at or below which
// the compact panel toggle stays visible even while the panel is open.
const DefaultCompactWidth = 100

// Toggle glyphs shown on the panel toggle.
const (
	ToggleIconOpen   = "‹"
	ToggleIconClosed = "›"
)

// Layout is the visibility state derived from the panel flag and the viewport.
type Layout struct {
	ConfigCollapsed      bool
	ChatExpanded         bool
	ToggleIcon           string
	CompactToggleVisible bool
}

// ComputeLayout derives the panel layout. A width of zero means unknown and is
// treated as wide.
func ComputeLayout(configOpen bool, width, compactWidth int) Layout {
	if !configOpen {
		return Layout{
			ConfigCollapsed:      true,
			ChatExpanded:         true,
			ToggleIcon:           ToggleIconClosed,
			CompactToggleVisible: true,
		}
	}

	return Layout{
		ToggleIcon:           ToggleIconOpen,
		CompactToggleVisible: width > 0 && width <= compactWidth,
	}
}
