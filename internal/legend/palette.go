package legend

// DefaultPalette is the categorical color cycle assigned to link types in
// order of first appearance. Ten entries; an eleventh concurrent type wraps
// around and shares the first color.
var DefaultPalette = []string{
	"#2DB682",
	"#0171E3",
	"#E07C3A",
	"#9B59B6",
	"#E74C3C",
	"#1ABC9C",
	"#F1C40F",
	"#3498DB",
	"#E91E63",
	"#00BCD4",
}

// DefaultTextColor is the legend caption color until a theme applies its own.
const DefaultTextColor = "#E0E0E0"

// Legend row layout, in screen pixels.
const (
	rowHeight  = 18.0
	originX    = 16.0
	originY    = 16.0
	markLength = 14.0
	markGap    = 6.0
	markWidth  = 3.0
)
