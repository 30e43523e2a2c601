package render

import (
	"sort"

	"github.com/charmbracelet/glamour/styles"
)

const (
	StyleAuto  = styles.AutoStyle
	StyleDark  = styles.DarkStyle
	StyleLight = styles.LightStyle
	StyleNoTTY = styles.NoTTYStyle
)

// IsBuiltinStyle reports whether style names one of glamour's styles
// rather than a JSON file
func IsBuiltinStyle(style string) bool {
	if style == StyleAuto {
		return true
	}
	_, ok := styles.DefaultStyles[style]
	return ok
}

// StyleNames lists the built-in style names: auto first, the rest sorted
func StyleNames() []string {
	var names []string
	for name := range styles.DefaultStyles {
		if name != StyleAuto {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append([]string{StyleAuto}, names...)
}
