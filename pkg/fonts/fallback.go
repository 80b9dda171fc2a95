package fonts

import "strings"

var serifTokens = []string{
	"serif", "times", "georgia", "garamond", "playfair", "merriweather",
	"lora", "slab", "baskerville", "bodoni", "cormorant", "crimson", "didot",
	"libre caslon", "pt serif",
}

// Fallback picks the generic family to use when family cannot be loaded.
// Names that look like serif faces map to [Serif], everything else to
// [SansSerif].
func Fallback(family string) string {
	name := strings.ToLower(family)
	if strings.Contains(name, "sans") {
		return SansSerif
	}
	for _, tok := range serifTokens {
		if strings.Contains(name, tok) {
			return Serif
		}
	}
	return SansSerif
}
