package fonts

import (
	"os"
	"strings"

	"github.com/flopp/go-findfont"
)

// localFamily maps a family name to system font file names per variant.
type localFamily struct {
	generic  string
	embedded bool
	regular  []string
	bold     []string
	italic   []string
}

// localFamilies is the allow-list of families that never go to the network.
var localFamilies = map[string]localFamily{
	SansSerif: {
		generic: SansSerif,
		regular: []string{"DejaVuSans.ttf", "LiberationSans-Regular.ttf", "Arial.ttf", "arial.ttf", "Helvetica.ttf"},
		bold:    []string{"DejaVuSans-Bold.ttf", "LiberationSans-Bold.ttf", "Arial Bold.ttf", "arialbd.ttf"},
		italic:  []string{"DejaVuSans-Oblique.ttf", "LiberationSans-Italic.ttf", "Arial Italic.ttf", "ariali.ttf"},
	},
	Serif: {
		generic: Serif,
		regular: []string{"DejaVuSerif.ttf", "LiberationSerif-Regular.ttf", "Times New Roman.ttf", "times.ttf", "Georgia.ttf"},
		bold:    []string{"DejaVuSerif-Bold.ttf", "LiberationSerif-Bold.ttf", "Times New Roman Bold.ttf", "timesbd.ttf"},
		italic:  []string{"DejaVuSerif-Italic.ttf", "LiberationSerif-Italic.ttf", "Times New Roman Italic.ttf", "timesi.ttf"},
	},
	"Go": {generic: SansSerif, embedded: true},
	"Arial": {
		generic: SansSerif,
		regular: []string{"Arial.ttf", "arial.ttf", "LiberationSans-Regular.ttf"},
		bold:    []string{"Arial Bold.ttf", "arialbd.ttf", "LiberationSans-Bold.ttf"},
	},
	"Helvetica": {
		generic: SansSerif,
		regular: []string{"Helvetica.ttf", "LiberationSans-Regular.ttf"},
		bold:    []string{"Helvetica-Bold.ttf", "LiberationSans-Bold.ttf"},
	},
	"Verdana": {
		generic: SansSerif,
		regular: []string{"Verdana.ttf", "verdana.ttf"},
		bold:    []string{"Verdana Bold.ttf", "verdanab.ttf"},
	},
	"DejaVu Sans": {
		generic: SansSerif,
		regular: []string{"DejaVuSans.ttf"},
		bold:    []string{"DejaVuSans-Bold.ttf"},
	},
	"Times New Roman": {
		generic: Serif,
		regular: []string{"Times New Roman.ttf", "times.ttf", "LiberationSerif-Regular.ttf"},
		bold:    []string{"Times New Roman Bold.ttf", "timesbd.ttf", "LiberationSerif-Bold.ttf"},
	},
	"Georgia": {
		generic: Serif,
		regular: []string{"Georgia.ttf", "georgia.ttf"},
		bold:    []string{"Georgia Bold.ttf", "georgiab.ttf"},
	},
}

// LocalFamilies returns the allow-list of families resolved without the
// network.
func LocalFamilies() []string {
	out := make([]string, 0, len(localFamilies))
	for name := range localFamilies {
		out = append(out, name)
	}
	return out
}

// IsLocal reports whether family is on the local allow-list. Matching is
// case-insensitive.
func IsLocal(family string) bool {
	_, ok := lookupLocal(family)
	return ok
}

func lookupLocal(family string) (string, bool) {
	if _, ok := localFamilies[family]; ok {
		return family, true
	}
	for name := range localFamilies {
		if strings.EqualFold(name, family) {
			return name, true
		}
	}
	return "", false
}

// findFile returns the data of the first candidate file found on the system.
func findFile(candidates []string) ([]byte, string, bool) {
	for _, name := range candidates {
		path, err := findfont.Find(name)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return data, path, true
	}
	return nil, "", false
}

// resolveLocal loads the system variants of a local family. The boolean is
// false when no regular variant was found.
func resolveLocal(lf localFamily) ([]*Variant, bool) {
	var out []*Variant
	add := func(candidates []string, weight int, italic bool) bool {
		data, path, ok := findFile(candidates)
		if !ok {
			return false
		}
		v, err := ParseVariant(data, weight, italic)
		if err != nil {
			return false
		}
		v.Origin = path
		out = append(out, v)
		return true
	}
	if !add(lf.regular, 400, false) {
		return nil, false
	}
	add(lf.bold, 700, false)
	add(lf.italic, 400, true)
	return out, true
}
