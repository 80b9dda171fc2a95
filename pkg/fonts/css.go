package fonts

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// FontFace is one @font-face rule of a font descriptor.
type FontFace struct {
	Family string
	Weight int
	Italic bool
	URL    string
	Format string
}

var (
	fontFaceRe = regexp.MustCompile(`(?is)@font-face\s*\{([^}]*)\}`)
	familyRe   = regexp.MustCompile(`(?i)font-family\s*:\s*['"]?([^;'"]+?)['"]?\s*(;|$)`)
	weightRe   = regexp.MustCompile(`(?i)font-weight\s*:\s*(\d+|normal|bold)`)
	styleRe    = regexp.MustCompile(`(?i)font-style\s*:\s*(\w+)`)
	srcRe      = regexp.MustCompile(`(?i)src\s*:\s*([^;]+)`)
	urlRe      = regexp.MustCompile(`(?i)url\(\s*['"]?([^'")]+)['"]?\s*\)(?:\s*format\(\s*['"]?([^'")]+)['"]?\s*\))?`)
)

// ParseFontFaces extracts the loadable variants of a CSS font descriptor.
// For each rule the first TrueType or OpenType source wins; rules that
// only offer WOFF sources are skipped. Relative URLs are resolved against
// base when it is non-nil.
func ParseFontFaces(css string, base *url.URL) []FontFace {
	var out []FontFace
	for _, m := range fontFaceRe.FindAllStringSubmatch(css, -1) {
		body := m[1]
		face := FontFace{Weight: 400}

		if fm := familyRe.FindStringSubmatch(body); fm != nil {
			face.Family = strings.TrimSpace(fm[1])
		}
		if wm := weightRe.FindStringSubmatch(body); wm != nil {
			switch strings.ToLower(wm[1]) {
			case "normal":
				face.Weight = 400
			case "bold":
				face.Weight = 700
			default:
				face.Weight, _ = strconv.Atoi(wm[1])
			}
		}
		if sm := styleRe.FindStringSubmatch(body); sm != nil {
			s := strings.ToLower(sm[1])
			face.Italic = s == "italic" || s == "oblique"
		}

		src := srcRe.FindStringSubmatch(body)
		if src == nil {
			continue
		}
		for _, um := range urlRe.FindAllStringSubmatch(src[1], -1) {
			u, format := strings.TrimSpace(um[1]), strings.ToLower(um[2])
			if !loadableFormat(u, format) {
				continue
			}
			face.URL = resolveURL(base, u)
			face.Format = format
			break
		}
		if face.URL != "" {
			out = append(out, face)
		}
	}
	return out
}

func loadableFormat(u, format string) bool {
	switch format {
	case "truetype", "opentype":
		return true
	case "":
		ext := strings.ToLower(path.Ext(strings.SplitN(u, "?", 2)[0]))
		return ext != ".woff" && ext != ".woff2" && ext != ".eot" && ext != ".svg"
	default:
		return false
	}
}

func resolveURL(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}
