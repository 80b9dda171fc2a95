package colorize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/postcraft/pkg/errors"
	"github.com/matzehuels/postcraft/pkg/templates"
)

// Strategy rewrites the color values of one template pattern family.
type Strategy interface {
	// Pattern is the family the strategy handles.
	Pattern() templates.Pattern
	// Placeholders lists the authored colors the strategy replaces. None
	// of them may survive Apply.
	Placeholders() []string
	// Apply returns recolored markup. The input is not modified.
	Apply(markup []byte, pal Palette) ([]byte, error)
}

var builtinStrategies = []Strategy{
	Classify{},
	Radial{StrokeOpacity: 2.5, StrokeWidth: 1.5},
	Stop{StopID: "brand-stop", BackingID: "backing", Tint: 0.85},
}

// Strategies returns the strategies for every builtin pattern family.
func Strategies() map[templates.Pattern]Strategy {
	m := make(map[templates.Pattern]Strategy, len(builtinStrategies))
	for _, s := range builtinStrategies {
		m[s.Pattern()] = s
	}
	return m
}

var (
	fillAttr     = regexp.MustCompile(`\bfill="(#[0-9a-fA-F]{3,8})"`)
	fillStyle    = regexp.MustCompile(`\bfill\s*:\s*(#[0-9a-fA-F]{3,8})`)
	svgOpen      = regexp.MustCompile(`<svg\b[^>]*>`)
	viewBoxAttr  = regexp.MustCompile(`\bviewBox="([^"]+)"`)
	blendTag     = regexp.MustCompile(`<[a-zA-Z]+\b[^>]*mix-blend-mode[^>]*>`)
	blendDecl    = regexp.MustCompile(`mix-blend-mode\s*:\s*[^;"]*;?\s*`)
	urlRef       = regexp.MustCompile(`url\(#([^)]+)\)`)
	strokeColor  = regexp.MustCompile(`\bstroke="(#[0-9a-fA-F]{3,8})"`)
	strokeOpac   = regexp.MustCompile(`\bstroke-opacity="([0-9.]+)"`)
	strokeWidth  = regexp.MustCompile(`\bstroke-width="([0-9.]+)"`)
	emptyStyle   = regexp.MustCompile(`\s*style="\s*"`)
	tagTerminate = regexp.MustCompile(`\s*/?>$`)
)

// Classify maps every fill to primary or secondary and injects a
// background rectangle behind the artwork. Saturated warm hues and light
// tones become secondary; everything else becomes primary.
type Classify struct{}

func (Classify) Pattern() templates.Pattern { return templates.PatternClassify }

func (Classify) Placeholders() []string {
	return []string{"#243B6B", "#5C7CBA", "#E07A2F", "#F2C14E"}
}

func (c Classify) Apply(markup []byte, pal Palette) ([]byte, error) {
	open := svgOpen.FindIndex(markup)
	if open == nil {
		return nil, errors.New(errors.ErrCodeResourceLoad, "classify: no <svg> element")
	}

	classify := func(hex string) string {
		col, err := Parse(hex)
		if err != nil {
			return hex
		}
		h, s, l := col.Hsl()
		warm := s > 0.35 && (h < 70 || h >= 300)
		if warm || l >= 0.6 {
			return Hex(pal.Secondary)
		}
		return Hex(pal.Primary)
	}

	out := replaceGroup(fillAttr, string(markup), classify)
	out = replaceGroup(fillStyle, out, classify)

	x, y, w, h := viewBox(string(markup))
	rect := fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`,
		num(x), num(y), num(w), num(h), Hex(pal.Background))
	at := svgOpen.FindStringIndex(out)[1]
	return []byte(out[:at] + rect + out[at:]), nil
}

// Radial replaces the gradient referenced by a blend-mode element with a
// radial gradient from a light tint of the primary at the center to the
// primary at the edge, drops the blend mode, and strengthens strokes so
// they stay visible on the darker result.
type Radial struct {
	StrokeOpacity float64
	StrokeWidth   float64
}

func (Radial) Pattern() templates.Pattern { return templates.PatternRadial }

func (Radial) Placeholders() []string {
	return []string{"#FF00AA", "#00CCFF", "#C0C0C0"}
}

func (r Radial) Apply(markup []byte, pal Palette) ([]byte, error) {
	src := string(markup)
	tag := blendTag.FindString(src)
	if tag == "" {
		return nil, errors.New(errors.ErrCodeResourceLoad, "radial: no blend-mode element")
	}
	ref := urlRef.FindStringSubmatch(tag)
	if ref == nil {
		return nil, errors.New(errors.ErrCodeResourceLoad, "radial: blend-mode element has no gradient fill")
	}
	id := ref[1]
	grad := regexp.MustCompile(`(?s)<linearGradient\b[^>]*\bid="` + regexp.QuoteMeta(id) + `"[^>]*>.*?</linearGradient>`)
	if !grad.MatchString(src) {
		return nil, errors.New(errors.ErrCodeResourceLoad, "radial: gradient %q not found", id)
	}

	radial := fmt.Sprintf(`<radialGradient id="%s" cx="0.5" cy="0.5" r="0.75">`+
		`<stop offset="0" stop-color="%s"/><stop offset="1" stop-color="%s"/></radialGradient>`,
		id, Hex(Lighten(pal.Primary, 0.35)), Hex(pal.Primary))
	out := grad.ReplaceAllLiteralString(src, radial)

	out = blendTag.ReplaceAllStringFunc(out, func(t string) string {
		return emptyStyle.ReplaceAllString(blendDecl.ReplaceAllString(t, ""), "")
	})

	stroke := Hex(Lighten(pal.Primary, 0.6))
	out = replaceGroup(strokeColor, out, func(string) string { return stroke })
	out = replaceGroup(strokeOpac, out, func(v string) string {
		return scale(v, r.StrokeOpacity, 1)
	})
	out = replaceGroup(strokeWidth, out, func(v string) string {
		return scale(v, r.StrokeWidth, 0)
	})
	return []byte(out), nil
}

// Stop recolors one named gradient stop with the primary and tints the
// backing element.
type Stop struct {
	StopID    string
	BackingID string
	// Tint is how far the backing fill is lightened towards white.
	Tint float64
}

func (Stop) Pattern() templates.Pattern { return templates.PatternStop }

func (Stop) Placeholders() []string {
	return []string{"#3366FF", "#D9D9D9"}
}

func (s Stop) Apply(markup []byte, pal Palette) ([]byte, error) {
	out, ok := setAttrOn(string(markup), "stop", s.StopID, "stop-color", Hex(pal.Primary))
	if !ok {
		return nil, errors.New(errors.ErrCodeResourceLoad, "stop: no stop with id %q", s.StopID)
	}
	out, ok = setAttrOn(out, "", s.BackingID, "fill", Hex(Lighten(pal.Primary, s.Tint)))
	if !ok {
		return nil, errors.New(errors.ErrCodeResourceLoad, "stop: no element with id %q", s.BackingID)
	}
	return []byte(out), nil
}

// setAttrOn sets attr on the first element with the given id. An empty
// element name matches any element.
func setAttrOn(src, element, id, attr, value string) (string, bool) {
	name := `[a-zA-Z]+`
	if element != "" {
		name = regexp.QuoteMeta(element)
	}
	re := regexp.MustCompile(`<` + name + `\b[^>]*\bid="` + regexp.QuoteMeta(id) + `"[^>]*>`)
	loc := re.FindStringIndex(src)
	if loc == nil {
		return src, false
	}
	return src[:loc[0]] + setAttr(src[loc[0]:loc[1]], attr, value) + src[loc[1]:], true
}

func setAttr(tag, attr, value string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(attr) + `="[^"]*"`)
	kv := attr + `="` + value + `"`
	if re.MatchString(tag) {
		return re.ReplaceAllLiteralString(tag, kv)
	}
	end := tagTerminate.FindStringIndex(tag)
	return tag[:end[0]] + " " + kv + tag[end[0]:]
}

// replaceGroup replaces the first submatch of every match of re.
func replaceGroup(re *regexp.Regexp, src string, fn func(string) string) string {
	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringSubmatchIndex(src, -1) {
		b.WriteString(src[last:m[2]])
		b.WriteString(fn(src[m[2]:m[3]]))
		last = m[3]
	}
	b.WriteString(src[last:])
	return b.String()
}

// scale multiplies a numeric attribute value. A positive limit caps the
// result.
func scale(v string, factor, limit float64) string {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	f *= factor
	if limit > 0 {
		f = math.Min(f, limit)
	}
	return num(f)
}

func num(f float64) string {
	return strconv.FormatFloat(math.Round(f*1000)/1000, 'f', -1, 64)
}

// viewBox returns the artwork's viewBox, defaulting to the square canvas.
func viewBox(src string) (x, y, w, h float64) {
	x, y, w, h = 0, 0, 1080, 1080
	m := viewBoxAttr.FindStringSubmatch(src)
	if m == nil {
		return
	}
	f := strings.FieldsFunc(m[1], func(r rune) bool { return r == ' ' || r == ',' })
	if len(f) != 4 {
		return
	}
	var v [4]float64
	for i, s := range f {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return
	}
	return v[0], v[1], v[2], v[3]
}
