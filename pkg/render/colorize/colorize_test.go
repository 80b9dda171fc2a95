package colorize

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/fogleman/gg"

	"github.com/matzehuels/postcraft/pkg/errors"
	"github.com/matzehuels/postcraft/pkg/post"
	"github.com/matzehuels/postcraft/pkg/resource"
	"github.com/matzehuels/postcraft/pkg/templates"
)

func testPalette(t *testing.T) Palette {
	t.Helper()
	pal, err := NewPalette(post.BrandPalette{Primary: "#0F766E", Secondary: "#DB2777"})
	if err != nil {
		t.Fatalf("NewPalette: %v", err)
	}
	return pal
}

func TestNewPalette(t *testing.T) {
	pal, err := NewPalette(post.BrandPalette{})
	if err != nil {
		t.Fatalf("NewPalette: %v", err)
	}
	if got := Hex(pal.Primary); got != post.DefaultPrimary {
		t.Errorf("primary = %s, want %s", got, post.DefaultPrimary)
	}
	if pal.Accent != pal.Secondary {
		t.Errorf("accent should default to secondary")
	}

	if _, err := NewPalette(post.BrandPalette{Primary: "navy"}); !errors.Is(err, errors.ErrCodeInvalidColor) {
		t.Errorf("invalid primary: err = %v, want INVALID_COLOR", err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#fff", "#FFFFFF"},
		{"#1e3a8a", "#1E3A8A"},
		{"#1E3A8A80", "#1E3A8A"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := Hex(c); got != tt.want {
				t.Errorf("Hex = %s, want %s", got, tt.want)
			}
		})
	}
	if a := Alpha("#00000080"); a < 0.5 || a > 0.51 {
		t.Errorf("Alpha = %v, want ~0.5", a)
	}
	if a := Alpha("#000000"); a != 1 {
		t.Errorf("Alpha = %v, want 1", a)
	}
}

func TestContrastText(t *testing.T) {
	if c := ContrastText(white); c == white {
		t.Error("text on white should be dark")
	}
	navy, _ := Parse("#1E3A8A")
	if c := ContrastText(navy); c != white {
		t.Errorf("text on navy = %s, want white", Hex(c))
	}
}

func TestStrategiesReplacePlaceholders(t *testing.T) {
	pal := testPalette(t)
	c := New(nil)
	reg := templates.Default()

	for _, def := range reg.All() {
		t.Run(string(def.ID), func(t *testing.T) {
			s, ok := Strategies()[def.Pattern]
			if !ok {
				t.Fatalf("no strategy for pattern %q", def.Pattern)
			}
			out, err := c.Markup(context.Background(), def, pal)
			if err != nil {
				t.Fatalf("Markup: %v", err)
			}
			upper := strings.ToUpper(string(out))
			for _, p := range s.Placeholders() {
				if strings.Contains(upper, strings.ToUpper(p)) {
					t.Errorf("placeholder %s survived", p)
				}
			}
			if !strings.Contains(upper, Hex(pal.Primary)) {
				t.Errorf("primary %s not present in output", Hex(pal.Primary))
			}
		})
	}
}

func TestClassify(t *testing.T) {
	pal := testPalette(t)
	src := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 100">` +
		`<rect fill="#243B6B"/><rect fill="#F2C14E"/><rect style="fill:#EEEEEE"/><rect fill="none"/></svg>`
	out, err := Classify{}.Apply([]byte(src), pal)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := string(out)

	bg := `<rect x="0" y="0" width="200" height="100" fill="` + Hex(pal.Background) + `"/>`
	if !strings.Contains(got, `viewBox="0 0 200 100">`+bg) {
		t.Errorf("background rect not injected first:\n%s", got)
	}
	for _, want := range []string{
		`<rect fill="` + Hex(pal.Primary) + `"/>`,
		`<rect fill="` + Hex(pal.Secondary) + `"/>`,
		`style="fill:` + Hex(pal.Secondary) + `"`,
		`fill="none"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %s:\n%s", want, got)
		}
	}

	if _, err := (Classify{}).Apply([]byte("<html/>"), pal); err == nil {
		t.Error("expected error for markup without <svg>")
	}
}

func TestRadial(t *testing.T) {
	pal := testPalette(t)
	data, err := resource.NewLoader(resource.WithBuiltin(templates.Assets())).Load(context.Background(), "builtin:halo.svg")
	if err != nil {
		t.Fatal(err)
	}
	out, err := Strategies()[templates.PatternRadial].Apply(data, pal)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := string(out)
	for _, bad := range []string{"mix-blend-mode", "linearGradient"} {
		if strings.Contains(got, bad) {
			t.Errorf("output still contains %s", bad)
		}
	}
	for _, want := range []string{
		`<radialGradient id="blend"`,
		`style="opacity:0.9"`,
		`stroke-opacity="0.5"`,
		`stroke-opacity="0.375"`,
		`stroke-width="6"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %s", want)
		}
	}

	if _, err := (Radial{}).Apply([]byte(`<svg><rect fill="#fff"/></svg>`), pal); err == nil {
		t.Error("expected error without blend-mode element")
	}
}

func TestStop(t *testing.T) {
	pal := testPalette(t)
	src := `<svg><linearGradient id="g"><stop id="brand-stop" offset="0"/></linearGradient>` +
		`<rect id="backing" fill="#D9D9D9"/></svg>`
	s := Stop{StopID: "brand-stop", BackingID: "backing", Tint: 0.85}
	out, err := s.Apply([]byte(src), pal)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := string(out)
	if !strings.Contains(got, `<stop id="brand-stop" offset="0" stop-color="`+Hex(pal.Primary)+`"/>`) {
		t.Errorf("stop color not set:\n%s", got)
	}
	if !strings.Contains(got, `fill="`+Hex(Lighten(pal.Primary, 0.85))+`"`) {
		t.Errorf("backing not tinted:\n%s", got)
	}

	if _, err := s.Apply([]byte(`<svg><rect id="backing"/></svg>`), pal); err == nil {
		t.Error("expected error when stop is missing")
	}
}

// markerStrategy replaces the whole document with a marker.
type markerStrategy struct{ pattern templates.Pattern }

func (m markerStrategy) Pattern() templates.Pattern { return m.pattern }
func (markerStrategy) Placeholders() []string { return nil }
func (markerStrategy) Apply([]byte, Palette) ([]byte, error) {
	return []byte("<svg id=\"marker\"/>"), nil
}

func TestWithStrategyOverridesBuiltin(t *testing.T) {
	def, _ := templates.Default().Get(templates.Halo)
	c := New(nil, WithStrategy(markerStrategy{pattern: def.Pattern}))

	got, err := c.Markup(context.Background(), def, testPalette(t))
	if err != nil {
		t.Fatalf("Markup: %v", err)
	}
	if string(got) != `<svg id="marker"/>` {
		t.Errorf("Markup = %.60q, want the registered strategy's output", got)
	}
}

func TestRenderVector(t *testing.T) {
	c := New(nil)
	def, _ := templates.Default().Get(templates.Halo)
	img, err := c.Render(context.Background(), def, testPalette(t), 540)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 540 || b.Dy() != 540 {
		t.Errorf("bounds = %v, want 540x540", b)
	}
}

func pngDataURL(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return resource.DataURL("image/png", buf.Bytes())
}

func TestRenderRaster(t *testing.T) {
	def := templates.Definition{
		ID:       "photo",
		Source:   pngDataURL(t, 200, 100, color.NRGBA{R: 200, A: 255}),
		Category: templates.CategoryRaster,
	}
	c := New(nil)
	img, err := c.Render(context.Background(), def, testPalette(t), 1080)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1080 || b.Dy() != 540 {
		t.Errorf("bounds = %v, want 1080x540", b)
	}

	bg := c.Background(context.Background(), def, testPalette(t), 1080, 1080)
	if b := bg.Bounds(); b.Dx() != 1080 || b.Dy() != 1080 {
		t.Errorf("background bounds = %v, want 1080x1080", b)
	}
	if r, _, _, _ := bg.At(540, 100).RGBA(); r>>8 < 190 {
		t.Errorf("raster not drawn at top: r = %d", r>>8)
	}
}

func TestBackgroundFallsBack(t *testing.T) {
	pal := testPalette(t)
	def := templates.Definition{ID: "gone", Source: "builtin:missing.svg", Category: templates.CategoryVector}
	got := New(nil).Background(context.Background(), def, pal, 100, 100)
	want := Fallback(pal, 100, 100)
	if b := got.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("bounds = %v", b)
	}
	for _, p := range []image.Point{{0, 0}, {50, 50}, {99, 99}} {
		if got.At(p.X, p.Y) != want.At(p.X, p.Y) {
			t.Errorf("pixel %v = %v, want %v", p, got.At(p.X, p.Y), want.At(p.X, p.Y))
		}
	}
}

func TestFill(t *testing.T) {
	pal := testPalette(t)
	angle := 90.0

	tests := []struct {
		name  string
		bg    post.Background
		check func(t *testing.T, img image.Image)
	}{
		{
			name: "solid",
			bg:   post.Background{Kind: post.BackgroundSolid, Colors: []string{"#FF0000"}},
			check: func(t *testing.T, img image.Image) {
				r, g, b, _ := img.At(10, 10).RGBA()
				if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
					t.Errorf("pixel = %d,%d,%d, want red", r>>8, g>>8, b>>8)
				}
			},
		},
		{
			name: "linear left to right",
			bg:   post.Background{Kind: post.BackgroundLinear, Colors: []string{"#000000", "#FFFFFF"}, Angle: &angle},
			check: func(t *testing.T, img image.Image) {
				l, _, _, _ := img.At(0, 50).RGBA()
				r, _, _, _ := img.At(99, 50).RGBA()
				if l>>8 > 20 || r>>8 < 235 {
					t.Errorf("left = %d, right = %d", l>>8, r>>8)
				}
			},
		},
		{
			name: "radial",
			bg:   post.Background{Kind: post.BackgroundRadial, Colors: []string{"#FFFFFF", "#000000"}},
			check: func(t *testing.T, img image.Image) {
				c, _, _, _ := img.At(50, 50).RGBA()
				e, _, _, _ := img.At(0, 0).RGBA()
				if c <= e {
					t.Errorf("center %d should be brighter than corner %d", c>>8, e>>8)
				}
			},
		},
		{
			name: "empty solid uses palette background",
			bg:   post.Background{},
			check: func(t *testing.T, img image.Image) {
				want := color.NRGBAModel.Convert(pal.Background).(color.NRGBA)
				got := color.NRGBAModel.Convert(img.At(5, 5)).(color.NRGBA)
				if got != want {
					t.Errorf("pixel = %v, want %v", got, want)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dc := gg.NewContext(100, 100)
			Fill(dc, tt.bg, pal)
			tt.check(t, dc.Image())
		})
	}
}
