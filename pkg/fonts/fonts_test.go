package fonts

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/matzehuels/postcraft/pkg/errors"
	"github.com/matzehuels/postcraft/pkg/httputil"
)

func readyRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(WithoutSystemFonts())
	reg.Init()
	return reg
}

func TestFallback(t *testing.T) {
	tests := []struct {
		family string
		want   string
	}{
		{"Playfair Display", Serif},
		{"Merriweather", Serif},
		{"Roboto Slab", Serif},
		{"PT Serif", Serif},
		{"Noto Sans", SansSerif},
		{"Open Sans", SansSerif},
		{"Source Serif Sans", SansSerif},
		{"Inter", SansSerif},
		{"", SansSerif},
	}
	for _, tt := range tests {
		t.Run(tt.family, func(t *testing.T) {
			if got := Fallback(tt.family); got != tt.want {
				t.Errorf("Fallback(%q) = %q, want %q", tt.family, got, tt.want)
			}
		})
	}
}

func TestParseFontFaces(t *testing.T) {
	css := `
/* latin */
@font-face {
  font-family: 'Lora';
  font-style: normal;
  font-weight: 400;
  src: url(https://fonts.example.com/lora-regular.woff2) format('woff2'), url(https://fonts.example.com/lora-regular.ttf) format('truetype');
}
@font-face {
  font-family: "Lora";
  font-style: italic;
  font-weight: bold;
  src: url("files/lora-bolditalic.ttf");
}
@font-face {
  font-family: Lora;
  font-weight: 500;
  src: url(https://fonts.example.com/lora-medium.woff2) format('woff2');
}
`
	base, _ := url.Parse("https://fonts.example.com/css?family=Lora")
	faces := ParseFontFaces(css, base)
	if len(faces) != 2 {
		t.Fatalf("got %d faces, want 2: %+v", len(faces), faces)
	}

	if f := faces[0]; f.Family != "Lora" || f.Weight != 400 || f.Italic || f.URL != "https://fonts.example.com/lora-regular.ttf" || f.Format != "truetype" {
		t.Errorf("face 0 = %+v", f)
	}
	if f := faces[1]; f.Weight != 700 || !f.Italic || f.URL != "https://fonts.example.com/files/lora-bolditalic.ttf" {
		t.Errorf("face 1 = %+v", f)
	}
}

func TestRegistryGenericFamilies(t *testing.T) {
	reg := NewRegistry(WithoutSystemFonts())
	if !reg.Has(SansSerif) || !reg.Has(Serif) {
		t.Fatal("generic families must be present before Init")
	}

	select {
	case <-reg.Ready():
		t.Fatal("Ready closed before Init")
	default:
	}
	reg.Init()
	reg.Init()
	select {
	case <-reg.Ready():
	default:
		t.Fatal("Ready not closed after Init")
	}

	for _, name := range LocalFamilies() {
		if !reg.Has(name) {
			t.Errorf("local family %q not registered after Init", name)
		}
	}
}

func TestRegistryResolve(t *testing.T) {
	reg := readyRegistry(t)

	if got := reg.Resolve("Arial"); got != "Arial" {
		t.Errorf("Resolve(Arial) = %q", got)
	}
	if got := reg.Resolve("Playfair Display"); got != Serif {
		t.Errorf("Resolve(Playfair Display) = %q, want serif", got)
	}
	if got := reg.Resolve(""); got != SansSerif {
		t.Errorf("Resolve(\"\") = %q, want sans-serif", got)
	}
}

func TestRegistryMeasure(t *testing.T) {
	reg := readyRegistry(t)
	spec := Spec{Family: "Go", Size: 40}

	short := reg.Measure("Hello", spec)
	long := reg.Measure("Hello, world", spec)
	if short <= 0 || long <= short {
		t.Errorf("Measure: short=%v long=%v, want 0 < short < long", short, long)
	}
	if again := reg.Measure("Hello", spec); again != short {
		t.Errorf("Measure not deterministic: %v vs %v", short, again)
	}
	if bigger := reg.Measure("Hello", Spec{Family: "Go", Size: 80}); bigger <= short {
		t.Errorf("Measure at 80px = %v, want > %v", bigger, short)
	}
	if bold := reg.Measure("Hello", Spec{Family: "Go", Size: 40, Weight: 700}); bold == short {
		t.Error("bold variant should measure differently from regular")
	}
}

func TestRegistryVariantSelection(t *testing.T) {
	reg := readyRegistry(t)
	regular, _ := ParseVariant(goregular.TTF, 400, false)
	bold, _ := ParseVariant(gobold.TTF, 700, false)
	reg.Register("Custom", regular)
	reg.Register("Custom", bold)

	tests := []struct {
		weight int
		want   *Variant
	}{
		{0, regular},
		{300, regular},
		{600, bold},
		{900, bold},
	}
	for _, tt := range tests {
		if got := reg.variant(Spec{Family: "custom", Size: 10, Weight: tt.weight}); got != tt.want {
			t.Errorf("variant(weight=%d) = %d, want %d", tt.weight, got.Weight, tt.want.Weight)
		}
	}
}

func fontServer(t *testing.T, variants map[string][]byte, css string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		fmt.Fprint(w, css)
	})
	for name, data := range variants {
		mux.HandleFunc("/files/"+name, func(w http.ResponseWriter, r *http.Request) {
			w.Write(data)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoaderRemoteFamily(t *testing.T) {
	css := `
@font-face { font-family: 'Brand Sans'; font-weight: 400; src: url(/files/regular.ttf) format('truetype'); }
@font-face { font-family: 'Brand Sans'; font-weight: 700; src: url(/files/bold.ttf) format('truetype'); }
@font-face { font-family: 'Brand Sans'; font-style: italic; src: url(/files/missing.ttf) format('truetype'); }
`
	srv := fontServer(t, map[string][]byte{"regular.ttf": goregular.TTF, "bold.ttf": gobold.TTF}, css)

	reg := readyRegistry(t)
	l := NewLoader(reg, WithDescriptorURL(srv.URL+"/css?family=%s"))

	results, err := l.Load(context.Background(), []string{"Brand Sans", "Arial", "brand sans"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (duplicates folded)", len(results))
	}
	if r := results[0]; !r.Loaded || r.Variants != 2 || r.Err != nil {
		t.Errorf("Brand Sans result = %+v", r)
	}
	if r := results[1]; !r.Loaded || r.Variants != 0 {
		t.Errorf("Arial result = %+v, want local", r)
	}
	if !reg.Has("Brand Sans") || reg.Resolve("Brand Sans") != "Brand Sans" {
		t.Error("remote family not registered")
	}
}

func TestLoaderZeroVariantsFails(t *testing.T) {
	css := `@font-face { font-family: 'Broken'; src: url(/files/broken.ttf) format('truetype'); }`
	srv := fontServer(t, map[string][]byte{"broken.ttf": []byte("not a font")}, css)

	reg := readyRegistry(t)
	results, _ := NewLoader(reg, WithDescriptorURL(srv.URL+"/css?family=%s")).Load(context.Background(), []string{"Broken"})
	if r := results[0]; r.Loaded || r.Err == nil {
		t.Errorf("result = %+v, want failure", r)
	}
	if reg.Has("Broken") {
		t.Error("failed family must not be registered")
	}
}

// Network unavailable: the family is reported as not loaded with a message
// and text still gets a usable face through the fallback.
func TestLoaderNetworkUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	dead := srv.URL
	srv.Close()

	reg := readyRegistry(t)
	l := NewLoader(reg,
		WithDescriptorURL(dead+"/css?family=%s"),
		WithClient(httputil.NewClient(httputil.WithTimeout(time.Second))),
	)

	results, err := l.Load(context.Background(), []string{"Playfair Display"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	r := results[0]
	if r.Loaded {
		t.Fatal("loaded = true, want false")
	}
	if r.Error() == "" {
		t.Error("failed result has no error message")
	}
	if !errors.Is(r.Err, errors.ErrCodeFontNotFound) {
		t.Errorf("error code = %s, want FONT_NOT_FOUND", errors.GetCode(r.Err))
	}
	if r.Fallback != Serif {
		t.Errorf("fallback = %q, want serif", r.Fallback)
	}

	face := reg.Face(Spec{Family: "Playfair Display", Size: 32})
	if face == nil {
		t.Fatal("Face() returned nil for unavailable family")
	}
	if w := reg.Measure("text", Spec{Family: "Playfair Display", Size: 32}); w <= 0 {
		t.Errorf("Measure() with fallback = %v", w)
	}
}

func TestLoaderDescriptorCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/css") {
			hits.Add(1)
			fmt.Fprint(w, `@font-face { font-family: 'X'; src: url(/files/x.ttf); }`)
			return
		}
		w.Write(goregular.TTF)
	}))
	defer srv.Close()

	store := newMemStore()
	for i := range 2 {
		reg := readyRegistry(t)
		l := NewLoader(reg, WithDescriptorURL(srv.URL+"/css?family=%s"), WithDescriptorCache(store, nil))
		results, _ := l.Load(context.Background(), []string{"X"})
		if !results[0].Loaded {
			t.Fatalf("run %d: %+v", i, results[0])
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("descriptor fetched %d times, want 1", n)
	}
}

func TestLoaderWaitsForReady(t *testing.T) {
	reg := NewRegistry(WithoutSystemFonts())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := NewLoader(reg).Load(ctx, []string{"Arial"}); err == nil {
		t.Fatal("Load() before Init should wait and fail on context timeout")
	}

	go reg.Init()
	results, err := NewLoader(reg).Load(context.Background(), []string{"Arial"})
	if err != nil || !results[0].Loaded {
		t.Errorf("Load() after Init = %+v, %v", results, err)
	}
}
