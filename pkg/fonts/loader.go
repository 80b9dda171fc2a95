package fonts

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/postcraft/pkg/cache"
	"github.com/matzehuels/postcraft/pkg/errors"
	"github.com/matzehuels/postcraft/pkg/httputil"
)

// DefaultDescriptorURL is the webfont CSS endpoint. %s receives the
// query-escaped family name.
const DefaultDescriptorURL = "https://fonts.googleapis.com/css?family=%s:400,400italic,700,700italic"

// maxParallel bounds concurrent family loads.
const maxParallel = 8

// Result reports the outcome of loading one family.
type Result struct {
	Family string `json:"family"`
	Loaded bool   `json:"loaded"`
	// Variants is the number of remote variants registered.
	Variants int `json:"variants,omitempty"`
	// Fallback is the generic family used when Loaded is false.
	Fallback string `json:"fallback,omitempty"`
	Err      error  `json:"-"`
}

// Error returns the failure message, or "" when the family loaded.
func (r Result) Error() string {
	if r.Err == nil {
		return ""
	}
	return errors.UserMessage(r.Err)
}

// Loader loads font families into a Registry.
type Loader struct {
	reg           *Registry
	client        *httputil.Client
	descriptorURL string
	store         cache.Cache
	keyer         cache.Keyer
	logger        *log.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithClient sets the HTTP client used for descriptors and font files.
func WithClient(c *httputil.Client) LoaderOption {
	return func(l *Loader) {
		if c != nil {
			l.client = c
		}
	}
}

// WithDescriptorURL overrides [DefaultDescriptorURL]. The template gets
// the escaped family name through %s. An empty template is ignored.
func WithDescriptorURL(tmpl string) LoaderOption {
	return func(l *Loader) {
		if tmpl != "" {
			l.descriptorURL = tmpl
		}
	}
}

// WithDescriptorCache caches fetched descriptors.
func WithDescriptorCache(store cache.Cache, keyer cache.Keyer) LoaderOption {
	return func(l *Loader) {
		l.store = store
		if keyer != nil {
			l.keyer = keyer
		}
	}
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(lg *log.Logger) LoaderOption {
	return func(l *Loader) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// NewLoader creates a loader for reg.
func NewLoader(reg *Registry, opts ...LoaderOption) *Loader {
	l := &Loader{
		reg:           reg,
		client:        httputil.NewClient(),
		descriptorURL: DefaultDescriptorURL,
		store:         cache.NewNullCache(),
		keyer:         cache.NewDefaultKeyer(),
		logger:        log.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Registry returns the registry the loader fills.
func (l *Loader) Registry() *Registry { return l.reg }

// Load makes families available, in parallel, and reports one Result per
// distinct family in input order. It waits for the registry to be ready
// first. Individual failures are reported in the results; the returned
// error is non-nil only when ctx ends before the registry is ready.
func (l *Loader) Load(ctx context.Context, families []string) ([]Result, error) {
	select {
	case <-l.reg.Ready():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	families = dedupe(families)
	results := make([]Result, len(families))

	var g errgroup.Group
	g.SetLimit(maxParallel)
	for i, family := range families {
		g.Go(func() error {
			results[i] = l.loadFamily(ctx, family)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func (l *Loader) loadFamily(ctx context.Context, family string) Result {
	res := Result{Family: family}
	if IsLocal(family) || l.reg.Has(family) {
		res.Loaded = true
		return res
	}

	start := time.Now()
	n, err := l.loadRemote(ctx, family)
	res.Variants = n
	if err != nil {
		res.Err = err
		res.Fallback = Fallback(family)
		l.logger.Warn("font unavailable, using fallback", "family", family, "fallback", res.Fallback, "err", errors.UserMessage(err))
		return res
	}
	res.Loaded = true
	l.logger.Debug("font loaded", "family", family, "variants", n, "took", time.Since(start).Round(time.Millisecond))
	return res
}

func (l *Loader) loadRemote(ctx context.Context, family string) (int, error) {
	descURL := fmt.Sprintf(l.descriptorURL, url.QueryEscape(family))
	css, err := l.descriptor(ctx, family, descURL)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeFontNotFound, err, "font %q descriptor", family)
	}

	base, _ := url.Parse(descURL)
	faces := ParseFontFaces(css, base)
	if len(faces) == 0 {
		return 0, errors.New(errors.ErrCodeFontNotFound, "font %q: descriptor declares no loadable variants", family)
	}

	loaded := 0
	var lastErr error
	for _, f := range faces {
		data, err := l.client.GetBytes(ctx, f.URL)
		if err != nil {
			lastErr = err
			continue
		}
		v, err := ParseVariant(data, f.Weight, f.Italic)
		if err != nil {
			lastErr = err
			continue
		}
		v.Origin = f.URL
		l.reg.Register(family, v)
		loaded++
	}
	if loaded == 0 {
		return 0, errors.Wrap(errors.ErrCodeFontNotFound, lastErr, "font %q: no variant loaded", family)
	}
	return loaded, nil
}

func (l *Loader) descriptor(ctx context.Context, family, descURL string) (string, error) {
	key := l.keyer.FontCSSKey(family)
	if data, ok, _ := l.store.Get(ctx, key); ok {
		return string(data), nil
	}
	css, err := l.client.GetText(ctx, descURL, map[string]string{"Accept": "text/css,*/*;q=0.1"})
	if err != nil {
		return "", err
	}
	_ = l.store.Set(ctx, key, []byte(css), cache.TTLFontCSS)
	return css, nil
}

func dedupe(families []string) []string {
	seen := make(map[string]bool, len(families))
	out := make([]string, 0, len(families))
	for _, f := range families {
		f = strings.TrimSpace(f)
		k := strings.ToLower(f)
		if f == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, f)
	}
	return out
}
