package fonts

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/image/font"
)

// Spec selects a face: family, pixel size, CSS weight and style.
type Spec struct {
	Family string
	Size   float64
	Weight int
	Italic bool
}

// Registry holds the font variants known to the process. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	families map[string][]*Variant // keyed by lower-cased family name
	names    map[string]string     // lower-cased name -> display name

	ready    chan struct{}
	initOnce sync.Once

	system bool
	logger *log.Logger

	measureMu sync.Mutex
	faces     map[faceKey]font.Face
}

type faceKey struct {
	v    *Variant
	size float64
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithoutSystemFonts resolves every local family to the embedded Go fonts.
// Output then depends only on the binary, not on the host's font set.
func WithoutSystemFonts() RegistryOption {
	return func(r *Registry) { r.system = false }
}

// WithLogger sets the logger for font resolution messages.
func WithLogger(l *log.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates a registry with the generic families backed by the
// embedded Go fonts. Call [Registry.Init] to resolve the local allow-list.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		families: make(map[string][]*Variant),
		names:    make(map[string]string),
		ready:    make(chan struct{}),
		system:   true,
		logger:   log.Default(),
		faces:    make(map[faceKey]font.Face),
	}
	for _, opt := range opts {
		opt(r)
	}

	vs, err := embeddedGo()
	if err != nil {
		// The embedded fonts are part of x/image and always parse.
		panic(err)
	}
	for _, g := range []string{SansSerif, Serif} {
		for _, v := range vs {
			r.Register(g, v)
		}
	}
	return r
}

// Init registers the local allow-list and signals readiness. It is safe to
// call more than once; only the first call does work.
func (r *Registry) Init() {
	r.initOnce.Do(func() {
		defer close(r.ready)

		// Generic families first so aliases below pick up system fonts.
		for _, name := range []string{SansSerif, Serif} {
			if !r.system {
				continue
			}
			if vs, ok := resolveLocal(localFamilies[name]); ok {
				r.replace(name, vs)
				r.logger.Debug("font resolved", "family", name, "origin", vs[0].Origin)
			}
		}

		names := LocalFamilies()
		slices.Sort(names)
		for _, name := range names {
			if name == SansSerif || name == Serif {
				continue
			}
			lf := localFamilies[name]
			var vs []*Variant
			ok := false
			switch {
			case lf.embedded:
				vs, _ = embeddedGo()
				ok = true
			case r.system:
				vs, ok = resolveLocal(lf)
			}
			if !ok {
				r.mu.RLock()
				vs = slices.Clone(r.families[lf.generic])
				r.mu.RUnlock()
			}
			for _, v := range vs {
				r.Register(name, v)
			}
			if len(vs) > 0 {
				r.logger.Debug("font resolved", "family", name, "origin", vs[0].Origin)
			}
		}
	})
}

// Ready is closed once Init has finished.
func (r *Registry) Ready() <-chan struct{} { return r.ready }

// Register adds a variant to family. A variant with the same weight and
// style replaces the existing one.
func (r *Registry) Register(family string, v *Variant) {
	key := strings.ToLower(family)
	r.mu.Lock()
	defer r.mu.Unlock()

	vs := r.families[key]
	vs = slices.DeleteFunc(slices.Clone(vs), func(o *Variant) bool {
		return o.Weight == v.Weight && o.Italic == v.Italic
	})
	vs = append(vs, v)
	sortVariants(vs)
	r.families[key] = vs
	if _, ok := r.names[key]; !ok {
		r.names[key] = family
	}
}

func (r *Registry) replace(family string, vs []*Variant) {
	key := strings.ToLower(family)
	vs = slices.Clone(vs)
	sortVariants(vs)
	r.mu.Lock()
	r.families[key] = vs
	r.names[key] = family
	r.mu.Unlock()
}

func sortVariants(vs []*Variant) {
	slices.SortStableFunc(vs, func(a, b *Variant) int {
		if c := cmp.Compare(a.Weight, b.Weight); c != 0 {
			return c
		}
		if a.Italic == b.Italic {
			return 0
		}
		if !a.Italic {
			return -1
		}
		return 1
	})
}

// Has reports whether family has at least one registered variant.
func (r *Registry) Has(family string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.families[strings.ToLower(family)]) > 0
}

// Families returns the registered family names, sorted.
func (r *Registry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.names))
	for key, name := range r.names {
		if len(r.families[key]) > 0 {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// Resolve returns the family that text in family will actually be drawn
// with: family itself when registered, its generic fallback otherwise.
func (r *Registry) Resolve(family string) string {
	if family != "" && r.Has(family) {
		return family
	}
	return Fallback(family)
}

// variant picks the closest registered variant for spec.
func (r *Registry) variant(spec Spec) *Variant {
	family := r.Resolve(spec.Family)
	weight := spec.Weight
	if weight <= 0 {
		weight = 400
	}

	r.mu.RLock()
	vs := r.families[strings.ToLower(family)]
	r.mu.RUnlock()

	var best *Variant
	bestScore := 0
	for _, v := range vs {
		score := abs(v.Weight - weight)
		if v.Italic != spec.Italic {
			score += 1000
		}
		if best == nil || score < bestScore {
			best, bestScore = v, score
		}
	}
	return best
}

// Face returns a new face for spec. The returned face is owned by the
// caller.
func (r *Registry) Face(spec Spec) font.Face {
	return r.variant(spec).NewFace(spec.Size)
}

// Measure returns the advance width of text in pixels.
func (r *Registry) Measure(text string, spec Spec) float64 {
	v := r.variant(spec)

	r.measureMu.Lock()
	defer r.measureMu.Unlock()
	key := faceKey{v, spec.Size}
	face, ok := r.faces[key]
	if !ok {
		face = v.NewFace(spec.Size)
		r.faces[key] = face
	}
	return float64(font.MeasureString(face, text)) / 64
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
