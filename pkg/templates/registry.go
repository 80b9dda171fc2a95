package templates

import (
	"math/rand/v2"
	"os"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/postcraft/pkg/errors"
)

// Registry is an immutable catalog of template definitions.
// It is safe for concurrent use.
type Registry struct {
	defs []Definition
	byID map[ID]int
}

// New builds a registry from defs. Definitions are validated and ids must be
// unique.
func New(defs ...Definition) (*Registry, error) {
	r := &Registry{byID: make(map[ID]int, len(defs))}
	for _, d := range defs {
		if err := validate(d); err != nil {
			return nil, err
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "duplicate template id %q", d.ID)
		}
		r.byID[d.ID] = len(r.defs)
		r.defs = append(r.defs, d)
	}
	return r, nil
}

func validate(d Definition) error {
	if err := errors.ValidateID("template", string(d.ID)); err != nil {
		return err
	}
	if d.Source != "" {
		if err := errors.ValidateSource(d.Source); err != nil {
			return err
		}
	}
	if d.SafeArea.Empty() {
		return errors.New(errors.ErrCodeInvalidConfig, "template %q: empty safe area", d.ID)
	}
	switch d.Category {
	case CategoryVector, CategoryRaster:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "template %q: unknown category %q", d.ID, d.Category)
	}
	switch d.Pattern {
	case PatternNone, PatternClassify, PatternRadial, PatternStop:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "template %q: unknown pattern %q", d.ID, d.Pattern)
	}
	switch d.Scope {
	case ScopeGeneral:
	case ScopeBusiness:
		if len(d.Businesses) == 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "template %q: business scope without businesses", d.ID)
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "template %q: unknown scope %q", d.ID, d.Scope)
	}
	if d.Logo != nil && d.Logo.Bounds.Empty() {
		return errors.New(errors.ErrCodeInvalidConfig, "template %q: empty logo bounds", d.ID)
	}
	return nil
}

// Len returns the number of templates.
func (r *Registry) Len() int { return len(r.defs) }

// All returns every definition in catalog order.
func (r *Registry) All() []Definition { return slices.Clone(r.defs) }

// List returns the templates eligible for contentType and businessID, in
// catalog order.
func (r *Registry) List(contentType, businessID string) []Definition {
	var out []Definition
	for _, d := range r.defs {
		if d.Eligible(contentType, businessID) {
			out = append(out, d)
		}
	}
	return out
}

// Get returns the template with the given id. The boolean is false when
// the id is unknown.
func (r *Registry) Get(id ID) (Definition, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// Lookup is like Get but reports unknown ids as ErrCodeTemplateNotFound.
func (r *Registry) Lookup(id ID) (Definition, error) {
	d, ok := r.Get(id)
	if !ok {
		return Definition{}, errors.New(errors.ErrCodeTemplateNotFound, "unknown template %q", id)
	}
	return d, nil
}

// PickRandom chooses an eligible template. Business-specific matches are
// preferred; general templates are used only when none qualify. A nil rng
// uses the global source.
func (r *Registry) PickRandom(contentType, businessID string, rng *rand.Rand) (ID, error) {
	var specific, general []ID
	for _, d := range r.List(contentType, businessID) {
		if d.BusinessSpecific() {
			specific = append(specific, d.ID)
		} else {
			general = append(general, d.ID)
		}
	}

	candidates := specific
	if len(candidates) == 0 {
		candidates = general
	}
	if len(candidates) == 0 {
		return "", errors.New(errors.ErrCodeTemplateNotFound,
			"no template eligible for content type %q and business %q", contentType, businessID)
	}

	if rng == nil {
		return candidates[rand.IntN(len(candidates))], nil
	}
	return candidates[rng.IntN(len(candidates))], nil
}

// Merge returns a registry holding r's templates followed by extra.
// Templates in extra replace same-id templates in r.
func (r *Registry) Merge(extra ...Definition) (*Registry, error) {
	defs := slices.Clone(r.defs)
	for _, d := range extra {
		if i, ok := r.byID[d.ID]; ok {
			defs[i] = d
			continue
		}
		defs = append(defs, d)
	}
	return New(defs...)
}

// catalogFile is the TOML layout of a template catalog.
type catalogFile struct {
	Templates []Definition `toml:"template"`
}

// LoadFile reads template definitions from a TOML catalog:
//
//	[[template]]
//	id = "acme-stripes"
//	source = "https://cdn.example.com/acme/stripes.png"
//	category = "raster"
//	scope = "business"
//	businesses = ["acme"]
//	safe_area = { left = 80, top = 80, right = 1000, bottom = 1000 }
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read template catalog %s", path)
	}
	var f catalogFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse template catalog %s", path)
	}
	for i := range f.Templates {
		if f.Templates[i].Scope == "" {
			f.Templates[i].Scope = ScopeGeneral
		}
		if err := validate(f.Templates[i]); err != nil {
			return nil, err
		}
	}
	return f.Templates, nil
}
