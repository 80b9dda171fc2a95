package config

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/postcraft/pkg/cache"
	"github.com/matzehuels/postcraft/pkg/fonts"
	"github.com/matzehuels/postcraft/pkg/httputil"
	"github.com/matzehuels/postcraft/pkg/pipeline"
	"github.com/matzehuels/postcraft/pkg/resource"
	"github.com/matzehuels/postcraft/pkg/templates"
)

// BuildOptions adjusts how a Stack is assembled.
type BuildOptions struct {
	Logger *log.Logger
	// NoCache disables the configured cache backend.
	NoCache bool
	// Scope prefixes every cache key, e.g. with a business id.
	Scope string
	// NoFiles rejects local filesystem sources.
	NoFiles bool
	// Pipeline options are applied after the configured ones.
	Pipeline []pipeline.Option
}

// Stack is a configured renderer and the resources it owns.
type Stack struct {
	Renderer  *pipeline.Renderer
	Templates *templates.Registry
	Cache     cache.Cache
}

// Close releases the cache backend.
func (s *Stack) Close() error { return s.Cache.Close() }

// Build assembles the cache, HTTP client, loaders and renderer described
// by c.
func (c Config) Build(ctx context.Context, opts BuildOptions) (*Stack, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	var store cache.Cache = cache.NewNullCache()
	if !opts.NoCache {
		cc := c.Cache
		if cc.Backend == "" && cc.Dir == "" {
			if dir, err := CacheDir(); err == nil {
				cc.Dir = dir
			}
		}
		s, err := cache.Open(ctx, cc)
		if err != nil {
			return nil, err
		}
		store = s
	}
	var keyer cache.Keyer = cache.NewDefaultKeyer()
	if opts.Scope != "" {
		keyer = cache.NewScopedKeyer(keyer, opts.Scope)
	}

	reg := templates.Default()
	for _, path := range c.Catalogs {
		defs, err := templates.LoadFile(path)
		if err != nil {
			store.Close()
			return nil, err
		}
		if reg, err = reg.Merge(defs...); err != nil {
			store.Close()
			return nil, err
		}
	}

	client := httputil.NewClient(
		httputil.WithTimeout(c.HTTP.Timeout),
		httputil.WithAttempts(c.HTTP.Attempts, c.HTTP.RetryDelay),
		httputil.WithMaxBodySize(c.HTTP.MaxBody),
		httputil.WithCache(store, cache.TTLResource),
		httputil.WithKeyer(keyer),
	)
	loaderOpts := []resource.LoaderOption{
		resource.WithClient(client),
		resource.WithBuiltin(templates.Assets()),
	}
	if opts.NoFiles {
		loaderOpts = append(loaderOpts, resource.WithoutFiles())
	}

	regOpts := []fonts.RegistryOption{fonts.WithLogger(logger)}
	if !c.Fonts.System {
		regOpts = append(regOpts, fonts.WithoutSystemFonts())
	}
	fontLoader := fonts.NewLoader(fonts.NewRegistry(regOpts...),
		fonts.WithClient(client),
		fonts.WithDescriptorURL(c.Fonts.DescriptorURL),
		fonts.WithDescriptorCache(store, keyer),
		fonts.WithLoaderLogger(logger),
	)

	popts := []pipeline.Option{
		pipeline.WithFontLoader(fontLoader),
		pipeline.WithTemplates(reg),
		pipeline.WithResources(resource.NewLoader(loaderOpts...)),
		pipeline.WithLayoutOptions(c.LayoutOptions()...),
		pipeline.WithCache(store, keyer),
		pipeline.WithLogger(logger),
	}
	return &Stack{
		Renderer:  pipeline.NewRenderer(append(popts, opts.Pipeline...)...),
		Templates: reg,
		Cache:     store,
	}, nil
}
