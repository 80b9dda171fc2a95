// Package config loads postcraft settings from a TOML file.
//
// Every field has a default, so a missing file at the default location is
// not an error. Unknown keys are rejected so typos do not silently fall
// back to defaults.
//
//	[cache]
//	backend = "redis"
//	url     = "redis://localhost:6379/0"
//
//	[layout]
//	gap = 28
//	sizes = { header = 72, banner = 40, body = 32 }
//
//	[http]
//	timeout  = "10s"
//	attempts = 3
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/postcraft/pkg/cache"
	"github.com/matzehuels/postcraft/pkg/errors"
	"github.com/matzehuels/postcraft/pkg/fonts"
	"github.com/matzehuels/postcraft/pkg/render/layout"
)

// AppName names the config and cache directories.
const AppName = "postcraft"

// Config is the complete settings file.
type Config struct {
	Cache  cache.Config `toml:"cache"`
	Fonts  Fonts        `toml:"fonts"`
	Layout Layout       `toml:"layout"`
	HTTP   HTTP         `toml:"http"`
	Server Server       `toml:"server"`
	// Catalogs are extra template catalog files merged over the builtins.
	Catalogs []string `toml:"catalogs"`
	// Profile is the business profile used when none is given.
	Profile string `toml:"profile"`
}

// Fonts configures font resolution.
type Fonts struct {
	// System enables the local allow-list lookup on this machine.
	System        bool   `toml:"system"`
	DescriptorURL string `toml:"descriptor_url"`
}

// Layout configures the layout engine.
type Layout struct {
	Sizes       layout.Sizes `toml:"sizes"`
	Gap         float64      `toml:"gap"`
	Padding     float64      `toml:"padding"`
	LineSpacing float64      `toml:"line_spacing"`
	// NoRelocation clamps blocks beside the logo instead of moving them
	// below it. Collapsed blocks then fail the render.
	NoRelocation bool `toml:"no_relocation"`
}

// HTTP configures outgoing fetches.
type HTTP struct {
	Timeout    time.Duration `toml:"timeout"`
	Attempts   int           `toml:"attempts"`
	RetryDelay time.Duration `toml:"retry_delay"`
	MaxBody    int64         `toml:"max_body"`
}

// Server configures the HTTP API.
type Server struct {
	Addr           string        `toml:"addr"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	MaxBody        int64         `toml:"max_body"`
	// AllowFiles lets requests reference server-local paths.
	AllowFiles bool `toml:"allow_files"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Fonts: Fonts{System: true, DescriptorURL: fonts.DefaultDescriptorURL},
		Layout: Layout{
			Sizes:       layout.DefaultSizes,
			Gap:         layout.DefaultGap,
			Padding:     layout.DefaultPadding,
			LineSpacing: layout.DefaultLineSpacing,
		},
		HTTP: HTTP{
			Timeout:    15 * time.Second,
			Attempts:   2,
			RetryDelay: 250 * time.Millisecond,
			MaxBody:    20 << 20,
		},
		Server: Server{
			Addr:           ":8080",
			RequestTimeout: 30 * time.Second,
			MaxBody:        2 << 20,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/postcraft/config.toml, falling
// back to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// CacheDir returns $XDG_CACHE_HOME/postcraft, falling back to ~/.cache.
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// Load reads path over the defaults. An empty path reads the default
// location and tolerates its absence; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	l := c.Layout
	if l.Sizes.Header <= 0 || l.Sizes.Banner <= 0 || l.Sizes.Body <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout sizes must be positive")
	}
	if l.Gap < 0 || l.Padding < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout gap and padding cannot be negative")
	}
	if l.LineSpacing < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout line_spacing must be at least 1")
	}
	if c.HTTP.Attempts < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "http attempts must be at least 1")
	}
	if c.HTTP.Timeout <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "http timeout must be positive")
	}
	switch c.Cache.Backend {
	case "", cache.BackendNone, cache.BackendFile, cache.BackendRedis, cache.BackendMongo:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if (c.Cache.Backend == cache.BackendRedis || c.Cache.Backend == cache.BackendMongo) && c.Cache.URL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache backend %s needs a url", c.Cache.Backend)
	}
	return nil
}

// LayoutOptions converts the layout section to engine options.
func (c Config) LayoutOptions() []layout.Option {
	opts := []layout.Option{
		layout.WithSizes(c.Layout.Sizes),
		layout.WithGap(c.Layout.Gap),
		layout.WithPadding(c.Layout.Padding),
		layout.WithLineSpacing(c.Layout.LineSpacing),
	}
	if c.Layout.NoRelocation {
		opts = append(opts, layout.WithoutRelocation())
	}
	return opts
}
