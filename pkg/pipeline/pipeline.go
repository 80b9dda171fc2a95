// Package pipeline orchestrates one post render: fonts, background,
// layout, composite and encoding.
//
// # Architecture
//
// A [Renderer] runs the stages in a fixed order:
//
//  1. Fonts: every requested family is loaded in parallel and joined
//  2. Background: the template artwork is colorized, or the spec's fill
//     is used when no template is selected
//  3. Layout: text blocks and the logo are positioned with real metrics
//  4. Composite: background, text and images are drawn onto one surface
//
// The result is a PNG and its data URL.
//
// # Memoization
//
// Every request is fingerprinted. A request whose fingerprint equals the
// last successful render is skipped. [Renderer.ForceRedraw] clears the
// fingerprint and renders the last request again.
//
// With an artifact cache, PNGs are keyed by the fingerprint, the layout
// settings and the resolved template definition. Renders that fell back to
// a generic font are not stored.
//
// # Concurrency
//
// Renders are serialized: only one draws at a time. A render that is
// superseded by a newer request while it runs still completes, but its
// result is discarded and no callback fires. Callbacks run after the draw
// lock is released and may call [Renderer.Render] or [Renderer.ForceRedraw].
//
// # Usage
//
//	r := pipeline.NewRenderer(
//	    pipeline.WithOnComplete(func(o pipeline.Outcome) { show(o.DataURL) }),
//	    pipeline.WithOnError(func(msg string) { warn(msg) }),
//	)
//	out, err := r.Render(ctx, pipeline.Request{Spec: spec, Template: "halo"})
package pipeline

import (
	"maps"
	"slices"
	"time"

	"github.com/matzehuels/postcraft/pkg/cache"
	"github.com/matzehuels/postcraft/pkg/fonts"
	"github.com/matzehuels/postcraft/pkg/post"
	"github.com/matzehuels/postcraft/pkg/render/composite"
	"github.com/matzehuels/postcraft/pkg/render/layout"
	"github.com/matzehuels/postcraft/pkg/templates"
)

// Stage names reported to observability hooks.
const (
	StageFonts      = "fonts"
	StageBackground = "background"
	StageLayout     = "layout"
	StageComposite  = "composite"
)

// DefaultLogoID is the image id given to a logo taken from the business
// profile.
const DefaultLogoID = "profile-logo"

// Request is the input of one render.
type Request struct {
	Spec post.LayoutSpec `json:"spec"`
	// Template selects the background artwork. Empty renders the spec's
	// background fill in the default frame.
	Template templates.ID           `json:"template,omitempty"`
	Profile  post.BusinessProfile   `json:"profile"`
	Debug    composite.DebugOptions `json:"debug"`
}

// Fingerprint hashes every field that affects the rendered pixels.
func (r Request) Fingerprint() (string, error) {
	return cache.HashJSON(r)
}

// clone returns a copy that shares no slices or maps with r.
func (r Request) clone() Request {
	c := r
	c.Spec.TextBlocks = slices.Clone(r.Spec.TextBlocks)
	c.Spec.Images = slices.Clone(r.Spec.Images)
	c.Spec.Background.Colors = slices.Clone(r.Spec.Background.Colors)
	c.Profile.RoleStyles = maps.Clone(r.Profile.RoleStyles)
	return c
}

// logo returns the logo image for the request: the spec's logo, or the
// profile's logo URL.
func (r Request) logo() *post.ImageRef {
	if l := r.Spec.Logo(); l != nil {
		return l
	}
	if r.Profile.LogoURL == "" {
		return nil
	}
	return &post.ImageRef{ID: DefaultLogoID, Source: r.Profile.LogoURL, Role: post.ImageLogo}
}

// images returns the images to composite, including a profile logo.
func (r Request) images(logo *post.ImageRef) []post.ImageRef {
	imgs := r.Spec.Images
	if logo != nil && logo.ID == DefaultLogoID && r.Spec.Logo() == nil {
		imgs = append(append([]post.ImageRef(nil), imgs...), *logo)
	}
	return imgs
}

// Outcome is the result of a render call.
type Outcome struct {
	// DataURL is the PNG as a base64 data URL.
	DataURL string `json:"dataUrl,omitempty"`
	// PNG holds the encoded image.
	PNG         []byte `json:"-"`
	Fingerprint string `json:"fingerprint"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	// Skipped is set when the request matched the previous successful
	// render and nothing was drawn.
	Skipped bool `json:"skipped,omitempty"`
	// Discarded is set when a newer request arrived while this one ran.
	Discarded bool           `json:"discarded,omitempty"`
	Layout    *layout.Result `json:"layout,omitempty"`
	Fonts     []fonts.Result `json:"fonts,omitempty"`
	Stats     Stats          `json:"stats"`
	CacheInfo CacheInfo      `json:"cache"`
}

// Stats contains stage timings.
type Stats struct {
	FontTime       time.Duration `json:"fontTime"`
	BackgroundTime time.Duration `json:"backgroundTime"`
	LayoutTime     time.Duration `json:"layoutTime"`
	CompositeTime  time.Duration `json:"compositeTime"`
	Total          time.Duration `json:"total"`
}

// CacheInfo tracks whether the artifact came from the cache.
type CacheInfo struct {
	ArtifactHit bool `json:"artifactHit"`
}

// State is the renderer's lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateLoadingFonts
	StateCompositing
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoadingFonts:
		return "loadingFonts"
	case StateCompositing:
		return "compositing"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
