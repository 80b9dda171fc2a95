// Package pkg provides the libraries behind postcraft, a renderer for
// branded 1080x1080 social posts.
//
// # Overview
//
// A post is described by a [post.LayoutSpec]: ordered text blocks with
// semantic roles, images, a background and brand colors. The pkg directory
// is organized around the render pipeline:
//
//  1. [post] - Spec and business profile types, validation, brand resolution
//  2. [templates] - Template catalog, eligibility and random selection
//  3. [fonts] - Local and remote font families, measurement
//  4. [render] - Colorization, layout and compositing onto the canvas
//  5. [pipeline] - Orchestration, memoization and render lifecycle
//
// Supporting packages: [cache] (file, Redis and MongoDB backends),
// [httputil] (retrying fetches), [resource] (URL, data URL, file and
// builtin sources), [config] (TOML settings), [errors] (error codes),
// [observability] (hooks) and [geom].
//
// # Architecture
//
//	LayoutSpec + BusinessProfile + template id
//	         ↓
//	    [fonts] load the resolved family
//	         ↓
//	    [render/colorize] recolor the template artwork
//	         ↓
//	    [render/layout] wrap and stack text, place the logo
//	         ↓
//	    [render/composite] draw background, text and images
//	         ↓
//	    PNG and data URL
//
// # Quick Start
//
//	spec, err := post.Decode(f)
//	if err != nil {
//	    return err
//	}
//	r := pipeline.NewRenderer()
//	out, err := r.Render(ctx, pipeline.Request{Spec: spec, Template: templates.Halo})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("post.png", out.PNG, 0o644)
//
// [post]: https://pkg.go.dev/github.com/matzehuels/postcraft/pkg/post
// [post.LayoutSpec]: https://pkg.go.dev/github.com/matzehuels/postcraft/pkg/post#LayoutSpec
// [templates]: https://pkg.go.dev/github.com/matzehuels/postcraft/pkg/templates
// [fonts]: https://pkg.go.dev/github.com/matzehuels/postcraft/pkg/fonts
// [render]: https://pkg.go.dev/github.com/matzehuels/postcraft/pkg/render
// [render/colorize]: https://pkg.go.dev/github.com/matzehuels/postcraft/pkg/render/colorize
// [render/layout]: https://pkg.go.dev/github.com/matzehuels/postcraft/pkg/render/layout
// [render/composite]: https://pkg.go.dev/github.com/matzehuels/postcraft/pkg/render/composite
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/postcraft/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/postcraft/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/matzehuels/postcraft/pkg/httputil
// [resource]: https://pkg.go.dev/github.com/matzehuels/postcraft/pkg/resource
// [config]: https://pkg.go.dev/github.com/matzehuels/postcraft/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/postcraft/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/postcraft/pkg/observability
// [geom]: https://pkg.go.dev/github.com/matzehuels/postcraft/pkg/geom
package pkg
