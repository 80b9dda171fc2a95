package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/postcraft/pkg/config"
	"github.com/matzehuels/postcraft/pkg/errors"
	"github.com/matzehuels/postcraft/pkg/pipeline"
	"github.com/matzehuels/postcraft/pkg/post"
	"github.com/matzehuels/postcraft/pkg/render/composite"
	"github.com/matzehuels/postcraft/pkg/templates"
)

const defaultWatchInterval = 500 * time.Millisecond

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output      string // output PNG path
	template    string // template id
	pick        bool   // choose a random eligible template
	contentType string // content type used when picking
	profile     string // business profile file (TOML or JSON)
	debug       bool   // draw the layout overlay
	dataURL     bool   // print a data URL to stdout instead of writing a file
	noCache     bool   // bypass the render cache
	watch       bool   // re-render whenever the spec file changes
	interval    time.Duration
}

func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{interval: defaultWatchInterval}

	cmd := &cobra.Command{
		Use:   "render <spec.json|->",
		Short: "Render a layout spec to a 1080x1080 PNG",
		Long: `Render a layout spec to a 1080x1080 PNG.

The template comes from --template, from the spec's templateKind when it
names a known template, or is picked at random with --pick. Without a
template the spec's background fill is drawn in the default frame.`,
		Example: `  postcraft render post.json -t halo --profile acme.toml
  postcraft render post.json --pick --content-type promo -o promo.png
  cat post.json | postcraft render - --data-url`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.watch && args[0] == "-" {
				return errors.New(errors.ErrCodeInvalidInput, "--watch needs a spec file, not stdin")
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: spec name with .png)")
	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "template id")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "pick a random eligible template")
	cmd.Flags().StringVar(&opts.contentType, "content-type", "", "content type used with --pick")
	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "business profile file (default from config)")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "draw the safe area, block and logo boxes")
	cmd.Flags().BoolVar(&opts.dataURL, "data-url", false, "print a data URL to stdout")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-render when the spec file changes")
	cmd.Flags().DurationVar(&opts.interval, "interval", opts.interval, "poll interval for --watch")
	_ = cmd.RegisterFlagCompletionFunc("template", completeTemplates)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, specPath string, opts renderOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	profile, err := loadProfile(opts.profile, cfg.Profile)
	if err != nil {
		return err
	}

	stack, err := cfg.Build(ctx, config.BuildOptions{
		Logger:  logger,
		NoCache: opts.noCache,
		Scope:   profile.ID,
	})
	if err != nil {
		return err
	}
	defer stack.Close()

	spec, err := readSpec(specPath)
	if err != nil {
		return err
	}
	req, err := buildRequest(stack.Templates, spec, profile, opts)
	if err != nil {
		return err
	}

	if opts.watch {
		return watchRender(ctx, stack.Renderer, req, specPath, opts)
	}

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Rendering post...")
	spinner.Start()
	o, err := stack.Renderer.Render(ctx, req)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done("Rendered post")
	printFontResults(o.Fonts)
	if o.Layout != nil && o.Layout.Overflow {
		printWarning("text runs past the bottom of the safe area")
	}
	return emit(o, specPath, req.Template, opts)
}

// buildRequest resolves the template for spec and assembles the request.
func buildRequest(reg *templates.Registry, spec post.LayoutSpec, profile post.BusinessProfile, opts renderOpts) (pipeline.Request, error) {
	req := pipeline.Request{
		Spec:    spec,
		Profile: profile,
		Debug:   composite.DebugOptions{Overlay: opts.debug},
	}

	switch {
	case opts.template != "":
		req.Template = templates.ID(opts.template)
	case opts.pick:
		id, err := reg.PickRandom(opts.contentType, profile.ID, nil)
		if err != nil {
			return req, err
		}
		req.Template = id
	case spec.Metadata.TemplateKind != "":
		if _, ok := reg.Get(templates.ID(spec.Metadata.TemplateKind)); ok {
			req.Template = templates.ID(spec.Metadata.TemplateKind)
		}
	}
	return req, nil
}

// emit writes the outcome as a file or a data URL.
func emit(o pipeline.Outcome, specPath string, tmpl templates.ID, opts renderOpts) error {
	if opts.dataURL {
		fmt.Fprintln(os.Stdout, o.DataURL)
		return nil
	}

	path := opts.output
	if path == "" {
		path = outputPath(specPath)
	}
	if err := os.WriteFile(path, o.PNG, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}

	label := "no template"
	if tmpl != "" {
		label = string(tmpl)
	}
	printSuccess("Rendered %s", label)
	printFile(path)
	printRenderStats(o)
	return nil
}

// watchRender renders req, then polls specPath and renders again on every
// change. Unchanged content is skipped by the renderer.
func watchRender(ctx context.Context, r *pipeline.Renderer, req pipeline.Request, specPath string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	render := func(req pipeline.Request) {
		o, err := r.Render(ctx, req)
		switch {
		case err != nil:
			printError("%s", errors.UserMessage(err))
		case o.Skipped:
			logger.Debug("spec unchanged")
		default:
			_ = emit(o, specPath, req.Template, opts)
		}
	}

	render(req)
	printInfo("Watching %s (ctrl+c to stop)", specPath)

	last := modTime(specPath)
	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		mt := modTime(specPath)
		if mt.Equal(last) {
			continue
		}
		last = mt
		spec, err := readSpec(specPath)
		if err != nil {
			printError("%s", errors.UserMessage(err))
			continue
		}
		req.Spec = spec
		render(req)
	}
}

func modTime(path string) time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}

// readSpec decodes a layout spec from path, or stdin for "-".
func readSpec(path string) (post.LayoutSpec, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return post.LayoutSpec{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "open spec")
		}
		defer f.Close()
		r = f
	}
	return post.Decode(r)
}

// loadProfile reads the flag's profile, falling back to the configured one.
func loadProfile(flag, configured string) (post.BusinessProfile, error) {
	path := flag
	if path == "" {
		path = configured
	}
	if path == "" {
		return post.BusinessProfile{}, nil
	}
	return post.LoadProfile(path)
}

// outputPath derives "post.png" from "post.json". Stdin renders to
// "post.png".
func outputPath(specPath string) string {
	if specPath == "-" {
		return "post.png"
	}
	return strings.TrimSuffix(specPath, filepath.Ext(specPath)) + ".png"
}
