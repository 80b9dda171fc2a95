package cli

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/postcraft/pkg/post"
	"github.com/matzehuels/postcraft/pkg/templates"
)

const testSpec = `{
  "metadata": {"templateKind": "ribbon", "brand": {"primaryColor": "#7C3AED"}},
  "textBlocks": [
    {"id": "title", "text": "Open studio night", "role": "header", "alignment": "left", "order": 1},
    {"id": "when", "text": "Friday from six", "role": "banner", "alignment": "left", "order": 2}
  ]
}`

// offlineConfig writes a config that uses only embedded fonts and a
// private file cache.
func offlineConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[fonts]\nsystem = false\ndescriptor_url = \"http://127.0.0.1:1/css?family=%s\"\n\n[cache]\ndir = \"" + t.TempDir() + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "post.json")
	if err := os.WriteFile(specPath, []byte(testSpec), 0o644); err != nil {
		t.Fatal(err)
	}

	root := New(os.Stderr, LogInfo).RootCommand()
	root.SetArgs([]string{"--config", offlineConfig(t), "render", specPath})
	if err := root.Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "post.png"))
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 1080 || b.Dy() != 1080 {
		t.Errorf("bounds = %v", b)
	}
}

func TestRenderCommandRejectsInvalidSpec(t *testing.T) {
	specPath := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(specPath, []byte(`{"textBlocks":[{"id":"a","role":"caption"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	root := New(os.Stderr, LogInfo).RootCommand()
	root.SetArgs([]string{"--config", offlineConfig(t), "render", specPath})
	if err := root.Execute(); err == nil {
		t.Fatal("expected an error for an unknown role")
	}
}

func TestBuildRequestTemplate(t *testing.T) {
	reg := templates.Default()
	spec := post.LayoutSpec{Metadata: post.Metadata{TemplateKind: string(templates.Halo)}}

	tests := []struct {
		name string
		spec post.LayoutSpec
		opts renderOpts
		want templates.ID
	}{
		{"flag wins", spec, renderOpts{template: "ribbon"}, templates.Ribbon},
		{"template kind", spec, renderOpts{}, templates.Halo},
		{"unknown kind", post.LayoutSpec{Metadata: post.Metadata{TemplateKind: "event"}}, renderOpts{}, ""},
		{"none", post.LayoutSpec{}, renderOpts{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := buildRequest(reg, tt.spec, post.BusinessProfile{}, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if req.Template != tt.want {
				t.Errorf("template = %q, want %q", req.Template, tt.want)
			}
		})
	}

	req, err := buildRequest(reg, post.LayoutSpec{}, post.BusinessProfile{}, renderOpts{pick: true, debug: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := reg.Get(req.Template); !ok || !req.Debug.Overlay {
		t.Errorf("pick = %+v", req)
	}
}

func TestOutputPath(t *testing.T) {
	tests := map[string]string{
		"post.json":          "post.png",
		"dir/summer.v2.json": "dir/summer.v2.png",
		"-":                  "post.png",
	}
	for in, want := range tests {
		if got := outputPath(in); got != want {
			t.Errorf("outputPath(%q) = %q, want %q", in, got, want)
		}
	}
}
