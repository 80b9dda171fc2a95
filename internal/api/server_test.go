package api

import (
	"bytes"
	"encoding/json"
	"image/png"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/matzehuels/postcraft/pkg/errors"
	"github.com/matzehuels/postcraft/pkg/fonts"
	"github.com/matzehuels/postcraft/pkg/pipeline"
	"github.com/matzehuels/postcraft/pkg/post"
	"github.com/matzehuels/postcraft/pkg/templates"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	reg := fonts.NewRegistry(fonts.WithoutSystemFonts())
	r := pipeline.NewRenderer(
		pipeline.WithFontLoader(fonts.NewLoader(reg, fonts.WithDescriptorURL("http://127.0.0.1:1/css?family=%s"))),
	)
	srv := httptest.NewServer(New(r, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func renderBody(t *testing.T, req RenderRequest) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(data)
}

func sampleRequest() RenderRequest {
	return RenderRequest{Request: pipeline.Request{
		Spec: post.LayoutSpec{
			Metadata: post.Metadata{Brand: post.Brand{PrimaryColor: "#1D4ED8"}},
			TextBlocks: []post.TextBlock{
				{ID: "title", Text: "Summer sale", Role: post.RoleHeader, Alignment: post.AlignCenter, Order: 1},
				{ID: "deal", Text: "Two for one", Role: post.RoleBanner, Alignment: post.AlignCenter, Order: 2},
			},
		},
		Template: templates.Halo,
	}}
}

func decodeError(t *testing.T, resp *http.Response) errorDetail {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestRenderJSON(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/render", "application/json", renderBody(t, sampleRequest()))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", resp.StatusCode, decodeError(t, resp))
	}

	var out RenderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.DataURL, "data:image/png;base64,") {
		t.Errorf("dataUrl = %.40q", out.DataURL)
	}
	if out.Width != 1080 || out.Height != 1080 {
		t.Errorf("size = %dx%d", out.Width, out.Height)
	}
	if out.Template != templates.Halo {
		t.Errorf("template = %q", out.Template)
	}
	if out.Layout == nil || len(out.Layout.Blocks) != 2 {
		t.Errorf("layout = %+v", out.Layout)
	}
	if resp.Header.Get(HeaderRequestID) == "" {
		t.Error("missing request id header")
	}
}

func TestRenderPNG(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/render", renderBody(t, sampleRequest()))
	req.Header.Set("Accept", "image/png")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1080 {
		t.Errorf("width = %d", b.Dx())
	}
}

func TestRenderIdenticalRequestsBothDraw(t *testing.T) {
	srv := newTestServer(t)
	for i := 0; i < 2; i++ {
		resp, err := http.Post(srv.URL+"/v1/render?format=png", "application/json", renderBody(t, sampleRequest()))
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || buf.Len() == 0 {
			t.Errorf("request %d: status %d, %d bytes", i, resp.StatusCode, buf.Len())
		}
	}
}

func TestRenderPick(t *testing.T) {
	srv := newTestServer(t, WithRand(rand.New(rand.NewPCG(1, 2))))
	req := sampleRequest()
	req.Template = ""
	req.Pick = true

	resp, err := http.Post(srv.URL+"/v1/render", "application/json", renderBody(t, req))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out RenderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if _, ok := templates.Default().Get(out.Template); !ok {
		t.Errorf("picked template %q is not a builtin", out.Template)
	}
}

func TestPickConcurrent(t *testing.T) {
	reg := fonts.NewRegistry(fonts.WithoutSystemFonts())
	s := New(pipeline.NewRenderer(pipeline.WithFontLoader(fonts.NewLoader(reg))), WithRand(rand.New(rand.NewPCG(3, 4))))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				id, err := s.pick("", "")
				if err != nil {
					t.Errorf("pick: %v", err)
					return
				}
				if _, ok := templates.Default().Get(id); !ok {
					t.Errorf("picked %q, not a builtin", id)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestRenderErrors(t *testing.T) {
	srv := newTestServer(t, WithMaxBody(4096))

	unknown := sampleRequest()
	unknown.Template = "nope"
	badRole := sampleRequest()
	badRole.Spec.TextBlocks[0].Role = "footer"

	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"malformed json", "{", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown template", mustJSON(t, unknown), http.StatusNotFound, errors.ErrCodeTemplateNotFound},
		{"invalid role", mustJSON(t, badRole), http.StatusBadRequest, errors.ErrCodeInvalidSpec},
		{"too large", `{"spec":{"textBlocks":[{"text":"` + strings.Repeat("x", 5000) + `"}]}}`, http.StatusRequestEntityTooLarge, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/v1/render", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if got := decodeError(t, resp); got.Code != tt.code {
				t.Errorf("code = %s, want %s", got.Code, tt.code)
			}
		})
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestTemplates(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/templates")
	if err != nil {
		t.Fatal(err)
	}
	var list struct {
		Templates []templates.Definition `json:"templates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(list.Templates) != templates.Default().Len() {
		t.Errorf("listed %d templates, want %d", len(list.Templates), templates.Default().Len())
	}

	resp, err = http.Get(srv.URL + "/v1/templates/" + string(templates.Ribbon))
	if err != nil {
		t.Fatal(err)
	}
	var def templates.Definition
	if err := json.NewDecoder(resp.Body).Decode(&def); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if def.ID != templates.Ribbon {
		t.Errorf("id = %q", def.ID)
	}

	resp, err = http.Get(srv.URL + "/v1/templates/missing")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHealthAndFonts(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	var health map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if health["status"] != "ok" {
		t.Errorf("health = %v", health)
	}

	resp, err = http.Get(srv.URL + "/v1/fonts")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		Families []string `json:"families"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if len(body.Families) == 0 {
		t.Error("no font families listed")
	}
}

func TestRequestIDPropagates(t *testing.T) {
	srv := newTestServer(t)
	const id = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set(HeaderRequestID, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(HeaderRequestID); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidColor, http.StatusBadRequest},
		{errors.ErrCodeTemplateNotFound, http.StatusNotFound},
		{errors.ErrCodeLayoutImpossible, http.StatusUnprocessableEntity},
		{errors.ErrCodeNetwork, http.StatusBadGateway},
		{errors.ErrCodeTimeout, http.StatusGatewayTimeout},
		{errors.ErrCodeComposite, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(errors.New(tt.code, "x")); got != tt.want {
			t.Errorf("StatusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
