package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/postcraft/pkg/buildinfo"
	"github.com/matzehuels/postcraft/pkg/errors"
	"github.com/matzehuels/postcraft/pkg/pipeline"
	"github.com/matzehuels/postcraft/pkg/render"
	"github.com/matzehuels/postcraft/pkg/templates"
)

// RenderRequest is the body of POST /v1/render.
type RenderRequest struct {
	pipeline.Request
	// Pick selects a random eligible template when Template is empty.
	Pick        bool   `json:"pick,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// RenderResponse is the JSON answer of POST /v1/render.
type RenderResponse struct {
	pipeline.Outcome
	Template templates.ID `json:"template,omitempty"`
}

// pick chooses a random eligible template.
func (s *Server) pick(contentType, businessID string) (templates.ID, error) {
	if s.rng == nil {
		return s.templates.PickRandom(contentType, businessID, nil)
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.templates.PickRandom(contentType, businessID, s.rng)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	var body RenderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err := dec.Decode(&body); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}

	req := body.Request
	if req.Template == "" && body.Pick {
		id, err := s.pick(body.ContentType, req.Profile.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		req.Template = id
	}

	out, err := s.renderer.RenderOnce(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	if wantsPNG(r) {
		w.Header().Set("Content-Type", render.MediaTypePNG)
		w.Header().Set("ETag", `"`+out.Fingerprint+`"`)
		_, _ = w.Write(out.PNG)
		return
	}
	writeJSON(w, http.StatusOK, RenderResponse{Outcome: out, Template: req.Template})
}

func wantsPNG(r *http.Request) bool {
	if f := r.URL.Query().Get("format"); f != "" {
		return f == "png"
	}
	return strings.Contains(r.Header.Get("Accept"), render.MediaTypePNG)
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	defs := s.templates.List(q.Get("contentType"), q.Get("business"))
	if defs == nil {
		defs = []templates.Definition{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": defs})
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	def, err := s.templates.Lookup(templates.ID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) listFonts(w http.ResponseWriter, r *http.Request) {
	reg := s.renderer.Fonts().Registry()
	select {
	case <-reg.Ready():
	case <-r.Context().Done():
		writeError(w, r.Context().Err())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"families": reg.Families()})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"build":     buildinfo.Get(),
		"rendering": s.renderer.IsRendering(),
	})
}
