package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/collage/pkg/buildinfo"
	errs "github.com/matzehuels/collage/pkg/errors"
	"github.com/matzehuels/collage/pkg/pipeline"
	"github.com/matzehuels/collage/pkg/project"
	"github.com/matzehuels/collage/pkg/render"
)

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

type projectsResponse struct {
	Category   project.Category  `json:"category,omitempty"`
	Categories []project.Category `json:"categories"`
	Projects   []project.Project  `json:"projects"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	category, err := project.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.source.Load(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	projects := doc.Filter(category)
	if projects == nil {
		projects = []project.Project{}
	}
	writeJSON(w, http.StatusOK, projectsResponse{
		Category:   category,
		Categories: project.Categories,
		Projects:   projects,
	})
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.source.Load(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, ok := doc.Find(id)
	if !ok {
		s.writeError(w, r, errs.New(errs.ErrCodeNotFound, "project %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleCollage runs the pipeline for one collage and writes a single
// artifact. Query parameters override the configured defaults.
func (s *Server) handleCollage(w http.ResponseWriter, r *http.Request) {
	opts, format, err := s.collageOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if r.Context().Err() != nil {
		// The client is gone; nobody reads the response.
		s.logger.Debug("collage request abandoned", "request_id", RequestIDFrom(r.Context()))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cacheState := "miss"
	if res.CacheInfo.LayoutHit {
		cacheState = "hit"
	}
	w.Header().Set("Content-Type", render.ContentType(format))
	w.Header().Set("X-Layout-ID", res.LayoutID)
	w.Header().Set("X-Cache", cacheState)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) collageOptions(r *http.Request) (opts pipeline.Options, format string, err error) {
	q := r.URL.Query()
	opts = s.cfg.Defaults
	opts.Source = s.source
	opts.Logger = nil

	if opts.Category, err = project.ParseCategory(q.Get("category")); err != nil {
		return opts, "", err
	}
	if v := q.Get("width"); v != "" {
		if opts.Width, err = parseFloat("width", v); err != nil {
			return opts, "", err
		}
	}
	if v := q.Get("height"); v != "" {
		if opts.Height, err = parseFloat("height", v); err != nil {
			return opts, "", err
		}
	}
	if v := q.Get("seed"); v != "" {
		seed, perr := strconv.ParseUint(v, 10, 64)
		if perr != nil {
			return opts, "", errs.New(errs.ErrCodeInvalidInput, "seed must be an unsigned integer, got %q", v)
		}
		opts.Seed, opts.Seeded = seed, true
	}

	format = strings.ToLower(q.Get("format"))
	if format == "" {
		format = render.FormatJSON
	}
	if err := render.ValidateFormat(format); err != nil {
		return opts, "", err
	}
	opts.Formats = []string{format}
	opts.Animate = opts.Animate || flag(q.Get("animate"))
	opts.Debug = opts.Debug || flag(q.Get("debug"))
	opts.Refresh = flag(q.Get("refresh"))
	opts.Slot = s.slots.get(r.Header.Get(ClientHeader))
	return opts, format, nil
}

func parseFloat(name, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errs.New(errs.ErrCodeInvalidCanvas, "%s must be a number, got %q", name, v)
	}
	return f, nil
}

func flag(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
