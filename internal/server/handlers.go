package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/brickwall/pkg/buildinfo"
	"github.com/matzehuels/brickwall/pkg/errors"
	"github.com/matzehuels/brickwall/pkg/pipeline"
	"github.com/matzehuels/brickwall/pkg/render/sink"
	"github.com/matzehuels/brickwall/pkg/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxBodyBytes     = 1 << 20
)

// baseOptions copies the configured defaults into fresh options so that
// request values are always validated.
func (s *Server) baseOptions() pipeline.Options {
	d := s.cfg.Defaults
	return pipeline.Options{
		Catalog:    s.cfg.Catalog,
		PageSize:   d.PageSize,
		Width:      d.Width,
		MaxBlocks:  d.MaxBlocks,
		Separation: d.Separation,
		RowGap:     d.RowGap,
		Weights:    d.Weights,
		Title:      d.Title,
		Labels:     d.Labels,
		PNGScale:   d.PNGScale,
		Workers:    d.Workers,
		ImageBase:  s.cfg.ImageBase,
		Logger:     s.cfg.Logger,
	}
}

// queryOptions reads paging, filter and layout parameters from the query.
func (s *Server) queryOptions(r *http.Request, format string) (pipeline.Options, error) {
	opts := s.baseOptions()
	opts.Formats = []string{format}

	q := r.URL.Query()
	var err error
	if opts.Page, err = intParam(q, "page", 0); err != nil {
		return opts, err
	}
	if opts.PageSize, err = intParam(q, "size", opts.PageSize); err != nil {
		return opts, err
	}
	if opts.Width, err = floatParam(q, "width", opts.Width); err != nil {
		return opts, err
	}
	if v := q.Get("all"); v != "" {
		if opts.All, err = strconv.ParseBool(v); err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid all=%q", v)
		}
	}
	opts.Tag = q.Get("tag")

	if format == pipeline.FormatHTML {
		base := *r.URL
		opts.PageURL = func(n int) string {
			q := base.Query()
			q.Set("page", strconv.Itoa(n))
			base.RawQuery = q.Encode()
			return base.RequestURI()
		}
	}
	return opts, nil
}

func intParam(q url.Values, name string, def int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid %s=%q", name, v)
	}
	return n, nil
}

func floatParam(q url.Values, name string, def float64) (float64, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid %s=%q", name, v)
	}
	return f, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Current(),
		"images": s.cfg.Catalog.Len(),
	})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tags": s.cfg.Catalog.Tags()})
}

// handleArtifact runs the pipeline for one format and writes the artifact.
func (s *Server) handleArtifact(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := s.queryOptions(r, format)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		res, err := s.cfg.Runner.Execute(r.Context(), opts)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		h := w.Header()
		h.Set("Content-Type", pipeline.ContentType(format))
		h.Set("X-Brickwall-Page", strconv.Itoa(res.Page.Number()))
		h.Set("X-Brickwall-Page-Count", strconv.Itoa(res.Page.Count()))
		if res.CacheInfo.RenderHit {
			h.Set("X-Brickwall-Cache", "hit")
		} else {
			h.Set("X-Brickwall-Cache", "miss")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.Artifacts[format])
	}
}

// renderRequest is the body of POST /api/renders.
type renderRequest struct {
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Tag      string  `json:"tag"`
	Width    float64 `json:"width"`
	RowGap   float64 `json:"row_gap"`
	All      bool    `json:"all"`
	Title    string  `json:"title"`
}

type renderSummary struct {
	ID        string     `json:"id"`
	URL       string     `json:"url"`
	Title     string     `json:"title,omitempty"`
	Tag       string     `json:"tag,omitempty"`
	Page      int        `json:"page"`
	Images    int        `json:"images"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func summarize(rec *store.Record) renderSummary {
	return renderSummary{
		ID:        rec.ID,
		URL:       "/api/renders/" + rec.ID,
		Title:     rec.Title,
		Tag:       rec.Tag,
		Page:      rec.Page.Number(),
		Images:    len(rec.Items),
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}
}

func (s *Server) handleCreateRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}

	opts := s.baseOptions()
	opts.Formats = []string{pipeline.FormatJSON}
	opts.Page = req.Page
	opts.Tag = req.Tag
	opts.All = req.All
	if req.PageSize != 0 {
		opts.PageSize = req.PageSize
	}
	if req.Width != 0 {
		opts.Width = req.Width
	}
	if req.RowGap != 0 {
		opts.RowGap = req.RowGap
	}
	if req.Title != "" {
		opts.Title = req.Title
	}

	res, err := s.cfg.Runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rec := store.New(s.cfg.RecordTTL)
	wall := res.Wall(opts)
	rec.Title = wall.Title
	rec.Catalog = s.cfg.CatalogPath
	rec.Tag = wall.Tag
	rec.Page = wall.Page
	rec.Items = wall.Items
	rec.Layout = wall.Layout
	if err := s.cfg.Store.Save(r.Context(), rec); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.cfg.Logger.Info("stored render", "id", rec.ID, "images", len(rec.Items))
	w.Header().Set("Location", "/api/renders/"+rec.ID)
	writeJSON(w, http.StatusCreated, summarize(rec))
}

func (s *Server) handleListRenders(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit", defaultListLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if limit <= 0 || limit > maxListLimit {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "limit must be between 1 and %d", maxListLimit))
		return
	}

	recs, err := s.cfg.Store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]renderSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, summarize(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"renders": out})
}

func (s *Server) handleGetRender(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := store.ValidateID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.cfg.Store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		writeJSON(w, http.StatusOK, rec)
		return
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := s.baseOptions()
	opts.Formats = []string{format}
	if err := opts.ValidateForRender(); err != nil {
		s.writeError(w, r, err)
		return
	}
	wall := sink.Wall{Title: rec.Title, Tag: rec.Tag, Items: rec.Items, Layout: rec.Layout, Page: rec.Page}
	artifacts, err := pipeline.Render(r.Context(), wall, s.cfg.Catalog.ImageRoot, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentType(format))
	_, _ = w.Write(artifacts[format])
}

// imageHandler serves catalog images. Files not listed in the catalog are
// not served.
func (s *Server) imageHandler() http.Handler {
	prefix := s.cfg.ImageBase + "/"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		src := strings.TrimPrefix(r.URL.Path, prefix)
		if err := errors.ValidateImagePath(src); err != nil {
			s.writeError(w, r, err)
			return
		}
		it, ok := s.cfg.Catalog.Lookup(src)
		if !ok {
			s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "image %s is not in the catalog", src))
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		http.ServeFile(w, r, s.cfg.Catalog.Path(it))
	})
}
