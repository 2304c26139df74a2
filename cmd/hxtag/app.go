package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/a-h/templ"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pthm/hxtag"
	"github.com/pthm/hxtag/config"
	"github.com/pthm/hxtag/lib/telemetry"
)

// app is everything built from one config file.
type app struct {
	cfg      *config.Config
	registry *hxtag.Registry
	router   *hxtag.Router
	pages    []page
}

// page is an HTML file served at pattern.
type page struct {
	pattern string
	path    string
}

// buildApp registers the declared components and pages. promReg may be
// nil, in which case no metrics are collected.
func buildApp(cfg *config.Config, logger *slog.Logger, promReg prometheus.Registerer) (*app, error) {
	opts := append(cfg.Options(), hxtag.WithLogger(logger))
	if promReg != nil {
		opts = append(opts, hxtag.WithMetrics(telemetry.NewMetrics(promReg, "")))
	}

	components, err := config.BuildComponents(cfg)
	if err != nil {
		return nil, err
	}
	reg := hxtag.NewRegistry(opts...)
	for _, c := range components {
		if _, err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	rt, err := hxtag.NewRouter(reg, nil, opts...)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, registry: reg, router: rt}
	if cfg.PagesDir != "" {
		pages, err := findPages(cfg.PagesDir)
		if err != nil {
			return nil, err
		}
		for _, p := range pages {
			if err := rt.Page(p.pattern, p.handler(cfg.Dev)); err != nil {
				return nil, fmt.Errorf("page %s: %w", p.path, err)
			}
		}
		a.pages = pages
	}
	return a, nil
}

// findPages walks dir for *.html files. about.html is served at /about,
// index.html at its directory, and a path segment starting with "_"
// becomes a placeholder: users/_id.html is served at /users/:id.
// Static patterns sort before placeholders so they win the first match.
func findPages(dir string) ([]page, error) {
	var pages []page
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".html" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		pages = append(pages, page{pattern: pagePattern(rel), path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading pages: %w", err)
	}

	sort.SliceStable(pages, func(i, j int) bool {
		pi, pj := strings.Count(pages[i].pattern, ":"), strings.Count(pages[j].pattern, ":")
		if pi != pj {
			return pi < pj
		}
		return pages[i].pattern < pages[j].pattern
	})
	return pages, nil
}

func pagePattern(rel string) string {
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".html")
	segments := strings.Split(rel, "/")
	if segments[len(segments)-1] == "index" {
		segments = segments[:len(segments)-1]
	}
	for i, seg := range segments {
		if strings.HasPrefix(seg, "_") && len(seg) > 1 {
			segments[i] = ":" + seg[1:]
		}
	}
	return "/" + strings.Join(segments, "/")
}

// handler serves the page file. In dev mode the file is read on every
// request so edits show up without a restart.
func (p page) handler(dev bool) hxtag.PageFunc {
	var cached templ.Component
	if !dev {
		data, err := os.ReadFile(p.path)
		if err == nil {
			cached = hxtag.HTMLComponent(string(data))
		}
	}
	return func(r *http.Request, _ hxtag.Params) templ.Component {
		if cached != nil {
			return cached
		}
		data, err := os.ReadFile(p.path)
		if err != nil {
			return templ.ComponentFunc(func(_ context.Context, _ io.Writer) error {
				return err
			})
		}
		return hxtag.HTMLComponent(string(data))
	}
}
