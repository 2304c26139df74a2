package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/a-h/templ"

	"github.com/pthm/hxtag"
	"github.com/pthm/hxtag/example/components"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// In production, load the fragment key from a secret store.
	key := []byte("example-key-must-be-32-bytes!!")
	opts := []hxtag.Option{
		hxtag.WithLogger(logger),
		hxtag.WithDev(true),
		hxtag.WithFragments(key, ""),
	}

	reg := hxtag.NewRegistry(opts...)
	components.Register(reg, NewStore())

	rt, err := hxtag.NewRouter(reg, nil, opts...)
	if err != nil {
		logger.Error("building router", "error", err)
		os.Exit(1)
	}
	registerPages(rt)

	addr := ":8080"
	logger.Info("starting server", "addr", "http://localhost"+addr)
	if err := http.ListenAndServe(addr, rt); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func registerPages(rt *hxtag.Router) {
	// Filter state lives in the URL.
	_ = rt.Page("/", func(r *http.Request, _ hxtag.Params) templ.Component {
		status := r.URL.Query().Get("status")
		if status == "" {
			status = "all"
		}
		return layout("Todos", hxtag.HTMLComponent(
			`<todo-stats></todo-stats>`+
				`<add-todo></add-todo>`+
				`<todo-list status="`+templ.EscapeString(status)+`"></todo-list>`))
	})

	// The detail loads after the page shell, through the fragment endpoint.
	_ = rt.Page("/tasks/:id", func(r *http.Request, p hxtag.Params) templ.Component {
		return layout("Task", rt.Fragments().Defer("task-detail",
			hxtag.RawAttributes{"id": p.Get("id")},
			hxtag.HTMLComponent(`<p>Loading…</p>`)))
	})
}

func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html><html><head><title>`+templ.EscapeString(title)+`</title>`+
			`<script src="https://unpkg.com/htmx.org@2.0.4"></script>`+
			`<script src="https://unpkg.com/htmx-ext-json-enc@2.0.1/json-enc.js"></script>`+
			`</head><body><nav><a href="/">All</a> <a href="/?status=pending">Pending</a> <a href="/?status=completed">Done</a></nav>`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		if err := hxtag.ToastContainer().Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}
