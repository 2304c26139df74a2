package hxtag

import (
	"context"
	"errors"
	"html"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/pthm/hxtag/lib/jsoncodec"
	"github.com/pthm/hxtag/lib/telemetry"
)

// PageFunc renders a page. Component tags in its output are resolved.
type PageFunc func(r *http.Request, p Params) templ.Component

// Router dispatches requests. Component routes are tried first, then
// pages, then the fragment endpoint; anything else is 404.
//
//	reg := hxtag.NewRegistry(hxtag.WithLogger(logger))
//	reg.MustRegister(todoList, todoItem)
//	rt, err := hxtag.NewRouter(reg, nil, hxtag.WithLogger(logger))
//	rt.Page("/", func(r *http.Request, _ hxtag.Params) templ.Component {
//	    return hxtag.HTMLComponent(`<todo-list></todo-list>`)
//	})
//	http.ListenAndServe(":8080", rt)
type Router struct {
	reg   *Registry
	res   *Resolver
	pages *RouteTable
	frags *Fragments
	opts  options

	// OnError writes the response for a failed request. The default maps
	// ErrNotFound to 404, bad fragment tokens to 400 and everything else
	// to a generic 500 carrying an X-Request-Id.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

// NewRouter creates a router over reg. When res is nil a resolver is
// built from opts. WithFragments enables the fragment endpoint.
func NewRouter(reg *Registry, res *Resolver, opts ...Option) (*Router, error) {
	o := newOptions(opts)
	if res == nil {
		res = NewResolver(reg, opts...)
	}
	rt := &Router{
		reg:   reg,
		res:   res,
		pages: NewRouteTable(),
		opts:  o,
	}
	if o.fragmentKey != nil {
		frags, err := NewFragments(res, opts...)
		if err != nil {
			return nil, err
		}
		rt.frags = frags
	}
	rt.OnError = rt.handleError
	return rt, nil
}

// Resolver returns the resolver used for HTML responses.
func (rt *Router) Resolver() *Resolver { return rt.res }

// Fragments returns the fragment endpoint, or nil when it is disabled.
func (rt *Router) Fragments() *Fragments { return rt.frags }

// Page serves GET requests for pattern with page.
func (rt *Router) Page(pattern string, page PageFunc) error {
	if page == nil {
		return errors.New("hxtag: nil page")
	}
	_, err := rt.pages.Add(http.MethodGet, pattern, func(r *http.Request, p Params) Result {
		return OK(page(r, p))
	})
	return err
}

// ServeHTTP implements http.Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := telemetry.Start(r.Context(), rt.opts.tracer, "hxtag.dispatch",
		attribute.String("http.method", r.Method),
		attribute.String("http.path", r.URL.Path))
	r = r.WithContext(ctx)

	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	kind := "not_found"
	defer func() {
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		span.SetAttributes(
			attribute.String("hxtag.kind", kind),
			attribute.Int("http.status_code", status))
		rt.opts.metrics.ObserveDispatch(kind, status, start)
		telemetry.End(span, nil)
	}()

	path := r.URL.EscapedPath()
	if def, params, ok := rt.reg.Routes().Match(r.Method, path); ok {
		kind = "route"
		// CSRF protection: mutating methods require the header htmx sends.
		if r.Method != http.MethodGet && r.Method != http.MethodHead && !IsHTMX(r) {
			http.Error(ww, "Forbidden: HTMX request required", http.StatusForbidden)
			return
		}
		rt.serveRoute(ww, r, def, params)
		return
	}
	if def, params, ok := rt.pages.Match(r.Method, path); ok {
		kind = "page"
		rt.serveRoute(ww, r, def, params)
		return
	}
	if rt.frags != nil && rt.frags.match(r) {
		kind = "fragment"
		rt.serveFragment(ww, r)
		return
	}
	rt.OnError(ww, r, ErrNotFound)
}

func (rt *Router) serveRoute(w http.ResponseWriter, r *http.Request, def *RouteDef, params Params) {
	r = r.WithContext(WithParams(r.Context(), params))
	res, err := callHandler(def, r, params)
	if err != nil {
		rt.OnError(w, r, err)
		return
	}
	rt.writeResult(w, r, def, res)
}

func (rt *Router) serveFragment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	out, err := rt.frags.Render(r)
	if err != nil {
		rt.OnError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, out)
}

// writeResult renders res. Nothing is written until the body is complete,
// so a failure never leaves a partial response.
func (rt *Router) writeResult(w http.ResponseWriter, r *http.Request, def *RouteDef, res Result) {
	ctx := r.Context()

	if res.redirect != "" {
		rt.setHeaders(w, res)
		if IsHTMX(r) {
			w.Header().Set("HX-Redirect", res.redirect)
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, res.redirect, http.StatusSeeOther)
		return
	}

	status := res.status
	if status == 0 {
		status = http.StatusOK
	}
	if status == http.StatusNoContent {
		rt.setHeaders(w, res)
		w.WriteHeader(status)
		return
	}

	if res.isJSON {
		body, err := jsoncodec.Marshal(res.json)
		if err != nil {
			rt.OnError(w, r, &HandlerError{Method: def.Method, Pattern: def.Pattern, Err: err})
			return
		}
		rt.setHeaders(w, res)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
		return
	}

	body, err := res.renderBody(ctx)
	if err != nil {
		rt.OnError(w, r, &HandlerError{Method: def.Method, Pattern: def.Pattern, Err: err})
		return
	}
	out, err := rt.res.Resolve(ctx, body)
	if err != nil {
		rt.OnError(w, r, err)
		return
	}
	out += RenderFlashesOOB(res.flashes)

	rt.setHeaders(w, res)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, out)
}

func (rt *Router) setHeaders(w http.ResponseWriter, res Result) {
	for k, v := range res.headers {
		w.Header().Set(k, v)
	}
	if trigger := BuildTriggerHeader(res.trigger, res.triggerData); trigger != "" {
		w.Header().Set("HX-Trigger", trigger)
	}
}

// handleError is the default OnError.
func (rt *Router) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case IsNotFound(err):
		http.Error(w, "Not found", http.StatusNotFound)
		return
	case IsDecryptionError(err), errors.Is(err, ErrInvalidFormat):
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		rt.opts.logger.Debug("hxtag: request cancelled",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path))
		return
	}

	id := r.Header.Get("X-Request-Id")
	if id == "" {
		id = middleware.GetReqID(r.Context())
	}
	if id == "" {
		id = uuid.NewString()
	}
	rt.opts.logger.Error("hxtag: request failed",
		slog.String("request_id", id),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))

	w.Header().Set("X-Request-Id", id)
	var rerr *ResolveError
	if rt.opts.dev && errors.As(err, &rerr) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<pre>"+html.EscapeString(rerr.Format())+"</pre>")
		return
	}
	http.Error(w, "Internal error (request "+id+")", http.StatusInternalServerError)
}
