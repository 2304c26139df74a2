package hxtag

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/a-h/templ"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/pthm/hxtag/lib/telemetry"
)

// Resolver replaces registered component tags in HTML with their rendered
// output. Rendered output is scanned again, so components may contain
// components, up to the configured depth.
//
//	res := hxtag.NewResolver(reg, hxtag.WithMaxDepth(16))
//	page, err := res.Resolve(ctx, `<main><todo-list filter="open"></todo-list></main>`)
//
// Sibling tags render concurrently and are spliced back in source order,
// so the output for a given registry and input is always the same. A
// failed or cancelled resolution returns no output.
type Resolver struct {
	reg  *Registry
	opts options
}

// NewResolver creates a resolver over reg.
func NewResolver(reg *Registry, opts ...Option) *Resolver {
	return &Resolver{reg: reg, opts: newOptions(opts)}
}

// Registry returns the registry the resolver reads.
func (r *Resolver) Registry() *Registry { return r.reg }

// Resolve resolves every registered tag in src. Unregistered tags are
// left as they are. Failures are *ResolveError, except cancellation,
// which returns ctx.Err().
func (r *Resolver) Resolve(ctx context.Context, src string) (out string, err error) {
	ctx, span := telemetry.Start(ctx, r.opts.tracer, "hxtag.resolve",
		attribute.Int("hxtag.input_bytes", len(src)))
	start := time.Now()
	defer func() {
		r.opts.metrics.ObserveResolve(start, err)
		telemetry.End(span, err)
	}()

	out, err = r.resolve(ctx, src, 0, nil)
	if err != nil {
		return "", err
	}
	return out, nil
}

// ResolveComponent renders one component directly, as if the tag
// <tag ...raw>children</tag> had been found in a page, and resolves its
// output. An unregistered tag is ErrNotFound.
func (r *Resolver) ResolveComponent(ctx context.Context, tag string, raw RawAttributes, children string) (out string, err error) {
	ctx, span := telemetry.Start(ctx, r.opts.tracer, "hxtag.resolve",
		attribute.String("hxtag.tag", tag))
	start := time.Now()
	defer func() {
		r.opts.metrics.ObserveResolve(start, err)
		telemetry.End(span, err)
	}()

	entry, ok := r.reg.Lookup(tag)
	if !ok {
		return "", fmt.Errorf("%w: component <%s>", ErrNotFound, NormalizeTag(tag))
	}
	if raw == nil {
		raw = RawAttributes{}
	}
	n := node{entry: entry, tag: entry.tag, attrs: raw, inner: children}
	out, err = r.render(ctx, "", n, 1, nil)
	if err != nil {
		return "", err
	}
	return out, nil
}

// resolve scans src at the given depth and renders its component nodes.
// stack holds the tags whose output src is, outermost first.
func (r *Resolver) resolve(ctx context.Context, src string, depth int, stack []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	nodes := scan(src, 0, r.reg.Lookup)
	components := 0
	for _, n := range nodes {
		if n.entry != nil {
			components++
		}
	}
	if components == 0 {
		return src, nil
	}

	parts := make([]string, len(nodes))
	errs := make([]error, len(nodes))

	g, gctx := errgroup.WithContext(ctx)
	if r.opts.concurrency > 0 {
		g.SetLimit(r.opts.concurrency)
	}
	for i, n := range nodes {
		if n.entry == nil {
			parts[i] = n.text
			continue
		}
		i, n := i, n
		g.Go(func() error {
			out, err := r.render(gctx, src, n, depth+1, stack)
			if err != nil {
				errs[i] = err
				return err
			}
			parts[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", firstError(ctx, errs, err)
	}
	return strings.Join(parts, ""), nil
}

// firstError picks the error to report for a failed pass: ctx.Err() when
// the caller cancelled, otherwise the leftmost failure that is not a
// sibling cancelled because of it.
func firstError(ctx context.Context, errs []error, fallback error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return fallback
}

// render renders one component node at level and resolves its output at
// the same level. src is the buffer the node was found in, rendered by the
// last tag in stack.
func (r *Resolver) render(ctx context.Context, src string, n node, level int, stack []string) (out string, err error) {
	ctx, span := telemetry.Start(ctx, r.opts.tracer, "hxtag.render",
		attribute.String("hxtag.tag", n.tag),
		attribute.Int("hxtag.depth", level))
	defer func() {
		r.opts.metrics.ObserveRender(n.tag, err)
		telemetry.End(span, err)
	}()

	fail := func(err error) error {
		line, col := position(src, n.pos)
		rerr := &ResolveError{Tag: n.tag, Line: line, Column: col, Depth: level, Stack: stack, Err: err}
		var perrs PropErrors
		if errors.As(err, &perrs) {
			rerr.Suggestion = suggestion(n.entry.schema, n.attrs, perrs)
		}
		return rerr
	}

	if level > r.opts.maxDepth {
		return "", fail(fmt.Errorf("%w: depth %d exceeds %d", ErrRecursionLimit, level, r.opts.maxDepth))
	}

	html, err := renderEntry(ctx, n)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fail(err)
	}
	inner := make([]string, len(stack), len(stack)+1)
	copy(inner, stack)
	return r.resolve(ctx, html, level, append(inner, n.tag))
}

// renderEntry parses props, calls the render function and writes its
// output. Panics in either step are returned as errors.
func renderEntry(ctx context.Context, n node) (html string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok {
				err = fmt.Errorf("render panicked: %w", e)
				return
			}
			err = fmt.Errorf("render panicked: %v", rec)
		}
	}()

	var c templ.Component
	c, err = n.entry.Render(ctx, n.attrs, n.inner)
	if err != nil || c == nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// suggestion returns the first near-match hint for a missing prop.
func suggestion(schema Schema, raw RawAttributes, perrs PropErrors) string {
	for _, pe := range perrs {
		if pe.Kind != RequiredMissing {
			continue
		}
		if s := Suggest(schema, raw, pe.Key); s != "" {
			return s
		}
	}
	return ""
}
