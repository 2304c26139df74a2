package hxtag

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/a-h/templ"

	"github.com/pthm/hxtag/lib/jsoncodec"
)

// Wire attribute names and values emitted in bundles.
const (
	AttrVals    = "hx-vals"
	AttrExt     = "hx-ext"
	AttrHeaders = "hx-headers"

	// JSONExtension is the htmx extension that sends hx-vals as a JSON body.
	JSONExtension = "json-enc"

	// jsonHeaders marks programmatic calls so the router can tell them apart
	// from full page navigations. Keys are sorted.
	jsonHeaders = `{"Accept":"text/html","Content-Type":"application/json","HX-Request":"true"}`
)

// Attr is a single wire attribute.
type Attr struct {
	Key   string
	Value string
}

// Bundle is the immutable set of attributes that makes an element invoke
// a route. Attribute order is fixed by construction so identical calls
// always render identical bytes. Builder methods return modified copies.
//
//	b, _ := api.Attrs("remove", todo.ID)
//	b = b.Target("closest li").Swap(hxtag.SwapOuter).Confirm("Delete?")
//	<button { b.Attributes()... }>Delete</button>
type Bundle struct {
	attrs []Attr
}

func (b Bundle) with(key, value string) Bundle {
	attrs := make([]Attr, 0, len(b.attrs)+1)
	replaced := false
	for _, a := range b.attrs {
		if a.Key == key {
			a.Value = value
			replaced = true
		}
		attrs = append(attrs, a)
	}
	if !replaced {
		attrs = append(attrs, Attr{Key: key, Value: value})
	}
	return Bundle{attrs: attrs}
}

// Get returns the value of key.
func (b Bundle) Get(key string) (string, bool) {
	for _, a := range b.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// List returns the attributes in order.
func (b Bundle) List() []Attr {
	return append([]Attr(nil), b.attrs...)
}

// Len returns the number of attributes.
func (b Bundle) Len() int { return len(b.attrs) }

// Method returns the HTTP method the bundle invokes.
func (b Bundle) Method() string {
	for _, a := range b.attrs {
		if m, ok := methodForAttr(a.Key); ok {
			return m
		}
	}
	return ""
}

// URL returns the resolved URL the bundle invokes.
func (b Bundle) URL() string {
	for _, a := range b.attrs {
		if _, ok := methodForAttr(a.Key); ok {
			return a.Value
		}
	}
	return ""
}

// Attributes converts the bundle for spreading into a templ element.
func (b Bundle) Attributes() templ.Attributes {
	attrs := make(templ.Attributes, len(b.attrs))
	for _, a := range b.attrs {
		attrs[a.Key] = a.Value
	}
	return attrs
}

// String renders the bundle as HTML attribute text, values escaped:
//
//	hx-post="/todos" hx-vals="{&#34;title&#34;:&#34;Milk&#34;}"
func (b Bundle) String() string {
	var sb strings.Builder
	for i, a := range b.attrs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(a.Value))
		sb.WriteByte('"')
	}
	return sb.String()
}

// Target sets the element that receives the response (hx-target).
func (b Bundle) Target(selector string) Bundle { return b.with("hx-target", selector) }

// TargetThis targets the triggering element.
func (b Bundle) TargetThis() Bundle { return b.Target("this") }

// TargetClosest targets the closest ancestor matching selector.
func (b Bundle) TargetClosest(selector string) Bundle { return b.Target("closest " + selector) }

// Swap sets how the response replaces the target (hx-swap).
func (b Bundle) Swap(mode SwapMode) Bundle { return b.with("hx-swap", string(mode)) }

// Trigger sets the triggering event (hx-trigger).
func (b Bundle) Trigger(event string) Bundle { return b.with("hx-trigger", event) }

// Confirm asks the user before sending (hx-confirm).
func (b Bundle) Confirm(message string) Bundle { return b.with("hx-confirm", message) }

// PushURL pushes the request URL into browser history (hx-push-url).
func (b Bundle) PushURL() Bundle { return b.with("hx-push-url", "true") }

// Indicator shows selector while the request is in flight (hx-indicator).
func (b Bundle) Indicator(selector string) Bundle { return b.with("hx-indicator", selector) }

func attrForMethod(method string) string {
	return "hx-" + strings.ToLower(method)
}

func methodForAttr(key string) (string, bool) {
	switch key {
	case "hx-get":
		return http.MethodGet, true
	case "hx-post":
		return http.MethodPost, true
	case "hx-put":
		return http.MethodPut, true
	case "hx-patch":
		return http.MethodPatch, true
	case "hx-delete":
		return http.MethodDelete, true
	}
	return "", false
}

// Invoker describes how a client calls one route. It never runs the
// handler itself, except through Fetch.
type Invoker struct {
	route *RouteDef
}

// NewInvoker creates the invoker for a registered route.
func NewInvoker(route *RouteDef) *Invoker {
	return &Invoker{route: route}
}

// Route returns the route this invoker targets.
func (iv *Invoker) Route() *RouteDef { return iv.route }

// URL substitutes args, in placeholder order, into the route pattern.
// Each argument is path-escaped. The argument count must equal the
// placeholder count.
func (iv *Invoker) URL(args ...string) (string, error) {
	if len(args) != len(iv.route.params) {
		return "", fmt.Errorf("%w: %s %s takes %d argument(s), got %d",
			ErrArgCount, iv.route.Method, iv.route.Pattern, len(iv.route.params), len(args))
	}
	if len(iv.route.segments) == 0 {
		return "/", nil
	}

	var sb strings.Builder
	next := 0
	for _, seg := range iv.route.segments {
		sb.WriteByte('/')
		if strings.HasPrefix(seg, ":") {
			sb.WriteString(url.PathEscape(args[next]))
			next++
			continue
		}
		sb.WriteString(seg)
	}
	return sb.String(), nil
}

// Invoke builds the attribute bundle for calling the route with args and
// an optional payload. A non-nil payload is sent as a JSON body: the bundle
// then carries hx-vals, the json-enc extension and the request headers.
func (iv *Invoker) Invoke(args []string, payload any) (Bundle, error) {
	u, err := iv.URL(args...)
	if err != nil {
		return Bundle{}, err
	}

	attrs := []Attr{{Key: attrForMethod(iv.route.Method), Value: u}}
	if payload != nil {
		vals, err := jsoncodec.MarshalString(payload)
		if err != nil {
			return Bundle{}, fmt.Errorf("hxtag: encoding payload for %s %s: %w", iv.route.Method, iv.route.Pattern, err)
		}
		attrs = append(attrs,
			Attr{Key: AttrVals, Value: vals},
			Attr{Key: AttrExt, Value: JSONExtension},
			Attr{Key: AttrHeaders, Value: jsonHeaders},
		)
	}
	return Bundle{attrs: attrs}, nil
}

// Attrs is Invoke without a payload.
func (iv *Invoker) Attrs(args ...string) (Bundle, error) {
	return iv.Invoke(args, nil)
}

// Fetch runs the route's handler in-process and returns the rendered body.
// Render functions use it to load data through their own API. The request
// carries ctx, so cancelling the resolution cancels the handler.
func (iv *Invoker) Fetch(ctx context.Context, args ...string) (string, error) {
	u, err := iv.URL(args...)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, iv.route.Method, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("HX-Request", "true")

	params := make(Params, len(args))
	for i, name := range iv.route.params {
		params[name] = args[i]
	}
	req = req.WithContext(WithParams(ctx, params))

	res, err := callHandler(iv.route, req, params)
	if err != nil {
		return "", err
	}
	body, err := res.renderBody(ctx)
	if err != nil {
		return "", &HandlerError{Method: iv.route.Method, Pattern: iv.route.Pattern, Err: err}
	}
	return body, nil
}

// callHandler runs a route handler, converting panics and Err results
// into *HandlerError.
func callHandler(route *RouteDef, r *http.Request, params Params) (res Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &HandlerError{Method: route.Method, Pattern: route.Pattern, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()
	res = route.Handler(r, params)
	if res.err != nil {
		return res, &HandlerError{Method: route.Method, Pattern: route.Pattern, Err: res.err}
	}
	return res, nil
}

// API is what a render function receives: one invoker per route its
// component declared, addressed by client key.
//
//	func renderTodo(ctx context.Context, p hxtag.Props, api hxtag.API, c hxtag.Classes) templ.Component {
//	    toggle, _ := api.Invoke("update", []string{p.String("id")}, map[string]any{"done": !p.Bool("done")})
//	    return todoItem(p, toggle.Target("closest li"))
//	}
type API struct {
	tag      string
	invokers map[string]*Invoker
}

func newAPI(tag string, defs []*RouteDef) API {
	invokers := make(map[string]*Invoker, len(defs))
	for _, def := range defs {
		invokers[def.Key] = NewInvoker(def)
	}
	return API{tag: tag, invokers: invokers}
}

// Route returns the invoker for key.
func (a API) Route(key string) (*Invoker, bool) {
	iv, ok := a.invokers[key]
	return iv, ok
}

// Keys returns the client keys, sorted.
func (a API) Keys() []string {
	keys := make([]string, 0, len(a.invokers))
	for k := range a.invokers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (a API) invoker(key string) (*Invoker, error) {
	iv, ok := a.invokers[key]
	if !ok {
		return nil, fmt.Errorf("%w: <%s> has no route %q", ErrUnknownRoute, a.tag, key)
	}
	return iv, nil
}

// Invoke builds the bundle for the route named key.
func (a API) Invoke(key string, args []string, payload any) (Bundle, error) {
	iv, err := a.invoker(key)
	if err != nil {
		return Bundle{}, err
	}
	return iv.Invoke(args, payload)
}

// Attrs builds the bundle for the route named key without a payload.
func (a API) Attrs(key string, args ...string) (Bundle, error) {
	return a.Invoke(key, args, nil)
}

// MustAttrs is Attrs that panics on error. The resolver turns render
// panics into a failed resolution.
func (a API) MustAttrs(key string, args ...string) Bundle {
	b, err := a.Attrs(key, args...)
	if err != nil {
		panic(err)
	}
	return b
}

// Fetch runs the route named key in-process and returns its body.
func (a API) Fetch(ctx context.Context, key string, args ...string) (string, error) {
	iv, err := a.invoker(key)
	if err != nil {
		return "", err
	}
	return iv.Fetch(ctx, args...)
}

// SwapMode is an hx-swap strategy.
type SwapMode string

const (
	SwapOuter       SwapMode = "outerHTML"
	SwapInner       SwapMode = "innerHTML"
	SwapBeforeEnd   SwapMode = "beforeend"
	SwapAfterEnd    SwapMode = "afterend"
	SwapBeforeBegin SwapMode = "beforebegin"
	SwapAfterBegin  SwapMode = "afterbegin"
	SwapDelete      SwapMode = "delete"
	SwapNone        SwapMode = "none" // response is discarded
)
