package hxtag

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// HandlerFunc handles a request for a component-declared route. Params
// holds the path segments bound by the route's ":name" placeholders.
//
//	func (s *Store) handleGet(r *http.Request, p hxtag.Params) hxtag.Result {
//	    item, err := s.Get(r.Context(), p.Get("id"))
//	    if err != nil {
//	        return hxtag.Err(err)
//	    }
//	    return hxtag.OK(itemView(item))
//	}
type HandlerFunc func(r *http.Request, p Params) Result

// Route is one entry of a component's api block. Key is the name the
// render function uses to reach the route through its API; when empty it
// is derived from the method and pattern (see ClientKey).
type Route struct {
	Key     string
	Method  string
	Pattern string
	Handler HandlerFunc
}

// RouteDef is a registered route. It is owned by a RouteTable and never
// changes after registration.
type RouteDef struct {
	Method  string
	Pattern string
	Key     string
	Owner   string // tag of the declaring component, empty for routes added directly
	Handler HandlerFunc

	segments []string
	params   []string
}

// ParamNames returns the placeholder names in pattern order.
func (d *RouteDef) ParamNames() []string {
	return append([]string(nil), d.params...)
}

// Params maps placeholder names to matched path segments.
type Params map[string]string

// Get returns the named parameter or "".
func (p Params) Get(name string) string {
	return p[name]
}

type paramsKey struct{}

// WithParams stores params in ctx. The router does this for handlers and pages.
func WithParams(ctx context.Context, p Params) context.Context {
	return context.WithValue(ctx, paramsKey{}, p)
}

// ParamsFromContext returns the params stored by WithParams.
func ParamsFromContext(ctx context.Context) Params {
	p, _ := ctx.Value(paramsKey{}).(Params)
	return p
}

// ClientKey derives the default API key for a route:
//
//	POST   /todos          -> create
//	GET    /todos          -> list
//	GET    /todos/:id      -> get
//	PUT    /todos/:id      -> update
//	PATCH  /todos/:id/done -> update
//	DELETE /todos/:id      -> remove
//
// Other methods use the lower-cased method name.
func ClientKey(method, pattern string) string {
	switch strings.ToUpper(method) {
	case http.MethodPost:
		return "create"
	case http.MethodGet:
		if strings.Contains(pattern, "/:") {
			return "get"
		}
		return "list"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "remove"
	}
	return strings.ToLower(method)
}

// splitPath splits "/a/b" into ["a", "b"]. "/" yields no segments and a
// trailing slash yields a final empty segment.
func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// compilePattern validates pattern and extracts its placeholders.
func compilePattern(pattern string) (segments, params []string, err error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, nil, fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, pattern)
	}
	segments = splitPath(pattern)
	seen := map[string]bool{}
	for _, seg := range segments {
		if strings.HasPrefix(seg, "*") {
			return nil, nil, fmt.Errorf("%w: %q: catch-all segments are not supported", ErrInvalidPattern, pattern)
		}
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		name := seg[1:]
		if name == "" {
			return nil, nil, fmt.Errorf("%w: %q: empty parameter name", ErrInvalidPattern, pattern)
		}
		if seen[name] {
			return nil, nil, fmt.Errorf("%w: %q: duplicate parameter %q", ErrInvalidPattern, pattern, name)
		}
		seen[name] = true
		params = append(params, name)
	}
	return segments, params, nil
}

// match binds path segments against the route. Segment counts must be
// equal and placeholders never bind an empty segment.
func (d *RouteDef) match(segments []string) (Params, bool) {
	if len(segments) != len(d.segments) {
		return nil, false
	}
	var params Params
	for i, seg := range d.segments {
		if strings.HasPrefix(seg, ":") {
			if segments[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(Params, len(d.params))
			}
			params[seg[1:]] = unescapeSegment(segments[i])
			continue
		}
		if seg != segments[i] {
			return nil, false
		}
	}
	if params == nil {
		params = Params{}
	}
	return params, true
}

func unescapeSegment(s string) string {
	if v, err := url.PathUnescape(s); err == nil {
		return v
	}
	return s
}

// RouteTable holds routes in registration order. Matching is first match
// wins: given GET /items/:id then GET /items/featured, a request for
// /items/featured binds id="featured" to the first route.
//
// Writes happen at registration time; reads take a shared lock so
// concurrent matches never block each other.
type RouteTable struct {
	mu     sync.RWMutex
	routes []*RouteDef
}

// NewRouteTable creates an empty table.
func NewRouteTable() *RouteTable {
	return &RouteTable{}
}

// Add registers a route with no owning component and returns its client key.
func (t *RouteTable) Add(method, pattern string, h HandlerFunc) (string, error) {
	def, err := t.add("", "", method, pattern, h)
	if err != nil {
		return "", err
	}
	return def.Key, nil
}

// add registers a route owned by owner.
func (t *RouteTable) add(owner, key, method, pattern string, h HandlerFunc) (*RouteDef, error) {
	def, err := newRouteDef(owner, key, method, pattern, h)
	if err != nil {
		return nil, err
	}
	t.put(def)
	return def, nil
}

// put inserts def. A route with the same owner, method and pattern is
// replaced in place and keeps its match priority.
func (t *RouteTable) put(defs ...*RouteDef) {
	t.mu.Lock()
	defer t.mu.Unlock()
next:
	for _, def := range defs {
		for i, existing := range t.routes {
			if existing.Owner == def.Owner && existing.Method == def.Method && existing.Pattern == def.Pattern {
				t.routes[i] = def
				continue next
			}
		}
		t.routes = append(t.routes, def)
	}
}

func newRouteDef(owner, key, method, pattern string, h HandlerFunc) (*RouteDef, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: %s %s has no handler", ErrInvalidComponent, method, pattern)
	}
	if method == "" {
		return nil, fmt.Errorf("%w: %s has no method", ErrInvalidComponent, pattern)
	}
	segments, params, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}
	method = strings.ToUpper(method)
	if key == "" {
		key = ClientKey(method, pattern)
	}
	return &RouteDef{
		Method:   method,
		Pattern:  pattern,
		Key:      key,
		Owner:    owner,
		Handler:  h,
		segments: segments,
		params:   params,
	}, nil
}

// Match finds the first route for method and path. Method comparison is
// exact: HEAD does not match GET routes. path is the escaped request path
// (r.URL.EscapedPath()); bound parameters are unescaped.
func (t *RouteTable) Match(method, path string) (*RouteDef, Params, bool) {
	segments := splitPath(path)

	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, def := range t.routes {
		if def.Method != method {
			continue
		}
		if params, ok := def.match(segments); ok {
			return def, params, true
		}
	}
	return nil, nil, false
}

// Routes returns the routes in registration order.
func (t *RouteTable) Routes() []*RouteDef {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*RouteDef(nil), t.routes...)
}

// Len returns the number of routes.
func (t *RouteTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}
