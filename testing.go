package hxtag

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/pthm/hxtag/lib/jsoncodec"
)

// TestResult holds the result of resolving HTML or serving a request
// in a test.
//
// Provides convenience methods for asserting on HTML content, headers,
// status codes, events, flashes, and redirects.
type TestResult struct {
	HTML            string
	StatusCode      int
	Headers         http.Header
	TriggeredEvents []string
	Flashes         []Flash
	RedirectURL     string
}

// TestResolve resolves src against reg.
//
//	result, err := hxtag.TestResolve(reg, `<user-card name="Ada"></user-card>`)
//	if !result.HTMLContains("Ada") {
//	    t.Fatal("missing name")
//	}
func TestResolve(reg *Registry, src string, opts ...Option) (*TestResult, error) {
	return TestResolveWithContext(context.Background(), reg, src, opts...)
}

// TestResolveWithContext is TestResolve with a custom context, for
// components that read request-scoped values.
func TestResolveWithContext(ctx context.Context, reg *Registry, src string, opts ...Option) (*TestResult, error) {
	out, err := NewResolver(reg, opts...).Resolve(ctx, src)
	if err != nil {
		return nil, err
	}
	return &TestResult{HTML: out, StatusCode: http.StatusOK, Headers: http.Header{}}, nil
}

// TestRender renders one registered component with raw attributes and
// resolves its output. Use it to unit test a component without a page.
//
//	result, err := hxtag.TestRender(reg, "todo-item", hxtag.RawAttributes{"id": "1", "done": ""}, "")
func TestRender(reg *Registry, tag string, attrs RawAttributes, children string) (*TestResult, error) {
	out, err := NewResolver(reg).ResolveComponent(context.Background(), tag, attrs, children)
	if err != nil {
		return nil, err
	}
	return &TestResult{HTML: out, StatusCode: http.StatusOK, Headers: http.Header{}}, nil
}

// TestGet sends an htmx GET request to h.
func TestGet(h http.Handler, url string) (*TestResult, error) {
	return NewTestRequest(http.MethodGet, url).Execute(h)
}

// TestPost sends an htmx POST request to h with payload as JSON, the way
// a bundle with a payload does. A nil payload sends no body.
func TestPost(h http.Handler, url string, payload any) (*TestResult, error) {
	return NewTestRequest(http.MethodPost, url).WithJSON(payload).Execute(h)
}

// HTMLContains checks if the HTML contains a substring.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll checks if the HTML contains all the given substrings.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// HasEvent checks if an event was triggered.
func (r *TestResult) HasEvent(event string) bool {
	for _, e := range r.TriggeredEvents {
		if e == event {
			return true
		}
	}
	return false
}

// HasFlash checks if a flash message was set with the given level and message.
func (r *TestResult) HasFlash(level, message string) bool {
	for _, f := range r.Flashes {
		if f.Level == level && f.Message == message {
			return true
		}
	}
	return false
}

// WasRedirected checks if the response was a redirect.
func (r *TestResult) WasRedirected() bool {
	return r.RedirectURL != ""
}

// RedirectedTo checks if the response was redirected to a specific URL.
func (r *TestResult) RedirectedTo(url string) bool {
	return r.RedirectURL == url
}

// IsOK checks if the status code is 200.
func (r *TestResult) IsOK() bool {
	return r.StatusCode == http.StatusOK
}

// HasStatus checks if the status code matches.
func (r *TestResult) HasStatus(code int) bool {
	return r.StatusCode == code
}

// HasHeader checks if a header is set with the given value.
func (r *TestResult) HasHeader(key, value string) bool {
	return r.Headers.Get(key) == value
}

// parseTriggerHeader returns the event names in an HX-Trigger value:
// a JSON object keyed by event, or a comma-separated list.
func parseTriggerHeader(trigger string) []string {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		return nil
	}

	if strings.HasPrefix(trigger, "{") {
		var payload map[string]any
		if err := jsoncodec.UnmarshalString(trigger, &payload); err != nil {
			return nil
		}
		events := make([]string, 0, len(payload))
		for k := range payload {
			events = append(events, k)
		}
		sort.Strings(events)
		return events
	}

	parts := strings.Split(trigger, ",")
	events := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			events = append(events, p)
		}
	}
	return events
}

// parseFlashes extracts the toasts written by RenderFlashesOOB.
func parseFlashes(src string) []Flash {
	var flashes []Flash
	z := xhtml.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			return flashes
		}
		if tt != xhtml.StartTagToken {
			continue
		}
		tok := z.Token()
		level := ""
		for _, a := range tok.Attr {
			if a.Key == "class" && strings.HasPrefix(a.Val, "toast toast-") {
				level = strings.TrimPrefix(a.Val, "toast toast-")
			}
		}
		if level == "" {
			continue
		}
		message := ""
		if z.Next() == xhtml.TextToken {
			message = z.Token().Data
		}
		flashes = append(flashes, Flash{Level: level, Message: message})
	}
}

// TestRequestBuilder provides a fluent interface for building test requests.
//
//	result, err := hxtag.NewTestRequest("PATCH", "/todos/1").
//	    WithJSON(map[string]any{"done": true}).
//	    WithHeader("X-Custom", "header").
//	    Execute(router)
type TestRequestBuilder struct {
	method   string
	url      string
	formData url.Values
	json     any
	headers  map[string]string
	htmx     bool
	ctx      context.Context
}

// NewTestRequest creates a request builder. Requests carry HX-Request by
// default.
func NewTestRequest(method, url string) *TestRequestBuilder {
	return &TestRequestBuilder{
		method:  method,
		url:     url,
		headers: make(map[string]string),
		htmx:    true,
		ctx:     context.Background(),
	}
}

// WithFormData adds a form value to the request body.
func (b *TestRequestBuilder) WithFormData(key, value string) *TestRequestBuilder {
	if b.formData == nil {
		b.formData = url.Values{}
	}
	b.formData.Set(key, value)
	return b
}

// WithJSON sends v as a JSON body.
func (b *TestRequestBuilder) WithJSON(v any) *TestRequestBuilder {
	b.json = v
	return b
}

// WithHeader adds a header to the request.
func (b *TestRequestBuilder) WithHeader(key, value string) *TestRequestBuilder {
	b.headers[key] = value
	return b
}

// WithoutHTMX drops the HX-Request header, like a full page navigation.
func (b *TestRequestBuilder) WithoutHTMX() *TestRequestBuilder {
	b.htmx = false
	return b
}

// WithContext sets the context for the request.
func (b *TestRequestBuilder) WithContext(ctx context.Context) *TestRequestBuilder {
	b.ctx = ctx
	return b
}

// Execute serves the request with h and collects the response.
func (b *TestRequestBuilder) Execute(h http.Handler) (*TestResult, error) {
	var body io.Reader
	contentType := ""
	switch {
	case b.json != nil:
		data, err := jsoncodec.MarshalString(b.json)
		if err != nil {
			return nil, err
		}
		body = strings.NewReader(data)
		contentType = "application/json"
	case len(b.formData) > 0:
		body = strings.NewReader(b.formData.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req := httptest.NewRequest(b.method, b.url, body).WithContext(b.ctx)
	if b.htmx {
		req.Header.Set("HX-Request", "true")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	result := &TestResult{
		HTML:       rec.Body.String(),
		StatusCode: rec.Code,
		Headers:    rec.Header(),
	}
	if trigger := rec.Header().Get("HX-Trigger"); trigger != "" {
		result.TriggeredEvents = parseTriggerHeader(trigger)
	}
	if redirect := rec.Header().Get("HX-Redirect"); redirect != "" {
		result.RedirectURL = redirect
	} else if loc := rec.Header().Get("Location"); loc != "" {
		result.RedirectURL = loc
	}
	result.Flashes = parseFlashes(result.HTML)
	return result, nil
}
