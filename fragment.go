package hxtag

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/pthm/hxtag/lib/encoding"
)

// fragmentTagKey binds a token to the tag it was issued for.
const fragmentTagKey = "_tag"

// Fragments serves components on their own URL so pages can load them
// after the initial response:
//
//	GET /_c/user-card?p=<token>
//
// The token carries the component's attributes. By default it is signed
// (readable, tamper-proof); Sensitive tokens are encrypted.
type Fragments struct {
	res       *Resolver
	enc       *encoding.Encoder
	prefix    string
	sensitive bool
}

// NewFragments creates the fragment endpoint from WithFragments. The key
// is required.
func NewFragments(res *Resolver, opts ...Option) (*Fragments, error) {
	o := newOptions(opts)
	enc, err := encoding.NewEncoder(o.fragmentKey)
	if err != nil {
		return nil, fmt.Errorf("hxtag: fragments: %w", err)
	}
	prefix := o.fragmentPrefix
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Fragments{res: res, enc: enc, prefix: prefix}, nil
}

// Prefix returns the mount path, always ending in "/".
func (f *Fragments) Prefix() string { return f.prefix }

// Sensitive returns a copy that encrypts tokens instead of signing them.
func (f *Fragments) Sensitive() *Fragments {
	c := *f
	c.sensitive = true
	return &c
}

// URL returns the fragment URL for tag with attrs. The attribute name
// "_tag" is reserved and rejected with ErrReservedAttr.
func (f *Fragments) URL(tag string, attrs RawAttributes) (string, error) {
	entry, ok := f.res.reg.Lookup(tag)
	if !ok {
		return "", fmt.Errorf("%w: component <%s>", ErrNotFound, NormalizeTag(tag))
	}
	if _, ok := attrs[fragmentTagKey]; ok {
		return "", fmt.Errorf("%w: %q on <%s>", ErrReservedAttr, fragmentTagKey, entry.tag)
	}

	payload := make(map[string]string, len(attrs)+1)
	for k, v := range attrs {
		payload[k] = v
	}
	payload[fragmentTagKey] = entry.tag

	token, err := f.enc.Encode(payload, f.sensitive)
	if err != nil {
		return "", err
	}
	return f.prefix + entry.tag + "?p=" + url.QueryEscape(token), nil
}

// Lazy renders placeholder and loads the component when it scrolls into
// view.
func (f *Fragments) Lazy(tag string, attrs RawAttributes, placeholder templ.Component) templ.Component {
	return f.placeholder(tag, attrs, placeholder, "intersect once")
}

// Defer renders placeholder and loads the component once the page has
// loaded.
func (f *Fragments) Defer(tag string, attrs RawAttributes, placeholder templ.Component) templ.Component {
	return f.placeholder(tag, attrs, placeholder, "load")
}

func (f *Fragments) placeholder(tag string, attrs RawAttributes, placeholder templ.Component, trigger string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		u, err := f.URL(tag, attrs)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, `<div hx-get="%s" hx-trigger="%s" hx-swap="outerHTML">`, html.EscapeString(u), trigger)
		if err != nil {
			return err
		}
		if placeholder != nil {
			if err := placeholder.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err = io.WriteString(w, `</div>`)
		return err
	})
}

// match reports whether r is for the fragment endpoint.
func (f *Fragments) match(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, f.prefix)
}

// Render decodes the request's token and resolves the component.
func (f *Fragments) Render(r *http.Request) (string, error) {
	tag := strings.TrimPrefix(r.URL.Path, f.prefix)
	if tag == "" || strings.Contains(tag, "/") {
		return "", fmt.Errorf("%w: fragment %q", ErrNotFound, r.URL.Path)
	}

	token := r.URL.Query().Get("p")
	if token == "" {
		return "", ErrInvalidFormat
	}
	attrs, err := f.enc.Decode(token)
	if err != nil {
		return "", wrapEncodingError(err)
	}
	if attrs[fragmentTagKey] != NormalizeTag(tag) {
		return "", ErrSignatureInvalid
	}
	delete(attrs, fragmentTagKey)
	return f.res.ResolveComponent(r.Context(), tag, attrs, "")
}

// ServeHTTP serves fragments without a Router.
func (f *Fragments) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	out, err := f.Render(r)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, out)
	case IsNotFound(err):
		http.Error(w, "Not found", http.StatusNotFound)
	case IsDecryptionError(err), errors.Is(err, ErrInvalidFormat):
		http.Error(w, "Bad request", http.StatusBadRequest)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
