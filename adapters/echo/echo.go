// Package hxtagecho provides Echo framework integration for hxtag.
//
// Mount the component router onto an Echo instance or group:
//
//	reg := hxtag.NewRegistry()
//	reg.MustRegister(todoList, todoItem)
//
//	e := echo.New()
//	rt, err := hxtagecho.Mount(e, reg)
//
// Echo's own routes keep priority; requests Echo cannot route go to the
// component routes, then pages, then fragments.
package hxtagecho

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/pthm/hxtag"
)

// Option configures the Mount and MountGroup functions.
type Option func(*options)

type options struct {
	key  []byte
	path string
	core []hxtag.Option
}

// WithKey sets the fragment token key.
// The key should be at least 32 bytes of cryptographically random data.
// If not provided, a random key is generated (suitable for development only).
func WithKey(key []byte) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithPath sets the URL prefix of the fragment endpoint.
// Defaults to "/_c/".
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithOptions passes options (logger, metrics, depth limit) to the
// resolver and router.
func WithOptions(opts ...hxtag.Option) Option {
	return func(o *options) {
		o.core = append(o.core, opts...)
	}
}

// Mount creates a router over reg and mounts it on an Echo instance.
//
//	rt, err := hxtagecho.Mount(e, reg, hxtagecho.WithKey(key))
//	rt.Page("/", homePage)
func Mount(e *echo.Echo, reg *hxtag.Registry, opts ...Option) (*hxtag.Router, error) {
	rt, err := newRouter(reg, opts)
	if err != nil {
		return nil, err
	}
	e.Any("/*", echo.WrapHandler(rt))
	return rt, nil
}

// MountGroup mounts the router on an Echo group so component routes share
// the group's middleware (auth, logging, etc.). Routes and pages match the
// full request path, group prefix included.
//
//	g := e.Group("/app", authMiddleware)
//	rt, err := hxtagecho.MountGroup(g, reg)
func MountGroup(g *echo.Group, reg *hxtag.Registry, opts ...Option) (*hxtag.Router, error) {
	rt, err := newRouter(reg, opts)
	if err != nil {
		return nil, err
	}
	g.Any("/*", echo.WrapHandler(rt))
	return rt, nil
}

func newRouter(reg *hxtag.Registry, opts []Option) (*hxtag.Router, error) {
	o := &options{path: hxtag.DefaultFragmentPrefix}
	for _, opt := range opts {
		opt(o)
	}

	key := o.key
	if key == nil {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("hxtagecho: failed to generate random key: %w", err)
		}
	}

	core := append([]hxtag.Option{hxtag.WithFragments(key, o.path)}, o.core...)
	return hxtag.NewRouter(reg, nil, core...)
}

// Render resolves the component tags in a templ component and writes the
// result to the Echo response. Nothing is written when resolution fails.
//
//	func handler(c echo.Context) error {
//	    return hxtagecho.Render(c, rt.Resolver(), dashboardPage())
//	}
func Render(c echo.Context, res *hxtag.Resolver, component templ.Component) error {
	ctx := c.Request().Context()
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		return err
	}
	out, err := res.Resolve(ctx, buf.String())
	if err != nil {
		return err
	}
	return c.HTML(http.StatusOK, out)
}
