package hxtag

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/a-h/templ"
)

// Classes maps logical style names to generated class names. It is passed
// to render functions unchanged.
type Classes map[string]string

// Get returns the class for name, or name itself when it has no mapping.
func (c Classes) Get(name string) string {
	if v, ok := c[name]; ok {
		return v
	}
	return name
}

// RenderFunc renders a component. It must not modify the registry.
//
// Calls made through api are described (Attrs, Invoke) or executed
// in-process (Fetch); ctx is cancelled when the resolution is abandoned.
type RenderFunc func(ctx context.Context, p Props, api API, c Classes) templ.Component

// Component is the definition of a custom tag.
//
//	reg.MustRegister(hxtag.Component{
//	    Tag: "todo-item",
//	    Props: hxtag.Schema{
//	        {"id", hxtag.StringProp("").Required()},
//	        {"title", hxtag.StringProp("")},
//	        {"done", hxtag.BoolProp(false)},
//	    },
//	    Routes: []hxtag.Route{
//	        {Method: http.MethodPatch, Pattern: "/todos/:id", Handler: s.toggle},
//	        {Method: http.MethodDelete, Pattern: "/todos/:id", Handler: s.remove},
//	    },
//	    Render: func(ctx context.Context, p hxtag.Props, api hxtag.API, c hxtag.Classes) templ.Component {
//	        return todoItem(p, api.MustAttrs("remove", p.String("id")))
//	    },
//	})
//
// A nil Props schema accepts every attribute as a string prop.
type Component struct {
	Tag     string
	Props   Schema
	Render  RenderFunc
	Routes  []Route
	Classes Classes
}

// Entry is a registered component. It is immutable.
type Entry struct {
	tag     string
	schema  Schema
	render  RenderFunc
	routes  []*RouteDef
	api     API
	classes Classes
}

// Tag returns the normalized tag name.
func (e *Entry) Tag() string { return e.tag }

// Schema returns the prop schema, nil when props pass through.
func (e *Entry) Schema() Schema { return e.schema }

// Routes returns the routes the component declared.
func (e *Entry) Routes() []*RouteDef { return append([]*RouteDef(nil), e.routes...) }

// API returns the invokers for the component's routes.
func (e *Entry) API() API { return e.api }

// Classes returns the component's class mapping.
func (e *Entry) Classes() Classes { return e.classes }

// Render parses raw against the schema and calls the render function.
// children is the tag's inner HTML, passed through unresolved.
func (e *Entry) Render(ctx context.Context, raw RawAttributes, children string) (templ.Component, error) {
	props, err := ParseProps(e.schema, raw)
	if err != nil {
		return nil, err
	}
	return e.RenderProps(ctx, props.withChildren(children)), nil
}

// RenderProps calls the render function with already parsed props.
func (e *Entry) RenderProps(ctx context.Context, p Props) templ.Component {
	return e.render(ctx, p, e.api, e.classes)
}

var tagPattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)+$`)

// NormalizeTag lower-cases a tag name. HTML tag names are case-insensitive.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// ValidTag reports whether tag is a usable custom tag name: lower-case
// letters and digits with at least one hyphen, like "user-card".
func ValidTag(tag string) bool {
	return tagPattern.MatchString(tag)
}

// compile validates c and builds its entry. Nothing is registered.
func (c Component) compile() (*Entry, error) {
	tag := NormalizeTag(c.Tag)
	if !ValidTag(tag) {
		return nil, fmt.Errorf("%w: invalid tag name %q", ErrInvalidComponent, c.Tag)
	}
	if c.Render == nil {
		return nil, fmt.Errorf("%w: <%s> has no render function", ErrInvalidComponent, tag)
	}
	if c.Props != nil {
		if err := c.Props.Validate(); err != nil {
			return nil, fmt.Errorf("<%s>: %w", tag, err)
		}
	}

	defs := make([]*RouteDef, 0, len(c.Routes))
	keys := make(map[string]*RouteDef, len(c.Routes))
	for _, r := range c.Routes {
		def, err := newRouteDef(tag, r.Key, r.Method, r.Pattern, r.Handler)
		if err != nil {
			return nil, fmt.Errorf("<%s>: %w", tag, err)
		}
		if prev, ok := keys[def.Key]; ok {
			return nil, fmt.Errorf("%w: <%s> key %q is used by %s %s and %s %s",
				ErrDuplicateRoute, tag, def.Key, prev.Method, prev.Pattern, def.Method, def.Pattern)
		}
		keys[def.Key] = def
		defs = append(defs, def)
	}

	var schema Schema
	if c.Props != nil {
		schema = make(Schema, len(c.Props))
		copy(schema, c.Props)
	}

	classes := make(Classes, len(c.Classes))
	for k, v := range c.Classes {
		classes[k] = v
	}

	return &Entry{
		tag:     tag,
		schema:  schema,
		render:  c.Render,
		routes:  defs,
		api:     newAPI(tag, defs),
		classes: classes,
	}, nil
}
