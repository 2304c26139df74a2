package config

import (
	"context"
	"fmt"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/pthm/hxtag"
)

// renderData is what a component template sees.
//
//	<li class="{{ class "item" }}" {{ .Attrs "remove" .Props.id }}>{{ .Props.title }}</li>
//	<ul>{{ .Children }}</ul>
type renderData struct {
	Props    map[string]any
	Children template.HTML
	api      hxtag.API
}

// Attrs renders the attribute bundle for the component route named key.
func (d renderData) Attrs(key string, args ...any) (template.HTMLAttr, error) {
	strs := make([]string, len(args))
	for i, a := range args {
		strs[i] = fmt.Sprint(a)
	}
	b, err := d.api.Attrs(key, strs...)
	if err != nil {
		return "", err
	}
	return template.HTMLAttr(b.String()), nil
}

// routeData is what a route template sees.
type routeData struct {
	Params hxtag.Params
}

// parseTemplate parses src with the class helper bound to classes.
// An empty src yields a nil template.
func parseTemplate(name, src string, classes map[string]string) (*template.Template, error) {
	if src == "" {
		return nil, nil
	}
	lookup := hxtag.Classes(classes)
	return template.New(name).
		Funcs(template.FuncMap{"class": lookup.Get}).
		Parse(src)
}

func templateRender(tmpl *template.Template) hxtag.RenderFunc {
	return func(ctx context.Context, p hxtag.Props, api hxtag.API, c hxtag.Classes) templ.Component {
		data := renderData{
			Props:    p.Map(),
			Children: template.HTML(p.ChildrenHTML()),
			api:      api,
		}
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			return tmpl.Execute(w, data)
		})
	}
}
