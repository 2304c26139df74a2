package components

import (
	"context"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/pthm/hxtag"
)

func taskDetail(store TodoStore) hxtag.Component {
	return hxtag.Component{
		Tag: "task-detail",
		Props: hxtag.Schema{
			{Name: "id", Prop: hxtag.StringProp("").Required()},
			{Name: "editing", Prop: hxtag.BoolProp(false)},
		},
		Routes: []hxtag.Route{
			{Key: "edit", Method: http.MethodGet, Pattern: "/tasks/:id/edit", Handler: func(r *http.Request, p hxtag.Params) hxtag.Result {
				return hxtag.HTML(componentTag("task-detail", "id", p.Get("id"), "editing", ""))
			}},
			{Method: http.MethodPut, Pattern: "/tasks/:id", Handler: func(r *http.Request, p hxtag.Params) hxtag.Result {
				if err := r.ParseForm(); err != nil {
					return hxtag.Err(err)
				}
				id := p.Get("id")
				title := strings.TrimSpace(r.FormValue("title"))
				description := strings.TrimSpace(r.FormValue("description"))
				if !store.Update(id, title, description, nil) {
					return hxtag.Err(hxtag.ErrNotFound)
				}
				return hxtag.HTML(componentTag("task-detail", "id", id)).
					Flash(hxtag.FlashSuccess, "Todo updated!")
			}},
		},
		Render: func(ctx context.Context, p hxtag.Props, api hxtag.API, c hxtag.Classes) templ.Component {
			todo := store.Get(p.String("id"))
			if todo == nil {
				return hxtag.HTMLComponent(`<p>Task not found.</p>`)
			}

			if p.Bool("editing") {
				save := api.MustAttrs("update", todo.ID).TargetClosest("article").Swap(hxtag.SwapOuter)
				return taskEditTemplate(todo, save)
			}

			edit := api.MustAttrs("edit", todo.ID).TargetClosest("article").Swap(hxtag.SwapOuter)
			return taskDetailTemplate(todo, edit)
		},
	}
}
