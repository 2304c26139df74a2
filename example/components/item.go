package components

import (
	"context"
	"net/http"

	"github.com/a-h/templ"

	"github.com/pthm/hxtag"
)

func todoItem(store TodoStore) hxtag.Component {
	return hxtag.Component{
		Tag: "todo-item",
		Props: hxtag.Schema{
			{Name: "id", Prop: hxtag.StringProp("").Required()},
		},
		Classes: hxtag.Classes{"done": "todo-done"},
		Routes: []hxtag.Route{
			{Method: http.MethodPatch, Pattern: "/todos/:id", Handler: func(r *http.Request, p hxtag.Params) hxtag.Result {
				id := p.Get("id")
				if !store.Toggle(id) {
					return hxtag.Err(hxtag.ErrNotFound)
				}
				return hxtag.HTML(componentTag("todo-item", "id", id)).
					Flash(hxtag.FlashSuccess, "Todo updated!").
					Trigger("todos:changed")
			}},
			{Method: http.MethodDelete, Pattern: "/todos/:id", Handler: func(r *http.Request, p hxtag.Params) hxtag.Result {
				if !store.Delete(p.Get("id")) {
					return hxtag.Err(hxtag.ErrNotFound)
				}
				return hxtag.HTML("").
					Flash(hxtag.FlashSuccess, "Todo deleted!").
					Trigger("todos:changed")
			}},
		},
		Render: func(ctx context.Context, p hxtag.Props, api hxtag.API, c hxtag.Classes) templ.Component {
			todo := store.Get(p.String("id"))
			if todo == nil {
				return hxtag.HTMLComponent("")
			}

			toggle := api.MustAttrs("update", todo.ID).TargetClosest("li").Swap(hxtag.SwapOuter)
			remove := api.MustAttrs("remove", todo.ID).
				TargetClosest("li").
				Swap(hxtag.SwapOuter).
				Confirm("Delete " + todo.Title + "?")

			class := ""
			if todo.Done() {
				class = c.Get("done")
			}
			return todoItemTemplate(todo, class, toggle, remove)
		},
	}
}
