package components

import (
	"context"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/pthm/hxtag"
)

// Filters accepted by todo-list's status prop.
var Filters = []string{"all", string(StatusPending), string(StatusCompleted)}

func todoList(store TodoStore) hxtag.Component {
	return hxtag.Component{
		Tag: "todo-list",
		Props: hxtag.Schema{
			{Name: "status", Prop: hxtag.OneOf(Filters, "all")},
		},
		Routes: []hxtag.Route{
			{Method: http.MethodGet, Pattern: "/todos", Handler: func(r *http.Request, p hxtag.Params) hxtag.Result {
				status := r.URL.Query().Get("status")
				if status == "" {
					status = "all"
				}
				return hxtag.HTML(componentTag("todo-list", "status", status))
			}},
		},
		Render: func(ctx context.Context, p hxtag.Props, api hxtag.API, c hxtag.Classes) templ.Component {
			var status *Status
			if s := p.String("status"); s != "all" {
				st := Status(s)
				status = &st
			}
			todos := store.List(status, nil)

			refresh := api.MustAttrs("list").Trigger("todos:changed from:body").Swap(hxtag.SwapOuter)

			return todoListTemplate(todos, refresh)
		},
	}
}

func addTodo(store TodoStore) hxtag.Component {
	return hxtag.Component{
		Tag: "add-todo",
		Routes: []hxtag.Route{
			{Method: http.MethodPost, Pattern: "/todos", Handler: func(r *http.Request, p hxtag.Params) hxtag.Result {
				if err := r.ParseForm(); err != nil {
					return hxtag.Err(err)
				}
				title := strings.TrimSpace(r.FormValue("title"))
				description := strings.TrimSpace(r.FormValue("description"))
				if title == "" {
					return hxtag.HTML("").Flash(hxtag.FlashError, "Title is required")
				}

				var tags []Tag
				for _, t := range r.Form["tags"] {
					tags = append(tags, Tag(t))
				}
				id := store.Add(title, description, tags)

				return hxtag.HTML(componentTag("todo-item", "id", id)).
					Flash(hxtag.FlashSuccess, "Todo added!").
					Trigger("todos:changed")
			}},
		},
		Render: func(ctx context.Context, p hxtag.Props, api hxtag.API, c hxtag.Classes) templ.Component {
			create := api.MustAttrs("create").Target("#todo-items").Swap(hxtag.SwapAfterBegin)
			return addTodoTemplate(create)
		},
	}
}
