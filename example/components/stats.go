package components

import (
	"context"
	"net/http"

	"github.com/a-h/templ"

	"github.com/pthm/hxtag"
)

func todoStats(store TodoStore) hxtag.Component {
	return hxtag.Component{
		Tag: "todo-stats",
		Routes: []hxtag.Route{
			{Key: "refresh", Method: http.MethodGet, Pattern: "/todos/stats", Handler: func(r *http.Request, p hxtag.Params) hxtag.Result {
				return hxtag.HTML(`<todo-stats></todo-stats>`)
			}},
		},
		Render: func(ctx context.Context, p hxtag.Props, api hxtag.API, c hxtag.Classes) templ.Component {
			stats := store.Stats()
			refresh := api.MustAttrs("refresh").Trigger("todos:changed from:body").Swap(hxtag.SwapOuter)
			return todoStatsTemplate(stats, refresh)
		},
	}
}
