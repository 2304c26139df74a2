package components

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/pthm/hxtag"
)

// componentTag writes a custom tag for the resolver, with attrs given as
// name/value pairs.
func componentTag(tag string, attrs ...string) string {
	var sb strings.Builder
	sb.WriteString("<" + tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		fmt.Fprintf(&sb, ` %s="%s"`, attrs[i], templ.EscapeString(attrs[i+1]))
	}
	sb.WriteString("></" + tag + ">")
	return sb.String()
}

func todoItemTemplate(todo *Todo, class string, toggle, remove hxtag.Bundle) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		checked := ""
		if todo.Done() {
			checked = " checked"
		}
		var tags strings.Builder
		for _, t := range todo.Tags {
			tags.WriteString(`<span class="tag">` + templ.EscapeString(string(t)) + `</span>`)
		}
		_, err := fmt.Fprintf(w,
			`<li class="%s"><input type="checkbox" %s%s><a href="/tasks/%s">%s</a>%s<button %s>x</button></li>`,
			templ.EscapeString(class), toggle, checked,
			templ.EscapeString(todo.ID), templ.EscapeString(todo.Title), tags.String(), remove)
		return err
	})
}

func todoListTemplate(todos []*Todo, refresh hxtag.Bundle) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<section %s><ul id="todo-items">`, refresh); err != nil {
			return err
		}
		for _, todo := range todos {
			if _, err := io.WriteString(w, componentTag("todo-item", "id", todo.ID)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</ul>`); err != nil {
			return err
		}
		if len(todos) == 0 {
			if _, err := io.WriteString(w, `<p class="empty">Nothing to do.</p>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

func addTodoTemplate(create hxtag.Bundle) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<form %s hx-on::after-request="this.reset()">`+
			`<input name="title" placeholder="What needs doing?">`+
			`<input name="description" placeholder="Details">`+
			`<button type="submit">Add</button></form>`, create)
		return err
	})
}

func todoStatsTemplate(stats TodoStats, refresh hxtag.Bundle) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<aside %s><strong>%d</strong> total, %d pending, %d done</aside>`,
			refresh, stats.Total, stats.Pending, stats.Completed)
		return err
	})
}

func taskDetailTemplate(todo *Todo, edit hxtag.Bundle) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<article><h1>%s</h1><p>%s</p><p>Status: %s</p><button %s>Edit</button></article>`,
			templ.EscapeString(todo.Title), templ.EscapeString(todo.Description),
			templ.EscapeString(string(todo.Status)), edit)
		return err
	})
}

func taskEditTemplate(todo *Todo, save hxtag.Bundle) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<article><form %s>`+
			`<input name="title" value="%s">`+
			`<textarea name="description">%s</textarea>`+
			`<button type="submit">Save</button></form></article>`,
			save, templ.EscapeString(todo.Title), templ.EscapeString(todo.Description))
		return err
	})
}
