package hxtag

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"
)

func mustRoute(t *testing.T, method, pattern string, h HandlerFunc) *RouteDef {
	t.Helper()
	def, err := newRouteDef("test-comp", "", method, pattern, h)
	if err != nil {
		t.Fatalf("newRouteDef(%s %s) error = %v", method, pattern, err)
	}
	return def
}

func TestInvokerURL(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		args    []string
		want    string
		wantErr bool
	}{
		{"root", "/", nil, "/", false},
		{"static", "/todos", nil, "/todos", false},
		{"one param", "/todos/:id", []string{"42"}, "/todos/42", false},
		{"two params in order", "/users/:user/todos/:id", []string{"ada", "7"}, "/users/ada/todos/7", false},
		{"escaped", "/todos/:id", []string{"a/b c"}, "/todos/a%2Fb%20c", false},
		{"too few", "/todos/:id", nil, "", true},
		{"too many", "/todos", []string{"1"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := NewInvoker(mustRoute(t, "GET", tt.pattern, noopHandler))
			got, err := iv.URL(tt.args...)
			if tt.wantErr {
				if !errors.Is(err, ErrArgCount) {
					t.Errorf("URL() error = %v, want ErrArgCount", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("URL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInvokerEscapedArgsMatchRoute(t *testing.T) {
	rt := NewRouteTable()
	def, err := rt.add("", "", "GET", "/files/:name", noopHandler)
	if err != nil {
		t.Fatal(err)
	}
	u, err := NewInvoker(def).URL("dir/report 1.pdf")
	if err != nil {
		t.Fatal(err)
	}
	_, params, ok := rt.Match("GET", u)
	if !ok {
		t.Fatalf("Match(%q) found nothing", u)
	}
	if params.Get("name") != "dir/report 1.pdf" {
		t.Errorf("name = %q, want the original argument", params.Get("name"))
	}
}

func TestInvokeWithoutPayload(t *testing.T) {
	iv := NewInvoker(mustRoute(t, "DELETE", "/todos/:id", noopHandler))
	b, err := iv.Attrs("3")
	if err != nil {
		t.Fatal(err)
	}
	want := []Attr{{"hx-delete", "/todos/3"}}
	if !reflect.DeepEqual(b.List(), want) {
		t.Errorf("List() = %v, want %v", b.List(), want)
	}
	if b.Method() != http.MethodDelete || b.URL() != "/todos/3" {
		t.Errorf("Method(), URL() = %s %s", b.Method(), b.URL())
	}
}

func TestInvokeWithPayload(t *testing.T) {
	iv := NewInvoker(mustRoute(t, "POST", "/todos", noopHandler))
	b, err := iv.Invoke(nil, map[string]any{"title": "Milk", "done": false})
	if err != nil {
		t.Fatal(err)
	}

	want := []Attr{
		{"hx-post", "/todos"},
		{"hx-vals", `{"done":false,"title":"Milk"}`},
		{"hx-ext", "json-enc"},
		{"hx-headers", `{"Accept":"text/html","Content-Type":"application/json","HX-Request":"true"}`},
	}
	if !reflect.DeepEqual(b.List(), want) {
		t.Errorf("List() =\n%v\nwant\n%v", b.List(), want)
	}
}

func TestInvokeDeterministic(t *testing.T) {
	iv := NewInvoker(mustRoute(t, "PATCH", "/todos/:id", noopHandler))
	payload := map[string]any{"z": 1, "a": []any{"x", "y"}, "m": map[string]any{"k2": 2, "k1": 1}}

	first, err := iv.Invoke([]string{"5"}, payload)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		again, err := iv.Invoke([]string{"5"}, payload)
		if err != nil {
			t.Fatal(err)
		}
		if again.String() != first.String() {
			t.Fatalf("call %d differs:\n%s\n%s", i, again.String(), first.String())
		}
	}
}

func TestInvokeBadPayload(t *testing.T) {
	iv := NewInvoker(mustRoute(t, "POST", "/todos", noopHandler))
	if _, err := iv.Invoke(nil, map[string]any{"ch": make(chan int)}); err == nil {
		t.Error("Invoke() with an unencodable payload should fail")
	}
}

func TestBundleBuilders(t *testing.T) {
	iv := NewInvoker(mustRoute(t, "DELETE", "/todos/:id", noopHandler))
	base, err := iv.Attrs("1")
	if err != nil {
		t.Fatal(err)
	}

	b := base.TargetClosest("li").Swap(SwapOuter).Confirm("Delete?").Trigger("click").Indicator("#spin").PushURL()
	want := `hx-delete="/todos/1" hx-target="closest li" hx-swap="outerHTML" hx-confirm="Delete?" hx-trigger="click" hx-indicator="#spin" hx-push-url="true"`
	if b.String() != want {
		t.Errorf("String() =\n%s\nwant\n%s", b.String(), want)
	}
	if base.Len() != 1 {
		t.Errorf("builders modified the receiver: Len() = %d", base.Len())
	}

	b = b.TargetThis()
	if v, _ := b.Get("hx-target"); v != "this" {
		t.Errorf("hx-target = %q, want replaced in place", v)
	}
	if b.Len() != 7 {
		t.Errorf("Len() = %d, want 7", b.Len())
	}

	attrs := b.Attributes()
	if attrs["hx-swap"] != "outerHTML" {
		t.Errorf("Attributes()[hx-swap] = %v", attrs["hx-swap"])
	}
}

func TestBundleStringEscapes(t *testing.T) {
	iv := NewInvoker(mustRoute(t, "POST", "/todos", noopHandler))
	b, err := iv.Invoke(nil, map[string]any{"title": `"quoted"`})
	if err != nil {
		t.Fatal(err)
	}
	s := b.String()
	if want := `hx-vals="{&#34;title&#34;:&#34;\&#34;quoted\&#34;&#34;}"`; !strings.Contains(s, want) {
		t.Errorf("String() = %s, want %s", s, want)
	}
}

func TestAPI(t *testing.T) {
	defs := []*RouteDef{
		mustRoute(t, "GET", "/todos", noopHandler),
		mustRoute(t, "POST", "/todos", noopHandler),
		mustRoute(t, "DELETE", "/todos/:id", noopHandler),
	}
	api := newAPI("todo-list", defs)

	if got := api.Keys(); !reflect.DeepEqual(got, []string{"create", "list", "remove"}) {
		t.Errorf("Keys() = %v", got)
	}

	b, err := api.Attrs("remove", "9")
	if err != nil {
		t.Fatal(err)
	}
	if b.URL() != "/todos/9" {
		t.Errorf("URL() = %q", b.URL())
	}

	if _, err := api.Attrs("update"); !errors.Is(err, ErrUnknownRoute) {
		t.Errorf("Attrs(update) error = %v, want ErrUnknownRoute", err)
	}
	if _, err := api.Attrs("remove"); !errors.Is(err, ErrArgCount) {
		t.Errorf("Attrs(remove) error = %v, want ErrArgCount", err)
	}
}

func TestAPIMustAttrsPanics(t *testing.T) {
	api := newAPI("x-y", nil)
	defer func() {
		rec := recover()
		err, ok := rec.(error)
		if !ok || !errors.Is(err, ErrUnknownRoute) {
			t.Errorf("recover() = %v, want ErrUnknownRoute", rec)
		}
	}()
	api.MustAttrs("nope")
}

func TestAPIFetch(t *testing.T) {
	get := mustRoute(t, "GET", "/todos/:id", func(r *http.Request, p Params) Result {
		if !IsHTMX(r) {
			return Err(errors.New("expected HX-Request"))
		}
		if ParamsFromContext(r.Context()).Get("id") != p.Get("id") {
			return Err(errors.New("params missing from context"))
		}
		return HTML("<li>" + p.Get("id") + "</li>")
	})
	failing := mustRoute(t, "POST", "/todos", func(r *http.Request, p Params) Result {
		return Err(errors.New("db down"))
	})
	panicking := mustRoute(t, "DELETE", "/todos/:id", func(r *http.Request, p Params) Result {
		panic("boom")
	})
	api := newAPI("todo-item", []*RouteDef{get, failing, panicking})

	body, err := api.Fetch(context.Background(), "get", "a b")
	if err != nil {
		t.Fatalf("Fetch(get) error = %v", err)
	}
	if body != "<li>a b</li>" {
		t.Errorf("Fetch(get) = %q, want %q", body, "<li>a b</li>")
	}

	_, err = api.Fetch(context.Background(), "create")
	var herr *HandlerError
	if !errors.As(err, &herr) || herr.Pattern != "/todos" {
		t.Errorf("Fetch(create) error = %v, want *HandlerError for /todos", err)
	}

	if _, err := api.Fetch(context.Background(), "remove", "1"); !IsHandlerError(err) {
		t.Errorf("Fetch(remove) error = %v, want recovered panic as HandlerError", err)
	}

	if _, err := api.Fetch(context.Background(), "list"); !errors.Is(err, ErrUnknownRoute) {
		t.Errorf("Fetch(list) error = %v, want ErrUnknownRoute", err)
	}
}
