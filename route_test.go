package hxtag

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
)

func noopHandler(r *http.Request, p Params) Result { return NoContent() }

func namedHandler(name string) HandlerFunc {
	return func(r *http.Request, p Params) Result { return HTML(name) }
}

func TestRouteTableFirstMatchWins(t *testing.T) {
	rt := NewRouteTable()
	if _, err := rt.Add(http.MethodGet, "/items/:id", namedHandler("param")); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Add(http.MethodGet, "/items/featured", namedHandler("static")); err != nil {
		t.Fatal(err)
	}

	def, params, ok := rt.Match(http.MethodGet, "/items/featured")
	if !ok {
		t.Fatal("Match() found nothing")
	}
	if def.Pattern != "/items/:id" {
		t.Errorf("matched %q, want the earlier /items/:id", def.Pattern)
	}
	if params.Get("id") != "featured" {
		t.Errorf("id = %q, want %q", params.Get("id"), "featured")
	}
}

func TestRouteTableMatch(t *testing.T) {
	rt := NewRouteTable()
	routes := []struct{ method, pattern string }{
		{http.MethodGet, "/"},
		{http.MethodGet, "/todos"},
		{http.MethodPost, "/todos"},
		{http.MethodGet, "/todos/:id"},
		{http.MethodPatch, "/todos/:id/done"},
		{http.MethodGet, "/users/:user/todos/:id"},
	}
	for _, r := range routes {
		if _, err := rt.Add(r.method, r.pattern, noopHandler); err != nil {
			t.Fatalf("Add(%s %s) error = %v", r.method, r.pattern, err)
		}
	}

	tests := []struct {
		name        string
		method      string
		path        string
		wantPattern string
		wantParams  Params
	}{
		{"root", "GET", "/", "/", Params{}},
		{"static", "GET", "/todos", "/todos", Params{}},
		{"method selects", "POST", "/todos", "/todos", Params{}},
		{"param", "GET", "/todos/42", "/todos/:id", Params{"id": "42"}},
		{"param then static", "PATCH", "/todos/7/done", "/todos/:id/done", Params{"id": "7"}},
		{"two params", "GET", "/users/ada/todos/3", "/users/:user/todos/:id", Params{"user": "ada", "id": "3"}},
		{"escaped param", "GET", "/todos/a%2Fb", "/todos/:id", Params{"id": "a/b"}},
		{"space param", "GET", "/todos/hello%20world", "/todos/:id", Params{"id": "hello world"}},
		{"segment count too long", "GET", "/todos/1/extra", "", nil},
		{"trailing slash differs", "GET", "/todos/", "", nil},
		{"no HEAD from GET", "HEAD", "/todos", "", nil},
		{"unknown method", "DELETE", "/todos/1", "", nil},
		{"unknown path", "GET", "/nope", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, params, ok := rt.Match(tt.method, tt.path)
			if tt.wantPattern == "" {
				if ok {
					t.Errorf("Match(%s %s) = %s, want no match", tt.method, tt.path, def.Pattern)
				}
				return
			}
			if !ok {
				t.Fatalf("Match(%s %s) found nothing, want %s", tt.method, tt.path, tt.wantPattern)
			}
			if def.Pattern != tt.wantPattern {
				t.Errorf("pattern = %q, want %q", def.Pattern, tt.wantPattern)
			}
			if !reflect.DeepEqual(params, tt.wantParams) {
				t.Errorf("params = %v, want %v", params, tt.wantParams)
			}
		})
	}
}

func TestRouteTableAddErrors(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		handler HandlerFunc
		want    error
	}{
		{"no leading slash", "GET", "todos", noopHandler, ErrInvalidPattern},
		{"catch-all", "GET", "/files/*path", noopHandler, ErrInvalidPattern},
		{"empty param", "GET", "/todos/:", noopHandler, ErrInvalidPattern},
		{"duplicate param", "GET", "/a/:id/b/:id", noopHandler, ErrInvalidPattern},
		{"nil handler", "GET", "/todos", nil, ErrInvalidComponent},
		{"no method", "", "/todos", noopHandler, ErrInvalidComponent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := NewRouteTable()
			_, err := rt.Add(tt.method, tt.pattern, tt.handler)
			if !errors.Is(err, tt.want) {
				t.Errorf("Add() error = %v, want %v", err, tt.want)
			}
			if rt.Len() != 0 {
				t.Errorf("Len() = %d after failed Add", rt.Len())
			}
		})
	}
}

func TestRouteTableReplaceInPlace(t *testing.T) {
	rt := NewRouteTable()
	if _, err := rt.add("todo-item", "", "GET", "/todos/:id", namedHandler("old")); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Add("GET", "/todos/special", namedHandler("other")); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.add("todo-item", "", "get", "/todos/:id", namedHandler("new")); err != nil {
		t.Fatal(err)
	}

	if rt.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", rt.Len())
	}
	def, _, ok := rt.Match("GET", "/todos/special")
	if !ok {
		t.Fatal("Match() found nothing")
	}
	body, err := def.Handler(nil, nil).renderBody(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if body != "new" {
		t.Errorf("handler = %q, want the replacement at the original position", body)
	}
}

func TestRouteTableMethodNormalized(t *testing.T) {
	rt := NewRouteTable()
	if _, err := rt.Add("post", "/todos", noopHandler); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := rt.Match("POST", "/todos"); !ok {
		t.Error("lower-case method should be stored upper-case")
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		method, pattern, want string
	}{
		{"POST", "/todos", "create"},
		{"GET", "/todos/:id", "get"},
		{"GET", "/todos", "list"},
		{"PUT", "/todos/:id", "update"},
		{"PATCH", "/todos/:id/done", "update"},
		{"DELETE", "/todos/:id", "remove"},
		{"OPTIONS", "/todos", "options"},
		{"post", "/todos", "create"},
	}
	for _, tt := range tests {
		if got := ClientKey(tt.method, tt.pattern); got != tt.want {
			t.Errorf("ClientKey(%s, %s) = %q, want %q", tt.method, tt.pattern, got, tt.want)
		}
	}
}

func TestParamsContext(t *testing.T) {
	ctx := WithParams(context.Background(), Params{"id": "9"})
	if got := ParamsFromContext(ctx).Get("id"); got != "9" {
		t.Errorf("ParamsFromContext().Get(id) = %q, want %q", got, "9")
	}
	if ParamsFromContext(context.Background()) != nil {
		t.Error("ParamsFromContext() without params should be nil")
	}
}

func TestRouteDefParamNames(t *testing.T) {
	rt := NewRouteTable()
	def, err := rt.add("", "", "GET", "/users/:user/todos/:id", noopHandler)
	if err != nil {
		t.Fatal(err)
	}
	if got := def.ParamNames(); !reflect.DeepEqual(got, []string{"user", "id"}) {
		t.Errorf("ParamNames() = %v, want [user id]", got)
	}
}
