package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pthm/hxtag"
	"github.com/pthm/hxtag/config"
)

func TestPagePattern(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"index.html", "/"},
		{"about.html", "/about"},
		{"blog/index.html", "/blog"},
		{"users/_id.html", "/users/:id"},
		{"users/_id/edit.html", "/users/:id/edit"},
		{"_.html", "/_"},
	}
	for _, tt := range tests {
		if got := pagePattern(tt.rel); got != tt.want {
			t.Errorf("pagePattern(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestApp(t *testing.T, dev bool, promReg prometheus.Registerer) (*app, string) {
	t.Helper()
	dir := t.TempDir()
	pages := filepath.Join(dir, "pages")
	writeFile(t, filepath.Join(pages, "index.html"), `<main><hello-card></hello-card></main>`)
	writeFile(t, filepath.Join(pages, "users", "_id.html"), `<p>profile</p>`)
	writeFile(t, filepath.Join(pages, "users", "new.html"), `<p>new user</p>`)
	writeFile(t, filepath.Join(pages, "notes.txt"), `ignored`)

	yaml := `
dev: ` + map[bool]string{true: "true", false: "false"}[dev] + `
pages_dir: ` + pages + `
metrics:
  enabled: true
components:
  - tag: hello-card
    props:
      - name: name
        default: world
    routes:
      - method: POST
        path: /hello
        template: <hello-card name="again"></hello-card>
    template: <p>Hello, {{ .Props.name }}!</p>
`
	cfg, err := config.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	a, err := buildApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), promReg)
	if err != nil {
		t.Fatalf("buildApp() error = %v", err)
	}
	return a, pages
}

func TestFindPages_StaticFirst(t *testing.T) {
	a, _ := newTestApp(t, false, nil)

	var patterns []string
	for _, p := range a.pages {
		patterns = append(patterns, p.pattern)
	}
	want := []string{"/", "/users/new", "/users/:id"}
	if strings.Join(patterns, ",") != strings.Join(want, ",") {
		t.Errorf("patterns = %v, want %v", patterns, want)
	}
}

func TestHandler_ServesPagesAndRoutes(t *testing.T) {
	promReg := prometheus.NewRegistry()
	a, _ := newTestApp(t, false, promReg)
	h := newHandler(a, promReg)

	result, err := hxtag.NewTestRequest(http.MethodGet, "/").WithoutHTMX().Execute(h)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsOK() || result.HTML != "<main><p>Hello, world!</p></main>" {
		t.Errorf("GET / = %d %q", result.StatusCode, result.HTML)
	}

	result, err = hxtag.TestGet(h, "/users/new")
	if err != nil {
		t.Fatal(err)
	}
	if result.HTML != "<p>new user</p>" {
		t.Errorf("GET /users/new = %q, want the static page", result.HTML)
	}

	result, err = hxtag.TestPost(h, "/hello", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.HTML != "<p>Hello, again!</p>" {
		t.Errorf("POST /hello = %q", result.HTML)
	}

	result, err = hxtag.TestGet(h, "/missing")
	if err != nil {
		t.Fatal(err)
	}
	if !result.HasStatus(http.StatusNotFound) {
		t.Errorf("GET /missing status = %d, want 404", result.StatusCode)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d, want 200", rec.Code)
	}
	for _, name := range []string{"hxtag_dispatch_total", "hxtag_registered_components 1"} {
		if !strings.Contains(rec.Body.String(), name) {
			t.Errorf("metrics output missing %q", name)
		}
	}
}

func TestPageHandler_DevReloads(t *testing.T) {
	a, pages := newTestApp(t, true, nil)

	result, err := hxtag.TestGet(a.router, "/users/7")
	if err != nil {
		t.Fatal(err)
	}
	if result.HTML != "<p>profile</p>" {
		t.Fatalf("GET /users/7 = %q", result.HTML)
	}

	writeFile(t, filepath.Join(pages, "users", "_id.html"), `<p>edited</p>`)
	result, err = hxtag.TestGet(a.router, "/users/7")
	if err != nil {
		t.Fatal(err)
	}
	if result.HTML != "<p>edited</p>" {
		t.Errorf("GET /users/7 after edit = %q, want the edited page", result.HTML)
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hxtag.yaml")
	writeFile(t, path, "components:\n  - tag: x-a\n    template: <b>a</b>\n")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"validate", "-c", path})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out.String(), "Components: 1") {
		t.Errorf("validate output = %q, want component count", out.String())
	}
}
