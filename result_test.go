package hxtag

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestResultOK(t *testing.T) {
	r := OK(HTMLComponent("<p>hi</p>"))

	if r.GetErr() != nil {
		t.Errorf("GetErr() = %v, want nil", r.GetErr())
	}
	if r.GetRedirect() != "" {
		t.Errorf("GetRedirect() = %q, want empty", r.GetRedirect())
	}
	if r.GetStatus() != 0 {
		t.Errorf("GetStatus() = %d, want 0", r.GetStatus())
	}

	body, err := r.renderBody(context.Background())
	if err != nil {
		t.Fatalf("renderBody() error = %v", err)
	}
	if body != "<p>hi</p>" {
		t.Errorf("renderBody() = %q, want %q", body, "<p>hi</p>")
	}
}

func TestResultHTML(t *testing.T) {
	body, err := HTML(`<todo-item id="1"></todo-item>`).renderBody(context.Background())
	if err != nil {
		t.Fatalf("renderBody() error = %v", err)
	}
	if body != `<todo-item id="1"></todo-item>` {
		t.Errorf("renderBody() = %q", body)
	}
}

func TestResultJSON(t *testing.T) {
	r := JSON(map[string]any{"b": 2, "a": 1})
	if !r.IsJSON() {
		t.Fatal("IsJSON() = false, want true")
	}
	body, err := r.renderBody(context.Background())
	if err != nil {
		t.Fatalf("renderBody() error = %v", err)
	}
	if body != `{"a":1,"b":2}` {
		t.Errorf("renderBody() = %q, want %q", body, `{"a":1,"b":2}`)
	}
}

func TestResultErr(t *testing.T) {
	testErr := errors.New("test error")
	r := Err(testErr)

	if r.GetErr() != testErr {
		t.Errorf("GetErr() = %v, want %v", r.GetErr(), testErr)
	}
}

func TestResultRedirect(t *testing.T) {
	r := Redirect("/new-location")
	if r.GetRedirect() != "/new-location" {
		t.Errorf("GetRedirect() = %q, want %q", r.GetRedirect(), "/new-location")
	}
}

func TestResultNoContent(t *testing.T) {
	r := NoContent()
	if r.GetStatus() != http.StatusNoContent {
		t.Errorf("GetStatus() = %d, want %d", r.GetStatus(), http.StatusNoContent)
	}
	body, err := r.renderBody(context.Background())
	if err != nil || body != "" {
		t.Errorf("renderBody() = %q, %v; want empty", body, err)
	}
}

func TestResultChaining(t *testing.T) {
	r := HTML("<p></p>").
		Flash(FlashSuccess, "Saved").
		Flash(FlashInfo, "Synced").
		Trigger("todo:saved", map[string]any{"id": "1"}).
		Header("X-Custom", "v").
		PushURL("/todos/1").
		Status(http.StatusCreated)

	if len(r.GetFlashes()) != 2 {
		t.Fatalf("GetFlashes() len = %d, want 2", len(r.GetFlashes()))
	}
	if r.GetFlashes()[0].Message != "Saved" {
		t.Errorf("first flash = %q, want %q", r.GetFlashes()[0].Message, "Saved")
	}
	if r.GetTrigger() != "todo:saved" {
		t.Errorf("GetTrigger() = %q, want %q", r.GetTrigger(), "todo:saved")
	}
	if r.GetTriggerData()["id"] != "1" {
		t.Errorf("GetTriggerData() = %v", r.GetTriggerData())
	}
	if r.GetHeaders()["X-Custom"] != "v" {
		t.Errorf("X-Custom = %q, want %q", r.GetHeaders()["X-Custom"], "v")
	}
	if r.GetHeaders()["HX-Push-Url"] != "/todos/1" {
		t.Errorf("HX-Push-Url = %q, want %q", r.GetHeaders()["HX-Push-Url"], "/todos/1")
	}
	if r.GetStatus() != http.StatusCreated {
		t.Errorf("GetStatus() = %d, want %d", r.GetStatus(), http.StatusCreated)
	}
}

func TestResultBuildersCopy(t *testing.T) {
	base := HTML("x").Header("A", "1").Flash(FlashInfo, "one")
	_ = base.Header("B", "2").Flash(FlashInfo, "two")

	if _, ok := base.GetHeaders()["B"]; ok {
		t.Error("Header() modified the receiver")
	}
	if len(base.GetFlashes()) != 1 {
		t.Errorf("Flash() modified the receiver: %d flashes", len(base.GetFlashes()))
	}
}
