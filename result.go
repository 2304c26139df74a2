package hxtag

import (
	"bytes"
	"context"
	"net/http"

	"github.com/a-h/templ"

	"github.com/pthm/hxtag/lib/jsoncodec"
)

// Result is returned from route handlers to describe the response.
//
// HTML bodies are resolved before they are written, so a handler may
// return markup containing component tags:
//
//	return hxtag.HTML(`<todo-item id="` + id + `"></todo-item>`).Flash(hxtag.FlashSuccess, "Added")
//
// Other patterns:
//
//	return hxtag.OK(todoList(items))                 // templ component
//	return hxtag.JSON(items)                          // application/json
//	return hxtag.Err(err)                             // 500, logged with a request id
//	return hxtag.Redirect("/todos")                   // HX-Redirect or 303
//	return hxtag.NoContent().Trigger("todos:changed") // 204 + event
type Result struct {
	body        templ.Component
	json        any
	isJSON      bool
	err         error
	redirect    string
	flashes     []Flash
	trigger     string
	triggerData map[string]any
	headers     map[string]string
	status      int
}

// OK responds with a rendered component.
func OK(body templ.Component) Result {
	return Result{body: body}
}

// HTML responds with markup.
func HTML(markup string) Result {
	return Result{body: HTMLComponent(markup)}
}

// JSON responds with v encoded as JSON. JSON bodies are not resolved.
func JSON(v any) Result {
	return Result{json: v, isJSON: true}
}

// NoContent responds with 204 and no body.
func NoContent() Result {
	return Result{status: http.StatusNoContent}
}

// Err fails the request. The router answers 500 without exposing err.
func Err(err error) Result {
	return Result{err: err}
}

// Redirect sends the client to url: HX-Redirect for htmx requests, 303 otherwise.
func Redirect(url string) Result {
	return Result{redirect: url}
}

// Flash adds a toast notification rendered as an out-of-band swap.
func (r Result) Flash(level, message string) Result {
	r.flashes = append(append([]Flash(nil), r.flashes...), Flash{Level: level, Message: message})
	return r
}

// Trigger emits an event through the HX-Trigger header, optionally with data.
func (r Result) Trigger(event string, data ...map[string]any) Result {
	r.trigger = event
	if len(data) > 0 {
		r.triggerData = data[0]
	}
	return r
}

// PushURL updates the browser URL via HX-Push-Url.
func (r Result) PushURL(url string) Result {
	return r.Header("HX-Push-Url", url)
}

// Header sets a response header.
func (r Result) Header(key, value string) Result {
	headers := make(map[string]string, len(r.headers)+1)
	for k, v := range r.headers {
		headers[k] = v
	}
	headers[key] = value
	r.headers = headers
	return r
}

// Status sets the status code. The default is 200.
func (r Result) Status(code int) Result {
	r.status = code
	return r
}

// GetErr returns the error from the result.
func (r Result) GetErr() error { return r.err }

// GetRedirect returns the redirect URL.
func (r Result) GetRedirect() string { return r.redirect }

// GetFlashes returns the flash messages.
func (r Result) GetFlashes() []Flash { return r.flashes }

// GetTrigger returns the trigger event name.
func (r Result) GetTrigger() string { return r.trigger }

// GetTriggerData returns the trigger event data.
func (r Result) GetTriggerData() map[string]any { return r.triggerData }

// GetHeaders returns the response headers.
func (r Result) GetHeaders() map[string]string { return r.headers }

// GetStatus returns the status code (0 means not set, use default 200).
func (r Result) GetStatus() int { return r.status }

// IsJSON reports whether the body is JSON.
func (r Result) IsJSON() bool { return r.isJSON }

// renderBody renders the body to a string. JSON bodies are encoded.
func (r Result) renderBody(ctx context.Context) (string, error) {
	if r.isJSON {
		return jsoncodec.MarshalString(r.json)
	}
	if r.body == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.body.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
