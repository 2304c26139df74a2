// Package hxtag renders server-side components referenced as custom tags
// in HTML, and lets each component declare the HTTP routes it calls.
//
// # Components
//
// A component is a tag name, a prop schema and a render function:
//
//	reg := hxtag.NewRegistry(hxtag.WithLogger(logger))
//	reg.MustRegister(hxtag.Component{
//	    Tag: "user-card",
//	    Props: hxtag.Schema{
//	        {"name", hxtag.StringProp("").Required()},
//	        {"avatarSize", hxtag.OneOf([]string{"sm", "lg"}, "sm")},
//	        {"admin", hxtag.BoolProp(false)},
//	    },
//	    Render: renderUserCard,
//	})
//
// Pages use the tag like any element. Attribute names may be written in
// camelCase or kebab-case:
//
//	<user-card name="Ada" avatar-size="lg" admin></user-card>
//
// Boolean props are presence-based: admin="false" still yields true.
//
// # Resolution
//
// A Resolver replaces every registered tag with its rendered output and
// scans that output again, so components compose. Unregistered tags are
// ordinary HTML. Siblings render concurrently and are spliced in source
// order; nesting deeper than WithMaxDepth fails with ErrRecursionLimit.
// A failed resolution returns a *ResolveError and no output.
//
// # Routes
//
// Components declare routes next to their markup:
//
//	Routes: []hxtag.Route{
//	    {Method: "POST", Pattern: "/todos", Handler: s.create},
//	    {Method: "DELETE", Pattern: "/todos/:id", Handler: s.remove},
//	},
//
// The render function receives an API with one invoker per route, keyed
// by name (create, get, list, update, remove, unless Key is set). An
// invoker produces the htmx attributes that call the route:
//
//	del, err := api.Attrs("remove", todo.ID)
//	// hx-delete="/todos/42"
//
// With a payload the bundle also carries hx-vals, the json-enc extension
// and request headers, so the handler sees a JSON body.
//
// # Dispatch
//
// Router serves component routes (first match wins, in registration
// order), then pages, then the fragment endpoint. Handlers return a
// Result; HTML bodies are resolved before they are written. Mutating
// requests must carry HX-Request. Handler failures and panics become a
// 500 with a request id and are logged; details never reach the client
// unless WithDev is set.
package hxtag
