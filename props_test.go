package hxtag

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParsePropsCount(t *testing.T) {
	schema := Schema{{"count", NumberProp(0)}}

	tests := []struct {
		name    string
		raw     RawAttributes
		want    float64
		wantErr bool
	}{
		{"present", RawAttributes{"count": "5"}, 5, false},
		{"absent uses default", RawAttributes{}, 0, false},
		{"not a number", RawAttributes{"count": "abc"}, 0, true},
		{"negative float", RawAttributes{"count": "-2.5"}, -2.5, false},
		{"empty", RawAttributes{"count": ""}, 0, true},
		{"NaN", RawAttributes{"count": "NaN"}, 0, true},
		{"Inf", RawAttributes{"count": "Inf"}, 0, true},
		{"trailing junk", RawAttributes{"count": "5px"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseProps(schema, tt.raw)
			if tt.wantErr {
				var perrs PropErrors
				if !errors.As(err, &perrs) {
					t.Fatalf("ParseProps() error = %v, want PropErrors", err)
				}
				if len(perrs) != 1 || perrs[0].Kind != InvalidValue || perrs[0].Key != "count" {
					t.Errorf("ParseProps() errors = %v, want InvalidValue{count}", perrs)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseProps() error = %v", err)
			}
			if got := p.Number("count"); got != tt.want {
				t.Errorf("Number(count) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePropsBooleanPresence(t *testing.T) {
	schema := Schema{
		{"disabled", BoolProp(false)},
		{"open", BoolProp(true)},
	}

	tests := []struct {
		name         string
		raw          RawAttributes
		wantDisabled bool
		wantOpen     bool
	}{
		{"bare attribute", RawAttributes{"disabled": ""}, true, true},
		{"value true", RawAttributes{"disabled": "true"}, true, true},
		{"value false is still present", RawAttributes{"disabled": "false"}, true, true},
		{"value 0", RawAttributes{"disabled": "0"}, true, true},
		{"absent uses defaults", RawAttributes{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseProps(schema, tt.raw)
			if err != nil {
				t.Fatalf("ParseProps() error = %v", err)
			}
			if got := p.Bool("disabled"); got != tt.wantDisabled {
				t.Errorf("Bool(disabled) = %v, want %v", got, tt.wantDisabled)
			}
			if got := p.Bool("open"); got != tt.wantOpen {
				t.Errorf("Bool(open) = %v, want %v", got, tt.wantOpen)
			}
		})
	}
}

func TestParsePropsKebabCase(t *testing.T) {
	schema := Schema{
		{"maxCount", NumberProp(1)},
		{"userName", StringProp("").Required()},
	}

	p, err := ParseProps(schema, RawAttributes{"max-count": "3", "userName": "ada"})
	if err != nil {
		t.Fatalf("ParseProps() error = %v", err)
	}
	if p.Int("maxCount") != 3 {
		t.Errorf("Int(maxCount) = %d, want 3", p.Int("maxCount"))
	}
	if p.String("userName") != "ada" {
		t.Errorf("String(userName) = %q, want %q", p.String("userName"), "ada")
	}

	p, err = ParseProps(schema, RawAttributes{"maxCount": "7", "max-count": "9", "user-name": "bob"})
	if err != nil {
		t.Fatalf("ParseProps() error = %v", err)
	}
	if p.Int("maxCount") != 7 {
		t.Errorf("exact key should win: Int(maxCount) = %d, want 7", p.Int("maxCount"))
	}
	if p.String("userName") != "bob" {
		t.Errorf("String(userName) = %q, want %q", p.String("userName"), "bob")
	}
}

func TestParsePropsAccumulatesErrors(t *testing.T) {
	schema := Schema{
		{"label", StringProp("").Required()},
		{"count", NumberProp(0)},
		{"size", OneOf([]string{"sm", "md", "lg"}, "md")},
		{"items", ArrayProp(nil)},
		{"meta", ObjectProp(nil)},
		{"title", StringProp("untitled")},
	}
	raw := RawAttributes{
		"count": "many",
		"size":  "xl",
		"items": "[1,2",
		"meta":  "[1,2]",
	}

	_, err := ParseProps(schema, raw)
	var perrs PropErrors
	if !errors.As(err, &perrs) {
		t.Fatalf("ParseProps() error = %v, want PropErrors", err)
	}

	want := []struct {
		key  string
		kind PropErrorKind
	}{
		{"label", RequiredMissing},
		{"count", InvalidValue},
		{"size", InvalidValue},
		{"items", ParseFailed},
		{"meta", InvalidValue},
	}
	if len(perrs) != len(want) {
		t.Fatalf("got %d errors, want %d: %v", len(perrs), len(want), perrs)
	}
	for i, w := range want {
		if perrs[i].Key != w.key || perrs[i].Kind != w.kind {
			t.Errorf("error %d = %s/%s, want %s/%s", i, perrs[i].Key, perrs[i].Kind, w.key, w.kind)
		}
	}
	if perrs[2].Expected != "one of: sm, md, lg" {
		t.Errorf("OneOf Expected = %q, want %q", perrs[2].Expected, "one of: sm, md, lg")
	}
	if perrs[3].Reason == "" {
		t.Error("ParseFailed should carry a reason")
	}
}

func TestParsePropsJSON(t *testing.T) {
	schema := Schema{
		{"tags", ArrayProp([]any{})},
		{"user", ObjectProp(nil)},
	}
	p, err := ParseProps(schema, RawAttributes{
		"tags": `["a", "b"]`,
		"user": `{"name": "ada", "age": 36}`,
	})
	if err != nil {
		t.Fatalf("ParseProps() error = %v", err)
	}
	if got := p.Array("tags"); !reflect.DeepEqual(got, []any{"a", "b"}) {
		t.Errorf("Array(tags) = %v", got)
	}
	if got := p.Object("user"); got["name"] != "ada" || got["age"] != float64(36) {
		t.Errorf("Object(user) = %v", got)
	}
}

func TestParsePropsOneEntryPerSchemaKey(t *testing.T) {
	schema := Schema{
		{"a", StringProp("x")},
		{"b", NumberProp(2)},
		{"c", BoolProp(false)},
	}
	p, err := ParseProps(schema, RawAttributes{"a": "y", "unknown": "z"})
	if err != nil {
		t.Fatalf("ParseProps() error = %v", err)
	}
	if got := p.Keys(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Keys() = %v, want [a b c]", got)
	}
	if p.Has("unknown") {
		t.Error("attributes outside the schema should be dropped")
	}
}

func TestParsePropsNilSchema(t *testing.T) {
	p, err := ParseProps(nil, RawAttributes{"title": "Hi", "data-x": "1"})
	if err != nil {
		t.Fatalf("ParseProps() error = %v", err)
	}
	if p.String("title") != "Hi" || p.String("data-x") != "1" {
		t.Errorf("nil schema should pass attributes through, got %v", p.Map())
	}
}

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  Schema
		wantErr bool
	}{
		{"valid", Schema{{"a", StringProp("")}, {"b", OneOf([]string{"x"}, "x")}}, false},
		{"empty name", Schema{{"", StringProp("")}}, true},
		{"duplicate", Schema{{"a", StringProp("")}, {"a", NumberProp(0)}}, true},
		{"zero prop", Schema{{"a", Prop{}}}, true},
		{"empty oneOf", Schema{{"a", OneOf(nil, "")}}, true},
		{"default outside set", Schema{{"a", OneOf([]string{"x", "y"}, "z")}}, true},
		{"required oneOf", Schema{{"a", OneOf([]string{"x"}, "").Required()}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidComponent) {
				t.Errorf("Validate() error = %v, want ErrInvalidComponent", err)
			}
		})
	}
}

func TestRequiredDropsDefault(t *testing.T) {
	p := StringProp("x").Required()
	if _, ok := p.Default(); ok {
		t.Error("Default() ok = true for a required prop")
	}
	if !p.IsRequired() {
		t.Error("IsRequired() = false")
	}
}

func TestInferSchema(t *testing.T) {
	schema := InferSchema(map[string]any{
		"title":  "Hello",
		"count":  3,
		"ratio":  0.5,
		"open":   false,
		"tags":   []any{"a"},
		"config": map[string]any{},
	})

	want := map[string]PropKind{
		"config": KindObject,
		"count":  KindNumber,
		"open":   KindBoolean,
		"ratio":  KindNumber,
		"tags":   KindArray,
		"title":  KindString,
	}
	if got := schema.Names(); !reflect.DeepEqual(got, []string{"config", "count", "open", "ratio", "tags", "title"}) {
		t.Errorf("Names() = %v, want sorted keys", got)
	}
	for _, f := range schema {
		if f.Prop.Kind() != want[f.Name] {
			t.Errorf("%s kind = %s, want %s", f.Name, f.Prop.Kind(), want[f.Name])
		}
	}

	p, err := ParseProps(schema, RawAttributes{})
	if err != nil {
		t.Fatalf("ParseProps() error = %v", err)
	}
	if p.Number("count") != 3 || p.String("title") != "Hello" {
		t.Errorf("defaults not applied: %v", p.Map())
	}
}

func TestKebabCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"maxCount", "max-count"},
		{"userID", "user-i-d"},
		{"plain", "plain"},
		{"already-kebab", "already-kebab"},
		{"X", "x"},
	}
	for _, tt := range tests {
		if got := KebabCase(tt.in); got != tt.want {
			t.Errorf("KebabCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSuggest(t *testing.T) {
	schema := Schema{{"name", StringProp("").Required()}, {"size", StringProp("")}}

	got := Suggest(schema, RawAttributes{"nmae": "ada", "size": "lg"}, "name")
	if !strings.Contains(got, `"nmae"`) || !strings.Contains(got, `"name"`) {
		t.Errorf("Suggest() = %q, want near match nmae -> name", got)
	}

	if got := Suggest(schema, RawAttributes{"title": "x"}, "name"); got != "" {
		t.Errorf("Suggest() = %q, want no suggestion for distant names", got)
	}
	if got := Suggest(schema, RawAttributes{"size": "x"}, "name"); got != "" {
		t.Errorf("Suggest() = %q, known props are not candidates", got)
	}
}

func TestPropsChildren(t *testing.T) {
	p, err := ParseProps(nil, RawAttributes{})
	if err != nil {
		t.Fatalf("ParseProps() error = %v", err)
	}
	p = p.withChildren("<b>hi</b>")
	if p.ChildrenHTML() != "<b>hi</b>" {
		t.Errorf("ChildrenHTML() = %q", p.ChildrenHTML())
	}
}

func TestParsePropsDefaultsAreCopied(t *testing.T) {
	tags := []any{"a", map[string]any{"k": "v"}}
	meta := map[string]any{"n": 1.0, "list": []any{"x"}}
	schema := Schema{
		{"tags", ArrayProp(tags)},
		{"meta", ObjectProp(meta)},
	}
	tags[0] = "changed"
	meta["n"] = 2.0

	want := map[string]any{
		"tags": []any{"a", map[string]any{"k": "v"}},
		"meta": map[string]any{"n": 1.0, "list": []any{"x"}},
	}
	for i := 0; i < 2; i++ {
		props, err := ParseProps(schema, RawAttributes{})
		if err != nil {
			t.Fatal(err)
		}
		if got := props.Map(); !reflect.DeepEqual(got, want) {
			t.Fatalf("parse %d: props = %v, want %v", i, got, want)
		}
		props.Array("tags")[1].(map[string]any)["k"] = "mutated"
		props.Object("meta")["list"].([]any)[0] = "mutated"
		props.Object("meta")["extra"] = true
	}

	def, _ := schema[1].Prop.Default()
	if !reflect.DeepEqual(def, want["meta"]) {
		t.Errorf("Default() = %v after renders mutated props, want %v", def, want["meta"])
	}
}
